package tx

import (
	"context"
	"database/sql"
	"sync"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context so stores called inside a
// transaction runner execute against it instead of the pool.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Hooks collects callbacks to run once a transaction commits. The runner
// that opened the transaction owns the list and fires it exactly once,
// after a successful commit only.
type Hooks struct {
	mu  sync.Mutex
	fns []func()
}

func NewHooks() *Hooks { return &Hooks{} }

func (h *Hooks) add(fn func()) {
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

// Run fires the collected callbacks in registration order and clears them.
func (h *Hooks) Run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type hooksKey struct{}

// WithHooks stores an after-commit hook list in context.
func WithHooks(ctx context.Context, h *Hooks) context.Context {
	if h == nil {
		return ctx
	}
	return context.WithValue(ctx, hooksKey{}, h)
}

// AfterCommit defers fn until the surrounding transaction commits. Outside
// a transaction runner there is nothing to wait for and fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if h, ok := ctx.Value(hooksKey{}).(*Hooks); ok {
		h.add(fn)
		return
	}
	fn()
}
