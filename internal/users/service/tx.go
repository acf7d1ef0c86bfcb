package service

import (
	"context"
	"sync"
)

// StoreTx runs a function with check-then-act isolation against the store.
// The postgres runner (wired in cmd/server) opens a real transaction and
// places it in context for the store to pick up; the in-memory runner
// serializes callbacks behind one mutex, which is the same guarantee for a
// single-process map store.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type inMemoryStoreTx struct {
	mu sync.Mutex
}

func newInMemoryStoreTx() *inMemoryStoreTx {
	return &inMemoryStoreTx{}
}

func (t *inMemoryStoreTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
