package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "uservault/pkg/domain-errors"
	txcontext "uservault/pkg/platform/tx"
)

const defaultUsersTxTimeout = 5 * time.Second

// usersPostgresTx runs service callbacks inside a real database transaction.
// The transaction travels through context so the postgres store executes
// against it, making ownership check plus mutation atomic per record.
type usersPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newUsersPostgresTx(db *sql.DB) *usersPostgresTx {
	return &usersPostgresTx{db: db}
}

func (t *usersPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultUsersTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Cache invalidations registered during the callback fire only after a
	// successful commit, so concurrent reads can never re-populate from the
	// old row.
	hooks := txcontext.NewHooks()
	if err := fn(txcontext.WithHooks(txcontext.WithTx(ctx, tx), hooks)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	hooks.Run()
	return nil
}
