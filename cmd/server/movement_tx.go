package main

import (
	"context"
	"database/sql"
	"time"

	movementservice "hostelgate/internal/movement/service"
	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
	txcontext "hostelgate/pkg/platform/tx"
)

const defaultMovementTxTimeout = 5 * time.Second

// movementPostgresTx runs the accept sequence in one database transaction.
// The stores join it through the context, and the resident row read with
// FOR UPDATE serializes concurrent movements for the same resident.
type movementPostgresTx struct {
	db      *sql.DB
	stores  movementservice.Stores
	timeout time.Duration
}

func newMovementPostgresTx(db *sql.DB, stores movementservice.Stores, timeout time.Duration) *movementPostgresTx {
	return &movementPostgresTx{db: db, stores: stores, timeout: timeout}
}

func (t *movementPostgresTx) RunInTx(ctx context.Context, _ id.ResidentID, fn func(ctx context.Context, stores movementservice.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultMovementTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return txcontext.Run(ctx, t.db, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(txCtx context.Context) error {
		return fn(txCtx, t.stores)
	})
}
