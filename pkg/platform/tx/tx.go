package tx

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type ctxKey struct{}

// WithTx carries an open transaction so stores that are not handed it
// explicitly, such as history appends, commit with the caller.
func WithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, tx)
}

func From(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(ctxKey{}).(*sqlx.Tx)
	return tx, ok
}

// Executor returns the transaction in ctx, or db when there is none.
func Executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}
