// Package timeout wraps a pool.Pool and complains about any call whose
// context has no deadline.
package timeout

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/lwz9103/conbench/go/ctxutil"
	"github.com/lwz9103/conbench/go/sql/pool"
)

// ContextTimeout implements pool.Pool.
type ContextTimeout struct {
	db pool.Pool
}

// New wraps db.
func New(db pool.Pool) ContextTimeout {
	return ContextTimeout{db: db}
}

// Close implements pool.Pool.
func (c ContextTimeout) Close() {
	c.db.Close()
}

// Exec implements pool.Pool.
func (c ContextTimeout) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	ctxutil.ConfirmContextHasDeadline(ctx)
	return c.db.Exec(ctx, sql, arguments...)
}

// Query implements pool.Pool.
func (c ContextTimeout) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctxutil.ConfirmContextHasDeadline(ctx)
	return c.db.Query(ctx, sql, args...)
}

// QueryRow implements pool.Pool.
func (c ContextTimeout) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctxutil.ConfirmContextHasDeadline(ctx)
	return c.db.QueryRow(ctx, sql, args...)
}

// SendBatch implements pool.Pool.
func (c ContextTimeout) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	ctxutil.ConfirmContextHasDeadline(ctx)
	return c.db.SendBatch(ctx, b)
}

// Begin implements pool.Pool.
func (c ContextTimeout) Begin(ctx context.Context) (pgx.Tx, error) {
	ctxutil.ConfirmContextHasDeadline(ctx)
	return c.db.Begin(ctx)
}

// BeginTx implements pool.Pool.
func (c ContextTimeout) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	ctxutil.ConfirmContextHasDeadline(ctx)
	return c.db.BeginTx(ctx, txOptions)
}

// Ping implements pool.Pool.
func (c ContextTimeout) Ping(ctx context.Context) error {
	ctxutil.ConfirmContextHasDeadline(ctx)
	return c.db.Ping(ctx)
}

var _ pool.Pool = ContextTimeout{}
