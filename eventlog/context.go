package eventlog

import "context"

// txContextKey is the context key for storing a native transaction.
type txContextKey struct{}

// WithTx returns a context carrying tx. SQL recorders write through it
// instead of their pool, so an event can commit or roll back together with
// the caller's own writes (for example, persisting the compacted
// conversation).
//
// The type parameter must match the recorder's transaction type:
//   - pgx.Tx for pgxv5.Recorder
//   - *sql.Tx for databasesql.Recorder
//
// Example:
//
//	tx, _ := pool.Begin(ctx)
//	txCtx := eventlog.WithTx[pgx.Tx](ctx, tx)
//	_ = recorder.Record(txCtx, event)
//	_ = tx.Commit(ctx)
func WithTx[TTx any](ctx context.Context, tx TTx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext returns the transaction stored by WithTx, if it has type TTx.
func TxFromContext[TTx any](ctx context.Context) (TTx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(TTx)
	return tx, ok
}
