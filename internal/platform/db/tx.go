package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// DBTxKey carries an open pgx.Tx through a request context so that
// repositories participate in the same transaction.
const DBTxKey contextKey = "db_tx"

// TxFromContext retrieves the active transaction from context, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// Txer runs a function inside a database transaction. Services depend on
// this interface so tests can substitute a pass-through implementation.
type Txer interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type poolTxer struct {
	pool *pgxpool.Pool
}

// NewTxer returns a Txer backed by the connection pool.
func NewTxer(pool *pgxpool.Pool) Txer {
	return &poolTxer{pool: pool}
}

// InTx begins a transaction, stores it in the context under DBTxKey, and
// runs fn. The transaction commits when fn returns nil and rolls back
// otherwise. Nested calls reuse the enclosing transaction.
func (t *poolTxer) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := TxFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, DBTxKey, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
