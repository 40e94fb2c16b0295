package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxManager runs callbacks inside a transaction carried by the context.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// RunInTx executes fn within a transaction: commit when fn returns nil,
// rollback otherwise. A call nested inside another RunInTx opens a
// savepoint on the outer transaction instead of a second connection.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var db interface {
		Begin(ctx context.Context) (pgx.Tx, error)
	} = m.pool
	if tx, ok := txFromCtx(ctx); ok {
		db = tx
	}

	err := pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		return fn(withTx(ctx, tx))
	})
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	return nil
}
