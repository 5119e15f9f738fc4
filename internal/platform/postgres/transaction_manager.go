package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionManager opens transactions for repositories that write more
// than one row atomically.
type TransactionManager interface {
	Begin(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type poolTransactionManager struct {
	pool *pgxpool.Pool
}

func NewTransactionManager(pool *pgxpool.Pool) TransactionManager {
	return &poolTransactionManager{pool: pool}
}

func (m *poolTransactionManager) Begin(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	return m.pool.BeginTx(ctx, opts)
}

// RunInTx runs fn in a read-committed transaction, committing when fn
// returns nil and rolling back otherwise.
func RunInTx(ctx context.Context, tm TransactionManager, fn func(tx pgx.Tx) error) error {
	return RunInTxWith(ctx, tm, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// RunInTxWith is RunInTx with explicit transaction options.
func RunInTxWith(ctx context.Context, tm TransactionManager, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := tm.Begin(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
