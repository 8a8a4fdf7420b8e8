package engine

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Transactor runs fn against vector and history stores that share one
// transaction. An error from fn rolls every write back.
type Transactor interface {
	InTx(ctx context.Context, fn func(VectorStore, HistoryStore) error) error
}

// PostgresTransactor binds PostgresVectorStore and PostgresHistoryStore to
// a single pgx transaction.
type PostgresTransactor struct {
	pool *pgxpool.Pool
}

// NewPostgresTransactor creates a Transactor on pool.
func NewPostgresTransactor(pool *pgxpool.Pool) *PostgresTransactor {
	return &PostgresTransactor{pool: pool}
}

func (t *PostgresTransactor) InTx(ctx context.Context, fn func(VectorStore, HistoryStore) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&PostgresVectorStore{db: tx}, &PostgresHistoryStore{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
