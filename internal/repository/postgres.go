package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a KV backed by the kv_store table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get implements KV.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, int64, error) {
	const query = `SELECT value::text, version FROM kv_store WHERE key = $1`

	var (
		value   string
		version int64
	)
	err := s.pool.QueryRow(ctx, query, key).Scan(&value, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrKeyNotFound
		}
		return nil, 0, fmt.Errorf("failed to get key: %w", err)
	}
	return []byte(value), version, nil
}

// CompareAndSwap implements KV. All writes share one database transaction.
func (s *PostgresStore) CompareAndSwap(ctx context.Context, writes ...Write) error {
	const insertQuery = `
		INSERT INTO kv_store (key, value, version, updated_at)
		VALUES ($1, $2::jsonb, 1, NOW())
		ON CONFLICT (key) DO NOTHING
	`
	const updateQuery = `
		UPDATE kv_store
		SET value = $2::jsonb, version = version + 1, updated_at = NOW()
		WHERE key = $1 AND version = $3
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range writes {
		var (
			execErr error
			rows    int64
		)
		if w.ExpectedVersion == 0 {
			tag, err := tx.Exec(ctx, insertQuery, w.Key, string(w.Value))
			execErr, rows = err, tag.RowsAffected()
		} else {
			tag, err := tx.Exec(ctx, updateQuery, w.Key, string(w.Value), w.ExpectedVersion)
			execErr, rows = err, tag.RowsAffected()
		}
		if execErr != nil {
			return fmt.Errorf("failed to write key %s: %w", w.Key, execErr)
		}
		if rows == 0 {
			return ErrConcurrentModification
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
