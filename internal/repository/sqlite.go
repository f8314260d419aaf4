package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteStore is a KV backed by an embedded SQLite kv_store table.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore creates a store over a migrated connection
// (see db.OpenSQLite).
func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{conn: conn}
}

// Get implements KV.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, int64, error) {
	row := s.conn.QueryRowContext(ctx, "SELECT value, version FROM kv_store WHERE key = ?", key)

	var (
		value   string
		version int64
	)
	if err := row.Scan(&value, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrKeyNotFound
		}
		return nil, 0, fmt.Errorf("failed to get key: %w", err)
	}
	return []byte(value), version, nil
}

// CompareAndSwap implements KV.
func (s *SQLiteStore) CompareAndSwap(ctx context.Context, writes ...Write) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, w := range writes {
		var res sql.Result
		if w.ExpectedVersion == 0 {
			res, err = tx.ExecContext(ctx,
				"INSERT INTO kv_store (key, value, version, updated_at) VALUES (?, ?, 1, CURRENT_TIMESTAMP) ON CONFLICT(key) DO NOTHING",
				w.Key, string(w.Value),
			)
		} else {
			res, err = tx.ExecContext(ctx,
				"UPDATE kv_store SET value = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE key = ? AND version = ?",
				string(w.Value), w.Key, w.ExpectedVersion,
			)
		}
		if err != nil {
			return fmt.Errorf("failed to write key %s: %w", w.Key, err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if rows == 0 {
			return ErrConcurrentModification
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
