package db

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// OpenSQLite opens an SQLite database at path and runs migrations.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps an
	// in-memory database alive and shared.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	for _, m := range sqliteMigrations {
		if _, err := conn.Exec(m); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
		}
	}

	log.Info().Str("path", path).Msg("SQLite database ready")
	return conn, nil
}
