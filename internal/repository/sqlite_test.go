package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tuition-credits/internal/pkg/db"
)

// SQLiteStoreTestSuite runs store tests against an in-memory database.
type SQLiteStoreTestSuite struct {
	suite.Suite
	conn  *sql.DB
	store *SQLiteStore
}

// SetupTest runs before each test
func (s *SQLiteStoreTestSuite) SetupTest() {
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(s.T(), err, "failed to create test database")
	s.conn = conn
	s.store = NewSQLiteStore(conn)
}

// TearDownTest runs after each test
func (s *SQLiteStoreTestSuite) TearDownTest() {
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *SQLiteStoreTestSuite) TestVersionStoredInColumn() {
	ctx := context.Background()
	require.NoError(s.T(), s.store.CompareAndSwap(ctx, Write{Key: "credits:x", Value: []byte(`{}`)}))
	require.NoError(s.T(), s.store.CompareAndSwap(ctx, Write{Key: "credits:x", Value: []byte(`{}`), ExpectedVersion: 1}))

	var version int64
	err := s.conn.QueryRow("SELECT version FROM kv_store WHERE key = ?", "credits:x").Scan(&version)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), version)
}

func (s *SQLiteStoreTestSuite) TestFailedMultiWriteLeavesNoRow() {
	ctx := context.Background()
	require.NoError(s.T(), s.store.CompareAndSwap(ctx, Write{Key: "b", Value: []byte(`1`)}))

	err := s.store.CompareAndSwap(ctx,
		Write{Key: "a", Value: []byte(`1`)},
		Write{Key: "b", Value: []byte(`1`)},
	)
	assert.ErrorIs(s.T(), err, ErrConcurrentModification)

	_, _, err = s.store.Get(ctx, "a")
	assert.ErrorIs(s.T(), err, ErrKeyNotFound, "insert of a must be rolled back")
}

func TestSQLiteStoreTestSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreTestSuite))
}

func TestSQLiteStore(t *testing.T) {
	runKVContract(t, func(t *testing.T) KV {
		conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return NewSQLiteStore(conn)
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	conn, err := db.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, NewSQLiteStore(conn).CompareAndSwap(ctx, Write{Key: "k", Value: []byte(`"v"`)}))
	require.NoError(t, conn.Close())

	conn, err = db.OpenSQLite(path)
	require.NoError(t, err)
	defer conn.Close()

	raw, version, err := NewSQLiteStore(conn).Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `"v"`, string(raw))
	assert.Equal(t, int64(1), version)
}
