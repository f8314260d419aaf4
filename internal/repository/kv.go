// Package repository provides the ledger's keyed storage and the account and
// package repositories built on top of it.
package repository

import (
	"context"
	"errors"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrKeyNotFound            = errors.New("key not found")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountExists          = errors.New("account already exists")
	ErrPackageNotFound        = errors.New("package not found")
)

// Write is one conditional write for CompareAndSwap.
// ExpectedVersion 0 means the key must not exist yet.
type Write struct {
	Key             string
	Value           []byte
	ExpectedVersion int64
}

// KV is durable keyed storage with per-key versions.
//
// Every stored key has a version starting at 1 that is bumped on each
// successful write.
type KV interface {
	// Get returns the value and version stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, int64, error)

	// CompareAndSwap applies all writes or none. It fails with
	// ErrConcurrentModification if any key's current version differs from
	// the write's ExpectedVersion.
	CompareAndSwap(ctx context.Context, writes ...Write) error
}

// Storage keys.
const (
	accountKeyPrefix = "credits:"
	packagesKey      = "packages"
)

// AccountKey returns the storage key of a user's account.
func AccountKey(userID string) string {
	return accountKeyPrefix + userID
}
