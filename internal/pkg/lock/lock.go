// Package lock provides per-account locking for ledger mutations.
package lock

import (
	"context"
	"sort"
	"sync"
	"time"
)

// userEntry is the semaphore of one user id. refs counts holders and
// waiters; the entry is dropped when it reaches zero.
type userEntry struct {
	ch   chan struct{}
	refs int
}

// UserLock serializes balance-changing operations per user id.
// Operations on different users never block each other, and ids nobody
// holds or waits for take no memory.
type UserLock struct {
	mu    sync.Mutex
	locks map[string]*userEntry
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{locks: make(map[string]*userEntry)}
}

// acquire registers interest in userID and returns its semaphore.
// A buffered channel of size one acts as a mutex that can be acquired
// with a select, so waiting can be abandoned on timeout.
func (ul *UserLock) acquire(userID string) *userEntry {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	e, ok := ul.locks[userID]
	if !ok {
		e = &userEntry{ch: make(chan struct{}, 1)}
		ul.locks[userID] = e
	}
	e.refs++
	return e
}

// release drops one reference; the caller must hold ul.mu.
func (ul *UserLock) release(userID string, e *userEntry) {
	e.refs--
	if e.refs == 0 {
		delete(ul.locks, userID)
	}
}

// LockWithTimeout attempts to acquire the lock until the timeout elapses or
// ctx is done. Returns true if the lock was acquired.
func (ul *UserLock) LockWithTimeout(ctx context.Context, userID string, timeout time.Duration) bool {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	e := ul.acquire(userID)
	select {
	case e.ch <- struct{}{}:
		return true
	case <-timeoutCtx.Done():
		ul.mu.Lock()
		ul.release(userID, e)
		ul.mu.Unlock()
		return false
	}
}

// Unlock releases the lock for a user. Unlocking a free lock is a no-op.
func (ul *UserLock) Unlock(userID string) {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	e, ok := ul.locks[userID]
	if !ok {
		return
	}
	select {
	case <-e.ch:
		ul.release(userID, e)
	default:
	}
}

// WithLocks executes fn while holding the locks of every listed user.
// Locks are taken in sorted order so two callers locking overlapping sets
// cannot deadlock. Duplicate ids are locked once.
func (ul *UserLock) WithLocks(ctx context.Context, userIDs []string, timeout time.Duration, fn func() error) error {
	ids := sortedUnique(userIDs)

	held := make([]string, 0, len(ids))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			ul.Unlock(held[i])
		}
	}()

	for _, id := range ids {
		if !ul.LockWithTimeout(ctx, id, timeout) {
			if err := ctx.Err(); err != nil {
				return err
			}
			return ErrLockTimeout
		}
		held = append(held, id)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}

func sortedUnique(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
