package repository

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuition-credits/internal/model"
)

// runKVContract exercises behaviour every KV backend must share.
func runKVContract(t *testing.T, newKV func(t *testing.T) KV) {
	t.Run("GetMissing", func(t *testing.T) {
		kv := newKV(t)
		_, _, err := kv.Get(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("InsertThenUpdate", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()

		require.NoError(t, kv.CompareAndSwap(ctx, Write{Key: "k", Value: []byte(`{"a":1}`)}))
		raw, version, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, int64(1), version)
		assert.JSONEq(t, `{"a":1}`, string(raw))

		require.NoError(t, kv.CompareAndSwap(ctx, Write{Key: "k", Value: []byte(`{"a":2}`), ExpectedVersion: 1}))
		raw, version, err = kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)
		assert.JSONEq(t, `{"a":2}`, string(raw))
	})

	t.Run("LongKey", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()
		key := AccountKey(strings.Repeat("u", 1024))

		require.NoError(t, kv.CompareAndSwap(ctx, Write{Key: key, Value: []byte(`{"a":1}`)}))
		raw, version, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(1), version)
		assert.JSONEq(t, `{"a":1}`, string(raw))
	})

	t.Run("InsertExistingConflicts", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()

		require.NoError(t, kv.CompareAndSwap(ctx, Write{Key: "k", Value: []byte(`1`)}))
		err := kv.CompareAndSwap(ctx, Write{Key: "k", Value: []byte(`2`)})
		assert.ErrorIs(t, err, ErrConcurrentModification)
	})

	t.Run("StaleVersionConflicts", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()

		require.NoError(t, kv.CompareAndSwap(ctx, Write{Key: "k", Value: []byte(`1`)}))
		require.NoError(t, kv.CompareAndSwap(ctx, Write{Key: "k", Value: []byte(`2`), ExpectedVersion: 1}))

		err := kv.CompareAndSwap(ctx, Write{Key: "k", Value: []byte(`3`), ExpectedVersion: 1})
		assert.ErrorIs(t, err, ErrConcurrentModification)

		raw, _, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.JSONEq(t, `2`, string(raw))
	})

	t.Run("MultiWriteIsAllOrNothing", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()

		require.NoError(t, kv.CompareAndSwap(ctx,
			Write{Key: "a", Value: []byte(`1`)},
			Write{Key: "b", Value: []byte(`1`)},
		))

		// b is written at a stale version, so a must not change either.
		err := kv.CompareAndSwap(ctx,
			Write{Key: "a", Value: []byte(`2`), ExpectedVersion: 1},
			Write{Key: "b", Value: []byte(`2`), ExpectedVersion: 7},
		)
		assert.ErrorIs(t, err, ErrConcurrentModification)

		raw, version, err := kv.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, int64(1), version)
		assert.JSONEq(t, `1`, string(raw))
	})

	t.Run("ConcurrentWritersOneWins", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()
		require.NoError(t, kv.CompareAndSwap(ctx, Write{Key: "k", Value: []byte(`0`)}))

		const writers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			success int
		)
		wg.Add(writers)
		for i := 0; i < writers; i++ {
			go func() {
				defer wg.Done()
				if kv.CompareAndSwap(ctx, Write{Key: "k", Value: []byte(`1`), ExpectedVersion: 1}) == nil {
					mu.Lock()
					success++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, success)
	})

	t.Run("AccountRoundTrip", func(t *testing.T) {
		repo := NewAccountRepository(newKV(t))
		ctx := context.Background()
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		acct := &model.Account{UserID: "t-1", UserType: model.UserTeacher, LastUpdated: now}
		acct.Prepend(model.Transaction{
			ID: "tx-1", UserID: "t-1", Type: model.TxEarned, Amount: 50, Balance: 50,
			Reason: model.ReasonSignupBonus, Timestamp: now,
		})
		acct.CurrentBalance, acct.TotalEarned = 50, 50

		require.NoError(t, repo.Create(ctx, acct))
		assert.Equal(t, int64(1), acct.Version)
		assert.ErrorIs(t, repo.Create(ctx, &model.Account{UserID: "t-1"}), ErrAccountExists)

		got, err := repo.Get(ctx, "t-1")
		require.NoError(t, err)
		assert.Equal(t, int64(50), got.CurrentBalance)
		assert.Equal(t, int64(1), got.Version)
		require.Len(t, got.Transactions, 1)
		assert.True(t, got.Transactions[0].Timestamp.Equal(now))

		got.CurrentBalance = 40
		got.Prepend(model.Transaction{ID: "tx-2", Type: model.TxSpent, Amount: -10, Balance: 40,
			RelatedTo: &model.Reference{Kind: model.RefJob, ID: "job-1"}})
		require.NoError(t, repo.Save(ctx, got))
		assert.Equal(t, int64(2), got.Version)

		// acct is still at version 1.
		assert.ErrorIs(t, repo.Save(ctx, acct), ErrConcurrentModification)

		again, err := repo.Get(ctx, "t-1")
		require.NoError(t, err)
		assert.True(t, again.Consistent())
		assert.Equal(t, "job-1", again.Transactions[0].RelatedTo.ID)

		_, err = repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("PackagesInitOnce", func(t *testing.T) {
		repo := NewPackageRepository(newKV(t))
		ctx := context.Background()

		empty, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		first := []model.Package{
			{ID: "b", Credits: 10, Price: decimal.RequireFromString("99"), UserType: model.UserTeacher},
			{ID: "a", Credits: 5, IsFree: true, UserType: model.UserTeacher},
		}
		created, err := repo.InitIfEmpty(ctx, first)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = repo.InitIfEmpty(ctx, []model.Package{{ID: "z"}})
		require.NoError(t, err)
		assert.False(t, created)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "b", list[0].ID, "insertion order is preserved")
		assert.True(t, list[0].Price.Equal(decimal.NewFromInt(99)))

		pkg, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.True(t, pkg.IsFree)

		_, err = repo.Get(ctx, "zz")
		assert.ErrorIs(t, err, ErrPackageNotFound)

		require.NoError(t, repo.Replace(ctx, first[:1]))
		list, err = repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
