package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tuition-credits/internal/model"
)

// AccountRepository persists one Account record per user.
type AccountRepository interface {
	// Get returns the account or ErrAccountNotFound.
	Get(ctx context.Context, userID string) (*model.Account, error)
	// Create stores a new account, failing with ErrAccountExists.
	Create(ctx context.Context, acct *model.Account) error
	// Save writes every account atomically. Each account must carry the
	// version it was read at; on success the versions are bumped.
	Save(ctx context.Context, accts ...*model.Account) error
}

// KVAccountRepository stores accounts as JSON under credits:<userId>.
type KVAccountRepository struct {
	kv KV
}

// NewAccountRepository creates an AccountRepository over kv.
func NewAccountRepository(kv KV) *KVAccountRepository {
	return &KVAccountRepository{kv: kv}
}

// Get implements AccountRepository.
func (r *KVAccountRepository) Get(ctx context.Context, userID string) (*model.Account, error) {
	raw, version, err := r.kv.Get(ctx, AccountKey(userID))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var acct model.Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		return nil, fmt.Errorf("failed to decode account %s: %w", userID, err)
	}
	if acct.Transactions == nil {
		acct.Transactions = []model.Transaction{}
	}
	acct.Version = version
	return &acct, nil
}

// Create implements AccountRepository.
func (r *KVAccountRepository) Create(ctx context.Context, acct *model.Account) error {
	raw, err := encodeAccount(acct)
	if err != nil {
		return err
	}

	err = r.kv.CompareAndSwap(ctx, Write{Key: AccountKey(acct.UserID), Value: raw})
	if err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			return ErrAccountExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	acct.Version = 1
	return nil
}

// Save implements AccountRepository.
func (r *KVAccountRepository) Save(ctx context.Context, accts ...*model.Account) error {
	writes := make([]Write, 0, len(accts))
	for _, acct := range accts {
		if acct.Version == 0 {
			return fmt.Errorf("failed to save account %s: %w", acct.UserID, ErrAccountNotFound)
		}
		raw, err := encodeAccount(acct)
		if err != nil {
			return err
		}
		writes = append(writes, Write{Key: AccountKey(acct.UserID), Value: raw, ExpectedVersion: acct.Version})
	}

	if err := r.kv.CompareAndSwap(ctx, writes...); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			return err
		}
		return fmt.Errorf("failed to save accounts: %w", err)
	}

	for _, acct := range accts {
		acct.Version++
	}
	return nil
}

func encodeAccount(acct *model.Account) ([]byte, error) {
	if acct.Transactions == nil {
		acct.Transactions = []model.Transaction{}
	}
	raw, err := json.Marshal(acct)
	if err != nil {
		return nil, fmt.Errorf("failed to encode account %s: %w", acct.UserID, err)
	}
	return raw, nil
}
