package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"tuition-credits/internal/ledger"
	"tuition-credits/internal/model"
)

// GetOrCreateAccount returns the user's account, creating it with the signup
// bonus of userType on first use. An existing account is returned untouched,
// whatever userType is passed.
func (s *Service) GetOrCreateAccount(ctx context.Context, userID string, userType model.UserType) (*model.Account, error) {
	acct, created, err := s.engine.GetOrCreateAccount(ctx, userID, userType)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}
	if !created && acct.UserType != userType {
		log.Debug().
			Str("user_id", userID).
			Str("stored_type", string(acct.UserType)).
			Str("requested_type", string(userType)).
			Msg("Existing account has a different user type")
	}
	return acct, nil
}

// GetAccount returns the account or ledger.ErrAccountNotFound.
func (s *Service) GetAccount(ctx context.Context, userID string) (*model.Account, error) {
	return s.engine.GetAccount(ctx, userID)
}

// GetBalance returns the current balance or ledger.ErrAccountNotFound.
func (s *Service) GetBalance(ctx context.Context, userID string) (int64, error) {
	acct, err := s.engine.GetAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	return acct.CurrentBalance, nil
}

// HasEnoughCredits reports whether the balance covers amount. A user without
// an account has no credits.
func (s *Service) HasEnoughCredits(ctx context.Context, userID string, amount int64) (bool, error) {
	if amount < 0 {
		return false, ledger.ErrInvalidAmount
	}
	acct, err := s.engine.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return amount == 0, nil
		}
		return false, err
	}
	return acct.CurrentBalance >= amount, nil
}

// AdminSetBalance sets the balance to exactly newBalance. Whether a negative
// value is accepted follows the service's configured override mode. The
// account must exist.
func (s *Service) AdminSetBalance(ctx context.Context, userID string, newBalance int64, note string) (*model.Transaction, error) {
	return s.engine.AdminSetBalance(ctx, userID, newBalance, note, s.overrideMode)
}
