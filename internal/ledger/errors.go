package ledger

import (
	"errors"
	"fmt"

	"tuition-credits/internal/repository"
)

// Business-rule errors. None of them are retried.
var (
	ErrInsufficientCredits       = errors.New("insufficient credits")
	ErrFreePackageNotPurchasable = errors.New("free package cannot be purchased")
	ErrInvalidAmount             = errors.New("invalid amount: must be positive")
	ErrInvalidCreditType         = errors.New("invalid transaction type for credit")
	ErrInvalidUserType           = errors.New("invalid user type")
	ErrInvalidUserID             = errors.New("user id must not be empty")
	ErrNegativeBalance           = errors.New("balance override below zero is not allowed")
	ErrRewardAlreadyGranted      = errors.New("reward already granted")
	ErrBalanceOverflow           = errors.New("balance change out of range")

	ErrAccountNotFound = repository.ErrAccountNotFound
	ErrAccountExists   = repository.ErrAccountExists
	ErrPackageNotFound = repository.ErrPackageNotFound
)

// InsufficientCreditsError reports a rejected debit. It matches
// ErrInsufficientCredits with errors.Is.
type InsufficientCreditsError struct {
	UserID    string
	Required  int64
	Available int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits for %s: required %d, available %d", e.UserID, e.Required, e.Available)
}

// Is makes errors.Is(err, ErrInsufficientCredits) true.
func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// rejectionReason returns a metric label for business-rule errors.
func rejectionReason(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		return "insufficient_credits", true
	case errors.Is(err, ErrFreePackageNotPurchasable):
		return "free_package", true
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount", true
	case errors.Is(err, ErrInvalidCreditType):
		return "invalid_credit_type", true
	case errors.Is(err, ErrInvalidUserType), errors.Is(err, ErrInvalidUserID):
		return "invalid_user", true
	case errors.Is(err, ErrNegativeBalance):
		return "negative_balance", true
	case errors.Is(err, ErrRewardAlreadyGranted):
		return "already_granted", true
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found", true
	case errors.Is(err, ErrAccountExists):
		return "account_exists", true
	}
	return "", false
}
