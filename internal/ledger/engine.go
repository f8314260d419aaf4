// Package ledger implements the transaction engine, the only code path that
// mutates credit accounts.
//
// Every mutation runs under the per-user lock: load, clone, apply a pure
// change to the clone, save with a version check. A failed check or a failed
// save leaves the stored account untouched.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tuition-credits/internal/action"
	"tuition-credits/internal/metrics"
	"tuition-credits/internal/model"
	"tuition-credits/internal/notify"
	"tuition-credits/internal/pkg/lock"
	"tuition-credits/internal/repository"
)

const (
	defaultLockTimeout = 5 * time.Second
	// saveAttempts bounds reload-and-reapply rounds when another process
	// wrote the same account between our read and our save.
	saveAttempts = 3
)

// Publisher receives a credits-updated event after every committed
// transaction.
type Publisher interface {
	Publish(ev notify.Event)
}

// Config holds optional engine settings. Zero values get defaults.
type Config struct {
	LockTimeout time.Duration
	Clock       func() time.Time
	NewID       func() string
	Publisher   Publisher
}

// CreditRequest describes a balance increase.
type CreditRequest struct {
	UserID    string
	Amount    int64
	Type      model.TxType
	Reason    model.ReasonCode
	RelatedTo *model.Reference
}

// DebitRequest describes a balance decrease.
type DebitRequest struct {
	UserID    string
	Amount    int64
	Reason    model.ReasonCode
	RelatedTo *model.Reference
}

// Engine applies credits, debits, purchases and admin overrides.
type Engine struct {
	accounts    repository.AccountRepository
	locks       *lock.UserLock
	lockTimeout time.Duration
	now         func() time.Time
	newID       func() string
	publisher   Publisher
}

// NewEngine creates a new Engine instance.
func NewEngine(accounts repository.AccountRepository, locks *lock.UserLock, cfg Config) *Engine {
	e := &Engine{
		accounts:    accounts,
		locks:       locks,
		lockTimeout: cfg.LockTimeout,
		now:         cfg.Clock,
		newID:       cfg.NewID,
		publisher:   cfg.Publisher,
	}
	if e.locks == nil {
		e.locks = lock.NewUserLock()
	}
	if e.lockTimeout <= 0 {
		e.lockTimeout = defaultLockTimeout
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

// GetAccount returns the stored account or ErrAccountNotFound.
func (e *Engine) GetAccount(ctx context.Context, userID string) (*model.Account, error) {
	return e.accounts.Get(ctx, userID)
}

// CreateAccount creates an account seeded with the signup bonus of its
// role. A zero bonus records no transaction.
// Returns ErrAccountExists if the user already has an account.
func (e *Engine) CreateAccount(ctx context.Context, userID string, userType model.UserType) (*model.Account, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if !userType.Valid() {
		return nil, ErrInvalidUserType
	}

	now := e.now()
	acct := &model.Account{
		UserID:       userID,
		UserType:     userType,
		Transactions: []model.Transaction{},
		LastUpdated:  now,
	}

	var seed *model.Transaction
	if bonus := action.SignupBonus(userType); bonus > 0 {
		tx, err := applyCredit(acct, entry{
			id:     e.newID(),
			at:     now,
			txType: model.TxEarned,
			amount: bonus,
			reason: model.ReasonSignupBonus,
		})
		if err != nil {
			return nil, err
		}
		seed = &tx
	}

	if err := e.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, ErrAccountExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	metrics.AccountsCreated.WithLabelValues(string(userType)).Inc()
	log.Info().
		Str("user_id", userID).
		Str("user_type", string(userType)).
		Int64("balance", acct.CurrentBalance).
		Msg("Account created")

	if seed != nil {
		e.committed(*seed)
	}
	return acct, nil
}

// GetOrCreateAccount returns the existing account untouched, or creates it.
// The bool reports whether a new account was created. The signup bonus is
// never granted twice, even when two callers race.
func (e *Engine) GetOrCreateAccount(ctx context.Context, userID string, userType model.UserType) (*model.Account, bool, error) {
	acct, err := e.accounts.Get(ctx, userID)
	if err == nil {
		return acct, false, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, false, err
	}

	acct, err = e.CreateAccount(ctx, userID, userType)
	if err == nil {
		return acct, true, nil
	}
	if !errors.Is(err, ErrAccountExists) {
		return nil, false, err
	}

	// Lost the insert race; the winner's account is the one to use.
	acct, err = e.accounts.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return acct, false, nil
}

// Credit increases a balance. req.Type must be a credit type.
func (e *Engine) Credit(ctx context.Context, req CreditRequest) (*model.Transaction, error) {
	txs, err := e.mutate(ctx, "credit", []string{req.UserID}, func(accts map[string]*model.Account) ([]model.Transaction, error) {
		tx, err := applyCredit(accts[req.UserID], e.creditEntry(req))
		if err != nil {
			return nil, err
		}
		return []model.Transaction{tx}, nil
	})
	if err != nil {
		return nil, err
	}
	return &txs[0], nil
}

// CreditOnce is Credit for one-time rewards. It fails with
// ErrRewardAlreadyGranted if a transaction with the same reason and
// reference is already on the account.
func (e *Engine) CreditOnce(ctx context.Context, req CreditRequest) (*model.Transaction, error) {
	txs, err := e.mutate(ctx, "credit_once", []string{req.UserID}, func(accts map[string]*model.Account) ([]model.Transaction, error) {
		acct := accts[req.UserID]
		if acct.HasTransaction(req.Reason, req.RelatedTo) {
			return nil, ErrRewardAlreadyGranted
		}
		tx, err := applyCredit(acct, e.creditEntry(req))
		if err != nil {
			return nil, err
		}
		return []model.Transaction{tx}, nil
	})
	if err != nil {
		return nil, err
	}
	return &txs[0], nil
}

// Debit decreases a balance, failing with an *InsufficientCreditsError if
// the balance is lower than the amount.
func (e *Engine) Debit(ctx context.Context, req DebitRequest) (*model.Transaction, error) {
	txs, err := e.DebitAll(ctx, req)
	if err != nil {
		return nil, err
	}
	return &txs[0], nil
}

// DebitAll applies several debits as one unit. Every involved account is
// locked, every debit is checked, and all accounts are saved together.
// If any debit fails, no account changes.
func (e *Engine) DebitAll(ctx context.Context, reqs ...DebitRequest) ([]model.Transaction, error) {
	if len(reqs) == 0 {
		return nil, ErrInvalidAmount
	}

	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.UserID)
	}

	op := "debit"
	if len(reqs) > 1 {
		op = "debit_all"
	}

	return e.mutate(ctx, op, ids, func(accts map[string]*model.Account) ([]model.Transaction, error) {
		now := e.now()
		out := make([]model.Transaction, 0, len(reqs))
		for _, r := range reqs {
			tx, err := applyDebit(accts[r.UserID], entry{
				id:     e.newID(),
				at:     now,
				amount: r.Amount,
				reason: r.Reason,
				ref:    r.RelatedTo,
			})
			if err != nil {
				return nil, err
			}
			out = append(out, tx)
		}
		return out, nil
	})
}

// PurchasePackage credits credits plus bonus of pkg as a purchase.
// Free packages are rejected with ErrFreePackageNotPurchasable.
func (e *Engine) PurchasePackage(ctx context.Context, userID string, pkg model.Package) (*model.Transaction, error) {
	if pkg.IsFree {
		e.rejected("purchase", userID, ErrFreePackageNotPurchasable)
		return nil, ErrFreePackageNotPurchasable
	}

	txs, err := e.mutate(ctx, "purchase", []string{userID}, func(accts map[string]*model.Account) ([]model.Transaction, error) {
		tx, err := applyCredit(accts[userID], e.creditEntry(CreditRequest{
			UserID:    userID,
			Amount:    pkg.TotalCredits(),
			Type:      model.TxPurchased,
			Reason:    model.ReasonPackagePurchase,
			RelatedTo: &model.Reference{Kind: model.RefPackage, ID: pkg.ID},
		}))
		if err != nil {
			return nil, err
		}
		return []model.Transaction{tx}, nil
	})
	if err != nil {
		return nil, err
	}
	return &txs[0], nil
}

// AdminSetBalance overrides a balance to exactly newBalance, recording an
// admin_added or admin_deducted transaction for the difference. It skips
// the insufficient-credits check; mode decides whether the result may be
// negative. It returns a nil transaction when the balance already matched.
func (e *Engine) AdminSetBalance(ctx context.Context, userID string, newBalance int64, note string, mode OverrideMode) (*model.Transaction, error) {
	var prior int64
	txs, err := e.mutate(ctx, "admin_override", []string{userID}, func(accts map[string]*model.Account) ([]model.Transaction, error) {
		acct := accts[userID]
		prior = acct.CurrentBalance
		tx, err := applyOverride(acct, newBalance, mode, entry{id: e.newID(), at: e.now(), note: note})
		if err != nil || tx == nil {
			return nil, err
		}
		return []model.Transaction{*tx}, nil
	})
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		log.Info().Str("user_id", userID).Int64("balance", newBalance).Msg("Admin override left balance unchanged")
		return nil, nil
	}

	metrics.AdminOverrides.Inc()
	log.Info().
		Str("user_id", userID).
		Int64("old_balance", prior).
		Int64("new_balance", newBalance).
		Str("mode", mode.String()).
		Str("note", note).
		Msg("Admin balance override")
	return &txs[0], nil
}

func (e *Engine) creditEntry(req CreditRequest) entry {
	return entry{
		id:     e.newID(),
		at:     e.now(),
		txType: req.Type,
		amount: req.Amount,
		reason: req.Reason,
		ref:    req.RelatedTo,
	}
}

// mutate runs fn against clones of the listed accounts under their locks and
// saves every account atomically if fn returns transactions. An empty result
// saves nothing.
func (e *Engine) mutate(
	ctx context.Context,
	op string,
	userIDs []string,
	fn func(accts map[string]*model.Account) ([]model.Transaction, error),
) ([]model.Transaction, error) {
	start := time.Now()
	ids := uniqueSorted(userIDs)

	var txs []model.Transaction
	err := e.locks.WithLocks(ctx, ids, e.lockTimeout, func() error {
		for attempt := 1; ; attempt++ {
			working := make([]*model.Account, 0, len(ids))
			byID := make(map[string]*model.Account, len(ids))
			for _, id := range ids {
				acct, err := e.accounts.Get(ctx, id)
				if err != nil {
					return err
				}
				c := acct.Clone()
				working = append(working, c)
				byID[id] = c
			}

			out, err := fn(byID)
			if err != nil {
				return err
			}
			if len(out) == 0 {
				return nil
			}

			err = e.accounts.Save(ctx, working...)
			if err == nil {
				txs = out
				return nil
			}
			if !errors.Is(err, repository.ErrConcurrentModification) || attempt >= saveAttempts {
				return fmt.Errorf("failed to save accounts: %w", err)
			}
			log.Warn().Strs("user_ids", ids).Int("attempt", attempt).Msg("Concurrent account modification, retrying")
		}
	})

	outcome := "ok"
	if err != nil {
		if _, ok := rejectionReason(err); ok {
			outcome = "rejected"
			e.rejected(op, ids[0], err)
		} else {
			outcome = "error"
			log.Error().Err(err).Str("op", op).Strs("user_ids", ids).Msg("Ledger operation failed")
		}
	}
	metrics.OperationDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		e.committed(tx)
	}
	return txs, nil
}

func (e *Engine) committed(tx model.Transaction) {
	abs := tx.Amount
	if abs < 0 {
		abs = -abs
	}
	metrics.TransactionsTotal.WithLabelValues(string(tx.Type)).Inc()
	metrics.CreditsMoved.WithLabelValues(string(tx.Type)).Add(float64(abs))

	log.Info().
		Str("user_id", tx.UserID).
		Str("tx_id", tx.ID).
		Str("type", string(tx.Type)).
		Int64("amount", tx.Amount).
		Int64("balance", tx.Balance).
		Str("reason", string(tx.Reason)).
		Msg("Transaction committed")

	if e.publisher != nil {
		e.publisher.Publish(notify.NewEvent(tx))
	}
}

func (e *Engine) rejected(op, userID string, err error) {
	reason, _ := rejectionReason(err)
	metrics.Rejections.WithLabelValues(reason).Inc()
	log.Warn().Err(err).Str("op", op).Str("user_id", userID).Msg("Ledger operation rejected")
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
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
