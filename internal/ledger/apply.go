package ledger

import (
	"time"

	"tuition-credits/internal/model"
)

// OverrideMode decides whether an admin balance override may go below zero.
type OverrideMode int

const (
	// OverrideFloorAtZero rejects negative target balances.
	OverrideFloorAtZero OverrideMode = iota
	// OverrideAllowNegative accepts any target balance.
	OverrideAllowNegative
)

func (m OverrideMode) String() string {
	if m == OverrideAllowNegative {
		return "allow_negative"
	}
	return "floor_at_zero"
}

// entry carries what is recorded on a new transaction.
type entry struct {
	id     string
	at     time.Time
	txType model.TxType
	amount int64
	reason model.ReasonCode
	ref    *model.Reference
	note   string
}

func (e entry) transaction(userID string, signed, balance int64) model.Transaction {
	var ref *model.Reference
	if e.ref != nil {
		r := *e.ref
		ref = &r
	}
	return model.Transaction{
		ID:        e.id,
		UserID:    userID,
		Type:      e.txType,
		Amount:    signed,
		Balance:   balance,
		Reason:    e.reason,
		Timestamp: e.at,
		RelatedTo: ref,
		AdminNote: e.note,
	}
}

// applyCredit adds e.amount to acct and records the transaction.
// acct is changed only on success.
func applyCredit(acct *model.Account, e entry) (model.Transaction, error) {
	if e.amount <= 0 {
		return model.Transaction{}, ErrInvalidAmount
	}
	if !e.txType.IsCredit() {
		return model.Transaction{}, ErrInvalidCreditType
	}

	balance, ok := add(acct.CurrentBalance, e.amount)
	if !ok {
		return model.Transaction{}, ErrBalanceOverflow
	}
	earned, ok := add(acct.TotalEarned, e.amount)
	if !ok {
		return model.Transaction{}, ErrBalanceOverflow
	}
	purchased := acct.TotalPurchased
	if e.txType == model.TxPurchased {
		if purchased, ok = add(purchased, e.amount); !ok {
			return model.Transaction{}, ErrBalanceOverflow
		}
	}
	tx := e.transaction(acct.UserID, e.amount, balance)

	acct.CurrentBalance = balance
	acct.TotalEarned = earned
	acct.TotalPurchased = purchased
	acct.LastUpdated = e.at
	acct.Prepend(tx)
	return tx, nil
}

// applyDebit removes e.amount from acct, refusing to go below zero.
// acct is changed only on success.
func applyDebit(acct *model.Account, e entry) (model.Transaction, error) {
	if e.amount <= 0 {
		return model.Transaction{}, ErrInvalidAmount
	}
	if acct.CurrentBalance < e.amount {
		return model.Transaction{}, &InsufficientCreditsError{
			UserID:    acct.UserID,
			Required:  e.amount,
			Available: acct.CurrentBalance,
		}
	}

	spent, ok := add(acct.TotalSpent, e.amount)
	if !ok {
		return model.Transaction{}, ErrBalanceOverflow
	}

	e.txType = model.TxSpent
	balance := acct.CurrentBalance - e.amount
	tx := e.transaction(acct.UserID, -e.amount, balance)

	acct.CurrentBalance = balance
	acct.TotalSpent = spent
	acct.LastUpdated = e.at
	acct.Prepend(tx)
	return tx, nil
}

// applyOverride sets acct's balance to newBalance. It bypasses the debit
// floor; only mode decides whether a negative result is allowed. A nil
// transaction means the balance already matched.
func applyOverride(acct *model.Account, newBalance int64, mode OverrideMode, e entry) (*model.Transaction, error) {
	if newBalance < 0 && mode != OverrideAllowNegative {
		return nil, ErrNegativeBalance
	}

	if newBalance == acct.CurrentBalance {
		return nil, nil
	}
	// delta carries the sign of the change and must fit in an int64.
	delta, ok := sub(newBalance, acct.CurrentBalance)
	if !ok {
		return nil, ErrBalanceOverflow
	}

	e.reason = model.ReasonAdminOverride
	if delta > 0 {
		earned, ok := add(acct.TotalEarned, delta)
		if !ok {
			return nil, ErrBalanceOverflow
		}
		e.txType = model.TxAdminAdded
		acct.TotalEarned = earned
	} else {
		spent, ok := sub(acct.TotalSpent, delta)
		if !ok {
			return nil, ErrBalanceOverflow
		}
		e.txType = model.TxAdminDeducted
		acct.TotalSpent = spent
	}

	tx := e.transaction(acct.UserID, delta, newBalance)
	acct.CurrentBalance = newBalance
	acct.LastUpdated = e.at
	acct.Prepend(tx)
	return &tx, nil
}

// add returns a+b and false if the sum overflows.
func add(a, b int64) (int64, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}

// sub returns a-b and false if the difference overflows.
func sub(a, b int64) (int64, bool) {
	c := a - b
	if (b > 0 && c > a) || (b < 0 && c < a) {
		return 0, false
	}
	return c, true
}
