package model

import "time"

// Account is a user's credit ledger: balance, running aggregates and the
// transaction history, newest first.
type Account struct {
	UserID         string        `json:"userId"`
	UserType       UserType      `json:"userType"`
	CurrentBalance int64         `json:"currentBalance"`
	TotalEarned    int64         `json:"totalEarned"`
	TotalSpent     int64         `json:"totalSpent"`
	TotalPurchased int64         `json:"totalPurchased"`
	Transactions   []Transaction `json:"transactions"`
	LastUpdated    time.Time     `json:"lastUpdated"`

	// Version is the storage version the account was read at. It is bumped
	// on every successful save and is not part of the serialized record.
	Version int64 `json:"-"`
}

// Clone returns a deep copy safe to mutate.
func (a *Account) Clone() *Account {
	c := *a
	c.Transactions = make([]Transaction, len(a.Transactions))
	copy(c.Transactions, a.Transactions)
	for i := range c.Transactions {
		if ref := c.Transactions[i].RelatedTo; ref != nil {
			r := *ref
			c.Transactions[i].RelatedTo = &r
		}
	}
	return &c
}

// LedgerSum returns the running sum of all transaction amounts in
// chronological order, starting from zero.
func (a *Account) LedgerSum() int64 {
	var sum int64
	for i := len(a.Transactions) - 1; i >= 0; i-- {
		sum += a.Transactions[i].Amount
	}
	return sum
}

// Consistent reports whether the balance matches the ledger and every
// transaction's balance snapshot matches the running sum at that point.
func (a *Account) Consistent() bool {
	var sum int64
	for i := len(a.Transactions) - 1; i >= 0; i-- {
		sum += a.Transactions[i].Amount
		if a.Transactions[i].Balance != sum {
			return false
		}
	}
	return sum == a.CurrentBalance
}

// LastTransaction returns the newest transaction, or nil if there is none.
func (a *Account) LastTransaction() *Transaction {
	if len(a.Transactions) == 0 {
		return nil
	}
	return &a.Transactions[0]
}

// Prepend records tx as the newest transaction.
func (a *Account) Prepend(tx Transaction) {
	a.Transactions = append([]Transaction{tx}, a.Transactions...)
}

// Chronological returns the transactions oldest first.
func (a *Account) Chronological() []Transaction {
	out := make([]Transaction, len(a.Transactions))
	for i, tx := range a.Transactions {
		out[len(a.Transactions)-1-i] = tx
	}
	return out
}

// HasTransaction reports whether a transaction with the given reason and
// reference has already been recorded.
func (a *Account) HasTransaction(reason ReasonCode, ref *Reference) bool {
	for _, tx := range a.Transactions {
		if tx.Reason == reason && tx.RelatedTo.Equal(ref) {
			return true
		}
	}
	return false
}
