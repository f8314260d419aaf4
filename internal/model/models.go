// Package model defines the data models for the credit ledger.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserType is the marketplace role an account belongs to.
type UserType string

// User roles.
const (
	UserTeacher  UserType = "teacher"
	UserGuardian UserType = "guardian"
	UserStudent  UserType = "student"
	UserAdmin    UserType = "admin"
)

// Valid reports whether u is a known role.
func (u UserType) Valid() bool {
	switch u {
	case UserTeacher, UserGuardian, UserStudent, UserAdmin:
		return true
	}
	return false
}

// TxType categorizes a balance change.
type TxType string

// Transaction types for categorizing balance changes.
const (
	TxEarned        TxType = "earned"         // Signup bonus, milestones
	TxSpent         TxType = "spent"          // Platform action costs
	TxPurchased     TxType = "purchased"      // Package purchase
	TxBonus         TxType = "bonus"          // Verification and profile rewards
	TxAdminAdded    TxType = "admin_added"    // Admin override, balance raised
	TxAdminDeducted TxType = "admin_deducted" // Admin override, balance lowered
)

// IsCredit reports whether transactions of this type increase the balance.
func (t TxType) IsCredit() bool {
	switch t {
	case TxEarned, TxPurchased, TxBonus, TxAdminAdded:
		return true
	}
	return false
}

// ReasonCode is the language-neutral reason recorded on a transaction.
// Human-readable text is resolved from it at render time.
type ReasonCode string

const (
	ReasonSignupBonus       ReasonCode = "signup_bonus"
	ReasonPackagePurchase   ReasonCode = "package_purchase"
	ReasonJobApplication    ReasonCode = "job_application"
	ReasonJobPost           ReasonCode = "job_post"
	ReasonContactView       ReasonCode = "contact_view"
	ReasonHireInvitation    ReasonCode = "hire_invitation"
	ReasonVideoMeeting      ReasonCode = "video_meeting"
	ReasonProfileComplete   ReasonCode = "profile_complete"
	ReasonPhoneVerified     ReasonCode = "phone_verified"
	ReasonEmailVerified     ReasonCode = "email_verified"
	ReasonNIDVerified       ReasonCode = "nid_verified"
	ReasonEducationVerified ReasonCode = "education_verified"
	ReasonTuitionMilestone  ReasonCode = "tuition_milestone"
	ReasonAdminOverride     ReasonCode = "admin_override"
)

// RefKind says what a Reference points at.
type RefKind string

const (
	RefJob       RefKind = "job"
	RefUser      RefKind = "user"
	RefPackage   RefKind = "package"
	RefMilestone RefKind = "milestone"
)

// Reference links a transaction to a foreign entity. Counterpart is set when
// an action involves both a job and another user (hiring).
type Reference struct {
	Kind        RefKind `json:"kind"`
	ID          string  `json:"id"`
	Counterpart string  `json:"counterpart,omitempty"`
}

// Equal reports whether two references point at the same thing.
func (r *Reference) Equal(o *Reference) bool {
	if r == nil || o == nil {
		return r == o
	}
	return *r == *o
}

// Transaction is one immutable balance change.
// Amount is negative for spent and admin_deducted, positive otherwise.
// Balance is the account balance right after this transaction.
type Transaction struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Type      TxType     `json:"type"`
	Amount    int64      `json:"amount"`
	Balance   int64      `json:"balance"`
	Reason    ReasonCode `json:"reasonCode"`
	Timestamp time.Time  `json:"timestamp"`
	RelatedTo *Reference `json:"relatedTo,omitempty"`
	AdminNote string     `json:"adminNote,omitempty"`
}

// LocalizedText holds an English and a Bengali rendering of the same text.
type LocalizedText struct {
	EN string `json:"en"`
	BN string `json:"bn"`
}

// Package is a purchasable bundle of credits.
type Package struct {
	ID       string          `json:"id"`
	Name     LocalizedText   `json:"name"`
	Credits  int64           `json:"credits"`
	Bonus    int64           `json:"bonus,omitempty"`
	Price    decimal.Decimal `json:"price"`
	UserType UserType        `json:"userType"`
	IsFree   bool            `json:"isFree"`
	Popular  bool            `json:"popular,omitempty"`
	Features []LocalizedText `json:"features,omitempty"`
}

// TotalCredits returns credits plus bonus.
func (p Package) TotalCredits() int64 {
	return p.Credits + p.Bonus
}
