// Package service exposes the credit ledger to its consumers (HTTP handlers,
// CLI, UI controllers) through the CreditService interface.
package service

import (
	"context"
	"errors"

	"golang.org/x/text/language"

	"tuition-credits/internal/action"
	"tuition-credits/internal/catalog"
	"tuition-credits/internal/i18n"
	"tuition-credits/internal/ledger"
	"tuition-credits/internal/model"
)

// Service-level errors.
var (
	ErrPackageRoleMismatch = errors.New("package is not offered to this user type")
	ErrActionRoleMismatch  = errors.New("action is not available to this user type")
	ErrSameParticipant     = errors.New("both participants are the same user")
	ErrUnknownAction       = errors.New("unknown or non-grantable action")
	ErrNotAMilestone       = errors.New("tuition count is not a milestone")
)

// CreditService is the set of ledger operations available to callers.
type CreditService interface {
	InitializePackages(ctx context.Context) (bool, error)
	// ListPackages lists all packages, or one role's packages if role is set.
	ListPackages(ctx context.Context, role model.UserType) ([]model.Package, error)
	GetPackage(ctx context.Context, id string) (*model.Package, error)

	GetOrCreateAccount(ctx context.Context, userID string, userType model.UserType) (*model.Account, error)
	GetAccount(ctx context.Context, userID string) (*model.Account, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	HasEnoughCredits(ctx context.Context, userID string, amount int64) (bool, error)

	PurchasePackage(ctx context.Context, userID, packageID string) (*model.Transaction, error)

	ApplyToJob(ctx context.Context, teacherID, jobID string) (*model.Transaction, error)
	PostJob(ctx context.Context, guardianID, jobID string) (*model.Transaction, error)
	HireCounterpart(ctx context.Context, guardianID, teacherID, jobID string) (*model.Transaction, error)
	ContactCounterpart(ctx context.Context, fromID, toID string) (*model.Transaction, error)
	ScheduleVideoMeeting(ctx context.Context, userID1, userID2 string) ([]model.Transaction, error)
	GrantReward(ctx context.Context, userID string, a action.Action) (*model.Transaction, error)
	RecordTuitionMilestone(ctx context.Context, userID string, count int) (*model.Transaction, error)

	AdminSetBalance(ctx context.Context, userID string, newBalance int64, note string) (*model.Transaction, error)

	ExportHistory(ctx context.Context, userID string, locale language.Tag) ([]HistoryRecord, error)
}

// Service implements CreditService on top of the ledger engine and the
// package catalog.
type Service struct {
	engine       *ledger.Engine
	catalog      *catalog.Catalog
	translator   *i18n.Translator
	overrideMode ledger.OverrideMode
}

var _ CreditService = (*Service)(nil)

// NewService creates a new Service instance. adminAllowNegative selects
// whether admin overrides may set a negative balance.
func NewService(
	engine *ledger.Engine,
	cat *catalog.Catalog,
	translator *i18n.Translator,
	adminAllowNegative bool,
) *Service {
	mode := ledger.OverrideFloorAtZero
	if adminAllowNegative {
		mode = ledger.OverrideAllowNegative
	}
	return &Service{
		engine:       engine,
		catalog:      cat,
		translator:   translator,
		overrideMode: mode,
	}
}
