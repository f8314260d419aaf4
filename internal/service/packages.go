package service

import (
	"context"
	"errors"

	"tuition-credits/internal/ledger"
	"tuition-credits/internal/model"
)

// InitializePackages stores the default catalog if none exists.
func (s *Service) InitializePackages(ctx context.Context) (bool, error) {
	return s.catalog.InitializeDefaults(ctx)
}

// ListPackages implements CreditService.
func (s *Service) ListPackages(ctx context.Context, role model.UserType) ([]model.Package, error) {
	if role == "" {
		return s.catalog.ListAll(ctx)
	}
	if !role.Valid() {
		return nil, ledger.ErrInvalidUserType
	}
	return s.catalog.ListByRole(ctx, role)
}

// GetPackage returns a package or ledger.ErrPackageNotFound.
func (s *Service) GetPackage(ctx context.Context, id string) (*model.Package, error) {
	return s.catalog.GetByID(ctx, id)
}

// PurchasePackage credits a package to the user. A user without an account
// gets one of the package's role first. Packages of another role are
// rejected with ErrPackageRoleMismatch, free packages with
// ledger.ErrFreePackageNotPurchasable.
func (s *Service) PurchasePackage(ctx context.Context, userID, packageID string) (*model.Transaction, error) {
	pkg, err := s.catalog.GetByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if pkg.IsFree {
		return nil, ledger.ErrFreePackageNotPurchasable
	}

	acct, err := s.engine.GetAccount(ctx, userID)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		acct, err = s.GetOrCreateAccount(ctx, userID, pkg.UserType)
	}
	if err != nil {
		return nil, err
	}
	if acct.UserType != pkg.UserType {
		return nil, ErrPackageRoleMismatch
	}

	return s.engine.PurchasePackage(ctx, userID, *pkg)
}
