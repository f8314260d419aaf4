// Package catalog manages the shared list of purchasable credit packages.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"tuition-credits/internal/model"
	"tuition-credits/internal/repository"
)

// Validation errors.
var (
	ErrInvalidPackage = errors.New("invalid package")
	ErrDuplicateID    = errors.New("duplicate package id")
)

// Catalog reads and initializes the package list.
type Catalog struct {
	repo     repository.PackageRepository
	defaults []model.Package
}

// New creates a catalog over repo. A nil defaults uses Defaults().
func New(repo repository.PackageRepository, defaults []model.Package) *Catalog {
	if defaults == nil {
		defaults = Defaults()
	}
	return &Catalog{repo: repo, defaults: defaults}
}

// InitializeDefaults stores the built-in packages if the catalog is empty.
// It is a no-op otherwise, including when a concurrent caller wins.
// The bool reports whether this call populated the catalog.
func (c *Catalog) InitializeDefaults(ctx context.Context) (bool, error) {
	if err := ValidateAll(c.defaults); err != nil {
		return false, err
	}

	created, err := c.repo.InitIfEmpty(ctx, c.defaults)
	if err != nil {
		return false, fmt.Errorf("failed to initialize packages: %w", err)
	}
	if created {
		log.Info().Int("count", len(c.defaults)).Msg("Package catalog initialized with defaults")
	}
	return created, nil
}

// ListAll returns every package in catalog order.
func (c *Catalog) ListAll(ctx context.Context) ([]model.Package, error) {
	return c.repo.List(ctx)
}

// ListByRole returns the packages for one role, keeping catalog order.
func (c *Catalog) ListByRole(ctx context.Context, userType model.UserType) ([]model.Package, error) {
	all, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Package, 0, len(all))
	for _, p := range all {
		if p.UserType == userType {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByID returns a package or repository.ErrPackageNotFound.
func (c *Catalog) GetByID(ctx context.Context, id string) (*model.Package, error) {
	return c.repo.Get(ctx, id)
}

// Replace validates and stores a new package list. It backs administrative
// catalog management.
func (c *Catalog) Replace(ctx context.Context, pkgs []model.Package) error {
	if err := ValidateAll(pkgs); err != nil {
		return err
	}
	if err := c.repo.Replace(ctx, pkgs); err != nil {
		return fmt.Errorf("failed to replace packages: %w", err)
	}
	log.Info().Int("count", len(pkgs)).Msg("Package catalog replaced")
	return nil
}

// Validate checks a single package.
func Validate(p model.Package) error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidPackage)
	case p.UserType != model.UserTeacher && p.UserType != model.UserGuardian:
		return fmt.Errorf("%w: %s: role must be teacher or guardian", ErrInvalidPackage, p.ID)
	case p.Credits <= 0:
		return fmt.Errorf("%w: %s: credits must be positive", ErrInvalidPackage, p.ID)
	case p.Bonus < 0:
		return fmt.Errorf("%w: %s: bonus must not be negative", ErrInvalidPackage, p.ID)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: %s: price must not be negative", ErrInvalidPackage, p.ID)
	case p.IsFree != p.Price.IsZero():
		return fmt.Errorf("%w: %s: price must be zero exactly when the package is free", ErrInvalidPackage, p.ID)
	}
	return nil
}

// ValidateAll checks every package and rejects duplicate ids.
func ValidateAll(pkgs []model.Package) error {
	seen := make(map[string]struct{}, len(pkgs))
	for _, p := range pkgs {
		if err := Validate(p); err != nil {
			return err
		}
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
