package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tuition-credits/internal/model"
)

// PackageRepository persists the shared package catalog as one record.
type PackageRepository interface {
	// List returns all packages in insertion order. An absent catalog is empty.
	List(ctx context.Context) ([]model.Package, error)
	// Get returns one package or ErrPackageNotFound.
	Get(ctx context.Context, id string) (*model.Package, error)
	// InitIfEmpty stores pkgs only if the catalog is absent or empty and
	// reports whether it did.
	InitIfEmpty(ctx context.Context, pkgs []model.Package) (bool, error)
	// Replace overwrites the catalog.
	Replace(ctx context.Context, pkgs []model.Package) error
}

// KVPackageRepository stores the catalog as a JSON array under "packages".
type KVPackageRepository struct {
	kv KV
}

// NewPackageRepository creates a PackageRepository over kv.
func NewPackageRepository(kv KV) *KVPackageRepository {
	return &KVPackageRepository{kv: kv}
}

func (r *KVPackageRepository) load(ctx context.Context) ([]model.Package, int64, error) {
	raw, version, err := r.kv.Get(ctx, packagesKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return []model.Package{}, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to get packages: %w", err)
	}

	var pkgs []model.Package
	if err := json.Unmarshal(raw, &pkgs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode packages: %w", err)
	}
	if pkgs == nil {
		pkgs = []model.Package{}
	}
	return pkgs, version, nil
}

// List implements PackageRepository.
func (r *KVPackageRepository) List(ctx context.Context) ([]model.Package, error) {
	pkgs, _, err := r.load(ctx)
	return pkgs, err
}

// Get implements PackageRepository.
func (r *KVPackageRepository) Get(ctx context.Context, id string) (*model.Package, error) {
	pkgs, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range pkgs {
		if pkgs[i].ID == id {
			return &pkgs[i], nil
		}
	}
	return nil, ErrPackageNotFound
}

// InitIfEmpty implements PackageRepository. Losing a race against another
// initializer is not an error.
func (r *KVPackageRepository) InitIfEmpty(ctx context.Context, pkgs []model.Package) (bool, error) {
	existing, version, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	raw, err := json.Marshal(pkgs)
	if err != nil {
		return false, fmt.Errorf("failed to encode packages: %w", err)
	}

	err = r.kv.CompareAndSwap(ctx, Write{Key: packagesKey, Value: raw, ExpectedVersion: version})
	if err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			return false, nil
		}
		return false, fmt.Errorf("failed to store packages: %w", err)
	}
	return true, nil
}

// Replace implements PackageRepository.
func (r *KVPackageRepository) Replace(ctx context.Context, pkgs []model.Package) error {
	_, version, err := r.load(ctx)
	if err != nil {
		return err
	}

	if pkgs == nil {
		pkgs = []model.Package{}
	}
	raw, err := json.Marshal(pkgs)
	if err != nil {
		return fmt.Errorf("failed to encode packages: %w", err)
	}

	if err := r.kv.CompareAndSwap(ctx, Write{Key: packagesKey, Value: raw, ExpectedVersion: version}); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			return err
		}
		return fmt.Errorf("failed to store packages: %w", err)
	}
	return nil
}
