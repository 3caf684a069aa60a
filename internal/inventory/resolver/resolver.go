// Package resolver maps a line item's stored asset reference, or failing
// that its display name, onto the authoritative inventory record.
package resolver

import (
	"context"
	"errors"
	"strings"

	inventoryerrors "voyara/internal/inventory/errors"
	"voyara/internal/inventory/repository"
	"voyara/pkg/model"
)

// AssetResolver resolves a line item to an inventory asset. Resolution order:
// stored id (trusted without an existence check), exact name match within the
// kind, then trimmed-name match within the kind. ErrAssetNotFound is a normal
// outcome, not a failure.
type AssetResolver interface {
	Resolve(ctx context.Context, kind model.AssetKind, storedID, displayName string) (*model.InventoryAsset, error)
}

type assetResolver struct {
	repo repository.AssetRepository
}

func New(repo repository.AssetRepository) AssetResolver {
	return &assetResolver{repo: repo}
}

func (r *assetResolver) Resolve(ctx context.Context, kind model.AssetKind, storedID, displayName string) (*model.InventoryAsset, error) {
	if storedID != "" {
		// The stored id is the line item's own cache of a previous
		// resolution; a by-id load keeps the O(1) path.
		return r.repo.FindByID(ctx, storedID)
	}

	asset, err := r.repo.FindByKindAndName(ctx, kind, displayName)
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, inventoryerrors.ErrAssetNotFound) {
		return nil, err
	}

	return r.resolveByTrimmedName(ctx, kind, displayName)
}

func (r *assetResolver) resolveByTrimmedName(ctx context.Context, kind model.AssetKind, displayName string) (*model.InventoryAsset, error) {
	assets, err := r.repo.ListByKind(ctx, kind)
	if err != nil {
		return nil, err
	}

	want := strings.TrimSpace(displayName)
	for _, asset := range assets {
		if strings.TrimSpace(asset.Name) == want {
			return asset, nil
		}
	}

	return nil, inventoryerrors.ErrAssetNotFound
}
