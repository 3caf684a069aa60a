package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	inventoryerrors "voyara/internal/inventory/errors"
	"voyara/pkg/config"
	"voyara/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "InventoryAssets"
)

// AssetRepository reads inventory assets and merges into their blocked-dates
// set. BlockDates and UnblockDates must be atomic on the store side: the set
// union/difference happens in the database, never in application memory, so
// concurrent reconcilers and manual blocks from inventory management cannot
// lose each other's updates.
type AssetRepository interface {
	FindByID(ctx context.Context, id string) (*model.InventoryAsset, error)
	FindByKindAndName(ctx context.Context, kind model.AssetKind, name string) (*model.InventoryAsset, error)
	ListByKind(ctx context.Context, kind model.AssetKind) ([]*model.InventoryAsset, error)
	BlockDates(ctx context.Context, id string, days []string) error
	UnblockDates(ctx context.Context, id string, days []string) error
}

type mongoAssetRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAssetRepository(cfg *config.Config) AssetRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAssetRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoAssetRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoAssetRepository) FindByID(ctx context.Context, id string) (*model.InventoryAsset, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %s", inventoryerrors.ErrAssetNotFound, id)
	}

	var asset model.InventoryAsset
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&asset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, inventoryerrors.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}

	return &asset, nil
}

func (r *mongoAssetRepository) FindByKindAndName(ctx context.Context, kind model.AssetKind, name string) (*model.InventoryAsset, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var asset model.InventoryAsset
	err := r.collection.FindOne(ctx, bson.M{"kind": kind, "name": name}).Decode(&asset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, inventoryerrors.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to find asset by name: %w", err)
	}

	return &asset, nil
}

func (r *mongoAssetRepository) ListByKind(ctx context.Context, kind model.AssetKind) ([]*model.InventoryAsset, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"kind": kind})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer cursor.Close(ctx)

	var assets []*model.InventoryAsset
	if err = cursor.All(ctx, &assets); err != nil {
		return nil, fmt.Errorf("failed to decode assets: %w", err)
	}

	return assets, nil
}

// BlockDates adds days to the asset's blocked set via $addToSet, which is a
// server-side union: already-present days are left alone and concurrent
// writers cannot clobber each other.
func (r *mongoAssetRepository) BlockDates(ctx context.Context, id string, days []string) error {
	return r.mergeDates(ctx, id, bson.M{
		"$addToSet": bson.M{"blocked_dates": bson.M{"$each": days}},
	})
}

// UnblockDates removes days via $pullAll, the server-side set difference.
// Days blocked by other bookings or by manual inventory holds are untouched
// because only the given day keys are pulled.
func (r *mongoAssetRepository) UnblockDates(ctx context.Context, id string, days []string) error {
	return r.mergeDates(ctx, id, bson.M{
		"$pullAll": bson.M{"blocked_dates": days},
	})
}

func (r *mongoAssetRepository) mergeDates(ctx context.Context, id string, update bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %s", inventoryerrors.ErrAssetNotFound, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update blocked dates: %w", err)
	}
	if result.MatchedCount == 0 {
		return inventoryerrors.ErrAssetNotFound
	}

	return nil
}
