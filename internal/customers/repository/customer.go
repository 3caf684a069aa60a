package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voyara/pkg/config"
	"voyara/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Customers"
)

var ErrNotFound = errors.New("customer not found")

// CustomerRepository owns the customer ledger. AdjustLifetimeValue applies an
// atomic numeric delta; the lifetime value is never read, modified, and
// written back wholesale by this engine.
type CustomerRepository interface {
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	UpsertByEmail(ctx context.Context, customer *model.Customer) error
	AdjustLifetimeValue(ctx context.Context, id string, deltaCents int64) error
}

type mongoCustomerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCustomerRepository(cfg *config.Config) CustomerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCustomerRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoCustomerRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoCustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %s", ErrNotFound, id)
	}

	var customer model.Customer
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}

	return &customer, nil
}

// UpsertByEmail finds-or-creates the customer record on submission and fills
// in the resolved id. Identity fields are refreshed; the lifetime value is
// only seeded on insert and never touched on update.
func (r *mongoCustomerRepository) UpsertByEmail(ctx context.Context, customer *model.Customer) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"email": customer.Email}
	update := bson.M{
		"$set": bson.M{
			"name":  customer.Name,
			"phone": customer.Phone,
		},
		"$setOnInsert": bson.M{
			"email":                customer.Email,
			"lifetime_value_cents": int64(0),
			"created_at":           time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var updated model.Customer
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return fmt.Errorf("failed to upsert customer: %w", err)
	}

	*customer = updated
	return nil
}

func (r *mongoCustomerRepository) AdjustLifetimeValue(ctx context.Context, id string, deltaCents int64) error {
	if deltaCents == 0 {
		return nil
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %s", ErrNotFound, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"lifetime_value_cents": deltaCents}},
	)
	if err != nil {
		return fmt.Errorf("failed to adjust lifetime value: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}
