package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "voyara/internal/bookings/errors"
	"voyara/pkg/config"
	mongotx "voyara/pkg/db/mongo"
	"voyara/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "BookingRequests"
)

// ChangeEvent is one entry of the booking change feed.
type ChangeEvent struct {
	OperationType string                `json:"operation_type"`
	BookingID     string                `json:"booking_id"`
	Booking       *model.BookingRequest `json:"booking,omitempty"`
}

// BookingRepository persists booking requests. Line-item status transitions
// go through SetItemStatus, a conditional update that only matches when the
// item still holds the expected prior status; notes and activity entries are
// appended server-side and never rewritten.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.BookingRequest) error
	FindByID(ctx context.Context, id string) (*model.BookingRequest, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.BookingRequest, error)
	FindByCustomerID(ctx context.Context, customerID string, limit int, offset int64) ([]*model.BookingRequest, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
	SetItemStatus(ctx context.Context, id string, kind model.AssetKind, from, to model.ItemStatus) error
	SetItemAssetID(ctx context.Context, id string, kind model.AssetKind, assetID string) error
	AppendActivity(ctx context.Context, id string, entry model.ActivityEntry) error
	AppendNote(ctx context.Context, id string, note model.Note) error
	Watch(ctx context.Context) (<-chan ChangeEvent, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout adds a timeout unless the context is a transaction session or
// already carries a deadline. SessionContext cannot be wrapped without
// breaking transaction semantics.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.BookingRequest) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.Notes == nil {
		booking.Notes = []model.Note{}
	}
	if booking.Activity == nil {
		booking.Activity = []model.ActivityEntry{}
	}

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking request: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.BookingRequest, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.BookingRequest
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking request: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.BookingRequest, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *mongoBookingRepository) FindByCustomerID(ctx context.Context, customerID string, limit int, offset int64) ([]*model.BookingRequest, error) {
	return r.find(ctx, bson.M{"customer.id": customerID}, limit, offset)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.BookingRequest, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking requests: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.BookingRequest
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode booking requests: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count booking requests: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete booking request: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

// SetItemStatus transitions one line item's status with a conditional update:
// the filter requires the current status to still equal `from`, so a racing
// staff action makes the update match nothing instead of silently overwriting.
func (r *mongoBookingRepository) SetItemStatus(ctx context.Context, id string, kind model.AssetKind, from, to model.ItemStatus) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	field := string(kind)
	filter := bson.M{
		"_id":             objectID,
		field + ".status": from,
	}
	update := bson.M{
		"$set": bson.M{
			field + ".status": to,
			"updated_at":      time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusConflict
	}

	return nil
}

// SetItemAssetID writes a name-resolved asset id back onto the line item so
// later operations take the by-id path. Best-effort from the caller's side.
func (r *mongoBookingRepository) SetItemAssetID(ctx context.Context, id string, kind model.AssetKind, assetID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	field := string(kind)
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, field: bson.M{"$ne": nil}},
		bson.M{"$set": bson.M{field + ".asset_id": assetID}},
	)
	if err != nil {
		return fmt.Errorf("failed to set item asset id: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) AppendActivity(ctx context.Context, id string, entry model.ActivityEntry) error {
	return r.push(ctx, id, "activity", entry)
}

func (r *mongoBookingRepository) AppendNote(ctx context.Context, id string, note model.Note) error {
	return r.push(ctx, id, "notes", note)
}

func (r *mongoBookingRepository) push(ctx context.Context, id string, field string, value any) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$push": bson.M{field: value},
			"$set":  bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

// Watch streams booking document changes via a change stream. The channel is
// closed when the context is cancelled or the stream errors out.
func (r *mongoBookingRepository) Watch(ctx context.Context) (<-chan ChangeEvent, error) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.collection.Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}

	events := make(chan ChangeEvent)
	go func() {
		defer close(events)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var raw struct {
				OperationType string `bson:"operationType"`
				DocumentKey   struct {
					ID primitive.ObjectID `bson:"_id"`
				} `bson:"documentKey"`
				FullDocument *model.BookingRequest `bson:"fullDocument"`
			}
			if err := stream.Decode(&raw); err != nil {
				r.cfg.Log.Error("Failed to decode change stream event", "error", err)
				continue
			}

			event := ChangeEvent{
				OperationType: raw.OperationType,
				BookingID:     raw.DocumentKey.ID.Hex(),
				Booking:       raw.FullDocument,
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
