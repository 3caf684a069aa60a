package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "voyara/internal/bookings/errors"
	"voyara/internal/bookings/repository"
	"voyara/internal/bookings/status"
	"voyara/internal/bookings/validator"
	customersrepo "voyara/internal/customers/repository"
	"voyara/internal/inventory/calendar"
	inventoryerrors "voyara/internal/inventory/errors"
	"voyara/internal/inventory/resolver"
	"voyara/pkg/config"
	apperrors "voyara/pkg/errors"
	"voyara/pkg/kafka"
	"voyara/pkg/model"
	"voyara/pkg/pricing"
	"voyara/pkg/sanitizer"

	"github.com/google/uuid"
)

const (
	TopicBookingSubmitted = "booking.submitted"

	eventTypeSubmitted = "booking.submitted"
	eventSource        = "bookings"
)

// EventPublisher is the fire-and-forget notification outlet. Publish failures
// are logged and never roll back a booking.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// BookingService is the staff- and customer-facing surface of the booking
// lifecycle engine.
type BookingService interface {
	Submit(ctx context.Context, booking *model.BookingRequest) error
	GetByID(ctx context.Context, id string) (*model.BookingRequest, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.BookingRequest, int64, error)
	GetByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.BookingRequest, error)
	AddNote(ctx context.Context, id string, text string, author string) (*model.Note, error)
	Stream(ctx context.Context) (<-chan repository.ChangeEvent, error)

	ApproveItem(ctx context.Context, id string, kind model.AssetKind, actor string) (*TransitionResult, error)
	DeclineItem(ctx context.Context, id string, kind model.AssetKind, actor string) (*TransitionResult, error)
	UndoItem(ctx context.Context, id string, kind model.AssetKind, actor string) (*TransitionResult, error)
	DeleteBooking(ctx context.Context, id string, actor string) (*TransitionResult, error)
}

type bookingService struct {
	repo       repository.BookingRepository
	customers  customersrepo.CustomerRepository
	resolver   resolver.AssetResolver
	reconciler *calendar.Reconciler
	validator  *validator.BookingValidator
	publisher  EventPublisher
	cfg        *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	customers customersrepo.CustomerRepository,
	assetResolver resolver.AssetResolver,
	reconciler *calendar.Reconciler,
	bookingValidator *validator.BookingValidator,
	publisher EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		customers:  customers,
		resolver:   assetResolver,
		reconciler: reconciler,
		validator:  bookingValidator,
		publisher:  publisher,
		cfg:        cfg,
	}
}

// Submit validates and persists a new booking request with every line item
// pending, prices items whose asset resolves, upserts the customer record,
// and emits the submission notification.
func (s *bookingService) Submit(ctx context.Context, booking *model.BookingRequest) error {
	s.sanitize(booking)
	s.applyDefaults(booking)
	s.priceItems(ctx, booking)

	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking submission validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	customer := &model.Customer{
		Name:  booking.Customer.Name,
		Email: booking.Customer.Email,
		Phone: booking.Customer.Phone,
	}
	if err := s.customers.UpsertByEmail(ctx, customer); err != nil {
		s.cfg.Log.Error("Failed to upsert customer", "email", booking.Customer.Email, "error", err)
		return apperrors.Unavailable("Customer store")
	}
	booking.Customer.ID = customer.ID

	booking.Activity = append(booking.Activity, model.ActivityEntry{
		ID:        uuid.New().String(),
		Action:    "Submitted booking request",
		Author:    booking.Customer.Name,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	})

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking request", "error", err)
		return apperrors.Internal("Failed to create booking request", err)
	}

	s.publishSubmitted(ctx, booking)

	s.cfg.Log.Info("Booking request submitted",
		"id", booking.ID,
		"customer_id", booking.Customer.ID,
		"grand_total_cents", booking.GrandTotalCents,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.BookingRequest, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}

	return status.Attach(booking, time.Now().UTC()), nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.BookingRequest, int64, error) {
	var count int64
	var bookings []*model.BookingRequest
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count booking requests", "error", errCount)
			errCount = apperrors.Internal("Failed to count booking requests", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list booking requests", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve booking requests", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	now := time.Now().UTC()
	for _, b := range bookings {
		status.Attach(b, now)
	}
	return bookings, count, nil
}

func (s *bookingService) GetByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.BookingRequest, error) {
	if customerID == "" {
		return nil, apperrors.InvalidInput("Customer ID cannot be empty")
	}

	bookings, err := s.repo.FindByCustomerID(ctx, customerID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings by customer", "customer_id", customerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking requests", err)
	}

	now := time.Now().UTC()
	for _, b := range bookings {
		status.Attach(b, now)
	}
	return bookings, nil
}

func (s *bookingService) AddNote(ctx context.Context, id string, text string, author string) (*model.Note, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	text = sanitizer.SanitizeNoteText(text)
	if text == "" {
		return nil, apperrors.InvalidInput("Note text cannot be empty")
	}

	note := model.Note{
		ID:        uuid.New().String(),
		Text:      text,
		Author:    defaultActor(author),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := s.repo.AppendNote(ctx, id, note); err != nil {
		return nil, s.mapRepoError(err, id)
	}

	s.cfg.Log.Info("Note added to booking request", "id", id, "author", note.Author)
	return &note, nil
}

// Stream exposes the booking change feed with derived statuses attached.
func (s *bookingService) Stream(ctx context.Context) (<-chan repository.ChangeEvent, error) {
	raw, err := s.repo.Watch(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to open booking change stream", "error", err)
		return nil, apperrors.Unavailable("Booking change feed")
	}

	events := make(chan repository.ChangeEvent)
	go func() {
		defer close(events)
		for event := range raw {
			if event.Booking != nil {
				status.Attach(event.Booking, time.Now().UTC())
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

// --- Helpers ---

func (s *bookingService) sanitize(b *model.BookingRequest) {
	b.Customer.Name = sanitizer.SanitizeDisplayName(b.Customer.Name)
	for _, item := range b.Items() {
		item.AssetName = sanitizer.SanitizeDisplayName(item.AssetName)
	}
}

func (s *bookingService) applyDefaults(b *model.BookingRequest) {
	for _, item := range b.Items() {
		if item.Status == "" {
			item.Status = model.ItemPending
		}
	}
	if b.Notes == nil {
		b.Notes = []model.Note{}
	}
	if b.Activity == nil {
		b.Activity = []model.ActivityEntry{}
	}
}

// priceItems computes rate × duration for every line item whose asset
// resolves, caching the resolved id on the item. Unresolvable items keep the
// submitted price; identity resolution failing at submission is not fatal.
func (s *bookingService) priceItems(ctx context.Context, b *model.BookingRequest) {
	for kind, item := range b.Items() {
		asset, err := s.resolver.Resolve(ctx, kind, item.AssetID, item.AssetName)
		if err != nil {
			if !errors.Is(err, inventoryerrors.ErrAssetNotFound) {
				s.cfg.Log.Warn("Asset lookup failed during pricing",
					"kind", kind,
					"asset_name", item.AssetName,
					"error", err,
				)
			}
			continue
		}

		item.AssetID = asset.ID
		item.PriceCents = pricing.LineTotalCents(kind, asset.DailyRateCents, item.StartTime, item.EndTime)
	}

	b.GrandTotalCents = pricing.GrandTotalCents(b.Villa, b.Car, b.Yacht)
}

type submittedLineItem struct {
	Kind      model.AssetKind `json:"kind"`
	AssetName string          `json:"asset_name"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Price     string          `json:"price"`
}

type bookingSubmittedEvent struct {
	BookingID  string              `json:"booking_id"`
	Customer   model.CustomerRef   `json:"customer"`
	LineItems  []submittedLineItem `json:"line_items"`
	GrandTotal string              `json:"grand_total"`
}

func (s *bookingService) publishSubmitted(ctx context.Context, b *model.BookingRequest) {
	if s.publisher == nil {
		return
	}

	event := bookingSubmittedEvent{
		BookingID:  b.ID,
		Customer:   b.Customer,
		GrandTotal: pricing.FormatCents(b.GrandTotalCents),
	}
	for kind, item := range b.Items() {
		event.LineItems = append(event.LineItems, submittedLineItem{
			Kind:      kind,
			AssetName: item.AssetName,
			StartTime: item.StartTime,
			EndTime:   item.EndTime,
			Price:     pricing.FormatCents(item.PriceCents),
		})
	}

	msg, err := kafka.NewEventMessage(b.ID, eventTypeSubmitted, eventSource, event)
	if err != nil {
		s.cfg.Log.Error("Failed to encode submission event", "id", b.ID, "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish submission event", "id", b.ID, "error", err)
	}
}

func (s *bookingService) mapRepoError(err error, id string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking request", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		return apperrors.Internal("Booking store operation failed", err)
	}
}

func defaultActor(actor string) string {
	actor = sanitizer.SanitizeDisplayName(actor)
	if actor == "" {
		return "staff"
	}
	return actor
}
