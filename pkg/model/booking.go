package model

import (
	"time"
)

// ItemStatus is the per-line-item status. It is the only mutable field of a
// line item after creation (besides the resolved asset id being filled in).
type ItemStatus string

const (
	ItemPending  ItemStatus = "pending"
	ItemApproved ItemStatus = "approved"
	ItemDeclined ItemStatus = "declined"
)

// BookingStatus is the aggregate status of a booking request. It is derived
// from the line items on read and is never persisted.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingPartial   BookingStatus = "partial"
	BookingCompleted BookingStatus = "completed"
	BookingDeclined  BookingStatus = "declined"
)

// LineItem is one bookable component of a booking request. For yachts the
// charter is same-day: EndTime carries the end-of-day time on the start date.
type LineItem struct {
	AssetName  string     `json:"asset_name" bson:"asset_name" validate:"required,min=2,max=120"`
	AssetID    string     `json:"asset_id,omitempty" bson:"asset_id,omitempty" validate:"omitempty,mongodb"`
	StartTime  time.Time  `json:"start_time" bson:"start_time" validate:"required"`
	EndTime    time.Time  `json:"end_time" bson:"end_time" validate:"required"`
	PriceCents int64      `json:"price_cents" bson:"price_cents" validate:"gte=0"`
	Status     ItemStatus `json:"status" bson:"status" validate:"required,oneof=pending approved declined"`
}

// CustomerRef is the denormalized customer identity carried on a booking.
type CustomerRef struct {
	ID    string `json:"id,omitempty" bson:"id,omitempty" validate:"omitempty,mongodb"`
	Name  string `json:"name" bson:"name" validate:"required,min=2,max=120"`
	Email string `json:"email" bson:"email" validate:"required,email"`
	Phone string `json:"phone" bson:"phone" validate:"omitempty,intl_phone"`
}

// Note is an immutable staff note attached to a booking request.
type Note struct {
	ID        string    `json:"id" bson:"id"`
	Text      string    `json:"text" bson:"text"`
	Author    string    `json:"author" bson:"author"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ActivityEntry is one immutable entry in the booking's audit trail.
type ActivityEntry struct {
	ID        string    `json:"id" bson:"id"`
	Action    string    `json:"action" bson:"action"`
	Author    string    `json:"author" bson:"author"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// BookingRequest bundles up to three independently priced line items from one
// customer. At least one of Villa, Car, Yacht is non-nil at all times.
type BookingRequest struct {
	ID              string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Customer        CustomerRef     `json:"customer" bson:"customer" validate:"required"`
	Villa           *LineItem       `json:"villa,omitempty" bson:"villa,omitempty"`
	Car             *LineItem       `json:"car,omitempty" bson:"car,omitempty"`
	Yacht           *LineItem       `json:"yacht,omitempty" bson:"yacht,omitempty"`
	GrandTotalCents int64           `json:"grand_total_cents" bson:"grand_total_cents" validate:"gte=0"`
	Notes           []Note          `json:"notes" bson:"notes"`
	Activity        []ActivityEntry `json:"activity" bson:"activity"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" bson:"updated_at"`

	// DerivedStatus is computed on read and attached to API responses only.
	DerivedStatus BookingStatus `json:"status,omitempty" bson:"-"`
}

// Item returns the line item for the given asset kind, or nil.
func (b *BookingRequest) Item(kind AssetKind) *LineItem {
	switch kind {
	case KindVilla:
		return b.Villa
	case KindCar:
		return b.Car
	case KindYacht:
		return b.Yacht
	}
	return nil
}

// Items returns the present line items keyed by kind.
func (b *BookingRequest) Items() map[AssetKind]*LineItem {
	items := make(map[AssetKind]*LineItem, 3)
	if b.Villa != nil {
		items[KindVilla] = b.Villa
	}
	if b.Car != nil {
		items[KindCar] = b.Car
	}
	if b.Yacht != nil {
		items[KindYacht] = b.Yacht
	}
	return items
}
