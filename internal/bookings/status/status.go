// Package status derives the aggregate booking status from the line items.
// The derivation is pure and order-independent; it is computed on read and
// never persisted, so there is a single source of truth.
package status

import (
	"time"

	"voyara/pkg/model"
)

// ItemState is the slice of a line item the derivation needs.
type ItemState struct {
	Status  model.ItemStatus
	EndTime time.Time
}

// Derive computes the aggregate status. Precedence:
//  1. all declined            -> declined
//  2. all approved, all ended -> completed
//  3. all approved            -> approved
//  4. approved+declined mix, no pending -> partial
//  5. anything else (some pending)      -> pending
//
// An empty item set derives to pending; a stored booking always has at least
// one item.
func Derive(items []ItemState, now time.Time) model.BookingStatus {
	if len(items) == 0 {
		return model.BookingPending
	}

	var approved, declined, pending int
	allEnded := true
	for _, item := range items {
		switch item.Status {
		case model.ItemApproved:
			approved++
			if !item.EndTime.Before(now) {
				allEnded = false
			}
		case model.ItemDeclined:
			declined++
		default:
			pending++
		}
	}

	total := len(items)
	switch {
	case declined == total:
		return model.BookingDeclined
	case approved == total && allEnded:
		return model.BookingCompleted
	case approved == total:
		return model.BookingApproved
	case pending == 0 && approved > 0 && declined > 0:
		return model.BookingPartial
	default:
		return model.BookingPending
	}
}

// DeriveBooking derives the aggregate status of a booking request's present
// line items.
func DeriveBooking(b *model.BookingRequest, now time.Time) model.BookingStatus {
	var items []ItemState
	for _, item := range b.Items() {
		items = append(items, ItemState{Status: item.Status, EndTime: item.EndTime})
	}
	return Derive(items, now)
}

// Attach computes and stamps the derived status for an API response.
func Attach(b *model.BookingRequest, now time.Time) *model.BookingRequest {
	if b != nil {
		b.DerivedStatus = DeriveBooking(b, now)
	}
	return b
}
