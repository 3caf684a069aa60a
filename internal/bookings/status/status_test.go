package status

import (
	"testing"
	"time"

	"voyara/pkg/model"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func past() time.Time   { return testNow.Add(-48 * time.Hour) }
func future() time.Time { return testNow.Add(48 * time.Hour) }

func TestDerive(t *testing.T) {
	tests := []struct {
		name     string
		items    []ItemState
		expected model.BookingStatus
	}{
		{
			name:     "no items",
			items:    nil,
			expected: model.BookingPending,
		},
		{
			name: "single pending",
			items: []ItemState{
				{Status: model.ItemPending, EndTime: future()},
			},
			expected: model.BookingPending,
		},
		{
			name: "all approved, not ended",
			items: []ItemState{
				{Status: model.ItemApproved, EndTime: future()},
				{Status: model.ItemApproved, EndTime: future()},
			},
			expected: model.BookingApproved,
		},
		{
			name: "all approved, all ended",
			items: []ItemState{
				{Status: model.ItemApproved, EndTime: past()},
				{Status: model.ItemApproved, EndTime: past()},
			},
			expected: model.BookingCompleted,
		},
		{
			name: "all approved, one still running",
			items: []ItemState{
				{Status: model.ItemApproved, EndTime: past()},
				{Status: model.ItemApproved, EndTime: future()},
			},
			expected: model.BookingApproved,
		},
		{
			name: "all declined",
			items: []ItemState{
				{Status: model.ItemDeclined},
				{Status: model.ItemDeclined},
				{Status: model.ItemDeclined},
			},
			expected: model.BookingDeclined,
		},
		{
			name: "approved and declined mix without pending",
			items: []ItemState{
				{Status: model.ItemApproved, EndTime: future()},
				{Status: model.ItemDeclined},
			},
			expected: model.BookingPartial,
		},
		{
			name: "approved and declined ended mix stays partial",
			items: []ItemState{
				{Status: model.ItemApproved, EndTime: past()},
				{Status: model.ItemDeclined},
			},
			expected: model.BookingPartial,
		},
		{
			name: "pending outweighs decided items",
			items: []ItemState{
				{Status: model.ItemApproved, EndTime: future()},
				{Status: model.ItemDeclined},
				{Status: model.ItemPending, EndTime: future()},
			},
			expected: model.BookingPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.items, testNow)
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestDerive_OrderIndependent(t *testing.T) {
	items := []ItemState{
		{Status: model.ItemApproved, EndTime: future()},
		{Status: model.ItemDeclined},
		{Status: model.ItemPending, EndTime: future()},
	}

	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	for _, perm := range permutations {
		permuted := []ItemState{items[perm[0]], items[perm[1]], items[perm[2]]}
		if got := Derive(permuted, testNow); got != model.BookingPending {
			t.Errorf("permutation %v: expected %s, got %s", perm, model.BookingPending, got)
		}
	}
}

func TestDerive_EndedBoundary(t *testing.T) {
	// An item ending exactly now has not ended yet.
	items := []ItemState{{Status: model.ItemApproved, EndTime: testNow}}
	if got := Derive(items, testNow); got != model.BookingApproved {
		t.Errorf("expected %s at boundary, got %s", model.BookingApproved, got)
	}

	items[0].EndTime = testNow.Add(-time.Millisecond)
	if got := Derive(items, testNow); got != model.BookingCompleted {
		t.Errorf("expected %s just past boundary, got %s", model.BookingCompleted, got)
	}
}

func TestDeriveBooking_UsesPresentItemsOnly(t *testing.T) {
	booking := &model.BookingRequest{
		Villa: &model.LineItem{Status: model.ItemApproved, EndTime: future()},
		Yacht: &model.LineItem{Status: model.ItemApproved, EndTime: future()},
	}

	if got := DeriveBooking(booking, testNow); got != model.BookingApproved {
		t.Errorf("expected %s, got %s", model.BookingApproved, got)
	}

	booking.Car = &model.LineItem{Status: model.ItemPending, EndTime: future()}
	if got := DeriveBooking(booking, testNow); got != model.BookingPending {
		t.Errorf("expected %s after adding pending car, got %s", model.BookingPending, got)
	}
}

func TestAttach_StampsDerivedStatus(t *testing.T) {
	booking := &model.BookingRequest{
		Car: &model.LineItem{Status: model.ItemDeclined},
	}

	Attach(booking, testNow)
	if booking.DerivedStatus != model.BookingDeclined {
		t.Errorf("expected %s, got %s", model.BookingDeclined, booking.DerivedStatus)
	}

	if got := Attach(nil, testNow); got != nil {
		t.Errorf("expected nil passthrough, got %v", got)
	}
}
