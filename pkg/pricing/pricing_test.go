package pricing

import (
	"testing"
	"time"

	"voyara/pkg/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestBillableUnits(t *testing.T) {
	tests := []struct {
		name     string
		kind     model.AssetKind
		start    time.Time
		end      time.Time
		expected int64
	}{
		{"villa three nights", model.KindVilla, day(2025, 6, 1), day(2025, 6, 4), 3},
		{"villa same day still bills one night", model.KindVilla, day(2025, 6, 1), day(2025, 6, 1), 1},
		{"car single day", model.KindCar, day(2025, 6, 1), day(2025, 6, 1), 1},
		{"car three days inclusive", model.KindCar, day(2025, 6, 1), day(2025, 6, 3), 3},
		{"yacht always one charter day", model.KindYacht, day(2025, 6, 1), day(2025, 6, 1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BillableUnits(tt.kind, tt.start, tt.end); got != tt.expected {
				t.Errorf("BillableUnits(%s) = %d, want %d", tt.kind, got, tt.expected)
			}
		})
	}
}

func TestLineTotalCents(t *testing.T) {
	// 3 nights at $250.00/night
	got := LineTotalCents(model.KindVilla, 25000, day(2025, 6, 1), day(2025, 6, 4))
	if got != 75000 {
		t.Errorf("expected 75000 cents, got %d", got)
	}
}

func TestGrandTotalSkipsAbsentItems(t *testing.T) {
	villa := &model.LineItem{PriceCents: 50000}
	yacht := &model.LineItem{PriceCents: 120000}

	if got := GrandTotalCents(villa, nil, yacht); got != 170000 {
		t.Errorf("expected 170000 cents, got %d", got)
	}
}

func TestFormatCents(t *testing.T) {
	if got := FormatCents(50000); got != "500.00" {
		t.Errorf("expected 500.00, got %s", got)
	}
	if got := FormatCents(99); got != "0.99" {
		t.Errorf("expected 0.99, got %s", got)
	}
}
