// Package pricing computes line-item totals as rate × duration. Amounts are
// carried as integer cents so ledger adjustments can ride atomic numeric
// increments; decimal arithmetic is used at the computation and display
// boundaries.
package pricing

import (
	"time"

	"voyara/pkg/model"

	"github.com/shopspring/decimal"
)

var centsPerUnit = decimal.NewFromInt(100)

// BillableUnits returns the number of daily-rate units for a line item.
// Villas bill per night (checkout day excluded), cars per calendar day
// inclusive of both ends, yachts one charter day regardless of times.
func BillableUnits(kind model.AssetKind, start, end time.Time) int64 {
	switch kind {
	case model.KindYacht:
		return 1
	case model.KindVilla:
		nights := daysBetween(start, end)
		if nights < 1 {
			return 1
		}
		return nights
	case model.KindCar:
		return daysBetween(start, end) + 1
	}
	return 0
}

// LineTotalCents prices a line item from the asset's daily rate.
func LineTotalCents(kind model.AssetKind, dailyRateCents int64, start, end time.Time) int64 {
	units := BillableUnits(kind, start, end)
	total := decimal.NewFromInt(dailyRateCents).Mul(decimal.NewFromInt(units))
	return total.IntPart()
}

// GrandTotalCents sums the present line items' prices.
func GrandTotalCents(items ...*model.LineItem) int64 {
	total := decimal.Zero
	for _, item := range items {
		if item == nil {
			continue
		}
		total = total.Add(decimal.NewFromInt(item.PriceCents))
	}
	return total.IntPart()
}

// FormatCents renders cents as a decimal amount string, e.g. 50000 → "500.00".
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(centsPerUnit).StringFixed(2)
}

func daysBetween(start, end time.Time) int64 {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0
	}
	return int64(e.Sub(s) / (24 * time.Hour))
}
