package model

import "time"

// AssetKind discriminates the three bookable inventory types.
type AssetKind string

const (
	KindVilla AssetKind = "villa"
	KindCar   AssetKind = "car"
	KindYacht AssetKind = "yacht"
)

// ParseAssetKind maps a route/path segment onto an AssetKind.
func ParseAssetKind(s string) (AssetKind, bool) {
	switch AssetKind(s) {
	case KindVilla, KindCar, KindYacht:
		return AssetKind(s), true
	}
	return "", false
}

// InventoryAsset is one rentable unit. BlockedDates holds calendar-day keys
// (YYYY-MM-DD); membership, not order, is meaningful. Inventory management
// owns every field except blocked_dates, which the calendar reconciler also
// merges into with atomic set operations.
type InventoryAsset struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name           string    `json:"name" bson:"name"`
	Kind           AssetKind `json:"kind" bson:"kind"`
	DailyRateCents int64     `json:"daily_rate_cents" bson:"daily_rate_cents"`
	BlockedDates   []string  `json:"blocked_dates" bson:"blocked_dates"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}
