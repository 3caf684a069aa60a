package model

import "time"

// Customer is the marketplace-wide customer record. LifetimeValueCents is a
// running total of approved spend; this engine only ever moves it by atomic
// deltas (add on approve, subtract on undo or delete), never overwrites it.
type Customer struct {
	ID                 string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name               string    `json:"name" bson:"name"`
	Email              string    `json:"email" bson:"email"`
	Phone              string    `json:"phone" bson:"phone"`
	LifetimeValueCents int64     `json:"lifetime_value_cents" bson:"lifetime_value_cents"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
}
