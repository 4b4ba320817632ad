package domain

import "time"

// Actor is any identified participant. The same actor can post orders as a
// client and take orders as an executor. Actors are created lazily on first
// authenticated contact and never deleted.
type Actor struct {
	ID           string `json:"id" bson:"_id"`
	Username     string `json:"username" bson:"username"`
	PasswordHash string `json:"-" bson:"password_hash"`

	// Balance is the authoritative balance in the smallest currency unit.
	// It is owned by the ledger: only debit/credit mutate it, each paired
	// with exactly one ledger entry.
	Balance int64 `json:"balance" bson:"balance"`

	// Aggregate statistics. AverageRating is owned by the review subsystem
	// and read-only here.
	CompletedOrders int64   `json:"completed_orders" bson:"completed_orders"`
	AverageRating   float64 `json:"average_rating" bson:"average_rating"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
