package domain

import "time"

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryRecharge  EntryKind = "recharge"
	EntryOrderTake EntryKind = "order_take"
	EntryRefund    EntryKind = "refund"
)

// Entry is one record in the append-only balance audit trail. Entries are
// never mutated or deleted: replaying an actor's entries in timestamp order
// from zero reproduces the current balance.
type Entry struct {
	ID           string    `json:"id" bson:"_id"`
	ActorID      string    `json:"actor_id" bson:"actor_id"`
	Kind         EntryKind `json:"kind" bson:"kind"`
	Amount       int64     `json:"amount" bson:"amount"` // signed: negative for debits
	BalanceAfter int64     `json:"balance_after" bson:"balance_after"`
	OrderID      string    `json:"order_id,omitempty" bson:"order_id,omitempty"`
	PaymentRef   string    `json:"payment_ref,omitempty" bson:"payment_ref,omitempty"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}
