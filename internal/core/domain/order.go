package domain

import (
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusActive           OrderStatus = "active"
	StatusExpired          OrderStatus = "expired"
	StatusClosedNoResponse OrderStatus = "closed_no_response"
	StatusCompleted        OrderStatus = "completed"
	StatusDeleted          OrderStatus = "deleted"
)

// validTransitions defines the allowed state machine transitions.
// Every state other than active is terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusActive: {StatusExpired, StatusClosedNoResponse, StatusCompleted, StatusDeleted},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s OrderStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// ListableStatuses are the statuses visible in public listings. Owners see
// their own orders in any status.
var ListableStatuses = []OrderStatus{StatusActive, StatusExpired, StatusCompleted}

// IsListable reports whether orders in this status appear in public listings.
func (s OrderStatus) IsListable() bool {
	for _, ls := range ListableStatuses {
		if s == ls {
			return true
		}
	}
	return false
}

// Categories is the fixed set of service categories an order may use.
var Categories = []string{
	"plumbing",
	"electrical",
	"home_repair",
	"cleaning",
	"assembly",
	"appliances",
	"other",
}

// IsValidCategory reports whether category belongs to the fixed set.
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Order is the core aggregate: a time-boxed service request posted by a
// client. The contact field is revealed to executors only through a paid
// take. City and client never change after creation.
type Order struct {
	ID               string      `json:"id" bson:"_id"`
	ClientID         string      `json:"client_id" bson:"client_id"`
	Category         string      `json:"category" bson:"category"`
	Description      string      `json:"description" bson:"description"`
	City             string      `json:"city" bson:"city"`
	Contact          string      `json:"contact" bson:"contact"`
	Status           OrderStatus `json:"status" bson:"status"`
	ExpiresInMinutes int         `json:"expires_in_minutes" bson:"expires_in_minutes"`
	CreatedAt        time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" bson:"updated_at"`
	// RespondedAt is set once the owner confirms they answered an executor.
	// A nil value past the quiet window drives the no-response auto-close.
	RespondedAt *time.Time `json:"responded_at,omitempty" bson:"responded_at,omitempty"`
	// FirstTakeAt is stamped by the first successful take.
	FirstTakeAt *time.Time `json:"first_take_at,omitempty" bson:"first_take_at,omitempty"`
}

// ExpiresAt returns the instant the order's lifetime window ends.
func (o *Order) ExpiresAt() time.Time {
	return o.CreatedAt.Add(time.Duration(o.ExpiresInMinutes) * time.Minute)
}

// IsExpired reports whether the lifetime window has elapsed at now. An
// order may be expired before the sweeper records the transition; callers
// on the take path treat that the same as an already-written expiry.
func (o *Order) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt())
}

// MinutesLeft returns the whole minutes remaining in the lifetime window,
// never negative.
func (o *Order) MinutesLeft(now time.Time) int {
	remaining := o.ExpiresAt().Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Minute)
}

// Holder records that one executor has paid to access one order's contact.
// Unique per (order, executor) pair; immutable once written.
type Holder struct {
	OrderID    string    `json:"order_id" bson:"order_id"`
	ExecutorID string    `json:"executor_id" bson:"executor_id"`
	TakenAt    time.Time `json:"taken_at" bson:"taken_at"`
}

// MaxHolders is the capacity cap: at most this many executors may hold a
// given order concurrently.
const MaxHolders = 3
