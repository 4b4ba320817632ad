package ports

import (
	"context"
	"time"

	"github.com/srochno/order-exchange/internal/core/domain"
)

// ListOrdersFilter carries all query parameters for listing orders.
type ListOrdersFilter struct {
	ClientID string // non-empty = scoped to the owning client
	Status   domain.OrderStatus
	Category string
	City     string
	Limit    int // max rows per page (capped by the service)
	Offset   int
}

// OrderRepository defines persistence operations for orders. Status
// transitions are state-conditioned: the write only applies when the stored
// status still matches the expected one, so re-running a transition is a
// storage-level no-op.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// HasActiveByContact reports whether any active order already uses the
	// given contact.
	HasActiveByContact(ctx context.Context, contact string) (bool, error)
	// List returns a page of orders matching filter and the total count,
	// newest first.
	List(ctx context.Context, filter ListOrdersFilter) ([]*domain.Order, int64, error)
	// ListActive returns up to limit active orders with id > afterID, in id
	// order. Used by the lifecycle sweep to scan in bounded batches.
	ListActive(ctx context.Context, afterID string, limit int) ([]*domain.Order, error)
	// UpdateEditable applies the non-nil editable fields. City is not
	// editable and has no field here.
	UpdateEditable(ctx context.Context, id string, fields EditableFields, at time.Time) error
	// Remove hard-deletes an order. Only legal before any take exists.
	Remove(ctx context.Context, id string) error
	// TransitionStatus moves the order from one status to another. It
	// returns false when the stored status no longer matches from.
	TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error)
	MarkResponded(ctx context.Context, id string, at time.Time) error
	// SetFirstTakeAt stamps the first-take timestamp if not already set.
	SetFirstTakeAt(ctx context.Context, id string, at time.Time) error
}

// EditableFields are the order attributes the owner may change while the
// order is active and unheld. Nil means leave unchanged.
type EditableFields struct {
	Category    *string
	Description *string
	Contact     *string
}

// HolderRepository defines persistence for holder (take) records.
type HolderRepository interface {
	// Insert persists a holder record. Returns domain.ErrConflict when the
	// (order, executor) pair already exists.
	Insert(ctx context.Context, h domain.Holder) error
	// Find returns the holder record for the pair, or (nil, nil) when absent.
	Find(ctx context.Context, orderID, executorID string) (*domain.Holder, error)
	// CountByOrder derives the current holder count. Callers deciding
	// whether to add one more must call this inside the order's lock.
	CountByOrder(ctx context.Context, orderID string) (int, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Holder, error)
}
