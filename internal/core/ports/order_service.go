package ports

import (
	"context"

	"github.com/srochno/order-exchange/internal/core/domain"
)

// CreateOrderInput carries all data needed to post a new order.
type CreateOrderInput struct {
	ClientID    string
	Category    string
	Description string
	City        string
	Contact     string
}

// UpdateOrderInput carries an owner edit. Nil fields stay unchanged; city
// is locked at creation and cannot appear here.
type UpdateOrderInput struct {
	OrderID     string
	ActorID     string
	Category    *string
	Description *string
	Contact     *string
}

// OrderView is the detail view of a single order. Contact is cleared
// unless the viewer is the owner or a paid holder.
type OrderView struct {
	Order       *domain.Order
	ShowContact bool
	HolderCount int
	MinutesLeft int
}

// ListOrdersInput carries all parameters for the list endpoint.
type ListOrdersInput struct {
	ActorID  string // viewer; used to decide contact visibility
	Mine     bool   // restrict to the viewer's own orders
	Status   string
	Category string
	City     string
	Limit    int
	Offset   int
}

// ListOrdersResult is returned by List.
type ListOrdersResult struct {
	Items  []OrderView
	Total  int64
	Limit  int
	Offset int
}

// OrderService defines the use-case operations on orders outside the take
// path. All mutations require the verified owner and run inside the
// order's exclusion scope.
type OrderService interface {
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	Get(ctx context.Context, orderID, actorID string) (*OrderView, error)
	List(ctx context.Context, in ListOrdersInput) (*ListOrdersResult, error)
	Update(ctx context.Context, in UpdateOrderInput) (*domain.Order, error)
	Delete(ctx context.Context, orderID, actorID string) error
	// Respond marks that the owner answered an executor, clearing the
	// no-response auto-close guard.
	Respond(ctx context.Context, orderID, actorID string) (*domain.Order, error)
	Complete(ctx context.Context, orderID, actorID string) (*domain.Order, error)
	// Close ends an order early as closed_no_response at the owner's
	// request. Requires at least one holder.
	Close(ctx context.Context, orderID, actorID string) error
}
