package ports

import (
	"context"

	"github.com/srochno/order-exchange/internal/core/domain"
)

// AuthService issues verified actor identities. Registration creates the
// actor record lazily on first contact.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.Actor, error)
	// Login returns a signed token carrying the actor id.
	Login(ctx context.Context, username, password string) (string, *domain.Actor, error)
	Profile(ctx context.Context, actorID string) (*domain.Actor, error)
}
