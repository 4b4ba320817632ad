package ports

import (
	"context"
	"time"

	"github.com/srochno/order-exchange/internal/core/domain"
)

// ActorRepository defines persistence for actors.
type ActorRepository interface {
	// Create inserts a new actor. Returns domain.ErrActorExists when the id
	// or username is already taken.
	Create(ctx context.Context, a *domain.Actor) error
	FindByID(ctx context.Context, id string) (*domain.Actor, error)
	FindByUsername(ctx context.Context, username string) (*domain.Actor, error)
	// IncrementCompleted bumps the completed-order counter for each actor.
	IncrementCompleted(ctx context.Context, actorIDs []string, at time.Time) error
}

// EntryCursor marks a position in an actor's entry history. It carries the
// sort key of the last seen entry, created_at with the entry id as the
// tie-break, so pages cut between entries sharing a timestamp lose nothing.
type EntryCursor struct {
	CreatedAt time.Time
	ID        string
}

// IsZero reports whether the cursor marks the start of the history.
func (c EntryCursor) IsZero() bool {
	return c.CreatedAt.IsZero() && c.ID == ""
}

// LedgerRepository owns the authoritative balance field and the append-only
// entry log.
type LedgerRepository interface {
	// DebitIfSufficient atomically decrements the actor's balance when
	// balance >= amount and returns the new balance. Returns
	// domain.ErrInsufficientBalance without side effects otherwise.
	DebitIfSufficient(ctx context.Context, actorID string, amount int64, at time.Time) (int64, error)
	// Credit atomically increments the balance and returns the new balance.
	Credit(ctx context.Context, actorID string, amount int64, at time.Time) (int64, error)
	InsertEntry(ctx context.Context, e *domain.Entry) error
	// ListEntries returns up to limit entries for the actor strictly before
	// the cursor position, newest first. A zero cursor means "from the top".
	ListEntries(ctx context.Context, actorID string, cursor EntryCursor, limit int) ([]domain.Entry, error)
}
