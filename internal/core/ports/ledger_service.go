package ports

import (
	"context"

	"github.com/srochno/order-exchange/internal/core/domain"
)

// RechargeResult is returned by Recharge. Duplicate marks a replayed
// payment reference: the balance is current but no new entry was written.
type RechargeResult struct {
	Balance   int64
	Entry     *domain.Entry
	Duplicate bool
}

// Ledger defines the balance operations exposed to the rest of the core.
// Every successful call appends exactly one entry.
type Ledger interface {
	// Recharge credits externally paid funds. A repeated paymentRef is
	// answered with the current balance and no new entry.
	Recharge(ctx context.Context, actorID string, amount int64, method, paymentRef string) (*RechargeResult, error)
	// Debit charges amount against the actor for the given order. Returns
	// domain.ErrInsufficientBalance without side effects when the balance
	// does not cover it.
	Debit(ctx context.Context, actorID string, amount int64, orderID string) (*domain.Entry, error)
	// Refund returns amount to the actor, referencing the triggering order.
	Refund(ctx context.Context, actorID string, amount int64, orderID string) (*domain.Entry, error)
	Balance(ctx context.Context, actorID string) (int64, error)
	// History pages newest-first through the actor's entries; pass the
	// cursor built from the last seen entry to continue.
	History(ctx context.Context, actorID string, cursor EntryCursor, limit int) ([]domain.Entry, error)
}
