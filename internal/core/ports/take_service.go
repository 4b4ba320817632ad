package ports

import "context"

// TakeResult is returned by a successful (or idempotently replayed) take.
type TakeResult struct {
	// Contact is the order's protected contact, revealed by the paid take.
	Contact string
	// HolderCount is the number of holder records after this call.
	HolderCount int
	// Balance is the executor's balance after this call.
	Balance int64
	// AlreadyHeld is true when this executor had already taken the order
	// and no new charge was applied.
	AlreadyHeld bool
}

// TakeService is the orchestration boundary for the take operation: one
// atomic unit enforcing order state, the holder cap, the fee debit, and
// per-executor idempotency.
type TakeService interface {
	Take(ctx context.Context, orderID, executorID string) (*TakeResult, error)
}
