package service

import (
	"context"
	"time"

	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/pkg/keylock"
)

// Lock keys are namespaced per entity type. Lock ordering is always
// order before actor; a single call never holds two locks of the same
// namespace.
func orderKey(orderID string) string { return "order:" + orderID }
func actorKey(actorID string) string { return "actor:" + actorID }

// acquireKey obtains an entity lock within the bounded wait, converting an
// exceeded budget into domain.ErrBusy.
func acquireKey(ctx context.Context, locks *keylock.Registry, key string, wait time.Duration) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	release, err := locks.Acquire(lockCtx, key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.ErrBusy
	}
	return release, nil
}
