package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/srochno/order-exchange/internal/core/domain"
)

const (
	readAttempts = 3
	retryBackoff = 50 * time.Millisecond
)

// withReadRetry runs a read operation, retrying unexpected storage faults
// a bounded number of times with linear backoff. Expected domain outcomes
// pass through untouched on the first attempt; a fault that survives every
// attempt surfaces as domain.ErrUnavailable.
func withReadRetry(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < readAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = op(ctx)
		if err == nil || expectedOutcome(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrUnavailable, err)
}

// writeFault converts an unexpected storage fault on a write path into
// domain.ErrUnavailable. Writes are never retried: the first attempt may
// have landed on the server despite the error.
func writeFault(err error) error {
	if err == nil || expectedOutcome(err) {
		return err
	}
	return fmt.Errorf("%w: %s", domain.ErrUnavailable, err)
}

// expectedOutcome reports whether err is a domain outcome rather than a
// storage fault.
func expectedOutcome(err error) bool {
	for _, expected := range []error{
		domain.ErrOrderNotFound,
		domain.ErrActorNotFound,
		domain.ErrActorExists,
		domain.ErrConflict,
		domain.ErrInsufficientBalance,
	} {
		if errors.Is(err, expected) {
			return true
		}
	}
	return false
}
