package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 48 * time.Hour

// RechargeDeduper provides payment-reference idempotency checks backed by
// Redis: a recharge webhook retried with the same external reference must
// not credit twice.
// Key format: recharge:<actor_id>:<payment_ref>
type RechargeDeduper struct {
	client *redis.Client
}

// NewRechargeDeduper creates a RechargeDeduper wrapping the given Redis client.
func NewRechargeDeduper(client *redis.Client) *RechargeDeduper {
	return &RechargeDeduper{client: client}
}

// Seen reports whether this payment reference has already been credited.
func (d *RechargeDeduper) Seen(ctx context.Context, actorID, paymentRef string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(actorID, paymentRef)).Result()
	if err != nil {
		return false, fmt.Errorf("recharge dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this payment reference has been credited (expires
// after dedupTTL).
func (d *RechargeDeduper) Mark(ctx context.Context, actorID, paymentRef string) error {
	return d.client.Set(ctx, d.key(actorID, paymentRef), "1", dedupTTL).Err()
}

func (d *RechargeDeduper) key(actorID, paymentRef string) string {
	return fmt.Sprintf("recharge:%s:%s", actorID, paymentRef)
}
