package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/srochno/order-exchange/internal/api/metrics"
	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/core/ports"
	"github.com/srochno/order-exchange/internal/pkg/keylock"
)

const defaultSweepBatchSize = 100

// LifecycleService advances active orders through the timer-driven
// transitions: expiry after the lifetime window, and no-response auto-close
// after the quiet window following the first take. The sweep shares the
// per-order exclusion scope with the take coordinator, so a transition can
// never land on an order mid-take.
type LifecycleService struct {
	orders    ports.OrderRepository
	locks     *keylock.Registry
	cfg       Config
	batchSize int
	log       zerolog.Logger
}

func NewLifecycleService(orders ports.OrderRepository, locks *keylock.Registry, cfg Config, batchSize int, log zerolog.Logger) *LifecycleService {
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	return &LifecycleService{
		orders:    orders,
		locks:     locks,
		cfg:       cfg,
		batchSize: batchSize,
		log:       log,
	}
}

// Advance runs one sweep over all active orders in bounded batches and
// returns the number of orders transitioned. Each order is an independent
// atomic unit: a failure on one is logged and does not stop the rest, and
// a busy order (concurrent take in flight) is left for the next run. The
// guards are false once a terminal state is written, so re-running the
// sweep is a no-op.
func (s *LifecycleService) Advance(ctx context.Context, now time.Time) (int, error) {
	transitioned := 0
	afterID := ""

	for {
		batch, err := s.orders.ListActive(ctx, afterID, s.batchSize)
		if err != nil {
			return transitioned, err
		}
		if len(batch) == 0 {
			return transitioned, nil
		}

		for _, order := range batch {
			if ctx.Err() != nil {
				return transitioned, ctx.Err()
			}
			ok, err := s.advanceOne(ctx, order.ID, now)
			if err != nil {
				s.log.Error().Err(err).Str("order_id", order.ID).Msg("sweep failed for order, will retry next run")
				continue
			}
			if ok {
				transitioned++
			}
		}

		afterID = batch[len(batch)-1].ID
		if len(batch) < s.batchSize {
			return transitioned, nil
		}
	}
}

// advanceOne evaluates one order under its lock. Expiry is evaluated
// first; the no-response close applies only when the order has not
// expired.
func (s *LifecycleService) advanceOne(ctx context.Context, orderID string, now time.Time) (bool, error) {
	release, err := acquireKey(ctx, s.locks, orderKey(orderID), s.cfg.LockWait)
	if err != nil {
		if errors.Is(err, domain.ErrBusy) {
			s.log.Debug().Str("order_id", orderID).Msg("order busy, skipping this sweep")
			return false, nil
		}
		return false, err
	}
	defer release()

	// Re-read under the lock: a take or owner action may have moved the
	// order since the scan.
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return false, nil
		}
		return false, err
	}
	if order.Status != domain.StatusActive {
		return false, nil
	}

	switch {
	case order.IsExpired(now):
		return s.transition(ctx, order, domain.StatusExpired, now)
	case s.quietWindowElapsed(order, now):
		return s.transition(ctx, order, domain.StatusClosedNoResponse, now)
	default:
		return false, nil
	}
}

// quietWindowElapsed reports whether an unanswered order has sat past the
// no-response window since its first take.
func (s *LifecycleService) quietWindowElapsed(order *domain.Order, now time.Time) bool {
	if order.FirstTakeAt == nil || order.RespondedAt != nil {
		return false
	}
	return !now.Before(order.FirstTakeAt.Add(s.cfg.NoResponseWindow))
}

func (s *LifecycleService) transition(ctx context.Context, order *domain.Order, to domain.OrderStatus, now time.Time) (bool, error) {
	applied, err := s.orders.TransitionStatus(ctx, order.ID, domain.StatusActive, to, now)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}
	metrics.OrderTransitionsTotal.WithLabelValues(string(to)).Inc()
	s.log.Info().Str("order_id", order.ID).Str("to", string(to)).Msg("order auto-transitioned")
	return true, nil
}
