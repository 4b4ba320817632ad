package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/srochno/order-exchange/internal/api/metrics"
	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/core/ports"
	"github.com/srochno/order-exchange/internal/pkg/clock"
	"github.com/srochno/order-exchange/internal/pkg/keylock"
)

// TakeService orchestrates the take operation. It owns no state: the order
// store and the ledger are the only writers, invoked inside one exclusion
// scope keyed by the order (the ledger adds the actor scope, always second).
type TakeService struct {
	orders  ports.OrderRepository
	holders ports.HolderRepository
	ledger  ports.Ledger
	locks   *keylock.Registry
	clk     clock.Clock
	cfg     Config
	log     zerolog.Logger
}

func NewTakeService(
	orders ports.OrderRepository,
	holders ports.HolderRepository,
	ledger ports.Ledger,
	locks *keylock.Registry,
	clk clock.Clock,
	cfg Config,
	log zerolog.Logger,
) *TakeService {
	return &TakeService{
		orders:  orders,
		holders: holders,
		ledger:  ledger,
		locks:   locks,
		clk:     clk,
		cfg:     cfg,
		log:     log,
	}
}

// Take charges the flat fee and reveals the order's contact to the
// executor. Repeating the call for the same executor replays the previous
// result without charging again.
func (s *TakeService) Take(ctx context.Context, orderID, executorID string) (*ports.TakeResult, error) {
	start := time.Now()
	result, err := s.take(ctx, orderID, executorID)
	metrics.TakesTotal.WithLabelValues(takeOutcome(result, err)).Inc()
	metrics.TakeDuration.Observe(time.Since(start).Seconds())
	return result, err
}

func takeOutcome(result *ports.TakeResult, err error) string {
	switch {
	case err == nil && result != nil && result.AlreadyHeld:
		return "replay"
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrOrderExpired):
		return "expired"
	case errors.Is(err, domain.ErrMaxHoldersReached):
		return "max_holders"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	default:
		return "error"
	}
}

func (s *TakeService) take(ctx context.Context, orderID, executorID string) (*ports.TakeResult, error) {
	release, err := acquireKey(ctx, s.locks, orderKey(orderID), s.cfg.LockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()

	// A terminal status committed by the sweeper (or a lazily detected
	// expiry the sweeper has not written yet) both fail the same way.
	if order.Status != domain.StatusActive {
		return nil, domain.ErrOrderExpired
	}
	if order.IsExpired(now) {
		if _, terr := s.orders.TransitionStatus(ctx, orderID, domain.StatusActive, domain.StatusExpired, now); terr != nil {
			s.log.Warn().Err(terr).Str("order_id", orderID).Msg("failed to record lazy expiry")
		}
		return nil, domain.ErrOrderExpired
	}

	if order.ClientID == executorID {
		return nil, domain.ErrForbidden
	}

	existing, err := s.holders.Find(ctx, orderID, executorID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.replay(ctx, order, executorID)
	}

	// Derive the count from holder records under the order lock; a cached
	// counter could race the true constraint.
	count, err := s.holders.CountByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if count >= s.cfg.MaxHolders {
		return nil, domain.ErrMaxHoldersReached
	}

	entry, err := s.ledger.Debit(ctx, executorID, s.cfg.TakeFee, orderID)
	if err != nil {
		return nil, err
	}

	holder := domain.Holder{OrderID: orderID, ExecutorID: executorID, TakenAt: now}
	if err := s.holders.Insert(ctx, holder); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// A duplicate slipped past the replay check at the storage
			// level. Undo the charge and answer as a replay.
			if _, rerr := s.ledger.Refund(ctx, executorID, s.cfg.TakeFee, orderID); rerr != nil {
				s.log.Error().Err(rerr).Str("order_id", orderID).Str("executor_id", executorID).
					Msg("failed to refund debit after duplicate take")
			}
			return s.replay(ctx, order, executorID)
		}
		return nil, err
	}

	if count == 0 {
		if ferr := s.orders.SetFirstTakeAt(ctx, orderID, now); ferr != nil {
			s.log.Warn().Err(ferr).Str("order_id", orderID).Msg("failed to stamp first take")
		}
	}

	s.log.Info().
		Str("order_id", orderID).
		Str("executor_id", executorID).
		Int("holder_count", count+1).
		Msg("order taken")

	return &ports.TakeResult{
		Contact:     order.Contact,
		HolderCount: count + 1,
		Balance:     entry.BalanceAfter,
	}, nil
}

// replay returns the previously recorded outcome for an executor that
// already holds the order: same contact, current count and balance, no
// charge.
func (s *TakeService) replay(ctx context.Context, order *domain.Order, executorID string) (*ports.TakeResult, error) {
	count, err := s.holders.CountByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.Balance(ctx, executorID)
	if err != nil {
		return nil, err
	}
	return &ports.TakeResult{
		Contact:     order.Contact,
		HolderCount: count,
		Balance:     balance,
		AlreadyHeld: true,
	}, nil
}
