package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/srochno/order-exchange/internal/api/metrics"
	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/core/ports"
	"github.com/srochno/order-exchange/internal/pkg/clock"
	"github.com/srochno/order-exchange/internal/pkg/keylock"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// RechargeDeduper abstracts the payment-reference idempotency store (Redis).
type RechargeDeduper interface {
	Seen(ctx context.Context, actorID, paymentRef string) (bool, error)
	Mark(ctx context.Context, actorID, paymentRef string) error
}

// LedgerService owns every balance mutation. Each debit or credit runs
// inside the actor's exclusion scope and appends exactly one entry.
type LedgerService struct {
	actors  ports.ActorRepository
	entries ports.LedgerRepository
	dedup   RechargeDeduper
	locks   *keylock.Registry
	clk     clock.Clock
	cfg     Config
	log     zerolog.Logger
}

func NewLedgerService(
	actors ports.ActorRepository,
	entries ports.LedgerRepository,
	dedup RechargeDeduper,
	locks *keylock.Registry,
	clk clock.Clock,
	cfg Config,
	log zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		actors:  actors,
		entries: entries,
		dedup:   dedup,
		locks:   locks,
		clk:     clk,
		cfg:     cfg,
		log:     log,
	}
}

// Recharge credits externally paid funds to the actor's balance. A payment
// reference seen before is answered with the current balance and no new
// entry, so a retried webhook cannot double-credit.
func (s *LedgerService) Recharge(ctx context.Context, actorID string, amount int64, method, paymentRef string) (*ports.RechargeResult, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	release, err := acquireKey(ctx, s.locks, actorKey(actorID), s.cfg.LockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	if paymentRef != "" && s.dedup != nil {
		seen, derr := s.dedup.Seen(ctx, actorID, paymentRef)
		if derr != nil {
			s.log.Warn().Err(derr).Str("actor_id", actorID).Msg("recharge dedup check failed, processing anyway")
		} else if seen {
			balance, berr := s.Balance(ctx, actorID)
			if berr != nil {
				return nil, berr
			}
			s.log.Info().Str("actor_id", actorID).Str("payment_ref", paymentRef).Msg("duplicate recharge replayed")
			return &ports.RechargeResult{Balance: balance, Duplicate: true}, nil
		}
	}

	now := s.clk.Now()
	newBalance, err := s.entries.Credit(ctx, actorID, amount, now)
	if err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		ActorID:      actorID,
		Kind:         domain.EntryRecharge,
		Amount:       amount,
		BalanceAfter: newBalance,
		PaymentRef:   paymentRef,
		Description:  fmt.Sprintf("balance recharge via %s", method),
		CreatedAt:    now,
	}
	if err := s.entries.InsertEntry(ctx, entry); err != nil {
		// Undo the credit so balance and entry log stay in step. The actor
		// lock is still held, so nothing raced the balance in between.
		if _, cerr := s.entries.DebitIfSufficient(ctx, actorID, amount, now); cerr != nil {
			s.log.Error().Err(cerr).Str("actor_id", actorID).Msg("recharge compensation failed, balance credited without entry")
		}
		s.log.Error().Err(err).Str("actor_id", actorID).Msg("recharge entry insert failed, credit reverted")
		return nil, err
	}

	if paymentRef != "" && s.dedup != nil {
		if merr := s.dedup.Mark(ctx, actorID, paymentRef); merr != nil {
			s.log.Warn().Err(merr).Str("actor_id", actorID).Msg("failed to mark recharge payment ref")
		}
	}

	metrics.LedgerEntriesTotal.WithLabelValues(string(domain.EntryRecharge)).Inc()
	s.log.Info().Str("actor_id", actorID).Int64("amount", amount).Int64("balance", newBalance).Msg("balance recharged")

	return &ports.RechargeResult{Balance: newBalance, Entry: entry}, nil
}

// Debit charges amount against the actor for a take on orderID. The
// balance check and decrement are a single conditional write on a locked
// actor, so two concurrent debits can never both pass against a stale
// read. On insufficient balance nothing is written.
func (s *LedgerService) Debit(ctx context.Context, actorID string, amount int64, orderID string) (*domain.Entry, error) {
	release, err := acquireKey(ctx, s.locks, actorKey(actorID), s.cfg.LockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.clk.Now()
	newBalance, err := s.entries.DebitIfSufficient(ctx, actorID, amount, now)
	if err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		ActorID:      actorID,
		Kind:         domain.EntryOrderTake,
		Amount:       -amount,
		BalanceAfter: newBalance,
		OrderID:      orderID,
		Description:  fmt.Sprintf("took order %s", orderID),
		CreatedAt:    now,
	}
	if err := s.entries.InsertEntry(ctx, entry); err != nil {
		// Restore the charged amount so balance and entry log stay in step.
		// The actor lock is still held, so nothing raced the balance.
		if _, cerr := s.entries.Credit(ctx, actorID, amount, now); cerr != nil {
			s.log.Error().Err(cerr).Str("actor_id", actorID).Str("order_id", orderID).Msg("debit compensation failed, balance debited without entry")
		}
		s.log.Error().Err(err).Str("actor_id", actorID).Str("order_id", orderID).Msg("debit entry insert failed, charge reverted")
		return nil, err
	}

	metrics.LedgerEntriesTotal.WithLabelValues(string(domain.EntryOrderTake)).Inc()
	return entry, nil
}

// Refund returns amount to the actor, referencing the triggering order.
func (s *LedgerService) Refund(ctx context.Context, actorID string, amount int64, orderID string) (*domain.Entry, error) {
	release, err := acquireKey(ctx, s.locks, actorKey(actorID), s.cfg.LockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.clk.Now()
	newBalance, err := s.entries.Credit(ctx, actorID, amount, now)
	if err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		ActorID:      actorID,
		Kind:         domain.EntryRefund,
		Amount:       amount,
		BalanceAfter: newBalance,
		OrderID:      orderID,
		Description:  fmt.Sprintf("refund for order %s", orderID),
		CreatedAt:    now,
	}
	if err := s.entries.InsertEntry(ctx, entry); err != nil {
		if _, cerr := s.entries.DebitIfSufficient(ctx, actorID, amount, now); cerr != nil {
			s.log.Error().Err(cerr).Str("actor_id", actorID).Str("order_id", orderID).Msg("refund compensation failed, balance credited without entry")
		}
		s.log.Error().Err(err).Str("actor_id", actorID).Str("order_id", orderID).Msg("refund entry insert failed, credit reverted")
		return nil, err
	}

	metrics.LedgerEntriesTotal.WithLabelValues(string(domain.EntryRefund)).Inc()
	s.log.Info().Str("actor_id", actorID).Str("order_id", orderID).Int64("amount", amount).Msg("refund issued")
	return entry, nil
}

// Balance returns the actor's current balance.
func (s *LedgerService) Balance(ctx context.Context, actorID string) (int64, error) {
	actor, err := s.actors.FindByID(ctx, actorID)
	if err != nil {
		return 0, err
	}
	return actor.Balance, nil
}

// History pages newest-first through the actor's ledger entries.
func (s *LedgerService) History(ctx context.Context, actorID string, cursor ports.EntryCursor, limit int) ([]domain.Entry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.entries.ListEntries(ctx, actorID, cursor, limit)
}
