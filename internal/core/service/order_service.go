package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/srochno/order-exchange/internal/api/metrics"
	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/core/ports"
	"github.com/srochno/order-exchange/internal/pkg/clock"
	"github.com/srochno/order-exchange/internal/pkg/keylock"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// OrderService implements every order operation outside the take path.
// Mutations run inside the order's exclusion scope so they cannot race the
// take coordinator or the lifecycle sweep.
type OrderService struct {
	orders  ports.OrderRepository
	holders ports.HolderRepository
	actors  ports.ActorRepository
	locks   *keylock.Registry
	clk     clock.Clock
	cfg     Config
	log     zerolog.Logger
}

func NewOrderService(
	orders ports.OrderRepository,
	holders ports.HolderRepository,
	actors ports.ActorRepository,
	locks *keylock.Registry,
	clk clock.Clock,
	cfg Config,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{
		orders:  orders,
		holders: holders,
		actors:  actors,
		locks:   locks,
		clk:     clk,
		cfg:     cfg,
		log:     log,
	}
}

// Create posts a new order owned by the calling client. One active order
// per contact: a second active order with the same contact is rejected.
func (s *OrderService) Create(ctx context.Context, in ports.CreateOrderInput) (*domain.Order, error) {
	if !domain.IsValidCategory(in.Category) {
		return nil, domain.ErrInvalidCategory
	}

	inUse, err := s.orders.HasActiveByContact(ctx, in.Contact)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, domain.ErrContactInUse
	}

	now := s.clk.Now()
	order := &domain.Order{
		ID:               newOrderID(),
		ClientID:         in.ClientID,
		Category:         in.Category,
		Description:      in.Description,
		City:             in.City,
		Contact:          in.Contact,
		Status:           domain.StatusActive,
		ExpiresInMinutes: s.cfg.OrderLifetimeMinutes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.log.Error().Err(err).Msg("failed to create order")
		return nil, err
	}

	metrics.OrdersCreatedTotal.WithLabelValues(order.Category).Inc()
	s.log.Info().Str("order_id", order.ID).Str("client_id", in.ClientID).Str("category", in.Category).Msg("order created")
	return order, nil
}

// Get returns the order detail. The contact is revealed only to the owner
// and to executors holding a take record.
func (s *OrderService) Get(ctx context.Context, orderID, actorID string) (*ports.OrderView, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	count, err := s.holders.CountByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	show := order.ClientID == actorID
	if !show && actorID != "" {
		h, herr := s.holders.Find(ctx, orderID, actorID)
		if herr != nil {
			return nil, herr
		}
		show = h != nil
	}

	return &ports.OrderView{
		Order:       order,
		ShowContact: show,
		HolderCount: count,
		MinutesLeft: order.MinutesLeft(s.clk.Now()),
	}, nil
}

// List returns a filtered page of orders, newest first. Public listings
// are restricted to listable statuses; owners see all of their own.
func (s *OrderService) List(ctx context.Context, in ports.ListOrdersInput) (*ports.ListOrdersResult, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	filter := ports.ListOrdersFilter{
		Category: in.Category,
		City:     in.City,
		Status:   domain.OrderStatus(in.Status),
		Limit:    limit,
		Offset:   offset,
	}
	if in.Mine {
		filter.ClientID = in.ActorID
	} else if filter.Status == "" || !filter.Status.IsListable() {
		filter.Status = domain.StatusActive
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	items := make([]ports.OrderView, 0, len(orders))
	for _, o := range orders {
		count, cerr := s.holders.CountByOrder(ctx, o.ID)
		if cerr != nil {
			return nil, cerr
		}
		items = append(items, ports.OrderView{
			Order:       o,
			ShowContact: o.ClientID == in.ActorID,
			HolderCount: count,
			MinutesLeft: o.MinutesLeft(now),
		})
	}

	return &ports.ListOrdersResult{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// Update edits category/description/contact. Only the owner may edit, only
// while the order is active with zero holders. City is never editable.
func (s *OrderService) Update(ctx context.Context, in ports.UpdateOrderInput) (*domain.Order, error) {
	if in.Category != nil && !domain.IsValidCategory(*in.Category) {
		return nil, domain.ErrInvalidCategory
	}

	release, err := acquireKey(ctx, s.locks, orderKey(in.OrderID), s.cfg.LockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.ownedMutable(ctx, in.OrderID, in.ActorID)
	if err != nil {
		return nil, err
	}
	if order.IsExpired(s.clk.Now()) {
		return nil, domain.ErrOrderExpired
	}

	fields := ports.EditableFields{
		Category:    in.Category,
		Description: in.Description,
		Contact:     in.Contact,
	}
	if err := s.orders.UpdateEditable(ctx, in.OrderID, fields, s.clk.Now()); err != nil {
		return nil, err
	}

	s.log.Info().Str("order_id", in.OrderID).Msg("order updated")
	return s.orders.FindByID(ctx, in.OrderID)
}

// Delete removes an order that nobody has taken yet. Orders with holders
// only leave through the terminal lifecycle states.
func (s *OrderService) Delete(ctx context.Context, orderID, actorID string) error {
	release, err := acquireKey(ctx, s.locks, orderKey(orderID), s.cfg.LockWait)
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.ownedMutable(ctx, orderID, actorID); err != nil {
		return err
	}

	if err := s.orders.Remove(ctx, orderID); err != nil {
		return err
	}
	s.log.Info().Str("order_id", orderID).Msg("order deleted")
	return nil
}

// Respond records that the owner answered an executor's contact, clearing
// the no-response auto-close guard.
func (s *OrderService) Respond(ctx context.Context, orderID, actorID string) (*domain.Order, error) {
	release, err := acquireKey(ctx, s.locks, orderKey(orderID), s.cfg.LockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.ownedActive(ctx, orderID, actorID)
	if err != nil {
		return nil, err
	}
	if order.FirstTakeAt == nil {
		return nil, domain.ErrNoHolders
	}
	if order.RespondedAt != nil {
		return nil, domain.ErrAlreadyResponded
	}

	if err := s.orders.MarkResponded(ctx, orderID, s.clk.Now()); err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, orderID)
}

// Complete marks an order finished at the owner's request and bumps the
// completed-order counters for the owner and every holder.
func (s *OrderService) Complete(ctx context.Context, orderID, actorID string) (*domain.Order, error) {
	release, err := acquireKey(ctx, s.locks, orderKey(orderID), s.cfg.LockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.ownedActive(ctx, orderID, actorID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	if order.IsExpired(now) {
		if _, terr := s.orders.TransitionStatus(ctx, orderID, domain.StatusActive, domain.StatusExpired, now); terr != nil {
			s.log.Warn().Err(terr).Str("order_id", orderID).Msg("failed to record lazy expiry")
		}
		return nil, domain.ErrOrderExpired
	}

	takes, err := s.holders.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(takes) == 0 {
		return nil, domain.ErrNoHolders
	}

	applied, err := s.orders.TransitionStatus(ctx, orderID, domain.StatusActive, domain.StatusCompleted, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domain.ErrConflict
	}
	metrics.OrderTransitionsTotal.WithLabelValues(string(domain.StatusCompleted)).Inc()

	ids := make([]string, 0, len(takes)+1)
	ids = append(ids, order.ClientID)
	for _, t := range takes {
		ids = append(ids, t.ExecutorID)
	}
	if err := s.actors.IncrementCompleted(ctx, ids, now); err != nil {
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("failed to bump completed counters")
	}

	s.log.Info().Str("order_id", orderID).Int("holders", len(takes)).Msg("order completed")
	return s.orders.FindByID(ctx, orderID)
}

// Close ends an order early as closed_no_response at the owner's request,
// for example when no executor worked out.
func (s *OrderService) Close(ctx context.Context, orderID, actorID string) error {
	release, err := acquireKey(ctx, s.locks, orderKey(orderID), s.cfg.LockWait)
	if err != nil {
		return err
	}
	defer release()

	order, err := s.ownedActive(ctx, orderID, actorID)
	if err != nil {
		return err
	}
	if order.FirstTakeAt == nil {
		return domain.ErrNoHolders
	}

	applied, err := s.orders.TransitionStatus(ctx, orderID, domain.StatusActive, domain.StatusClosedNoResponse, s.clk.Now())
	if err != nil {
		return err
	}
	if !applied {
		return domain.ErrConflict
	}
	metrics.OrderTransitionsTotal.WithLabelValues(string(domain.StatusClosedNoResponse)).Inc()
	s.log.Info().Str("order_id", orderID).Msg("order closed by owner")
	return nil
}

// ownedActive loads the order and verifies ownership and active status.
func (s *OrderService) ownedActive(ctx context.Context, orderID, actorID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientID != actorID {
		return nil, domain.ErrForbidden
	}
	if order.Status != domain.StatusActive {
		return nil, domain.ErrOrderExpired
	}
	return order, nil
}

// ownedMutable additionally requires the order to still be in its mutable
// window: active and with zero holders.
func (s *OrderService) ownedMutable(ctx context.Context, orderID, actorID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientID != actorID {
		return nil, domain.ErrForbidden
	}
	if order.Status != domain.StatusActive {
		return nil, domain.ErrOrderLocked
	}
	count, err := s.holders.CountByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, domain.ErrOrderLocked
	}
	return order, nil
}
