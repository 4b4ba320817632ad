package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories shared by the service tests
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	findErr       error // if set, FindByID returns this error
	transitionErr error // if set, TransitionStatus returns this error
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *stubOrderRepo) put(o *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *o
	r.orders[o.ID] = &clone
}

func (r *stubOrderRepo) get(id string) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil
	}
	clone := *o
	return &clone
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.put(o)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	o := r.get(id)
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (r *stubOrderRepo) HasActiveByContact(_ context.Context, contact string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Contact == contact && o.Status == domain.StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubOrderRepo) List(_ context.Context, f ports.ListOrdersFilter) ([]*domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.Order
	for _, o := range r.orders {
		if f.ClientID != "" && o.ClientID != f.ClientID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Category != "" && o.Category != f.Category {
			continue
		}
		if f.City != "" && o.City != f.City {
			continue
		}
		clone := *o
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if f.Offset > len(matched) {
		return nil, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (r *stubOrderRepo) ListActive(_ context.Context, afterID string, limit int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []*domain.Order
	for _, o := range r.orders {
		if o.Status != domain.StatusActive || o.ID <= afterID {
			continue
		}
		clone := *o
		active = append(active, &clone)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	if limit > 0 && len(active) > limit {
		active = active[:limit]
	}
	return active, nil
}

func (r *stubOrderRepo) UpdateEditable(_ context.Context, id string, fields ports.EditableFields, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if fields.Category != nil {
		o.Category = *fields.Category
	}
	if fields.Description != nil {
		o.Description = *fields.Description
	}
	if fields.Contact != nil {
		o.Contact = *fields.Contact
	}
	o.UpdatedAt = at
	return nil
}

func (r *stubOrderRepo) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *stubOrderRepo) TransitionStatus(_ context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	if r.transitionErr != nil {
		return false, r.transitionErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	return true, nil
}

func (r *stubOrderRepo) MarkResponded(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	t := at
	o.RespondedAt = &t
	o.UpdatedAt = at
	return nil
}

func (r *stubOrderRepo) SetFirstTakeAt(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.FirstTakeAt == nil {
		t := at
		o.FirstTakeAt = &t
	}
	return nil
}

type stubHolderRepo struct {
	mu      sync.Mutex
	holders map[string][]domain.Holder // keyed by order id
}

func newStubHolderRepo() *stubHolderRepo {
	return &stubHolderRepo{holders: make(map[string][]domain.Holder)}
}

func (r *stubHolderRepo) Insert(_ context.Context, h domain.Holder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.holders[h.OrderID] {
		if existing.ExecutorID == h.ExecutorID {
			return domain.ErrConflict
		}
	}
	r.holders[h.OrderID] = append(r.holders[h.OrderID], h)
	return nil
}

func (r *stubHolderRepo) Find(_ context.Context, orderID, executorID string) (*domain.Holder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.holders[orderID] {
		if h.ExecutorID == executorID {
			clone := h
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *stubHolderRepo) CountByOrder(_ context.Context, orderID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.holders[orderID]), nil
}

func (r *stubHolderRepo) ListByOrder(_ context.Context, orderID string) ([]domain.Holder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Holder(nil), r.holders[orderID]...), nil
}

type stubActorRepo struct {
	mu     sync.Mutex
	actors map[string]*domain.Actor
}

func newStubActorRepo() *stubActorRepo {
	return &stubActorRepo{actors: make(map[string]*domain.Actor)}
}

func (r *stubActorRepo) seed(id string, balance int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actors[id] = &domain.Actor{ID: id, Username: id, Balance: balance}
}

func (r *stubActorRepo) balance(id string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.actors[id].Balance
}

func (r *stubActorRepo) Create(_ context.Context, a *domain.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.actors {
		if existing.ID == a.ID || existing.Username == a.Username {
			return domain.ErrActorExists
		}
	}
	clone := *a
	r.actors[a.ID] = &clone
	return nil
}

func (r *stubActorRepo) FindByID(_ context.Context, id string) (*domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actors[id]
	if !ok {
		return nil, domain.ErrActorNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubActorRepo) FindByUsername(_ context.Context, username string) (*domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.actors {
		if a.Username == username {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrActorNotFound
}

func (r *stubActorRepo) IncrementCompleted(_ context.Context, actorIDs []string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range actorIDs {
		if a, ok := r.actors[id]; ok {
			a.CompletedOrders++
			a.UpdatedAt = at
		}
	}
	return nil
}

// stubLedgerRepo mutates balances on the shared actor stub, mirroring how
// the real repositories share the actors collection.
type stubLedgerRepo struct {
	mu      sync.Mutex
	actors  *stubActorRepo
	entries []domain.Entry
	nextID  int

	insertErr error // if set, InsertEntry returns this error
}

func newStubLedgerRepo(actors *stubActorRepo) *stubLedgerRepo {
	return &stubLedgerRepo{actors: actors}
}

func (r *stubLedgerRepo) DebitIfSufficient(_ context.Context, actorID string, amount int64, at time.Time) (int64, error) {
	r.actors.mu.Lock()
	defer r.actors.mu.Unlock()
	a, ok := r.actors.actors[actorID]
	if !ok {
		return 0, domain.ErrActorNotFound
	}
	if a.Balance < amount {
		return 0, domain.ErrInsufficientBalance
	}
	a.Balance -= amount
	a.UpdatedAt = at
	return a.Balance, nil
}

func (r *stubLedgerRepo) Credit(_ context.Context, actorID string, amount int64, at time.Time) (int64, error) {
	r.actors.mu.Lock()
	defer r.actors.mu.Unlock()
	a, ok := r.actors.actors[actorID]
	if !ok {
		return 0, domain.ErrActorNotFound
	}
	a.Balance += amount
	a.UpdatedAt = at
	return a.Balance, nil
}

func (r *stubLedgerRepo) InsertEntry(_ context.Context, e *domain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	if e.ID == "" {
		r.nextID++
		e.ID = fmt.Sprintf("ent_%06d", r.nextID)
	}
	r.entries = append(r.entries, *e)
	return nil
}

func (r *stubLedgerRepo) ListEntries(_ context.Context, actorID string, cursor ports.EntryCursor, limit int) ([]domain.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.Entry
	for _, e := range r.entries {
		if e.ActorID != actorID {
			continue
		}
		if !cursor.IsZero() {
			older := e.CreatedAt.Before(cursor.CreatedAt) ||
				(e.CreatedAt.Equal(cursor.CreatedAt) && e.ID < cursor.ID)
			if !older {
				continue
			}
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// entriesFor returns the recorded entries for one actor, oldest first.
func (r *stubLedgerRepo) entriesFor(actorID string) []domain.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.Entry
	for _, e := range r.entries {
		if e.ActorID == actorID {
			matched = append(matched, e)
		}
	}
	return matched
}

type stubDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newStubDeduper() *stubDeduper {
	return &stubDeduper{seen: make(map[string]bool)}
}

func (d *stubDeduper) Seen(_ context.Context, actorID, paymentRef string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[actorID+":"+paymentRef], nil
}

func (d *stubDeduper) Mark(_ context.Context, actorID, paymentRef string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[actorID+":"+paymentRef] = true
	return nil
}
