package service

import (
	"context"
	"testing"
	"time"

	"github.com/srochno/order-exchange/internal/core/domain"
	"github.com/srochno/order-exchange/internal/pkg/clock"
	"github.com/srochno/order-exchange/internal/pkg/keylock"
)

func newLifecycleEnv(t *testing.T, batchSize int) (*stubOrderRepo, *clock.Fixed, *LifecycleService) {
	t.Helper()
	orders := newStubOrderRepo()
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewLifecycleService(orders, keylock.New(), DefaultConfig(), batchSize, discardLogger)
	return orders, clk, svc
}

func seedActiveOrder(orders *stubOrderRepo, id string, createdAt time.Time) *domain.Order {
	o := &domain.Order{
		ID:               id,
		ClientID:         "client_1",
		Category:         "cleaning",
		Description:      "deep clean after renovation",
		City:             "Riga",
		Contact:          "+371 2000 0001",
		Status:           domain.StatusActive,
		ExpiresInMinutes: 60,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
	orders.put(o)
	return o
}

func TestLifecycle_ExpiresAfterLifetimeWindow(t *testing.T) {
	orders, clk, svc := newLifecycleEnv(t, 0)
	seedActiveOrder(orders, "ord_1", clk.Now())

	clk.Advance(61 * time.Minute)
	count, err := svc.Advance(context.Background(), clk.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 transition, got %d", count)
	}
	if got := orders.get("ord_1").Status; got != domain.StatusExpired {
		t.Errorf("expected expired, got %s", got)
	}
}

func TestLifecycle_LeavesFreshOrdersAlone(t *testing.T) {
	orders, clk, svc := newLifecycleEnv(t, 0)
	seedActiveOrder(orders, "ord_1", clk.Now())

	clk.Advance(30 * time.Minute)
	count, err := svc.Advance(context.Background(), clk.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no transitions, got %d", count)
	}
	if got := orders.get("ord_1").Status; got != domain.StatusActive {
		t.Errorf("expected still active, got %s", got)
	}
}

func TestLifecycle_ClosesUnansweredAfterQuietWindow(t *testing.T) {
	orders, clk, svc := newLifecycleEnv(t, 0)
	o := seedActiveOrder(orders, "ord_1", clk.Now())

	// Taken 5 minutes in, never answered.
	takenAt := clk.Now().Add(5 * time.Minute)
	o.FirstTakeAt = &takenAt
	orders.put(o)

	// 21 minutes in: 16 minutes of silence, past the 15-minute window.
	clk.Advance(21 * time.Minute)
	count, err := svc.Advance(context.Background(), clk.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 transition, got %d", count)
	}
	if got := orders.get("ord_1").Status; got != domain.StatusClosedNoResponse {
		t.Errorf("expected closed_no_response, got %s", got)
	}
}

func TestLifecycle_RespondedOrderIsNotClosed(t *testing.T) {
	orders, clk, svc := newLifecycleEnv(t, 0)
	o := seedActiveOrder(orders, "ord_1", clk.Now())

	takenAt := clk.Now().Add(5 * time.Minute)
	respondedAt := clk.Now().Add(10 * time.Minute)
	o.FirstTakeAt = &takenAt
	o.RespondedAt = &respondedAt
	orders.put(o)

	clk.Advance(30 * time.Minute)
	count, err := svc.Advance(context.Background(), clk.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no transitions, got %d", count)
	}
	if got := orders.get("ord_1").Status; got != domain.StatusActive {
		t.Errorf("expected still active, got %s", got)
	}
}

func TestLifecycle_ExpiryWinsOverQuietClose(t *testing.T) {
	orders, clk, svc := newLifecycleEnv(t, 0)
	o := seedActiveOrder(orders, "ord_1", clk.Now())

	takenAt := clk.Now().Add(5 * time.Minute)
	o.FirstTakeAt = &takenAt
	orders.put(o)

	// Both windows have elapsed; the order ends as expired, not closed.
	clk.Advance(2 * time.Hour)
	if _, err := svc.Advance(context.Background(), clk.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := orders.get("ord_1").Status; got != domain.StatusExpired {
		t.Errorf("expected expired, got %s", got)
	}
}

func TestLifecycle_RepeatSweepIsNoOp(t *testing.T) {
	orders, clk, svc := newLifecycleEnv(t, 0)
	seedActiveOrder(orders, "ord_1", clk.Now())

	clk.Advance(61 * time.Minute)
	if _, err := svc.Advance(context.Background(), clk.Now()); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}

	count, err := svc.Advance(context.Background(), clk.Now())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if count != 0 {
		t.Errorf("second sweep must be a no-op, transitioned %d", count)
	}
}

func TestLifecycle_SweepsInBatches(t *testing.T) {
	orders, clk, svc := newLifecycleEnv(t, 2)
	for _, id := range []string{"ord_1", "ord_2", "ord_3", "ord_4", "ord_5"} {
		seedActiveOrder(orders, id, clk.Now())
	}

	clk.Advance(61 * time.Minute)
	count, err := svc.Advance(context.Background(), clk.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected all 5 orders transitioned, got %d", count)
	}
}

func TestLifecycle_CancelledContextStopsSweep(t *testing.T) {
	orders, clk, svc := newLifecycleEnv(t, 0)
	seedActiveOrder(orders, "ord_1", clk.Now())
	clk.Advance(61 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Advance(ctx, clk.Now()); err == nil {
		t.Fatal("expected context error from cancelled sweep")
	}
}
