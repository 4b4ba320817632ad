package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/srochno/order-exchange/internal/pkg/clock"
)

type countingAdvancer struct {
	calls atomic.Int64
}

func (a *countingAdvancer) Advance(context.Context, time.Time) (int, error) {
	a.calls.Add(1)
	return 0, nil
}

func TestLifecycleWorker_TicksUntilCancelled(t *testing.T) {
	adv := &countingAdvancer{}
	w := NewLifecycleWorker(adv, clock.NewSystem(), 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for adv.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("worker never ticked")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestLifecycleWorker_DefaultsInterval(t *testing.T) {
	w := NewLifecycleWorker(&countingAdvancer{}, clock.NewSystem(), 0, zerolog.Nop())
	if w.interval != defaultInterval {
		t.Fatalf("expected default interval, got %v", w.interval)
	}
}
