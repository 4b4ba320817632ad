package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/srochno/order-exchange/internal/pkg/clock"
)

// Advancer is the lifecycle sweep entry point invoked on each tick.
type Advancer interface {
	Advance(ctx context.Context, now time.Time) (int, error)
}

// LifecycleWorker drives the lifecycle sweep on a fixed interval. It is
// the in-process stand-in for an external cron trigger.
type LifecycleWorker struct {
	lifecycle Advancer
	clk       clock.Clock
	interval  time.Duration
	log       zerolog.Logger
}

const defaultInterval = time.Minute

func NewLifecycleWorker(lifecycle Advancer, clk clock.Clock, interval time.Duration, log zerolog.Logger) *LifecycleWorker {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &LifecycleWorker{
		lifecycle: lifecycle,
		clk:       clk,
		interval:  interval,
		log:       log,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (w *LifecycleWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("starting lifecycle worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("lifecycle worker stopped")
			return
		case <-ticker.C:
			count, err := w.lifecycle.Advance(ctx, w.clk.Now())
			if err != nil {
				w.log.Error().Err(err).Int("transitioned", count).Msg("lifecycle sweep failed")
				continue
			}
			if count > 0 {
				w.log.Info().Int("transitioned", count).Msg("lifecycle sweep complete")
			}
		}
	}
}
