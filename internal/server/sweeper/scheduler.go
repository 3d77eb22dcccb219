// Package sweeper triggers the expiry sweep on a fixed interval.
package sweeper

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ticketvault/internal/logging"
	"github.com/dmitrijs2005/ticketvault/internal/server/services"
)

// Sweeper is implemented by services.SweepService.
type Sweeper interface {
	RunExpirySweep(ctx context.Context) (services.SweepResult, error)
}

type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   logging.Logger
}

func NewScheduler(s Sweeper, interval time.Duration, logger logging.Logger) *Scheduler {
	return &Scheduler{sweeper: s, interval: interval, logger: logger.With("module", "scheduler")}
}

// Run sweeps once immediately and then every interval until ctx is done.
// Sweep failures are logged and do not stop the loop. A non-positive
// interval disables the scheduler.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info(ctx, "expiry sweep scheduler disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.runOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	res, err := s.sweeper.RunExpirySweep(ctx)
	if err != nil {
		s.logger.Error(ctx, "expiry sweep failed", "error", err, "scanned", res.Scanned, "failed_batches", res.Failed)
		return
	}
	if res.Scanned > 0 {
		s.logger.Info(ctx, "expired tickets swept", "scanned", res.Scanned, "batches", res.Batches)
	}
}
