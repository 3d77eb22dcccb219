// Package tasks runs fire-and-forget work that must outlive the request that
// started it but not the process.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/ticketvault/internal/logging"
)

// Runner starts detached background tasks and tracks them so shutdown can
// wait for them to finish.
type Runner struct {
	logger  logging.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner returns a Runner whose tasks are each bounded by timeout.
func NewRunner(logger logging.Logger, timeout time.Duration) *Runner {
	return &Runner{logger: logger.With("module", "tasks"), timeout: timeout}
}

// Go runs fn in a new goroutine. fn receives a context that keeps the values
// of ctx but not its cancellation, bounded by the runner timeout. Errors and
// panics are logged, never propagated.
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		defer func() {
			if p := recover(); p != nil {
				r.logger.Error(taskCtx, "background task panicked", "task", name, "panic", fmt.Sprint(p))
			}
		}()

		if err := fn(taskCtx); err != nil {
			r.logger.Warn(taskCtx, "background task failed", "task", name, "error", err)
		}
	}()
}

// Wait blocks until every started task has returned or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
