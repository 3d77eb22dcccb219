package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/ticketvault/internal/logging"
	"github.com/dmitrijs2005/ticketvault/internal/server/services"
	"github.com/stretchr/testify/assert"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) RunExpirySweep(context.Context) (services.SweepResult, error) {
	c.calls.Add(1)
	return services.SweepResult{Scanned: 1, Batches: 1}, c.err
}

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	sw := &countingSweeper{err: errors.New("transient")}
	s := NewScheduler(sw, 5*time.Millisecond, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sw.calls.Load() >= 3 }, time.Second, time.Millisecond,
		"failures must not stop the loop")
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestScheduler_DisabledInterval(t *testing.T) {
	sw := &countingSweeper{}
	NewScheduler(sw, 0, logging.Nop()).Run(context.Background())
	assert.Zero(t, sw.calls.Load())
}
