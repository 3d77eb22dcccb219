package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/ticketvault/internal/clockx"
	"github.com/dmitrijs2005/ticketvault/internal/common"
	"github.com/dmitrijs2005/ticketvault/internal/logging"
	"github.com/dmitrijs2005/ticketvault/internal/server/blobstore"
	"github.com/dmitrijs2005/ticketvault/internal/server/repositories/tickets"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// SweepConfig tunes RunExpirySweep.
type SweepConfig struct {
	// BatchSize is capped at tickets.MaxBatchDelete.
	BatchSize int
	// Concurrency bounds the number of batches in flight; <= 0 means no bound.
	Concurrency int
}

// SweepResult summarises one sweep run.
type SweepResult struct {
	Scanned int
	Batches int
	Failed  int
}

// SweepService purges expired tickets from the ticket and blob stores.
type SweepService struct {
	repo   tickets.Repository
	blobs  blobstore.Store
	clock  clockx.Clock
	logger logging.Logger
	cfg    SweepConfig
}

func NewSweepService(repo tickets.Repository, blobs blobstore.Store, clock clockx.Clock, logger logging.Logger, cfg SweepConfig) *SweepService {
	if cfg.BatchSize <= 0 || cfg.BatchSize > tickets.MaxBatchDelete {
		cfg.BatchSize = tickets.MaxBatchDelete
	}
	return &SweepService{
		repo:   repo,
		blobs:  blobs,
		clock:  clock,
		logger: logger.With("module", "sweeper"),
		cfg:    cfg,
	}
}

// RunExpirySweep deletes every ticket with ExpiresAt before now, in batches,
// together with any offloaded payloads. It waits for every batch. Batches
// that succeed stay deleted even when others fail, and running it again is
// safe. The error is Forbidden if any failure was a permission denial and
// Internal otherwise.
func (s *SweepService) RunExpirySweep(ctx context.Context) (SweepResult, error) {
	now := clockx.Unix(s.clock)

	ids, err := s.repo.ScanByExpiry(ctx, now)
	if err != nil {
		return SweepResult{}, common.FromStore("scan expired tickets", err)
	}

	batches := chunk(ids, s.cfg.BatchSize)
	res := SweepResult{Scanned: len(ids), Batches: len(batches)}
	if len(batches) == 0 {
		return res, nil
	}

	var (
		mu     sync.Mutex
		errs   error
		failed int
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		failed++
		errs = multierr.Append(errs, err)
	}

	// The group context is not used: one failing batch must not cancel the
	// others.
	var g errgroup.Group
	if s.cfg.Concurrency > 0 {
		g.SetLimit(s.cfg.Concurrency)
	}

	for i, batch := range batches {
		g.Go(func() error {
			var recErr, blobErr error
			var inner errgroup.Group
			inner.Go(func() error {
				if err := s.repo.BatchDelete(ctx, batch); err != nil {
					recErr = fmt.Errorf("batch %d: delete records: %w", i, err)
				}
				return nil
			})
			inner.Go(func() error {
				if err := s.blobs.BatchDelete(ctx, blobstore.Keys(batch)); err != nil {
					blobErr = fmt.Errorf("batch %d: delete payloads: %w", i, err)
				}
				return nil
			})
			_ = inner.Wait()

			if batchErr := multierr.Combine(recErr, blobErr); batchErr != nil {
				record(batchErr)
			}
			return nil
		})
	}
	_ = g.Wait()

	res.Failed = failed
	if errs == nil {
		s.logger.Info(ctx, "expiry sweep finished", "scanned", res.Scanned, "batches", res.Batches)
		return res, nil
	}

	for _, e := range multierr.Errors(errs) {
		s.logger.Error(ctx, "expiry sweep batch failed", "error", e)
	}

	if errors.Is(errs, common.ErrPermissionDenied) {
		return res, common.Wrap(common.CodeForbidden, "expiry sweep", errs)
	}
	return res, common.Wrap(common.CodeInternal, "expiry sweep", errs)
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > 0 {
		n := min(size, len(ids))
		out = append(out, ids[:n:n])
		ids = ids[n:]
	}
	return out
}
