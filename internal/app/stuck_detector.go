package app

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/adw/internal/core/detection"
	"github.com/example/adw/internal/ports/primary"
	"github.com/example/adw/internal/ports/secondary"
)

// StuckDetectorImpl implements primary.StuckDetector: a periodic sweep that
// flags in-progress workflows with no forward progress. It writes only the
// advisory is_stuck flag, never stage or status.
type StuckDetectorImpl struct {
	repo      secondary.WorkflowRepository
	workflows primary.WorkflowService
	staleness time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewStuckDetector creates a detector with the given staleness window and
// sweep interval; zero values fall back to the detection defaults.
func NewStuckDetector(repo secondary.WorkflowRepository, workflows primary.WorkflowService, staleness, interval time.Duration) *StuckDetectorImpl {
	if staleness <= 0 {
		staleness = detection.DefaultStaleness
	}
	if interval <= 0 {
		interval = detection.DefaultSweepInterval
	}
	return &StuckDetectorImpl{
		repo:      repo,
		workflows: workflows,
		staleness: staleness,
		interval:  interval,
		now:       time.Now,
	}
}

// Sweep runs one pass. Workflows that went stale get flagged
// (stuck_detected); previously flagged workflows whose updatedAt advanced
// get unflagged (stuck_resolved). The per-workflow checks run concurrently;
// flag writes are narrow single-column updates that cannot conflict with
// orchestrator writes for the same id.
func (d *StuckDetectorImpl) Sweep(ctx context.Context) (*primary.SweepResult, error) {
	records, err := d.repo.ListInProgress(ctx)
	if err != nil {
		return nil, err
	}

	now := d.now().UTC()
	result := &primary.SweepResult{Scanned: len(records), SweptAt: now}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, rec := range records {
		g.Go(func() error {
			stale := detection.IsStale(rec.UpdatedAt, now, d.staleness)
			switch {
			case stale && !rec.IsStuck:
				if err := d.workflows.SetStuck(ctx, rec.ID, true); err != nil {
					return err
				}
				mu.Lock()
				result.Flagged = append(result.Flagged, rec.ID)
				mu.Unlock()
			case !stale && rec.IsStuck:
				if err := d.workflows.SetStuck(ctx, rec.ID, false); err != nil {
					return err
				}
				mu.Lock()
				result.Resolved = append(result.Resolved, rec.ID)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// Run sweeps on the configured interval until the context is cancelled.
// Individual sweep failures do not stop the loop; the next tick retries.
func (d *StuckDetectorImpl) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.Sweep(ctx)
		}
	}
}

// Ensure StuckDetectorImpl implements the interface.
var _ primary.StuckDetector = (*StuckDetectorImpl)(nil)
