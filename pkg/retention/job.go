// Package retention bounds ledger growth by periodically deleting usage
// events older than a configured age.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Cleaner is the slice of the ledger the job needs.
type Cleaner interface {
	CleanupOld(ctx context.Context, days int) (int64, error)
}

// Job deletes aged usage events on a fixed interval.
type Job struct {
	store    Cleaner
	days     int
	interval time.Duration
	logger   *slog.Logger
}

// New creates a retention job keeping the trailing days of events and
// sweeping every interval.
func New(store Cleaner, days int, interval time.Duration, logger *slog.Logger) (*Job, error) {
	if days < 0 {
		return nil, fmt.Errorf("retention: negative day count %d", days)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("retention: interval must be positive, got %s", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{store: store, days: days, interval: interval, logger: logger}, nil
}

// Run sweeps once immediately, then on every interval tick until ctx is
// cancelled. Sweep failures are logged and the loop keeps going; retry
// policy beyond the next tick belongs to the host.
func (j *Job) Run(ctx context.Context) {
	j.sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

// RunOnce performs a single sweep.
func (j *Job) RunOnce(ctx context.Context) (int64, error) {
	return j.store.CleanupOld(ctx, j.days)
}

func (j *Job) sweep(ctx context.Context) {
	deleted, err := j.store.CleanupOld(ctx, j.days)
	if err != nil {
		j.logger.Error("retention sweep failed", "retention_days", j.days, "error", err)
		return
	}
	if deleted > 0 {
		j.logger.Info("retention sweep deleted old usage events",
			"deleted", deleted, "retention_days", j.days)
	}
}
