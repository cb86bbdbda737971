// Package retention removes assistant conversation turns that fell out of
// the retention window.
package retention

import (
	"context"
	"time"

	"github.com/robalyx/invitegate/pkg/utils"
	"go.uber.org/zap"
)

// maxErrorPause caps the wait before retrying a failed sweep.
const maxErrorPause = 5 * time.Minute

// Store deletes conversation turns.
type Store interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Worker periodically sweeps old conversation turns.
type Worker struct {
	store     Store
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a retention worker keeping turns for retention and sweeping
// every interval.
func New(store Store, retention, interval time.Duration, logger *zap.Logger) *Worker {
	return &Worker{
		store:     store,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		logger:    logger.Named("retention_worker"),
	}
}

// Start sweeps once immediately and then every interval until ctx is
// cancelled. A failed sweep is retried after a shorter pause.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Retention Worker started",
		zap.Duration("retention", w.retention),
		zap.Duration("interval", w.interval))

	for {
		if _, err := w.Sweep(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}

			w.logger.Error("Failed to sweep conversation history",
				zap.Error(err),
				zap.String("operation", "retention_sweep"))

			if !utils.ErrorSleep(ctx, min(w.interval, maxErrorPause), w.logger, "retention worker") {
				return
			}
			continue
		}

		if !utils.IntervalSleep(ctx, w.interval, w.logger, "retention worker") {
			return
		}
	}
}

// Sweep deletes every turn older than the retention window and returns how
// many were removed.
func (w *Worker) Sweep(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	deleted, err := w.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		w.logger.Info("Removed old conversation turns",
			zap.Int64("count", deleted),
			zap.Time("cutoff", cutoff))
	}

	return deleted, nil
}
