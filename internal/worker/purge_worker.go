// Package worker runs the periodic expiry purge.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/zone-queue/internal/model"
	"github.com/iliyamo/zone-queue/internal/render"
	"github.com/iliyamo/zone-queue/internal/service"
)

// Purger is the part of the engine the worker drives.
type Purger interface {
	PurgeExpired(ctx context.Context, deleted *model.Reservation) (service.PurgeResult, error)
}

// Refresher re-renders the summary view.
type Refresher interface {
	Refresh(ctx context.Context) (render.Snapshot, error)
}

// PurgeWorker purges lapsed reservations every Interval.  The engine
// publishes the resulting notifications; the worker then refreshes the
// board so the summary view never shows a lapsed reservation for longer
// than one interval.
type PurgeWorker struct {
	Purger   Purger
	Board    Refresher
	Interval time.Duration
	Log      *zap.Logger
}

// Run blocks until ctx is done.  It purges once immediately.
func (w *PurgeWorker) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PurgeWorker) logger() *zap.Logger {
	if w.Log == nil {
		return zap.NewNop()
	}
	return w.Log
}

func (w *PurgeWorker) tick(ctx context.Context) {
	log := w.logger()
	res, err := w.Purger.PurgeExpired(ctx, nil)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("purge-worker: purge failed", zap.Error(err))
		}
		return
	}
	if !res.Empty() {
		log.Debug("purge-worker: purged",
			zap.Int("expired", len(res.ToNotify)), zap.Int("promoted", len(res.Promotions())))
	}
	if w.Board == nil {
		return
	}
	if _, err := w.Board.Refresh(ctx); err != nil && ctx.Err() == nil {
		log.Warn("purge-worker: board refresh failed", zap.Error(err))
	}
}
