package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/iliyamo/event-seat-booking/internal/logger"
)

// ExpirySweeper releases one batch of expired holds.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// HoldSweeper periodically returns seats of unpaid holds to the pool.
type HoldSweeper struct {
	svc      ExpirySweeper
	interval time.Duration
	log      logger.Logger

	runs    atomic.Int64
	expired atomic.Int64
}

func NewHoldSweeper(svc ExpirySweeper, interval time.Duration, log logger.Logger) *HoldSweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HoldSweeper{svc: svc, interval: interval, log: log}
}

// Run sweeps immediately and then every interval until ctx is done.
func (w *HoldSweeper) Run(ctx context.Context) error {
	w.log.Info("hold sweeper started", "interval", w.interval.String())
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("hold sweeper stopped", "runs", w.runs.Load(), "expired", w.expired.Load())
			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stats returns the number of sweeps run and bookings expired so far.
func (w *HoldSweeper) Stats() (runs, expired int64) {
	return w.runs.Load(), w.expired.Load()
}

func (w *HoldSweeper) sweep(ctx context.Context) {
	w.runs.Add(1)
	n, err := w.svc.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error("hold sweep failed", "error", err)
		}
		return
	}
	if n > 0 {
		w.expired.Add(int64(n))
		w.log.Info("expired holds released", "count", n)
	}
}
