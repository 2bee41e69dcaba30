package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ROHAN-089/namma-city/internal/repository"
	"github.com/ROHAN-089/namma-city/internal/service"
)

// SweepWorker drives periodic escalation sweeps in-process. The sweep itself
// is an ordinary callable operation; this is just the operational trigger for
// deployments without an external scheduler.
type SweepWorker struct {
	sweeps   *service.SweepService
	interval time.Duration
	logger   *zap.Logger
}

// NewSweepWorker constructs the worker.
func NewSweepWorker(sweeps *service.SweepService, interval time.Duration, logger *zap.Logger) *SweepWorker {
	return &SweepWorker{sweeps: sweeps, interval: interval, logger: logger}
}

// Run loops until ctx is cancelled, sweeping the full active set each tick.
func (w *SweepWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("sweep worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sweep worker stopped")
			return
		case <-ticker.C:
			if _, err := w.sweeps.RunSweep(ctx, repository.SLAScope{}); err != nil {
				w.logger.Error("scheduled sweep failed", zap.Error(err))
			}
		}
	}
}
