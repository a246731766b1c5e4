package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/mercury/internal/config"
	reportsvc "github.com/Additional-Code/mercury/internal/service/report"
)

// Scheduler runs the order report aggregation on a fixed interval.
type Scheduler struct {
	svc      *reportsvc.Service
	logger   *zap.Logger
	interval time.Duration
	enabled  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New constructs the report scheduler.
func New(svc *reportsvc.Service, cfg config.Config, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		svc:      svc,
		logger:   logger,
		interval: cfg.Report.Interval,
		enabled:  cfg.Report.Enabled,
	}
}

// Module wires the scheduler into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, s *Scheduler) {
		lc.Append(fx.Hook{
			OnStart: s.start,
			OnStop:  s.stop,
		})
	}),
)

func (s *Scheduler) start(ctx context.Context) error {
	if !s.enabled {
		s.logger.Info("report scheduler disabled")

		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(runCtx)
	}()

	s.logger.Info("report scheduler started", zap.Duration("interval", s.interval))

	return nil
}

func (s *Scheduler) stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		s.logger.Info("report scheduler stopped")

		return nil
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	rows, err := s.svc.Generate(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("order report aggregation failed", zap.Error(err))

		return
	}
	s.logger.Info("order report aggregated", zap.Int("rows", len(rows)))
}
