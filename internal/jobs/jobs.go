package jobs

import (
	"context"
	"fmt"
	"time"

	"farm-to-keells/internal/logger"
	"farm-to-keells/internal/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	reconcileTimeout = 2 * time.Minute

	ReconciledCounter = "orders_reconciled"
	ReconcileRuns     = "reconcile_runs"
)

// Reconciler repairs orders that were stored without their farmer notification.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// Scheduler runs background maintenance on cron schedules.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	l := cronLogger{log: logger.L().With(zap.String("layer", "jobs"))}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
	}
}

// AddReconcile registers r on spec ("@every 5m", "*/10 * * * *", ...).
func (s *Scheduler) AddReconcile(spec string, r Reconciler) error {
	if _, err := s.cron.AddFunc(spec, func() { RunReconcile(context.Background(), r) }); err != nil {
		return fmt.Errorf("schedule reconcile %q: %w", spec, err)
	}
	return nil
}

// RunReconcile is one reconciliation pass.
func RunReconcile(ctx context.Context, r Reconciler) int {
	ctx, cancel := context.WithTimeout(ctx, reconcileTimeout)
	defer cancel()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "jobs"),
		zap.String("method", "RunReconcile"),
	)

	timer := metrics.StartTimer()
	n, err := r.Reconcile(ctx)
	metrics.Default.Counter(ReconcileRuns).Inc()
	if n > 0 {
		metrics.Default.Counter(ReconciledCounter).Add(uint64(n))
	}

	if err != nil {
		log.Error("reconcile finished with errors",
			zap.Int("repaired", n),
			zap.Duration("took", timer.Duration()),
			zap.Error(err),
		)
		return n
	}
	if n > 0 {
		log.Info("reconciled orders missing notifications", zap.Int("repaired", n), zap.Duration("took", timer.Duration()))
	}
	return n
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		logger.L().Warn("scheduler stop timed out")
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
