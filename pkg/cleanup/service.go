// Package cleanup provides the background data retention sweep.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/zetherion/assistant-core/pkg/config"
)

// CostPurger removes cost records (C4) past their retention window.
// Implemented by internal/store/postgres.CostStore.
type CostPurger interface {
	PurgeOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

// TaskPurger removes terminal (done/failed) queue tasks (C9) past their
// retention window. Implemented by internal/store/postgres.QueueStore.
type TaskPurger interface {
	PurgeTerminalOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// Service periodically enforces retention policies:
//   - Deletes cost records older than CostRecordRetentionDays
//   - Deletes done/failed queue tasks older than TerminalTaskRetention
//
// Both operations are idempotent and safe to run from multiple pods.
type Service struct {
	cfg        *config.RetentionConfig
	costStore  CostPurger
	queueStore TaskPurger
	log        *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService builds a Service from cfg. A nil cfg falls back to
// config.DefaultRetentionConfig.
func NewService(cfg *config.RetentionConfig, costStore CostPurger, queueStore TaskPurger, log *slog.Logger) *Service {
	if cfg == nil {
		cfg = config.DefaultRetentionConfig()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{cfg: cfg, costStore: costStore, queueStore: queueStore, log: log.With("component", "cleanup")}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	s.log.Info("retention sweep started",
		"cost_record_retention_days", s.cfg.CostRecordRetentionDays,
		"terminal_task_retention", s.cfg.TerminalTaskRetention,
		"interval", s.cfg.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.log.Info("retention sweep stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.purgeCostRecords(ctx)
	s.purgeTerminalTasks(ctx)
}

func (s *Service) purgeCostRecords(ctx context.Context) {
	n, err := s.costStore.PurgeOlderThan(ctx, s.cfg.CostRecordRetentionDays)
	if err != nil {
		s.log.Error("purge cost records failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("purged old cost records", "count", n)
	}
}

func (s *Service) purgeTerminalTasks(ctx context.Context) {
	n, err := s.queueStore.PurgeTerminalOlderThan(ctx, s.cfg.TerminalTaskRetention)
	if err != nil {
		s.log.Error("purge terminal queue tasks failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("purged terminal queue tasks", "count", n)
	}
}
