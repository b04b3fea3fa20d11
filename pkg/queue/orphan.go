package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// orphanState tracks orphan detection metrics (thread-safe).
type orphanState struct {
	mu               sync.Mutex
	lastOrphanScan   time.Time
	orphansRecovered int
}

// runOrphanDetection periodically scans for tasks left RUNNING by a pod
// that died without completing them or updating their heartbeat.
// All pods run this independently — Store.RecoverOrphans is idempotent.
func (p *WorkerPool) runOrphanDetection(ctx context.Context) {
	ticker := time.NewTicker(p.config.OrphanDetectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.detectAndRecoverOrphans(ctx); err != nil {
				slog.Error("orphan detection failed", "error", err)
			}
		}
	}
}

// detectAndRecoverOrphans finds RUNNING tasks with stale heartbeats and
// returns them to PENDING so another worker can claim them.
func (p *WorkerPool) detectAndRecoverOrphans(ctx context.Context) error {
	recovered, err := p.store.RecoverOrphans(ctx, p.config.OrphanThreshold)
	if err != nil {
		return err
	}

	p.orphans.mu.Lock()
	p.orphans.lastOrphanScan = time.Now()
	p.orphans.orphansRecovered += recovered
	p.orphans.mu.Unlock()

	if recovered > 0 {
		slog.Warn("recovered orphaned tasks", "count", recovered)
	}
	return nil
}

// CleanupStartupOrphans performs a one-time cleanup of tasks owned by this
// pod that were RUNNING when the pod previously crashed. Called once during
// startup, before the worker pool begins processing.
func CleanupStartupOrphans(ctx context.Context, store Store, podID string) error {
	recovered, err := store.RecoverStartupOrphans(ctx, podID)
	if err != nil {
		return err
	}
	if recovered > 0 {
		slog.Warn("recovered startup orphans from previous run", "pod_id", podID, "count", recovered)
	}
	return nil
}
