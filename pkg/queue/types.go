// Package queue implements the persistent, priority-ordered work queue
// (priority queue, C9) that the heartbeat scheduler and skills enqueue
// deferred work onto.
package queue

import (
	"context"
	"errors"
	"time"
)

// Priority is one of the four priority bands a QueueTask may be enqueued
// at. Ordering is CRITICAL > HIGH > NORMAL > SCHEDULED.
type Priority int

// Priority bands, ordered low to high so int comparison matches priority order.
const (
	PriorityScheduled Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// String renders the priority band name.
func (p Priority) String() string {
	switch p {
	case PriorityScheduled:
		return "scheduled"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a QueueTask.
type Status string

// QueueTask status values.
const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusDeferred Status = "deferred"
)

// QueueTask is one unit of deferred work.
type QueueTask struct {
	ID            string
	TaskType      string
	UserID        int64
	Payload       map[string]any
	Priority      Priority
	ScheduledFor  *time.Time
	Attempts      int
	MaxAttempts   int
	Status        Status
	LastError     string
	PodID         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastHeartbeat time.Time
}

// Sentinel errors for queue operations.
var (
	// ErrNoTasksAvailable indicates no claimable tasks are in the queue right now.
	ErrNoTasksAvailable = errors.New("no tasks available")

	// ErrAtCapacity indicates this pod's concurrent-task limit
	// (MaxConcurrentTasks, counted per pod) has been reached.
	ErrAtCapacity = errors.New("at capacity")
)

// TaskExecutor executes one claimed QueueTask to completion.
//
// Implementations own the type-specific handler dispatch (by TaskType);
// the worker only handles claiming, heartbeat, retry bookkeeping, and
// terminal status update.
type TaskExecutor interface {
	Execute(ctx context.Context, task *QueueTask) error
}

// Store is the persistence contract the worker pool needs. It is
// satisfied by internal/store/postgres's task repository; kept as an
// interface here so pkg/queue has no direct database dependency.
type Store interface {
	// Enqueue inserts a new pending (or deferred, if ScheduledFor is set
	// in the future) task and returns its generated ID.
	Enqueue(ctx context.Context, task *QueueTask) (string, error)

	// ClaimNext atomically claims the highest-priority claimable task
	// (ScheduledFor <= now or nil), FIFO within a priority band at equal
	// ScheduledFor, and marks it RUNNING owned by podID. Returns
	// ErrNoTasksAvailable if nothing is claimable.
	ClaimNext(ctx context.Context, podID string) (*QueueTask, error)

	// Heartbeat refreshes the last-heartbeat timestamp of a running task,
	// used for orphan detection.
	Heartbeat(ctx context.Context, taskID string) error

	// Complete marks a task DONE.
	Complete(ctx context.Context, taskID string) error

	// Retry records a failed attempt and either reschedules the task
	// (status DEFERRED until nextAttemptAt) or, once attempts reaches
	// MaxAttempts, marks it FAILED with lastErr recorded.
	Retry(ctx context.Context, taskID string, lastErr string, nextAttemptAt time.Time) error

	// Fail marks a task terminally FAILED without further retry.
	Fail(ctx context.Context, taskID string, lastErr string) error

	// RecoverOrphans marks RUNNING tasks whose heartbeat is older than
	// threshold back to PENDING for re-claiming, returning the count
	// recovered.
	RecoverOrphans(ctx context.Context, threshold time.Duration) (int, error)

	// RecoverStartupOrphans resets any tasks this pod owns as RUNNING
	// (left over from a crash) back to PENDING. Called once at startup.
	RecoverStartupOrphans(ctx context.Context, podID string) (int, error)

	// Depth returns the count of claimable (pending/deferred, due) tasks.
	Depth(ctx context.Context) (int, error)

	// CountRunning returns the count of tasks this pod currently holds RUNNING.
	CountRunning(ctx context.Context, podID string) (int, error)
}

// PoolHealth summarizes the worker pool's health.
type PoolHealth struct {
	IsHealthy        bool           `json:"is_healthy"`
	StoreReachable   bool           `json:"store_reachable"`
	StoreError       string         `json:"store_error,omitempty"`
	PodID            string         `json:"pod_id"`
	ActiveWorkers    int            `json:"active_workers"`
	TotalWorkers     int            `json:"total_workers"`
	RunningTasks     int            `json:"running_tasks"`
	MaxConcurrent    int            `json:"max_concurrent"`
	QueueDepth       int            `json:"queue_depth"`
	WorkerStats      []WorkerHealth `json:"worker_stats"`
	LastOrphanScan   time.Time      `json:"last_orphan_scan"`
	OrphansRecovered int            `json:"orphans_recovered"`
}

// WorkerHealth summarizes a single worker's health.
type WorkerHealth struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"`
	CurrentTaskID  string    `json:"current_task_id,omitempty"`
	TasksProcessed int       `json:"tasks_processed"`
	LastActivity   time.Time `json:"last_activity"`
}
