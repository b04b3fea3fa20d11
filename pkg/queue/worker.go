package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WorkerStatus represents the current state of a worker.
type WorkerStatus string

// Worker status constants.
const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// Config controls worker-pool and retry behavior for the priority queue.
type Config struct {
	WorkerCount             int
	MaxConcurrentTasks      int
	PollInterval            time.Duration
	PollIntervalJitter      time.Duration
	TaskTimeout             time.Duration
	GracefulShutdownTimeout time.Duration
	OrphanDetectionInterval time.Duration
	OrphanThreshold         time.Duration
	HeartbeatInterval       time.Duration

	// RetryBaseDelay, RetryMaxDelay, and RetryMaxAttempts parameterize the
	// exponential backoff applied by Retry (spec.md C9: delay = base * 2^attempts,
	// capped, max N attempts).
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RetryMaxAttempts int
}

// Worker is a single queue worker that polls for and processes tasks.
type Worker struct {
	id           string
	podID        string
	store        Store
	config       *Config
	taskExecutor TaskExecutor
	pool         *WorkerPool
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup

	// Health tracking
	mu             sync.RWMutex
	status         WorkerStatus
	currentTaskID  string
	tasksProcessed int
	lastActivity   time.Time
}

// NewWorker creates a new queue worker.
func NewWorker(id, podID string, store Store, cfg *Config, executor TaskExecutor, pool *WorkerPool) *Worker {
	return &Worker{
		id:           id,
		podID:        podID,
		store:        store,
		config:       cfg,
		taskExecutor: executor,
		pool:         pool,
		stopCh:       make(chan struct{}),
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish.
// It is safe to call Stop multiple times.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health returns the current worker health status.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:             w.id,
		Status:         string(w.status),
		CurrentTaskID:  w.currentTaskID,
		TasksProcessed: w.tasksProcessed,
		LastActivity:   w.lastActivity,
	}
}

// run is the main worker loop.
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id, "pod_id", w.podID)
	log.Info("worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoTasksAvailable) || errors.Is(err, ErrAtCapacity) {
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("error processing task", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

// sleep waits for the given duration or until stop is signalled.
func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// pollAndProcess checks capacity, claims a task, and processes it.
func (w *Worker) pollAndProcess(ctx context.Context) error {
	running, err := w.store.CountRunning(ctx, w.podID)
	if err != nil {
		return fmt.Errorf("checking running tasks: %w", err)
	}
	if running >= w.config.MaxConcurrentTasks {
		return ErrAtCapacity
	}

	task, err := w.store.ClaimNext(ctx, w.podID)
	if err != nil {
		return err
	}

	log := slog.With("task_id", task.ID, "task_type", task.TaskType, "worker_id", w.id)
	log.Info("task claimed")

	w.setStatus(WorkerStatusWorking, task.ID)
	defer w.setStatus(WorkerStatusIdle, "")

	taskCtx, cancelTask := context.WithTimeout(ctx, w.config.TaskTimeout)
	defer cancelTask()

	w.pool.RegisterTask(task.ID, cancelTask)
	defer w.pool.UnregisterTask(task.ID)

	heartbeatCtx, cancelHeartbeat := context.WithCancel(taskCtx)
	defer cancelHeartbeat()
	go w.runHeartbeat(heartbeatCtx, task.ID)

	execErr := w.taskExecutor.Execute(taskCtx, task)
	cancelHeartbeat()

	if execErr == nil {
		if err := w.store.Complete(context.Background(), task.ID); err != nil {
			log.Error("failed to mark task done", "error", err)
			return err
		}
		w.mu.Lock()
		w.tasksProcessed++
		w.mu.Unlock()
		log.Info("task complete")
		return nil
	}

	return w.handleFailure(context.Background(), task, execErr, log)
}

// handleFailure applies the exponential-backoff retry policy (spec.md C9:
// delay = base * 2^attempts up to a cap, max N attempts; after max,
// status=FAILED and last_error recorded).
func (w *Worker) handleFailure(ctx context.Context, task *QueueTask, execErr error, log *slog.Logger) error {
	attempts := task.Attempts + 1
	if attempts >= w.config.RetryMaxAttempts {
		log.Error("task reached max attempts, marking failed", "attempts", attempts, "error", execErr)
		if err := w.store.Fail(ctx, task.ID, execErr.Error()); err != nil {
			return err
		}
		w.mu.Lock()
		w.tasksProcessed++
		w.mu.Unlock()
		return nil
	}

	delay := w.backoffDelay(attempts)
	log.Warn("task failed, scheduling retry", "attempts", attempts, "delay", delay, "error", execErr)
	if err := w.store.Retry(ctx, task.ID, execErr.Error(), time.Now().Add(delay)); err != nil {
		return err
	}
	w.mu.Lock()
	w.tasksProcessed++
	w.mu.Unlock()
	return nil
}

// backoffDelay computes base * 2^(attempts-1) capped at RetryMaxDelay, so
// the retry after the first failed attempt waits exactly base.
func (w *Worker) backoffDelay(attempts int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.config.RetryBaseDelay
	b.MaxInterval = w.config.RetryMaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0

	d := b.InitialInterval
	for i := 1; i < attempts; i++ {
		d *= 2
		if d > b.MaxInterval {
			d = b.MaxInterval
			break
		}
	}
	return d
}

// runHeartbeat periodically refreshes last-heartbeat for orphan detection.
func (w *Worker) runHeartbeat(ctx context.Context, taskID string) {
	ticker := time.NewTicker(w.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.Heartbeat(ctx, taskID); err != nil {
				slog.Warn("heartbeat update failed", "task_id", taskID, "error", err)
			}
		}
	}
}

// pollInterval returns the poll duration with jitter.
func (w *Worker) pollInterval() time.Duration {
	base := w.config.PollInterval
	jitter := w.config.PollIntervalJitter
	if jitter <= 0 {
		return base
	}
	// Range: [base - jitter, base + jitter]
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

// setStatus updates the worker's health tracking state.
func (w *Worker) setStatus(status WorkerStatus, taskID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentTaskID = taskID
	w.lastActivity = time.Now()
}
