package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zetherion/assistant-core/pkg/queue"
)

// QueueStore implements queue.Store (C9) against queue_tasks.
type QueueStore struct {
	pool *pgxpool.Pool
}

// NewQueueStore builds a QueueStore over pool.
func NewQueueStore(pool *pgxpool.Pool) *QueueStore {
	return &QueueStore{pool: pool}
}

func (s *QueueStore) Enqueue(ctx context.Context, t *queue.QueueTask) (string, error) {
	payload, err := json.Marshal(t.Payload)
	if err != nil {
		return "", err
	}
	status := queue.StatusPending
	if t.ScheduledFor != nil && t.ScheduledFor.After(time.Now()) {
		status = queue.StatusDeferred
	}

	var id string
	err = s.pool.QueryRow(ctx, `
		INSERT INTO queue_tasks (id, task_type, user_id, payload, priority, scheduled_for, max_attempts, status)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		t.TaskType, t.UserID, payload, int(t.Priority), t.ScheduledFor, maxAttemptsOrDefault(t.MaxAttempts), status,
	).Scan(&id)
	return id, err
}

func maxAttemptsOrDefault(n int) int {
	if n <= 0 {
		return 3
	}
	return n
}

// ClaimNext atomically claims the highest-priority claimable task (FIFO
// within a priority band) using SELECT ... FOR UPDATE SKIP LOCKED, so
// concurrent pods never contend on the same row.
func (s *QueueStore) ClaimNext(ctx context.Context, podID string) (*queue.QueueTask, error) {
	var t queue.QueueTask
	var payload []byte
	var status string
	var priority int

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		SELECT id, task_type, user_id, payload, priority, scheduled_for, attempts, max_attempts, status, last_error, created_at, updated_at
		FROM queue_tasks
		WHERE status IN ('pending', 'deferred') AND (scheduled_for IS NULL OR scheduled_for <= now())
		ORDER BY priority DESC, scheduled_for NULLS FIRST, created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1`,
	).Scan(&t.ID, &t.TaskType, &t.UserID, &payload, &priority, &t.ScheduledFor, &t.Attempts, &t.MaxAttempts, &status, &t.LastError, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, queue.ErrNoTasksAvailable
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(payload, &t.Payload); err != nil {
		return nil, err
	}
	t.Priority = queue.Priority(priority)
	t.Status = queue.StatusRunning
	t.PodID = podID

	now := time.Now()
	if _, err := tx.Exec(ctx, `
		UPDATE queue_tasks SET status = 'running', pod_id = $1, last_heartbeat = $2, updated_at = $2
		WHERE id = $3`, podID, now, t.ID); err != nil {
		return nil, err
	}
	t.LastHeartbeat = now

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *QueueStore) Heartbeat(ctx context.Context, taskID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE queue_tasks SET last_heartbeat = now() WHERE id = $1`, taskID)
	return err
}

func (s *QueueStore) Complete(ctx context.Context, taskID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE queue_tasks SET status = 'done', updated_at = now() WHERE id = $1`, taskID)
	return err
}

func (s *QueueStore) Retry(ctx context.Context, taskID string, lastErr string, nextAttemptAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_tasks
		SET attempts = attempts + 1,
		    last_error = $2,
		    status = CASE WHEN attempts + 1 >= max_attempts THEN 'failed' ELSE 'deferred' END,
		    scheduled_for = CASE WHEN attempts + 1 >= max_attempts THEN scheduled_for ELSE $3 END,
		    updated_at = now()
		WHERE id = $1`, taskID, lastErr, nextAttemptAt)
	return err
}

func (s *QueueStore) Fail(ctx context.Context, taskID string, lastErr string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_tasks SET status = 'failed', last_error = $2, updated_at = now() WHERE id = $1`, taskID, lastErr)
	return err
}

func (s *QueueStore) RecoverOrphans(ctx context.Context, threshold time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE queue_tasks
		SET status = 'pending', pod_id = '', updated_at = now()
		WHERE status = 'running' AND last_heartbeat < $1`, time.Now().Add(-threshold))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *QueueStore) RecoverStartupOrphans(ctx context.Context, podID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE queue_tasks
		SET status = 'pending', pod_id = '', updated_at = now()
		WHERE status = 'running' AND pod_id = $1`, podID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *QueueStore) Depth(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM queue_tasks
		WHERE status IN ('pending', 'deferred') AND (scheduled_for IS NULL OR scheduled_for <= now())`,
	).Scan(&n)
	return n, err
}

func (s *QueueStore) CountRunning(ctx context.Context, podID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM queue_tasks WHERE status = 'running' AND pod_id = $1`, podID).Scan(&n)
	return n, err
}

// PurgeTerminalOlderThan deletes done/failed tasks last updated before
// now-age, returning the number of rows removed. Backs the retention
// sweep (pkg/cleanup).
func (s *QueueStore) PurgeTerminalOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM queue_tasks
		WHERE status IN ('done', 'failed') AND updated_at < $1`, time.Now().Add(-age))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
