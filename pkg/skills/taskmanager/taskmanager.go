// Package taskmanager implements the task-management skill (TASK_MANAGEMENT
// intent): create, list, complete, and snooze a user's tasks.
package taskmanager

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/skills"
)

// Task is a single tracked item of work.
type Task struct {
	ID        string
	UserID    string
	Title     string
	DueAt     *time.Time
	Done      bool
	CreatedAt time.Time
}

// Store persists tasks. Implemented by internal/store/postgres.
type Store interface {
	Create(ctx context.Context, t Task) (Task, error)
	List(ctx context.Context, userID string, includeDone bool) ([]Task, error)
	Complete(ctx context.Context, userID, taskID string) error
	Snooze(ctx context.Context, userID, taskID string, until time.Time) error
	Overdue(ctx context.Context, userID string, now time.Time) ([]Task, error)
}

// Skill implements skills.Skill for task management.
type Skill struct {
	store Store
	log   *slog.Logger
}

// New builds a task manager skill.
func New(store Store, log *slog.Logger) *Skill {
	if log == nil {
		log = slog.Default()
	}
	return &Skill{store: store, log: log.With("skill", "task_manager")}
}

// DeriveSubIntent is the keyword-parsing table for this skill (spec.md
// §4.5: "add"->create_task, "list"->list_tasks).
func DeriveSubIntent(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "add") || strings.Contains(lower, "create") || strings.Contains(lower, "remind me to"):
		return "create_task"
	case strings.Contains(lower, "list") || strings.Contains(lower, "what do i"):
		return "list_tasks"
	case strings.Contains(lower, "done") || strings.Contains(lower, "complete") || strings.Contains(lower, "finished"):
		return "complete_task"
	case strings.Contains(lower, "snooze") || strings.Contains(lower, "later") || strings.Contains(lower, "postpone"):
		return "snooze_task"
	default:
		return "list_tasks"
	}
}

func (s *Skill) Metadata() skills.Metadata {
	return skills.Metadata{
		Name:        "task_manager",
		Version:     "1.0.0",
		Permissions: []string{"tasks:read", "tasks:write"},
		Collections: []string{"tasks"},
		Intents:     []config.MessageIntent{config.IntentTaskManagement},
	}
}

func (s *Skill) Initialize(ctx context.Context) error { return nil }
func (s *Skill) Cleanup(ctx context.Context) error    { return nil }

// Handle processes a task-management request, idempotent with respect to
// request.id when the caller supplies a task ID in Context (spec.md §4.5).
func (s *Skill) Handle(ctx context.Context, req skills.Request) skills.Response {
	switch req.Intent {
	case "create_task":
		return s.handleCreate(ctx, req)
	case "list_tasks", "default":
		return s.handleList(ctx, req)
	case "complete_task":
		return s.handleComplete(ctx, req)
	case "snooze_task":
		return s.handleSnooze(ctx, req)
	default:
		return skills.ErrorResponse(req.ID, fmt.Sprintf("task_manager does not handle sub-intent %q", req.Intent))
	}
}

func (s *Skill) handleCreate(ctx context.Context, req skills.Request) skills.Response {
	title := strings.TrimSpace(req.Message)
	if title == "" {
		return skills.ErrorResponse(req.ID, "task title must not be empty")
	}

	task := Task{ID: req.ID, UserID: req.UserID, Title: title, CreatedAt: time.Now()}
	if due, ok := req.Context["due_at"].(time.Time); ok {
		task.DueAt = &due
	}

	created, err := s.store.Create(ctx, task)
	if err != nil {
		s.log.Error("failed to create task", "error", err, "user_id", req.UserID)
		return skills.ErrorResponse(req.ID, "could not save your task right now")
	}
	return skills.OKResponse(req.ID, fmt.Sprintf("added: %s", created.Title), map[string]any{"task_id": created.ID})
}

func (s *Skill) handleList(ctx context.Context, req skills.Request) skills.Response {
	tasks, err := s.store.List(ctx, req.UserID, false)
	if err != nil {
		s.log.Error("failed to list tasks", "error", err, "user_id", req.UserID)
		return skills.ErrorResponse(req.ID, "could not load your tasks right now")
	}
	if len(tasks) == 0 {
		return skills.OKResponse(req.ID, "you have no open tasks", map[string]any{"tasks": tasks})
	}

	var sb strings.Builder
	for i, t := range tasks {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(t.Title)
	}
	return skills.OKResponse(req.ID, sb.String(), map[string]any{"tasks": tasks})
}

func (s *Skill) handleComplete(ctx context.Context, req skills.Request) skills.Response {
	taskID, _ := req.Context["task_id"].(string)
	if taskID == "" {
		return skills.ErrorResponse(req.ID, "which task? specify task_id")
	}
	if err := s.store.Complete(ctx, req.UserID, taskID); err != nil {
		s.log.Error("failed to complete task", "error", err, "user_id", req.UserID, "task_id", taskID)
		return skills.ErrorResponse(req.ID, "could not mark that task done")
	}
	return skills.OKResponse(req.ID, "marked done", nil)
}

func (s *Skill) handleSnooze(ctx context.Context, req skills.Request) skills.Response {
	taskID, _ := req.Context["task_id"].(string)
	until, ok := req.Context["until"].(time.Time)
	if taskID == "" || !ok {
		return skills.ErrorResponse(req.ID, "snooze requires task_id and until")
	}
	if err := s.store.Snooze(ctx, req.UserID, taskID, until); err != nil {
		s.log.Error("failed to snooze task", "error", err, "user_id", req.UserID, "task_id", taskID)
		return skills.ErrorResponse(req.ID, "could not snooze that task")
	}
	return skills.OKResponse(req.ID, fmt.Sprintf("snoozed until %s", until.Format(time.RFC3339)), nil)
}

// OnHeartbeat proposes a critical-priority action per overdue task, per
// user (spec.md §4.5 priority convention: 9-10 for overdue/urgent).
func (s *Skill) OnHeartbeat(ctx context.Context, userIDs []string) ([]skills.HeartbeatAction, error) {
	var actions []skills.HeartbeatAction
	now := time.Now()
	for _, userID := range userIDs {
		overdue, err := s.store.Overdue(ctx, userID, now)
		if err != nil {
			s.log.Error("failed to check overdue tasks", "error", err, "user_id", userID)
			continue
		}
		for _, t := range overdue {
			actions = append(actions, skills.HeartbeatAction{
				SkillName:  "task_manager",
				ActionType: "send_message",
				UserID:     userID,
				Priority:   9,
				Data: map[string]any{
					"text":    fmt.Sprintf("overdue: %s", t.Title),
					"task_id": t.ID,
				},
			})
		}
	}
	return actions, nil
}
