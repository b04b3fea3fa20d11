// Package executor implements the Action Executor (C8): the single
// dispatch point between a proposed HeartbeatAction and the concrete
// adapter (transport, memory store, scheduler) that carries it out.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/zetherion/assistant-core/pkg/queue"
	"github.com/zetherion/assistant-core/pkg/skills"
)

// ActionResult is the outcome of executing one HeartbeatAction. Mirrors
// pkg/agent.ToolResult's shape (content + error flag) rather than
// returning a Go error: a failed action is reported back to the
// scheduler's stats, never raised (spec.md §4.8: "Returns ActionResult
// (never raises to the scheduler)").
type ActionResult struct {
	Success bool
	Message string
	Error   string
}

// MessageSender delivers a user-visible message through a chat transport.
// Implemented by internal/transport/discord.
type MessageSender interface {
	SendMessage(ctx context.Context, userID, text string) error
}

// MemoryUpdater persists a memory-store write. Implemented by
// internal/memory.
type MemoryUpdater interface {
	UpdateMemory(ctx context.Context, userID string, data map[string]any) error
}

// FollowupScheduler re-enters a HeartbeatAction into the Heartbeat
// Scheduler as a ScheduledEvent. Satisfied structurally by
// *pkg/scheduler.Scheduler without an import cycle.
type FollowupScheduler interface {
	ScheduleFollowup(ctx context.Context, action skills.HeartbeatAction) (string, error)
}

// Executor is the Action Executor (C8).
type Executor struct {
	sender    MessageSender
	memory    MemoryUpdater
	followups FollowupScheduler
	log       *slog.Logger
}

// New builds an Executor. Any adapter may be nil; Execute reports a
// descriptive failure rather than panicking when the corresponding action
// type is dispatched without its adapter configured.
func New(sender MessageSender, memory MemoryUpdater, followups FollowupScheduler, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{sender: sender, memory: memory, followups: followups, log: log.With("component", "executor")}
}

// SetMessageSender attaches sender after construction. Used at startup when
// the transport adapter (e.g. internal/transport/discord) is itself built
// from a handler that wraps this Executor's owning orchestrator, making the
// two collaborators mutually dependent. Not safe to call once Execute may
// be running concurrently.
func (e *Executor) SetMessageSender(sender MessageSender) {
	e.sender = sender
}

// SetFollowupScheduler attaches followups after construction, for the same
// mutual-dependency reason as SetMessageSender: *pkg/scheduler.Scheduler
// needs a *Executor to be built, so Executor must exist first with this
// collaborator attached afterward.
func (e *Executor) SetFollowupScheduler(followups FollowupScheduler) {
	e.followups = followups
}

// Execute dispatches action by ActionType (spec.md §4.8).
func (e *Executor) Execute(ctx context.Context, action skills.HeartbeatAction) ActionResult {
	switch action.ActionType {
	case "send_message":
		return e.sendMessage(ctx, action)
	case "update_memory":
		return e.updateMemory(ctx, action)
	case "schedule_followup":
		return e.scheduleFollowup(ctx, action)
	default:
		e.log.Warn("unknown action type", "action_type", action.ActionType, "skill", action.SkillName)
		return ActionResult{Success: false, Error: "unknown action type"}
	}
}

func (e *Executor) sendMessage(ctx context.Context, action skills.HeartbeatAction) ActionResult {
	if e.sender == nil {
		return ActionResult{Success: false, Error: "no message transport configured"}
	}
	text, _ := action.Data["text"].(string)
	if err := e.sender.SendMessage(ctx, action.UserID, text); err != nil {
		e.log.Error("send_message failed", "error", err, "user_id", action.UserID)
		return ActionResult{Success: false, Error: err.Error()}
	}
	return ActionResult{Success: true, Message: "message sent"}
}

func (e *Executor) updateMemory(ctx context.Context, action skills.HeartbeatAction) ActionResult {
	if e.memory == nil {
		return ActionResult{Success: false, Error: "no memory store configured"}
	}
	if err := e.memory.UpdateMemory(ctx, action.UserID, action.Data); err != nil {
		e.log.Error("update_memory failed", "error", err, "user_id", action.UserID)
		return ActionResult{Success: false, Error: err.Error()}
	}
	return ActionResult{Success: true, Message: "memory updated"}
}

func (e *Executor) scheduleFollowup(ctx context.Context, action skills.HeartbeatAction) ActionResult {
	if e.followups == nil {
		return ActionResult{Success: false, Error: "no scheduler configured"}
	}
	id, err := e.followups.ScheduleFollowup(ctx, action)
	if err != nil {
		e.log.Error("schedule_followup failed", "error", err, "user_id", action.UserID)
		return ActionResult{Success: false, Error: err.Error()}
	}
	return ActionResult{Success: true, Message: "scheduled: " + id}
}

// QueueTaskExecutor adapts Executor to queue.TaskExecutor, so the Priority
// Queue's worker pool can drive the same dispatch a direct (non-queued)
// HeartbeatAction uses. A claimed queue.QueueTask reconstructs the
// HeartbeatAction it was enqueued from (spec.md §4.7 step 7: "enqueue
// instead of executing directly").
type QueueTaskExecutor struct {
	exec *Executor
}

// NewQueueTaskExecutor builds a QueueTaskExecutor over exec.
func NewQueueTaskExecutor(exec *Executor) *QueueTaskExecutor {
	return &QueueTaskExecutor{exec: exec}
}

// Execute implements queue.TaskExecutor.
func (q *QueueTaskExecutor) Execute(ctx context.Context, task *queue.QueueTask) error {
	result := q.exec.Execute(ctx, skills.HeartbeatAction{
		ActionType: task.TaskType,
		UserID:     strconv.FormatInt(task.UserID, 10),
		Data:       task.Payload,
	})
	if !result.Success {
		return errors.New(result.Error)
	}
	return nil
}
