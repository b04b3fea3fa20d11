// Package skills implements the Skill Contract & Registry (C5): the
// abstract capability every domain skill (task manager, calendar,
// dev-watcher, milestone tracker, profile, YouTube intelligence/management/
// strategy) implements, and the registry that loads, initializes, and
// routes requests to them by intent.
package skills

import (
	"context"

	"github.com/zetherion/assistant-core/pkg/config"
)

// Metadata describes a skill's identity and the intents it owns.
type Metadata struct {
	Name        string
	Version     string
	Permissions []string
	Collections []string // memory-store collections this skill reads/writes
	Intents     []config.MessageIntent
}

// Request is the synchronous skill invocation contract (spec.md §3).
type Request struct {
	ID      string
	UserID  string
	Intent  string // sub-intent derived by the orchestrator, e.g. "create_task"
	Message string
	Context map[string]any
}

// Response is the synchronous skill reply contract (spec.md §3).
type Response struct {
	RequestID string
	Success   bool
	Message   string
	Data      map[string]any
	Error     string
}

// ErrorResponse builds a failure Response for requestID. Skills must return
// this rather than raising on any recoverable failure (spec.md §4.5).
func ErrorResponse(requestID, msg string) Response {
	return Response{RequestID: requestID, Success: false, Error: msg}
}

// OKResponse builds a success Response carrying message and optional data.
func OKResponse(requestID, message string, data map[string]any) Response {
	return Response{RequestID: requestID, Success: true, Message: message, Data: data}
}

// HeartbeatAction is one proposed autonomous action a skill emits from
// on_heartbeat (spec.md §3). Priority conventions: 9-10 critical, 7-8 high,
// 4-6 normal, 1-3 low; these are ordering hints only, not guarantees.
type HeartbeatAction struct {
	SkillName  string
	ActionType string
	UserID     string
	Data       map[string]any
	Priority   int
}

// Skill is the capability set every domain skill implements (spec.md §3).
// Invariant: a skill handles exactly the intents it declares in Metadata.
type Skill interface {
	Metadata() Metadata

	// Initialize prepares the skill (opening store connections, warming
	// caches). Called once at registry startup.
	Initialize(ctx context.Context) error

	// Handle processes a synchronous request. Must be idempotent with
	// respect to its own persisted state when the same Request.ID is
	// replayed, and must return ErrorResponse rather than an error for any
	// recoverable failure. Must never call the inference broker directly
	// for task-type routing decisions it owns.
	Handle(ctx context.Context, req Request) Response

	// OnHeartbeat proposes 0..n actions for the given users. Called once
	// per scheduler beat.
	OnHeartbeat(ctx context.Context, userIDs []string) ([]HeartbeatAction, error)

	// Cleanup releases resources. Called once at registry shutdown.
	Cleanup(ctx context.Context) error
}

// PromptFragmentSkill is an optional extension: a skill that contributes a
// system-prompt fragment for the given user (e.g. "the user has 3 overdue
// tasks"). Not every skill implements this.
type PromptFragmentSkill interface {
	SystemPromptFragment(ctx context.Context, userID string) (string, bool)
}
