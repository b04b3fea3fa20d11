// Package milestone implements the milestone-management skill
// (MILESTONE_MANAGEMENT intent): detecting and surfacing project
// milestones. This skill never calls dev_watcher directly. It reads
// pending milestones from its Store (the Postgres milestones table);
// nothing in this module detects milestones from commit activity or
// writes that table.
package milestone

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/skills"
)

// Milestone is a detected project milestone (e.g. "v1.0 shipped").
type Milestone struct {
	ID          string
	UserID      string
	Title       string
	DetectedAt  time.Time
	Acknowledged bool
}

// Store persists and queries milestones. Implemented by
// internal/store/postgres.
type Store interface {
	Pending(ctx context.Context, userID string) ([]Milestone, error)
	Acknowledge(ctx context.Context, userID, milestoneID string) error
}

// Skill implements skills.Skill for milestone management.
type Skill struct {
	store Store
	log   *slog.Logger
}

// New builds a milestone tracking skill.
func New(store Store, log *slog.Logger) *Skill {
	if log == nil {
		log = slog.Default()
	}
	return &Skill{store: store, log: log.With("skill", "milestone")}
}

// DeriveSubIntent is the keyword-parsing table for this skill.
func DeriveSubIntent(message string) string {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "ack") || strings.Contains(lower, "dismiss") {
		return "acknowledge"
	}
	return "list_pending"
}

func (s *Skill) Metadata() skills.Metadata {
	return skills.Metadata{
		Name:        "milestone",
		Version:     "1.0.0",
		Permissions: []string{"milestones:read", "milestones:write"},
		Collections: []string{"milestones"},
		Intents:     []config.MessageIntent{config.IntentMilestoneManagement},
	}
}

func (s *Skill) Initialize(ctx context.Context) error { return nil }
func (s *Skill) Cleanup(ctx context.Context) error    { return nil }

func (s *Skill) Handle(ctx context.Context, req skills.Request) skills.Response {
	switch req.Intent {
	case "acknowledge":
		milestoneID, _ := req.Context["milestone_id"].(string)
		if milestoneID == "" {
			return skills.ErrorResponse(req.ID, "acknowledge requires milestone_id")
		}
		if err := s.store.Acknowledge(ctx, req.UserID, milestoneID); err != nil {
			s.log.Error("failed to acknowledge milestone", "error", err, "user_id", req.UserID)
			return skills.ErrorResponse(req.ID, "could not acknowledge that milestone")
		}
		return skills.OKResponse(req.ID, "acknowledged", nil)
	default:
		pending, err := s.store.Pending(ctx, req.UserID)
		if err != nil {
			s.log.Error("failed to load pending milestones", "error", err, "user_id", req.UserID)
			return skills.ErrorResponse(req.ID, "could not load milestones right now")
		}
		if len(pending) == 0 {
			return skills.OKResponse(req.ID, "no new milestones detected", map[string]any{"milestones": pending})
		}
		var sb strings.Builder
		for i, m := range pending {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(m.Title)
		}
		return skills.OKResponse(req.ID, sb.String(), map[string]any{"milestones": pending})
	}
}

// OnHeartbeat proposes a normal-priority nudge per unacknowledged milestone
// (spec.md §4.5 priority convention: 4-6 normal for digest/prep).
func (s *Skill) OnHeartbeat(ctx context.Context, userIDs []string) ([]skills.HeartbeatAction, error) {
	var actions []skills.HeartbeatAction
	for _, userID := range userIDs {
		pending, err := s.store.Pending(ctx, userID)
		if err != nil {
			s.log.Error("failed to load pending milestones", "error", err, "user_id", userID)
			continue
		}
		for _, m := range pending {
			actions = append(actions, skills.HeartbeatAction{
				SkillName:  "milestone",
				ActionType: "send_message",
				UserID:     userID,
				Priority:   6,
				Data: map[string]any{
					"text":         fmt.Sprintf("milestone reached: %s", m.Title),
					"milestone_id": m.ID,
				},
			})
		}
	}
	return actions, nil
}
