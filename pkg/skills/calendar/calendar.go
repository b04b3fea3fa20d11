// Package calendar implements the calendar-query skill (CALENDAR_QUERY
// intent): upcoming-event lookups and deadline-imminent heartbeat nudges.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/skills"
)

// Event is a single calendar entry.
type Event struct {
	ID     string
	UserID string
	Title  string
	StartsAt time.Time
}

// Store persists and queries calendar events. Implemented by
// internal/store/postgres.
type Store interface {
	Upcoming(ctx context.Context, userID string, within time.Duration) ([]Event, error)
	ImminentDeadlines(ctx context.Context, userID string, within time.Duration) ([]Event, error)
}

// Skill implements skills.Skill for calendar queries.
type Skill struct {
	store  Store
	log    *slog.Logger
	window time.Duration // default lookahead for "what's coming up"
}

// New builds a calendar skill with a default 7-day lookahead window.
func New(store Store, log *slog.Logger) *Skill {
	if log == nil {
		log = slog.Default()
	}
	return &Skill{store: store, log: log.With("skill", "calendar"), window: 7 * 24 * time.Hour}
}

// DeriveSubIntent is the keyword-parsing table for this skill.
func DeriveSubIntent(message string) string {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "today") {
		return "today"
	}
	return "upcoming"
}

func (s *Skill) Metadata() skills.Metadata {
	return skills.Metadata{
		Name:        "calendar",
		Version:     "1.0.0",
		Permissions: []string{"calendar:read"},
		Collections: []string{"calendar_events"},
		Intents:     []config.MessageIntent{config.IntentCalendarQuery},
	}
}

func (s *Skill) Initialize(ctx context.Context) error { return nil }
func (s *Skill) Cleanup(ctx context.Context) error    { return nil }

func (s *Skill) Handle(ctx context.Context, req skills.Request) skills.Response {
	window := s.window
	if req.Intent == "today" {
		window = 24 * time.Hour
	}

	events, err := s.store.Upcoming(ctx, req.UserID, window)
	if err != nil {
		s.log.Error("failed to load upcoming events", "error", err, "user_id", req.UserID)
		return skills.ErrorResponse(req.ID, "could not load your calendar right now")
	}
	if len(events) == 0 {
		return skills.OKResponse(req.ID, "nothing on your calendar", map[string]any{"events": events})
	}

	var sb strings.Builder
	for i, e := range events {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(fmt.Sprintf("%s at %s", e.Title, e.StartsAt.Format(time.Kitchen)))
	}
	return skills.OKResponse(req.ID, sb.String(), map[string]any{"events": events})
}

// OnHeartbeat proposes a high-priority nudge per event starting within the
// next hour (spec.md §4.5 priority convention: 7-8 for deadline imminent).
func (s *Skill) OnHeartbeat(ctx context.Context, userIDs []string) ([]skills.HeartbeatAction, error) {
	var actions []skills.HeartbeatAction
	for _, userID := range userIDs {
		imminent, err := s.store.ImminentDeadlines(ctx, userID, time.Hour)
		if err != nil {
			s.log.Error("failed to check imminent deadlines", "error", err, "user_id", userID)
			continue
		}
		for _, e := range imminent {
			actions = append(actions, skills.HeartbeatAction{
				SkillName:  "calendar",
				ActionType: "send_message",
				UserID:     userID,
				Priority:   8,
				Data: map[string]any{
					"text":     fmt.Sprintf("coming up: %s at %s", e.Title, e.StartsAt.Format(time.Kitchen)),
					"event_id": e.ID,
				},
			})
		}
	}
	return actions, nil
}
