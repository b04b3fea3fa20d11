// Package profile implements the profile-query and personal-model skill
// (PROFILE_QUERY, PERSONAL_MODEL intents): read access over the personal
// understanding the (out-of-core) profile-extraction pipeline has already
// written. This skill only queries; it never runs extraction itself.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/skills"
)

// Fact is one piece of extracted personal understanding.
type Fact struct {
	Category string // e.g. "contact", "policy", "learning"
	Text     string
	Confidence float64
}

// Store queries previously-extracted personal understanding. Implemented
// by internal/store/postgres.
type Store interface {
	FactsByCategory(ctx context.Context, userID, category string) ([]Fact, error)
	AllFacts(ctx context.Context, userID string) ([]Fact, error)
}

// Skill implements skills.Skill for profile/personal-model queries.
type Skill struct {
	store Store
	log   *slog.Logger
}

// New builds a profile query skill.
func New(store Store, log *slog.Logger) *Skill {
	if log == nil {
		log = slog.Default()
	}
	return &Skill{store: store, log: log.With("skill", "profile")}
}

// DeriveSubIntent is the keyword-parsing table for this skill.
func DeriveSubIntent(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "contact"):
		return "query_contacts"
	case strings.Contains(lower, "policy") || strings.Contains(lower, "preference"):
		return "query_policies"
	case strings.Contains(lower, "learn"):
		return "query_learnings"
	default:
		return "query_all"
	}
}

func (s *Skill) Metadata() skills.Metadata {
	return skills.Metadata{
		Name:        "profile",
		Version:     "1.0.0",
		Permissions: []string{"profile:read"},
		Collections: []string{"personal_understanding"},
		Intents:     []config.MessageIntent{config.IntentProfileQuery, config.IntentPersonalModel},
	}
}

func (s *Skill) Initialize(ctx context.Context) error { return nil }
func (s *Skill) Cleanup(ctx context.Context) error    { return nil }

var subIntentCategory = map[string]string{
	"query_contacts":  "contact",
	"query_policies":  "policy",
	"query_learnings": "learning",
}

func (s *Skill) Handle(ctx context.Context, req skills.Request) skills.Response {
	category, scoped := subIntentCategory[req.Intent]

	var facts []Fact
	var err error
	if scoped {
		facts, err = s.store.FactsByCategory(ctx, req.UserID, category)
	} else {
		facts, err = s.store.AllFacts(ctx, req.UserID)
	}
	if err != nil {
		s.log.Error("failed to load profile facts", "error", err, "user_id", req.UserID)
		return skills.ErrorResponse(req.ID, "could not load what I know about you right now")
	}
	if len(facts) == 0 {
		return skills.OKResponse(req.ID, "I don't have anything recorded there yet", map[string]any{"facts": facts})
	}

	var sb strings.Builder
	for i, f := range facts {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(f.Text)
	}
	return skills.OKResponse(req.ID, sb.String(), map[string]any{"facts": facts})
}

// OnHeartbeat never proposes actions: profile is a pure read skill.
func (s *Skill) OnHeartbeat(ctx context.Context, userIDs []string) ([]skills.HeartbeatAction, error) {
	return nil, nil
}

// SystemPromptFragment surfaces a one-line summary of what the assistant
// knows about the user, for the router/broker's system prompt.
func (s *Skill) SystemPromptFragment(ctx context.Context, userID string) (string, bool) {
	facts, err := s.store.AllFacts(ctx, userID)
	if err != nil || len(facts) == 0 {
		return "", false
	}
	return fmt.Sprintf("known facts about the user: %d recorded", len(facts)), true
}
