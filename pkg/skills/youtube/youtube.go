// Package youtube implements the three YouTube skills (YOUTUBE_INTELLIGENCE,
// YOUTUBE_MANAGEMENT, YOUTUBE_STRATEGY intents). Intelligence and strategy
// both read the injected Assumption Tracker (C11); management is a thin
// skill over a channel store. The three are kept separate per spec.md's
// closed MessageIntent set.
package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zetherion/assistant-core/pkg/assumptions"
	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/skills"
)

// ChannelResolver maps a user to their managed YouTube channel ID. Multiple
// skills in this package need it; defined once here.
type ChannelResolver interface {
	ChannelIDForUser(ctx context.Context, userID string) (string, error)
}

// Channel is summary metadata about a managed YouTube channel.
type Channel struct {
	ID            string
	Name          string
	SubscriberCount int
	PendingComments int
}

// ManagementStore reads channel operational state. Implemented by
// internal/store/postgres.
type ManagementStore interface {
	ChannelSummary(ctx context.Context, channelID string) (Channel, error)
	PendingModerationCount(ctx context.Context, channelID string) (int, error)
}

// IntelligenceSkill answers questions about the channel's knowledge base
// (assumptions) and proposes re-validation work on heartbeat.
type IntelligenceSkill struct {
	resolver ChannelResolver
	tracker  *assumptions.Tracker
	log      *slog.Logger
}

// NewIntelligenceSkill builds the YOUTUBE_INTELLIGENCE skill.
func NewIntelligenceSkill(resolver ChannelResolver, tracker *assumptions.Tracker, log *slog.Logger) *IntelligenceSkill {
	if log == nil {
		log = slog.Default()
	}
	return &IntelligenceSkill{resolver: resolver, tracker: tracker, log: log.With("skill", "youtube_intelligence")}
}

// DeriveIntelligenceSubIntent is the keyword-parsing table for the
// intelligence skill.
func DeriveIntelligenceSubIntent(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "missing") || strings.Contains(lower, "gap"):
		return "missing_categories"
	case strings.Contains(lower, "confirm"):
		return "confirm"
	default:
		return "high_confidence"
	}
}

func (s *IntelligenceSkill) Metadata() skills.Metadata {
	return skills.Metadata{
		Name:        "youtube_intelligence",
		Version:     "1.0.0",
		Permissions: []string{"youtube:read"},
		Collections: []string{"youtube_assumptions"},
		Intents:     []config.MessageIntent{config.IntentYouTubeIntelligence},
	}
}

func (s *IntelligenceSkill) Initialize(ctx context.Context) error { return nil }
func (s *IntelligenceSkill) Cleanup(ctx context.Context) error    { return nil }

func (s *IntelligenceSkill) Handle(ctx context.Context, req skills.Request) skills.Response {
	channelID, err := s.resolver.ChannelIDForUser(ctx, req.UserID)
	if err != nil {
		s.log.Error("failed to resolve channel", "error", err, "user_id", req.UserID)
		return skills.ErrorResponse(req.ID, "could not find your channel")
	}

	switch req.Intent {
	case "missing_categories":
		missing, err := s.tracker.GetMissingCategories(ctx, channelID)
		if err != nil {
			return skills.ErrorResponse(req.ID, "could not check your channel knowledge gaps")
		}
		if len(missing) == 0 {
			return skills.OKResponse(req.ID, "no knowledge gaps, every category is confirmed", nil)
		}
		names := make([]string, len(missing))
		for i, c := range missing {
			names[i] = string(c)
		}
		return skills.OKResponse(req.ID, "missing: "+strings.Join(names, ", "), map[string]any{"missing": names})
	case "confirm":
		assumptionID, _ := req.Context["assumption_id"].(string)
		if assumptionID == "" {
			return skills.ErrorResponse(req.ID, "confirm requires assumption_id")
		}
		a, err := s.tracker.Confirm(ctx, assumptionID)
		if err != nil {
			return skills.ErrorResponse(req.ID, "could not confirm that assumption")
		}
		return skills.OKResponse(req.ID, fmt.Sprintf("confirmed: %s", a.Statement), nil)
	default:
		high, err := s.tracker.GetHighConfidence(ctx, channelID, 0.7)
		if err != nil {
			return skills.ErrorResponse(req.ID, "could not load what I know about your channel")
		}
		if len(high) == 0 {
			return skills.OKResponse(req.ID, "no confident assumptions yet", nil)
		}
		var sb strings.Builder
		for i, a := range high {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(a.Statement)
		}
		return skills.OKResponse(req.ID, sb.String(), map[string]any{"assumptions": high})
	}
}

// OnHeartbeat proposes a low-priority re-validation nudge per stale
// assumption (spec.md §4.5 priority convention: 1-3 low for stale items).
func (s *IntelligenceSkill) OnHeartbeat(ctx context.Context, userIDs []string) ([]skills.HeartbeatAction, error) {
	stale, err := s.tracker.GetStale(ctx)
	if err != nil {
		return nil, err
	}
	var actions []skills.HeartbeatAction
	for _, userID := range userIDs {
		for _, a := range stale {
			actions = append(actions, skills.HeartbeatAction{
				SkillName:  "youtube_intelligence",
				ActionType: "update_memory",
				UserID:     userID,
				Priority:   2,
				Data: map[string]any{
					"assumption_id": a.ID,
					"statement":     a.Statement,
				},
			})
		}
	}
	return actions, nil
}

// ManagementSkill handles channel moderation/operations queries.
type ManagementSkill struct {
	resolver ChannelResolver
	store    ManagementStore
	log      *slog.Logger
}

// NewManagementSkill builds the YOUTUBE_MANAGEMENT skill.
func NewManagementSkill(resolver ChannelResolver, store ManagementStore, log *slog.Logger) *ManagementSkill {
	if log == nil {
		log = slog.Default()
	}
	return &ManagementSkill{resolver: resolver, store: store, log: log.With("skill", "youtube_management")}
}

func (s *ManagementSkill) Metadata() skills.Metadata {
	return skills.Metadata{
		Name:        "youtube_management",
		Version:     "1.0.0",
		Permissions: []string{"youtube:read", "youtube:moderate"},
		Collections: []string{"youtube_channels"},
		Intents:     []config.MessageIntent{config.IntentYouTubeManagement},
	}
}

func (s *ManagementSkill) Initialize(ctx context.Context) error { return nil }
func (s *ManagementSkill) Cleanup(ctx context.Context) error    { return nil }

func (s *ManagementSkill) Handle(ctx context.Context, req skills.Request) skills.Response {
	channelID, err := s.resolver.ChannelIDForUser(ctx, req.UserID)
	if err != nil {
		s.log.Error("failed to resolve channel", "error", err, "user_id", req.UserID)
		return skills.ErrorResponse(req.ID, "could not find your channel")
	}
	summary, err := s.store.ChannelSummary(ctx, channelID)
	if err != nil {
		s.log.Error("failed to load channel summary", "error", err, "channel_id", channelID)
		return skills.ErrorResponse(req.ID, "could not load your channel right now")
	}
	return skills.OKResponse(req.ID,
		fmt.Sprintf("%s: %d subscribers, %d comments pending review", summary.Name, summary.SubscriberCount, summary.PendingComments),
		map[string]any{"channel": summary})
}

// OnHeartbeat proposes a normal-priority nudge when moderation is piling up
// (spec.md §4.5 priority convention: 4-6 normal for prep-style work).
func (s *ManagementSkill) OnHeartbeat(ctx context.Context, userIDs []string) ([]skills.HeartbeatAction, error) {
	var actions []skills.HeartbeatAction
	for _, userID := range userIDs {
		channelID, err := s.resolver.ChannelIDForUser(ctx, userID)
		if err != nil {
			continue
		}
		pending, err := s.store.PendingModerationCount(ctx, channelID)
		if err != nil || pending == 0 {
			continue
		}
		actions = append(actions, skills.HeartbeatAction{
			SkillName:  "youtube_management",
			ActionType: "send_message",
			UserID:     userID,
			Priority:   5,
			Data:       map[string]any{"text": fmt.Sprintf("%d comments awaiting moderation", pending)},
		})
	}
	return actions, nil
}

// StrategySkill surfaces assumption-driven content/growth recommendations.
// It reads the same Assumption Tracker as IntelligenceSkill but never calls
// it directly — both go through the injected tracker to avoid a
// skill-to-skill dependency.
type StrategySkill struct {
	resolver ChannelResolver
	tracker  *assumptions.Tracker
	log      *slog.Logger
}

// NewStrategySkill builds the YOUTUBE_STRATEGY skill.
func NewStrategySkill(resolver ChannelResolver, tracker *assumptions.Tracker, log *slog.Logger) *StrategySkill {
	if log == nil {
		log = slog.Default()
	}
	return &StrategySkill{resolver: resolver, tracker: tracker, log: log.With("skill", "youtube_strategy")}
}

func (s *StrategySkill) Metadata() skills.Metadata {
	return skills.Metadata{
		Name:        "youtube_strategy",
		Version:     "1.0.0",
		Permissions: []string{"youtube:read"},
		Collections: []string{"youtube_assumptions"},
		Intents:     []config.MessageIntent{config.IntentYouTubeStrategy},
	}
}

func (s *StrategySkill) Initialize(ctx context.Context) error { return nil }
func (s *StrategySkill) Cleanup(ctx context.Context) error    { return nil }

func (s *StrategySkill) Handle(ctx context.Context, req skills.Request) skills.Response {
	channelID, err := s.resolver.ChannelIDForUser(ctx, req.UserID)
	if err != nil {
		s.log.Error("failed to resolve channel", "error", err, "user_id", req.UserID)
		return skills.ErrorResponse(req.ID, "could not find your channel")
	}
	confirmed, err := s.tracker.GetConfirmed(ctx, channelID)
	if err != nil {
		s.log.Error("failed to load confirmed assumptions", "error", err, "channel_id", channelID)
		return skills.ErrorResponse(req.ID, "could not build a strategy recommendation right now")
	}
	if len(confirmed) == 0 {
		return skills.OKResponse(req.ID, "not enough confirmed channel knowledge yet to recommend a strategy", nil)
	}
	return skills.OKResponse(req.ID,
		fmt.Sprintf("strategy grounded in %d confirmed facts about your channel", len(confirmed)),
		map[string]any{"basis": confirmed})
}

// OnHeartbeat never proposes actions: strategy recommendations are
// synchronous-only, surfaced on request.
func (s *StrategySkill) OnHeartbeat(ctx context.Context, userIDs []string) ([]skills.HeartbeatAction, error) {
	return nil, nil
}
