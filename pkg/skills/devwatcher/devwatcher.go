// Package devwatcher implements the dev-watcher skill (DEV_WATCHER
// intent): commit-activity summaries and digest nudges. devwatcher never
// calls the milestone tracker directly. It reads commit activity from its
// Store and records only the digest watermark there; it does not write
// commit activity to the memory store or anywhere the milestone skill reads.
package devwatcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/skills"
)

// Commit is a single observed repository commit.
type Commit struct {
	SHA       string
	Message   string
	Author    string
	Timestamp time.Time
}

// Store reads recent commit activity and records digest watermarks.
// Implemented by internal/store/postgres.
type Store interface {
	RecentCommits(ctx context.Context, userID string, since time.Time) ([]Commit, error)
	LastDigestAt(ctx context.Context, userID string) (time.Time, error)
	MarkDigestSent(ctx context.Context, userID string, at time.Time) error
}

// Skill implements skills.Skill for dev-watcher.
type Skill struct {
	store          Store
	log            *slog.Logger
	digestInterval time.Duration
}

// New builds a dev-watcher skill with a 24h digest cadence.
func New(store Store, log *slog.Logger) *Skill {
	if log == nil {
		log = slog.Default()
	}
	return &Skill{store: store, log: log.With("skill", "dev_watcher"), digestInterval: 24 * time.Hour}
}

// DeriveSubIntent is the keyword-parsing table for this skill.
func DeriveSubIntent(message string) string {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "digest") || strings.Contains(lower, "summary") {
		return "digest"
	}
	return "recent_activity"
}

func (s *Skill) Metadata() skills.Metadata {
	return skills.Metadata{
		Name:        "dev_watcher",
		Version:     "1.0.0",
		Permissions: []string{"repo:read"},
		Collections: []string{"commit_activity"},
		Intents:     []config.MessageIntent{config.IntentDevWatcher},
	}
}

func (s *Skill) Initialize(ctx context.Context) error { return nil }
func (s *Skill) Cleanup(ctx context.Context) error    { return nil }

func (s *Skill) Handle(ctx context.Context, req skills.Request) skills.Response {
	commits, err := s.store.RecentCommits(ctx, req.UserID, time.Now().Add(-s.digestInterval))
	if err != nil {
		s.log.Error("failed to load recent commits", "error", err, "user_id", req.UserID)
		return skills.ErrorResponse(req.ID, "could not load recent activity right now")
	}
	if len(commits) == 0 {
		return skills.OKResponse(req.ID, "no commit activity in the last day", map[string]any{"commits": commits})
	}
	return skills.OKResponse(req.ID, fmt.Sprintf("%d commits in the last day", len(commits)), map[string]any{"commits": commits})
}

// OnHeartbeat proposes a normal-priority digest once per digestInterval
// since the last one was sent, summarizing commit activity (spec.md §4.5
// priority convention: 4-6 normal for digest/prep).
func (s *Skill) OnHeartbeat(ctx context.Context, userIDs []string) ([]skills.HeartbeatAction, error) {
	var actions []skills.HeartbeatAction
	now := time.Now()
	for _, userID := range userIDs {
		lastDigest, err := s.store.LastDigestAt(ctx, userID)
		if err != nil {
			s.log.Error("failed to load last digest time", "error", err, "user_id", userID)
			continue
		}
		if now.Sub(lastDigest) < s.digestInterval {
			continue
		}
		commits, err := s.store.RecentCommits(ctx, userID, lastDigest)
		if err != nil {
			s.log.Error("failed to load recent commits", "error", err, "user_id", userID)
			continue
		}
		if len(commits) == 0 {
			continue
		}
		actions = append(actions, skills.HeartbeatAction{
			SkillName:  "dev_watcher",
			ActionType: "send_message",
			UserID:     userID,
			Priority:   5,
			Data: map[string]any{
				"text":         fmt.Sprintf("%d commits since your last update", len(commits)),
				"commit_count": len(commits),
			},
		})
		if err := s.store.MarkDigestSent(ctx, userID, now); err != nil {
			s.log.Error("failed to record digest watermark", "error", err, "user_id", userID)
		}
	}
	return actions, nil
}
