package trust

import (
	"context"
	"log/slog"

	"github.com/zetherion/assistant-core/pkg/config"
)

// defaultCategory is the fallback bucket used when a category has no
// dedicated entry in TrustConfig.Categories, matching the skill
// registry's generic-fallback-routing philosophy (pkg/skills/registry.go)
// rather than erroring on an unconfigured category.
const defaultCategory = "general"

// Tracker is the Trust Model (C6).
type Tracker struct {
	store Store
	cache *cache
	cfg   *config.TrustConfig
	log   *slog.Logger
}

// New builds a Tracker backed by store, using cfg for per-category
// promotion/demotion thresholds and auto-approval gates.
func New(store Store, cfg *config.TrustConfig, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultTrustConfig()
	}
	return &Tracker{store: store, cache: newCache(), cfg: cfg, log: log.With("component", "trust")}
}

func (t *Tracker) categoryConfig(category string) config.TrustCategoryConfig {
	if c, ok := t.cfg.Categories[category]; ok {
		return c
	}
	if c, ok := t.cfg.Categories[defaultCategory]; ok {
		return c
	}
	return config.TrustCategoryConfig{MinAutoLevel: config.TrustTrusted}
}

func (t *Tracker) getState(ctx context.Context, userID, category string) (State, error) {
	if s, ok := t.cache.get(userID, category); ok {
		return s, nil
	}
	s, found, err := t.store.Get(ctx, userID, category)
	if err != nil {
		return State{}, err
	}
	if !found {
		s = State{UserID: userID, Category: category, Level: config.TrustNew}
	}
	t.cache.set(s)
	return s, nil
}

// RecordApproval records an approved interaction and recomputes the level
// upward if thresholds are met (spec.md §4.6: "approvals++; total++; then
// recompute level"). Monotonic within a run absent an intervening
// rejection — promotion never lowers the level.
func (t *Tracker) RecordApproval(ctx context.Context, userID, category string) (State, error) {
	return t.recordOutcome(ctx, userID, category, OutcomeApproval)
}

// RecordRejection records a rejected interaction and demotes by one level
// if rejections within the configured window exceed the category's
// MaxRejectionsInWindow (spec.md §4.6).
func (t *Tracker) RecordRejection(ctx context.Context, userID, category string) (State, error) {
	return t.recordOutcome(ctx, userID, category, OutcomeRejection)
}

// RecordEdit records an edited (neither cleanly approved nor rejected)
// interaction. Edits count toward total_interactions but not approvals,
// so they dilute the approval rate without directly triggering demotion.
func (t *Tracker) RecordEdit(ctx context.Context, userID, category string) (State, error) {
	return t.recordOutcome(ctx, userID, category, OutcomeEdit)
}

func (t *Tracker) recordOutcome(ctx context.Context, userID, category string, o Outcome) (State, error) {
	state, err := t.getState(ctx, userID, category)
	if err != nil {
		return State{}, err
	}
	cfg := t.categoryConfig(category)

	switch o {
	case OutcomeApproval:
		state.Approvals++
	case OutcomeRejection:
		state.Rejections++
	case OutcomeEdit:
		state.Edits++
	}
	state.TotalInteractions++
	state.History = appendBounded(state.History, o, cfg.DemotionWindow)

	switch o {
	case OutcomeApproval:
		state.Level = promote(state.Level, state, cfg)
	case OutcomeRejection:
		if cfg.MaxRejectionsInWindow > 0 && state.rejectionsInWindow() > cfg.MaxRejectionsInWindow {
			state.Level = demote(state.Level)
			t.log.Info("trust level demoted", "user_id", userID, "category", category, "level", state.Level.String())
		}
	}

	if err := t.store.Save(ctx, state); err != nil {
		return State{}, err
	}
	t.cache.invalidate(userID, category)
	return state, nil
}

// appendBounded appends o to history, trimming to the last window entries
// (window <= 0 means unbounded).
func appendBounded(history []Outcome, o Outcome, window int) []Outcome {
	history = append(history, o)
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}
	return history
}

// promote walks the level upward one step at a time while the next
// level's promotion threshold and minimum interaction total are both met
// (spec.md §4.6: "level advances when approval_rate >= threshold[level]
// AND total >= min_total[level]").
func promote(current config.TrustLevel, state State, cfg config.TrustCategoryConfig) config.TrustLevel {
	level := current
	for level < config.TrustTrusted {
		next := level + 1
		threshold, hasThreshold := cfg.PromotionThreshold[next.String()]
		if !hasThreshold {
			break
		}
		minTotal := cfg.MinTotal[next.String()]
		if state.approvalRate() >= threshold && state.TotalInteractions >= minTotal {
			level = next
			continue
		}
		break
	}
	return level
}

// demote drops one level, floored at NEW.
func demote(level config.TrustLevel) config.TrustLevel {
	if level > config.TrustNew {
		return level - 1
	}
	return level
}

// ShouldAutoApprove reports whether category's current level for userID
// clears the category's MinAutoLevel gate. A category with
// NeverAutoApprove never auto-approves regardless of level (spec.md §4.6
// SPAM example).
func (t *Tracker) ShouldAutoApprove(ctx context.Context, userID, category string) (bool, error) {
	cfg := t.categoryConfig(category)
	if cfg.NeverAutoApprove {
		return false, nil
	}
	state, err := t.getState(ctx, userID, category)
	if err != nil {
		return false, err
	}
	return state.Level >= cfg.MinAutoLevel, nil
}

// AutoCategories and ReviewCategories partition categories into the sets
// that currently auto-approve vs require review for userID (spec.md §4.6:
// "derived sets from the current level").
func (t *Tracker) AutoCategories(ctx context.Context, userID string, categories []string) ([]string, error) {
	return t.partition(ctx, userID, categories, true)
}

func (t *Tracker) ReviewCategories(ctx context.Context, userID string, categories []string) ([]string, error) {
	return t.partition(ctx, userID, categories, false)
}

func (t *Tracker) partition(ctx context.Context, userID string, categories []string, wantAuto bool) ([]string, error) {
	var out []string
	for _, category := range categories {
		auto, err := t.ShouldAutoApprove(ctx, userID, category)
		if err != nil {
			return nil, err
		}
		if auto == wantAuto {
			out = append(out, category)
		}
	}
	return out, nil
}

// Level returns the current trust level for (userID, category), NEW if no
// state has been recorded yet.
func (t *Tracker) Level(ctx context.Context, userID, category string) (config.TrustLevel, error) {
	state, err := t.getState(ctx, userID, category)
	if err != nil {
		return config.TrustNew, err
	}
	return state.Level, nil
}
