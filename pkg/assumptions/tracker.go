package assumptions

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrDuplicateActive is returned by AddConfirmed/AddInferred when an active
// (non-invalidated) assumption already exists for the same
// (channel, category, statement) triple (spec.md §4.11 invariant).
var ErrDuplicateActive = errors.New("assumptions: an active assumption already exists for this channel/category/statement")

// Validation intervals (spec.md §4.11, §3: confirmed_interval if
// confidence >= 0.9, else default_interval), grounded on the original
// AssumptionTracker's _CONFIRMED_VALIDATION_DAYS / _DEFAULT_VALIDATION_DAYS.
const (
	confirmedValidationDays = 30
	defaultValidationDays   = 7
	highConfidenceThreshold = 0.9
)

// Tracker is the Assumption Tracker (C11).
type Tracker struct {
	store Store
}

// New builds a Tracker backed by store.
func New(store Store) *Tracker {
	return &Tracker{store: store}
}

// AddConfirmed records a confirmed belief: confidence=1.0, confirmed_at=now,
// next_validation = now + confirmed interval (spec.md §4.11).
func (t *Tracker) AddConfirmed(ctx context.Context, channelID string, category Category, statement string, evidence []string) (Assumption, error) {
	if dup, err := t.hasActiveDuplicate(ctx, channelID, category, statement); err != nil {
		return Assumption{}, err
	} else if dup {
		return Assumption{}, ErrDuplicateActive
	}

	now := time.Now()
	if evidence == nil {
		evidence = []string{}
	}
	return t.store.Save(ctx, Assumption{
		ChannelID:      channelID,
		Category:       category,
		Statement:      statement,
		Evidence:       evidence,
		Confidence:     1.0,
		Source:         SourceConfirmed,
		ConfirmedAt:    &now,
		NextValidation: now.AddDate(0, 0, confirmedValidationDays),
	})
}

// AddInferred records an inferred belief with the given confidence (spec.md
// §4.11: next_validation = now + default interval).
func (t *Tracker) AddInferred(ctx context.Context, channelID string, category Category, statement string, evidence []string, confidence float64) (Assumption, error) {
	if dup, err := t.hasActiveDuplicate(ctx, channelID, category, statement); err != nil {
		return Assumption{}, err
	} else if dup {
		return Assumption{}, ErrDuplicateActive
	}

	now := time.Now()
	if evidence == nil {
		evidence = []string{}
	}
	return t.store.Save(ctx, Assumption{
		ChannelID:      channelID,
		Category:       category,
		Statement:      statement,
		Evidence:       evidence,
		Confidence:     confidence,
		Source:         SourceInferred,
		NextValidation: now.AddDate(0, 0, defaultValidationDays),
	})
}

// GetAll returns assumptions for channelID, excluding invalidated ones
// unless activeOnly is false.
func (t *Tracker) GetAll(ctx context.Context, channelID string, activeOnly bool) ([]Assumption, error) {
	all, err := t.store.List(ctx, channelID, "")
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return all, nil
	}
	out := make([]Assumption, 0, len(all))
	for _, a := range all {
		if a.Source != SourceInvalidated {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetConfirmed returns only CONFIRMED assumptions for channelID.
func (t *Tracker) GetConfirmed(ctx context.Context, channelID string) ([]Assumption, error) {
	return t.store.List(ctx, channelID, SourceConfirmed)
}

// GetHighConfidence returns CONFIRMED assumptions regardless of confidence,
// union INFERRED/NEEDS_REVIEW assumptions with confidence >= threshold
// (spec.md §4.11; default threshold 0.7 per the original source).
func (t *Tracker) GetHighConfidence(ctx context.Context, channelID string, threshold float64) ([]Assumption, error) {
	all, err := t.store.List(ctx, channelID, "")
	if err != nil {
		return nil, err
	}
	out := make([]Assumption, 0, len(all))
	for _, a := range all {
		switch a.Source {
		case SourceConfirmed:
			out = append(out, a)
		case SourceInferred, SourceNeedsReview:
			if a.Confidence >= threshold {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

// Confirm transitions an assumption to CONFIRMED, confidence=1.0,
// confirmed_at=now, next_validation pushed by the confirmed interval
// (spec.md §4.11).
func (t *Tracker) Confirm(ctx context.Context, id string) (Assumption, error) {
	now := time.Now()
	return t.store.Update(ctx, id, func(a *Assumption) {
		a.Source = SourceConfirmed
		a.Confidence = 1.0
		a.ConfirmedAt = &now
		a.NextValidation = now.AddDate(0, 0, confirmedValidationDays)
	})
}

// Invalidate transitions an assumption to INVALIDATED, confidence=0.0. If
// reason is non-empty, it is appended to the assumption's evidence trail
// (grounded on the original's "Invalidated: <reason>" audit-trail format).
func (t *Tracker) Invalidate(ctx context.Context, id string, reason string) (Assumption, error) {
	var existing Assumption
	var found bool
	if reason != "" {
		existing, found, _ = t.store.Get(ctx, id)
	}
	return t.store.Update(ctx, id, func(a *Assumption) {
		a.Source = SourceInvalidated
		a.Confidence = 0.0
		if reason != "" && found {
			evidence := existing.Evidence
			if evidence == nil {
				evidence = []string{}
			}
			a.Evidence = append(append([]string{}, evidence...), "Invalidated: "+reason)
		}
	})
}

// MarkNeedsReview transitions an assumption to NEEDS_REVIEW without
// touching its confidence or validation schedule.
func (t *Tracker) MarkNeedsReview(ctx context.Context, id string) (Assumption, error) {
	return t.store.Update(ctx, id, func(a *Assumption) {
		a.Source = SourceNeedsReview
	})
}

// RefreshValidation updates last_validated=now and recomputes
// next_validation using the 0.9 confidence threshold: the confirmed
// interval at or above threshold, the default interval below it (spec.md
// §4.11).
func (t *Tracker) RefreshValidation(ctx context.Context, id string, newConfidence float64) (Assumption, error) {
	now := time.Now()
	interval := defaultValidationDays
	if newConfidence >= highConfidenceThreshold {
		interval = confirmedValidationDays
	}
	return t.store.Update(ctx, id, func(a *Assumption) {
		a.Confidence = newConfidence
		a.LastValidated = &now
		a.NextValidation = now.AddDate(0, 0, interval)
	})
}

// GetStale returns assumptions whose next_validation has passed.
func (t *Tracker) GetStale(ctx context.Context) ([]Assumption, error) {
	return t.store.Stale(ctx, time.Now())
}

// HasCategory reports whether channelID has a CONFIRMED assumption in the
// given category.
func (t *Tracker) HasCategory(ctx context.Context, channelID string, category Category) (bool, error) {
	confirmed, err := t.store.List(ctx, channelID, SourceConfirmed)
	if err != nil {
		return false, err
	}
	for _, a := range confirmed {
		if a.Category == category {
			return true, nil
		}
	}
	return false, nil
}

// GetMissingCategories returns the required categories (all but
// PERFORMANCE) with no CONFIRMED record for channelID, sorted ascending
// (spec.md §4.11: "required categories minus those with a CONFIRMED
// record").
func (t *Tracker) GetMissingCategories(ctx context.Context, channelID string) ([]Category, error) {
	confirmed, err := t.store.List(ctx, channelID, SourceConfirmed)
	if err != nil {
		return nil, err
	}
	present := make(map[Category]bool, len(confirmed))
	for _, a := range confirmed {
		present[a.Category] = true
	}

	var missing []Category
	for _, c := range requiredCategories() {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

// hasActiveDuplicate checks the ACTIVE-state uniqueness invariant for
// (channelID, category, statement).
func (t *Tracker) hasActiveDuplicate(ctx context.Context, channelID string, category Category, statement string) (bool, error) {
	all, err := t.store.List(ctx, channelID, "")
	if err != nil {
		return false, err
	}
	for _, a := range all {
		if a.Source != SourceInvalidated && a.Category == category && a.Statement == statement {
			return true, nil
		}
	}
	return false, nil
}
