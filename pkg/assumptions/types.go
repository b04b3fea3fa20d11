// Package assumptions implements the Assumption Tracker (C11): a
// versioned knowledge base of confirmed/inferred beliefs about a YouTube
// channel, with scheduled re-validation, grounded on the original
// assumptions.py's AssumptionTracker semantics. Confidence changes only
// through the explicit transitions and RefreshValidation; it does not decay
// over time on its own.
package assumptions

import "time"

// Category is the closed set of belief categories (spec.md §3). PERFORMANCE
// is never a required category for get_missing_categories.
type Category string

const (
	CategoryAudience   Category = "audience"
	CategoryTone       Category = "tone"
	CategoryContent    Category = "content"
	CategorySchedule   Category = "schedule"
	CategoryTopic      Category = "topic"
	CategoryCompetitor Category = "competitor"
	CategoryPerformance Category = "performance"
)

// allCategories is the closed set, in the original source's declaration
// order (enum iteration order in the Python implementation).
var allCategories = []Category{
	CategoryAudience, CategoryTone, CategoryContent, CategorySchedule,
	CategoryTopic, CategoryCompetitor, CategoryPerformance,
}

// requiredCategories excludes CategoryPerformance, which is never required
// (spec.md §4.11).
func requiredCategories() []Category {
	out := make([]Category, 0, len(allCategories)-1)
	for _, c := range allCategories {
		if c != CategoryPerformance {
			out = append(out, c)
		}
	}
	return out
}

// Source is the closed set of belief-provenance states.
type Source string

const (
	SourceConfirmed   Source = "confirmed"
	SourceInferred    Source = "inferred"
	SourceNeedsReview Source = "needs_review"
	SourceInvalidated Source = "invalidated"
)

// Assumption is a single versioned belief about a channel (spec.md §3).
// Invariants: Source=CONFIRMED => Confidence=1.0; Source=INVALIDATED =>
// Confidence=0.0.
type Assumption struct {
	ID            string
	ChannelID     string
	Category      Category
	Statement     string
	Evidence      []string
	Confidence    float64
	Source        Source
	ConfirmedAt   *time.Time
	LastValidated *time.Time
	NextValidation time.Time
}
