// Package trust implements the Trust Model (C6): a per-(user, category)
// escalating autonomy level derived from approval/rejection/edit history,
// with ShouldAutoApprove reporting whether a category auto-approves or
// needs review. No other package in this module calls a Tracker:
// cmd/assistantd constructs one and discards it.
package trust

import "github.com/zetherion/assistant-core/pkg/config"

// Outcome is one recorded interaction against a trust key. Exported so a
// persistence adapter can round-trip State.History.
type Outcome string

const (
	OutcomeApproval  Outcome = "approval"
	OutcomeRejection Outcome = "rejection"
	OutcomeEdit      Outcome = "edit"
)

// State is the persisted trust state for one (userID, category) key
// (spec.md §4.6: "{level, approvals, rejections, edits, total_interactions}").
type State struct {
	UserID            string
	Category          string
	Level             config.TrustLevel
	Approvals         int
	Rejections        int
	Edits             int
	TotalInteractions int

	// History holds the most recent outcomes, bounded to the category's
	// DemotionWindow, used to compute rejections_in_last_N on rejection.
	// Exported so a persistence adapter can marshal it alongside the rest
	// of State.
	History []Outcome
}

// approvalRate is approvals / total_interactions, 0 when no interactions
// have been recorded yet.
func (s State) approvalRate() float64 {
	if s.TotalInteractions == 0 {
		return 0
	}
	return float64(s.Approvals) / float64(s.TotalInteractions)
}

// rejectionsInWindow counts rejection outcomes in the retained history.
func (s State) rejectionsInWindow() int {
	n := 0
	for _, o := range s.History {
		if o == OutcomeRejection {
			n++
		}
	}
	return n
}
