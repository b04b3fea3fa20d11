package scheduler

import (
	"time"

	"github.com/zetherion/assistant-core/pkg/skills"
)

// EventStatus is a ScheduledEvent's lifecycle state.
type EventStatus string

const (
	EventPending   EventStatus = "pending"
	EventDone      EventStatus = "done"
	EventFailed    EventStatus = "failed"
	EventCancelled EventStatus = "cancelled"
)

// ScheduledEvent is one unit of deferred work: either a quiet-hours-deferred
// action or an explicit schedule_followup (spec.md §4.7: "schedule_event",
// "cancel_event").
type ScheduledEvent struct {
	ID          string
	TriggerTime time.Time
	Action      skills.HeartbeatAction
	Status      EventStatus
}

// Stats tracks beat activity across the scheduler's lifetime (spec.md
// §4.7 points 1 and 8).
type Stats struct {
	TotalBeats   int
	LastBeat     time.Time
	TotalActions int
	Successful   int
	RateLimited  int
	Failed       int
	LastError    string
}
