package scheduler

import (
	"time"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/ratelimit"
)

// deferrableActionTypes holds the action types subject to quiet-hours
// deferral. Memory updates and other internal bookkeeping are not
// deferred (spec.md §4.7: "A send_message-like action type inside quiet
// hours is deferred; memory updates and internal bookkeeping are not").
var deferrableActionTypes = map[string]bool{
	"send_message": true,
}

// quietDeferral reports whether actionType for userID currently falls
// within quiet hours and, if so, the time at which it should next fire.
// Per-user timezone and quiet-hours resolution is shared with the
// transport-facing path via pkg/ratelimit (C10); only the
// next-notification-time computation is specific to the autonomous beat.
func (s *Scheduler) quietDeferral(userID, actionType string) (time.Time, bool) {
	if !deferrableActionTypes[actionType] {
		return time.Time{}, false
	}

	s.mu.RLock()
	profile, hasProfile := s.userProfiles[userID]
	s.mu.RUnlock()

	var profilePtr *config.UserProfile
	if hasProfile {
		profilePtr = &profile
	}

	loc := ratelimit.ResolveLocation(profilePtr)
	now := time.Now().In(loc)
	qh := ratelimit.ResolveQuietHours(s.cfg.GlobalQuietHours, profilePtr)
	if !qh.Contains(now.Hour()) {
		return time.Time{}, false
	}
	return nextNotificationTime(now, qh), true
}

// nextNotificationTime returns the earliest instant after now, in now's
// location, at which qh no longer contains the hour — i.e. the end of the
// current quiet window.
func nextNotificationTime(now time.Time, qh config.QuietHours) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), qh.EndHour, 0, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
