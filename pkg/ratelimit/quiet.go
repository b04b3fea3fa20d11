package ratelimit

import (
	"time"

	"github.com/zetherion/assistant-core/pkg/config"
)

// ResolveQuietHours returns the quiet-hours interval to apply for a user:
// their profile's override if set, otherwise the global default (spec.md
// §4.10: "consult the user profile for a per-user interval; fall back to
// the global default").
func ResolveQuietHours(global config.QuietHours, profile *config.UserProfile) config.QuietHours {
	if profile != nil && profile.QuietHours != nil {
		return *profile.QuietHours
	}
	return global
}

// ResolveLocation returns the user's IANA timezone location if their
// profile names one and it's valid, otherwise UTC.
func ResolveLocation(profile *config.UserProfile) *time.Location {
	if profile != nil && profile.Timezone != "" {
		if loc, err := time.LoadLocation(profile.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// InQuietHours reports whether now, converted into the user's timezone,
// falls within their effective quiet-hours interval.
func InQuietHours(now time.Time, global config.QuietHours, profile *config.UserProfile) bool {
	qh := ResolveQuietHours(global, profile)
	return qh.Contains(now.In(ResolveLocation(profile)).Hour())
}
