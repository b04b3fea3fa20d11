// Package ratelimit implements the Rate Limiter & Quiet Hours component
// (C10): a per-user sliding-window event limiter consulted synchronously
// by the transport-facing orchestrator, plus the quiet-hours predicate
// shared with the autonomous path.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/zetherion/assistant-core/pkg/config"
)

// Result is the outcome of a Check call.
type Result struct {
	Allowed    bool
	Reason     string
	RetryAfter time.Duration
}

// Limiter tracks, per user, event timestamps within the last Window and
// denies once MaxEvents is reached (spec.md §4.10). Used synchronously by
// the transport-facing orchestrator, not by the autonomous heartbeat path
// — C7 governs its own pacing via BeatInterval and quiet hours instead.
type Limiter struct {
	mu        sync.Mutex
	window    time.Duration
	maxEvents int
	events    map[string][]time.Time
}

// New builds a Limiter from cfg.
func New(cfg *config.RateLimitConfig) *Limiter {
	if cfg == nil {
		cfg = config.DefaultRateLimitConfig()
	}
	return &Limiter{
		window:    time.Duration(cfg.WindowSeconds) * time.Second,
		maxEvents: cfg.MaxEvents,
		events:    make(map[string][]time.Time),
	}
}

// Check records one event for userID if under the limit, returning
// whether it was allowed. On denial, Reason is a human-readable message
// and RetryAfter estimates how long until the oldest event in the window
// expires (spec.md §4.10: "on denial return a human-readable message and
// a suggested retry-after").
func (l *Limiter) Check(userID string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)
	events := l.events[userID]

	i := 0
	for i < len(events) && events[i].Before(cutoff) {
		i++
	}
	events = events[i:]

	if len(events) >= l.maxEvents {
		retryAfter := events[0].Add(l.window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		l.events[userID] = events
		return Result{
			Allowed:    false,
			Reason:     fmt.Sprintf("rate limit exceeded, try again in %s", retryAfter.Round(time.Second)),
			RetryAfter: retryAfter,
		}
	}

	events = append(events, now)
	l.events[userID] = events
	return Result{Allowed: true}
}
