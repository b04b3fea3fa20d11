// Package scheduler implements the Heartbeat Scheduler (C7): the
// cooperative single-tasked timer loop that polls every registered
// skill's on_heartbeat, filters and schedules the proposed actions, and
// drives the Action Executor (directly or via the Priority Queue).
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/executor"
	"github.com/zetherion/assistant-core/pkg/queue"
	"github.com/zetherion/assistant-core/pkg/ratelimit"
	"github.com/zetherion/assistant-core/pkg/skills"
)

// Scheduler is the Heartbeat Scheduler (C7).
type Scheduler struct {
	cfg        *config.SchedulerConfig
	registry   *skills.Registry
	executor   *executor.Executor
	queueStore queue.Store // nil: queue unavailable, actions execute directly (spec.md §4.7 step 7)
	cron       *cron.Cron
	log        *slog.Logger

	mu           sync.RWMutex
	userIDs      []string
	userProfiles map[string]config.UserProfile // keyed by strconv.FormatInt(UserID, 10)
	events       map[string]*ScheduledEvent
	stats        Stats

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a Scheduler. queueStore may be nil (actions execute directly
// through executor instead of being enqueued).
func New(cfg *config.SchedulerConfig, registry *skills.Registry, exec *executor.Executor, queueStore queue.Store, profiles []config.UserProfile, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultSchedulerConfig()
	}
	profileMap := make(map[string]config.UserProfile, len(profiles))
	for _, p := range profiles {
		profileMap[strconv.FormatInt(p.UserID, 10)] = p
	}
	return &Scheduler{
		cfg:          cfg,
		registry:     registry,
		executor:     exec,
		queueStore:   queueStore,
		userProfiles: profileMap,
		events:       make(map[string]*ScheduledEvent),
		log:          log.With("component", "scheduler"),
		stopCh:       make(chan struct{}),
	}
}

// SetUserIDs replaces the set of users polled on each beat.
func (s *Scheduler) SetUserIDs(userIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userIDs = append([]string{}, userIDs...)
}

// Start begins the beat loop and, if configured, the digest cron job.
// Grounded on pkg/queue/worker.go's Start/run split: the loop runs in its
// own goroutine tracked by a WaitGroup so Stop can wait for it to drain.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cfg.DigestCronSpec != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(s.cfg.DigestCronSpec, func() {
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error("digest beat failed", "error", err)
			}
		}); err != nil {
			s.log.Error("invalid digest cron spec, digest cron disabled", "spec", s.cfg.DigestCronSpec, "error", err)
		} else {
			s.cron.Start()
		}
	}

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop cancels the beat loop and the digest cron, and waits for the
// current beat (including in-flight scheduled-event processing) to
// finish. Idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.BeatInterval)
	defer ticker.Stop()

	log := s.log
	log.Info("scheduler started", "beat_interval", s.cfg.BeatInterval)

	for {
		select {
		case <-s.stopCh:
			log.Info("scheduler shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, scheduler shutting down")
			return
		case <-ticker.C:
			s.beat(ctx)
		}
	}
}

// beat runs one RunOnce, recovering from any panic so a single bad beat
// never kills the loop (spec.md §4.7: "Exceptions in a beat are caught,
// logged, and stored in stats.last_error; the loop continues").
func (s *Scheduler) beat(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.stats.LastError = "panic in beat: " + toString(r)
			s.mu.Unlock()
			s.log.Error("recovered from panic in beat", "panic", r)
		}
	}()
	if _, err := s.RunOnce(ctx); err != nil {
		s.mu.Lock()
		s.stats.LastError = err.Error()
		s.mu.Unlock()
		s.log.Error("beat failed", "error", err)
	}
}

func toString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "unknown panic"
}

// RunOnce executes one beat synchronously and returns the ActionResults
// produced (spec.md §4.7 steps 1-8).
func (s *Scheduler) RunOnce(ctx context.Context) ([]executor.ActionResult, error) {
	s.mu.Lock()
	s.stats.TotalBeats++
	s.stats.LastBeat = time.Now()
	s.mu.Unlock()

	results := s.processScheduledEvents(ctx)

	if ratelimit.InQuietHours(time.Now(), s.cfg.GlobalQuietHours, nil) {
		s.log.Debug("within global quiet hours, skipping skill heartbeats")
		return results, nil
	}

	s.mu.RLock()
	userIDs := append([]string{}, s.userIDs...)
	s.mu.RUnlock()
	if len(userIDs) == 0 {
		return results, nil
	}

	actions := s.registry.Heartbeat(ctx, userIDs)

	s.mu.Lock()
	s.stats.TotalActions += len(actions)
	s.mu.Unlock()

	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Priority > actions[j].Priority })
	if s.cfg.MaxActionsPerBeat > 0 && len(actions) > s.cfg.MaxActionsPerBeat {
		actions = actions[:s.cfg.MaxActionsPerBeat]
	}

	for _, action := range actions {
		if triggerAt, deferred := s.quietDeferral(action.UserID, action.ActionType); deferred {
			s.ScheduleEvent(ScheduledEvent{TriggerTime: triggerAt, Action: action})
			continue
		}
		result := s.dispatch(ctx, action)
		results = append(results, result)
		s.recordResult(result)
	}
	return results, nil
}

// dispatch enqueues action into the Priority Queue when available,
// falling back to direct Action Executor invocation otherwise (spec.md
// §4.7 step 7).
func (s *Scheduler) dispatch(ctx context.Context, action skills.HeartbeatAction) executor.ActionResult {
	if s.queueStore != nil {
		userID, _ := strconv.ParseInt(action.UserID, 10, 64)
		_, err := s.queueStore.Enqueue(ctx, &queue.QueueTask{
			TaskType: action.ActionType,
			UserID:   userID,
			Payload:  action.Data,
			Priority: queue.PriorityScheduled,
		})
		if err == nil {
			return executor.ActionResult{Success: true, Message: "enqueued"}
		}
		s.log.Error("enqueue failed, executing directly", "error", err, "action_type", action.ActionType)
	}
	return s.executor.Execute(ctx, action)
}

// processScheduledEvents invokes the executor for every pending event
// whose TriggerTime has passed, removing each from the pending set
// regardless of outcome (spec.md §4.7 step 2).
func (s *Scheduler) processScheduledEvents(ctx context.Context) []executor.ActionResult {
	now := time.Now()
	s.mu.Lock()
	var due []*ScheduledEvent
	for id, ev := range s.events {
		if ev.Status == EventPending && !ev.TriggerTime.After(now) {
			due = append(due, ev)
			delete(s.events, id)
		}
	}
	s.mu.Unlock()

	var results []executor.ActionResult
	for _, ev := range due {
		result := s.executor.Execute(ctx, ev.Action)
		results = append(results, result)
		s.recordResult(result)
	}
	return results
}

// recordResult updates beat stats: successful, rate_limited (error
// matches "rate limit" case-insensitively), or failed (spec.md §4.7
// step 8).
func (s *Scheduler) recordResult(result executor.ActionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case result.Success:
		s.stats.Successful++
	case strings.Contains(strings.ToLower(result.Error), "rate limit"):
		s.stats.RateLimited++
	default:
		s.stats.Failed++
	}
}

// ScheduleEvent enqueues ev into the pending set, assigning it an ID if
// unset, and returns the ID.
func (s *Scheduler) ScheduleEvent(ev ScheduledEvent) string {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	ev.Status = EventPending
	s.mu.Lock()
	s.events[ev.ID] = &ev
	s.mu.Unlock()
	return ev.ID
}

// CancelEvent removes a pending event, returning false if it was not
// found pending.
func (s *Scheduler) CancelEvent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok || ev.Status != EventPending {
		return false
	}
	ev.Status = EventCancelled
	delete(s.events, id)
	return true
}

// ScheduleFollowup implements executor.FollowupScheduler: it turns a
// schedule_followup HeartbeatAction into a ScheduledEvent triggered
// immediately (the skill is responsible for encoding any desired delay
// into Data; a bare schedule_followup fires on the next beat).
func (s *Scheduler) ScheduleFollowup(ctx context.Context, action skills.HeartbeatAction) (string, error) {
	triggerAt := time.Now()
	if delaySeconds, ok := action.Data["delay_seconds"].(float64); ok {
		triggerAt = triggerAt.Add(time.Duration(delaySeconds) * time.Second)
	}
	return s.ScheduleEvent(ScheduledEvent{TriggerTime: triggerAt, Action: action}), nil
}

// GetStats returns a snapshot of the scheduler's running statistics.
func (s *Scheduler) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
