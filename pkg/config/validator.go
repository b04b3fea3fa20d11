package config

import (
	"fmt"
	"os"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast: stops at the
// first error). Order: capability matrix -> providers -> queue -> scheduler
// -> trust -> rate limit -> costs -> users, since later sections reference
// providers/task types validated earlier.
func (v *Validator) ValidateAll() error {
	if err := v.validateCapabilityMatrix(); err != nil {
		return fmt.Errorf("capability matrix validation failed: %w", err)
	}
	if err := v.validateProviders(); err != nil {
		return fmt.Errorf("provider validation failed: %w", err)
	}
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := v.validateScheduler(); err != nil {
		return fmt.Errorf("scheduler validation failed: %w", err)
	}
	if err := v.validateTrust(); err != nil {
		return fmt.Errorf("trust validation failed: %w", err)
	}
	if err := v.validateRateLimit(); err != nil {
		return fmt.Errorf("rate limit validation failed: %w", err)
	}
	if err := v.validateCosts(); err != nil {
		return fmt.Errorf("costs validation failed: %w", err)
	}
	if err := v.validateUsers(); err != nil {
		return fmt.Errorf("user profile validation failed: %w", err)
	}
	return nil
}

// validateCapabilityMatrix enforces spec.md §8 invariant 1: every TaskType
// has a config with a non-empty fallback list.
func (v *Validator) validateCapabilityMatrix() error {
	m := v.cfg.Capability
	if m == nil {
		return fmt.Errorf("capability matrix is nil")
	}

	for _, tt := range AllTaskTypes {
		entry, ok := m.Tasks[tt]
		if !ok {
			return NewValidationError("capability", string(tt), "", fmt.Errorf("no provider config for task type"))
		}
		if !entry.Primary.IsValid() {
			return NewValidationError("capability", string(tt), "primary", fmt.Errorf("invalid provider: %s", entry.Primary))
		}
		if len(entry.Fallbacks) == 0 {
			return NewValidationError("capability", string(tt), "fallbacks", fmt.Errorf("at least one fallback required"))
		}
		for _, fb := range entry.Fallbacks {
			if !fb.IsValid() {
				return NewValidationError("capability", string(tt), "fallbacks", fmt.Errorf("invalid provider: %s", fb))
			}
		}
	}

	small := toSet(m.TierCapabilities[TierSmall])
	medium := toSet(m.TierCapabilities[TierMedium])
	large := toSet(m.TierCapabilities[TierLarge])
	for tt := range small {
		if !medium[tt] {
			return NewValidationError("capability", "tier_capabilities", "", fmt.Errorf("SMALL task %s not covered by MEDIUM", tt))
		}
	}
	for tt := range medium {
		if !large[tt] {
			return NewValidationError("capability", "tier_capabilities", "", fmt.Errorf("MEDIUM task %s not covered by LARGE", tt))
		}
	}

	return nil
}

func toSet(tasks []TaskType) map[TaskType]bool {
	s := make(map[TaskType]bool, len(tasks))
	for _, t := range tasks {
		s[t] = true
	}
	return s
}

func (v *Validator) validateProviders() error {
	p := v.cfg.Providers
	if p == nil {
		return fmt.Errorf("providers configuration is nil")
	}

	checks := []struct {
		name string
		conn ProviderConnConfig
	}{
		{"claude", p.Claude}, {"openai", p.OpenAI}, {"gemini", p.Gemini}, {"ollama", p.Ollama},
	}

	anyEnabled := false
	for _, c := range checks {
		if !c.conn.Enabled {
			continue
		}
		anyEnabled = true
		if c.conn.Model == "" {
			return NewValidationError("provider", c.name, "model", fmt.Errorf("model required when provider is enabled"))
		}
		if c.name != "ollama" && c.conn.APIKeyEnv != "" {
			if os.Getenv(c.conn.APIKeyEnv) == "" {
				return NewValidationError("provider", c.name, "api_key_env", fmt.Errorf("environment variable %s is not set", c.conn.APIKeyEnv))
			}
		}
	}

	if !anyEnabled {
		return NewValidationError("providers", "", "", fmt.Errorf("at least one provider must be enabled"))
	}

	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return fmt.Errorf("queue configuration is nil")
	}
	if q.WorkerCount < 1 || q.WorkerCount > 50 {
		return fmt.Errorf("worker_count must be between 1 and 50, got %d", q.WorkerCount)
	}
	if q.MaxConcurrentTasks < 1 {
		return fmt.Errorf("max_concurrent_tasks must be at least 1, got %d", q.MaxConcurrentTasks)
	}
	if q.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", q.PollInterval)
	}
	if q.PollIntervalJitter < 0 || q.PollIntervalJitter >= q.PollInterval {
		return fmt.Errorf("poll_interval_jitter must be non-negative and less than poll_interval")
	}
	if q.TaskTimeout <= 0 {
		return fmt.Errorf("task_timeout must be positive, got %v", q.TaskTimeout)
	}
	if q.GracefulShutdownTimeout <= 0 {
		return fmt.Errorf("graceful_shutdown_timeout must be positive, got %v", q.GracefulShutdownTimeout)
	}
	if q.OrphanDetectionInterval <= 0 {
		return fmt.Errorf("orphan_detection_interval must be positive, got %v", q.OrphanDetectionInterval)
	}
	if q.OrphanThreshold <= 0 {
		return fmt.Errorf("orphan_threshold must be positive, got %v", q.OrphanThreshold)
	}
	if q.HeartbeatInterval <= 0 || q.HeartbeatInterval >= q.OrphanThreshold {
		return fmt.Errorf("heartbeat_interval must be positive and less than orphan_threshold")
	}
	if q.RetryMaxAttempts < 1 {
		return fmt.Errorf("retry_max_attempts must be at least 1, got %d", q.RetryMaxAttempts)
	}
	if q.RetryBaseDelay <= 0 || q.RetryMaxDelay < q.RetryBaseDelay {
		return fmt.Errorf("retry_base_delay must be positive and not exceed retry_max_delay")
	}
	return nil
}

func (v *Validator) validateScheduler() error {
	s := v.cfg.Scheduler
	if s == nil {
		return fmt.Errorf("scheduler configuration is nil")
	}
	if s.BeatInterval <= 0 {
		return fmt.Errorf("beat_interval must be positive, got %v", s.BeatInterval)
	}
	if s.MaxActionsPerBeat < 1 {
		return fmt.Errorf("max_actions_per_beat must be at least 1, got %d", s.MaxActionsPerBeat)
	}
	if s.GlobalQuietHours.StartHour < 0 || s.GlobalQuietHours.StartHour > 23 {
		return fmt.Errorf("global_quiet_hours.start_hour must be 0-23")
	}
	if s.GlobalQuietHours.EndHour < 0 || s.GlobalQuietHours.EndHour > 23 {
		return fmt.Errorf("global_quiet_hours.end_hour must be 0-23")
	}
	return nil
}

func (v *Validator) validateTrust() error {
	t := v.cfg.Trust
	if t == nil || len(t.Categories) == 0 {
		return fmt.Errorf("at least one trust category must be configured")
	}
	for name, cat := range t.Categories {
		if cat.NeverAutoApprove {
			continue
		}
		if cat.DemotionWindow < 1 {
			return NewValidationError("trust_category", name, "demotion_window", fmt.Errorf("must be at least 1"))
		}
		if cat.MaxRejectionsInWindow < 0 {
			return NewValidationError("trust_category", name, "max_rejections_in_window", fmt.Errorf("must be non-negative"))
		}
	}
	return nil
}

func (v *Validator) validateRateLimit() error {
	r := v.cfg.RateLimit
	if r == nil {
		return fmt.Errorf("rate limit configuration is nil")
	}
	if r.WindowSeconds < 1 {
		return fmt.Errorf("window_seconds must be at least 1, got %d", r.WindowSeconds)
	}
	if r.MaxEvents < 1 {
		return fmt.Errorf("max_events must be at least 1, got %d", r.MaxEvents)
	}
	return nil
}

func (v *Validator) validateCosts() error {
	c := v.cfg.Costs
	if c == nil {
		return fmt.Errorf("costs configuration is nil")
	}
	if c.MonthlyBudgetUSD <= 0 {
		return fmt.Errorf("monthly_budget_usd must be positive, got %v", c.MonthlyBudgetUSD)
	}
	for i, t := range c.AlertThresholdsUSD {
		if t <= 0 {
			return fmt.Errorf("alert_thresholds_usd[%d] must be positive", i)
		}
	}
	return nil
}

func (v *Validator) validateUsers() error {
	for i, u := range v.cfg.Users {
		if u.UserID == 0 {
			return NewValidationError("user", fmt.Sprintf("[%d]", i), "user_id", fmt.Errorf("required"))
		}
		if u.Timezone == "" {
			return NewValidationError("user", fmt.Sprintf("%d", u.UserID), "timezone", fmt.Errorf("required"))
		}
	}
	return nil
}
