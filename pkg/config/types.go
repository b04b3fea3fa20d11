package config

import "time"

// ProviderTaskConfig is the per-TaskType entry of the capability matrix
// (spec.md §3 ProviderConfig): a primary provider plus an ordered fallback
// list, both walked by pkg/capability.ProviderForTask.
type ProviderTaskConfig struct {
	Primary   Provider   `yaml:"primary"`
	Fallbacks []Provider `yaml:"fallbacks"`
	Rationale string     `yaml:"rationale"`
}

// CapabilityMatrix maps every TaskType to its ProviderTaskConfig plus the
// local-tier capability table used by can_local_handle.
type CapabilityMatrix struct {
	Tasks map[TaskType]ProviderTaskConfig `yaml:"tasks"`

	// TierCapabilities maps each LocalTier to the set of TaskTypes it can
	// serve. SMALL must be a subset of MEDIUM, which must be a subset of LARGE.
	TierCapabilities map[LocalTier][]TaskType `yaml:"tier_capabilities"`

	// ModelTierPrefixes maps a local model name prefix to its LocalTier,
	// checked longest-prefix-first; unmatched models default to TierSmall.
	ModelTierPrefixes map[string]LocalTier `yaml:"model_tier_prefixes"`
}

// CostRate is the per-million-token pricing for a provider/model.
type CostRate struct {
	InputPerMillion  float64 `yaml:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million"`
}

// ProviderConnConfig holds connection settings for one inference provider.
type ProviderConnConfig struct {
	Enabled      bool     `yaml:"enabled"`
	APIKeyEnv    string   `yaml:"api_key_env,omitempty"`
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"base_url,omitempty"`
	DefaultRate  CostRate `yaml:"default_rate"`
	ModelPricing map[string]CostRate `yaml:"model_pricing,omitempty"`
}

// ProvidersConfig holds all provider connection settings.
type ProvidersConfig struct {
	Claude ProviderConnConfig `yaml:"claude"`
	OpenAI ProviderConnConfig `yaml:"openai"`
	Gemini ProviderConnConfig `yaml:"gemini"`
	Ollama ProviderConnConfig `yaml:"ollama"`
}

// QuietHours is a daily interval during which send_message-like actions are
// deferred. Wrap-around across midnight is supported (StartHour > EndHour).
type QuietHours struct {
	StartHour int `yaml:"start_hour"`
	EndHour   int `yaml:"end_hour"`
}

// Contains reports whether hour h (0-23, in the relevant timezone) falls
// within the quiet interval, handling midnight wrap-around.
func (q QuietHours) Contains(hour int) bool {
	if q.StartHour == q.EndHour {
		return false
	}
	if q.StartHour < q.EndHour {
		return hour >= q.StartHour && hour < q.EndHour
	}
	return hour >= q.StartHour || hour < q.EndHour
}

// SchedulerConfig controls the heartbeat scheduler (spec.md §4.7).
type SchedulerConfig struct {
	BeatInterval      time.Duration `yaml:"beat_interval"`
	MaxActionsPerBeat int           `yaml:"max_actions_per_beat"`
	GlobalQuietHours  QuietHours    `yaml:"global_quiet_hours"`

	// DigestCronSpec is a robfig/cron/v3 expression for the daily digest
	// job, run independently of the beat loop.
	DigestCronSpec string `yaml:"digest_cron_spec"`
}

// TrustCategoryConfig configures promotion/auto-approval for one
// reply-category or channel under trust tracking.
type TrustCategoryConfig struct {
	MinAutoLevel      TrustLevel         `yaml:"min_auto_level"`
	PromotionThreshold map[string]float64 `yaml:"promotion_threshold"` // keyed by TrustLevel.String()
	MinTotal           map[string]int     `yaml:"min_total"`           // keyed by TrustLevel.String()
	DemotionWindow      int               `yaml:"demotion_window"`     // N recent interactions
	MaxRejectionsInWindow int             `yaml:"max_rejections_in_window"`
	NeverAutoApprove    bool              `yaml:"never_auto_approve"` // e.g. SPAM category
}

// TrustConfig holds per-category trust settings.
type TrustConfig struct {
	Categories map[string]TrustCategoryConfig `yaml:"categories"`
}

// RateLimitConfig controls the sliding-window rate limiter (spec.md §4.10).
type RateLimitConfig struct {
	WindowSeconds int `yaml:"window_seconds"`
	MaxEvents     int `yaml:"max_events"`
}

// CostsConfig controls the cost tracker's budget alerting (spec.md §4.4).
type CostsConfig struct {
	MonthlyBudgetUSD   float64 `yaml:"monthly_budget_usd"`
	AlertThresholdsUSD []float64 `yaml:"alert_thresholds_usd"`
}

// DiscordConfig holds the Discord transport adapter's connection settings.
type DiscordConfig struct {
	Enabled  bool   `yaml:"enabled"`
	TokenEnv string `yaml:"token_env"`

	// MaxChunkBytes bounds each outbound message chunk (spec.md §6:
	// "supports long-message chunking with max bytes per chunk"). Discord
	// itself caps messages at 2000 characters; this stays at or below that.
	MaxChunkBytes int `yaml:"max_chunk_bytes"`
}

// QdrantConfig holds the vector memory store's connection settings.
type QdrantConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	APIKeyEnv      string `yaml:"api_key_env,omitempty"`
	UseTLS         bool   `yaml:"use_tls"`
	CollectionName string `yaml:"collection_name"`
	VectorSize     int    `yaml:"vector_size"`
}

// PostgresConfig holds the relational store's connection settings.
type PostgresConfig struct {
	DSNEnv          string `yaml:"dsn_env"`
	MaxConns        int32  `yaml:"max_conns"`
	MigrationsPath  string `yaml:"migrations_path,omitempty"`
}

// GitHubConfig holds the dev-watcher skill's GitHub polling settings.
// Repositories is empty by default, which disables the poller: a personal
// deployment opts in by naming the "owner/name" repos it wants watched.
type GitHubConfig struct {
	TokenEnv     string        `yaml:"token_env"`
	Repositories []string      `yaml:"repositories"`
	UserID       string        `yaml:"user_id"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// UserProfile is a per-user supplement (original_source/discord/user_manager.py):
// timezone-aware quiet hours override for the heartbeat scheduler.
type UserProfile struct {
	UserID     int64       `yaml:"user_id"`
	Timezone   string      `yaml:"timezone"` // IANA zone name, e.g. "America/New_York"
	QuietHours *QuietHours `yaml:"quiet_hours,omitempty"`
}

// OllamaLocalConfig controls the local-model sidecar connection used by
// the Inference Broker's OLLAMA adapter and internal/providerpb.
type OllamaLocalConfig struct {
	GRPCAddr    string        `yaml:"grpc_addr"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// InferenceConfig holds the Message Orchestrator's defaults for
// COMPLEX_TASK dispatch and memory assembly (spec.md §6: "inference.
// default_max_tokens, inference.default_temperature").
type InferenceConfig struct {
	DefaultMaxTokens   int     `yaml:"default_max_tokens"`
	DefaultTemperature float64 `yaml:"default_temperature"`
	HistoryLimit       int     `yaml:"history_limit"`       // recent messages pulled into COMPLEX_TASK history
	RecallLimit        int     `yaml:"recall_limit"`        // semantic memories folded into the system prompt
}

// RetentionConfig controls the background retention sweep (pkg/cleanup):
// how long cost records and terminal (done/failed) queue tasks are kept
// before being purged, and how often the sweep runs.
type RetentionConfig struct {
	CostRecordRetentionDays int           `yaml:"cost_record_retention_days"`
	TerminalTaskRetention   time.Duration `yaml:"terminal_task_retention"`
	CleanupInterval         time.Duration `yaml:"cleanup_interval"`
}
