package config

import "time"

// QueueConfig configures the priority queue's worker pool and retry policy
// (spec.md §4.9). Mirrors pkg/queue.Config field-for-field; kept here so
// YAML loading and validation stay in one place, and converted via
// pkg/queue.Config construction at wiring time.
type QueueConfig struct {
	WorkerCount             int           `yaml:"worker_count"`
	MaxConcurrentTasks      int           `yaml:"max_concurrent_tasks"`
	PollInterval            time.Duration `yaml:"poll_interval"`
	PollIntervalJitter      time.Duration `yaml:"poll_interval_jitter"`
	TaskTimeout             time.Duration `yaml:"task_timeout"`
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`
	OrphanDetectionInterval time.Duration `yaml:"orphan_detection_interval"`
	OrphanThreshold         time.Duration `yaml:"orphan_threshold"`
	HeartbeatInterval       time.Duration `yaml:"heartbeat_interval"`

	RetryBaseDelay   time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay    time.Duration `yaml:"retry_max_delay"`
	RetryMaxAttempts int           `yaml:"retry_max_attempts"`
}

// DefaultQueueConfig returns the built-in queue defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		WorkerCount:             5,
		MaxConcurrentTasks:      5,
		PollInterval:            1 * time.Second,
		PollIntervalJitter:      500 * time.Millisecond,
		TaskTimeout:             5 * time.Minute,
		GracefulShutdownTimeout: 5 * time.Minute,
		OrphanDetectionInterval: 5 * time.Minute,
		OrphanThreshold:         5 * time.Minute,
		HeartbeatInterval:       30 * time.Second,
		RetryBaseDelay:          1 * time.Second,
		RetryMaxDelay:           60 * time.Second,
		RetryMaxAttempts:        3,
	}
}
