package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppYAMLConfig represents the complete assistant.yaml file structure.
type AppYAMLConfig struct {
	Providers  *ProvidersConfig  `yaml:"providers"`
	Capability *CapabilityMatrix `yaml:"capability"`
	Scheduler  *SchedulerConfig  `yaml:"scheduler"`
	Trust      *TrustConfig      `yaml:"trust"`
	RateLimit  *RateLimitConfig  `yaml:"rate_limit"`
	Costs      *CostsConfig      `yaml:"costs"`
	Queue      *QueueConfig      `yaml:"queue"`
	Discord    *DiscordConfig    `yaml:"discord"`
	Qdrant     *QdrantConfig     `yaml:"qdrant"`
	Postgres   *PostgresConfig   `yaml:"postgres"`
	GitHub     *GitHubConfig     `yaml:"github"`
	Ollama     *OllamaLocalConfig `yaml:"ollama_local"`
	Retention  *RetentionConfig  `yaml:"retention"`
	Users      []UserProfile     `yaml:"users"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load .env into the process environment (if present).
//  2. Load assistant.yaml from configDir.
//  3. Expand environment variables.
//  4. Parse YAML into structs.
//  5. Merge built-in defaults under user-provided values.
//  6. Validate all configuration.
//  7. Return Config ready for use.
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to load .env file", "error", err)
	}

	yamlCfg, err := loadAppYAML(configDir)
	if err != nil {
		return nil, NewLoadError("assistant.yaml", err)
	}

	cfg, err := mergeWithDefaults(configDir, yamlCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge configuration defaults: %w", err)
	}

	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized successfully",
		"task_types", stats.TaskTypes,
		"providers", stats.Providers,
		"trust_categories", stats.TrustCats,
		"users", stats.Users)

	return cfg, nil
}

func loadAppYAML(configDir string) (*AppYAMLConfig, error) {
	path := filepath.Join(configDir, "assistant.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	data = ExpandEnv(data)

	var cfg AppYAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return &cfg, nil
}

// mergeWithDefaults layers user-provided YAML on top of built-in defaults:
// start from defaults, then merge non-zero user values over them so unset
// fields keep their built-in default (teacher's loader.go queue-merge
// pattern, generalized to every config section).
func mergeWithDefaults(configDir string, y *AppYAMLConfig) (*Config, error) {
	capability := GetBuiltinCapabilityMatrix()
	if y.Capability != nil {
		if err := mergo.Merge(capability, y.Capability, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging capability matrix: %w", err)
		}
	}

	scheduler := DefaultSchedulerConfig()
	if y.Scheduler != nil {
		if err := mergo.Merge(scheduler, y.Scheduler, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging scheduler config: %w", err)
		}
	}

	trust := DefaultTrustConfig()
	if y.Trust != nil {
		if err := mergo.Merge(trust, y.Trust, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging trust config: %w", err)
		}
	}

	rateLimit := DefaultRateLimitConfig()
	if y.RateLimit != nil {
		if err := mergo.Merge(rateLimit, y.RateLimit, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging rate limit config: %w", err)
		}
	}

	costs := DefaultCostsConfig()
	if y.Costs != nil {
		if err := mergo.Merge(costs, y.Costs, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging costs config: %w", err)
		}
	}

	queue := DefaultQueueConfig()
	if y.Queue != nil {
		if err := mergo.Merge(queue, y.Queue, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging queue config: %w", err)
		}
	}

	providers := y.Providers
	if providers == nil {
		providers = &ProvidersConfig{}
	}

	discord := y.Discord
	if discord == nil {
		discord = &DiscordConfig{TokenEnv: "DISCORD_BOT_TOKEN", MaxChunkBytes: 1900}
	}
	if discord.MaxChunkBytes == 0 {
		discord.MaxChunkBytes = 1900
	}

	qdrant := y.Qdrant
	if qdrant == nil {
		qdrant = &QdrantConfig{Host: "localhost", Port: 6334, CollectionName: "assistant_memory", VectorSize: 1536}
	}

	postgres := y.Postgres
	if postgres == nil {
		postgres = &PostgresConfig{DSNEnv: "DATABASE_URL", MaxConns: 10}
	}

	github := y.GitHub
	if github == nil {
		github = &GitHubConfig{TokenEnv: "GITHUB_TOKEN"}
	}
	if github.PollInterval <= 0 {
		github.PollInterval = 10 * time.Minute
	}

	ollama := y.Ollama
	if ollama == nil {
		ollama = &OllamaLocalConfig{GRPCAddr: "localhost:11434", DialTimeout: 0}
	}

	retention := DefaultRetentionConfig()
	if y.Retention != nil {
		if err := mergo.Merge(retention, y.Retention, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging retention config: %w", err)
		}
	}

	return &Config{
		configDir:  configDir,
		Providers:  providers,
		Capability: capability,
		Scheduler:  scheduler,
		Trust:      trust,
		RateLimit:  rateLimit,
		Costs:      costs,
		Queue:      queue,
		Discord:    discord,
		Qdrant:     qdrant,
		Postgres:   postgres,
		GitHub:     github,
		Ollama:     ollama,
		Retention:  retention,
		Users:      y.Users,
	}, nil
}
