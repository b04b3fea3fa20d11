// assistantd is the personal-assistant server: it wires the capability
// matrix, intent router, inference broker, cost tracker, skill registry,
// trust model, heartbeat scheduler, action executor, priority queue, rate
// limiter, assumption tracker, and message orchestrator into one running
// process fronted by Discord, grounded on the teacher's cmd/tarsy/main.go
// flag/env/gin wiring shape.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zetherion/assistant-core/internal/githubclient"
	"github.com/zetherion/assistant-core/internal/memory"
	"github.com/zetherion/assistant-core/internal/providerpb"
	"github.com/zetherion/assistant-core/internal/skillrpc"
	"github.com/zetherion/assistant-core/internal/store/postgres"
	"github.com/zetherion/assistant-core/internal/transport/discord"
	"github.com/zetherion/assistant-core/pkg/assumptions"
	"github.com/zetherion/assistant-core/pkg/broker"
	"github.com/zetherion/assistant-core/pkg/cleanup"
	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/costs"
	"github.com/zetherion/assistant-core/pkg/executor"
	"github.com/zetherion/assistant-core/pkg/orchestrator"
	"github.com/zetherion/assistant-core/pkg/providers"
	"github.com/zetherion/assistant-core/pkg/queue"
	"github.com/zetherion/assistant-core/pkg/ratelimit"
	"github.com/zetherion/assistant-core/pkg/router"
	"github.com/zetherion/assistant-core/pkg/scheduler"
	"github.com/zetherion/assistant-core/pkg/skills"
	"github.com/zetherion/assistant-core/pkg/skills/calendar"
	"github.com/zetherion/assistant-core/pkg/skills/devwatcher"
	"github.com/zetherion/assistant-core/pkg/skills/milestone"
	"github.com/zetherion/assistant-core/pkg/skills/profile"
	"github.com/zetherion/assistant-core/pkg/skills/taskmanager"
	"github.com/zetherion/assistant-core/pkg/skills/youtube"
	"github.com/zetherion/assistant-core/pkg/trust"
	"github.com/zetherion/assistant-core/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// passthroughChannelResolver treats a user's ID as their managed YouTube
// channel ID. This deployment is single-channel-per-user; a multi-channel
// deployment would replace this with a store-backed resolver.
type passthroughChannelResolver struct{}

func (passthroughChannelResolver) ChannelIDForUser(_ context.Context, userID string) (string, error) {
	return userID, nil
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	httpAddr := flag.String("http-addr", getEnv("HTTP_ADDR", ":8080"), "Address for the health/skill-RPC HTTP server")
	flag.Parse()

	if err := godotenv.Load(filepath.Join(*configDir, ".env")); err != nil {
		log.Printf("warning: could not load .env from %s: %v", *configDir, err)
	}

	logger := slog.Default()
	logger.Info("starting assistantd", "version", version.Full())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	dbCfg, err := postgres.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("failed to load database config: %v", err)
	}
	if cfg.Postgres.MaxConns > 0 {
		dbCfg.MaxConns = cfg.Postgres.MaxConns
	}
	pool, err := postgres.New(ctx, dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres and applied migrations")

	// --- C1/C2/C3: capability matrix, router, inference broker ---
	adapters := map[config.Provider]providers.Adapter{}
	conns := map[config.Provider]config.ProviderConnConfig{
		config.ProviderClaude: cfg.Providers.Claude,
		config.ProviderOpenAI: cfg.Providers.OpenAI,
		config.ProviderGemini: cfg.Providers.Gemini,
		config.ProviderOllama: cfg.Providers.Ollama,
	}
	if cfg.Providers.Claude.Enabled {
		adapters[config.ProviderClaude] = providers.NewClaudeAdapter(os.Getenv(cfg.Providers.Claude.APIKeyEnv), cfg.Providers.Claude)
	}
	if cfg.Providers.OpenAI.Enabled {
		adapters[config.ProviderOpenAI] = providers.NewOpenAIAdapter(os.Getenv(cfg.Providers.OpenAI.APIKeyEnv), cfg.Providers.OpenAI)
	}
	if cfg.Providers.Gemini.Enabled {
		adapters[config.ProviderGemini] = providers.NewGeminiAdapter(os.Getenv(cfg.Providers.Gemini.APIKeyEnv), cfg.Providers.Gemini)
	}
	if cfg.Providers.Ollama.Enabled {
		sidecar, err := providerpb.Dial(cfg.Ollama.GRPCAddr)
		if err != nil {
			logger.Error("failed to dial local-model sidecar, ollama disabled", "error", err)
		} else {
			defer sidecar.Close()
			adapters[config.ProviderOllama] = providers.NewOllamaAdapter(sidecar, cfg.Providers.Ollama)
		}
	}

	costStore := postgres.NewCostStore(pool.Pool)
	costTracker := costs.NewTracker(costStore, *cfg.Costs, func(monthTotal, threshold float64) {
		logger.Warn("monthly budget alert threshold crossed", "month_total_usd", monthTotal, "threshold_usd", threshold)
	}, logger)

	var primary, fallback providers.Adapter
	if a, ok := adapters[config.ProviderClaude]; ok {
		primary = a
	}
	if a, ok := adapters[config.ProviderOllama]; ok {
		fallback = a
	}
	intentRouter := router.New(primary, fallback, logger)
	inferenceBroker := broker.New(cfg.Capability, adapters, conns, costTracker, cfg.Providers.Ollama.Model, logger)

	// --- C11: assumption tracker ---
	assumptionTracker := assumptions.New(postgres.NewAssumptionStore(pool.Pool))

	// --- C5: skill registry ---
	devWatcherStore := postgres.NewDevWatcherStore(pool.Pool)
	registry := skills.New(logger)
	registry.Load(
		calendar.New(postgres.NewCalendarStore(pool.Pool), logger),
		devwatcher.New(devWatcherStore, logger),
		milestone.New(postgres.NewMilestoneStore(pool.Pool), logger),
		profile.New(postgres.NewProfileStore(pool.Pool), logger),
		taskmanager.New(postgres.NewTaskManagerStore(pool.Pool), logger),
		youtube.NewIntelligenceSkill(passthroughChannelResolver{}, assumptionTracker, logger),
		youtube.NewManagementSkill(passthroughChannelResolver{}, postgres.NewYouTubeManagementStore(pool.Pool), logger),
		youtube.NewStrategySkill(passthroughChannelResolver{}, assumptionTracker, logger),
	)
	registry.RegisterSubIntentDeriver(config.IntentCalendarQuery, calendar.DeriveSubIntent)
	registry.RegisterSubIntentDeriver(config.IntentDevWatcher, devwatcher.DeriveSubIntent)
	registry.RegisterSubIntentDeriver(config.IntentMilestoneManagement, milestone.DeriveSubIntent)
	registry.RegisterSubIntentDeriver(config.IntentProfileQuery, profile.DeriveSubIntent)
	registry.RegisterSubIntentDeriver(config.IntentTaskManagement, taskmanager.DeriveSubIntent)
	registry.RegisterSubIntentDeriver(config.IntentYouTubeIntelligence, youtube.DeriveIntelligenceSubIntent)
	registry.Initialize(ctx)
	defer registry.Cleanup(context.Background())

	// --- C6: trust model (constructed but not passed to any component;
	// no skill handler, the orchestrator or the scheduler consults it) ---
	_ = trust.New(postgres.NewTrustStore(pool.Pool), cfg.Trust, logger)

	// --- C9: priority queue ---
	queueStore := postgres.NewQueueStore(pool.Pool)
	podID := getEnv("POD_ID", "assistantd-local")
	if err := queue.CleanupStartupOrphans(ctx, queueStore, podID); err != nil {
		logger.Error("failed to recover startup orphans", "error", err)
	}

	// --- external memory store, backing C8's update_memory action and C13's recall ---
	qdrantClient, err := memory.NewQdrantClient(cfg.Qdrant.Host, cfg.Qdrant.Port, os.Getenv(cfg.Qdrant.APIKeyEnv), cfg.Qdrant.UseTLS)
	if err != nil {
		log.Fatalf("failed to connect to qdrant: %v", err)
	}
	memoryStore := memory.New(qdrantClient, nil, logger)
	if err := memoryStore.Initialize(ctx); err != nil {
		log.Fatalf("failed to initialize memory store: %v", err)
	}

	// --- C8: action executor. Its MessageSender (discord) and
	// FollowupScheduler (the heartbeat scheduler) are mutually dependent
	// collaborators built after the executor itself, then attached via
	// SetMessageSender/SetFollowupScheduler before anything dispatches. ---
	exec := executor.New(nil, memoryStore, nil, logger)

	queueCfg := &queue.Config{
		WorkerCount:             cfg.Queue.WorkerCount,
		MaxConcurrentTasks:      cfg.Queue.MaxConcurrentTasks,
		PollInterval:            cfg.Queue.PollInterval,
		PollIntervalJitter:      cfg.Queue.PollIntervalJitter,
		TaskTimeout:             cfg.Queue.TaskTimeout,
		GracefulShutdownTimeout: cfg.Queue.GracefulShutdownTimeout,
		OrphanDetectionInterval: cfg.Queue.OrphanDetectionInterval,
		OrphanThreshold:         cfg.Queue.OrphanThreshold,
		HeartbeatInterval:       cfg.Queue.HeartbeatInterval,
		RetryBaseDelay:          cfg.Queue.RetryBaseDelay,
		RetryMaxDelay:           cfg.Queue.RetryMaxDelay,
		RetryMaxAttempts:        cfg.Queue.RetryMaxAttempts,
	}
	workerPool := queue.NewWorkerPool(podID, queueStore, queueCfg, executor.NewQueueTaskExecutor(exec))
	if err := workerPool.Start(ctx); err != nil {
		log.Fatalf("failed to start queue worker pool: %v", err)
	}
	defer workerPool.Stop()

	// --- background retention sweep: old cost records + terminal queue tasks ---
	cleanupService := cleanup.NewService(cfg.Retention, costStore, queueStore, logger)
	cleanupService.Start(ctx)
	defer cleanupService.Stop()

	// --- dev-watcher commit poller: populates dev_commits so the skill has
	// something to read (no-op if no repositories are configured) ---
	ghClient := githubclient.New(os.Getenv(cfg.GitHub.TokenEnv), logger)
	ghPoller := githubclient.NewPoller(ghClient, devWatcherStore, cfg.GitHub, logger)
	ghPoller.Start(ctx)
	defer ghPoller.Stop()

	// --- C7: heartbeat scheduler ---
	heartbeatScheduler := scheduler.New(cfg.Scheduler, registry, exec, queueStore, cfg.Users, logger)
	exec.SetFollowupScheduler(heartbeatScheduler)
	heartbeatScheduler.SetUserIDs(userIDsFromProfiles(cfg.Users))
	heartbeatScheduler.Start(ctx)
	defer heartbeatScheduler.Stop()

	// --- C13: message orchestrator, fronted by Discord, gated by the rate limiter ---
	msgOrchestrator := orchestrator.New(intentRouter, inferenceBroker, registry, memoryStore, nil, nil, config.DefaultInferenceConfig(), logger)
	limiter := ratelimit.New(cfg.RateLimit)
	gatedHandler := newRateLimitedHandler(msgOrchestrator, limiter, logger)

	if cfg.Discord.Enabled {
		token := os.Getenv(cfg.Discord.TokenEnv)
		discordTransport, err := discord.New(token, gatedHandler, cfg.Discord, logger)
		if err != nil {
			log.Fatalf("failed to build discord transport: %v", err)
		}
		exec.SetMessageSender(discordTransport)
		if err := discordTransport.Open(); err != nil {
			log.Fatalf("failed to open discord session: %v", err)
		}
		defer discordTransport.Close()
		logger.Info("discord transport connected")
	}

	// --- out-of-process skill RPC surface (spec.md §6), plus health ---
	rpcServer := skillrpc.New(registry, 10*time.Second, logger)
	httpServer := &http.Server{Addr: *httpAddr, Handler: rpcServer.Handler()}
	go func() {
		logger.Info("http server listening", "addr", *httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
}

func userIDsFromProfiles(profiles []config.UserProfile) []string {
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, strconv.FormatInt(p.UserID, 10))
	}
	return ids
}
