// Package broker implements the Inference Broker (C3): a capability-aware
// multi-provider dispatcher that selects the cheapest provider capable of a
// typed task, falls back across providers on failure, streams tokens, and
// records cost via pkg/costs.
package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/zetherion/assistant-core/pkg/apperr"
	"github.com/zetherion/assistant-core/pkg/capability"
	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/costs"
	"github.com/zetherion/assistant-core/pkg/providers"
	"github.com/zetherion/assistant-core/pkg/retry"
)

// Recorder is the subset of costs.Tracker the broker depends on.
type Recorder interface {
	Record(ctx context.Context, rec costs.Record)
}

// Broker is the Inference Broker.
type Broker struct {
	matrix     *config.CapabilityMatrix
	adapters   map[config.Provider]providers.Adapter
	conns      map[config.Provider]config.ProviderConnConfig
	recorder   Recorder
	localModel string
	log        *slog.Logger

	mu         sync.RWMutex
	available  map[config.Provider]bool
	forceLocal map[config.TaskType]bool
	forceCloud map[config.TaskType]bool
}

// New builds a Broker. adapters and conns must share the same key set; any
// provider missing an adapter is treated as permanently unavailable.
func New(matrix *config.CapabilityMatrix, adapters map[config.Provider]providers.Adapter, conns map[config.Provider]config.ProviderConnConfig, recorder Recorder, localModel string, log *slog.Logger) *Broker {
	if log == nil {
		log = slog.Default()
	}
	available := make(map[config.Provider]bool, len(adapters))
	for p := range adapters {
		available[p] = true
	}
	return &Broker{
		matrix:     matrix,
		adapters:   adapters,
		conns:      conns,
		recorder:   recorder,
		localModel: localModel,
		log:        log.With("component", "broker"),
		available:  available,
		forceLocal: make(map[config.TaskType]bool),
		forceCloud: make(map[config.TaskType]bool),
	}
}

// SetForceLocal overrides routing so task always prefers OLLAMA when available.
func (b *Broker) SetForceLocal(task config.TaskType, force bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forceLocal[task] = force
}

// SetForceCloud overrides routing so task never considers OLLAMA.
func (b *Broker) SetForceCloud(task config.TaskType, force bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forceCloud[task] = force
}

// RefreshKey marks provider available or unavailable after an external
// secret store rotates its API key (spec.md §4.3 "dynamic key refresh").
func (b *Broker) RefreshKey(provider config.Provider, available bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.available[provider] = available
}

func (b *Broker) availableSnapshot() map[config.Provider]bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[config.Provider]bool, len(b.available))
	for p, ok := range b.available {
		out[p] = ok
	}
	return out
}

func (b *Broker) overridesSnapshot(task config.TaskType) (forceLocal, forceCloud bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.forceLocal[task], b.forceCloud[task]
}

var errAllProvidersFailed = errors.New("all providers failed")

// Infer dispatches req, applying cross-provider fallback on failure and
// recording the outcome via the Recorder (spec.md §4.3 steps 1-5).
func (b *Broker) Infer(ctx context.Context, req providers.Request) (providers.Result, config.Provider, error) {
	start := time.Now()

	provider, err := b.selectProvider(req.TaskType)
	if err != nil {
		return providers.Result{}, "", apperr.Capacity("broker", err)
	}

	result, usedProvider, err := b.inferWithFallback(ctx, provider, req, start)
	if err != nil {
		return providers.Result{}, "", err
	}
	return result, usedProvider, nil
}

func (b *Broker) selectProvider(task config.TaskType) (config.Provider, error) {
	forceLocal, forceCloud := b.overridesSnapshot(task)
	var forceLocalMap, forceCloudMap map[config.TaskType]bool
	if forceLocal {
		forceLocalMap = map[config.TaskType]bool{task: true}
	}
	if forceCloud {
		forceCloudMap = map[config.TaskType]bool{task: true}
	}
	return capability.ProviderForTask(b.matrix, task, b.availableSnapshot(), b.localModel, forceLocalMap, forceCloudMap)
}

// inferWithFallback invokes provider first, then walks config.PreferenceOrder
// skipping providers already tried or explicitly excluded, until one
// succeeds or all are exhausted.
func (b *Broker) inferWithFallback(ctx context.Context, provider config.Provider, req providers.Request, start time.Time, excluded ...config.Provider) (providers.Result, config.Provider, error) {
	tried := make(map[config.Provider]bool, len(excluded))
	for _, p := range excluded {
		tried[p] = true
	}
	candidates := append([]config.Provider{provider}, config.PreferenceOrder...)

	for _, p := range candidates {
		if tried[p] {
			continue
		}
		tried[p] = true

		adapter, ok := b.adapters[p]
		if !ok || !b.availableSnapshot()[p] {
			continue
		}

		var result providers.Result
		err := retry.Do(ctx, retry.Options{MaxRetries: 2, InitialDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second}, func(ctx context.Context) error {
			r, err := adapter.Infer(ctx, req)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
		latency := time.Since(start).Milliseconds()
		if err == nil {
			b.recordSuccess(req, p, result, latency)
			return result, p, nil
		}

		b.handleFailure(req, p, err, latency)
		if apperr.Is(err, apperr.KindAuth) {
			b.RefreshKey(p, false)
		}
	}

	return providers.Result{}, "", apperr.Transport("broker", errAllProvidersFailed)
}

func (b *Broker) recordSuccess(req providers.Request, provider config.Provider, result providers.Result, latencyMS int64) {
	if b.recorder == nil {
		return
	}
	cost, estimated := providers.EstimateCost(b.conns[provider], result.Model, result.InputTokens, result.OutputTokens)
	b.recorder.Record(context.Background(), costs.Record{
		Provider:      provider,
		Model:         result.Model,
		TokensIn:      result.InputTokens,
		TokensOut:     result.OutputTokens,
		CostUSD:       cost,
		CostEstimated: estimated || result.CostEstimated,
		TaskType:      req.TaskType,
		LatencyMS:     latencyMS,
		Success:       true,
	})
}

func (b *Broker) handleFailure(req providers.Request, provider config.Provider, err error, latencyMS int64) {
	b.log.Warn("provider call failed", "provider", provider, "error", err)
	if b.recorder == nil {
		return
	}
	b.recorder.Record(context.Background(), costs.Record{
		Provider:     provider,
		TaskType:     req.TaskType,
		LatencyMS:    latencyMS,
		RateLimitHit: apperr.Is(err, apperr.KindRateLimit),
		Success:      false,
		Error:        err.Error(),
	})
}

// HealthCheck reports whether provider's adapter is healthy.
func (b *Broker) HealthCheck(ctx context.Context, provider config.Provider) bool {
	adapter, ok := b.adapters[provider]
	if !ok {
		return false
	}
	return adapter.HealthCheck(ctx)
}
