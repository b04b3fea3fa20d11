package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/zetherion/assistant-core/pkg/apperr"
	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/providers"
)

// Router is the two-stage cascade intent classifier.
type Router struct {
	primary  providers.Adapter
	fallback providers.Adapter // nil if no fallback backend configured
	log      *slog.Logger
}

// New builds a Router. fallback may be nil.
func New(primary, fallback providers.Adapter, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{primary: primary, fallback: fallback, log: log.With("component", "router")}
}

// Classify maps free-text input to a RoutingDecision. It never returns an
// error: cascade failures degrade to a safe default rather than propagating.
func (r *Router) Classify(ctx context.Context, text string) RoutingDecision {
	decision, err := r.classifyWith(ctx, r.primary, text)
	if err == nil {
		return decision
	}
	r.log.Warn("primary classifier failed", "error", err)

	if !isRetryable(err) {
		r.log.Error("unexpected classifier failure", "error", err)
		return panicDefault
	}

	if r.fallback == nil {
		return safeDefault
	}

	decision, err = r.classifyWith(ctx, r.fallback, text)
	if err != nil {
		r.log.Warn("fallback classifier failed", "error", err)
		if !isRetryable(err) {
			return panicDefault
		}
		return safeDefault
	}
	return decision
}

// GenerateSimpleResponse issues a direct, non-classifying completion against
// the primary backend, falling back once on failure.
func (r *Router) GenerateSimpleResponse(ctx context.Context, text string) (string, error) {
	res, err := r.primary.Infer(ctx, providers.Request{Prompt: text})
	if err == nil {
		return res.Content, nil
	}
	if r.fallback == nil {
		return "", err
	}
	res, err = r.fallback.Infer(ctx, providers.Request{Prompt: text})
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// HealthCheck issues a trivial generation against the primary backend.
func (r *Router) HealthCheck(ctx context.Context) bool {
	return r.primary.HealthCheck(ctx)
}

func (r *Router) classifyWith(ctx context.Context, backend providers.Adapter, text string) (RoutingDecision, error) {
	if backend == nil {
		return RoutingDecision{}, apperr.Transport("router", errNoBackend)
	}
	res, err := backend.Infer(ctx, providers.Request{
		Prompt:       text,
		TaskType:     config.TaskClassification,
		SystemPrompt: systemPrompt,
		MaxTokens:    200,
	})
	if err != nil {
		return RoutingDecision{}, err
	}
	return parseDecision(res.Content)
}

type rawDecision struct {
	Intent     string   `json:"intent"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

func parseDecision(raw string) (RoutingDecision, error) {
	cleaned := stripFences(raw)

	var parsed rawDecision
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return RoutingDecision{}, apperr.Parse("router", err)
	}

	intent := config.MessageIntent(strings.ToUpper(strings.TrimSpace(parsed.Intent)))
	if !intent.IsValid() {
		return RoutingDecision{}, apperr.Parse("router", errInvalidIntent)
	}

	confidence := 0.8
	if parsed.Confidence != nil {
		confidence = clamp01(*parsed.Confidence)
	}

	decision := RoutingDecision{
		Intent:     intent,
		Confidence: confidence,
		Reasoning:  parsed.Reasoning,
	}
	decision.UseComplexModel = decision.Intent == config.IntentComplexTask && decision.Confidence >= 0.7
	return decision, nil
}

// stripFences removes a leading ``` or ```json fence and trailing ``` if
// present, tolerating the router prompt's output being fenced anyway.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func isRetryable(err error) bool {
	return apperr.Is(err, apperr.KindTransport) || apperr.Is(err, apperr.KindRateLimit) || apperr.Is(err, apperr.KindParse)
}

var errNoBackend = errString("router: no backend configured")
var errInvalidIntent = errString("router: missing or invalid intent field")

type errString string

func (e errString) Error() string { return string(e) }
