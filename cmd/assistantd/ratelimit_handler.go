package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zetherion/assistant-core/pkg/orchestrator"
	"github.com/zetherion/assistant-core/pkg/ratelimit"
)

// rateLimitedHandler gates inbound chat messages through the Rate
// Limiter (C10) before delegating to the Message Orchestrator (C13),
// implementing discord.MessageHandler so the transport never needs to
// know rate limiting exists.
type rateLimitedHandler struct {
	inner   *orchestrator.Orchestrator
	limiter *ratelimit.Limiter
	log     *slog.Logger
}

func newRateLimitedHandler(inner *orchestrator.Orchestrator, limiter *ratelimit.Limiter, log *slog.Logger) *rateLimitedHandler {
	if log == nil {
		log = slog.Default()
	}
	return &rateLimitedHandler{inner: inner, limiter: limiter, log: log.With("component", "rate_limited_handler")}
}

// Handle implements discord.MessageHandler.
func (h *rateLimitedHandler) Handle(ctx context.Context, msg orchestrator.Message) (string, error) {
	result := h.limiter.Check(msg.UserID)
	if !result.Allowed {
		h.log.Warn("rate limit denied message", "user_id", msg.UserID, "reason", result.Reason)
		return fmt.Sprintf("%s (retry after %s)", result.Reason, result.RetryAfter), nil
	}
	return h.inner.Handle(ctx, msg)
}
