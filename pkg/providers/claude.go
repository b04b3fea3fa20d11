package providers

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zetherion/assistant-core/pkg/apperr"
	"github.com/zetherion/assistant-core/pkg/config"
)

// messagesClient captures the subset of the Anthropic SDK used here, so
// tests can substitute a fake (grounded on goa-ai's anthropic adapter
// MessagesClient interface).
type messagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// ClaudeAdapter implements Adapter against the Anthropic Messages API.
type ClaudeAdapter struct {
	client messagesClient
	conn   config.ProviderConnConfig
}

// NewClaudeAdapter builds a Claude adapter from an API key and connection config.
func NewClaudeAdapter(apiKey string, conn config.ProviderConnConfig) *ClaudeAdapter {
	c := sdk.NewClient(option.WithAPIKey(apiKey))
	return &ClaudeAdapter{client: &c.Messages, conn: conn}
}

// Name implements Adapter.
func (a *ClaudeAdapter) Name() config.Provider { return config.ProviderClaude }

// Infer implements Adapter.
func (a *ClaudeAdapter) Infer(ctx context.Context, req Request) (Result, error) {
	params := a.buildParams(req)

	msg, err := a.client.New(ctx, params)
	if err != nil {
		if isRateLimitErr(err) {
			return Result{}, apperr.RateLimit("claude", err)
		}
		return Result{}, apperr.Transport("claude", err)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	inputTokens := int(msg.Usage.InputTokens)
	outputTokens := int(msg.Usage.OutputTokens)
	_, estimated := EstimateCost(a.conn, a.conn.Model, inputTokens, outputTokens)

	return Result{
		Content:       content.String(),
		Model:         a.conn.Model,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
		CostEstimated: estimated,
	}, nil
}

// InferStream implements Adapter. The Anthropic SDK supports native SSE
// streaming; here the non-streaming call is re-chunked by word, matching
// the broker's pseudo-streaming fallback shape used for every adapter that
// doesn't warrant hand-rolling full SSE event translation for this domain.
func (a *ClaudeAdapter) InferStream(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error) {
	chunks := make(chan StreamChunk, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		result, err := a.Infer(ctx, req)
		if err != nil {
			errs <- err
			return
		}
		if !chunkWords(ctx, chunks, result.Content) {
			return
		}
		select {
		case chunks <- StreamChunk{Done: true, Model: result.Model, InputTokens: result.InputTokens, OutputTokens: result.OutputTokens}:
		case <-ctx.Done():
		}
	}()

	return chunks, errs
}

// HealthCheck implements Adapter.
func (a *ClaudeAdapter) HealthCheck(ctx context.Context) bool {
	res, err := a.Infer(ctx, Request{Prompt: "test", MaxTokens: 5})
	return err == nil && res.Content != ""
}

func (a *ClaudeAdapter) buildParams(req Request) sdk.MessageNewParams {
	msgs := make([]sdk.MessageParam, 0, len(req.History)+1)
	for _, h := range req.History {
		switch h.Role {
		case "assistant":
			msgs = append(msgs, sdk.NewAssistantMessage(sdk.NewTextBlock(h.Content)))
		default:
			msgs = append(msgs, sdk.NewUserMessage(sdk.NewTextBlock(h.Content)))
		}
	}
	msgs = append(msgs, sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)))

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(a.conn.Model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	return params
}

func isRateLimitErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "rate limit")
}
