package providers

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zetherion/assistant-core/pkg/apperr"
	"github.com/zetherion/assistant-core/pkg/config"
)

var errEmptyCompletion = errors.New("openai: completion returned no choices")

// chatClient captures the subset of the OpenAI SDK used here.
type chatClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIAdapter implements Adapter against the Chat Completions API.
type OpenAIAdapter struct {
	client chatClient
	conn   config.ProviderConnConfig
}

// NewOpenAIAdapter builds an OpenAI adapter from an API key and connection config.
func NewOpenAIAdapter(apiKey string, conn config.ProviderConnConfig) *OpenAIAdapter {
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIAdapter{client: &c.Chat.Completions, conn: conn}
}

// Name implements Adapter.
func (a *OpenAIAdapter) Name() config.Provider { return config.ProviderOpenAI }

// Infer implements Adapter.
func (a *OpenAIAdapter) Infer(ctx context.Context, req Request) (Result, error) {
	params := a.buildParams(req)

	completion, err := a.client.New(ctx, params)
	if err != nil {
		if isRateLimitErr(err) {
			return Result{}, apperr.RateLimit("openai", err)
		}
		return Result{}, apperr.Transport("openai", err)
	}
	if len(completion.Choices) == 0 {
		return Result{}, apperr.Transport("openai", errEmptyCompletion)
	}

	content := completion.Choices[0].Message.Content
	inputTokens := int(completion.Usage.PromptTokens)
	outputTokens := int(completion.Usage.CompletionTokens)
	_, estimated := EstimateCost(a.conn, a.conn.Model, inputTokens, outputTokens)

	return Result{
		Content:       content,
		Model:         a.conn.Model,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
		CostEstimated: estimated,
	}, nil
}

// InferStream implements Adapter by re-chunking the full completion, matching
// the shape used across adapters that don't warrant hand-rolled SSE decoding
// for this domain.
func (a *OpenAIAdapter) InferStream(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error) {
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
func (a *OpenAIAdapter) HealthCheck(ctx context.Context) bool {
	res, err := a.Infer(ctx, Request{Prompt: "test", MaxTokens: 5})
	return err == nil && res.Content != ""
}

func (a *OpenAIAdapter) buildParams(req Request) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	for _, h := range req.History {
		switch h.Role {
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(h.Content))
		default:
			msgs = append(msgs, openai.UserMessage(h.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    a.conn.Model,
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	return params
}

