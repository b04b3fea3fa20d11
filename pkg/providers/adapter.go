// Package providers implements the per-provider inference adapters behind
// the Inference Broker (C3): one Adapter per Provider (Claude, OpenAI,
// Gemini, Ollama), each translating the broker's provider-agnostic request
// into that vendor's SDK/HTTP call and streaming response shape.
package providers

import (
	"context"

	"github.com/zetherion/assistant-core/pkg/config"
)

// Message is a provider-agnostic chat history entry. Role is normalized to
// {user, assistant, system} regardless of how the underlying provider
// names its roles.
type Message struct {
	Role    string
	Content string
}

// Request is the provider-agnostic inference request (spec.md §3
// InferenceRequest).
type Request struct {
	Prompt       string
	TaskType     config.TaskType
	SystemPrompt string
	History      []Message
	MaxTokens    int
	Temperature  float64
}

// Result is the provider-agnostic inference result (spec.md §3 InferenceResult).
type Result struct {
	Content       string
	Model         string
	InputTokens   int
	OutputTokens  int
	CostEstimated bool
}

// StreamChunk is one piece of a streaming response (spec.md §3 StreamChunk).
type StreamChunk struct {
	Content string
	Done    bool

	// Populated only on the final chunk (Done=true).
	Model        string
	InputTokens  int
	OutputTokens int
}

// Adapter is the contract every provider implementation satisfies. The
// broker never branches on provider identity beyond selecting which
// Adapter to call.
type Adapter interface {
	// Name identifies which Provider this adapter implements.
	Name() config.Provider

	// Infer performs a single non-streaming completion.
	Infer(ctx context.Context, req Request) (Result, error)

	// InferStream performs a streaming completion. Implementations that
	// don't natively stream (Gemini) simulate it by chunking the full
	// response on whitespace boundaries before the final chunk.
	InferStream(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error)

	// HealthCheck issues a trivial generation and reports whether the
	// provider responded with non-empty content.
	HealthCheck(ctx context.Context) bool
}

// chunkWords splits s on whitespace and emits it as a sequence of
// StreamChunks, used by adapters that don't natively stream (Gemini) and
// by the broker's mid-stream-failure fallback re-chunking (spec.md §4.3).
func chunkWords(ctx context.Context, ch chan<- StreamChunk, s string) bool {
	start := 0
	inWord := false
	emit := func(word string) bool {
		select {
		case ch <- StreamChunk{Content: word}:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for i, r := range s {
		isSpace := r == ' ' || r == '\n' || r == '\t'
		if !isSpace && !inWord {
			start = i
			inWord = true
		}
		if isSpace && inWord {
			if !emit(s[start:i] + " ") {
				return false
			}
			inWord = false
		}
	}
	if inWord {
		if !emit(s[start:]) {
			return false
		}
	}
	return true
}
