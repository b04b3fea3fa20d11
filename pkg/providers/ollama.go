package providers

import (
	"context"
	"strings"

	"github.com/zetherion/assistant-core/internal/providerpb"
	"github.com/zetherion/assistant-core/pkg/apperr"
	"github.com/zetherion/assistant-core/pkg/config"
)

// sidecarClient captures the subset of providerpb.LocalModelClient used
// here, so tests can substitute a fake sidecar.
type sidecarClient interface {
	Generate(ctx context.Context, req *providerpb.GenerateRequest) (<-chan *providerpb.GenerateResponse, error)
	Health(ctx context.Context) (bool, error)
}

// OllamaAdapter implements Adapter against the local-model gRPC sidecar
// fronting Ollama.
type OllamaAdapter struct {
	client sidecarClient
	conn   config.ProviderConnConfig
}

// NewOllamaAdapter builds an Ollama adapter from an already-dialed sidecar client.
func NewOllamaAdapter(client *providerpb.LocalModelClient, conn config.ProviderConnConfig) *OllamaAdapter {
	return &OllamaAdapter{client: client, conn: conn}
}

// Name implements Adapter.
func (a *OllamaAdapter) Name() config.Provider { return config.ProviderOllama }

// Infer implements Adapter by draining the sidecar's streaming response into
// a single Result; Ollama has no cost since it runs on local hardware.
func (a *OllamaAdapter) Infer(ctx context.Context, req Request) (Result, error) {
	chunks, errs := a.InferStream(ctx, req)

	var content strings.Builder
	var model string
	var inputTokens, outputTokens int

	for chunks != nil || errs != nil {
		select {
		case c, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			content.WriteString(c.Content)
			if c.Done {
				model = c.Model
				inputTokens = c.InputTokens
				outputTokens = c.OutputTokens
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return Result{}, err
			}
		}
	}

	return Result{
		Content:      content.String(),
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		// CostEstimated stays false: local inference has no dollar cost.
	}, nil
}

// InferStream implements Adapter using the sidecar's native gRPC streaming,
// unlike the cloud adapters which simulate streaming by re-chunking a full
// response.
func (a *OllamaAdapter) InferStream(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error) {
	chunks := make(chan StreamChunk, 32)
	errs := make(chan error, 1)

	pbReq := a.buildRequest(req)

	sidecarChunks, err := a.client.Generate(ctx, pbReq)
	if err != nil {
		go func() {
			defer close(chunks)
			defer close(errs)
			errs <- apperr.Transport("ollama", err)
		}()
		return chunks, errs
	}

	go func() {
		defer close(chunks)
		defer close(errs)
		for resp := range sidecarChunks {
			if resp.Error != "" {
				errs <- apperr.Transport("ollama", errString(resp.Error))
				return
			}
			out := StreamChunk{Content: resp.Content, Done: resp.IsFinal}
			if resp.IsFinal {
				out.Model = resp.Model
				out.InputTokens = resp.InputTokens
				out.OutputTokens = resp.OutputTokens
			}
			select {
			case chunks <- out:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, errs
}

// HealthCheck implements Adapter.
func (a *OllamaAdapter) HealthCheck(ctx context.Context) bool {
	ready, err := a.client.Health(ctx)
	return err == nil && ready
}

func (a *OllamaAdapter) buildRequest(req Request) *providerpb.GenerateRequest {
	msgs := make([]providerpb.GenerateMessage, 0, len(req.History))
	for _, h := range req.History {
		msgs = append(msgs, providerpb.GenerateMessage{Role: h.Role, Content: h.Content})
	}
	return &providerpb.GenerateRequest{
		Model:        a.conn.Model,
		SystemPrompt: req.SystemPrompt,
		Messages:     msgs,
		Prompt:       req.Prompt,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	}
}

type errString string

func (e errString) Error() string { return string(e) }
