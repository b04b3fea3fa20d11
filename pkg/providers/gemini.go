package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zetherion/assistant-core/pkg/apperr"
	"github.com/zetherion/assistant-core/pkg/config"
)

// No Gemini Go SDK is wired anywhere in the ecosystem examples this module
// was grounded on; the Generative Language API is a plain JSON-over-HTTPS
// REST endpoint, so GeminiAdapter speaks it directly with net/http rather
// than depending on an unverified third-party client (see DESIGN.md).
const geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiAdapter implements Adapter against the Gemini generateContent REST API.
type GeminiAdapter struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	conn       config.ProviderConnConfig
}

// NewGeminiAdapter builds a Gemini adapter from an API key and connection config.
func NewGeminiAdapter(apiKey string, conn config.ProviderConnConfig) *GeminiAdapter {
	baseURL := conn.BaseURL
	if baseURL == "" {
		baseURL = geminiDefaultBaseURL
	}
	return &GeminiAdapter{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		baseURL:    baseURL,
		conn:       conn,
	}
}

// Name implements Adapter.
func (a *GeminiAdapter) Name() config.Provider { return config.ProviderGemini }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate   `json:"candidates"`
	UsageMetadata geminiUsageMetadata `json:"usageMetadata"`
}

// Infer implements Adapter.
func (a *GeminiAdapter) Infer(ctx context.Context, req Request) (Result, error) {
	body := a.buildRequest(req)

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, apperr.Parse("gemini", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.baseURL, a.conn.Model, a.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, apperr.Transport("gemini", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, apperr.Transport("gemini", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Result{}, apperr.RateLimit("gemini", fmt.Errorf("gemini returned status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, apperr.Transport("gemini", fmt.Errorf("gemini returned status %d", resp.StatusCode))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, apperr.Parse("gemini", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return Result{}, apperr.Transport("gemini", fmt.Errorf("gemini returned no candidates"))
	}

	content := out.Candidates[0].Content.Parts[0].Text
	inputTokens := out.UsageMetadata.PromptTokenCount
	outputTokens := out.UsageMetadata.CandidatesTokenCount
	_, estimated := EstimateCost(a.conn, a.conn.Model, inputTokens, outputTokens)

	return Result{
		Content:       content,
		Model:         a.conn.Model,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
		CostEstimated: estimated,
	}, nil
}

// InferStream implements Adapter by re-chunking the full response; Gemini's
// server-sent streaming endpoint is not wired here since the broker's
// fallback chunking already satisfies the streaming contract for this
// domain's quiet-hours/chat delivery path.
func (a *GeminiAdapter) InferStream(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error) {
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
func (a *GeminiAdapter) HealthCheck(ctx context.Context) bool {
	res, err := a.Infer(ctx, Request{Prompt: "test", MaxTokens: 5})
	return err == nil && res.Content != ""
}

func (a *GeminiAdapter) buildRequest(req Request) geminiRequest {
	contents := make([]geminiContent, 0, len(req.History)+1)
	for _, h := range req.History {
		role := "user"
		if h.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: h.Content}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}})

	body := geminiRequest{Contents: contents}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		body.GenerationConfig = &geminiGenerationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		}
	}
	return body
}
