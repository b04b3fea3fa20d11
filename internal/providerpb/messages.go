package providerpb

// GenerateMessage is one turn of conversation history sent to the sidecar.
type GenerateMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest asks the sidecar to run a local model.
type GenerateRequest struct {
	Model        string            `json:"model"`
	SystemPrompt string            `json:"system_prompt,omitempty"`
	Messages     []GenerateMessage `json:"messages"`
	Prompt       string            `json:"prompt"`
	MaxTokens    int               `json:"max_tokens,omitempty"`
	Temperature  float64           `json:"temperature,omitempty"`
}

// GenerateResponse is one streamed chunk of the sidecar's reply. The final
// chunk in a stream sets IsFinal and carries token usage.
type GenerateResponse struct {
	Content      string `json:"content"`
	IsFinal      bool   `json:"is_final"`
	Model        string `json:"model,omitempty"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HealthRequest is an empty health-check request.
type HealthRequest struct{}

// HealthResponse reports sidecar readiness.
type HealthResponse struct {
	Ready bool `json:"ready"`
}
