package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/internal/providerpb"
	"github.com/zetherion/assistant-core/pkg/config"
)

type fakeSidecarClient struct {
	chunks []*providerpb.GenerateResponse
	genErr error
	ready  bool
}

func (f *fakeSidecarClient) Generate(_ context.Context, _ *providerpb.GenerateRequest) (<-chan *providerpb.GenerateResponse, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	ch := make(chan *providerpb.GenerateResponse, len(f.chunks))
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (f *fakeSidecarClient) Health(_ context.Context) (bool, error) {
	return f.ready, nil
}

func TestOllamaAdapterInferAssemblesChunks(t *testing.T) {
	fake := &fakeSidecarClient{chunks: []*providerpb.GenerateResponse{
		{Content: "hello "},
		{Content: "world", IsFinal: true, Model: "llama3.1:8b", InputTokens: 3, OutputTokens: 2},
	}}
	a := &OllamaAdapter{client: fake, conn: config.ProviderConnConfig{Model: "llama3.1:8b"}}

	res, err := a.Infer(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Content)
	assert.Equal(t, "llama3.1:8b", res.Model)
	assert.Equal(t, 3, res.InputTokens)
	assert.Equal(t, 2, res.OutputTokens)
	assert.False(t, res.CostEstimated)
}

func TestOllamaAdapterInferStreamPropagatesSidecarError(t *testing.T) {
	fake := &fakeSidecarClient{chunks: []*providerpb.GenerateResponse{
		{Error: "model not loaded"},
	}}
	a := &OllamaAdapter{client: fake, conn: config.ProviderConnConfig{Model: "llama3.1:8b"}}

	_, errs := a.InferStream(context.Background(), Request{Prompt: "hi"})
	err := <-errs
	require.Error(t, err)
}

func TestOllamaAdapterHealthCheck(t *testing.T) {
	a := &OllamaAdapter{client: &fakeSidecarClient{ready: true}}
	assert.True(t, a.HealthCheck(context.Background()))

	a2 := &OllamaAdapter{client: &fakeSidecarClient{ready: false}}
	assert.False(t, a2.HealthCheck(context.Background()))
}

func TestOllamaAdapterName(t *testing.T) {
	a := &OllamaAdapter{}
	assert.Equal(t, config.ProviderOllama, a.Name())
}
