package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/apperr"
	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/costs"
	"github.com/zetherion/assistant-core/pkg/providers"
)

type stubAdapter struct {
	name       config.Provider
	result     providers.Result
	err        error
	streamErr  error
	chunks     []providers.StreamChunk
}

func (s *stubAdapter) Name() config.Provider { return s.name }
func (s *stubAdapter) Infer(_ context.Context, _ providers.Request) (providers.Result, error) {
	return s.result, s.err
}
func (s *stubAdapter) InferStream(_ context.Context, _ providers.Request) (<-chan providers.StreamChunk, <-chan error) {
	chunks := make(chan providers.StreamChunk, len(s.chunks)+1)
	errs := make(chan error, 1)
	for _, c := range s.chunks {
		chunks <- c
	}
	close(chunks)
	if s.streamErr != nil {
		errs <- s.streamErr
	}
	close(errs)
	return chunks, errs
}
func (s *stubAdapter) HealthCheck(_ context.Context) bool { return s.err == nil }

type fakeRecorder struct {
	records []costs.Record
}

func (f *fakeRecorder) Record(_ context.Context, rec costs.Record) {
	f.records = append(f.records, rec)
}

func testMatrix() *config.CapabilityMatrix {
	return config.GetBuiltinCapabilityMatrix()
}

func TestInferUsesPrimaryProvider(t *testing.T) {
	claude := &stubAdapter{name: config.ProviderClaude, result: providers.Result{Content: "hi", Model: "claude-sonnet-4"}}
	adapters := map[config.Provider]providers.Adapter{config.ProviderClaude: claude}
	conns := map[config.Provider]config.ProviderConnConfig{config.ProviderClaude: {Model: "claude-sonnet-4"}}
	rec := &fakeRecorder{}
	b := New(testMatrix(), adapters, conns, rec, "llama3.1:8b", nil)

	res, provider, err := b.Infer(context.Background(), providers.Request{TaskType: config.TaskCodeGeneration})
	require.NoError(t, err)
	assert.Equal(t, config.ProviderClaude, provider)
	assert.Equal(t, "hi", res.Content)
	assert.Len(t, rec.records, 1)
	assert.True(t, rec.records[0].Success)
}

func TestInferFallsBackOnFailure(t *testing.T) {
	claude := &stubAdapter{name: config.ProviderClaude, err: apperr.Transport("claude", errors.New("down"))}
	openai := &stubAdapter{name: config.ProviderOpenAI, result: providers.Result{Content: "from openai", Model: "gpt-5"}}
	adapters := map[config.Provider]providers.Adapter{config.ProviderClaude: claude, config.ProviderOpenAI: openai}
	conns := map[config.Provider]config.ProviderConnConfig{
		config.ProviderClaude: {Model: "claude-sonnet-4"},
		config.ProviderOpenAI: {Model: "gpt-5"},
	}
	rec := &fakeRecorder{}
	b := New(testMatrix(), adapters, conns, rec, "llama3.1:8b", nil)

	res, provider, err := b.Infer(context.Background(), providers.Request{TaskType: config.TaskCodeGeneration})
	require.NoError(t, err)
	assert.Equal(t, config.ProviderOpenAI, provider)
	assert.Equal(t, "from openai", res.Content)

	require.Len(t, rec.records, 2)
	assert.False(t, rec.records[0].Success)
	assert.True(t, rec.records[1].Success)
}

func TestInferAuthFailureRemovesProviderFromAvailable(t *testing.T) {
	claude := &stubAdapter{name: config.ProviderClaude, err: apperr.Auth("claude", errors.New("bad key"))}
	openai := &stubAdapter{name: config.ProviderOpenAI, result: providers.Result{Content: "ok", Model: "gpt-5"}}
	adapters := map[config.Provider]providers.Adapter{config.ProviderClaude: claude, config.ProviderOpenAI: openai}
	conns := map[config.Provider]config.ProviderConnConfig{
		config.ProviderClaude: {Model: "claude-sonnet-4"},
		config.ProviderOpenAI: {Model: "gpt-5"},
	}
	b := New(testMatrix(), adapters, conns, nil, "llama3.1:8b", nil)

	_, _, err := b.Infer(context.Background(), providers.Request{TaskType: config.TaskCodeGeneration})
	require.NoError(t, err)
	assert.False(t, b.availableSnapshot()[config.ProviderClaude])
}

func TestInferAllProvidersFailReturnsError(t *testing.T) {
	claude := &stubAdapter{name: config.ProviderClaude, err: errors.New("down")}
	adapters := map[config.Provider]providers.Adapter{config.ProviderClaude: claude}
	b := New(testMatrix(), adapters, nil, nil, "llama3.1:8b", nil)

	_, _, err := b.Infer(context.Background(), providers.Request{TaskType: config.TaskCodeGeneration})
	require.Error(t, err)
}

func TestInferNoProvidersAvailableReturnsCapacityError(t *testing.T) {
	b := New(testMatrix(), map[config.Provider]providers.Adapter{}, nil, nil, "", nil)

	_, _, err := b.Infer(context.Background(), providers.Request{TaskType: config.TaskCodeGeneration})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindCapacity))
}

func TestInferStreamPassesThroughChunks(t *testing.T) {
	claude := &stubAdapter{name: config.ProviderClaude, chunks: []providers.StreamChunk{
		{Content: "hi "}, {Content: "there", Done: true, Model: "claude-sonnet-4"},
	}}
	adapters := map[config.Provider]providers.Adapter{config.ProviderClaude: claude}
	conns := map[config.Provider]config.ProviderConnConfig{config.ProviderClaude: {Model: "claude-sonnet-4"}}
	rec := &fakeRecorder{}
	b := New(testMatrix(), adapters, conns, rec, "llama3.1:8b", nil)

	chunks, errs := b.InferStream(context.Background(), providers.Request{TaskType: config.TaskCodeGeneration})

	var got []string
	for c := range chunks {
		got = append(got, c.Content)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, []string{"hi ", "there"}, got)
}

func TestInferStreamFallsBackOnMidStreamFailure(t *testing.T) {
	claude := &stubAdapter{name: config.ProviderClaude, chunks: []providers.StreamChunk{{Content: "partial"}}, streamErr: apperr.Transport("claude", errors.New("disconnected"))}
	openai := &stubAdapter{name: config.ProviderOpenAI, result: providers.Result{Content: "full answer", Model: "gpt-5"}}
	adapters := map[config.Provider]providers.Adapter{config.ProviderClaude: claude, config.ProviderOpenAI: openai}
	conns := map[config.Provider]config.ProviderConnConfig{
		config.ProviderClaude: {Model: "claude-sonnet-4"},
		config.ProviderOpenAI: {Model: "gpt-5"},
	}
	b := New(testMatrix(), adapters, conns, nil, "llama3.1:8b", nil)

	chunks, errs := b.InferStream(context.Background(), providers.Request{TaskType: config.TaskCodeGeneration})

	var content string
	done := false
	for c := range chunks {
		content += c.Content
		if c.Done {
			done = true
		}
	}
	require.NoError(t, <-errs)
	assert.True(t, done)
	assert.Equal(t, "partialfull answer", content)
}

func TestHealthCheckDelegatesToAdapter(t *testing.T) {
	claude := &stubAdapter{name: config.ProviderClaude}
	b := New(testMatrix(), map[config.Provider]providers.Adapter{config.ProviderClaude: claude}, nil, nil, "", nil)
	assert.True(t, b.HealthCheck(context.Background(), config.ProviderClaude))
	assert.False(t, b.HealthCheck(context.Background(), config.ProviderOpenAI))
}
