package providers

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/apperr"
	"github.com/zetherion/assistant-core/pkg/config"
)

type fakeMessagesClient struct {
	resp *sdk.Message
	err  error
}

func (f *fakeMessagesClient) New(_ context.Context, _ sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	return f.resp, f.err
}

func TestClaudeAdapterInferSuccess(t *testing.T) {
	fake := &fakeMessagesClient{
		resp: &sdk.Message{
			Content: []sdk.ContentBlockUnion{{Type: "text", Text: "hello there"}},
			Usage:   sdk.Usage{InputTokens: 10, OutputTokens: 5},
		},
	}
	a := &ClaudeAdapter{client: fake, conn: config.ProviderConnConfig{Model: "claude-sonnet-4"}}

	res, err := a.Infer(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello there", res.Content)
	assert.Equal(t, 10, res.InputTokens)
	assert.Equal(t, 5, res.OutputTokens)
	assert.True(t, res.CostEstimated)
}

func TestClaudeAdapterInferRateLimited(t *testing.T) {
	fake := &fakeMessagesClient{err: errors.New("rate limit exceeded")}
	a := &ClaudeAdapter{client: fake, conn: config.ProviderConnConfig{Model: "claude-sonnet-4"}}

	_, err := a.Infer(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindRateLimit))
}

func TestClaudeAdapterInferTransportError(t *testing.T) {
	fake := &fakeMessagesClient{err: errors.New("connection refused")}
	a := &ClaudeAdapter{client: fake, conn: config.ProviderConnConfig{Model: "claude-sonnet-4"}}

	_, err := a.Infer(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindTransport))
}

func TestClaudeAdapterInferStreamChunksWords(t *testing.T) {
	fake := &fakeMessagesClient{
		resp: &sdk.Message{
			Content: []sdk.ContentBlockUnion{{Type: "text", Text: "one two three"}},
			Usage:   sdk.Usage{InputTokens: 3, OutputTokens: 3},
		},
	}
	a := &ClaudeAdapter{client: fake, conn: config.ProviderConnConfig{Model: "claude-sonnet-4"}}

	chunks, errs := a.InferStream(context.Background(), Request{Prompt: "hi"})

	var got []string
	for c := range chunks {
		if c.Content != "" {
			got = append(got, c.Content)
		}
	}
	require.NoError(t, <-errs)
	assert.Equal(t, []string{"one ", "two ", "three"}, got)
}

func TestClaudeAdapterName(t *testing.T) {
	a := &ClaudeAdapter{}
	assert.Equal(t, config.ProviderClaude, a.Name())
}
