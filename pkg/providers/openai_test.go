package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/apperr"
	"github.com/zetherion/assistant-core/pkg/config"
)

type fakeChatClient struct {
	resp *openai.ChatCompletion
	err  error
}

func (f *fakeChatClient) New(_ context.Context, _ openai.ChatCompletionNewParams, _ ...openaiopt.RequestOption) (*openai.ChatCompletion, error) {
	return f.resp, f.err
}

func TestOpenAIAdapterInferSuccess(t *testing.T) {
	fake := &fakeChatClient{
		resp: &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "answer"}},
			},
			Usage: openai.CompletionUsage{PromptTokens: 8, CompletionTokens: 4},
		},
	}
	a := &OpenAIAdapter{client: fake, conn: config.ProviderConnConfig{Model: "gpt-5"}}

	res, err := a.Infer(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Content)
	assert.Equal(t, 8, res.InputTokens)
	assert.Equal(t, 4, res.OutputTokens)
}

func TestOpenAIAdapterInferNoChoices(t *testing.T) {
	fake := &fakeChatClient{resp: &openai.ChatCompletion{}}
	a := &OpenAIAdapter{client: fake, conn: config.ProviderConnConfig{Model: "gpt-5"}}

	_, err := a.Infer(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindTransport))
}

func TestOpenAIAdapterInferRateLimited(t *testing.T) {
	fake := &fakeChatClient{err: errors.New("rate limit hit")}
	a := &OpenAIAdapter{client: fake, conn: config.ProviderConnConfig{Model: "gpt-5"}}

	_, err := a.Infer(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindRateLimit))
}

func TestOpenAIAdapterName(t *testing.T) {
	a := &OpenAIAdapter{}
	assert.Equal(t, config.ProviderOpenAI, a.Name())
}
