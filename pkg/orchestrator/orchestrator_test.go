package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/broker"
	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/costs"
	"github.com/zetherion/assistant-core/pkg/providers"
	"github.com/zetherion/assistant-core/pkg/router"
	"github.com/zetherion/assistant-core/pkg/skills"
)

// classifyingAdapter always answers router classification calls (TaskType
// == classification) with a fixed intent, and anything else with a fixed
// completion.
type classifyingAdapter struct {
	intent       config.MessageIntent
	confidence   float64
	completion   string
	inferCalls   []providers.Request
	inferErr     error
}

func (a *classifyingAdapter) Name() config.Provider { return config.ProviderClaude }

func (a *classifyingAdapter) Infer(_ context.Context, req providers.Request) (providers.Result, error) {
	a.inferCalls = append(a.inferCalls, req)
	if a.inferErr != nil {
		return providers.Result{}, a.inferErr
	}
	if req.TaskType == config.TaskClassification {
		conf := a.confidence
		if conf == 0 {
			conf = 0.9
		}
		body := fmt.Sprintf(`{"intent":"%s","confidence":%v,"reasoning":"test"}`, a.intent, conf)
		return providers.Result{Content: body}, nil
	}
	return providers.Result{Content: a.completion, Model: "test-model"}, nil
}

func (a *classifyingAdapter) InferStream(_ context.Context, _ providers.Request) (<-chan providers.StreamChunk, <-chan error) {
	chunks := make(chan providers.StreamChunk)
	errs := make(chan error)
	close(chunks)
	close(errs)
	return chunks, errs
}

func (a *classifyingAdapter) HealthCheck(_ context.Context) bool { return true }

func newTestRouter(intent config.MessageIntent) (*router.Router, *classifyingAdapter) {
	adapter := &classifyingAdapter{intent: intent, completion: "complex result"}
	return router.New(adapter, nil, nil), adapter
}

func newTestBroker(adapter *classifyingAdapter) *broker.Broker {
	matrix := config.GetBuiltinCapabilityMatrix()
	adapters := map[config.Provider]providers.Adapter{config.ProviderClaude: adapter}
	conns := map[config.Provider]config.ProviderConnConfig{config.ProviderClaude: {Model: "test-model"}}
	return broker.New(matrix, adapters, conns, noopRecorder{}, "llama3.1:8b", nil)
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, costs.Record) {}

type fakeMemory struct {
	mu            sync.Mutex
	storedTurns   []string // "role:content"
	storedMemories []string
}

func (f *fakeMemory) StoreMessage(_ context.Context, _, _, role, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storedTurns = append(f.storedTurns, role+":"+content)
	return nil
}

func (f *fakeMemory) StoreMemory(_ context.Context, _, content, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storedMemories = append(f.storedMemories, content)
	return nil
}

func (f *fakeMemory) RecentContext(_ context.Context, _, _ string, _ int) ([]MemoryEntry, error) {
	return nil, nil
}

func (f *fakeMemory) SearchMemories(_ context.Context, _ string, _ int, _ string) ([]MemoryEntry, error) {
	return []MemoryEntry{{Content: "remembered fact"}}, nil
}

func (f *fakeMemory) turns() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.storedTurns...)
}

func (f *fakeMemory) memories() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.storedMemories...)
}

type fakeProfileExtractor struct {
	mu       sync.Mutex
	calls    int
	lastText string
	done     chan struct{}
}

func newFakeProfileExtractor() *fakeProfileExtractor {
	return &fakeProfileExtractor{done: make(chan struct{}, 10)}
}

func (f *fakeProfileExtractor) ExtractProfile(_ context.Context, _, text string) error {
	f.mu.Lock()
	f.calls++
	f.lastText = text
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func TestHandleSimpleQueryDoesNotPersistToMemory(t *testing.T) {
	r, _ := newTestRouter(config.IntentSimpleQuery)
	mem := &fakeMemory{}
	o := New(r, nil, nil, mem, nil, nil, nil, nil)

	resp, err := o.Handle(context.Background(), Message{UserID: "u1", Content: "Hello!"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp)
	assert.Empty(t, mem.turns())
}

func TestHandleSystemCommandUsesCannedReplyAndDoesNotPersist(t *testing.T) {
	r, _ := newTestRouter(config.IntentSystemCommand)
	mem := &fakeMemory{}
	o := New(r, nil, nil, mem, nil, nil, nil, nil)

	resp, err := o.Handle(context.Background(), Message{UserID: "u1", Content: "/status"})
	require.NoError(t, err)
	assert.Equal(t, "Command received.", resp)
	assert.Empty(t, mem.turns())
}

func TestHandleComplexTaskCallsBrokerAndPersistsBothTurns(t *testing.T) {
	r, adapter := newTestRouter(config.IntentComplexTask)
	b := newTestBroker(adapter)
	mem := &fakeMemory{}
	o := New(r, b, nil, mem, nil, nil, nil, nil)

	resp, err := o.Handle(context.Background(), Message{UserID: "u1", ChannelID: "c1", Content: "Write a Python web scraper"})
	require.NoError(t, err)
	assert.Equal(t, "complex result", resp)

	turns := mem.turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "user:Write a Python web scraper", turns[0])
	assert.Equal(t, "assistant:complex result", turns[1])
}

func TestHandleComplexTaskUsesCodeGenerationTaskTypeForCodeKeyword(t *testing.T) {
	r, adapter := newTestRouter(config.IntentComplexTask)
	b := newTestBroker(adapter)
	o := New(r, b, nil, nil, nil, nil, nil, nil)

	_, err := o.Handle(context.Background(), Message{UserID: "u1", Content: "please write code for a parser"})
	require.NoError(t, err)

	var sawTaskType config.TaskType
	for _, call := range adapter.inferCalls {
		if call.TaskType != config.TaskClassification {
			sawTaskType = call.TaskType
		}
	}
	assert.Equal(t, config.TaskCodeGeneration, sawTaskType)
}

func TestHandleMemoryStoreWritesSemanticMemoryAndConversationTurn(t *testing.T) {
	r, _ := newTestRouter(config.IntentMemoryStore)
	mem := &fakeMemory{}
	o := New(r, nil, nil, mem, nil, nil, nil, nil)

	resp, err := o.Handle(context.Background(), Message{UserID: "u1", Content: "remember that I like tea"})
	require.NoError(t, err)
	assert.Contains(t, resp, "remember")
	assert.Equal(t, []string{"remember that I like tea"}, mem.memories())
	assert.Len(t, mem.turns(), 2)
}

func TestHandleMemoryRecallReturnsFormattedResults(t *testing.T) {
	r, _ := newTestRouter(config.IntentMemoryRecall)
	mem := &fakeMemory{}
	o := New(r, nil, nil, mem, nil, nil, nil, nil)

	resp, err := o.Handle(context.Background(), Message{UserID: "u1", Content: "what do I like?"})
	require.NoError(t, err)
	assert.Contains(t, resp, "remembered fact")
}

func TestHandleMemoryRecallWithoutMemoryStoreDegradesGracefully(t *testing.T) {
	r, _ := newTestRouter(config.IntentMemoryRecall)
	o := New(r, nil, nil, nil, nil, nil, nil, nil)

	resp, err := o.Handle(context.Background(), Message{UserID: "u1", Content: "what do I like?"})
	require.NoError(t, err)
	assert.Equal(t, "I don't have anything stored yet.", resp)
}

func TestHandleSkillIntentRoutesThroughRegistry(t *testing.T) {
	r, _ := newTestRouter(config.IntentTaskManagement)
	registry := skills.New(nil)
	registry.Load(&fakeTaskSkill{})
	mem := &fakeMemory{}
	o := New(r, nil, registry, mem, nil, nil, nil, nil)

	resp, err := o.Handle(context.Background(), Message{UserID: "u1", Content: "add buy milk"})
	require.NoError(t, err)
	assert.Equal(t, "task created", resp)
	assert.Len(t, mem.turns(), 2)
}

func TestProfileExtractionFiresAfterMemoryWriteAndDoesNotBlockResponse(t *testing.T) {
	adapter := &classifyingAdapter{intent: config.IntentComplexTask, completion: "done"}
	rt := router.New(adapter, nil, nil)
	b := newTestBroker(adapter)
	mem := &fakeMemory{}
	profile := newFakeProfileExtractor()
	o := New(rt, b, nil, mem, nil, profile, nil, nil)

	resp, err := o.Handle(context.Background(), Message{UserID: "u1", Content: "hello there"})
	require.NoError(t, err)
	assert.Equal(t, "done", resp)

	select {
	case <-profile.done:
	case <-time.After(time.Second):
		t.Fatal("profile extraction was never called")
	}

	profile.mu.Lock()
	defer profile.mu.Unlock()
	assert.Equal(t, 1, profile.calls)
	assert.Equal(t, "hello there", profile.lastText)
	// the turn must already be persisted by the time extraction observes it
	assert.Len(t, mem.turns(), 2)
}

type fakeTaskSkill struct{}

func (f *fakeTaskSkill) Metadata() skills.Metadata {
	return skills.Metadata{Name: "tasks", Intents: []config.MessageIntent{config.IntentTaskManagement}}
}
func (f *fakeTaskSkill) Initialize(context.Context) error { return nil }
func (f *fakeTaskSkill) Handle(_ context.Context, req skills.Request) skills.Response {
	return skills.OKResponse(req.ID, "task created", nil)
}
func (f *fakeTaskSkill) OnHeartbeat(_ context.Context, _ []string) ([]skills.HeartbeatAction, error) {
	return nil, nil
}
func (f *fakeTaskSkill) Cleanup(context.Context) error { return nil }
