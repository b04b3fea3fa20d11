package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/zetherion/assistant-core/pkg/broker"
	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/providers"
	"github.com/zetherion/assistant-core/pkg/router"
	"github.com/zetherion/assistant-core/pkg/skills"
)

// Orchestrator is the Message Orchestrator (C13).
type Orchestrator struct {
	router   *router.Router
	broker   *broker.Broker
	registry *skills.Registry
	memory   MemoryStore // nil: turns are not persisted and no recall/history is assembled

	systemCmd SystemCommandHandler // nil: SYSTEM_COMMAND gets a canned reply
	profile   ProfileExtractor     // nil: step 4 is skipped

	cfg *config.InferenceConfig
	log *slog.Logger
}

// New builds an Orchestrator. memory, systemCmd, and profile may all be
// nil; each degrades gracefully rather than panicking.
func New(r *router.Router, b *broker.Broker, registry *skills.Registry, memory MemoryStore, systemCmd SystemCommandHandler, profile ProfileExtractor, cfg *config.InferenceConfig, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultInferenceConfig()
	}
	return &Orchestrator{
		router:    r,
		broker:    b,
		registry:  registry,
		memory:    memory,
		systemCmd: systemCmd,
		profile:   profile,
		cfg:       cfg,
		log:       log.With("component", "orchestrator"),
	}
}

// Handle classifies msg, dispatches it to the built-in handler or the
// skill registry, persists the turn to memory, fires background profile
// extraction, and returns the response text (spec.md §4.13).
func (o *Orchestrator) Handle(ctx context.Context, msg Message) (string, error) {
	routing := o.router.Classify(ctx, msg.Content)
	log := o.log.With("user_id", msg.UserID, "intent", routing.Intent)

	response, err := o.dispatch(ctx, msg, routing)
	if err != nil {
		log.Error("dispatch failed", "error", err)
		return response, err
	}

	if !noPersistIntents[routing.Intent] {
		o.persistTurn(ctx, msg, response)
	}

	if o.profile != nil {
		// Fire-and-forget: detached from ctx's cancellation so a returned
		// response isn't undone by the caller's request context closing,
		// but it runs after the memory write above so extraction can
		// observe the just-stored message (spec.md §5 ordering guarantee).
		go o.extractProfile(context.WithoutCancel(ctx), msg.UserID, msg.Content)
	}

	return response, nil
}

// dispatch routes routing.Intent to its handler: a built-in for
// SIMPLE_QUERY/COMPLEX_TASK/MEMORY_STORE/MEMORY_RECALL/SYSTEM_COMMAND, and
// the skill registry's intent table for everything else (spec.md §4.13
// step 2).
func (o *Orchestrator) dispatch(ctx context.Context, msg Message, routing router.RoutingDecision) (string, error) {
	switch routing.Intent {
	case config.IntentSimpleQuery:
		return o.handleSimpleQuery(ctx, msg)
	case config.IntentComplexTask:
		return o.handleComplexTask(ctx, msg)
	case config.IntentMemoryStore:
		return o.handleMemoryStore(ctx, msg)
	case config.IntentMemoryRecall:
		return o.handleMemoryRecall(ctx, msg)
	case config.IntentSystemCommand:
		return o.handleSystemCommand(ctx, msg)
	default:
		return o.handleSkillIntent(ctx, msg, routing.Intent)
	}
}

func (o *Orchestrator) handleSimpleQuery(ctx context.Context, msg Message) (string, error) {
	resp, err := o.router.GenerateSimpleResponse(ctx, msg.Content)
	if err != nil {
		o.log.Error("simple response generation failed", "error", err)
		return "Sorry, I had trouble processing that.", nil
	}
	return resp, nil
}

func (o *Orchestrator) handleSystemCommand(ctx context.Context, msg Message) (string, error) {
	if o.systemCmd == nil {
		return "Command received.", nil
	}
	resp, err := o.systemCmd.HandleSystemCommand(ctx, msg.UserID, msg.Content)
	if err != nil {
		return "Sorry, that command failed.", nil
	}
	return resp, nil
}

func (o *Orchestrator) handleMemoryStore(ctx context.Context, msg Message) (string, error) {
	if o.memory == nil {
		return "I can't remember things right now.", nil
	}
	if err := o.memory.StoreMemory(ctx, msg.UserID, msg.Content, "user_note"); err != nil {
		o.log.Error("memory store failed", "error", err)
		return "I had trouble saving that.", nil
	}
	return "Got it, I'll remember that.", nil
}

func (o *Orchestrator) handleMemoryRecall(ctx context.Context, msg Message) (string, error) {
	if o.memory == nil {
		return "I don't have anything stored yet.", nil
	}
	entries, err := o.memory.SearchMemories(ctx, msg.Content, o.cfg.RecallLimit, msg.UserID)
	if err != nil {
		o.log.Error("memory search failed", "error", err)
		return "I had trouble searching my memory.", nil
	}
	if len(entries) == 0 {
		return "I don't recall anything matching that.", nil
	}
	var b strings.Builder
	b.WriteString("Here's what I found:\n")
	for _, e := range entries {
		b.WriteString("- " + e.Content + "\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// handleComplexTask assembles a system prompt from the skill registry's
// prompt fragments and recalled memories, pulls recent conversation
// history, and dispatches to the Inference Broker (spec.md §4.13 step 2).
func (o *Orchestrator) handleComplexTask(ctx context.Context, msg Message) (string, error) {
	systemPrompt := o.buildSystemPrompt(ctx, msg)
	history := o.recentHistory(ctx, msg)

	req := providers.Request{
		Prompt:       msg.Content,
		TaskType:     classifyTaskType(msg.Content),
		SystemPrompt: systemPrompt,
		History:      history,
		MaxTokens:    o.cfg.DefaultMaxTokens,
		Temperature:  o.cfg.DefaultTemperature,
	}

	result, _, err := o.broker.Infer(ctx, req)
	if err != nil {
		o.log.Error("broker inference failed", "error", err)
		return "Sorry, I couldn't complete that request right now.", nil
	}
	return result.Content, nil
}

func (o *Orchestrator) buildSystemPrompt(ctx context.Context, msg Message) string {
	var parts []string
	if o.registry != nil {
		if frag := o.registry.SystemPromptFragments(ctx, msg.UserID); frag != "" {
			parts = append(parts, frag)
		}
	}
	if o.memory != nil {
		memories, err := o.memory.SearchMemories(ctx, msg.Content, o.cfg.RecallLimit, msg.UserID)
		if err != nil {
			o.log.Error("memory search for system prompt failed", "error", err)
		}
		for _, m := range memories {
			parts = append(parts, "Remembered: "+m.Content)
		}
	}
	return strings.Join(parts, "\n")
}

func (o *Orchestrator) recentHistory(ctx context.Context, msg Message) []providers.Message {
	if o.memory == nil {
		return nil
	}
	entries, err := o.memory.RecentContext(ctx, msg.UserID, msg.ChannelID, o.cfg.HistoryLimit)
	if err != nil {
		o.log.Error("recent context fetch failed", "error", err)
		return nil
	}
	history := make([]providers.Message, 0, len(entries))
	for _, e := range entries {
		history = append(history, providers.Message{Role: e.Role, Content: e.Content})
	}
	return history
}

// handleSkillIntent routes to the skill registered for intent, deriving
// the sub-intent from the raw message text (spec.md §4.5).
func (o *Orchestrator) handleSkillIntent(ctx context.Context, msg Message, intent config.MessageIntent) (string, error) {
	sub := o.registry.DeriveSubIntent(intent, msg.Content)
	resp := o.registry.Route(ctx, intent, skills.Request{
		ID:      uuid.New().String(),
		UserID:  msg.UserID,
		Intent:  sub,
		Message: msg.Content,
	})
	if !resp.Success {
		return fmt.Sprintf("Sorry, that didn't work: %s", resp.Error), nil
	}
	return resp.Message, nil
}

// persistTurn writes both sides of the exchange to memory before
// returning, so a subsequent background profile extraction observes the
// stored user message (spec.md §5 ordering guarantee).
func (o *Orchestrator) persistTurn(ctx context.Context, msg Message, response string) {
	if o.memory == nil {
		return
	}
	if err := o.memory.StoreMessage(ctx, msg.UserID, msg.ChannelID, "user", msg.Content); err != nil {
		o.log.Error("failed to persist user turn", "error", err)
	}
	if err := o.memory.StoreMessage(ctx, msg.UserID, msg.ChannelID, "assistant", response); err != nil {
		o.log.Error("failed to persist assistant turn", "error", err)
	}
}

func (o *Orchestrator) extractProfile(ctx context.Context, userID, text string) {
	if err := o.profile.ExtractProfile(ctx, userID, text); err != nil {
		o.log.Error("background profile extraction failed", "user_id", userID, "error", err)
	}
}
