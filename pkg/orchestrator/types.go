// Package orchestrator implements the Message Orchestrator (C13): the
// single entry point for an inbound chat message, wiring the Intent
// Router (C2), the Inference Broker (C3), the Skill Registry (C5), and
// the memory store together into one response.
package orchestrator

import (
	"context"

	"github.com/zetherion/assistant-core/pkg/config"
)

// Message is one inbound chat-transport event (spec.md §6 transport
// contract), adapted to string IDs for consistency with the rest of the
// core's user/channel identifiers.
type Message struct {
	UserID    string
	ChannelID string
	Content   string
}

// MemoryEntry is one retrieved conversation turn or semantic memory,
// returned by MemoryStore for assembly into a COMPLEX_TASK prompt.
type MemoryEntry struct {
	Role    string // "user" | "assistant", empty for semantic (non-turn) memories
	Content string
}

// MemoryStore is the subset of the memory-store contract (spec.md §6) the
// orchestrator depends on. Implemented by internal/memory.
type MemoryStore interface {
	// StoreMessage persists one conversation turn.
	StoreMessage(ctx context.Context, userID, channelID, role, content string) error

	// StoreMemory persists an explicit semantic memory, distinct from a
	// conversation turn (spec.md §6: "store_memory(content, memory_type,
	// user_id?, metadata?)").
	StoreMemory(ctx context.Context, userID, content, memoryType string) error

	// RecentContext returns the last limit conversation turns for
	// userID/channelID, oldest first.
	RecentContext(ctx context.Context, userID, channelID string, limit int) ([]MemoryEntry, error)

	// SearchMemories returns up to limit semantic memories relevant to
	// query, optionally scoped to userID.
	SearchMemories(ctx context.Context, query string, limit int, userID string) ([]MemoryEntry, error)
}

// ProfileExtractor performs the background profile-extraction task fired
// after a turn completes (spec.md §4.13 step 4). Implemented by a skill or
// a dedicated personal-model adapter.
type ProfileExtractor interface {
	ExtractProfile(ctx context.Context, userID, text string) error
}

// SystemCommandHandler answers a SYSTEM_COMMAND intent. Optional: if nil,
// Orchestrator returns a canned acknowledgement.
type SystemCommandHandler interface {
	HandleSystemCommand(ctx context.Context, userID, text string) (string, error)
}

// noPersistIntents are never written to memory, to reduce noise (spec.md
// §4.13 step 3).
var noPersistIntents = map[config.MessageIntent]bool{
	config.IntentSimpleQuery:   true,
	config.IntentSystemCommand: true,
}
