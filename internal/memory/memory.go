// Package memory implements the external memory-store adapter (spec.md §6
// "Memory store contract") backing the Message Orchestrator's
// orchestrator.MemoryStore. Collections are partitioned by purpose:
// "messages" holds conversation turns, "memories" holds explicit semantic
// notes, mirroring store_message vs store_memory in the spec's contract.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zetherion/assistant-core/pkg/orchestrator"
)

const (
	messagesCollection = "messages"
	memoriesCollection = "memories"
	vectorSize         = 256
)

// Embedder turns text into a fixed-size vector. Implemented by a real
// embedding client in production; Store falls back to hashingEmbedder when
// none is supplied, which is enough to exercise similarity search in tests
// and local development without a network call on every write.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// pointsClient captures the subset of *qdrant.Client the Store depends on,
// the same narrow-client-interface idiom pkg/providers/claude.go uses for
// the Anthropic SDK, so tests substitute a fake rather than a live Qdrant
// instance.
type pointsClient interface {
	EnsureCollection(ctx context.Context, name string, size uint64) error
	Upsert(ctx context.Context, collection string, id string, vector []float32, payload map[string]any) error
	Search(ctx context.Context, collection string, vector []float32, limit int, filter map[string]any) ([]SearchHit, error)
	Scroll(ctx context.Context, collection string, filter map[string]any, limit int) ([]SearchHit, error)
	GetByID(ctx context.Context, collection, id string) (SearchHit, bool, error)
	DeleteByID(ctx context.Context, collection, id string) error
}

// SearchHit is one point returned by Search/Scroll/GetByID.
type SearchHit struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Store implements orchestrator.MemoryStore (and the broader spec.md §6
// memory-store contract) against a vector database.
type Store struct {
	client   pointsClient
	embedder Embedder
	log      *slog.Logger
}

// New builds a Store. embedder may be nil, in which case a deterministic
// stdlib hashing embedder is used (see embed.go).
func New(client pointsClient, embedder Embedder, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	if embedder == nil {
		embedder = hashingEmbedder{}
	}
	return &Store{client: client, embedder: embedder, log: log.With("component", "memory")}
}

// Initialize ensures both collections exist (spec.md §6: "initialize(),
// ensure_collection(name, vector_size)").
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.client.EnsureCollection(ctx, messagesCollection, vectorSize); err != nil {
		return fmt.Errorf("ensure messages collection: %w", err)
	}
	if err := s.client.EnsureCollection(ctx, memoriesCollection, vectorSize); err != nil {
		return fmt.Errorf("ensure memories collection: %w", err)
	}
	return nil
}

// StoreMessage implements orchestrator.MemoryStore.
func (s *Store) StoreMessage(ctx context.Context, userID, channelID, role, content string) error {
	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed message: %w", err)
	}
	return s.client.Upsert(ctx, messagesCollection, uuid.New().String(), vec, map[string]any{
		"user_id":    userID,
		"channel_id": channelID,
		"role":       role,
		"content":    content,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// StoreMemory implements orchestrator.MemoryStore.
func (s *Store) StoreMemory(ctx context.Context, userID, content, memoryType string) error {
	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed memory: %w", err)
	}
	return s.client.Upsert(ctx, memoriesCollection, uuid.New().String(), vec, map[string]any{
		"user_id":     userID,
		"content":     content,
		"memory_type": memoryType,
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// RecentContext implements orchestrator.MemoryStore via a payload-filtered
// scroll rather than a vector search (spec.md §6: "get_recent_context(user_id,
// channel_id, limit)"). The scroll is not ordered by timestamp: it returns
// up to limit matching points in Qdrant's point-ID order, and point IDs are
// random UUIDs, so the entries are not necessarily the most recent ones.
func (s *Store) RecentContext(ctx context.Context, userID, channelID string, limit int) ([]orchestrator.MemoryEntry, error) {
	hits, err := s.client.Scroll(ctx, messagesCollection, map[string]any{
		"user_id":    userID,
		"channel_id": channelID,
	}, limit)
	if err != nil {
		return nil, fmt.Errorf("scroll recent context: %w", err)
	}
	entries := make([]orchestrator.MemoryEntry, 0, len(hits))
	for _, h := range hits {
		role, _ := h.Payload["role"].(string)
		content, _ := h.Payload["content"].(string)
		entries = append(entries, orchestrator.MemoryEntry{Role: role, Content: content})
	}
	return entries, nil
}

// SearchMemories implements orchestrator.MemoryStore via semantic vector
// search over the memories collection (spec.md §6: "search_memories(query,
// limit, user_id?)").
func (s *Store) SearchMemories(ctx context.Context, query string, limit int, userID string) ([]orchestrator.MemoryEntry, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	var filter map[string]any
	if userID != "" {
		filter = map[string]any{"user_id": userID}
	}
	hits, err := s.client.Search(ctx, memoriesCollection, vec, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	entries := make([]orchestrator.MemoryEntry, 0, len(hits))
	for _, h := range hits {
		content, _ := h.Payload["content"].(string)
		entries = append(entries, orchestrator.MemoryEntry{Content: content})
	}
	return entries, nil
}

// SearchConversations implements spec.md §6's "search_conversations(query,
// user_id, limit)": semantic search scoped to the messages collection.
func (s *Store) SearchConversations(ctx context.Context, query, userID string, limit int) ([]orchestrator.MemoryEntry, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.client.Search(ctx, messagesCollection, vec, limit, map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("search conversations: %w", err)
	}
	entries := make([]orchestrator.MemoryEntry, 0, len(hits))
	for _, h := range hits {
		role, _ := h.Payload["role"].(string)
		content, _ := h.Payload["content"].(string)
		entries = append(entries, orchestrator.MemoryEntry{Role: role, Content: content})
	}
	return entries, nil
}

// FilterByField implements spec.md §6's "filter_by_field(collection,
// field, value)".
func (s *Store) FilterByField(ctx context.Context, collection, field string, value any, limit int) ([]SearchHit, error) {
	return s.client.Scroll(ctx, collection, map[string]any{field: value}, limit)
}

// GetByID implements spec.md §6's "get_by_id(collection, id)".
func (s *Store) GetByID(ctx context.Context, collection, id string) (SearchHit, bool, error) {
	return s.client.GetByID(ctx, collection, id)
}

// DeleteByID implements spec.md §6's "delete_by_id(collection, id)".
func (s *Store) DeleteByID(ctx context.Context, collection, id string) error {
	return s.client.DeleteByID(ctx, collection, id)
}
