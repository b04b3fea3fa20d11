package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	collections map[string]uint64
	points      map[string][]fakePoint
	upsertErr   error
}

type fakePoint struct {
	id      string
	vector  []float32
	payload map[string]any
}

func newFakeClient() *fakeClient {
	return &fakeClient{collections: map[string]uint64{}, points: map[string][]fakePoint{}}
}

func (f *fakeClient) EnsureCollection(_ context.Context, name string, size uint64) error {
	f.collections[name] = size
	return nil
}

func (f *fakeClient) Upsert(_ context.Context, collection, id string, vector []float32, payload map[string]any) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.points[collection] = append(f.points[collection], fakePoint{id: id, vector: vector, payload: payload})
	return nil
}

func (f *fakeClient) Search(_ context.Context, collection string, _ []float32, limit int, filter map[string]any) ([]SearchHit, error) {
	var hits []SearchHit
	for _, p := range f.points[collection] {
		if !matches(p.payload, filter) {
			continue
		}
		hits = append(hits, SearchHit{ID: p.id, Payload: p.payload})
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

func (f *fakeClient) Scroll(_ context.Context, collection string, filter map[string]any, limit int) ([]SearchHit, error) {
	return f.Search(context.Background(), collection, nil, limit, filter)
}

func (f *fakeClient) GetByID(_ context.Context, collection, id string) (SearchHit, bool, error) {
	for _, p := range f.points[collection] {
		if p.id == id {
			return SearchHit{ID: p.id, Payload: p.payload}, true, nil
		}
	}
	return SearchHit{}, false, nil
}

func (f *fakeClient) DeleteByID(_ context.Context, collection, id string) error {
	kept := f.points[collection][:0]
	for _, p := range f.points[collection] {
		if p.id != id {
			kept = append(kept, p)
		}
	}
	f.points[collection] = kept
	return nil
}

func matches(payload, filter map[string]any) bool {
	for k, v := range filter {
		if payload[k] != v {
			return false
		}
	}
	return true
}

func TestInitializeEnsuresBothCollections(t *testing.T) {
	client := newFakeClient()
	s := New(client, nil, nil)

	require.NoError(t, s.Initialize(context.Background()))
	assert.Contains(t, client.collections, "messages")
	assert.Contains(t, client.collections, "memories")
}

func TestStoreMessageThenRecentContextRoundTrips(t *testing.T) {
	client := newFakeClient()
	s := New(client, nil, nil)
	ctx := context.Background()

	require.NoError(t, s.StoreMessage(ctx, "u1", "c1", "user", "hi there"))
	require.NoError(t, s.StoreMessage(ctx, "u1", "c1", "assistant", "hello!"))
	require.NoError(t, s.StoreMessage(ctx, "u2", "c1", "user", "not mine"))

	entries, err := s.RecentContext(ctx, "u1", "c1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "hi there", entries[0].Content)
	assert.Equal(t, "assistant", entries[1].Role)
}

func TestStoreMemoryThenSearchMemoriesReturnsScopedResults(t *testing.T) {
	client := newFakeClient()
	s := New(client, nil, nil)
	ctx := context.Background()

	require.NoError(t, s.StoreMemory(ctx, "u1", "likes tea", "preference"))
	require.NoError(t, s.StoreMemory(ctx, "u2", "likes coffee", "preference"))

	results, err := s.SearchMemories(ctx, "beverages", 10, "u1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "likes tea", results[0].Content)
}

func TestSearchMemoriesWithoutUserScopeReturnsAll(t *testing.T) {
	client := newFakeClient()
	s := New(client, nil, nil)
	ctx := context.Background()

	require.NoError(t, s.StoreMemory(ctx, "u1", "a", "note"))
	require.NoError(t, s.StoreMemory(ctx, "u2", "b", "note"))

	results, err := s.SearchMemories(ctx, "x", 10, "")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestGetByIDAndDeleteByID(t *testing.T) {
	client := newFakeClient()
	s := New(client, nil, nil)
	ctx := context.Background()

	require.NoError(t, s.StoreMemory(ctx, "u1", "delete me", "note"))
	id := client.points[memoriesCollection][0].id

	hit, ok, err := s.GetByID(ctx, memoriesCollection, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "delete me", hit.Payload["content"])

	require.NoError(t, s.DeleteByID(ctx, memoriesCollection, id))
	_, ok, err = s.GetByID(ctx, memoriesCollection, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashingEmbedderIsDeterministicAndNormalized(t *testing.T) {
	e := hashingEmbedder{}
	v1, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1, vectorSize)

	var sumSquares float64
	for _, x := range v1 {
		sumSquares += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sumSquares, 0.01)
}
