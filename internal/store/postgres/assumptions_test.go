package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/assumptions"
)

func TestAssumptionStoreSaveGetList(t *testing.T) {
	pool := newTestPool(t)
	store := NewAssumptionStore(pool.Pool)
	ctx := context.Background()

	saved, err := store.Save(ctx, assumptions.Assumption{
		ChannelID: "chan-1", Category: assumptions.CategoryTone, Statement: "friendly",
		Evidence: []string{"survey"}, Confidence: 0.8, Source: assumptions.SourceInferred,
		NextValidation: time.Now().Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, ok, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "friendly", got.Statement)
	assert.Equal(t, []string{"survey"}, got.Evidence)

	list, err := store.List(ctx, "chan-1", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	filtered, err := store.List(ctx, "chan-1", assumptions.SourceConfirmed)
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestAssumptionStoreUpdateAppliesMutation(t *testing.T) {
	pool := newTestPool(t)
	store := NewAssumptionStore(pool.Pool)
	ctx := context.Background()

	saved, err := store.Save(ctx, assumptions.Assumption{
		ChannelID: "chan-1", Category: assumptions.CategoryTopic, Statement: "cooking",
		Confidence: 0.5, Source: assumptions.SourceInferred, NextValidation: time.Now(),
	})
	require.NoError(t, err)

	updated, err := store.Update(ctx, saved.ID, func(a *assumptions.Assumption) {
		a.Source = assumptions.SourceConfirmed
		a.Confidence = 1.0
	})
	require.NoError(t, err)
	assert.Equal(t, assumptions.SourceConfirmed, updated.Source)
	assert.Equal(t, 1.0, updated.Confidence)

	got, _, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, assumptions.SourceConfirmed, got.Source)
}

func TestAssumptionStoreStaleReturnsPastDueOnly(t *testing.T) {
	pool := newTestPool(t)
	store := NewAssumptionStore(pool.Pool)
	ctx := context.Background()

	past, err := store.Save(ctx, assumptions.Assumption{
		ChannelID: "chan-1", Category: assumptions.CategorySchedule, Statement: "weekly",
		Confidence: 0.6, Source: assumptions.SourceInferred, NextValidation: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = store.Save(ctx, assumptions.Assumption{
		ChannelID: "chan-1", Category: assumptions.CategoryAudience, Statement: "18-24",
		Confidence: 0.9, Source: assumptions.SourceConfirmed, NextValidation: time.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)

	stale, err := store.Stale(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, past.ID, stale[0].ID)
}
