package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/trust"
)

func TestTrustStoreGetMissingReturnsFalse(t *testing.T) {
	pool := newTestPool(t)
	store := NewTrustStore(pool.Pool)

	_, ok, err := store.Get(context.Background(), "user-1", "reminders")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTrustStoreSaveThenGetRoundTrips(t *testing.T) {
	pool := newTestPool(t)
	store := NewTrustStore(pool.Pool)
	ctx := context.Background()

	state := trust.State{
		UserID: "user-1", Category: "reminders", Level: config.TrustBuilding,
		Approvals: 3, Rejections: 1, Edits: 0, TotalInteractions: 4,
		History: []trust.Outcome{trust.OutcomeApproval, trust.OutcomeApproval, trust.OutcomeRejection, trust.OutcomeApproval},
	}
	require.NoError(t, store.Save(ctx, state))

	got, ok, err := store.Get(ctx, "user-1", "reminders")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, config.TrustBuilding, got.Level)
	assert.Equal(t, 3, got.Approvals)
	assert.Equal(t, state.History, got.History)
}

func TestTrustStoreSaveUpsertsOnConflict(t *testing.T) {
	pool := newTestPool(t)
	store := NewTrustStore(pool.Pool)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, trust.State{UserID: "u", Category: "c", Level: config.TrustNew, TotalInteractions: 1}))
	require.NoError(t, store.Save(ctx, trust.State{UserID: "u", Category: "c", Level: config.TrustEstablished, TotalInteractions: 9}))

	got, ok, err := store.Get(ctx, "u", "c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, config.TrustEstablished, got.Level)
	assert.Equal(t, 9, got.TotalInteractions)
}
