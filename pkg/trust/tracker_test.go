package trust

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/config"
)

type fakeStore struct {
	states map[cacheKey]State
	saves  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[cacheKey]State)}
}

func (f *fakeStore) Get(ctx context.Context, userID, category string) (State, bool, error) {
	s, ok := f.states[cacheKey{userID, category}]
	return s, ok, nil
}

func (f *fakeStore) Save(ctx context.Context, state State) error {
	f.saves++
	f.states[cacheKey{state.UserID, state.Category}] = state
	return nil
}

func testConfig() *config.TrustConfig {
	return &config.TrustConfig{
		Categories: map[string]config.TrustCategoryConfig{
			"general": {
				MinAutoLevel: config.TrustEstablished,
				PromotionThreshold: map[string]float64{
					"BUILDING": 0.7, "ESTABLISHED": 0.85, "TRUSTED": 0.95,
				},
				MinTotal: map[string]int{
					"BUILDING": 2, "ESTABLISHED": 4, "TRUSTED": 8,
				},
				DemotionWindow:        4,
				MaxRejectionsInWindow: 1,
			},
			"spam": {
				MinAutoLevel:     config.TrustTrusted,
				NeverAutoApprove: true,
			},
		},
	}
}

func TestRecordApprovalPromotesThroughLevels(t *testing.T) {
	store := newFakeStore()
	tr := New(store, testConfig(), nil)
	ctx := context.Background()

	var state State
	var err error
	for i := 0; i < 4; i++ {
		state, err = tr.RecordApproval(ctx, "u1", "general")
		require.NoError(t, err)
	}

	assert.Equal(t, config.TrustEstablished, state.Level)
	assert.Equal(t, 4, state.Approvals)
	assert.Equal(t, 4, state.TotalInteractions)
}

func TestRecordApprovalStaysAtNewBelowMinTotal(t *testing.T) {
	store := newFakeStore()
	tr := New(store, testConfig(), nil)

	state, err := tr.RecordApproval(context.Background(), "u1", "general")
	require.NoError(t, err)
	assert.Equal(t, config.TrustNew, state.Level)
}

func TestRecordRejectionIncrementsCountersWithoutDemotingBelowThreshold(t *testing.T) {
	store := newFakeStore()
	tr := New(store, testConfig(), nil)

	state, err := tr.RecordRejection(context.Background(), "u1", "general")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Rejections)
	assert.Equal(t, config.TrustNew, state.Level, "single rejection within window should not demote below NEW")
}

func TestRecordRejectionDemotesAfterExceedingWindow(t *testing.T) {
	store := newFakeStore()
	tr := New(store, testConfig(), nil)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := tr.RecordApproval(ctx, "u1", "general")
		require.NoError(t, err)
	}
	pre, err := tr.Level(ctx, "u1", "general")
	require.NoError(t, err)
	require.Equal(t, config.TrustEstablished, pre)

	_, err = tr.RecordRejection(ctx, "u1", "general")
	require.NoError(t, err)
	state, err := tr.RecordRejection(ctx, "u1", "general")
	require.NoError(t, err)

	assert.Equal(t, config.TrustBuilding, state.Level, "second rejection within the demotion window should demote by one level")
}

func TestRecordEditIncrementsTotalWithoutApprovalCredit(t *testing.T) {
	store := newFakeStore()
	tr := New(store, testConfig(), nil)

	state, err := tr.RecordEdit(context.Background(), "u1", "general")
	require.NoError(t, err)
	assert.Equal(t, 1, state.Edits)
	assert.Equal(t, 1, state.TotalInteractions)
	assert.Equal(t, 0, state.Approvals)
}

func TestShouldAutoApproveFalseBelowMinAutoLevel(t *testing.T) {
	store := newFakeStore()
	tr := New(store, testConfig(), nil)

	auto, err := tr.ShouldAutoApprove(context.Background(), "u1", "general")
	require.NoError(t, err)
	assert.False(t, auto)
}

func TestShouldAutoApproveTrueAtOrAboveMinAutoLevel(t *testing.T) {
	store := newFakeStore()
	tr := New(store, testConfig(), nil)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, _ = tr.RecordApproval(ctx, "u1", "general")
	}

	auto, err := tr.ShouldAutoApprove(ctx, "u1", "general")
	require.NoError(t, err)
	assert.True(t, auto)
}

func TestShouldAutoApproveNeverTrueForSpamRegardlessOfLevel(t *testing.T) {
	store := newFakeStore()
	tr := New(store, testConfig(), nil)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		_, _ = tr.RecordApproval(ctx, "u1", "spam")
	}

	auto, err := tr.ShouldAutoApprove(ctx, "u1", "spam")
	require.NoError(t, err)
	assert.False(t, auto, "spam must never auto-approve")
}

func TestAutoCategoriesAndReviewCategoriesPartition(t *testing.T) {
	store := newFakeStore()
	tr := New(store, testConfig(), nil)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, _ = tr.RecordApproval(ctx, "u1", "general")
	}

	auto, err := tr.AutoCategories(ctx, "u1", []string{"general", "spam"})
	require.NoError(t, err)
	assert.Equal(t, []string{"general"}, auto)

	review, err := tr.ReviewCategories(ctx, "u1", []string{"general", "spam"})
	require.NoError(t, err)
	assert.Equal(t, []string{"spam"}, review)
}

func TestUnconfiguredCategoryFallsBackToGeneral(t *testing.T) {
	store := newFakeStore()
	tr := New(store, testConfig(), nil)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, _ = tr.RecordApproval(ctx, "u1", "unknown_category")
	}

	auto, err := tr.ShouldAutoApprove(ctx, "u1", "unknown_category")
	require.NoError(t, err)
	assert.True(t, auto, "unconfigured categories should use the general bucket's thresholds")
}

func TestCacheIsInvalidatedOnWriteAndReflectsPersistedState(t *testing.T) {
	store := newFakeStore()
	tr := New(store, testConfig(), nil)
	ctx := context.Background()

	_, err := tr.RecordApproval(ctx, "u1", "general")
	require.NoError(t, err)

	persisted, found, err := store.Get(ctx, "u1", "general")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, persisted.TotalInteractions)

	level, err := tr.Level(ctx, "u1", "general")
	require.NoError(t, err)
	assert.Equal(t, config.TrustNew, level)
}

func TestLevelDefaultsToNewForUnknownKey(t *testing.T) {
	store := newFakeStore()
	tr := New(store, testConfig(), nil)

	level, err := tr.Level(context.Background(), "ghost", "general")
	require.NoError(t, err)
	assert.Equal(t, config.TrustNew, level)
}
