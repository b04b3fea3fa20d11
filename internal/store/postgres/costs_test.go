package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/costs"
)

func TestCostStoreSaveRecordAndAggregations(t *testing.T) {
	pool := newTestPool(t)
	store := NewCostStore(pool.Pool)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveRecord(ctx, costs.Record{
		Timestamp: now, Provider: config.ProviderClaude, Model: "claude-opus", TokensIn: 100, TokensOut: 50,
		CostUSD: 1.5, TaskType: config.TaskCodeGeneration, UserID: 1, Success: true,
	}))
	require.NoError(t, store.SaveRecord(ctx, costs.Record{
		Timestamp: now, Provider: config.ProviderOpenAI, Model: "gpt-5", TokensIn: 20, TokensOut: 10,
		CostUSD: 0.5, TaskType: config.TaskSummarization, UserID: 1, Success: true, RateLimitHit: true,
	}))

	r := costs.TimeRange{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}

	total, err := store.TotalCost(ctx, r)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, total, 0.001)

	byProvider, err := store.CostByProvider(ctx, r)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, byProvider[config.ProviderClaude], 0.001)
	assert.InDelta(t, 0.5, byProvider[config.ProviderOpenAI], 0.001)

	byTaskType, err := store.CostByTaskType(ctx, r)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, byTaskType[config.TaskCodeGeneration], 0.001)

	byModel, err := store.CostByModel(ctx, r)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, byModel["claude-opus"], 0.001)

	rateLimits, err := store.RateLimitCounts(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, 1, rateLimits[config.ProviderOpenAI])
	assert.Equal(t, 0, rateLimits[config.ProviderClaude])
}

func TestCostStoreDailyBreakdownGroupsByDay(t *testing.T) {
	pool := newTestPool(t)
	store := NewCostStore(pool.Pool)
	ctx := context.Background()

	require.NoError(t, store.SaveRecord(ctx, costs.Record{
		Timestamp: time.Now(), Provider: config.ProviderClaude, Model: "m", CostUSD: 1, Success: true,
	}))

	days, err := store.DailyBreakdown(ctx, 7)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.InDelta(t, 1.0, days[0].CostUSD, 0.001)
}

func TestCostStoreMonthlyReportAggregatesCurrentMonth(t *testing.T) {
	pool := newTestPool(t)
	store := NewCostStore(pool.Pool)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveRecord(ctx, costs.Record{
		Timestamp: now, Provider: config.ProviderGemini, Model: "m", CostUSD: 3, TaskType: config.TaskMathAnalysis, Success: true,
	}))

	report, err := store.MonthlyReport(ctx, now.Year(), int(now.Month()))
	require.NoError(t, err)
	assert.Equal(t, now.Year(), report.Year)
	assert.InDelta(t, 3.0, report.TotalCostUSD, 0.001)
	assert.InDelta(t, 3.0, report.CostByProvider[config.ProviderGemini], 0.001)
	assert.GreaterOrEqual(t, report.ProjectedCostUSD, report.TotalCostUSD)
}
