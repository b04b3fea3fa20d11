package costs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/config"
)

type fakeStore struct {
	saved []Record
}

func (f *fakeStore) SaveRecord(_ context.Context, rec Record) error {
	f.saved = append(f.saved, rec)
	return nil
}
func (f *fakeStore) TotalCost(_ context.Context, _ TimeRange) (float64, error) { return 0, nil }
func (f *fakeStore) CostByProvider(_ context.Context, _ TimeRange) (map[config.Provider]float64, error) {
	return nil, nil
}
func (f *fakeStore) CostByTaskType(_ context.Context, _ TimeRange) (map[config.TaskType]float64, error) {
	return nil, nil
}
func (f *fakeStore) CostByModel(_ context.Context, _ TimeRange) (map[string]float64, error) {
	return nil, nil
}
func (f *fakeStore) DailyBreakdown(_ context.Context, _ int) ([]DailyCost, error) { return nil, nil }
func (f *fakeStore) MonthlyReport(_ context.Context, year, month int) (MonthlyReport, error) {
	return MonthlyReport{Year: year, Month: month, TotalCostUSD: 10}, nil
}
func (f *fakeStore) RateLimitCounts(_ context.Context, _ TimeRange) (map[config.Provider]int, error) {
	return nil, nil
}

func TestRecordUpdatesSessionSummary(t *testing.T) {
	store := &fakeStore{}
	tr := NewTracker(store, config.CostsConfig{}, nil, nil)

	tr.Record(context.Background(), Record{Provider: config.ProviderClaude, TokensIn: 100, TokensOut: 50, CostUSD: 0.01, TaskType: config.TaskSimpleQA, Success: true})
	tr.Record(context.Background(), Record{Provider: config.ProviderClaude, TokensIn: 200, TokensOut: 100, CostUSD: 0.02, TaskType: config.TaskSimpleQA, Success: true})

	summary := tr.Summary()
	ps := summary.PerProvider[config.ProviderClaude]
	assert.Equal(t, 2, ps.Calls)
	assert.Equal(t, 300, ps.TokensIn)
	assert.InDelta(t, 0.03, ps.CostUSD, 0.0001)
	assert.InDelta(t, 0.03, summary.TotalCostUSD, 0.0001)
	assert.Len(t, store.saved, 2)
}

func TestRecordFiresAlertOncePerThresholdCrossing(t *testing.T) {
	store := &fakeStore{}
	var fired []float64
	tr := NewTracker(store, config.CostsConfig{AlertThresholdsUSD: []float64{1, 2}}, func(threshold, _ float64) {
		fired = append(fired, threshold)
	}, nil)

	tr.Record(context.Background(), Record{Provider: config.ProviderClaude, CostUSD: 0.5})
	tr.Record(context.Background(), Record{Provider: config.ProviderClaude, CostUSD: 0.6})
	tr.Record(context.Background(), Record{Provider: config.ProviderClaude, CostUSD: 1.0})

	assert.Equal(t, []float64{1, 2}, fired)
}

func TestMonthlyReportProjectsCurrentMonth(t *testing.T) {
	store := &fakeStore{}
	tr := NewTracker(store, config.CostsConfig{}, nil, nil)

	now := time.Now()
	report, err := tr.MonthlyReport(context.Background(), now.Year(), int(now.Month()))
	require.NoError(t, err)
	assert.Greater(t, report.ProjectedCostUSD, 0.0)
}

func TestMonthlyReportPastMonthProjectionEqualsTotal(t *testing.T) {
	store := &fakeStore{}
	tr := NewTracker(store, config.CostsConfig{}, nil, nil)

	report, err := tr.MonthlyReport(context.Background(), 2020, 1)
	require.NoError(t, err)
	assert.Equal(t, report.TotalCostUSD, report.ProjectedCostUSD)
}

func TestModelsHidesDeprecatedByDefault(t *testing.T) {
	tr := NewTracker(&fakeStore{}, config.CostsConfig{}, nil, nil)
	tr.RegisterModel(ModelInfo{Model: "claude-2", Deprecated: true})
	tr.RegisterModel(ModelInfo{Model: "claude-sonnet-4", Deprecated: false})

	assert.Len(t, tr.Models(false), 1)
	assert.Len(t, tr.Models(true), 2)
}
