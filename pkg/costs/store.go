package costs

import (
	"context"

	"github.com/zetherion/assistant-core/pkg/config"
)

// Store is the persistence contract the Tracker delegates range-bounded
// aggregations to. internal/store/postgres provides the production
// implementation; tests use an in-memory fake.
type Store interface {
	SaveRecord(ctx context.Context, rec Record) error
	TotalCost(ctx context.Context, r TimeRange) (float64, error)
	CostByProvider(ctx context.Context, r TimeRange) (map[config.Provider]float64, error)
	CostByTaskType(ctx context.Context, r TimeRange) (map[config.TaskType]float64, error)
	CostByModel(ctx context.Context, r TimeRange) (map[string]float64, error)
	DailyBreakdown(ctx context.Context, days int) ([]DailyCost, error)
	MonthlyReport(ctx context.Context, year, month int) (MonthlyReport, error)
	RateLimitCounts(ctx context.Context, r TimeRange) (map[config.Provider]int, error)
}
