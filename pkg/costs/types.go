// Package costs implements the Cost Tracker (C4): a per-call cost ledger
// with in-memory session counters, time-bounded aggregations delegated to
// a persistence Store, budget alerting, rate-limit statistics, and a
// model registry.
package costs

import (
	"time"

	"github.com/zetherion/assistant-core/pkg/config"
)

// Record is one inference call's cost ledger entry (spec.md §3 CostRecord).
// Exactly one Record is produced per inference call, success or failure.
type Record struct {
	Timestamp     time.Time
	Provider      config.Provider
	Model         string
	TokensIn      int
	TokensOut     int
	CostUSD       float64
	CostEstimated bool
	TaskType      config.TaskType
	UserID        int64
	LatencyMS     int64
	RateLimitHit  bool
	Success       bool
	Error         string
}

// ProviderSummary aggregates calls for one provider.
type ProviderSummary struct {
	Calls      int
	TokensIn   int
	TokensOut  int
	CostUSD    float64
	ByTaskType map[config.TaskType]float64
}

// Summary is the broker's cost_summary() response shape.
type Summary struct {
	PerProvider map[config.Provider]ProviderSummary
	TotalCostUSD float64
}

// DailyCost is one day's aggregated cost.
type DailyCost struct {
	Date    time.Time
	CostUSD float64
}

// MonthlyReport aggregates one calendar month.
type MonthlyReport struct {
	Year              int
	Month             int
	TotalCostUSD      float64
	CostByProvider    map[config.Provider]float64
	CostByTaskType    map[config.TaskType]float64
	ProjectedCostUSD  float64
}

// ModelInfo describes a known model in the registry.
type ModelInfo struct {
	Provider      config.Provider
	Model         string
	Tier          config.LocalTier
	ContextWindow int
	Deprecated    bool
}

// TimeRange bounds an aggregation query; a zero End means "through now".
type TimeRange struct {
	Start time.Time
	End   time.Time
}
