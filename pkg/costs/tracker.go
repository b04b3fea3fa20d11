package costs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/zetherion/assistant-core/pkg/config"
)

// AlertFunc is invoked once per budget threshold crossing.
type AlertFunc func(thresholdUSD, currentUSD float64)

// Tracker is the Cost Tracker (C4). It holds fast in-memory session
// counters for cost_summary() reads and delegates range-bounded
// aggregations to a Store.
type Tracker struct {
	store  Store
	cfg    config.CostsConfig
	onAlert AlertFunc
	log    *slog.Logger

	mu           sync.RWMutex
	session      map[config.Provider]*ProviderSummary
	monthCostUSD float64
	monthStart   time.Time
	crossedAlert map[float64]bool

	modelsMu sync.RWMutex
	models   map[string]ModelInfo

	instruments *instruments
}

// NewTracker builds a Tracker. onAlert may be nil (alerts are dropped).
func NewTracker(store Store, cfg config.CostsConfig, onAlert AlertFunc, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	now := time.Now()
	return &Tracker{
		store:        store,
		cfg:          cfg,
		onAlert:      onAlert,
		log:          log.With("component", "costs"),
		session:      make(map[config.Provider]*ProviderSummary),
		monthStart:   time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		crossedAlert: make(map[float64]bool),
		models:       make(map[string]ModelInfo),
	}
}

// Record persists rec and updates in-memory session counters and budget
// alert state. Invariant: callers invoke this exactly once per inference
// call, including failed ones (spec.md §4.4).
func (t *Tracker) Record(ctx context.Context, rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	if err := t.store.SaveRecord(ctx, rec); err != nil {
		t.log.Error("failed to persist cost record", "error", err, "provider", rec.Provider)
	}
	t.instruments.record(ctx, rec)

	t.mu.Lock()
	t.rollMonthLocked(rec.Timestamp)
	ps, ok := t.session[rec.Provider]
	if !ok {
		ps = &ProviderSummary{ByTaskType: make(map[config.TaskType]float64)}
		t.session[rec.Provider] = ps
	}
	ps.Calls++
	ps.TokensIn += rec.TokensIn
	ps.TokensOut += rec.TokensOut
	ps.CostUSD += rec.CostUSD
	if rec.TaskType != "" {
		ps.ByTaskType[rec.TaskType] += rec.CostUSD
	}
	t.monthCostUSD += rec.CostUSD
	monthTotal := t.monthCostUSD
	t.mu.Unlock()

	t.checkBudgetAlerts(monthTotal)
}

// rollMonthLocked resets the running month total when ts crosses into a new
// calendar month. Caller holds t.mu.
func (t *Tracker) rollMonthLocked(ts time.Time) {
	monthStart := time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, ts.Location())
	if monthStart.After(t.monthStart) {
		t.monthStart = monthStart
		t.monthCostUSD = 0
		t.crossedAlert = make(map[float64]bool)
	}
}

// checkBudgetAlerts fires onAlert once per configured threshold the first
// time the running month total crosses it.
func (t *Tracker) checkBudgetAlerts(monthTotal float64) {
	if t.onAlert == nil {
		return
	}
	for _, threshold := range t.cfg.AlertThresholdsUSD {
		t.mu.Lock()
		already := t.crossedAlert[threshold]
		crossed := !already && monthTotal >= threshold
		if crossed {
			t.crossedAlert[threshold] = true
		}
		t.mu.Unlock()
		if crossed {
			t.onAlert(threshold, monthTotal)
		}
	}
}

// Summary returns the in-memory session cost_summary() view (spec.md §4.3).
func (t *Tracker) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := Summary{PerProvider: make(map[config.Provider]ProviderSummary, len(t.session))}
	for p, ps := range t.session {
		byTask := make(map[config.TaskType]float64, len(ps.ByTaskType))
		for k, v := range ps.ByTaskType {
			byTask[k] = v
		}
		out.PerProvider[p] = ProviderSummary{
			Calls:      ps.Calls,
			TokensIn:   ps.TokensIn,
			TokensOut:  ps.TokensOut,
			CostUSD:    ps.CostUSD,
			ByTaskType: byTask,
		}
		out.TotalCostUSD += ps.CostUSD
	}
	return out
}

// TotalCost delegates to the Store.
func (t *Tracker) TotalCost(ctx context.Context, r TimeRange) (float64, error) {
	return t.store.TotalCost(ctx, r)
}

// CostByProvider delegates to the Store.
func (t *Tracker) CostByProvider(ctx context.Context, r TimeRange) (map[config.Provider]float64, error) {
	return t.store.CostByProvider(ctx, r)
}

// CostByTaskType delegates to the Store.
func (t *Tracker) CostByTaskType(ctx context.Context, r TimeRange) (map[config.TaskType]float64, error) {
	return t.store.CostByTaskType(ctx, r)
}

// CostByModel delegates to the Store.
func (t *Tracker) CostByModel(ctx context.Context, r TimeRange) (map[string]float64, error) {
	return t.store.CostByModel(ctx, r)
}

// DailyBreakdown delegates to the Store.
func (t *Tracker) DailyBreakdown(ctx context.Context, days int) ([]DailyCost, error) {
	return t.store.DailyBreakdown(ctx, days)
}

// MonthlyReport delegates to the Store and fills in ProjectedCostUSD via
// linear extrapolation of the current-month daily average (spec.md §4.4).
func (t *Tracker) MonthlyReport(ctx context.Context, year, month int) (MonthlyReport, error) {
	report, err := t.store.MonthlyReport(ctx, year, month)
	if err != nil {
		return MonthlyReport{}, err
	}

	now := time.Now()
	if year == now.Year() && time.Month(month) == now.Month() {
		daysElapsed := now.Day()
		daysInMonth := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, now.Location()).Day()
		if daysElapsed > 0 {
			dailyAvg := report.TotalCostUSD / float64(daysElapsed)
			report.ProjectedCostUSD = dailyAvg * float64(daysInMonth)
		}
	} else {
		report.ProjectedCostUSD = report.TotalCostUSD
	}
	return report, nil
}

// RateLimitCounts delegates to the Store.
func (t *Tracker) RateLimitCounts(ctx context.Context, r TimeRange) (map[config.Provider]int, error) {
	return t.store.RateLimitCounts(ctx, r)
}

// RegisterModel adds or updates a model registry entry.
func (t *Tracker) RegisterModel(info ModelInfo) {
	t.modelsMu.Lock()
	defer t.modelsMu.Unlock()
	t.models[info.Model] = info
}

// Models returns the non-deprecated models unless includeDeprecated is set.
func (t *Tracker) Models(includeDeprecated bool) []ModelInfo {
	t.modelsMu.RLock()
	defer t.modelsMu.RUnlock()

	out := make([]ModelInfo, 0, len(t.models))
	for _, m := range t.models {
		if m.Deprecated && !includeDeprecated {
			continue
		}
		out = append(out, m)
	}
	return out
}
