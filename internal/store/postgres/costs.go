package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/costs"
)

// CostStore implements costs.Store (C4) against cost_records.
type CostStore struct {
	pool *pgxpool.Pool
}

// NewCostStore builds a CostStore over pool.
func NewCostStore(pool *pgxpool.Pool) *CostStore {
	return &CostStore{pool: pool}
}

func (s *CostStore) SaveRecord(ctx context.Context, rec costs.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cost_records
			(ts, provider, model, tokens_in, tokens_out, cost_usd, cost_estimated, task_type, user_id, latency_ms, rate_limit_hit, success, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.Timestamp, string(rec.Provider), rec.Model, rec.TokensIn, rec.TokensOut, rec.CostUSD, rec.CostEstimated,
		string(rec.TaskType), rec.UserID, rec.LatencyMS, rec.RateLimitHit, rec.Success, rec.Error)
	return err
}

func (s *CostStore) rangeBounds(r costs.TimeRange) (time.Time, time.Time) {
	end := r.End
	if end.IsZero() {
		end = time.Now()
	}
	return r.Start, end
}

func (s *CostStore) TotalCost(ctx context.Context, r costs.TimeRange) (float64, error) {
	start, end := s.rangeBounds(r)
	var total float64
	err := s.pool.QueryRow(ctx, `
		SELECT coalesce(sum(cost_usd), 0) FROM cost_records WHERE ts >= $1 AND ts <= $2`, start, end).Scan(&total)
	return total, err
}

func (s *CostStore) CostByProvider(ctx context.Context, r costs.TimeRange) (map[config.Provider]float64, error) {
	start, end := s.rangeBounds(r)
	rows, err := s.pool.Query(ctx, `
		SELECT provider, sum(cost_usd) FROM cost_records WHERE ts >= $1 AND ts <= $2 GROUP BY provider`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[config.Provider]float64)
	for rows.Next() {
		var provider string
		var cost float64
		if err := rows.Scan(&provider, &cost); err != nil {
			return nil, err
		}
		out[config.Provider(provider)] = cost
	}
	return out, rows.Err()
}

func (s *CostStore) CostByTaskType(ctx context.Context, r costs.TimeRange) (map[config.TaskType]float64, error) {
	start, end := s.rangeBounds(r)
	rows, err := s.pool.Query(ctx, `
		SELECT task_type, sum(cost_usd) FROM cost_records WHERE ts >= $1 AND ts <= $2 AND task_type <> '' GROUP BY task_type`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[config.TaskType]float64)
	for rows.Next() {
		var taskType string
		var cost float64
		if err := rows.Scan(&taskType, &cost); err != nil {
			return nil, err
		}
		out[config.TaskType(taskType)] = cost
	}
	return out, rows.Err()
}

func (s *CostStore) CostByModel(ctx context.Context, r costs.TimeRange) (map[string]float64, error) {
	start, end := s.rangeBounds(r)
	rows, err := s.pool.Query(ctx, `
		SELECT model, sum(cost_usd) FROM cost_records WHERE ts >= $1 AND ts <= $2 GROUP BY model`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var model string
		var cost float64
		if err := rows.Scan(&model, &cost); err != nil {
			return nil, err
		}
		out[model] = cost
	}
	return out, rows.Err()
}

func (s *CostStore) DailyBreakdown(ctx context.Context, days int) ([]costs.DailyCost, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date_trunc('day', ts) AS day, sum(cost_usd)
		FROM cost_records
		WHERE ts >= now() - ($1 || ' days')::interval
		GROUP BY day
		ORDER BY day`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []costs.DailyCost
	for rows.Next() {
		var dc costs.DailyCost
		if err := rows.Scan(&dc.Date, &dc.CostUSD); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (s *CostStore) MonthlyReport(ctx context.Context, year, month int) (costs.MonthlyReport, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	r := costs.TimeRange{Start: start, End: end}

	report := costs.MonthlyReport{Year: year, Month: month}

	total, err := s.TotalCost(ctx, r)
	if err != nil {
		return report, err
	}
	report.TotalCostUSD = total

	byProvider, err := s.CostByProvider(ctx, r)
	if err != nil {
		return report, err
	}
	report.CostByProvider = byProvider

	byTaskType, err := s.CostByTaskType(ctx, r)
	if err != nil {
		return report, err
	}
	report.CostByTaskType = byTaskType

	elapsed := time.Since(start)
	totalMonth := end.Sub(start)
	if elapsed > 0 && elapsed < totalMonth {
		report.ProjectedCostUSD = total * totalMonth.Seconds() / elapsed.Seconds()
	} else {
		report.ProjectedCostUSD = total
	}
	return report, nil
}

func (s *CostStore) RateLimitCounts(ctx context.Context, r costs.TimeRange) (map[config.Provider]int, error) {
	start, end := s.rangeBounds(r)
	rows, err := s.pool.Query(ctx, `
		SELECT provider, count(*) FROM cost_records
		WHERE ts >= $1 AND ts <= $2 AND rate_limit_hit = true GROUP BY provider`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[config.Provider]int)
	for rows.Next() {
		var provider string
		var n int
		if err := rows.Scan(&provider, &n); err != nil {
			return nil, err
		}
		out[config.Provider(provider)] = n
	}
	return out, rows.Err()
}

// PurgeOlderThan deletes cost records older than retentionDays, returning
// the number of rows removed. Backs the retention sweep (pkg/cleanup).
func (s *CostStore) PurgeOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM cost_records WHERE ts < now() - make_interval(days => $1)`, retentionDays)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
