package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zetherion/assistant-core/pkg/assumptions"
)

// AssumptionStore implements assumptions.Store (C11) against assumptions.
type AssumptionStore struct {
	pool *pgxpool.Pool
}

// NewAssumptionStore builds an AssumptionStore over pool.
func NewAssumptionStore(pool *pgxpool.Pool) *AssumptionStore {
	return &AssumptionStore{pool: pool}
}

func scanAssumption(row pgx.Row) (assumptions.Assumption, error) {
	var a assumptions.Assumption
	var evidence []byte
	var category, source string
	err := row.Scan(&a.ID, &a.ChannelID, &category, &a.Statement, &evidence, &a.Confidence, &source,
		&a.ConfirmedAt, &a.LastValidated, &a.NextValidation)
	if err != nil {
		return assumptions.Assumption{}, err
	}
	a.Category = assumptions.Category(category)
	a.Source = assumptions.Source(source)
	if err := json.Unmarshal(evidence, &a.Evidence); err != nil {
		return assumptions.Assumption{}, err
	}
	return a, nil
}

const assumptionColumns = `id, channel_id, category, statement, evidence, confidence, source, confirmed_at, last_validated, next_validation`

func (s *AssumptionStore) Save(ctx context.Context, a assumptions.Assumption) (assumptions.Assumption, error) {
	evidence, err := json.Marshal(a.Evidence)
	if err != nil {
		return assumptions.Assumption{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO assumptions (id, channel_id, category, statement, evidence, confidence, source, confirmed_at, last_validated, next_validation)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+assumptionColumns,
		a.ChannelID, string(a.Category), a.Statement, evidence, a.Confidence, string(a.Source), a.ConfirmedAt, a.LastValidated, a.NextValidation)
	return scanAssumption(row)
}

func (s *AssumptionStore) Get(ctx context.Context, id string) (assumptions.Assumption, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+assumptionColumns+` FROM assumptions WHERE id = $1`, id)
	a, err := scanAssumption(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return assumptions.Assumption{}, false, nil
	}
	if err != nil {
		return assumptions.Assumption{}, false, err
	}
	return a, true, nil
}

func (s *AssumptionStore) List(ctx context.Context, channelID string, source assumptions.Source) ([]assumptions.Assumption, error) {
	var rows pgx.Rows
	var err error
	if source == "" {
		rows, err = s.pool.Query(ctx, `SELECT `+assumptionColumns+` FROM assumptions WHERE channel_id = $1`, channelID)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+assumptionColumns+` FROM assumptions WHERE channel_id = $1 AND source = $2`, channelID, string(source))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []assumptions.Assumption
	for rows.Next() {
		a, err := scanAssumption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *AssumptionStore) Update(ctx context.Context, id string, fn func(a *assumptions.Assumption)) (assumptions.Assumption, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return assumptions.Assumption{}, err
	}
	defer tx.Rollback(ctx)

	a, err := scanAssumption(tx.QueryRow(ctx, `SELECT `+assumptionColumns+` FROM assumptions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return assumptions.Assumption{}, err
	}

	fn(&a)

	evidence, err := json.Marshal(a.Evidence)
	if err != nil {
		return assumptions.Assumption{}, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE assumptions SET category = $2, statement = $3, evidence = $4, confidence = $5, source = $6,
			confirmed_at = $7, last_validated = $8, next_validation = $9
		WHERE id = $1`,
		id, string(a.Category), a.Statement, evidence, a.Confidence, string(a.Source), a.ConfirmedAt, a.LastValidated, a.NextValidation); err != nil {
		return assumptions.Assumption{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return assumptions.Assumption{}, err
	}
	return a, nil
}

func (s *AssumptionStore) Stale(ctx context.Context, now time.Time) ([]assumptions.Assumption, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+assumptionColumns+` FROM assumptions WHERE next_validation <= $1`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []assumptions.Assumption
	for rows.Next() {
		a, err := scanAssumption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
