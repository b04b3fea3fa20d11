package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/trust"
)

// TrustStore implements trust.Store (C6) against trust_states.
type TrustStore struct {
	pool *pgxpool.Pool
}

// NewTrustStore builds a TrustStore over pool.
func NewTrustStore(pool *pgxpool.Pool) *TrustStore {
	return &TrustStore{pool: pool}
}

func (s *TrustStore) Get(ctx context.Context, userID, category string) (trust.State, bool, error) {
	var st trust.State
	var level int
	var history []byte

	err := s.pool.QueryRow(ctx, `
		SELECT user_id, category, level, approvals, rejections, edits, total_interactions, history
		FROM trust_states WHERE user_id = $1 AND category = $2`, userID, category,
	).Scan(&st.UserID, &st.Category, &level, &st.Approvals, &st.Rejections, &st.Edits, &st.TotalInteractions, &history)
	if errors.Is(err, pgx.ErrNoRows) {
		return trust.State{}, false, nil
	}
	if err != nil {
		return trust.State{}, false, err
	}

	st.Level = config.TrustLevel(level)
	if err := json.Unmarshal(history, &st.History); err != nil {
		return trust.State{}, false, err
	}
	return st, true, nil
}

func (s *TrustStore) Save(ctx context.Context, state trust.State) error {
	history, err := json.Marshal(state.History)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO trust_states (user_id, category, level, approvals, rejections, edits, total_interactions, history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, category) DO UPDATE SET
			level = excluded.level,
			approvals = excluded.approvals,
			rejections = excluded.rejections,
			edits = excluded.edits,
			total_interactions = excluded.total_interactions,
			history = excluded.history`,
		state.UserID, state.Category, int(state.Level), state.Approvals, state.Rejections, state.Edits, state.TotalInteractions, history)
	return err
}
