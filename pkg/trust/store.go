package trust

import "context"

// Store persists trust state per (userID, category) key. Implemented by
// internal/store/postgres.
type Store interface {
	Get(ctx context.Context, userID, category string) (State, bool, error)
	Save(ctx context.Context, state State) error
}
