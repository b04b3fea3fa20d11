package assumptions

import (
	"context"
	"time"
)

// Store persists assumptions. Implemented by internal/store/postgres.
type Store interface {
	Save(ctx context.Context, a Assumption) (Assumption, error)
	Get(ctx context.Context, id string) (Assumption, bool, error)
	// List returns assumptions for channelID. If source is non-empty, only
	// assumptions with that Source are returned.
	List(ctx context.Context, channelID string, source Source) ([]Assumption, error)
	Update(ctx context.Context, id string, fn func(a *Assumption)) (Assumption, error)
	Stale(ctx context.Context, now time.Time) ([]Assumption, error)
}
