package devwatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/skills"
)

type fakeStore struct {
	commits        []Commit
	lastDigestAt   time.Time
	markDigestCalls int
}

func (f *fakeStore) RecentCommits(ctx context.Context, userID string, since time.Time) ([]Commit, error) {
	return f.commits, nil
}
func (f *fakeStore) LastDigestAt(ctx context.Context, userID string) (time.Time, error) {
	return f.lastDigestAt, nil
}
func (f *fakeStore) MarkDigestSent(ctx context.Context, userID string, at time.Time) error {
	f.markDigestCalls++
	return nil
}

func TestHandleSummarizesCommitCount(t *testing.T) {
	store := &fakeStore{commits: []Commit{{SHA: "abc"}, {SHA: "def"}}}
	sk := New(store, nil)

	resp := sk.Handle(context.Background(), skills.Request{ID: "r1", UserID: "u1"})

	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "2 commits")
}

func TestOnHeartbeatSkipsWhenDigestRecentlySent(t *testing.T) {
	store := &fakeStore{lastDigestAt: time.Now(), commits: []Commit{{SHA: "abc"}}}
	sk := New(store, nil)

	actions, err := sk.OnHeartbeat(context.Background(), []string{"u1"})
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestOnHeartbeatProposesDigestWhenDue(t *testing.T) {
	store := &fakeStore{lastDigestAt: time.Now().Add(-48 * time.Hour), commits: []Commit{{SHA: "abc"}}}
	sk := New(store, nil)

	actions, err := sk.OnHeartbeat(context.Background(), []string{"u1"})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, 5, actions[0].Priority)
	assert.Equal(t, 1, store.markDigestCalls)
}

func TestDeriveSubIntent(t *testing.T) {
	assert.Equal(t, "digest", DeriveSubIntent("give me a summary"))
	assert.Equal(t, "recent_activity", DeriveSubIntent("what happened"))
}
