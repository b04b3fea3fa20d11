package milestone

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/skills"
)

type fakeStore struct {
	pending     []Milestone
	pendingErr  error
	ackErr      error
	ackedIDs    []string
}

func (f *fakeStore) Pending(ctx context.Context, userID string) ([]Milestone, error) {
	return f.pending, f.pendingErr
}
func (f *fakeStore) Acknowledge(ctx context.Context, userID, milestoneID string) error {
	if f.ackErr != nil {
		return f.ackErr
	}
	f.ackedIDs = append(f.ackedIDs, milestoneID)
	return nil
}

func TestHandleListPending(t *testing.T) {
	store := &fakeStore{pending: []Milestone{{ID: "m1", Title: "v1.0 shipped", DetectedAt: time.Now()}}}
	sk := New(store, nil)

	resp := sk.Handle(context.Background(), skills.Request{ID: "r1", UserID: "u1", Intent: "list_pending"})

	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "v1.0 shipped")
}

func TestHandleAcknowledgeRequiresID(t *testing.T) {
	sk := New(&fakeStore{}, nil)
	resp := sk.Handle(context.Background(), skills.Request{ID: "r1", UserID: "u1", Intent: "acknowledge"})
	assert.False(t, resp.Success)
}

func TestHandleAcknowledgeSuccess(t *testing.T) {
	store := &fakeStore{}
	sk := New(store, nil)

	resp := sk.Handle(context.Background(), skills.Request{
		ID: "r1", UserID: "u1", Intent: "acknowledge",
		Context: map[string]any{"milestone_id": "m1"},
	})

	require.True(t, resp.Success)
	assert.Equal(t, []string{"m1"}, store.ackedIDs)
}

func TestHandlePendingStoreErrorReturnsErrorResponse(t *testing.T) {
	store := &fakeStore{pendingErr: errors.New("down")}
	sk := New(store, nil)
	resp := sk.Handle(context.Background(), skills.Request{ID: "r1", UserID: "u1"})
	assert.False(t, resp.Success)
}

func TestOnHeartbeatProposesActionPerPendingMilestone(t *testing.T) {
	store := &fakeStore{pending: []Milestone{{ID: "m1", Title: "v1.0"}, {ID: "m2", Title: "v2.0"}}}
	sk := New(store, nil)

	actions, err := sk.OnHeartbeat(context.Background(), []string{"u1"})
	require.NoError(t, err)
	assert.Len(t, actions, 2)
	assert.Equal(t, 6, actions[0].Priority)
}

func TestDeriveSubIntent(t *testing.T) {
	assert.Equal(t, "acknowledge", DeriveSubIntent("please dismiss that"))
	assert.Equal(t, "list_pending", DeriveSubIntent("anything new?"))
}
