package calendar

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
	upcoming    []Event
	upcomingErr error
	imminent    []Event
	imminentErr error
}

func (f *fakeStore) Upcoming(ctx context.Context, userID string, within time.Duration) ([]Event, error) {
	return f.upcoming, f.upcomingErr
}

func (f *fakeStore) ImminentDeadlines(ctx context.Context, userID string, within time.Duration) ([]Event, error) {
	return f.imminent, f.imminentErr
}

func TestHandleReturnsEventsJoined(t *testing.T) {
	store := &fakeStore{upcoming: []Event{{ID: "e1", Title: "standup", StartsAt: time.Now()}}}
	sk := New(store, nil)

	resp := sk.Handle(context.Background(), skills.Request{ID: "r1", UserID: "u1", Intent: "upcoming"})

	require.True(t, resp.Success)
	assert.Contains(t, resp.Message, "standup")
}

func TestHandleEmptyCalendar(t *testing.T) {
	sk := New(&fakeStore{}, nil)
	resp := sk.Handle(context.Background(), skills.Request{ID: "r1", UserID: "u1", Intent: "upcoming"})
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "nothing")
}

func TestHandleStoreErrorReturnsErrorResponse(t *testing.T) {
	store := &fakeStore{upcomingErr: errors.New("down")}
	sk := New(store, nil)
	resp := sk.Handle(context.Background(), skills.Request{ID: "r1", UserID: "u1", Intent: "upcoming"})
	assert.False(t, resp.Success)
}

func TestDeriveSubIntent(t *testing.T) {
	assert.Equal(t, "today", DeriveSubIntent("what's on today"))
	assert.Equal(t, "upcoming", DeriveSubIntent("what's coming up"))
}

func TestOnHeartbeatProposesHighPriorityForImminentEvents(t *testing.T) {
	store := &fakeStore{imminent: []Event{{ID: "e1", Title: "1:1", StartsAt: time.Now().Add(30 * time.Minute)}}}
	sk := New(store, nil)

	actions, err := sk.OnHeartbeat(context.Background(), []string{"u1"})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, 8, actions[0].Priority)
}
