package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/queue"
	"github.com/zetherion/assistant-core/pkg/skills"
)

type fakeSender struct {
	sent map[string]string
	err  error
}

func (f *fakeSender) SendMessage(ctx context.Context, userID, text string) error {
	if f.err != nil {
		return f.err
	}
	if f.sent == nil {
		f.sent = make(map[string]string)
	}
	f.sent[userID] = text
	return nil
}

type fakeMemory struct {
	updates map[string]map[string]any
	err     error
}

func (f *fakeMemory) UpdateMemory(ctx context.Context, userID string, data map[string]any) error {
	if f.err != nil {
		return f.err
	}
	if f.updates == nil {
		f.updates = make(map[string]map[string]any)
	}
	f.updates[userID] = data
	return nil
}

type fakeFollowups struct {
	id  string
	err error
}

func (f *fakeFollowups) ScheduleFollowup(ctx context.Context, action skills.HeartbeatAction) (string, error) {
	return f.id, f.err
}

func TestExecuteSendMessageSuccess(t *testing.T) {
	sender := &fakeSender{}
	e := New(sender, nil, nil, nil)

	result := e.Execute(context.Background(), skills.HeartbeatAction{
		ActionType: "send_message", UserID: "u1", Data: map[string]any{"text": "hi"},
	})

	require.True(t, result.Success)
	assert.Equal(t, "hi", sender.sent["u1"])
}

func TestExecuteSendMessageWithoutAdapterFails(t *testing.T) {
	e := New(nil, nil, nil, nil)
	result := e.Execute(context.Background(), skills.HeartbeatAction{ActionType: "send_message", UserID: "u1"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no message transport")
}

func TestExecuteSendMessagePropagatesTransportError(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection reset")}
	e := New(sender, nil, nil, nil)
	result := e.Execute(context.Background(), skills.HeartbeatAction{ActionType: "send_message", UserID: "u1"})
	assert.False(t, result.Success)
	assert.Equal(t, "connection reset", result.Error)
}

func TestExecuteUpdateMemorySuccess(t *testing.T) {
	memory := &fakeMemory{}
	e := New(nil, memory, nil, nil)

	result := e.Execute(context.Background(), skills.HeartbeatAction{
		ActionType: "update_memory", UserID: "u1", Data: map[string]any{"k": "v"},
	})

	require.True(t, result.Success)
	assert.Equal(t, "v", memory.updates["u1"]["k"])
}

func TestExecuteUpdateMemoryWithoutAdapterFails(t *testing.T) {
	e := New(nil, nil, nil, nil)
	result := e.Execute(context.Background(), skills.HeartbeatAction{ActionType: "update_memory"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no memory store")
}

func TestExecuteScheduleFollowupSuccess(t *testing.T) {
	followups := &fakeFollowups{id: "ev1"}
	e := New(nil, nil, followups, nil)

	result := e.Execute(context.Background(), skills.HeartbeatAction{ActionType: "schedule_followup"})
	require.True(t, result.Success)
	assert.Contains(t, result.Message, "ev1")
}

func TestExecuteUnknownActionTypeFails(t *testing.T) {
	e := New(nil, nil, nil, nil)
	result := e.Execute(context.Background(), skills.HeartbeatAction{ActionType: "do_a_backflip"})
	assert.False(t, result.Success)
	assert.Equal(t, "unknown action type", result.Error)
}

func TestQueueTaskExecutorDispatchesToUnderlyingExecutor(t *testing.T) {
	sender := &fakeSender{}
	e := New(sender, nil, nil, nil)
	qe := NewQueueTaskExecutor(e)

	err := qe.Execute(context.Background(), &queue.QueueTask{
		TaskType: "send_message",
		UserID:   42,
		Payload:  map[string]any{"text": "reminder"},
	})

	require.NoError(t, err)
	assert.Equal(t, "reminder", sender.sent["42"])
}

func TestQueueTaskExecutorReturnsErrorOnFailure(t *testing.T) {
	e := New(nil, nil, nil, nil)
	qe := NewQueueTaskExecutor(e)

	err := qe.Execute(context.Background(), &queue.QueueTask{TaskType: "send_message", UserID: 7})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no message transport")
}
