package skillrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/skills"
)

type echoSkill struct {
	heartbeatActions []skills.HeartbeatAction
}

func (e *echoSkill) Metadata() skills.Metadata {
	return skills.Metadata{Name: "echo", Intents: []config.MessageIntent{config.IntentTaskManagement}}
}

func (e *echoSkill) Initialize(ctx context.Context) error { return nil }

func (e *echoSkill) Cleanup(ctx context.Context) error { return nil }

func (e *echoSkill) Handle(ctx context.Context, req skills.Request) skills.Response {
	return skills.OKResponse(req.ID, "echo: "+req.Message, nil)
}

func (e *echoSkill) OnHeartbeat(ctx context.Context, userIDs []string) ([]skills.HeartbeatAction, error) {
	return e.heartbeatActions, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry := skills.New(nil)
	registry.Load(&echoSkill{heartbeatActions: []skills.HeartbeatAction{{SkillName: "echo", ActionType: "nudge", Priority: 5}}})
	registry.Initialize(context.Background())
	return New(registry, 2*time.Second, nil)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSkillRequestRoutesToOwningSkill(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s.Handler(), "/skill/request", skillRequestBody{
		ID: "req-1", UserID: "u1", MessageIntent: config.IntentTaskManagement, Intent: "create_task", Message: "buy milk",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp skills.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "echo: buy milk", resp.Message)
}

func TestHandleSkillRequestUnknownIntentReturnsErrorResponse(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s.Handler(), "/skill/request", skillRequestBody{
		ID: "req-2", UserID: "u1", MessageIntent: config.IntentCalendarQuery, Intent: "default", Message: "anything",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp skills.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestHandleHeartbeatReturnsActions(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s.Handler(), "/heartbeat", heartbeatRequestBody{UserIDs: []string{"u1"}})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp heartbeatResponseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, "echo", resp.Actions[0].SkillName)
}

func TestHandleHealthListsRegisteredSkills(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Contains(t, resp.Skills, "echo")
}
