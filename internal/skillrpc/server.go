// Package skillrpc exposes the Skill Registry over HTTP (spec.md §6's
// skill RPC contract), grounded on the teacher's cmd/tarsy/main.go gin
// wiring: a minimal gin.Engine with a handful of JSON routes and a health
// endpoint, rather than the generated-client surface ent/grpc-gateway
// would otherwise imply. Used when skills run out-of-process from the
// orchestrator; the in-process orchestrator talks to *skills.Registry
// directly and has no need for this server.
package skillrpc

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/skills"
	"github.com/zetherion/assistant-core/pkg/version"
)

// skillRequestBody is the wire shape of POST /skill/request. It carries
// skills.Request's fields plus the top-level MessageIntent the registry
// routes on (skills.Request.Intent is only ever the orchestrator-derived
// sub-intent, not enough on its own to find the owning skill).
type skillRequestBody struct {
	ID            string               `json:"id"`
	UserID        string               `json:"user_id"`
	MessageIntent config.MessageIntent `json:"message_intent"`
	Intent        string               `json:"intent"`
	Message       string               `json:"message"`
	Context       map[string]any       `json:"context"`
}

type heartbeatRequestBody struct {
	UserIDs []string `json:"user_ids"`
}

type heartbeatResponseBody struct {
	Actions []skills.HeartbeatAction `json:"actions"`
}

type healthResponseBody struct {
	Status  string   `json:"status"`
	Version string   `json:"version"`
	Skills  []string `json:"skills"`
}

// Server wraps a gin.Engine serving the skill RPC contract over registry.
type Server struct {
	engine   *gin.Engine
	registry *skills.Registry
	timeout  time.Duration
	log      *slog.Logger
}

// New builds a Server. timeout bounds every request handler (spec.md §6:
// "the orchestrator's skill client uses timeouts from configuration").
func New(registry *skills.Registry, timeout time.Duration, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	s := &Server{registry: registry, timeout: timeout, log: log.With("component", "skillrpc")}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.POST("/skill/request", s.handleSkillRequest)
	engine.POST("/heartbeat", s.handleHeartbeat)
	engine.GET("/health", s.handleHealth)
	s.engine = engine

	return s
}

// Handler returns the underlying http.Handler, for use with http.Server or
// in tests via httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleSkillRequest(c *gin.Context) {
	var body skillRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, skills.ErrorResponse("", "malformed request: "+err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	resp := s.registry.Route(ctx, body.MessageIntent, skills.Request{
		ID: body.ID, UserID: body.UserID, Intent: body.Intent, Message: body.Message, Context: body.Context,
	})
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHeartbeat(c *gin.Context) {
	var body heartbeatRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	actions := s.registry.Heartbeat(ctx, body.UserIDs)
	c.JSON(http.StatusOK, heartbeatResponseBody{Actions: actions})
}

func (s *Server) handleHealth(c *gin.Context) {
	names := s.registry.SkillNames()
	c.JSON(http.StatusOK, healthResponseBody{Status: "healthy", Version: version.Full(), Skills: names})
}
