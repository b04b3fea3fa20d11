package skills

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/zetherion/assistant-core/pkg/config"
)

// Status is a registered skill's lifecycle state.
type Status string

const (
	StatusReady Status = "ready"
	StatusError Status = "error"
)

// entry pairs a skill with its post-initialize status.
type entry struct {
	skill  Skill
	status Status
	err    error
}

// Registry holds every configured skill, indexed by name and by the
// intents it declares, and routes synchronous requests and heartbeat
// polls across them (spec.md §4.5).
type Registry struct {
	log *slog.Logger

	mu        sync.RWMutex
	byName    map[string]*entry
	byIntent  map[config.MessageIntent]*entry
	subIntent map[config.MessageIntent]func(message string) string
}

// New builds an empty Registry. Load registers skills; Initialize brings
// them up.
func New(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:       log.With("component", "skills"),
		byName:    make(map[string]*entry),
		byIntent:  make(map[config.MessageIntent]*entry),
		subIntent: make(map[config.MessageIntent]func(message string) string),
	}
}

// Load registers skills without initializing them. Later calls win on name
// or intent collisions, matching config-merge semantics elsewhere in the
// codebase.
func (r *Registry) Load(skills ...Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range skills {
		meta := s.Metadata()
		e := &entry{skill: s, status: StatusReady}
		r.byName[meta.Name] = e
		for _, intent := range meta.Intents {
			r.byIntent[intent] = e
		}
	}
}

// RegisterSubIntentDeriver installs the keyword-parsing function used to
// derive a skill-specific sub-intent from the raw message text for the
// given top-level intent (spec.md §4.5: "add"->create_task, "list"->
// list_tasks). If none is registered for an intent, DeriveSubIntent
// returns "default".
func (r *Registry) RegisterSubIntentDeriver(intent config.MessageIntent, fn func(message string) string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subIntent[intent] = fn
}

// Initialize calls Initialize() on every registered skill. A skill whose
// Initialize fails is marked StatusError and routes to a generic fallback
// response rather than being removed from the registry (spec.md §4.5).
func (r *Registry) Initialize(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, e := range r.byName {
		if err := e.skill.Initialize(ctx); err != nil {
			e.status = StatusError
			e.err = err
			r.log.Error("skill failed to initialize, marking error", "skill", name, "error", err)
			continue
		}
		r.log.Info("skill initialized", "skill", name)
	}
}

// Cleanup calls Cleanup() on every registered skill, continuing past
// individual failures so one misbehaving skill cannot block shutdown.
func (r *Registry) Cleanup(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, e := range r.byName {
		if err := e.skill.Cleanup(ctx); err != nil {
			r.log.Error("skill cleanup failed", "skill", name, "error", err)
		}
	}
}

// DeriveSubIntent applies the keyword-parsing table for intent to message,
// falling back to the skill-specific default sub-intent "default" when no
// deriver is registered or none of its keywords match (spec.md §4.5).
func (r *Registry) DeriveSubIntent(intent config.MessageIntent, message string) string {
	r.mu.RLock()
	fn := r.subIntent[intent]
	r.mu.RUnlock()
	if fn == nil {
		return "default"
	}
	sub := fn(message)
	if sub == "" {
		return "default"
	}
	return sub
}

// Route dispatches req to the skill declared for intent. If no skill
// declares intent, or the skill errored at startup, a generic fallback
// response is returned instead of routing (spec.md §4.5).
func (r *Registry) Route(ctx context.Context, intent config.MessageIntent, req Request) Response {
	r.mu.RLock()
	e, ok := r.byIntent[intent]
	r.mu.RUnlock()

	if !ok {
		return ErrorResponse(req.ID, "no skill registered for intent "+string(intent))
	}
	if e.status == StatusError {
		r.log.Warn("routing to errored skill, returning fallback", "intent", intent, "error", e.err)
		return ErrorResponse(req.ID, "skill unavailable, please try again later")
	}
	return e.skill.Handle(ctx, req)
}

// Heartbeat polls every ready skill's OnHeartbeat for the given users and
// returns the combined, priority-sorted (descending) action list.
func (r *Registry) Heartbeat(ctx context.Context, userIDs []string) []HeartbeatAction {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.byName))
	for _, e := range r.byName {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var actions []HeartbeatAction
	for _, e := range entries {
		if e.status == StatusError {
			continue
		}
		proposed, err := e.skill.OnHeartbeat(ctx, userIDs)
		if err != nil {
			r.log.Error("skill heartbeat failed", "skill", e.skill.Metadata().Name, "error", err)
			continue
		}
		actions = append(actions, proposed...)
	}

	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Priority > actions[j].Priority })
	return actions
}

// SystemPromptFragments collects optional system-prompt fragments from
// every ready skill that implements PromptFragmentSkill, for the given
// user, joined by newlines.
func (r *Registry) SystemPromptFragments(ctx context.Context, userID string) string {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.byName))
	for _, e := range r.byName {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var frags []string
	for _, e := range entries {
		if e.status == StatusError {
			continue
		}
		pf, ok := e.skill.(PromptFragmentSkill)
		if !ok {
			continue
		}
		if frag, ok := pf.SystemPromptFragment(ctx, userID); ok && frag != "" {
			frags = append(frags, frag)
		}
	}
	return strings.Join(frags, "\n")
}

// SkillNames returns every registered skill's name, sorted, for use by
// health endpoints.
func (r *Registry) SkillNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status returns the lifecycle status of the named skill.
func (r *Registry) Status(name string) (Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	if !ok {
		return "", errSkillNotFound(name)
	}
	return e.status, e.err
}

type errSkillNotFound string

func (e errSkillNotFound) Error() string { return "skill not found: " + string(e) }
