// Package apperr implements the shared error taxonomy used across
// assistant-core components. Each Kind represents one way a subsystem can
// fail and carries the recovery/propagation semantics described by the
// component that raises it: callers classify with errors.As and branch on
// Kind rather than matching error strings.
package apperr

import "fmt"

// Kind identifies which error taxonomy an Error belongs to.
type Kind string

// Error kinds. See each component's doc comment for recovery semantics:
// router (ParseError, ValidationError), broker (TransportError,
// RateLimitError, AuthError, CapacityError), skills (SkillError), queue
// (QueueError), startup (Fatal).
const (
	// KindTransport covers connection/timeout failures talking to a
	// provider or skill service. Recovered locally by retry and provider
	// fallback.
	KindTransport Kind = "transport"

	// KindRateLimit covers a provider signaling rate limiting. Recovered
	// by longer backoff and provider fallback; flagged in the cost record.
	KindRateLimit Kind = "rate_limit"

	// KindAuth covers bad or expired credentials. The provider is removed
	// from available_providers; never retried under the same key.
	KindAuth Kind = "auth"

	// KindParse covers a non-conforming LLM response: malformed JSON from
	// the router, or a malformed stream chunk in the broker.
	KindParse Kind = "parse"

	// KindCapacity covers no provider being available for a task.
	KindCapacity Kind = "capacity"

	// KindSkill covers a skill returning success=false or raising.
	KindSkill Kind = "skill"

	// KindValidation covers an invalid intent, role, or category.
	KindValidation Kind = "validation"

	// KindQueue covers a queue enqueue/dequeue failure.
	KindQueue Kind = "queue"

	// KindFatal covers configuration missing at startup. The process
	// refuses to start; there is no retry.
	KindFatal Kind = "fatal"
)

// Error is a typed, wrapped error tagged with a taxonomy Kind plus the
// component and optional identifier it occurred against.
type Error struct {
	Kind      Kind
	Component string // e.g. provider name, skill name, task type
	ID        string // optional: task ID, session ID, etc.
	Err       error
}

// Error renders "<kind> in <component>[ '<id>']: <underlying>".
func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s in %s '%s': %v", e.Kind, e.Component, e.ID, e.Err)
	}
	return fmt.Sprintf("%s in %s: %v", e.Kind, e.Component, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, apperr.New(KindCapacity, "", "", nil)) style checks work
// without comparing the wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a taxonomy error.
func New(kind Kind, component, id string, err error) *Error {
	return &Error{Kind: kind, Component: component, ID: id, Err: err}
}

// Transport wraps err as a KindTransport error.
func Transport(component string, err error) *Error { return New(KindTransport, component, "", err) }

// RateLimit wraps err as a KindRateLimit error.
func RateLimit(component string, err error) *Error { return New(KindRateLimit, component, "", err) }

// Auth wraps err as a KindAuth error.
func Auth(component string, err error) *Error { return New(KindAuth, component, "", err) }

// Parse wraps err as a KindParse error.
func Parse(component string, err error) *Error { return New(KindParse, component, "", err) }

// Capacity wraps err as a KindCapacity error.
func Capacity(component string, err error) *Error { return New(KindCapacity, component, "", err) }

// Skill wraps err as a KindSkill error, identified by skill name.
func Skill(skillName string, err error) *Error { return New(KindSkill, skillName, "", err) }

// Validation wraps err as a KindValidation error.
func Validation(component, field string, err error) *Error {
	return New(KindValidation, component, field, err)
}

// Queue wraps err as a KindQueue error, identified by task ID.
func Queue(taskID string, err error) *Error { return New(KindQueue, "queue", taskID, err) }

// FatalErr wraps err as a KindFatal error. Named FatalErr (not Fatal) to
// avoid colliding with log.Fatal-style naming expectations at call sites.
func FatalErr(component string, err error) *Error { return New(KindFatal, component, "", err) }

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
