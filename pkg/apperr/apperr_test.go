package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("connection refused")

	t.Run("without ID", func(t *testing.T) {
		err := Transport("openai", cause)
		assert.Equal(t, "transport in openai: connection refused", err.Error())
	})

	t.Run("with ID", func(t *testing.T) {
		err := Queue("task-123", cause)
		assert.Equal(t, "queue in queue 'task-123': connection refused", err.Error())
	})
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("token expired")
	err := Auth("claude", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIsMatchesByKind(t *testing.T) {
	err := RateLimit("gemini", errors.New("429"))

	assert.True(t, Is(err, KindRateLimit))
	assert.False(t, Is(err, KindAuth))
}

func TestErrorIsBySentinelShape(t *testing.T) {
	err := Capacity("broker", errors.New("no providers"))
	sentinel := New(KindCapacity, "", "", nil)

	assert.True(t, errors.Is(err, sentinel))

	other := New(KindAuth, "", "", nil)
	assert.False(t, errors.Is(err, other))
}

func TestWrappedKindIsFound(t *testing.T) {
	inner := Skill("dev_watcher", errors.New("github unreachable"))
	wrapped := fmt.Errorf("dispatch failed: %w", inner)

	assert.True(t, Is(wrapped, KindSkill))
}
