package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepIDDeterminism(t *testing.T) {
	id1, err := StepID("session-1", 0, []string{"a", "b"})
	require.NoError(t, err)
	id2, err := StepID("session-1", 0, []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "StepID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestStepIDChangesWithInput(t *testing.T) {
	base, err := StepID("session-1", 0, []string{"a", "b"})
	require.NoError(t, err)

	otherSession, err := StepID("session-2", 0, []string{"a", "b"})
	require.NoError(t, err)
	otherIndex, err := StepID("session-1", 1, []string{"a", "b"})
	require.NoError(t, err)
	otherHalf, err := StepID("session-1", 0, []string{"a"})
	require.NoError(t, err)

	assert.NotEqual(t, base, otherSession)
	assert.NotEqual(t, base, otherIndex)
	assert.NotEqual(t, base, otherHalf)
}
