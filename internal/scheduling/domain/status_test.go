package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got)

	_, err = ParseStatus("noshow")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = ParseStatus("Scheduled")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusScheduled.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusScheduled.CanTransitionTo(StatusNoShow))
	assert.True(t, StatusScheduled.CanTransitionTo(StatusScheduled))
	assert.True(t, StatusCancelled.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusScheduled))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusNoShow))
	assert.False(t, StatusScheduled.CanTransitionTo(Status("paused")))
}

func TestStatus_OccupiesTime(t *testing.T) {
	assert.True(t, StatusScheduled.OccupiesTime())
	assert.True(t, StatusCompleted.OccupiesTime())
	assert.True(t, StatusNoShow.OccupiesTime())
	assert.False(t, StatusCancelled.OccupiesTime())
}
