package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession("Intro call", "first meeting", Interval{at(14, 0), at(15, 0)},
		uuid.New(), uuid.New(), "", at(9, 0))
	require.NoError(t, err)
	s.ClearDomainEvents()
	return s
}

func TestNewSession(t *testing.T) {
	studentID, coachID := uuid.New(), uuid.New()

	s, err := NewSession("  Intro call  ", "", Interval{at(14, 0), at(15, 0)}, studentID, coachID, "", at(9, 0))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, s.ID())
	assert.Equal(t, "Intro call", s.Title())
	assert.Equal(t, StatusScheduled, s.Status())
	assert.Equal(t, studentID, s.StudentID())
	assert.Equal(t, coachID, s.CoachID())
	assert.Equal(t, studentID, s.Participant(ParticipantStudent))
	assert.Equal(t, coachID, s.Participant(ParticipantCoach))
	assert.Equal(t, at(9, 0), s.CreatedAt())
	assert.True(t, s.OccupiesTime())

	events := s.DomainEvents()
	require.Len(t, events, 1)
	booked, ok := events[0].(*SessionBooked)
	require.True(t, ok)
	assert.Equal(t, RoutingKeySessionBooked, booked.RoutingKey())
	assert.Equal(t, s.ID(), booked.AggregateID())
	assert.Equal(t, at(14, 0), booked.StartTime)
}

func TestNewSession_Validation(t *testing.T) {
	valid := Interval{at(14, 0), at(15, 0)}
	studentID, coachID := uuid.New(), uuid.New()

	tests := []struct {
		name     string
		title    string
		interval Interval
		student  uuid.UUID
		coach    uuid.UUID
		status   Status
		wantErr  error
	}{
		{"blank title", "   ", valid, studentID, coachID, "", ErrEmptyTitle},
		{"long title", strings.Repeat("x", MaxTitleLength+1), valid, studentID, coachID, "", ErrTitleTooLong},
		{"empty interval", "t", Interval{at(14, 0), at(14, 0)}, studentID, coachID, "", ErrInvalidInterval},
		{"inverted interval", "t", Interval{at(15, 0), at(14, 0)}, studentID, coachID, "", ErrInvalidInterval},
		{"missing student", "t", valid, uuid.Nil, coachID, "", ErrMissingParticipant},
		{"missing coach", "t", valid, studentID, uuid.Nil, "", ErrMissingParticipant},
		{"unknown status", "t", valid, studentID, coachID, Status("paused"), ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSession(tt.title, "", tt.interval, tt.student, tt.coach, tt.status, at(9, 0))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestNewSession_TitleAtLimit(t *testing.T) {
	_, err := NewSession(strings.Repeat("é", MaxTitleLength), "", Interval{at(14, 0), at(15, 0)},
		uuid.New(), uuid.New(), "", at(9, 0))
	assert.NoError(t, err)
}

func TestSession_Reschedule(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.Reschedule(Interval{at(14, 0), at(15, 0)}, at(10, 0)))
	assert.Empty(t, s.DomainEvents(), "same interval is a no-op")

	require.NoError(t, s.Reschedule(Interval{at(16, 0), at(17, 0)}, at(10, 0)))
	assert.Equal(t, at(16, 0), s.StartTime())
	assert.Equal(t, at(10, 0), s.UpdatedAt())

	events := s.DomainEvents()
	require.Len(t, events, 1)
	moved := events[0].(*SessionRescheduled)
	assert.Equal(t, at(14, 0), moved.OldStartTime)
	assert.Equal(t, at(16, 0), moved.NewStartTime)

	err := s.Reschedule(Interval{at(17, 0), at(16, 0)}, at(10, 0))
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestSession_ChangeStatus(t *testing.T) {
	t.Run("scheduled to any", func(t *testing.T) {
		for _, next := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
			s := newTestSession(t)
			require.NoError(t, s.ChangeStatus(next, at(10, 0)))
			assert.Equal(t, next, s.Status())
			require.Len(t, s.DomainEvents(), 1)
		}
	})

	t.Run("scheduled to scheduled is a no-op", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.ChangeStatus(StatusScheduled, at(10, 0)))
		assert.Empty(t, s.DomainEvents())
		assert.Equal(t, at(9, 0), s.UpdatedAt())
	})

	t.Run("terminal states reject transitions", func(t *testing.T) {
		for _, terminal := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
			s := newTestSession(t)
			require.NoError(t, s.ChangeStatus(terminal, at(10, 0)))
			err := s.ChangeStatus(StatusScheduled, at(11, 0))
			assert.ErrorIs(t, err, ErrInvalidStatusTransition, terminal)
		}
	})

	t.Run("cancel emits cancelled and is idempotent", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.Cancel(at(10, 0)))
		require.NoError(t, s.Cancel(at(11, 0)))
		assert.False(t, s.OccupiesTime())

		events := s.DomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, RoutingKeySessionCancelled, events[0].RoutingKey())
	})

	t.Run("completed emits status changed", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.ChangeStatus(StatusCompleted, at(10, 0)))
		changed := s.DomainEvents()[0].(*SessionStatusChanged)
		assert.Equal(t, "scheduled", changed.From)
		assert.Equal(t, "completed", changed.To)
	})

	t.Run("unknown status", func(t *testing.T) {
		s := newTestSession(t)
		assert.ErrorIs(t, s.ChangeStatus(Status("paused"), at(10, 0)), ErrInvalidStatus)
	})
}

func TestSession_RenameAndDescribe(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.Rename(" Follow-up ", at(10, 0)))
	assert.Equal(t, "Follow-up", s.Title())
	assert.ErrorIs(t, s.Rename("  ", at(10, 0)), ErrEmptyTitle)

	s.Describe("notes", at(11, 0))
	assert.Equal(t, "notes", s.Description())
	assert.Equal(t, at(11, 0), s.UpdatedAt())
}

func TestSession_MarkDeleted(t *testing.T) {
	s := newTestSession(t)
	s.MarkDeleted(at(10, 0))

	require.Len(t, s.DomainEvents(), 1)
	deleted := s.DomainEvents()[0].(*SessionDeleted)
	assert.Equal(t, s.ID(), deleted.SessionID)
	assert.Equal(t, s.CoachID(), deleted.CoachID)
}

func TestRehydrateSession(t *testing.T) {
	id := uuid.New()
	s := RehydrateSession(id, "t", "d", Interval{at(14, 0), at(15, 0)}, uuid.New(), uuid.New(),
		StatusCompleted, at(8, 0), at(9, 0))

	assert.Equal(t, id, s.ID())
	assert.Equal(t, StatusCompleted, s.Status())
	assert.Equal(t, at(9, 0), s.UpdatedAt())
	assert.Empty(t, s.DomainEvents())
}
