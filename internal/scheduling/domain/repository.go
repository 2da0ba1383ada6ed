package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionFilter narrows List results. Nil fields do not filter. From and
// To select sessions overlapping the window.
type SessionFilter struct {
	From      *time.Time
	To        *time.Time
	StudentID *uuid.UUID
	CoachID   *uuid.UUID
	Status    *Status
}

// SessionRepository defines the interface for session persistence. Every
// method runs in the transaction carried by ctx when there is one.
type SessionRepository interface {
	// Create inserts a new session.
	Create(ctx context.Context, session *Session) error

	// Update persists changes to an existing session.
	Update(ctx context.Context, session *Session) error

	// Delete permanently removes a session. Returns ErrSessionNotFound if
	// it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID returns ErrSessionNotFound if the session does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// FindOverlapping returns non-cancelled sessions of the participant
	// overlapping interval, ordered by start time, skipping excludeID.
	FindOverlapping(ctx context.Context, kind ParticipantKind, participantID uuid.UUID, interval Interval, excludeID *uuid.UUID) ([]*Session, error)

	// List returns sessions matching the filter ordered by start time.
	List(ctx context.Context, filter SessionFilter) ([]*Session, error)

	// FindBooked returns non-cancelled sessions lying entirely inside the
	// window, optionally for one coach, ordered by start time.
	FindBooked(ctx context.Context, window Interval, coachID *uuid.UUID) ([]*Session, error)

	// LockParticipants serialises writers touching the given participants
	// until the surrounding transaction ends. Stores whose transactions are
	// already exclusive may treat it as a no-op.
	LockParticipants(ctx context.Context, participantIDs ...uuid.UUID) error
}
