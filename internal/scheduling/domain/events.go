package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Session"

	RoutingKeySessionBooked        = "scheduling.session.booked"
	RoutingKeySessionRescheduled   = "scheduling.session.rescheduled"
	RoutingKeySessionStatusChanged = "scheduling.session.status_changed"
	RoutingKeySessionCancelled     = "scheduling.session.cancelled"
	RoutingKeySessionDeleted       = "scheduling.session.deleted"
)

// SessionBooked is emitted when a session is created.
type SessionBooked struct {
	sharedDomain.BaseEvent
	SessionID uuid.UUID `json:"session_id"`
	Title     string    `json:"title"`
	StudentID uuid.UUID `json:"student_id"`
	CoachID   uuid.UUID `json:"coach_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

// NewSessionBooked creates a SessionBooked event.
func NewSessionBooked(s *Session, at time.Time) *SessionBooked {
	return &SessionBooked{
		BaseEvent: sharedDomain.NewBaseEvent(s.ID(), AggregateType, RoutingKeySessionBooked, at),
		SessionID: s.ID(),
		Title:     s.Title(),
		StudentID: s.StudentID(),
		CoachID:   s.CoachID(),
		StartTime: s.StartTime(),
		EndTime:   s.EndTime(),
		Status:    s.Status().String(),
	}
}

// SessionRescheduled is emitted when a session moves to a new time.
type SessionRescheduled struct {
	sharedDomain.BaseEvent
	SessionID    uuid.UUID `json:"session_id"`
	OldStartTime time.Time `json:"old_start_time"`
	OldEndTime   time.Time `json:"old_end_time"`
	NewStartTime time.Time `json:"new_start_time"`
	NewEndTime   time.Time `json:"new_end_time"`
}

// NewSessionRescheduled creates a SessionRescheduled event.
func NewSessionRescheduled(sessionID uuid.UUID, old, updated Interval, at time.Time) *SessionRescheduled {
	return &SessionRescheduled{
		BaseEvent:    sharedDomain.NewBaseEvent(sessionID, AggregateType, RoutingKeySessionRescheduled, at),
		SessionID:    sessionID,
		OldStartTime: old.Start,
		OldEndTime:   old.End,
		NewStartTime: updated.Start,
		NewEndTime:   updated.End,
	}
}

// SessionStatusChanged is emitted when a session is completed or marked
// as a no-show.
type SessionStatusChanged struct {
	sharedDomain.BaseEvent
	SessionID uuid.UUID `json:"session_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
}

// NewSessionStatusChanged creates a SessionStatusChanged event.
func NewSessionStatusChanged(sessionID uuid.UUID, from, to Status, at time.Time) *SessionStatusChanged {
	return &SessionStatusChanged{
		BaseEvent: sharedDomain.NewBaseEvent(sessionID, AggregateType, RoutingKeySessionStatusChanged, at),
		SessionID: sessionID,
		From:      from.String(),
		To:        to.String(),
	}
}

// SessionCancelled is emitted when a session is cancelled and frees its slot.
type SessionCancelled struct {
	sharedDomain.BaseEvent
	SessionID uuid.UUID `json:"session_id"`
	StudentID uuid.UUID `json:"student_id"`
	CoachID   uuid.UUID `json:"coach_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// NewSessionCancelled creates a SessionCancelled event.
func NewSessionCancelled(s *Session, at time.Time) *SessionCancelled {
	return &SessionCancelled{
		BaseEvent: sharedDomain.NewBaseEvent(s.ID(), AggregateType, RoutingKeySessionCancelled, at),
		SessionID: s.ID(),
		StudentID: s.StudentID(),
		CoachID:   s.CoachID(),
		StartTime: s.StartTime(),
		EndTime:   s.EndTime(),
	}
}

// SessionDeleted is emitted when a session is permanently removed.
type SessionDeleted struct {
	sharedDomain.BaseEvent
	SessionID uuid.UUID `json:"session_id"`
	StudentID uuid.UUID `json:"student_id"`
	CoachID   uuid.UUID `json:"coach_id"`
}

// NewSessionDeleted creates a SessionDeleted event.
func NewSessionDeleted(s *Session, at time.Time) *SessionDeleted {
	return &SessionDeleted{
		BaseEvent: sharedDomain.NewBaseEvent(s.ID(), AggregateType, RoutingKeySessionDeleted, at),
		SessionID: s.ID(),
		StudentID: s.StudentID(),
		CoachID:   s.CoachID(),
	}
}
