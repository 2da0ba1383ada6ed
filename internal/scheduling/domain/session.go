package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// MaxTitleLength is the longest accepted title, in characters.
const MaxTitleLength = 200

// Session is a booked coaching session between a student and a coach.
type Session struct {
	sharedDomain.BaseAggregateRoot
	title       string
	description string
	interval    Interval
	studentID   uuid.UUID
	coachID     uuid.UUID
	status      Status
}

// NewSession validates its input and creates a session. An empty status
// defaults to StatusScheduled.
func NewSession(
	title, description string,
	interval Interval,
	studentID, coachID uuid.UUID,
	status Status,
	now time.Time,
) (*Session, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}
	if interval.IsEmpty() {
		return nil, fmt.Errorf("%w: start must be before end", ErrInvalidInterval)
	}
	if studentID == uuid.Nil || coachID == uuid.Nil {
		return nil, ErrMissingParticipant
	}
	if status == "" {
		status = StatusScheduled
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s := &Session{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		title:             title,
		description:       description,
		interval:          Interval{Start: interval.Start.UTC(), End: interval.End.UTC()},
		studentID:         studentID,
		coachID:           coachID,
		status:            status,
	}
	s.AddDomainEvent(NewSessionBooked(s, now))
	return s, nil
}

// RehydrateSession recreates a session from persisted state without
// validation or events.
func RehydrateSession(
	id uuid.UUID,
	title, description string,
	interval Interval,
	studentID, coachID uuid.UUID,
	status Status,
	createdAt, updatedAt time.Time,
) *Session {
	return &Session{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		),
		title:       title,
		description: description,
		interval:    Interval{Start: interval.Start.UTC(), End: interval.End.UTC()},
		studentID:   studentID,
		coachID:     coachID,
		status:      status,
	}
}

// Getters
func (s *Session) Title() string        { return s.title }
func (s *Session) Description() string  { return s.description }
func (s *Session) Interval() Interval   { return s.interval }
func (s *Session) StartTime() time.Time { return s.interval.Start }
func (s *Session) EndTime() time.Time   { return s.interval.End }
func (s *Session) StudentID() uuid.UUID { return s.studentID }
func (s *Session) CoachID() uuid.UUID   { return s.coachID }
func (s *Session) Status() Status       { return s.status }

// OccupiesTime reports whether the session blocks its participants' time.
func (s *Session) OccupiesTime() bool {
	return s.status.OccupiesTime()
}

// Participant returns the id of the participant playing the given role.
func (s *Session) Participant(kind ParticipantKind) uuid.UUID {
	if kind == ParticipantCoach {
		return s.coachID
	}
	return s.studentID
}

// Rename replaces the title.
func (s *Session) Rename(title string, now time.Time) error {
	title, err := normalizeTitle(title)
	if err != nil {
		return err
	}
	if title != s.title {
		s.title = title
		s.Touch(now)
	}
	return nil
}

// Describe replaces the description.
func (s *Session) Describe(description string, now time.Time) {
	if description != s.description {
		s.description = description
		s.Touch(now)
	}
}

// Reschedule moves the session. Conflict checking is the caller's job.
func (s *Session) Reschedule(interval Interval, now time.Time) error {
	if interval.IsEmpty() {
		return fmt.Errorf("%w: start must be before end", ErrInvalidInterval)
	}
	interval = Interval{Start: interval.Start.UTC(), End: interval.End.UTC()}
	if interval.Equal(s.interval) {
		return nil
	}
	old := s.interval
	s.interval = interval
	s.Touch(now)
	s.AddDomainEvent(NewSessionRescheduled(s.ID(), old, interval, now))
	return nil
}

// ChangeStatus moves the session through its lifecycle. Only scheduled
// sessions may change status; repeating the current status is a no-op.
func (s *Session) ChangeStatus(next Status, now time.Time) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	if next == s.status {
		return nil
	}
	if !s.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, s.status, next)
	}

	from := s.status
	s.status = next
	s.Touch(now)
	if next == StatusCancelled {
		s.AddDomainEvent(NewSessionCancelled(s, now))
	} else {
		s.AddDomainEvent(NewSessionStatusChanged(s.ID(), from, next, now))
	}
	return nil
}

// Cancel soft-cancels the session. Cancelling twice is allowed.
func (s *Session) Cancel(now time.Time) error {
	return s.ChangeStatus(StatusCancelled, now)
}

// MarkDeleted records that the session is about to be removed for good.
func (s *Session) MarkDeleted(now time.Time) {
	s.AddDomainEvent(NewSessionDeleted(s, now))
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", fmt.Errorf("%w: max %d characters", ErrTitleTooLong, MaxTitleLength)
	}
	return title, nil
}
