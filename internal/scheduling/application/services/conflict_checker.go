// Package services holds the scheduling logic shared by command handlers.
package services

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

// Conflict identifies the existing session that blocks a booking.
type Conflict struct {
	Participant   domain.ParticipantKind
	ParticipantID uuid.UUID
	Session       *domain.Session
}

// Err converts the conflict into a domain error carrying displayName.
func (c *Conflict) Err(displayName string) *domain.ConflictError {
	return &domain.ConflictError{
		Participant:   c.Participant,
		ParticipantID: c.ParticipantID,
		DisplayName:   displayName,
		SessionID:     c.Session.ID(),
		Interval:      c.Session.Interval(),
	}
}

// ConflictChecker finds existing sessions that would double-book a
// participant.
type ConflictChecker struct {
	repo domain.SessionRepository
}

// NewConflictChecker creates a new ConflictChecker.
func NewConflictChecker(repo domain.SessionRepository) *ConflictChecker {
	return &ConflictChecker{repo: repo}
}

// FindConflict returns the first session blocking proposed, checking the
// student before the coach, or nil when the slot is free. excludeID skips
// the session being updated.
func (c *ConflictChecker) FindConflict(
	ctx context.Context,
	proposed domain.Interval,
	studentID, coachID uuid.UUID,
	excludeID *uuid.UUID,
) (*Conflict, error) {
	participants := []struct {
		kind domain.ParticipantKind
		id   uuid.UUID
	}{
		{domain.ParticipantStudent, studentID},
		{domain.ParticipantCoach, coachID},
	}

	for _, p := range participants {
		candidates, err := c.repo.FindOverlapping(ctx, p.kind, p.id, proposed, excludeID)
		if err != nil {
			return nil, fmt.Errorf("find overlapping %s sessions: %w", p.kind, err)
		}
		for _, s := range candidates {
			if !blocks(s, p.kind, p.id, proposed, excludeID) {
				continue
			}
			return &Conflict{Participant: p.kind, ParticipantID: p.id, Session: s}, nil
		}
	}
	return nil, nil
}

// blocks re-checks a candidate returned by the store.
func blocks(s *domain.Session, kind domain.ParticipantKind, participantID uuid.UUID, proposed domain.Interval, excludeID *uuid.UUID) bool {
	if excludeID != nil && s.ID() == *excludeID {
		return false
	}
	return s.OccupiesTime() &&
		s.Participant(kind) == participantID &&
		s.Interval().Overlaps(proposed)
}
