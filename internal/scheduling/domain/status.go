package domain

import "fmt"

// Status is the lifecycle state of a session.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no-show"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow}

// ParseStatus converts a string into a Status. An empty string yields
// StatusScheduled.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusScheduled, nil
	}
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// OccupiesTime reports whether a session in this status blocks its slot.
func (s Status) OccupiesTime() bool {
	return s != StatusCancelled
}

// CanTransitionTo reports whether moving to next is allowed. Staying in the
// same status is always allowed and changes nothing.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	return !s.IsTerminal() && next.IsValid()
}

func (s Status) String() string {
	return string(s)
}
