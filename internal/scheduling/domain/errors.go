package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInterval         = errors.New("invalid interval")
	ErrInvalidStatus           = errors.New("invalid session status")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrEmptyTitle              = errors.New("session title is required")
	ErrTitleTooLong            = errors.New("session title is too long")
	ErrMissingParticipant      = errors.New("student and coach are required")
	ErrSchedulingConflict      = errors.New("scheduling conflict")
	ErrSessionNotFound         = errors.New("session not found")
	ErrStoreFailure            = errors.New("session store failure")
	ErrLockTimeout             = errors.New("timed out waiting for participant lock")
)

// IsValidationError reports whether err was caused by bad input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidStatusTransition) ||
		errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrTitleTooLong) ||
		errors.Is(err, ErrMissingParticipant)
}

// ParticipantKind names the role a participant plays in a session.
type ParticipantKind string

const (
	ParticipantStudent ParticipantKind = "student"
	ParticipantCoach   ParticipantKind = "coach"
)

// ConflictError describes the existing session that blocks a booking.
type ConflictError struct {
	Participant   ParticipantKind
	ParticipantID uuid.UUID
	DisplayName   string
	SessionID     uuid.UUID
	Interval      Interval
}

func (e *ConflictError) Error() string {
	name := e.DisplayName
	if name == "" {
		name = e.ParticipantID.String()
	}
	if e.SessionID == uuid.Nil {
		return fmt.Sprintf("%s: %s %s is already booked at that time", ErrSchedulingConflict, e.Participant, name)
	}
	return fmt.Sprintf("%s: %s %s already has session %s from %s to %s",
		ErrSchedulingConflict, e.Participant, name, e.SessionID,
		e.Interval.Start.UTC().Format(time.RFC3339), e.Interval.End.UTC().Format(time.RFC3339))
}

// Is matches ErrSchedulingConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrSchedulingConflict
}

// StoreError wraps a failure of the session store or its locks.
type StoreError struct {
	Op  string
	Err error
}

// NewStoreError wraps err unless it already carries a domain meaning.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreFailure) ||
		errors.Is(err, ErrSchedulingConflict) ||
		errors.Is(err, ErrSessionNotFound) ||
		IsValidationError(err) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreFailure, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches ErrStoreFailure.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}
