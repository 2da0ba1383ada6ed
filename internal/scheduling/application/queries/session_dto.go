// Package queries implements the read side of session scheduling.
package queries

import (
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

// SessionDTO is the read model of a session.
type SessionDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	StudentID   uuid.UUID `json:"student_id"`
	CoachID     uuid.UUID `json:"coach_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToSessionDTO converts a session to its read model.
func ToSessionDTO(s *domain.Session) SessionDTO {
	return SessionDTO{
		ID:          s.ID(),
		Title:       s.Title(),
		Description: s.Description(),
		StartTime:   s.StartTime(),
		EndTime:     s.EndTime(),
		StudentID:   s.StudentID(),
		CoachID:     s.CoachID(),
		Status:      s.Status().String(),
		CreatedAt:   s.CreatedAt(),
		UpdatedAt:   s.UpdatedAt(),
	}
}

// ToSessionDTOs converts a slice of sessions.
func ToSessionDTOs(sessions []*domain.Session) []SessionDTO {
	dtos := make([]SessionDTO, 0, len(sessions))
	for _, s := range sessions {
		dtos = append(dtos, ToSessionDTO(s))
	}
	return dtos
}
