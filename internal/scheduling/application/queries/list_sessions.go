package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ListSessionsQuery filters sessions. From and To select sessions that
// overlap the window; either may be omitted.
type ListSessionsQuery struct {
	From      *time.Time
	To        *time.Time
	StudentID *uuid.UUID
	CoachID   *uuid.UUID
	Status    *string
}

// ListSessionsHandler handles ListSessionsQuery.
type ListSessionsHandler struct {
	repo domain.SessionRepository
}

// NewListSessionsHandler creates a new ListSessionsHandler.
func NewListSessionsHandler(repo domain.SessionRepository) *ListSessionsHandler {
	return &ListSessionsHandler{repo: repo}
}

// Handle returns matching sessions ordered by start time.
func (h *ListSessionsHandler) Handle(ctx context.Context, q ListSessionsQuery) ([]SessionDTO, error) {
	filter := domain.SessionFilter{
		StudentID: q.StudentID,
		CoachID:   q.CoachID,
	}
	if q.From != nil && q.To != nil && !q.From.Before(*q.To) {
		return nil, fmt.Errorf("%w: from must be before to", domain.ErrInvalidInterval)
	}
	if q.From != nil {
		from := q.From.UTC()
		filter.From = &from
	}
	if q.To != nil {
		to := q.To.UTC()
		filter.To = &to
	}
	if q.Status != nil {
		status, err := domain.ParseStatus(*q.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	sessions, err := h.repo.List(ctx, filter)
	if err != nil {
		return nil, domain.NewStoreError("list sessions", err)
	}
	return ToSessionDTOs(sessions), nil
}
