package queries

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

// GetSessionQuery asks for one session.
type GetSessionQuery struct {
	ID uuid.UUID
}

// GetSessionHandler handles GetSessionQuery.
type GetSessionHandler struct {
	repo domain.SessionRepository
}

// NewGetSessionHandler creates a new GetSessionHandler.
func NewGetSessionHandler(repo domain.SessionRepository) *GetSessionHandler {
	return &GetSessionHandler{repo: repo}
}

// Handle returns the session or ErrSessionNotFound.
func (h *GetSessionHandler) Handle(ctx context.Context, q GetSessionQuery) (*SessionDTO, error) {
	s, err := h.repo.FindByID(ctx, q.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, domain.NewStoreError("get session", err)
	}
	dto := ToSessionDTO(s)
	return &dto, nil
}
