package commands

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

// CancelSessionCommand soft-cancels a session.
type CancelSessionCommand struct {
	ID uuid.UUID
}

// CancelSessionHandler marks sessions cancelled, freeing their slot while
// keeping the record.
type CancelSessionHandler struct {
	update *UpdateSessionHandler
}

// NewCancelSessionHandler creates a new CancelSessionHandler.
func NewCancelSessionHandler(update *UpdateSessionHandler) *CancelSessionHandler {
	return &CancelSessionHandler{update: update}
}

// Handle cancels the session. Cancelling an already cancelled session
// returns it unchanged.
func (h *CancelSessionHandler) Handle(ctx context.Context, cmd CancelSessionCommand) (*domain.Session, error) {
	status := string(domain.StatusCancelled)
	return h.update.Handle(ctx, UpdateSessionCommand{ID: cmd.ID, Status: &status})
}
