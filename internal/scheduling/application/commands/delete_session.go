package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/google/uuid"
)

// DeleteSessionCommand permanently removes a session.
type DeleteSessionCommand struct {
	ID uuid.UUID
}

// DeleteSessionHandler hard-deletes sessions.
type DeleteSessionHandler struct {
	handler
}

// NewDeleteSessionHandler creates a new DeleteSessionHandler.
func NewDeleteSessionHandler(deps Dependencies) *DeleteSessionHandler {
	return &DeleteSessionHandler{handler: newHandler(deps)}
}

// Handle removes the session row and records a deletion event.
func (h *DeleteSessionHandler) Handle(ctx context.Context, cmd DeleteSessionCommand) error {
	const op = "delete session"

	err := sharedApplication.WithUnitOfWork(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		s, err := h.deps.Sessions.FindByID(txCtx, cmd.ID)
		if err != nil {
			return err
		}
		s.MarkDeleted(h.now())
		if err := h.deps.Sessions.Delete(txCtx, s.ID()); err != nil {
			return err
		}
		return h.publish(txCtx, s)
	})
	if err != nil {
		return h.fail(ctx, op, err)
	}

	h.deps.Logger.DebugContext(ctx, "session deleted", "session_id", cmd.ID)
	return nil
}
