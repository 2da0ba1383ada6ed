package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
)

// UpdateSessionCommand carries a partial update. Nil fields keep their
// stored value. Participants cannot be changed.
type UpdateSessionCommand struct {
	ID          uuid.UUID
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Status      *string
}

// UpdateSessionHandler applies partial updates to sessions.
type UpdateSessionHandler struct {
	handler
}

// NewUpdateSessionHandler creates a new UpdateSessionHandler.
func NewUpdateSessionHandler(deps Dependencies) *UpdateSessionHandler {
	return &UpdateSessionHandler{handler: newHandler(deps)}
}

// Handle loads the session, re-checks its effective interval against
// everyone else's sessions unless it ends up cancelled, and saves it.
func (h *UpdateSessionHandler) Handle(ctx context.Context, cmd UpdateSessionCommand) (*domain.Session, error) {
	const op = "update session"

	var requested *domain.Status
	if cmd.Status != nil {
		// An empty status defaults to scheduled on create only.
		if *cmd.Status == "" {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, *cmd.Status)
		}
		status, err := domain.ParseStatus(*cmd.Status)
		if err != nil {
			return nil, err
		}
		requested = &status
	}

	current, err := h.deps.Sessions.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, h.fail(ctx, op, err)
	}

	unlock, err := h.lock(ctx, current.StudentID(), current.CoachID())
	if err != nil {
		return nil, h.fail(ctx, op, err)
	}
	defer unlock()

	var session *domain.Session
	err = sharedApplication.WithUnitOfWork(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		s, err := h.deps.Sessions.FindByID(txCtx, cmd.ID)
		if err != nil {
			return err
		}
		if err := h.apply(txCtx, s, cmd, requested); err != nil {
			return err
		}
		if err := h.deps.Sessions.Update(txCtx, s); err != nil {
			return err
		}
		if err := h.publish(txCtx, s); err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, h.fail(ctx, op, err)
	}

	cancelled := false
	for _, event := range session.DomainEvents() {
		if event.RoutingKey() == domain.RoutingKeySessionCancelled {
			cancelled = true
		}
	}
	session.ClearDomainEvents()

	if cancelled {
		h.deps.Metrics.Counter(observability.MetricSessionsCancelled, 1)
	}
	h.deps.Logger.DebugContext(ctx, "session updated",
		"session_id", session.ID(),
		"status", session.Status(),
		"interval", session.Interval().String(),
	)
	return session, nil
}

func (h *UpdateSessionHandler) apply(ctx context.Context, s *domain.Session, cmd UpdateSessionCommand, requested *domain.Status) error {
	start, end := s.StartTime(), s.EndTime()
	if cmd.StartTime != nil {
		start = *cmd.StartTime
	}
	if cmd.EndTime != nil {
		end = *cmd.EndTime
	}
	interval, err := domain.NewInterval(start, end)
	if err != nil {
		return err
	}

	target := s.Status()
	if requested != nil {
		target = *requested
	}
	if !s.Status().CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, s.Status(), target)
	}

	if target.OccupiesTime() {
		id := s.ID()
		if err := h.ensureFree(ctx, interval, s.StudentID(), s.CoachID(), &id); err != nil {
			return err
		}
	}

	now := h.now()
	if err := s.Reschedule(interval, now); err != nil {
		return err
	}
	if cmd.Title != nil {
		if err := s.Rename(*cmd.Title, now); err != nil {
			return err
		}
	}
	if cmd.Description != nil {
		s.Describe(*cmd.Description, now)
	}
	return s.ChangeStatus(target, now)
}
