package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
)

// CreateSessionCommand contains the data needed to book a session.
type CreateSessionCommand struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	StudentID   uuid.UUID
	CoachID     uuid.UUID
	// Status defaults to scheduled when empty.
	Status string
}

// CreateSessionHandler books new sessions.
type CreateSessionHandler struct {
	handler
}

// NewCreateSessionHandler creates a new CreateSessionHandler.
func NewCreateSessionHandler(deps Dependencies) *CreateSessionHandler {
	return &CreateSessionHandler{handler: newHandler(deps)}
}

// Handle validates the command, checks both participants for conflicts and
// stores the session together with its events.
func (h *CreateSessionHandler) Handle(ctx context.Context, cmd CreateSessionCommand) (*domain.Session, error) {
	const op = "create session"

	interval, err := domain.NewInterval(cmd.StartTime, cmd.EndTime)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	session, err := domain.NewSession(cmd.Title, cmd.Description, interval, cmd.StudentID, cmd.CoachID, status, h.now())
	if err != nil {
		return nil, err
	}

	if session.OccupiesTime() {
		unlock, err := h.lock(ctx, cmd.StudentID, cmd.CoachID)
		if err != nil {
			return nil, h.fail(ctx, op, err)
		}
		defer unlock()
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		if session.OccupiesTime() {
			if err := h.ensureFree(txCtx, interval, cmd.StudentID, cmd.CoachID, nil); err != nil {
				return err
			}
		}
		if err := h.deps.Sessions.Create(txCtx, session); err != nil {
			return err
		}
		return h.publish(txCtx, session)
	})
	if err != nil {
		return nil, h.fail(ctx, op, err)
	}
	session.ClearDomainEvents()

	h.deps.Metrics.Counter(observability.MetricSessionsBooked, 1, observability.T("status", string(session.Status())))
	h.deps.Logger.DebugContext(ctx, "session booked",
		"session_id", session.ID(),
		"student_id", session.StudentID(),
		"coach_id", session.CoachID(),
		"interval", session.Interval().String(),
		"duration", session.Interval().Duration(),
	)
	return session, nil
}
