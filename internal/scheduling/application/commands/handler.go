// Package commands implements the session write operations.
package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/cadence/internal/directory"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
)

// Dependencies are shared by every session command handler.
type Dependencies struct {
	Sessions   domain.SessionRepository
	Outbox     outbox.Repository
	UnitOfWork sharedApplication.UnitOfWork
	Locker     services.ParticipantLocker
	Directory  directory.Directory
	Metrics    observability.Metrics
	Logger     *slog.Logger
	Clock      func() time.Time
}

type handler struct {
	deps    Dependencies
	checker *services.ConflictChecker
}

func newHandler(deps Dependencies) handler {
	if deps.Locker == nil {
		deps.Locker = services.NewMemoryLocker(0)
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NoopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return handler{deps: deps, checker: services.NewConflictChecker(deps.Sessions)}
}

func (h handler) now() time.Time {
	return h.deps.Clock().UTC()
}

// lock takes the participant locks for the duration of a write.
func (h handler) lock(ctx context.Context, studentID, coachID uuid.UUID) (func(), error) {
	unlock, err := h.deps.Locker.Lock(ctx, studentID, coachID)
	if err != nil {
		return nil, domain.NewStoreError("lock participants", err)
	}
	return unlock, nil
}

// ensureFree fails with a ConflictError when proposed is taken. It must
// run inside the unit of work.
func (h handler) ensureFree(ctx context.Context, proposed domain.Interval, studentID, coachID uuid.UUID, excludeID *uuid.UUID) error {
	if err := h.deps.Sessions.LockParticipants(ctx, studentID, coachID); err != nil {
		return domain.NewStoreError("lock participants", err)
	}
	conflict, err := h.checker.FindConflict(ctx, proposed, studentID, coachID, excludeID)
	if err != nil {
		return domain.NewStoreError("check conflicts", err)
	}
	if conflict != nil {
		return conflict.Err("")
	}
	return nil
}

// publish writes the aggregate's pending events to the outbox.
func (h handler) publish(ctx context.Context, s *domain.Session) error {
	events := s.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.EventMetadataFromContext(ctx))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := h.deps.Outbox.SaveBatch(ctx, msgs); err != nil {
		return domain.NewStoreError("save outbox messages", err)
	}
	return nil
}

// fail classifies err, resolves the display name of a conflicting
// participant and records the outcome.
func (h handler) fail(ctx context.Context, op string, err error) error {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		if conflict.DisplayName == "" {
			conflict.DisplayName = directory.Resolve(ctx, h.deps.Directory, conflict.ParticipantID)
		}
		h.deps.Metrics.Counter(observability.MetricSchedulingConflicts, 1,
			observability.T("participant", string(conflict.Participant)))
		h.deps.Logger.WarnContext(ctx, "scheduling conflict",
			observability.OperationKey, op,
			"participant", conflict.Participant,
			"participant_id", conflict.ParticipantID,
			"conflicting_session_id", conflict.SessionID,
		)
		return err
	}
	if domain.IsValidationError(err) || errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}

	err = domain.NewStoreError(op, err)
	h.deps.Logger.ErrorContext(ctx, "session write failed", observability.OperationKey, op, observability.ErrorKey, err)
	return err
}
