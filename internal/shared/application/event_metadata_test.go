package application

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	domain.BaseEvent
}

func newTestEvent(routingKey string) *testEvent {
	return &testEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "Session", routingKey, time.Now())}
}

func TestEventMetadataFromContext(t *testing.T) {
	t.Run("reuses correlation id from context", func(t *testing.T) {
		correlationID := uuid.New()
		ctx := observability.WithCorrelationID(context.Background(), correlationID.String())
		ctx = observability.WithActorID(ctx, "admin")

		metadata := EventMetadataFromContext(ctx)

		assert.Equal(t, correlationID, metadata.CorrelationID)
		assert.Equal(t, "admin", metadata.ActorID)
		assert.NotEqual(t, uuid.Nil, metadata.CausationID)
	})

	t.Run("generates correlation id when missing or malformed", func(t *testing.T) {
		ctx := observability.WithCorrelationID(context.Background(), "not-a-uuid")

		first := EventMetadataFromContext(ctx)
		second := EventMetadataFromContext(context.Background())

		assert.NotEqual(t, uuid.Nil, first.CorrelationID)
		assert.NotEqual(t, first.CorrelationID, second.CorrelationID)
	})
}

func TestApplyEventMetadata(t *testing.T) {
	t.Run("applies metadata to every event", func(t *testing.T) {
		first := newTestEvent("scheduling.session.booked")
		second := newTestEvent("scheduling.session.cancelled")
		metadata := EventMetadataFromContext(context.Background())

		ApplyEventMetadata([]domain.DomainEvent{first, second}, metadata)

		assert.Equal(t, metadata, first.Metadata())
		assert.Equal(t, metadata, second.Metadata())
	})

	t.Run("handles nil event list", func(t *testing.T) {
		require.NotPanics(t, func() {
			ApplyEventMetadata(nil, EventMetadataFromContext(context.Background()))
		})
	})
}
