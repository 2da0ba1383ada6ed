package commands

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDeleteSessionHandler(t *testing.T) {
	td := newTestDeps(nil)
	stored := storedSession(domain.StatusScheduled)
	td.expectCommit()
	td.repo.On("FindByID", mock.Anything, stored.ID()).Return(stored, nil)
	td.repo.On("Delete", mock.Anything, stored.ID()).Return(nil)
	td.outbox.On("SaveBatch", mock.Anything, mock.MatchedBy(func(msgs []*outbox.Message) bool {
		return len(msgs) == 1 && msgs[0].RoutingKey == domain.RoutingKeySessionDeleted
	})).Return(nil)

	err := NewDeleteSessionHandler(td.deps).Handle(context.Background(), DeleteSessionCommand{ID: stored.ID()})
	require.NoError(t, err)
	td.repo.AssertExpectations(t)
	td.outbox.AssertExpectations(t)
}

func TestDeleteSessionHandler_NotFound(t *testing.T) {
	td := newTestDeps(nil)
	id := uuid.New()
	td.expectRollback()
	td.repo.On("FindByID", mock.Anything, id).Return(nil, domain.ErrSessionNotFound)

	err := NewDeleteSessionHandler(td.deps).Handle(context.Background(), DeleteSessionCommand{ID: id})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	td.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
