package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingDirectory struct{ err error }

func (d failingDirectory) DisplayName(context.Context, uuid.UUID) (string, error) {
	return "", d.err
}

func TestStaticDirectory(t *testing.T) {
	coach := uuid.New()
	d := NewStaticDirectory(map[uuid.UUID]string{coach: "Coach C"})

	name, err := d.DisplayName(context.Background(), coach)
	require.NoError(t, err)
	assert.Equal(t, "Coach C", name)

	_, err = d.DisplayName(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUnknownParticipant)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	coach := uuid.New()
	unknown := uuid.New()
	d := NewStaticDirectory(map[uuid.UUID]string{coach: "Coach C"})

	assert.Equal(t, "Coach C", Resolve(ctx, d, coach))
	assert.Equal(t, unknown.String(), Resolve(ctx, d, unknown))
	assert.Equal(t, unknown.String(), Resolve(ctx, nil, unknown))
	assert.Equal(t, unknown.String(), Resolve(ctx, failingDirectory{errors.New("down")}, unknown))
}
