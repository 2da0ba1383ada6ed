package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/sqlite"
)

func TestUp_SQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Up(ctx, conn, nil))
	// A second run is a no-op.
	require.NoError(t, Up(ctx, conn, nil))

	statuses, err := Status(ctx, conn)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.Equal(t, goose.StateApplied, s.State)
	}

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count))
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&count))
}
