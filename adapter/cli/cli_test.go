package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	internalApp "github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCoach = uuid.MustParse("00000000-0000-0000-0000-0000000000c1")

func setupTestApp(t *testing.T) *App {
	t.Helper()

	cfg := &config.Config{
		AppEnv:          "test",
		LocalMode:       true,
		DatabaseDriver:  "sqlite",
		SQLitePath:      filepath.Join(t.TempDir(), "cli.db"),
		LockWaitTimeout: time.Second,
	}
	container, err := internalApp.NewContainer(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(container.Close)

	a := NewApp(
		container.CreateSessionHandler,
		container.UpdateSessionHandler,
		container.CancelSessionHandler,
		container.DeleteSessionHandler,
		container.GetSessionHandler,
		container.ListSessionsHandler,
		container.BookedSlotsHandler,
	)
	a.SetObservability(container.Health, container.Metrics)
	a.SetMigrator(container)
	SetApp(a)
	t.Cleanup(func() { SetApp(nil) })
	return a
}

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	var err error
	if cmd.RunE != nil {
		err = cmd.RunE(cmd, args)
	} else {
		cmd.Run(cmd, args)
	}
	return out.String(), err
}

func book(t *testing.T, a *App, start, end time.Time) *domain.Session {
	t.Helper()
	s, err := a.CreateSessionHandler.Handle(context.Background(), commands.CreateSessionCommand{
		Title:     "Coaching",
		StartTime: start,
		EndTime:   end,
		StudentID: uuid.New(),
		CoachID:   testCoach,
	})
	require.NoError(t, err)
	return s
}

func TestSlotsCmd_Formats(t *testing.T) {
	a := setupTestApp(t)
	s := book(t, a, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	slotsFrom = "2024-03-01T08:00:00Z"
	slotsTo = "2024-03-01T17:00:00Z"
	slotsCoach = testCoach.String()
	t.Cleanup(func() { slotsFrom, slotsTo, slotsCoach, slotsOutput = "", "", "", OutputText })

	slotsOutput = OutputText
	out, err := runCmd(t, slotsCmd)
	require.NoError(t, err)
	assert.Contains(t, out, s.ID().String())

	slotsOutput = OutputJSON
	out, err = runCmd(t, slotsCmd)
	require.NoError(t, err)
	assert.Contains(t, out, `"session_id": "`+s.ID().String()+`"`)

	slotsOutput = OutputICS
	out, err = runCmd(t, slotsCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VEVENT")
}

func TestSlotsCmd_RejectsInvertedWindow(t *testing.T) {
	setupTestApp(t)

	slotsFrom = "2024-03-01T17:00:00Z"
	slotsTo = "2024-03-01T08:00:00Z"
	slotsCoach = ""
	t.Cleanup(func() { slotsFrom, slotsTo = "", "" })

	_, err := runCmd(t, slotsCmd)
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)
}

func TestMigrateCmd_IsIdempotent(t *testing.T) {
	setupTestApp(t)

	out, err := runCmd(t, migrateCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied.")

	out, err = runCmd(t, migrateStatusCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "applied")
}

func TestHealthCmd(t *testing.T) {
	setupTestApp(t)

	out, err := runCmd(t, healthCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "database")
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, versionCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "cadence dev")
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("start", "2024-03-01T16:00:00+02:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)))

	_, err = ParseTime("start", "2024-03-01 16:00")
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)
}

func TestRequireApp(t *testing.T) {
	SetApp(nil)
	_, err := RequireApp()
	assert.ErrorIs(t, err, errNoStore)
}
