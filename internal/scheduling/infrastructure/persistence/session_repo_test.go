package persistence_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/internal/scheduling/infrastructure/persistence"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/postgres"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoFixture struct {
	conn database.Connection
	repo domain.SessionRepository
	uow  *database.GenericUnitOfWork
}

func sqliteFixture(t *testing.T) repoFixture {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "sessions.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Up(ctx, conn, nil))
	return repoFixture{conn: conn, repo: persistence.NewSessionRepository(conn), uow: database.NewUnitOfWork(conn)}
}

func postgresFixture(t *testing.T) repoFixture {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	conn, err := database.NewConnection(ctx, database.Config{Driver: database.DriverPostgres, URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Up(ctx, conn, nil))
	_, err = conn.Exec(ctx, "DELETE FROM sessions")
	require.NoError(t, err)
	return repoFixture{conn: conn, repo: persistence.NewSessionRepository(conn), uow: database.NewUnitOfWork(conn)}
}

func fixtures() map[string]func(t *testing.T) repoFixture {
	return map[string]func(t *testing.T) repoFixture{
		"sqlite":   sqliteFixture,
		"postgres": postgresFixture,
	}
}

func at(h, m int) time.Time {
	return time.Date(2024, 3, 1, h, m, 0, 0, time.UTC)
}

func newSession(t *testing.T, student, coach uuid.UUID, start, end time.Time) *domain.Session {
	t.Helper()
	s, err := domain.NewSession("Coaching", "notes", domain.Interval{Start: start, End: end},
		student, coach, domain.StatusScheduled, at(8, 0))
	require.NoError(t, err)
	return s
}

func TestSessionRepository_CRUD(t *testing.T) {
	for name, setup := range fixtures() {
		t.Run(name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			s := newSession(t, uuid.New(), uuid.New(), at(14, 0), at(15, 0))

			require.NoError(t, f.repo.Create(ctx, s))

			found, err := f.repo.FindByID(ctx, s.ID())
			require.NoError(t, err)
			assert.Equal(t, s.Title(), found.Title())
			assert.Equal(t, "notes", found.Description())
			assert.True(t, found.StartTime().Equal(at(14, 0)))
			assert.Equal(t, s.StudentID(), found.StudentID())
			assert.Equal(t, domain.StatusScheduled, found.Status())

			require.NoError(t, found.Rename("Renamed", at(9, 0)))
			require.NoError(t, found.Cancel(at(9, 0)))
			require.NoError(t, f.repo.Update(ctx, found))

			reloaded, err := f.repo.FindByID(ctx, s.ID())
			require.NoError(t, err)
			assert.Equal(t, "Renamed", reloaded.Title())
			assert.Equal(t, domain.StatusCancelled, reloaded.Status())
			assert.True(t, reloaded.UpdatedAt().Equal(at(9, 0)))

			require.NoError(t, f.repo.Delete(ctx, s.ID()))
			_, err = f.repo.FindByID(ctx, s.ID())
			assert.ErrorIs(t, err, domain.ErrSessionNotFound)
			assert.ErrorIs(t, f.repo.Delete(ctx, s.ID()), domain.ErrSessionNotFound)
			assert.ErrorIs(t, f.repo.Update(ctx, s), domain.ErrSessionNotFound)
		})
	}
}

func TestSessionRepository_FindOverlapping(t *testing.T) {
	for name, setup := range fixtures() {
		t.Run(name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			student, coach := uuid.New(), uuid.New()

			booked := newSession(t, student, coach, at(14, 0), at(15, 0))
			require.NoError(t, f.repo.Create(ctx, booked))

			cancelled := newSession(t, uuid.New(), coach, at(16, 0), at(17, 0))
			require.NoError(t, cancelled.Cancel(at(9, 0)))
			require.NoError(t, f.repo.Create(ctx, cancelled))

			found, err := f.repo.FindOverlapping(ctx, domain.ParticipantCoach, coach,
				domain.Interval{Start: at(14, 30), End: at(15, 30)}, nil)
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, booked.ID(), found[0].ID())

			found, err = f.repo.FindOverlapping(ctx, domain.ParticipantStudent, student,
				domain.Interval{Start: at(15, 0), End: at(16, 0)}, nil)
			require.NoError(t, err)
			assert.Empty(t, found, "adjacent sessions do not overlap")

			found, err = f.repo.FindOverlapping(ctx, domain.ParticipantCoach, coach,
				domain.Interval{Start: at(16, 0), End: at(17, 0)}, nil)
			require.NoError(t, err)
			assert.Empty(t, found, "cancelled sessions are ignored")

			id := booked.ID()
			found, err = f.repo.FindOverlapping(ctx, domain.ParticipantStudent, student,
				domain.Interval{Start: at(14, 0), End: at(15, 0)}, &id)
			require.NoError(t, err)
			assert.Empty(t, found, "excluded session is skipped")
		})
	}
}

func TestSessionRepository_ListAndBooked(t *testing.T) {
	for name, setup := range fixtures() {
		t.Run(name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			coach, otherCoach := uuid.New(), uuid.New()
			student := uuid.New()

			late := newSession(t, student, coach, at(16, 0), at(17, 0))
			early := newSession(t, uuid.New(), coach, at(9, 0), at(10, 0))
			straddling := newSession(t, uuid.New(), coach, at(11, 30), at(12, 30))
			other := newSession(t, uuid.New(), otherCoach, at(13, 0), at(14, 0))
			gone := newSession(t, uuid.New(), coach, at(14, 0), at(15, 0))
			require.NoError(t, gone.Cancel(at(8, 30)))
			for _, s := range []*domain.Session{late, early, straddling, other, gone} {
				require.NoError(t, f.repo.Create(ctx, s))
			}

			all, err := f.repo.List(ctx, domain.SessionFilter{})
			require.NoError(t, err)
			require.Len(t, all, 5)
			assert.Equal(t, early.ID(), all[0].ID())
			assert.Equal(t, late.ID(), all[4].ID())

			from, to := at(12, 0), at(16, 30)
			window, err := f.repo.List(ctx, domain.SessionFilter{From: &from, To: &to, CoachID: &coach})
			require.NoError(t, err)
			assert.Equal(t, []uuid.UUID{straddling.ID(), gone.ID(), late.ID()}, ids(window))

			status := domain.StatusCancelled
			cancelled, err := f.repo.List(ctx, domain.SessionFilter{Status: &status})
			require.NoError(t, err)
			assert.Equal(t, []uuid.UUID{gone.ID()}, ids(cancelled))

			byStudent, err := f.repo.List(ctx, domain.SessionFilter{StudentID: &student})
			require.NoError(t, err)
			assert.Equal(t, []uuid.UUID{late.ID()}, ids(byStudent))

			booked, err := f.repo.FindBooked(ctx, domain.Interval{Start: at(9, 0), End: at(12, 0)}, &coach)
			require.NoError(t, err)
			assert.Equal(t, []uuid.UUID{early.ID()}, ids(booked), "straddling sessions are not contained")

			booked, err = f.repo.FindBooked(ctx, domain.Interval{Start: at(8, 0), End: at(18, 0)}, nil)
			require.NoError(t, err)
			assert.Equal(t, []uuid.UUID{early.ID(), straddling.ID(), other.ID(), late.ID()}, ids(booked))
		})
	}
}

func TestSessionRepository_TransactionRollback(t *testing.T) {
	for name, setup := range fixtures() {
		t.Run(name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			s := newSession(t, uuid.New(), uuid.New(), at(14, 0), at(15, 0))

			txCtx, err := f.uow.Begin(ctx)
			require.NoError(t, err)
			require.NoError(t, f.repo.LockParticipants(txCtx, s.StudentID(), s.CoachID()))
			require.NoError(t, f.repo.Create(txCtx, s))
			require.NoError(t, f.uow.Rollback(txCtx))

			_, err = f.repo.FindByID(ctx, s.ID())
			assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		})
	}
}

func TestPostgresSessionRepository_ExclusionConstraint(t *testing.T) {
	f := postgresFixture(t)
	ctx := context.Background()
	coach := uuid.New()

	require.NoError(t, f.repo.Create(ctx, newSession(t, uuid.New(), coach, at(14, 0), at(15, 0))))

	err := f.repo.Create(ctx, newSession(t, uuid.New(), coach, at(14, 30), at(15, 30)))
	require.ErrorIs(t, err, domain.ErrSchedulingConflict)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domain.ParticipantCoach, conflict.Participant)
	assert.Equal(t, coach, conflict.ParticipantID)

	assert.NoError(t, f.repo.Create(ctx, newSession(t, uuid.New(), coach, at(15, 0), at(16, 0))))
}

func TestPostgresSessionRepository_LockRequiresTransaction(t *testing.T) {
	repo := persistence.NewPostgresSessionRepository(nil)
	err := repo.LockParticipants(context.Background(), uuid.New())
	assert.ErrorIs(t, err, persistence.ErrTransactionRequired)
}

func TestAdvisoryLockKey(t *testing.T) {
	id := uuid.MustParse("0b9f3c54-8f4c-4c52-9a3e-3a2f0f9d7e11")
	assert.Equal(t, persistence.AdvisoryLockKey(id), persistence.AdvisoryLockKey(id))
	assert.NotEqual(t, persistence.AdvisoryLockKey(id), persistence.AdvisoryLockKey(uuid.New()))
}

func ids(sessions []*domain.Session) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.ID())
	}
	return out
}
