package persistence

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const (
	constraintStudentOverlap = "sessions_student_no_overlap"
	constraintCoachOverlap   = "sessions_coach_no_overlap"
)

// ErrTransactionRequired is returned when advisory locks are requested
// outside a transaction.
var ErrTransactionRequired = errors.New("participant locks require a transaction")

// PostgresSessionRepository implements domain.SessionRepository using
// PostgreSQL. Exclusion constraints back up the conflict checker.
type PostgresSessionRepository struct {
	conn database.Connection
}

// NewPostgresSessionRepository creates a new PostgreSQL session repository.
func NewPostgresSessionRepository(conn database.Connection) *PostgresSessionRepository {
	return &PostgresSessionRepository{conn: conn}
}

// Create inserts a new session.
func (r *PostgresSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID(), s.Title(), s.Description(), s.StartTime(), s.EndTime(),
		s.StudentID(), s.CoachID(), s.Status().String(), s.CreatedAt(), s.UpdatedAt(),
	)
	if err != nil {
		return r.mapWriteError(s, "insert session", err)
	}
	return nil
}

// Update persists changes to an existing session.
func (r *PostgresSessionRepository) Update(ctx context.Context, s *domain.Session) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE sessions
		SET title = $2, description = $3, start_time = $4, end_time = $5,
		    status = $6, updated_at = $7
		WHERE id = $1`,
		s.ID(), s.Title(), s.Description(), s.StartTime(), s.EndTime(),
		s.Status().String(), s.UpdatedAt(),
	)
	if err != nil {
		return r.mapWriteError(s, "update session", err)
	}
	return requireAffected(result)
}

// Delete permanently removes a session.
func (r *PostgresSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return requireAffected(result)
}

// FindByID returns the session or domain.ErrSessionNotFound.
func (r *PostgresSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanPostgresSession(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session %s: %w", id, err)
	}
	return s, nil
}

// FindOverlapping returns the participant's live sessions overlapping interval.
func (r *PostgresSessionRepository) FindOverlapping(
	ctx context.Context,
	kind domain.ParticipantKind,
	participantID uuid.UUID,
	interval domain.Interval,
	excludeID *uuid.UUID,
) ([]*domain.Session, error) {
	column, err := participantColumn(kind)
	if err != nil {
		return nil, err
	}

	where := postgresWhere()
	where.add(column+" = %s", participantID)
	where.add("status <> %s", domain.StatusCancelled.String())
	where.add("start_time < %s", interval.End)
	where.add("end_time > %s", interval.Start)
	if excludeID != nil {
		where.add("id <> %s", *excludeID)
	}
	return r.query(ctx, where)
}

// List returns sessions matching the filter ordered by start time.
func (r *PostgresSessionRepository) List(ctx context.Context, filter domain.SessionFilter) ([]*domain.Session, error) {
	where := postgresWhere()
	if filter.To != nil {
		where.add("start_time < %s", *filter.To)
	}
	if filter.From != nil {
		where.add("end_time > %s", *filter.From)
	}
	if filter.StudentID != nil {
		where.add("student_id = %s", *filter.StudentID)
	}
	if filter.CoachID != nil {
		where.add("coach_id = %s", *filter.CoachID)
	}
	if filter.Status != nil {
		where.add("status = %s", filter.Status.String())
	}
	return r.query(ctx, where)
}

// FindBooked returns live sessions contained in window.
func (r *PostgresSessionRepository) FindBooked(ctx context.Context, window domain.Interval, coachID *uuid.UUID) ([]*domain.Session, error) {
	where := postgresWhere()
	where.add("status <> %s", domain.StatusCancelled.String())
	where.add("start_time >= %s", window.Start)
	where.add("end_time <= %s", window.End)
	if coachID != nil {
		where.add("coach_id = %s", *coachID)
	}
	return r.query(ctx, where)
}

// LockParticipants takes a transaction scoped advisory lock per participant.
func (r *PostgresSessionRepository) LockParticipants(ctx context.Context, participantIDs ...uuid.UUID) error {
	info, ok := database.TxInfoFromContext(ctx)
	if !ok {
		return ErrTransactionRequired
	}
	for _, id := range services.OrderParticipants(participantIDs) {
		if _, err := info.Tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, AdvisoryLockKey(id)); err != nil {
			return fmt.Errorf("advisory lock %s: %w", id, err)
		}
	}
	return nil
}

// AdvisoryLockKey maps a participant id onto the bigint advisory lock space.
func AdvisoryLockKey(id uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write(id[:])
	return int64(h.Sum64())
}

func (r *PostgresSessionRepository) query(ctx context.Context, where *whereClause) ([]*domain.Session, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions`+where.String()+` ORDER BY start_time, id`,
		where.args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*domain.Session
	for rows.Next() {
		s, err := scanPostgresSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// mapWriteError turns an exclusion violation into a scheduling conflict.
func (r *PostgresSessionRepository) mapWriteError(s *domain.Session, op string, err error) error {
	if !database.IsExclusionViolation(err) {
		return fmt.Errorf("%s %s: %w", op, s.ID(), err)
	}
	conflict := &domain.ConflictError{Participant: domain.ParticipantStudent, ParticipantID: s.StudentID()}
	if database.ConstraintName(err) == constraintCoachOverlap {
		conflict.Participant = domain.ParticipantCoach
		conflict.ParticipantID = s.CoachID()
	}
	return conflict
}

func scanPostgresSession(row database.Row) (*domain.Session, error) {
	var (
		id, studentID, coachID uuid.UUID
		title, description     string
		status                 string
		start, end             time.Time
		createdAt, updatedAt   time.Time
	)
	if err := row.Scan(&id, &title, &description, &start, &end,
		&studentID, &coachID, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return domain.RehydrateSession(id, title, description, domain.Interval{Start: start, End: end},
		studentID, coachID, domain.Status(status), createdAt, updatedAt), nil
}

func requireAffected(result database.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

var _ domain.SessionRepository = (*PostgresSessionRepository)(nil)
