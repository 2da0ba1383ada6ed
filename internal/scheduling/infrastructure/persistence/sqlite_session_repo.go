package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/sqlite"
	"github.com/google/uuid"
)

// SQLiteSessionRepository implements domain.SessionRepository using SQLite.
// Times are stored as fixed-width UTC text so comparisons work on strings.
type SQLiteSessionRepository struct {
	conn database.Connection
}

// NewSQLiteSessionRepository creates a new SQLite session repository.
func NewSQLiteSessionRepository(conn database.Connection) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{conn: conn}
}

// Create inserts a new session.
func (r *SQLiteSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID().String(), s.Title(), s.Description(),
		sqlite.FormatTime(s.StartTime()), sqlite.FormatTime(s.EndTime()),
		s.StudentID().String(), s.CoachID().String(), s.Status().String(),
		sqlite.FormatTime(s.CreatedAt()), sqlite.FormatTime(s.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID(), err)
	}
	return nil
}

// Update persists changes to an existing session.
func (r *SQLiteSessionRepository) Update(ctx context.Context, s *domain.Session) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE sessions
		SET title = ?, description = ?, start_time = ?, end_time = ?,
		    status = ?, updated_at = ?
		WHERE id = ?`,
		s.Title(), s.Description(),
		sqlite.FormatTime(s.StartTime()), sqlite.FormatTime(s.EndTime()),
		s.Status().String(), sqlite.FormatTime(s.UpdatedAt()),
		s.ID().String(),
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", s.ID(), err)
	}
	return requireAffected(result)
}

// Delete permanently removes a session.
func (r *SQLiteSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return requireAffected(result)
}

// FindByID returns the session or domain.ErrSessionNotFound.
func (r *SQLiteSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id.String())
	s, err := scanSQLiteSession(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session %s: %w", id, err)
	}
	return s, nil
}

// FindOverlapping returns the participant's live sessions overlapping interval.
func (r *SQLiteSessionRepository) FindOverlapping(
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

	where := sqliteWhere()
	where.add(column+" = %s", participantID.String())
	where.add("status <> %s", domain.StatusCancelled.String())
	where.add("start_time < %s", sqlite.FormatTime(interval.End))
	where.add("end_time > %s", sqlite.FormatTime(interval.Start))
	if excludeID != nil {
		where.add("id <> %s", excludeID.String())
	}
	return r.query(ctx, where)
}

// List returns sessions matching the filter ordered by start time.
func (r *SQLiteSessionRepository) List(ctx context.Context, filter domain.SessionFilter) ([]*domain.Session, error) {
	where := sqliteWhere()
	if filter.To != nil {
		where.add("start_time < %s", sqlite.FormatTime(*filter.To))
	}
	if filter.From != nil {
		where.add("end_time > %s", sqlite.FormatTime(*filter.From))
	}
	if filter.StudentID != nil {
		where.add("student_id = %s", filter.StudentID.String())
	}
	if filter.CoachID != nil {
		where.add("coach_id = %s", filter.CoachID.String())
	}
	if filter.Status != nil {
		where.add("status = %s", filter.Status.String())
	}
	return r.query(ctx, where)
}

// FindBooked returns live sessions contained in window.
func (r *SQLiteSessionRepository) FindBooked(ctx context.Context, window domain.Interval, coachID *uuid.UUID) ([]*domain.Session, error) {
	where := sqliteWhere()
	where.add("status <> %s", domain.StatusCancelled.String())
	where.add("start_time >= %s", sqlite.FormatTime(window.Start))
	where.add("end_time <= %s", sqlite.FormatTime(window.End))
	if coachID != nil {
		where.add("coach_id = %s", coachID.String())
	}
	return r.query(ctx, where)
}

// LockParticipants is a no-op: SQLite transactions are opened with an
// immediate write lock on a single connection.
func (r *SQLiteSessionRepository) LockParticipants(context.Context, ...uuid.UUID) error {
	return nil
}

func (r *SQLiteSessionRepository) query(ctx context.Context, where *whereClause) ([]*domain.Session, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions`+where.String()+` ORDER BY start_time, id`,
		where.args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*domain.Session
	for rows.Next() {
		s, err := scanSQLiteSession(rows)
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

func scanSQLiteSession(row database.Row) (*domain.Session, error) {
	var (
		id, studentID, coachID string
		title, description     string
		status                 string
		start, end             string
		createdAt, updatedAt   string
	)
	if err := row.Scan(&id, &title, &description, &start, &end,
		&studentID, &coachID, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	parsedStudent, err := uuid.Parse(studentID)
	if err != nil {
		return nil, fmt.Errorf("parse student_id: %w", err)
	}
	parsedCoach, err := uuid.Parse(coachID)
	if err != nil {
		return nil, fmt.Errorf("parse coach_id: %w", err)
	}

	times := make([]time.Time, 0, 4)
	for _, raw := range []string{start, end, createdAt, updatedAt} {
		t, err := sqlite.ParseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("parse time %q: %w", raw, err)
		}
		times = append(times, t)
	}

	return domain.RehydrateSession(parsedID, title, description, domain.Interval{Start: times[0], End: times[1]},
		parsedStudent, parsedCoach, domain.Status(status), times[2], times[3]), nil
}

var _ domain.SessionRepository = (*SQLiteSessionRepository)(nil)
