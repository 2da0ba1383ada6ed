// Package persistence stores sessions in PostgreSQL or SQLite.
package persistence

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
)

const sessionColumns = `id, title, description, start_time, end_time,
	student_id, coach_id, status, created_at, updated_at`

// whereClause accumulates AND-ed conditions with driver specific
// placeholders.
type whereClause struct {
	conds       []string
	args        []any
	placeholder func(n int) string
}

func postgresWhere() *whereClause {
	return &whereClause{placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }}
}

func sqliteWhere() *whereClause {
	return &whereClause{placeholder: func(int) string { return "?" }}
}

// add appends a condition; each %s in cond is replaced by the placeholder
// of the next argument.
func (w *whereClause) add(cond string, args ...any) {
	marks := make([]any, len(args))
	for i, arg := range args {
		w.args = append(w.args, arg)
		marks[i] = w.placeholder(len(w.args))
	}
	w.conds = append(w.conds, fmt.Sprintf(cond, marks...))
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func participantColumn(kind domain.ParticipantKind) (string, error) {
	switch kind {
	case domain.ParticipantStudent:
		return "student_id", nil
	case domain.ParticipantCoach:
		return "coach_id", nil
	}
	return "", fmt.Errorf("unknown participant kind %q", kind)
}
