package persistence

import (
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
)

// NewSessionRepository returns the repository matching the connection's driver.
func NewSessionRepository(conn database.Connection) domain.SessionRepository {
	if conn.Driver() == database.DriverPostgres {
		return NewPostgresSessionRepository(conn)
	}
	return NewSQLiteSessionRepository(conn)
}
