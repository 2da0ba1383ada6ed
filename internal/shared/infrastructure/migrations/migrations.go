// Package migrations applies the embedded schema migrations with goose.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedded embed.FS

// NewProvider builds a goose provider for the connection's dialect.
func NewProvider(conn database.Connection) (*goose.Provider, error) {
	provider, ok := conn.(database.SQLDBProvider)
	if !ok {
		return nil, fmt.Errorf("connection for %s does not expose database/sql", conn.Driver())
	}

	var (
		dialect goose.Dialect
		dir     string
	)
	switch conn.Driver() {
	case database.DriverPostgres:
		dialect, dir = goose.DialectPostgres, "postgres"
	case database.DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "sqlite"
	default:
		return nil, fmt.Errorf("no migrations for driver %s", conn.Driver())
	}

	fsys, err := fs.Sub(embedded, dir)
	if err != nil {
		return nil, fmt.Errorf("open %s migrations: %w", dir, err)
	}

	return goose.NewProvider(dialect, provider.SQLDB(), fsys)
}

// Up applies every pending migration.
func Up(ctx context.Context, conn database.Connection, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := NewProvider(conn)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("migration applied",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"duration", r.Duration,
		)
	}
	return nil
}

// Status reports the state of every known migration.
func Status(ctx context.Context, conn database.Connection) ([]*goose.MigrationStatus, error) {
	provider, err := NewProvider(conn)
	if err != nil {
		return nil, err
	}
	return provider.Status(ctx)
}
