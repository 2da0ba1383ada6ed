package cli

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/pressly/goose/v3"
)

// Migrator applies and reports schema migrations.
type Migrator interface {
	Migrate(ctx context.Context) error
	MigrationStatus(ctx context.Context) ([]*goose.MigrationStatus, error)
}

// App holds the CLI application dependencies.
type App struct {
	// Session Command Handlers
	CreateSessionHandler *commands.CreateSessionHandler
	UpdateSessionHandler *commands.UpdateSessionHandler
	CancelSessionHandler *commands.CancelSessionHandler
	DeleteSessionHandler *commands.DeleteSessionHandler

	// Session Query Handlers
	GetSessionHandler   *queries.GetSessionHandler
	ListSessionsHandler *queries.ListSessionsHandler
	BookedSlotsHandler  *queries.BookedSlotsHandler

	// Serving
	HTTPAddr string
	Health   *observability.HealthRegistry
	Metrics  *observability.PrometheusMetrics

	Migrator Migrator
}

// NewApp creates a new CLI application with the session handlers.
func NewApp(
	createSession *commands.CreateSessionHandler,
	updateSession *commands.UpdateSessionHandler,
	cancelSession *commands.CancelSessionHandler,
	deleteSession *commands.DeleteSessionHandler,
	getSession *queries.GetSessionHandler,
	listSessions *queries.ListSessionsHandler,
	bookedSlots *queries.BookedSlotsHandler,
) *App {
	return &App{
		CreateSessionHandler: createSession,
		UpdateSessionHandler: updateSession,
		CancelSessionHandler: cancelSession,
		DeleteSessionHandler: deleteSession,
		GetSessionHandler:    getSession,
		ListSessionsHandler:  listSessions,
		BookedSlotsHandler:   bookedSlots,
	}
}

// SetObservability sets the health registry and metrics exposed by serve.
func (a *App) SetObservability(health *observability.HealthRegistry, metrics *observability.PrometheusMetrics) {
	a.Health = health
	a.Metrics = metrics
}

// SetMigrator sets the schema migrator.
func (a *App) SetMigrator(m Migrator) {
	a.Migrator = m
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the application or an error when the store could
// not be opened.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, errNoStore
	}
	return app, nil
}
