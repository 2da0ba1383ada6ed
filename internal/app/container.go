// Package app wires the scheduling service together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/cadence/internal/directory"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/internal/scheduling/infrastructure/locking"
	"github.com/felixgeelhaar/cadence/internal/scheduling/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Observability
	Metrics *observability.PrometheusMetrics
	Health  *observability.HealthRegistry

	// Repositories
	SessionRepo domain.SessionRepository
	OutboxRepo  outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Collaborators
	Locker    services.ParticipantLocker
	Directory directory.Directory

	// Session Command Handlers
	CreateSessionHandler *commands.CreateSessionHandler
	UpdateSessionHandler *commands.UpdateSessionHandler
	CancelSessionHandler *commands.CancelSessionHandler
	DeleteSessionHandler *commands.DeleteSessionHandler

	// Session Query Handlers
	GetSessionHandler   *queries.GetSessionHandler
	ListSessionsHandler *queries.ListSessionsHandler
	BookedSlotsHandler  *queries.BookedSlotsHandler
}

type options struct {
	directory directory.Directory
	clock     func() time.Time
	migrate   bool
}

// Option customises container construction.
type Option func(*options)

// WithDirectory overrides the participant directory.
func WithDirectory(d directory.Directory) Option {
	return func(o *options) { o.directory = d }
}

// WithClock overrides the clock used to stamp sessions.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithMigrations applies pending migrations during startup. Local mode
// always migrates.
func WithMigrations() Option {
	return func(o *options) { o.migrate = true }
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewPrometheusMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	conn, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	logger.Info("connected to database", "driver", c.DBDriver.String())

	if o.migrate || cfg.LocalMode {
		if err := migrations.Up(ctx, conn, logger); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if err := c.connectRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}

	c.Health.Register("database", observability.DatabaseHealthChecker(conn.Ping))
	if c.RedisClient != nil {
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		}))
	}

	// Create repositories
	c.SessionRepo = persistence.NewSessionRepository(conn)
	c.OutboxRepo = outbox.NewRepository(conn)
	c.UnitOfWork = database.NewUnitOfWork(conn)

	c.Locker = c.newLocker()
	c.Directory = o.directory
	if c.Directory == nil {
		c.Directory = c.newDirectory()
	}

	deps := commands.Dependencies{
		Sessions:   c.SessionRepo,
		Outbox:     c.OutboxRepo,
		UnitOfWork: c.UnitOfWork,
		Locker:     c.Locker,
		Directory:  c.Directory,
		Metrics:    c.Metrics,
		Logger:     logger,
		Clock:      o.clock,
	}

	// Create session command handlers
	c.CreateSessionHandler = commands.NewCreateSessionHandler(deps)
	c.UpdateSessionHandler = commands.NewUpdateSessionHandler(deps)
	c.CancelSessionHandler = commands.NewCancelSessionHandler(c.UpdateSessionHandler)
	c.DeleteSessionHandler = commands.NewDeleteSessionHandler(deps)

	// Create session query handlers
	c.GetSessionHandler = queries.NewGetSessionHandler(c.SessionRepo)
	c.ListSessionsHandler = queries.NewListSessionsHandler(c.SessionRepo)
	c.BookedSlotsHandler = queries.NewBookedSlotsHandler(c.SessionRepo, c.Directory)

	return c, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (database.Connection, error) {
	driver, err := database.ParseDriver(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	dbCfg := database.Config{Driver: driver, URL: cfg.DatabaseURL, SQLitePath: cfg.SQLitePath}
	if driver == database.DriverSQLite && dbCfg.SQLitePath == "" {
		dbCfg.SQLitePath = database.DefaultSQLitePath()
	}

	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// connectRedis connects to Redis when configured. Outside production an
// unreachable Redis only disables the features that use it.
func (c *Container) connectRedis(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if c.Config.IsProduction() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, continuing without Redis", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if c.Config.IsProduction() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, continuing without Redis", "error", err)
		return nil
	}

	c.RedisClient = client
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) newLocker() services.ParticipantLocker {
	if c.Config.UseRedisLocks() && c.RedisClient != nil {
		c.Logger.Info("using Redis participant locks")
		return locking.NewRedisLocker(c.RedisClient, locking.RedisConfig{
			TTL:         c.Config.LockTTL,
			WaitTimeout: c.Config.LockWaitTimeout,
		}, c.Logger)
	}
	return services.NewMemoryLocker(c.Config.LockWaitTimeout)
}

func (c *Container) newDirectory() directory.Directory {
	if c.Config.DirectoryURL == "" {
		return directory.NewStaticDirectory(nil)
	}

	httpCfg := directory.DefaultHTTPConfig(c.Config.DirectoryURL)
	if c.Config.DirectoryTimeout > 0 {
		httpCfg.Timeout = c.Config.DirectoryTimeout
	}
	httpDir := directory.NewHTTPDirectory(httpCfg, c.Logger)
	c.Health.Register("directory", func(ctx context.Context) observability.HealthCheckResult {
		state := httpDir.State()
		if state == "open" {
			return observability.HealthCheckResult{Status: observability.HealthStatusDegraded, Message: "circuit breaker open"}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy, Message: "circuit breaker " + state}
	})

	var d directory.Directory = httpDir

	if c.RedisClient != nil && c.Config.DirectoryCacheTTL > 0 {
		d = directory.NewCachedDirectory(d, c.RedisClient, c.Config.DirectoryCacheTTL, c.Logger)
	}
	return d
}

// Close releases every connection the container opened.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver.String())
		}
	}
}

// Migrate applies pending schema migrations.
func (c *Container) Migrate(ctx context.Context) error {
	return migrations.Up(ctx, c.DBConn, c.Logger)
}

// MigrationStatus reports the state of every known migration.
func (c *Container) MigrationStatus(ctx context.Context) ([]*goose.MigrationStatus, error) {
	return migrations.Status(ctx, c.DBConn)
}
