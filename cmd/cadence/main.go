package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/adapter/cli/session"
	"github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
)

func main() {
	// Create context cancelled on shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development", DatabaseDriver: "sqlite", LocalMode: true}
	}

	logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cfg.Version))
	slog.SetDefault(logger)
	cli.SetLogger(logger)
	cli.Version = cfg.Version

	// Try to initialize the full container
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if cfg.IsProduction() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// Commands report the missing store themselves.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()

		cliApp = cli.NewApp(
			container.CreateSessionHandler,
			container.UpdateSessionHandler,
			container.CancelSessionHandler,
			container.DeleteSessionHandler,
			container.GetSessionHandler,
			container.ListSessionsHandler,
			container.BookedSlotsHandler,
		)
		cliApp.HTTPAddr = cfg.HTTPAddr
		cliApp.SetObservability(container.Health, container.Metrics)
		cliApp.SetMigrator(container)
	}

	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(session.Cmd)

	cli.Execute(ctx)
}
