package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/api"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		cfg := api.DefaultServerConfig()
		switch {
		case serveAddr != "":
			cfg.Addr = serveAddr
		case app.HTTPAddr != "":
			cfg.Addr = app.HTTPAddr
		}

		sessions := api.NewSessionHandler(api.SessionHandlerConfig{
			CreateSession: app.CreateSessionHandler,
			UpdateSession: app.UpdateSessionHandler,
			CancelSession: app.CancelSessionHandler,
			DeleteSession: app.DeleteSessionHandler,
			GetSession:    app.GetSessionHandler,
			ListSessions:  app.ListSessionsHandler,
			BookedSlots:   app.BookedSlotsHandler,
			Logger:        logger,
		})
		server := api.NewServer(cfg, sessions, app.Health, app.Metrics, logger)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server failed: %w", err)
		case <-cmd.Context().Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
