package session

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		session, err := app.GetSessionHandler.Handle(cmd.Context(), queries.GetSessionQuery{ID: id})
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		cli.PrintSession(cmd.OutOrStdout(), *session)
		return nil
	},
}
