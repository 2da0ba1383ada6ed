package session

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel [session-id]",
	Short: "Cancel a session and free its time",
	Long: `Cancel a session. The record is kept with status cancelled and no
longer blocks either participant. Cancelling twice is harmless.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		session, err := app.CancelSessionHandler.Handle(cmd.Context(), commands.CancelSessionCommand{ID: id})
		if err != nil {
			return fmt.Errorf("failed to cancel session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cancelled session %s (%s).\n", session.ID(), session.Title())
		return nil
	},
}
