package session

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	updateTitle       string
	updateDescription string
	updateStart       string
	updateEnd         string
	updateStatus      string
)

var updateCmd = &cobra.Command{
	Use:   "update [session-id]",
	Short: "Change a session",
	Long: `Change any of a session's title, notes, time or status. Only the flags
given are applied. A new time is checked for conflicts against every
other session of both participants.

Examples:
  cadence session update <id> --start 2024-03-01T15:00:00Z --end 2024-03-01T16:00:00Z
  cadence session update <id> --status completed`,
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

		update := commands.UpdateSessionCommand{ID: id}
		flags := cmd.Flags()
		if flags.Changed("title") {
			update.Title = &updateTitle
		}
		if flags.Changed("description") {
			update.Description = &updateDescription
		}
		if flags.Changed("start") {
			start, err := cli.ParseTime("start", updateStart)
			if err != nil {
				return err
			}
			update.StartTime = &start
		}
		if flags.Changed("end") {
			end, err := cli.ParseTime("end", updateEnd)
			if err != nil {
				return err
			}
			update.EndTime = &end
		}
		if flags.Changed("status") {
			update.Status = &updateStatus
		}

		session, err := app.UpdateSessionHandler.Handle(cmd.Context(), update)
		if err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Updated session.")
		cli.PrintSession(cmd.OutOrStdout(), queries.ToSessionDTO(session))
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "new notes")
	updateCmd.Flags().StringVar(&updateStart, "start", "", "new start time (RFC 3339)")
	updateCmd.Flags().StringVar(&updateEnd, "end", "", "new end time (RFC 3339)")
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "new status: scheduled, completed, cancelled or no-show")
}
