package session

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	listFrom    string
	listTo      string
	listStudent string
	listCoach   string
	listStatus  string
	listOutput  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	Long: `List sessions ordered by start time. --from and --to select sessions
overlapping that window; either bound may be omitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		var q queries.ListSessionsQuery
		if listFrom != "" {
			from, err := cli.ParseTime("from", listFrom)
			if err != nil {
				return err
			}
			q.From = &from
		}
		if listTo != "" {
			to, err := cli.ParseTime("to", listTo)
			if err != nil {
				return err
			}
			q.To = &to
		}
		if q.StudentID, err = cli.ParseOptionalUUID("student", listStudent); err != nil {
			return err
		}
		if q.CoachID, err = cli.ParseOptionalUUID("coach", listCoach); err != nil {
			return err
		}
		if listStatus != "" {
			q.Status = &listStatus
		}

		sessions, err := app.ListSessionsHandler.Handle(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if listOutput == cli.OutputJSON {
			return cli.PrintJSON(cmd.OutOrStdout(), sessions)
		}
		return cli.PrintSessions(cmd.OutOrStdout(), sessions)
	},
}

func init() {
	listCmd.Flags().StringVar(&listFrom, "from", "", "window start (RFC 3339)")
	listCmd.Flags().StringVar(&listTo, "to", "", "window end (RFC 3339)")
	listCmd.Flags().StringVar(&listStudent, "student", "", "filter by student id")
	listCmd.Flags().StringVar(&listCoach, "coach", "", "filter by coach id")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", cli.OutputText, "output format: text or json")
}
