package session

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	createDescription string
	createStart       string
	createEnd         string
	createStudent     string
	createCoach       string
	createStatus      string
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Book a new session",
	Long: `Book a session between a student and a coach. The booking is refused
when either participant already has a non-cancelled session overlapping
the requested time. Sessions that merely touch (one ends when the other
starts) do not overlap.

Examples:
  cadence session create "Weekly check-in" \
    --start 2024-03-01T14:00:00Z --end 2024-03-01T15:00:00Z \
    --student <student-id> --coach <coach-id>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		start, err := cli.ParseTime("start", createStart)
		if err != nil {
			return err
		}
		end, err := cli.ParseTime("end", createEnd)
		if err != nil {
			return err
		}
		studentID, err := uuid.Parse(createStudent)
		if err != nil {
			return fmt.Errorf("invalid --student: %w", err)
		}
		coachID, err := uuid.Parse(createCoach)
		if err != nil {
			return fmt.Errorf("invalid --coach: %w", err)
		}

		session, err := app.CreateSessionHandler.Handle(cmd.Context(), commands.CreateSessionCommand{
			Title:       args[0],
			Description: createDescription,
			StartTime:   start,
			EndTime:     end,
			StudentID:   studentID,
			CoachID:     coachID,
			Status:      createStatus,
		})
		if err != nil {
			return fmt.Errorf("failed to book session: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Booked session.")
		cli.PrintSession(cmd.OutOrStdout(), queries.ToSessionDTO(session))
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "session notes")
	createCmd.Flags().StringVar(&createStart, "start", "", "start time (RFC 3339)")
	createCmd.Flags().StringVar(&createEnd, "end", "", "end time (RFC 3339)")
	createCmd.Flags().StringVar(&createStudent, "student", "", "student id")
	createCmd.Flags().StringVar(&createCoach, "coach", "", "coach id")
	createCmd.Flags().StringVar(&createStatus, "status", "", "initial status (default scheduled)")
	for _, name := range []string{"start", "end", "student", "coach"} {
		_ = createCmd.MarkFlagRequired(name)
	}
}
