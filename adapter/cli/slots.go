package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	slotsFrom   string
	slotsTo     string
	slotsCoach  string
	slotsOutput string
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Show booked slots inside a window",
	Long: `Show every non-cancelled session lying entirely inside a window,
optionally restricted to one coach.

Examples:
  cadence slots --from 2024-03-01T08:00:00Z --to 2024-03-01T18:00:00Z
  cadence slots --from 2024-03-01T00:00:00Z --to 2024-03-08T00:00:00Z --coach <id> --output ics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		start, err := ParseTime("from", slotsFrom)
		if err != nil {
			return err
		}
		end, err := ParseTime("to", slotsTo)
		if err != nil {
			return err
		}
		coachID, err := ParseOptionalUUID("coach", slotsCoach)
		if err != nil {
			return err
		}

		slots, err := app.BookedSlotsHandler.Handle(cmd.Context(), queries.BookedSlotsQuery{
			Start:   start,
			End:     end,
			CoachID: coachID,
		})
		if err != nil {
			return fmt.Errorf("failed to load booked slots: %w", err)
		}

		out := cmd.OutOrStdout()
		switch slotsOutput {
		case OutputJSON:
			return PrintJSON(out, slots)
		case OutputICS:
			return queries.WriteCalendar(out, slots, time.Now())
		default:
			return PrintSlots(out, slots)
		}
	},
}

func init() {
	slotsCmd.Flags().StringVar(&slotsFrom, "from", "", "window start (RFC 3339)")
	slotsCmd.Flags().StringVar(&slotsTo, "to", "", "window end (RFC 3339)")
	slotsCmd.Flags().StringVar(&slotsCoach, "coach", "", "restrict to one coach id")
	slotsCmd.Flags().StringVarP(&slotsOutput, "output", "o", OutputText, "output format: text, json or ics")
	_ = slotsCmd.MarkFlagRequired("from")
	_ = slotsCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(slotsCmd)
}
