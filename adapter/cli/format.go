package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

// Output formats accepted by --output.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputICS  = "ics"
)

// ParseTime parses an RFC 3339 timestamp with an explicit offset.
func ParseTime(flag, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s %q must be RFC 3339 with offset", domain.ErrInvalidInterval, flag, value)
	}
	return t, nil
}

// ParseOptionalUUID parses value unless it is empty.
func ParseOptionalUUID(flag, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return &id, nil
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintSession writes a single session in detail.
func PrintSession(w io.Writer, s queries.SessionDTO) {
	fmt.Fprintf(w, "Session %s\n", s.ID)
	fmt.Fprintf(w, "  Title:   %s\n", s.Title)
	if s.Description != "" {
		fmt.Fprintf(w, "  Notes:   %s\n", s.Description)
	}
	fmt.Fprintf(w, "  When:    %s - %s\n", s.StartTime.Format(time.RFC3339), s.EndTime.Format(time.RFC3339))
	fmt.Fprintf(w, "  Student: %s\n", s.StudentID)
	fmt.Fprintf(w, "  Coach:   %s\n", s.CoachID)
	fmt.Fprintf(w, "  Status:  %s\n", s.Status)
}

// PrintSessions writes sessions as a table.
func PrintSessions(w io.Writer, sessions []queries.SessionDTO) error {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTART\tEND\tSTATUS\tTITLE")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID,
			s.StartTime.Format(time.RFC3339), s.EndTime.Format(time.RFC3339), s.Status, s.Title)
	}
	return tw.Flush()
}

// PrintSlots writes booked slots as a table.
func PrintSlots(w io.Writer, slots []queries.SlotDTO) error {
	if len(slots) == 0 {
		fmt.Fprintln(w, "No booked slots.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tSESSION\tWITH\tTITLE")
	for _, s := range slots {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.StartTime.Format(time.RFC3339), s.EndTime.Format(time.RFC3339), s.SessionID, s.ParticipantLabel, s.Title)
	}
	return tw.Flush()
}
