package queries

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
)

const calendarProductID = "-//Cadence//Booked Slots//EN"

// WriteCalendar renders slots as an iCalendar feed. Each slot becomes a
// busy VEVENT keyed by its session id.
func WriteCalendar(w io.Writer, slots []SlotDTO, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)

	for _, slot := range slots {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, slot.SessionID.String())
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, slot.StartTime.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, slot.EndTime.UTC())
		event.Props.SetText(ical.PropSummary, fmt.Sprintf("%s (%s)", slot.Title, slot.ParticipantLabel))
		event.Props.SetText("TRANSP", "OPAQUE")
		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}
