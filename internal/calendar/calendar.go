// Package calendar mirrors reminders into iCalendar (.ics) files.
//
// DirectoryCalendar keeps one file per event in a directory and can remove
// them again. ExportCalendar only writes a downloadable file per event and
// cannot track it afterwards.
package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//chatkeeper//reminders//EN"

// Event is a calendar entry with a single display alarm LeadMinutes before
// Start.
type Event struct {
	Title       string
	Start       time.Time
	End         time.Time
	Notes       string
	LeadMinutes int
}

// Render serializes e as a VCALENDAR with one VEVENT identified by uid.
func Render(uid string, e Event, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	ev := cal.AddEvent(uid)
	ev.SetDtStampTime(stamp.UTC())
	ev.SetStartAt(e.Start.UTC())
	ev.SetEndAt(e.End.UTC())
	ev.SetSummary(e.Title)
	if e.Notes != "" {
		ev.SetDescription(e.Notes)
	}

	if e.LeadMinutes > 0 {
		alarm := ev.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger(fmt.Sprintf("-PT%dM", e.LeadMinutes))
	}

	return cal.Serialize()
}
