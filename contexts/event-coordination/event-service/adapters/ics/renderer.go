package ics

import (
	"strings"

	"meetfix/contexts/event-coordination/event-service/ports"

	ical "github.com/arran4/golang-ical"
)

const productID = "-//MeetFix//EN"

// Renderer serializes a finalized event into a single-VEVENT calendar.
type Renderer struct{}

func (Renderer) Render(entry ports.CalendarEntry) ([]byte, error) {
	calendar := ical.NewCalendar()
	calendar.SetProductId(productID)
	calendar.SetMethod(ical.MethodPublish)

	event := calendar.AddEvent(strings.TrimSpace(entry.UID))
	event.SetDtStampTime(entry.StampedAt.UTC())
	event.SetStartAt(entry.StartsAt.UTC())
	event.SetEndAt(entry.EndsAt.UTC())
	event.SetSummary(entry.Summary)
	if description := strings.TrimSpace(entry.Description); description != "" {
		event.SetDescription(description)
	}
	return []byte(calendar.Serialize()), nil
}

var _ ports.CalendarRenderer = Renderer{}
