package ics

import (
	"strings"
	"testing"
	"time"

	"meetfix/contexts/event-coordination/event-service/ports"
)

func TestRenderProducesSingleEvent(t *testing.T) {
	start := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	body, err := Renderer{}.Render(ports.CalendarEntry{
		UID:         "evt-1@meetfix",
		Summary:     "Rooftop drinks",
		Description: "Activity: Karaoke",
		StartsAt:    start,
		EndsAt:      start.Add(2 * time.Hour),
		StampedAt:   start.Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	text := string(body)
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:-//MeetFix//EN",
		"UID:evt-1@meetfix",
		"DTSTART:20260601T180000Z",
		"DTEND:20260601T200000Z",
		"SUMMARY:Rooftop drinks",
		"END:VCALENDAR",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in calendar, got:\n%s", want, text)
		}
	}
	if strings.Count(text, "BEGIN:VEVENT") != 1 {
		t.Fatalf("expected exactly one VEVENT, got:\n%s", text)
	}
}
