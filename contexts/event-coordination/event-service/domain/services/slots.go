package services

import (
	"strings"
	"time"

	domainerrors "meetfix/contexts/event-coordination/event-service/domain/errors"
)

var slotDurations = map[string]int{
	"":   60,
	"1h": 60,
	"2h": 120,
	"3h": 180,
}

// ResolveSlotTime combines a calendar date, a time of day and a duration label
// into an absolute UTC start plus a length in minutes. An empty timezone means
// UTC.
func ResolveSlotTime(date string, clock string, duration string, timezone string) (time.Time, int, error) {
	minutes, ok := slotDurations[strings.ToLower(strings.TrimSpace(duration))]
	if !ok {
		return time.Time{}, 0, domainerrors.ErrInvalidEventInput
	}

	location := time.UTC
	if tz := strings.TrimSpace(timezone); tz != "" {
		loaded, err := time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, 0, domainerrors.ErrInvalidEventInput
		}
		location = loaded
	}

	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = "00:00"
	}
	startsAt, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(date)+" "+clock, location)
	if err != nil {
		return time.Time{}, 0, domainerrors.ErrInvalidEventInput
	}
	return startsAt.UTC(), minutes, nil
}
