package services

import (
	"fmt"
	"strings"
	"time"

	"meetfix/contexts/event-coordination/notification-service/domain/entities"
)

const nothingClaimed = "nothing yet"

// BuildReminders expands a plan into per-member notifications. Reminders
// whose time is not after now are skipped. IDs are left empty.
func BuildReminders(plan entities.ReminderPlan, now time.Time) []entities.Notification {
	startsAt := plan.StartsAt.UTC()
	items := make([]entities.Notification, 0, len(plan.Recipients)*4)
	add := func(recipient entities.Recipient, kind entities.ReminderType, at time.Time, title string, message string) {
		if !at.After(now) {
			return
		}
		items = append(items, entities.Notification{
			UserID:       recipient.UserID,
			EventID:      plan.EventID,
			Type:         kind,
			Title:        title,
			Message:      message,
			ScheduledFor: at.UTC(),
			CreatedAt:    now.UTC(),
		})
	}

	for _, recipient := range plan.Recipients {
		claims := ClaimText(recipient.Claims)
		add(recipient, entities.ReminderDayBefore, startsAt.Add(-24*time.Hour),
			"Tomorrow's event! 🎉",
			fmt.Sprintf("%s is tomorrow. Get ready!", plan.EventName),
		)
		add(recipient, entities.ReminderFourHours, startsAt.Add(-4*time.Hour),
			"Bringing your stuff?! 🎒",
			"You're bringing: "+claims,
		)
		if recipient.DressUpTime != nil {
			minutes := int(startsAt.Sub(recipient.DressUpTime.UTC()).Minutes())
			add(recipient, entities.ReminderDressStart, *recipient.DressUpTime,
				"Get ready! Time to dress up ⏰",
				fmt.Sprintf("%s starts in %d minutes. Start getting dressed!", plan.EventName, minutes),
			)
		}
		if recipient.TravelTime != nil {
			add(recipient, entities.ReminderTravelStart, *recipient.TravelTime,
				"Time to leave! 🚗",
				"Don't forget: "+claims,
			)
		}
	}
	return items
}

func ClaimText(claims []string) string {
	cleaned := make([]string, 0, len(claims))
	for _, claim := range claims {
		if claim = strings.TrimSpace(claim); claim != "" {
			cleaned = append(cleaned, claim)
		}
	}
	if len(cleaned) == 0 {
		return nothingClaimed
	}
	return strings.Join(cleaned, ", ")
}

func ResolveLimit(limit int) int {
	if limit <= 0 || limit > entities.DefaultListLimit {
		return entities.DefaultListLimit
	}
	return limit
}
