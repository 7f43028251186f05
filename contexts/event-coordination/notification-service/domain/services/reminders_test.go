package services

import (
	"testing"
	"time"

	"meetfix/contexts/event-coordination/notification-service/domain/entities"
)

func TestBuildReminders(t *testing.T) {
	startsAt := time.Date(2030, 5, 10, 19, 0, 0, 0, time.UTC)
	dress := startsAt.Add(-90 * time.Minute)
	travel := startsAt.Add(-30 * time.Minute)
	plan := entities.ReminderPlan{
		EventID:   "evt",
		EventName: "Game night",
		StartsAt:  startsAt,
		Recipients: []entities.Recipient{
			{UserID: "ana", DressUpTime: &dress, TravelTime: &travel, Claims: []string{"🍺 Beer", "🍟 Chips"}},
			{UserID: "ben"},
		},
	}

	reminders := BuildReminders(plan, startsAt.Add(-48*time.Hour))
	if len(reminders) != 6 {
		t.Fatalf("expected 6 reminders, got %d", len(reminders))
	}
	byKey := make(map[string]entities.Notification, len(reminders))
	for _, reminder := range reminders {
		byKey[reminder.UserID+"/"+string(reminder.Type)] = reminder
	}

	tests := []struct {
		key     string
		at      time.Time
		title   string
		message string
	}{
		{key: "ana/t_24h", at: startsAt.Add(-24 * time.Hour), title: "Tomorrow's event! 🎉", message: "Game night is tomorrow. Get ready!"},
		{key: "ana/t_4h", at: startsAt.Add(-4 * time.Hour), title: "Bringing your stuff?! 🎒", message: "You're bringing: 🍺 Beer, 🍟 Chips"},
		{key: "ana/dress_start", at: dress, title: "Get ready! Time to dress up ⏰", message: "Game night starts in 90 minutes. Start getting dressed!"},
		{key: "ana/travel_start", at: travel, title: "Time to leave! 🚗", message: "Don't forget: 🍺 Beer, 🍟 Chips"},
		{key: "ben/t_4h", at: startsAt.Add(-4 * time.Hour), title: "Bringing your stuff?! 🎒", message: "You're bringing: nothing yet"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := byKey[tt.key]
			if !ok {
				t.Fatalf("missing reminder %s", tt.key)
			}
			if !got.ScheduledFor.Equal(tt.at) || got.Title != tt.title || got.Message != tt.message {
				t.Fatalf("unexpected reminder: %+v", got)
			}
		})
	}
	if _, ok := byKey["ben/dress_start"]; ok {
		t.Fatalf("ben has no timeline and should get no dress reminder")
	}
}

func TestBuildRemindersSkipsPastTimes(t *testing.T) {
	startsAt := time.Date(2030, 5, 10, 19, 0, 0, 0, time.UTC)
	travel := startsAt.Add(-time.Hour)
	plan := entities.ReminderPlan{
		EventID:    "evt",
		EventName:  "Dinner",
		StartsAt:   startsAt,
		Recipients: []entities.Recipient{{UserID: "ana", TravelTime: &travel}},
	}

	// Six hours out: the 24h reminder is already past.
	reminders := BuildReminders(plan, startsAt.Add(-6*time.Hour))
	if len(reminders) != 2 || reminders[0].Type != entities.ReminderFourHours || reminders[1].Type != entities.ReminderTravelStart {
		t.Fatalf("unexpected reminders: %+v", reminders)
	}
	// A reminder due exactly now is not scheduled.
	if got := BuildReminders(plan, startsAt.Add(-4*time.Hour)); len(got) != 1 {
		t.Fatalf("expected only the travel reminder, got %+v", got)
	}
	if got := BuildReminders(plan, startsAt); len(got) != 0 {
		t.Fatalf("expected nothing after start, got %+v", got)
	}
}

func TestResolveLimit(t *testing.T) {
	for input, want := range map[int]int{0: 20, -3: 20, 5: 5, 20: 20, 50: 20} {
		if got := ResolveLimit(input); got != want {
			t.Fatalf("ResolveLimit(%d) = %d, want %d", input, got, want)
		}
	}
}
