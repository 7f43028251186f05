package entities

import "time"

type ReminderType string

const (
	ReminderDayBefore   ReminderType = "t_24h"
	ReminderFourHours   ReminderType = "t_4h"
	ReminderDressStart  ReminderType = "dress_start"
	ReminderTravelStart ReminderType = "travel_start"
)

const DefaultListLimit = 20

// Notification is an in-app reminder. It becomes visible once ScheduledFor
// has passed.
type Notification struct {
	NotificationID string
	UserID         string
	EventID        string
	Type           ReminderType
	Title          string
	Message        string
	ScheduledFor   time.Time
	ReadAt         *time.Time
	CreatedAt      time.Time
}

func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}

func (n Notification) IsDue(now time.Time) bool {
	return !n.ScheduledFor.After(now)
}

// Recipient is what the reminder builder knows about one group member.
type Recipient struct {
	UserID      string
	DressUpTime *time.Time
	TravelTime  *time.Time
	Claims      []string
}

type ReminderPlan struct {
	EventID    string
	EventName  string
	StartsAt   time.Time
	Recipients []Recipient
}
