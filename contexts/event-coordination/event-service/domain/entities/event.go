package entities

import (
	"strings"
	"time"
)

type EventStatus string

const (
	EventStatusOpen      EventStatus = "open"
	EventStatusFinalized EventStatus = "finalized"
)

const (
	MaxSlotsPerEvent      = 3
	MaxActivitiesPerEvent = 3
	DefaultSlotMinutes    = 60
)

// Event is the lifecycle aggregate. PackedUp is a sub-state of Finalized.
type Event struct {
	EventID           string
	GroupID           string
	Name              string
	Status            EventStatus
	PackedUp          bool
	CreatedBy         string
	FinalizedSlotID   string
	FinalizedDate     *time.Time
	FinalizedActivity *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (e Event) IsOpen() bool {
	return e.Status == EventStatusOpen
}

func (e Event) IsFinalized() bool {
	return e.Status == EventStatusFinalized
}

func (e Event) IsOwnedBy(userID string) bool {
	return strings.TrimSpace(userID) != "" && e.CreatedBy == strings.TrimSpace(userID)
}

// LifecycleState collapses status and the packed-up flag into one label.
func (e Event) LifecycleState() string {
	if e.IsFinalized() && e.PackedUp {
		return "packed_up"
	}
	return string(e.Status)
}

type Slot struct {
	SlotID          string
	EventID         string
	SlotAt          time.Time
	DurationMinutes int
	CreatedBy       string
	CreatedAt       time.Time
}

func (s Slot) EndsAt() time.Time {
	minutes := s.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultSlotMinutes
	}
	return s.SlotAt.Add(time.Duration(minutes) * time.Minute)
}

type Activity struct {
	ActivityID string
	EventID    string
	Name       string
	CreatedBy  string
	CreatedAt  time.Time
}

// Timeline holds one member's personal preparation times for an event.
type Timeline struct {
	EventID     string
	UserID      string
	DressUpTime *time.Time
	TravelTime  *time.Time
	UpdatedAt   time.Time
}

type EventSummary struct {
	Event       Event
	FirstSlotAt *time.Time
	SlotCount   int
	TotalVotes  int
}

// EventSnapshot is an event read under its row lock together with its options
// and current vote counts.
type EventSnapshot struct {
	Event          Event
	Slots          []Slot
	Activities     []Activity
	SlotCounts     map[string]int
	ActivityCounts map[string]int
}
