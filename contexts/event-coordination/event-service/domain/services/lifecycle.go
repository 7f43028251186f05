package services

import (
	"strings"
	"time"

	"meetfix/contexts/event-coordination/event-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/event-service/domain/errors"
)

// FinalizeInput carries the owner's overrides. A nil ActivityName selects the
// leading activity; a pointer to an empty string finalizes without one.
type FinalizeInput struct {
	ActorID      string
	SlotID       string
	ActivityName *string
	Now          time.Time
}

// Finalize applies the open -> finalized transition against a locked snapshot.
func Finalize(snapshot entities.EventSnapshot, input FinalizeInput) (entities.Event, error) {
	event := snapshot.Event
	if !event.IsOwnedBy(input.ActorID) {
		return entities.Event{}, domainerrors.ErrNotEventOwner
	}
	if !event.IsOpen() {
		return entities.Event{}, domainerrors.ErrInvalidStateTransition
	}
	if len(snapshot.Slots) == 0 {
		return entities.Event{}, domainerrors.ErrNoSlots
	}

	slotTally := TallySlots(snapshot.Slots, snapshot.SlotCounts, "")
	var chosen entities.Slot
	if slotID := strings.TrimSpace(input.SlotID); slotID != "" {
		found := false
		for _, slot := range snapshot.Slots {
			if slot.SlotID == slotID {
				chosen = slot
				found = true
				break
			}
		}
		if !found {
			return entities.Event{}, domainerrors.ErrSlotNotFound
		}
	} else {
		leader, _ := Leader(slotTally)
		chosen = leader.Slot
	}

	var activity *string
	if input.ActivityName != nil {
		if name := strings.TrimSpace(*input.ActivityName); name != "" {
			activity = &name
		}
	} else if len(snapshot.Activities) > 0 {
		activityTally := TallyActivities(snapshot.Activities, snapshot.ActivityCounts, "")
		if leader, ok := Leader(activityTally); ok {
			name := leader.Activity.Name
			activity = &name
		}
	}

	finalizedDate := chosen.SlotAt.UTC()
	event.Status = entities.EventStatusFinalized
	event.PackedUp = false
	event.FinalizedSlotID = chosen.SlotID
	event.FinalizedDate = &finalizedDate
	event.FinalizedActivity = activity
	event.UpdatedAt = input.Now
	return event, nil
}

func PackUp(event entities.Event, actorID string, now time.Time) (entities.Event, error) {
	if !event.IsOwnedBy(actorID) {
		return entities.Event{}, domainerrors.ErrNotEventOwner
	}
	if !event.IsFinalized() || event.FinalizedDate == nil {
		return entities.Event{}, domainerrors.ErrInvalidStateTransition
	}
	event.PackedUp = true
	event.UpdatedAt = now
	return event, nil
}

// Reopen returns a finalized event, packed up or not, to open voting. Vote
// rows are left untouched and count again.
func Reopen(event entities.Event, actorID string, now time.Time) (entities.Event, error) {
	if !event.IsOwnedBy(actorID) {
		return entities.Event{}, domainerrors.ErrNotEventOwner
	}
	if !event.IsFinalized() {
		return entities.Event{}, domainerrors.ErrInvalidStateTransition
	}
	event.Status = entities.EventStatusOpen
	event.PackedUp = false
	event.FinalizedSlotID = ""
	event.FinalizedDate = nil
	event.FinalizedActivity = nil
	event.UpdatedAt = now
	return event, nil
}
