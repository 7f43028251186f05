package services

import (
	"math"
	"sort"

	"meetfix/contexts/event-coordination/event-service/domain/entities"
)

// Counted is implemented by tally rows that carry a vote count.
type Counted interface {
	Votes() int
}

// OrderSlots sorts slots chronologically. Equal timestamps fall back to
// creation order and then id so the result never depends on storage order.
func OrderSlots(slots []entities.Slot) []entities.Slot {
	out := append([]entities.Slot(nil), slots...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SlotAt.Equal(out[j].SlotAt) {
			return out[i].SlotAt.Before(out[j].SlotAt)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].SlotID < out[j].SlotID
	})
	return out
}

// OrderActivities sorts activities by creation order.
func OrderActivities(activities []entities.Activity) []entities.Activity {
	out := append([]entities.Activity(nil), activities...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ActivityID < out[j].ActivityID
	})
	return out
}

// TallySlots derives per-slot counts in chronological order. counts maps slot
// id to the number of ledger rows; votes for unknown slots are ignored.
func TallySlots(slots []entities.Slot, counts map[string]int, mySlotID string) []entities.SlotTally {
	ordered := OrderSlots(slots)
	items := make([]entities.SlotTally, 0, len(ordered))
	for _, slot := range ordered {
		items = append(items, entities.SlotTally{
			Slot:      slot,
			VoteCount: counts[slot.SlotID],
			VotedByMe: mySlotID != "" && mySlotID == slot.SlotID,
		})
	}
	total := TotalVotes(items)
	for i := range items {
		items[i].Percentage = Percentage(items[i].VoteCount, total)
	}
	return items
}

// TallyActivities derives per-activity counts in creation order.
func TallyActivities(activities []entities.Activity, counts map[string]int, myActivityID string) []entities.ActivityTally {
	ordered := OrderActivities(activities)
	items := make([]entities.ActivityTally, 0, len(ordered))
	for _, activity := range ordered {
		items = append(items, entities.ActivityTally{
			Activity:  activity,
			VoteCount: counts[activity.ActivityID],
			VotedByMe: myActivityID != "" && myActivityID == activity.ActivityID,
		})
	}
	total := TotalVotes(items)
	for i := range items {
		items[i].Percentage = Percentage(items[i].VoteCount, total)
	}
	return items
}

// RankByVotes returns a copy sorted by vote count descending. The sort is
// stable, so tied entries keep their default order.
func RankByVotes[T Counted](entries []T) []T {
	out := append([]T(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Votes() > out[j].Votes()
	})
	return out
}

// Leader is the head of RankByVotes, so the first entry wins a tie.
func Leader[T Counted](entries []T) (T, bool) {
	var best T
	if len(entries) == 0 {
		return best, false
	}
	return RankByVotes(entries)[0], true
}

func TotalVotes[T Counted](entries []T) int {
	total := 0
	for _, entry := range entries {
		total += entry.Votes()
	}
	return total
}

// Percentage rounds half away from zero; a zero total yields 0.
func Percentage(count int, total int) int {
	if total <= 0 || count <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(total)))
}

func BuildEventTally(
	slots []entities.Slot,
	activities []entities.Activity,
	slotCounts map[string]int,
	activityCounts map[string]int,
	mine entities.UserVotes,
) entities.EventTally {
	slotTally := TallySlots(slots, slotCounts, mine.SlotID)
	activityTally := TallyActivities(activities, activityCounts, mine.ActivityID)
	tally := entities.EventTally{
		Slots:              slotTally,
		Activities:         activityTally,
		TotalSlotVotes:     TotalVotes(slotTally),
		TotalActivityVotes: TotalVotes(activityTally),
		RankedSlotIDs:      make([]string, 0, len(slotTally)),
		RankedActivityIDs:  make([]string, 0, len(activityTally)),
	}
	for _, entry := range RankByVotes(slotTally) {
		tally.RankedSlotIDs = append(tally.RankedSlotIDs, entry.Slot.SlotID)
	}
	for _, entry := range RankByVotes(activityTally) {
		tally.RankedActivityIDs = append(tally.RankedActivityIDs, entry.Activity.ActivityID)
	}
	return tally
}
