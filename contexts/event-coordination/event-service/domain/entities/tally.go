package entities

type SlotTally struct {
	Slot       Slot
	VoteCount  int
	VotedByMe  bool
	Percentage int
}

func (t SlotTally) Votes() int { return t.VoteCount }

type ActivityTally struct {
	Activity   Activity
	VoteCount  int
	VotedByMe  bool
	Percentage int
}

func (t ActivityTally) Votes() int { return t.VoteCount }

type EventTally struct {
	Slots              []SlotTally
	Activities         []ActivityTally
	TotalSlotVotes     int
	TotalActivityVotes int
	// Ranked ids order options by votes descending, ties in display order.
	RankedSlotIDs     []string
	RankedActivityIDs []string
}
