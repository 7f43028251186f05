package entities

import "time"

type VoteCategory string

const (
	VoteCategorySlot     VoteCategory = "slot"
	VoteCategoryActivity VoteCategory = "activity"
)

func (c VoteCategory) Valid() bool {
	return c == VoteCategorySlot || c == VoteCategoryActivity
}

// Vote is one ledger row. OptionID references a slot or an activity depending
// on Category; at most one row exists per (EventID, UserID, Category).
type Vote struct {
	VoteID    string
	EventID   string
	Category  VoteCategory
	OptionID  string
	UserID    string
	CreatedAt time.Time
}

// UserVotes is the caller's current ledger position in one event.
type UserVotes struct {
	SlotID     string
	ActivityID string
}

func (v UserVotes) HasAny() bool {
	return v.SlotID != "" || v.ActivityID != ""
}

func (v UserVotes) OptionFor(category VoteCategory) string {
	if category == VoteCategoryActivity {
		return v.ActivityID
	}
	return v.SlotID
}
