package entities

import "time"

const (
	DefaultMaxQuantity = 6
	MinMaxQuantity     = 1
	MaxMaxQuantity     = 50
	MaxItemNameLength  = 80
	FallbackEmoji      = "📦"
)

// BringItem is one thing somebody should bring to an event. MaxQuantity caps
// how many members can claim it.
type BringItem struct {
	ItemID      string
	EventID     string
	Name        string
	Emoji       string
	MaxQuantity int
	CreatedBy   string
	CreatedAt   time.Time
}

func (i BringItem) EffectiveMaxQuantity() int {
	if i.MaxQuantity <= 0 {
		return DefaultMaxQuantity
	}
	return i.MaxQuantity
}

func (i BringItem) IsCreatedBy(userID string) bool {
	return i.CreatedBy != "" && i.CreatedBy == userID
}

// Label is the short form used in reminders, e.g. "🍺 Beer".
func (i BringItem) Label() string {
	emoji := i.Emoji
	if emoji == "" {
		emoji = FallbackEmoji
	}
	return emoji + " " + i.Name
}

// ItemClaim records that UserID brings one unit of ItemID. A user holds at
// most one claim per item.
type ItemClaim struct {
	ClaimID   string
	ItemID    string
	EventID   string
	UserID    string
	ClaimedAt time.Time
}

type ItemView struct {
	Item        BringItem
	ClaimCount  int
	ClaimedByMe bool
	ClaimerIDs  []string
	Remaining   int
}

type EmojiSuggestion struct {
	Keyword string
	Emoji   string
}
