package http

import "time"

type AddItemRequest struct {
	Name        string `json:"name" validate:"required,max=80"`
	Emoji       string `json:"emoji,omitempty" validate:"omitempty,max=16"`
	MaxQuantity *int   `json:"max_quantity,omitempty" validate:"omitempty,min=1,max=50"`
}

type ItemResponse struct {
	ItemID      string    `json:"item_id"`
	EventID     string    `json:"event_id"`
	Name        string    `json:"name"`
	Emoji       string    `json:"emoji"`
	MaxQuantity int       `json:"max_quantity"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type ItemViewResponse struct {
	ItemResponse
	ClaimCount  int      `json:"claim_count"`
	ClaimedByMe bool     `json:"claimed_by_me"`
	ClaimerIDs  []string `json:"claimer_ids"`
	Remaining   int      `json:"remaining"`
}

type ListItemsResponse struct {
	Items []ItemViewResponse `json:"items"`
}

type ClaimResponse struct {
	ClaimID   string    `json:"claim_id"`
	ItemID    string    `json:"item_id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	ClaimedAt time.Time `json:"claimed_at"`
	Replayed  bool      `json:"replayed"`
}

type EmojiSuggestionResponse struct {
	Keyword string `json:"keyword"`
	Emoji   string `json:"emoji"`
}

type SuggestEmojiResponse struct {
	Items []EmojiSuggestionResponse `json:"items"`
}
