package services

import (
	"sort"
	"strings"
	"unicode/utf8"

	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/bringlist-service/domain/errors"
)

// EvaluateClaim decides whether userID may claim item given the claims that
// already exist for it. A non-nil claim means the user already holds one and
// the call should be treated as a replay.
func EvaluateClaim(item entities.BringItem, claims []entities.ItemClaim, userID string) (*entities.ItemClaim, error) {
	held := 0
	for _, claim := range claims {
		if claim.ItemID != item.ItemID {
			continue
		}
		if claim.UserID == userID {
			existing := claim
			return &existing, nil
		}
		held++
	}
	if held >= item.EffectiveMaxQuantity() {
		return nil, domainerrors.ErrClaimLimitReached
	}
	return nil, nil
}

func ResolveMaxQuantity(requested *int) (int, error) {
	if requested == nil {
		return entities.DefaultMaxQuantity, nil
	}
	if *requested < entities.MinMaxQuantity || *requested > entities.MaxMaxQuantity {
		return 0, domainerrors.ErrInvalidItemRequest
	}
	return *requested, nil
}

func NormalizeItemName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > entities.MaxItemNameLength {
		return "", domainerrors.ErrInvalidItemRequest
	}
	return name, nil
}

// ResolveEmoji keeps an explicit emoji, otherwise guesses one from the item
// name: the whole name first, then each word.
func ResolveEmoji(name string, emoji string) string {
	if emoji = strings.TrimSpace(emoji); emoji != "" {
		return emoji
	}
	if hits := SuggestEmoji(name, 1); len(hits) > 0 {
		return hits[0].Emoji
	}
	for _, word := range strings.Fields(name) {
		if hits := SuggestEmoji(word, 1); len(hits) > 0 {
			return hits[0].Emoji
		}
	}
	return entities.FallbackEmoji
}

// BuildItemViews joins items with their claims from the point of view of
// userID. Items keep creation order.
func BuildItemViews(items []entities.BringItem, claims []entities.ItemClaim, userID string) []entities.ItemView {
	claimsByItem := make(map[string][]entities.ItemClaim, len(items))
	for _, claim := range claims {
		claimsByItem[claim.ItemID] = append(claimsByItem[claim.ItemID], claim)
	}
	ordered := append([]entities.BringItem(nil), items...)
	SortItems(ordered)

	views := make([]entities.ItemView, 0, len(ordered))
	for _, item := range ordered {
		itemClaims := claimsByItem[item.ItemID]
		sort.Slice(itemClaims, func(i, j int) bool {
			if !itemClaims[i].ClaimedAt.Equal(itemClaims[j].ClaimedAt) {
				return itemClaims[i].ClaimedAt.Before(itemClaims[j].ClaimedAt)
			}
			return itemClaims[i].UserID < itemClaims[j].UserID
		})
		view := entities.ItemView{
			Item:       item,
			ClaimCount: len(itemClaims),
			ClaimerIDs: make([]string, 0, len(itemClaims)),
		}
		for _, claim := range itemClaims {
			view.ClaimerIDs = append(view.ClaimerIDs, claim.UserID)
			if claim.UserID == userID {
				view.ClaimedByMe = true
			}
		}
		view.Remaining = item.EffectiveMaxQuantity() - view.ClaimCount
		if view.Remaining < 0 {
			view.Remaining = 0
		}
		views = append(views, view)
	}
	return views
}

func SortItems(items []entities.BringItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ItemID < items[j].ItemID
	})
}
