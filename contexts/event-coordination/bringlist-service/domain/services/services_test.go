package services

import (
	"errors"
	"testing"
	"time"

	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/bringlist-service/domain/errors"
)

func TestSuggestEmoji(t *testing.T) {
	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{name: "prefix before substring", query: "be", limit: 5, want: []string{"🍺", "🍓"}},
		{name: "case and spacing ignored", query: " BEER ", limit: 5, want: []string{"🍺"}},
		{name: "limit applied", query: "ch", limit: 5, want: []string{"🍟", "🍗", "🧀", "🍫", "🍒"}},
		{name: "duplicate emojis collapsed", query: "ice", limit: 5, want: []string{"🧊", "🍦", "🧃"}},
		{name: "substring only", query: "cream", limit: 5, want: []string{"🍦"}},
		{name: "default limit", query: "s", limit: 0, want: []string{"🍺", "🥤", "🍣", "🥪", "🥗"}},
		{name: "no match", query: "zzz", limit: 5, want: nil},
		{name: "blank", query: "   ", limit: 5, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestEmoji(tt.query, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d suggestions, got %+v", len(tt.want), got)
			}
			for i := range tt.want {
				if got[i].Emoji != tt.want[i] {
					t.Fatalf("position %d: expected %s, got %s (%s)", i, tt.want[i], got[i].Emoji, got[i].Keyword)
				}
			}
		})
	}
}

func TestResolveEmoji(t *testing.T) {
	tests := []struct {
		name  string
		item  string
		emoji string
		want  string
	}{
		{name: "explicit wins", item: "Beer", emoji: " 🍻 ", want: "🍻"},
		{name: "whole name", item: "Pizza", want: "🍕"},
		{name: "word match", item: "Cold beer", want: "🍺"},
		{name: "fallback", item: "Xylophone", want: entities.FallbackEmoji},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveEmoji(tt.item, tt.emoji); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestEvaluateClaim(t *testing.T) {
	item := entities.BringItem{ItemID: "item-1", MaxQuantity: 2}
	claims := []entities.ItemClaim{
		{ClaimID: "c1", ItemID: "item-1", UserID: "ana"},
		{ClaimID: "c2", ItemID: "item-1", UserID: "ben"},
		{ClaimID: "c3", ItemID: "item-2", UserID: "cy"},
	}

	existing, err := EvaluateClaim(item, claims, "ana")
	if err != nil || existing == nil || existing.ClaimID != "c1" {
		t.Fatalf("expected existing claim replay, got %+v / %v", existing, err)
	}
	if _, err := EvaluateClaim(item, claims, "cy"); !errors.Is(err, domainerrors.ErrClaimLimitReached) {
		t.Fatalf("expected claim limit, got %v", err)
	}
	existing, err = EvaluateClaim(entities.BringItem{ItemID: "item-2", MaxQuantity: 2}, claims, "ana")
	if err != nil || existing != nil {
		t.Fatalf("expected fresh claim allowed, got %+v / %v", existing, err)
	}
}

func TestResolveMaxQuantity(t *testing.T) {
	if got, err := ResolveMaxQuantity(nil); err != nil || got != entities.DefaultMaxQuantity {
		t.Fatalf("expected default, got %d / %v", got, err)
	}
	for _, value := range []int{0, 51, -1} {
		value := value
		if _, err := ResolveMaxQuantity(&value); !errors.Is(err, domainerrors.ErrInvalidItemRequest) {
			t.Fatalf("expected %d rejected, got %v", value, err)
		}
	}
	one := 1
	if got, _ := ResolveMaxQuantity(&one); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestBuildItemViews(t *testing.T) {
	base := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	items := []entities.BringItem{
		{ItemID: "chips", Name: "Chips", MaxQuantity: 1, CreatedAt: base.Add(time.Minute)},
		{ItemID: "beer", Name: "Beer", MaxQuantity: 3, CreatedAt: base},
	}
	claims := []entities.ItemClaim{
		{ItemID: "beer", UserID: "ben", ClaimedAt: base.Add(2 * time.Minute)},
		{ItemID: "beer", UserID: "ana", ClaimedAt: base.Add(time.Minute)},
		{ItemID: "chips", UserID: "ben", ClaimedAt: base},
	}

	views := BuildItemViews(items, claims, "ana")
	if len(views) != 2 || views[0].Item.ItemID != "beer" {
		t.Fatalf("expected beer first, got %+v", views)
	}
	beer := views[0]
	if beer.ClaimCount != 2 || !beer.ClaimedByMe || beer.Remaining != 1 {
		t.Fatalf("unexpected beer view: %+v", beer)
	}
	if beer.ClaimerIDs[0] != "ana" || beer.ClaimerIDs[1] != "ben" {
		t.Fatalf("expected claimers in claim order, got %v", beer.ClaimerIDs)
	}
	if chips := views[1]; chips.ClaimedByMe || chips.Remaining != 0 {
		t.Fatalf("unexpected chips view: %+v", chips)
	}
}
