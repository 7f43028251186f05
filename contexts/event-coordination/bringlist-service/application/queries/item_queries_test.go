package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"meetfix/contexts/event-coordination/bringlist-service/adapters/memory"
	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/bringlist-service/domain/errors"
	"meetfix/contexts/event-coordination/bringlist-service/ports"
)

func seed(t *testing.T) (*memory.Store, ItemQueries) {
	t.Helper()
	store := memory.NewStore()
	store.SetEvent("evt", "grp")
	store.SetGroupMember("grp", "ana")
	store.SetGroupMember("grp", "ben")

	base := time.Date(2030, 2, 1, 10, 0, 0, 0, time.UTC)
	items := []entities.BringItem{
		{ItemID: "beer", EventID: "evt", Name: "Beer", Emoji: "🍺", MaxQuantity: 3, CreatedBy: "ana", CreatedAt: base},
		{ItemID: "chips", EventID: "evt", Name: "Chips", Emoji: "🍟", MaxQuantity: 1, CreatedBy: "ben", CreatedAt: base.Add(time.Minute)},
		{ItemID: "other", EventID: "evt-2", Name: "Tent", Emoji: "⛺", MaxQuantity: 1, CreatedBy: "ana", CreatedAt: base},
	}
	for _, item := range items {
		if err := store.CreateItem(context.Background(), item); err != nil {
			t.Fatalf("seed item: %v", err)
		}
	}
	allow := func(item entities.BringItem, claims []entities.ItemClaim) (*entities.ItemClaim, error) {
		return nil, nil
	}
	claims := []entities.ItemClaim{
		{ClaimID: "c1", ItemID: "beer", EventID: "evt", UserID: "ana", ClaimedAt: base},
		{ClaimID: "c2", ItemID: "chips", EventID: "evt", UserID: "ana", ClaimedAt: base},
		{ClaimID: "c3", ItemID: "beer", EventID: "evt", UserID: "ben", ClaimedAt: base.Add(time.Second)},
	}
	for _, claim := range claims {
		if _, _, err := store.ClaimItem(context.Background(), claim, ports.ClaimPolicy(allow)); err != nil {
			t.Fatalf("seed claim: %v", err)
		}
	}
	return store, ItemQueries{Items: store, Claims: store, Events: store}
}

func TestListItems(t *testing.T) {
	_, q := seed(t)
	views, err := q.ListItems(context.Background(), "ben", "evt")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(views) != 2 || views[0].Item.ItemID != "beer" || views[1].Item.ItemID != "chips" {
		t.Fatalf("unexpected items: %+v", views)
	}
	if !views[0].ClaimedByMe || views[0].ClaimCount != 2 || views[0].Remaining != 1 {
		t.Fatalf("unexpected beer view: %+v", views[0])
	}
	if views[1].ClaimedByMe || views[1].Remaining != 0 {
		t.Fatalf("unexpected chips view: %+v", views[1])
	}

	if _, err := q.ListItems(context.Background(), "eve", "evt"); !errors.Is(err, domainerrors.ErrNotGroupMember) {
		t.Fatalf("expected membership error, got %v", err)
	}
	if _, err := q.ListItems(context.Background(), "ana", "missing"); !errors.Is(err, domainerrors.ErrEventNotFound) {
		t.Fatalf("expected event not found, got %v", err)
	}
}

func TestClaimsForUser(t *testing.T) {
	_, q := seed(t)
	labels, err := q.ClaimsForUser(context.Background(), "evt", "ana")
	if err != nil {
		t.Fatalf("claims lookup failed: %v", err)
	}
	if len(labels) != 2 || labels[0] != "🍺 Beer" || labels[1] != "🍟 Chips" {
		t.Fatalf("unexpected labels: %v", labels)
	}
	labels, _ = q.ClaimsForUser(context.Background(), "evt", "cy")
	if len(labels) != 0 {
		t.Fatalf("expected no labels, got %v", labels)
	}
}
