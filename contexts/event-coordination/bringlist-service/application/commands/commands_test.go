package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"meetfix/contexts/event-coordination/bringlist-service/adapters/memory"
	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/bringlist-service/domain/errors"
)

type countingMetrics struct {
	mu      sync.Mutex
	results map[string]int
}

func (m *countingMetrics) ClaimRecorded(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.results == nil {
		m.results = make(map[string]int)
	}
	m.results[result]++
}

type fixture struct {
	store   *memory.Store
	items   ItemUseCase
	claims  ClaimUseCase
	metrics *countingMetrics
}

func newFixture(members ...string) fixture {
	store := memory.NewStore()
	store.SetEvent("evt", "grp")
	for _, member := range members {
		store.SetGroupMember("grp", member)
	}
	metrics := &countingMetrics{}
	return fixture{
		store:   store,
		items:   ItemUseCase{Items: store, Events: store, Clock: store, IDGen: store},
		claims:  ClaimUseCase{Items: store, Claims: store, Events: store, Clock: store, IDGen: store, Metrics: metrics},
		metrics: metrics,
	}
}

func intPtr(value int) *int {
	return &value
}

func (f fixture) addItem(t *testing.T, name string, maxQuantity *int) entities.BringItem {
	t.Helper()
	item, err := f.items.AddItem(context.Background(), AddItemCommand{
		UserID:      "ana",
		EventID:     "evt",
		Name:        name,
		MaxQuantity: maxQuantity,
	})
	if err != nil {
		t.Fatalf("add item %q: %v", name, err)
	}
	return item
}

func TestAddItemDefaults(t *testing.T) {
	f := newFixture("ana")
	item := f.addItem(t, "  Pizza ", nil)
	if item.Name != "Pizza" || item.Emoji != "🍕" || item.MaxQuantity != entities.DefaultMaxQuantity || item.CreatedBy != "ana" {
		t.Fatalf("unexpected item: %+v", item)
	}

	explicit, err := f.items.AddItem(context.Background(), AddItemCommand{UserID: "ana", EventID: "evt", Name: "Mystery", Emoji: "🎲"})
	if err != nil || explicit.Emoji != "🎲" {
		t.Fatalf("expected explicit emoji kept, got %+v / %v", explicit, err)
	}
}

func TestAddItemRejections(t *testing.T) {
	f := newFixture("ana")
	tests := []struct {
		name    string
		cmd     AddItemCommand
		wantErr error
	}{
		{name: "anonymous", cmd: AddItemCommand{EventID: "evt", Name: "Beer"}, wantErr: domainerrors.ErrUnauthenticated},
		{name: "blank name", cmd: AddItemCommand{UserID: "ana", EventID: "evt", Name: " "}, wantErr: domainerrors.ErrInvalidItemRequest},
		{name: "zero quantity", cmd: AddItemCommand{UserID: "ana", EventID: "evt", Name: "Beer", MaxQuantity: intPtr(0)}, wantErr: domainerrors.ErrInvalidItemRequest},
		{name: "quantity too large", cmd: AddItemCommand{UserID: "ana", EventID: "evt", Name: "Beer", MaxQuantity: intPtr(51)}, wantErr: domainerrors.ErrInvalidItemRequest},
		{name: "unknown event", cmd: AddItemCommand{UserID: "ana", EventID: "nope", Name: "Beer"}, wantErr: domainerrors.ErrEventNotFound},
		{name: "outsider", cmd: AddItemCommand{UserID: "eve", EventID: "evt", Name: "Beer"}, wantErr: domainerrors.ErrNotGroupMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.items.AddItem(context.Background(), tt.cmd); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClaimItemIsIdempotentAndCapped(t *testing.T) {
	f := newFixture("ana", "ben", "cy")
	item := f.addItem(t, "Chips", intPtr(2))

	first, err := f.claims.ClaimItem(context.Background(), "ana", item.ItemID)
	if err != nil || first.Replayed {
		t.Fatalf("first claim failed: %+v / %v", first, err)
	}
	again, err := f.claims.ClaimItem(context.Background(), "ana", item.ItemID)
	if err != nil || !again.Replayed || again.Claim.ClaimID != first.Claim.ClaimID {
		t.Fatalf("expected replay of the first claim, got %+v / %v", again, err)
	}
	if _, err := f.claims.ClaimItem(context.Background(), "ben", item.ItemID); err != nil {
		t.Fatalf("second claimer failed: %v", err)
	}
	if _, err := f.claims.ClaimItem(context.Background(), "cy", item.ItemID); !errors.Is(err, domainerrors.ErrClaimLimitReached) {
		t.Fatalf("expected claim limit, got %v", err)
	}

	// Releasing a unit makes room for the next member.
	if err := f.claims.UnclaimItem(context.Background(), "ben", item.ItemID); err != nil {
		t.Fatalf("unclaim failed: %v", err)
	}
	if err := f.claims.UnclaimItem(context.Background(), "ben", item.ItemID); err != nil {
		t.Fatalf("repeat unclaim should be a no-op, got %v", err)
	}
	if _, err := f.claims.ClaimItem(context.Background(), "cy", item.ItemID); err != nil {
		t.Fatalf("claim after release failed: %v", err)
	}

	if f.metrics.results["claimed"] != 3 || f.metrics.results["replayed"] != 1 || f.metrics.results["limit_reached"] != 1 || f.metrics.results["released"] != 1 {
		t.Fatalf("unexpected metrics: %v", f.metrics.results)
	}
}

func TestClaimItemRejectsOutsiders(t *testing.T) {
	f := newFixture("ana")
	item := f.addItem(t, "Beer", nil)
	if _, err := f.claims.ClaimItem(context.Background(), "eve", item.ItemID); !errors.Is(err, domainerrors.ErrNotGroupMember) {
		t.Fatalf("expected membership error, got %v", err)
	}
	if _, err := f.claims.ClaimItem(context.Background(), "ana", "missing"); !errors.Is(err, domainerrors.ErrItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}
	if _, err := f.claims.ClaimItem(context.Background(), "", item.ItemID); !errors.Is(err, domainerrors.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestConcurrentClaimsNeverExceedMaxQuantity(t *testing.T) {
	members := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		members = append(members, fmt.Sprintf("user-%02d", i))
	}
	f := newFixture(append(members, "ana")...)
	item := f.addItem(t, "Ice", intPtr(5))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for _, member := range members {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := f.claims.ClaimItem(context.Background(), userID, item.ItemID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, domainerrors.ErrClaimLimitReached):
				rejected++
			default:
				t.Errorf("unexpected error for %s: %v", userID, err)
			}
		}(member)
	}
	wg.Wait()

	if accepted != 5 || rejected != 15 {
		t.Fatalf("expected 5 accepted and 15 rejected, got %d / %d", accepted, rejected)
	}
	claims, _ := f.store.ListClaims(context.Background(), "evt")
	if len(claims) != 5 {
		t.Fatalf("expected 5 stored claims, got %d", len(claims))
	}
}

func TestDeleteItemCreatorOnly(t *testing.T) {
	f := newFixture("ana", "ben")
	item := f.addItem(t, "Cake", nil)
	if _, err := f.claims.ClaimItem(context.Background(), "ben", item.ItemID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	if err := f.items.DeleteItem(context.Background(), "ben", item.ItemID); !errors.Is(err, domainerrors.ErrNotItemCreator) {
		t.Fatalf("expected creator check, got %v", err)
	}
	if err := f.items.DeleteItem(context.Background(), "ana", item.ItemID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := f.store.GetItem(context.Background(), item.ItemID); !errors.Is(err, domainerrors.ErrItemNotFound) {
		t.Fatalf("expected item gone, got %v", err)
	}
	claims, _ := f.store.ListClaims(context.Background(), "evt")
	if len(claims) != 0 {
		t.Fatalf("expected claims removed with the item, got %d", len(claims))
	}
}
