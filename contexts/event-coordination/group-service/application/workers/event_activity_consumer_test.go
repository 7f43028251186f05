package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"meetfix/contexts/event-coordination/group-service/adapters/memory"
	"meetfix/contexts/event-coordination/group-service/domain/entities"
	"meetfix/contexts/event-coordination/group-service/ports"
	contractsv1 "meetfix/contracts/gen/events/v1"
)

func createdEnvelope(t *testing.T, envelopeID string, groupID string, at time.Time) ports.EventEnvelope {
	t.Helper()
	data, err := json.Marshal(contractsv1.LifecyclePayload{EventID: "evt-" + envelopeID, GroupID: groupID, Status: "open"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return ports.EventEnvelope{
		EventID:    envelopeID,
		EventType:  contractsv1.EventCreated,
		OccurredAt: at,
		Data:       data,
	}
}

func TestEventActivityConsumerBumpsLastEventAt(t *testing.T) {
	store := memory.NewStore()
	now := time.Now().UTC()
	group := entities.Group{GroupID: "grp", Name: "Crew", OwnerID: "owner", InviteCode: "ABCDEF", MaxMembers: 10, CreatedAt: now}
	if err := store.CreateGroup(context.Background(), group, entities.Member{GroupID: "grp", UserID: "owner", Role: entities.RoleOwner}); err != nil {
		t.Fatalf("seed group: %v", err)
	}
	consumer := EventActivityConsumer{Dedup: store, Groups: store, Clock: store}

	later := now.Add(time.Hour)
	if err := consumer.Handle(context.Background(), createdEnvelope(t, "env-1", "grp", later)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	stored, _ := store.GetGroup(context.Background(), "grp")
	if stored.LastEventAt == nil || !stored.LastEventAt.Equal(later) {
		t.Fatalf("expected last_event_at %s, got %v", later, stored.LastEventAt)
	}

	// An older event delivered late must not move the timestamp back.
	if err := consumer.Handle(context.Background(), createdEnvelope(t, "env-0", "grp", now)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	stored, _ = store.GetGroup(context.Background(), "grp")
	if !stored.LastEventAt.Equal(later) {
		t.Fatalf("expected last_event_at to stay %s, got %v", later, stored.LastEventAt)
	}

	// Redelivery of the same envelope is a no-op.
	if err := consumer.Handle(context.Background(), createdEnvelope(t, "env-1", "grp", later)); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
}

type flakyGroups struct {
	ports.Repository
	failures int
}

func (g *flakyGroups) TouchLastEventAt(ctx context.Context, groupID string, at time.Time) error {
	if g.failures > 0 {
		g.failures--
		return errors.New("deadlock detected")
	}
	return g.Repository.TouchLastEventAt(ctx, groupID, at)
}

func TestEventActivityConsumerRetriesAfterFailedTouch(t *testing.T) {
	store := memory.NewStore()
	now := time.Now().UTC()
	group := entities.Group{GroupID: "grp", Name: "Crew", OwnerID: "owner", InviteCode: "ABCDEF", MaxMembers: 10, CreatedAt: now}
	if err := store.CreateGroup(context.Background(), group, entities.Member{GroupID: "grp", UserID: "owner", Role: entities.RoleOwner}); err != nil {
		t.Fatalf("seed group: %v", err)
	}
	consumer := EventActivityConsumer{Dedup: store, Groups: &flakyGroups{Repository: store, failures: 1}, Clock: store}

	later := now.Add(time.Hour)
	envelope := createdEnvelope(t, "env-1", "grp", later)
	if err := consumer.Handle(context.Background(), envelope); err == nil {
		t.Fatalf("expected first attempt to fail")
	}
	if err := consumer.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	stored, _ := store.GetGroup(context.Background(), "grp")
	if stored.LastEventAt == nil || !stored.LastEventAt.Equal(later) {
		t.Fatalf("expected redelivery to set last_event_at %s, got %v", later, stored.LastEventAt)
	}
}

func TestEventActivityConsumerDisabledSkipsSubscribe(t *testing.T) {
	consumer := EventActivityConsumer{Disabled: true}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("expected disabled consumer to start cleanly, got %v", err)
	}
}
