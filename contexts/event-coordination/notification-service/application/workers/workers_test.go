package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"meetfix/contexts/event-coordination/notification-service/adapters/memory"
	"meetfix/contexts/event-coordination/notification-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/notification-service/domain/errors"
	"meetfix/contexts/event-coordination/notification-service/ports"
	contractsv1 "meetfix/contracts/gen/events/v1"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type stubRecipients struct {
	members   []string
	timelines []ports.MemberTimeline
	claims    map[string][]string
}

func (s stubRecipients) ListMemberIDs(context.Context, string) ([]string, error) {
	return s.members, nil
}

func (s stubRecipients) ListTimelines(context.Context, string) ([]ports.MemberTimeline, error) {
	return s.timelines, nil
}

func (s stubRecipients) ClaimsForUser(_ context.Context, _ string, userID string) ([]string, error) {
	return s.claims[userID], nil
}

// flakyRecipients fails member lookups while *failures is positive.
type flakyRecipients struct {
	stubRecipients
	failures *int
}

func (s flakyRecipients) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	if *s.failures > 0 {
		*s.failures--
		return nil, errors.New("connection reset")
	}
	return s.stubRecipients.ListMemberIDs(ctx, groupID)
}

func lifecycleEnvelope(t *testing.T, envelopeID string, eventType string, payload contractsv1.LifecyclePayload) ports.EventEnvelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return ports.EventEnvelope{EventID: envelopeID, EventType: eventType, Data: data}
}

func TestPackUpConsumerSchedulesAndReplaces(t *testing.T) {
	now := time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)
	startsAt := now.Add(48 * time.Hour)
	travel := startsAt.Add(-45 * time.Minute)
	store := memory.NewStore()
	consumer := PackUpConsumer{
		Dedup:         store,
		Notifications: store,
		Recipients: stubRecipients{
			members:   []string{"ana", "ben"},
			timelines: []ports.MemberTimeline{{UserID: "ana", TravelTime: &travel}},
			claims:    map[string][]string{"ana": {"🍺 Beer"}},
		},
		Clock: fixedClock{now: now},
		IDGen: store,
	}

	payload := contractsv1.LifecyclePayload{EventID: "evt", GroupID: "grp", Name: "BBQ", FinalizedDate: &startsAt}
	if err := consumer.Handle(context.Background(), lifecycleEnvelope(t, "env-1", contractsv1.EventPackedUp, payload)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	scheduled := store.ListForEvent("evt")
	if len(scheduled) != 5 {
		t.Fatalf("expected 5 reminders (3 for ana, 2 for ben), got %d", len(scheduled))
	}
	for _, reminder := range scheduled {
		if reminder.NotificationID == "" {
			t.Fatalf("reminder without id: %+v", reminder)
		}
		if reminder.UserID == "ana" && reminder.Type == entities.ReminderTravelStart && reminder.Message != "Don't forget: 🍺 Beer" {
			t.Fatalf("unexpected travel message %q", reminder.Message)
		}
	}

	// Re-packing after a reschedule replaces the earlier set.
	later := startsAt.Add(24 * time.Hour)
	consumer.Recipients = stubRecipients{members: []string{"ana"}}
	payload.FinalizedDate = &later
	if err := consumer.Handle(context.Background(), lifecycleEnvelope(t, "env-2", contractsv1.EventPackedUp, payload)); err != nil {
		t.Fatalf("second handle failed: %v", err)
	}
	scheduled = store.ListForEvent("evt")
	if len(scheduled) != 2 || !scheduled[0].ScheduledFor.Equal(later.Add(-24*time.Hour)) {
		t.Fatalf("expected replaced reminders for the new date, got %+v", scheduled)
	}
}

func TestPackUpConsumerSkipsReplays(t *testing.T) {
	now := time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)
	startsAt := now.Add(48 * time.Hour)
	store := memory.NewStore()
	consumer := PackUpConsumer{
		Dedup:         store,
		Notifications: store,
		Recipients:    stubRecipients{members: []string{"ana"}},
		Clock:         fixedClock{now: now},
		IDGen:         store,
	}
	envelope := lifecycleEnvelope(t, "env-1", contractsv1.EventPackedUp, contractsv1.LifecyclePayload{EventID: "evt", Name: "BBQ", FinalizedDate: &startsAt})
	if err := consumer.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	first := store.ListForEvent("evt")
	if err := consumer.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	second := store.ListForEvent("evt")
	if len(first) != len(second) || first[0].NotificationID != second[0].NotificationID {
		t.Fatalf("replay should not reschedule reminders")
	}
}

func TestPackUpConsumerRetriesAfterFailedAttempt(t *testing.T) {
	now := time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)
	startsAt := now.Add(48 * time.Hour)
	failures := 1
	store := memory.NewStore()
	consumer := PackUpConsumer{
		Dedup:         store,
		Notifications: store,
		Recipients:    flakyRecipients{stubRecipients: stubRecipients{members: []string{"ana"}}, failures: &failures},
		Clock:         fixedClock{now: now},
		IDGen:         store,
	}
	envelope := lifecycleEnvelope(t, "env-1", contractsv1.EventPackedUp, contractsv1.LifecyclePayload{EventID: "evt", GroupID: "grp", Name: "BBQ", FinalizedDate: &startsAt})

	if err := consumer.Handle(context.Background(), envelope); err == nil {
		t.Fatalf("expected first attempt to fail")
	}
	if got := store.ListForEvent("evt"); len(got) != 0 {
		t.Fatalf("failed attempt should schedule nothing, got %d", len(got))
	}
	if err := consumer.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if got := store.ListForEvent("evt"); len(got) != 2 {
		t.Fatalf("expected 2 reminders after redelivery, got %d", len(got))
	}
}

func TestPackUpConsumerRequiresFinalizedDate(t *testing.T) {
	store := memory.NewStore()
	consumer := PackUpConsumer{Dedup: store, Notifications: store, Recipients: stubRecipients{}, IDGen: store}
	envelope := lifecycleEnvelope(t, "env-1", contractsv1.EventPackedUp, contractsv1.LifecyclePayload{EventID: "evt"})
	if err := consumer.Handle(context.Background(), envelope); !errors.Is(err, domainerrors.ErrEventNotFinalized) {
		t.Fatalf("expected missing date error, got %v", err)
	}
	// A payload that can never succeed stays reserved, so the redelivery is acked.
	if err := consumer.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("expected redelivery of a bad payload to be skipped, got %v", err)
	}
}

func TestCancellationConsumerKeepsReadReminders(t *testing.T) {
	now := time.Now().UTC()
	store := memory.NewStore()
	err := store.ReplaceEventReminders(context.Background(), "evt", []entities.Notification{
		{NotificationID: "n1", UserID: "ana", EventID: "evt", ScheduledFor: now.Add(-time.Hour)},
		{NotificationID: "n2", UserID: "ana", EventID: "evt", ScheduledFor: now.Add(time.Hour)},
		{NotificationID: "n3", UserID: "ben", EventID: "evt", ScheduledFor: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.MarkRead(context.Background(), "ana", "n1", now); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	consumer := CancellationConsumer{Dedup: store, Notifications: store}
	envelope := lifecycleEnvelope(t, "env-9", contractsv1.EventReopened, contractsv1.LifecyclePayload{EventID: "evt"})
	if err := consumer.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	remaining := store.ListForEvent("evt")
	if len(remaining) != 1 || remaining[0].NotificationID != "n1" {
		t.Fatalf("expected only the read reminder to survive, got %+v", remaining)
	}
}
