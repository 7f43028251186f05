package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	contractsv1 "meetfix/contracts/gen/events/v1"
)

func TestInProcessDeliversToEverySubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewInProcess(nil)

	first := make(chan string, 1)
	second := make(chan string, 1)
	if err := bus.Subscribe(ctx, contractsv1.EventPackedUp, "a", func(_ context.Context, event contractsv1.Envelope) error {
		first <- event.EventID
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := bus.Subscribe(ctx, contractsv1.EventPackedUp, "b", func(_ context.Context, event contractsv1.Envelope) error {
		second <- event.EventID
		return errors.New("handler errors are logged, not returned")
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if err := bus.Publish(ctx, contractsv1.EventPackedUp, contractsv1.Envelope{EventID: "env-1", EventType: contractsv1.EventPackedUp}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	for _, ch := range []chan string{first, second} {
		select {
		case got := <-ch:
			if got != "env-1" {
				t.Fatalf("expected env-1, got %s", got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for delivery")
		}
	}
}

func TestInProcessIgnoresOtherTopics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewInProcess(nil)

	got := make(chan string, 1)
	if err := bus.Subscribe(ctx, contractsv1.EventDeleted, "a", func(_ context.Context, event contractsv1.Envelope) error {
		got <- event.EventID
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := bus.Publish(ctx, contractsv1.EventCreated, contractsv1.Envelope{EventID: "env-1"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	select {
	case id := <-got:
		t.Fatalf("unexpected delivery of %s", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDurableName(t *testing.T) {
	got := DurableName("notification-service-cancel-cg", contractsv1.EventReopened)
	if got != "notification-service-cancel-cg-event_reopened" {
		t.Fatalf("unexpected durable name %q", got)
	}
}
