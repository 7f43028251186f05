package bootstrap

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sethvargo/go-envconfig"

	eventcommands "meetfix/contexts/event-coordination/event-service/application/commands"
	groupapp "meetfix/contexts/event-coordination/group-service/application"
	"meetfix/internal/platform/config"
)

func memoryConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	cfg, err := config.Process(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("process config: %v", err)
	}
	return cfg
}

func TestBuildWorkerRequiresPostgres(t *testing.T) {
	cfg := memoryConfig(t, map[string]string{})
	if _, err := BuildWorker(context.Background(), cfg, slog.Default()); err == nil {
		t.Fatalf("expected error without POSTGRES_DSN")
	}
}

func TestConsumerTogglesDisableWorkers(t *testing.T) {
	cfg := memoryConfig(t, map[string]string{
		"ENABLE_REMINDER_CONSUMERS":         "false",
		"ENABLE_BRINGLIST_CLEANUP_CONSUMER": "false",
	})
	runtime, err := Build(context.Background(), cfg, slog.Default(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer runtime.Close()

	if !runtime.Services.Notifications.PackUpConsumer.Disabled || !runtime.Services.Notifications.CancellationConsumer.Disabled {
		t.Fatalf("expected reminder consumers disabled")
	}
	if !runtime.Services.Bringlist.EventCleanupConsumer.Disabled {
		t.Fatalf("expected cleanup consumer disabled")
	}
	if runtime.Services.Groups.EventActivityConsumer.Disabled {
		t.Fatalf("expected group activity consumer enabled")
	}
	if err := runtime.Ready(context.Background()); err != nil {
		t.Fatalf("memory runtime should be ready: %v", err)
	}
}

func TestPackedUpEventSchedulesRemindersThroughBus(t *testing.T) {
	cfg := memoryConfig(t, map[string]string{"WORKER_POLL_INTERVAL": "20ms"})
	runtime, err := Build(context.Background(), cfg, slog.Default(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer runtime.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	services := runtime.Services

	group, err := services.Groups.Service.CreateGroup(ctx, "group-key", "owner", groupapp.CreateGroupInput{Name: "Crew"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := services.Groups.Service.JoinGroup(ctx, "ana", group.Group.InviteCode); err != nil {
		t.Fatalf("join group: %v", err)
	}
	created, err := services.Events.Handler.Events.CreateEvent(ctx, eventcommands.CreateEventCommand{
		UserID:         "owner",
		IdempotencyKey: "event-key",
		GroupID:        group.Group.GroupID,
		Name:           "Picnic",
		Slots:          []eventcommands.SlotInput{{Date: "2030-07-04", Time: "12:00"}},
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	eventID := created.Event.EventID
	if _, err := services.Events.Handler.Lifecycle.Finalize(ctx, eventcommands.FinalizeCommand{
		UserID:  "owner",
		EventID: eventID,
		SlotID:  created.Slots[0].SlotID,
	}); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := services.Events.Handler.Lifecycle.PackUp(ctx, "owner", eventID); err != nil {
		t.Fatalf("pack up: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- runtime.RunWorkers(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for {
		// Day-before and four-hour reminders for both members.
		if got := len(services.Notifications.Store.ListForEvent(eventID)); got == 4 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 4 reminders, got %d", len(services.Notifications.Store.ListForEvent(eventID)))
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("worker loop returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("worker loop did not stop")
	}
}
