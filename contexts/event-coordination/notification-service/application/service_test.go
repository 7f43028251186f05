package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"meetfix/contexts/event-coordination/notification-service/adapters/memory"
	"meetfix/contexts/event-coordination/notification-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/notification-service/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func seededService(t *testing.T, now time.Time) (Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	items := make([]entities.Notification, 0, 26)
	for i := 0; i < 25; i++ {
		items = append(items, entities.Notification{
			NotificationID: fmt.Sprintf("past-%02d", i),
			UserID:         "ana",
			EventID:        "evt",
			ScheduledFor:   now.Add(-time.Duration(i+1) * time.Minute),
		})
	}
	items = append(items, entities.Notification{NotificationID: "future", UserID: "ana", EventID: "evt", ScheduledFor: now.Add(time.Hour)})
	if err := store.ReplaceEventReminders(context.Background(), "evt", items); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return Service{Repo: store, Clock: fixedClock{now: now}}, store
}

func TestListNotificationsDueNewestFirst(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	service, _ := seededService(t, now)

	items, err := service.ListNotifications(context.Background(), "ana", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != entities.DefaultListLimit {
		t.Fatalf("expected %d items, got %d", entities.DefaultListLimit, len(items))
	}
	if items[0].NotificationID != "past-00" || items[19].NotificationID != "past-19" {
		t.Fatalf("unexpected order: first=%s last=%s", items[0].NotificationID, items[19].NotificationID)
	}
	for _, item := range items {
		if item.NotificationID == "future" {
			t.Fatalf("future reminder should not be listed")
		}
	}
	if _, err := service.ListNotifications(context.Background(), "", 0); !errors.Is(err, domainerrors.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	service, _ := seededService(t, now)

	count, err := service.UnreadCount(context.Background(), "ana")
	if err != nil || count != 25 {
		t.Fatalf("expected 25 unread, got %d / %v", count, err)
	}
	if err := service.MarkRead(context.Background(), "ana", "past-00"); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if err := service.MarkRead(context.Background(), "ben", "past-01"); !errors.Is(err, domainerrors.ErrNotificationNotFound) {
		t.Fatalf("expected other users' reminders to be hidden, got %v", err)
	}
	if count, _ := service.UnreadCount(context.Background(), "ana"); count != 24 {
		t.Fatalf("expected 24 unread, got %d", count)
	}

	updated, err := service.MarkAllRead(context.Background(), "ana")
	if err != nil || updated != 24 {
		t.Fatalf("expected 24 updated, got %d / %v", updated, err)
	}
	if count, _ := service.UnreadCount(context.Background(), "ana"); count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}

	// The future reminder stays unread until it is due.
	later := Service{Repo: service.Repo, Clock: fixedClock{now: now.Add(2 * time.Hour)}}
	if count, _ := later.UnreadCount(context.Background(), "ana"); count != 1 {
		t.Fatalf("expected the future reminder unread once due, got %d", count)
	}
}
