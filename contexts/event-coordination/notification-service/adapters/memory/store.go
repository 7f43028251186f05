package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"meetfix/contexts/event-coordination/notification-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/notification-service/domain/errors"
	"meetfix/contexts/event-coordination/notification-service/ports"

	"github.com/google/uuid"
)

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

type Store struct {
	mu sync.Mutex

	notifications map[string]entities.Notification
	eventDedup    map[string]dedupRecord
}

func NewStore() *Store {
	return &Store{
		notifications: make(map[string]entities.Notification),
		eventDedup:    make(map[string]dedupRecord),
	}
}

func (s *Store) ReplaceEventReminders(_ context.Context, eventID string, items []entities.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if item.NotificationID == "" {
			return domainerrors.ErrInvalidRequest
		}
	}
	for id, existing := range s.notifications {
		if existing.EventID == eventID {
			delete(s.notifications, id)
		}
	}
	for _, item := range items {
		s.notifications[item.NotificationID] = item
	}
	return nil
}

func (s *Store) DeleteUnreadForEvent(_ context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, existing := range s.notifications {
		if existing.EventID == eventID && !existing.IsRead() {
			delete(s.notifications, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) ListDue(_ context.Context, userID string, now time.Time, limit int) ([]entities.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Notification, 0)
	for _, existing := range s.notifications {
		if existing.UserID == userID && existing.IsDue(now) {
			items = append(items, existing)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].ScheduledFor.Equal(items[j].ScheduledFor) {
			return items[i].ScheduledFor.After(items[j].ScheduledFor)
		}
		return items[i].NotificationID < items[j].NotificationID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkRead(_ context.Context, userID string, notificationID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.notifications[strings.TrimSpace(notificationID)]
	if !ok || existing.UserID != userID {
		return domainerrors.ErrNotificationNotFound
	}
	if existing.ReadAt == nil {
		readAt := at.UTC()
		existing.ReadAt = &readAt
		s.notifications[existing.NotificationID] = existing
	}
	return nil
}

func (s *Store) MarkAllRead(_ context.Context, userID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := 0
	readAt := at.UTC()
	for id, existing := range s.notifications {
		if existing.UserID != userID || existing.IsRead() || !existing.IsDue(at) {
			continue
		}
		existing.ReadAt = &readAt
		s.notifications[id] = existing
		updated++
	}
	return updated, nil
}

func (s *Store) CountUnread(_ context.Context, userID string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, existing := range s.notifications {
		if existing.UserID == userID && !existing.IsRead() && existing.IsDue(now) {
			count++
		}
	}
	return count, nil
}

// ListForEvent returns every stored reminder of an event, due or not.
func (s *Store) ListForEvent(eventID string) []entities.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Notification, 0)
	for _, existing := range s.notifications {
		if existing.EventID == eventID {
			items = append(items, existing)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].UserID != items[j].UserID {
			return items[i].UserID < items[j].UserID
		}
		return items[i].ScheduledFor.Before(items[j].ScheduledFor)
	})
	return items
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(eventID)
	if existing, ok := s.eventDedup[key]; ok && time.Now().UTC().Before(existing.expiresAt) {
		if existing.payloadHash != payloadHash {
			return false, domainerrors.ErrEventDedupeConflict
		}
		return true, nil
	}
	s.eventDedup[key] = dedupRecord{payloadHash: payloadHash, expiresAt: expiresAt.UTC()}
	return false, nil
}

func (s *Store) ReleaseEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.eventDedup, strings.TrimSpace(eventID))
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.Repository      = (*Store)(nil)
	_ ports.EventDedupStore = (*Store)(nil)
	_ ports.Clock           = (*Store)(nil)
	_ ports.IDGenerator     = (*Store)(nil)
)
