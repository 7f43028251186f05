package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"meetfix/contexts/event-coordination/notification-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/notification-service/domain/errors"
	"meetfix/contexts/event-coordination/notification-service/domain/services"
	"meetfix/contexts/event-coordination/notification-service/ports"
)

// Service is the inbox: users read the reminders the workers scheduled.
type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

// ListNotifications returns the user's due reminders, newest first.
func (s Service) ListNotifications(ctx context.Context, userID string, limit int) ([]entities.Notification, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	items, err := s.Repo.ListDue(ctx, userID, s.now(), services.ResolveLimit(limit))
	if err != nil {
		ResolveLogger(s.Logger).Error("list notifications failed",
			"event", "notification_list_failed",
			"module", "event-coordination/notification-service",
			"layer", "application",
			"user_id", userID,
			"error", err.Error(),
		)
		return nil, err
	}
	return items, nil
}

func (s Service) MarkRead(ctx context.Context, userID string, notificationID string) error {
	userID = strings.TrimSpace(userID)
	notificationID = strings.TrimSpace(notificationID)
	if userID == "" {
		return domainerrors.ErrUnauthenticated
	}
	if notificationID == "" {
		return domainerrors.ErrInvalidRequest
	}
	return s.Repo.MarkRead(ctx, userID, notificationID, s.now())
}

func (s Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, domainerrors.ErrUnauthenticated
	}
	updated, err := s.Repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	ResolveLogger(s.Logger).Info("notifications marked read",
		"event", "notification_mark_all_read",
		"module", "event-coordination/notification-service",
		"layer", "application",
		"user_id", userID,
		"updated", updated,
	)
	return updated, nil
}

// UnreadCount counts only reminders that are already due.
func (s Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, domainerrors.ErrUnauthenticated
	}
	return s.Repo.CountUnread(ctx, userID, s.now())
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
