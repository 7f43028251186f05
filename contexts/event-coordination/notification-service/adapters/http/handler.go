package httpadapter

import (
	"context"
	"log/slog"

	"meetfix/contexts/event-coordination/notification-service/application"
	"meetfix/contexts/event-coordination/notification-service/domain/entities"
	httptransport "meetfix/contexts/event-coordination/notification-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) ListNotificationsHandler(ctx context.Context, userID string, limit int) (httptransport.ListNotificationsResponse, error) {
	items, err := h.Service.ListNotifications(ctx, userID, limit)
	if err != nil {
		return httptransport.ListNotificationsResponse{}, err
	}
	unread, err := h.Service.UnreadCount(ctx, userID)
	if err != nil {
		return httptransport.ListNotificationsResponse{}, err
	}
	response := httptransport.ListNotificationsResponse{
		Items:       make([]httptransport.NotificationResponse, 0, len(items)),
		UnreadCount: unread,
	}
	for _, item := range items {
		response.Items = append(response.Items, mapNotification(item))
	}
	return response, nil
}

func (h Handler) MarkReadHandler(ctx context.Context, userID string, notificationID string) error {
	return h.Service.MarkRead(ctx, userID, notificationID)
}

func (h Handler) MarkAllReadHandler(ctx context.Context, userID string) (httptransport.MarkAllReadResponse, error) {
	updated, err := h.Service.MarkAllRead(ctx, userID)
	if err != nil {
		return httptransport.MarkAllReadResponse{}, err
	}
	return httptransport.MarkAllReadResponse{Updated: updated}, nil
}

func (h Handler) UnreadCountHandler(ctx context.Context, userID string) (httptransport.UnreadCountResponse, error) {
	count, err := h.Service.UnreadCount(ctx, userID)
	if err != nil {
		return httptransport.UnreadCountResponse{}, err
	}
	return httptransport.UnreadCountResponse{UnreadCount: count}, nil
}

func mapNotification(item entities.Notification) httptransport.NotificationResponse {
	return httptransport.NotificationResponse{
		NotificationID: item.NotificationID,
		EventID:        item.EventID,
		Type:           string(item.Type),
		Title:          item.Title,
		Message:        item.Message,
		ScheduledFor:   item.ScheduledFor,
		Read:           item.IsRead(),
		ReadAt:         item.ReadAt,
	}
}
