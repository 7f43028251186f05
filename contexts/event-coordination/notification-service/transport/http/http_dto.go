package http

import "time"

type NotificationResponse struct {
	NotificationID string     `json:"notification_id"`
	EventID        string     `json:"event_id"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	ScheduledFor   time.Time  `json:"scheduled_for"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

type ListNotificationsResponse struct {
	Items       []NotificationResponse `json:"items"`
	UnreadCount int                    `json:"unread_count"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}
