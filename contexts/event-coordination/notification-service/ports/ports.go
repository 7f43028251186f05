package ports

import (
	"context"
	"time"

	"meetfix/contexts/event-coordination/notification-service/domain/entities"
	contractsv1 "meetfix/contracts/gen/events/v1"
)

type EventEnvelope = contractsv1.Envelope

type Repository interface {
	// ReplaceEventReminders deletes every notification of eventID and inserts
	// items in one transaction.
	ReplaceEventReminders(ctx context.Context, eventID string, items []entities.Notification) error
	DeleteUnreadForEvent(ctx context.Context, eventID string) (int, error)
	ListDue(ctx context.Context, userID string, now time.Time, limit int) ([]entities.Notification, error)
	MarkRead(ctx context.Context, userID string, notificationID string, at time.Time) error
	// MarkAllRead marks the user's unread reminders due at or before at.
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	CountUnread(ctx context.Context, userID string, now time.Time) (int, error)
}

type MemberTimeline struct {
	UserID      string
	DressUpTime *time.Time
	TravelTime  *time.Time
}

// RecipientDirectory gathers what reminders need from the group, event and
// bring list services.
type RecipientDirectory interface {
	ListMemberIDs(ctx context.Context, groupID string) ([]string, error)
	ListTimelines(ctx context.Context, eventID string) ([]MemberTimeline, error)
	ClaimsForUser(ctx context.Context, eventID string, userID string) ([]string, error)
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
	// ReleaseEvent drops a reservation so a redelivered envelope is handled again.
	ReleaseEvent(ctx context.Context, eventID string) error
}

type Metrics interface {
	RemindersScheduled(count int)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
