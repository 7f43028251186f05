package ports

import (
	"context"
	"time"

	"meetfix/contexts/event-coordination/event-service/domain/entities"
	contractsv1 "meetfix/contracts/gen/events/v1"
	"meetfix/internal/shared/outbox"
)

type EventEnvelope = contractsv1.Envelope

type OutboxMessage = outbox.Message

// EventChange is what a lifecycle mutation wants persisted: the new event
// row (or its deletion) plus the outbox records written in the same
// transaction.
type EventChange struct {
	Event  entities.Event
	Delete bool
	Outbox []EventEnvelope
}

// EventMutation runs while the event row is locked. Returning an error aborts
// the transaction with no write.
type EventMutation func(snapshot entities.EventSnapshot) (EventChange, error)

type EventRepository interface {
	// CreateEvent claims record.Key in the same transaction as the event
	// rows. A live record under that key fails with ErrIdempotencyKeyInUse.
	CreateEvent(
		ctx context.Context,
		event entities.Event,
		slots []entities.Slot,
		activities []entities.Activity,
		outbox []EventEnvelope,
		record IdempotencyRecord,
	) error
	GetEvent(ctx context.Context, eventID string) (entities.Event, error)
	ListSlots(ctx context.Context, eventID string) ([]entities.Slot, error)
	ListActivities(ctx context.Context, eventID string) ([]entities.Activity, error)
	ListEventsByGroup(ctx context.Context, groupID string) ([]entities.Event, error)
	ListFinalizedEvents(ctx context.Context, groupIDs []string) ([]entities.Event, error)
	MutateEvent(ctx context.Context, eventID string, mutate EventMutation) (entities.Event, error)
	AddSlot(ctx context.Context, slot entities.Slot, limit int) error
	AddActivity(ctx context.Context, activity entities.Activity, limit int) error
}

// VoteRepository is the ledger. Every write checks the event is open inside
// the same transaction that touches the vote row.
type VoteRepository interface {
	CastVote(ctx context.Context, vote entities.Vote) error
	RetractVote(ctx context.Context, eventID string, userID string, category entities.VoteCategory) (bool, error)
	GetUserVotes(ctx context.Context, eventID string, userID string) (entities.UserVotes, error)
	CastVotesIfNone(ctx context.Context, eventID string, userID string, votes []entities.Vote) (bool, error)
}

type TallyReader interface {
	CountVotes(ctx context.Context, eventID string, category entities.VoteCategory) (map[string]int, error)
}

type TimelineRepository interface {
	UpsertTimeline(ctx context.Context, timeline entities.Timeline) error
	GetTimeline(ctx context.Context, eventID string, userID string) (entities.Timeline, bool, error)
	ListTimelines(ctx context.Context, eventID string) ([]entities.Timeline, error)
}

// GroupDirectory answers membership questions owned by group-service.
type GroupDirectory interface {
	IsMember(ctx context.Context, groupID string, userID string) (bool, error)
	ListUserGroupIDs(ctx context.Context, userID string) ([]string, error)
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type CalendarEntry struct {
	UID         string
	Summary     string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	StampedAt   time.Time
}

type CalendarRenderer interface {
	Render(entry CalendarEntry) ([]byte, error)
}

// Metrics is optional; use cases treat nil as disabled.
type Metrics interface {
	VoteRecorded(category string, action string)
	TransitionRecorded(transition string)
	OutboxPublished(eventType string)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
