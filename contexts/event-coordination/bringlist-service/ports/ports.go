package ports

import (
	"context"
	"time"

	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
	contractsv1 "meetfix/contracts/gen/events/v1"
)

type EventEnvelope = contractsv1.Envelope

// ClaimPolicy runs while the item row is locked with the item's current
// claims. A non-nil claim is returned to the caller unchanged.
type ClaimPolicy func(item entities.BringItem, claims []entities.ItemClaim) (*entities.ItemClaim, error)

type ItemRepository interface {
	CreateItem(ctx context.Context, item entities.BringItem) error
	GetItem(ctx context.Context, itemID string) (entities.BringItem, error)
	ListItems(ctx context.Context, eventID string) ([]entities.BringItem, error)
	DeleteItem(ctx context.Context, itemID string) error
	DeleteEventItems(ctx context.Context, eventID string) (int, error)
}

type ClaimRepository interface {
	// ClaimItem inserts claim unless policy returns an existing claim or an
	// error. created is false on replay.
	ClaimItem(ctx context.Context, claim entities.ItemClaim, policy ClaimPolicy) (entities.ItemClaim, bool, error)
	RemoveClaim(ctx context.Context, itemID string, userID string) (bool, error)
	ListClaims(ctx context.Context, eventID string) ([]entities.ItemClaim, error)
	ListClaimedItems(ctx context.Context, eventID string, userID string) ([]entities.BringItem, error)
}

// EventDirectory resolves events to their group and answers membership
// questions; both are owned by other services.
type EventDirectory interface {
	EventGroupID(ctx context.Context, eventID string) (string, error)
	IsMember(ctx context.Context, groupID string, userID string) (bool, error)
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

// Metrics is optional; nil disables recording.
type Metrics interface {
	ClaimRecorded(result string)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
