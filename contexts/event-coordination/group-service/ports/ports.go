package ports

import (
	"context"
	"time"

	"meetfix/contexts/event-coordination/group-service/domain/entities"
	contractsv1 "meetfix/contracts/gen/events/v1"
)

type EventEnvelope = contractsv1.Envelope

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// InviteCodeGenerator draws a fresh code over entities.InviteCodeAlphabet.
type InviteCodeGenerator interface {
	NewInviteCode() (string, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

// IdempotencyStore claims a key before the operation runs. A claimed record
// has no payload until Complete stores the result.
type IdempotencyStore interface {
	// Reserve claims record.Key unless a live record holds it, in which case
	// that record is returned with reserved false.
	Reserve(ctx context.Context, record IdempotencyRecord, now time.Time) (existing IdempotencyRecord, reserved bool, err error)
	Complete(ctx context.Context, key string, payload []byte) error
	// Release drops a claim whose operation failed so the key can be retried.
	Release(ctx context.Context, key string) error
}

// GroupMutation receives the locked group and its current member count and
// returns the row to store.
type GroupMutation func(group entities.Group, memberCount int) (entities.Group, error)

type Repository interface {
	// CreateGroup stores the group and its owner membership. A taken invite
	// code is reported as errors.ErrConflict.
	CreateGroup(ctx context.Context, group entities.Group, owner entities.Member) error
	GetGroup(ctx context.Context, groupID string) (entities.Group, error)
	GetGroupByInviteCode(ctx context.Context, inviteCode string) (entities.Group, error)
	UpdateGroup(ctx context.Context, groupID string, mutate GroupMutation) (entities.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error

	// AddMember locks the group, returns the existing membership when the
	// user already belongs to it and otherwise inserts one if the group has
	// room. joined is false for the existing-member case.
	AddMember(ctx context.Context, member entities.Member) (stored entities.Member, joined bool, err error)
	RemoveMember(ctx context.Context, groupID string, userID string) (bool, error)
	GetMember(ctx context.Context, groupID string, userID string) (entities.Member, bool, error)
	ListMembers(ctx context.Context, groupID string) ([]entities.Member, error)

	ListGroupsForUser(ctx context.Context, userID string) ([]entities.GroupSummary, error)
	ListUserGroupIDs(ctx context.Context, userID string) ([]string, error)

	// TouchLastEventAt moves last_event_at forward; older timestamps are
	// ignored.
	TouchLastEventAt(ctx context.Context, groupID string, at time.Time) error
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
