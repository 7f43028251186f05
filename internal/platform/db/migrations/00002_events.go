package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
)

func init() {
	goose.AddMigrationContext(upEvents, downEvents)
}

type Event struct {
	ID                string     `gorm:"type:text;primaryKey"`
	GroupID           string     `gorm:"type:text;not null;index"`
	Name              string     `gorm:"type:text;not null"`
	Status            string     `gorm:"type:text;not null;default:open"`
	PackedUp          bool       `gorm:"not null;default:false"`
	CreatedBy         string     `gorm:"type:text;not null"`
	FinalizedSlotID   *string    `gorm:"type:text"`
	FinalizedDate     *time.Time `gorm:"type:timestamptz"`
	FinalizedActivity *string    `gorm:"type:text"`
	CreatedAt         time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt         time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

func (Event) TableName() string { return "events" }

type EventSlot struct {
	ID              string    `gorm:"type:text;primaryKey"`
	EventID         string    `gorm:"type:text;not null;index"`
	SlotAt          time.Time `gorm:"type:timestamptz;not null"`
	DurationMinutes int       `gorm:"not null;default:60"`
	CreatedBy       string    `gorm:"type:text;not null"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null;default:now()"`
	Event           Event     `gorm:"foreignKey:EventID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (EventSlot) TableName() string { return "event_slots" }

type EventActivity struct {
	ID        string    `gorm:"type:text;primaryKey"`
	EventID   string    `gorm:"type:text;not null;index"`
	Name      string    `gorm:"type:text;not null"`
	CreatedBy string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
	Event     Event     `gorm:"foreignKey:EventID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (EventActivity) TableName() string { return "event_activities" }

// SlotVote and ActivityVote hold at most one row per (event, user); the vote
// upsert relies on that index.
type SlotVote struct {
	ID        string    `gorm:"type:text;primaryKey"`
	EventID   string    `gorm:"type:text;not null;uniqueIndex:idx_slot_votes_event_user,priority:1"`
	SlotID    string    `gorm:"type:text;not null;index"`
	UserID    string    `gorm:"type:text;not null;uniqueIndex:idx_slot_votes_event_user,priority:2"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
	Slot      EventSlot `gorm:"foreignKey:SlotID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (SlotVote) TableName() string { return "slot_votes" }

type ActivityVote struct {
	ID         string        `gorm:"type:text;primaryKey"`
	EventID    string        `gorm:"type:text;not null;uniqueIndex:idx_activity_votes_event_user,priority:1"`
	ActivityID string        `gorm:"type:text;not null;index"`
	UserID     string        `gorm:"type:text;not null;uniqueIndex:idx_activity_votes_event_user,priority:2"`
	CreatedAt  time.Time     `gorm:"type:timestamptz;not null;default:now()"`
	Activity   EventActivity `gorm:"foreignKey:ActivityID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ActivityVote) TableName() string { return "activity_votes" }

type EventUserTimeline struct {
	EventID     string     `gorm:"type:text;primaryKey"`
	UserID      string     `gorm:"type:text;primaryKey"`
	DressUpTime *time.Time `gorm:"type:timestamptz"`
	TravelTime  *time.Time `gorm:"type:timestamptz"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

func (EventUserTimeline) TableName() string { return "event_user_timelines" }

type EventIdempotency struct {
	Key             string    `gorm:"type:text;primaryKey"`
	RequestHash     string    `gorm:"type:text;not null"`
	ResponsePayload []byte    `gorm:"type:bytea"`
	ExpiresAt       time.Time `gorm:"type:timestamptz;not null;index"`
}

func (EventIdempotency) TableName() string { return "event_service_idempotency" }

type EventOutbox struct {
	OutboxID     string         `gorm:"type:text;primaryKey"`
	EventType    string         `gorm:"type:text;not null"`
	PartitionKey string         `gorm:"type:text;not null"`
	Payload      datatypes.JSON `gorm:"type:jsonb;not null"`
	Status       string         `gorm:"type:text;not null;default:pending;index:idx_event_outbox_status_created,priority:1"`
	CreatedAt    time.Time      `gorm:"type:timestamptz;not null;default:now();index:idx_event_outbox_status_created,priority:2"`
	PublishedAt  *time.Time     `gorm:"type:timestamptz"`
}

func (EventOutbox) TableName() string { return "event_outbox" }

func upEvents(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := openTx(ctx, tx)
	if err != nil {
		return err
	}
	if err := gormDB.AutoMigrate(
		&Event{},
		&EventSlot{},
		&EventActivity{},
		&SlotVote{},
		&ActivityVote{},
		&EventUserTimeline{},
		&EventIdempotency{},
		&EventOutbox{},
	); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `ALTER TABLE events
		ADD CONSTRAINT chk_events_status CHECK (status IN ('open', 'finalized'))`)
	return err
}

func downEvents(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := openTx(ctx, tx)
	if err != nil {
		return err
	}
	return gormDB.Migrator().DropTable(
		&EventOutbox{},
		&EventIdempotency{},
		&EventUserTimeline{},
		&ActivityVote{},
		&SlotVote{},
		&EventActivity{},
		&EventSlot{},
		&Event{},
	)
}
