package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upGroups, downGroups)
}

type Group struct {
	ID          string     `gorm:"type:text;primaryKey"`
	Name        string     `gorm:"type:text;not null"`
	OwnerID     string     `gorm:"type:text;not null;index"`
	InviteCode  string     `gorm:"type:text;not null;uniqueIndex:idx_groups_invite_code"`
	MaxMembers  int        `gorm:"not null;default:10"`
	LastEventAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

func (Group) TableName() string { return "groups" }

type GroupMember struct {
	GroupID  string    `gorm:"type:text;primaryKey"`
	UserID   string    `gorm:"type:text;primaryKey;index:idx_group_members_user"`
	Role     string    `gorm:"type:text;not null;default:member"`
	JoinedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
	Group    Group     `gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (GroupMember) TableName() string { return "group_members" }

type GroupIdempotency struct {
	Key         string    `gorm:"type:text;primaryKey"`
	RequestHash string    `gorm:"type:text;not null"`
	Payload     []byte    `gorm:"type:bytea"`
	ExpiresAt   time.Time `gorm:"type:timestamptz;not null;index"`
}

func (GroupIdempotency) TableName() string { return "group_service_idempotency" }

type GroupEventDedup struct {
	EventID     string    `gorm:"type:text;primaryKey"`
	PayloadHash string    `gorm:"type:text;not null"`
	ExpiresAt   time.Time `gorm:"type:timestamptz;not null"`
}

func (GroupEventDedup) TableName() string { return "group_event_dedup" }

func upGroups(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := openTx(ctx, tx)
	if err != nil {
		return err
	}
	if err := gormDB.AutoMigrate(
		&Group{},
		&GroupMember{},
		&GroupIdempotency{},
		&GroupEventDedup{},
	); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `ALTER TABLE groups
		ADD CONSTRAINT chk_groups_max_members CHECK (max_members BETWEEN 2 AND 100)`)
	return err
}

func downGroups(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := openTx(ctx, tx)
	if err != nil {
		return err
	}
	return gormDB.Migrator().DropTable(
		&GroupEventDedup{},
		&GroupIdempotency{},
		&GroupMember{},
		&Group{},
	)
}
