package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upNotifications, downNotifications)
}

type Notification struct {
	ID           string     `gorm:"type:text;primaryKey"`
	UserID       string     `gorm:"type:text;not null;index:idx_notifications_user_scheduled,priority:1"`
	EventID      string     `gorm:"type:text;not null;index"`
	Type         string     `gorm:"type:text;not null"`
	Title        string     `gorm:"type:text;not null"`
	Message      string     `gorm:"type:text;not null"`
	ScheduledFor time.Time  `gorm:"type:timestamptz;not null;index:idx_notifications_user_scheduled,priority:2"`
	ReadAt       *time.Time `gorm:"type:timestamptz"`
	CreatedAt    time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

func (Notification) TableName() string { return "notifications" }

type NotificationEventDedup struct {
	EventID     string    `gorm:"type:text;primaryKey"`
	PayloadHash string    `gorm:"type:text;not null"`
	ExpiresAt   time.Time `gorm:"type:timestamptz;not null"`
}

func (NotificationEventDedup) TableName() string { return "notification_event_dedup" }

func upNotifications(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := openTx(ctx, tx)
	if err != nil {
		return err
	}
	return gormDB.AutoMigrate(
		&Notification{},
		&NotificationEventDedup{},
	)
}

func downNotifications(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := openTx(ctx, tx)
	if err != nil {
		return err
	}
	return gormDB.Migrator().DropTable(
		&NotificationEventDedup{},
		&Notification{},
	)
}
