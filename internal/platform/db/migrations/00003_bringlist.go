package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upBringlist, downBringlist)
}

type BringItem struct {
	ID          string    `gorm:"type:text;primaryKey"`
	EventID     string    `gorm:"type:text;not null;index"`
	Name        string    `gorm:"type:text;not null"`
	Emoji       string    `gorm:"type:text;not null"`
	MaxQuantity int       `gorm:"not null;default:6"`
	CreatedBy   string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (BringItem) TableName() string { return "bring_items" }

type ItemClaim struct {
	ID        string    `gorm:"type:text;primaryKey"`
	ItemID    string    `gorm:"type:text;not null;uniqueIndex:idx_item_claims_item_user,priority:1"`
	EventID   string    `gorm:"type:text;not null;index"`
	UserID    string    `gorm:"type:text;not null;uniqueIndex:idx_item_claims_item_user,priority:2"`
	ClaimedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
	Item      BringItem `gorm:"foreignKey:ItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ItemClaim) TableName() string { return "item_claims" }

type BringlistEventDedup struct {
	EventID     string    `gorm:"type:text;primaryKey"`
	PayloadHash string    `gorm:"type:text;not null"`
	ExpiresAt   time.Time `gorm:"type:timestamptz;not null"`
}

func (BringlistEventDedup) TableName() string { return "bringlist_event_dedup" }

func upBringlist(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := openTx(ctx, tx)
	if err != nil {
		return err
	}
	if err := gormDB.AutoMigrate(
		&BringItem{},
		&ItemClaim{},
		&BringlistEventDedup{},
	); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `ALTER TABLE bring_items
		ADD CONSTRAINT chk_bring_items_max_quantity CHECK (max_quantity BETWEEN 1 AND 50)`)
	return err
}

func downBringlist(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := openTx(ctx, tx)
	if err != nil {
		return err
	}
	return gormDB.Migrator().DropTable(
		&BringlistEventDedup{},
		&ItemClaim{},
		&BringItem{},
	)
}
