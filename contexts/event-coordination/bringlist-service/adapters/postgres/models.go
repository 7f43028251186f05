package postgresadapter

import (
	"time"

	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
)

type itemModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	EventID     string    `gorm:"column:event_id;index"`
	Name        string    `gorm:"column:name"`
	Emoji       string    `gorm:"column:emoji"`
	MaxQuantity int       `gorm:"column:max_quantity"`
	CreatedBy   string    `gorm:"column:created_by"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (itemModel) TableName() string {
	return "bring_items"
}

func itemModelFromEntity(item entities.BringItem) itemModel {
	return itemModel{
		ID:          item.ItemID,
		EventID:     item.EventID,
		Name:        item.Name,
		Emoji:       item.Emoji,
		MaxQuantity: item.MaxQuantity,
		CreatedBy:   item.CreatedBy,
		CreatedAt:   item.CreatedAt.UTC(),
	}
}

func (m itemModel) toEntity() entities.BringItem {
	return entities.BringItem{
		ItemID:      m.ID,
		EventID:     m.EventID,
		Name:        m.Name,
		Emoji:       m.Emoji,
		MaxQuantity: m.MaxQuantity,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

// claimModel has a unique (item_id, user_id) index; one claim per user per
// item is enforced by storage as well as by the claim policy.
type claimModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	ItemID    string    `gorm:"column:item_id"`
	EventID   string    `gorm:"column:event_id;index"`
	UserID    string    `gorm:"column:user_id"`
	ClaimedAt time.Time `gorm:"column:claimed_at"`
}

func (claimModel) TableName() string {
	return "item_claims"
}

func (m claimModel) toEntity() entities.ItemClaim {
	return entities.ItemClaim{
		ClaimID:   m.ID,
		ItemID:    m.ItemID,
		EventID:   m.EventID,
		UserID:    m.UserID,
		ClaimedAt: m.ClaimedAt.UTC(),
	}
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string {
	return "bringlist_event_dedup"
}
