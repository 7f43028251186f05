package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/bringlist-service/domain/errors"
	"meetfix/contexts/event-coordination/bringlist-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) CreateItem(ctx context.Context, item entities.BringItem) error {
	row := itemModelFromEntity(item)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("bringlist_repo_create_item_failed", err,
			"item_id", item.ItemID,
			"event_id", item.EventID,
		)
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, itemID string) (entities.BringItem, error) {
	var row itemModel
	err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(itemID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.BringItem{}, domainerrors.ErrItemNotFound
		}
		return entities.BringItem{}, r.logError("bringlist_repo_get_item_failed", err, "item_id", itemID)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListItems(ctx context.Context, eventID string) ([]entities.BringItem, error) {
	var rows []itemModel
	err := r.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("bringlist_repo_list_items_failed", err, "event_id", eventID)
	}
	return toItemEntities(rows), nil
}

func (r *Repository) DeleteItem(ctx context.Context, itemID string) error {
	itemID = strings.TrimSpace(itemID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockItem(tx, itemID); err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", itemID).Delete(&claimModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", itemID).Delete(&itemModel{}).Error
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return r.logError("bringlist_repo_delete_item_failed", err, "item_id", itemID)
	}
	return nil
}

func (r *Repository) DeleteEventItems(ctx context.Context, eventID string) (int, error) {
	eventID = strings.TrimSpace(eventID)
	removed := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&claimModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("event_id = ?", eventID).Delete(&itemModel{})
		if result.Error != nil {
			return result.Error
		}
		removed = int(result.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, r.logError("bringlist_repo_delete_event_items_failed", err, "event_id", eventID)
	}
	return removed, nil
}

// ClaimItem serializes claimers of one item on the item row lock, so the
// count read by policy cannot change before the insert commits.
func (r *Repository) ClaimItem(ctx context.Context, claim entities.ItemClaim, policy ports.ClaimPolicy) (entities.ItemClaim, bool, error) {
	var (
		result  entities.ItemClaim
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockItem(tx, claim.ItemID)
		if err != nil {
			return err
		}
		var rows []claimModel
		if err := tx.Where("item_id = ?", item.ID).Find(&rows).Error; err != nil {
			return err
		}
		claims := make([]entities.ItemClaim, 0, len(rows))
		for _, row := range rows {
			claims = append(claims, row.toEntity())
		}
		existing, err := policy(item.toEntity(), claims)
		if err != nil {
			return err
		}
		if existing != nil {
			result = *existing
			return nil
		}
		row := claimModel{
			ID:        claim.ClaimID,
			ItemID:    item.ID,
			EventID:   item.EventID,
			UserID:    claim.UserID,
			ClaimedAt: claim.ClaimedAt.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		result = row.toEntity()
		created = true
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return entities.ItemClaim{}, false, err
		}
		if isUniqueViolation(err) {
			return entities.ItemClaim{}, false, domainerrors.ErrConflict
		}
		return entities.ItemClaim{}, false, r.logError("bringlist_repo_claim_item_failed", err,
			"item_id", claim.ItemID,
			"user_id", claim.UserID,
		)
	}
	return result, created, nil
}

func (r *Repository) RemoveClaim(ctx context.Context, itemID string, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("item_id = ? AND user_id = ?", strings.TrimSpace(itemID), strings.TrimSpace(userID)).
		Delete(&claimModel{})
	if result.Error != nil {
		return false, r.logError("bringlist_repo_remove_claim_failed", result.Error,
			"item_id", itemID,
			"user_id", userID,
		)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ListClaims(ctx context.Context, eventID string) ([]entities.ItemClaim, error) {
	var rows []claimModel
	err := r.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Order("claimed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("bringlist_repo_list_claims_failed", err, "event_id", eventID)
	}
	claims := make([]entities.ItemClaim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, row.toEntity())
	}
	return claims, nil
}

func (r *Repository) ListClaimedItems(ctx context.Context, eventID string, userID string) ([]entities.BringItem, error) {
	var rows []itemModel
	err := r.db.WithContext(ctx).
		Model(&itemModel{}).
		Joins("JOIN item_claims ON item_claims.item_id = bring_items.id").
		Where("bring_items.event_id = ? AND item_claims.user_id = ?", strings.TrimSpace(eventID), strings.TrimSpace(userID)).
		Order("bring_items.created_at ASC, bring_items.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("bringlist_repo_list_claimed_items_failed", err,
			"event_id", eventID,
			"user_id", userID,
		)
	}
	return toItemEntities(rows), nil
}

func (r *Repository) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	eventID = strings.TrimSpace(eventID)
	alreadyProcessed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing eventDedupModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("event_id = ?", eventID).
			First(&existing).Error
		switch {
		case err == nil && existing.ExpiresAt.After(time.Now().UTC()):
			if existing.PayloadHash != payloadHash {
				return domainerrors.ErrEventDedupeConflict
			}
			alreadyProcessed = true
			return nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload_hash", "expires_at"}),
		}).Create(&eventDedupModel{
			EventID:     eventID,
			PayloadHash: payloadHash,
			ExpiresAt:   expiresAt.UTC(),
		}).Error
	})
	if err != nil {
		if isDomainError(err) {
			return false, err
		}
		return false, r.logError("bringlist_repo_reserve_event_failed", err, "event_id", eventID)
	}
	return alreadyProcessed, nil
}

func (r *Repository) ReleaseEvent(ctx context.Context, eventID string) error {
	eventID = strings.TrimSpace(eventID)
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&eventDedupModel{}).Error
	if err != nil {
		return r.logError("bringlist_repo_release_event_failed", err, "event_id", eventID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "event-coordination/bringlist-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("bringlist repository operation failed", fields...)
	return err
}

func lockItem(tx *gorm.DB, itemID string) (itemModel, error) {
	var row itemModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", strings.TrimSpace(itemID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return itemModel{}, domainerrors.ErrItemNotFound
		}
		return itemModel{}, err
	}
	return row, nil
}

func toItemEntities(rows []itemModel) []entities.BringItem {
	items := make([]entities.BringItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domainerrors.ErrItemNotFound,
		domainerrors.ErrClaimLimitReached,
		domainerrors.ErrEventDedupeConflict,
		domainerrors.ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.ItemRepository  = (*Repository)(nil)
	_ ports.ClaimRepository = (*Repository)(nil)
	_ ports.EventDedupStore = (*Repository)(nil)
)
