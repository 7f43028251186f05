package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"meetfix/contexts/event-coordination/notification-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/notification-service/domain/errors"
	"meetfix/contexts/event-coordination/notification-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type notificationModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	UserID       string     `gorm:"column:user_id;index:idx_notifications_user_scheduled,priority:1"`
	EventID      string     `gorm:"column:event_id;index"`
	Type         string     `gorm:"column:type"`
	Title        string     `gorm:"column:title"`
	Message      string     `gorm:"column:message"`
	ScheduledFor time.Time  `gorm:"column:scheduled_for;index:idx_notifications_user_scheduled,priority:2"`
	ReadAt       *time.Time `gorm:"column:read_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
}

func (notificationModel) TableName() string {
	return "notifications"
}

func (m notificationModel) toEntity() entities.Notification {
	var readAt *time.Time
	if m.ReadAt != nil {
		value := m.ReadAt.UTC()
		readAt = &value
	}
	return entities.Notification{
		NotificationID: m.ID,
		UserID:         m.UserID,
		EventID:        m.EventID,
		Type:           entities.ReminderType(m.Type),
		Title:          m.Title,
		Message:        m.Message,
		ScheduledFor:   m.ScheduledFor.UTC(),
		ReadAt:         readAt,
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string {
	return "notification_event_dedup"
}

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

func (r *Repository) ReplaceEventReminders(ctx context.Context, eventID string, items []entities.Notification) error {
	eventID = strings.TrimSpace(eventID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&notificationModel{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		rows := make([]notificationModel, 0, len(items))
		for _, item := range items {
			rows = append(rows, notificationModel{
				ID:           item.NotificationID,
				UserID:       item.UserID,
				EventID:      eventID,
				Type:         string(item.Type),
				Title:        item.Title,
				Message:      item.Message,
				ScheduledFor: item.ScheduledFor.UTC(),
				CreatedAt:    item.CreatedAt.UTC(),
			})
		}
		return tx.CreateInBatches(&rows, 200).Error
	})
	if err != nil {
		return r.logError("notification_repo_replace_failed", err,
			"event_id", eventID,
			"reminders", len(items),
		)
	}
	return nil
}

func (r *Repository) DeleteUnreadForEvent(ctx context.Context, eventID string) (int, error) {
	result := r.db.WithContext(ctx).
		Where("event_id = ? AND read_at IS NULL", strings.TrimSpace(eventID)).
		Delete(&notificationModel{})
	if result.Error != nil {
		return 0, r.logError("notification_repo_delete_unread_failed", result.Error, "event_id", eventID)
	}
	return int(result.RowsAffected), nil
}

func (r *Repository) ListDue(ctx context.Context, userID string, now time.Time, limit int) ([]entities.Notification, error) {
	var rows []notificationModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND scheduled_for <= ?", strings.TrimSpace(userID), now.UTC()).
		Order("scheduled_for DESC, id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("notification_repo_list_failed", err, "user_id", userID)
	}
	items := make([]entities.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) MarkRead(ctx context.Context, userID string, notificationID string, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row notificationModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", strings.TrimSpace(notificationID), strings.TrimSpace(userID)).
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotificationNotFound
			}
			return err
		}
		if row.ReadAt != nil {
			return nil
		}
		return tx.Model(&notificationModel{}).
			Where("id = ?", row.ID).
			Update("read_at", at.UTC()).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotificationNotFound) {
			return err
		}
		return r.logError("notification_repo_mark_read_failed", err,
			"user_id", userID,
			"notification_id", notificationID,
		)
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ? AND read_at IS NULL AND scheduled_for <= ?", strings.TrimSpace(userID), at.UTC()).
		Update("read_at", at.UTC())
	if result.Error != nil {
		return 0, r.logError("notification_repo_mark_all_read_failed", result.Error, "user_id", userID)
	}
	return int(result.RowsAffected), nil
}

func (r *Repository) CountUnread(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ? AND read_at IS NULL AND scheduled_for <= ?", strings.TrimSpace(userID), now.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, r.logError("notification_repo_count_unread_failed", err, "user_id", userID)
	}
	return int(count), nil
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
		if errors.Is(err, domainerrors.ErrEventDedupeConflict) {
			return false, err
		}
		return false, r.logError("notification_repo_reserve_event_failed", err, "event_id", eventID)
	}
	return alreadyProcessed, nil
}

func (r *Repository) ReleaseEvent(ctx context.Context, eventID string) error {
	eventID = strings.TrimSpace(eventID)
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&eventDedupModel{}).Error
	if err != nil {
		return r.logError("notification_repo_release_event_failed", err, "event_id", eventID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "event-coordination/notification-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("notification repository operation failed", fields...)
	return err
}

var (
	_ ports.Repository      = (*Repository)(nil)
	_ ports.EventDedupStore = (*Repository)(nil)
)
