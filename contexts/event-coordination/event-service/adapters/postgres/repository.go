package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"meetfix/contexts/event-coordination/event-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/event-service/domain/errors"
	"meetfix/contexts/event-coordination/event-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
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
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateEvent(
	ctx context.Context,
	event entities.Event,
	slots []entities.Slot,
	activities []entities.Activity,
	outbox []ports.EventEnvelope,
	record ports.IdempotencyRecord,
) error {
	if len(slots) == 0 {
		return domainerrors.ErrNoSlots
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimIdempotencyKey(tx, record, event.CreatedAt); err != nil {
			return err
		}
		row := eventModelFromEntity(event)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		slotRows := make([]slotModel, 0, len(slots))
		for _, slot := range slots {
			slotRows = append(slotRows, slotModelFromEntity(slot))
		}
		if err := tx.Create(&slotRows).Error; err != nil {
			return err
		}
		if len(activities) > 0 {
			activityRows := make([]activityModel, 0, len(activities))
			for _, activity := range activities {
				activityRows = append(activityRows, activityModelFromEntity(activity))
			}
			if err := tx.Create(&activityRows).Error; err != nil {
				return err
			}
		}
		return appendOutbox(tx, outbox)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrIdempotencyKeyInUse) {
			return err
		}
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("event_repo_create_event_failed", err,
			"event_id", strings.TrimSpace(event.EventID),
			"group_id", strings.TrimSpace(event.GroupID),
		)
	}
	return nil
}

func (r *Repository) GetEvent(ctx context.Context, eventID string) (entities.Event, error) {
	var row eventModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(eventID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Event{}, domainerrors.ErrEventNotFound
		}
		return entities.Event{}, r.logError("event_repo_get_event_failed", err, "event_id", strings.TrimSpace(eventID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListSlots(ctx context.Context, eventID string) ([]entities.Slot, error) {
	slots, err := listSlots(r.db.WithContext(ctx), strings.TrimSpace(eventID))
	if err != nil {
		return nil, r.logError("event_repo_list_slots_failed", err, "event_id", strings.TrimSpace(eventID))
	}
	return slots, nil
}

func (r *Repository) ListActivities(ctx context.Context, eventID string) ([]entities.Activity, error) {
	activities, err := listActivities(r.db.WithContext(ctx), strings.TrimSpace(eventID))
	if err != nil {
		return nil, r.logError("event_repo_list_activities_failed", err, "event_id", strings.TrimSpace(eventID))
	}
	return activities, nil
}

func (r *Repository) ListEventsByGroup(ctx context.Context, groupID string) ([]entities.Event, error) {
	var rows []eventModel
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", strings.TrimSpace(groupID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("event_repo_list_events_by_group_failed", err, "group_id", strings.TrimSpace(groupID))
	}
	return toEventEntities(rows), nil
}

func (r *Repository) ListFinalizedEvents(ctx context.Context, groupIDs []string) ([]entities.Event, error) {
	if len(groupIDs) == 0 {
		return []entities.Event{}, nil
	}
	var rows []eventModel
	if err := r.db.WithContext(ctx).
		Where("group_id IN ?", groupIDs).
		Where("status = ?", string(entities.EventStatusFinalized)).
		Where("finalized_date IS NOT NULL").
		Order("finalized_date ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("event_repo_list_finalized_events_failed", err, "group_count", len(groupIDs))
	}
	return toEventEntities(rows), nil
}

// MutateEvent locks the event row FOR UPDATE, hands the mutation a snapshot
// read inside the same transaction and persists the result with its outbox
// rows. Concurrent transitions on one event serialize on the lock.
func (r *Repository) MutateEvent(ctx context.Context, eventID string, mutate ports.EventMutation) (entities.Event, error) {
	eventID = strings.TrimSpace(eventID)
	var result entities.Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row eventModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", eventID).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrEventNotFound
			}
			return err
		}

		snapshot, err := loadSnapshot(tx, row.toEntity())
		if err != nil {
			return err
		}
		change, err := mutate(snapshot)
		if err != nil {
			return err
		}

		if change.Delete {
			if err := deleteEventRows(tx, eventID); err != nil {
				return err
			}
		} else {
			updated := eventModelFromEntity(change.Event)
			if err := tx.Model(&eventModel{}).
				Where("id = ?", eventID).
				Updates(updated.lifecycleColumns()).Error; err != nil {
				return err
			}
		}
		if err := appendOutbox(tx, change.Outbox); err != nil {
			return err
		}
		result = change.Event
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return entities.Event{}, err
		}
		return entities.Event{}, r.logError("event_repo_mutate_event_failed", err, "event_id", eventID)
	}
	return result, nil
}

func (r *Repository) AddSlot(ctx context.Context, slot entities.Slot, limit int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOpenEvent(tx, slot.EventID, "UPDATE"); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&slotModel{}).Where("event_id = ?", slot.EventID).Count(&count).Error; err != nil {
			return err
		}
		if limit > 0 && count >= int64(limit) {
			return domainerrors.ErrOptionLimitReached
		}
		row := slotModelFromEntity(slot)
		return tx.Create(&row).Error
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return r.logError("event_repo_add_slot_failed", err, "event_id", slot.EventID, "slot_id", slot.SlotID)
	}
	return nil
}

func (r *Repository) AddActivity(ctx context.Context, activity entities.Activity, limit int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOpenEvent(tx, activity.EventID, "UPDATE"); err != nil {
			return err
		}
		existing, err := listActivities(tx, activity.EventID)
		if err != nil {
			return err
		}
		if limit > 0 && len(existing) >= limit {
			return domainerrors.ErrOptionLimitReached
		}
		for _, item := range existing {
			if strings.EqualFold(item.Name, activity.Name) {
				return domainerrors.ErrConflict
			}
		}
		row := activityModelFromEntity(activity)
		return tx.Create(&row).Error
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return r.logError("event_repo_add_activity_failed", err,
			"event_id", activity.EventID,
			"activity_id", activity.ActivityID,
		)
	}
	return nil
}

func (r *Repository) UpsertTimeline(ctx context.Context, timeline entities.Timeline) error {
	row := timelineModel{
		EventID:     strings.TrimSpace(timeline.EventID),
		UserID:      strings.TrimSpace(timeline.UserID),
		DressUpTime: normalizeOptionalTime(timeline.DressUpTime),
		TravelTime:  normalizeOptionalTime(timeline.TravelTime),
		UpdatedAt:   timeline.UpdatedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"dress_up_time", "travel_time", "updated_at"}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("event_repo_upsert_timeline_failed", create.Error,
			"event_id", row.EventID,
			"user_id", row.UserID,
		)
	}
	return nil
}

func (r *Repository) GetTimeline(ctx context.Context, eventID string, userID string) (entities.Timeline, bool, error) {
	var row timelineModel
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", strings.TrimSpace(eventID), strings.TrimSpace(userID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Timeline{}, false, nil
		}
		return entities.Timeline{}, false, r.logError("event_repo_get_timeline_failed", err,
			"event_id", strings.TrimSpace(eventID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), true, nil
}

// ListTimelines returns every member timeline for an event.
func (r *Repository) ListTimelines(ctx context.Context, eventID string) ([]entities.Timeline, error) {
	var rows []timelineModel
	err := r.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Order("user_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("event_repo_list_timelines_failed", err, "event_id", strings.TrimSpace(eventID))
	}
	items := make([]entities.Timeline, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) IsMember(ctx context.Context, groupID string, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&groupMemberProjection{}).
		Where("group_id = ? AND user_id = ?", strings.TrimSpace(groupID), strings.TrimSpace(userID)).
		Count(&count).Error; err != nil {
		return false, r.logError("event_repo_membership_lookup_failed", err,
			"group_id", strings.TrimSpace(groupID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return count > 0, nil
}

func (r *Repository) ListUserGroupIDs(ctx context.Context, userID string) ([]string, error) {
	var groupIDs []string
	if err := r.db.WithContext(ctx).Model(&groupMemberProjection{}).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("group_id ASC").
		Pluck("group_id", &groupIDs).Error; err != nil {
		return nil, r.logError("event_repo_list_user_groups_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return groupIDs, nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		Where("expires_at > ?", now.UTC()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("event_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	return ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, true, nil
}

// claimIdempotencyKey inserts the key row, or takes over a row that has
// expired. Zero affected rows means a live record holds the key; the row lock
// taken by the insert makes a concurrent claim wait for this transaction.
func claimIdempotencyKey(tx *gorm.DB, record ports.IdempotencyRecord, now time.Time) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		RequestHash:     strings.TrimSpace(record.RequestHash),
		ResponsePayload: append([]byte(nil), record.ResponsePayload...),
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	claim := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"request_hash", "response_payload", "expires_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "event_service_idempotency.expires_at <= ?", Vars: []interface{}{now.UTC()}},
		}},
	}).Create(&row)
	if claim.Error != nil {
		return claim.Error
	}
	if claim.RowsAffected == 0 {
		return domainerrors.ErrIdempotencyKeyInUse
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("event_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	publishedAt = publishedAt.UTC()
	update := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &publishedAt,
		})
	if update.Error != nil {
		return r.logError("event_repo_mark_outbox_published_failed", update.Error, "outbox_id", strings.TrimSpace(outboxID))
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "event-coordination/event-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("event repository operation failed", fields...)
	return err
}

func lockOpenEvent(tx *gorm.DB, eventID string, strength string) error {
	var row eventModel
	if err := tx.Clauses(clause.Locking{Strength: strength}).
		Select("id", "status").
		Where("id = ?", strings.TrimSpace(eventID)).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerrors.ErrEventNotFound
		}
		return err
	}
	if row.Status != string(entities.EventStatusOpen) {
		return domainerrors.ErrEventLocked
	}
	return nil
}

func loadSnapshot(tx *gorm.DB, event entities.Event) (entities.EventSnapshot, error) {
	slots, err := listSlots(tx, event.EventID)
	if err != nil {
		return entities.EventSnapshot{}, err
	}
	activities, err := listActivities(tx, event.EventID)
	if err != nil {
		return entities.EventSnapshot{}, err
	}
	slotCounts, err := countVotes(tx, event.EventID, entities.VoteCategorySlot)
	if err != nil {
		return entities.EventSnapshot{}, err
	}
	activityCounts, err := countVotes(tx, event.EventID, entities.VoteCategoryActivity)
	if err != nil {
		return entities.EventSnapshot{}, err
	}
	return entities.EventSnapshot{
		Event:          event,
		Slots:          slots,
		Activities:     activities,
		SlotCounts:     slotCounts,
		ActivityCounts: activityCounts,
	}, nil
}

func listSlots(tx *gorm.DB, eventID string) ([]entities.Slot, error) {
	var rows []slotModel
	if err := tx.Where("event_id = ?", eventID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Slot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func listActivities(tx *gorm.DB, eventID string) ([]entities.Activity, error) {
	var rows []activityModel
	if err := tx.Where("event_id = ?", eventID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Activity, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func deleteEventRows(tx *gorm.DB, eventID string) error {
	steps := []any{
		&slotVoteModel{},
		&activityVoteModel{},
		&timelineModel{},
		&slotModel{},
		&activityModel{},
	}
	for _, model := range steps {
		if err := tx.Where("event_id = ?", eventID).Delete(model).Error; err != nil {
			return err
		}
	}
	return tx.Where("id = ?", eventID).Delete(&eventModel{}).Error
}

func appendOutbox(tx *gorm.DB, envelopes []ports.EventEnvelope) error {
	for _, envelope := range envelopes {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		outboxID := strings.TrimSpace(envelope.EventID)
		if outboxID == "" {
			outboxID = uuid.NewString()
		}
		createdAt := envelope.OccurredAt.UTC()
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		row := outboxModel{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      datatypes.JSON(payload),
			Status:       outboxStatusPending,
			CreatedAt:    createdAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func toEventEntities(rows []eventModel) []entities.Event {
	items := make([]entities.Event, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domainerrors.ErrEventNotFound,
		domainerrors.ErrSlotNotFound,
		domainerrors.ErrActivityNotFound,
		domainerrors.ErrEventLocked,
		domainerrors.ErrNotEventOwner,
		domainerrors.ErrInvalidStateTransition,
		domainerrors.ErrNoSlots,
		domainerrors.ErrOptionLimitReached,
		domainerrors.ErrInvalidVoteInput,
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

var _ ports.EventRepository = (*Repository)(nil)
var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.TimelineRepository = (*Repository)(nil)
var _ ports.GroupDirectory = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
