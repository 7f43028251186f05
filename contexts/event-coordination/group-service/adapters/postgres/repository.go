package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"meetfix/contexts/event-coordination/group-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/group-service/domain/errors"
	"meetfix/contexts/event-coordination/group-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type groupModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	Name        string     `gorm:"column:name"`
	OwnerID     string     `gorm:"column:owner_id"`
	InviteCode  string     `gorm:"column:invite_code"`
	MaxMembers  int        `gorm:"column:max_members"`
	LastEventAt *time.Time `gorm:"column:last_event_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (groupModel) TableName() string {
	return "groups"
}

func (m groupModel) toEntity() entities.Group {
	var lastEventAt *time.Time
	if m.LastEventAt != nil {
		value := m.LastEventAt.UTC()
		lastEventAt = &value
	}
	return entities.Group{
		GroupID:     m.ID,
		Name:        m.Name,
		OwnerID:     m.OwnerID,
		InviteCode:  m.InviteCode,
		MaxMembers:  m.MaxMembers,
		LastEventAt: lastEventAt,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type memberModel struct {
	GroupID  string    `gorm:"column:group_id;primaryKey"`
	UserID   string    `gorm:"column:user_id;primaryKey"`
	Role     string    `gorm:"column:role"`
	JoinedAt time.Time `gorm:"column:joined_at"`
}

func (memberModel) TableName() string {
	return "group_members"
}

func (m memberModel) toEntity() entities.Member {
	return entities.Member{
		GroupID:  m.GroupID,
		UserID:   m.UserID,
		Role:     m.Role,
		JoinedAt: m.JoinedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "group_service_idempotency"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string {
	return "group_event_dedup"
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

func (r *Repository) CreateGroup(ctx context.Context, group entities.Group, owner entities.Member) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := groupModel{
			ID:         group.GroupID,
			Name:       group.Name,
			OwnerID:    group.OwnerID,
			InviteCode: group.InviteCode,
			MaxMembers: group.MaxMembers,
			CreatedAt:  group.CreatedAt.UTC(),
			UpdatedAt:  group.UpdatedAt.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Create(&memberModel{
			GroupID:  owner.GroupID,
			UserID:   owner.UserID,
			Role:     owner.Role,
			JoinedAt: owner.JoinedAt.UTC(),
		}).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("group_repo_create_failed", err, "group_id", group.GroupID)
	}
	return nil
}

func (r *Repository) GetGroup(ctx context.Context, groupID string) (entities.Group, error) {
	var row groupModel
	err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(groupID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Group{}, domainerrors.ErrGroupNotFound
		}
		return entities.Group{}, r.logError("group_repo_get_failed", err, "group_id", strings.TrimSpace(groupID))
	}
	return row.toEntity(), nil
}

func (r *Repository) GetGroupByInviteCode(ctx context.Context, inviteCode string) (entities.Group, error) {
	var row groupModel
	err := r.db.WithContext(ctx).Where("invite_code = ?", strings.TrimSpace(inviteCode)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Group{}, domainerrors.ErrInviteCodeNotFound
		}
		return entities.Group{}, r.logError("group_repo_get_by_invite_failed", err)
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateGroup(ctx context.Context, groupID string, mutate ports.GroupMutation) (entities.Group, error) {
	groupID = strings.TrimSpace(groupID)
	var updated entities.Group
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockGroup(tx, groupID)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&memberModel{}).Where("group_id = ?", groupID).Count(&count).Error; err != nil {
			return err
		}
		next, err := mutate(current.toEntity(), int(count))
		if err != nil {
			return err
		}
		if err := tx.Model(&groupModel{}).Where("id = ?", groupID).Updates(map[string]any{
			"name":        next.Name,
			"invite_code": next.InviteCode,
			"max_members": next.MaxMembers,
			"updated_at":  next.UpdatedAt.UTC(),
		}).Error; err != nil {
			return err
		}
		next.GroupID = current.ID
		next.OwnerID = current.OwnerID
		next.CreatedAt = current.CreatedAt.UTC()
		updated = next
		return nil
	})
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return entities.Group{}, domainerrors.ErrConflict
		case isDomainError(err):
			return entities.Group{}, err
		default:
			return entities.Group{}, r.logError("group_repo_update_failed", err, "group_id", groupID)
		}
	}
	return updated, nil
}

func (r *Repository) DeleteGroup(ctx context.Context, groupID string) error {
	groupID = strings.TrimSpace(groupID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockGroup(tx, groupID); err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&memberModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", groupID).Delete(&groupModel{}).Error
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return r.logError("group_repo_delete_failed", err, "group_id", groupID)
	}
	return nil
}

// AddMember serializes joins on the group row so the member count check and
// the insert see the same state.
func (r *Repository) AddMember(ctx context.Context, member entities.Member) (entities.Member, bool, error) {
	stored := member
	joined := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := lockGroup(tx, member.GroupID)
		if err != nil {
			return err
		}
		var existing memberModel
		err = tx.Where("group_id = ? AND user_id = ?", member.GroupID, member.UserID).First(&existing).Error
		if err == nil {
			stored = existing.toEntity()
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		var count int64
		if err := tx.Model(&memberModel{}).Where("group_id = ?", member.GroupID).Count(&count).Error; err != nil {
			return err
		}
		if int(count) >= group.MaxMembers {
			return domainerrors.ErrGroupFull
		}
		create := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&memberModel{
			GroupID:  member.GroupID,
			UserID:   member.UserID,
			Role:     member.Role,
			JoinedAt: member.JoinedAt.UTC(),
		})
		if create.Error != nil {
			return create.Error
		}
		joined = create.RowsAffected > 0
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return entities.Member{}, false, err
		}
		return entities.Member{}, false, r.logError("group_repo_add_member_failed", err,
			"group_id", member.GroupID,
			"user_id", member.UserID,
		)
	}
	return stored, joined, nil
}

func (r *Repository) RemoveMember(ctx context.Context, groupID string, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", strings.TrimSpace(groupID), strings.TrimSpace(userID)).
		Delete(&memberModel{})
	if result.Error != nil {
		return false, r.logError("group_repo_remove_member_failed", result.Error,
			"group_id", strings.TrimSpace(groupID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) GetMember(ctx context.Context, groupID string, userID string) (entities.Member, bool, error) {
	var row memberModel
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", strings.TrimSpace(groupID), strings.TrimSpace(userID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Member{}, false, nil
		}
		return entities.Member{}, false, r.logError("group_repo_get_member_failed", err,
			"group_id", strings.TrimSpace(groupID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListMembers(ctx context.Context, groupID string) ([]entities.Member, error) {
	groupID = strings.TrimSpace(groupID)
	var rows []memberModel
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("CASE WHEN role = 'owner' THEN 0 ELSE 1 END").
		Order("joined_at ASC").
		Order("user_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("group_repo_list_members_failed", err, "group_id", groupID)
	}
	if len(rows) == 0 {
		if _, err := r.GetGroup(ctx, groupID); err != nil {
			return nil, err
		}
	}
	items := make([]entities.Member, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

type groupSummaryRow struct {
	groupModel
	MemberCount int    `gorm:"column:member_count"`
	MyRole      string `gorm:"column:my_role"`
}

func (r *Repository) ListGroupsForUser(ctx context.Context, userID string) ([]entities.GroupSummary, error) {
	userID = strings.TrimSpace(userID)
	var rows []groupSummaryRow
	err := r.db.WithContext(ctx).
		Table("groups AS g").
		Select("g.*, mine.role AS my_role, (SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = g.id) AS member_count").
		Joins("JOIN group_members mine ON mine.group_id = g.id AND mine.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, r.logError("group_repo_list_for_user_failed", err, "user_id", userID)
	}
	items := make([]entities.GroupSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.GroupSummary{
			Group:       row.groupModel.toEntity(),
			MemberCount: row.MemberCount,
			MyRole:      row.MyRole,
		})
	}
	return items, nil
}

func (r *Repository) ListUserGroupIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&memberModel{}).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("group_id ASC").
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, r.logError("group_repo_list_user_group_ids_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return ids, nil
}

func (r *Repository) TouchLastEventAt(ctx context.Context, groupID string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&groupModel{}).
		Where("id = ?", strings.TrimSpace(groupID)).
		Where("last_event_at IS NULL OR last_event_at < ?", at.UTC()).
		Update("last_event_at", at.UTC()).Error
	if err != nil {
		return r.logError("group_repo_touch_last_event_failed", err, "group_id", strings.TrimSpace(groupID))
	}
	return nil
}

// Reserve inserts the claim, or takes over a row that has expired. A live
// row makes the upsert affect nothing and is loaded for the caller.
func (r *Repository) Reserve(ctx context.Context, record ports.IdempotencyRecord, now time.Time) (ports.IdempotencyRecord, bool, error) {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: record.RequestHash,
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	claim := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"request_hash", "payload", "expires_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "group_service_idempotency.expires_at <= ?", Vars: []interface{}{now.UTC()}},
		}},
	}).Create(&row)
	if claim.Error != nil {
		return ports.IdempotencyRecord{}, false, r.logError("group_repo_idempotency_reserve_failed", claim.Error,
			"idempotency_key", row.Key,
		)
	}
	if claim.RowsAffected > 0 {
		return ports.IdempotencyRecord{}, true, nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).Where("key = ?", row.Key).First(&existing).Error; err != nil {
		return ports.IdempotencyRecord{}, false, r.logError("group_repo_idempotency_load_existing_failed", err,
			"idempotency_key", row.Key,
		)
	}
	return ports.IdempotencyRecord{
		Key:         existing.Key,
		RequestHash: existing.RequestHash,
		Payload:     append([]byte(nil), existing.Payload...),
		ExpiresAt:   existing.ExpiresAt.UTC(),
	}, false, nil
}

func (r *Repository) Complete(ctx context.Context, key string, payload []byte) error {
	update := r.db.WithContext(ctx).
		Model(&idempotencyModel{}).
		Where("key = ?", strings.TrimSpace(key)).
		Update("payload", append([]byte(nil), payload...))
	if update.Error != nil {
		return r.logError("group_repo_idempotency_complete_failed", update.Error, "idempotency_key", strings.TrimSpace(key))
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) Release(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		Delete(&idempotencyModel{}).Error; err != nil {
		return r.logError("group_repo_idempotency_release_failed", err, "idempotency_key", strings.TrimSpace(key))
	}
	return nil
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
				return domainerrors.ErrConflict
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
		return false, r.logError("group_repo_reserve_event_failed", err, "event_id", eventID)
	}
	return alreadyProcessed, nil
}

func (r *Repository) ReleaseEvent(ctx context.Context, eventID string) error {
	eventID = strings.TrimSpace(eventID)
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&eventDedupModel{}).Error
	if err != nil {
		return r.logError("group_repo_release_event_failed", err, "event_id", eventID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "event-coordination/group-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("group repository operation failed", fields...)
	return err
}

func lockGroup(tx *gorm.DB, groupID string) (groupModel, error) {
	var row groupModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", strings.TrimSpace(groupID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return groupModel{}, domainerrors.ErrGroupNotFound
		}
		return groupModel{}, err
	}
	return row, nil
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domainerrors.ErrGroupNotFound,
		domainerrors.ErrGroupFull,
		domainerrors.ErrNotGroupOwner,
		domainerrors.ErrMaxMembersBelowCount,
		domainerrors.ErrInvalidRequest,
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

// UUIDGenerator creates group ids.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
