package postgresadapter

import (
	"strings"
	"time"

	"meetfix/contexts/event-coordination/event-service/domain/entities"

	"gorm.io/datatypes"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type eventModel struct {
	ID                string     `gorm:"column:id;primaryKey"`
	GroupID           string     `gorm:"column:group_id"`
	Name              string     `gorm:"column:name"`
	Status            string     `gorm:"column:status"`
	PackedUp          bool       `gorm:"column:packed_up"`
	CreatedBy         string     `gorm:"column:created_by"`
	FinalizedSlotID   *string    `gorm:"column:finalized_slot_id"`
	FinalizedDate     *time.Time `gorm:"column:finalized_date"`
	FinalizedActivity *string    `gorm:"column:finalized_activity"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (eventModel) TableName() string {
	return "events"
}

func eventModelFromEntity(event entities.Event) eventModel {
	row := eventModel{
		ID:                strings.TrimSpace(event.EventID),
		GroupID:           strings.TrimSpace(event.GroupID),
		Name:              strings.TrimSpace(event.Name),
		Status:            string(event.Status),
		PackedUp:          event.PackedUp,
		CreatedBy:         strings.TrimSpace(event.CreatedBy),
		FinalizedDate:     normalizeOptionalTime(event.FinalizedDate),
		FinalizedActivity: event.FinalizedActivity,
		CreatedAt:         event.CreatedAt.UTC(),
		UpdatedAt:         event.UpdatedAt.UTC(),
	}
	if slotID := strings.TrimSpace(event.FinalizedSlotID); slotID != "" {
		row.FinalizedSlotID = &slotID
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m eventModel) toEntity() entities.Event {
	slotID := ""
	if m.FinalizedSlotID != nil {
		slotID = *m.FinalizedSlotID
	}
	return entities.Event{
		EventID:           m.ID,
		GroupID:           m.GroupID,
		Name:              m.Name,
		Status:            entities.EventStatus(m.Status),
		PackedUp:          m.PackedUp,
		CreatedBy:         m.CreatedBy,
		FinalizedSlotID:   slotID,
		FinalizedDate:     normalizeOptionalTime(m.FinalizedDate),
		FinalizedActivity: m.FinalizedActivity,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

// lifecycleColumns lists every column a transition may change, nil values
// included, so Updates clears finalized fields on reopen.
func (m eventModel) lifecycleColumns() map[string]any {
	return map[string]any{
		"name":               m.Name,
		"status":             m.Status,
		"packed_up":          m.PackedUp,
		"finalized_slot_id":  m.FinalizedSlotID,
		"finalized_date":     m.FinalizedDate,
		"finalized_activity": m.FinalizedActivity,
		"updated_at":         m.UpdatedAt,
	}
}

type slotModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	EventID         string    `gorm:"column:event_id"`
	SlotAt          time.Time `gorm:"column:slot_at"`
	DurationMinutes int       `gorm:"column:duration_minutes"`
	CreatedBy       string    `gorm:"column:created_by"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (slotModel) TableName() string {
	return "event_slots"
}

func slotModelFromEntity(slot entities.Slot) slotModel {
	return slotModel{
		ID:              strings.TrimSpace(slot.SlotID),
		EventID:         strings.TrimSpace(slot.EventID),
		SlotAt:          slot.SlotAt.UTC(),
		DurationMinutes: slot.DurationMinutes,
		CreatedBy:       strings.TrimSpace(slot.CreatedBy),
		CreatedAt:       slot.CreatedAt.UTC(),
	}
}

func (m slotModel) toEntity() entities.Slot {
	return entities.Slot{
		SlotID:          m.ID,
		EventID:         m.EventID,
		SlotAt:          m.SlotAt.UTC(),
		DurationMinutes: m.DurationMinutes,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt.UTC(),
	}
}

type activityModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	EventID   string    `gorm:"column:event_id"`
	Name      string    `gorm:"column:name"`
	CreatedBy string    `gorm:"column:created_by"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (activityModel) TableName() string {
	return "event_activities"
}

func activityModelFromEntity(activity entities.Activity) activityModel {
	return activityModel{
		ID:        strings.TrimSpace(activity.ActivityID),
		EventID:   strings.TrimSpace(activity.EventID),
		Name:      strings.TrimSpace(activity.Name),
		CreatedBy: strings.TrimSpace(activity.CreatedBy),
		CreatedAt: activity.CreatedAt.UTC(),
	}
}

func (m activityModel) toEntity() entities.Activity {
	return entities.Activity{
		ActivityID: m.ID,
		EventID:    m.EventID,
		Name:       m.Name,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

type slotVoteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	EventID   string    `gorm:"column:event_id"`
	SlotID    string    `gorm:"column:slot_id"`
	UserID    string    `gorm:"column:user_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (slotVoteModel) TableName() string {
	return "slot_votes"
}

type activityVoteModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	EventID    string    `gorm:"column:event_id"`
	ActivityID string    `gorm:"column:activity_id"`
	UserID     string    `gorm:"column:user_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (activityVoteModel) TableName() string {
	return "activity_votes"
}

type timelineModel struct {
	EventID     string     `gorm:"column:event_id;primaryKey"`
	UserID      string     `gorm:"column:user_id;primaryKey"`
	DressUpTime *time.Time `gorm:"column:dress_up_time"`
	TravelTime  *time.Time `gorm:"column:travel_time"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (timelineModel) TableName() string {
	return "event_user_timelines"
}

func (m timelineModel) toEntity() entities.Timeline {
	return entities.Timeline{
		EventID:     m.EventID,
		UserID:      m.UserID,
		DressUpTime: normalizeOptionalTime(m.DressUpTime),
		TravelTime:  normalizeOptionalTime(m.TravelTime),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "event_service_idempotency"
}

type outboxModel struct {
	OutboxID     string         `gorm:"column:outbox_id;primaryKey"`
	EventType    string         `gorm:"column:event_type"`
	PartitionKey string         `gorm:"column:partition_key"`
	Payload      datatypes.JSON `gorm:"column:payload"`
	Status       string         `gorm:"column:status"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	PublishedAt  *time.Time     `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "event_outbox"
}

// groupMemberProjection reads the membership table owned by group-service.
type groupMemberProjection struct {
	GroupID string `gorm:"column:group_id;primaryKey"`
	UserID  string `gorm:"column:user_id;primaryKey"`
}

func (groupMemberProjection) TableName() string {
	return "group_members"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
