package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical, versioned event envelope shared by producers and
// consumers. Fields must stay backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// Event types emitted by event-service.
const (
	EventCreated   = "event.created"
	EventFinalized = "event.finalized"
	EventPackedUp  = "event.packed_up"
	EventReopened  = "event.reopened"
	EventDeleted   = "event.deleted"
)

// LifecyclePayload is the Data body of every event.* envelope.
type LifecyclePayload struct {
	EventID           string     `json:"event_id"`
	GroupID           string     `json:"group_id"`
	Name              string     `json:"name"`
	Status            string     `json:"status"`
	PackedUp          bool       `json:"packed_up"`
	FinalizedSlotID   string     `json:"finalized_slot_id,omitempty"`
	FinalizedDate     *time.Time `json:"finalized_date,omitempty"`
	FinalizedActivity *string    `json:"finalized_activity,omitempty"`
	ActorID           string     `json:"actor_id"`
	OccurredAt        time.Time  `json:"occurred_at"`
}
