package commands

import (
	"encoding/json"
	"time"

	"meetfix/contexts/event-coordination/event-service/domain/entities"
	"meetfix/contexts/event-coordination/event-service/ports"
	contractsv1 "meetfix/contracts/gen/events/v1"
)

func newEventEnvelope(
	envelopeID string,
	eventType string,
	event entities.Event,
	actorID string,
	occurredAt time.Time,
) (ports.EventEnvelope, error) {
	// Lifecycle events are partitioned by event so consumers see
	// finalize/pack-up/reopen in order.
	payload, err := json.Marshal(contractsv1.LifecyclePayload{
		EventID:           event.EventID,
		GroupID:           event.GroupID,
		Name:              event.Name,
		Status:            event.LifecycleState(),
		PackedUp:          event.PackedUp,
		FinalizedSlotID:   event.FinalizedSlotID,
		FinalizedDate:     event.FinalizedDate,
		FinalizedActivity: event.FinalizedActivity,
		ActorID:           actorID,
		OccurredAt:        occurredAt.UTC(),
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          envelopeID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "event-service",
		TraceID:          envelopeID,
		SchemaVersion:    1,
		PartitionKeyPath: "event_id",
		PartitionKey:     event.EventID,
		Data:             payload,
	}, nil
}
