package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "meetfix/contexts/event-coordination/event-service/application"
	"meetfix/contexts/event-coordination/event-service/ports"
)

// OutboxRelay publishes persisted outbox records to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Metrics   ports.Metrics
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows and marks each row
// published only after the bus accepts it. It stops on the first failure so
// the next tick retries the remaining rows.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("event outbox list failed",
			"event", "event_outbox_list_failed",
			"module", "event-coordination/event-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("event outbox relay found no pending rows",
			"event", "event_outbox_relay_noop",
			"module", "event-coordination/event-service",
			"layer", "worker",
			"batch_size", limit,
		)
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("event outbox decode failed",
				"event", "event_outbox_decode_failed",
				"module", "event-coordination/event-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("event outbox publish failed",
				"event", "event_outbox_publish_failed",
				"module", "event-coordination/event-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("event outbox mark published failed",
				"event", "event_outbox_mark_published_failed",
				"module", "event-coordination/event-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if r.Metrics != nil {
			r.Metrics.OutboxPublished(topic)
		}
	}

	logger.Info("event outbox relay cycle completed",
		"event", "event_outbox_relay_completed",
		"module", "event-coordination/event-service",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
