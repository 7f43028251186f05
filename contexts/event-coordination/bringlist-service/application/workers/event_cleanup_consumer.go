package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "meetfix/contexts/event-coordination/bringlist-service/application"
	"meetfix/contexts/event-coordination/bringlist-service/ports"
	contractsv1 "meetfix/contracts/gen/events/v1"
)

const defaultEventCleanupCG = "bringlist-service-event-cleanup-cg"

// EventCleanupConsumer drops the bring list of a deleted event.
type EventCleanupConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Items         ports.ItemRepository
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c EventCleanupConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("event cleanup consumer disabled",
			"event", "bringlist_event_cleanup_consumer_disabled",
			"module", "event-coordination/bringlist-service",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultEventCleanupCG
	}
	if err := c.Subscriber.Subscribe(ctx, contractsv1.EventDeleted, group, c.Handle); err != nil {
		logger.Error("event cleanup consumer subscribe failed",
			"event", "bringlist_event_cleanup_consumer_subscribe_failed",
			"module", "event-coordination/bringlist-service",
			"layer", "worker",
			"topic", contractsv1.EventDeleted,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("event cleanup consumer subscribed",
		"event", "bringlist_event_cleanup_consumer_started",
		"module", "event-coordination/bringlist-service",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c EventCleanupConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	sum := sha256.Sum256(event.Data)
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hex.EncodeToString(sum[:]), c.now().Add(c.dedupTTL()))
	if err != nil {
		return err
	}
	if alreadyProcessed {
		return nil
	}

	var payload contractsv1.LifecyclePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("event.deleted payload decode failed",
			"event", "bringlist_event_cleanup_decode_failed",
			"module", "event-coordination/bringlist-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	removed, err := c.Items.DeleteEventItems(ctx, payload.EventID)
	if err != nil {
		logger.Error("bring list cleanup failed",
			"event", "bringlist_event_cleanup_failed",
			"module", "event-coordination/bringlist-service",
			"layer", "worker",
			"event_id", payload.EventID,
			"error", err.Error(),
		)
		if releaseErr := c.Dedup.ReleaseEvent(ctx, event.EventID); releaseErr != nil {
			return errors.Join(err, releaseErr)
		}
		return err
	}
	logger.Info("bring list cleaned up",
		"event", "bringlist_event_cleanup_completed",
		"module", "event-coordination/bringlist-service",
		"layer", "worker",
		"event_id", payload.EventID,
		"items_removed", removed,
	)
	return nil
}

func (c EventCleanupConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (c EventCleanupConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}
