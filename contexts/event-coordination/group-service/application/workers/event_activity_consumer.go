package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "meetfix/contexts/event-coordination/group-service/application"
	"meetfix/contexts/event-coordination/group-service/ports"
	contractsv1 "meetfix/contracts/gen/events/v1"
)

const defaultEventActivityCG = "group-service-event-activity-cg"

// EventActivityConsumer keeps groups.last_event_at current so the group list
// can show the most active groups first.
type EventActivityConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Groups        ports.Repository
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c EventActivityConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("event activity consumer disabled",
			"event", "group_event_activity_consumer_disabled",
			"module", "event-coordination/group-service",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultEventActivityCG
	}
	if err := c.Subscriber.Subscribe(ctx, contractsv1.EventCreated, group, c.Handle); err != nil {
		logger.Error("event activity consumer subscribe failed",
			"event", "group_event_activity_consumer_subscribe_failed",
			"module", "event-coordination/group-service",
			"layer", "worker",
			"topic", contractsv1.EventCreated,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("event activity consumer subscribed",
		"event", "group_event_activity_consumer_started",
		"module", "event-coordination/group-service",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

// Handle applies one event.created delivery. Replays of the same envelope id
// are skipped.
func (c EventActivityConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), c.now().Add(c.dedupTTL()))
	if err != nil {
		logger.Error("event activity dedupe failed",
			"event", "group_event_activity_dedupe_failed",
			"module", "event-coordination/group-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("event.created replay skipped",
			"event", "group_event_activity_replayed",
			"module", "event-coordination/group-service",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload contractsv1.LifecyclePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("event.created payload decode failed",
			"event", "group_event_activity_decode_failed",
			"module", "event-coordination/group-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	at := event.OccurredAt
	if at.IsZero() {
		at = c.now()
	}
	if err := c.Groups.TouchLastEventAt(ctx, payload.GroupID, at.UTC()); err != nil {
		logger.Error("group last_event_at update failed",
			"event", "group_event_activity_touch_failed",
			"module", "event-coordination/group-service",
			"layer", "worker",
			"event_id", event.EventID,
			"group_id", payload.GroupID,
			"error", err.Error(),
		)
		c.release(ctx, event, logger)
		return err
	}
	logger.Info("event.created consumed",
		"event", "group_event_activity_consumed",
		"module", "event-coordination/group-service",
		"layer", "worker",
		"event_id", event.EventID,
		"group_id", payload.GroupID,
	)
	return nil
}

// release lets a redelivery of a failed envelope through the dedup store.
func (c EventActivityConsumer) release(ctx context.Context, event ports.EventEnvelope, logger *slog.Logger) {
	if err := c.Dedup.ReleaseEvent(ctx, event.EventID); err != nil {
		logger.Error("event activity dedupe release failed",
			"event", "group_event_activity_release_failed",
			"module", "event-coordination/group-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
	}
}

func (c EventActivityConsumer) now() time.Time {
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}
	return now
}

func (c EventActivityConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
