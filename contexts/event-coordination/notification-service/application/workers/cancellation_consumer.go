package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "meetfix/contexts/event-coordination/notification-service/application"
	"meetfix/contexts/event-coordination/notification-service/ports"
	contractsv1 "meetfix/contracts/gen/events/v1"
)

const defaultCancellationCG = "notification-service-cancellation-cg"

// CancellationConsumer drops unread reminders when an event is reopened or
// deleted. Reminders already read stay in the inbox.
type CancellationConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Notifications ports.Repository
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c CancellationConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("cancellation consumer disabled",
			"event", "notification_cancellation_consumer_disabled",
			"module", "event-coordination/notification-service",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultCancellationCG
	}
	for _, topic := range []string{contractsv1.EventReopened, contractsv1.EventDeleted} {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.Handle); err != nil {
			logger.Error("cancellation consumer subscribe failed",
				"event", "notification_cancellation_consumer_subscribe_failed",
				"module", "event-coordination/notification-service",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("cancellation consumer subscribed",
		"event", "notification_cancellation_consumer_started",
		"module", "event-coordination/notification-service",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c CancellationConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	alreadyProcessed, err := reserve(ctx, c.Dedup, event, resolveNow(c.Clock), c.DedupTTL)
	if err != nil || alreadyProcessed {
		return err
	}
	if err := c.cancel(ctx, event, logger); err != nil {
		if retryable(err) {
			release(ctx, c.Dedup, event, logger)
		}
		return err
	}
	return nil
}

func (c CancellationConsumer) cancel(ctx context.Context, event ports.EventEnvelope, logger *slog.Logger) error {
	var payload contractsv1.LifecyclePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return err
	}
	removed, err := c.Notifications.DeleteUnreadForEvent(ctx, payload.EventID)
	if err != nil {
		logger.Error("reminder cancellation failed",
			"event", "notification_cancellation_failed",
			"module", "event-coordination/notification-service",
			"layer", "worker",
			"event_id", payload.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("reminders cancelled",
		"event", "notification_cancellation_completed",
		"module", "event-coordination/notification-service",
		"layer", "worker",
		"event_id", payload.EventID,
		"event_type", event.EventType,
		"removed", removed,
	)
	return nil
}
