package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "meetfix/contexts/event-coordination/notification-service/application"
	"meetfix/contexts/event-coordination/notification-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/notification-service/domain/errors"
	"meetfix/contexts/event-coordination/notification-service/domain/services"
	"meetfix/contexts/event-coordination/notification-service/ports"
	contractsv1 "meetfix/contracts/gen/events/v1"
)

const defaultPackUpCG = "notification-service-packup-cg"

// PackUpConsumer schedules reminders for every member of the event's group
// once the event is packed up.
type PackUpConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Notifications ports.Repository
	Recipients    ports.RecipientDirectory
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Metrics       ports.Metrics
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c PackUpConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("pack up consumer disabled",
			"event", "notification_packup_consumer_disabled",
			"module", "event-coordination/notification-service",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultPackUpCG
	}
	if err := c.Subscriber.Subscribe(ctx, contractsv1.EventPackedUp, group, c.Handle); err != nil {
		logger.Error("pack up consumer subscribe failed",
			"event", "notification_packup_consumer_subscribe_failed",
			"module", "event-coordination/notification-service",
			"layer", "worker",
			"topic", contractsv1.EventPackedUp,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("pack up consumer subscribed",
		"event", "notification_packup_consumer_started",
		"module", "event-coordination/notification-service",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c PackUpConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := resolveNow(c.Clock)
	alreadyProcessed, err := reserve(ctx, c.Dedup, event, now, c.DedupTTL)
	if err != nil {
		logger.Error("pack up dedupe failed",
			"event", "notification_packup_dedupe_failed",
			"module", "event-coordination/notification-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		return nil
	}
	if err := c.schedule(ctx, event, now, logger); err != nil {
		if retryable(err) {
			release(ctx, c.Dedup, event, logger)
		}
		return err
	}
	return nil
}

func (c PackUpConsumer) schedule(ctx context.Context, event ports.EventEnvelope, now time.Time, logger *slog.Logger) error {
	var payload contractsv1.LifecyclePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return err
	}
	if payload.FinalizedDate == nil {
		logger.Warn("packed up event without finalized date",
			"event", "notification_packup_missing_date",
			"module", "event-coordination/notification-service",
			"layer", "worker",
			"event_id", payload.EventID,
		)
		return domainerrors.ErrEventNotFinalized
	}

	plan, err := c.buildPlan(ctx, payload)
	if err != nil {
		logger.Error("reminder plan failed",
			"event", "notification_packup_plan_failed",
			"module", "event-coordination/notification-service",
			"layer", "worker",
			"event_id", payload.EventID,
			"group_id", payload.GroupID,
			"error", err.Error(),
		)
		return err
	}
	reminders := services.BuildReminders(plan, now)
	for i := range reminders {
		id, err := c.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		reminders[i].NotificationID = id
	}
	if err := c.Notifications.ReplaceEventReminders(ctx, payload.EventID, reminders); err != nil {
		logger.Error("reminder scheduling failed",
			"event", "notification_packup_schedule_failed",
			"module", "event-coordination/notification-service",
			"layer", "worker",
			"event_id", payload.EventID,
			"error", err.Error(),
		)
		return err
	}
	if c.Metrics != nil {
		c.Metrics.RemindersScheduled(len(reminders))
	}
	logger.Info("reminders scheduled",
		"event", "notification_packup_scheduled",
		"module", "event-coordination/notification-service",
		"layer", "worker",
		"event_id", payload.EventID,
		"recipients", len(plan.Recipients),
		"reminders", len(reminders),
	)
	return nil
}

func (c PackUpConsumer) buildPlan(ctx context.Context, payload contractsv1.LifecyclePayload) (entities.ReminderPlan, error) {
	memberIDs, err := c.Recipients.ListMemberIDs(ctx, payload.GroupID)
	if err != nil {
		return entities.ReminderPlan{}, err
	}
	timelines, err := c.Recipients.ListTimelines(ctx, payload.EventID)
	if err != nil {
		return entities.ReminderPlan{}, err
	}
	timelineByUser := make(map[string]ports.MemberTimeline, len(timelines))
	for _, timeline := range timelines {
		timelineByUser[timeline.UserID] = timeline
	}

	plan := entities.ReminderPlan{
		EventID:    payload.EventID,
		EventName:  payload.Name,
		StartsAt:   payload.FinalizedDate.UTC(),
		Recipients: make([]entities.Recipient, 0, len(memberIDs)),
	}
	for _, userID := range memberIDs {
		claims, err := c.Recipients.ClaimsForUser(ctx, payload.EventID, userID)
		if err != nil {
			return entities.ReminderPlan{}, err
		}
		timeline := timelineByUser[userID]
		plan.Recipients = append(plan.Recipients, entities.Recipient{
			UserID:      userID,
			DressUpTime: timeline.DressUpTime,
			TravelTime:  timeline.TravelTime,
			Claims:      claims,
		})
	}
	return plan, nil
}
