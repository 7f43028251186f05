package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "meetfix/contexts/event-coordination/event-service/application"
	"meetfix/contexts/event-coordination/event-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/event-service/domain/errors"
	"meetfix/contexts/event-coordination/event-service/domain/services"
	"meetfix/contexts/event-coordination/event-service/ports"
	contractsv1 "meetfix/contracts/gen/events/v1"
)

const maxEventNameLength = 120

// SlotInput is a proposed date/time as the client enters it.
type SlotInput struct {
	Date     string
	Time     string
	Duration string
	Timezone string
}

type CreateEventCommand struct {
	UserID         string
	IdempotencyKey string
	GroupID        string
	Name           string
	Slots          []SlotInput
	Activities     []string
}

type CreateEventResult struct {
	Event      entities.Event
	Slots      []entities.Slot
	Activities []entities.Activity
	Replayed   bool
}

type AddSlotCommand struct {
	UserID  string
	EventID string
	Slot    SlotInput
}

type AddActivityCommand struct {
	UserID  string
	EventID string
	Name    string
}

type SetTimelineCommand struct {
	UserID      string
	EventID     string
	DressUpTime *time.Time
	TravelTime  *time.Time
}

// EventUseCase owns event creation and the option/timeline edits members make
// while an event is being planned.
type EventUseCase struct {
	Events         ports.EventRepository
	Timelines      ports.TimelineRepository
	Groups         ports.GroupDirectory
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// CreateEvent writes the event, its slots and activities and the
// event.created outbox record as one unit.
func (uc EventUseCase) CreateEvent(ctx context.Context, cmd CreateEventCommand) (CreateEventResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	groupID := strings.TrimSpace(cmd.GroupID)
	if userID == "" {
		return CreateEventResult{}, domainerrors.ErrUnauthenticated
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateEventResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	name := strings.TrimSpace(cmd.Name)
	if groupID == "" || name == "" || len([]rune(name)) > maxEventNameLength {
		return CreateEventResult{}, domainerrors.ErrInvalidEventInput
	}
	if len(cmd.Slots) == 0 || len(cmd.Slots) > entities.MaxSlotsPerEvent ||
		len(cmd.Activities) > entities.MaxActivitiesPerEvent {
		logger.Warn("event create option count rejected",
			"event", "event_create_validation_failed",
			"module", "event-coordination/event-service",
			"layer", "application",
			"user_id", userID,
			"group_id", groupID,
			"slot_count", len(cmd.Slots),
			"activity_count", len(cmd.Activities),
		)
		return CreateEventResult{}, domainerrors.ErrInvalidEventInput
	}

	now := uc.now()
	requestHash := hashCreateEventCommand(cmd)
	if record, found, err := uc.Idempotency.GetRecord(ctx, cmd.IdempotencyKey, now); err != nil {
		return CreateEventResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			logger.Warn("event create idempotency conflict",
				"event", "event_create_idempotency_conflict",
				"module", "event-coordination/event-service",
				"layer", "application",
				"user_id", userID,
				"group_id", groupID,
			)
			return CreateEventResult{}, domainerrors.ErrIdempotencyConflict
		}
		return uc.replayCreate(ctx, string(record.ResponsePayload))
	}

	if err := requireMember(ctx, uc.Groups, groupID, userID); err != nil {
		return CreateEventResult{}, err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateEventResult{}, err
	}
	event := entities.Event{
		EventID:   eventID,
		GroupID:   groupID,
		Name:      name,
		Status:    entities.EventStatusOpen,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	slots := make([]entities.Slot, 0, len(cmd.Slots))
	for index, input := range cmd.Slots {
		slot, err := uc.buildSlot(ctx, eventID, userID, input, now.Add(time.Duration(index)*time.Microsecond))
		if err != nil {
			return CreateEventResult{}, err
		}
		slots = append(slots, slot)
	}

	activities := make([]entities.Activity, 0, len(cmd.Activities))
	seen := make(map[string]struct{}, len(cmd.Activities))
	for index, raw := range cmd.Activities {
		activityName := strings.TrimSpace(raw)
		if activityName == "" {
			return CreateEventResult{}, domainerrors.ErrInvalidEventInput
		}
		key := strings.ToLower(activityName)
		if _, duplicate := seen[key]; duplicate {
			continue
		}
		seen[key] = struct{}{}
		activityID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return CreateEventResult{}, err
		}
		activities = append(activities, entities.Activity{
			ActivityID: activityID,
			EventID:    eventID,
			Name:       activityName,
			CreatedBy:  userID,
			CreatedAt:  now.Add(time.Duration(index) * time.Microsecond),
		})
	}

	envelopeID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateEventResult{}, err
	}
	envelope, err := newEventEnvelope(envelopeID, contractsv1.EventCreated, event, userID, now)
	if err != nil {
		return CreateEventResult{}, err
	}
	record := ports.IdempotencyRecord{
		Key:             cmd.IdempotencyKey,
		RequestHash:     requestHash,
		ResponsePayload: []byte(eventID),
		ExpiresAt:       now.Add(uc.resolveIdempotencyTTL()),
	}
	err = uc.Events.CreateEvent(ctx, event, slots, activities, []ports.EventEnvelope{envelope}, record)
	if errors.Is(err, domainerrors.ErrIdempotencyKeyInUse) {
		return uc.replayRecorded(ctx, cmd.IdempotencyKey, requestHash, now)
	}
	if err != nil {
		logger.Error("event create failed",
			"event", "event_create_failed",
			"module", "event-coordination/event-service",
			"layer", "application",
			"user_id", userID,
			"group_id", groupID,
			"error", err.Error(),
		)
		return CreateEventResult{}, err
	}

	logger.Info("event created",
		"event", "event_created",
		"module", "event-coordination/event-service",
		"layer", "application",
		"event_id", eventID,
		"group_id", groupID,
		"user_id", userID,
		"slot_count", len(slots),
		"activity_count", len(activities),
	)
	return CreateEventResult{
		Event:      event,
		Slots:      services.OrderSlots(slots),
		Activities: activities,
	}, nil
}

// AddSlot proposes another date while the event is open.
func (uc EventUseCase) AddSlot(ctx context.Context, cmd AddSlotCommand) (entities.Slot, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return entities.Slot{}, domainerrors.ErrUnauthenticated
	}
	event, err := uc.Events.GetEvent(ctx, strings.TrimSpace(cmd.EventID))
	if err != nil {
		return entities.Slot{}, err
	}
	if err := requireMember(ctx, uc.Groups, event.GroupID, userID); err != nil {
		return entities.Slot{}, err
	}
	if !event.IsOpen() {
		return entities.Slot{}, domainerrors.ErrEventLocked
	}
	slot, err := uc.buildSlot(ctx, event.EventID, userID, cmd.Slot, uc.now())
	if err != nil {
		return entities.Slot{}, err
	}
	if err := uc.Events.AddSlot(ctx, slot, entities.MaxSlotsPerEvent); err != nil {
		return entities.Slot{}, err
	}
	application.ResolveLogger(uc.Logger).Info("event slot added",
		"event", "event_slot_added",
		"module", "event-coordination/event-service",
		"layer", "application",
		"event_id", event.EventID,
		"slot_id", slot.SlotID,
		"user_id", userID,
	)
	return slot, nil
}

func (uc EventUseCase) AddActivity(ctx context.Context, cmd AddActivityCommand) (entities.Activity, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return entities.Activity{}, domainerrors.ErrUnauthenticated
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return entities.Activity{}, domainerrors.ErrInvalidEventInput
	}
	event, err := uc.Events.GetEvent(ctx, strings.TrimSpace(cmd.EventID))
	if err != nil {
		return entities.Activity{}, err
	}
	if err := requireMember(ctx, uc.Groups, event.GroupID, userID); err != nil {
		return entities.Activity{}, err
	}
	if !event.IsOpen() {
		return entities.Activity{}, domainerrors.ErrEventLocked
	}
	activityID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Activity{}, err
	}
	activity := entities.Activity{
		ActivityID: activityID,
		EventID:    event.EventID,
		Name:       name,
		CreatedBy:  userID,
		CreatedAt:  uc.now(),
	}
	if err := uc.Events.AddActivity(ctx, activity, entities.MaxActivitiesPerEvent); err != nil {
		return entities.Activity{}, err
	}
	return activity, nil
}

// SetTimeline stores the caller's personal dress-up and travel times. Nil
// values clear the field.
func (uc EventUseCase) SetTimeline(ctx context.Context, cmd SetTimelineCommand) (entities.Timeline, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return entities.Timeline{}, domainerrors.ErrUnauthenticated
	}
	event, err := uc.Events.GetEvent(ctx, strings.TrimSpace(cmd.EventID))
	if err != nil {
		return entities.Timeline{}, err
	}
	if err := requireMember(ctx, uc.Groups, event.GroupID, userID); err != nil {
		return entities.Timeline{}, err
	}
	if cmd.DressUpTime != nil && cmd.TravelTime != nil && cmd.TravelTime.Before(*cmd.DressUpTime) {
		return entities.Timeline{}, domainerrors.ErrInvalidEventInput
	}

	timeline := entities.Timeline{
		EventID:     event.EventID,
		UserID:      userID,
		DressUpTime: utcPointer(cmd.DressUpTime),
		TravelTime:  utcPointer(cmd.TravelTime),
		UpdatedAt:   uc.now(),
	}
	if err := uc.Timelines.UpsertTimeline(ctx, timeline); err != nil {
		return entities.Timeline{}, err
	}
	return timeline, nil
}

func (uc EventUseCase) buildSlot(
	ctx context.Context,
	eventID string,
	userID string,
	input SlotInput,
	createdAt time.Time,
) (entities.Slot, error) {
	slotAt, minutes, err := services.ResolveSlotTime(input.Date, input.Time, input.Duration, input.Timezone)
	if err != nil {
		return entities.Slot{}, err
	}
	slotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Slot{}, err
	}
	return entities.Slot{
		SlotID:          slotID,
		EventID:         eventID,
		SlotAt:          slotAt,
		DurationMinutes: minutes,
		CreatedBy:       userID,
		CreatedAt:       createdAt,
	}, nil
}

// replayRecorded answers a request that lost the race for its key to a
// concurrent create.
func (uc EventUseCase) replayRecorded(ctx context.Context, key string, requestHash string, now time.Time) (CreateEventResult, error) {
	record, found, err := uc.Idempotency.GetRecord(ctx, key, now)
	if err != nil {
		return CreateEventResult{}, err
	}
	if !found {
		return CreateEventResult{}, domainerrors.ErrConflict
	}
	if record.RequestHash != requestHash {
		return CreateEventResult{}, domainerrors.ErrIdempotencyConflict
	}
	return uc.replayCreate(ctx, string(record.ResponsePayload))
}

func (uc EventUseCase) replayCreate(ctx context.Context, eventID string) (CreateEventResult, error) {
	event, err := uc.Events.GetEvent(ctx, eventID)
	if err != nil {
		return CreateEventResult{}, err
	}
	slots, err := uc.Events.ListSlots(ctx, eventID)
	if err != nil {
		return CreateEventResult{}, err
	}
	activities, err := uc.Events.ListActivities(ctx, eventID)
	if err != nil {
		return CreateEventResult{}, err
	}
	return CreateEventResult{
		Event:      event,
		Slots:      services.OrderSlots(slots),
		Activities: services.OrderActivities(activities),
		Replayed:   true,
	}, nil
}

func (uc EventUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc EventUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func requireMember(ctx context.Context, groups ports.GroupDirectory, groupID string, userID string) error {
	if groups == nil {
		return nil
	}
	member, err := groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return domainerrors.ErrNotGroupMember
	}
	return nil
}

func utcPointer(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	converted := value.UTC()
	return &converted
}

func hashCreateEventCommand(cmd CreateEventCommand) string {
	payload, _ := json.Marshal(struct {
		UserID     string      `json:"user_id"`
		GroupID    string      `json:"group_id"`
		Name       string      `json:"name"`
		Slots      []SlotInput `json:"slots"`
		Activities []string    `json:"activities"`
	}{
		UserID:     strings.TrimSpace(cmd.UserID),
		GroupID:    strings.TrimSpace(cmd.GroupID),
		Name:       strings.TrimSpace(cmd.Name),
		Slots:      cmd.Slots,
		Activities: cmd.Activities,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
