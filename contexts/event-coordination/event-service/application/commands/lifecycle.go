package commands

import (
	"context"
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

type FinalizeCommand struct {
	UserID       string
	EventID      string
	SlotID       string
	ActivityName *string
}

// LifecycleUseCase applies owner transitions under the event row lock and
// writes the matching outbox record in the same transaction.
type LifecycleUseCase struct {
	Events  ports.EventRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (uc LifecycleUseCase) Finalize(ctx context.Context, cmd FinalizeCommand) (entities.Event, error) {
	return uc.transition(ctx, cmd.UserID, cmd.EventID, "finalize", contractsv1.EventFinalized,
		func(snapshot entities.EventSnapshot, userID string, now time.Time) (entities.Event, error) {
			return services.Finalize(snapshot, services.FinalizeInput{
				ActorID:      userID,
				SlotID:       cmd.SlotID,
				ActivityName: cmd.ActivityName,
				Now:          now,
			})
		},
	)
}

// PackUp marks logistics as settled. Repeating it re-emits event.packed_up so
// reminders are rebuilt.
func (uc LifecycleUseCase) PackUp(ctx context.Context, userID string, eventID string) (entities.Event, error) {
	return uc.transition(ctx, userID, eventID, "pack_up", contractsv1.EventPackedUp,
		func(snapshot entities.EventSnapshot, userID string, now time.Time) (entities.Event, error) {
			return services.PackUp(snapshot.Event, userID, now)
		},
	)
}

func (uc LifecycleUseCase) Reopen(ctx context.Context, userID string, eventID string) (entities.Event, error) {
	return uc.transition(ctx, userID, eventID, "reopen", contractsv1.EventReopened,
		func(snapshot entities.EventSnapshot, userID string, now time.Time) (entities.Event, error) {
			return services.Reopen(snapshot.Event, userID, now)
		},
	)
}

// DeleteEvent removes the event with its options, votes and timelines.
func (uc LifecycleUseCase) DeleteEvent(ctx context.Context, userID string, eventID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domainerrors.ErrUnauthenticated
	}
	envelopeID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	now := uc.now()
	_, err = uc.Events.MutateEvent(ctx, strings.TrimSpace(eventID), func(snapshot entities.EventSnapshot) (ports.EventChange, error) {
		if !snapshot.Event.IsOwnedBy(userID) {
			return ports.EventChange{}, domainerrors.ErrNotEventOwner
		}
		envelope, err := newEventEnvelope(envelopeID, contractsv1.EventDeleted, snapshot.Event, userID, now)
		if err != nil {
			return ports.EventChange{}, err
		}
		return ports.EventChange{
			Event:  snapshot.Event,
			Delete: true,
			Outbox: []ports.EventEnvelope{envelope},
		}, nil
	})
	if err != nil {
		uc.logRejected("delete", eventID, userID, err)
		return err
	}
	uc.recordTransition("delete")

	application.ResolveLogger(uc.Logger).Info("event deleted",
		"event", "event_deleted",
		"module", "event-coordination/event-service",
		"layer", "application",
		"event_id", strings.TrimSpace(eventID),
		"user_id", userID,
	)
	return nil
}

type transitionFunc func(snapshot entities.EventSnapshot, userID string, now time.Time) (entities.Event, error)

func (uc LifecycleUseCase) transition(
	ctx context.Context,
	userID string,
	eventID string,
	name string,
	eventType string,
	apply transitionFunc,
) (entities.Event, error) {
	userID = strings.TrimSpace(userID)
	eventID = strings.TrimSpace(eventID)
	if userID == "" {
		return entities.Event{}, domainerrors.ErrUnauthenticated
	}
	envelopeID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Event{}, err
	}
	now := uc.now()

	updated, err := uc.Events.MutateEvent(ctx, eventID, func(snapshot entities.EventSnapshot) (ports.EventChange, error) {
		next, err := apply(snapshot, userID, now)
		if err != nil {
			return ports.EventChange{}, err
		}
		envelope, err := newEventEnvelope(envelopeID, eventType, next, userID, now)
		if err != nil {
			return ports.EventChange{}, err
		}
		return ports.EventChange{
			Event:  next,
			Outbox: []ports.EventEnvelope{envelope},
		}, nil
	})
	if err != nil {
		uc.logRejected(name, eventID, userID, err)
		return entities.Event{}, err
	}
	uc.recordTransition(name)

	application.ResolveLogger(uc.Logger).Info("event transition applied",
		"event", "event_transition_applied",
		"module", "event-coordination/event-service",
		"layer", "application",
		"transition", name,
		"event_id", eventID,
		"user_id", userID,
		"state", updated.LifecycleState(),
	)
	return updated, nil
}

func (uc LifecycleUseCase) logRejected(name string, eventID string, userID string, err error) {
	application.ResolveLogger(uc.Logger).Warn("event transition rejected",
		"event", "event_transition_rejected",
		"module", "event-coordination/event-service",
		"layer", "application",
		"transition", name,
		"event_id", strings.TrimSpace(eventID),
		"user_id", userID,
		"error", err.Error(),
	)
}

func (uc LifecycleUseCase) recordTransition(name string) {
	if uc.Metrics != nil {
		uc.Metrics.TransitionRecorded(name)
	}
}

func (uc LifecycleUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
