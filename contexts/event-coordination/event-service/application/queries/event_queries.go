package queries

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	application "meetfix/contexts/event-coordination/event-service/application"
	"meetfix/contexts/event-coordination/event-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/event-service/domain/errors"
	"meetfix/contexts/event-coordination/event-service/domain/services"
	"meetfix/contexts/event-coordination/event-service/ports"
)

// EventDetail is everything a member needs to render one event.
type EventDetail struct {
	Event    entities.Event
	Tally    entities.EventTally
	MyVotes  entities.UserVotes
	Timeline *entities.Timeline
	IsOwner  bool
}

type EventQueries struct {
	Events    ports.EventRepository
	Votes     ports.VoteRepository
	Tally     ports.TallyReader
	Timelines ports.TimelineRepository
	Groups    ports.GroupDirectory
	Calendar  ports.CalendarRenderer
	Clock     ports.Clock
	Logger    *slog.Logger
}

// GetEventDetail loads the event, both tallies, the caller's own votes and
// timeline. Tallies are recomputed from the ledger on every call.
func (q EventQueries) GetEventDetail(ctx context.Context, userID string, eventID string) (EventDetail, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return EventDetail{}, domainerrors.ErrUnauthenticated
	}
	event, err := q.loadMemberEvent(ctx, userID, eventID)
	if err != nil {
		return EventDetail{}, err
	}

	var (
		slots          []entities.Slot
		activities     []entities.Activity
		slotCounts     map[string]int
		activityCounts map[string]int
		mine           entities.UserVotes
		timeline       entities.Timeline
		hasTimeline    bool
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		slots, err = q.Events.ListSlots(groupCtx, event.EventID)
		return err
	})
	group.Go(func() error {
		var err error
		activities, err = q.Events.ListActivities(groupCtx, event.EventID)
		return err
	})
	group.Go(func() error {
		var err error
		slotCounts, err = q.Tally.CountVotes(groupCtx, event.EventID, entities.VoteCategorySlot)
		return err
	})
	group.Go(func() error {
		var err error
		activityCounts, err = q.Tally.CountVotes(groupCtx, event.EventID, entities.VoteCategoryActivity)
		return err
	})
	group.Go(func() error {
		var err error
		mine, err = q.Votes.GetUserVotes(groupCtx, event.EventID, userID)
		return err
	})
	if q.Timelines != nil {
		group.Go(func() error {
			var err error
			timeline, hasTimeline, err = q.Timelines.GetTimeline(groupCtx, event.EventID, userID)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		application.ResolveLogger(q.Logger).Error("event detail load failed",
			"event", "event_detail_load_failed",
			"module", "event-coordination/event-service",
			"layer", "application",
			"event_id", event.EventID,
			"user_id", userID,
			"error", err.Error(),
		)
		return EventDetail{}, err
	}

	detail := EventDetail{
		Event:   event,
		Tally:   services.BuildEventTally(slots, activities, slotCounts, activityCounts, mine),
		MyVotes: mine,
		IsOwner: event.IsOwnedBy(userID),
	}
	if hasTimeline {
		detail.Timeline = &timeline
	}
	return detail, nil
}

// EventTally is the read-only tally view for one event and caller.
func (q EventQueries) EventTally(ctx context.Context, userID string, eventID string) (entities.EventTally, error) {
	detail, err := q.GetEventDetail(ctx, userID, eventID)
	if err != nil {
		return entities.EventTally{}, err
	}
	return detail.Tally, nil
}

// ListGroupEvents returns event summaries for a group, newest first.
func (q EventQueries) ListGroupEvents(ctx context.Context, userID string, groupID string) ([]entities.EventSummary, error) {
	userID = strings.TrimSpace(userID)
	groupID = strings.TrimSpace(groupID)
	if userID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	if err := q.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	events, err := q.Events.ListEventsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	summaries := make([]entities.EventSummary, 0, len(events))
	for _, event := range events {
		slots, err := q.Events.ListSlots(ctx, event.EventID)
		if err != nil {
			return nil, err
		}
		counts, err := q.Tally.CountVotes(ctx, event.EventID, entities.VoteCategorySlot)
		if err != nil {
			return nil, err
		}
		summary := entities.EventSummary{Event: event, SlotCount: len(slots)}
		ordered := services.OrderSlots(slots)
		if len(ordered) > 0 {
			first := ordered[0].SlotAt
			summary.FirstSlotAt = &first
		}
		for _, slot := range ordered {
			summary.TotalVotes += counts[slot.SlotID]
		}
		summaries = append(summaries, summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Event.CreatedAt.Equal(summaries[j].Event.CreatedAt) {
			return summaries[i].Event.EventID > summaries[j].Event.EventID
		}
		return summaries[i].Event.CreatedAt.After(summaries[j].Event.CreatedAt)
	})
	return summaries, nil
}

// NearestFinalizedEvent picks, across the caller's groups, the next finalized
// event that has not started yet, falling back to the most recent past one.
func (q EventQueries) NearestFinalizedEvent(ctx context.Context, userID string) (entities.Event, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.Event{}, domainerrors.ErrUnauthenticated
	}
	groupIDs, err := q.Groups.ListUserGroupIDs(ctx, userID)
	if err != nil {
		return entities.Event{}, err
	}
	if len(groupIDs) == 0 {
		return entities.Event{}, domainerrors.ErrNoFinalizedEvent
	}
	events, err := q.Events.ListFinalizedEvents(ctx, groupIDs)
	if err != nil {
		return entities.Event{}, err
	}
	return pickNearest(events, q.now())
}

// ExportICS renders a finalized event as an iCalendar document.
func (q EventQueries) ExportICS(ctx context.Context, userID string, eventID string) ([]byte, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	event, err := q.loadMemberEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsFinalized() || event.FinalizedDate == nil {
		return nil, domainerrors.ErrEventNotFinalized
	}

	minutes := entities.DefaultSlotMinutes
	slots, err := q.Events.ListSlots(ctx, event.EventID)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		if slot.SlotID == event.FinalizedSlotID && slot.DurationMinutes > 0 {
			minutes = slot.DurationMinutes
		}
	}

	summary := event.Name
	description := "Planned with MeetFix"
	if event.FinalizedActivity != nil && strings.TrimSpace(*event.FinalizedActivity) != "" {
		summary = event.Name + " - " + *event.FinalizedActivity
		description = "Activity: " + *event.FinalizedActivity
	}
	startsAt := event.FinalizedDate.UTC()
	return q.Calendar.Render(ports.CalendarEntry{
		UID:         event.EventID + "@meetfix",
		Summary:     summary,
		Description: description,
		StartsAt:    startsAt,
		EndsAt:      startsAt.Add(time.Duration(minutes) * time.Minute),
		StampedAt:   q.now(),
	})
}

// EventGroupID and EventTimelines are internal lookups for other services;
// they do no access checks.
func (q EventQueries) EventGroupID(ctx context.Context, eventID string) (string, error) {
	event, err := q.Events.GetEvent(ctx, strings.TrimSpace(eventID))
	if err != nil {
		return "", err
	}
	return event.GroupID, nil
}

func (q EventQueries) EventTimelines(ctx context.Context, eventID string) ([]entities.Timeline, error) {
	return q.Timelines.ListTimelines(ctx, strings.TrimSpace(eventID))
}

func (q EventQueries) loadMemberEvent(ctx context.Context, userID string, eventID string) (entities.Event, error) {
	event, err := q.Events.GetEvent(ctx, strings.TrimSpace(eventID))
	if err != nil {
		return entities.Event{}, err
	}
	if err := q.requireMember(ctx, event.GroupID, userID); err != nil {
		return entities.Event{}, err
	}
	return event, nil
}

func (q EventQueries) requireMember(ctx context.Context, groupID string, userID string) error {
	if q.Groups == nil {
		return nil
	}
	member, err := q.Groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return domainerrors.ErrNotGroupMember
	}
	return nil
}

func (q EventQueries) now() time.Time {
	now := time.Now().UTC()
	if q.Clock != nil {
		now = q.Clock.Now().UTC()
	}
	return now
}

func pickNearest(events []entities.Event, now time.Time) (entities.Event, error) {
	var (
		upcoming    entities.Event
		hasUpcoming bool
		past        entities.Event
		hasPast     bool
	)
	for _, event := range events {
		if !event.IsFinalized() || event.FinalizedDate == nil {
			continue
		}
		at := event.FinalizedDate.UTC()
		if !at.Before(now) {
			if !hasUpcoming || at.Before(upcoming.FinalizedDate.UTC()) {
				upcoming, hasUpcoming = event, true
			}
			continue
		}
		if !hasPast || at.After(past.FinalizedDate.UTC()) {
			past, hasPast = event, true
		}
	}
	switch {
	case hasUpcoming:
		return upcoming, nil
	case hasPast:
		return past, nil
	default:
		return entities.Event{}, domainerrors.ErrNoFinalizedEvent
	}
}
