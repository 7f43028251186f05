package httpadapter

import (
	"context"
	"log/slog"

	"meetfix/contexts/event-coordination/event-service/application/commands"
	"meetfix/contexts/event-coordination/event-service/application/queries"
	"meetfix/contexts/event-coordination/event-service/domain/entities"
	httptransport "meetfix/contexts/event-coordination/event-service/transport/http"
)

type Handler struct {
	Events    commands.EventUseCase
	Votes     commands.VoteUseCase
	Lifecycle commands.LifecycleUseCase
	Queries   queries.EventQueries
	Logger    *slog.Logger
}

func (h Handler) CreateEventHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	req httptransport.CreateEventRequest,
) (httptransport.CreateEventResponse, error) {
	slots := make([]commands.SlotInput, 0, len(req.Slots))
	for _, slot := range req.Slots {
		slots = append(slots, toSlotInput(slot))
	}
	result, err := h.Events.CreateEvent(ctx, commands.CreateEventCommand{
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		GroupID:        req.GroupID,
		Name:           req.Name,
		Slots:          slots,
		Activities:     req.Activities,
	})
	if err != nil {
		return httptransport.CreateEventResponse{}, err
	}
	response := httptransport.CreateEventResponse{
		Event:      mapEvent(result.Event),
		Slots:      make([]httptransport.SlotResponse, 0, len(result.Slots)),
		Activities: make([]httptransport.ActivityResponse, 0, len(result.Activities)),
		Replayed:   result.Replayed,
	}
	for _, slot := range result.Slots {
		response.Slots = append(response.Slots, mapSlot(slot))
	}
	for _, activity := range result.Activities {
		response.Activities = append(response.Activities, mapActivity(activity))
	}
	return response, nil
}

func (h Handler) GetEventHandler(ctx context.Context, userID string, eventID string) (httptransport.EventDetailResponse, error) {
	detail, err := h.Queries.GetEventDetail(ctx, userID, eventID)
	if err != nil {
		return httptransport.EventDetailResponse{}, err
	}
	response := httptransport.EventDetailResponse{
		Event:   mapEvent(detail.Event),
		Tally:   mapTally(detail.Tally),
		IsOwner: detail.IsOwner,
	}
	if detail.Timeline != nil {
		timeline := mapTimeline(*detail.Timeline)
		response.Timeline = &timeline
	}
	return response, nil
}

func (h Handler) TallyHandler(ctx context.Context, userID string, eventID string) (httptransport.TallyResponse, error) {
	tally, err := h.Queries.EventTally(ctx, userID, eventID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return mapTally(tally), nil
}

func (h Handler) ListGroupEventsHandler(ctx context.Context, userID string, groupID string) (httptransport.ListEventsResponse, error) {
	summaries, err := h.Queries.ListGroupEvents(ctx, userID, groupID)
	if err != nil {
		return httptransport.ListEventsResponse{}, err
	}
	items := make([]httptransport.EventSummaryItem, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, httptransport.EventSummaryItem{
			Event:       mapEvent(summary.Event),
			FirstSlotAt: summary.FirstSlotAt,
			SlotCount:   summary.SlotCount,
			TotalVotes:  summary.TotalVotes,
		})
	}
	return httptransport.ListEventsResponse{Items: items}, nil
}

func (h Handler) NearestEventHandler(ctx context.Context, userID string) (httptransport.EventResponse, error) {
	event, err := h.Queries.NearestFinalizedEvent(ctx, userID)
	if err != nil {
		return httptransport.EventResponse{}, err
	}
	return mapEvent(event), nil
}

func (h Handler) ExportICSHandler(ctx context.Context, userID string, eventID string) ([]byte, error) {
	return h.Queries.ExportICS(ctx, userID, eventID)
}

func (h Handler) AddSlotHandler(
	ctx context.Context,
	userID string,
	eventID string,
	req httptransport.AddSlotRequest,
) (httptransport.SlotResponse, error) {
	slot, err := h.Events.AddSlot(ctx, commands.AddSlotCommand{
		UserID:  userID,
		EventID: eventID,
		Slot:    toSlotInput(req.Slot),
	})
	if err != nil {
		return httptransport.SlotResponse{}, err
	}
	return mapSlot(slot), nil
}

func (h Handler) AddActivityHandler(
	ctx context.Context,
	userID string,
	eventID string,
	req httptransport.AddActivityRequest,
) (httptransport.ActivityResponse, error) {
	activity, err := h.Events.AddActivity(ctx, commands.AddActivityCommand{
		UserID:  userID,
		EventID: eventID,
		Name:    req.Name,
	})
	if err != nil {
		return httptransport.ActivityResponse{}, err
	}
	return mapActivity(activity), nil
}

func (h Handler) SetTimelineHandler(
	ctx context.Context,
	userID string,
	eventID string,
	req httptransport.SetTimelineRequest,
) (httptransport.TimelineResponse, error) {
	timeline, err := h.Events.SetTimeline(ctx, commands.SetTimelineCommand{
		UserID:      userID,
		EventID:     eventID,
		DressUpTime: req.DressUpTime,
		TravelTime:  req.TravelTime,
	})
	if err != nil {
		return httptransport.TimelineResponse{}, err
	}
	return mapTimeline(timeline), nil
}

func (h Handler) ToggleVoteHandler(
	ctx context.Context,
	userID string,
	eventID string,
	req httptransport.ToggleVoteRequest,
) (httptransport.ToggleVoteResponse, error) {
	result, err := h.Votes.ToggleVote(ctx, commands.ToggleVoteCommand{
		UserID:         userID,
		EventID:        eventID,
		Category:       entities.VoteCategory(req.Category),
		TargetID:       req.TargetID,
		CurrentlyVoted: req.CurrentlyVoted,
	})
	if err != nil {
		return httptransport.ToggleVoteResponse{}, err
	}
	return httptransport.ToggleVoteResponse{
		Category: string(result.Category),
		OptionID: result.OptionID,
		Voted:    result.Voted,
	}, nil
}

func (h Handler) AutoFixHandler(ctx context.Context, userID string, eventID string) (httptransport.AutoFixResponse, error) {
	result, err := h.Votes.AutoFix(ctx, commands.AutoFixCommand{UserID: userID, EventID: eventID})
	if err != nil {
		return httptransport.AutoFixResponse{}, err
	}
	return httptransport.AutoFixResponse{
		Applied:    result.Applied,
		SlotID:     result.SlotID,
		ActivityID: result.ActivityID,
	}, nil
}

func (h Handler) FinalizeHandler(
	ctx context.Context,
	userID string,
	eventID string,
	req httptransport.FinalizeRequest,
) (httptransport.EventResponse, error) {
	event, err := h.Lifecycle.Finalize(ctx, commands.FinalizeCommand{
		UserID:       userID,
		EventID:      eventID,
		SlotID:       req.SlotID,
		ActivityName: req.ActivityName,
	})
	if err != nil {
		return httptransport.EventResponse{}, err
	}
	return mapEvent(event), nil
}

func (h Handler) PackUpHandler(ctx context.Context, userID string, eventID string) (httptransport.EventResponse, error) {
	event, err := h.Lifecycle.PackUp(ctx, userID, eventID)
	if err != nil {
		return httptransport.EventResponse{}, err
	}
	return mapEvent(event), nil
}

func (h Handler) ReopenHandler(ctx context.Context, userID string, eventID string) (httptransport.EventResponse, error) {
	event, err := h.Lifecycle.Reopen(ctx, userID, eventID)
	if err != nil {
		return httptransport.EventResponse{}, err
	}
	return mapEvent(event), nil
}

func (h Handler) DeleteEventHandler(ctx context.Context, userID string, eventID string) error {
	return h.Lifecycle.DeleteEvent(ctx, userID, eventID)
}

func toSlotInput(slot httptransport.SlotInput) commands.SlotInput {
	return commands.SlotInput{
		Date:     slot.Date,
		Time:     slot.Time,
		Duration: slot.Duration,
		Timezone: slot.Timezone,
	}
}

func mapEvent(event entities.Event) httptransport.EventResponse {
	return httptransport.EventResponse{
		EventID:           event.EventID,
		GroupID:           event.GroupID,
		Name:              event.Name,
		Status:            string(event.Status),
		PackedUp:          event.PackedUp,
		State:             event.LifecycleState(),
		CreatedBy:         event.CreatedBy,
		FinalizedSlotID:   event.FinalizedSlotID,
		FinalizedDate:     event.FinalizedDate,
		FinalizedActivity: event.FinalizedActivity,
		CreatedAt:         event.CreatedAt,
		UpdatedAt:         event.UpdatedAt,
	}
}

func mapSlot(slot entities.Slot) httptransport.SlotResponse {
	return httptransport.SlotResponse{
		SlotID:          slot.SlotID,
		SlotAt:          slot.SlotAt,
		EndsAt:          slot.EndsAt(),
		DurationMinutes: slot.DurationMinutes,
		CreatedBy:       slot.CreatedBy,
	}
}

func mapActivity(activity entities.Activity) httptransport.ActivityResponse {
	return httptransport.ActivityResponse{
		ActivityID: activity.ActivityID,
		Name:       activity.Name,
		CreatedBy:  activity.CreatedBy,
	}
}

func mapTimeline(timeline entities.Timeline) httptransport.TimelineResponse {
	return httptransport.TimelineResponse{
		EventID:     timeline.EventID,
		UserID:      timeline.UserID,
		DressUpTime: timeline.DressUpTime,
		TravelTime:  timeline.TravelTime,
		UpdatedAt:   timeline.UpdatedAt,
	}
}

func mapTally(tally entities.EventTally) httptransport.TallyResponse {
	response := httptransport.TallyResponse{
		Slots:              make([]httptransport.SlotTallyItem, 0, len(tally.Slots)),
		Activities:         make([]httptransport.ActivityTallyItem, 0, len(tally.Activities)),
		TotalSlotVotes:     tally.TotalSlotVotes,
		TotalActivityVotes: tally.TotalActivityVotes,
		RankedSlotIDs:      tally.RankedSlotIDs,
		RankedActivityIDs:  tally.RankedActivityIDs,
	}
	for _, entry := range tally.Slots {
		response.Slots = append(response.Slots, httptransport.SlotTallyItem{
			Slot:       mapSlot(entry.Slot),
			VoteCount:  entry.VoteCount,
			VotedByMe:  entry.VotedByMe,
			Percentage: entry.Percentage,
		})
	}
	for _, entry := range tally.Activities {
		response.Activities = append(response.Activities, httptransport.ActivityTallyItem{
			Activity:   mapActivity(entry.Activity),
			VoteCount:  entry.VoteCount,
			VotedByMe:  entry.VotedByMe,
			Percentage: entry.Percentage,
		})
	}
	return response
}
