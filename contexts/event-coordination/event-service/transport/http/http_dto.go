package http

import "time"

type SlotInput struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"omitempty,datetime=15:04"`
	Duration string `json:"duration,omitempty" validate:"omitempty,oneof=1h 2h 3h"`
	Timezone string `json:"timezone,omitempty"`
}

type CreateEventRequest struct {
	GroupID    string      `json:"group_id" validate:"required"`
	Name       string      `json:"name" validate:"required,max=120"`
	Slots      []SlotInput `json:"slots" validate:"required,min=1,max=3,dive"`
	Activities []string    `json:"activities,omitempty" validate:"max=3,dive,required,max=80"`
}

type AddSlotRequest struct {
	Slot SlotInput `json:"slot" validate:"required"`
}

type AddActivityRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// ToggleVoteRequest mirrors the client's view: currently_voted tells the server
// whether the tap should retract or cast.
type ToggleVoteRequest struct {
	Category       string `json:"category" validate:"required,oneof=slot activity"`
	TargetID       string `json:"target_id"`
	CurrentlyVoted bool   `json:"currently_voted"`
}

type FinalizeRequest struct {
	SlotID       string  `json:"slot_id,omitempty"`
	ActivityName *string `json:"activity_name,omitempty"`
}

type SetTimelineRequest struct {
	DressUpTime *time.Time `json:"dress_up_time,omitempty"`
	TravelTime  *time.Time `json:"travel_time,omitempty"`
}

type EventResponse struct {
	EventID           string     `json:"event_id"`
	GroupID           string     `json:"group_id"`
	Name              string     `json:"name"`
	Status            string     `json:"status"`
	PackedUp          bool       `json:"packed_up"`
	State             string     `json:"state"`
	CreatedBy         string     `json:"created_by"`
	FinalizedSlotID   string     `json:"finalized_slot_id,omitempty"`
	FinalizedDate     *time.Time `json:"finalized_date,omitempty"`
	FinalizedActivity *string    `json:"finalized_activity,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type SlotResponse struct {
	SlotID          string    `json:"slot_id"`
	SlotAt          time.Time `json:"slot_at"`
	EndsAt          time.Time `json:"ends_at"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedBy       string    `json:"created_by"`
}

type ActivityResponse struct {
	ActivityID string `json:"activity_id"`
	Name       string `json:"name"`
	CreatedBy  string `json:"created_by"`
}

type CreateEventResponse struct {
	Event      EventResponse      `json:"event"`
	Slots      []SlotResponse     `json:"slots"`
	Activities []ActivityResponse `json:"activities"`
	Replayed   bool               `json:"replayed"`
}

type SlotTallyItem struct {
	Slot       SlotResponse `json:"slot"`
	VoteCount  int          `json:"vote_count"`
	VotedByMe  bool         `json:"voted_by_me"`
	Percentage int          `json:"percentage"`
}

type ActivityTallyItem struct {
	Activity   ActivityResponse `json:"activity"`
	VoteCount  int              `json:"vote_count"`
	VotedByMe  bool             `json:"voted_by_me"`
	Percentage int              `json:"percentage"`
}

type TallyResponse struct {
	Slots              []SlotTallyItem     `json:"slots"`
	Activities         []ActivityTallyItem `json:"activities"`
	TotalSlotVotes     int                 `json:"total_slot_votes"`
	TotalActivityVotes int                 `json:"total_activity_votes"`
	RankedSlotIDs      []string            `json:"ranked_slot_ids"`
	RankedActivityIDs  []string            `json:"ranked_activity_ids"`
}

type TimelineResponse struct {
	EventID     string     `json:"event_id"`
	UserID      string     `json:"user_id"`
	DressUpTime *time.Time `json:"dress_up_time,omitempty"`
	TravelTime  *time.Time `json:"travel_time,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type EventDetailResponse struct {
	Event    EventResponse     `json:"event"`
	Tally    TallyResponse     `json:"tally"`
	IsOwner  bool              `json:"is_owner"`
	Timeline *TimelineResponse `json:"timeline,omitempty"`
}

type ToggleVoteResponse struct {
	Category string `json:"category"`
	OptionID string `json:"option_id,omitempty"`
	Voted    bool   `json:"voted"`
}

type AutoFixResponse struct {
	Applied    bool   `json:"applied"`
	SlotID     string `json:"slot_id,omitempty"`
	ActivityID string `json:"activity_id,omitempty"`
}

type EventSummaryItem struct {
	Event       EventResponse `json:"event"`
	FirstSlotAt *time.Time    `json:"first_slot_at,omitempty"`
	SlotCount   int           `json:"slot_count"`
	TotalVotes  int           `json:"total_votes"`
}

type ListEventsResponse struct {
	Items []EventSummaryItem `json:"items"`
}
