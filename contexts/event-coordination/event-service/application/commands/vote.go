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
)

// ToggleVoteCommand is the only vote mutation exposed to clients. When
// CurrentlyVoted is set the caller's vote in Category is retracted, otherwise
// a vote for TargetID is cast and replaces any previous one.
type ToggleVoteCommand struct {
	UserID         string
	EventID        string
	Category       entities.VoteCategory
	TargetID       string
	CurrentlyVoted bool
}

type ToggleVoteResult struct {
	Category entities.VoteCategory
	OptionID string
	Voted    bool
}

type AutoFixCommand struct {
	UserID  string
	EventID string
}

type AutoFixResult struct {
	Applied    bool
	SlotID     string
	ActivityID string
}

// VoteUseCase drives the vote ledger. Storage enforces one row per user,
// event and category; this layer checks identity, membership and option
// ownership.
type VoteUseCase struct {
	Events  ports.EventRepository
	Votes   ports.VoteRepository
	Tally   ports.TallyReader
	Groups  ports.GroupDirectory
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (uc VoteUseCase) ToggleVote(ctx context.Context, cmd ToggleVoteCommand) (ToggleVoteResult, error) {
	if cmd.CurrentlyVoted {
		if err := uc.RetractVote(ctx, cmd.UserID, cmd.EventID, cmd.Category); err != nil {
			return ToggleVoteResult{}, err
		}
		return ToggleVoteResult{Category: cmd.Category}, nil
	}
	vote, err := uc.CastVote(ctx, cmd.UserID, cmd.EventID, cmd.Category, cmd.TargetID)
	if err != nil {
		return ToggleVoteResult{}, err
	}
	return ToggleVoteResult{Category: vote.Category, OptionID: vote.OptionID, Voted: true}, nil
}

// CastVote records the user's vote for optionID, replacing any earlier vote
// in the same category.
func (uc VoteUseCase) CastVote(
	ctx context.Context,
	userID string,
	eventID string,
	category entities.VoteCategory,
	optionID string,
) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID = strings.TrimSpace(userID)
	optionID = strings.TrimSpace(optionID)
	if userID == "" {
		return entities.Vote{}, domainerrors.ErrUnauthenticated
	}
	if !category.Valid() || optionID == "" {
		return entities.Vote{}, domainerrors.ErrInvalidVoteInput
	}

	event, err := uc.loadVotableEvent(ctx, userID, eventID)
	if err != nil {
		return entities.Vote{}, err
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	vote := entities.Vote{
		VoteID:    voteID,
		EventID:   event.EventID,
		Category:  category,
		OptionID:  optionID,
		UserID:    userID,
		CreatedAt: uc.now(),
	}
	if err := uc.Votes.CastVote(ctx, vote); err != nil {
		logger.Warn("vote cast rejected",
			"event", "event_vote_cast_rejected",
			"module", "event-coordination/event-service",
			"layer", "application",
			"event_id", event.EventID,
			"user_id", userID,
			"category", string(category),
			"option_id", optionID,
			"error", err.Error(),
		)
		return entities.Vote{}, err
	}
	uc.recordVote(category, "cast")

	logger.Info("vote cast",
		"event", "event_vote_cast",
		"module", "event-coordination/event-service",
		"layer", "application",
		"event_id", event.EventID,
		"user_id", userID,
		"category", string(category),
		"option_id", optionID,
	)
	return vote, nil
}

// RetractVote removes the user's vote in category. Retracting when no vote
// exists is not an error.
func (uc VoteUseCase) RetractVote(ctx context.Context, userID string, eventID string, category entities.VoteCategory) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domainerrors.ErrUnauthenticated
	}
	if !category.Valid() {
		return domainerrors.ErrInvalidVoteInput
	}
	event, err := uc.loadVotableEvent(ctx, userID, eventID)
	if err != nil {
		return err
	}
	removed, err := uc.Votes.RetractVote(ctx, event.EventID, userID, category)
	if err != nil {
		return err
	}
	if removed {
		uc.recordVote(category, "retract")
	}

	application.ResolveLogger(uc.Logger).Info("vote retracted",
		"event", "event_vote_retracted",
		"module", "event-coordination/event-service",
		"layer", "application",
		"event_id", event.EventID,
		"user_id", userID,
		"category", string(category),
		"removed", removed,
	)
	return nil
}

// AutoFix votes for the current leaders on behalf of a user who has not voted
// yet. A user holding any vote in the event gets a no-op result.
func (uc VoteUseCase) AutoFix(ctx context.Context, cmd AutoFixCommand) (AutoFixResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return AutoFixResult{}, domainerrors.ErrUnauthenticated
	}
	event, err := uc.loadVotableEvent(ctx, userID, cmd.EventID)
	if err != nil {
		return AutoFixResult{}, err
	}

	mine, err := uc.Votes.GetUserVotes(ctx, event.EventID, userID)
	if err != nil {
		return AutoFixResult{}, err
	}
	if mine.HasAny() {
		return AutoFixResult{}, nil
	}

	slots, err := uc.Events.ListSlots(ctx, event.EventID)
	if err != nil {
		return AutoFixResult{}, err
	}
	if len(slots) == 0 {
		return AutoFixResult{}, domainerrors.ErrNoSlots
	}
	activities, err := uc.Events.ListActivities(ctx, event.EventID)
	if err != nil {
		return AutoFixResult{}, err
	}
	slotCounts, err := uc.Tally.CountVotes(ctx, event.EventID, entities.VoteCategorySlot)
	if err != nil {
		return AutoFixResult{}, err
	}
	activityCounts := map[string]int{}
	if len(activities) > 0 {
		activityCounts, err = uc.Tally.CountVotes(ctx, event.EventID, entities.VoteCategoryActivity)
		if err != nil {
			return AutoFixResult{}, err
		}
	}

	tally := services.BuildEventTally(slots, activities, slotCounts, activityCounts, entities.UserVotes{})
	now := uc.now()
	result := AutoFixResult{}
	votes := make([]entities.Vote, 0, 2)
	if leader, ok := services.Leader(tally.Slots); ok {
		vote, err := uc.newVote(ctx, event.EventID, userID, entities.VoteCategorySlot, leader.Slot.SlotID, now)
		if err != nil {
			return AutoFixResult{}, err
		}
		votes = append(votes, vote)
		result.SlotID = leader.Slot.SlotID
	}
	if leader, ok := services.Leader(tally.Activities); ok {
		vote, err := uc.newVote(ctx, event.EventID, userID, entities.VoteCategoryActivity, leader.Activity.ActivityID, now)
		if err != nil {
			return AutoFixResult{}, err
		}
		votes = append(votes, vote)
		result.ActivityID = leader.Activity.ActivityID
	}

	applied, err := uc.Votes.CastVotesIfNone(ctx, event.EventID, userID, votes)
	if err != nil {
		return AutoFixResult{}, err
	}
	if !applied {
		logger.Info("auto-fix skipped; user already voted",
			"event", "event_autofix_skipped",
			"module", "event-coordination/event-service",
			"layer", "application",
			"event_id", event.EventID,
			"user_id", userID,
		)
		return AutoFixResult{}, nil
	}
	for _, vote := range votes {
		uc.recordVote(vote.Category, "autofix")
	}
	result.Applied = true

	logger.Info("auto-fix votes cast",
		"event", "event_autofix_applied",
		"module", "event-coordination/event-service",
		"layer", "application",
		"event_id", event.EventID,
		"user_id", userID,
		"slot_id", result.SlotID,
		"activity_id", result.ActivityID,
	)
	return result, nil
}

func (uc VoteUseCase) loadVotableEvent(ctx context.Context, userID string, eventID string) (entities.Event, error) {
	event, err := uc.Events.GetEvent(ctx, strings.TrimSpace(eventID))
	if err != nil {
		return entities.Event{}, err
	}
	if err := requireMember(ctx, uc.Groups, event.GroupID, userID); err != nil {
		return entities.Event{}, err
	}
	if !event.IsOpen() {
		return entities.Event{}, domainerrors.ErrEventLocked
	}
	return event, nil
}

func (uc VoteUseCase) newVote(
	ctx context.Context,
	eventID string,
	userID string,
	category entities.VoteCategory,
	optionID string,
	now time.Time,
) (entities.Vote, error) {
	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	return entities.Vote{
		VoteID:    voteID,
		EventID:   eventID,
		Category:  category,
		OptionID:  optionID,
		UserID:    userID,
		CreatedAt: now,
	}, nil
}

func (uc VoteUseCase) recordVote(category entities.VoteCategory, action string) {
	if uc.Metrics != nil {
		uc.Metrics.VoteRecorded(string(category), action)
	}
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
