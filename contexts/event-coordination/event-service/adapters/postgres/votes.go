package postgresadapter

import (
	"context"
	"errors"
	"strings"

	"meetfix/contexts/event-coordination/event-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/event-service/domain/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errAlreadyVoted = errors.New("user already holds a vote")

type ledgerTable struct {
	votes        string
	optionColumn string
	options      string
	notFound     error
}

var ledgerTables = map[entities.VoteCategory]ledgerTable{
	entities.VoteCategorySlot: {
		votes:        "slot_votes",
		optionColumn: "slot_id",
		options:      "event_slots",
		notFound:     domainerrors.ErrSlotNotFound,
	},
	entities.VoteCategoryActivity: {
		votes:        "activity_votes",
		optionColumn: "activity_id",
		options:      "event_activities",
		notFound:     domainerrors.ErrActivityNotFound,
	},
}

// CastVote upserts on the (event_id, user_id) unique index so a repeated or
// concurrent cast by the same user moves the one existing row instead of
// adding a second. The event row is share-locked, which makes a concurrent
// finalize wait for in-flight votes and later votes see the new status.
func (r *Repository) CastVote(ctx context.Context, vote entities.Vote) error {
	table, ok := ledgerTables[vote.Category]
	if !ok {
		return domainerrors.ErrInvalidVoteInput
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOpenEvent(tx, vote.EventID, "SHARE"); err != nil {
			return err
		}
		if err := checkOption(tx, table, vote.EventID, vote.OptionID); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{table.optionColumn, "created_at"}),
		}).Create(voteRow(vote)).Error
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return r.logError("event_repo_cast_vote_failed", err,
			"event_id", vote.EventID,
			"user_id", vote.UserID,
			"category", string(vote.Category),
		)
	}
	return nil
}

func (r *Repository) RetractVote(
	ctx context.Context,
	eventID string,
	userID string,
	category entities.VoteCategory,
) (bool, error) {
	if _, ok := ledgerTables[category]; !ok {
		return false, domainerrors.ErrInvalidVoteInput
	}
	eventID = strings.TrimSpace(eventID)
	userID = strings.TrimSpace(userID)
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOpenEvent(tx, eventID, "SHARE"); err != nil {
			return err
		}
		result := tx.Where("event_id = ? AND user_id = ?", eventID, userID).
			Delete(voteRow(entities.Vote{Category: category}))
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return false, err
		}
		return false, r.logError("event_repo_retract_vote_failed", err,
			"event_id", eventID,
			"user_id", userID,
			"category", string(category),
		)
	}
	return removed, nil
}

func (r *Repository) GetUserVotes(ctx context.Context, eventID string, userID string) (entities.UserVotes, error) {
	votes, err := userVotes(r.db.WithContext(ctx), strings.TrimSpace(eventID), strings.TrimSpace(userID))
	if err != nil {
		return entities.UserVotes{}, r.logError("event_repo_get_user_votes_failed", err,
			"event_id", strings.TrimSpace(eventID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return votes, nil
}

// CastVotesIfNone takes the event row FOR UPDATE so two auto-fix calls for the
// same user cannot both observe an empty ledger. A unique violation means a
// concurrent toggle won and is reported as not applied.
func (r *Repository) CastVotesIfNone(
	ctx context.Context,
	eventID string,
	userID string,
	votes []entities.Vote,
) (bool, error) {
	eventID = strings.TrimSpace(eventID)
	userID = strings.TrimSpace(userID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOpenEvent(tx, eventID, "UPDATE"); err != nil {
			return err
		}
		existing, err := userVotes(tx, eventID, userID)
		if err != nil {
			return err
		}
		if existing.HasAny() {
			return errAlreadyVoted
		}
		for _, vote := range votes {
			table, ok := ledgerTables[vote.Category]
			if !ok {
				return domainerrors.ErrInvalidVoteInput
			}
			if err := checkOption(tx, table, vote.EventID, vote.OptionID); err != nil {
				return err
			}
			if err := tx.Create(voteRow(vote)).Error; err != nil {
				if isUniqueViolation(err) {
					return errAlreadyVoted
				}
				return err
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, errAlreadyVoted):
		return false, nil
	case err == nil:
		return len(votes) > 0, nil
	case isDomainError(err):
		return false, err
	default:
		return false, r.logError("event_repo_autofix_votes_failed", err, "event_id", eventID, "user_id", userID)
	}
}

type optionCount struct {
	OptionID string `gorm:"column:option_id"`
	Votes    int    `gorm:"column:votes"`
}

func countVotes(tx *gorm.DB, eventID string, category entities.VoteCategory) (map[string]int, error) {
	table := ledgerTables[category]
	var rows []optionCount
	if err := tx.Table(table.votes).
		Select(table.optionColumn+" AS option_id, COUNT(*) AS votes").
		Where("event_id = ?", eventID).
		Group(table.optionColumn).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Votes
	}
	return counts, nil
}

func userVotes(tx *gorm.DB, eventID string, userID string) (entities.UserVotes, error) {
	var result entities.UserVotes
	for category, table := range ledgerTables {
		var optionIDs []string
		if err := tx.Table(table.votes).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Limit(1).
			Pluck(table.optionColumn, &optionIDs).Error; err != nil {
			return entities.UserVotes{}, err
		}
		if len(optionIDs) == 0 {
			continue
		}
		if category == entities.VoteCategorySlot {
			result.SlotID = optionIDs[0]
		} else {
			result.ActivityID = optionIDs[0]
		}
	}
	return result, nil
}

func checkOption(tx *gorm.DB, table ledgerTable, eventID string, optionID string) error {
	var count int64
	if err := tx.Table(table.options).
		Where("id = ? AND event_id = ?", strings.TrimSpace(optionID), strings.TrimSpace(eventID)).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return table.notFound
	}
	return nil
}

func voteRow(vote entities.Vote) any {
	if vote.Category == entities.VoteCategoryActivity {
		return &activityVoteModel{
			ID:         strings.TrimSpace(vote.VoteID),
			EventID:    strings.TrimSpace(vote.EventID),
			ActivityID: strings.TrimSpace(vote.OptionID),
			UserID:     strings.TrimSpace(vote.UserID),
			CreatedAt:  vote.CreatedAt.UTC(),
		}
	}
	return &slotVoteModel{
		ID:        strings.TrimSpace(vote.VoteID),
		EventID:   strings.TrimSpace(vote.EventID),
		SlotID:    strings.TrimSpace(vote.OptionID),
		UserID:    strings.TrimSpace(vote.UserID),
		CreatedAt: vote.CreatedAt.UTC(),
	}
}
