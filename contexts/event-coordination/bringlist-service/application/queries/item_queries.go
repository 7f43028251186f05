package queries

import (
	"context"
	"log/slog"
	"strings"

	application "meetfix/contexts/event-coordination/bringlist-service/application"
	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/bringlist-service/domain/errors"
	"meetfix/contexts/event-coordination/bringlist-service/domain/services"
	"meetfix/contexts/event-coordination/bringlist-service/ports"
)

type ItemQueries struct {
	Items  ports.ItemRepository
	Claims ports.ClaimRepository
	Events ports.EventDirectory
	Logger *slog.Logger
}

func (q ItemQueries) ListItems(ctx context.Context, userID string, eventID string) ([]entities.ItemView, error) {
	logger := application.ResolveLogger(q.Logger)
	userID = strings.TrimSpace(userID)
	eventID = strings.TrimSpace(eventID)
	if userID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	if eventID == "" {
		return nil, domainerrors.ErrInvalidItemRequest
	}
	groupID, err := q.Events.EventGroupID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	member, err := q.Events.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domainerrors.ErrNotGroupMember
	}

	items, err := q.Items.ListItems(ctx, eventID)
	if err != nil {
		logger.Error("list bring items failed",
			"event", "bringlist_list_items_failed",
			"module", "event-coordination/bringlist-service",
			"layer", "application",
			"event_id", eventID,
			"error", err.Error(),
		)
		return nil, err
	}
	claims, err := q.Claims.ListClaims(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return services.BuildItemViews(items, claims, userID), nil
}

func (q ItemQueries) SuggestEmoji(query string, limit int) []entities.EmojiSuggestion {
	return services.SuggestEmoji(query, limit)
}

// ClaimsForUser lists what userID is bringing to eventID as "<emoji> <name>"
// labels in item order. It is an internal lookup and does no access checks.
func (q ItemQueries) ClaimsForUser(ctx context.Context, eventID string, userID string) ([]string, error) {
	items, err := q.Claims.ListClaimedItems(ctx, strings.TrimSpace(eventID), strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}
	services.SortItems(items)
	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, item.Label())
	}
	return labels, nil
}
