package httpadapter

import (
	"context"
	"log/slog"

	"meetfix/contexts/event-coordination/bringlist-service/application/commands"
	"meetfix/contexts/event-coordination/bringlist-service/application/queries"
	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
	httptransport "meetfix/contexts/event-coordination/bringlist-service/transport/http"
)

type Handler struct {
	Items   commands.ItemUseCase
	Claims  commands.ClaimUseCase
	Queries queries.ItemQueries
	Logger  *slog.Logger
}

func (h Handler) AddItemHandler(
	ctx context.Context,
	userID string,
	eventID string,
	req httptransport.AddItemRequest,
) (httptransport.ItemResponse, error) {
	item, err := h.Items.AddItem(ctx, commands.AddItemCommand{
		UserID:      userID,
		EventID:     eventID,
		Name:        req.Name,
		Emoji:       req.Emoji,
		MaxQuantity: req.MaxQuantity,
	})
	if err != nil {
		return httptransport.ItemResponse{}, err
	}
	return mapItem(item), nil
}

func (h Handler) ListItemsHandler(ctx context.Context, userID string, eventID string) (httptransport.ListItemsResponse, error) {
	views, err := h.Queries.ListItems(ctx, userID, eventID)
	if err != nil {
		return httptransport.ListItemsResponse{}, err
	}
	response := httptransport.ListItemsResponse{
		Items: make([]httptransport.ItemViewResponse, 0, len(views)),
	}
	for _, view := range views {
		response.Items = append(response.Items, httptransport.ItemViewResponse{
			ItemResponse: mapItem(view.Item),
			ClaimCount:   view.ClaimCount,
			ClaimedByMe:  view.ClaimedByMe,
			ClaimerIDs:   view.ClaimerIDs,
			Remaining:    view.Remaining,
		})
	}
	return response, nil
}

func (h Handler) ClaimItemHandler(ctx context.Context, userID string, itemID string) (httptransport.ClaimResponse, error) {
	result, err := h.Claims.ClaimItem(ctx, userID, itemID)
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	return httptransport.ClaimResponse{
		ClaimID:   result.Claim.ClaimID,
		ItemID:    result.Claim.ItemID,
		EventID:   result.Claim.EventID,
		UserID:    result.Claim.UserID,
		ClaimedAt: result.Claim.ClaimedAt,
		Replayed:  result.Replayed,
	}, nil
}

func (h Handler) UnclaimItemHandler(ctx context.Context, userID string, itemID string) error {
	return h.Claims.UnclaimItem(ctx, userID, itemID)
}

func (h Handler) DeleteItemHandler(ctx context.Context, userID string, itemID string) error {
	return h.Items.DeleteItem(ctx, userID, itemID)
}

func (h Handler) SuggestEmojiHandler(query string, limit int) httptransport.SuggestEmojiResponse {
	suggestions := h.Queries.SuggestEmoji(query, limit)
	response := httptransport.SuggestEmojiResponse{
		Items: make([]httptransport.EmojiSuggestionResponse, 0, len(suggestions)),
	}
	for _, suggestion := range suggestions {
		response.Items = append(response.Items, httptransport.EmojiSuggestionResponse{
			Keyword: suggestion.Keyword,
			Emoji:   suggestion.Emoji,
		})
	}
	return response
}

func mapItem(item entities.BringItem) httptransport.ItemResponse {
	return httptransport.ItemResponse{
		ItemID:      item.ItemID,
		EventID:     item.EventID,
		Name:        item.Name,
		Emoji:       item.Emoji,
		MaxQuantity: item.MaxQuantity,
		CreatedBy:   item.CreatedBy,
		CreatedAt:   item.CreatedAt,
	}
}
