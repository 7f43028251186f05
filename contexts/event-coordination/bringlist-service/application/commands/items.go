package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "meetfix/contexts/event-coordination/bringlist-service/application"
	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/bringlist-service/domain/errors"
	"meetfix/contexts/event-coordination/bringlist-service/domain/services"
	"meetfix/contexts/event-coordination/bringlist-service/ports"
)

type AddItemCommand struct {
	UserID      string
	EventID     string
	Name        string
	Emoji       string
	MaxQuantity *int
}

type ItemUseCase struct {
	Items  ports.ItemRepository
	Events ports.EventDirectory
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc ItemUseCase) AddItem(ctx context.Context, cmd AddItemCommand) (entities.BringItem, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return entities.BringItem{}, domainerrors.ErrUnauthenticated
	}
	name, err := services.NormalizeItemName(cmd.Name)
	if err != nil {
		return entities.BringItem{}, err
	}
	maxQuantity, err := services.ResolveMaxQuantity(cmd.MaxQuantity)
	if err != nil {
		return entities.BringItem{}, err
	}
	if _, err := requireMember(ctx, uc.Events, cmd.EventID, userID); err != nil {
		return entities.BringItem{}, err
	}

	itemID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.BringItem{}, err
	}
	item := entities.BringItem{
		ItemID:      itemID,
		EventID:     strings.TrimSpace(cmd.EventID),
		Name:        name,
		Emoji:       services.ResolveEmoji(name, cmd.Emoji),
		MaxQuantity: maxQuantity,
		CreatedBy:   userID,
		CreatedAt:   uc.now(),
	}
	if err := uc.Items.CreateItem(ctx, item); err != nil {
		logger.Error("bring item create failed",
			"event", "bringlist_item_create_failed",
			"module", "event-coordination/bringlist-service",
			"layer", "application",
			"event_id", item.EventID,
			"user_id", userID,
			"error", err.Error(),
		)
		return entities.BringItem{}, err
	}

	logger.Info("bring item added",
		"event", "bringlist_item_added",
		"module", "event-coordination/bringlist-service",
		"layer", "application",
		"event_id", item.EventID,
		"item_id", item.ItemID,
		"user_id", userID,
		"max_quantity", item.MaxQuantity,
	)
	return item, nil
}

// DeleteItem removes the item and every claim on it. Only the member who
// added the item may delete it.
func (uc ItemUseCase) DeleteItem(ctx context.Context, userID string, itemID string) error {
	logger := application.ResolveLogger(uc.Logger)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domainerrors.ErrUnauthenticated
	}
	item, err := uc.Items.GetItem(ctx, strings.TrimSpace(itemID))
	if err != nil {
		return err
	}
	if !item.IsCreatedBy(userID) {
		return domainerrors.ErrNotItemCreator
	}
	if err := uc.Items.DeleteItem(ctx, item.ItemID); err != nil {
		return err
	}
	logger.Info("bring item deleted",
		"event", "bringlist_item_deleted",
		"module", "event-coordination/bringlist-service",
		"layer", "application",
		"event_id", item.EventID,
		"item_id", item.ItemID,
		"user_id", userID,
	)
	return nil
}

func (uc ItemUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
