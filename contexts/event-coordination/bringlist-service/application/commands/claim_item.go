package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "meetfix/contexts/event-coordination/bringlist-service/application"
	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/bringlist-service/domain/errors"
	"meetfix/contexts/event-coordination/bringlist-service/domain/services"
	"meetfix/contexts/event-coordination/bringlist-service/ports"
)

type ClaimItemResult struct {
	Claim    entities.ItemClaim
	Replayed bool
}

// ClaimUseCase takes and releases claims. The limit check and the insert run
// under the item lock held by the repository.
type ClaimUseCase struct {
	Items   ports.ItemRepository
	Claims  ports.ClaimRepository
	Events  ports.EventDirectory
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (uc ClaimUseCase) ClaimItem(ctx context.Context, userID string, itemID string) (ClaimItemResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ClaimItemResult{}, domainerrors.ErrUnauthenticated
	}
	item, err := uc.Items.GetItem(ctx, strings.TrimSpace(itemID))
	if err != nil {
		return ClaimItemResult{}, err
	}
	if _, err := requireMember(ctx, uc.Events, item.EventID, userID); err != nil {
		return ClaimItemResult{}, err
	}

	claimID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ClaimItemResult{}, err
	}
	candidate := entities.ItemClaim{
		ClaimID:   claimID,
		ItemID:    item.ItemID,
		EventID:   item.EventID,
		UserID:    userID,
		ClaimedAt: uc.now(),
	}
	claim, created, err := uc.Claims.ClaimItem(ctx, candidate, func(locked entities.BringItem, claims []entities.ItemClaim) (*entities.ItemClaim, error) {
		return services.EvaluateClaim(locked, claims, userID)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrClaimLimitReached) {
			uc.recordClaim("limit_reached")
			logger.Info("bring item claim rejected",
				"event", "bringlist_claim_limit_reached",
				"module", "event-coordination/bringlist-service",
				"layer", "application",
				"item_id", item.ItemID,
				"user_id", userID,
				"max_quantity", item.EffectiveMaxQuantity(),
			)
			return ClaimItemResult{}, err
		}
		logger.Error("bring item claim failed",
			"event", "bringlist_claim_failed",
			"module", "event-coordination/bringlist-service",
			"layer", "application",
			"item_id", item.ItemID,
			"user_id", userID,
			"error", err.Error(),
		)
		return ClaimItemResult{}, err
	}
	if !created {
		uc.recordClaim("replayed")
		return ClaimItemResult{Claim: claim, Replayed: true}, nil
	}
	uc.recordClaim("claimed")

	logger.Info("bring item claimed",
		"event", "bringlist_item_claimed",
		"module", "event-coordination/bringlist-service",
		"layer", "application",
		"event_id", claim.EventID,
		"item_id", claim.ItemID,
		"claim_id", claim.ClaimID,
		"user_id", userID,
	)
	return ClaimItemResult{Claim: claim}, nil
}

// UnclaimItem drops the caller's claim. Releasing a claim that does not exist
// is not an error.
func (uc ClaimUseCase) UnclaimItem(ctx context.Context, userID string, itemID string) error {
	logger := application.ResolveLogger(uc.Logger)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domainerrors.ErrUnauthenticated
	}
	item, err := uc.Items.GetItem(ctx, strings.TrimSpace(itemID))
	if err != nil {
		return err
	}
	if _, err := requireMember(ctx, uc.Events, item.EventID, userID); err != nil {
		return err
	}
	removed, err := uc.Claims.RemoveClaim(ctx, item.ItemID, userID)
	if err != nil {
		return err
	}
	if removed {
		uc.recordClaim("released")
		logger.Info("bring item released",
			"event", "bringlist_item_released",
			"module", "event-coordination/bringlist-service",
			"layer", "application",
			"item_id", item.ItemID,
			"user_id", userID,
		)
	}
	return nil
}

func (uc ClaimUseCase) recordClaim(result string) {
	if uc.Metrics != nil {
		uc.Metrics.ClaimRecorded(result)
	}
}

func (uc ClaimUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
