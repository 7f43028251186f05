package commands

import (
	"context"
	"strings"

	domainerrors "meetfix/contexts/event-coordination/bringlist-service/domain/errors"
	"meetfix/contexts/event-coordination/bringlist-service/ports"
)

// requireMember resolves eventID to its group and checks userID belongs to it.
func requireMember(ctx context.Context, events ports.EventDirectory, eventID string, userID string) (string, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return "", domainerrors.ErrInvalidItemRequest
	}
	groupID, err := events.EventGroupID(ctx, eventID)
	if err != nil {
		return "", err
	}
	member, err := events.IsMember(ctx, groupID, userID)
	if err != nil {
		return "", err
	}
	if !member {
		return "", domainerrors.ErrNotGroupMember
	}
	return groupID, nil
}
