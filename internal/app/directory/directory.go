// Package directory adapts one service's read API to the lookup ports of
// another, so services never import each other's repositories.
package directory

import (
	"context"
	"errors"
	"fmt"

	bringlistqueries "meetfix/contexts/event-coordination/bringlist-service/application/queries"
	bringlisterrors "meetfix/contexts/event-coordination/bringlist-service/domain/errors"
	bringlistports "meetfix/contexts/event-coordination/bringlist-service/ports"
	eventqueries "meetfix/contexts/event-coordination/event-service/application/queries"
	eventerrors "meetfix/contexts/event-coordination/event-service/domain/errors"
	eventports "meetfix/contexts/event-coordination/event-service/ports"
	groupapp "meetfix/contexts/event-coordination/group-service/application"
	notificationports "meetfix/contexts/event-coordination/notification-service/ports"
)

// Membership is the slice of group-service the other services read.
type Membership interface {
	IsMember(ctx context.Context, groupID string, userID string) (bool, error)
	ListUserGroupIDs(ctx context.Context, userID string) ([]string, error)
	ListMemberIDs(ctx context.Context, groupID string) ([]string, error)
}

var _ Membership = groupapp.Service{}

// Groups serves event-service membership checks from group-service.
type Groups struct {
	Membership Membership
}

func (g Groups) IsMember(ctx context.Context, groupID string, userID string) (bool, error) {
	return g.Membership.IsMember(ctx, groupID, userID)
}

func (g Groups) ListUserGroupIDs(ctx context.Context, userID string) ([]string, error) {
	return g.Membership.ListUserGroupIDs(ctx, userID)
}

// Events serves bringlist-service event lookups from event-service.
type Events struct {
	Queries    eventqueries.EventQueries
	Membership Membership
}

func (e Events) EventGroupID(ctx context.Context, eventID string) (string, error) {
	groupID, err := e.Queries.EventGroupID(ctx, eventID)
	if errors.Is(err, eventerrors.ErrEventNotFound) {
		return "", fmt.Errorf("%w: %s", bringlisterrors.ErrEventNotFound, eventID)
	}
	return groupID, err
}

func (e Events) IsMember(ctx context.Context, groupID string, userID string) (bool, error) {
	return e.Membership.IsMember(ctx, groupID, userID)
}

// Recipients gathers reminder inputs from the group, event and bring list
// services.
type Recipients struct {
	Membership Membership
	Events     eventqueries.EventQueries
	Bringlist  bringlistqueries.ItemQueries
}

func (r Recipients) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	return r.Membership.ListMemberIDs(ctx, groupID)
}

func (r Recipients) ListTimelines(ctx context.Context, eventID string) ([]notificationports.MemberTimeline, error) {
	timelines, err := r.Events.EventTimelines(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]notificationports.MemberTimeline, 0, len(timelines))
	for _, timeline := range timelines {
		out = append(out, notificationports.MemberTimeline{
			UserID:      timeline.UserID,
			DressUpTime: timeline.DressUpTime,
			TravelTime:  timeline.TravelTime,
		})
	}
	return out, nil
}

func (r Recipients) ClaimsForUser(ctx context.Context, eventID string, userID string) ([]string, error) {
	return r.Bringlist.ClaimsForUser(ctx, eventID, userID)
}

var (
	_ eventports.GroupDirectory            = Groups{}
	_ bringlistports.EventDirectory        = Events{}
	_ notificationports.RecipientDirectory = Recipients{}
)
