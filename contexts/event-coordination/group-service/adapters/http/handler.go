package httpadapter

import (
	"context"
	"log/slog"

	"meetfix/contexts/event-coordination/group-service/application"
	"meetfix/contexts/event-coordination/group-service/domain/entities"
	httptransport "meetfix/contexts/event-coordination/group-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateGroupHandler(
	ctx context.Context,
	idempotencyKey string,
	actorUserID string,
	req httptransport.CreateGroupRequest,
) (httptransport.GroupDetailResponse, error) {
	view, err := h.Service.CreateGroup(ctx, idempotencyKey, actorUserID, application.CreateGroupInput{
		Name:       req.Name,
		MaxMembers: req.MaxMembers,
	})
	if err != nil {
		return httptransport.GroupDetailResponse{}, err
	}
	return mapView(view), nil
}

func (h Handler) JoinGroupHandler(
	ctx context.Context,
	actorUserID string,
	req httptransport.JoinGroupRequest,
) (httptransport.GroupDetailResponse, error) {
	view, err := h.Service.JoinGroup(ctx, actorUserID, req.InviteCode)
	if err != nil {
		return httptransport.GroupDetailResponse{}, err
	}
	return mapView(view), nil
}

func (h Handler) GetGroupHandler(ctx context.Context, actorUserID string, groupID string) (httptransport.GroupDetailResponse, error) {
	view, err := h.Service.GetGroup(ctx, actorUserID, groupID)
	if err != nil {
		return httptransport.GroupDetailResponse{}, err
	}
	return mapView(view), nil
}

func (h Handler) ListMyGroupsHandler(ctx context.Context, actorUserID string) (httptransport.ListGroupsResponse, error) {
	items, err := h.Service.ListMyGroups(ctx, actorUserID)
	if err != nil {
		return httptransport.ListGroupsResponse{}, err
	}
	resp := httptransport.ListGroupsResponse{Items: make([]httptransport.GroupSummaryItem, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, httptransport.GroupSummaryItem{
			Group:       mapGroup(item.Group),
			MemberCount: item.MemberCount,
			MyRole:      item.MyRole,
		})
	}
	return resp, nil
}

func (h Handler) UpdateGroupHandler(
	ctx context.Context,
	actorUserID string,
	groupID string,
	req httptransport.UpdateGroupRequest,
) (httptransport.GroupResponse, error) {
	group, err := h.Service.UpdateGroup(ctx, actorUserID, groupID, application.UpdateGroupInput{
		Name:             req.Name,
		MaxMembers:       req.MaxMembers,
		RegenerateInvite: req.RegenerateInvite,
	})
	if err != nil {
		return httptransport.GroupResponse{}, err
	}
	return mapGroup(group), nil
}

func (h Handler) LeaveGroupHandler(ctx context.Context, actorUserID string, groupID string) error {
	return h.Service.LeaveGroup(ctx, actorUserID, groupID)
}

func (h Handler) DeleteGroupHandler(ctx context.Context, actorUserID string, groupID string) error {
	return h.Service.DeleteGroup(ctx, actorUserID, groupID)
}

func mapGroup(group entities.Group) httptransport.GroupResponse {
	return httptransport.GroupResponse{
		GroupID:     group.GroupID,
		Name:        group.Name,
		OwnerID:     group.OwnerID,
		InviteCode:  group.InviteCode,
		MaxMembers:  group.MaxMembers,
		LastEventAt: group.LastEventAt,
		CreatedAt:   group.CreatedAt,
	}
}

func mapView(view entities.GroupView) httptransport.GroupDetailResponse {
	resp := httptransport.GroupDetailResponse{
		Group:       mapGroup(view.Group),
		MemberCount: view.MemberCount,
		Members:     make([]httptransport.MemberResponse, 0, len(view.Members)),
		MyRole:      view.MyRole,
	}
	for _, member := range view.Members {
		resp.Members = append(resp.Members, httptransport.MemberResponse{
			UserID:   member.UserID,
			Role:     member.Role,
			JoinedAt: member.JoinedAt,
		})
	}
	return resp
}
