package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"meetfix/contexts/event-coordination/group-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/group-service/domain/errors"
	"meetfix/contexts/event-coordination/group-service/domain/services"
	"meetfix/contexts/event-coordination/group-service/ports"
)

const inviteCodeAttempts = 5

type Service struct {
	Repo           ports.Repository
	Idempotency    ports.IdempotencyStore
	InviteCodes    ports.InviteCodeGenerator
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	Logger         *slog.Logger
	IdempotencyTTL time.Duration
}

type CreateGroupInput struct {
	Name       string
	MaxMembers *int
}

type UpdateGroupInput struct {
	Name             *string
	MaxMembers       *int
	RegenerateInvite bool
}

func (s Service) CreateGroup(
	ctx context.Context,
	idempotencyKey string,
	actorUserID string,
	input CreateGroupInput,
) (entities.GroupView, error) {
	var out entities.GroupView
	actorUserID = strings.TrimSpace(actorUserID)
	if actorUserID == "" {
		return out, domainerrors.ErrUnauthenticated
	}
	name, err := services.NormalizeGroupName(input.Name)
	if err != nil {
		return out, err
	}
	maxMembers, err := services.ResolveMaxMembers(input.MaxMembers)
	if err != nil {
		return out, err
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}

	requestHash := hashStrings("create_group", actorUserID, name, strconv.Itoa(maxMembers))
	err = s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			view, err := s.createGroup(ctx, actorUserID, name, maxMembers)
			if err != nil {
				return nil, err
			}
			return json.Marshal(view)
		},
	)
	return out, err
}

func (s Service) createGroup(ctx context.Context, actorUserID string, name string, maxMembers int) (entities.GroupView, error) {
	groupID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.GroupView{}, err
	}
	now := s.now()
	group := entities.Group{
		GroupID:    groupID,
		Name:       name,
		OwnerID:    actorUserID,
		MaxMembers: maxMembers,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	owner := entities.Member{
		GroupID:  groupID,
		UserID:   actorUserID,
		Role:     entities.RoleOwner,
		JoinedAt: now,
	}

	err = s.withFreshInviteCode(ctx, groupID, func(code string) error {
		group.InviteCode = code
		return s.Repo.CreateGroup(ctx, group, owner)
	})
	if err != nil {
		return entities.GroupView{}, err
	}

	ResolveLogger(s.Logger).Info("group created",
		"event", "group_created",
		"module", "event-coordination/group-service",
		"layer", "application",
		"group_id", groupID,
		"owner_id", actorUserID,
		"max_members", maxMembers,
	)
	return entities.GroupView{
		Group:       group,
		MemberCount: 1,
		Members:     []entities.Member{owner},
		MyRole:      entities.RoleOwner,
	}, nil
}

// JoinGroup adds the actor to the group behind inviteCode. Joining a group the
// actor already belongs to returns that group unchanged.
func (s Service) JoinGroup(ctx context.Context, actorUserID string, inviteCode string) (entities.GroupView, error) {
	logger := ResolveLogger(s.Logger)
	actorUserID = strings.TrimSpace(actorUserID)
	if actorUserID == "" {
		return entities.GroupView{}, domainerrors.ErrUnauthenticated
	}
	code := services.NormalizeInviteCode(inviteCode)
	if !services.ValidInviteCode(code) {
		return entities.GroupView{}, domainerrors.ErrInviteCodeNotFound
	}
	group, err := s.Repo.GetGroupByInviteCode(ctx, code)
	if err != nil {
		return entities.GroupView{}, err
	}

	_, joined, err := s.Repo.AddMember(ctx, entities.Member{
		GroupID:  group.GroupID,
		UserID:   actorUserID,
		Role:     entities.RoleMember,
		JoinedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrGroupFull) {
			logger.Warn("group join rejected; group full",
				"event", "group_join_full",
				"module", "event-coordination/group-service",
				"layer", "application",
				"group_id", group.GroupID,
				"user_id", actorUserID,
				"max_members", group.MaxMembers,
			)
		}
		return entities.GroupView{}, err
	}
	if joined {
		logger.Info("group joined",
			"event", "group_member_joined",
			"module", "event-coordination/group-service",
			"layer", "application",
			"group_id", group.GroupID,
			"user_id", actorUserID,
		)
	}
	return s.loadView(ctx, group, actorUserID)
}

func (s Service) GetGroup(ctx context.Context, actorUserID string, groupID string) (entities.GroupView, error) {
	actorUserID = strings.TrimSpace(actorUserID)
	if actorUserID == "" {
		return entities.GroupView{}, domainerrors.ErrUnauthenticated
	}
	group, err := s.Repo.GetGroup(ctx, strings.TrimSpace(groupID))
	if err != nil {
		return entities.GroupView{}, err
	}
	return s.loadView(ctx, group, actorUserID)
}

// ListMyGroups orders by most recent event activity, then newest group.
func (s Service) ListMyGroups(ctx context.Context, actorUserID string) ([]entities.GroupSummary, error) {
	actorUserID = strings.TrimSpace(actorUserID)
	if actorUserID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	items, err := s.Repo.ListGroupsForUser(ctx, actorUserID)
	if err != nil {
		return nil, err
	}
	services.SortGroupSummaries(items)
	return items, nil
}

func (s Service) UpdateGroup(
	ctx context.Context,
	actorUserID string,
	groupID string,
	input UpdateGroupInput,
) (entities.Group, error) {
	actorUserID = strings.TrimSpace(actorUserID)
	groupID = strings.TrimSpace(groupID)
	if actorUserID == "" {
		return entities.Group{}, domainerrors.ErrUnauthenticated
	}
	if input.Name == nil && input.MaxMembers == nil && !input.RegenerateInvite {
		return entities.Group{}, domainerrors.ErrInvalidRequest
	}

	update := services.GroupUpdate{
		Name:             input.Name,
		MaxMembers:       input.MaxMembers,
		RegenerateInvite: input.RegenerateInvite,
	}
	var updated entities.Group
	apply := func(code string) error {
		group, err := s.Repo.UpdateGroup(ctx, groupID, func(group entities.Group, memberCount int) (entities.Group, error) {
			next, err := services.ApplyUpdate(group, actorUserID, memberCount, update)
			if err != nil {
				return entities.Group{}, err
			}
			if code != "" {
				next.InviteCode = code
			}
			next.UpdatedAt = s.now()
			return next, nil
		})
		if err != nil {
			return err
		}
		updated = group
		return nil
	}

	var err error
	if input.RegenerateInvite {
		err = s.withFreshInviteCode(ctx, groupID, apply)
	} else {
		err = apply("")
	}
	if err != nil {
		return entities.Group{}, err
	}

	ResolveLogger(s.Logger).Info("group updated",
		"event", "group_updated",
		"module", "event-coordination/group-service",
		"layer", "application",
		"group_id", groupID,
		"user_id", actorUserID,
		"invite_regenerated", input.RegenerateInvite,
	)
	return updated, nil
}

func (s Service) LeaveGroup(ctx context.Context, actorUserID string, groupID string) error {
	actorUserID = strings.TrimSpace(actorUserID)
	if actorUserID == "" {
		return domainerrors.ErrUnauthenticated
	}
	group, err := s.Repo.GetGroup(ctx, strings.TrimSpace(groupID))
	if err != nil {
		return err
	}
	if err := services.CanLeave(group, actorUserID); err != nil {
		return err
	}
	removed, err := s.Repo.RemoveMember(ctx, group.GroupID, actorUserID)
	if err != nil {
		return err
	}
	if !removed {
		return domainerrors.ErrNotGroupMember
	}
	ResolveLogger(s.Logger).Info("group left",
		"event", "group_member_left",
		"module", "event-coordination/group-service",
		"layer", "application",
		"group_id", group.GroupID,
		"user_id", actorUserID,
	)
	return nil
}

func (s Service) DeleteGroup(ctx context.Context, actorUserID string, groupID string) error {
	actorUserID = strings.TrimSpace(actorUserID)
	if actorUserID == "" {
		return domainerrors.ErrUnauthenticated
	}
	group, err := s.Repo.GetGroup(ctx, strings.TrimSpace(groupID))
	if err != nil {
		return err
	}
	if !group.IsOwnedBy(actorUserID) {
		return domainerrors.ErrNotGroupOwner
	}
	if err := s.Repo.DeleteGroup(ctx, group.GroupID); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("group deleted",
		"event", "group_deleted",
		"module", "event-coordination/group-service",
		"layer", "application",
		"group_id", group.GroupID,
		"user_id", actorUserID,
	)
	return nil
}

// Membership is the lookup other services use to authorize group-scoped
// actions.
func (s Service) Membership(ctx context.Context, groupID string, userID string) (entities.Member, bool, error) {
	groupID = strings.TrimSpace(groupID)
	userID = strings.TrimSpace(userID)
	if groupID == "" || userID == "" {
		return entities.Member{}, false, nil
	}
	return s.Repo.GetMember(ctx, groupID, userID)
}

func (s Service) IsMember(ctx context.Context, groupID string, userID string) (bool, error) {
	_, found, err := s.Membership(ctx, groupID, userID)
	return found, err
}

func (s Service) ListUserGroupIDs(ctx context.Context, userID string) ([]string, error) {
	return s.Repo.ListUserGroupIDs(ctx, strings.TrimSpace(userID))
}

func (s Service) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	members, err := s.Repo.ListMembers(ctx, strings.TrimSpace(groupID))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
	}
	return ids, nil
}

func (s Service) loadView(ctx context.Context, group entities.Group, actorUserID string) (entities.GroupView, error) {
	members, err := s.Repo.ListMembers(ctx, group.GroupID)
	if err != nil {
		return entities.GroupView{}, err
	}
	view := entities.GroupView{
		Group:       group,
		MemberCount: len(members),
		Members:     members,
	}
	for _, member := range members {
		if member.UserID == actorUserID {
			view.MyRole = member.Role
		}
	}
	if view.MyRole == "" {
		return entities.GroupView{}, domainerrors.ErrNotGroupMember
	}
	return view, nil
}

// withFreshInviteCode retries write with a new code while the store reports
// the code as taken.
func (s Service) withFreshInviteCode(ctx context.Context, groupID string, write func(code string) error) error {
	for attempt := 1; attempt <= inviteCodeAttempts; attempt++ {
		code, err := s.InviteCodes.NewInviteCode()
		if err != nil {
			return err
		}
		err = write(code)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domainerrors.ErrConflict) {
			return err
		}
		ResolveLogger(s.Logger).Warn("invite code collision",
			"event", "group_invite_code_collision",
			"module", "event-coordination/group-service",
			"layer", "application",
			"group_id", groupID,
			"attempt", attempt,
		)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return domainerrors.ErrInviteCodeExhausted
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) requireIdempotency(key string) error {
	if strings.TrimSpace(key) == "" {
		return domainerrors.ErrIdempotencyKeyRequired
	}
	return nil
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := s.now()
	existing, reserved, err := s.Idempotency.Reserve(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}, now)
	if err != nil {
		return err
	}
	if !reserved {
		if existing.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		if len(existing.Payload) == 0 {
			return domainerrors.ErrRequestInProgress
		}
		return decode(existing.Payload)
	}

	payload, err := exec()
	if err != nil {
		if releaseErr := s.Idempotency.Release(ctx, key); releaseErr != nil {
			return errors.Join(err, releaseErr)
		}
		return err
	}
	if err := s.Idempotency.Complete(ctx, key, payload); err != nil {
		return err
	}

	ResolveLogger(s.Logger).Debug("group idempotent operation committed",
		"event", "group_idempotent_operation_committed",
		"module", "event-coordination/group-service",
		"layer", "application",
		"idempotency_key", key,
	)
	return decode(payload)
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}
