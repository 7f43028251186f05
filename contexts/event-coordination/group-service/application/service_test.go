package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"meetfix/contexts/event-coordination/group-service/adapters/invitecode"
	"meetfix/contexts/event-coordination/group-service/adapters/memory"
	"meetfix/contexts/event-coordination/group-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/group-service/domain/errors"
	"meetfix/contexts/event-coordination/group-service/domain/services"
)

type scriptedCodes struct {
	codes []string
	calls int
}

func (s *scriptedCodes) NewInviteCode() (string, error) {
	code := s.codes[s.calls%len(s.codes)]
	s.calls++
	return code, nil
}

func newService(store *memory.Store) Service {
	return Service{
		Repo:           store,
		Idempotency:    store,
		InviteCodes:    invitecode.Generator{},
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 7 * 24 * time.Hour,
	}
}

func intPtr(value int) *int {
	return &value
}

func TestCreateGroupIdempotentReplay(t *testing.T) {
	service := newService(memory.NewStore())

	first, err := service.CreateGroup(context.Background(), "idem-group-1", "owner", CreateGroupInput{Name: "Friday crew"})
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if first.Group.MaxMembers != entities.DefaultMaxMembers || first.MyRole != entities.RoleOwner || first.MemberCount != 1 {
		t.Fatalf("unexpected created group: %+v", first)
	}
	if !services.ValidInviteCode(first.Group.InviteCode) {
		t.Fatalf("invite code %q outside alphabet", first.Group.InviteCode)
	}

	second, err := service.CreateGroup(context.Background(), "idem-group-1", "owner", CreateGroupInput{Name: "Friday crew"})
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if first.Group.GroupID != second.Group.GroupID {
		t.Fatalf("expected same group id, got %s vs %s", first.Group.GroupID, second.Group.GroupID)
	}

	_, err = service.CreateGroup(context.Background(), "idem-group-1", "owner", CreateGroupInput{Name: "Saturday crew"})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestCreateGroupValidation(t *testing.T) {
	service := newService(memory.NewStore())
	tests := []struct {
		name    string
		key     string
		actor   string
		input   CreateGroupInput
		wantErr error
	}{
		{name: "anonymous", key: "k", input: CreateGroupInput{Name: "x"}, wantErr: domainerrors.ErrUnauthenticated},
		{name: "blank name", key: "k", actor: "owner", input: CreateGroupInput{Name: "  "}, wantErr: domainerrors.ErrInvalidRequest},
		{name: "max too small", key: "k", actor: "owner", input: CreateGroupInput{Name: "x", MaxMembers: intPtr(1)}, wantErr: domainerrors.ErrInvalidRequest},
		{name: "max too large", key: "k", actor: "owner", input: CreateGroupInput{Name: "x", MaxMembers: intPtr(101)}, wantErr: domainerrors.ErrInvalidRequest},
		{name: "missing key", actor: "owner", input: CreateGroupInput{Name: "x"}, wantErr: domainerrors.ErrIdempotencyKeyRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.CreateGroup(context.Background(), tt.key, tt.actor, tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateGroupRetriesInviteCollision(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	service.InviteCodes = &scriptedCodes{codes: []string{"AAAAAA"}}
	if _, err := service.CreateGroup(context.Background(), "k1", "owner", CreateGroupInput{Name: "First"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	codes := &scriptedCodes{codes: []string{"AAAAAA", "AAAAAA", "BBBBBB"}}
	service.InviteCodes = codes
	second, err := service.CreateGroup(context.Background(), "k2", "owner", CreateGroupInput{Name: "Second"})
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if second.Group.InviteCode != "BBBBBB" || codes.calls != 3 {
		t.Fatalf("expected third code after two collisions, got %s after %d draws", second.Group.InviteCode, codes.calls)
	}

	service.InviteCodes = &scriptedCodes{codes: []string{"AAAAAA"}}
	if _, err := service.CreateGroup(context.Background(), "k3", "owner", CreateGroupInput{Name: "Third"}); !errors.Is(err, domainerrors.ErrInviteCodeExhausted) {
		t.Fatalf("expected exhausted invite codes, got %v", err)
	}
}

func TestConcurrentCreateGroupWithSameKeyCreatesOnce(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)

	const workers = 8
	views := make([]entities.GroupView, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			views[i], errs[i] = service.CreateGroup(context.Background(), "idem-race", "owner", CreateGroupInput{Name: "Friday crew"})
		}(i)
	}
	wg.Wait()

	groupID := ""
	for i := 0; i < workers; i++ {
		if errors.Is(errs[i], domainerrors.ErrRequestInProgress) {
			continue
		}
		if errs[i] != nil {
			t.Fatalf("create %d failed: %v", i, errs[i])
		}
		if groupID == "" {
			groupID = views[i].Group.GroupID
		}
		if views[i].Group.GroupID != groupID {
			t.Fatalf("expected one group id, got %s and %s", groupID, views[i].Group.GroupID)
		}
	}
	groups, err := store.ListGroupsForUser(context.Background(), "owner")
	if err != nil {
		t.Fatalf("list groups failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected one stored group, got %d", len(groups))
	}
}

func TestFailedCreateGroupFreesKey(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	service.InviteCodes = &scriptedCodes{codes: []string{"AAAAAA"}}
	if _, err := service.CreateGroup(context.Background(), "k1", "owner", CreateGroupInput{Name: "First"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := service.CreateGroup(context.Background(), "k2", "owner", CreateGroupInput{Name: "Second"}); !errors.Is(err, domainerrors.ErrInviteCodeExhausted) {
		t.Fatalf("expected exhausted invite codes, got %v", err)
	}

	service.InviteCodes = &scriptedCodes{codes: []string{"BBBBBB"}}
	retried, err := service.CreateGroup(context.Background(), "k2", "owner", CreateGroupInput{Name: "Second"})
	if err != nil {
		t.Fatalf("retry with the same key failed: %v", err)
	}
	if retried.Group.InviteCode != "BBBBBB" {
		t.Fatalf("expected the retry to create a group, got %+v", retried)
	}
}

func TestJoinGroupIsIdempotentAndCapped(t *testing.T) {
	service := newService(memory.NewStore())
	created, err := service.CreateGroup(context.Background(), "k1", "owner", CreateGroupInput{Name: "Duo", MaxMembers: intPtr(2)})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	code := created.Group.InviteCode

	joined, err := service.JoinGroup(context.Background(), "ana", "  "+strings.ToLower(code)+" ")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if joined.MemberCount != 2 || joined.MyRole != entities.RoleMember {
		t.Fatalf("unexpected view after join: %+v", joined)
	}

	again, err := service.JoinGroup(context.Background(), "ana", code)
	if err != nil {
		t.Fatalf("repeat join failed: %v", err)
	}
	if again.MemberCount != 2 {
		t.Fatalf("expected repeat join not to add a row, got %d members", again.MemberCount)
	}

	if _, err := service.JoinGroup(context.Background(), "ben", code); !errors.Is(err, domainerrors.ErrGroupFull) {
		t.Fatalf("expected group full, got %v", err)
	}
	if _, err := service.JoinGroup(context.Background(), "ben", "ZZZZZZ"); !errors.Is(err, domainerrors.ErrInviteCodeNotFound) {
		t.Fatalf("expected unknown code, got %v", err)
	}
	if _, err := service.JoinGroup(context.Background(), "ben", "IO01"); !errors.Is(err, domainerrors.ErrInviteCodeNotFound) {
		t.Fatalf("expected malformed code to be unknown, got %v", err)
	}
}

func TestGetGroupMembersOnly(t *testing.T) {
	service := newService(memory.NewStore())
	created, _ := service.CreateGroup(context.Background(), "k1", "owner", CreateGroupInput{Name: "Crew"})
	if _, err := service.GetGroup(context.Background(), "stranger", created.Group.GroupID); !errors.Is(err, domainerrors.ErrNotGroupMember) {
		t.Fatalf("expected membership error, got %v", err)
	}
	view, err := service.GetGroup(context.Background(), "owner", created.Group.GroupID)
	if err != nil || view.Members[0].UserID != "owner" {
		t.Fatalf("unexpected owner view: %+v / %v", view, err)
	}
}

func TestUpdateGroupOwnerRules(t *testing.T) {
	service := newService(memory.NewStore())
	created, _ := service.CreateGroup(context.Background(), "k1", "owner", CreateGroupInput{Name: "Crew"})
	groupID := created.Group.GroupID
	for _, user := range []string{"ana", "ben"} {
		if _, err := service.JoinGroup(context.Background(), user, created.Group.InviteCode); err != nil {
			t.Fatalf("join %s failed: %v", user, err)
		}
	}

	name := "New crew"
	if _, err := service.UpdateGroup(context.Background(), "ana", groupID, UpdateGroupInput{Name: &name}); !errors.Is(err, domainerrors.ErrNotGroupOwner) {
		t.Fatalf("expected owner check, got %v", err)
	}
	if _, err := service.UpdateGroup(context.Background(), "owner", groupID, UpdateGroupInput{MaxMembers: intPtr(2)}); !errors.Is(err, domainerrors.ErrMaxMembersBelowCount) {
		t.Fatalf("expected max below count rejection, got %v", err)
	}

	updated, err := service.UpdateGroup(context.Background(), "owner", groupID, UpdateGroupInput{
		Name:             &name,
		MaxMembers:       intPtr(3),
		RegenerateInvite: true,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != name || updated.MaxMembers != 3 || updated.InviteCode == created.Group.InviteCode {
		t.Fatalf("unexpected updated group: %+v", updated)
	}
	if _, err := service.JoinGroup(context.Background(), "cy", created.Group.InviteCode); !errors.Is(err, domainerrors.ErrInviteCodeNotFound) {
		t.Fatalf("expected old invite code to stop working, got %v", err)
	}
}

func TestLeaveAndDeleteGroup(t *testing.T) {
	service := newService(memory.NewStore())
	created, _ := service.CreateGroup(context.Background(), "k1", "owner", CreateGroupInput{Name: "Crew"})
	groupID := created.Group.GroupID
	if _, err := service.JoinGroup(context.Background(), "ana", created.Group.InviteCode); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	if err := service.LeaveGroup(context.Background(), "owner", groupID); !errors.Is(err, domainerrors.ErrOwnerCannotLeave) {
		t.Fatalf("expected owner cannot leave, got %v", err)
	}
	if err := service.LeaveGroup(context.Background(), "ana", groupID); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if member, err := service.IsMember(context.Background(), groupID, "ana"); err != nil || member {
		t.Fatalf("expected ana gone, got %v / %v", member, err)
	}
	if err := service.LeaveGroup(context.Background(), "ana", groupID); !errors.Is(err, domainerrors.ErrNotGroupMember) {
		t.Fatalf("expected second leave to fail, got %v", err)
	}

	if err := service.DeleteGroup(context.Background(), "ana", groupID); !errors.Is(err, domainerrors.ErrNotGroupOwner) {
		t.Fatalf("expected owner check, got %v", err)
	}
	if err := service.DeleteGroup(context.Background(), "owner", groupID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := service.GetGroup(context.Background(), "owner", groupID); !errors.Is(err, domainerrors.ErrGroupNotFound) {
		t.Fatalf("expected group gone, got %v", err)
	}
}

func TestListMyGroupsOrdersByActivity(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	quiet, _ := service.CreateGroup(context.Background(), "k1", "owner", CreateGroupInput{Name: "Quiet"})
	busy, _ := service.CreateGroup(context.Background(), "k2", "owner", CreateGroupInput{Name: "Busy"})
	newest, _ := service.CreateGroup(context.Background(), "k3", "owner", CreateGroupInput{Name: "Newest"})

	if err := store.TouchLastEventAt(context.Background(), quiet.Group.GroupID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	if err := store.TouchLastEventAt(context.Background(), busy.Group.GroupID, time.Now()); err != nil {
		t.Fatalf("touch failed: %v", err)
	}

	items, err := service.ListMyGroups(context.Background(), "owner")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(items))
	}
	order := []string{items[0].Group.GroupID, items[1].Group.GroupID, items[2].Group.GroupID}
	want := []string{busy.Group.GroupID, quiet.Group.GroupID, newest.Group.GroupID}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}
