package services

import (
	"sort"
	"strings"

	"meetfix/contexts/event-coordination/group-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/group-service/domain/errors"
)

const maxGroupNameLength = 60

// ResolveMaxMembers applies the default and the allowed range. Nil means
// "not given".
func ResolveMaxMembers(value *int) (int, error) {
	if value == nil {
		return entities.DefaultMaxMembers, nil
	}
	if *value < entities.MinMaxMembers || *value > entities.MaxMaxMembers {
		return 0, domainerrors.ErrInvalidRequest
	}
	return *value, nil
}

func NormalizeGroupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxGroupNameLength {
		return "", domainerrors.ErrInvalidRequest
	}
	return name, nil
}

// NormalizeInviteCode trims and upper-cases a code typed by a user.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidInviteCode reports whether code has the generated length and uses only
// the invite alphabet.
func ValidInviteCode(code string) bool {
	if len(code) != entities.InviteCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(entities.InviteCodeAlphabet, r) {
			return false
		}
	}
	return true
}

// CanJoin reports whether one more member fits.
func CanJoin(group entities.Group, memberCount int) error {
	if memberCount >= group.MaxMembers {
		return domainerrors.ErrGroupFull
	}
	return nil
}

// CanLeave rejects the owner; a group always keeps its owner.
func CanLeave(group entities.Group, userID string) error {
	if group.IsOwnedBy(userID) {
		return domainerrors.ErrOwnerCannotLeave
	}
	return nil
}

type GroupUpdate struct {
	Name             *string
	MaxMembers       *int
	RegenerateInvite bool
}

// ApplyUpdate validates an owner's edit against the current member count.
// The new invite code, when requested, is filled in by the caller.
func ApplyUpdate(group entities.Group, actorID string, memberCount int, update GroupUpdate) (entities.Group, error) {
	if !group.IsOwnedBy(actorID) {
		return entities.Group{}, domainerrors.ErrNotGroupOwner
	}
	if update.Name != nil {
		name, err := NormalizeGroupName(*update.Name)
		if err != nil {
			return entities.Group{}, err
		}
		group.Name = name
	}
	if update.MaxMembers != nil {
		maxMembers, err := ResolveMaxMembers(update.MaxMembers)
		if err != nil {
			return entities.Group{}, err
		}
		if maxMembers < memberCount {
			return entities.Group{}, domainerrors.ErrMaxMembersBelowCount
		}
		group.MaxMembers = maxMembers
	}
	return group, nil
}

// SortGroupSummaries orders by last_event_at desc, falling back to created_at
// desc for groups that never had an event. Groups with events come first.
func SortGroupSummaries(items []entities.GroupSummary) {
	sort.SliceStable(items, func(i, j int) bool {
		left, right := items[i].Group, items[j].Group
		switch {
		case left.LastEventAt != nil && right.LastEventAt != nil:
			if !left.LastEventAt.Equal(*right.LastEventAt) {
				return left.LastEventAt.After(*right.LastEventAt)
			}
		case left.LastEventAt != nil:
			return true
		case right.LastEventAt != nil:
			return false
		}
		if !left.CreatedAt.Equal(right.CreatedAt) {
			return left.CreatedAt.After(right.CreatedAt)
		}
		return left.GroupID < right.GroupID
	})
}
