package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"meetfix/contexts/event-coordination/group-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/group-service/domain/errors"
	"meetfix/contexts/event-coordination/group-service/ports"

	"github.com/google/uuid"
)

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

type Store struct {
	mu sync.RWMutex

	groupsByID       map[string]entities.Group
	groupIDByInvite  map[string]string
	membersByGroupID map[string]map[string]entities.Member
	idempotency      map[string]ports.IdempotencyRecord
	eventDedup       map[string]dedupRecord
}

func NewStore() *Store {
	return &Store{
		groupsByID:       make(map[string]entities.Group),
		groupIDByInvite:  make(map[string]string),
		membersByGroupID: make(map[string]map[string]entities.Member),
		idempotency:      make(map[string]ports.IdempotencyRecord),
		eventDedup:       make(map[string]dedupRecord),
	}
}

func (s *Store) CreateGroup(_ context.Context, group entities.Group, owner entities.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groupsByID[group.GroupID]; exists {
		return domainerrors.ErrConflict
	}
	if _, taken := s.groupIDByInvite[group.InviteCode]; taken {
		return domainerrors.ErrConflict
	}
	s.groupsByID[group.GroupID] = group
	s.groupIDByInvite[group.InviteCode] = group.GroupID
	s.membersByGroupID[group.GroupID] = map[string]entities.Member{owner.UserID: owner}
	return nil
}

func (s *Store) GetGroup(_ context.Context, groupID string) (entities.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, ok := s.groupsByID[strings.TrimSpace(groupID)]
	if !ok {
		return entities.Group{}, domainerrors.ErrGroupNotFound
	}
	return group, nil
}

func (s *Store) GetGroupByInviteCode(_ context.Context, inviteCode string) (entities.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groupID, ok := s.groupIDByInvite[strings.TrimSpace(inviteCode)]
	if !ok {
		return entities.Group{}, domainerrors.ErrInviteCodeNotFound
	}
	return s.groupsByID[groupID], nil
}

func (s *Store) UpdateGroup(_ context.Context, groupID string, mutate ports.GroupMutation) (entities.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groupID = strings.TrimSpace(groupID)
	current, ok := s.groupsByID[groupID]
	if !ok {
		return entities.Group{}, domainerrors.ErrGroupNotFound
	}
	next, err := mutate(current, len(s.membersByGroupID[groupID]))
	if err != nil {
		return entities.Group{}, err
	}
	next.GroupID = current.GroupID
	next.OwnerID = current.OwnerID
	next.CreatedAt = current.CreatedAt
	if next.InviteCode != current.InviteCode {
		if _, taken := s.groupIDByInvite[next.InviteCode]; taken {
			return entities.Group{}, domainerrors.ErrConflict
		}
		delete(s.groupIDByInvite, current.InviteCode)
		s.groupIDByInvite[next.InviteCode] = groupID
	}
	s.groupsByID[groupID] = next
	return next, nil
}

func (s *Store) DeleteGroup(_ context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	groupID = strings.TrimSpace(groupID)
	group, ok := s.groupsByID[groupID]
	if !ok {
		return domainerrors.ErrGroupNotFound
	}
	delete(s.groupIDByInvite, group.InviteCode)
	delete(s.membersByGroupID, groupID)
	delete(s.groupsByID, groupID)
	return nil
}

func (s *Store) AddMember(_ context.Context, member entities.Member) (entities.Member, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groupsByID[member.GroupID]
	if !ok {
		return entities.Member{}, false, domainerrors.ErrGroupNotFound
	}
	members := s.membersByGroupID[member.GroupID]
	if existing, ok := members[member.UserID]; ok {
		return existing, false, nil
	}
	if len(members) >= group.MaxMembers {
		return entities.Member{}, false, domainerrors.ErrGroupFull
	}
	if members == nil {
		members = make(map[string]entities.Member)
		s.membersByGroupID[member.GroupID] = members
	}
	members[member.UserID] = member
	return member, true, nil
}

func (s *Store) RemoveMember(_ context.Context, groupID string, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.membersByGroupID[strings.TrimSpace(groupID)]
	userID = strings.TrimSpace(userID)
	if _, ok := members[userID]; !ok {
		return false, nil
	}
	delete(members, userID)
	return true, nil
}

func (s *Store) GetMember(_ context.Context, groupID string, userID string) (entities.Member, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.membersByGroupID[strings.TrimSpace(groupID)][strings.TrimSpace(userID)]
	return member, ok, nil
}

func (s *Store) ListMembers(_ context.Context, groupID string) ([]entities.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groupID = strings.TrimSpace(groupID)
	if _, ok := s.groupsByID[groupID]; !ok {
		return nil, domainerrors.ErrGroupNotFound
	}
	items := make([]entities.Member, 0, len(s.membersByGroupID[groupID]))
	for _, member := range s.membersByGroupID[groupID] {
		items = append(items, member)
	}
	sortMembers(items)
	return items, nil
}

func (s *Store) ListGroupsForUser(_ context.Context, userID string) ([]entities.GroupSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID = strings.TrimSpace(userID)
	items := make([]entities.GroupSummary, 0)
	for groupID, members := range s.membersByGroupID {
		member, ok := members[userID]
		if !ok {
			continue
		}
		items = append(items, entities.GroupSummary{
			Group:       s.groupsByID[groupID],
			MemberCount: len(members),
			MyRole:      member.Role,
		})
	}
	return items, nil
}

func (s *Store) ListUserGroupIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID = strings.TrimSpace(userID)
	items := make([]string, 0)
	for groupID, members := range s.membersByGroupID {
		if _, ok := members[userID]; ok {
			items = append(items, groupID)
		}
	}
	sort.Strings(items)
	return items, nil
}

func (s *Store) TouchLastEventAt(_ context.Context, groupID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	groupID = strings.TrimSpace(groupID)
	group, ok := s.groupsByID[groupID]
	if !ok {
		return domainerrors.ErrGroupNotFound
	}
	at = at.UTC()
	if group.LastEventAt != nil && !at.After(*group.LastEventAt) {
		return nil
	}
	group.LastEventAt = &at
	s.groupsByID[groupID] = group
	return nil
}

func (s *Store) Reserve(_ context.Context, record ports.IdempotencyRecord, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.idempotency[record.Key]; ok && now.Before(existing.ExpiresAt) {
		existing.Payload = append([]byte(nil), existing.Payload...)
		return existing, false, nil
	}
	record.Payload = nil
	s.idempotency[record.Key] = record
	return ports.IdempotencyRecord{}, true, nil
}

func (s *Store) Complete(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[key]
	if !ok {
		return domainerrors.ErrConflict
	}
	record.Payload = append([]byte(nil), payload...)
	s.idempotency[key] = record
	return nil
}

func (s *Store) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.idempotency, key)
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	if existing, ok := s.eventDedup[key]; ok {
		if existing.expiresAt.IsZero() || time.Now().UTC().Before(existing.expiresAt) {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, domainerrors.ErrConflict
			}
			return true, nil
		}
	}
	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) ReleaseEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.eventDedup, strings.TrimSpace(eventID))
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

// sortMembers puts the owner first, then members by join time.
func sortMembers(items []entities.Member) {
	sort.Slice(items, func(i, j int) bool {
		if (items[i].Role == entities.RoleOwner) != (items[j].Role == entities.RoleOwner) {
			return items[i].Role == entities.RoleOwner
		}
		if !items[i].JoinedAt.Equal(items[j].JoinedAt) {
			return items[i].JoinedAt.Before(items[j].JoinedAt)
		}
		return items[i].UserID < items[j].UserID
	})
}
