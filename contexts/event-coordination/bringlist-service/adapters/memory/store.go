package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/bringlist-service/domain/errors"
	"meetfix/contexts/event-coordination/bringlist-service/ports"

	"github.com/google/uuid"
)

type claimKey struct {
	itemID string
	userID string
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

// Store keeps items and claims in maps. It also carries a small event and
// membership projection so tests can run without the other services.
type Store struct {
	mu sync.Mutex

	items        map[string]entities.BringItem
	claims       map[claimKey]entities.ItemClaim
	eventGroups  map[string]string
	groupMembers map[string]map[string]struct{}
	eventDedup   map[string]dedupRecord
}

func NewStore() *Store {
	return &Store{
		items:        make(map[string]entities.BringItem),
		claims:       make(map[claimKey]entities.ItemClaim),
		eventGroups:  make(map[string]string),
		groupMembers: make(map[string]map[string]struct{}),
		eventDedup:   make(map[string]dedupRecord),
	}
}

func (s *Store) SetEvent(eventID string, groupID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventGroups[eventID] = groupID
}

func (s *Store) SetGroupMember(groupID string, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.groupMembers[groupID]
	if !ok {
		members = make(map[string]struct{})
		s.groupMembers[groupID] = members
	}
	members[userID] = struct{}{}
}

func (s *Store) EventGroupID(_ context.Context, eventID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groupID, ok := s.eventGroups[strings.TrimSpace(eventID)]
	if !ok {
		return "", domainerrors.ErrEventNotFound
	}
	return groupID, nil
}

func (s *Store) IsMember(_ context.Context, groupID string, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.groupMembers[groupID][userID]
	return ok, nil
}

func (s *Store) CreateItem(_ context.Context, item entities.BringItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ItemID]; exists {
		return domainerrors.ErrConflict
	}
	s.items[item.ItemID] = item
	return nil
}

func (s *Store) GetItem(_ context.Context, itemID string) (entities.BringItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[strings.TrimSpace(itemID)]
	if !ok {
		return entities.BringItem{}, domainerrors.ErrItemNotFound
	}
	return item, nil
}

func (s *Store) ListItems(_ context.Context, eventID string) ([]entities.BringItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.BringItem, 0)
	for _, item := range s.items {
		if item.EventID == eventID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Store) DeleteItem(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[itemID]; !ok {
		return domainerrors.ErrItemNotFound
	}
	s.deleteItemLocked(itemID)
	return nil
}

func (s *Store) DeleteEventItems(_ context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for itemID, item := range s.items {
		if item.EventID != eventID {
			continue
		}
		s.deleteItemLocked(itemID)
		removed++
	}
	return removed, nil
}

func (s *Store) ClaimItem(_ context.Context, claim entities.ItemClaim, policy ports.ClaimPolicy) (entities.ItemClaim, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[claim.ItemID]
	if !ok {
		return entities.ItemClaim{}, false, domainerrors.ErrItemNotFound
	}
	existing, err := policy(item, s.claimsForItemLocked(item.ItemID))
	if err != nil {
		return entities.ItemClaim{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}
	s.claims[claimKey{itemID: claim.ItemID, userID: claim.UserID}] = claim
	return claim, true, nil
}

func (s *Store) RemoveClaim(_ context.Context, itemID string, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := claimKey{itemID: itemID, userID: userID}
	if _, ok := s.claims[key]; !ok {
		return false, nil
	}
	delete(s.claims, key)
	return true, nil
}

func (s *Store) ListClaims(_ context.Context, eventID string) ([]entities.ItemClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claims := make([]entities.ItemClaim, 0)
	for _, claim := range s.claims {
		if claim.EventID == eventID {
			claims = append(claims, claim)
		}
	}
	return claims, nil
}

func (s *Store) ListClaimedItems(_ context.Context, eventID string, userID string) ([]entities.BringItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.BringItem, 0)
	for key, claim := range s.claims {
		if claim.EventID != eventID || key.userID != userID {
			continue
		}
		if item, ok := s.items[key.itemID]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	if existing, ok := s.eventDedup[key]; ok && time.Now().UTC().Before(existing.expiresAt) {
		if existing.payloadHash != payloadHash {
			return false, domainerrors.ErrEventDedupeConflict
		}
		return true, nil
	}
	s.eventDedup[key] = dedupRecord{payloadHash: payloadHash, expiresAt: expiresAt.UTC()}
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

func (s *Store) claimsForItemLocked(itemID string) []entities.ItemClaim {
	claims := make([]entities.ItemClaim, 0)
	for key, claim := range s.claims {
		if key.itemID == itemID {
			claims = append(claims, claim)
		}
	}
	return claims
}

func (s *Store) deleteItemLocked(itemID string) {
	for key := range s.claims {
		if key.itemID == itemID {
			delete(s.claims, key)
		}
	}
	delete(s.items, itemID)
}

var (
	_ ports.ItemRepository  = (*Store)(nil)
	_ ports.ClaimRepository = (*Store)(nil)
	_ ports.EventDirectory  = (*Store)(nil)
	_ ports.EventDedupStore = (*Store)(nil)
	_ ports.Clock           = (*Store)(nil)
	_ ports.IDGenerator     = (*Store)(nil)
)
