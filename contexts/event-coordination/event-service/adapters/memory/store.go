package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"meetfix/contexts/event-coordination/event-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/event-service/domain/errors"
	"meetfix/contexts/event-coordination/event-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type voteKey struct {
	eventID  string
	userID   string
	category entities.VoteCategory
}

type timelineKey struct {
	eventID string
	userID  string
}

// Store is the in-memory adapter for every event-service port. A single mutex
// stands in for the row locks the postgres adapter takes.
type Store struct {
	mu sync.RWMutex

	events      map[string]entities.Event
	slots       map[string]entities.Slot
	activities  map[string]entities.Activity
	votes       map[voteKey]entities.Vote
	timelines   map[timelineKey]entities.Timeline
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
	members     map[string]map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		events:      make(map[string]entities.Event),
		slots:       make(map[string]entities.Slot),
		activities:  make(map[string]entities.Activity),
		votes:       make(map[voteKey]entities.Vote),
		timelines:   make(map[timelineKey]entities.Timeline),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
		members:     make(map[string]map[string]struct{}),
	}
}

// SetGroupMember seeds the membership projection used when no group-service
// directory is wired.
func (s *Store) SetGroupMember(groupID string, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groupID = strings.TrimSpace(groupID)
	if s.members[groupID] == nil {
		s.members[groupID] = make(map[string]struct{})
	}
	s.members[groupID][strings.TrimSpace(userID)] = struct{}{}
}

func (s *Store) IsMember(_ context.Context, groupID string, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[strings.TrimSpace(groupID)][strings.TrimSpace(userID)]
	return ok, nil
}

func (s *Store) ListUserGroupIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID = strings.TrimSpace(userID)
	items := make([]string, 0)
	for groupID, members := range s.members {
		if _, ok := members[userID]; ok {
			items = append(items, groupID)
		}
	}
	sort.Strings(items)
	return items, nil
}

func (s *Store) CreateEvent(
	_ context.Context,
	event entities.Event,
	slots []entities.Slot,
	activities []entities.Activity,
	outbox []ports.EventEnvelope,
	record ports.IdempotencyRecord,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	if existing, exists := s.idempotency[key]; exists && existing.ExpiresAt.After(event.CreatedAt.UTC()) {
		return domainerrors.ErrIdempotencyKeyInUse
	}
	if _, exists := s.events[event.EventID]; exists {
		return domainerrors.ErrConflict
	}
	if len(slots) == 0 {
		return domainerrors.ErrNoSlots
	}
	records, err := buildOutboxRecords(outbox)
	if err != nil {
		return err
	}

	record.Key = key
	record.ExpiresAt = record.ExpiresAt.UTC()
	s.idempotency[key] = record
	s.events[event.EventID] = event
	for _, slot := range slots {
		s.slots[slot.SlotID] = slot
	}
	for _, activity := range activities {
		s.activities[activity.ActivityID] = activity
	}
	for _, record := range records {
		s.outbox[record.message.OutboxID] = record
	}
	return nil
}

func (s *Store) GetEvent(_ context.Context, eventID string) (entities.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[strings.TrimSpace(eventID)]
	if !ok {
		return entities.Event{}, domainerrors.ErrEventNotFound
	}
	return event, nil
}

func (s *Store) ListSlots(_ context.Context, eventID string) ([]entities.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slotsFor(strings.TrimSpace(eventID)), nil
}

func (s *Store) ListActivities(_ context.Context, eventID string) ([]entities.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activitiesFor(strings.TrimSpace(eventID)), nil
}

func (s *Store) ListEventsByGroup(_ context.Context, groupID string) ([]entities.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groupID = strings.TrimSpace(groupID)
	items := make([]entities.Event, 0)
	for _, event := range s.events {
		if event.GroupID == groupID {
			items = append(items, event)
		}
	}
	sortEventsByCreation(items)
	return items, nil
}

func (s *Store) ListFinalizedEvents(_ context.Context, groupIDs []string) ([]entities.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]struct{}, len(groupIDs))
	for _, groupID := range groupIDs {
		wanted[strings.TrimSpace(groupID)] = struct{}{}
	}
	items := make([]entities.Event, 0)
	for _, event := range s.events {
		if _, ok := wanted[event.GroupID]; ok && event.IsFinalized() {
			items = append(items, event)
		}
	}
	sortEventsByCreation(items)
	return items, nil
}

// MutateEvent holds the write lock for the whole read-decide-write cycle, so
// concurrent transitions on one event serialize.
func (s *Store) MutateEvent(_ context.Context, eventID string, mutate ports.EventMutation) (entities.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eventID = strings.TrimSpace(eventID)
	event, ok := s.events[eventID]
	if !ok {
		return entities.Event{}, domainerrors.ErrEventNotFound
	}
	snapshot := entities.EventSnapshot{
		Event:          event,
		Slots:          s.slotsFor(eventID),
		Activities:     s.activitiesFor(eventID),
		SlotCounts:     s.countsFor(eventID, entities.VoteCategorySlot),
		ActivityCounts: s.countsFor(eventID, entities.VoteCategoryActivity),
	}
	change, err := mutate(snapshot)
	if err != nil {
		return entities.Event{}, err
	}
	records, err := buildOutboxRecords(change.Outbox)
	if err != nil {
		return entities.Event{}, err
	}

	if change.Delete {
		s.deleteEventLocked(eventID)
	} else {
		change.Event.EventID = eventID
		s.events[eventID] = change.Event
	}
	for _, record := range records {
		s.outbox[record.message.OutboxID] = record
	}
	return change.Event, nil
}

func (s *Store) AddSlot(_ context.Context, slot entities.Slot, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[slot.EventID]
	if !ok {
		return domainerrors.ErrEventNotFound
	}
	if !event.IsOpen() {
		return domainerrors.ErrEventLocked
	}
	if limit > 0 && len(s.slotsFor(slot.EventID)) >= limit {
		return domainerrors.ErrOptionLimitReached
	}
	s.slots[slot.SlotID] = slot
	return nil
}

func (s *Store) AddActivity(_ context.Context, activity entities.Activity, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[activity.EventID]
	if !ok {
		return domainerrors.ErrEventNotFound
	}
	if !event.IsOpen() {
		return domainerrors.ErrEventLocked
	}
	existing := s.activitiesFor(activity.EventID)
	if limit > 0 && len(existing) >= limit {
		return domainerrors.ErrOptionLimitReached
	}
	for _, item := range existing {
		if strings.EqualFold(item.Name, activity.Name) {
			return domainerrors.ErrConflict
		}
	}
	s.activities[activity.ActivityID] = activity
	return nil
}

// CastVote replaces the user's vote in the category. The map key is the
// (event, user, category) identity, so a second row cannot exist.
func (s *Store) CastVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkVoteLocked(vote); err != nil {
		return err
	}
	s.votes[voteKey{eventID: vote.EventID, userID: vote.UserID, category: vote.Category}] = vote
	return nil
}

func (s *Store) RetractVote(
	_ context.Context,
	eventID string,
	userID string,
	category entities.VoteCategory,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[strings.TrimSpace(eventID)]
	if !ok {
		return false, domainerrors.ErrEventNotFound
	}
	if !event.IsOpen() {
		return false, domainerrors.ErrEventLocked
	}
	key := voteKey{eventID: event.EventID, userID: strings.TrimSpace(userID), category: category}
	if _, exists := s.votes[key]; !exists {
		return false, nil
	}
	delete(s.votes, key)
	return true, nil
}

func (s *Store) GetUserVotes(_ context.Context, eventID string, userID string) (entities.UserVotes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userVotesLocked(strings.TrimSpace(eventID), strings.TrimSpace(userID)), nil
}

// CastVotesIfNone inserts all votes only when the user holds no vote in the
// event. It reports whether anything was written.
func (s *Store) CastVotesIfNone(
	_ context.Context,
	eventID string,
	userID string,
	votes []entities.Vote,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eventID = strings.TrimSpace(eventID)
	userID = strings.TrimSpace(userID)
	if s.userVotesLocked(eventID, userID).HasAny() {
		return false, nil
	}
	for _, vote := range votes {
		if err := s.checkVoteLocked(vote); err != nil {
			return false, err
		}
	}
	for _, vote := range votes {
		s.votes[voteKey{eventID: vote.EventID, userID: vote.UserID, category: vote.Category}] = vote
	}
	return len(votes) > 0, nil
}

func (s *Store) CountVotes(_ context.Context, eventID string, category entities.VoteCategory) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countsFor(strings.TrimSpace(eventID), category), nil
}

func (s *Store) UpsertTimeline(_ context.Context, timeline entities.Timeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[timeline.EventID]; !ok {
		return domainerrors.ErrEventNotFound
	}
	s.timelines[timelineKey{eventID: timeline.EventID, userID: timeline.UserID}] = timeline
	return nil
}

func (s *Store) GetTimeline(_ context.Context, eventID string, userID string) (entities.Timeline, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	timeline, ok := s.timelines[timelineKey{eventID: strings.TrimSpace(eventID), userID: strings.TrimSpace(userID)}]
	return timeline, ok, nil
}

// ListTimelines returns every member timeline for an event.
func (s *Store) ListTimelines(_ context.Context, eventID string) ([]entities.Timeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eventID = strings.TrimSpace(eventID)
	items := make([]entities.Timeline, 0)
	for key, timeline := range s.timelines {
		if key.eventID == eventID {
			items = append(items, timeline)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UserID < items[j].UserID })
	return items, nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = strings.TrimSpace(key)
	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) checkVoteLocked(vote entities.Vote) error {
	event, ok := s.events[vote.EventID]
	if !ok {
		return domainerrors.ErrEventNotFound
	}
	if !event.IsOpen() {
		return domainerrors.ErrEventLocked
	}
	switch vote.Category {
	case entities.VoteCategorySlot:
		slot, ok := s.slots[vote.OptionID]
		if !ok || slot.EventID != vote.EventID {
			return domainerrors.ErrSlotNotFound
		}
	case entities.VoteCategoryActivity:
		activity, ok := s.activities[vote.OptionID]
		if !ok || activity.EventID != vote.EventID {
			return domainerrors.ErrActivityNotFound
		}
	default:
		return domainerrors.ErrInvalidVoteInput
	}
	return nil
}

func (s *Store) userVotesLocked(eventID string, userID string) entities.UserVotes {
	return entities.UserVotes{
		SlotID:     s.votes[voteKey{eventID: eventID, userID: userID, category: entities.VoteCategorySlot}].OptionID,
		ActivityID: s.votes[voteKey{eventID: eventID, userID: userID, category: entities.VoteCategoryActivity}].OptionID,
	}
}

func (s *Store) countsFor(eventID string, category entities.VoteCategory) map[string]int {
	counts := make(map[string]int)
	for key, vote := range s.votes {
		if key.eventID == eventID && key.category == category {
			counts[vote.OptionID]++
		}
	}
	return counts
}

func (s *Store) slotsFor(eventID string) []entities.Slot {
	items := make([]entities.Slot, 0, entities.MaxSlotsPerEvent)
	for _, slot := range s.slots {
		if slot.EventID == eventID {
			items = append(items, slot)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].SlotID < items[j].SlotID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func (s *Store) activitiesFor(eventID string) []entities.Activity {
	items := make([]entities.Activity, 0, entities.MaxActivitiesPerEvent)
	for _, activity := range s.activities {
		if activity.EventID == eventID {
			items = append(items, activity)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ActivityID < items[j].ActivityID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func (s *Store) deleteEventLocked(eventID string) {
	delete(s.events, eventID)
	for id, slot := range s.slots {
		if slot.EventID == eventID {
			delete(s.slots, id)
		}
	}
	for id, activity := range s.activities {
		if activity.EventID == eventID {
			delete(s.activities, id)
		}
	}
	for key := range s.votes {
		if key.eventID == eventID {
			delete(s.votes, key)
		}
	}
	for key := range s.timelines {
		if key.eventID == eventID {
			delete(s.timelines, key)
		}
	}
}

func buildOutboxRecords(envelopes []ports.EventEnvelope) ([]outboxRecord, error) {
	records := make([]outboxRecord, 0, len(envelopes))
	for _, envelope := range envelopes {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return nil, err
		}
		outboxID := strings.TrimSpace(envelope.EventID)
		if outboxID == "" {
			outboxID = uuid.NewString()
		}
		createdAt := envelope.OccurredAt.UTC()
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		records = append(records, outboxRecord{
			message: ports.OutboxMessage{
				OutboxID:     outboxID,
				EventType:    strings.TrimSpace(envelope.EventType),
				PartitionKey: strings.TrimSpace(envelope.PartitionKey),
				Payload:      payload,
				CreatedAt:    createdAt,
			},
		})
	}
	return records, nil
}

func sortEventsByCreation(items []entities.Event) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].EventID < items[j].EventID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
