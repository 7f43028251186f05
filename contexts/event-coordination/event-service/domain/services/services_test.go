package services

import (
	"errors"
	"testing"
	"time"

	"meetfix/contexts/event-coordination/event-service/domain/entities"
	domainerrors "meetfix/contexts/event-coordination/event-service/domain/errors"
)

var monday = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

func weekSlots() []entities.Slot {
	created := monday.Add(-72 * time.Hour)
	return []entities.Slot{
		// Deliberately out of chronological order.
		{SlotID: "wed", EventID: "evt", SlotAt: monday.Add(48 * time.Hour), CreatedAt: created.Add(2 * time.Second)},
		{SlotID: "mon", EventID: "evt", SlotAt: monday, CreatedAt: created},
		{SlotID: "tue", EventID: "evt", SlotAt: monday.Add(24 * time.Hour), CreatedAt: created.Add(time.Second)},
	}
}

func TestTallySlotsOrdersChronologicallyAndFlagsMine(t *testing.T) {
	tally := TallySlots(weekSlots(), map[string]int{"mon": 3, "tue": 1, "wed": 3, "gone": 9}, "tue")
	if len(tally) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(tally))
	}
	order := []string{tally[0].Slot.SlotID, tally[1].Slot.SlotID, tally[2].Slot.SlotID}
	if order[0] != "mon" || order[1] != "tue" || order[2] != "wed" {
		t.Fatalf("expected chronological order, got %v", order)
	}
	if !tally[1].VotedByMe || tally[0].VotedByMe || tally[2].VotedByMe {
		t.Fatalf("expected only tue voted by me, got %+v", tally)
	}
	if total := TotalVotes(tally); total != 7 {
		t.Fatalf("expected total 7 ignoring unknown slots, got %d", total)
	}
	if tally[0].Percentage != 43 || tally[1].Percentage != 14 {
		t.Fatalf("unexpected percentages: %d %d", tally[0].Percentage, tally[1].Percentage)
	}
}

func TestRankByVotesIsStableOnTies(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		want   []string
	}{
		{name: "two way tie keeps chronology", counts: map[string]int{"mon": 2, "tue": 2, "wed": 1}, want: []string{"mon", "tue", "wed"}},
		{name: "later slot leads", counts: map[string]int{"mon": 1, "tue": 0, "wed": 4}, want: []string{"wed", "mon", "tue"}},
		{name: "no votes", counts: map[string]int{}, want: []string{"mon", "tue", "wed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := RankByVotes(TallySlots(weekSlots(), tt.counts, ""))
			for i, id := range tt.want {
				if ranked[i].Slot.SlotID != id {
					t.Fatalf("position %d: expected %s, got %s", i, id, ranked[i].Slot.SlotID)
				}
			}
		})
	}
}

func TestLeaderPrefersFirstOnTie(t *testing.T) {
	leader, ok := Leader(TallySlots(weekSlots(), map[string]int{"mon": 3, "tue": 1, "wed": 3}, ""))
	if !ok {
		t.Fatal("expected a leader")
	}
	if leader.Slot.SlotID != "mon" {
		t.Fatalf("expected mon to win the tie, got %s", leader.Slot.SlotID)
	}
	if _, ok := Leader([]entities.SlotTally{}); ok {
		t.Fatal("expected no leader for empty tally")
	}
}

func TestBuildEventTallyRanksOptions(t *testing.T) {
	created := monday.Add(-time.Hour)
	activities := []entities.Activity{
		{ActivityID: "catan", EventID: "evt", Name: "Catan", CreatedAt: created},
		{ActivityID: "chess", EventID: "evt", Name: "Chess", CreatedAt: created.Add(time.Second)},
	}
	tally := BuildEventTally(
		weekSlots(),
		activities,
		map[string]int{"mon": 1, "wed": 4},
		map[string]int{"chess": 2},
		entities.UserVotes{SlotID: "wed"},
	)
	want := []string{"wed", "mon", "tue"}
	if len(tally.RankedSlotIDs) != len(want) {
		t.Fatalf("expected %d ranked slots, got %v", len(want), tally.RankedSlotIDs)
	}
	for i, id := range want {
		if tally.RankedSlotIDs[i] != id {
			t.Fatalf("position %d: expected %s, got %v", i, id, tally.RankedSlotIDs)
		}
	}
	if len(tally.RankedActivityIDs) != 2 || tally.RankedActivityIDs[0] != "chess" || tally.RankedActivityIDs[1] != "catan" {
		t.Fatalf("unexpected activity ranking %v", tally.RankedActivityIDs)
	}
	if tally.Slots[0].Slot.SlotID != "mon" {
		t.Fatalf("display order must stay chronological, got %s first", tally.Slots[0].Slot.SlotID)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		count, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := Percentage(tt.count, tt.total); got != tt.want {
			t.Fatalf("Percentage(%d, %d) = %d, want %d", tt.count, tt.total, got, tt.want)
		}
	}
}

func openSnapshot() entities.EventSnapshot {
	created := monday.Add(-72 * time.Hour)
	return entities.EventSnapshot{
		Event: entities.Event{
			EventID:   "evt",
			GroupID:   "grp",
			Name:      "Board games",
			Status:    entities.EventStatusOpen,
			CreatedBy: "owner",
		},
		Slots: weekSlots(),
		Activities: []entities.Activity{
			{ActivityID: "act-b", EventID: "evt", Name: "Catan", CreatedAt: created},
			{ActivityID: "act-a", EventID: "evt", Name: "Chess", CreatedAt: created.Add(time.Second)},
		},
		SlotCounts:     map[string]int{"mon": 3, "tue": 1, "wed": 3},
		ActivityCounts: map[string]int{"act-b": 2, "act-a": 2},
	}
}

func TestFinalizeDefaultsToLeaders(t *testing.T) {
	event, err := Finalize(openSnapshot(), FinalizeInput{ActorID: "owner", Now: monday})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if !event.IsFinalized() || event.FinalizedSlotID != "mon" {
		t.Fatalf("expected finalized on mon, got %+v", event)
	}
	if event.FinalizedDate == nil || !event.FinalizedDate.Equal(monday) {
		t.Fatalf("expected finalized date %s, got %v", monday, event.FinalizedDate)
	}
	if event.FinalizedActivity == nil || *event.FinalizedActivity != "Catan" {
		t.Fatalf("expected first-created tied activity, got %v", event.FinalizedActivity)
	}
}

func TestFinalizeOverridesAndGuards(t *testing.T) {
	empty := ""
	custom := "  Poker  "
	tests := []struct {
		name       string
		mutate     func(*entities.EventSnapshot)
		input      FinalizeInput
		wantErr    error
		wantSlot   string
		wantNoActy bool
		wantActy   string
	}{
		{name: "chosen slot", input: FinalizeInput{ActorID: "owner", SlotID: "tue"}, wantSlot: "tue", wantActy: "Catan"},
		{name: "explicit no activity", input: FinalizeInput{ActorID: "owner", ActivityName: &empty}, wantSlot: "mon", wantNoActy: true},
		{name: "free text activity", input: FinalizeInput{ActorID: "owner", ActivityName: &custom}, wantSlot: "mon", wantActy: "Poker"},
		{
			name:     "activities without votes",
			mutate:   func(s *entities.EventSnapshot) { s.ActivityCounts = map[string]int{} },
			input:    FinalizeInput{ActorID: "owner"},
			wantSlot: "mon",
			wantActy: "Catan",
		},
		{name: "not owner", input: FinalizeInput{ActorID: "member"}, wantErr: domainerrors.ErrNotEventOwner},
		{name: "foreign slot", input: FinalizeInput{ActorID: "owner", SlotID: "other"}, wantErr: domainerrors.ErrSlotNotFound},
		{
			name:    "no slots",
			mutate:  func(s *entities.EventSnapshot) { s.Slots = nil },
			input:   FinalizeInput{ActorID: "owner"},
			wantErr: domainerrors.ErrNoSlots,
		},
		{
			name:    "already finalized",
			mutate:  func(s *entities.EventSnapshot) { s.Event.Status = entities.EventStatusFinalized },
			input:   FinalizeInput{ActorID: "owner"},
			wantErr: domainerrors.ErrInvalidStateTransition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := openSnapshot()
			if tt.mutate != nil {
				tt.mutate(&snapshot)
			}
			event, err := Finalize(snapshot, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("finalize failed: %v", err)
			}
			if event.FinalizedSlotID != tt.wantSlot {
				t.Fatalf("expected slot %s, got %s", tt.wantSlot, event.FinalizedSlotID)
			}
			if tt.wantNoActy {
				if event.FinalizedActivity != nil {
					t.Fatalf("expected no activity, got %q", *event.FinalizedActivity)
				}
				return
			}
			if event.FinalizedActivity == nil || *event.FinalizedActivity != tt.wantActy {
				t.Fatalf("expected activity %q, got %v", tt.wantActy, event.FinalizedActivity)
			}
		})
	}
}

func TestPackUpAndReopen(t *testing.T) {
	finalized, err := Finalize(openSnapshot(), FinalizeInput{ActorID: "owner", Now: monday})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if _, err := PackUp(openSnapshot().Event, "owner", monday); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition packing up an open event, got %v", err)
	}
	if _, err := PackUp(finalized, "member", monday); !errors.Is(err, domainerrors.ErrNotEventOwner) {
		t.Fatalf("expected owner check, got %v", err)
	}
	packed, err := PackUp(finalized, "owner", monday)
	if err != nil {
		t.Fatalf("pack up failed: %v", err)
	}
	if packed.LifecycleState() != "packed_up" {
		t.Fatalf("expected packed_up state, got %s", packed.LifecycleState())
	}

	reopened, err := Reopen(packed, "owner", monday)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if !reopened.IsOpen() || reopened.PackedUp || reopened.FinalizedDate != nil ||
		reopened.FinalizedSlotID != "" || reopened.FinalizedActivity != nil {
		t.Fatalf("expected cleared open event, got %+v", reopened)
	}
	if _, err := Reopen(reopened, "owner", monday); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition reopening an open event, got %v", err)
	}
}

func TestResolveSlotTime(t *testing.T) {
	at, minutes, err := ResolveSlotTime("2026-03-02", "19:30", "2h", "Europe/Berlin")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !at.Equal(time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC)) || minutes != 120 {
		t.Fatalf("unexpected slot %s / %d", at, minutes)
	}

	at, minutes, err = ResolveSlotTime("2026-03-02", "", "", "")
	if err != nil || minutes != 60 || !at.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected midnight UTC default, got %s / %d / %v", at, minutes, err)
	}

	for _, bad := range [][4]string{
		{"03/02/2026", "10:00", "1h", ""},
		{"2026-03-02", "25:00", "1h", ""},
		{"2026-03-02", "10:00", "4h", ""},
		{"2026-03-02", "10:00", "1h", "Mars/Olympus"},
	} {
		if _, _, err := ResolveSlotTime(bad[0], bad[1], bad[2], bad[3]); !errors.Is(err, domainerrors.ErrInvalidEventInput) {
			t.Fatalf("expected invalid input for %v, got %v", bad, err)
		}
	}
}
