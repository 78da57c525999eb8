package mana

import (
	"testing"

	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

func testDefs() *state.Defs {
	return &state.Defs{
		Abilities: map[string]types.AbilityDef{
			"quake": {ID: "quake", ManaCost: 3},
		},
	}
}

func testState() types.BattleState {
	return types.BattleState{
		PlayerTeam: types.Team{
			Units: []types.Unit{
				{ID: "isaac", CurrentHP: 30, ManaGain: 1, AutoAttackTiming: types.TimingSameTurn},
				{ID: "garet", CurrentHP: 30, ManaGain: 2, AutoAttackTiming: types.TimingNextTurn},
				{ID: "ivan", CurrentHP: 0, ManaGain: 5},
			},
		},
		QueuedActions:  make([]types.QueuedAction, 3),
		MaxMana:        8,
		RoundStartMana: 4,
		RemainingMana:  4,
	}
}

func basic() types.QueuedAction {
	return types.QueuedAction{Queued: true, AbilityID: types.None[string]()}
}

func TestCost(t *testing.T) {
	defs := testDefs()
	tests := []struct {
		name string
		id   types.Option[string]
		want int
	}{
		{"basic attack", types.None[string](), 0},
		{"known ability", types.Some("quake"), 3},
		{"unknown ability", types.Some("nope"), 0},
	}
	for _, tt := range tests {
		if got := Cost(defs, tt.id); got != tt.want {
			t.Errorf("%s: Cost = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestRecompute_SameTurnIsSpendableNow(t *testing.T) {
	s := testState()
	s.QueuedActions[0] = basic()
	Recompute(&s)

	if s.PendingManaThisRound != 1 {
		t.Errorf("PendingManaThisRound = %d, want 1", s.PendingManaThisRound)
	}
	if s.RemainingMana != 5 {
		t.Errorf("RemainingMana = %d, want 5", s.RemainingMana)
	}
}

func TestRecompute_NextTurnIsDeferred(t *testing.T) {
	s := testState()
	s.QueuedActions[1] = basic()
	Recompute(&s)

	if s.PendingManaNextRound != 2 {
		t.Errorf("PendingManaNextRound = %d, want 2", s.PendingManaNextRound)
	}
	if s.RemainingMana != 4 {
		t.Errorf("RemainingMana = %d, want 4 (next-turn mana not spendable)", s.RemainingMana)
	}
}

func TestRecompute_IgnoresKOUnits(t *testing.T) {
	s := testState()
	s.QueuedActions[2] = basic()
	Recompute(&s)

	if s.PendingManaThisRound != 0 {
		t.Errorf("KO'd unit should not generate mana, got %d", s.PendingManaThisRound)
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	s := testState()
	s.QueuedActions[0] = basic()
	s.QueuedActions[1] = types.QueuedAction{Queued: true, AbilityID: types.Some("quake"), ManaCharged: 3}

	Recompute(&s)
	first := s
	Recompute(&s)
	Recompute(&s)

	if s.RemainingMana != first.RemainingMana ||
		s.PendingManaThisRound != first.PendingManaThisRound ||
		s.PendingManaNextRound != first.PendingManaNextRound {
		t.Errorf("recompute not idempotent: %+v vs %+v", first, s)
	}
	if s.RemainingMana != 2 {
		t.Errorf("RemainingMana = %d, want 2", s.RemainingMana)
	}
}

func TestRecompute_CappedAtMax(t *testing.T) {
	s := testState()
	s.RoundStartMana = 8
	s.QueuedActions[0] = basic()
	Recompute(&s)

	if s.RemainingMana != 8 {
		t.Errorf("RemainingMana = %d, want cap 8", s.RemainingMana)
	}
}

func TestNextRoundStart(t *testing.T) {
	s := testState()
	s.RemainingMana = 3
	if got := NextRoundStart(&s, 2, 1); got != 6 {
		t.Errorf("NextRoundStart = %d, want 6", got)
	}
	if got := NextRoundStart(&s, 10, 0); got != 8 {
		t.Errorf("NextRoundStart = %d, want cap 8", got)
	}
	s.RemainingMana = -2
	if got := NextRoundStart(&s, 0, 0); got != 0 {
		t.Errorf("NextRoundStart = %d, want 0 for negative remainder", got)
	}
}

func TestBeginPlanning_ClearsQueue(t *testing.T) {
	s := testState()
	s.QueuedActions[0] = basic()
	s.QueuedDjinn = []string{"flint"}

	BeginPlanning(&s, 6)

	if s.RoundStartMana != 6 || s.RemainingMana != 6 {
		t.Errorf("mana = %d/%d, want 6/6", s.RoundStartMana, s.RemainingMana)
	}
	if len(s.QueuedActions) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(s.QueuedActions))
	}
	for i, q := range s.QueuedActions {
		if q.Queued {
			t.Errorf("slot %d still queued", i)
		}
	}
	if len(s.QueuedDjinn) != 0 {
		t.Errorf("queued djinn not cleared: %v", s.QueuedDjinn)
	}
}
