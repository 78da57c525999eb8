package queue

import (
	"errors"
	"testing"

	"github.com/nathoo/djinncore/engine/djinn"
	"github.com/nathoo/djinncore/engine/mana"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

func testDefs() *state.Defs {
	return &state.Defs{
		Abilities: map[string]types.AbilityDef{
			"quake":    {ID: "quake", Kind: types.KindPsynergy, Target: types.TargetAllEnemies, ManaCost: 3, BasePower: 12},
			"ragnarok": {ID: "ragnarok", Kind: types.KindPhysical, Target: types.TargetSingleEnemy, ManaCost: 4, BasePower: 20},
			"cure":     {ID: "cure", Kind: types.KindHeal, Target: types.TargetSingleAlly, ManaCost: 2, BasePower: 10},
			"revive":   {ID: "revive", Kind: types.KindRevive, Target: types.TargetSingleAlly, ManaCost: 5, BasePower: 50, TargetsDowned: true},
			"spire":    {ID: "spire", Kind: types.KindPsynergy, Target: types.TargetSingleEnemy, ManaCost: 1, BasePower: 8},
		},
		Djinn: map[string]types.DjinnDef{
			"flint": {ID: "flint", Element: types.ElementVenus, AtkBonus: 3, Unlocks: []string{"spire"}},
		},
	}
}

func testState() types.BattleState {
	s := types.BattleState{
		Phase: types.PhasePlanning,
		PlayerTeam: types.Team{
			Units: []types.Unit{
				{ID: "isaac", CurrentHP: 30, Stats: types.Stats{HP: 30}, Abilities: []string{"quake", "ragnarok"}, ManaGain: 1},
				{ID: "mia", CurrentHP: 25, Stats: types.Stats{HP: 25}, Abilities: []string{"cure", "revive"}, ManaGain: 2, AutoAttackTiming: types.TimingNextTurn},
				{ID: "garet", CurrentHP: 0, Stats: types.Stats{HP: 35}},
			},
			EquippedDjinn:  []string{"flint"},
			CollectedDjinn: []string{"flint"},
			DjinnTrackers:  map[string]types.DjinnTracker{"flint": {State: types.DjinnSet, LastActivatedTurn: -1}},
		},
		Enemies: []types.Unit{
			{ID: "goblin", CurrentHP: 20, Stats: types.Stats{HP: 20}},
			{ID: "bat", CurrentHP: 0, Stats: types.Stats{HP: 10}},
		},
		MaxMana: 6,
	}
	mana.BeginPlanning(&s, 4)
	return s
}

func mustQueue(t *testing.T, s types.BattleState, unit string, ability types.Option[string], targets ...string) types.BattleState {
	t.Helper()
	next, err := QueueAction(s, testDefs(), unit, ability, targets)
	if err != nil {
		t.Fatalf("QueueAction(%s): %v", unit, err)
	}
	return next
}

func TestQueueAction_ChargesMana(t *testing.T) {
	s := mustQueue(t, testState(), "isaac", types.Some("quake"), "goblin")

	if s.RemainingMana != 1 {
		t.Errorf("RemainingMana = %d, want 1", s.RemainingMana)
	}
	q := s.QueuedActions[0]
	if !q.Queued || q.ManaCharged != 3 {
		t.Errorf("slot = %+v, want queued with 3 charged", q)
	}
}

func TestQueueAction_DoesNotMutateInput(t *testing.T) {
	orig := testState()
	_ = mustQueue(t, orig, "isaac", types.Some("quake"))

	if orig.QueuedActions[0].Queued || orig.RemainingMana != 4 {
		t.Errorf("input state mutated: slot %+v, mana %d", orig.QueuedActions[0], orig.RemainingMana)
	}
}

func TestQueueAction_SameTurnAttackFundsAbility(t *testing.T) {
	s := testState()
	s = mustQueue(t, s, "isaac", types.None[string](), "goblin")
	if s.RemainingMana != 5 {
		t.Fatalf("RemainingMana = %d, want 5 after same-turn attack", s.RemainingMana)
	}
	s = mustQueue(t, s, "mia", types.Some("revive"), "garet")
	if s.RemainingMana != 0 {
		t.Errorf("RemainingMana = %d, want 0", s.RemainingMana)
	}

	// Isaac's attack paid for the revive; turning it into an ability now
	// would overdraw the pool.
	_, err := QueueAction(s, testDefs(), "isaac", types.Some("ragnarok"), []string{"goblin"})
	if !errors.Is(err, ErrInsufficientMana) {
		t.Errorf("expected ErrInsufficientMana, got %v", err)
	}
	if _, err := ClearQueuedAction(s, 0); !errors.Is(err, ErrManaCommitted) {
		t.Errorf("expected ErrManaCommitted, got %v", err)
	}
}

func TestQueueAction_RequeueFundingAttack(t *testing.T) {
	s := testState()
	s.Enemies = append(s.Enemies, types.Unit{ID: "slime", CurrentHP: 8, Stats: types.Stats{HP: 8}})
	s = mustQueue(t, s, "isaac", types.None[string](), "goblin")
	s = mustQueue(t, s, "mia", types.Some("revive"), "garet")
	if s.RemainingMana != 0 {
		t.Fatalf("RemainingMana = %d, want 0", s.RemainingMana)
	}

	tests := []struct {
		name   string
		target string
	}{
		{"same target", "goblin"},
		{"new target", "slime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := QueueAction(s, testDefs(), "isaac", types.None[string](), []string{tt.target})
			if err != nil {
				t.Fatalf("re-queue: %v", err)
			}
			if next.RemainingMana != 0 {
				t.Errorf("RemainingMana = %d, want 0", next.RemainingMana)
			}
			if got := next.QueuedActions[0].TargetIDs; len(got) != 1 || got[0] != tt.target {
				t.Errorf("targets = %v, want [%s]", got, tt.target)
			}
			if !next.QueuedActions[1].Queued {
				t.Error("revive slot lost")
			}
		})
	}
}

func TestQueueAction_NextTurnAttackDefers(t *testing.T) {
	s := mustQueue(t, testState(), "mia", types.None[string](), "goblin")
	if s.RemainingMana != 4 {
		t.Errorf("RemainingMana = %d, want 4", s.RemainingMana)
	}
	if s.PendingManaNextRound != 2 {
		t.Errorf("PendingManaNextRound = %d, want 2", s.PendingManaNextRound)
	}
}

func TestQueueAction_ReplaceRefunds(t *testing.T) {
	s := mustQueue(t, testState(), "isaac", types.Some("quake"))
	s = mustQueue(t, s, "isaac", types.Some("ragnarok"), "goblin")

	if s.RemainingMana != 0 {
		t.Errorf("RemainingMana = %d, want 0 after replacing 3-cost with 4-cost", s.RemainingMana)
	}
	if s.QueuedActions[0].ManaCharged != 4 {
		t.Errorf("ManaCharged = %d, want 4", s.QueuedActions[0].ManaCharged)
	}
}

func TestQueueAction_Errors(t *testing.T) {
	executing := testState()
	executing.Phase = types.PhaseExecuting

	tests := []struct {
		name    string
		s       types.BattleState
		unit    string
		ability types.Option[string]
		targets []string
		want    error
	}{
		{"wrong phase", executing, "isaac", types.None[string](), []string{"goblin"}, state.ErrNotPlanningPhase},
		{"unknown unit", testState(), "felix", types.None[string](), []string{"goblin"}, ErrUnknownUnit},
		{"ko unit", testState(), "garet", types.None[string](), []string{"goblin"}, ErrUnknownUnit},
		{"enemy unit", testState(), "goblin", types.None[string](), []string{"isaac"}, ErrUnknownUnit},
		{"ability not known", testState(), "isaac", types.Some("cure"), []string{"isaac"}, ErrUnknownAbility},
		{"ability locked", testState(), "isaac", types.Some("spire"), []string{"goblin"}, ErrUnknownAbility},
		{"attack ally", testState(), "isaac", types.None[string](), []string{"mia"}, ErrInvalidTarget},
		{"attack ko enemy", testState(), "isaac", types.None[string](), []string{"bat"}, ErrInvalidTarget},
		{"attack no target", testState(), "isaac", types.None[string](), nil, ErrInvalidTarget},
		{"heal enemy", testState(), "mia", types.Some("cure"), []string{"goblin"}, ErrInvalidTarget},
		{"revive living", testState(), "mia", types.Some("revive"), []string{"isaac"}, ErrInvalidTarget},
		{"too expensive", testState(), "mia", types.Some("revive"), []string{"garet"}, ErrInsufficientMana},
	}
	for _, tt := range tests {
		got, err := QueueAction(tt.s, testDefs(), tt.unit, tt.ability, tt.targets)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
			continue
		}
		if got.RemainingMana != tt.s.RemainingMana {
			t.Errorf("%s: failed call changed mana", tt.name)
		}
	}
}

func TestQueueAction_DjinnUnlock(t *testing.T) {
	s := testState()
	djinn.Activate(&s, []string{"flint"}, 0)

	if _, err := QueueAction(s, testDefs(), "isaac", types.Some("spire"), []string{"goblin"}); err != nil {
		t.Errorf("spire should be usable with flint in Standby: %v", err)
	}
}

func TestClearQueuedAction(t *testing.T) {
	s := mustQueue(t, testState(), "isaac", types.Some("quake"))
	s, err := ClearQueuedAction(s, 0)
	if err != nil {
		t.Fatalf("ClearQueuedAction: %v", err)
	}
	if s.QueuedActions[0].Queued || s.RemainingMana != 4 {
		t.Errorf("slot %+v, mana %d; want empty slot and full refund", s.QueuedActions[0], s.RemainingMana)
	}

	if _, err := ClearQueuedAction(s, 7); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("expected ErrInvalidSlot, got %v", err)
	}
	if _, err := ClearQueuedAction(s, -1); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("expected ErrInvalidSlot, got %v", err)
	}
}

func TestQueueDjinn(t *testing.T) {
	s, err := QueueDjinn(testState(), "flint")
	if err != nil {
		t.Fatalf("QueueDjinn: %v", err)
	}
	if len(s.QueuedDjinn) != 1 || s.QueuedDjinn[0] != "flint" {
		t.Errorf("QueuedDjinn = %v", s.QueuedDjinn)
	}

	again, err := QueueDjinn(s, "flint")
	if err != nil || len(again.QueuedDjinn) != 1 {
		t.Errorf("re-queue should be a no-op, got %v, %v", again.QueuedDjinn, err)
	}

	s, err = UnqueueDjinn(s, "flint")
	if err != nil || len(s.QueuedDjinn) != 0 {
		t.Errorf("UnqueueDjinn: %v, %v", s.QueuedDjinn, err)
	}
}

func TestQueueDjinn_Errors(t *testing.T) {
	standby := testState()
	djinn.Activate(&standby, []string{"flint"}, 0)

	if _, err := QueueDjinn(testState(), "gust"); !errors.Is(err, djinn.ErrDjinnNotEquipped) {
		t.Errorf("expected ErrDjinnNotEquipped, got %v", err)
	}
	if _, err := QueueDjinn(standby, "flint"); !errors.Is(err, ErrDjinnNotSet) {
		t.Errorf("expected ErrDjinnNotSet, got %v", err)
	}
}
