package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nathoo/djinncore/config"
	"github.com/nathoo/djinncore/engine/events"
	"github.com/nathoo/djinncore/engine/mana"
	"github.com/nathoo/djinncore/engine/queue"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

func testDefs() *state.Defs {
	return &state.Defs{
		Abilities: map[string]types.AbilityDef{
			"quake": {ID: "quake", Kind: types.KindPsynergy, Target: types.TargetAllEnemies, ManaCost: 2, BasePower: 10},
			"cure":  {ID: "cure", Kind: types.KindHeal, Target: types.TargetSingleAlly, ManaCost: 1, BasePower: 10},
			"daze":  {ID: "daze", Kind: types.KindDebuff, Target: types.TargetSingleEnemy, ManaCost: 1, Status: &types.StatusInflict{Type: types.StatusStun, Duration: 1}},
			"nova":  {ID: "nova", Kind: types.KindPsynergy, Target: types.TargetSingleEnemy, ManaCost: 9, BasePower: 50},
		},
		Djinn: map[string]types.DjinnDef{
			"flint": {ID: "flint", Element: types.ElementVenus, AtkBonus: 3, DefBonus: 1},
			"forge": {ID: "forge", Element: types.ElementMars, AtkBonus: 2, SummonPower: 5},
		},
	}
}

func testEngine() *Engine {
	return New(testDefs(), config.Default())
}

// duel is one player unit against one enemy. The player is faster and hits
// hard enough to KO a 10 HP enemy in one blow.
func duel(enemyHP int) types.BattleState {
	s := types.BattleState{
		Phase: types.PhasePlanning,
		PlayerTeam: types.Team{
			Units: []types.Unit{{
				ID:        "isaac",
				Name:      "Isaac",
				CurrentHP: 6,
				Stats:     types.Stats{HP: 10, ATK: 20, MAG: 8, SPD: 10},
				Abilities: []string{"quake", "cure", "daze", "nova"},
				ManaGain:  1,
			}},
			EquippedDjinn:  []string{"flint"},
			CollectedDjinn: []string{"flint", "forge"},
			DjinnTrackers:  map[string]types.DjinnTracker{"flint": {State: types.DjinnSet, LastActivatedTurn: -1}},
		},
		Enemies: []types.Unit{{
			ID:        "slime",
			Name:      "Slime",
			CurrentHP: enemyHP,
			Stats:     types.Stats{HP: enemyHP, ATK: 2, SPD: 1},
		}},
		MaxMana:     5,
		Seed:        7,
		EncounterID: types.Some("slime-pit"),
	}
	mana.BeginPlanning(&s, 3)
	return s
}

func mustQueue(t *testing.T, s types.BattleState, unit string, ability types.Option[string], targets ...string) types.BattleState {
	t.Helper()
	next, err := queue.QueueAction(s, testDefs(), unit, ability, targets)
	if err != nil {
		t.Fatalf("QueueAction: %v", err)
	}
	return next
}

func assertKinds(t *testing.T, evts []events.Event, want ...events.Kind) {
	t.Helper()
	got := events.Kinds(evts)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("event kinds:\n got  %v\n want %v", got, want)
	}
}

func TestExecuteRound_BasicAttackVictory(t *testing.T) {
	e := testEngine()
	s := mustQueue(t, duel(10), "isaac", types.None[string](), "slime")

	res := e.ExecuteRound(s)

	assertKinds(t, res.Events,
		events.KindTurnStart, events.KindAbility, events.KindHit, events.KindKO,
		events.KindManaGenerated, events.KindBattleEnd, events.KindEncounterFinished,
		events.KindAutoHeal)

	if res.State.Phase != types.PhaseVictory {
		t.Errorf("phase = %s, want victory", res.State.Phase)
	}
	if hp := res.State.Enemies[0].CurrentHP; hp != res.State.Enemies[0].Stats.HP {
		t.Errorf("slime HP after auto-heal = %d, want %d", hp, res.State.Enemies[0].Stats.HP)
	}
	if hp := res.State.PlayerTeam.Units[0].CurrentHP; hp != 10 {
		t.Errorf("isaac HP after auto-heal = %d, want 10", hp)
	}
	end := events.OfKind(res.Events, events.KindBattleEnd)[0].(events.BattleEnd)
	if end.Outcome != events.PlayerVictory {
		t.Errorf("outcome = %s", end.Outcome)
	}
	fin := events.OfKind(res.Events, events.KindEncounterFinished)[0].(events.EncounterFinished)
	if fin.EncounterID != "slime-pit" {
		t.Errorf("encounter id = %q", fin.EncounterID)
	}
	if res.State.RoundNumber != 0 {
		t.Errorf("terminal round should not advance, got %d", res.State.RoundNumber)
	}
}

func TestNew_PartialTuning(t *testing.T) {
	e := New(testDefs(), config.Tuning{CritChance: 5})
	if e.Tuning.DefenseDivisor < 1 {
		t.Fatalf("DefenseDivisor = %d, want a usable default", e.Tuning.DefenseDivisor)
	}
	s := mustQueue(t, duel(10), "isaac", types.None[string](), "slime")
	if res := e.ExecuteRound(s); res.State.Phase != types.PhaseVictory {
		t.Errorf("phase = %s, want victory", res.State.Phase)
	}
}

func TestExecuteRound_NoEncounterID(t *testing.T) {
	s := duel(10)
	s.EncounterID = types.None[string]()
	s = mustQueue(t, s, "isaac", types.None[string](), "slime")

	res := testEngine().ExecuteRound(s)
	if len(events.OfKind(res.Events, events.KindEncounterFinished)) != 0 {
		t.Error("encounter-finished should only fire with an encounter id")
	}
}

func TestExecuteRound_Defeat(t *testing.T) {
	s := duel(500)
	s.PlayerTeam.Units[0].CurrentHP = 1
	s.Enemies[0].Stats.ATK = 50

	res := testEngine().ExecuteRound(s)

	if res.State.Phase != types.PhaseDefeat {
		t.Fatalf("phase = %s, want defeat", res.State.Phase)
	}
	end := events.OfKind(res.Events, events.KindBattleEnd)[0].(events.BattleEnd)
	if end.Outcome != events.PlayerDefeat {
		t.Errorf("outcome = %s", end.Outcome)
	}
	if res.State.PlayerTeam.Units[0].CurrentHP != 10 {
		t.Error("defeat should still auto-heal the party")
	}
}

func TestExecuteRound_DjinnLifecycle(t *testing.T) {
	e := testEngine()
	s, err := queue.QueueDjinn(duel(1000), "flint")
	if err != nil {
		t.Fatalf("QueueDjinn: %v", err)
	}
	s.PlayerTeam.Units[0].Stats.HP = 500
	s.PlayerTeam.Units[0].CurrentHP = 500

	// Round 0: activation.
	res := e.ExecuteRound(s)
	standby := events.OfKind(res.Events, events.KindDjinnStandby)
	if len(standby) != 1 {
		t.Fatalf("expected one djinn-standby, got %v", events.Kinds(res.Events))
	}
	if ev := standby[0].(events.DjinnStandby); ev.AtkDelta == 0 && ev.DefDelta == 0 {
		t.Errorf("djinn-standby delta should be non-zero: %+v", ev)
	}
	if got := res.State.PlayerTeam.DjinnTrackers["flint"].State; got != types.DjinnStandby {
		t.Fatalf("after activation: %s, want Standby", got)
	}
	if len(res.State.QueuedDjinn) != 0 {
		t.Error("queued djinn should be cleared on advance")
	}

	// Round 1: a full round in Standby, then Recovery.
	res = e.ExecuteRound(res.State)
	if got := res.State.PlayerTeam.DjinnTrackers["flint"].State; got != types.DjinnRecovery {
		t.Fatalf("after one full round: %s, want Recovery", got)
	}
	if _, err := queue.QueueDjinn(res.State, "flint"); !errors.Is(err, queue.ErrDjinnNotSet) {
		t.Errorf("recovering djinn must not be queueable, got %v", err)
	}

	// Round 2: recovery elapses.
	res = e.ExecuteRound(res.State)
	if got := res.State.PlayerTeam.DjinnTrackers["flint"].State; got != types.DjinnSet {
		t.Fatalf("after recovery: %s, want Set", got)
	}
	if len(events.OfKind(res.Events, events.KindDjinnRecovered)) != 1 {
		t.Errorf("expected djinn-recovered, got %v", events.Kinds(res.Events))
	}
	if res.State.RoundNumber != 3 {
		t.Errorf("round = %d, want 3", res.State.RoundNumber)
	}
}

func TestExecuteRound_DjinnSummon(t *testing.T) {
	s := duel(1000)
	s.PlayerTeam.EquippedDjinn = []string{"forge"}
	s.PlayerTeam.DjinnTrackers = map[string]types.DjinnTracker{"forge": {State: types.DjinnSet, LastActivatedTurn: -1}}
	s, err := queue.QueueDjinn(s, "forge")
	if err != nil {
		t.Fatalf("QueueDjinn: %v", err)
	}

	res := testEngine().ExecuteRound(s)
	kinds := events.Kinds(res.Events)
	if len(kinds) < 2 || kinds[0] != events.KindDjinnStandby || kinds[1] != events.KindHit {
		t.Fatalf("expected djinn-standby then summon hit, got %v", kinds)
	}
	if hit := res.Events[1].(events.Hit); hit.SourceID != "forge" || hit.TargetID != "slime" {
		t.Errorf("summon hit = %+v", hit)
	}
}

func TestExecuteRound_InsufficientMana(t *testing.T) {
	s := duel(10)
	before := s.RemainingMana

	next, err := queue.QueueAction(s, testDefs(), "isaac", types.Some("nova"), []string{"slime"})
	if !errors.Is(err, queue.ErrInsufficientMana) {
		t.Fatalf("expected ErrInsufficientMana, got %v", err)
	}
	if next.RemainingMana != before || s.RemainingMana != before {
		t.Errorf("remaining mana changed: %d -> %d", before, next.RemainingMana)
	}
}

func TestExecuteRound_Deterministic(t *testing.T) {
	e := testEngine()
	s := duel(200)
	s = mustQueue(t, s, "isaac", types.Some("quake"))

	a := e.ExecuteRound(s)
	b := e.ExecuteRound(s)

	if !reflect.DeepEqual(a.State, b.State) {
		t.Error("states differ between identical runs")
	}
	if !reflect.DeepEqual(a.Events, b.Events) {
		t.Errorf("events differ:\n%v\n%v", a.Events, b.Events)
	}
}

func TestExecuteRound_DoesNotMutateInput(t *testing.T) {
	s := mustQueue(t, duel(200), "isaac", types.None[string](), "slime")
	snapshot := state.Clone(s)

	testEngine().ExecuteRound(s)

	if !reflect.DeepEqual(s, snapshot) {
		t.Error("ExecuteRound mutated its input")
	}
}

func TestExecuteRound_NoOpOutsidePlanning(t *testing.T) {
	e := testEngine()
	for _, phase := range []types.Phase{types.PhaseExecuting, types.PhaseVictory, types.PhaseDefeat} {
		s := duel(10)
		s.Phase = phase
		res := e.ExecuteRound(s)
		if len(res.Events) != 0 {
			t.Errorf("%s: expected no events, got %v", phase, events.Kinds(res.Events))
		}
		if !reflect.DeepEqual(res.State, s) {
			t.Errorf("%s: state changed", phase)
		}
	}
}

func TestExecuteRound_TerminalStability(t *testing.T) {
	e := testEngine()
	s := mustQueue(t, duel(10), "isaac", types.None[string](), "slime")
	done := e.ExecuteRound(s).State

	again := e.ExecuteRound(done)
	if again.State.RoundNumber != done.RoundNumber {
		t.Errorf("round advanced after terminal: %d -> %d", done.RoundNumber, again.State.RoundNumber)
	}
	if again.State.PlayerTeam.Units[0].CurrentHP != done.PlayerTeam.Units[0].CurrentHP {
		t.Error("HP changed after terminal")
	}
	if len(again.Events) != 0 {
		t.Errorf("expected no events, got %v", events.Kinds(again.Events))
	}
}

func TestExecuteRound_AdvancesAndRegeneratesMana(t *testing.T) {
	e := testEngine()
	e.Tuning.ManaRegenPerRound = 1
	s := duel(1000)
	s.PlayerTeam.Units[0].AutoAttackTiming = types.TimingNextTurn
	s.PlayerTeam.Units[0].ManaGain = 2
	s = mustQueue(t, s, "isaac", types.None[string](), "slime")
	if s.RemainingMana != 3 {
		t.Fatalf("next-turn mana should not be spendable yet, remaining = %d", s.RemainingMana)
	}

	res := e.ExecuteRound(s)

	if res.State.Phase != types.PhasePlanning || res.State.RoundNumber != 1 {
		t.Fatalf("phase/round = %s/%d", res.State.Phase, res.State.RoundNumber)
	}
	// 3 left over + 2 generated + 1 regen, capped at 5.
	if res.State.RoundStartMana != 5 || res.State.RemainingMana != 5 {
		t.Errorf("mana = %d/%d, want 5/5", res.State.RoundStartMana, res.State.RemainingMana)
	}
	for i, q := range res.State.QueuedActions {
		if q.Queued {
			t.Errorf("slot %d still queued", i)
		}
	}
}

func TestExecuteRound_SkipsActionOnKOTarget(t *testing.T) {
	s := duel(10)
	s.PlayerTeam.Units = append(s.PlayerTeam.Units,
		types.Unit{ID: "garet", CurrentHP: 10, Stats: types.Stats{HP: 10, ATK: 20, SPD: 5}})
	s.Enemies = append(s.Enemies,
		types.Unit{ID: "bat", CurrentHP: 1000, Stats: types.Stats{HP: 1000}})
	mana.BeginPlanning(&s, 3)
	s = mustQueue(t, s, "isaac", types.None[string](), "slime")
	s = mustQueue(t, s, "garet", types.None[string](), "slime")

	res := testEngine().ExecuteRound(s)

	for _, ev := range events.OfKind(res.Events, events.KindAbility) {
		if ev.(events.AbilityUsed).ActorID == "garet" {
			t.Error("garet should skip: target already KO'd")
		}
	}
	if !res.State.Enemies[0].KO() || res.State.Phase != types.PhasePlanning {
		t.Errorf("slime should be KO'd with the battle still running, phase %s", res.State.Phase)
	}
}

func TestExecuteRound_StunSkipsTurn(t *testing.T) {
	s := duel(1000)
	s = mustQueue(t, s, "isaac", types.Some("daze"), "slime")

	res := testEngine().ExecuteRound(s)
	if len(events.OfKind(res.Events, events.KindStatusApplied)) != 1 {
		t.Fatalf("expected stun applied, got %v", events.Kinds(res.Events))
	}
	for _, ev := range events.OfKind(res.Events, events.KindAbility) {
		if ev.(events.AbilityUsed).ActorID == "slime" {
			t.Error("stunned slime should not act")
		}
	}
	if len(events.OfKind(res.Events, events.KindStatusExpired)) != 1 {
		t.Errorf("one-turn stun should expire on the skipped turn, got %v", events.Kinds(res.Events))
	}
}

func TestExecuteRound_EmptySlotSkips(t *testing.T) {
	res := testEngine().ExecuteRound(duel(1000))

	for _, ev := range events.OfKind(res.Events, events.KindAbility) {
		if ev.(events.AbilityUsed).ActorID == "isaac" {
			t.Error("isaac had nothing queued and should not act")
		}
	}
	if len(events.OfKind(res.Events, events.KindTurnStart)) != 2 {
		t.Errorf("both living units should get a turn-start, got %v", events.Kinds(res.Events))
	}
}
