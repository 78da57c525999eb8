package narrate

import (
	"strings"
	"testing"

	"github.com/nathoo/djinncore/engine/events"
	"github.com/nathoo/djinncore/engine/reward"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

func testDefs() *state.Defs {
	return &state.Defs{
		Abilities: map[string]types.AbilityDef{"quake": {ID: "quake", Name: "Quake"}},
		Djinn:     map[string]types.DjinnDef{"forge": {ID: "forge", Name: "Forge"}},
	}
}

func testState() *types.BattleState {
	return &types.BattleState{
		PlayerTeam: types.Team{
			Units:         []types.Unit{{ID: "isaac", Name: "Isaac", Stats: types.Stats{HP: 30}, CurrentHP: 21}},
			EquippedDjinn: []string{"forge"},
			DjinnTrackers: map[string]types.DjinnTracker{"forge": {State: types.DjinnSet}},
		},
		Enemies: []types.Unit{{
			ID:        "slime",
			Name:      "Slime",
			Stats:     types.Stats{HP: 10},
			CurrentHP: 4,
			Statuses:  []types.StatusEffect{{Type: types.StatusPoison, Duration: 2}},
		}},
		QueuedActions: []types.QueuedAction{{Queued: true, AbilityID: types.Some("quake"), TargetIDs: []string{"slime"}, ManaCharged: 2}},
		QueuedDjinn:   []string{"forge"},
		RemainingMana: 3,
		MaxMana:       5,
		RoundNumber:   2,
		Phase:         types.PhasePlanning,
	}
}

func TestLine(t *testing.T) {
	n := &Narrator{Defs: testDefs(), State: testState()}
	tests := []struct {
		event events.Event
		want  string
	}{
		{events.AbilityUsed{ActorID: "isaac", TargetIDs: []string{"slime"}}, "Isaac attacks Slime!"},
		{events.AbilityUsed{ActorID: "isaac", AbilityID: "quake"}, "Isaac uses Quake!"},
		{events.Hit{SourceID: "isaac", TargetID: "slime", Amount: 7, Critical: true}, "Slime takes 7 damage from Isaac. Critical!"},
		{events.Hit{SourceID: "forge", TargetID: "slime", Amount: 3}, "Slime takes 3 damage from Forge."},
		{events.Hit{SourceID: "poison", TargetID: "slime", Amount: 1}, "Slime takes 1 damage from poison."},
		{events.Miss{ActorID: "slime", TargetID: "isaac"}, "Slime misses Isaac."},
		{events.Heal{TargetID: "isaac", Amount: 5, Revived: true}, "Isaac is revived with 5 HP!"},
		{events.KO{UnitID: "slime"}, "Slime is knocked out!"},
		{events.DjinnStandby{DjinnID: "forge", AtkDelta: 3}, "Forge is unleashed! (ATK +3, DEF +0)"},
		{events.BattleEnd{Outcome: events.PlayerDefeat, Round: 4}, "Your party has fallen in round 4."},
		{events.TurnStart{ActorID: "isaac"}, ""},
		{events.EncounterFinished{EncounterID: "pit"}, ""},
	}
	for _, tt := range tests {
		if got := n.Line(tt.event); got != tt.want {
			t.Errorf("Line(%T) = %q, want %q", tt.event, got, tt.want)
		}
	}
}

func TestNarrate_VerboseIncludesTurnMarkers(t *testing.T) {
	evts := []events.Event{
		events.TurnStart{Round: 1, ActorID: "isaac"},
		events.ManaGenerated{UnitID: "isaac", Amount: 1, Timing: types.TimingSameTurn},
	}
	if lines := Narrate(testDefs(), testState(), evts, false); len(lines) != 0 {
		t.Errorf("quiet narration = %v", lines)
	}
	lines := Narrate(testDefs(), testState(), evts, true)
	if len(lines) != 2 || lines[0] != "-- Isaac's turn --" {
		t.Errorf("verbose narration = %v", lines)
	}
}

func TestNarrate_UnknownIDsFallBack(t *testing.T) {
	lines := Narrate(nil, nil, []events.Event{events.KO{UnitID: "ghost"}}, false)
	if len(lines) != 1 || lines[0] != "ghost is knocked out!" {
		t.Errorf("lines = %v", lines)
	}
}

func TestBoard(t *testing.T) {
	out := Board(testState(), testDefs())
	for _, want := range []string{
		"Round 2 (planning)  Mana 3/5",
		"1. Isaac (isaac) HP 21/30",
		"queued: Quake -> Slime (2 mana)",
		"- Slime (slime) HP 4/10 [poison 2]",
		"Djinn: forge[Set]*",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("board missing %q:\n%s", want, out)
		}
	}
}

func TestRewards(t *testing.T) {
	sum := reward.Summary{
		Outcome:  events.PlayerVictory,
		XP:       40,
		Gold:     12,
		Drops:    []string{"herb"},
		LevelUps: []reward.LevelUp{{UnitID: "isaac", From: 1, To: 2}},
	}
	got := Rewards(sum, testState())
	want := []string{"Gained 40 XP and 12 gold.", "Found: herb.", "Isaac reached level 2!"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Rewards = %v, want %v", got, want)
	}
	if got := Rewards(reward.Summary{Outcome: events.PlayerDefeat}, nil); len(got) != 1 || got[0] != "No rewards." {
		t.Errorf("defeat rewards = %v", got)
	}
}
