package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nathoo/djinncore/config"
	"github.com/nathoo/djinncore/encounter"
	"github.com/nathoo/djinncore/engine"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/session"
	"github.com/nathoo/djinncore/types"
)

// testDefs returns minimal battle definitions for CLI testing.
func testDefs() *state.Defs {
	return &state.Defs{
		Battle: types.BattleDef{
			Title: "Test Battle",
			Start: "pit",
			Intro: "A slime oozes closer.",
		},
		Abilities: map[string]types.AbilityDef{
			"cure": {ID: "cure", Name: "Cure", Kind: types.KindHeal, Target: types.TargetSingleAlly, ManaCost: 1, BasePower: 5},
		},
		Units: map[string]types.UnitDef{
			"isaac": {
				ID:               "isaac",
				Name:             "Isaac",
				Level:            1,
				Stats:            types.Stats{HP: 30, ATK: 40, SPD: 9},
				Abilities:        []string{"cure"},
				AutoAttackTiming: types.TimingSameTurn,
			},
			"slime": {ID: "slime", Name: "Slime", Stats: types.Stats{HP: 5, ATK: 1, SPD: 1}, XP: 10},
		},
		Encounters: map[string]types.EncounterDef{
			"pit": {ID: "pit", Enemies: []string{"slime"}},
		},
		Party: types.PartyDef{Units: []string{"isaac"}, MaxMana: 3},
	}
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	defs := testDefs()
	s, err := encounter.NewBattle(defs, "", 5)
	if err != nil {
		t.Fatalf("NewBattle: %v", err)
	}
	var out bytes.Buffer
	c := &CLI{
		Session: session.New(engine.New(defs, config.Default()), s, nil),
		In:      strings.NewReader(input),
		Out:     &out,
		SaveDir: t.TempDir(),
	}
	return c, &out
}

func run(t *testing.T, input string) (*CLI, string) {
	t.Helper()
	c, out := newTestCLI(t, input)
	c.Run(t.Context())
	return c, out.String()
}

func TestCLI_IntroAndBoard(t *testing.T) {
	_, output := run(t, "/quit\n")
	if !strings.Contains(output, "A slime oozes closer.") {
		t.Error("expected intro text in output")
	}
	if !strings.Contains(output, "Round 0 (planning)  Mana 3/3") {
		t.Errorf("expected battlefield in output:\n%s", output)
	}
}

func TestCLI_FightToVictory(t *testing.T) {
	_, output := run(t, "attack isaac slime\nfight\n/quit\n")
	for _, want := range []string{"Isaac will attack.", "Slime is knocked out!", "Victory", "Battle over."} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestCLI_HelpCommand(t *testing.T) {
	_, output := run(t, "/help\n/quit\n")
	for _, want := range []string{"/save", "/load", "/undo", "/quit", "cast <unit> <ability>"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in help output", want)
		}
	}
}

func TestCLI_SaveAndLoad(t *testing.T) {
	c, out := newTestCLI(t, "cast isaac cure isaac\n/save slot1\nclear 1\n/load slot1\n/quit\n")
	c.Run(t.Context())

	output := out.String()
	if !strings.Contains(output, "Battle saved to slot1.") {
		t.Errorf("expected save confirmation:\n%s", output)
	}
	if !strings.Contains(output, "Battle loaded from slot1 (round 0).") {
		t.Errorf("expected load confirmation:\n%s", output)
	}
	if !c.Session.State.QueuedActions[0].Queued {
		t.Error("loaded battle should have the cure queued")
	}
}

func TestCLI_Undo(t *testing.T) {
	c, output := run(t, "attack isaac slime\n/undo\n/undo\n/quit\n")
	if !strings.Contains(output, "[Undone.]") || !strings.Contains(output, "[Nothing to undo.]") {
		t.Errorf("unexpected undo output:\n%s", output)
	}
	if c.Session.State.QueuedActions[0].Queued {
		t.Error("attack still queued after undo")
	}
}

func TestCLI_UnknownMetaCommand(t *testing.T) {
	_, output := run(t, "/foo\n/quit\n")
	if !strings.Contains(output, "Unknown command: /foo") {
		t.Error("expected unknown command message")
	}
}

func TestCLI_TraceToggle(t *testing.T) {
	c, output := run(t, "/trace\nfight\n/quit\n")
	if !c.Session.Trace {
		t.Error("expected trace enabled")
	}
	if !strings.Contains(output, "\n[trace] Events:") {
		t.Errorf("expected trace lines:\n%s", output)
	}
	if !strings.Contains(output, "turn-start") {
		t.Error("expected event kinds in trace")
	}
}

func TestCLI_StateCommand(t *testing.T) {
	_, output := run(t, "/state\n/quit\n")
	if !strings.Contains(output, "Round: 0  Phase: planning  Seed: 5") {
		t.Errorf("expected state dump:\n%s", output)
	}
}

func TestCLI_QuitStopsReading(t *testing.T) {
	c, output := run(t, "/quit\nattack isaac slime\n")
	if !strings.Contains(output, "[Goodbye.]") {
		t.Error("expected goodbye")
	}
	if c.Session.State.QueuedActions[0].Queued {
		t.Error("input after /quit should not run")
	}
}

func TestCLI_LoadNonexistent(t *testing.T) {
	_, output := run(t, "/load nope\n/quit\n")
	if !strings.Contains(output, "Load failed") {
		t.Error("expected load failure message")
	}
}

func TestCLI_Again_RepeatsLastCommand(t *testing.T) {
	c, _ := run(t, "cast isaac cure isaac\nagain\n/quit\n")
	// Re-queuing the same slot replaces the action; the cost is charged once.
	if c.Session.State.RemainingMana != 2 {
		t.Errorf("mana = %d, want 2", c.Session.State.RemainingMana)
	}
	if len(c.Session.Log()) != 2 {
		t.Errorf("log = %v", c.Session.Log())
	}
}

func TestCLI_Again_NothingToRepeat(t *testing.T) {
	_, output := run(t, "g\n/quit\n")
	if !strings.Contains(output, "Nothing to repeat.") {
		t.Error("expected nothing to repeat message")
	}
}

func TestCLI_ScriptCommentsAndEcho(t *testing.T) {
	c, out := newTestCLI(t, "# opening move\nattack isaac slime\n")
	c.EchoInput = true
	c.Run(t.Context())
	output := out.String()
	if strings.Contains(output, "opening move") {
		t.Error("comment lines should be skipped")
	}
	if !strings.Contains(output, "> attack isaac slime\n") {
		t.Errorf("expected echoed input:\n%s", output)
	}
}
