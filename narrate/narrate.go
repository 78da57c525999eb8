// Package narrate turns battle events and state into player-facing text.
// It is shared by the line-oriented CLI and the TUI.
package narrate

import (
	"fmt"
	"strings"

	"github.com/nathoo/djinncore/engine/events"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

// Narrator renders events to lines. It implements events.Handler so it can
// be passed straight to events.Dispatch.
type Narrator struct {
	Defs    *state.Defs
	State   *types.BattleState // for display names; may be nil
	Verbose bool               // include turn markers and mana generation
	Lines   []string
}

// HandleEvent appends the line for e, if any.
func (n *Narrator) HandleEvent(e events.Event) {
	if line := n.Line(e); line != "" {
		n.Lines = append(n.Lines, line)
	}
}

// Narrate renders evts against s and returns the lines.
func Narrate(defs *state.Defs, s *types.BattleState, evts []events.Event, verbose bool) []string {
	n := &Narrator{Defs: defs, State: s, Verbose: verbose}
	events.Dispatch(evts, n)
	return n.Lines
}

// Line renders one event. Quiet events render as "".
func (n *Narrator) Line(e events.Event) string {
	switch ev := e.(type) {
	case events.TurnStart:
		if !n.Verbose {
			return ""
		}
		return fmt.Sprintf("-- %s's turn --", n.unit(ev.ActorID))
	case events.AbilityUsed:
		if ev.AbilityID == "" {
			return fmt.Sprintf("%s attacks %s!", n.unit(ev.ActorID), n.units(ev.TargetIDs))
		}
		return fmt.Sprintf("%s uses %s!", n.unit(ev.ActorID), n.ability(ev.AbilityID))
	case events.Hit:
		crit := ""
		if ev.Critical {
			crit = " Critical!"
		}
		return fmt.Sprintf("%s takes %d damage from %s.%s", n.unit(ev.TargetID), ev.Amount, n.source(ev.SourceID), crit)
	case events.Miss:
		return fmt.Sprintf("%s misses %s.", n.unit(ev.ActorID), n.unit(ev.TargetID))
	case events.Heal:
		if ev.Revived {
			return fmt.Sprintf("%s is revived with %d HP!", n.unit(ev.TargetID), ev.Amount)
		}
		return fmt.Sprintf("%s recovers %d HP.", n.unit(ev.TargetID), ev.Amount)
	case events.StatusApplied:
		return fmt.Sprintf("%s is afflicted with %s (%d).", n.unit(ev.TargetID), ev.Status, ev.Duration)
	case events.StatusExpired:
		return fmt.Sprintf("%s is no longer affected by %s.", n.unit(ev.TargetID), ev.Status)
	case events.KO:
		return fmt.Sprintf("%s is knocked out!", n.unit(ev.UnitID))
	case events.ManaGenerated:
		if !n.Verbose {
			return ""
		}
		return fmt.Sprintf("%s generates %d mana (%s).", n.unit(ev.UnitID), ev.Amount, ev.Timing)
	case events.DjinnStandby:
		return fmt.Sprintf("%s is unleashed! (ATK %+d, DEF %+d)", n.djinn(ev.DjinnID), ev.AtkDelta, ev.DefDelta)
	case events.DjinnRecovering:
		return fmt.Sprintf("%s begins to recover.", n.djinn(ev.DjinnID))
	case events.DjinnRecovered:
		return fmt.Sprintf("%s is Set again.", n.djinn(ev.DjinnID))
	case events.BattleEnd:
		if ev.Outcome == events.PlayerVictory {
			return fmt.Sprintf("Victory in round %d!", ev.Round)
		}
		return fmt.Sprintf("Your party has fallen in round %d.", ev.Round)
	case events.EncounterFinished:
		return ""
	case events.AutoHeal:
		return "The party recovers."
	}
	return ""
}

func (n *Narrator) unit(id string) string {
	if n.State != nil {
		if u := state.UnitByID(n.State, id); u != nil && u.Name != "" {
			return u.Name
		}
	}
	return id
}

func (n *Narrator) units(ids []string) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = n.unit(id)
	}
	return strings.Join(names, ", ")
}

func (n *Narrator) ability(id string) string {
	if a, ok := n.Defs.Ability(id); ok && a.Name != "" {
		return a.Name
	}
	return id
}

func (n *Narrator) djinn(id string) string {
	if d, ok := n.Defs.DjinnDef(id); ok && d.Name != "" {
		return d.Name
	}
	return id
}

// source names the origin of a hit: a unit, a Djinn summon or a status.
func (n *Narrator) source(id string) string {
	if _, ok := n.Defs.DjinnDef(id); ok {
		return n.djinn(id)
	}
	if n.State != nil && state.UnitByID(n.State, id) != nil {
		return n.unit(id)
	}
	return id
}
