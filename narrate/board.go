package narrate

import (
	"fmt"
	"strings"

	"github.com/nathoo/djinncore/engine/events"
	"github.com/nathoo/djinncore/engine/reward"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

// Board renders the battle at a glance: rosters, queue, mana and Djinn.
func Board(s *types.BattleState, defs *state.Defs) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d (%s)  Mana %d/%d\n", s.RoundNumber, s.Phase, s.RemainingMana, s.MaxMana)

	b.WriteString("Party:\n")
	for i, u := range s.PlayerTeam.Units {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, unitLine(u))
		if i < len(s.QueuedActions) && s.QueuedActions[i].Queued {
			fmt.Fprintf(&b, "     queued: %s\n", queuedLine(s, defs, s.QueuedActions[i]))
		}
	}

	b.WriteString("Enemies:\n")
	for _, u := range s.Enemies {
		fmt.Fprintf(&b, "  - %s\n", unitLine(u))
	}

	if len(s.PlayerTeam.EquippedDjinn) > 0 {
		b.WriteString("Djinn:")
		for _, id := range s.PlayerTeam.EquippedDjinn {
			t := s.PlayerTeam.DjinnTrackers[id]
			mark := ""
			if state.ContainsString(s.QueuedDjinn, id) {
				mark = "*"
			}
			fmt.Fprintf(&b, " %s[%s]%s", id, t.State, mark)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func unitLine(u types.Unit) string {
	line := fmt.Sprintf("%s (%s) HP %d/%d", u.Name, u.ID, max(u.CurrentHP, 0), u.Stats.HP)
	if u.KO() {
		line += " KO"
	}
	for _, st := range u.Statuses {
		line += fmt.Sprintf(" [%s %d]", st.Type, st.Duration)
	}
	return line
}

func queuedLine(s *types.BattleState, defs *state.Defs, q types.QueuedAction) string {
	n := &Narrator{Defs: defs, State: s}
	what := "attack"
	if id, ok := q.AbilityID.Get(); ok {
		what = n.ability(id)
	}
	if len(q.TargetIDs) == 0 {
		return fmt.Sprintf("%s (%d mana)", what, q.ManaCharged)
	}
	return fmt.Sprintf("%s -> %s (%d mana)", what, n.units(q.TargetIDs), q.ManaCharged)
}

// Rewards renders a reward summary.
func Rewards(sum reward.Summary, s *types.BattleState) []string {
	if sum.Outcome != events.PlayerVictory {
		return []string{"No rewards."}
	}
	lines := []string{fmt.Sprintf("Gained %d XP and %d gold.", sum.XP, sum.Gold)}
	if len(sum.Drops) > 0 {
		lines = append(lines, "Found: "+strings.Join(sum.Drops, ", ")+".")
	}
	n := &Narrator{State: s}
	for _, lu := range sum.LevelUps {
		lines = append(lines, fmt.Sprintf("%s reached level %d!", n.unit(lu.UnitID), lu.To))
	}
	return lines
}
