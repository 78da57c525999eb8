// Package reward hands a finished battle to the rewards collaborator.
package reward

import (
	"errors"
	"fmt"

	"github.com/nathoo/djinncore/engine/events"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

// ErrNotTerminal is returned when a battle that is still running is handed
// off.
var ErrNotTerminal = errors.New("battle is not over")

// AutoHeal restores every unit on both sides, KO'd ones included, to full HP
// and clears their statuses. It returns the healed copy and the single event
// describing it, which lists the party first and then the enemies.
func AutoHeal(s types.BattleState) (types.BattleState, events.AutoHeal) {
	next := state.Clone(s)
	var ids []string
	heal := func(units []types.Unit) {
		for i := range units {
			units[i].CurrentHP = units[i].Stats.HP
			units[i].Statuses = nil
			ids = append(ids, units[i].ID)
		}
	}
	heal(next.PlayerTeam.Units)
	heal(next.Enemies)
	return next, events.AutoHeal{UnitIDs: ids}
}

// LevelUp records a unit crossing one or more level thresholds.
type LevelUp struct {
	UnitID string `json:"unit_id"`
	From   int    `json:"from"`
	To     int    `json:"to"`
}

// Summary is what the rewards collaborator computed for a battle.
type Summary struct {
	Outcome   events.Outcome `json:"outcome"`
	XP        int            `json:"xp"`
	Gold      int            `json:"gold"`
	Drops     []string       `json:"drops,omitempty"`
	XPPerUnit map[string]int `json:"xp_per_unit,omitempty"`
	LevelUps  []LevelUp      `json:"level_ups,omitempty"`
}

// Rewards computes the rewards for a terminal battle.
type Rewards interface {
	Compute(s types.BattleState) Summary
}

// Handoff passes a terminal state to r. The state is not modified.
func Handoff(s types.BattleState, r Rewards) (Summary, error) {
	if !s.Phase.Terminal() {
		return Summary{}, fmt.Errorf("%w: phase %s", ErrNotTerminal, s.Phase)
	}
	return r.Compute(state.Clone(s)), nil
}

// Outcome maps a terminal phase to its event outcome.
func Outcome(p types.Phase) events.Outcome {
	if p == types.PhaseVictory {
		return events.PlayerVictory
	}
	return events.PlayerDefeat
}

// DefaultLevelCurve is the cumulative XP needed to reach level 2, 3, ...
var DefaultLevelCurve = []int{100, 250, 450, 700, 1000, 1350, 1750, 2200, 2700}

// TableRewards sums the XP, gold and drops carried by defeated enemies and
// splits the XP evenly across the party. Defeat yields nothing.
type TableRewards struct {
	LevelCurve []int
}

// Compute implements Rewards.
func (t TableRewards) Compute(s types.BattleState) Summary {
	sum := Summary{Outcome: Outcome(s.Phase)}
	if s.Phase != types.PhaseVictory {
		return sum
	}
	for _, e := range s.Enemies {
		sum.XP += e.XP
		sum.Gold += e.Gold
		sum.Drops = append(sum.Drops, e.Drops...)
	}

	party := s.PlayerTeam.Units
	if len(party) == 0 || sum.XP == 0 {
		return sum
	}
	curve := t.LevelCurve
	if curve == nil {
		curve = DefaultLevelCurve
	}
	share, extra := sum.XP/len(party), sum.XP%len(party)
	sum.XPPerUnit = make(map[string]int, len(party))
	for i, u := range party {
		gain := share
		if i < extra {
			gain++
		}
		sum.XPPerUnit[u.ID] = gain
		from := max(u.Level, LevelFor(curve, u.XP))
		if to := LevelFor(curve, u.XP+gain); to > from {
			sum.LevelUps = append(sum.LevelUps, LevelUp{UnitID: u.ID, From: from, To: to})
		}
	}
	return sum
}

// LevelFor returns the level reached with xp total experience.
func LevelFor(curve []int, xp int) int {
	level := 1
	for _, need := range curve {
		if xp < need {
			break
		}
		level++
	}
	return level
}
