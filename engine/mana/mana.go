// Package mana implements the team mana economy: spending at queue time,
// same-round and next-round generation from basic attacks, and regeneration
// at the round boundary.
package mana

import (
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

// Cost returns the mana cost of a queued ability. Basic attacks and
// unknown abilities cost nothing.
func Cost(defs *state.Defs, abilityID types.Option[string]) int {
	id, ok := abilityID.Get()
	if !ok {
		return 0
	}
	a, ok := defs.Ability(id)
	if !ok {
		return 0
	}
	return a.ManaCost
}

// Timing returns a unit's effective auto-attack timing (same-turn when unset).
func Timing(u types.Unit) types.AutoAttackTiming {
	if u.AutoAttackTiming == types.TimingNextTurn {
		return types.TimingNextTurn
	}
	return types.TimingSameTurn
}

// Recompute rebuilds PendingManaThisRound, PendingManaNextRound and
// RemainingMana from scratch by scanning the queued slots. It writes to s,
// which must be a state the caller owns.
//
// RemainingMana = min(MaxMana, RoundStartMana + PendingManaThisRound) - charged.
// The result may be negative when a same-turn basic attack that funded
// other slots was removed; callers treat that as ErrManaCommitted.
func Recompute(s *types.BattleState) {
	thisRound, nextRound, charged := 0, 0, 0
	units := s.PlayerTeam.Units
	for i, q := range s.QueuedActions {
		charged += q.ManaCharged
		if !q.BasicAttack() || i >= len(units) || units[i].KO() {
			continue
		}
		switch Timing(units[i]) {
		case types.TimingNextTurn:
			nextRound += units[i].ManaGain
		default:
			thisRound += units[i].ManaGain
		}
	}
	s.PendingManaThisRound = thisRound
	s.PendingManaNextRound = nextRound
	s.RemainingMana = min(s.MaxMana, s.RoundStartMana+thisRound) - charged
}

// NextRoundStart returns the pool for the following planning phase: the
// unspent remainder plus next-turn generation plus regen, capped at MaxMana.
func NextRoundStart(s *types.BattleState, generatedNextRound, regen int) int {
	return min(s.MaxMana, max(s.RemainingMana, 0)+generatedNextRound+regen)
}

// BeginPlanning resets the queue for a new planning phase with the given
// starting pool and recomputes derived fields.
func BeginPlanning(s *types.BattleState, roundStart int) {
	s.RoundStartMana = min(max(roundStart, 0), s.MaxMana)
	s.QueuedActions = make([]types.QueuedAction, len(s.PlayerTeam.Units))
	s.QueuedDjinn = nil
	Recompute(s)
}
