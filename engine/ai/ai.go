// Package ai chooses enemy actions. Decide is a pure function of the battle
// state, the acting enemy, and the RNG handle it is given.
package ai

import (
	"sort"

	"github.com/nathoo/djinncore/engine/rng"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

// DefaultHealThresholdPct is the HP percentage below which an ally is
// considered worth healing.
const DefaultHealThresholdPct = 35

// Decision is the action an enemy takes. A None AbilityID with Pass unset is
// a basic attack.
type Decision struct {
	AbilityID types.Option[string]
	TargetIDs []string
	Pass      bool
}

// Policy holds the tunable thresholds of the decision heuristic.
type Policy struct {
	HealThresholdPct int
}

// Decide uses the default policy.
func Decide(s *types.BattleState, defs *state.Defs, enemyID string, r *rng.RNG) Decision {
	return Policy{HealThresholdPct: DefaultHealThresholdPct}.Decide(s, defs, enemyID, r)
}

type option struct {
	ability types.Option[string]
	def     types.AbilityDef
	weight  int
}

// Decide picks an action for enemyID: revive a downed ally if possible,
// heal the weakest ally under the threshold, otherwise a weighted pick
// among offensive options. Returns a pass when nothing is legal.
func (p Policy) Decide(s *types.BattleState, defs *state.Defs, enemyID string, r *rng.RNG) Decision {
	ref, ok := state.FindUnit(s, enemyID)
	if !ok || state.Unit(s, ref).KO() {
		return Decision{Pass: true}
	}
	self := state.Unit(s, ref)
	usable := affordable(s, defs, self)

	for _, a := range byPower(usable, types.KindRevive) {
		if legal := state.LegalTargets(s, enemyID, a); len(legal) > 0 {
			return Decision{AbilityID: types.Some(a.ID), TargetIDs: legal[:1]}
		}
	}

	if weakest := weakestAlly(s, ref.Side, p.HealThresholdPct); weakest != "" {
		for _, a := range byPower(usable, types.KindHeal) {
			legal := state.LegalTargets(s, enemyID, a)
			switch a.Target {
			case types.TargetAllAllies:
				return Decision{AbilityID: types.Some(a.ID), TargetIDs: legal}
			case types.TargetSelf, types.TargetSingleAlly:
				if state.ContainsString(legal, weakest) {
					return Decision{AbilityID: types.Some(a.ID), TargetIDs: []string{weakest}}
				}
			}
		}
	}

	foe := state.Opposing(ref.Side)
	primary := lowestHP(s, foe)
	if primary == "" {
		return Decision{Pass: true}
	}

	opts := []option{{ability: types.None[string](), weight: max(1, state.EffectiveStats(s, defs, enemyID).ATK)}}
	for _, a := range usable {
		switch a.Kind {
		case types.KindPhysical, types.KindPsynergy, types.KindDebuff:
		default:
			continue
		}
		if a.Target != types.TargetSingleEnemy && a.Target != types.TargetAllEnemies {
			continue
		}
		if len(state.LegalTargets(s, enemyID, a)) == 0 {
			continue
		}
		opts = append(opts, option{ability: types.Some(a.ID), def: a, weight: max(1, a.BasePower)})
	}

	weights := make([]int, len(opts))
	for i, o := range opts {
		weights[i] = o.weight
	}
	pick := opts[r.WeightedSelect(weights)]

	if pick.def.Target == types.TargetAllEnemies {
		return Decision{AbilityID: pick.ability, TargetIDs: state.LegalTargets(s, enemyID, pick.def)}
	}
	return Decision{AbilityID: pick.ability, TargetIDs: []string{primary}}
}

// affordable returns the abilities the unit owns and can pay for from its
// own mana, sorted by id.
func affordable(s *types.BattleState, defs *state.Defs, u *types.Unit) []types.AbilityDef {
	var out []types.AbilityDef
	for _, id := range state.UsableAbilities(s, defs, u.ID) {
		a, ok := defs.Ability(id)
		if !ok || a.ManaCost > u.Mana {
			continue
		}
		out = append(out, a)
	}
	return out
}

// byPower filters abilities of a kind, strongest first, ties by id.
func byPower(abilities []types.AbilityDef, kind types.AbilityKind) []types.AbilityDef {
	var out []types.AbilityDef
	for _, a := range abilities {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BasePower > out[j].BasePower
	})
	return out
}

// weakestAlly returns the living unit on side with the lowest HP percentage,
// if it is below thresholdPct. Ties go to roster order.
func weakestAlly(s *types.BattleState, side types.Side, thresholdPct int) string {
	best, bestPct := "", thresholdPct
	for _, u := range state.Roster(s, side) {
		if u.KO() || u.Stats.HP <= 0 {
			continue
		}
		if pct := u.CurrentHP * 100 / u.Stats.HP; pct < bestPct {
			best, bestPct = u.ID, pct
		}
	}
	return best
}

// lowestHP returns the living unit on side with the least current HP.
func lowestHP(s *types.BattleState, side types.Side) string {
	best, bestHP := "", 0
	for _, u := range state.Roster(s, side) {
		if u.KO() {
			continue
		}
		if best == "" || u.CurrentHP < bestHP {
			best, bestHP = u.ID, u.CurrentHP
		}
	}
	return best
}
