package engine

import (
	"sort"

	"github.com/nathoo/djinncore/engine/effects"
	"github.com/nathoo/djinncore/engine/events"
	"github.com/nathoo/djinncore/engine/mana"
	"github.com/nathoo/djinncore/engine/rng"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

// action is one actor's resolved choice for its turn.
type action struct {
	ability types.Option[string]
	targets []string
	prepaid bool // mana was charged at queue time
}

// basicAttack is the implicit ability behind a null ability id.
var basicAttack = types.AbilityDef{Kind: types.KindPhysical, Target: types.TargetSingleEnemy}

// TurnOrder returns the living units ordered by descending effective speed.
// Ties go to the player side, then to roster order.
func TurnOrder(s *types.BattleState, defs *state.Defs) []state.Ref {
	type entry struct {
		ref state.Ref
		spd int
	}
	var entries []entry
	for _, side := range []types.Side{types.SidePlayer, types.SideEnemy} {
		for i, u := range state.Roster(s, side) {
			if u.KO() {
				continue
			}
			entries = append(entries, entry{
				ref: state.Ref{Side: side, Index: i},
				spd: state.EffectiveStats(s, defs, u.ID).SPD,
			})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].spd > entries[j].spd
	})
	order := make([]state.Ref, len(entries))
	for i, en := range entries {
		order[i] = en.ref
	}
	return order
}

// DamageCalc computes the damage of one hit:
// max(1, power + attack - defense/divisor), then variance, then a critical
// roll. Physical abilities and basic attacks scale with ATK, psynergy with
// MAG. Draw order: variance, then crit.
func (e *Engine) DamageCalc(attacker, defender types.Stats, ability types.AbilityDef, r *rng.RNG) (damage int, critical bool) {
	power := ability.BasePower
	if ability.Kind == types.KindPsynergy {
		power += attacker.MAG
	} else {
		power += attacker.ATK
	}
	damage = max(1, power-defender.DEF/e.Tuning.DefenseDivisor)
	damage = max(1, r.Variance(damage, e.Tuning.VariancePct))
	if r.Chance(e.Tuning.CritChance) {
		damage = damage * e.Tuning.CritMultiplierPct / 100
		critical = true
	}
	return damage, critical
}

// HealAmount is the HP restored by a heal ability.
func HealAmount(caster types.Stats, ability types.AbilityDef) int {
	return max(1, ability.BasePower+caster.MAG/2)
}

// ReviveAmount is the HP a revived unit returns with: BasePower percent of
// its max HP, at least 1.
func ReviveAmount(target types.Unit, ability types.AbilityDef) int {
	return max(1, ability.BasePower*target.Stats.HP/100)
}

// perform applies one action. Malformed actions (unknown or unusable
// ability, illegal target, unaffordable enemy ability) are skipped without
// events. It also returns the mana this action generates for next round.
func (e *Engine) perform(s *types.BattleState, ref state.Ref, act action, r *rng.RNG) ([]events.Event, int) {
	actor := state.Unit(s, ref)
	actorID := actor.ID

	ability := basicAttack
	abilityID, isAbility := act.ability.Get()
	if isAbility {
		def, ok := e.Defs.Ability(abilityID)
		if !ok || !state.CanUse(s, e.Defs, actorID, abilityID) {
			return nil, 0
		}
		if !act.prepaid && def.ManaCost > actor.Mana {
			return nil, 0
		}
		ability = def
	}

	targets := e.targetsFor(s, actorID, ability, act.targets)
	if len(targets) == 0 {
		return nil, 0
	}
	if isAbility && !act.prepaid {
		actor.Mana -= ability.ManaCost
	}

	evts := []events.Event{events.AbilityUsed{ActorID: actorID, AbilityID: abilityID, TargetIDs: targets}}
	for _, target := range targets {
		evts = append(evts, e.applyTo(s, actorID, target, ability, r)...)
	}

	if isAbility {
		return evts, 0
	}
	return append(evts, e.generateMana(s, ref)...), e.nextRoundMana(s, ref)
}

// targetsFor resolves the units an ability lands on at execution time.
// Single-target abilities keep their queued target only if it is still
// legal; group abilities hit every legal unit.
func (e *Engine) targetsFor(s *types.BattleState, actorID string, ability types.AbilityDef, queued []string) []string {
	legal := state.LegalTargets(s, actorID, ability)
	switch ability.Target {
	case types.TargetSelf, types.TargetAllAllies, types.TargetAllEnemies:
		return legal
	}
	if len(queued) == 0 || !state.ContainsString(legal, queued[0]) {
		return nil
	}
	return queued[:1]
}

// applyTo resolves an ability against one target. Draw order per target:
// hit, damage (variance, crit), status.
func (e *Engine) applyTo(s *types.BattleState, actorID, targetID string, ability types.AbilityDef, r *rng.RNG) []events.Event {
	attacker := state.EffectiveStats(s, e.Defs, actorID)
	var effs []effects.Effect

	switch ability.Kind {
	case types.KindPhysical, types.KindPsynergy, types.KindDebuff:
		if ability.HitChance > 0 && !r.Chance(ability.HitChance) {
			return []events.Event{events.Miss{ActorID: actorID, TargetID: targetID}}
		}
		if ability.Kind != types.KindDebuff {
			dmg, crit := e.DamageCalc(attacker, state.EffectiveStats(s, e.Defs, targetID), ability, r)
			effs = append(effs, effects.Effect{Type: effects.Damage, SourceID: actorID, TargetID: targetID, Amount: dmg, Critical: crit})
		}
	case types.KindHeal:
		effs = append(effs, effects.Effect{Type: effects.Heal, SourceID: actorID, TargetID: targetID, Amount: HealAmount(attacker, ability)})
	case types.KindRevive:
		target := state.UnitByID(s, targetID)
		effs = append(effs, effects.Effect{Type: effects.Revive, SourceID: actorID, TargetID: targetID, Amount: ReviveAmount(*target, ability)})
	}

	evts := effects.Apply(s, effs)
	if inflict := ability.Status; inflict != nil {
		if inflict.Chance <= 0 || r.Chance(inflict.Chance) {
			evts = append(evts, effects.Apply(s, []effects.Effect{{
				Type:     effects.Inflict,
				SourceID: actorID,
				TargetID: targetID,
				Status: types.StatusEffect{
					Type:     inflict.Type,
					Duration: inflict.Duration,
					Power:    inflict.Power,
					ShakeOff: inflict.ShakeOff,
				},
			}})...)
		}
	}
	return evts
}

// generateMana reports the mana a basic attack produced. Enemies bank it in
// their own pool immediately; player same-turn mana was already spendable
// during planning and next-turn mana is carried by the return value of
// nextRoundMana.
func (e *Engine) generateMana(s *types.BattleState, ref state.Ref) []events.Event {
	u := state.Unit(s, ref)
	if u.ManaGain <= 0 {
		return nil
	}
	if ref.Side == types.SideEnemy {
		u.Mana += u.ManaGain
	}
	return []events.Event{events.ManaGenerated{UnitID: u.ID, Amount: u.ManaGain, Timing: mana.Timing(*u)}}
}

func (e *Engine) nextRoundMana(s *types.BattleState, ref state.Ref) int {
	u := state.Unit(s, ref)
	if ref.Side != types.SidePlayer || mana.Timing(*u) != types.TimingNextTurn {
		return 0
	}
	return u.ManaGain
}
