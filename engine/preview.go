package engine

import (
	"errors"
	"fmt"

	"github.com/nathoo/djinncore/engine/rng"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

var ErrCannotPreview = errors.New("cannot preview")

// Preview is a sampled estimate of one action against one target.
type Preview struct {
	Samples int
	Min     int
	Max     int
	Mean    float64
	HitRate float64
	Crits   int
}

// PreviewDamage samples an action samples times using a clone of r on a
// throwaway copy of s. Neither r nor s is advanced or modified. A None
// abilityID previews a basic attack. Heal abilities report HP restored.
func (e *Engine) PreviewDamage(s types.BattleState, actorID string, abilityID types.Option[string], targetID string, r *rng.RNG, samples int) (Preview, error) {
	if samples <= 0 {
		samples = e.Tuning.PreviewSamples
	}
	scratch := state.Clone(s)
	if state.UnitByID(&scratch, actorID) == nil {
		return Preview{}, fmt.Errorf("%w: unknown actor %q", ErrCannotPreview, actorID)
	}
	target := state.UnitByID(&scratch, targetID)
	if target == nil {
		return Preview{}, fmt.Errorf("%w: unknown target %q", ErrCannotPreview, targetID)
	}

	ability := basicAttack
	if id, ok := abilityID.Get(); ok {
		def, ok := e.Defs.Ability(id)
		if !ok {
			return Preview{}, fmt.Errorf("%w: unknown ability %q", ErrCannotPreview, id)
		}
		ability = def
	}

	attacker := state.EffectiveStats(&scratch, e.Defs, actorID)
	defender := state.EffectiveStats(&scratch, e.Defs, targetID)
	sampler := r.Clone()

	p := Preview{Samples: samples}
	hits, total := 0, 0
	for i := 0; i < samples; i++ {
		var amount int
		switch ability.Kind {
		case types.KindHeal:
			amount = HealAmount(attacker, ability)
		case types.KindRevive:
			amount = ReviveAmount(*target, ability)
		case types.KindBuff, types.KindDebuff:
		default:
			if ability.HitChance > 0 && !sampler.Chance(ability.HitChance) {
				continue
			}
			var crit bool
			amount, crit = e.DamageCalc(attacker, defender, ability, sampler)
			if crit {
				p.Crits++
			}
		}
		if hits == 0 || amount < p.Min {
			p.Min = amount
		}
		p.Max = max(p.Max, amount)
		hits++
		total += amount
	}
	if hits > 0 {
		p.Mean = float64(total) / float64(hits)
	}
	p.HitRate = float64(hits) / float64(samples)
	return p, nil
}
