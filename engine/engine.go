// Package engine provides the ExecuteRound() resolver that wires together
// status ticks, Djinn activation, turn order, effects, AI, and the mana
// economy into a single round.
package engine

import (
	"github.com/nathoo/djinncore/config"
	"github.com/nathoo/djinncore/engine/ai"
	"github.com/nathoo/djinncore/engine/djinn"
	"github.com/nathoo/djinncore/engine/effects"
	"github.com/nathoo/djinncore/engine/events"
	"github.com/nathoo/djinncore/engine/mana"
	"github.com/nathoo/djinncore/engine/reward"
	"github.com/nathoo/djinncore/engine/rng"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

// Engine holds the battle definitions and tuning. It carries no battle
// state; every call takes and returns a BattleState value.
type Engine struct {
	Defs   *state.Defs
	Tuning config.Tuning
}

// New creates an engine. Missing or out-of-range tuning values are filled
// in by config.Tuning.WithDefaults.
func New(defs *state.Defs, tuning config.Tuning) *Engine {
	return &Engine{Defs: defs, Tuning: tuning.WithDefaults()}
}

// Result is the outcome of one round.
type Result struct {
	State  types.BattleState
	Events []events.Event
}

// ExecuteRound resolves the queued round. Outside the planning phase it is a
// no-op returning s unchanged and no events. The input is never modified.
func (e *Engine) ExecuteRound(s types.BattleState) Result {
	if s.Phase != types.PhasePlanning {
		return Result{State: s}
	}

	next := state.Clone(s)
	next.Phase = types.PhaseExecuting
	round := next.RoundNumber
	var evts []events.Event

	// 1. Status tick.
	statusRNG := rng.DeriveStream(next.Seed, round, rng.PurposeStatusEffects)
	evts = append(evts, effects.TickStatuses(&next, statusRNG, e.Tuning.VariancePct)...)

	// 2. Djinn activation.
	queueRNG := rng.DeriveStream(next.Seed, round, rng.PurposeQueueRound)
	evts = append(evts, e.activateDjinn(&next, round, queueRNG)...)

	// 3. Turn order.
	order := TurnOrder(&next, e.Defs)

	// 4. Action application.
	actionRNG := rng.DeriveStream(next.Seed, round, rng.PurposeActions)
	policy := ai.Policy{HealThresholdPct: e.Tuning.AIHealThresholdPct}
	generatedNext := 0
	for _, ref := range order {
		if battleOver(&next) {
			break
		}
		actor := state.Unit(&next, ref)
		if actor.KO() {
			continue
		}
		evts = append(evts, events.TurnStart{Round: round, ActorID: actor.ID})

		stunned, stunEvts := effects.ConsumeStun(actor)
		evts = append(evts, stunEvts...)
		if stunned {
			continue
		}

		act, ok := e.chooseAction(&next, ref, policy, queueRNG)
		if !ok {
			continue
		}
		actEvts, gen := e.perform(&next, ref, act, actionRNG)
		evts = append(evts, actEvts...)
		generatedNext += gen
	}

	// 5. Win/loss check.
	switch {
	case state.AllKO(&next, types.SideEnemy):
		next.Phase = types.PhaseVictory
	case state.AllKO(&next, types.SidePlayer):
		next.Phase = types.PhaseDefeat
	}
	if next.Phase.Terminal() {
		return Result{State: e.finish(next, &evts), Events: evts}
	}

	// 6. Shake-off rolls, then round-boundary Djinn recovery.
	endRNG := rng.DeriveStream(next.Seed, round, rng.PurposeEndTurn)
	evts = append(evts, effects.ShakeOff(&next, endRNG)...)
	evts = append(evts, djinn.TickRecovery(&next, round, e.Tuning.DjinnRecoveryRounds)...)

	// 7. Advance.
	start := mana.NextRoundStart(&next, generatedNext, e.Tuning.ManaRegenPerRound)
	next.RoundNumber++
	next.Phase = types.PhasePlanning
	mana.BeginPlanning(&next, start)

	return Result{State: next, Events: evts}
}

// finish emits the terminal events, runs the auto-heal pass and clears the
// queue. The returned state is never touched by the engine again.
func (e *Engine) finish(s types.BattleState, evts *[]events.Event) types.BattleState {
	outcome := reward.Outcome(s.Phase)
	*evts = append(*evts, events.BattleEnd{Outcome: outcome, Round: s.RoundNumber})
	if id, ok := s.EncounterID.Get(); ok {
		*evts = append(*evts, events.EncounterFinished{EncounterID: id, Outcome: outcome})
	}

	healed, heal := reward.AutoHeal(s)
	*evts = append(*evts, heal)

	healed.QueuedActions = nil
	healed.QueuedDjinn = nil
	healed.PendingManaThisRound = 0
	healed.PendingManaNextRound = 0
	return healed
}

// activateDjinn moves queued Set Djinn to Standby in equip order. Each
// activation reports the change in team bonus it caused; Djinn with summon
// power also strike every living enemy.
func (e *Engine) activateDjinn(s *types.BattleState, round int, r *rng.RNG) []events.Event {
	var evts []events.Event
	for _, id := range s.PlayerTeam.EquippedDjinn {
		if !state.ContainsString(s.QueuedDjinn, id) {
			continue
		}
		before := state.TeamBonus(s, e.Defs)
		if len(djinn.Activate(s, []string{id}, round)) == 0 {
			continue
		}
		after := state.TeamBonus(s, e.Defs)
		evts = append(evts, events.DjinnStandby{
			DjinnID:         id,
			AtkDelta:        after.ATK - before.ATK,
			DefDelta:        after.DEF - before.DEF,
			AffectedUnitIDs: state.AliveIDs(s, types.SidePlayer),
		})

		def, _ := e.Defs.DjinnDef(id)
		if def.SummonPower <= 0 {
			continue
		}
		var effs []effects.Effect
		for _, target := range state.AliveIDs(s, types.SideEnemy) {
			effs = append(effs, effects.Effect{
				Type:     effects.Damage,
				SourceID: id,
				TargetID: target,
				Amount:   max(1, r.Variance(def.SummonPower, e.Tuning.VariancePct)),
			})
		}
		evts = append(evts, effects.Apply(s, effs)...)
	}
	return evts
}

// chooseAction returns the action for an actor: the queued slot for player
// units, the AI decision for enemies. ok is false when the actor passes.
func (e *Engine) chooseAction(s *types.BattleState, ref state.Ref, policy ai.Policy, r *rng.RNG) (action, bool) {
	if ref.Side == types.SidePlayer {
		if ref.Index >= len(s.QueuedActions) {
			return action{}, false
		}
		q := s.QueuedActions[ref.Index]
		if !q.Queued {
			return action{}, false
		}
		return action{ability: q.AbilityID, targets: q.TargetIDs, prepaid: true}, true
	}

	d := policy.Decide(s, e.Defs, state.Unit(s, ref).ID, r)
	if d.Pass {
		return action{}, false
	}
	return action{ability: d.AbilityID, targets: d.TargetIDs}, true
}

func battleOver(s *types.BattleState) bool {
	return state.AllKO(s, types.SideEnemy) || state.AllKO(s, types.SidePlayer)
}
