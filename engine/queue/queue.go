// Package queue records player intents during the planning phase. Every
// operation is a pure transform: it returns a new BattleState on success and
// the unchanged input alongside an error on failure.
package queue

import (
	"errors"
	"fmt"

	"github.com/nathoo/djinncore/engine/djinn"
	"github.com/nathoo/djinncore/engine/mana"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

var (
	ErrUnknownUnit      = errors.New("unknown or knocked-out unit")
	ErrUnknownAbility   = errors.New("ability not usable by unit")
	ErrInvalidTarget    = errors.New("invalid target")
	ErrInsufficientMana = errors.New("insufficient mana")
	ErrInvalidSlot      = errors.New("invalid slot")
	ErrManaCommitted    = errors.New("mana generated by this slot is already spent")
	ErrDjinnNotSet      = errors.New("djinn is not Set")
)

// QueueAction records unitID's action for this round. A None abilityID is
// a basic attack. Any previous action in the unit's slot is replaced and its
// mana refunded.
func QueueAction(s types.BattleState, defs *state.Defs, unitID string, abilityID types.Option[string], targetIDs []string) (types.BattleState, error) {
	if s.Phase != types.PhasePlanning {
		return s, state.ErrNotPlanningPhase
	}
	ref, ok := state.FindUnit(&s, unitID)
	if !ok || ref.Side != types.SidePlayer || s.PlayerTeam.Units[ref.Index].KO() {
		return s, fmt.Errorf("%w: %q", ErrUnknownUnit, unitID)
	}
	if err := checkTargets(&s, defs, unitID, abilityID, targetIDs); err != nil {
		return s, err
	}

	cost := mana.Cost(defs, abilityID)
	next := state.Clone(s)
	ensureSlots(&next)
	next.QueuedActions[ref.Index] = types.QueuedAction{
		Queued:      true,
		AbilityID:   abilityID,
		TargetIDs:   append([]string(nil), targetIDs...),
		ManaCharged: cost,
	}
	// Only the final pool matters: replacing a same-turn attack with itself
	// keeps the mana it generated.
	mana.Recompute(&next)
	switch {
	case next.RemainingMana >= 0:
		return next, nil
	case cost > 0:
		return s, fmt.Errorf("%w: need %d, have %d", ErrInsufficientMana, cost, next.RemainingMana+cost)
	default:
		return s, ErrManaCommitted
	}
}

// ClearQueuedAction empties a slot, refunding exactly the mana it cost.
func ClearQueuedAction(s types.BattleState, unitIndex int) (types.BattleState, error) {
	if s.Phase != types.PhasePlanning {
		return s, state.ErrNotPlanningPhase
	}
	if unitIndex < 0 || unitIndex >= len(s.PlayerTeam.Units) {
		return s, fmt.Errorf("%w: %d", ErrInvalidSlot, unitIndex)
	}
	next := state.Clone(s)
	ensureSlots(&next)
	next.QueuedActions[unitIndex] = types.QueuedAction{}
	mana.Recompute(&next)
	if next.RemainingMana < 0 {
		return s, ErrManaCommitted
	}
	return next, nil
}

// QueueDjinn marks a Set Djinn for activation this round.
func QueueDjinn(s types.BattleState, djinnID string) (types.BattleState, error) {
	if err := checkDjinn(s, djinnID); err != nil {
		return s, err
	}
	next := state.Clone(s)
	next.QueuedDjinn = state.InsertSorted(next.QueuedDjinn, djinnID)
	return next, nil
}

// UnqueueDjinn removes a Djinn's activation mark.
func UnqueueDjinn(s types.BattleState, djinnID string) (types.BattleState, error) {
	if err := checkDjinn(s, djinnID); err != nil {
		return s, err
	}
	next := state.Clone(s)
	next.QueuedDjinn = state.RemoveString(next.QueuedDjinn, djinnID)
	return next, nil
}

func checkDjinn(s types.BattleState, djinnID string) error {
	if s.Phase != types.PhasePlanning {
		return state.ErrNotPlanningPhase
	}
	t, ok := state.Tracker(&s, djinnID)
	if !ok {
		return fmt.Errorf("%w: %q", djinn.ErrDjinnNotEquipped, djinnID)
	}
	if t.State != types.DjinnSet {
		return fmt.Errorf("%w: %q is %s", ErrDjinnNotSet, djinnID, t.State)
	}
	return nil
}

// checkTargets validates the ability and its targets. Basic attacks need
// exactly one living enemy.
func checkTargets(s *types.BattleState, defs *state.Defs, unitID string, abilityID types.Option[string], targetIDs []string) error {
	id, isAbility := abilityID.Get()
	if !isAbility {
		if len(targetIDs) != 1 {
			return fmt.Errorf("%w: basic attack takes one target", ErrInvalidTarget)
		}
		r, ok := state.FindUnit(s, targetIDs[0])
		if !ok || r.Side != types.SideEnemy || state.Unit(s, r).KO() {
			return fmt.Errorf("%w: %q", ErrInvalidTarget, targetIDs[0])
		}
		return nil
	}

	ability, ok := defs.Ability(id)
	if !ok || !state.CanUse(s, defs, unitID, id) {
		return fmt.Errorf("%w: %q", ErrUnknownAbility, id)
	}
	legal := state.LegalTargets(s, unitID, ability)
	switch ability.Target {
	case types.TargetSelf, types.TargetSingleAlly, types.TargetSingleEnemy:
		if len(targetIDs) != 1 {
			return fmt.Errorf("%w: %s takes one target", ErrInvalidTarget, id)
		}
	case types.TargetAllAllies, types.TargetAllEnemies:
		if len(legal) == 0 {
			return fmt.Errorf("%w: no legal targets for %s", ErrInvalidTarget, id)
		}
		// Group abilities always hit every legal unit; listed ids are advisory.
		return nil
	}
	if !state.ContainsString(legal, targetIDs[0]) {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, targetIDs[0])
	}
	return nil
}

func ensureSlots(s *types.BattleState) {
	for len(s.QueuedActions) < len(s.PlayerTeam.Units) {
		s.QueuedActions = append(s.QueuedActions, types.QueuedAction{})
	}
}
