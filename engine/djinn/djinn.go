// Package djinn implements the Djinn power state machine:
// Set -> Standby -> Recovery -> Set, plus equip/unequip of the three team
// slots. Activate and TickRecovery are the only tracker state mutators and
// are called exclusively by the round resolver.
package djinn

import (
	"errors"
	"fmt"

	"github.com/nathoo/djinncore/engine/events"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

var (
	ErrUnknownDjinn         = errors.New("unknown djinn")
	ErrDjinnNotCollected    = errors.New("djinn not collected")
	ErrDjinnAlreadyEquipped = errors.New("djinn already equipped")
	ErrDjinnNotEquipped     = errors.New("djinn not equipped")
	ErrDjinnSlotsFull       = errors.New("all djinn slots are full; a replacement slot is required")
	ErrInvalidDjinnSlot     = errors.New("invalid djinn slot")
)

// Equip equips a collected Djinn. With fewer than three equipped, the Djinn
// is appended (or replaces slot when one is given); with all three slots
// taken a valid replacement slot is required. The replaced Djinn's tracker
// is deleted; it stays collected.
func Equip(s types.BattleState, defs *state.Defs, djinnID string, slot types.Option[int]) (types.BattleState, error) {
	if s.Phase != types.PhasePlanning {
		return s, state.ErrNotPlanningPhase
	}
	if _, ok := defs.DjinnDef(djinnID); !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownDjinn, djinnID)
	}
	if !state.ContainsString(s.PlayerTeam.CollectedDjinn, djinnID) {
		return s, fmt.Errorf("%w: %q", ErrDjinnNotCollected, djinnID)
	}
	if state.ContainsString(s.PlayerTeam.EquippedDjinn, djinnID) {
		return s, fmt.Errorf("%w: %q", ErrDjinnAlreadyEquipped, djinnID)
	}

	equipped := s.PlayerTeam.EquippedDjinn
	idx, hasSlot := slot.Get()
	switch {
	case !hasSlot && len(equipped) >= types.MaxEquippedDjinn:
		return s, ErrDjinnSlotsFull
	case hasSlot && (idx < 0 || idx >= types.MaxEquippedDjinn || idx > len(equipped)):
		return s, fmt.Errorf("%w: %d", ErrInvalidDjinnSlot, idx)
	}

	next := state.Clone(s)
	team := &next.PlayerTeam
	if team.DjinnTrackers == nil {
		team.DjinnTrackers = map[string]types.DjinnTracker{}
	}
	if hasSlot && idx < len(team.EquippedDjinn) {
		old := team.EquippedDjinn[idx]
		delete(team.DjinnTrackers, old)
		next.QueuedDjinn = state.RemoveString(next.QueuedDjinn, old)
		team.EquippedDjinn[idx] = djinnID
	} else {
		team.EquippedDjinn = append(team.EquippedDjinn, djinnID)
	}
	team.DjinnTrackers[djinnID] = types.DjinnTracker{State: types.DjinnSet, LastActivatedTurn: -1}
	return next, nil
}

// Unequip removes a Djinn from its slot and deletes its tracker. The Djinn
// remains in the collection.
func Unequip(s types.BattleState, djinnID string) (types.BattleState, error) {
	if s.Phase != types.PhasePlanning {
		return s, state.ErrNotPlanningPhase
	}
	if !state.ContainsString(s.PlayerTeam.EquippedDjinn, djinnID) {
		return s, fmt.Errorf("%w: %q", ErrDjinnNotEquipped, djinnID)
	}
	next := state.Clone(s)
	next.PlayerTeam.EquippedDjinn = state.RemoveString(next.PlayerTeam.EquippedDjinn, djinnID)
	delete(next.PlayerTeam.DjinnTrackers, djinnID)
	next.QueuedDjinn = state.RemoveString(next.QueuedDjinn, djinnID)
	return next, nil
}

// Activate moves each listed Djinn that is Set into Standby, recording the
// round. It writes to s and returns the ids actually activated, in order.
func Activate(s *types.BattleState, ids []string, round int) []string {
	var activated []string
	for _, id := range ids {
		t, ok := s.PlayerTeam.DjinnTrackers[id]
		if !ok || t.State != types.DjinnSet {
			continue
		}
		t.State = types.DjinnStandby
		t.LastActivatedTurn = round
		s.PlayerTeam.DjinnTrackers[id] = t
		activated = append(activated, id)
	}
	return activated
}

// TickRecovery applies the round-boundary transitions at the end of round:
// Standby for at least one full round -> Recovery, and Recovery held for
// recoveryRounds -> Set. A Djinn makes at most one transition per round.
// It writes to s and returns the transition events in equip order.
func TickRecovery(s *types.BattleState, round, recoveryRounds int) []events.Event {
	var evts []events.Event
	for _, id := range s.PlayerTeam.EquippedDjinn {
		t, ok := s.PlayerTeam.DjinnTrackers[id]
		if !ok {
			continue
		}
		switch t.State {
		case types.DjinnStandby:
			if round > t.LastActivatedTurn {
				t.State = types.DjinnRecovery
				t.RecoveryStartedTurn = round
				evts = append(evts, events.DjinnRecovering{DjinnID: id})
			}
		case types.DjinnRecovery:
			if round-t.RecoveryStartedTurn >= recoveryRounds {
				t.State = types.DjinnSet
				evts = append(evts, events.DjinnRecovered{DjinnID: id})
			}
		}
		s.PlayerTeam.DjinnTrackers[id] = t
	}
	return evts
}

// CheckSlots verifies the slot invariants: at most three equipped, every
// tracker belongs to an equipped Djinn, every equipped Djinn has a tracker.
func CheckSlots(s types.BattleState) error {
	team := s.PlayerTeam
	if len(team.EquippedDjinn) > types.MaxEquippedDjinn {
		return fmt.Errorf("%d djinn equipped, max %d", len(team.EquippedDjinn), types.MaxEquippedDjinn)
	}
	for id := range team.DjinnTrackers {
		if !state.ContainsString(team.EquippedDjinn, id) {
			return fmt.Errorf("tracker for unequipped djinn %q", id)
		}
	}
	for _, id := range team.EquippedDjinn {
		if _, ok := team.DjinnTrackers[id]; !ok {
			return fmt.Errorf("equipped djinn %q has no tracker", id)
		}
	}
	return nil
}
