// Package effects implements centralized state mutation via the Apply function.
// Every effect type is one atomic operation. Amounts are computed by the
// caller; no combat math lives here.
package effects

import (
	"github.com/nathoo/djinncore/engine/events"
	"github.com/nathoo/djinncore/engine/rng"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

// Type names an effect.
type Type string

const (
	Damage  Type = "damage"
	Heal    Type = "heal"
	Revive  Type = "revive"
	Inflict Type = "inflict"
)

// Effect is one pending mutation.
type Effect struct {
	Type     Type
	SourceID string
	TargetID string
	Amount   int
	Critical bool
	Status   types.StatusEffect
}

// Apply applies effects to s in order, mutating it, and returns the events
// emitted. Effects aimed at a missing target, or at a KO'd target for
// anything but Revive, are dropped.
func Apply(s *types.BattleState, effs []Effect) []events.Event {
	var evts []events.Event

	for _, eff := range effs {
		u := state.UnitByID(s, eff.TargetID)
		if u == nil {
			continue
		}
		if u.KO() != (eff.Type == Revive) {
			continue
		}

		switch eff.Type {
		case Damage:
			dealt := applyDamage(u, eff.Amount)
			if src := state.UnitByID(s, eff.SourceID); src != nil {
				src.DamageDealt += dealt
			}
			evts = append(evts, events.Hit{
				SourceID: eff.SourceID,
				TargetID: eff.TargetID,
				Amount:   dealt,
				Critical: eff.Critical,
			})
			if u.KO() {
				u.Statuses = nil
				evts = append(evts, events.KO{UnitID: u.ID})
			}

		case Heal:
			healed := applyHeal(u, eff.Amount)
			evts = append(evts, events.Heal{
				SourceID: eff.SourceID,
				TargetID: eff.TargetID,
				Amount:   healed,
			})

		case Revive:
			u.CurrentHP = min(max(eff.Amount, 1), u.Stats.HP)
			evts = append(evts, events.Heal{
				SourceID: eff.SourceID,
				TargetID: eff.TargetID,
				Amount:   u.CurrentHP,
				Revived:  true,
			})

		case Inflict:
			if eff.Status.Duration <= 0 {
				continue
			}
			setStatus(u, eff.Status)
			evts = append(evts, events.StatusApplied{
				TargetID: u.ID,
				Status:   eff.Status.Type,
				Duration: eff.Status.Duration,
			})

		default:
			// Unknown effect type: ignore.
		}
	}

	return evts
}

// TickStatuses resolves damage and healing over time for every living unit,
// players first, then decrements durations and expires spent statuses. Stun
// is consumed by the skipped turn, not here. Rolls come from r, which should
// be the round's STATUS_EFFECTS stream.
func TickStatuses(s *types.BattleState, r *rng.RNG, variancePct int) []events.Event {
	var evts []events.Event
	for _, side := range []types.Side{types.SidePlayer, types.SideEnemy} {
		roster := state.Roster(s, side)
		for i := range roster {
			evts = append(evts, tickUnit(&roster[i], r, variancePct)...)
		}
	}
	return evts
}

func tickUnit(u *types.Unit, r *rng.RNG, variancePct int) []events.Event {
	if u.KO() || len(u.Statuses) == 0 {
		return nil
	}
	var evts []events.Event
	var kept []types.StatusEffect
	for _, se := range u.Statuses {
		switch se.Type {
		case types.StatusPoison, types.StatusBurn:
			dealt := applyDamage(u, max(1, r.Variance(se.Power, variancePct)))
			evts = append(evts, events.Hit{SourceID: string(se.Type), TargetID: u.ID, Amount: dealt})
			if u.KO() {
				u.Statuses = nil
				return append(evts, events.KO{UnitID: u.ID})
			}
		case types.StatusRegen:
			if healed := applyHeal(u, max(1, r.Variance(se.Power, variancePct))); healed > 0 {
				evts = append(evts, events.Heal{SourceID: string(se.Type), TargetID: u.ID, Amount: healed})
			}
		}

		if se.Type != types.StatusStun {
			se.Duration--
		}
		if se.Duration <= 0 {
			evts = append(evts, events.StatusExpired{TargetID: u.ID, Status: se.Type})
			continue
		}
		kept = append(kept, se)
	}
	u.Statuses = kept
	return evts
}

// ConsumeStun reports whether u is stunned and, if so, spends one turn of
// the stun.
func ConsumeStun(u *types.Unit) (stunned bool, evts []events.Event) {
	for i, se := range u.Statuses {
		if se.Type != types.StatusStun {
			continue
		}
		se.Duration--
		if se.Duration <= 0 {
			u.Statuses = append(u.Statuses[:i:i], u.Statuses[i+1:]...)
			evts = append(evts, events.StatusExpired{TargetID: u.ID, Status: se.Type})
		} else {
			u.Statuses[i] = se
		}
		return true, evts
	}
	return false, nil
}

// ShakeOff gives every living unit one roll per status with a shake-off
// chance; successful rolls remove the status early. Rolls come from the
// round's END_TURN stream.
func ShakeOff(s *types.BattleState, r *rng.RNG) []events.Event {
	var evts []events.Event
	for _, side := range []types.Side{types.SidePlayer, types.SideEnemy} {
		roster := state.Roster(s, side)
		for i := range roster {
			u := &roster[i]
			if u.KO() {
				continue
			}
			var kept []types.StatusEffect
			for _, se := range u.Statuses {
				if se.ShakeOff > 0 && r.Chance(se.ShakeOff) {
					evts = append(evts, events.StatusExpired{TargetID: u.ID, Status: se.Type})
					continue
				}
				kept = append(kept, se)
			}
			u.Statuses = kept
		}
	}
	return evts
}

// setStatus adds a status, replacing any existing status of the same type.
func setStatus(u *types.Unit, se types.StatusEffect) {
	for i := range u.Statuses {
		if u.Statuses[i].Type == se.Type {
			u.Statuses[i] = se
			return
		}
	}
	u.Statuses = append(u.Statuses, se)
}

// applyDamage decrements the target's HP, clamping to 0. Returns the damage
// actually dealt.
func applyDamage(u *types.Unit, amount int) int {
	dealt := min(max(amount, 0), u.CurrentHP)
	u.CurrentHP -= dealt
	u.DamageTaken += dealt
	return dealt
}

// applyHeal increments the target's HP, clamping to max HP. Returns the
// amount actually restored.
func applyHeal(u *types.Unit, amount int) int {
	healed := min(max(amount, 0), u.Stats.HP-u.CurrentHP)
	healed = max(healed, 0)
	u.CurrentHP += healed
	return healed
}
