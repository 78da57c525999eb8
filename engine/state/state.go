// Package state holds the immutable definitions catalog and read-only
// lookups over a BattleState. Clone is the only way transitions obtain a
// mutable copy, so no caller-held state is ever changed in place.
package state

import (
	"errors"
	"sort"

	"github.com/nathoo/djinncore/types"
)

// ErrNotPlanningPhase is returned by every planning-phase transition while
// the battle is executing or over.
var ErrNotPlanningPhase = errors.New("not in planning phase")

// Defs holds the immutable content definitions loaded from Lua.
type Defs struct {
	Battle     types.BattleDef
	Abilities  map[string]types.AbilityDef
	Djinn      map[string]types.DjinnDef
	Units      map[string]types.UnitDef
	Encounters map[string]types.EncounterDef
	Party      types.PartyDef
}

// Ability returns the ability definition, if known.
func (d *Defs) Ability(id string) (types.AbilityDef, bool) {
	if d == nil {
		return types.AbilityDef{}, false
	}
	a, ok := d.Abilities[id]
	return a, ok
}

// DjinnDef returns the Djinn definition, if known.
func (d *Defs) DjinnDef(id string) (types.DjinnDef, bool) {
	if d == nil {
		return types.DjinnDef{}, false
	}
	dj, ok := d.Djinn[id]
	return dj, ok
}

// Clone returns a deep copy of s.
func Clone(s types.BattleState) types.BattleState {
	c := s
	c.PlayerTeam.Units = cloneUnits(s.PlayerTeam.Units)
	c.PlayerTeam.EquippedDjinn = cloneStrings(s.PlayerTeam.EquippedDjinn)
	c.PlayerTeam.CollectedDjinn = cloneStrings(s.PlayerTeam.CollectedDjinn)
	if s.PlayerTeam.DjinnTrackers != nil {
		c.PlayerTeam.DjinnTrackers = make(map[string]types.DjinnTracker, len(s.PlayerTeam.DjinnTrackers))
		for id, t := range s.PlayerTeam.DjinnTrackers {
			c.PlayerTeam.DjinnTrackers[id] = t
		}
	}
	c.Enemies = cloneUnits(s.Enemies)
	if s.QueuedActions != nil {
		c.QueuedActions = make([]types.QueuedAction, len(s.QueuedActions))
		for i, q := range s.QueuedActions {
			q.TargetIDs = cloneStrings(q.TargetIDs)
			c.QueuedActions[i] = q
		}
	}
	c.QueuedDjinn = cloneStrings(s.QueuedDjinn)
	return c
}

func cloneUnits(units []types.Unit) []types.Unit {
	if units == nil {
		return nil
	}
	out := make([]types.Unit, len(units))
	for i, u := range units {
		u.Statuses = append([]types.StatusEffect(nil), u.Statuses...)
		u.Djinn = cloneStrings(u.Djinn)
		u.Abilities = cloneStrings(u.Abilities)
		u.Drops = cloneStrings(u.Drops)
		out[i] = u
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Ref locates a unit within a BattleState.
type Ref struct {
	Side  types.Side
	Index int
}

// FindUnit returns the location of the unit with the given id.
func FindUnit(s *types.BattleState, id string) (Ref, bool) {
	for i := range s.PlayerTeam.Units {
		if s.PlayerTeam.Units[i].ID == id {
			return Ref{Side: types.SidePlayer, Index: i}, true
		}
	}
	for i := range s.Enemies {
		if s.Enemies[i].ID == id {
			return Ref{Side: types.SideEnemy, Index: i}, true
		}
	}
	return Ref{}, false
}

// Unit returns a pointer into s for the given ref. Callers must only write
// through it on a state they obtained from Clone.
func Unit(s *types.BattleState, r Ref) *types.Unit {
	if r.Side == types.SidePlayer {
		return &s.PlayerTeam.Units[r.Index]
	}
	return &s.Enemies[r.Index]
}

// UnitByID returns a pointer to the unit with the given id, or nil.
func UnitByID(s *types.BattleState, id string) *types.Unit {
	r, ok := FindUnit(s, id)
	if !ok {
		return nil
	}
	return Unit(s, r)
}

// Roster returns the units on the given side.
func Roster(s *types.BattleState, side types.Side) []types.Unit {
	if side == types.SidePlayer {
		return s.PlayerTeam.Units
	}
	return s.Enemies
}

// Opposing returns the other side.
func Opposing(side types.Side) types.Side {
	if side == types.SidePlayer {
		return types.SideEnemy
	}
	return types.SidePlayer
}

// AliveIDs returns the ids of living units on a side, in roster order.
func AliveIDs(s *types.BattleState, side types.Side) []string {
	var ids []string
	for _, u := range Roster(s, side) {
		if !u.KO() {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// AllKO reports whether every unit on a side is knocked out.
func AllKO(s *types.BattleState, side types.Side) bool {
	for _, u := range Roster(s, side) {
		if !u.KO() {
			return false
		}
	}
	return true
}

// Tracker returns the tracker of an equipped Djinn.
func Tracker(s *types.BattleState, djinnID string) (types.DjinnTracker, bool) {
	t, ok := s.PlayerTeam.DjinnTrackers[djinnID]
	return t, ok
}

// StandbyDjinn returns the ids of equipped Djinn in Standby, in equip order.
func StandbyDjinn(s *types.BattleState) []string {
	var ids []string
	for _, id := range s.PlayerTeam.EquippedDjinn {
		if t, ok := s.PlayerTeam.DjinnTrackers[id]; ok && t.State == types.DjinnStandby {
			ids = append(ids, id)
		}
	}
	return ids
}

// Bonus is a team-wide stat delta.
type Bonus struct {
	ATK int
	DEF int
	SPD int
}

// Synergy computes the team bonus granted by the given Standby Djinn:
// summed per-Djinn bonuses plus +1 ATK/DEF for each additional Djinn
// sharing an element.
func Synergy(defs *Defs, djinnIDs []string) Bonus {
	var b Bonus
	byElement := map[types.Element]int{}
	for _, id := range djinnIDs {
		def, ok := defs.DjinnDef(id)
		if !ok {
			continue
		}
		b.ATK += def.AtkBonus
		b.DEF += def.DefBonus
		b.SPD += def.SpdBonus
		if def.Element != types.ElementNone {
			byElement[def.Element]++
		}
	}
	for _, n := range byElement {
		if n > 1 {
			b.ATK += n - 1
			b.DEF += n - 1
		}
	}
	return b
}

// TeamBonus returns the synergy of all Djinn currently in Standby.
func TeamBonus(s *types.BattleState, defs *Defs) Bonus {
	return Synergy(defs, StandbyDjinn(s))
}

// EffectiveStats returns a unit's stats after status modifiers and, for
// player units, the Standby Djinn synergy. Stats never drop below zero.
func EffectiveStats(s *types.BattleState, defs *Defs, id string) types.Stats {
	r, ok := FindUnit(s, id)
	if !ok {
		return types.Stats{}
	}
	u := Unit(s, r)
	st := u.Stats
	for _, se := range u.Statuses {
		switch se.Type {
		case types.StatusAtkUp:
			st.ATK += se.Power
		case types.StatusAtkDown:
			st.ATK -= se.Power
		case types.StatusDefUp:
			st.DEF += se.Power
		case types.StatusDefDown:
			st.DEF -= se.Power
		case types.StatusSpdUp:
			st.SPD += se.Power
		case types.StatusSpdDown:
			st.SPD -= se.Power
		}
	}
	if r.Side == types.SidePlayer {
		b := TeamBonus(s, defs)
		st.ATK += b.ATK
		st.DEF += b.DEF
		st.SPD += b.SPD
	}
	st.ATK = max(st.ATK, 0)
	st.DEF = max(st.DEF, 0)
	st.SPD = max(st.SPD, 0)
	return st
}

// UsableAbilities returns the abilities a unit may use: its own plus those
// unlocked by Standby Djinn in its loadout (any Standby Djinn when the
// loadout is empty). Result is sorted and de-duplicated.
func UsableAbilities(s *types.BattleState, defs *Defs, id string) []string {
	u := UnitByID(s, id)
	if u == nil {
		return nil
	}
	set := map[string]bool{}
	for _, a := range u.Abilities {
		set[a] = true
	}
	if r, _ := FindUnit(s, id); r.Side == types.SidePlayer {
		for _, dj := range StandbyDjinn(s) {
			if len(u.Djinn) > 0 && !contains(u.Djinn, dj) {
				continue
			}
			if def, ok := defs.DjinnDef(dj); ok {
				for _, a := range def.Unlocks {
					set[a] = true
				}
			}
		}
	}
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// CanUse reports whether the unit may use the ability.
func CanUse(s *types.BattleState, defs *Defs, unitID, abilityID string) bool {
	return contains(UsableAbilities(s, defs, unitID), abilityID)
}

// LegalTargets returns the ids a unit may target with an ability, in
// roster order. KO'd units are only legal for TargetsDowned abilities,
// which in turn only accept KO'd units.
func LegalTargets(s *types.BattleState, actorID string, ability types.AbilityDef) []string {
	r, ok := FindUnit(s, actorID)
	if !ok {
		return nil
	}
	pick := func(side types.Side) []string {
		var ids []string
		for _, u := range Roster(s, side) {
			if u.KO() == ability.TargetsDowned {
				ids = append(ids, u.ID)
			}
		}
		return ids
	}
	switch ability.Target {
	case types.TargetSelf:
		return []string{actorID}
	case types.TargetSingleAlly, types.TargetAllAllies:
		return pick(r.Side)
	case types.TargetSingleEnemy, types.TargetAllEnemies:
		return pick(Opposing(r.Side))
	default:
		return nil
	}
}

// ContainsString reports whether list contains v.
func ContainsString(list []string, v string) bool {
	return contains(list, v)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// InsertSorted adds v to a sorted set, returning the new set.
func InsertSorted(set []string, v string) []string {
	i := sort.SearchStrings(set, v)
	if i < len(set) && set[i] == v {
		return set
	}
	out := make([]string, 0, len(set)+1)
	out = append(out, set[:i]...)
	out = append(out, v)
	return append(out, set[i:]...)
}

// RemoveString returns list without any occurrence of v.
func RemoveString(list []string, v string) []string {
	var out []string
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
