package loader

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

var validKinds = map[types.AbilityKind]bool{
	types.KindPhysical: true,
	types.KindPsynergy: true,
	types.KindHeal:     true,
	types.KindRevive:   true,
	types.KindBuff:     true,
	types.KindDebuff:   true,
}

var validTargets = map[types.TargetRule]bool{
	types.TargetSelf:        true,
	types.TargetSingleEnemy: true,
	types.TargetSingleAlly:  true,
	types.TargetAllAllies:   true,
	types.TargetAllEnemies:  true,
}

var validStatuses = map[types.StatusType]bool{
	types.StatusPoison:  true,
	types.StatusBurn:    true,
	types.StatusRegen:   true,
	types.StatusStun:    true,
	types.StatusAtkUp:   true,
	types.StatusDefUp:   true,
	types.StatusSpdUp:   true,
	types.StatusAtkDown: true,
	types.StatusDefDown: true,
	types.StatusSpdDown: true,
}

var validElements = map[types.Element]bool{
	types.ElementNone:    true,
	types.ElementVenus:   true,
	types.ElementMars:    true,
	types.ElementJupiter: true,
	types.ElementMercury: true,
}

// validate checks the compiled defs for referential integrity and consistency.
func validate(defs *state.Defs) error {
	ve := &ValidationError{}

	if defs.Battle.Title == "" {
		ve.errorf("Battle.Title is required")
	}
	if defs.Battle.Start != "" {
		if _, ok := defs.Encounters[defs.Battle.Start]; !ok {
			ve.errorf("start encounter %q not found in defined encounters", defs.Battle.Start)
		}
	}

	for _, id := range sortedKeys(defs.Abilities) {
		validateAbility(defs.Abilities[id], ve)
	}
	for _, id := range sortedKeys(defs.Djinn) {
		validateDjinn(defs.Djinn[id], defs, ve)
	}
	for _, id := range sortedKeys(defs.Units) {
		validateUnit(defs.Units[id], defs, ve)
	}
	for _, id := range sortedKeys(defs.Encounters) {
		enc := defs.Encounters[id]
		if len(enc.Enemies) == 0 {
			ve.errorf("encounter %q has no enemies", id)
		}
		for _, e := range enc.Enemies {
			if _, ok := defs.Units[e]; !ok {
				ve.errorf("encounter %q references undefined enemy %q", id, e)
			}
		}
	}
	validateParty(defs, ve)

	// Warnings: abilities nobody can use.
	used := map[string]bool{}
	for _, u := range defs.Units {
		for _, a := range u.Abilities {
			used[a] = true
		}
	}
	for _, d := range defs.Djinn {
		for _, a := range d.Unlocks {
			used[a] = true
		}
	}
	for _, id := range sortedKeys(defs.Abilities) {
		if !used[id] {
			ve.warnf("ability %q is not granted by any unit or djinn", id)
		}
	}

	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateAbility(a types.AbilityDef, ve *ValidationError) {
	if !validKinds[a.Kind] {
		ve.errorf("ability %q has unknown kind %q", a.ID, a.Kind)
	}
	if !validTargets[a.Target] {
		ve.errorf("ability %q has unknown target rule %q", a.ID, a.Target)
	}
	if !validElements[a.Element] {
		ve.errorf("ability %q has unknown element %q", a.ID, a.Element)
	}
	if a.ManaCost < 0 {
		ve.errorf("ability %q has negative mana cost", a.ID)
	}
	if a.HitChance < 0 || a.HitChance > 100 {
		ve.errorf("ability %q hit chance %d out of range 0-100", a.ID, a.HitChance)
	}
	switch a.Kind {
	case types.KindHeal, types.KindRevive, types.KindBuff:
		if a.Target == types.TargetSingleEnemy || a.Target == types.TargetAllEnemies {
			ve.errorf("ability %q of kind %s cannot target enemies", a.ID, a.Kind)
		}
	}
	if st := a.Status; st != nil {
		if !validStatuses[st.Type] {
			ve.errorf("ability %q inflicts unknown status %q", a.ID, st.Type)
		}
		if st.Duration <= 0 {
			ve.errorf("ability %q status duration must be positive", a.ID)
		}
		if st.Chance < 0 || st.Chance > 100 || st.ShakeOff < 0 || st.ShakeOff > 100 {
			ve.errorf("ability %q status chances out of range 0-100", a.ID)
		}
	}
}

func validateDjinn(d types.DjinnDef, defs *state.Defs, ve *ValidationError) {
	if !validElements[d.Element] || d.Element == types.ElementNone {
		ve.errorf("djinn %q needs an element", d.ID)
	}
	for _, a := range d.Unlocks {
		if _, ok := defs.Abilities[a]; !ok {
			ve.errorf("djinn %q unlocks undefined ability %q", d.ID, a)
		}
	}
	if d.SummonPower < 0 {
		ve.errorf("djinn %q has negative summon power", d.ID)
	}
}

func validateUnit(u types.UnitDef, defs *state.Defs, ve *ValidationError) {
	if u.Stats.HP <= 0 {
		ve.errorf("unit %q needs positive hp", u.ID)
	}
	if !validElements[u.Element] {
		ve.errorf("unit %q has unknown element %q", u.ID, u.Element)
	}
	switch u.AutoAttackTiming {
	case types.TimingSameTurn, types.TimingNextTurn:
	default:
		ve.errorf("unit %q has unknown timing %q", u.ID, u.AutoAttackTiming)
	}
	if u.ManaGain < 0 || u.Mana < 0 {
		ve.errorf("unit %q has negative mana", u.ID)
	}
	for _, a := range u.Abilities {
		if _, ok := defs.Abilities[a]; !ok {
			ve.errorf("unit %q references undefined ability %q", u.ID, a)
		}
	}
	for _, d := range u.Djinn {
		if _, ok := defs.Djinn[d]; !ok {
			ve.errorf("unit %q references undefined djinn %q", u.ID, d)
		}
	}
}

func validateParty(defs *state.Defs, ve *ValidationError) {
	p := defs.Party
	if len(p.Units) == 0 {
		ve.errorf("Party.units is required")
	}
	for _, id := range p.Units {
		if _, ok := defs.Units[id]; !ok {
			ve.errorf("party references undefined unit %q", id)
		}
	}
	if p.MaxMana <= 0 {
		ve.errorf("Party.max_mana must be positive")
	}
	for _, id := range p.CollectedDjinn {
		if _, ok := defs.Djinn[id]; !ok {
			ve.errorf("party collected undefined djinn %q", id)
		}
	}
	if len(p.EquippedDjinn) > types.MaxEquippedDjinn {
		ve.errorf("party equips %d djinn, at most %d allowed", len(p.EquippedDjinn), types.MaxEquippedDjinn)
	}
	seen := map[string]bool{}
	for _, id := range p.EquippedDjinn {
		if seen[id] {
			ve.errorf("party equips djinn %q twice", id)
		}
		seen[id] = true
		if !state.ContainsString(p.CollectedDjinn, id) {
			ve.errorf("party equips djinn %q it has not collected", id)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
