// Package loader loads Lua battle content into Go structs at load time.
// The Lua VM is discarded after loading, so no Lua runs during a battle.
package loader

import (
	"fmt"

	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
	lua "github.com/yuin/gopher-lua"
)

// rawDef holds a curried definition table before compilation.
type rawDef struct {
	id    string
	kind  string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// getStrings returns the array part of a table field as strings. Non-string
// entries are skipped.
func getStrings(tbl *lua.LTable, key string) []string {
	arr := getTable(tbl, key)
	if arr == nil {
		return nil
	}
	var out []string
	for i := 1; i <= arr.MaxN(); i++ {
		if s, ok := arr.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*state.Defs, error) {
	defs := &state.Defs{
		Abilities:  map[string]types.AbilityDef{},
		Djinn:      map[string]types.DjinnDef{},
		Units:      map[string]types.UnitDef{},
		Encounters: map[string]types.EncounterDef{},
	}

	if coll.battle == nil {
		return nil, fmt.Errorf("no Battle{} definition found")
	}
	defs.Battle = compileBattle(coll.battle)

	if coll.party != nil {
		defs.Party = compileParty(coll.party)
	}

	for _, raw := range coll.abilities {
		if _, dup := defs.Abilities[raw.id]; dup {
			return nil, fmt.Errorf("duplicate ability %q", raw.id)
		}
		defs.Abilities[raw.id] = compileAbility(raw)
	}

	for _, raw := range coll.djinn {
		if _, dup := defs.Djinn[raw.id]; dup {
			return nil, fmt.Errorf("duplicate djinn %q", raw.id)
		}
		defs.Djinn[raw.id] = compileDjinn(raw)
	}

	for _, raw := range coll.units {
		if _, dup := defs.Units[raw.id]; dup {
			return nil, fmt.Errorf("duplicate %s %q", raw.kind, raw.id)
		}
		defs.Units[raw.id] = compileUnit(raw)
	}

	for _, raw := range coll.encounters {
		if _, dup := defs.Encounters[raw.id]; dup {
			return nil, fmt.Errorf("duplicate encounter %q", raw.id)
		}
		defs.Encounters[raw.id] = compileEncounter(raw)
	}

	return defs, nil
}

func compileBattle(tbl *lua.LTable) types.BattleDef {
	return types.BattleDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Start:   getString(tbl, "start"),
		Intro:   getString(tbl, "intro"),
	}
}

func compileParty(tbl *lua.LTable) types.PartyDef {
	return types.PartyDef{
		Units:          getStrings(tbl, "units"),
		CollectedDjinn: getStrings(tbl, "collected"),
		EquippedDjinn:  getStrings(tbl, "equipped"),
		MaxMana:        getInt(tbl, "max_mana"),
	}
}

func compileAbility(raw rawDef) types.AbilityDef {
	tbl := raw.table
	a := types.AbilityDef{
		ID:            raw.id,
		Name:          getString(tbl, "name"),
		Kind:          types.AbilityKind(getString(tbl, "kind")),
		Target:        types.TargetRule(getString(tbl, "target")),
		ManaCost:      getInt(tbl, "mana_cost"),
		BasePower:     getInt(tbl, "power"),
		Element:       types.Element(getString(tbl, "element")),
		HitChance:     getInt(tbl, "hit_chance"),
		TargetsDowned: getBool(tbl, "targets_downed", false),
	}
	if a.Name == "" {
		a.Name = raw.id
	}
	// Revives only make sense on downed allies.
	if a.Kind == types.KindRevive {
		a.TargetsDowned = true
	}
	if st := getTable(tbl, "status"); st != nil {
		a.Status = compileInflict(st)
	}
	return a
}

func compileInflict(tbl *lua.LTable) *types.StatusInflict {
	return &types.StatusInflict{
		Type:     types.StatusType(getString(tbl, "type")),
		Duration: getInt(tbl, "duration"),
		Power:    getInt(tbl, "power"),
		Chance:   getInt(tbl, "chance"),
		ShakeOff: getInt(tbl, "shake_off"),
	}
}

func compileDjinn(raw rawDef) types.DjinnDef {
	tbl := raw.table
	d := types.DjinnDef{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Element:     types.Element(getString(tbl, "element")),
		AtkBonus:    getInt(tbl, "atk"),
		DefBonus:    getInt(tbl, "def"),
		SpdBonus:    getInt(tbl, "spd"),
		Unlocks:     getStrings(tbl, "unlocks"),
		SummonPower: getInt(tbl, "summon"),
	}
	if d.Name == "" {
		d.Name = raw.id
	}
	return d
}

func compileUnit(raw rawDef) types.UnitDef {
	tbl := raw.table
	u := types.UnitDef{
		ID:               raw.id,
		Name:             getString(tbl, "name"),
		Element:          types.Element(getString(tbl, "element")),
		Level:            getInt(tbl, "level"),
		Abilities:        getStrings(tbl, "abilities"),
		Djinn:            getStrings(tbl, "djinn"),
		AutoAttackTiming: types.AutoAttackTiming(getString(tbl, "timing")),
		ManaGain:         getInt(tbl, "mana_gain"),
		Mana:             getInt(tbl, "mana"),
		XP:               getInt(tbl, "xp"),
		Gold:             getInt(tbl, "gold"),
		Drops:            getStrings(tbl, "drops"),
	}
	if u.Name == "" {
		u.Name = raw.id
	}
	if u.Level == 0 {
		u.Level = 1
	}
	if u.AutoAttackTiming == "" {
		u.AutoAttackTiming = types.TimingSameTurn
	}
	if st := getTable(tbl, "stats"); st != nil {
		u.Stats = types.Stats{
			HP:  getInt(st, "hp"),
			ATK: getInt(st, "atk"),
			DEF: getInt(st, "def"),
			MAG: getInt(st, "mag"),
			SPD: getInt(st, "spd"),
		}
	}
	return u
}

func compileEncounter(raw rawDef) types.EncounterDef {
	e := types.EncounterDef{
		ID:      raw.id,
		Name:    getString(raw.table, "name"),
		Enemies: getStrings(raw.table, "enemies"),
	}
	if e.Name == "" {
		e.Name = raw.id
	}
	return e
}
