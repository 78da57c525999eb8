package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Battle { title = "...", start = "encounter_id", ... }
	L.SetGlobal("Battle", L.NewFunction(func(L *lua.LState) int {
		coll.battle = L.CheckTable(1)
		return 0
	}))

	// Party { units = {...}, collected = {...}, equipped = {...}, max_mana = 5 }
	L.SetGlobal("Party", L.NewFunction(func(L *lua.LState) int {
		coll.party = L.CheckTable(1)
		return 0
	}))

	// Ability "id" { ... } is curried: Ability("id") returns a function that takes a table.
	L.SetGlobal("Ability", curried(L, &coll.abilities, "ability"))
	L.SetGlobal("Djinn", curried(L, &coll.djinn, "djinn"))
	L.SetGlobal("Unit", curried(L, &coll.units, "unit"))
	L.SetGlobal("Enemy", curried(L, &coll.units, "enemy"))
	L.SetGlobal("Encounter", curried(L, &coll.encounters, "encounter"))
}

// curried builds a `Kind "id" { ... }` constructor appending to dst.
func curried(L *lua.LState, dst *[]rawDef, kind string) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			*dst = append(*dst, rawDef{id: id, kind: kind, table: tbl})
			return 0
		}))
		return 1
	})
}

func registerHelpers(L *lua.LState) {
	// Inflict("poison", { duration = 3, power = 2, chance = 60, shake_off = 25 })
	L.SetGlobal("Inflict", L.NewFunction(func(L *lua.LState) int {
		status := L.CheckString(1)
		tbl := L.OptTable(2, L.NewTable())
		out := L.NewTable()
		out.RawSetString("type", lua.LString(status))
		tbl.ForEach(func(k, v lua.LValue) {
			out.RawSet(k, v)
		})
		L.Push(out)
		return 1
	}))

	// Stats(hp, atk, def, mag, spd)
	L.SetGlobal("Stats", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		for i, key := range []string{"hp", "atk", "def", "mag", "spd"} {
			tbl.RawSetString(key, lua.LNumber(L.OptInt(i+1, 0)))
		}
		L.Push(tbl)
		return 1
	}))
}
