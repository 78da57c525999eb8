package loader

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/djinncore/engine/state"
)

// battleFile is executed before every other content file.
const battleFile = "battle.lua"

// collector accumulates Lua definitions during file execution.
type collector struct {
	battle     *lua.LTable
	party      *lua.LTable
	abilities  []rawDef
	djinn      []rawDef
	units      []rawDef
	encounters []rawDef
}

// Load executes every .lua file in dir inside a sandboxed VM, then compiles
// and validates what the scripts declared. The VM does not outlive the call.
func Load(dir string) (*state.Defs, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}

	coll := &collector{}
	if err := run(dir, orderFiles(names), coll); err != nil {
		return nil, err
	}

	defs, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling battle data: %w", err)
	}
	if err := validate(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func run(dir string, names []string, coll *collector) error {
	L := newVM()
	defer L.Close()
	registerAPI(L, coll)
	for _, name := range names {
		if err := L.DoFile(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("executing %s: %w", name, err)
		}
	}
	return nil
}

// orderFiles sorts file names alphabetically with battle.lua first.
func orderFiles(names []string) []string {
	out := slices.Clone(names)
	slices.SortFunc(out, func(a, b string) int {
		switch {
		case a == battleFile:
			return -1
		case b == battleFile:
			return 1
		}
		return cmp.Compare(a, b)
	})
	return out
}

// newVM returns a VM with the base, table, string and math libraries and
// nothing that can reach the filesystem or load code.
func newVM() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal", "collectgarbage",
	} {
		L.SetGlobal(name, lua.LNil)
	}

	// Content must not reseed or draw from Lua's generator: battles are
	// replayed from the run seed alone.
	if math, ok := L.GetGlobal("math").(*lua.LTable); ok {
		math.RawSetString("randomseed", lua.LNil)
		math.RawSetString("random", lua.LNil)
	}
	return L
}
