// Package resolve maps unit, ability and Djinn names from parsed intents
// to ids.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

// Result holds the resolved ids for an intent.
type Result struct {
	ActorID   string
	AbilityID types.Option[string]
	TargetIDs []string
}

// AmbiguityError indicates multiple candidates matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s? (%s)", e.Name, names)
}

// NotFoundError indicates nothing matched a name.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s called %q", e.Kind, e.Name)
}

// Resolve maps the actor, ability and target names of an intent to ids.
// The actor must be a player unit; an empty ability stays None.
func Resolve(s *types.BattleState, defs *state.Defs, intent types.Intent) (Result, error) {
	var res Result
	var err error

	if intent.Actor != "" {
		res.ActorID, err = Unit(s, intent.Actor, types.SidePlayer)
		if err != nil {
			return res, err
		}
	}

	if intent.Ability != "" {
		id, err := Ability(defs, intent.Ability)
		if err != nil {
			return res, err
		}
		res.AbilityID = types.Some(id)
	}

	for _, name := range intent.Targets {
		id, err := Unit(s, name, "")
		if err != nil {
			return res, err
		}
		res.TargetIDs = append(res.TargetIDs, id)
	}

	return res, nil
}

// Unit resolves a unit name. An empty side searches both rosters, players
// first.
func Unit(s *types.BattleState, name string, side types.Side) (string, error) {
	nameLower := strings.ToLower(name)
	var matches []string
	for _, sd := range []types.Side{types.SidePlayer, types.SideEnemy} {
		if side != "" && sd != side {
			continue
		}
		for _, u := range state.Roster(s, sd) {
			// 1. Exact id match wins outright.
			if strings.ToLower(u.ID) == nameLower {
				return u.ID, nil
			}
			if matchesName(u.ID, u.Name, nameLower) {
				matches = append(matches, u.ID)
			}
		}
	}
	return pick("unit", name, matches)
}

// Ability resolves an ability name or id.
func Ability(defs *state.Defs, name string) (string, error) {
	if _, ok := defs.Ability(name); ok {
		return name, nil
	}
	var matches []string
	for id, a := range defs.Abilities {
		if matchesName(id, a.Name, strings.ToLower(name)) {
			matches = append(matches, id)
		}
	}
	sort.Strings(matches)
	return pick("ability", name, matches)
}

// Djinn resolves a Djinn name or id.
func Djinn(defs *state.Defs, name string) (string, error) {
	if _, ok := defs.DjinnDef(name); ok {
		return name, nil
	}
	var matches []string
	for id, d := range defs.Djinn {
		if matchesName(id, d.Name, strings.ToLower(name)) {
			matches = append(matches, id)
		}
	}
	sort.Strings(matches)
	return pick("djinn", name, matches)
}

func pick(kind, name string, matches []string) (string, error) {
	switch len(matches) {
	case 0:
		return "", &NotFoundError{Kind: kind, Name: name}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguityError{Name: name, Candidates: matches}
	}
}

// matchesName checks a display name and id against the query
// (case-insensitive). Supports exact match, word-based partial match, and
// underscore normalization.
func matchesName(id, displayName, nameLower string) bool {
	if displayName != "" {
		entityNameLower := strings.ToLower(displayName)
		if entityNameLower == nameLower {
			return true
		}
		// e.g. "dragon" matches "Ancient Dragon".
		for _, word := range strings.Fields(entityNameLower) {
			if word == nameLower {
				return true
			}
		}
	}
	idLower := strings.ToLower(id)
	if idLower == nameLower {
		return true
	}
	// "fire ball" matches id "fire_ball".
	return strings.ReplaceAll(nameLower, " ", "_") == idLower
}
