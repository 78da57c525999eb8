// Package encounter builds the opening BattleState of an encounter from
// loaded definitions and the party roster.
package encounter

import (
	"errors"
	"fmt"

	"github.com/nathoo/djinncore/engine/djinn"
	"github.com/nathoo/djinncore/engine/mana"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

var (
	ErrUnknownEncounter = errors.New("unknown encounter")
	ErrUnknownUnit      = errors.New("unknown unit definition")
	ErrEmptyParty       = errors.New("party has no units")
)

// NewBattle creates the round-0 planning state for encounterID. An empty id
// uses the content's start encounter. The opening mana pool is full.
func NewBattle(defs *state.Defs, encounterID string, seed int64) (types.BattleState, error) {
	if encounterID == "" {
		encounterID = defs.Battle.Start
	}
	enc, ok := defs.Encounters[encounterID]
	if !ok {
		return types.BattleState{}, fmt.Errorf("%w: %q", ErrUnknownEncounter, encounterID)
	}

	party := defs.Party
	if len(party.Units) == 0 {
		return types.BattleState{}, ErrEmptyParty
	}

	s := types.BattleState{
		PlayerTeam: types.Team{
			EquippedDjinn:  []string{},
			DjinnTrackers:  map[string]types.DjinnTracker{},
			CollectedDjinn: sortedSet(party.CollectedDjinn),
		},
		MaxMana:     party.MaxMana,
		Phase:       types.PhasePlanning,
		EncounterID: types.Some(encounterID),
		Seed:        seed,
	}

	for _, id := range party.Units {
		u, err := fromDef(defs, id)
		if err != nil {
			return types.BattleState{}, err
		}
		s.PlayerTeam.Units = append(s.PlayerTeam.Units, u)
	}

	roster, err := enemies(defs, enc.Enemies)
	if err != nil {
		return types.BattleState{}, err
	}
	s.Enemies = roster

	for _, id := range party.EquippedDjinn {
		s, err = djinn.Equip(s, defs, id, types.None[int]())
		if err != nil {
			return types.BattleState{}, fmt.Errorf("equipping %s: %w", id, err)
		}
	}

	mana.BeginPlanning(&s, s.MaxMana)
	return s, nil
}

// enemies instantiates the roster, suffixing ids and names of repeated
// definitions so every unit stays addressable.
func enemies(defs *state.Defs, ids []string) ([]types.Unit, error) {
	count := map[string]int{}
	for _, id := range ids {
		count[id]++
	}
	// Suffixed ids skip anything already listed or handed out, so a def
	// named goblin_1 never clashes with the first of two goblins.
	taken := make(map[string]bool, len(ids))
	for _, id := range ids {
		taken[id] = true
	}
	seen := map[string]int{}
	next := map[string]int{}
	var out []types.Unit
	for _, id := range ids {
		u, err := fromDef(defs, id)
		if err != nil {
			return nil, err
		}
		if count[id] > 1 {
			n := seen[id]
			seen[id]++
			for {
				next[id]++
				cand := fmt.Sprintf("%s_%d", id, next[id])
				if !taken[cand] {
					taken[cand] = true
					u.ID = cand
					break
				}
			}
			u.Name = fmt.Sprintf("%s %c", u.Name, 'A'+n)
		}
		out = append(out, u)
	}
	return out, nil
}

func fromDef(defs *state.Defs, id string) (types.Unit, error) {
	def, ok := defs.Units[id]
	if !ok {
		return types.Unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, id)
	}
	return types.Unit{
		ID:               def.ID,
		Name:             def.Name,
		Element:          def.Element,
		Level:            def.Level,
		Stats:            def.Stats,
		CurrentHP:        def.Stats.HP,
		Statuses:         []types.StatusEffect{},
		Djinn:            append([]string(nil), def.Djinn...),
		Abilities:        append([]string{}, def.Abilities...),
		AutoAttackTiming: def.AutoAttackTiming,
		ManaGain:         def.ManaGain,
		Mana:             def.Mana,
		XP:               def.XP,
		Gold:             def.Gold,
		Drops:            append([]string(nil), def.Drops...),
	}, nil
}

func sortedSet(ids []string) []string {
	out := []string{}
	for _, id := range ids {
		out = state.InsertSorted(out, id)
	}
	return out
}
