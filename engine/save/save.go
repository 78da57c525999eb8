// Package save implements JSON serialization and deserialization of battle
// snapshots.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/types"
)

// FormatVersion is written into every snapshot.
const FormatVersion = "1"

// ErrVersion is returned when a snapshot was written by another format.
var ErrVersion = errors.New("unsupported snapshot version")

// Snapshot is the JSON-serializable save format.
type Snapshot struct {
	Version    string            `json:"version"`
	Battle     string            `json:"battle"`
	BattleID   string            `json:"battle_id"`
	Seed       int64             `json:"seed"`
	State      types.BattleState `json:"state"`
	CommandLog []string          `json:"command_log"`
}

// Save serializes a battle to JSON bytes.
func Save(s types.BattleState, defs *state.Defs, battleID string, log []string) ([]byte, error) {
	snap := Snapshot{
		Version:    FormatVersion,
		Battle:     defs.Battle.Title,
		BattleID:   battleID,
		Seed:       s.Seed,
		State:      s,
		CommandLog: log,
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Load deserializes JSON bytes into a Snapshot.
func Load(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %q", ErrVersion, snap.Version)
	}
	normalize(&snap.State)
	if snap.CommandLog == nil {
		snap.CommandLog = []string{}
	}
	return &snap, nil
}

// WriteFile saves a battle to path.
func WriteFile(path string, s types.BattleState, defs *state.Defs, battleID string, log []string) error {
	data, err := Save(s, defs, battleID, log)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile loads a snapshot from path.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// normalize ensures collections are never nil after load.
func normalize(s *types.BattleState) {
	team := &s.PlayerTeam
	if team.DjinnTrackers == nil {
		team.DjinnTrackers = map[string]types.DjinnTracker{}
	}
	if team.EquippedDjinn == nil {
		team.EquippedDjinn = []string{}
	}
	if team.CollectedDjinn == nil {
		team.CollectedDjinn = []string{}
	}
	if s.QueuedDjinn == nil {
		s.QueuedDjinn = []string{}
	}
	for i := range team.Units {
		normalizeUnit(&team.Units[i])
	}
	for i := range s.Enemies {
		normalizeUnit(&s.Enemies[i])
	}
}

func normalizeUnit(u *types.Unit) {
	if u.Statuses == nil {
		u.Statuses = []types.StatusEffect{}
	}
	if u.Abilities == nil {
		u.Abilities = []string{}
	}
}
