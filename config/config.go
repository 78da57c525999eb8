// Package config loads engine tuning constants from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tuning holds the numeric constants the battle engine is parameterized by.
type Tuning struct {
	// DjinnRecoveryRounds is how many full rounds a Djinn stays in Recovery
	// before returning to Set.
	DjinnRecoveryRounds int `yaml:"djinn_recovery_rounds"`
	// ManaRegenPerRound is added to the pool at every round boundary.
	ManaRegenPerRound int `yaml:"mana_regen_per_round"`
	CritChance        int `yaml:"crit_chance"`
	CritMultiplierPct int `yaml:"crit_multiplier_pct"`
	VariancePct       int `yaml:"variance_pct"`
	DefenseDivisor    int `yaml:"defense_divisor"`
	// AIHealThresholdPct is the HP percentage under which enemies prefer healing.
	AIHealThresholdPct int `yaml:"ai_heal_threshold_pct"`
	PreviewSamples     int `yaml:"preview_samples"`
}

// Default returns the built-in tuning.
func Default() Tuning {
	return Tuning{
		DjinnRecoveryRounds: 1,
		ManaRegenPerRound:   0,
		CritChance:          6,
		CritMultiplierPct:   150,
		VariancePct:         10,
		DefenseDivisor:      2,
		AIHealThresholdPct:  35,
		PreviewSamples:      64,
	}
}

// Load reads a YAML tuning file. Keys missing from the file keep their
// default values.
func Load(path string) (Tuning, error) {
	t := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("reading tuning file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return t, fmt.Errorf("parsing tuning file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// WithDefaults returns t with every field the engine cannot run on taken
// from Default(): a zero tuning becomes Default() outright, otherwise
// divisors, multipliers and counts below their minimum are replaced. Fields
// where zero is meaningful (crit chance, variance, regen) are kept.
func (t Tuning) WithDefaults() Tuning {
	d := Default()
	if t == (Tuning{}) {
		return d
	}
	if t.DjinnRecoveryRounds < 1 {
		t.DjinnRecoveryRounds = d.DjinnRecoveryRounds
	}
	if t.CritMultiplierPct < 100 {
		t.CritMultiplierPct = d.CritMultiplierPct
	}
	if t.DefenseDivisor < 1 {
		t.DefenseDivisor = d.DefenseDivisor
	}
	if t.PreviewSamples < 1 {
		t.PreviewSamples = d.PreviewSamples
	}
	if t.Validate() != nil {
		return d
	}
	return t
}

// Validate rejects out-of-range values, reporting all problems at once.
func (t Tuning) Validate() error {
	var errs []string
	if t.DjinnRecoveryRounds < 1 {
		errs = append(errs, "djinn_recovery_rounds must be at least 1")
	}
	if t.ManaRegenPerRound < 0 {
		errs = append(errs, "mana_regen_per_round must not be negative")
	}
	if t.CritChance < 0 || t.CritChance > 100 {
		errs = append(errs, "crit_chance must be within 0..100")
	}
	if t.CritMultiplierPct < 100 {
		errs = append(errs, "crit_multiplier_pct must be at least 100")
	}
	if t.VariancePct < 0 || t.VariancePct > 50 {
		errs = append(errs, "variance_pct must be within 0..50")
	}
	if t.DefenseDivisor < 1 {
		errs = append(errs, "defense_divisor must be at least 1")
	}
	if t.AIHealThresholdPct < 0 || t.AIHealThresholdPct > 100 {
		errs = append(errs, "ai_heal_threshold_pct must be within 0..100")
	}
	if t.PreviewSamples < 1 {
		errs = append(errs, "preview_samples must be at least 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid tuning: %s", strings.Join(errs, "; "))
	}
	return nil
}
