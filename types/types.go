// Package types defines the shared data structures for the djinncore battle engine.
// This package contains only type definitions and trivial accessors, no game logic.
package types

// Intent is the parsed representation of a battle command.
type Intent struct {
	Verb    string
	Actor   string   // optional: unit name or id
	Ability string   // optional: ability id
	Targets []string // optional: target names or ids
	Arg     string   // optional: slot index, djinn id, etc.
	Slot    string   // optional: replacement slot for equip
}

// Phase is the battle phase.
type Phase string

const (
	PhasePlanning  Phase = "planning"
	PhaseExecuting Phase = "executing"
	PhaseVictory   Phase = "victory"
	PhaseDefeat    Phase = "defeat"
)

// Terminal reports whether no further queuing or execution is valid.
func (p Phase) Terminal() bool {
	return p == PhaseVictory || p == PhaseDefeat
}

// Side identifies which roster a unit belongs to.
type Side string

const (
	SidePlayer Side = "player"
	SideEnemy  Side = "enemy"
)

// Element is the elemental affinity of units, abilities and Djinn.
type Element string

const (
	ElementNone    Element = ""
	ElementVenus   Element = "venus"
	ElementMars    Element = "mars"
	ElementJupiter Element = "jupiter"
	ElementMercury Element = "mercury"
)

// AutoAttackTiming governs when mana generated by a basic attack is spendable.
type AutoAttackTiming string

const (
	TimingSameTurn AutoAttackTiming = "same-turn"
	TimingNextTurn AutoAttackTiming = "next-turn"
)

// DjinnState is the readiness state of an equipped Djinn.
type DjinnState string

const (
	DjinnSet      DjinnState = "Set"
	DjinnStandby  DjinnState = "Standby"
	DjinnRecovery DjinnState = "Recovery"
)

// MaxEquippedDjinn is the team-wide Djinn slot cap.
const MaxEquippedDjinn = 3

// StatusType names a status effect.
type StatusType string

const (
	StatusPoison  StatusType = "poison"
	StatusBurn    StatusType = "burn"
	StatusRegen   StatusType = "regen"
	StatusStun    StatusType = "stun"
	StatusAtkUp   StatusType = "atk_up"
	StatusDefUp   StatusType = "def_up"
	StatusSpdUp   StatusType = "spd_up"
	StatusAtkDown StatusType = "atk_down"
	StatusDefDown StatusType = "def_down"
	StatusSpdDown StatusType = "spd_down"
)

// AbilityKind classifies how an ability resolves.
type AbilityKind string

const (
	KindPhysical AbilityKind = "physical"
	KindPsynergy AbilityKind = "psynergy"
	KindHeal     AbilityKind = "heal"
	KindRevive   AbilityKind = "revive"
	KindBuff     AbilityKind = "buff"
	KindDebuff   AbilityKind = "debuff"
)

// TargetRule is the targeting rule of an ability.
type TargetRule string

const (
	TargetSelf        TargetRule = "self"
	TargetSingleEnemy TargetRule = "single-enemy"
	TargetSingleAlly  TargetRule = "single-ally"
	TargetAllAllies   TargetRule = "all-allies"
	TargetAllEnemies  TargetRule = "all-enemies"
)

// Stats are a unit's base statistics. HP is the maximum HP.
type Stats struct {
	HP  int `json:"hp"`
	ATK int `json:"atk"`
	DEF int `json:"def"`
	MAG int `json:"mag"`
	SPD int `json:"spd"`
}

// StatusEffect is an active status on a unit.
type StatusEffect struct {
	Type     StatusType `json:"type"`
	Duration int        `json:"duration"`
	Power    int        `json:"power"`
	ShakeOff int        `json:"shake_off,omitempty"` // percent chance to clear at end of round
}

// Unit is a combatant, player or enemy.
type Unit struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Element          Element          `json:"element,omitempty"`
	Level            int              `json:"level"`
	Stats            Stats            `json:"stats"`
	CurrentHP        int              `json:"current_hp"`
	Statuses         []StatusEffect   `json:"statuses"`
	Djinn            []string         `json:"djinn,omitempty"` // loadout, player units only
	Abilities        []string         `json:"abilities"`
	DamageDealt      int              `json:"damage_dealt"`
	DamageTaken      int              `json:"damage_taken"`
	AutoAttackTiming AutoAttackTiming `json:"auto_attack_timing"`
	ManaGain         int              `json:"mana_gain"`
	Mana             int              `json:"mana,omitempty"` // enemy-only ability pool
	XP               int              `json:"xp,omitempty"`
	Gold             int              `json:"gold,omitempty"`
	Drops            []string         `json:"drops,omitempty"`
}

// KO reports whether the unit is knocked out.
func (u Unit) KO() bool {
	return u.CurrentHP <= 0
}

// DjinnTracker is the runtime state of one equipped Djinn.
type DjinnTracker struct {
	State               DjinnState `json:"state"`
	LastActivatedTurn   int        `json:"last_activated_turn"`
	RecoveryStartedTurn int        `json:"recovery_started_turn"`
}

// Team is the player's side of a battle.
type Team struct {
	Units          []Unit                  `json:"units"`
	EquippedDjinn  []string                `json:"equipped_djinn"`
	DjinnTrackers  map[string]DjinnTracker `json:"djinn_trackers"`
	CollectedDjinn []string                `json:"collected_djinn"`
}

// QueuedAction is one player slot. An empty AbilityID on an occupied slot
// is a basic attack.
type QueuedAction struct {
	Queued      bool           `json:"queued"`
	AbilityID   Option[string] `json:"ability_id"`
	TargetIDs   []string       `json:"target_ids"`
	ManaCharged int            `json:"mana_charged"`
}

// BasicAttack reports whether the slot holds a basic attack.
func (q QueuedAction) BasicAttack() bool {
	return q.Queued && !q.AbilityID.IsSome()
}

// BattleState is the single source of truth for one encounter.
type BattleState struct {
	PlayerTeam           Team           `json:"player_team"`
	Enemies              []Unit         `json:"enemies"`
	QueuedActions        []QueuedAction `json:"queued_actions"`
	QueuedDjinn          []string       `json:"queued_djinn"`
	RemainingMana        int            `json:"remaining_mana"`
	MaxMana              int            `json:"max_mana"`
	RoundStartMana       int            `json:"round_start_mana"`
	PendingManaThisRound int            `json:"pending_mana_this_round"`
	PendingManaNextRound int            `json:"pending_mana_next_round"`
	RoundNumber          int            `json:"round_number"`
	Phase                Phase          `json:"phase"`
	EncounterID          Option[string] `json:"encounter_id"`
	Seed                 int64          `json:"seed"`
}

// StatusInflict describes a status an ability may apply.
type StatusInflict struct {
	Type     StatusType
	Duration int
	Power    int
	Chance   int // percent; 0 means always lands
	ShakeOff int
}

// AbilityDef is the definition of an ability.
type AbilityDef struct {
	ID            string
	Name          string
	Kind          AbilityKind
	Target        TargetRule
	ManaCost      int
	BasePower     int
	Element       Element
	HitChance     int // percent; 0 means always hits
	Status        *StatusInflict
	TargetsDowned bool
}

// DjinnDef is the definition of a Djinn.
type DjinnDef struct {
	ID          string
	Name        string
	Element     Element
	AtkBonus    int
	DefBonus    int
	SpdBonus    int
	Unlocks     []string // ability ids usable while in Standby
	SummonPower int      // damage dealt to every enemy on activation
}

// UnitDef is the definition a Unit is created from.
type UnitDef struct {
	ID               string
	Name             string
	Element          Element
	Level            int
	Stats            Stats
	Abilities        []string
	Djinn            []string
	AutoAttackTiming AutoAttackTiming
	ManaGain         int
	Mana             int
	XP               int
	Gold             int
	Drops            []string
}

// EncounterDef lists the enemy roster of an encounter.
type EncounterDef struct {
	ID      string
	Name    string
	Enemies []string // unit def ids, duplicates allowed
}

// PartyDef is the caller-assembled player team.
type PartyDef struct {
	Units          []string
	CollectedDjinn []string
	EquippedDjinn  []string
	MaxMana        int
}

// BattleDef holds content metadata.
type BattleDef struct {
	Title   string
	Author  string
	Version string
	Start   string // default encounter id
	Intro   string
}
