// Package events defines the battle event log: one struct per event kind,
// all satisfying Event. Events are the only channel through which hosts
// learn what happened during a round.
package events

import "github.com/nathoo/djinncore/types"

// Kind identifies an event variant.
type Kind string

const (
	KindTurnStart         Kind = "turn-start"
	KindAbility           Kind = "ability"
	KindHit               Kind = "hit"
	KindMiss              Kind = "miss"
	KindHeal              Kind = "heal"
	KindStatusApplied     Kind = "status-applied"
	KindStatusExpired     Kind = "status-expired"
	KindKO                Kind = "ko"
	KindManaGenerated     Kind = "mana-generated"
	KindDjinnStandby      Kind = "djinn-standby"
	KindDjinnRecovering   Kind = "djinn-recovering"
	KindDjinnRecovered    Kind = "djinn-recovered"
	KindBattleEnd         Kind = "battle-end"
	KindEncounterFinished Kind = "encounter-finished"
	KindAutoHeal          Kind = "auto-heal"
)

// Outcome is the result carried by terminal events.
type Outcome string

const (
	PlayerVictory Outcome = "PLAYER_VICTORY"
	PlayerDefeat  Outcome = "PLAYER_DEFEAT"
)

// Event is one entry of the append-only battle log.
type Event interface {
	Kind() Kind
}

// TurnStart marks an actor beginning its turn.
type TurnStart struct {
	Round   int
	ActorID string
}

// AbilityUsed records the action an actor performs. AbilityID is empty
// for a basic attack.
type AbilityUsed struct {
	ActorID   string
	AbilityID string
	TargetIDs []string
}

// Hit records damage dealt. SourceID is a unit id, a Djinn id for summons,
// or the status type for damage over time.
type Hit struct {
	SourceID string
	TargetID string
	Amount   int
	Critical bool
}

// Miss records an attack that failed its hit roll.
type Miss struct {
	ActorID  string
	TargetID string
}

// Heal records HP restored.
type Heal struct {
	SourceID string
	TargetID string
	Amount   int
	Revived  bool
}

// StatusApplied records a status landing on a unit.
type StatusApplied struct {
	TargetID string
	Status   types.StatusType
	Duration int
}

// StatusExpired records a status wearing off.
type StatusExpired struct {
	TargetID string
	Status   types.StatusType
}

// KO records a unit being knocked out.
type KO struct {
	UnitID string
}

// ManaGenerated records mana produced by a basic attack.
type ManaGenerated struct {
	UnitID string
	Amount int
	Timing types.AutoAttackTiming
}

// DjinnStandby records a Djinn activation and the team bonus it grants.
type DjinnStandby struct {
	DjinnID         string
	AtkDelta        int
	DefDelta        int
	AffectedUnitIDs []string
}

// DjinnRecovering records a Djinn leaving Standby for Recovery.
type DjinnRecovering struct {
	DjinnID string
}

// DjinnRecovered records a Djinn returning to Set.
type DjinnRecovered struct {
	DjinnID string
}

// BattleEnd records the terminal outcome.
type BattleEnd struct {
	Outcome Outcome
	Round   int
}

// EncounterFinished is emitted alongside BattleEnd when the battle carries
// an encounter id.
type EncounterFinished struct {
	EncounterID string
	Outcome     Outcome
}

// AutoHeal records the post-battle full restore.
type AutoHeal struct {
	UnitIDs []string
}

func (TurnStart) Kind() Kind         { return KindTurnStart }
func (AbilityUsed) Kind() Kind       { return KindAbility }
func (Hit) Kind() Kind               { return KindHit }
func (Miss) Kind() Kind              { return KindMiss }
func (Heal) Kind() Kind              { return KindHeal }
func (StatusApplied) Kind() Kind     { return KindStatusApplied }
func (StatusExpired) Kind() Kind     { return KindStatusExpired }
func (KO) Kind() Kind                { return KindKO }
func (ManaGenerated) Kind() Kind     { return KindManaGenerated }
func (DjinnStandby) Kind() Kind      { return KindDjinnStandby }
func (DjinnRecovering) Kind() Kind   { return KindDjinnRecovering }
func (DjinnRecovered) Kind() Kind    { return KindDjinnRecovered }
func (BattleEnd) Kind() Kind         { return KindBattleEnd }
func (EncounterFinished) Kind() Kind { return KindEncounterFinished }
func (AutoHeal) Kind() Kind          { return KindAutoHeal }

// Handler consumes events one at a time in emission order.
type Handler interface {
	HandleEvent(Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Event)

// HandleEvent calls f(e).
func (f HandlerFunc) HandleEvent(e Event) { f(e) }

// Dispatch delivers every event, in order, to every handler. Single pass:
// handlers cannot feed events back into the log.
func Dispatch(evts []Event, handlers ...Handler) {
	for _, e := range evts {
		for _, h := range handlers {
			h.HandleEvent(e)
		}
	}
}

// Kinds returns the kind of each event, in order.
func Kinds(evts []Event) []Kind {
	out := make([]Kind, len(evts))
	for i, e := range evts {
		out[i] = e.Kind()
	}
	return out
}

// OfKind returns the events of the given kind, in order.
func OfKind(evts []Event, k Kind) []Event {
	var out []Event
	for _, e := range evts {
		if e.Kind() == k {
			out = append(out, e)
		}
	}
	return out
}
