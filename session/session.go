// Package session holds one battle for an interactive host: the current
// BattleState, undo history, the command log and tracing. It routes parsed
// intents to the queue, Djinn and round operations and narrates the result.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nathoo/djinncore/engine"
	"github.com/nathoo/djinncore/engine/djinn"
	"github.com/nathoo/djinncore/engine/events"
	"github.com/nathoo/djinncore/engine/parser"
	"github.com/nathoo/djinncore/engine/queue"
	"github.com/nathoo/djinncore/engine/resolve"
	"github.com/nathoo/djinncore/engine/reward"
	"github.com/nathoo/djinncore/engine/rng"
	"github.com/nathoo/djinncore/engine/save"
	"github.com/nathoo/djinncore/engine/state"
	"github.com/nathoo/djinncore/narrate"
	"github.com/nathoo/djinncore/telemetry"
	"github.com/nathoo/djinncore/types"
)

// ErrBattleOver is returned for planning commands after the battle ended.
var ErrBattleOver = errors.New("the battle is over")

// Output is the result of one command.
type Output struct {
	Lines   []string
	Events  []events.Event
	Err     error
	Summary *reward.Summary // set once, on the round that ends the battle
}

// Session owns the current battle state.
type Session struct {
	Engine   *engine.Engine
	State    types.BattleState
	BattleID string
	Rewards  reward.Rewards
	Tracer   trace.Tracer
	Verbose  bool
	Trace    bool // frontends print TraceLines after each command

	history []checkpoint
	log     []string
}

type checkpoint struct {
	state  types.BattleState
	logLen int
}

// New starts a session on s with a fresh battle id. A nil tracer disables
// tracing.
func New(eng *engine.Engine, s types.BattleState, tracer trace.Tracer) *Session {
	if tracer == nil {
		tracer = telemetry.NoopTracer()
	}
	return &Session{
		Engine:   eng,
		State:    s,
		BattleID: uuid.NewString(),
		Rewards:  reward.TableRewards{},
		Tracer:   tracer,
	}
}

func (s *Session) defs() *state.Defs { return s.Engine.Defs }

// Log returns the commands accepted so far.
func (s *Session) Log() []string {
	return append([]string(nil), s.log...)
}

// Step parses and runs one command line.
func (s *Session) Step(ctx context.Context, input string) Output {
	depth := len(s.history)
	out := s.Do(ctx, parser.Parse(input))
	// Only state-changing commands are replayable.
	if len(s.history) > depth {
		s.log = append(s.log, input)
	}
	return out
}

// Do runs one parsed intent inside a span.
func (s *Session) Do(ctx context.Context, intent types.Intent) Output {
	_, span := s.Tracer.Start(ctx, "session."+verbName(intent.Verb),
		trace.WithAttributes(
			attribute.String("battle.id", s.BattleID),
			attribute.Int("battle.round", s.State.RoundNumber),
		))
	defer span.End()

	out := s.dispatch(intent)

	span.SetAttributes(
		attribute.String("battle.phase", string(s.State.Phase)),
		attribute.Int("battle.events", len(out.Events)),
		attribute.Int("battle.mana", s.State.RemainingMana),
	)
	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
		out.Lines = append(out.Lines, out.Err.Error())
	}
	return out
}

func (s *Session) dispatch(intent types.Intent) Output {
	switch intent.Verb {
	case "":
		return Output{Lines: []string{"What do you want to do?"}}
	case "status":
		return Output{Lines: []string{narrate.Board(&s.State, s.defs())}}
	case "help":
		return Output{Lines: Help()}
	}

	if s.State.Phase.Terminal() {
		return Output{Err: ErrBattleOver}
	}

	switch intent.Verb {
	case "attack", "cast":
		return s.queueAction(intent)
	case "clear":
		return s.clear(intent.Arg)
	case "djinn", "undjinn":
		return s.toggleDjinn(intent)
	case "equip", "unequip":
		return s.equip(intent)
	case "fight":
		return s.fight()
	case "preview":
		return s.preview(intent)
	}
	return Output{Lines: []string{fmt.Sprintf("I don't understand %q. Type help for commands.", intent.Verb)}}
}

// commit records the previous state for undo and installs next.
func (s *Session) commit(next types.BattleState) {
	s.history = append(s.history, checkpoint{state: s.State, logLen: len(s.log)})
	s.State = next
}

// Undo restores the state before the last accepted command.
func (s *Session) Undo() bool {
	if len(s.history) == 0 {
		return false
	}
	last := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.State = last.state
	s.log = s.log[:last.logLen]
	return true
}

// Restore replaces the battle with a loaded snapshot and clears history.
func (s *Session) Restore(snap *save.Snapshot) {
	s.State = snap.State
	s.BattleID = snap.BattleID
	s.log = append([]string(nil), snap.CommandLog...)
	s.history = nil
}

// SaveFile writes the battle snapshot to path.
func (s *Session) SaveFile(path string) error {
	return save.WriteFile(path, s.State, s.defs(), s.BattleID, s.log)
}

func (s *Session) queueAction(intent types.Intent) Output {
	if intent.Verb == "cast" && intent.Ability == "" {
		return Output{Err: fmt.Errorf("%w: cast needs an ability", queue.ErrUnknownAbility)}
	}
	if intent.Actor == "" {
		return Output{Err: fmt.Errorf("%w: who acts?", queue.ErrUnknownUnit)}
	}
	res, err := resolve.Resolve(&s.State, s.defs(), intent)
	if err != nil {
		return Output{Err: err}
	}

	targets := s.defaultTargets(res)
	next, err := queue.QueueAction(s.State, s.defs(), res.ActorID, res.AbilityID, targets)
	if err != nil {
		return Output{Err: err}
	}
	s.commit(next)

	what := "attack"
	if id, ok := res.AbilityID.Get(); ok {
		what = id
	}
	return Output{Lines: []string{fmt.Sprintf("%s will %s. Mana %d/%d.", name(&s.State, res.ActorID), what, s.State.RemainingMana, s.State.MaxMana)}}
}

// defaultTargets fills in targets the player may omit: self, group
// abilities, and single-target actions with exactly one legal choice.
func (s *Session) defaultTargets(res resolve.Result) []string {
	if len(res.TargetIDs) > 0 {
		return res.TargetIDs
	}
	ability := types.AbilityDef{Kind: types.KindPhysical, Target: types.TargetSingleEnemy}
	if id, ok := res.AbilityID.Get(); ok {
		def, ok := s.defs().Ability(id)
		if !ok {
			return nil
		}
		ability = def
	}
	legal := state.LegalTargets(&s.State, res.ActorID, ability)
	switch ability.Target {
	case types.TargetAllAllies, types.TargetAllEnemies, types.TargetSelf:
		return legal
	}
	if len(legal) == 1 {
		return legal
	}
	return nil
}

// clear accepts a 1-based slot number or a unit name.
func (s *Session) clear(arg string) Output {
	idx, err := strconv.Atoi(arg)
	if err == nil {
		idx--
	} else {
		id, rerr := resolve.Unit(&s.State, arg, types.SidePlayer)
		if rerr != nil {
			return Output{Err: rerr}
		}
		ref, _ := state.FindUnit(&s.State, id)
		idx = ref.Index
	}
	next, err := queue.ClearQueuedAction(s.State, idx)
	if err != nil {
		return Output{Err: err}
	}
	s.commit(next)
	return Output{Lines: []string{fmt.Sprintf("Slot %d cleared. Mana %d/%d.", idx+1, s.State.RemainingMana, s.State.MaxMana)}}
}

func (s *Session) toggleDjinn(intent types.Intent) Output {
	id, err := resolve.Djinn(s.defs(), intent.Arg)
	if err != nil {
		return Output{Err: err}
	}
	var next types.BattleState
	if intent.Verb == "djinn" {
		next, err = queue.QueueDjinn(s.State, id)
	} else {
		next, err = queue.UnqueueDjinn(s.State, id)
	}
	if err != nil {
		return Output{Err: err}
	}
	s.commit(next)
	if intent.Verb == "djinn" {
		return Output{Lines: []string{fmt.Sprintf("%s will be unleashed this round.", id)}}
	}
	return Output{Lines: []string{fmt.Sprintf("%s stays Set.", id)}}
}

func (s *Session) equip(intent types.Intent) Output {
	id, err := resolve.Djinn(s.defs(), intent.Arg)
	if err != nil {
		return Output{Err: err}
	}
	var next types.BattleState
	if intent.Verb == "unequip" {
		next, err = djinn.Unequip(s.State, id)
	} else {
		slot := types.None[int]()
		if intent.Slot != "" {
			n, perr := strconv.Atoi(intent.Slot)
			if perr != nil {
				return Output{Err: fmt.Errorf("%w: %q", djinn.ErrInvalidDjinnSlot, intent.Slot)}
			}
			slot = types.Some(n - 1)
		}
		next, err = djinn.Equip(s.State, s.defs(), id, slot)
	}
	if err != nil {
		return Output{Err: err}
	}
	s.commit(next)
	return Output{Lines: []string{fmt.Sprintf("Djinn: %v", s.State.PlayerTeam.EquippedDjinn)}}
}

func (s *Session) fight() Output {
	res := s.Engine.ExecuteRound(s.State)
	s.commit(res.State)

	out := Output{Events: res.Events}
	// Narrate against the post-round state so revived and KO'd units keep
	// their names.
	out.Lines = narrate.Narrate(s.defs(), &res.State, res.Events, s.Verbose)

	if s.State.Phase.Terminal() {
		sum, err := reward.Handoff(s.State, s.Rewards)
		if err != nil {
			out.Err = err
			return out
		}
		out.Summary = &sum
		out.Lines = append(out.Lines, narrate.Rewards(sum, &s.State)...)
	}
	return out
}

func (s *Session) preview(intent types.Intent) Output {
	res, err := resolve.Resolve(&s.State, s.defs(), intent)
	if err != nil {
		return Output{Err: err}
	}
	targets := s.defaultTargets(res)
	if len(targets) == 0 {
		return Output{Err: fmt.Errorf("%w: preview needs a target", queue.ErrInvalidTarget)}
	}
	r := rng.DeriveStream(s.State.Seed, s.State.RoundNumber, rng.PurposeActions)
	p, err := s.Engine.PreviewDamage(s.State, res.ActorID, res.AbilityID, targets[0], r, 0)
	if err != nil {
		return Output{Err: err}
	}
	return Output{Lines: []string{fmt.Sprintf("%s: %d-%d (avg %.1f), hit %.0f%%, %d crits in %d samples.",
		name(&s.State, targets[0]), p.Min, p.Max, p.Mean, p.HitRate*100, p.Crits, p.Samples)}}
}

// Help lists the battle commands.
func Help() []string {
	return []string{
		"Planning:",
		"  attack <unit> <target>            queue a basic attack (a)",
		"  cast <unit> <ability> [target]    queue an ability (c, use)",
		"  clear <slot|unit>                 empty a slot and refund its mana",
		"  djinn <id> / undjinn <id>         mark a Set Djinn for activation",
		"  equip <id> [slot] / unequip <id>  change the Djinn loadout",
		"  preview <unit> <ability|attack> <target>",
		"  fight                             execute the round (go, end turn)",
		"  status                            show the battlefield (s)",
	}
}

func name(st *types.BattleState, id string) string {
	if u := state.UnitByID(st, id); u != nil && u.Name != "" {
		return u.Name
	}
	return id
}

func verbName(v string) string {
	if v == "" {
		return "empty"
	}
	return v
}
