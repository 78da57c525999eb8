package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/djinncore/engine/events"
	"github.com/nathoo/djinncore/engine/save"
	"github.com/nathoo/djinncore/narrate"
)

// Notice is one line of slash-command output. System notices are shown as
// bracketed asides by the frontends.
type Notice struct {
	Text   string
	System bool
}

// MetaOutput is the result of a slash command.
type MetaOutput struct {
	Notices []Notice
	Quit    bool
}

func (o *MetaOutput) system(format string, args ...any) {
	o.Notices = append(o.Notices, Notice{Text: fmt.Sprintf(format, args...), System: true})
}

func (o *MetaOutput) lines(lines ...string) {
	for _, l := range lines {
		o.Notices = append(o.Notices, Notice{Text: l})
	}
}

// metaHandler runs one slash command with its optional argument.
type metaHandler func(s *Session, arg, saveDir string, out *MetaOutput)

var metaCommands = map[string]metaHandler{
	"/quit":  metaQuit,
	"/exit":  metaQuit,
	"/save":  metaSave,
	"/load":  metaLoad,
	"/undo":  metaUndo,
	"/help":  metaHelp,
	"/state": metaState,
	"/trace": metaTrace,
}

// Meta runs a slash command such as "/save slot1". Save files live in
// saveDir as <name>.json.
func (s *Session) Meta(input, saveDir string) MetaOutput {
	var out MetaOutput
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return out
	}
	cmd := strings.ToLower(fields[0])
	var arg string
	if len(fields) > 1 {
		arg = fields[1]
	}

	h, ok := metaCommands[cmd]
	if !ok {
		out.system("Unknown command: %s. Type /help for available commands.", fields[0])
		return out
	}
	h(s, arg, saveDir, &out)
	return out
}

func metaQuit(_ *Session, _, _ string, out *MetaOutput) {
	out.system("Goodbye.")
	out.Quit = true
}

func saveName(arg string) string {
	if arg == "" {
		return "quicksave"
	}
	return arg
}

func metaSave(s *Session, arg, saveDir string, out *MetaOutput) {
	name := saveName(arg)
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		out.system("Save failed: %v", err)
		return
	}
	if err := s.SaveFile(filepath.Join(saveDir, name+".json")); err != nil {
		out.system("Save failed: %v", err)
		return
	}
	out.system("Battle saved to %s.", name)
}

func metaLoad(s *Session, arg, saveDir string, out *MetaOutput) {
	name := saveName(arg)
	snap, err := save.ReadFile(filepath.Join(saveDir, name+".json"))
	if err != nil {
		out.system("Load failed: %v", err)
		return
	}
	s.Restore(snap)
	out.system("Battle loaded from %s (round %d).", name, snap.State.RoundNumber)
	out.lines(s.board())
}

func metaUndo(s *Session, _, _ string, out *MetaOutput) {
	if !s.Undo() {
		out.system("Nothing to undo.")
		return
	}
	out.system("Undone.")
	out.lines(s.board())
}

func metaHelp(_ *Session, _, _ string, out *MetaOutput) {
	out.lines(
		"System:",
		"  /save [name]  Save battle (default: quicksave)",
		"  /load [name]  Load battle (default: quicksave)",
		"  /undo         Take back the last command",
		"  /quit         Exit",
		"  /help         Show this help",
		"  /state        Debug: dump current state",
		"  /trace        Toggle event trace output",
		"",
	)
	out.lines(Help()...)
	out.lines("  again (g)                         repeat your last command")
}

func metaState(s *Session, _, _ string, out *MetaOutput) {
	st := s.State
	out.system("Battle: %s", s.BattleID)
	out.system("Round: %d  Phase: %s  Seed: %d", st.RoundNumber, st.Phase, st.Seed)
	out.system("Mana: remaining %d, max %d, round start %d, pending %d/%d",
		st.RemainingMana, st.MaxMana, st.RoundStartMana, st.PendingManaThisRound, st.PendingManaNextRound)
	for _, id := range st.PlayerTeam.EquippedDjinn {
		t := st.PlayerTeam.DjinnTrackers[id]
		out.system("Djinn %s: %s (activated %d, recovering since %d)", id, t.State, t.LastActivatedTurn, t.RecoveryStartedTurn)
	}
	if len(st.QueuedDjinn) > 0 {
		out.system("Queued djinn: %s", strings.Join(st.QueuedDjinn, ", "))
	}
}

func metaTrace(s *Session, _, _ string, out *MetaOutput) {
	s.Trace = !s.Trace
	if s.Trace {
		out.system("Trace output enabled.")
		return
	}
	out.system("Trace output disabled.")
}

func (s *Session) board() string {
	return strings.TrimRight(narrate.Board(&s.State, s.defs()), "\n")
}

// TraceLines renders events for the trace display, one JSON object each.
func TraceLines(evts []events.Event) []string {
	if len(evts) == 0 {
		return nil
	}
	lines := []string{fmt.Sprintf("[trace] Events: %d", len(evts))}
	for _, e := range evts {
		lines = append(lines, fmt.Sprintf("[trace]   %s %s", e.Kind(), eventJSON(e)))
	}
	return lines
}

func eventJSON(e events.Event) string {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf("%+v", e)
	}
	return string(data)
}
