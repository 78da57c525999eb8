package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/djinncore/narrate"
	"github.com/nathoo/djinncore/session"
)

// entry is one unstyled log line. Lines are styled at render time so the
// log can be re-wrapped when the terminal is resized.
type entry struct {
	text   string
	kind   lineKind
	echo   bool // player input
	system bool // bracketed aside
}

// Model is the Bubble Tea model for the battle TUI.
type Model struct {
	ctx     context.Context
	session *session.Session

	viewport viewport.Model
	input    textinput.Model
	history  *History
	log      []entry

	width, height int
	ready         bool
	quitting      bool
	lastCmd       string
	saveDir       string
}

// logMsg delivers lines produced outside of a key press, such as the intro.
type logMsg []entry

// New creates a TUI model wired to the given session.
func New(ctx context.Context, sess *session.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.CharLimit = 256
	ti.Focus()

	home, _ := os.UserHomeDir()
	return Model{
		ctx:     ctx,
		session: sess,
		input:   ti,
		history: NewHistory(200),
		saveDir: filepath.Join(home, ".djinncore", "saves"),
	}
}

// Run starts the full-screen program and blocks until the player quits.
func Run(ctx context.Context, sess *session.Session) error {
	p := tea.NewProgram(New(ctx, sess),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

// Init shows the title, intro and opening battlefield.
func (m Model) Init() tea.Cmd {
	intro := func() tea.Msg {
		b := m.session.Engine.Defs.Battle
		title := b.Title
		if b.Version != "" || b.Author != "" {
			title += fmt.Sprintf(" v%s by %s", b.Version, b.Author)
		}
		msg := logMsg{{text: title, kind: kindHeading}, {}}
		if b.Intro != "" {
			msg = append(msg, entry{text: b.Intro}, entry{})
		}
		return append(msg, classified(narrate.Board(&m.session.State, m.session.Engine.Defs))...)
	}
	return tea.Batch(textinput.Blink, intro)
}

// Update handles key presses, resizes and log messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	case logMsg:
		m.log = append(m.log, msg...)
		m.refreshViewport()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	// One row each for the status bar and the prompt.
	vpHeight := max(height-2, 1)
	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.viewport.KeyMap = viewportKeyMap()
		m.ready = true
	} else {
		m.viewport.Width, m.viewport.Height = width, vpHeight
	}
	m.refreshViewport()
}

// handleKey intercepts keys the prompt must not see. handled is false for
// keys that belong to the text input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit, true
	case "enter":
		next, cmd := m.handleEnter()
		return next, cmd, true
	case "up":
		if prev, ok := m.history.Prev(); ok {
			m.input.SetValue(prev)
			m.input.CursorEnd()
		}
		return m, nil, true
	case "down":
		next, _ := m.history.Next()
		m.input.SetValue(next)
		m.input.CursorEnd()
		return m, nil, true
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, true
	}
	return m, nil, false
}

// handleEnter submits the prompt to the session.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if input == "" {
		return m, nil
	}
	m.history.Push(input)

	if strings.HasPrefix(input, "/") {
		out := m.session.Meta(input, m.saveDir)
		m.record(input, notices(out.Notices))
		if out.Quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch strings.ToLower(input) {
	case "again", "g":
		if m.lastCmd == "" {
			m.record(input, []entry{{text: "Nothing to repeat.", system: true}})
			return m, nil
		}
		input = m.lastCmd
	default:
		m.lastCmd = input
	}

	out := m.session.Step(m.ctx, input)
	var lines []entry
	for _, l := range out.Lines {
		if out.Err != nil {
			lines = append(lines, entry{text: l, kind: kindError})
			continue
		}
		lines = append(lines, classified(l)...)
	}
	if m.session.Trace {
		for _, l := range session.TraceLines(out.Events) {
			lines = append(lines, entry{text: l, kind: kindTrace})
		}
	}
	if out.Summary != nil {
		lines = append(lines, entry{text: "Battle over. Use /undo, /load or /quit.", system: true})
	}
	m.record(input, lines)
	return m, nil
}

// record appends an echoed command and its output, then a blank separator.
func (m *Model) record(input string, lines []entry) {
	m.log = append(m.log, entry{text: "> " + input, echo: true})
	m.log = append(m.log, lines...)
	m.log = append(m.log, entry{})
	m.refreshViewport()
}

// classified splits multi-line text such as the battlefield board into
// classified entries.
func classified(text string) []entry {
	rows := strings.Split(strings.TrimRight(text, "\n"), "\n")
	out := make([]entry, len(rows))
	for i, r := range rows {
		out[i] = entry{text: r, kind: classifyLine(r)}
	}
	return out
}

func notices(ns []session.Notice) []entry {
	var out []entry
	for _, n := range ns {
		if n.System {
			out = append(out, entry{text: n.Text, system: true})
			continue
		}
		out = append(out, classified(n.Text)...)
	}
	return out
}

// refreshViewport re-wraps and re-styles the whole log at the current width.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := max(m.width, 10)
	rendered := make([]string, len(m.log))
	for i, e := range m.log {
		if e.text == "" {
			continue
		}
		wrapped := wordWrap(e.text, width)
		switch {
		case e.echo:
			rendered[i] = stylePlayerInput.Render(wrapped)
		case e.system:
			rendered[i] = styledSystemMsg(wrapped)
		default:
			rendered[i] = renderLineKind(wrapped, e.kind)
		}
	}
	m.viewport.SetContent(strings.Join(rendered, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap breaks text at word boundaries to fit width. Leading
// indentation is kept on the first row only.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}
	trimmed := strings.TrimLeft(text, " ")
	var b strings.Builder
	b.WriteString(text[:len(text)-len(trimmed)])
	col := b.Len()
	for i, word := range strings.Fields(trimmed) {
		if i > 0 {
			if col+1+len(word) > width {
				b.WriteByte('\n')
				col = 0
			} else {
				b.WriteByte(' ')
				col++
			}
		}
		b.WriteString(word)
		col += len(word)
	}
	return b.String()
}

// View stacks the log, the status bar and the prompt.
func (m Model) View() string {
	switch {
	case m.quitting:
		return ""
	case !m.ready:
		return "Loading..."
	}
	return strings.Join([]string{m.viewport.View(), m.renderStatusBar(), m.input.View()}, "\n")
}

// viewportKeyMap leaves Up/Down to the input history.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
