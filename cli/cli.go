// Package cli runs a battle session over plain line-based I/O, for pipes,
// script playback and terminals without TUI support.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/djinncore/narrate"
	"github.com/nathoo/djinncore/session"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Session   *session.Session
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI on stdin/stdout wired to the given session.
func New(sess *session.Session) *CLI {
	home, _ := os.UserHomeDir()
	return &CLI{
		Session: sess,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: filepath.Join(home, ".djinncore", "saves"),
	}
}

// Run shows the intro and the battlefield, then reads commands until EOF,
// /quit or ctx is cancelled.
func (c *CLI) Run(ctx context.Context) {
	defs := c.Session.Engine.Defs
	if intro := defs.Battle.Intro; intro != "" {
		c.printLine(intro)
		c.printLine("")
	}
	c.printLine(narrate.Board(&c.Session.State, defs))

	scanner := bufio.NewScanner(c.In)
	for ctx.Err() == nil {
		fmt.Fprint(c.Out, "> ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		// Blank and comment lines (for script files) are skipped.
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}
		if !c.handle(ctx, input) {
			return
		}
	}
}

// handle runs one input line. It returns false when the player quits.
func (c *CLI) handle(ctx context.Context, input string) bool {
	if strings.HasPrefix(input, "/") {
		out := c.Session.Meta(input, c.SaveDir)
		for _, n := range out.Notices {
			if n.System {
				c.printSystem(n.Text)
			} else {
				c.printLine(n.Text)
			}
		}
		return !out.Quit
	}

	switch strings.ToLower(input) {
	case "again", "g":
		if c.lastCmd == "" {
			c.printLine("Nothing to repeat.")
			return true
		}
		input = c.lastCmd
	default:
		c.lastCmd = input
	}

	out := c.Session.Step(ctx, input)
	for _, line := range out.Lines {
		c.printLine(line)
	}
	if c.Session.Trace {
		for _, line := range session.TraceLines(out.Events) {
			c.printLine(line)
		}
	}
	if out.Summary != nil {
		c.printSystem("Battle over. Use /undo, /load or /quit.")
	}
	return true
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
