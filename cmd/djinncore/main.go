// Djinncore runs a deterministic, queue-based battle from Lua content.
// Usage: djinncore [--version] [--plain] [--script <file>] [--trace] [--seed N]
//
//	[--encounter <id>] [--config <tuning.yaml>] [--telemetry] <content_directory>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/nathoo/djinncore/cli"
	"github.com/nathoo/djinncore/config"
	"github.com/nathoo/djinncore/encounter"
	"github.com/nathoo/djinncore/engine"
	"github.com/nathoo/djinncore/loader"
	"github.com/nathoo/djinncore/session"
	"github.com/nathoo/djinncore/telemetry"
	"github.com/nathoo/djinncore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: djinncore [--version] [--plain] [--script <file>] [--trace] [--seed N] [--encounter <id>] [--config <tuning.yaml>] [--telemetry] <content_directory>\n"

func main() {
	// A missing .env is fine; OTEL_* settings may come from the environment.
	_ = godotenv.Load()

	plain := false
	trace := false
	withTelemetry := false
	seed := time.Now().UnixNano()
	var contentDir, scriptFile, encounterID, tuningFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("djinncore %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--telemetry":
			withTelemetry = true
		case "--script", "--encounter", "--config", "--seed":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "%s requires a value\n", args[i])
				os.Exit(1)
			}
			flag, val := args[i], args[i+1]
			i++
			switch flag {
			case "--script":
				scriptFile = val
			case "--encounter":
				encounterID = val
			case "--config":
				tuningFile = val
			case "--seed":
				n, err := strconv.ParseInt(val, 10, 64)
				if err != nil {
					fmt.Fprintf(os.Stderr, "--seed must be an integer: %v\n", err)
					os.Exit(1)
				}
				seed = n
			}
		default:
			if contentDir == "" {
				contentDir = args[i]
			}
		}
	}

	if contentDir == "" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, options{
		contentDir:    contentDir,
		scriptFile:    scriptFile,
		encounterID:   encounterID,
		tuningFile:    tuningFile,
		seed:          seed,
		plain:         plain,
		trace:         trace,
		withTelemetry: withTelemetry,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	contentDir    string
	scriptFile    string
	encounterID   string
	tuningFile    string
	seed          int64
	plain         bool
	trace         bool
	withTelemetry bool
}

func run(ctx context.Context, opts options) error {
	// Load and compile Lua battle content.
	defs, err := loader.Load(opts.contentDir)
	if err != nil {
		return fmt.Errorf("loading battle: %w", err)
	}

	tuning, err := loadTuning(opts)
	if err != nil {
		return err
	}

	s, err := encounter.NewBattle(defs, opts.encounterID, opts.seed)
	if err != nil {
		return err
	}

	// Telemetry is best-effort: a broken exporter must not block play.
	if opts.withTelemetry {
		shutdown, err := telemetry.Setup(ctx, version)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: telemetry disabled: %v\n", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(sctx)
			}()
		}
	}

	sess := session.New(engine.New(defs, tuning), s, telemetry.Tracer("session"))
	sess.Trace = opts.trace

	// Script mode: open file, force plain, echo commands.
	if opts.scriptFile != "" {
		f, err := os.Open(opts.scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		printTitle(sess)
		c := cli.New(sess)
		c.In = f
		c.EchoInput = true
		c.Run(ctx)
		return nil
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if opts.plain || !isTerminal() {
		printTitle(sess)
		cli.New(sess).Run(ctx)
		return nil
	}

	return tui.Run(ctx, sess)
}

// loadTuning reads --config, or tuning.yaml from the content directory if
// present, falling back to the built-in defaults.
func loadTuning(opts options) (config.Tuning, error) {
	path := opts.tuningFile
	if path == "" {
		candidate := filepath.Join(opts.contentDir, "tuning.yaml")
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		path = candidate
	}
	return config.Load(path)
}

func printTitle(sess *session.Session) {
	b := sess.Engine.Defs.Battle
	fmt.Printf("%s v%s by %s (seed %d)\n\n", b.Title, b.Version, b.Author, sess.State.Seed)
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
