// Package repl is the interactive shell: every line that is not a command is
// an implementation goal and starts an exploration.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/steveyegge/scout/internal/display"
	"github.com/steveyegge/scout/internal/explore"
	"github.com/steveyegge/scout/internal/storage/sqlite"
	"github.com/steveyegge/scout/internal/types"
)

// Explorer runs one exploration per goal.
type Explorer interface {
	Explore(ctx context.Context, goal string) (*explore.Result, error)
	// RequestStop asks the running exploration to stop before its next
	// iteration.
	RequestStop()
}

// Store is the read side of session storage used by the shell.
type Store interface {
	GetSession(ctx context.Context, id string) (*sqlite.SessionRecord, error)
	ListSessions(ctx context.Context, limit int) ([]*sqlite.SessionRecord, error)
	GetHistory(ctx context.Context, sessionID string) ([]types.HistoryEntry, error)
}

// REPL represents the interactive shell
type REPL struct {
	explorer    Explorer
	store       Store
	out         io.Writer
	historyFile string
	logger      *zap.Logger

	rl       *readline.Instance
	ctx      context.Context
	commands map[string]CommandHandler
	// notify subscribes to interrupts while an exploration runs
	notify func() (<-chan os.Signal, func())
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	Explorer Explorer
	Store    Store
	// Out defaults to stdout
	Out io.Writer
	// HistoryFile persists entered lines; empty keeps history in memory
	HistoryFile string
	Logger      *zap.Logger
}

// errExit ends the loop without an error.
var errExit = errors.New("exit")

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Explorer == nil {
		return nil, fmt.Errorf("explorer is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}

	r := &REPL{
		explorer:    cfg.Explorer,
		store:       cfg.Store,
		out:         cfg.Out,
		historyFile: cfg.HistoryFile,
		logger:      cfg.Logger,
		ctx:         context.Background(),
		commands:    make(map[string]CommandHandler),
		notify:      notifyInterrupt,
	}
	if r.out == nil {
		r.out = os.Stdout
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	r.registerCommands()
	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("scout> "),
		HistoryFile:       r.historyFile,
		AutoComplete:      r.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	r.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				// Ctrl+C at the prompt clears the line
				continue
			} else if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return err
		}

		if err := r.processInput(line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(r.out, "%s %v\n", red("Error:"), err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// processInput dispatches a command or runs the line as a goal.
func (r *REPL) processInput(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	parts := strings.Fields(line)
	if handler, ok := r.commands[parts[0]]; ok {
		return handler(parts[1:])
	}
	return r.runGoal(line)
}

// runGoal runs one exploration. The first interrupt requests a stop between
// iterations; a second one cancels the run.
func (r *REPL) runGoal(goal string) error {
	ctx, cancel := context.WithCancel(r.ctx)
	defer cancel()

	sigs, stop := r.notify()
	defer stop()
	done := make(chan struct{})
	defer close(done)

	yellow := color.New(color.FgYellow).SprintFunc()
	go func() {
		stopping := false
		for {
			select {
			case <-sigs:
				if stopping {
					fmt.Fprintf(r.out, "\n%s cancelling exploration\n", yellow("⏹"))
					cancel()
					continue
				}
				stopping = true
				fmt.Fprintf(r.out, "\n%s stopping after the current iteration (Ctrl-C again to cancel)\n", yellow("⏸"))
				r.explorer.RequestStop()
			case <-done:
				return
			}
		}
	}()

	r.logger.Debug("exploring goal", zap.String("goal", goal))
	res, err := r.explorer.Explore(ctx, goal)
	display.PrintResult(r.out, res)
	if err != nil {
		return fmt.Errorf("exploration failed: %w", err)
	}
	fmt.Fprintln(r.out)
	return nil
}

func notifyInterrupt() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch, func() { signal.Stop(ch) }
}

// registerCommands registers all built-in commands
func (r *REPL) registerCommands() {
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
	r.commands["sessions"] = r.cmdSessions
	r.commands["show"] = r.cmdShow
	r.commands["explore"] = r.cmdExplore
}

func (r *REPL) completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
		readline.PcItem("sessions"),
		readline.PcItem("show"),
		readline.PcItem("explore"),
	)
}

// printWelcome prints the welcome message
func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n", cyan("scout"))
	fmt.Fprintln(r.out, "Describe what you want to implement and scout will explore the repository.")
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'exit' to quit")
	fmt.Fprintln(r.out)
}
