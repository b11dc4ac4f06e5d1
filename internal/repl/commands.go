package repl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/steveyegge/scout/internal/display"
)

// cmdHelp shows help information
func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"help, ?", "Show this help message"},
		{"exit, quit", "Exit the REPL"},
		{"sessions [n]", "List the n most recent sessions (default 10)"},
		{"show <id>", "Show a session's history, knowledge and plan"},
		{"explore <goal>", "Explore a goal that starts with a command word"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(r.out, "  %-16s %s\n", green(cmd.name), cmd.desc)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Any other input is an implementation goal, for example:")
	fmt.Fprintln(r.out, "  Add rate limiting to the public API")
	fmt.Fprintln(r.out, "  Support YAML config files next to the JSON ones")
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Ctrl-C during an exploration stops it after the current iteration.")
	fmt.Fprintln(r.out)
	return nil
}

// cmdExit exits the REPL
func (r *REPL) cmdExit(args []string) error {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s Goodbye!\n", green("✓"))
	return errExit
}

// cmdSessions lists recent sessions
func (r *REPL) cmdSessions(args []string) error {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid session count %q", args[0])
		}
		limit = n
	}

	records, err := r.store.ListSessions(r.ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	fmt.Fprintln(r.out)
	if err := display.PrintSessions(r.out, records); err != nil {
		return err
	}
	fmt.Fprintln(r.out)
	return nil
}

// cmdShow prints one session
func (r *REPL) cmdShow(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: show <session-id>")
	}
	rec, err := r.store.GetSession(r.ctx, args[0])
	if err != nil {
		return err
	}
	history, err := r.store.GetHistory(r.ctx, rec.Session.ID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	fmt.Fprintln(r.out)
	display.PrintSession(r.out, rec, history)
	fmt.Fprintln(r.out)
	return nil
}

// cmdExplore runs the rest of the line as a goal
func (r *REPL) cmdExplore(args []string) error {
	goal := strings.TrimSpace(strings.Join(args, " "))
	if goal == "" {
		return fmt.Errorf("usage: explore <goal>")
	}
	return r.runGoal(goal)
}
