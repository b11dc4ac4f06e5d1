package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/scout/internal/actions"
	"github.com/steveyegge/scout/internal/types"
)

var (
	actRecursive bool
	actScope     string
	actRaw       string
)

var actCmd = &cobra.Command{
	Use:   "act <action> [argument...]",
	Short: "Run a single inspection action and print its result",
	Long: `Run one action against the workspace exactly as an exploration would,
and print the resulting ActionResult as JSON.

Actions:
  read_file <path>
  list_directory [path] [--recursive]
  search_content <query> [--scope dir]
  read_terminal <command...>

The wire form is also accepted:
  scout act --raw '{"type":"read_file","parameters":{"path":"go.mod"}}'

The command exits non-zero when the action fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := parseActionArgs(args, actRecursive, actScope, actRaw)
		if err != nil {
			return err
		}

		executor, err := actions.New(workspaceRoot, logger)
		if err != nil {
			return err
		}
		result := executor.Execute(cmd.Context(), action)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if !result.Success {
			return fmt.Errorf("%s failed: %s", result.ActionType, result.Error)
		}
		return nil
	},
}

// parseActionArgs turns command-line arguments into an action. raw, when
// set, is decoded as the wire form and the other arguments must be empty.
func parseActionArgs(args []string, recursive bool, scope, raw string) (types.Action, error) {
	if raw != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--raw cannot be combined with positional arguments")
		}
		return types.UnmarshalAction([]byte(raw))
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("action type required (read_file, list_directory, search_content, read_terminal)")
	}

	kind := types.ActionType(args[0])
	rest := strings.TrimSpace(strings.Join(args[1:], " "))
	if kind != types.ActionListDirectory && recursive {
		return nil, fmt.Errorf("--recursive only applies to %s", types.ActionListDirectory)
	}
	if kind != types.ActionSearchContent && scope != "" {
		return nil, fmt.Errorf("--scope only applies to %s", types.ActionSearchContent)
	}

	switch kind {
	case types.ActionReadFile:
		if len(args) != 2 {
			return nil, fmt.Errorf("usage: scout act read_file <path>")
		}
		return types.ReadFile{Path: args[1]}, nil
	case types.ActionListDirectory:
		if len(args) > 2 {
			return nil, fmt.Errorf("usage: scout act list_directory [path] [--recursive]")
		}
		path := "."
		if len(args) == 2 {
			path = args[1]
		}
		return types.ListDirectory{Path: path, Recursive: recursive}, nil
	case types.ActionSearchContent:
		if rest == "" {
			return nil, fmt.Errorf("usage: scout act search_content <query> [--scope dir]")
		}
		return types.SearchContent{Query: rest, Scope: scope}, nil
	case types.ActionReadTerminal:
		if rest == "" {
			return nil, fmt.Errorf("usage: scout act read_terminal <command...>")
		}
		return types.ReadTerminal{Command: rest}, nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrUnknownAction, args[0])
}

func init() {
	rootCmd.AddCommand(actCmd)
	actCmd.Flags().BoolVar(&actRecursive, "recursive", false, "Descend into subdirectories (list_directory)")
	actCmd.Flags().StringVar(&actScope, "scope", "", "Directory to search under (search_content)")
	actCmd.Flags().StringVar(&actRaw, "raw", "", "Action in wire form JSON")
}
