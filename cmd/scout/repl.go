package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/scout/internal/display"
	"github.com/steveyegge/scout/internal/repl"
	"github.com/steveyegge/scout/internal/storage"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive shell",
	Long: `Start an interactive shell. Every line that is not a command is an
implementation goal and runs a full exploration with progress output.

Commands inside the shell include 'sessions', 'show <id>' and 'help'.
Ctrl-C during an exploration stops it after the current iteration.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		ex, err := newExplorer(ctx, store, exploreOptions{
			sink: display.NewPrinter(cmd.OutOrStdout(), verbose),
		})
		if err != nil {
			return err
		}

		historyFile := ""
		if dir, err := storage.InitWorkspace(workspaceRoot); err == nil {
			historyFile = filepath.Join(dir, "repl_history")
		}

		r, err := repl.New(&repl.Config{
			Explorer:    ex,
			Store:       store,
			Out:         cmd.OutOrStdout(),
			HistoryFile: historyFile,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		return r.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
