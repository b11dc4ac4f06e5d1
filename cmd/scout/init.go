package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/scout/internal/config"
	"github.com/steveyegge/scout/internal/storage"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize scout in the workspace",
	Long: `Create the .scout/ directory in the workspace with an annotated config
file and an empty session database.

This creates:
  - .scout/config.yaml (every setting at its default)
  - .scout/scout.db (SQLite database)

Existing config is kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := storage.InitWorkspace(workspaceRoot)
		if err != nil {
			return err
		}

		configPath := configFlag
		if configPath == "" {
			configPath = config.Path(workspaceRoot)
		}
		wroteConfig := true
		if _, err := os.Stat(configPath); err == nil && !initForce {
			wroteConfig = false
		} else if err := config.WriteExample(configPath, initForce); err != nil {
			return err
		}

		// Opening the store creates the schema
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		dbPath, _ := storage.ResolveDatabase(workspaceRoot, cfg.Database)
		_ = store.Close()

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized scout\n\n", green("✓"))
		fmt.Printf("  Directory: %s\n", cyan(dir))
		if wroteConfig {
			fmt.Printf("  Config:    %s\n", cyan(configPath))
		} else {
			fmt.Printf("  Config:    %s %s\n", cyan(configPath), gray("(kept existing)"))
		}
		fmt.Printf("  Database:  %s\n", cyan(dbPath))
		fmt.Println()
		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray("export ANTHROPIC_API_KEY=..."))
		fmt.Printf("  %s\n", gray(fmt.Sprintf("scout explore %q", "describe your change")))
		fmt.Printf("  %s\n", gray("echo '"+filepath.Join(filepath.Base(dir), "scout.db*")+"' >> .gitignore"))
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}
