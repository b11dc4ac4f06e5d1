package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/scout/internal/display"
	"github.com/steveyegge/scout/internal/storage/sqlite"
)

var (
	sessionsLimit int
	showEvents    bool
	showJSON      bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List past exploration sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.ListSessions(ctx, sessionsLimit)
		if err != nil {
			return err
		}
		return display.PrintSessions(os.Stdout, records)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's history, knowledge and plan",
	Long: `Show one exploration session. The ID may be abbreviated to any unique
prefix, as printed by 'scout sessions'.

Examples:
  scout show 3f2a9c1e
  scout show 3f2a --events
  scout show 3f2a --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.GetSession(ctx, args[0])
		if err != nil {
			return err
		}
		history, err := store.GetHistory(ctx, rec.Session.ID)
		if err != nil {
			return err
		}

		if showJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"session":   rec.Session,
				"knowledge": rec.Knowledge,
				"plan":      rec.Plan,
				"history":   history,
			})
		}

		display.PrintSession(os.Stdout, rec, history)
		if !showEvents {
			return nil
		}

		evs, err := store.GetEvents(ctx, sqlite.EventFilter{SessionID: rec.Session.ID})
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n", color.New(color.Bold).Sprint("Events"))
		printer := display.NewPrinter(os.Stdout, true)
		for _, ev := range evs {
			if err := printer.Publish(ctx, ev); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(showCmd)
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Number of sessions to list (0 for all)")
	showCmd.Flags().BoolVar(&showEvents, "events", false, "Also print the session's stored events")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the session as JSON")
}
