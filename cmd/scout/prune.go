package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/steveyegge/scout/internal/config"
)

var (
	pruneEvents      string
	pruneErrorEvents string
	pruneSessions    string
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old events and sessions according to the retention policy",
	Long: `Delete stored data older than the retention periods in .scout/config.yaml.

Runs two cleanup passes:
  1. Events: info and warning events older than retention.events, error
     events older than retention.error_events
  2. Sessions: finished sessions started before retention.sessions, with
     their history and events (skipped when 0)

Durations accept Go syntax plus whole days ("30d").

Examples:
  scout prune
  scout prune --events 7d --error-events 30d
  scout prune --sessions 90d`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		retention, err := pruneRetention(cfg.Retention, pruneEvents, pruneErrorEvents, pruneSessions)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
		defer cancel()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		start := time.Now()
		events, err := store.CleanupEventsByAge(ctx, retention.Events.Std(), retention.ErrorEvents.Std(), retention.BatchSize)
		if err != nil {
			return fmt.Errorf("event cleanup failed: %w", err)
		}

		sessions := 0
		if retention.Sessions > 0 {
			sessions, err = store.DeleteSessionsBefore(ctx, time.Now().Add(-retention.Sessions.Std()))
			if err != nil {
				return fmt.Errorf("session cleanup failed: %w", err)
			}
		}

		logger.Info("prune completed",
			zap.Int("events_deleted", events),
			zap.Int("sessions_deleted", sessions),
			zap.Duration("duration", time.Since(start)))

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Deleted %d event(s) and %d session(s)\n", green("✓"), events, sessions)
		return nil
	},
}

// pruneRetention applies flag overrides to the configured retention.
func pruneRetention(base config.RetentionConfig, events, errorEvents, sessions string) (config.RetentionConfig, error) {
	overrides := []struct {
		flag  string
		value string
		dest  *config.Duration
	}{
		{"--events", events, &base.Events},
		{"--error-events", errorEvents, &base.ErrorEvents},
		{"--sessions", sessions, &base.Sessions},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		d, err := config.ParseDuration(o.value)
		if err != nil {
			return base, fmt.Errorf("%s: %w", o.flag, err)
		}
		*o.dest = config.Duration(d)
	}
	// Shortening events alone must not leave error events kept for less
	if errorEvents == "" && base.ErrorEvents < base.Events {
		base.ErrorEvents = base.Events
	}
	if err := base.Validate(); err != nil {
		return base, fmt.Errorf("invalid retention: %w", err)
	}
	return base, nil
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().StringVar(&pruneEvents, "events", "", "Retention for info and warning events (default: retention.events)")
	pruneCmd.Flags().StringVar(&pruneErrorEvents, "error-events", "", "Retention for error events (default: retention.error_events)")
	pruneCmd.Flags().StringVar(&pruneSessions, "sessions", "", "Delete finished sessions older than this (default: retention.sessions)")
}
