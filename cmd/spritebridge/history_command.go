package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spritebridge/internal/history"
	"spritebridge/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var resource string

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent exports and imports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				reqCtx := commandContextOf(cmd)
				var entries []history.Entry
				if name := strings.TrimSpace(resource); name != "" {
					entry, err := store.Latest(reqCtx, name)
					if errors.Is(err, services.ErrNotFound) {
						return fmt.Errorf("no history for resource %q", name)
					}
					if err != nil {
						return err
					}
					entries = []history.Entry{entry}
				} else {
					var err error
					if entries, err = store.List(reqCtx, limit); err != nil {
						return err
					}
				}
				if entries == nil {
					entries = []history.Entry{}
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, entries)
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No history yet")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						fmt.Sprintf("%d", e.ID),
						e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						e.Resource,
						filepath.Base(e.Source),
						e.Mode,
						fmt.Sprintf("%d", e.Frames),
						fmt.Sprintf("%dx%d", e.Width, e.Height),
						string(e.Status),
						formatElapsed(e.Duration),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "When", "Resource", "Source", "Mode", "Frames", "Size", "Status", "Took"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight},
				))
				for _, e := range entries {
					if e.Failed() && e.Error != "" {
						fmt.Fprintf(out, "#%d %s: %s\n", e.ID, e.Resource, e.Error)
					}
				}
				return nil
			})
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Number of entries to show")
	historyCmd.Flags().StringVarP(&resource, "resource", "r", "", "Show the latest entry for one resource")
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete history entries older than a duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Prune(commandContextOf(cmd), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"removed": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entries\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove entries older than this")
	return cmd
}
