package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"spritebridge/internal/logging"
	"spritebridge/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var level string
	var componentName string
	var resource string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the spritebridge log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if lines < 0 {
				return errors.New("--lines must not be negative")
			}
			filter := logs.Filter{
				MinLevel:  slog.LevelDebug,
				Component: strings.TrimSpace(componentName),
				Resource:  strings.TrimSpace(resource),
			}
			if strings.TrimSpace(level) != "" {
				filter.MinLevel = logging.ParseLevel(level)
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)

			emit := func(batch []string) {
				for _, line := range batch {
					entry, ok := logs.ParseEntry(line)
					if !ok || !filter.Match(entry) {
						continue
					}
					if ctx.JSONMode() {
						fmt.Fprintln(cmd.OutOrStdout(), line)
						continue
					}
					fmt.Fprintln(cmd.OutOrStdout(), entry.Format())
				}
			}

			reqCtx := commandContextOf(cmd)
			result, err := logs.Tail(reqCtx, path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			emit(result.Lines)
			if !follow {
				return nil
			}

			signalCtx, cancel := signal.NotifyContext(reqCtx, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			offset := result.Offset
			for {
				result, err := logs.Tail(signalCtx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 2 * time.Second})
				if signalCtx.Err() != nil {
					return nil
				}
				if err != nil {
					return err
				}
				offset = result.Offset
				emit(result.Lines)
			}
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to read")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&componentName, "component", "", "Only show one component")
	cmd.Flags().StringVarP(&resource, "resource", "r", "", "Only show lines about one resource")
	return cmd
}
