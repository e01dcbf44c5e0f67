package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"spritebridge/internal/config"
	"spritebridge/internal/logging"
	"spritebridge/internal/pipeline"
	"spritebridge/internal/staging"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var cleanAll bool
	var listOnly bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove leftover staging directories and expired logs",
		Long: `Remove the staging and set-aside directories an interrupted import can
leave in the project's sprites directory, then apply log retention.

By default only directories older than [watch] staging_max_age_hours are
removed. Use --all to remove every leftover; the project lock is held so a
running import is never disturbed. Use --list to only report them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			spritesDir := cfg.SpritesDir()
			if spritesDir == "" {
				return errors.New("no project configured (set [project] yyp)")
			}

			if listOnly {
				return listLeftovers(cmd, ctx, spritesDir)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			maxAge := time.Duration(cfg.Watch.StagingMaxAgeHours) * time.Hour
			if cleanAll {
				maxAge = 0
				unlock, err := pipeline.LockProject(commandContextOf(cmd), cfg.Project.YYP)
				if err != nil {
					return err
				}
				defer func() {
					if err := unlock(); err != nil {
						logger.Warn("project unlock failed", logging.Error(err))
					}
				}()
			}
			result := staging.CleanStale(commandContextOf(cmd), spritesDir, maxAge, logger)
			pruneLogs(cfg, logger)

			if ctx.JSONMode() {
				errs := make([]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
				}
				return writeJSON(cmd, map[string]any{
					"removed": result.Removed,
					"errors":  errs,
				})
			}
			return printCleanResult(cmd, result)
		},
	}

	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove every leftover regardless of age")
	cmd.Flags().BoolVar(&listOnly, "list", false, "List leftovers without removing anything")
	return cmd
}

func listLeftovers(cmd *cobra.Command, ctx *commandContext, spritesDir string) error {
	dirs, err := staging.ListDirectories(spritesDir)
	if err != nil {
		return fmt.Errorf("list staging directories: %w", err)
	}
	if dirs == nil {
		dirs = []staging.DirInfo{}
	}
	var totalSize int64
	for _, dir := range dirs {
		totalSize += dir.Size
	}
	if ctx.JSONMode() {
		return writeJSON(cmd, map[string]any{
			"sprites_dir":      spritesDir,
			"directories":      dirs,
			"total_size_bytes": totalSize,
		})
	}

	out := cmd.OutOrStdout()
	if len(dirs) == 0 {
		fmt.Fprintln(out, "No leftover staging directories")
		return nil
	}
	fmt.Fprintf(out, "Sprites directory: %s\n\n", spritesDir)
	rows := make([][]string, 0, len(dirs))
	for _, dir := range dirs {
		rows = append(rows, []string{dir.Name, formatAge(dir.ModTime), formatBytes(dir.Size)})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Directory", "Age", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	fmt.Fprintf(out, "Total: %d directories, %s\n", len(dirs), formatBytes(totalSize))
	return nil
}

func printCleanResult(cmd *cobra.Command, result staging.CleanStaleResult) error {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintln(out, "No leftover directories to clean")
		return nil
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "Removed %d leftover directories, %d errors\n", len(result.Removed), len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
		}
		return nil
	}
	fmt.Fprintf(out, "Removed %d leftover directories\n", len(result.Removed))
	return nil
}

func pruneLogs(cfg *config.Config, logger *slog.Logger) {
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: "*.log",
		Exclude: []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
	})
}
