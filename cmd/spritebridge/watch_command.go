package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"spritebridge/internal/config"
	"spritebridge/internal/logging"
	"spritebridge/internal/pipeline"
	"spritebridge/internal/preflight"
	"spritebridge/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var projectPath string
	var standalone bool
	var folderRoot string

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a directory and process Aseprite files as they are saved",
		Long: `Run in the foreground, watching the directory tree for saved .aseprite
files. Each save is debounced, exported, and imported or encoded in turn.
Only one watcher may run per directory. Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				dir, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}
				cfg.Paths.WatchDir = dir
			}
			if err := applyModeFlags(cfg, projectPath, standalone, folderRoot); err != nil {
				return err
			}
			if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
				msgs := make([]string, 0, len(failed))
				for _, r := range failed {
					msgs = append(msgs, fmt.Sprintf("%s: %s", r.Name, r.Detail))
				}
				return fmt.Errorf("preflight failed:\n  %s", strings.Join(msgs, "\n  "))
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(commandContextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withRunner(cfg, func(runner *pipeline.Runner) error {
				w, err := watcher.New(cfg, runner,
					watcher.WithLogger(logger),
					watcher.WithProcessedHook(func(path string, outcomes []pipeline.Outcome, err error) {
						if ctx.JSONMode() {
							_ = writeJSONLine(cmd, map[string]any{
								"source":   path,
								"outcomes": toOutcomeViews(outcomes),
							})
							return
						}
						for _, o := range outcomes {
							if o.Err != nil {
								fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s (%s): %s\n", o.Resource, filepath.Base(path), o.Err)
								continue
							}
							fmt.Fprintf(cmd.OutOrStdout(), "OK   %s -> %s\n", o.Resource, o.Output)
						}
					}),
				)
				if err != nil {
					return err
				}
				err = w.Run(signalCtx)
				if errors.Is(err, watcher.ErrAlreadyRunning) {
					return fmt.Errorf("%w (lock %s)", err, w.LockPath())
				}
				logger.Info("watcher stopped", logging.Int64("processed", w.Processed()))
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&projectPath, "project", "p", "", "Import into this .yyp project (implies project mode)")
	cmd.Flags().BoolVar(&standalone, "standalone", false, "Write GIF/PNG files next to the sources")
	cmd.Flags().StringVar(&folderRoot, "folder-root", "", "Top-level IDE folder for imported sprites")
	return cmd
}
