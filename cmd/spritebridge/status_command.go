package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"spritebridge/internal/config"
	"spritebridge/internal/deps"
	"spritebridge/internal/history"
	"spritebridge/internal/logging"
	"spritebridge/internal/preflight"
)

type statusCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

type statusView struct {
	ConfigPath   string         `json:"config_path"`
	ConfigExists bool           `json:"config_exists"`
	Mode         string         `json:"mode"`
	Project      statusCheck    `json:"project"`
	Staging      string         `json:"staging"`
	Directories  []statusCheck  `json:"directories"`
	Dependencies []deps.Status  `json:"dependencies"`
	Aseprite     string         `json:"aseprite_version,omitempty"`
	Watcher      string         `json:"watcher"`
	History      map[string]int `json:"history,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, tool, project, and watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			view := collectStatus(commandContextOf(cmd), ctx, cfg)
			if ctx.JSONMode() {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, strings.Join(renderStatus(view, shouldColorize(out)), "\n"))
			return nil
		},
	}
}

func collectStatus(reqCtx context.Context, ctx *commandContext, cfg *config.Config) statusView {
	view := statusView{
		ConfigPath:   ctx.configPath,
		ConfigExists: ctx.configSeen,
		Mode:         cfg.Project.Mode,
		Dependencies: preflight.CheckSystemDeps(cfg),
		Watcher:      watcherState(cfg),
	}

	project := preflight.CheckProjectFromConfig(cfg)
	view.Project = statusCheck(project)
	if probe, err := preflight.ProbeStaging(cfg); err != nil {
		view.Staging = fmt.Sprintf("unreadable: %v", err)
	} else {
		view.Staging = probe.Detail()
	}

	for _, d := range []struct{ label, path string }{
		{"Watch directory", cfg.Paths.WatchDir},
		{"State directory", cfg.Paths.StateDir},
		{"Log directory", cfg.Paths.LogDir},
	} {
		view.Directories = append(view.Directories, statusCheck(preflight.CheckDirectoryAccess(d.label, d.path)))
	}

	for _, dep := range view.Dependencies {
		if dep.Name == "Aseprite" && dep.Available {
			view.Aseprite = asepriteVersion(reqCtx, ctx, cfg)
		}
	}

	if cfg.History.Enabled {
		if _, err := os.Stat(cfg.HistoryPath()); err == nil {
			_ = ctx.withHistory(func(store *history.Store) error {
				counts, err := store.Counts(reqCtx)
				if err != nil {
					return err
				}
				view.History = make(map[string]int, len(counts))
				for status, n := range counts {
					view.History[string(status)] = n
				}
				return nil
			})
		}
	}
	return view
}

func asepriteVersion(reqCtx context.Context, ctx *commandContext, cfg *config.Config) string {
	versionCtx, cancel := context.WithTimeout(reqCtx, 5*time.Second)
	defer cancel()
	client, err := ctx.newExporter(cfg, logging.NewNop())
	if err != nil {
		return ""
	}
	version, err := client.Version(versionCtx)
	if err != nil {
		return ""
	}
	return version
}

// watcherState probes the watch lock without holding it.
func watcherState(cfg *config.Config) string {
	lockPath := cfg.WatchLockPath(cfg.Paths.WatchDir)
	if _, err := os.Stat(lockPath); err != nil {
		return "Not running"
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Sprintf("Unknown (%v)", err)
	}
	if !ok {
		return "Running"
	}
	_ = lock.Unlock()
	return "Not running"
}

func renderStatus(view statusView, colorize bool) []string {
	var lines []string

	lines = append(lines, renderSectionHeader("Configuration", colorize)...)
	configDetail := view.ConfigPath
	if !view.ConfigExists {
		configDetail += " (not found, using defaults)"
	}
	lines = append(lines, renderStatusLine("Config", statusInfo, configDetail, colorize))
	lines = append(lines, renderStatusLine("Mode", statusInfo, view.Mode, colorize))
	lines = append(lines, "")

	lines = append(lines, renderSectionHeader("Directories", colorize)...)
	for _, d := range view.Directories {
		lines = append(lines, renderCheckLine(d.Name, d.Passed, statusError, d.Detail, colorize))
	}
	lines = append(lines, "")

	lines = append(lines, renderSectionHeader("Tools", colorize)...)
	for _, dep := range view.Dependencies {
		kind := statusOK
		detail := dep.Command
		if dep.Name == "Aseprite" && view.Aseprite != "" {
			detail = fmt.Sprintf("%s (%s)", dep.Command, view.Aseprite)
		}
		if !dep.Available {
			kind = statusError
			if dep.Optional {
				kind = statusWarn
			}
			detail = dep.Detail
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	lines = append(lines, "")

	lines = append(lines, renderSectionHeader("Project", colorize)...)
	lines = append(lines, renderCheckLine("Project", view.Project.Passed, statusError, view.Project.Detail, colorize))
	lines = append(lines, renderStatusLine("Staging", statusInfo, view.Staging, colorize))
	watcherKind := statusInfo
	if view.Watcher == "Running" {
		watcherKind = statusOK
	}
	lines = append(lines, renderStatusLine("Watcher", watcherKind, view.Watcher, colorize))

	if len(view.History) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("History", colorize)...)
		for _, status := range []history.Status{history.StatusImported, history.StatusExported, history.StatusFailed} {
			n := view.History[string(status)]
			kind := statusInfo
			if status == history.StatusFailed && n > 0 {
				kind = statusWarn
			}
			lines = append(lines, renderStatusLine(string(status), kind, fmt.Sprintf("%d", n), colorize))
		}
	}
	return lines
}
