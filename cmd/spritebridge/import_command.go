package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"spritebridge/internal/config"
	"spritebridge/internal/pipeline"
)

type outcomeView struct {
	Source   string `json:"source"`
	Tag      string `json:"tag,omitempty"`
	Resource string `json:"resource"`
	Mode     string `json:"mode"`
	Output   string `json:"output,omitempty"`
	Frames   int    `json:"frames"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	BBox     string `json:"bbox,omitempty"`
	Error    string `json:"error,omitempty"`
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var projectPath string
	var standalone bool
	var folderRoot string

	cmd := &cobra.Command{
		Use:   "import <file.aseprite>...",
		Short: "Export Aseprite files and import or encode every tag",
		Long: `Export every tag of each Aseprite file and process the resulting sheets.

In project mode each tag becomes a sprite resource in the GameMaker project,
filed under a folder chain that mirrors the file's directory below the watch
directory. In standalone mode each tag becomes a GIF (or a PNG when it has a
single frame) next to the source file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyModeFlags(cfg, projectPath, standalone, folderRoot); err != nil {
				return err
			}

			var outcomes []pipeline.Outcome
			var failures []error
			err = ctx.withRunner(cfg, func(runner *pipeline.Runner) error {
				for _, arg := range args {
					path, err := config.ExpandPath(arg)
					if err != nil {
						return err
					}
					result, err := runner.ProcessFile(commandContextOf(cmd), path)
					outcomes = append(outcomes, result...)
					if err != nil {
						failures = append(failures, err)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			if err := renderOutcomes(cmd, ctx, outcomes); err != nil {
				return err
			}
			return errors.Join(failures...)
		},
	}

	cmd.Flags().StringVarP(&projectPath, "project", "p", "", "Import into this .yyp project (implies project mode)")
	cmd.Flags().BoolVar(&standalone, "standalone", false, "Write GIF/PNG files next to the sources")
	cmd.Flags().StringVar(&folderRoot, "folder-root", "", "Top-level IDE folder for imported sprites")
	return cmd
}

func applyModeFlags(cfg *config.Config, projectPath string, standalone bool, folderRoot string) error {
	projectPath = strings.TrimSpace(projectPath)
	if projectPath != "" && standalone {
		return errors.New("--project and --standalone are mutually exclusive")
	}
	if projectPath != "" {
		expanded, err := config.ExpandPath(projectPath)
		if err != nil {
			return err
		}
		if !strings.EqualFold(filepath.Ext(expanded), ".yyp") {
			return fmt.Errorf("project path %q is not a .yyp file", expanded)
		}
		cfg.Project.Mode = config.ModeProject
		cfg.Project.YYP = expanded
	}
	if standalone {
		cfg.Project.Mode = config.ModeStandalone
	}
	if root := strings.TrimSpace(folderRoot); root != "" {
		cfg.Project.FolderRoot = root
	}
	if cfg.ProjectMode() && cfg.Project.YYP == "" {
		return errors.New("project mode requires a project path (set [project] yyp or pass --project)")
	}
	return nil
}

func toOutcomeViews(outcomes []pipeline.Outcome) []outcomeView {
	views := make([]outcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		view := outcomeView{
			Source:   o.Source,
			Tag:      o.Tag,
			Resource: o.Resource,
			Mode:     o.Mode,
			Output:   o.Output,
			Frames:   o.Frames,
			Width:    o.Width,
			Height:   o.Height,
			Error:    o.ErrorText(),
		}
		if o.Import != nil {
			view.BBox = o.Import.BBox.String()
		}
		views = append(views, view)
	}
	return views
}

func renderOutcomes(cmd *cobra.Command, ctx *commandContext, outcomes []pipeline.Outcome) error {
	views := toOutcomeViews(outcomes)
	if ctx.JSONMode() {
		return writeJSON(cmd, views)
	}
	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(out, "Nothing exported")
		return nil
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		status := "ok"
		if v.Error != "" {
			status = "failed"
		}
		rows = append(rows, []string{
			v.Resource,
			filepath.Base(v.Source),
			v.Mode,
			fmt.Sprintf("%d", v.Frames),
			fmt.Sprintf("%dx%d", v.Width, v.Height),
			v.Output,
			status,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Resource", "Source", "Mode", "Frames", "Size", "Output", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))
	for _, v := range views {
		if v.Error != "" {
			fmt.Fprintf(out, "%s: %s\n", v.Resource, v.Error)
		}
	}
	return nil
}
