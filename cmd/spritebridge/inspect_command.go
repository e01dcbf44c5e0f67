package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"spritebridge/internal/config"
	"spritebridge/internal/yyp"
)

type spriteView struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Parent   string `json:"parent,omitempty"`
	Width    int64  `json:"width"`
	Height   int64  `json:"height"`
	Frames   int    `json:"frames"`
	BBoxMode int64  `json:"bbox_mode"`
	BBox     string `json:"bbox"`
	Origin   int64  `json:"origin"`
	XOrigin  int64  `json:"xorigin"`
	YOrigin  int64  `json:"yorigin"`
}

type projectView struct {
	Path      string            `json:"path"`
	Resources []yyp.ResourceRef `json:"resources"`
	Folders   []yyp.FolderRef   `json:"folders"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var resource string

	cmd := &cobra.Command{
		Use:   "inspect [project.yyp]",
		Short: "List a GameMaker project's resources and folders, or one sprite",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Project.YYP
			if len(args) == 1 {
				if path, err = config.ExpandPath(args[0]); err != nil {
					return err
				}
			}
			if strings.TrimSpace(path) == "" {
				return errors.New("no project given (pass a .yyp path or set [project] yyp)")
			}
			doc, err := yyp.Load(path)
			if err != nil {
				return err
			}

			if name := strings.TrimSpace(resource); name != "" {
				return inspectSprite(cmd, ctx, doc, name)
			}

			view := projectView{Path: doc.Path, Resources: doc.Resources(), Folders: doc.Folders()}
			if view.Resources == nil {
				view.Resources = []yyp.ResourceRef{}
			}
			if view.Folders == nil {
				view.Folders = []yyp.FolderRef{}
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project: %s\n\n", view.Path)
			folderRows := make([][]string, 0, len(view.Folders))
			for _, f := range view.Folders {
				folderRows = append(folderRows, []string{f.Name, f.Path})
			}
			sort.Slice(folderRows, func(i, j int) bool { return folderRows[i][1] < folderRows[j][1] })
			fmt.Fprintln(out, renderTable([]string{"Folder", "Folder Path"}, folderRows, nil))

			resourceRows := make([][]string, 0, len(view.Resources))
			for _, r := range view.Resources {
				resourceRows = append(resourceRows, []string{r.Name, r.Path})
			}
			fmt.Fprintln(out, renderTable([]string{"Resource", "Path"}, resourceRows, nil))
			fmt.Fprintf(out, "%d resources, %d folders\n", len(view.Resources), len(view.Folders))
			return nil
		},
	}

	cmd.Flags().StringVarP(&resource, "resource", "r", "", "Show the sprite descriptor for this resource")
	return cmd
}

func inspectSprite(cmd *cobra.Command, ctx *commandContext, doc *yyp.Document, name string) error {
	ref, ok := doc.Resource(name)
	if !ok {
		return fmt.Errorf("resource %q not found in %s", name, doc.Path)
	}
	node, err := yyp.LoadFile(filepath.Join(doc.Dir(), filepath.FromSlash(ref.Path)))
	if err != nil {
		return err
	}
	view := spriteView{
		Name:     name,
		Path:     ref.Path,
		Width:    intField(node, "width"),
		Height:   intField(node, "height"),
		Frames:   node.Get("frames").Len(),
		BBoxMode: intField(node, "bboxMode"),
		BBox: fmt.Sprintf("(%d,%d,%d,%d)",
			intField(node, "bbox_left"), intField(node, "bbox_top"),
			intField(node, "bbox_right"), intField(node, "bbox_bottom")),
		Origin:  intField(node, "origin"),
		XOrigin: intField(node, "sequence", "xorigin"),
		YOrigin: intField(node, "sequence", "yorigin"),
	}
	view.Parent, _ = node.Path("parent", "path").Text()

	if ctx.JSONMode() {
		return writeJSON(cmd, view)
	}
	rows := [][]string{
		{"Name", view.Name},
		{"Descriptor", view.Path},
		{"Folder", view.Parent},
		{"Size", fmt.Sprintf("%dx%d", view.Width, view.Height)},
		{"Frames", fmt.Sprintf("%d", view.Frames)},
		{"BBox mode", fmt.Sprintf("%d", view.BBoxMode)},
		{"BBox", view.BBox},
		{"Origin", fmt.Sprintf("%d (%d,%d)", view.Origin, view.XOrigin, view.YOrigin)},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderFields(rows))
	return nil
}

func intField(node *yyp.Node, keys ...string) int64 {
	v, _ := node.Path(keys...).Int()
	return v
}
