package main

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"

	"spritebridge/internal/config"
	"spritebridge/internal/palette"
)

type paletteEntryView struct {
	Index     int     `json:"index"`
	Hex       string  `json:"hex"`
	R         uint8   `json:"r"`
	G         uint8   `json:"g"`
	B         uint8   `json:"b"`
	Lightness float64 `json:"lightness"`
	Reserved  bool    `json:"reserved,omitempty"`
}

type paletteView struct {
	Sheet   string             `json:"sheet"`
	Frames  int                `json:"frames"`
	Unique  int                `json:"unique_colors"`
	Dropped int                `json:"dropped_colors"`
	Entries []paletteEntryView `json:"entries"`
}

func newPaletteCommand(ctx *commandContext) *cobra.Command {
	var sheet sheetFlags

	cmd := &cobra.Command{
		Use:   "palette <sheet.png>",
		Short: "Show the shared palette a sprite sheet would be encoded with",
		Long: `Build the shared animation palette for a sprite sheet and list it in index
order. Index 0 is reserved for transparency. When a sheet has more than 256
distinct colors the table is truncated in first-seen order and the dropped
colors are remapped to their nearest surviving entry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			set, err := sheet.load(src)
			if err != nil {
				return err
			}
			pal := palette.Build(set.frames)
			view := paletteView{
				Sheet:   src,
				Frames:  len(set.frames),
				Unique:  pal.Unique(),
				Dropped: pal.Dropped(),
				Entries: paletteEntries(pal),
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(view.Entries))
			for _, e := range view.Entries {
				label := e.Hex
				if e.Reserved {
					label += " (transparent)"
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", e.Index),
					swatch(e, colorize),
					label,
					fmt.Sprintf("%d,%d,%d", e.R, e.G, e.B),
					fmt.Sprintf("%.1f", e.Lightness),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Index", "", "Hex", "RGB", "L*"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "%d entries, %d unique colors in %d frames", len(view.Entries), view.Unique, view.Frames)
			if view.Dropped > 0 {
				fmt.Fprintf(out, ", %d dropped", view.Dropped)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	sheet.register(cmd)
	return cmd
}

func paletteEntries(pal *palette.Palette) []paletteEntryView {
	entries := pal.Entries()
	views := make([]paletteEntryView, 0, len(entries))
	for i, rgb := range entries {
		c, _ := colorful.MakeColor(rgb.RGBA())
		l, _, _ := c.Lab()
		views = append(views, paletteEntryView{
			Index:     i,
			Hex:       c.Hex(),
			R:         rgb.R,
			G:         rgb.G,
			B:         rgb.B,
			Lightness: l * 100,
			Reserved:  i == palette.TransparentIndex,
		})
	}
	return views
}

func swatch(e paletteEntryView, colorize bool) string {
	if !colorize {
		return ""
	}
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm   \x1b[0m", e.R, e.G, e.B)
}
