package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"spritebridge/internal/config"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export <file.aseprite>",
		Short: "Run the Aseprite exporter and list the sprite sheets it wrote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			src, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			dest := strings.TrimSpace(outDir)
			if dest == "" {
				dest = filepath.Dir(src)
			} else if dest, err = config.ExpandPath(dest); err != nil {
				return err
			}
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			client, err := ctx.newExporter(cfg, logger)
			if err != nil {
				return err
			}
			sheets, err := client.Export(commandContextOf(cmd), src, dest)
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, sheets)
			}
			out := cmd.OutOrStdout()
			if len(sheets) == 0 {
				fmt.Fprintln(out, "Aseprite reported no sheets")
				return nil
			}
			rows := make([][]string, 0, len(sheets))
			for _, s := range sheets {
				tag := s.TagName
				if tag == "" {
					tag = "-"
				}
				rows = append(rows, []string{
					tag,
					fmt.Sprintf("%d", s.FrameCount),
					fmt.Sprintf("%dx%d", s.Width, s.Height),
					s.Path,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Tag", "Frames", "Frame Size", "Sheet"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for the exported sheets (default: next to the source)")
	return cmd
}
