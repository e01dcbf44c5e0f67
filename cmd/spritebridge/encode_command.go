package main

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"spritebridge/internal/animenc"
	"spritebridge/internal/config"
	"spritebridge/internal/frames"
)

type encodeView struct {
	Sheet  string        `json:"sheet"`
	Output string        `json:"output"`
	Format string        `json:"format"`
	Frames int           `json:"frames"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Stats  animenc.Stats `json:"stats"`
}

type sheetFlags struct {
	frameWidth  int
	frameHeight int
	count       int
}

func (f *sheetFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.frameWidth, "frame-width", "W", 0, "Frame width in pixels (default: sheet height)")
	cmd.Flags().IntVarP(&f.frameHeight, "frame-height", "H", 0, "Frame height in pixels (default: sheet height)")
	cmd.Flags().IntVarP(&f.count, "frames", "n", 0, "Number of frames to read (default: every full cell)")
}

// load decodes the sheet and cuts it into frames, row-major.
func (f *sheetFlags) load(path string) (*frameSet, error) {
	sheet, err := frames.LoadSheet(path)
	if err != nil {
		return nil, err
	}
	b := sheet.Bounds()
	fh := f.frameHeight
	if fh <= 0 {
		fh = b.Dy()
	}
	fw := f.frameWidth
	if fw <= 0 {
		fw = fh
	}
	count := f.count
	if count <= 0 {
		count = (b.Dx() / max(fw, 1)) * (b.Dy() / max(fh, 1))
	}
	split, err := frames.Split(sheet, fw, fh, count)
	if err != nil {
		return nil, err
	}
	return &frameSet{path: path, frames: split, width: fw, height: fh}, nil
}

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var sheet sheetFlags
	var outBase string
	var delay int
	var scale int
	var format string

	cmd := &cobra.Command{
		Use:   "encode <sheet.png>",
		Short: "Encode a sprite sheet into a looping GIF or single-frame PNG/WebP",
		Long: `Split a sprite sheet into equally sized frames and encode them without
running Aseprite. Multiple frames produce an infinitely looping GIF with a
shared palette of at most 256 colors; a single frame is written as a
full-color PNG, or WebP with --format webp.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			set, err := sheet.load(src)
			if err != nil {
				return err
			}

			opts, err := encodeOptions(cfg, delay, format)
			if err != nil {
				return err
			}
			if scale <= 0 {
				scale = cfg.Encode.Scale
			}
			scaled := frames.Scale(set.frames, scale)

			base := strings.TrimSpace(outBase)
			if base == "" {
				base = strings.TrimSuffix(src, filepath.Ext(src))
			} else if base, err = config.ExpandPath(base); err != nil {
				return err
			}
			base = strings.TrimSuffix(base, filepath.Ext(base))
			if base+animenc.ChooseFormat(len(scaled), opts).Ext() == src {
				return errors.New("output would overwrite the source sheet; pass --out")
			}

			output, stats, err := animenc.WriteFile(base, scaled, opts)
			if err != nil {
				return err
			}
			view := encodeView{
				Sheet:  src,
				Output: output,
				Format: string(animenc.ChooseFormat(len(scaled), opts)),
				Frames: len(scaled),
				Width:  set.width * max(scale, 1),
				Height: set.height * max(scale, 1),
				Stats:  stats,
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s (%d frames, %dx%d)\n", view.Output, view.Frames, view.Width, view.Height)
			if view.Format == string(animenc.FormatGIF) {
				fmt.Fprintf(out, "Palette: %d entries from %d unique colors", stats.PaletteSize, stats.UniqueColors)
				if stats.DroppedColors > 0 {
					fmt.Fprintf(out, ", %d dropped, %d remapped to nearest", stats.DroppedColors, stats.RemappedColors)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	sheet.register(cmd)
	cmd.Flags().StringVarP(&outBase, "out", "o", "", "Output path without extension (default: next to the sheet)")
	cmd.Flags().IntVar(&delay, "delay", 0, "Frame delay in hundredths of a second (default: [encode] frame_delay_cs)")
	cmd.Flags().IntVar(&scale, "scale", 0, "Integer upscale factor (default: [encode] scale)")
	cmd.Flags().StringVar(&format, "format", "", "Single-frame format: png or webp (default: [encode] single_frame_format)")
	return cmd
}

type frameSet struct {
	path   string
	frames []*image.NRGBA
	width  int
	height int
}

func encodeOptions(cfg *config.Config, delay int, format string) (animenc.Options, error) {
	if delay <= 0 {
		delay = cfg.Encode.FrameDelayCS
	}
	if strings.TrimSpace(format) == "" {
		format = cfg.Encode.SingleFrameFormat
	}
	single, err := animenc.ParseSingleFrameFormat(format)
	if err != nil {
		return animenc.Options{}, err
	}
	return animenc.Options{Delay: delay, SingleFrame: single}, nil
}
