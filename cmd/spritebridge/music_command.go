package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spritebridge/internal/audio"
	"spritebridge/internal/config"
	"spritebridge/internal/history"
	"spritebridge/internal/logging"
)

func newMusicCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "music [project-dir]",
		Short: "Convert the project's music/*.wav files to trimmed Ogg Vorbis",
		Long: `Convert every .wav in the project's music (or Music) folder into
GameMusic/snd<Name>.ogg with ffmpeg, trimming the silence tracker exports
leave at the start and end of each file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			projectDir := ""
			if cfg.Project.YYP != "" {
				projectDir = filepath.Dir(cfg.Project.YYP)
			}
			if len(args) == 1 {
				if projectDir, err = config.ExpandPath(args[0]); err != nil {
					return err
				}
			}
			if strings.TrimSpace(projectDir) == "" {
				return errors.New("no project directory given (pass one or set [project] yyp)")
			}

			opts := audio.OptionsFromConfig(cfg.Audio)
			opts.Logger = logger
			tracks, exportErr := audio.ExportGameMusic(commandContextOf(cmd), projectDir, opts)

			if cfg.History.Enabled && len(tracks) > 0 {
				if err := ctx.withHistory(func(store *history.Store) error {
					for _, t := range tracks {
						if _, err := store.Record(commandContextOf(cmd), history.Entry{
							Source:   t.Source,
							Resource: strings.TrimSuffix(t.Name, filepath.Ext(t.Name)),
							Mode:     history.ModeMusic,
							Output:   t.Output,
							Status:   history.StatusExported,
						}); err != nil {
							return err
						}
					}
					return nil
				}); err != nil {
					logger.Warn("music history not recorded", logging.Error(err))
				}
			}

			if ctx.JSONMode() {
				if tracks == nil {
					tracks = []audio.Track{}
				}
				if err := writeJSON(cmd, tracks); err != nil {
					return err
				}
				return exportErr
			}
			out := cmd.OutOrStdout()
			if len(tracks) == 0 && exportErr == nil {
				fmt.Fprintln(out, "No .wav files to convert")
				return nil
			}
			rows := make([][]string, 0, len(tracks))
			for _, t := range tracks {
				rows = append(rows, []string{filepath.Base(t.Source), t.Name, t.Duration.Round(time.Millisecond).String()})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"Source", "Output", "Length"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
			}
			return exportErr
		},
	}
	return cmd
}
