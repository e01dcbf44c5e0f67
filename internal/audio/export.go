package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"spritebridge/internal/config"
	"spritebridge/internal/deps"
	"spritebridge/internal/logging"
	"spritebridge/internal/naming"
	"spritebridge/internal/services"
)

const component = "audio"

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Options tunes a music export.
type Options struct {
	FFmpeg    string
	FFprobe   string
	OutputDir string
	Quality   int
	TrimStart float64
	TrimEnd   float64
	Executor  Executor
	Logger    *slog.Logger
}

// OptionsFromConfig maps the [audio] config section onto Options.
func OptionsFromConfig(cfg config.Audio) Options {
	return Options{
		FFmpeg:    cfg.FFmpegBinary,
		FFprobe:   deps.ResolveFFprobe(cfg.FFmpegBinary, cfg.FFprobeBinary),
		OutputDir: cfg.OutputDir,
		Quality:   cfg.Quality,
		TrimStart: cfg.TrimStartSeconds,
		TrimEnd:   cfg.TrimEndSeconds,
	}
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.FFmpeg) == "" {
		o.FFmpeg = "ffmpeg"
	}
	if strings.TrimSpace(o.FFprobe) == "" {
		o.FFprobe = "ffprobe"
	}
	if strings.TrimSpace(o.OutputDir) == "" {
		o.OutputDir = "GameMusic"
	}
	if o.Quality <= 0 {
		o.Quality = 5
	}
	if o.Executor == nil {
		o.Executor = services.CommandExecutor{}
	}
	o.Logger = logging.NewComponentLogger(o.Logger, component)
	return o
}

// Track is one converted music file.
type Track struct {
	Source   string        `json:"source"`
	Output   string        `json:"output"`
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ns"`
}

// FindMusicDir returns projectDir/music or projectDir/Music.
func FindMusicDir(projectDir string) (string, error) {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return "", services.Wrap(services.ErrIO, component, "find music", projectDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() && (entry.Name() == "music" || entry.Name() == "Music") {
			return filepath.Join(projectDir, entry.Name()), nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, component, "find music", projectDir+": no music folder", nil)
}

// ExportGameMusic converts every .wav in the project's music folder. It stops
// at the first failing track.
func ExportGameMusic(ctx context.Context, projectDir string, opts Options) ([]Track, error) {
	opts = opts.withDefaults()
	musicDir, err := FindMusicDir(projectDir)
	if err != nil {
		return nil, err
	}
	outDir := opts.OutputDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(musicDir, outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrIO, component, "export", outDir, err)
	}

	sources, err := listWAVs(musicDir)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		opts.Logger.Info("no wav files found", logging.String("dir", musicDir))
		return nil, nil
	}

	tracks := make([]Track, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return tracks, err
		}
		track, err := convert(ctx, src, outDir, opts)
		if err != nil {
			return tracks, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func listWAVs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, component, "list", dir, err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func convert(ctx context.Context, src, outDir string, opts Options) (Track, error) {
	name := naming.MusicName(filepath.Base(src))
	target := filepath.Join(outDir, name)
	ctx = services.WithSource(services.WithResource(ctx, strings.TrimSuffix(name, ".ogg")), src)
	logger := logging.WithContext(ctx, opts.Logger)

	duration, err := probeDuration(ctx, src, opts)
	if err != nil {
		return Track{}, err
	}
	end := duration - opts.TrimEnd
	if end <= opts.TrimStart {
		return Track{}, services.Wrap(services.ErrInput, component, "trim",
			fmt.Sprintf("%s is too short to trim %.3fs from start and %.3fs from end", src, opts.TrimStart, opts.TrimEnd), nil)
	}

	partial := target + ".partial"
	args := []string{
		"-y", "-v", "error",
		"-i", src,
		"-af", trimFilter(opts.TrimStart, end),
		"-c:a", "libvorbis",
		"-q:a", strconv.Itoa(opts.Quality),
		"-f", "ogg",
		partial,
	}
	var lastLine string
	if err := opts.Executor.Run(ctx, opts.FFmpeg, args, func(line string) {
		if strings.TrimSpace(line) != "" {
			lastLine = line
		}
	}); err != nil {
		_ = os.Remove(partial)
		msg := src
		if lastLine != "" {
			msg = src + ": " + lastLine
		}
		return Track{}, services.Wrap(services.ErrExternalTool, component, "encode", msg, err)
	}
	if err := os.Rename(partial, target); err != nil {
		_ = os.Remove(partial)
		return Track{}, services.Wrap(services.ErrIO, component, "encode", target, err)
	}

	trimmed := time.Duration((end - opts.TrimStart) * float64(time.Second))
	logger.Info("music exported",
		logging.String(logging.FieldEventType, "music_exported"),
		logging.String("output", target),
		logging.Duration("duration", trimmed),
	)
	return Track{Source: src, Output: target, Name: name, Duration: trimmed}, nil
}

// trimFilter keeps [start, end) seconds and rebases timestamps to zero.
func trimFilter(start, end float64) string {
	return fmt.Sprintf("atrim=start=%s:end=%s,asetpts=PTS-STARTPTS",
		strconv.FormatFloat(start, 'f', -1, 64), strconv.FormatFloat(end, 'f', -1, 64))
}

func probeDuration(ctx context.Context, src string, opts Options) (float64, error) {
	args := []string{"-v", "error", "-show_entries", "format=duration", "-of", "csv=p=0", src}
	var out []string
	if err := opts.Executor.Run(ctx, opts.FFprobe, args, func(line string) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, component, "probe", src, err)
	}
	for _, line := range out {
		if v, err := strconv.ParseFloat(line, 64); err == nil {
			return v, nil
		}
	}
	return 0, services.Wrap(services.ErrExternalTool, component, "probe", fmt.Sprintf("%s: no duration in %q", src, strings.Join(out, " ")), nil)
}
