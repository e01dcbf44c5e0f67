package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spritebridge/internal/animenc"
	"spritebridge/internal/config"
	"spritebridge/internal/frames"
	"spritebridge/internal/history"
	"spritebridge/internal/importer"
	"spritebridge/internal/logging"
	"spritebridge/internal/naming"
	"spritebridge/internal/services"
	"spritebridge/internal/services/aseprite"
)

const component = "pipeline"

// Recorder persists outcomes; *history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) (history.Entry, error)
}

// Outcome describes what happened to one exported tag.
type Outcome struct {
	Source   string           `json:"source"`
	Tag      string           `json:"tag,omitempty"`
	Resource string           `json:"resource"`
	Mode     string           `json:"mode"`
	Output   string           `json:"output,omitempty"`
	Frames   int              `json:"frames"`
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Stats    *animenc.Stats   `json:"stats,omitempty"`
	Import   *importer.Result `json:"import,omitempty"`
	Duration time.Duration    `json:"duration_ns"`
	Err      error            `json:"-"`
}

// ErrorText returns the failure text, or "" when the tag succeeded.
func (o Outcome) ErrorText() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorder attaches a history recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithImporter replaces the default importer.
func WithImporter(imp *importer.Importer) Option {
	return func(r *Runner) {
		if imp != nil {
			r.importer = imp
		}
	}
}

// WithClock overrides the time source used for durations.
func WithClock(fn func() time.Time) Option {
	return func(r *Runner) {
		if fn != nil {
			r.now = fn
		}
	}
}

// Runner processes .aseprite files according to cfg.
type Runner struct {
	cfg      *config.Config
	exporter aseprite.Exporter
	importer *importer.Importer
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a Runner. exporter is usually an *aseprite.Client.
func New(cfg *config.Config, exporter aseprite.Exporter, opts ...Option) (*Runner, error) {
	if cfg == nil || exporter == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "new runner", "config and exporter are required", nil)
	}
	r := &Runner{
		cfg:      cfg,
		exporter: exporter,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, component)
	if r.importer == nil {
		r.importer = importer.New(importer.WithLogger(r.logger))
	}
	return r, nil
}

// ProcessFile exports every tag of asePath and produces one output per tag.
// A failing tag does not stop the others; the joined error reports every
// failure.
func (r *Runner) ProcessFile(ctx context.Context, asePath string) ([]Outcome, error) {
	asePath = filepath.Clean(asePath)
	ctx = services.WithSource(ctx, asePath)
	logger := logging.WithContext(ctx, r.logger)

	outDir := filepath.Dir(asePath)
	if r.cfg.ProjectMode() {
		if err := os.MkdirAll(r.cfg.Paths.StateDir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrIO, component, "process", r.cfg.Paths.StateDir, err)
		}
		tmp, err := os.MkdirTemp(r.cfg.Paths.StateDir, "export-")
		if err != nil {
			return nil, services.Wrap(services.ErrIO, component, "process", "create export dir", err)
		}
		defer func() {
			if err := os.RemoveAll(tmp); err != nil {
				logger.Debug("export dir cleanup failed", logging.String("path", tmp), logging.Error(err))
			}
		}()
		outDir = tmp
	}

	start := r.now()
	sheets, err := r.exporter.Export(ctx, asePath, outDir)
	if err != nil {
		failed := Outcome{
			Source:   asePath,
			Resource: naming.SpriteName(asePath, ""),
			Mode:     r.mode(),
			Duration: r.now().Sub(start),
			Err:      err,
		}
		r.record(ctx, failed)
		return []Outcome{failed}, err
	}

	outcomes := make([]Outcome, 0, len(sheets))
	var errs []error
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		outcome := r.ProcessSheet(ctx, asePath, sheet)
		r.record(ctx, outcome)
		if outcome.Err != nil {
			errs = append(errs, outcome.Err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, errors.Join(errs...)
}

// ProcessSheet splits one exported sheet and writes or imports its frames.
// The returned Outcome carries any error in Err.
func (r *Runner) ProcessSheet(ctx context.Context, asePath string, sheet aseprite.SheetInfo) (outcome Outcome) {
	start := r.now()
	outcome = Outcome{
		Source: asePath,
		Tag:    sheet.TagName,
		Mode:   r.mode(),
		Frames: sheet.FrameCount,
		Width:  sheet.Width,
		Height: sheet.Height,
	}
	defer func() {
		outcome.Duration = r.now().Sub(start)
	}()

	img, err := frames.LoadSheet(sheet.Path)
	if err != nil {
		outcome.Resource = r.resourceName(asePath, sheet)
		outcome.Err = err
		return outcome
	}
	split, err := frames.Split(img, sheet.Width, sheet.Height, sheet.FrameCount)
	if err != nil {
		outcome.Resource = r.resourceName(asePath, sheet)
		outcome.Err = err
		return outcome
	}
	outcome.Frames = len(split)

	if r.cfg.ProjectMode() {
		r.importSheet(ctx, asePath, sheet, split, &outcome)
	} else {
		r.writeStandalone(ctx, sheet, split, &outcome)
	}
	return outcome
}

func (r *Runner) resourceName(asePath string, sheet aseprite.SheetInfo) string {
	if r.cfg.ProjectMode() {
		return naming.SpriteName(asePath, sheet.TagName)
	}
	return strings.TrimSuffix(filepath.Base(sheet.Path), filepath.Ext(sheet.Path))
}

func (r *Runner) importSheet(ctx context.Context, asePath string, sheet aseprite.SheetInfo, split []*image.NRGBA, outcome *Outcome) {
	name := naming.SpriteName(asePath, sheet.TagName)
	outcome.Resource = name
	if !naming.ValidResourceName(name) {
		outcome.Err = services.Wrap(services.ErrInput, component, "import", fmt.Sprintf("%q is not a valid resource name", name), nil)
		return
	}
	ctx = services.WithResource(ctx, name)

	unlock, err := LockProject(ctx, r.cfg.Project.YYP)
	if err != nil {
		outcome.Err = err
		return
	}
	defer func() {
		if err := unlock(); err != nil {
			logging.WithContext(ctx, r.logger).Warn("project unlock failed", logging.Error(err))
		}
	}()

	res, err := r.importer.Import(ctx, importer.Request{
		ProjectPath: r.cfg.Project.YYP,
		Name:        name,
		Frames:      split,
		FolderPath:  naming.FolderPath(r.cfg.Paths.WatchDir, asePath, r.cfg.Project.FolderRoot),
		Width:       sheet.Width,
		Height:      sheet.Height,
	})
	if err != nil {
		outcome.Err = err
		return
	}
	outcome.Import = res
	outcome.Output = res.ResourceDir
}

func (r *Runner) writeStandalone(ctx context.Context, sheet aseprite.SheetInfo, split []*image.NRGBA, outcome *Outcome) {
	logger := logging.WithContext(ctx, r.logger)
	base := strings.TrimSuffix(sheet.Path, filepath.Ext(sheet.Path))
	outcome.Resource = filepath.Base(base)

	format, err := animenc.ParseSingleFrameFormat(r.cfg.Encode.SingleFrameFormat)
	if err != nil {
		outcome.Err = services.Wrap(services.ErrConfiguration, component, "encode", "single_frame_format", err)
		return
	}
	opts := animenc.Options{Delay: r.cfg.Encode.FrameDelayCS, SingleFrame: format}
	scaled := frames.Scale(split, r.cfg.Encode.Scale)

	target, stats, err := animenc.WriteFile(base, scaled, opts)
	if err != nil {
		outcome.Err = err
		return
	}
	outcome.Output = target
	outcome.Stats = &stats

	if !samePath(sheet.Path, target) {
		if err := animenc.RemoveIfExists(sheet.Path); err != nil {
			logging.WarnWithContext(logger, "temporary sheet not removed", "sheet_cleanup_failed",
				logging.String("path", sheet.Path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "an extra PNG remains next to the source"),
			)
		}
	}
	for _, stale := range []animenc.Format{animenc.FormatGIF, animenc.FormatPNG, animenc.FormatWebP} {
		path := base + stale.Ext()
		if samePath(path, target) || samePath(path, sheet.Path) {
			continue
		}
		if err := animenc.RemoveIfExists(path); err != nil {
			logger.Debug("stale output not removed", logging.String("path", path), logging.Error(err))
		}
	}

	logger.Info("animation written",
		logging.String(logging.FieldEventType, "animation_written"),
		logging.String("output", target),
		logging.Int("frames", stats.Frames),
		logging.Int("palette_size", stats.PaletteSize),
		logging.Int("dropped_colors", stats.DroppedColors),
	)
}

func (r *Runner) record(ctx context.Context, outcome Outcome) {
	if r.recorder == nil {
		return
	}
	entry := history.Entry{
		Source:   outcome.Source,
		Resource: outcome.Resource,
		Mode:     outcome.Mode,
		Output:   outcome.Output,
		Frames:   outcome.Frames,
		Width:    outcome.Width,
		Height:   outcome.Height,
		Duration: outcome.Duration,
	}
	switch {
	case outcome.Err != nil:
		entry.Status = history.StatusFailed
		entry.Error = outcome.Err.Error()
	case outcome.Import != nil:
		entry.Status = history.StatusImported
		entry.BBox = outcome.Import.BBox.String()
	default:
		entry.Status = history.StatusExported
	}
	if _, err := r.recorder.Record(ctx, entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "history record failed", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is missing from spritebridge history"),
		)
	}
}

func (r *Runner) mode() string {
	if r.cfg.ProjectMode() {
		return history.ModeProject
	}
	return history.ModeStandalone
}

func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, errA := os.Stat(a)
	bi, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(ai, bi)
}
