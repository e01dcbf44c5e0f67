package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"spritebridge/internal/config"
	"spritebridge/internal/logging"
	"spritebridge/internal/pipeline"
	"spritebridge/internal/services"
	"spritebridge/internal/staging"
)

const (
	component     = "watcher"
	sourceExt     = ".aseprite"
	queueCapacity = 64
)

// ErrAlreadyRunning is returned when another watcher holds the lock.
var ErrAlreadyRunning = errors.New("another spritebridge watcher is already running for this directory")

// Processor handles one settled .aseprite path; *pipeline.Runner satisfies it.
type Processor interface {
	ProcessFile(ctx context.Context, asePath string) ([]pipeline.Outcome, error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithProcessedHook registers fn to run after every processed path.
func WithProcessedHook(fn func(path string, outcomes []pipeline.Outcome, err error)) Option {
	return func(w *Watcher) {
		w.onProcessed = fn
	}
}

// Watcher coordinates file events, debouncing, and sequential processing.
type Watcher struct {
	cfg       *config.Config
	proc      Processor
	logger    *slog.Logger
	dir       string
	debounce  time.Duration
	lockPath  string
	lock      *flock.Flock
	running   atomic.Bool
	processed atomic.Int64

	onProcessed func(path string, outcomes []pipeline.Outcome, err error)

	mu      sync.Mutex
	pending map[string]*pendingSave
	queue   chan string
}

// pendingSave is the debounce timer for one path. gen changes whenever the
// timer is replaced, so a callback that already fired can tell it is stale.
type pendingSave struct {
	timer *time.Timer
	gen   uint64
}

// New constructs a watcher over cfg.Paths.WatchDir.
func New(cfg *config.Config, proc Processor, opts ...Option) (*Watcher, error) {
	if cfg == nil || proc == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "new watcher", "config and processor are required", nil)
	}
	dir, err := filepath.Abs(cfg.Paths.WatchDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "new watcher", cfg.Paths.WatchDir, err)
	}
	lockPath := cfg.WatchLockPath(dir)
	w := &Watcher{
		cfg:      cfg,
		proc:     proc,
		logger:   logging.NewNop(),
		dir:      dir,
		debounce: time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		pending:  make(map[string]*pendingSave),
		queue:    make(chan string, queueCapacity),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.NewComponentLogger(w.logger, component)
	return w, nil
}

// Dir returns the absolute directory being watched.
func (w *Watcher) Dir() string { return w.dir }

// LockPath returns the single-instance lock file.
func (w *Watcher) LockPath() string { return w.lockPath }

// Processed returns the number of paths handed to the processor so far.
func (w *Watcher) Processed() int64 { return w.processed.Load() }

// Run acquires the lock, performs start-up maintenance, and processes events
// until ctx is cancelled. It returns nil on a clean shutdown.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return services.Wrap(services.ErrConfiguration, component, "run", "watcher already running", nil)
	}
	defer w.running.Store(false)

	info, err := os.Stat(w.dir)
	if err != nil {
		return services.Wrap(services.ErrIO, component, "run", w.dir, err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrInput, component, "run", w.dir+" is not a directory", nil)
	}

	if err := os.MkdirAll(filepath.Dir(w.lockPath), 0o755); err != nil {
		return services.Wrap(services.ErrIO, component, "run", "lock directory", err)
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrIO, component, "run", "acquire lock", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("failed to release watcher lock", logging.Error(err))
		}
	}()

	runID := uuid.NewString()
	ctx = services.WithRequestID(ctx, runID)
	logger := logging.WithContext(ctx, w.logger)

	w.startupMaintenance(ctx, logger)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrIO, component, "run", "create fsnotify watcher", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.dir); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx, logger)
	}()

	logger.Info("watching for aseprite saves",
		logging.String(logging.FieldEventType, "watch_started"),
		logging.String("dir", w.dir),
		logging.String("lock", w.lockPath),
		logging.Duration("debounce", w.debounce),
		logging.Bool("project_mode", w.cfg.ProjectMode()),
	)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			wg.Wait()
			logger.Info("watcher stopped", logging.String(logging.FieldEventType, "watch_stopped"), logging.Int64("processed", w.processed.Load()))
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				w.stopTimers()
				wg.Wait()
				return nil
			}
			w.handleEvent(ctx, fsw, event, logger)
		case werr, ok := <-fsw.Errors:
			if !ok {
				continue
			}
			logging.WarnWithContext(logger, "file watch error", "watch_error",
				logging.Error(werr),
				logging.String(logging.FieldErrorHint, "raise fs.inotify.max_user_watches if the tree is large"),
				logging.String(logging.FieldImpact, "some saves may be missed until the next write"),
			)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event, logger *slog.Logger) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, event.Name); err != nil {
				logger.Warn("cannot watch new directory", logging.String("dir", event.Name), logging.Error(err))
			}
			return
		}
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !IsSource(event.Name) {
		return
	}
	w.schedule(ctx, event.Name)
}

// IsSource reports whether path names an .aseprite file.
func IsSource(path string) bool {
	return strings.EqualFold(filepath.Ext(path), sourceExt) && !strings.HasPrefix(filepath.Base(path), ".")
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scheduleLocked(ctx, path)
}

func (w *Watcher) scheduleLocked(ctx context.Context, path string) {
	p, ok := w.pending[path]
	if ok && p.timer.Stop() {
		p.timer.Reset(w.debounce)
		return
	}
	if !ok {
		p = &pendingSave{}
		w.pending[path] = p
	}
	// The previous timer, if any, has fired; its callback sees a new gen and
	// leaves the path to this one.
	p.gen++
	gen := p.gen
	p.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		cur, ok := w.pending[path]
		if !ok || cur.gen != gen {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.queue <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) worker(ctx context.Context, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			if _, err := os.Stat(path); err != nil {
				logger.Debug("saved file vanished before processing", logging.String(logging.FieldSource, path))
				continue
			}
			w.process(ctx, path, logger)
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string, logger *slog.Logger) {
	start := time.Now()
	logger.Info("processing", logging.String(logging.FieldSource, path))
	outcomes, err := w.proc.ProcessFile(ctx, path)
	w.processed.Add(1)
	if err != nil {
		logging.ErrorWithContext(logger, "processing failed", "process_failed",
			logging.String(logging.FieldSource, path),
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the file and save again"),
		)
	}
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		logger.Info("output ready",
			logging.String(logging.FieldEventType, "output_ready"),
			logging.String(logging.FieldSource, path),
			logging.String(logging.FieldResource, o.Resource),
			logging.String("output", o.Output),
			logging.Int("frames", o.Frames),
		)
	}
	logger.Debug("processing finished", logging.String(logging.FieldSource, path), logging.Duration("elapsed", time.Since(start)))
	if w.onProcessed != nil {
		w.onProcessed(path, outcomes, err)
	}
}

// addTree watches root and every non-hidden directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return services.Wrap(services.ErrIO, component, "watch", path, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return services.Wrap(services.ErrIO, component, "watch", path, err)
		}
		return nil
	})
}

func (w *Watcher) startupMaintenance(ctx context.Context, logger *slog.Logger) {
	logging.CleanupOldLogs(logger, w.cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     w.cfg.Paths.LogDir,
		Pattern: "*.log",
		Exclude: []string{filepath.Join(w.cfg.Paths.LogDir, logging.LogFileName)},
	})

	if !w.cfg.ProjectMode() {
		return
	}
	spritesDir := w.cfg.SpritesDir()
	maxAge := time.Duration(w.cfg.Watch.StagingMaxAgeHours) * time.Hour
	result := staging.CleanStale(ctx, spritesDir, maxAge, logger)
	if n := len(result.Removed); n > 0 {
		logger.Info("leftover staging removed", logging.Int("removed", n), logging.String("sprites_dir", spritesDir))
	}
}
