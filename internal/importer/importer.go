// Package importer writes an animation into a GameMaker project as a sprite
// resource and registers it in the project descriptor.
//
// An import never edits the live resource directory. Frames, layer copies,
// and the .yy are written to a staging directory beside it and the updated
// descriptor to a temp file beside the .yyp; commit then swaps the
// directories and renames the descriptor into place. A failure before the
// descriptor rename restores the previous resource, so the project is left as
// it was.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"spritebridge/internal/bbox"
	"spritebridge/internal/fileutil"
	"spritebridge/internal/frames"
	"spritebridge/internal/logging"
	"spritebridge/internal/services"
	"spritebridge/internal/staging"
	"spritebridge/internal/yyp"
)

const component = "importer"

// Request describes one sprite import. ProjectPath is the .yyp file, Name the
// sprite resource name ("sHeroIdle"), and FolderPath the IDE folder chain
// ("Sprites/Characters").
type Request struct {
	ProjectPath string
	Name        string
	Frames      []*image.NRGBA
	FolderPath  string
	Width       int
	Height      int
}

// Result summarizes a committed import.
type Result struct {
	Name           string    `json:"name"`
	ResourceDir    string    `json:"resource_dir"`
	DescriptorPath string    `json:"descriptor_path"`
	FrameIDs       []string  `json:"frame_ids"`
	LayerID        string    `json:"layer_id"`
	BBox           bbox.Box  `json:"bbox"`
	EmptyFrames    bool      `json:"empty_frames"`
	OverridesKept  bool      `json:"overrides_kept"`
	Replaced       bool      `json:"replaced"`
	FoldersAdded   int       `json:"folders_added"`
	ImportedAt     time.Time `json:"imported_at"`
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger used for import progress.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithIDGenerator replaces the frame, layer, and staging id source.
func WithIDGenerator(fn func() string) Option {
	return func(i *Importer) {
		if fn != nil {
			i.newID = fn
		}
	}
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(i *Importer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// Importer writes sprite resources into projects. It does not lock; callers
// serialize imports that target the same project.
type Importer struct {
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
	// rename performs every commit-phase move.
	rename func(oldpath, newpath string) error
}

// New builds an Importer.
func New(opts ...Option) *Importer {
	i := &Importer{
		logger: logging.NewNop(),
		newID:  uuid.NewString,
		now:    time.Now,
		rename: os.Rename,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.NewComponentLogger(i.logger, component)
	return i
}

func (r Request) validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" || name != r.Name || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return services.Wrap(services.ErrInput, component, "validate", fmt.Sprintf("invalid resource name %q", r.Name), nil)
	}
	if strings.TrimSpace(r.ProjectPath) == "" {
		return services.Wrap(services.ErrInput, component, "validate", "project path is required", nil)
	}
	if len(yyp.SplitFolderPath(r.FolderPath)) == 0 {
		return services.Wrap(services.ErrInput, component, "validate", fmt.Sprintf("%s: folder path is required", r.Name), nil)
	}
	return frames.Validate(r.Frames, r.Width, r.Height)
}

// Import writes req as a sprite resource and registers it in the project.
func (i *Importer) Import(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	ctx = services.WithResource(ctx, req.Name)
	logger := logging.WithContext(ctx, i.logger)

	projectDir := filepath.Dir(req.ProjectPath)
	if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		return nil, services.Wrap(services.ErrIO, component, "import", fmt.Sprintf("%s: project directory %s", req.Name, projectDir), err)
	}

	doc, err := yyp.Load(req.ProjectPath)
	if err != nil {
		return nil, err
	}

	spritesDir := filepath.Join(projectDir, "sprites")
	resourceDir := filepath.Join(spritesDir, req.Name)
	descriptorName := req.Name + ".yy"

	overrides, keep := ReadOverrides(filepath.Join(resourceDir, descriptorName), req.Width, req.Height)
	_, statErr := os.Stat(resourceDir)
	replacing := statErr == nil

	if err := os.MkdirAll(spritesDir, 0o755); err != nil {
		return nil, ioErr(req, "create sprites directory", err)
	}

	txID := i.newID()
	stageDir := staging.StageDir(spritesDir, txID)
	if err := os.Mkdir(stageDir, 0o755); err != nil {
		return nil, ioErr(req, "create staging directory", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(stageDir)
		}
	}()

	frameIDs := make([]string, len(req.Frames))
	keyIDs := make([]string, len(req.Frames))
	for n := range req.Frames {
		frameIDs[n] = i.newID()
		keyIDs[n] = i.newID()
	}
	layerID := i.newID()

	if err := writeFrames(stageDir, req.Frames, frameIDs, layerID); err != nil {
		return nil, ioErr(req, "write frames", err)
	}

	box, occupied := bbox.ComputeOrFull(req.Frames, req.Width, req.Height)

	parts := yyp.SplitFolderPath(req.FolderPath)
	folderPath := strings.Join(parts, "/")
	sprite := newSprite(spriteSpec{
		name:     req.Name,
		width:    req.Width,
		height:   req.Height,
		frameIDs: frameIDs,
		layerID:  layerID,
		keyIDs:   keyIDs,
		parent:   ResourceRef{Name: parts[len(parts)-1], Path: yyp.FolderFile(folderPath)},
		box:      box,
	})
	if keep {
		overrides.Apply(&sprite)
		box = overrides.BBox
	}

	descriptor, err := encodeDescriptor(sprite)
	if err != nil {
		return nil, services.Wrap(services.ErrDocument, component, "encode sprite", req.Name, err)
	}
	if err := os.WriteFile(filepath.Join(stageDir, descriptorName), descriptor, 0o644); err != nil {
		return nil, ioErr(req, "write sprite descriptor", err)
	}

	added, err := doc.EnsureFolderChain(folderPath)
	if err != nil {
		return nil, err
	}
	if err := doc.UpsertResource(req.Name, yyp.ResourcePath(req.Name)); err != nil {
		return nil, err
	}
	docTemp, err := writeDocumentTemp(doc)
	if err != nil {
		return nil, ioErr(req, "stage project descriptor", err)
	}
	defer func() {
		if !committed {
			_ = os.Remove(docTemp)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	asideDir := ""
	if replacing {
		asideDir = staging.AsideDir(spritesDir, txID)
		if err := i.rename(resourceDir, asideDir); err != nil {
			return nil, ioErr(req, "move previous resource aside", err)
		}
	}
	restore := func() {
		if asideDir == "" {
			return
		}
		if err := i.rename(asideDir, resourceDir); err != nil {
			logger.Error("failed to restore previous resource",
				logging.String("path", asideDir),
				logging.Error(err),
				logging.String(logging.FieldEventType, "import_restore_failed"),
				logging.String(logging.FieldErrorHint, "rename the directory back to the resource name"),
			)
		}
	}
	if err := i.rename(stageDir, resourceDir); err != nil {
		restore()
		return nil, ioErr(req, "commit resource directory", err)
	}
	if err := i.rename(docTemp, req.ProjectPath); err != nil {
		_ = i.rename(resourceDir, stageDir)
		restore()
		return nil, ioErr(req, "commit project descriptor", err)
	}
	committed = true

	if asideDir != "" {
		if err := os.RemoveAll(asideDir); err != nil {
			logger.Warn("failed to remove previous resource",
				logging.String("path", asideDir),
				logging.Error(err),
				logging.String(logging.FieldEventType, "import_cleanup_failed"),
				logging.String(logging.FieldImpact, "stale copy remains until cleanup runs"),
			)
		}
	}

	logger.Info("sprite imported",
		logging.String("project", req.ProjectPath),
		logging.String("folder", folderPath),
		logging.Int("frames", len(req.Frames)),
		logging.String("bbox", box.String()),
		logging.Bool("overrides_kept", keep),
		logging.Bool("replaced", replacing),
		logging.Int("folders_added", added),
		logging.String(logging.FieldEventType, "sprite_imported"),
	)

	return &Result{
		Name:           req.Name,
		ResourceDir:    resourceDir,
		DescriptorPath: filepath.Join(resourceDir, descriptorName),
		FrameIDs:       frameIDs,
		LayerID:        layerID,
		BBox:           box,
		EmptyFrames:    !occupied,
		OverridesKept:  keep,
		Replaced:       replacing,
		FoldersAdded:   added,
		ImportedAt:     i.now(),
	}, nil
}

// writeFrames stores every frame twice: <id>.png at the resource root and
// layers/<id>/<layer>.png. Both copies come from one encode.
func writeFrames(dir string, src []*image.NRGBA, frameIDs []string, layerID string) error {
	var buf bytes.Buffer
	for n, frame := range src {
		buf.Reset()
		if err := png.Encode(&buf, frame); err != nil {
			return fmt.Errorf("encode frame %d: %w", n, err)
		}
		id := frameIDs[n]
		if err := os.WriteFile(filepath.Join(dir, id+".png"), buf.Bytes(), 0o644); err != nil {
			return err
		}
		layerDir := filepath.Join(dir, "layers", id)
		if err := os.MkdirAll(layerDir, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(layerDir, layerID+".png"), buf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeDocumentTemp(doc *yyp.Document) (string, error) {
	data, err := doc.Bytes()
	if err != nil {
		return "", err
	}
	return fileutil.WriteTemp(doc.Dir(), "."+filepath.Base(doc.Path)+"-*.tmp", data, 0o644)
}

func ioErr(req Request, op string, err error) error {
	return services.Wrap(services.ErrIO, component, op, fmt.Sprintf("%s in %s", req.Name, req.ProjectPath), err)
}

// encodeDescriptor indents like the IDE and leaves '<' and '>' unescaped, since
// keyframe store tags carry them in both keys and values.
func encodeDescriptor(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
