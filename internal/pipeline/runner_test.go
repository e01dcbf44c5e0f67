package pipeline_test

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spritebridge/internal/history"
	"spritebridge/internal/pipeline"
	"spritebridge/internal/services"
	"spritebridge/internal/services/aseprite"
	"spritebridge/internal/testsupport"
	"spritebridge/internal/yyp"
)

type tagSpec struct {
	tag    string
	frames int
	size   int
	broken bool
}

// fakeExporter writes one sheet per tag into outDir, mimicking the Lua script.
type fakeExporter struct {
	t       testing.TB
	tags    []tagSpec
	err     error
	outDirs []string
}

func (f *fakeExporter) Export(ctx context.Context, asePath, outDir string) ([]aseprite.SheetInfo, error) {
	f.outDirs = append(f.outDirs, outDir)
	if f.err != nil {
		return nil, f.err
	}
	base := strings.TrimSuffix(filepath.Base(asePath), filepath.Ext(asePath))
	var sheets []aseprite.SheetInfo
	for _, spec := range f.tags {
		name := base
		if spec.tag != "" {
			name += "_" + spec.tag
		}
		path := filepath.Join(outDir, name+".png")
		if spec.broken {
			if err := os.WriteFile(path, []byte("not a png"), 0o644); err != nil {
				return nil, err
			}
		} else {
			frames := testsupport.SolidFrames(spec.frames, spec.size, spec.size, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
			testsupport.WriteSheet(f.t, path, frames)
		}
		sheets = append(sheets, aseprite.SheetInfo{Path: path, Width: spec.size, Height: spec.size, FrameCount: spec.frames, TagName: spec.tag})
	}
	return sheets, nil
}

func TestStandaloneWritesGIFAndRemovesSheet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ase := filepath.Join(cfg.Paths.WatchDir, "hero.aseprite")
	testsupport.WriteFile(t, ase, 8)

	exp := &fakeExporter{t: t, tags: []tagSpec{{tag: "run", frames: 3, size: 8}}}
	runner, err := pipeline.New(cfg, exp, pipeline.WithRecorder(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	outcomes, err := runner.ProcessFile(context.Background(), ase)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	gifPath := filepath.Join(cfg.Paths.WatchDir, "hero_run.gif")
	if outcomes[0].Output != gifPath || outcomes[0].Resource != "hero_run" || outcomes[0].Stats == nil {
		t.Fatalf("unexpected outcome %+v", outcomes[0])
	}
	if _, err := os.Stat(gifPath); err != nil {
		t.Fatalf("expected gif: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.WatchDir, "hero_run.png")); !os.IsNotExist(err) {
		t.Fatalf("expected temporary sheet removed, err=%v", err)
	}
	if exp.outDirs[0] != cfg.Paths.WatchDir {
		t.Fatalf("standalone export dir = %q", exp.outDirs[0])
	}

	entry, err := store.Latest(context.Background(), "hero_run")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if entry.Status != history.StatusExported || entry.Frames != 3 || entry.Output != gifPath {
		t.Fatalf("unexpected history entry %+v", entry)
	}
}

func TestStandaloneSingleFrameKeepsSheetAsOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ase := filepath.Join(cfg.Paths.WatchDir, "flag.aseprite")
	testsupport.WriteFile(t, ase, 8)
	stalePath := filepath.Join(cfg.Paths.WatchDir, "flag.gif")
	testsupport.WriteFile(t, stalePath, 4)

	runner, err := pipeline.New(cfg, &fakeExporter{t: t, tags: []tagSpec{{frames: 1, size: 4}}})
	if err != nil {
		t.Fatal(err)
	}
	outcomes, err := runner.ProcessFile(context.Background(), ase)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	pngPath := filepath.Join(cfg.Paths.WatchDir, "flag.png")
	if outcomes[0].Output != pngPath {
		t.Fatalf("output = %q, want %q", outcomes[0].Output, pngPath)
	}
	if _, err := os.Stat(pngPath); err != nil {
		t.Fatalf("expected png kept: %v", err)
	}
	if _, err := os.Stat(stalePath); !os.IsNotExist(err) {
		t.Fatalf("expected stale gif removed, err=%v", err)
	}
}

func TestProjectModeImportsIntoNestedFolder(t *testing.T) {
	base := t.TempDir()
	project := testsupport.WriteProject(t, filepath.Join(base, "game"))
	cfg := testsupport.NewConfig(t, testsupport.WithProject(project))
	store := testsupport.MustOpenHistory(t, cfg)
	ase := filepath.Join(cfg.Paths.WatchDir, "characters", "big_slime.aseprite")
	testsupport.WriteFile(t, ase, 8)

	exp := &fakeExporter{t: t, tags: []tagSpec{{tag: "idle", frames: 2, size: 8}, {tag: "jump", frames: 4, size: 8}}}
	runner, err := pipeline.New(cfg, exp, pipeline.WithRecorder(store))
	if err != nil {
		t.Fatal(err)
	}
	outcomes, err := runner.ProcessFile(context.Background(), ase)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(outcomes) != 2 || outcomes[0].Resource != "sBigSlimeIdle" || outcomes[1].Resource != "sBigSlimeJump" {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
	if outcomes[1].Import == nil || len(outcomes[1].Import.FrameIDs) != 4 {
		t.Fatalf("expected import result with 4 frames, got %+v", outcomes[1].Import)
	}

	doc, err := yyp.Load(project)
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	if _, ok := doc.Resource("sBigSlimeJump"); !ok {
		t.Fatal("expected sBigSlimeJump registered")
	}
	var folderPaths []string
	for _, f := range doc.Folders() {
		folderPaths = append(folderPaths, f.Path)
	}
	if strings.Join(folderPaths, ",") != "folders/Sprites.yy,folders/Sprites/Characters.yy" {
		t.Fatalf("unexpected folders %v", folderPaths)
	}

	if _, err := os.Stat(exp.outDirs[0]); !os.IsNotExist(err) {
		t.Fatalf("expected temporary export dir removed, err=%v", err)
	}
	entry, err := store.Latest(context.Background(), "sBigSlimeIdle")
	if err != nil || entry.Status != history.StatusImported || entry.BBox != "(0,0,7,7)" {
		t.Fatalf("unexpected entry %+v err=%v", entry, err)
	}
}

func TestExportFailureIsRecorded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ase := filepath.Join(cfg.Paths.WatchDir, "broken.aseprite")
	testsupport.WriteFile(t, ase, 8)

	toolErr := services.Wrap(services.ErrExternalTool, "aseprite", "export", ase, errors.New("exit status 1"))
	runner, err := pipeline.New(cfg, &fakeExporter{t: t, err: toolErr}, pipeline.WithRecorder(store))
	if err != nil {
		t.Fatal(err)
	}
	outcomes, err := runner.ProcessFile(context.Background(), ase)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].ErrorText() == "" {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
	entry, err := store.Latest(context.Background(), "sBroken")
	if err != nil || entry.Status != history.StatusFailed {
		t.Fatalf("unexpected entry %+v err=%v", entry, err)
	}
}

func TestBrokenSheetDoesNotStopOtherTags(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ase := filepath.Join(cfg.Paths.WatchDir, "hero.aseprite")
	testsupport.WriteFile(t, ase, 8)

	exp := &fakeExporter{t: t, tags: []tagSpec{{tag: "bad", frames: 2, size: 4, broken: true}, {tag: "good", frames: 2, size: 4}}}
	runner, err := pipeline.New(cfg, exp)
	if err != nil {
		t.Fatal(err)
	}
	outcomes, err := runner.ProcessFile(context.Background(), ase)
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected ErrInput from broken sheet, got %v", err)
	}
	if len(outcomes) != 2 || outcomes[0].Err == nil || outcomes[1].Err != nil {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.WatchDir, "hero_good.gif")); err != nil {
		t.Fatalf("expected good tag output: %v", err)
	}
}

func TestProjectModeRejectsInvalidResourceName(t *testing.T) {
	project := testsupport.WriteProject(t, filepath.Join(t.TempDir(), "game"))
	cfg := testsupport.NewConfig(t, testsupport.WithProject(project))
	ase := filepath.Join(cfg.Paths.WatchDir, "hero.aseprite")
	testsupport.WriteFile(t, ase, 8)

	runner, err := pipeline.New(cfg, &fakeExporter{t: t, tags: []tagSpec{{tag: "attack!", frames: 1, size: 4}}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = runner.ProcessFile(context.Background(), ase)
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected ErrInput, got %v", err)
	}
}

func TestNewRequiresExporter(t *testing.T) {
	if _, err := pipeline.New(testsupport.NewConfig(t), nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
