package yyp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spritebridge/internal/services"
)

const sampleProject = `{
  "$GMProject":"",
  "%Name":"Demo",
  "AudioGroups":[],
  "configs":{"children":[],"name":"Default",},
  "Folders":[
    {"$GMFolder":"","%Name":"Sprites","folderPath":"folders/Sprites.yy","name":"Sprites","resourceType":"GMFolder","resourceVersion":"2.0",},
  ],
  "resources":[
    {"id":{"name":"sOld","path":"sprites/sOld/sOld.yy",},},
    {"id":{"name":"oPlayer","path":"objects/oPlayer/oPlayer.yy",},},
  ],
  "resourceType":"GMProject",
  "resourceVersion":"2.0",
}
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Demo.yyp")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}
	return path
}

func TestLoadToleratesTrailingCommas(t *testing.T) {
	doc, err := Load(writeProject(t, sampleProject))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(doc.Resources()); got != 2 {
		t.Fatalf("resources = %d, want 2", got)
	}
	if got := doc.Folders(); len(got) != 1 || got[0].Path != "folders/Sprites.yy" {
		t.Fatalf("folders = %+v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yyp"))
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("missing file: expected ErrIO, got %v", err)
	}
	_, err = Load(writeProject(t, `{"resources":[`))
	if !errors.Is(err, services.ErrDocument) {
		t.Fatalf("truncated: expected ErrDocument, got %v", err)
	}
	_, err = Load(writeProject(t, `[1,2,]`))
	if !errors.Is(err, services.ErrDocument) {
		t.Fatalf("array root: expected ErrDocument, got %v", err)
	}
}

func TestEnsureFolderChainIdempotent(t *testing.T) {
	doc, err := Load(writeProject(t, sampleProject))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	added, err := doc.EnsureFolderChain("Sprites/Enemies/Bosses")
	if err != nil {
		t.Fatalf("EnsureFolderChain: %v", err)
	}
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}
	added, err = doc.EnsureFolderChain("Sprites/Enemies/Bosses")
	if err != nil {
		t.Fatalf("EnsureFolderChain again: %v", err)
	}
	if added != 0 {
		t.Fatalf("second call added %d", added)
	}

	folders := doc.Folders()
	want := []FolderRef{
		{Name: "Sprites", Path: "folders/Sprites.yy"},
		{Name: "Enemies", Path: "folders/Sprites/Enemies.yy"},
		{Name: "Bosses", Path: "folders/Sprites/Enemies/Bosses.yy"},
	}
	if len(folders) != len(want) {
		t.Fatalf("folders = %+v", folders)
	}
	for i := range want {
		if folders[i] != want[i] {
			t.Fatalf("folder %d = %+v, want %+v", i, folders[i], want[i])
		}
	}
	rec := doc.Root.Get("Folders").Items()[2]
	if v, _ := rec.Get("resourceType").Text(); v != "GMFolder" {
		t.Fatalf("resourceType = %q", v)
	}
	if rec.Members()[0].Key != "$GMFolder" {
		t.Fatalf("folder record order: %+v", rec.Members())
	}
}

func TestEnsureFolderChainErrors(t *testing.T) {
	doc, err := Load(writeProject(t, `{"resources":[]}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := doc.EnsureFolderChain("Sprites"); !errors.Is(err, services.ErrDocument) {
		t.Fatalf("expected ErrDocument, got %v", err)
	}
	if _, err := doc.EnsureFolderChain(" / "); !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected ErrInput, got %v", err)
	}
}

func TestUpsertResourceReplacesByName(t *testing.T) {
	doc, err := Load(writeProject(t, sampleProject))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := doc.UpsertResource("sOld", ResourcePath("sOld")); err != nil {
			t.Fatalf("UpsertResource: %v", err)
		}
	}
	refs := doc.Resources()
	count := 0
	for _, r := range refs {
		if r.Name == "sOld" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("sOld entries = %d, want 1", count)
	}
	if refs[len(refs)-1].Name != "sOld" || refs[0].Name != "oPlayer" {
		t.Fatalf("expected replaced entry appended at end: %+v", refs)
	}
	if ref, ok := doc.Resource("sOld"); !ok || ref.Path != "sprites/sOld/sOld.yy" {
		t.Fatalf("Resource = %+v %v", ref, ok)
	}

	missing, err := Load(writeProject(t, `{"Folders":[]}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := missing.UpsertResource("sX", ResourcePath("sX")); !errors.Is(err, services.ErrDocument) {
		t.Fatalf("expected ErrDocument, got %v", err)
	}
}

func TestSavePreservesUnknownFieldsInOrder(t *testing.T) {
	path := writeProject(t, sampleProject)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := doc.UpsertResource("sNew", ResourcePath("sNew")); err != nil {
		t.Fatalf("UpsertResource: %v", err)
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the project file, found %d entries", len(entries))
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := reloaded.Resource("sNew"); !ok {
		t.Fatal("sNew missing after reload")
	}
	want := []string{"$GMProject", "%Name", "AudioGroups", "configs", "Folders", "resources", "resourceType", "resourceVersion"}
	members := reloaded.Root.Members()
	if len(members) != len(want) {
		t.Fatalf("root has %d members, want %d", len(members), len(want))
	}
	for i, m := range members {
		if m.Key != want[i] {
			t.Fatalf("member %d = %q, want %q", i, m.Key, want[i])
		}
	}
}
