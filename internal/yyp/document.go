package yyp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"spritebridge/internal/fileutil"
	"spritebridge/internal/services"
)

const component = "yyp"

// FolderRef is a folder record as listed in a project's Folders array.
type FolderRef struct {
	Name string `json:"name"`
	Path string `json:"folder_path"`
}

// ResourceRef is a resource entry as listed in a project's resources array.
type ResourceRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Document is a loaded project descriptor. It is not safe for concurrent use;
// callers serialize access to the file on disk.
type Document struct {
	Path string
	Root *Node
}

// Load reads, repairs, and parses the descriptor at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, component, "load", fmt.Sprintf("read %s", path), err)
	}
	root, err := Parse(StripTrailingCommas(data))
	if err != nil {
		return nil, services.Wrap(services.ErrDocument, component, "load", fmt.Sprintf("parse %s", path), err)
	}
	if root.Kind != Object {
		return nil, services.Wrap(services.ErrDocument, component, "load", fmt.Sprintf("%s: top-level value is %s, want object", path, root.Kind), nil)
	}
	return &Document{Path: path, Root: root}, nil
}

// LoadFile parses a .yy or .yyp file into a bare tree.
func LoadFile(path string) (*Node, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return doc.Root, nil
}

// Dir is the project directory holding the descriptor.
func (d *Document) Dir() string {
	return filepath.Dir(d.Path)
}

// Bytes renders the whole tree.
func (d *Document) Bytes() ([]byte, error) {
	data, err := d.Root.Marshal()
	if err != nil {
		return nil, services.Wrap(services.ErrDocument, component, "encode", d.Path, err)
	}
	return data, nil
}

// Save rewrites the descriptor in place through a temp file and rename.
func (d *Document) Save() error {
	return d.SaveTo(d.Path)
}

// SaveTo writes the descriptor to path through a temp file and rename.
func (d *Document) SaveTo(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrIO, component, "save", fmt.Sprintf("write %s", path), err)
	}
	return nil
}

func (d *Document) array(key, op string) (*Node, error) {
	arr := d.Root.Get(key)
	if arr == nil || arr.Kind != Array {
		return nil, services.Wrap(services.ErrDocument, component, op, fmt.Sprintf("%s: missing %q array", d.Path, key), nil)
	}
	return arr, nil
}

// FolderFile maps a folder path such as "Sprites/Enemies" to the key the
// engine stores in folderPath: "folders/Sprites/Enemies.yy".
func FolderFile(folderPath string) string {
	return "folders/" + folderPath + ".yy"
}

// SplitFolderPath returns the non-empty segments of a slash separated path.
func SplitFolderPath(folderPath string) []string {
	raw := strings.Split(strings.ReplaceAll(folderPath, "\\", "/"), "/")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// NewFolder builds the GMFolder record the engine expects in Folders.
func NewFolder(name, folderFile string) *Node {
	return NewObject(
		Field("$GMFolder", NewString("")),
		Field("%Name", NewString(name)),
		Field("folderPath", NewString(folderFile)),
		Field("name", NewString(name)),
		Field("resourceType", NewString("GMFolder")),
		Field("resourceVersion", NewString("2.0")),
	)
}

// EnsureFolderChain makes sure every prefix of folderPath ("A", "A/B",
// "A/B/C") has a folder record, appending missing ones parent first. It
// returns the number of records added; repeated calls add nothing.
func (d *Document) EnsureFolderChain(folderPath string) (int, error) {
	parts := SplitFolderPath(folderPath)
	if len(parts) == 0 {
		return 0, services.Wrap(services.ErrInput, component, "ensure folders", "empty folder path", nil)
	}
	folders, err := d.array("Folders", "ensure folders")
	if err != nil {
		return 0, err
	}

	existing := make(map[string]struct{}, folders.Len())
	for _, f := range folders.Items() {
		if p, ok := f.Get("folderPath").Text(); ok {
			existing[p] = struct{}{}
		}
	}

	added := 0
	for i, part := range parts {
		key := FolderFile(strings.Join(parts[:i+1], "/"))
		if _, ok := existing[key]; ok {
			continue
		}
		folders.Append(NewFolder(part, key))
		existing[key] = struct{}{}
		added++
	}
	return added, nil
}

// UpsertResource drops every resource entry whose id.name equals name and
// appends a fresh {"id":{"name":name,"path":path}} entry.
func (d *Document) UpsertResource(name, path string) error {
	resources, err := d.array("resources", "upsert resource")
	if err != nil {
		return err
	}
	resources.Filter(func(entry *Node) bool {
		existing, ok := entry.Path("id", "name").Text()
		return !ok || existing != name
	})
	resources.Append(NewObject(
		Field("id", NewObject(
			Field("name", NewString(name)),
			Field("path", NewString(path)),
		)),
	))
	return nil
}

// Resource returns the entry registered under name.
func (d *Document) Resource(name string) (ResourceRef, bool) {
	for _, ref := range d.Resources() {
		if ref.Name == name {
			return ref, true
		}
	}
	return ResourceRef{}, false
}

// Resources lists the resource entries in document order. Entries without an
// id.name are skipped.
func (d *Document) Resources() []ResourceRef {
	var refs []ResourceRef
	for _, entry := range d.Root.Get("resources").Items() {
		name, ok := entry.Path("id", "name").Text()
		if !ok {
			continue
		}
		path, _ := entry.Path("id", "path").Text()
		refs = append(refs, ResourceRef{Name: name, Path: path})
	}
	return refs
}

// Folders lists the folder records in document order.
func (d *Document) Folders() []FolderRef {
	var refs []FolderRef
	for _, entry := range d.Root.Get("Folders").Items() {
		path, ok := entry.Get("folderPath").Text()
		if !ok {
			continue
		}
		name, _ := entry.Get("name").Text()
		refs = append(refs, FolderRef{Name: name, Path: path})
	}
	return refs
}

// ResourcePath is where the engine expects the .yy of a sprite named name,
// relative to the project directory.
func ResourcePath(name string) string {
	return "sprites/" + name + "/" + name + ".yy"
}
