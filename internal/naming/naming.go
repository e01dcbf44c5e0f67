// Package naming derives GameMaker resource names and folder paths from the
// files an artist saves.
package naming

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultFolderRoot is the top-level asset browser folder for imported sprites.
const DefaultFolderRoot = "Sprites"

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || r == ' '
}

// CamelCase splits s on underscores, hyphens, dots, and spaces and joins the
// words with the first letter of each upper-cased and the rest lowered.
func CamelCase(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	if len(words) == 0 {
		return ""
	}
	caser := cases.Title(language.Und)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(caser.String(w))
	}
	return b.String()
}

// SpriteName builds s{File}{Tag} from an .aseprite path and one of its tags.
// An empty tag contributes nothing.
func SpriteName(asePath, tag string) string {
	stem := strings.TrimSuffix(filepath.Base(asePath), filepath.Ext(asePath))
	return "s" + CamelCase(stem) + CamelCase(tag)
}

// FolderPath mirrors the directories between watchDir and the .aseprite file
// under root, camel-casing every component. Files directly inside watchDir,
// or outside it, land in root itself.
func FolderPath(watchDir, asePath, root string) string {
	root = strings.Trim(strings.TrimSpace(root), "/")
	if root == "" {
		root = DefaultFolderRoot
	}
	rel, err := filepath.Rel(filepath.Clean(watchDir), filepath.Dir(filepath.Clean(asePath)))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return root
	}
	parts := []string{root}
	for _, component := range strings.Split(filepath.ToSlash(rel), "/") {
		if name := CamelCase(component); name != "" {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "/")
}

// MusicName maps a .wav file name onto the GameMaker sound asset file name,
// e.g. "song1.wav" becomes "sndSong1.ogg". Words split on whitespace keep
// their remaining letters as written.
func MusicName(wavName string) string {
	base := filepath.Base(wavName)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".wav") {
		base = strings.TrimSuffix(base, ext)
	}
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	b.WriteString("snd")
	for _, w := range strings.FieldsFunc(base, unicode.IsSpace) {
		b.WriteString(caser.String(w))
	}
	b.WriteString(".ogg")
	return b.String()
}

// ValidResourceName reports whether name is usable as a GameMaker asset
// identifier: ASCII letters, digits, and underscores, not starting with a
// digit.
func ValidResourceName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
