package testsupport

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// EmptyProject is a minimal GameMaker project descriptor in the engine's
// trailing-comma dialect.
const EmptyProject = `{
  "$GMProject":"",
  "%Name":"Demo",
  "Folders":[],
  "resources":[],
  "resourceType":"GMProject",
  "resourceVersion":"2.0",
}`

// WriteProject writes EmptyProject to dir/Demo.yyp and returns its path.
func WriteProject(t testing.TB, dir string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, "Demo.yyp")
	if err := os.WriteFile(path, []byte(EmptyProject), 0o644); err != nil {
		t.Fatalf("write project: %v", err)
	}
	return path
}

// SolidFrames returns n frames of w x h filled with c.
func SolidFrames(n, w, h int, c color.NRGBA) []*image.NRGBA {
	out := make([]*image.NRGBA, n)
	for i := range out {
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = c.R, c.G, c.B, c.A
		}
		out[i] = img
	}
	return out
}

// WriteSheet lays frames out in one row and writes the result as a PNG.
func WriteSheet(t testing.TB, path string, frames []*image.NRGBA) {
	t.Helper()

	if len(frames) == 0 {
		t.Fatal("WriteSheet: no frames")
	}
	w, h := frames[0].Bounds().Dx(), frames[0].Bounds().Dy()
	sheet := image.NewNRGBA(image.Rect(0, 0, w*len(frames), h))
	for i, f := range frames {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				sheet.SetNRGBA(i*w+x, y, f.NRGBAAt(x, y))
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, sheet); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

var (
	// Red is an opaque red test color.
	Red = color.NRGBA{R: 255, A: 255}
	// Clear is fully transparent.
	Clear = color.NRGBA{}
)
