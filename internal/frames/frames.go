// Package frames turns sprite sheets exported by the editor into the
// equally-sized RGBA frames the rest of the pipeline consumes.
package frames

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"

	"spritebridge/internal/services"
)

const component = "frames"

// LoadSheet decodes a PNG, GIF, JPEG, or TGA sprite sheet into NRGBA. TGA has
// no magic number, so it is chosen by the .tga extension and never sniffed.
func LoadSheet(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrInput, component, "open sheet", path, err)
	}
	defer f.Close()

	img, err := decodeSheet(f, path)
	if err != nil {
		return nil, services.Wrap(services.ErrInput, component, "decode sheet", path, err)
	}
	return ToNRGBA(img), nil
}

func decodeSheet(r io.Reader, path string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		return tga.Decode(r)
	}
	img, _, err := image.Decode(r)
	return img, err
}

// ToNRGBA converts any image to a zero-origin NRGBA. NRGBA input is copied
// byte for byte so color values under partial alpha are not re-quantized.
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if n, ok := src.(*image.NRGBA); ok {
		copyRows(dst, n, b)
		return dst
	}
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Split cuts count frames of frameW x frameH out of sheet, scanning cells
// left to right, top to bottom. Cells past count are ignored.
func Split(sheet *image.NRGBA, frameW, frameH, count int) ([]*image.NRGBA, error) {
	if sheet == nil {
		return nil, services.Wrap(services.ErrInput, component, "split", "sheet is nil", nil)
	}
	if frameW <= 0 || frameH <= 0 {
		return nil, services.Wrap(services.ErrInput, component, "split", fmt.Sprintf("invalid frame size %dx%d", frameW, frameH), nil)
	}
	bounds := sheet.Bounds()
	perRow := bounds.Dx() / frameW
	rows := bounds.Dy() / frameH

	out := make([]*image.NRGBA, 0, max(count, 0))
	for row := 0; row < rows && len(out) < count; row++ {
		for col := 0; col < perRow && len(out) < count; col++ {
			cell := image.Rect(col*frameW, row*frameH, (col+1)*frameW, (row+1)*frameH).Add(bounds.Min)
			frame := image.NewNRGBA(image.Rect(0, 0, frameW, frameH))
			copyRows(frame, sheet, cell)
			out = append(out, frame)
		}
	}
	if len(out) == 0 {
		return nil, services.Wrap(services.ErrInput, component, "split",
			fmt.Sprintf("no %dx%d frames in %dx%d sheet", frameW, frameH, bounds.Dx(), bounds.Dy()), nil)
	}
	return out, nil
}

// Validate checks that there is at least one frame and that every frame is
// exactly width x height.
func Validate(frames []*image.NRGBA, width, height int) error {
	if width <= 0 || height <= 0 {
		return services.Wrap(services.ErrInput, component, "validate", fmt.Sprintf("invalid dimensions %dx%d", width, height), nil)
	}
	if len(frames) == 0 {
		return services.Wrap(services.ErrInput, component, "validate", "no frames", nil)
	}
	for i, f := range frames {
		if f == nil {
			return services.Wrap(services.ErrInput, component, "validate", fmt.Sprintf("frame %d is nil", i), nil)
		}
		if b := f.Bounds(); b.Dx() != width || b.Dy() != height {
			return services.Wrap(services.ErrInput, component, "validate",
				fmt.Sprintf("frame %d is %dx%d, want %dx%d", i, b.Dx(), b.Dy(), width, height), nil)
		}
	}
	return nil
}

// Scale enlarges every frame by an integer factor with nearest-neighbor
// sampling so pixel art stays crisp. A factor <= 1 returns the input slice.
func Scale(frames []*image.NRGBA, factor int) []*image.NRGBA {
	if factor <= 1 {
		return frames
	}
	out := make([]*image.NRGBA, len(frames))
	for i, src := range frames {
		b := src.Bounds()
		dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		out[i] = dst
	}
	return out
}

func copyRows(dst, src *image.NRGBA, r image.Rectangle) {
	r = r.Intersect(src.Bounds())
	rowBytes := r.Dx() * 4
	for y := 0; y < r.Dy(); y++ {
		so := src.PixOffset(r.Min.X, r.Min.Y+y)
		do := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		copy(dst.Pix[do:do+rowBytes], src.Pix[so:so+rowBytes])
	}
}
