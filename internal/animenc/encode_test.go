package animenc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spritebridge/internal/palette"
	"spritebridge/internal/services"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func decodeGIF(t *testing.T, data []byte) *gif.GIF {
	t.Helper()
	g, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	return g
}

func alphaAt(p color.Palette, i int) uint32 {
	_, _, _, a := p[i].RGBA()
	return a
}

func TestEncodeGIFLoopsWithFixedDelay(t *testing.T) {
	t.Parallel()
	red := color.NRGBA{R: 255, A: 255}
	var buf bytes.Buffer
	stats, err := EncodeGIF(&buf, []*image.NRGBA{solid(8, 8, red), solid(8, 8, red)}, Options{})
	require.NoError(t, err)
	assert.Equal(t, Stats{Frames: 2, PaletteSize: 2, UniqueColors: 1}, stats)

	g := decodeGIF(t, buf.Bytes())
	require.Len(t, g.Image, 2)
	assert.Equal(t, 0, g.LoopCount)
	assert.Equal(t, []int{DefaultDelay, DefaultDelay}, g.Delay)
	assert.Equal(t, []byte{gif.DisposalBackground, gif.DisposalBackground}, g.Disposal)
	for _, img := range g.Image {
		assert.Equal(t, uint8(1), img.ColorIndexAt(0, 0))
		assert.NotZero(t, alphaAt(img.Palette, 0), "opaque frame must not declare a transparency key")
	}
}

func TestEncodeGIFTransparencyKeyOnlyWhereUsed(t *testing.T) {
	t.Parallel()
	holey := solid(4, 4, color.NRGBA{G: 200, A: 255})
	holey.SetNRGBA(1, 1, color.NRGBA{R: 9, A: 0})
	full := solid(4, 4, color.NRGBA{G: 200, A: 255})
	// Near-black opaque pixel: remapped onto a surviving entry, never slot 0.
	full.SetNRGBA(2, 2, color.NRGBA{A: 255})

	var buf bytes.Buffer
	_, err := EncodeGIF(&buf, []*image.NRGBA{holey, full}, Options{Delay: 4})
	require.NoError(t, err)

	g := decodeGIF(t, buf.Bytes())
	require.Len(t, g.Image, 2)
	assert.Equal(t, []int{4, 4}, g.Delay)

	assert.Zero(t, alphaAt(g.Image[0].Palette, 0))
	assert.Equal(t, uint8(0), g.Image[0].ColorIndexAt(1, 1))
	assert.NotZero(t, alphaAt(g.Image[1].Palette, 0))
	assert.NotEqual(t, uint8(0), g.Image[1].ColorIndexAt(2, 2))
}

func TestQuantizeRoundTripsToExactOrNearest(t *testing.T) {
	t.Parallel()
	const w, h = 20, 20
	src := []*image.NRGBA{image.NewNRGBA(image.Rect(0, 0, w, h)), image.NewNRGBA(image.Rect(0, 0, w, h))}
	for f, img := range src {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				n := f*w*h + y*w + x
				c := color.NRGBA{R: uint8(n * 7), G: uint8(n / 3), B: uint8(n % 5 * 40), A: 255}
				if n%37 == 0 {
					c.A = 0
				}
				if n%53 == 0 {
					c = color.NRGBA{A: 255}
				}
				img.SetNRGBA(x, y, c)
			}
		}
	}

	pal := palette.Build(src)
	require.LessOrEqual(t, pal.Len(), palette.MaxColors)
	require.Equal(t, palette.Marker, pal.At(0))
	require.Positive(t, pal.Dropped())

	indexed, err := Quantize(src, pal)
	require.NoError(t, err)
	require.Len(t, indexed, 2)

	dist := func(a, b palette.RGB) int {
		dr, dg, db := int(a.R)-int(b.R), int(a.G)-int(b.G), int(a.B)-int(b.B)
		return dr*dr + dg*dg + db*db
	}
	for f, img := range src {
		assert.True(t, indexed[f].HasTransparency)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				px := img.NRGBAAt(x, y)
				idx := int(indexed[f].Image.ColorIndexAt(x, y))
				if px.A == 0 {
					require.Equal(t, 0, idx)
					continue
				}
				require.NotEqual(t, 0, idx, "opaque pixel mapped to transparency slot")
				orig := palette.RGB{R: px.R, G: px.G, B: px.B}
				got := pal.At(idx)
				if got == orig {
					continue
				}
				for i := 1; i < pal.Len(); i++ {
					require.GreaterOrEqual(t, dist(orig, pal.At(i)), dist(orig, got))
				}
			}
		}
	}
}

func TestQuantizeFlagsTransparency(t *testing.T) {
	t.Parallel()
	a := solid(2, 2, color.NRGBA{B: 255, A: 255})
	b := solid(2, 2, color.NRGBA{B: 255, A: 255})
	b.SetNRGBA(0, 0, color.NRGBA{})
	out, err := Quantize([]*image.NRGBA{a, b}, palette.Build([]*image.NRGBA{a, b}))
	require.NoError(t, err)
	assert.False(t, out[0].HasTransparency)
	assert.True(t, out[1].HasTransparency)

	_, err = Quantize([]*image.NRGBA{a}, nil)
	assert.True(t, errors.Is(err, services.ErrInput))
}

func TestEncodeSingleFrameIsFullColorPNG(t *testing.T) {
	t.Parallel()
	frame := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	frame.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	frame.SetNRGBA(1, 0, color.NRGBA{R: 250, G: 128, B: 64, A: 90})

	var buf bytes.Buffer
	format, stats, err := Encode(&buf, []*image.NRGBA{frame}, Options{})
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, format)
	assert.Equal(t, 1, stats.Frames)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	nrgba, ok := img.(*image.NRGBA)
	require.True(t, ok)
	assert.Equal(t, frame.Pix, nrgba.Pix)
}

func TestEncodeSingleFrameWebP(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	format, _, err := Encode(&buf, []*image.NRGBA{solid(4, 4, color.NRGBA{R: 10, A: 255})}, Options{SingleFrame: FormatWebP})
	require.NoError(t, err)
	assert.Equal(t, FormatWebP, format)
	data := buf.Bytes()
	require.GreaterOrEqual(t, len(data), 12)
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WEBP", string(data[8:12]))
}

func TestEncodeRejectsEmptyAndMismatched(t *testing.T) {
	t.Parallel()
	_, _, err := Encode(&bytes.Buffer{}, nil, Options{})
	assert.True(t, errors.Is(err, services.ErrInput))

	_, err = EncodeGIF(&bytes.Buffer{}, []*image.NRGBA{solid(2, 2, color.NRGBA{A: 255}), solid(3, 2, color.NRGBA{A: 255})}, Options{})
	assert.True(t, errors.Is(err, services.ErrInput))
}

func TestWriteFileChoosesExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	frame := solid(2, 2, color.NRGBA{R: 255, A: 255})

	path, _, err := WriteFile(filepath.Join(dir, "hero_idle"), []*image.NRGBA{frame, frame}, Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hero_idle.gif"), path)

	path, _, err = WriteFile(filepath.Join(dir, "hero_pose"), []*image.NRGBA{frame}, Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hero_pose.png"), path)
	_, err = os.Stat(path)
	assert.NoError(t, err)

	require.NoError(t, RemoveIfExists(path))
	require.NoError(t, RemoveIfExists(path))
}

func TestParseSingleFrameFormat(t *testing.T) {
	t.Parallel()
	f, err := ParseSingleFrameFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)
	f, err = ParseSingleFrameFormat(" WebP ")
	require.NoError(t, err)
	assert.Equal(t, FormatWebP, f)
	_, err = ParseSingleFrameFormat("bmp")
	assert.Error(t, err)
}
