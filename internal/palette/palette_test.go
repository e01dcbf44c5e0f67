package palette

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameOf(w, h int, fill func(x, y int) color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, fill(x, y))
		}
	}
	return img
}

func TestBuildFirstSeenOrder(t *testing.T) {
	t.Parallel()
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	a := frameOf(2, 1, func(x, _ int) color.NRGBA { return []color.NRGBA{red, green}[x] })
	b := frameOf(2, 1, func(x, _ int) color.NRGBA { return []color.NRGBA{green, blue}[x] })

	p := Build([]*image.NRGBA{a, b})
	require.Equal(t, 4, p.Len())
	assert.Equal(t, Marker, p.At(0))
	assert.Equal(t, RGB{255, 0, 0}, p.At(1))
	assert.Equal(t, RGB{0, 255, 0}, p.At(2))
	assert.Equal(t, RGB{0, 0, 255}, p.At(3))
	assert.Equal(t, 0, p.Dropped())
}

func TestBuildSkipsTransparentPixels(t *testing.T) {
	t.Parallel()
	f := frameOf(2, 2, func(x, y int) color.NRGBA {
		if x == 0 {
			return color.NRGBA{R: 200, G: 10, B: 10, A: 0}
		}
		return color.NRGBA{R: 1, G: 2, B: 3, A: 40}
	})
	p := Build([]*image.NRGBA{f})
	require.Equal(t, 2, p.Len())
	assert.Equal(t, RGB{1, 2, 3}, p.At(1))
	_, ok := p.Exact(RGB{200, 10, 10})
	assert.False(t, ok)
}

func TestBuildTruncatesAndRemapsToNearest(t *testing.T) {
	t.Parallel()
	const total = 300
	f := frameOf(total, 1, func(x, _ int) color.NRGBA {
		return color.NRGBA{R: uint8(x % 256), G: uint8(x / 256 * 90), B: 7, A: 255}
	})
	p := Build([]*image.NRGBA{f})

	require.Equal(t, MaxColors, p.Len())
	assert.Equal(t, Marker, p.At(0))
	assert.Equal(t, total, p.Unique())
	assert.Equal(t, total-(MaxColors-1), p.Dropped())

	for x := 0; x < total; x++ {
		c := RGB{uint8(x % 256), uint8(x / 256 * 90), 7}
		idx := p.Index(c)
		require.NotEqual(t, uint8(TransparentIndex), idx)
		if x < MaxColors-1 {
			assert.Equal(t, uint8(x+1), idx)
			continue
		}
		_, exact := p.Exact(c)
		assert.False(t, exact, "dropped color %v still has an exact slot", c)
		got := distance(c, p.At(int(idx)))
		for i := 1; i < p.Len(); i++ {
			d := distance(c, p.At(i))
			require.GreaterOrEqual(t, d, got, "entry %d is closer to %v than chosen %d", i, c, idx)
			if d == got {
				require.GreaterOrEqual(t, i, int(idx), "tie must resolve to lowest index")
			}
		}
	}
	assert.Equal(t, total-(MaxColors-1), p.Remapped())
}

func TestNearestTieBreaksToLowestIndex(t *testing.T) {
	t.Parallel()
	f := frameOf(2, 1, func(x, _ int) color.NRGBA {
		return []color.NRGBA{{R: 10, A: 255}, {R: 30, A: 255}}[x]
	})
	p := Build([]*image.NRGBA{f})
	assert.Equal(t, uint8(1), p.Nearest(RGB{20, 0, 0}))
	assert.Equal(t, uint8(2), p.Nearest(RGB{21, 0, 0}))
}

func TestNaturalMarkerColorIsNeverTransparent(t *testing.T) {
	t.Parallel()
	f := frameOf(2, 1, func(x, _ int) color.NRGBA {
		return []color.NRGBA{{A: 255}, {R: 5, G: 5, B: 5, A: 255}}[x]
	})
	p := Build([]*image.NRGBA{f})
	require.Equal(t, 2, p.Len())
	_, exact := p.Exact(Marker)
	assert.False(t, exact)
	assert.Equal(t, uint8(1), p.Index(Marker))
}

func TestMarkerOnlySpriteGetsOwnSlot(t *testing.T) {
	t.Parallel()
	f := frameOf(3, 3, func(x, y int) color.NRGBA {
		if x == y {
			return color.NRGBA{A: 255}
		}
		return color.NRGBA{}
	})
	p := Build([]*image.NRGBA{f})
	require.Equal(t, 2, p.Len())
	assert.Equal(t, Marker, p.At(1))
	assert.Equal(t, uint8(1), p.Index(Marker))
}

func TestEmptyPaletteNearest(t *testing.T) {
	t.Parallel()
	p := Build(nil)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, uint8(TransparentIndex), p.Nearest(RGB{1, 1, 1}))
}

func TestColorsAreOpaque(t *testing.T) {
	t.Parallel()
	f := frameOf(1, 1, func(int, int) color.NRGBA { return color.NRGBA{R: 9, G: 8, B: 7, A: 20} })
	cp := Build([]*image.NRGBA{f}).Colors()
	require.Len(t, cp, 2)
	assert.Equal(t, color.RGBA{A: 255}, cp[0])
	assert.Equal(t, color.RGBA{R: 9, G: 8, B: 7, A: 255}, cp[1])
}

func TestRGBString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "#0a0bff", RGB{10, 11, 255}.String())
}
