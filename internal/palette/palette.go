// Package palette builds the global color table shared by every frame of an
// indexed-color animation.
//
// Index 0 is reserved for the transparency marker. Opaque colors occupy
// indices 1..N in first-seen order and the table is capped at MaxColors.
// Colors that do not survive the cap are remapped to their nearest surviving
// neighbor at lookup time; that search is kept out of the build step so it only
// runs for colors that actually overflowed.
package palette

import (
	"fmt"
	"image"
	"image/color"
)

// MaxColors is the hardware limit on an indexed-color table.
const MaxColors = 256

// TransparentIndex is the palette slot reserved for "no pixel".
const TransparentIndex = 0

// RGB is an opaque color triple.
type RGB struct {
	R, G, B uint8
}

// Marker is the color stored in the reserved transparency slot.
var Marker = RGB{0, 0, 0}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBA returns the opaque color.RGBA for c.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// Palette is an ordered color table with exact and nearest-color lookup.
// It is not safe for concurrent use: Index memoizes remapped colors.
type Palette struct {
	colors   []RGB
	exact    map[RGB]uint8
	remapped map[RGB]uint8
	unique   int
}

// Build collects every opaque color of every frame into a palette.
//
// The first pass appends each unseen opaque RGB in first-seen order, skipping
// the marker color. The second pass truncates the table to MaxColors entries
// and rebuilds the exact lookup from the survivors. Pixels with alpha == 0 do
// not contribute.
func Build(frames []*image.NRGBA) *Palette {
	colors := []RGB{Marker}
	seen := make(map[RGB]struct{})
	sawMarker := false

	for _, frame := range frames {
		if frame == nil {
			continue
		}
		bounds := frame.Bounds()
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := frame.PixOffset(bounds.Min.X, y)
			for x := 0; x < bounds.Dx(); x++ {
				px := frame.Pix[off+x*4 : off+x*4+4 : off+x*4+4]
				if px[3] == 0 {
					continue
				}
				c := RGB{px[0], px[1], px[2]}
				if c == Marker {
					sawMarker = true
					continue
				}
				if _, ok := seen[c]; ok {
					continue
				}
				seen[c] = struct{}{}
				colors = append(colors, c)
			}
		}
	}

	unique := len(colors) - 1
	if len(colors) > MaxColors {
		colors = colors[:MaxColors]
	}

	p := &Palette{
		colors:   colors,
		exact:    make(map[RGB]uint8, len(colors)),
		remapped: make(map[RGB]uint8),
		unique:   unique,
	}
	for i, c := range colors[1:] {
		p.exact[c] = uint8(i + 1)
	}

	// A sprite drawn only in the marker color still needs an opaque slot,
	// otherwise its pixels would have nowhere to go but index 0.
	if sawMarker && len(p.colors) == 1 {
		p.colors = append(p.colors, Marker)
		p.exact[Marker] = 1
		p.unique = 1
	}
	return p
}

// Len returns the number of table entries including the reserved slot.
func (p *Palette) Len() int { return len(p.colors) }

// At returns the color stored at index i.
func (p *Palette) At(i int) RGB { return p.colors[i] }

// Unique reports how many distinct opaque colors the source frames contained
// before truncation.
func (p *Palette) Unique() int { return p.unique }

// Dropped reports how many opaque colors did not fit in the table.
func (p *Palette) Dropped() int {
	if d := p.unique - (len(p.colors) - 1); d > 0 {
		return d
	}
	return 0
}

// Exact returns the index of c if it survived truncation.
func (p *Palette) Exact(c RGB) (uint8, bool) {
	idx, ok := p.exact[c]
	return idx, ok
}

// Nearest returns the surviving entry closest to c by squared Euclidean
// distance in RGB space. Index 0 is never a candidate unless it is the only
// entry. Ties resolve to the lowest index.
func (p *Palette) Nearest(c RGB) uint8 {
	if len(p.colors) <= 1 {
		return TransparentIndex
	}
	best := 1
	bestDist := -1
	for i := 1; i < len(p.colors); i++ {
		d := distance(c, p.colors[i])
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
			if d == 0 {
				break
			}
		}
	}
	return uint8(best)
}

// Index resolves an opaque color: exact match first, then the nearest
// surviving entry. Nearest results are memoized per color.
func (p *Palette) Index(c RGB) uint8 {
	if idx, ok := p.exact[c]; ok {
		return idx
	}
	if idx, ok := p.remapped[c]; ok {
		return idx
	}
	idx := p.Nearest(c)
	p.remapped[c] = idx
	return idx
}

// Remapped reports how many distinct colors have been resolved through the
// nearest-color search so far.
func (p *Palette) Remapped() int { return len(p.remapped) }

// Colors returns the table as an opaque color.Palette. Every entry, including
// the reserved slot, is fully opaque; encoders decide per frame whether slot 0
// is transparent.
func (p *Palette) Colors() color.Palette {
	out := make(color.Palette, len(p.colors))
	for i, c := range p.colors {
		out[i] = c.RGBA()
	}
	return out
}

// Entries returns a copy of the color table.
func (p *Palette) Entries() []RGB {
	out := make([]RGB, len(p.colors))
	copy(out, p.colors)
	return out
}

func distance(a, b RGB) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}
