// Package bbox computes the tight bounding box of the occupied pixels across
// every frame of an animation.
package bbox

import (
	"fmt"
	"image"
)

// Box is a rectangle with inclusive edges in frame-local pixel coordinates.
type Box struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Full returns the box covering an entire width x height frame. Callers use it
// in place of an empty result.
func Full(width, height int) Box {
	return Box{Left: 0, Top: 0, Right: width - 1, Bottom: height - 1}
}

// Contains reports whether the pixel at x, y lies inside the box.
func (b Box) Contains(x, y int) bool {
	return x >= b.Left && x <= b.Right && y >= b.Top && y <= b.Bottom
}

// Width is the number of columns covered by the box.
func (b Box) Width() int { return b.Right - b.Left + 1 }

// Height is the number of rows covered by the box.
func (b Box) Height() int { return b.Bottom - b.Top + 1 }

func (b Box) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", b.Left, b.Top, b.Right, b.Bottom)
}

// Compute scans width x height pixels of every frame and returns the smallest
// box enclosing every pixel whose alpha is non-zero. The box bounds the union
// over all frames. ok is false when no pixel in any frame is occupied.
func Compute(frames []*image.NRGBA, width, height int) (box Box, ok bool) {
	minX, minY := width, height
	maxX, maxY := -1, -1

	for _, frame := range frames {
		if frame == nil {
			continue
		}
		bounds := frame.Bounds()
		w := min(width, bounds.Dx())
		h := min(height, bounds.Dy())
		for y := 0; y < h; y++ {
			row := frame.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			for x := 0; x < w; x++ {
				if frame.Pix[row+x*4+3] == 0 {
					continue
				}
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if maxX < 0 {
		return Box{}, false
	}
	return Box{Left: minX, Top: minY, Right: maxX, Bottom: maxY}, true
}

// ComputeOrFull is Compute with the full-frame substitution applied.
func ComputeOrFull(frames []*image.NRGBA, width, height int) (Box, bool) {
	if box, ok := Compute(frames, width, height); ok {
		return box, true
	}
	return Full(width, height), false
}
