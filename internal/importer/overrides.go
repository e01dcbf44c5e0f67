package importer

import (
	"spritebridge/internal/bbox"
	"spritebridge/internal/yyp"
)

// Overrides are the operator-set bbox and origin fields of a prior sprite
// version. They are only meaningful at the dimensions they were set for.
type Overrides struct {
	BBoxMode int
	BBox     bbox.Box
	Origin   int
	XOrigin  int
	YOrigin  int
}

// ReadOverrides loads the bbox and origin fields from the .yy at path when its
// width and height equal the new dimensions. Any read or parse problem, a
// dimension mismatch, or a missing field yields ok == false.
func ReadOverrides(path string, width, height int) (Overrides, bool) {
	root, err := yyp.LoadFile(path)
	if err != nil {
		return Overrides{}, false
	}
	oldW, okW := root.Get("width").Int()
	oldH, okH := root.Get("height").Int()
	if !okW || !okH || oldW != int64(width) || oldH != int64(height) {
		return Overrides{}, false
	}

	var ov Overrides
	fields := []struct {
		node *yyp.Node
		dst  *int
	}{
		{root.Get("bboxMode"), &ov.BBoxMode},
		{root.Get("bbox_left"), &ov.BBox.Left},
		{root.Get("bbox_top"), &ov.BBox.Top},
		{root.Get("bbox_right"), &ov.BBox.Right},
		{root.Get("bbox_bottom"), &ov.BBox.Bottom},
		{root.Get("origin"), &ov.Origin},
		{root.Path("sequence", "xorigin"), &ov.XOrigin},
		{root.Path("sequence", "yorigin"), &ov.YOrigin},
	}
	for _, f := range fields {
		v, ok := f.node.Int()
		if !ok {
			return Overrides{}, false
		}
		*f.dst = int(v)
	}
	return ov, true
}

// Apply copies the overrides onto a freshly built sprite.
func (o Overrides) Apply(s *Sprite) {
	s.BBoxMode = o.BBoxMode
	s.BBoxLeft = o.BBox.Left
	s.BBoxTop = o.BBox.Top
	s.BBoxRight = o.BBox.Right
	s.BBoxBottom = o.BBox.Bottom
	s.Origin = o.Origin
	s.Sequence.XOrigin = o.XOrigin
	s.Sequence.YOrigin = o.YOrigin
}
