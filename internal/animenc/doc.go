// Package animenc writes standalone animations: a looping indexed-color GIF
// when there are several frames, or a single full-color PNG (optionally WebP)
// when there is exactly one.
//
// Multi-frame output shares one global palette built by package palette.
// Slot 0 is the transparency marker; a frame only declares it as its
// transparent key when that frame actually contains fully transparent pixels,
// so an opaque color that was remapped onto the marker's RGB never vanishes.
// Frame timing from the editor is not carried over: every frame is shown for
// the same fixed delay.
package animenc
