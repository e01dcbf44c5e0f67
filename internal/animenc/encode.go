package animenc

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/HugoSmits86/nativewebp"

	"spritebridge/internal/fileutil"
	"spritebridge/internal/frames"
	"spritebridge/internal/palette"
	"spritebridge/internal/services"
)

const component = "animenc"

// DefaultDelay is the per-frame display time in hundredths of a second.
const DefaultDelay = 10

// Format identifies the container written by Encode.
type Format string

const (
	FormatGIF  Format = "gif"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ParseSingleFrameFormat accepts "png" or "webp"; blank means png.
func ParseSingleFrameFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("single frame format: unsupported value %q", value)
	}
}

// Options tunes container output.
type Options struct {
	// Delay is the per-frame delay in hundredths of a second. Zero means
	// DefaultDelay.
	Delay int
	// SingleFrame selects the format used when there is exactly one frame.
	// Zero means FormatPNG.
	SingleFrame Format
}

func (o Options) delay() int {
	if o.Delay <= 0 {
		return DefaultDelay
	}
	return o.Delay
}

// IndexedFrame is one frame mapped onto the shared palette.
type IndexedFrame struct {
	Image *image.Paletted
	// HasTransparency is true when at least one pixel uses the reserved
	// transparency slot.
	HasTransparency bool
}

// Stats summarizes a quantization pass.
type Stats struct {
	Frames         int
	PaletteSize    int
	UniqueColors   int
	DroppedColors  int
	RemappedColors int
}

// ChooseFormat returns the container Encode will produce for n frames.
func ChooseFormat(n int, opts Options) Format {
	if n == 1 {
		if opts.SingleFrame == FormatWebP {
			return FormatWebP
		}
		return FormatPNG
	}
	return FormatGIF
}

// Quantize maps every pixel of every frame to pal. Fully transparent pixels
// become index 0; everything else is resolved by exact match and, only on a
// miss, by the nearest surviving palette entry.
func Quantize(src []*image.NRGBA, pal *palette.Palette) ([]IndexedFrame, error) {
	if pal == nil {
		return nil, services.Wrap(services.ErrInput, component, "quantize", "palette is nil", nil)
	}
	out := make([]IndexedFrame, 0, len(src))
	cp := pal.Colors()
	for i, frame := range src {
		if frame == nil {
			return nil, services.Wrap(services.ErrInput, component, "quantize", fmt.Sprintf("frame %d is nil", i), nil)
		}
		b := frame.Bounds()
		dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), cp)
		transparent := false
		for y := 0; y < b.Dy(); y++ {
			so := frame.PixOffset(b.Min.X, b.Min.Y+y)
			do := dst.PixOffset(0, y)
			for x := 0; x < b.Dx(); x++ {
				px := frame.Pix[so+x*4 : so+x*4+4 : so+x*4+4]
				if px[3] == 0 {
					dst.Pix[do+x] = palette.TransparentIndex
					transparent = true
					continue
				}
				dst.Pix[do+x] = pal.Index(palette.RGB{R: px[0], G: px[1], B: px[2]})
			}
		}
		out = append(out, IndexedFrame{Image: dst, HasTransparency: transparent})
	}
	return out, nil
}

// EncodeGIF quantizes src onto a shared palette and writes an infinitely
// looping GIF.
func EncodeGIF(w io.Writer, src []*image.NRGBA, opts Options) (Stats, error) {
	if len(src) == 0 {
		return Stats{}, services.Wrap(services.ErrInput, component, "encode gif", "no frames", nil)
	}
	b := src[0].Bounds()
	if err := frames.Validate(src, b.Dx(), b.Dy()); err != nil {
		return Stats{}, err
	}
	if b.Dx() > 0xffff || b.Dy() > 0xffff {
		return Stats{}, services.Wrap(services.ErrInput, component, "encode gif",
			fmt.Sprintf("frame size %dx%d exceeds GIF limit", b.Dx(), b.Dy()), nil)
	}

	pal := palette.Build(src)
	indexed, err := Quantize(src, pal)
	if err != nil {
		return Stats{}, err
	}

	opaque := pal.Colors()
	keyed := make(color.Palette, len(opaque))
	copy(keyed, opaque)
	keyed[palette.TransparentIndex] = color.RGBA{}

	anim := &gif.GIF{
		LoopCount: 0,
		Config: image.Config{
			ColorModel: opaque,
			Width:      b.Dx(),
			Height:     b.Dy(),
		},
		BackgroundIndex: palette.TransparentIndex,
	}
	delay := opts.delay()
	for _, f := range indexed {
		img := f.Image
		// image/gif declares a transparency key for the first palette entry
		// with zero alpha, so only frames that used slot 0 get the keyed table.
		if f.HasTransparency {
			img.Palette = keyed
		} else {
			img.Palette = opaque
		}
		anim.Image = append(anim.Image, img)
		anim.Delay = append(anim.Delay, delay)
		anim.Disposal = append(anim.Disposal, gif.DisposalBackground)
	}

	if err := gif.EncodeAll(w, anim); err != nil {
		return Stats{}, services.Wrap(services.ErrIO, component, "encode gif", "", err)
	}
	return Stats{
		Frames:         len(indexed),
		PaletteSize:    pal.Len(),
		UniqueColors:   pal.Unique(),
		DroppedColors:  pal.Dropped(),
		RemappedColors: pal.Remapped(),
	}, nil
}

// EncodePNG writes a single frame as full-color PNG with alpha.
func EncodePNG(w io.Writer, frame *image.NRGBA) error {
	if frame == nil {
		return services.Wrap(services.ErrInput, component, "encode png", "frame is nil", nil)
	}
	if err := png.Encode(w, frame); err != nil {
		return services.Wrap(services.ErrIO, component, "encode png", "", err)
	}
	return nil
}

// EncodeWebP writes a single frame as lossless WebP with alpha.
func EncodeWebP(w io.Writer, frame *image.NRGBA) error {
	if frame == nil {
		return services.Wrap(services.ErrInput, component, "encode webp", "frame is nil", nil)
	}
	if err := nativewebp.Encode(w, frame, nil); err != nil {
		return services.Wrap(services.ErrIO, component, "encode webp", "", err)
	}
	return nil
}

// Encode writes src in the container chosen by ChooseFormat and returns it.
// Exactly one frame bypasses quantization entirely.
func Encode(w io.Writer, src []*image.NRGBA, opts Options) (Format, Stats, error) {
	if len(src) == 0 {
		return "", Stats{}, services.Wrap(services.ErrInput, component, "encode", "no frames", nil)
	}
	format := ChooseFormat(len(src), opts)
	switch format {
	case FormatWebP:
		return format, Stats{Frames: 1}, EncodeWebP(w, src[0])
	case FormatPNG:
		return format, Stats{Frames: 1}, EncodePNG(w, src[0])
	default:
		stats, err := EncodeGIF(w, src, opts)
		return format, stats, err
	}
}

// WriteFile encodes src to basePath plus the chosen extension, replacing any
// existing file atomically. It returns the path written.
func WriteFile(basePath string, src []*image.NRGBA, opts Options) (string, Stats, error) {
	if len(src) == 0 {
		return "", Stats{}, services.Wrap(services.ErrInput, component, "write", basePath, nil)
	}
	target := basePath + ChooseFormat(len(src), opts).Ext()
	var stats Stats
	err := fileutil.WriteAtomic(target, 0o644, func(w io.Writer) error {
		var encErr error
		_, stats, encErr = Encode(w, src, opts)
		return encErr
	})
	if err != nil {
		if services.Kind(err) == "unknown" {
			err = services.Wrap(services.ErrIO, component, "write", target, err)
		}
		return "", Stats{}, err
	}
	return target, stats, nil
}

// RemoveIfExists deletes path when present; used to clear a stale output of
// the other format (for example an old GIF after an animation shrinks to one
// frame).
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return services.Wrap(services.ErrIO, component, "remove stale output", path, err)
	}
	return nil
}
