// Package array adapts a planar float32 numeric array to the canonical
// buffer form.  The layout is channel-major (CHW): Data[c*W*H + y*W + x],
// with channel values normalized to [0, 1].
//
// The scaling between the 8-bit canonical form and the float backing is
// fixed and documented: f = u/255 on the way in, u = round(f*255) clamped
// to [0, 255] on the way out.  Round-tripping uint8 → float32 → uint8 is
// therefore exact; comparisons between float values use Epsilon.
package array

import (
	"fmt"
	"math"

	"github.com/Skryldev/pixelcache/core"
	apperrors "github.com/Skryldev/pixelcache/errors"
)

// Epsilon is the tolerance for float round-trip equivalence: half of one
// 8-bit quantization step.
const Epsilon = 1.0 / 510.0

// Image is the array backing: four planar float32 channels (RGBA order).
type Image struct {
	W, H, C int
	Data    []float32
}

// New builds an array backing from planar data.  The slice is used
// directly; callers hand over ownership.
func New(w, h, c int, data []float32) (*Image, error) {
	if w < 0 || h < 0 || c <= 0 || len(data) != w*h*c {
		return nil, apperrors.New(apperrors.CategoryBuffer, "array.new",
			fmt.Errorf("%w: %d floats for %dx%dx%d",
				apperrors.ErrMalformedBuffer, len(data), w, h, c))
	}
	return &Image{W: w, H: h, C: c, Data: data}, nil
}

func (i *Image) Kind() core.BackendKind { return core.KindArray }

func (i *Image) Size() core.ImageSize { return core.ImageSize{Width: i.W, Height: i.H} }

// At returns the normalized value of channel c at (x, y).
func (i *Image) At(x, y, c int) float32 { return i.Data[c*i.W*i.H+y*i.W+x] }

// ── Adapter ───────────────────────────────────────────────────────────────────

// Adapter converts between array backings and canonical buffers.
type Adapter struct{}

// NewAdapter returns the array adapter.
func NewAdapter() *Adapter { return &Adapter{} }

func (a *Adapter) Kind() core.BackendKind { return core.KindArray }

func (a *Adapter) ToCanonical(b core.Backing) (*core.PixelBuffer, error) {
	img, ok := b.(*Image)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryBackend, "array.to_canonical",
			fmt.Errorf("%w: %s backing passed to array adapter",
				apperrors.ErrUnsupportedBackend, b.Kind()))
	}
	if img.C != 4 {
		return nil, apperrors.New(apperrors.CategoryBuffer, "array.to_canonical",
			fmt.Errorf("%w: %d channels (canonical form needs 4)",
				apperrors.ErrMalformedBuffer, img.C))
	}
	plane := img.W * img.H
	pix := make([]byte, plane*4)
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			off := (y*img.W + x) * 4
			for c := 0; c < 4; c++ {
				pix[off+c] = quantize(img.Data[c*plane+y*img.W+x])
			}
		}
	}
	return &core.PixelBuffer{
		Width: img.W, Height: img.H, Channels: 4,
		DType: core.DTypeUint8, Pix: pix,
	}, nil
}

func (a *Adapter) FromCanonical(buf *core.PixelBuffer) (core.Backing, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if buf.DType != core.DTypeUint8 || buf.Channels != 4 {
		return nil, apperrors.New(apperrors.CategoryBuffer, "array.from_canonical",
			fmt.Errorf("%w: %d-channel %s buffer is not canonical RGBA",
				apperrors.ErrMalformedBuffer, buf.Channels, buf.DType))
	}
	plane := buf.Width * buf.Height
	data := make([]float32, plane*4)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			off := (y*buf.Width + x) * 4
			for c := 0; c < 4; c++ {
				data[c*plane+y*buf.Width+x] = float32(buf.Pix[off+c]) / 255.0
			}
		}
	}
	return &Image{W: buf.Width, H: buf.Height, C: 4, Data: data}, nil
}

// quantize maps a normalized value back to 8 bits, clamping out-of-range
// inputs rather than wrapping.
func quantize(v float32) byte {
	s := math.Round(float64(v) * 255.0)
	if s < 0 {
		return 0
	}
	if s > 255 {
		return 255
	}
	return byte(s)
}

var _ core.Backing = (*Image)(nil)
var _ core.Adapter = (*Adapter)(nil)
