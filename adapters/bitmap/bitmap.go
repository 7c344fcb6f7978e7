// Package bitmap adapts decoded image.Image pixels to the canonical
// buffer form.  This is the default backend for images loaded from files,
// URLs, and raw bytes.
package bitmap

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/Skryldev/pixelcache/core"
	apperrors "github.com/Skryldev/pixelcache/errors"
)

// Image is the bitmap backing: an 8-bit RGBA pixel grid.  It owns its
// storage exclusively; construct one with FromImage, which always copies.
type Image struct {
	px *image.NRGBA
}

// FromImage converts any image.Image into a bitmap backing, copying the
// pixels into non-premultiplied RGBA.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return &Image{px: dst}
}

func (i *Image) Kind() core.BackendKind { return core.KindBitmap }

func (i *Image) Size() core.ImageSize {
	b := i.px.Bounds()
	return core.ImageSize{Width: b.Dx(), Height: b.Dy()}
}

// NRGBA returns a copy of the pixel grid.  The backing's own storage is
// never handed out.
func (i *Image) NRGBA() *image.NRGBA {
	clone := image.NewNRGBA(i.px.Bounds())
	copy(clone.Pix, i.px.Pix)
	return clone
}

// ── Adapter ───────────────────────────────────────────────────────────────────

// Adapter converts between bitmap backings and canonical buffers.
type Adapter struct{}

// NewAdapter returns the bitmap adapter.
func NewAdapter() *Adapter { return &Adapter{} }

func (a *Adapter) Kind() core.BackendKind { return core.KindBitmap }

func (a *Adapter) ToCanonical(b core.Backing) (*core.PixelBuffer, error) {
	img, ok := b.(*Image)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryBackend, "bitmap.to_canonical",
			fmt.Errorf("%w: %s backing passed to bitmap adapter",
				apperrors.ErrUnsupportedBackend, b.Kind()))
	}
	return core.BufferFromNRGBA(img.px), nil
}

func (a *Adapter) FromCanonical(buf *core.PixelBuffer) (core.Backing, error) {
	px, err := buf.NRGBA()
	if err != nil {
		return nil, err
	}
	return &Image{px: px}, nil
}

var _ core.Backing = (*Image)(nil)
var _ core.Adapter = (*Adapter)(nil)
