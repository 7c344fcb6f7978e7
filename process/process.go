// Package process is the default image-processing collaborator: pure
// pixel transformations over the canonical 8-bit RGBA form.  The cache
// layer treats every function here as a deterministic black box.
package process

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"

	"github.com/Skryldev/pixelcache/core"
	apperrors "github.com/Skryldev/pixelcache/errors"
)

// Ops implements core.Ops.
type Ops struct {
	// Resampler controls resize quality vs speed.  Defaults to Lanczos.
	Resampler imaging.ResampleFilter
}

// New returns the default collaborator.
func New() *Ops { return &Ops{Resampler: imaging.Lanczos} }

// ── Resize ────────────────────────────────────────────────────────────────────

func (o *Ops) Resize(ctx context.Context, src *core.PixelBuffer, width, height int) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCompute, "resize", err)
	}
	px, err := src.NRGBA()
	if err != nil {
		return nil, err
	}
	out := imaging.Resize(px, width, height, o.Resampler)
	return core.BufferFromNRGBA(out), nil
}

// ── Crop ──────────────────────────────────────────────────────────────────────

func (o *Ops) Crop(ctx context.Context, src *core.PixelBuffer, box core.BoundingBox) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCompute, "crop", err)
	}
	px, err := src.NRGBA()
	if err != nil {
		return nil, err
	}
	out := imaging.Crop(px, box.Rect())
	return core.BufferFromNRGBA(out), nil
}

// ── Pad ───────────────────────────────────────────────────────────────────────

func (o *Ops) Pad(ctx context.Context, src *core.PixelBuffer, margin int, fill color.NRGBA) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCompute, "pad", err)
	}
	px, err := src.NRGBA()
	if err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(image.Rect(0, 0, src.Width+2*margin, src.Height+2*margin))
	xdraw.Draw(dst, dst.Bounds(), &image.Uniform{C: fill}, image.Point{}, xdraw.Src)
	xdraw.Draw(dst, px.Bounds().Add(image.Pt(margin, margin)), px, image.Point{}, xdraw.Src)
	return core.BufferFromNRGBA(dst), nil
}

// ── Blend ─────────────────────────────────────────────────────────────────────

// Blend composites overlay onto base: out = base*(1-alpha) + overlay*alpha.
// Operand sizes must match; the caller validates that before reaching here.
func (o *Ops) Blend(ctx context.Context, base, overlay *core.PixelBuffer, alpha float64) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCompute, "blend", err)
	}
	basePx, err := base.NRGBA()
	if err != nil {
		return nil, err
	}
	overlayPx, err := overlay.NRGBA()
	if err != nil {
		return nil, err
	}
	out := blend.Opacity(basePx, overlayPx, alpha)
	return core.BufferFromNRGBA(nrgbaOf(out)), nil
}

// ── Colour conversion ─────────────────────────────────────────────────────────

// Convert changes the colour model.  Grayscale uses the L* channel of the
// CIE Lab representation, so perceived lightness is preserved.
func (o *Ops) Convert(ctx context.Context, src *core.PixelBuffer, space core.ColorSpace) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCompute, "convert", err)
	}
	px, err := src.NRGBA()
	if err != nil {
		return nil, err
	}
	switch space {
	case core.ColorSpaceRGB:
		return core.BufferFromNRGBA(px), nil
	case core.ColorSpaceGray:
		dst := image.NewNRGBA(px.Bounds())
		for i := 0; i < len(px.Pix); i += 4 {
			c := colorful.Color{
				R: float64(px.Pix[i]) / 255.0,
				G: float64(px.Pix[i+1]) / 255.0,
				B: float64(px.Pix[i+2]) / 255.0,
			}
			l, _, _ := c.Lab()
			v := clamp8(math.Round(l * 255.0))
			dst.Pix[i] = v
			dst.Pix[i+1] = v
			dst.Pix[i+2] = v
			dst.Pix[i+3] = px.Pix[i+3]
		}
		return core.BufferFromNRGBA(dst), nil
	default:
		return nil, apperrors.New(apperrors.CategoryCompute, "convert",
			apperrors.ErrInvalidParameter)
	}
}

// ── Binarize ──────────────────────────────────────────────────────────────────

func (o *Ops) Binarize(ctx context.Context, src *core.PixelBuffer, threshold float64) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCompute, "binarize", err)
	}
	px, err := src.NRGBA()
	if err != nil {
		return nil, err
	}
	level := clamp8(math.Round(threshold * 255.0))
	gray := segment.Threshold(px, level)
	dst := image.NewNRGBA(gray.Bounds())
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			v := gray.GrayAt(x, y).Y
			off := dst.PixOffset(x, y)
			dst.Pix[off] = v
			dst.Pix[off+1] = v
			dst.Pix[off+2] = v
			dst.Pix[off+3] = 0xFF
		}
	}
	return core.BufferFromNRGBA(dst), nil
}

// ── Invert ────────────────────────────────────────────────────────────────────

func (o *Ops) Invert(ctx context.Context, src *core.PixelBuffer) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCompute, "invert", err)
	}
	px, err := src.NRGBA()
	if err != nil {
		return nil, err
	}
	out := imaging.Invert(px)
	return core.BufferFromNRGBA(out), nil
}

// ── Uncrop ────────────────────────────────────────────────────────────────────

// Uncrop pastes patch onto a copy of base at box.  Pixels outside the box
// are taken from base unchanged.
func (o *Ops) Uncrop(ctx context.Context, base, patch *core.PixelBuffer, box core.BoundingBox) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCompute, "uncrop", err)
	}
	basePx, err := base.NRGBA()
	if err != nil {
		return nil, err
	}
	patchPx, err := patch.NRGBA()
	if err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(basePx.Bounds())
	copy(dst.Pix, basePx.Pix)
	xdraw.Draw(dst, box.Rect(), patchPx, image.Point{}, xdraw.Src)
	return core.BufferFromNRGBA(dst), nil
}

// ── Grid ──────────────────────────────────────────────────────────────────────

// Grid assembles equally sized tiles into a cols-wide grid, row-major.
// Unfilled cells in the last row stay transparent.
func (o *Ops) Grid(ctx context.Context, tiles []*core.PixelBuffer, cols int) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCompute, "grid", err)
	}
	if len(tiles) == 0 || cols <= 0 {
		return nil, apperrors.New(apperrors.CategoryCompute, "grid",
			apperrors.ErrInvalidParameter)
	}
	tileW, tileH := tiles[0].Width, tiles[0].Height
	rows := (len(tiles) + cols - 1) / cols
	canvas := imaging.New(cols*tileW, rows*tileH, color.NRGBA{})
	for i, tile := range tiles {
		px, err := tile.NRGBA()
		if err != nil {
			return nil, err
		}
		pos := image.Pt((i%cols)*tileW, (i/cols)*tileH)
		canvas = imaging.Paste(canvas, px, pos)
	}
	return core.BufferFromNRGBA(canvas), nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nrgbaOf(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, bounds.Min, xdraw.Src)
	return dst
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

var _ core.Ops = (*Ops)(nil)
