package pixelcache

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/Skryldev/pixelcache/core"
	apperrors "github.com/Skryldev/pixelcache/errors"
	"github.com/Skryldev/pixelcache/fingerprint"
	"github.com/Skryldev/pixelcache/utils"
)

// HashableImage wraps exactly one backing representation.  Content is
// immutable: every transformation returns a new value, and the fingerprint
// is computed at most once.  Equality and ordering are defined entirely by
// fingerprint, never by object identity.
type HashableImage struct {
	eng     *Engine
	backing core.Backing

	mu   sync.Mutex
	fpOK bool
	fp   fingerprint.Fingerprint
}

func (e *Engine) newImage(b core.Backing) *HashableImage {
	return &HashableImage{eng: e, backing: b}
}

// Kind returns the current backing representation's kind.
func (img *HashableImage) Kind() core.BackendKind { return img.backing.Kind() }

// Size returns the image dimensions.
func (img *HashableImage) Size() core.ImageSize { return img.backing.Size() }

// Backing exposes the underlying representation for advanced use.
// Treat it as read-only.
func (img *HashableImage) Backing() core.Backing { return img.backing }

// Fingerprint returns the content digest, computing it on first use.
// The digest depends only on pixel content, not on the backing kind.
func (img *HashableImage) Fingerprint() (fingerprint.Fingerprint, error) {
	img.mu.Lock()
	defer img.mu.Unlock()
	if img.fpOK {
		return img.fp, nil
	}
	buf, err := img.canonical()
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	img.fp = fingerprint.OfBuffer(buf)
	img.fpOK = true
	return img.fp, nil
}

// Hash projects the fingerprint onto a native integer for use in hashing
// contexts.
func (img *HashableImage) Hash() (uint64, error) {
	fp, err := img.Fingerprint()
	if err != nil {
		return 0, err
	}
	return fp.Uint64(), nil
}

// Equal reports whether both images hold identical pixel content,
// regardless of backing representation.
func (img *HashableImage) Equal(other *HashableImage) (bool, error) {
	a, err := img.Fingerprint()
	if err != nil {
		return false, err
	}
	b, err := other.Fingerprint()
	if err != nil {
		return false, err
	}
	return a == b, nil
}

// To converts the image to another backing representation, copying the
// pixels into a new backing; the original is never aliased.  The content
// fingerprint carries over unchanged.
func (img *HashableImage) To(kind core.BackendKind) (*HashableImage, error) {
	if kind == img.backing.Kind() {
		return img, nil
	}
	buf, err := img.canonical()
	if err != nil {
		return nil, err
	}
	adapter, ok := img.eng.reg.AdapterFor(kind)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryBackend, "convert",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedBackend, kind))
	}
	backing, err := adapter.FromCanonical(buf)
	if err != nil {
		return nil, err
	}
	out := img.eng.newImage(backing)
	// Same content, same digest: seed it if already known.
	img.mu.Lock()
	if img.fpOK {
		out.fp, out.fpOK = img.fp, true
	}
	img.mu.Unlock()
	return out, nil
}

// ToBitmap converts to the bitmap backend.
func (img *HashableImage) ToBitmap() (*HashableImage, error) { return img.To(core.KindBitmap) }

// ToArray converts to the planar float32 array backend.
func (img *HashableImage) ToArray() (*HashableImage, error) { return img.To(core.KindArray) }

// ToVips converts to the libvips backend.  Fails with UnsupportedBackend
// unless the vips adapter has been registered.
func (img *HashableImage) ToVips() (*HashableImage, error) { return img.To(core.KindVips) }

// ToImage materialises the pixel content as a standalone image.NRGBA.
func (img *HashableImage) ToImage() (*image.NRGBA, error) {
	buf, err := img.canonical()
	if err != nil {
		return nil, err
	}
	return buf.NRGBA()
}

// ── Transformations ───────────────────────────────────────────────────────────
//
// Each operation validates its parameters first (failing calls never touch
// the cache), derives a key from the operand fingerprints plus the
// operation id and canonicalized parameters, and memoizes the result.

// Resize scales the image to the given dimensions.  Pass 0 for one axis
// to preserve the aspect ratio.
func (img *HashableImage) Resize(ctx context.Context, width, height int) (*HashableImage, error) {
	if width < 0 || height < 0 || (width == 0 && height == 0) {
		return nil, apperrors.New(apperrors.CategoryValidation, "resize",
			fmt.Errorf("%w: %dx%d", apperrors.ErrInvalidParameter, width, height))
	}
	sz := img.backing.Size()
	w, h := utils.ScaleDimensions(sz.Width, sz.Height, width, height)
	if w <= 0 || h <= 0 {
		return nil, apperrors.New(apperrors.CategoryValidation, "resize",
			fmt.Errorf("%w: resolved target %dx%d", apperrors.ErrInvalidParameter, w, h))
	}
	return img.transform(ctx, "resize",
		map[string]any{"width": w, "height": h}, nil,
		func(ctx context.Context, ops core.Ops, bufs []*core.PixelBuffer) (*core.PixelBuffer, error) {
			return ops.Resize(ctx, bufs[0], w, h)
		})
}

// Crop extracts the pixels inside box.
func (img *HashableImage) Crop(ctx context.Context, box core.BoundingBox) (*HashableImage, error) {
	if err := box.ValidateWithin(img.backing.Size()); err != nil {
		return nil, err
	}
	return img.transform(ctx, "crop",
		map[string]any{"x0": box.X0, "y0": box.Y0, "x1": box.X1, "y1": box.Y1}, nil,
		func(ctx context.Context, ops core.Ops, bufs []*core.PixelBuffer) (*core.PixelBuffer, error) {
			return ops.Crop(ctx, bufs[0], box)
		})
}

// Pad surrounds the image with a margin of fill pixels on every side.
func (img *HashableImage) Pad(ctx context.Context, margin int, fill color.NRGBA) (*HashableImage, error) {
	if margin < 0 {
		return nil, apperrors.New(apperrors.CategoryValidation, "pad",
			fmt.Errorf("%w: negative margin %d", apperrors.ErrInvalidParameter, margin))
	}
	return img.transform(ctx, "pad",
		map[string]any{"margin": margin, "fill": []int{int(fill.R), int(fill.G), int(fill.B), int(fill.A)}}, nil,
		func(ctx context.Context, ops core.Ops, bufs []*core.PixelBuffer) (*core.PixelBuffer, error) {
			return ops.Pad(ctx, bufs[0], margin, fill)
		})
}

// Blend composites other onto the receiver with the given opacity:
// out = self*(1-alpha) + other*alpha.  Both operands must have equal
// dimensions.
func (img *HashableImage) Blend(ctx context.Context, other *HashableImage, alpha float64) (*HashableImage, error) {
	if alpha < 0 || alpha > 1 {
		return nil, apperrors.New(apperrors.CategoryValidation, "blend",
			fmt.Errorf("%w: alpha %v outside [0,1]", apperrors.ErrInvalidParameter, alpha))
	}
	if img.backing.Size() != other.backing.Size() {
		return nil, apperrors.New(apperrors.CategoryValidation, "blend",
			fmt.Errorf("%w: %s vs %s", apperrors.ErrSizeMismatch,
				img.backing.Size(), other.backing.Size()))
	}
	return img.transform(ctx, "blend",
		map[string]any{"alpha": alpha}, []*HashableImage{other},
		func(ctx context.Context, ops core.Ops, bufs []*core.PixelBuffer) (*core.PixelBuffer, error) {
			return ops.Blend(ctx, bufs[0], bufs[1], alpha)
		})
}

// Convert changes the colour model (core.ColorSpaceRGB, core.ColorSpaceGray).
func (img *HashableImage) Convert(ctx context.Context, space core.ColorSpace) (*HashableImage, error) {
	switch space {
	case core.ColorSpaceRGB, core.ColorSpaceGray:
	default:
		return nil, apperrors.New(apperrors.CategoryValidation, "convert",
			fmt.Errorf("%w: colour space %q", apperrors.ErrInvalidParameter, space))
	}
	return img.transform(ctx, "convert",
		map[string]any{"space": string(space)}, nil,
		func(ctx context.Context, ops core.Ops, bufs []*core.PixelBuffer) (*core.PixelBuffer, error) {
			return ops.Convert(ctx, bufs[0], space)
		})
}

// Binarize thresholds the image at the given level in [0,1]: pixels at or
// above the level become white, the rest black.
func (img *HashableImage) Binarize(ctx context.Context, threshold float64) (*HashableImage, error) {
	if threshold < 0 || threshold > 1 {
		return nil, apperrors.New(apperrors.CategoryValidation, "binarize",
			fmt.Errorf("%w: threshold %v outside [0,1]", apperrors.ErrInvalidParameter, threshold))
	}
	return img.transform(ctx, "binarize",
		map[string]any{"threshold": threshold}, nil,
		func(ctx context.Context, ops core.Ops, bufs []*core.PixelBuffer) (*core.PixelBuffer, error) {
			return ops.Binarize(ctx, bufs[0], threshold)
		})
}

// Invert negates every colour channel.
func (img *HashableImage) Invert(ctx context.Context) (*HashableImage, error) {
	return img.transform(ctx, "invert", nil, nil,
		func(ctx context.Context, ops core.Ops, bufs []*core.PixelBuffer) (*core.PixelBuffer, error) {
			return ops.Invert(ctx, bufs[0])
		})
}

// Uncrop pastes the receiver (a patch) onto a copy of base at box.  The
// patch dimensions must equal the box dimensions, and the box must lie
// within base.
func (img *HashableImage) Uncrop(ctx context.Context, base *HashableImage, box core.BoundingBox) (*HashableImage, error) {
	if err := box.ValidateWithin(base.backing.Size()); err != nil {
		return nil, err
	}
	if img.backing.Size() != box.Size() {
		return nil, apperrors.New(apperrors.CategoryValidation, "uncrop",
			fmt.Errorf("%w: patch %s vs box %s", apperrors.ErrSizeMismatch,
				img.backing.Size(), box.Size()))
	}
	return img.transform(ctx, "uncrop",
		map[string]any{"x0": box.X0, "y0": box.Y0, "x1": box.X1, "y1": box.Y1},
		[]*HashableImage{base},
		func(ctx context.Context, ops core.Ops, bufs []*core.PixelBuffer) (*core.PixelBuffer, error) {
			return ops.Uncrop(ctx, bufs[1], bufs[0], box)
		})
}

// ── internals ─────────────────────────────────────────────────────────────────

// canonical produces the canonical pixel buffer view of the backing.
// Callers own the result; it never aliases the backing's storage.
func (img *HashableImage) canonical() (*core.PixelBuffer, error) {
	adapter, ok := img.eng.reg.AdapterFor(img.backing.Kind())
	if !ok {
		return nil, apperrors.New(apperrors.CategoryBackend, "canonical",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedBackend, img.backing.Kind()))
	}
	return adapter.ToCanonical(img.backing)
}

// transform runs one memoized operation: key from operand fingerprints +
// op id + canonical params, then compute-on-miss under single flight.
// The result keeps the receiver's backing kind.
func (img *HashableImage) transform(
	ctx context.Context,
	op string,
	params any,
	others []*HashableImage,
	fn func(context.Context, core.Ops, []*core.PixelBuffer) (*core.PixelBuffer, error),
) (*HashableImage, error) {
	selfFP, err := img.Fingerprint()
	if err != nil {
		return nil, err
	}
	extras := make([]fingerprint.Fingerprint, len(others))
	for i, o := range others {
		if extras[i], err = o.Fingerprint(); err != nil {
			return nil, err
		}
	}
	key, err := fingerprint.Combine(selfFP, op, params, extras...)
	if err != nil {
		return nil, err
	}

	v, err := img.eng.cache.GetOrCompute(key, func() (any, error) {
		operands := append([]*HashableImage{img}, others...)
		bufs := make([]*core.PixelBuffer, len(operands))
		for i, operand := range operands {
			buf, err := operand.canonical()
			if err != nil {
				return nil, err
			}
			bufs[i] = buf
		}
		out, err := fn(ctx, img.eng.ops, bufs)
		if err != nil {
			return nil, apperrors.New(apperrors.CategoryCompute, op,
				fmt.Errorf("%w: %w", apperrors.ErrComputationFailed, err))
		}
		adapter, ok := img.eng.reg.AdapterFor(img.backing.Kind())
		if !ok {
			return nil, apperrors.New(apperrors.CategoryBackend, op,
				fmt.Errorf("%w: %s", apperrors.ErrUnsupportedBackend, img.backing.Kind()))
		}
		backing, err := adapter.FromCanonical(out)
		if err != nil {
			return nil, err
		}
		return img.eng.newImage(backing), nil
	})
	if err != nil {
		return nil, err
	}
	img.eng.debugf("pixelcache.op", "op", op, "key", key.String())
	return v.(*HashableImage), nil
}
