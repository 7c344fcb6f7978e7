package core

import (
	"context"
	"image/color"
	"time"
)

// Backing is one concrete in-memory representation of image content.
// Implementations live in adapters/ and are treated as immutable: a
// transformation never writes into an existing backing.
type Backing interface {
	Kind() BackendKind
	Size() ImageSize
}

// Adapter converts between one backing representation and the canonical
// pixel buffer.  Both directions are pure: no side effects, and the
// returned value never aliases the input's storage.  ToCanonical always
// produces the canonical hashing form (8-bit RGBA interleaved) so that
// fingerprints are independent of which backend produced the pixels.
type Adapter interface {
	Kind() BackendKind
	ToCanonical(b Backing) (*PixelBuffer, error)
	FromCanonical(buf *PixelBuffer) (Backing, error)
}

// Ops is the external image-processing collaborator.  Every method is a
// pure function (buffer, params) -> buffer over the canonical form; the
// cache layer around it assumes determinism.  Implementations must honour
// ctx cancellation before starting work.
type Ops interface {
	Resize(ctx context.Context, src *PixelBuffer, width, height int) (*PixelBuffer, error)
	Crop(ctx context.Context, src *PixelBuffer, box BoundingBox) (*PixelBuffer, error)
	Pad(ctx context.Context, src *PixelBuffer, margin int, fill color.NRGBA) (*PixelBuffer, error)
	Blend(ctx context.Context, base, overlay *PixelBuffer, alpha float64) (*PixelBuffer, error)
	Convert(ctx context.Context, src *PixelBuffer, space ColorSpace) (*PixelBuffer, error)
	Binarize(ctx context.Context, src *PixelBuffer, threshold float64) (*PixelBuffer, error)
	Invert(ctx context.Context, src *PixelBuffer) (*PixelBuffer, error)
	Uncrop(ctx context.Context, base, patch *PixelBuffer, box BoundingBox) (*PixelBuffer, error)
	Grid(ctx context.Context, tiles []*PixelBuffer, cols int) (*PixelBuffer, error)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// CacheHook is an optional observer invoked around cache operations.
// Keys are passed in their textual form.
type CacheHook interface {
	OnHit(key string)
	OnMiss(key string)
	OnStore(key string, computeTime time.Duration)
	OnEvict(key string)
}

// Registry maps BackendKind values to Adapter implementations.
type Registry interface {
	AdapterFor(kind BackendKind) (Adapter, bool)
	Register(a Adapter)
	Kinds() []BackendKind
}
