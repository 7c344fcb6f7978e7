//go:build cgo

// Package vips adapts native libvips images to the canonical buffer form.
// The backend is optional (cgo): register it explicitly with Register, the
// same way the stdlib backends are wired by default.
package vips

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/pixelcache/core"
	apperrors "github.com/Skryldev/pixelcache/errors"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	MaxCacheSize int
	MaxWorkers   int
	ReportLeaks  bool
}

// Backend owns the libvips runtime.  Safe for concurrent use across
// goroutines.
type Backend struct {
	cfg BackendConfig
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: cfg.MaxWorkers,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources.  Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// ── Backing ───────────────────────────────────────────────────────────────────

// Image wraps a *govips.ImageRef as a backing representation.
type Image struct {
	ref *govips.ImageRef
}

// FromRef wraps ref as a backing and attaches a finalizer that releases
// the native image.
func FromRef(ref *govips.ImageRef) *Image {
	runtime.SetFinalizer(ref, func(r *govips.ImageRef) { r.Close() })
	return &Image{ref: ref}
}

func (i *Image) Kind() core.BackendKind { return core.KindVips }

func (i *Image) Size() core.ImageSize {
	return core.ImageSize{Width: i.ref.Width(), Height: i.ref.Height()}
}

// Ref exposes the underlying libvips image for advanced use.
func (i *Image) Ref() *govips.ImageRef { return i.ref }

// ── Adapter ───────────────────────────────────────────────────────────────────

// Adapter converts between libvips backings and canonical buffers.  The
// interchange goes through lossless PNG, so the 8-bit round-trip is exact.
type Adapter struct{}

// NewAdapter returns the vips adapter.
func NewAdapter() *Adapter { return &Adapter{} }

func (a *Adapter) Kind() core.BackendKind { return core.KindVips }

func (a *Adapter) ToCanonical(b core.Backing) (*core.PixelBuffer, error) {
	img, ok := b.(*Image)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryBackend, "vips.to_canonical",
			fmt.Errorf("%w: %s backing passed to vips adapter",
				apperrors.ErrUnsupportedBackend, b.Kind()))
	}
	raw, _, err := img.ref.ExportPng(govips.NewPngExportParams())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryBackend, "vips.to_canonical", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryBackend, "vips.to_canonical", err)
	}
	return core.BufferFromNRGBA(nrgbaOf(decoded)), nil
}

func (a *Adapter) FromCanonical(buf *core.PixelBuffer) (core.Backing, error) {
	px, err := buf.NRGBA()
	if err != nil {
		return nil, err
	}
	var enc bytes.Buffer
	if err := png.Encode(&enc, px); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryBackend, "vips.from_canonical", err)
	}
	ref, err := govips.NewImageFromBuffer(enc.Bytes())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryBackend, "vips.from_canonical", err)
	}
	return FromRef(ref), nil
}

func nrgbaOf(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}

// Register wires the vips adapter into a registry.
func Register(reg core.Registry, _ *Backend) {
	reg.Register(NewAdapter())
}

var _ core.Backing = (*Image)(nil)
var _ core.Adapter = (*Adapter)(nil)
