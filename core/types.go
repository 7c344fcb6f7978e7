package core

import (
	"fmt"
	"image"

	apperrors "github.com/Skryldev/pixelcache/errors"
)

// BackendKind identifies a concrete backing representation.  The set is
// closed: dispatch goes through the adapter registry, never open-ended
// runtime type inspection.
type BackendKind string

const (
	KindBitmap BackendKind = "bitmap" // decoded image.Image pixels
	KindArray  BackendKind = "array"  // planar float32 numeric array
	KindVips   BackendKind = "vips"   // native libvips image (optional, cgo)
)

// DType tags the element type of a PixelBuffer.
type DType uint8

const (
	DTypeUint8 DType = iota
	DTypeFloat32
)

// Size returns the element size in bytes.
func (d DType) Size() int {
	if d == DTypeFloat32 {
		return 4
	}
	return 1
}

func (d DType) String() string {
	if d == DTypeFloat32 {
		return "float32"
	}
	return "uint8"
}

// PixelBuffer is the backend-neutral description of image content used for
// fingerprinting and as the interchange form between adapters and the
// processing collaborator.  Bytes are interleaved, row-major, top-left
// origin; float32 elements are little-endian.  A buffer is immutable once
// built and never persisted.
type PixelBuffer struct {
	Width    int
	Height   int
	Channels int
	DType    DType
	Pix      []byte
}

// Validate reports ErrMalformedBuffer when the shape/dtype metadata is
// inconsistent with the byte length.
func (b *PixelBuffer) Validate() error {
	if b.Width < 0 || b.Height < 0 || b.Channels < 0 {
		return apperrors.New(apperrors.CategoryBuffer, "buffer.validate",
			fmt.Errorf("%w: negative dimension %dx%dx%d",
				apperrors.ErrMalformedBuffer, b.Width, b.Height, b.Channels))
	}
	want := b.Width * b.Height * b.Channels * b.DType.Size()
	if len(b.Pix) != want {
		return apperrors.New(apperrors.CategoryBuffer, "buffer.validate",
			fmt.Errorf("%w: %d bytes for %dx%dx%d %s (want %d)",
				apperrors.ErrMalformedBuffer, len(b.Pix),
				b.Width, b.Height, b.Channels, b.DType, want))
	}
	return nil
}

// Size returns the buffer dimensions.
func (b *PixelBuffer) Size() ImageSize { return ImageSize{Width: b.Width, Height: b.Height} }

// NRGBA materialises the canonical 8-bit RGBA form as an *image.NRGBA.
// Only valid for DTypeUint8 buffers with four channels.
func (b *PixelBuffer) NRGBA() (*image.NRGBA, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.DType != DTypeUint8 || b.Channels != 4 {
		return nil, apperrors.New(apperrors.CategoryBuffer, "buffer.nrgba",
			fmt.Errorf("%w: %d-channel %s buffer is not canonical RGBA",
				apperrors.ErrMalformedBuffer, b.Channels, b.DType))
	}
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img, nil
}

// BufferFromNRGBA builds a canonical 8-bit RGBA buffer from img, copying
// the pixel rows so the buffer never aliases the source storage.
func BufferFromNRGBA(img *image.NRGBA) *PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		copy(pix[y*w*4:], row)
	}
	return &PixelBuffer{Width: w, Height: h, Channels: 4, DType: DTypeUint8, Pix: pix}
}

// ImageSize is a width/height pair.
type ImageSize struct {
	Width  int
	Height int
}

func (s ImageSize) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// BoundingBox is a half-open pixel rectangle [X0,X1) x [Y0,Y1).
type BoundingBox struct {
	X0, Y0, X1, Y1 int
}

// Width returns the box width in pixels.
func (b BoundingBox) Width() int { return b.X1 - b.X0 }

// Height returns the box height in pixels.
func (b BoundingBox) Height() int { return b.Y1 - b.Y0 }

// Size returns the box dimensions.
func (b BoundingBox) Size() ImageSize { return ImageSize{Width: b.Width(), Height: b.Height()} }

// Rect converts the box to an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle { return image.Rect(b.X0, b.Y0, b.X1, b.Y1) }

// ValidateWithin reports ErrInvalidParameter when the box is empty,
// inverted, or exceeds the given image size.
func (b BoundingBox) ValidateWithin(s ImageSize) error {
	if b.X0 < 0 || b.Y0 < 0 || b.X1 <= b.X0 || b.Y1 <= b.Y0 ||
		b.X1 > s.Width || b.Y1 > s.Height {
		return apperrors.New(apperrors.CategoryValidation, "box.validate",
			fmt.Errorf("%w: box (%d,%d)-(%d,%d) within %s",
				apperrors.ErrInvalidParameter, b.X0, b.Y0, b.X1, b.Y1, s))
	}
	return nil
}

// ColorSpace names a target colour model for conversions.
type ColorSpace string

const (
	ColorSpaceRGB  ColorSpace = "rgb"
	ColorSpaceGray ColorSpace = "gray"
)
