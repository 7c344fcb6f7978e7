package array

import (
	"errors"
	"math"
	"testing"

	"github.com/Skryldev/pixelcache/core"
	apperrors "github.com/Skryldev/pixelcache/errors"
)

func TestNew_Validates(t *testing.T) {
	if _, err := New(2, 2, 4, make([]float32, 16)); err != nil {
		t.Fatalf("valid shape rejected: %v", err)
	}
	if _, err := New(2, 2, 4, make([]float32, 15)); !errors.Is(err, apperrors.ErrMalformedBuffer) {
		t.Errorf("short data: got %v, want ErrMalformedBuffer", err)
	}
	if _, err := New(-1, 2, 4, nil); !errors.Is(err, apperrors.ErrMalformedBuffer) {
		t.Errorf("negative width: got %v, want ErrMalformedBuffer", err)
	}
}

func TestRoundTrip_Uint8Exact(t *testing.T) {
	// Every byte value must survive uint8 → float32 → uint8 unchanged.
	w, h := 16, 16
	pix := make([]byte, w*h*4)
	for i := range pix {
		pix[i] = byte(i % 256)
	}
	buf := &core.PixelBuffer{Width: w, Height: h, Channels: 4, DType: core.DTypeUint8, Pix: pix}

	a := NewAdapter()
	backing, err := a.FromCanonical(buf)
	if err != nil {
		t.Fatalf("FromCanonical: %v", err)
	}
	back, err := a.ToCanonical(backing)
	if err != nil {
		t.Fatalf("ToCanonical: %v", err)
	}

	for i := range pix {
		if back.Pix[i] != pix[i] {
			t.Fatalf("byte %d: got %d, want %d", i, back.Pix[i], pix[i])
		}
	}
}

func TestFromCanonical_PlanarLayout(t *testing.T) {
	// One pixel per corner of a 2x1 image: interleaved RGBA must land in
	// channel-major planes.
	buf := &core.PixelBuffer{
		Width: 2, Height: 1, Channels: 4, DType: core.DTypeUint8,
		Pix: []byte{255, 0, 0, 255 /* red */, 0, 255, 0, 128 /* green */},
	}
	backing, err := NewAdapter().FromCanonical(buf)
	if err != nil {
		t.Fatalf("FromCanonical: %v", err)
	}
	img := backing.(*Image)

	cases := []struct {
		x, y, c int
		want    float32
	}{
		{0, 0, 0, 1.0},         // R plane, first pixel
		{1, 0, 0, 0.0},         // R plane, second pixel
		{1, 0, 1, 1.0},         // G plane
		{0, 0, 3, 1.0},         // A plane
		{1, 0, 3, 128.0 / 255}, // A plane, half-transparent
	}
	for _, tc := range cases {
		if got := img.At(tc.x, tc.y, tc.c); math.Abs(float64(got-tc.want)) > Epsilon {
			t.Errorf("At(%d,%d,%d): got %v, want %v", tc.x, tc.y, tc.c, got, tc.want)
		}
	}
}

func TestToCanonical_ClampsOutOfRange(t *testing.T) {
	data := make([]float32, 4) // one pixel
	data[0] = 1.5              // R overshoots
	data[1] = -0.25            // G undershoots
	data[2] = 0.5
	data[3] = 1.0
	img, err := New(1, 1, 4, data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	buf, err := NewAdapter().ToCanonical(img)
	if err != nil {
		t.Fatalf("ToCanonical: %v", err)
	}
	want := []byte{255, 0, 128, 255}
	for i, b := range want {
		if buf.Pix[i] != b {
			t.Errorf("channel %d: got %d, want %d", i, buf.Pix[i], b)
		}
	}
}

func TestToCanonical_RejectsNonRGBA(t *testing.T) {
	img, err := New(2, 2, 3, make([]float32, 12))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := NewAdapter().ToCanonical(img); !errors.Is(err, apperrors.ErrMalformedBuffer) {
		t.Errorf("3-channel array: got %v, want ErrMalformedBuffer", err)
	}
}

func TestFromCanonical_RejectsFloatBuffer(t *testing.T) {
	buf := &core.PixelBuffer{
		Width: 1, Height: 1, Channels: 4, DType: core.DTypeFloat32,
		Pix: make([]byte, 16),
	}
	if _, err := NewAdapter().FromCanonical(buf); !errors.Is(err, apperrors.ErrMalformedBuffer) {
		t.Errorf("float32 buffer: got %v, want ErrMalformedBuffer", err)
	}
}
