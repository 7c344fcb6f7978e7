package utils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestScaleDimensions(t *testing.T) {
	cases := []struct {
		name             string
		srcW, srcH       int
		targetW, targetH int
		wantW, wantH     int
	}{
		{"explicit both", 800, 600, 400, 300, 400, 300},
		{"height from width", 800, 600, 400, 0, 400, 300},
		{"width from height", 800, 600, 0, 300, 400, 300},
		{"both zero keeps source", 800, 600, 0, 0, 800, 600},
		{"upscale", 100, 50, 0, 100, 200, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := ScaleDimensions(tc.srcW, tc.srcH, tc.targetW, tc.targetH)
			if w != tc.wantW || h != tc.wantH {
				t.Errorf("got %dx%d, want %dx%d", w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, "png"},
		{"gif", []byte("GIF89a"), "gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp"},
		{"garbage", []byte("hello world"), "unknown"},
		{"too short", []byte{0xFF}, "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectFormat(tc.data); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDrainReader(t *testing.T) {
	payload := strings.Repeat("abcdefgh", 1000)
	buf, err := DrainReader(context.Background(), strings.NewReader(payload), 64)
	if err != nil {
		t.Fatalf("DrainReader: %v", err)
	}
	defer ReleaseBuffer(buf)
	if buf.String() != payload {
		t.Errorf("drained %d bytes, want %d", buf.Len(), len(payload))
	}
}

func TestDrainReader_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DrainReader(ctx, strings.NewReader("data"), 2); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestLimitedReader(t *testing.T) {
	src := bytes.Repeat([]byte{0xAB}, 100)

	lr := &LimitedReader{R: bytes.NewReader(src), Max: 40}
	got, err := io.ReadAll(lr)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("over-limit read: got %v, want io.ErrUnexpectedEOF", err)
	}
	if len(got) != 40 {
		t.Errorf("read %d bytes before limit, want 40", len(got))
	}

	// Max 0 means unlimited.
	lr = &LimitedReader{R: bytes.NewReader(src)}
	got, err = io.ReadAll(lr)
	if err != nil {
		t.Fatalf("unlimited read: %v", err)
	}
	if len(got) != 100 {
		t.Errorf("read %d bytes, want 100", len(got))
	}
}

func TestCloneBytes(t *testing.T) {
	src := []byte{1, 2, 3}
	clone := CloneBytes(src)
	src[0] = 99
	if clone[0] != 1 {
		t.Error("clone aliases the source")
	}
}
