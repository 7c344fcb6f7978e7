// Package fingerprint derives fixed-width, collision-resistant content
// digests for canonical pixel buffers and for (content, operation, params)
// cache keys.  All digests are deterministic across process restarts: no
// randomized seeds, and parameters are canonically encoded before mixing.
package fingerprint

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/Skryldev/pixelcache/core"
	apperrors "github.com/Skryldev/pixelcache/errors"
)

// Fingerprint is an opaque 128-bit digest.  It is comparable, totally
// ordered, and usable directly as a map key.
type Fingerprint [16]byte

// String returns the hex form of the fingerprint.
func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

// Uint64 projects the fingerprint onto a native integer for use in
// hashing contexts.
func (f Fingerprint) Uint64() uint64 { return binary.BigEndian.Uint64(f[:8]) }

// Compare orders fingerprints lexicographically.
func (f Fingerprint) Compare(other Fingerprint) int { return bytes.Compare(f[:], other[:]) }

// IsZero reports whether f is the zero fingerprint (never produced by
// hashing; usable as a sentinel).
func (f Fingerprint) IsZero() bool { return f == Fingerprint{} }

// Domain-separation tags.  Distinct tags guarantee that a buffer, an
// operation key, a list, and a dict over the same bytes never collide.
const (
	tagBuffer = "pixelcache/buffer/v1"
	tagOp     = "pixelcache/op/v1"
	tagList   = "pixelcache/list/v1"
	tagDict   = "pixelcache/dict/v1"
)

// encMode encodes operation parameters canonically: map keys are sorted
// and numeric encodings are fixed, so semantically identical parameter
// sets always serialize to the same bytes.
var encMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("fingerprint: cbor canonical mode: " + err.Error())
	}
	return em
}()

// OfBuffer fingerprints a canonical pixel buffer.  The digest depends only
// on width, height, channel count, dtype tag, and raw bytes — never on the
// backend that produced the buffer or on object identity.  Zero-dimension
// buffers hash the header alone and are well-defined.
func OfBuffer(b *core.PixelBuffer) Fingerprint {
	var header [17]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(b.Width))
	binary.LittleEndian.PutUint32(header[4:], uint32(b.Height))
	binary.LittleEndian.PutUint32(header[8:], uint32(b.Channels))
	binary.LittleEndian.PutUint32(header[12:], uint32(b.DType))
	header[16] = 0 // little-endian byte order marker
	return sum(tagBuffer, header[:], b.Pix)
}

// Combine mixes a content fingerprint with an operation identifier, its
// canonicalized parameters, and the fingerprints of any other operand
// images into a single cache key.  The mix is a keyed hash over
// length-prefixed parts, not an XOR, so unrelated operations sharing
// sub-hashes cannot collide.
func Combine(base Fingerprint, opID string, params any, extra ...Fingerprint) (Fingerprint, error) {
	enc, err := encMode.Marshal(params)
	if err != nil {
		return Fingerprint{}, apperrors.New(apperrors.CategoryValidation, "fingerprint.combine", err)
	}
	parts := [][]byte{base[:], []byte(opID), enc}
	for _, fp := range extra {
		fp := fp
		parts = append(parts, fp[:])
	}
	return sum(tagOp, parts...), nil
}

// OfList aggregates child fingerprints order-sensitively.
func OfList(children []Fingerprint) Fingerprint {
	parts := make([][]byte, len(children))
	for i := range children {
		parts[i] = children[i][:]
	}
	return sum(tagList, parts...)
}

// OfDict aggregates child fingerprints key-sensitively but order-
// insensitively: entries are mixed in sorted key order.
func OfDict(children map[string]Fingerprint) Fingerprint {
	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([][]byte, 0, len(children)*2)
	for _, k := range keys {
		fp := children[k]
		parts = append(parts, []byte(k), fp[:])
	}
	return sum(tagDict, parts...)
}

// sum hashes length-prefixed parts under a domain tag and truncates the
// blake3 output to 128 bits.
func sum(tag string, parts ...[]byte) Fingerprint {
	h := blake3.New()
	writePart(h, []byte(tag))
	for _, p := range parts {
		writePart(h, p)
	}
	var f Fingerprint
	d := h.Digest()
	_, _ = d.Read(f[:])
	return f
}

func writePart(h *blake3.Hasher, p []byte) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
	_, _ = h.Write(n[:])
	_, _ = h.Write(p)
}
