package fingerprint

import (
	"testing"

	"github.com/Skryldev/pixelcache/core"
)

func testBuffer(w, h int, fill byte) *core.PixelBuffer {
	pix := make([]byte, w*h*4)
	for i := range pix {
		pix[i] = fill
	}
	return &core.PixelBuffer{Width: w, Height: h, Channels: 4, DType: core.DTypeUint8, Pix: pix}
}

// ── Buffer fingerprints ───────────────────────────────────────────────────────

func TestOfBuffer_Deterministic(t *testing.T) {
	a := OfBuffer(testBuffer(8, 6, 0x40))
	b := OfBuffer(testBuffer(8, 6, 0x40))
	if a != b {
		t.Errorf("identical buffers hashed differently: %s vs %s", a, b)
	}
}

func TestOfBuffer_ContentSensitive(t *testing.T) {
	base := OfBuffer(testBuffer(8, 6, 0x40))

	changed := testBuffer(8, 6, 0x40)
	changed.Pix[17] ^= 0x01
	if got := OfBuffer(changed); got == base {
		t.Error("single-byte pixel change did not change the fingerprint")
	}
}

func TestOfBuffer_ShapeSensitive(t *testing.T) {
	// Same byte count, different geometry: 8x6 vs 6x8.
	a := OfBuffer(testBuffer(8, 6, 0x00))
	b := OfBuffer(testBuffer(6, 8, 0x00))
	if a == b {
		t.Error("transposed dimensions produced equal fingerprints")
	}
}

func TestOfBuffer_DTypeSensitive(t *testing.T) {
	u8 := &core.PixelBuffer{Width: 2, Height: 1, Channels: 4, DType: core.DTypeUint8, Pix: make([]byte, 8)}
	f32 := &core.PixelBuffer{Width: 1, Height: 1, Channels: 2, DType: core.DTypeFloat32, Pix: make([]byte, 8)}
	if OfBuffer(u8) == OfBuffer(f32) {
		t.Error("distinct dtypes over equal bytes produced equal fingerprints")
	}
}

func TestOfBuffer_EmptyIsWellDefined(t *testing.T) {
	empty := &core.PixelBuffer{Width: 0, Height: 0, Channels: 4, DType: core.DTypeUint8}
	fp := OfBuffer(empty)
	if fp.IsZero() {
		t.Error("empty buffer hashed to the zero fingerprint")
	}
	if fp != OfBuffer(empty) {
		t.Error("empty buffer fingerprint is not stable")
	}
}

// ── Operation keys ────────────────────────────────────────────────────────────

func TestCombine_ParamOrderInvariant(t *testing.T) {
	base := OfBuffer(testBuffer(4, 4, 0x10))

	a, err := Combine(base, "resize", map[string]any{"width": 100, "height": 50})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	b, err := Combine(base, "resize", map[string]any{"height": 50, "width": 100})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if a != b {
		t.Errorf("equivalent parameter maps keyed differently: %s vs %s", a, b)
	}
}

func TestCombine_Discriminates(t *testing.T) {
	base := OfBuffer(testBuffer(4, 4, 0x10))
	other := OfBuffer(testBuffer(4, 4, 0x20))

	ref, err := Combine(base, "resize", map[string]any{"width": 100})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	cases := []struct {
		name string
		fp   func() (Fingerprint, error)
	}{
		{"different op", func() (Fingerprint, error) {
			return Combine(base, "crop", map[string]any{"width": 100})
		}},
		{"different params", func() (Fingerprint, error) {
			return Combine(base, "resize", map[string]any{"width": 200})
		}},
		{"different base", func() (Fingerprint, error) {
			return Combine(other, "resize", map[string]any{"width": 100})
		}},
		{"extra operand", func() (Fingerprint, error) {
			return Combine(base, "resize", map[string]any{"width": 100}, other)
		}},
	}
	for _, tc := range cases {
		got, err := tc.fp()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got == ref {
			t.Errorf("%s: collided with reference key", tc.name)
		}
	}
}

func TestCombine_ExtraOperandOrderMatters(t *testing.T) {
	a := OfBuffer(testBuffer(4, 4, 0x01))
	b := OfBuffer(testBuffer(4, 4, 0x02))

	ab, err := Combine(a, "blend", nil, b)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	ba, err := Combine(b, "blend", nil, a)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if ab == ba {
		t.Error("swapped operands produced the same key")
	}
}

func TestCombine_NilParams(t *testing.T) {
	base := OfBuffer(testBuffer(4, 4, 0x10))
	fp, err := Combine(base, "invert", nil)
	if err != nil {
		t.Fatalf("Combine with nil params: %v", err)
	}
	if fp.IsZero() {
		t.Error("nil-param key is zero")
	}
}

// ── Aggregates ────────────────────────────────────────────────────────────────

func TestOfList_OrderSensitive(t *testing.T) {
	a := OfBuffer(testBuffer(2, 2, 0x01))
	b := OfBuffer(testBuffer(2, 2, 0x02))

	ab := OfList([]Fingerprint{a, b})
	ba := OfList([]Fingerprint{b, a})
	if ab == ba {
		t.Error("reordered list members produced the same aggregate")
	}
	if ab != OfList([]Fingerprint{a, b}) {
		t.Error("list aggregate is not deterministic")
	}
}

func TestOfDict_KeySensitiveOrderInsensitive(t *testing.T) {
	a := OfBuffer(testBuffer(2, 2, 0x01))
	b := OfBuffer(testBuffer(2, 2, 0x02))

	first := OfDict(map[string]Fingerprint{"left": a, "right": b})
	second := OfDict(map[string]Fingerprint{"right": b, "left": a})
	if first != second {
		t.Error("dict aggregate depends on map construction order")
	}

	renamed := OfDict(map[string]Fingerprint{"left": a, "top": b})
	if renamed == first {
		t.Error("renamed key did not change the aggregate")
	}
}

func TestAggregates_TypeDiscriminated(t *testing.T) {
	a := OfBuffer(testBuffer(2, 2, 0x01))

	list := OfList([]Fingerprint{a})
	dict := OfDict(map[string]Fingerprint{"": a})
	if list == dict {
		t.Error("singleton list and dict collided")
	}
	if list == a || dict == a {
		t.Error("aggregate collided with its only member")
	}
}

// ── Projections ───────────────────────────────────────────────────────────────

func TestProjections(t *testing.T) {
	a := OfBuffer(testBuffer(3, 3, 0x33))
	b := OfBuffer(testBuffer(3, 3, 0x34))

	if len(a.String()) != 32 {
		t.Errorf("hex form length: got %d, want 32", len(a.String()))
	}
	if a.Uint64() == b.Uint64() && a != b {
		t.Log("Uint64 projection collided (possible but astronomically unlikely)")
	}
	if a.Compare(a) != 0 {
		t.Error("Compare(self) != 0")
	}
	if a.Compare(b) == 0 {
		t.Error("distinct fingerprints compare equal")
	}
	if a.Compare(b) != -b.Compare(a) {
		t.Error("Compare is not antisymmetric")
	}
	if a.IsZero() {
		t.Error("hashed fingerprint reports IsZero")
	}
}

func BenchmarkOfBuffer(b *testing.B) {
	buf := testBuffer(512, 512, 0x7f)
	b.SetBytes(int64(len(buf.Pix)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		OfBuffer(buf)
	}
}

func BenchmarkCombine(b *testing.B) {
	base := OfBuffer(testBuffer(64, 64, 0x7f))
	params := map[string]any{"width": 100, "height": 50}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Combine(base, "resize", params); err != nil {
			b.Fatal(err)
		}
	}
}
