package atlas

import (
	"math/rand"
	"testing"
)

func coverage(w, h int, v byte) []byte {
	data := make([]byte, w*h)
	for i := range data {
		data[i] = v
	}
	return data
}

func TestAtlas_Idempotent(t *testing.T) {
	a := New(Config{InitialSize: 256, MaxSize: 256, BytesPerPixel: 1})
	fp := GlyphFingerprint(1, 42, 14)

	e1, err := a.Upsert(fp, 10, 12, coverage(10, 12, 0xff))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	// Second insert of the same content must return the same entry and
	// must not require pixel data to match (it is never read).
	e2, err := a.Upsert(fp, 10, 12, nil)
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if e1 != e2 {
		t.Fatal("same fingerprint produced distinct entries")
	}
	if a.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", a.Len())
	}
}

func TestAtlas_NoOverlap(t *testing.T) {
	a := New(Config{InitialSize: 256, MaxSize: 4096, BytesPerPixel: 1})
	rng := rand.New(rand.NewSource(1))

	type placed struct {
		fp Fingerprint
		r  Region
	}
	var entries []placed

	for i := 0; i < 10000; i++ {
		w := 4 + rng.Intn(28)
		h := 4 + rng.Intn(28)
		fp := GlyphFingerprint(uint64(i), uint16(i), uint32(w))
		e, err := a.Upsert(fp, w, h, coverage(w, h, byte(i)))
		if err != nil {
			t.Fatalf("Upsert %d: %v", i, err)
		}
		// Hold a reference so eviction cannot reclaim live entries
		// mid-test.
		e.Retain()
		entries = append(entries, placed{fp: fp, r: e.Region()})
	}

	size := a.Size()
	if size > 4096 {
		t.Fatalf("atlas grew to %d, beyond the configured max", size)
	}

	// Regions may have been moved by repacking; validate the current
	// layout, not the insertion-time one.
	occupied := make([]Fingerprint, size*size)
	for _, p := range entries {
		e, ok := a.Lookup(p.fp)
		if !ok {
			t.Fatalf("entry %d missing after packing", p.fp)
		}
		r := e.Region()
		if r.X < 0 || r.Y < 0 || r.X+r.W > size || r.Y+r.H > size {
			t.Fatalf("region %+v outside %dx%d atlas", r, size, size)
		}
		for y := r.Y; y < r.Y+r.H; y++ {
			for x := r.X; x < r.X+r.W; x++ {
				if prev := occupied[y*size+x]; prev != 0 {
					t.Fatalf("pixel (%d,%d) claimed by %d and %d", x, y, prev, p.fp)
				}
				occupied[y*size+x] = p.fp
			}
		}
	}
}

func TestAtlas_EvictionPass(t *testing.T) {
	a := New(Config{InitialSize: 64, MaxSize: 64, BytesPerPixel: 1, Padding: 0})

	// Fill with zero-ref entries.
	var i uint64
	for {
		fp := GlyphFingerprint(i, 0, 16)
		_, err := a.Upsert(fp, 16, 16, coverage(16, 16, 1))
		if err != nil {
			break
		}
		i++
	}
	if i == 0 {
		t.Fatal("nothing fit in the atlas")
	}

	// The next insert must succeed via the LRU eviction pass.
	fp := GlyphFingerprint(999, 9, 32)
	if _, err := a.Upsert(fp, 32, 32, coverage(32, 32, 2)); err != nil {
		t.Fatalf("Upsert after eviction pass: %v", err)
	}
}

func TestAtlas_FullWhenReferenced(t *testing.T) {
	a := New(Config{InitialSize: 64, MaxSize: 64, BytesPerPixel: 1, Padding: 0})

	var held []*Entry
	var i uint64
	for {
		fp := GlyphFingerprint(i, 0, 16)
		e, err := a.Upsert(fp, 16, 16, coverage(16, 16, 1))
		if err != nil {
			break
		}
		e.Retain()
		held = append(held, e)
		i++
	}

	// Every entry is referenced: eviction has no candidates.
	if _, err := a.Upsert(GlyphFingerprint(999, 9, 32), 32, 32, coverage(32, 32, 2)); err != ErrAtlasFull {
		t.Fatalf("Upsert = %v, want ErrAtlasFull", err)
	}

	// Releasing makes the retry succeed.
	for _, e := range held {
		e.Release()
	}
	if _, err := a.Upsert(GlyphFingerprint(999, 9, 32), 32, 32, coverage(32, 32, 2)); err != nil {
		t.Fatalf("Upsert after release: %v", err)
	}
}

func TestAtlas_Growth(t *testing.T) {
	a := New(Config{InitialSize: 64, MaxSize: 256, BytesPerPixel: 1, Padding: 0})

	var refs []*Entry
	for i := uint64(0); i < 40; i++ {
		e, err := a.Upsert(GlyphFingerprint(i, 0, 32), 32, 32, coverage(32, 32, 3))
		if err != nil {
			t.Fatalf("Upsert %d: %v", i, err)
		}
		e.Retain()
		refs = append(refs, e)
	}
	// 40 * 32x32 = 40960 px needs more than 64x64 and more than
	// 128x128; growth by doubling must have reached 256.
	if got := a.Size(); got != 256 {
		t.Fatalf("Size() = %d, want 256", got)
	}
	for _, e := range refs {
		if e.Refs() != 1 {
			t.Fatalf("entry lost its reference during repack")
		}
	}
}

// Growing moves entries, so UVs computed before the grow are stale.
// The generation counter is how callers detect that and re-emit.
func TestAtlas_GenerationBumpsOnRepack(t *testing.T) {
	a := New(Config{InitialSize: 64, MaxSize: 128, BytesPerPixel: 1, Padding: 0})

	e, err := a.Upsert(GlyphFingerprint(1, 1, 16<<6), 32, 32, coverage(32, 32, 1))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	gen := a.Generation()
	u0, v0, u1, v1 := e.UV()

	// Force a grow from 64 to 128.
	for i := uint64(2); i < 8; i++ {
		if _, err := a.Upsert(GlyphFingerprint(i, 1, 16<<6), 32, 32, coverage(32, 32, 1)); err != nil {
			t.Fatalf("Upsert %d: %v", i, err)
		}
	}
	if a.Size() != 128 {
		t.Fatalf("Size() = %d, want grown 128", a.Size())
	}
	if a.Generation() == gen {
		t.Fatal("generation unchanged across a grow")
	}
	nu0, nv0, nu1, nv1 := e.UV()
	if u0 == nu0 && v0 == nv0 && u1 == nu1 && v1 == nv1 {
		t.Fatal("UVs identical across a grow that halved the texel scale")
	}
}

func TestGlyphFingerprint_Distinct(t *testing.T) {
	seen := map[Fingerprint]bool{}
	for font := uint64(0); font < 4; font++ {
		for gid := uint16(0); gid < 64; gid++ {
			for _, size := range []uint32{12 << 6, 14 << 6, 24 << 6} {
				fp := GlyphFingerprint(font, gid, size)
				if seen[fp] {
					t.Fatalf("collision for font=%d gid=%d size=%d", font, gid, size)
				}
				seen[fp] = true
			}
		}
	}
}

// Size keys are 26.6 fixed point: fractional sizes and sizes whose
// fixed-point value exceeds 16 bits must not fold together.
func TestGlyphFingerprint_SizePrecision(t *testing.T) {
	key := func(px float32) uint32 { return uint32(px * 64) }

	if GlyphFingerprint(1, 7, key(16)) == GlyphFingerprint(1, 7, key(16.5)) {
		t.Fatal("16px and 16.5px map to the same fingerprint")
	}
	// 1024px is 65536 in 26.6; a 16-bit key would truncate it to 0.
	if GlyphFingerprint(1, 7, key(1024)) == GlyphFingerprint(1, 7, key(0)) {
		t.Fatal("1024px collides with 0px")
	}
	if GlyphFingerprint(1, 7, key(1024)) == GlyphFingerprint(1, 7, key(2048)) {
		t.Fatal("1024px collides with 2048px")
	}
}
