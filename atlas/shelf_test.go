package atlas

import (
	"math/rand"
	"testing"
)

func TestShelfPacker_Bounds(t *testing.T) {
	p := newShelfPacker(128, 128, 1)

	tests := []struct {
		name string
		w, h int
		ok   bool
	}{
		{"fits", 64, 64, true},
		{"zero width", 0, 8, false},
		{"zero height", 8, 0, false},
		{"too wide", 129, 8, false},
		{"too tall", 8, 129, false},
		{"exact with padding rejected", 128, 8, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := p.allocate(tt.w, tt.h)
			if ok != tt.ok {
				t.Fatalf("allocate(%d,%d) ok = %v, want %v", tt.w, tt.h, ok, tt.ok)
			}
			if ok && (x < 0 || y < 0 || x+tt.w > 128 || y+tt.h > 128) {
				t.Fatalf("allocate(%d,%d) placed at (%d,%d) outside packer", tt.w, tt.h, x, y)
			}
		})
	}
}

func TestShelfPacker_NoOverlap(t *testing.T) {
	const side = 512
	p := newShelfPacker(side, side, 1)
	rng := rand.New(rand.NewSource(7))
	occupied := make([]bool, side*side)

	placed := 0
	for i := 0; i < 10000; i++ {
		w := 2 + rng.Intn(30)
		h := 2 + rng.Intn(30)
		x, y, ok := p.allocate(w, h)
		if !ok {
			continue
		}
		placed++
		for yy := y; yy < y+h; yy++ {
			for xx := x; xx < x+w; xx++ {
				if occupied[yy*side+xx] {
					t.Fatalf("allocation %d at (%d,%d,%d,%d) overlaps", i, x, y, w, h)
				}
				occupied[yy*side+xx] = true
			}
		}
	}
	if placed == 0 {
		t.Fatal("no allocations placed")
	}
	if u := p.utilization(); u <= 0 || u > 1 {
		t.Fatalf("utilization() = %v, want (0,1]", u)
	}
}

func TestShelfPacker_ShelfReuse(t *testing.T) {
	p := newShelfPacker(256, 256, 0)

	// Same-height allocations should land on one shelf.
	_, y0, ok := p.allocate(64, 16)
	if !ok {
		t.Fatal("first allocate failed")
	}
	_, y1, ok := p.allocate(64, 16)
	if !ok {
		t.Fatal("second allocate failed")
	}
	if y0 != y1 {
		t.Fatalf("equal-height placements on different shelves: y=%d and y=%d", y0, y1)
	}

	// The newest shelf grows for a taller allocation instead of
	// opening a new one.
	_, y2, ok := p.allocate(64, 32)
	if !ok {
		t.Fatal("taller allocate failed")
	}
	if y2 != y0 {
		t.Fatalf("taller allocation at y=%d, want grown shelf at y=%d", y2, y0)
	}

	// Too wide for any existing shelf: a new shelf opens below the
	// grown one.
	_, y3, ok := p.allocate(200, 16)
	if !ok {
		t.Fatal("wide allocate failed")
	}
	if y3 != y0+32 {
		t.Fatalf("wide allocation at y=%d, want %d", y3, y0+32)
	}
}
