package text

import (
	"math"
	"testing"
)

// squareRaw builds a closed square outline in design units, y up.
func squareRaw(minX, minY, maxX, maxY float32) *GlyphRaw {
	raw := &GlyphRaw{
		Lines: []Line{
			{P0: Point{minX, minY}, P1: Point{maxX, minY}},
			{P0: Point{maxX, minY}, P1: Point{maxX, maxY}},
			{P0: Point{maxX, maxY}, P1: Point{minX, maxY}},
			{P0: Point{minX, maxY}, P1: Point{minX, minY}},
		},
	}
	raw.Bounds = outlineBounds(raw)
	return raw
}

func TestRasterizeRaw_Square(t *testing.T) {
	m := rasterizeRaw(squareRaw(0, 0, 16, 16), 1)
	if m.Width != 16 || m.Height != 16 {
		t.Fatalf("mask %dx%d, want 16x16", m.Width, m.Height)
	}
	if m.Left != 0 || m.Top != 16 {
		t.Fatalf("placement Left=%d Top=%d, want 0,16", m.Left, m.Top)
	}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if got := m.Pix[y*m.Width+x]; got != 255 {
				t.Fatalf("pixel (%d,%d) = %d, want 255", x, y, got)
			}
		}
	}
}

func TestRasterizeRaw_Scale(t *testing.T) {
	// A 100-unit square at scale 0.08 covers 8x8 pixels.
	m := rasterizeRaw(squareRaw(0, 0, 100, 100), 0.08)
	if m.Width != 8 || m.Height != 8 {
		t.Fatalf("mask %dx%d, want 8x8", m.Width, m.Height)
	}
	if got := m.Pix[4*m.Width+4]; got != 255 {
		t.Fatalf("interior pixel = %d, want 255", got)
	}
}

func TestRasterizeRaw_Hole(t *testing.T) {
	// Outer square clockwise, inner square counter-clockwise: the
	// nonzero winding rule leaves the inner region empty.
	outer := squareRaw(0, 0, 16, 16)
	inner := &GlyphRaw{
		Lines: []Line{
			{P0: Point{4, 4}, P1: Point{4, 12}},
			{P0: Point{4, 12}, P1: Point{12, 12}},
			{P0: Point{12, 12}, P1: Point{12, 4}},
			{P0: Point{12, 4}, P1: Point{4, 4}},
		},
	}
	raw := &GlyphRaw{Lines: append(outer.Lines, inner.Lines...)}
	raw.Bounds = outlineBounds(raw)

	m := rasterizeRaw(raw, 1)
	if got := m.Pix[8*m.Width+8]; got != 0 {
		t.Errorf("hole center = %d, want 0", got)
	}
	if got := m.Pix[2*m.Width+2]; got != 255 {
		t.Errorf("ring pixel = %d, want 255", got)
	}
}

func TestRasterizeRaw_HalfCoverage(t *testing.T) {
	// A square covering the left half of each pixel column boundary:
	// x in [0, 7.5] gives the eighth column half coverage.
	m := rasterizeRaw(squareRaw(0, 0, 7.5, 8), 1)
	if m.Width != 8 {
		t.Fatalf("mask width %d, want 8", m.Width)
	}
	got := m.Pix[4*m.Width+7]
	if got < 120 || got > 135 {
		t.Fatalf("boundary pixel = %d, want about 128", got)
	}
}

func TestRasterizeRaw_Empty(t *testing.T) {
	m := rasterizeRaw(&GlyphRaw{}, 1)
	if !m.IsEmpty() {
		t.Fatal("empty outline produced a non-empty mask")
	}
}

func TestRasterizeRaw_Curve(t *testing.T) {
	// Closed shape with one curved edge bulging right. Coverage left
	// of the chord must be full, far right of the bulge empty.
	raw := &GlyphRaw{
		Lines: []Line{
			{P0: Point{0, 0}, P1: Point{8, 0}},
			{P0: Point{8, 16}, P1: Point{0, 16}},
			{P0: Point{0, 16}, P1: Point{0, 0}},
		},
		Curves: []Curve{
			{P0: Point{8, 0}, Ctrl: Point{16, 8}, P1: Point{8, 16}},
		},
	}
	raw.Bounds = outlineBounds(raw)

	m := rasterizeRaw(raw, 1)
	if got := m.Pix[8*m.Width+2]; got != 255 {
		t.Errorf("interior pixel = %d, want 255", got)
	}
	// The curve's midpoint reaches x=12; pixels past it stay empty.
	if got := m.Pix[8*m.Width+(m.Width-1)]; got == 255 {
		t.Errorf("pixel beyond the bulge fully covered")
	}
}

func TestFlattenQuad_ChordError(t *testing.T) {
	p0 := Point{0, 0}
	ctrl := Point{50, 100}
	p1 := Point{100, 0}

	var segs []Line
	flattenQuad(p0, ctrl, p1, chordTolerance, func(a, b Point) {
		segs = append(segs, Line{P0: a, P1: b})
	})
	if len(segs) < 4 {
		t.Fatalf("only %d segments for a tall curve", len(segs))
	}

	// Every curve sample must lie within tolerance of some segment.
	for i := 0; i <= 64; i++ {
		tt := float32(i) / 64
		u := 1 - tt
		cx := u*u*p0.X + 2*u*tt*ctrl.X + tt*tt*p1.X
		cy := u*u*p0.Y + 2*u*tt*ctrl.Y + tt*tt*p1.Y

		best := float32(math.MaxFloat32)
		for _, s := range segs {
			if d := pointSegDist(Point{cx, cy}, s.P0, s.P1); d < best {
				best = d
			}
		}
		if best > chordTolerance+1e-3 {
			t.Fatalf("curve point t=%v is %v px from the polyline", tt, best)
		}
	}

	// Segments must chain continuously from p0 to p1.
	if segs[0].P0 != p0 || segs[len(segs)-1].P1 != p1 {
		t.Fatal("polyline does not span the curve endpoints")
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].P0 != segs[i-1].P1 {
			t.Fatalf("gap between segment %d and %d", i-1, i)
		}
	}
}

func pointSegDist(p, a, b Point) float32 {
	abx, aby := b.X-a.X, b.Y-a.Y
	apx, apy := p.X-a.X, p.Y-a.Y
	den := abx*abx + aby*aby
	var t float32
	if den > 0 {
		t = (apx*abx + apy*aby) / den
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	dx := p.X - (a.X + t*abx)
	dy := p.Y - (a.Y + t*aby)
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}
