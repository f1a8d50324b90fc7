package text

import (
	"math"
	"sort"
)

// Mask is an 8-bit coverage bitmap for one glyph at one pixel size.
// Left and Top place the mask relative to the pen position: Left is
// the offset from the pen to the mask's left edge, Top the distance
// from the baseline up to the mask's top edge.
type Mask struct {
	Pix           []byte
	Width, Height int
	Left, Top     int
	Advance       float32
}

// IsEmpty reports a mask with no coverage area.
func (m *Mask) IsEmpty() bool { return m.Width == 0 || m.Height == 0 }

const rasterEpsilon = 1e-6

// rasterEdge is a directed line segment prepared for scanline
// conversion, normalized so ymin <= ymax with the winding recording
// the original direction.
type rasterEdge struct {
	ymin, ymax float32
	xAtYmin    float32
	dxdy       float32
	winding    int8
}

func (e *rasterEdge) xAt(y float32) float32 {
	return e.xAtYmin + (y-e.ymin)*e.dxdy
}

func newRasterEdge(a, b Point) (rasterEdge, bool) {
	var winding int8 = 1
	if a.Y > b.Y {
		a, b = b, a
		winding = -1
	}
	dy := b.Y - a.Y
	if dy < rasterEpsilon {
		return rasterEdge{}, false
	}
	return rasterEdge{
		ymin:    a.Y,
		ymax:    b.Y,
		xAtYmin: a.X,
		dxdy:    (b.X - a.X) / dy,
		winding: winding,
	}, true
}

// subSamples is the number of scanlines evaluated per pixel row.
const subSamples = 4

// Rasterize converts one glyph outline into a coverage mask at the
// given pixel size using nonzero-winding scanline fill. Empty glyphs
// like spaces return a mask with zero area and a valid advance.
func Rasterize(f *Font, gid GlyphID, size float32) (*Mask, error) {
	raw, err := f.Glyph(gid)
	if err != nil {
		return nil, err
	}
	scale := size / f.UnitsPerEm()
	m := rasterizeRaw(raw, scale)
	m.Advance = raw.Advance * scale
	return m, nil
}

// rasterizeRaw rasterizes a design-unit outline at the given scale.
// The outline's y-up coordinates flip to the mask's y-down rows.
func rasterizeRaw(raw *GlyphRaw, scale float32) *Mask {
	if raw.IsEmpty() {
		return &Mask{}
	}

	left := int(math.Floor(float64(raw.Bounds.MinX * scale)))
	right := int(math.Ceil(float64(raw.Bounds.MaxX * scale)))
	top := int(math.Ceil(float64(raw.Bounds.MaxY * scale)))
	bottom := int(math.Floor(float64(raw.Bounds.MinY * scale)))

	w := right - left
	h := top - bottom
	if w <= 0 || h <= 0 {
		return &Mask{}
	}

	// Mask pixel space: x right, y down, origin at the top-left of
	// the bounds.
	toMask := func(p Point) Point {
		return Point{
			X: p.X*scale - float32(left),
			Y: float32(top) - p.Y*scale,
		}
	}

	edges := make([]rasterEdge, 0, len(raw.Lines)+len(raw.Curves)*4)
	addEdge := func(a, b Point) {
		if e, ok := newRasterEdge(a, b); ok {
			edges = append(edges, e)
		}
	}
	for _, l := range raw.Lines {
		addEdge(toMask(l.P0), toMask(l.P1))
	}
	for _, c := range raw.Curves {
		flattenQuad(toMask(c.P0), toMask(c.Ctrl), toMask(c.P1), chordTolerance, addEdge)
	}
	if len(edges) == 0 {
		return &Mask{}
	}

	pix := make([]byte, w*h)
	acc := make([]float32, w)
	var active []*rasterEdge

	for row := 0; row < h; row++ {
		for i := range acc {
			acc[i] = 0
		}
		for s := 0; s < subSamples; s++ {
			y := float32(row) + (float32(s)+0.5)/subSamples

			active = active[:0]
			for i := range edges {
				e := &edges[i]
				if y >= e.ymin && y < e.ymax {
					active = append(active, e)
				}
			}
			if len(active) == 0 {
				continue
			}
			sort.Slice(active, func(i, j int) bool {
				return active[i].xAt(y) < active[j].xAt(y)
			})

			winding := 0
			var spanStart float32
			for _, e := range active {
				x := e.xAt(y)
				prev := winding
				winding += int(e.winding)
				if prev == 0 && winding != 0 {
					spanStart = x
				} else if prev != 0 && winding == 0 {
					addSpan(acc, spanStart, x, 1.0/subSamples)
				}
			}
		}
		rowPix := pix[row*w : (row+1)*w]
		for x, c := range acc {
			v := int(c*255 + 0.5)
			if v > 255 {
				v = 255
			}
			rowPix[x] = byte(v)
		}
	}

	return &Mask{
		Pix:    pix,
		Width:  w,
		Height: h,
		Left:   left,
		Top:    top,
	}
}

// addSpan accumulates weight into acc over [x0, x1) with fractional
// end pixels.
func addSpan(acc []float32, x0, x1, weight float32) {
	if x1 <= x0 {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > float32(len(acc)) {
		x1 = float32(len(acc))
	}
	if x1 <= x0 {
		return
	}

	i0 := int(x0)
	i1 := int(x1)
	if i0 == i1 {
		acc[i0] += (x1 - x0) * weight
		return
	}
	acc[i0] += (float32(i0+1) - x0) * weight
	for i := i0 + 1; i < i1; i++ {
		acc[i] += weight
	}
	if i1 < len(acc) {
		acc[i1] += (x1 - float32(i1)) * weight
	}
}
