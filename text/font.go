package text

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	tsfont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

var (
	// ErrBadFont reports font data that could not be parsed.
	ErrBadFont = errors.New("text: malformed font data")

	// ErrNoGlyph reports a glyph index with no outline data.
	ErrNoGlyph = errors.New("text: glyph not present in font")
)

// GlyphID indexes a glyph within one font.
type GlyphID uint16

// Point is a position in the font's design em-square, y up.
type Point struct {
	X, Y float32
}

// Line is a straight outline segment between two points.
type Line struct {
	P0, P1 Point
}

// Curve is a quadratic outline segment: P0 to P1 bent toward Ctrl.
type Curve struct {
	P0, Ctrl, P1 Point
}

// Bounds is an axis-aligned box in design units, y up.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float32
}

// Width returns the horizontal extent.
func (b Bounds) Width() float32 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float32 { return b.MaxY - b.MinY }

// GlyphRaw is one glyph's outline in design units with y up. The
// segment lists are directed, so winding rasterization needs no
// contour grouping.
type GlyphRaw struct {
	GID     GlyphID
	Bounds  Bounds
	Advance float32
	Lines   []Line
	Curves  []Curve
}

// IsEmpty reports whether the glyph has no outline, like a space.
func (g *GlyphRaw) IsEmpty() bool {
	return len(g.Lines) == 0 && len(g.Curves) == 0
}

var nextFontID atomic.Uint64

// Font is a parsed font file. It exposes metrics and glyph advances in
// design units, a character map, and raw glyph outlines. All methods
// are safe for concurrent use.
type Font struct {
	id     uint64
	upem   float32
	family string
	weight int

	ascent  float32 // design units, positive up
	descent float32 // design units, negative below baseline
	lineGap float32

	mu     sync.Mutex
	sf     *sfnt.Font
	buf    sfnt.Buffer
	glyphs *Cache[GlyphID, *GlyphRaw]

	hb *tsfont.Font
}

// Parse parses TTF or OTF font bytes. The same bytes are parsed once
// for outline access and once for the HarfBuzz shaping path.
func Parse(data []byte) (*Font, error) {
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, errors.Join(ErrBadFont, err)
	}

	hbFace, err := tsfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(ErrBadFont, err)
	}

	f := &Font{
		id:     nextFontID.Add(1),
		upem:   float32(sf.UnitsPerEm()),
		sf:     sf,
		glyphs: NewCache[GlyphID, *GlyphRaw](512),
		hb:     hbFace.Font,
	}
	if f.upem <= 0 {
		f.upem = 1000
	}

	if name, err := sf.Name(&f.buf, sfnt.NameIDFamily); err == nil {
		f.family = name
	}
	f.weight = 400
	if sub, err := sf.Name(&f.buf, sfnt.NameIDSubfamily); err == nil {
		if strings.Contains(strings.ToLower(sub), "bold") {
			f.weight = 700
		}
	}

	// Metrics loaded at one em per pixel come back in design units.
	ppem := fixed.I(int(f.upem))
	m, err := sf.Metrics(&f.buf, ppem, xfont.HintingNone)
	if err != nil {
		return nil, errors.Join(ErrBadFont, err)
	}
	f.ascent = float32(m.Ascent) / 64
	f.descent = -float32(m.Descent) / 64
	f.lineGap = float32(m.Height-m.Ascent-m.Descent) / 64
	if f.lineGap < 0 {
		f.lineGap = 0
	}

	slogger().Debug("parsed font",
		"family", f.family, "weight", f.weight,
		"upem", f.upem, "glyphs", sf.NumGlyphs())
	return f, nil
}

// ID is unique per parsed font within the process.
func (f *Font) ID() uint64 { return f.id }

// Family returns the font family name, if present.
func (f *Font) Family() string { return f.family }

// Weight returns the CSS-style weight, 400 or 700.
func (f *Font) Weight() int { return f.weight }

// UnitsPerEm returns the design em-square size.
func (f *Font) UnitsPerEm() float32 { return f.upem }

// Ascent returns the distance from baseline to the top of the em, in
// design units.
func (f *Font) Ascent() float32 { return f.ascent }

// Descent returns the (negative) distance from baseline to the bottom
// of the em, in design units.
func (f *Font) Descent() float32 { return f.descent }

// LineGap returns the extra spacing between lines, in design units.
func (f *Font) LineGap() float32 { return f.lineGap }

// LineHeight returns the vertical cursor advance per line at the given
// pixel size.
func (f *Font) LineHeight(size float32) float32 {
	return (f.ascent - f.descent + f.lineGap) * size / f.upem
}

// NumGlyphs returns the glyph count.
func (f *Font) NumGlyphs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sf.NumGlyphs()
}

// GlyphIndex maps a rune through the character map.
func (f *Font) GlyphIndex(r rune) (GlyphID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gi, err := f.sf.GlyphIndex(&f.buf, r)
	if err != nil || gi == 0 {
		return 0, false
	}
	return GlyphID(gi), true
}

// Advance returns the horizontal advance in design units.
func (f *Font) Advance(gid GlyphID) float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	adv, err := f.sf.GlyphAdvance(&f.buf, sfnt.GlyphIndex(gid), fixed.I(int(f.upem)), xfont.HintingNone)
	if err != nil {
		return 0
	}
	return float32(adv) / 64
}

// Glyph returns the raw outline for a glyph, extracting and caching it
// on first use.
func (f *Font) Glyph(gid GlyphID) (*GlyphRaw, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if raw, ok := f.glyphs.Get(gid); ok {
		return raw, nil
	}
	raw, err := f.extractLocked(gid)
	if err != nil {
		return nil, err
	}
	f.glyphs.Set(gid, raw)
	return raw, nil
}

// HBFont returns the typesetting font for the HarfBuzz shaping path.
func (f *Font) HBFont() *tsfont.Font { return f.hb }

// extractLocked loads sfnt segments at one em per pixel so coordinates
// come back in design units, then flips y down to y up.
func (f *Font) extractLocked(gid GlyphID) (*GlyphRaw, error) {
	ppem := fixed.I(int(f.upem))
	segs, err := f.sf.LoadGlyph(&f.buf, sfnt.GlyphIndex(gid), ppem, nil)
	if err != nil {
		return nil, errors.Join(ErrNoGlyph, err)
	}

	raw := &GlyphRaw{GID: gid}
	if adv, err := f.sf.GlyphAdvance(&f.buf, sfnt.GlyphIndex(gid), ppem, xfont.HintingNone); err == nil {
		raw.Advance = float32(adv) / 64
	}
	if len(segs) == 0 {
		return raw, nil
	}

	pt := func(p fixed.Point26_6) Point {
		return Point{X: float32(p.X) / 64, Y: -float32(p.Y) / 64}
	}

	var cur, start Point
	open := false
	closeContour := func() {
		if open && cur != start {
			raw.Lines = append(raw.Lines, Line{P0: cur, P1: start})
		}
		open = false
	}

	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			closeContour()
			cur = pt(seg.Args[0])
			start = cur
			open = true
		case sfnt.SegmentOpLineTo:
			p := pt(seg.Args[0])
			raw.Lines = append(raw.Lines, Line{P0: cur, P1: p})
			cur = p
		case sfnt.SegmentOpQuadTo:
			c := pt(seg.Args[0])
			p := pt(seg.Args[1])
			raw.Curves = append(raw.Curves, Curve{P0: cur, Ctrl: c, P1: p})
			cur = p
		case sfnt.SegmentOpCubeTo:
			// Split the cubic at t=0.5 and approximate each half
			// with one quadratic.
			c1 := pt(seg.Args[0])
			c2 := pt(seg.Args[1])
			p := pt(seg.Args[2])
			raw.Curves = append(raw.Curves, cubicHalves(cur, c1, c2, p)...)
			cur = p
		}
	}
	closeContour()

	raw.Bounds = outlineBounds(raw)
	return raw, nil
}

// cubicHalves approximates a cubic bezier with two quadratics, one per
// half after subdividing at t=0.5.
func cubicHalves(p0, c1, c2, p1 Point) []Curve {
	mid := func(a, b Point) Point {
		return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	}
	ab := mid(p0, c1)
	bc := mid(c1, c2)
	cd := mid(c2, p1)
	abc := mid(ab, bc)
	bcd := mid(bc, cd)
	split := mid(abc, bcd)

	// Each half's quadratic control point is the intersection of its
	// end tangents, approximated by 3/2 lerp of the cubic controls.
	q1 := Point{X: p0.X + 1.5*(ab.X-p0.X), Y: p0.Y + 1.5*(ab.Y-p0.Y)}
	q2 := Point{X: p1.X + 1.5*(cd.X-p1.X), Y: p1.Y + 1.5*(cd.Y-p1.Y)}
	return []Curve{
		{P0: p0, Ctrl: q1, P1: split},
		{P0: split, Ctrl: q2, P1: p1},
	}
}

func outlineBounds(raw *GlyphRaw) Bounds {
	b := Bounds{MinX: 1e10, MinY: 1e10, MaxX: -1e10, MaxY: -1e10}
	grow := func(p Point) {
		if p.X < b.MinX {
			b.MinX = p.X
		}
		if p.Y < b.MinY {
			b.MinY = p.Y
		}
		if p.X > b.MaxX {
			b.MaxX = p.X
		}
		if p.Y > b.MaxY {
			b.MaxY = p.Y
		}
	}
	for _, l := range raw.Lines {
		grow(l.P0)
		grow(l.P1)
	}
	for _, c := range raw.Curves {
		grow(c.P0)
		grow(c.Ctrl)
		grow(c.P1)
	}
	if b.MinX > b.MaxX {
		return Bounds{}
	}
	return b
}
