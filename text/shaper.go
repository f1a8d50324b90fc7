package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/bidi"
)

// Face is the metric surface shaping needs from a font.
type Face interface {
	ID() uint64
	UnitsPerEm() float32
	Ascent() float32
	Descent() float32
	LineGap() float32
	GlyphIndex(r rune) (GlyphID, bool)
	Advance(gid GlyphID) float32
}

// ShapedGlyph is one glyph positioned within a shaped block of text.
// X is the pen position and Y the baseline, both in pixels relative to
// the block's top-left corner.
type ShapedGlyph struct {
	GID     GlyphID
	Cluster int // rune index into the source string
	X, Y    float32
	Advance float32
}

// ShapedLine is one visual line of a shaped block.
type ShapedLine struct {
	Glyphs   []ShapedGlyph
	Width    float32
	Baseline float32
}

// Wrap selects the soft-wrap behavior when text exceeds MaxWidth.
type Wrap uint8

const (
	// WrapNone lets lines run past MaxWidth. Only '\n' breaks.
	WrapNone Wrap = iota

	// WrapWord breaks at the previous word boundary, or mid-word when
	// a single word exceeds MaxWidth.
	WrapWord
)

// ShapeOptions controls one shaping call.
type ShapeOptions struct {
	Size     float32 // pixel size, must be positive
	MaxWidth float32 // 0 means unlimited
	Wrap     Wrap
}

// Shaper converts a string into positioned glyph lines.
type Shaper interface {
	Shape(text string, face Face, opts ShapeOptions) []ShapedLine
}

// BlockHeight returns the vertical extent of shaped lines: one line
// advance per line.
func BlockHeight(lines []ShapedLine, face Face, size float32) float32 {
	scale := size / face.UnitsPerEm()
	return float32(len(lines)) * (face.Ascent() - face.Descent() + face.LineGap()) * scale
}

// SimpleShaper is the default shaper: plain character-map lookup with
// advance accumulation. No ligatures and no kerning; paragraphs are
// reordered per line with the Unicode bidi algorithm so RTL scripts
// display correctly.
type SimpleShaper struct{}

// logical glyph info produced before line breaking.
type shapedRune struct {
	r       rune
	gid     GlyphID
	advance float32
	cluster int // rune index into the whole block
	paraIdx int // rune index into the paragraph, for bidi runs
	space   bool
}

// Shape implements Shaper.
func (SimpleShaper) Shape(text string, face Face, opts ShapeOptions) []ShapedLine {
	if text == "" || face == nil || opts.Size <= 0 {
		return nil
	}

	scale := opts.Size / face.UnitsPerEm()
	ascent := face.Ascent() * scale
	lineAdvance := (face.Ascent() - face.Descent() + face.LineGap()) * scale

	var lines []ShapedLine
	baseline := ascent
	cluster := 0

	for _, para := range strings.Split(text, "\n") {
		runes := shapeRunes(para, face, scale, cluster)
		cluster += len([]rune(para)) + 1 // the consumed '\n'

		for _, lineRunes := range breakLines(runes, opts) {
			lines = append(lines, layoutLine(para, lineRunes, baseline))
			baseline += lineAdvance
		}
		if len(runes) == 0 {
			// An empty paragraph still occupies a line.
			lines = append(lines, ShapedLine{Baseline: baseline})
			baseline += lineAdvance
		}
	}
	return lines
}

// shapeRunes maps each rune of a paragraph through the cmap in logical
// order. Unmapped runes fall back to the font's missing-glyph slot.
func shapeRunes(para string, face Face, scale float32, clusterBase int) []shapedRune {
	runes := []rune(para)
	out := make([]shapedRune, 0, len(runes))
	for i, r := range runes {
		if r == '\r' {
			continue
		}
		gid, ok := face.GlyphIndex(r)
		if !ok {
			gid = 0
		}
		out = append(out, shapedRune{
			r:       r,
			gid:     gid,
			advance: face.Advance(gid) * scale,
			cluster: clusterBase + i,
			paraIdx: i,
			space:   unicode.IsSpace(r),
		})
	}
	return out
}

// breakLines splits a logical rune sequence into lines honoring
// MaxWidth. A break consumes the space it happens at.
func breakLines(runes []shapedRune, opts ShapeOptions) [][]shapedRune {
	if len(runes) == 0 {
		return nil
	}
	if opts.Wrap == WrapNone || opts.MaxWidth <= 0 {
		return [][]shapedRune{runes}
	}

	var out [][]shapedRune
	lineStart := 0
	lastSpace := -1
	var penX float32

	for i := 0; i < len(runes); i++ {
		sr := runes[i]
		if sr.space {
			lastSpace = i
		}
		if penX+sr.advance > opts.MaxWidth && i > lineStart {
			breakAt := i
			resumeAt := i
			if lastSpace >= lineStart {
				breakAt = lastSpace
				resumeAt = lastSpace + 1
			}
			out = append(out, runes[lineStart:breakAt])
			lineStart = resumeAt
			lastSpace = -1
			penX = 0
			i = resumeAt - 1
			continue
		}
		penX += sr.advance
	}
	if lineStart < len(runes) {
		out = append(out, runes[lineStart:])
	}
	return out
}

// layoutLine assigns pen positions in visual order. RTL segments of
// the line are reversed per the bidi algorithm.
func layoutLine(para string, runes []shapedRune, baseline float32) ShapedLine {
	line := ShapedLine{Baseline: baseline}
	if len(runes) == 0 {
		return line
	}

	ordered := visualOrder(para, runes)
	var penX float32
	for _, sr := range ordered {
		line.Glyphs = append(line.Glyphs, ShapedGlyph{
			GID:     sr.gid,
			Cluster: sr.cluster,
			X:       penX,
			Y:       baseline,
			Advance: sr.advance,
		})
		penX += sr.advance
	}
	line.Width = penX
	return line
}

// visualOrder reorders a line's runes for display. LTR-only lines come
// back unchanged.
func visualOrder(para string, runes []shapedRune) []shapedRune {
	var p bidi.Paragraph
	if _, err := p.SetString(para); err != nil {
		return runes
	}
	order, err := p.Order()
	if err != nil {
		return runes
	}

	// Direction per paragraph rune index. run.Pos() returns rune
	// indices, end inclusive.
	rtl := make([]bool, len([]rune(para)))
	hasRTL := false
	for i := 0; i < order.NumRuns(); i++ {
		run := order.Run(i)
		if run.Direction() != bidi.RightToLeft {
			continue
		}
		start, end := run.Pos()
		for j := start; j <= end && j < len(rtl); j++ {
			rtl[j] = true
			hasRTL = true
		}
	}
	if !hasRTL {
		return runes
	}

	// Reverse each maximal RTL stretch of the line in place.
	out := make([]shapedRune, len(runes))
	copy(out, runes)
	isRTL := func(sr shapedRune) bool {
		return sr.paraIdx < len(rtl) && rtl[sr.paraIdx]
	}
	i := 0
	for i < len(out) {
		if !isRTL(out[i]) {
			i++
			continue
		}
		j := i
		for j < len(out) && isRTL(out[j]) {
			j++
		}
		reverseSlice(out[i:j])
		i = j
	}
	return out
}

func reverseSlice(s []shapedRune) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
