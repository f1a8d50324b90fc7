package text

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-text/typesetting/di"
	tsfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// HarfbuzzShaper shapes with go-text/typesetting's HarfBuzz port,
// adding kerning, ligatures and complex-script support over
// SimpleShaper. It needs a *Font; any other Face falls back to simple
// shaping. Safe for concurrent use.
type HarfbuzzShaper struct {
	pool sync.Pool
}

// NewHarfbuzzShaper creates a HarfBuzz-backed shaper.
func NewHarfbuzzShaper() *HarfbuzzShaper {
	return &HarfbuzzShaper{
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}
}

// Shape implements Shaper.
func (s *HarfbuzzShaper) Shape(text string, face Face, opts ShapeOptions) []ShapedLine {
	if text == "" || face == nil || opts.Size <= 0 {
		return nil
	}
	f, ok := face.(*Font)
	if !ok || f.HBFont() == nil {
		return SimpleShaper{}.Shape(text, face, opts)
	}

	scale := opts.Size / face.UnitsPerEm()
	ascent := face.Ascent() * scale
	lineAdvance := (face.Ascent() - face.Descent() + face.LineGap()) * scale

	var lines []ShapedLine
	baseline := ascent
	cluster := 0

	for _, para := range strings.Split(text, "\n") {
		glyphs := s.shapeParagraph(para, f, opts.Size)
		for i := range glyphs {
			glyphs[i].Cluster += cluster
		}
		cluster += len([]rune(para)) + 1

		paraLines := breakShaped(para, glyphs, cluster-len([]rune(para))-1, opts)
		if len(paraLines) == 0 {
			lines = append(lines, ShapedLine{Baseline: baseline})
			baseline += lineAdvance
			continue
		}
		for _, lg := range paraLines {
			lines = append(lines, relayout(lg, baseline))
			baseline += lineAdvance
		}
	}
	return lines
}

// shapeParagraph runs one HarfBuzz shaping pass over a paragraph,
// with the script taken from the first non-space character.
func (s *HarfbuzzShaper) shapeParagraph(para string, f *Font, size float32) []ShapedGlyph {
	runes := []rune(para)
	if len(runes) == 0 {
		return nil
	}

	dir := di.DirectionLTR
	script := language.Latin
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		script = language.LookupScript(r)
		break
	}

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      tsfont.NewFace(f.HBFont()),
		Size:      fixed.Int26_6(size * 64),
		Script:    script,
		Language:  language.NewLanguage("und"),
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.pool.Put(hb)

	out := make([]ShapedGlyph, 0, len(output.Glyphs))
	var penX float32
	for _, g := range output.Glyphs {
		adv := float32(g.Advance) / 64
		out = append(out, ShapedGlyph{
			GID:     GlyphID(uint16(g.GlyphID)),
			Cluster: g.TextIndex(),
			X:       penX + float32(g.XOffset)/64,
			Advance: adv,
		})
		penX += adv
	}
	return out
}

// breakShaped splits shaped glyphs into lines. Break opportunities sit
// at space clusters; the space at a soft break is consumed.
func breakShaped(para string, glyphs []ShapedGlyph, clusterBase int, opts ShapeOptions) [][]ShapedGlyph {
	if len(glyphs) == 0 {
		return nil
	}
	if opts.Wrap == WrapNone || opts.MaxWidth <= 0 {
		return [][]ShapedGlyph{glyphs}
	}

	runes := []rune(para)
	isSpace := func(g ShapedGlyph) bool {
		idx := g.Cluster - clusterBase
		return idx >= 0 && idx < len(runes) && unicode.IsSpace(runes[idx])
	}

	var out [][]ShapedGlyph
	lineStart := 0
	lastSpace := -1
	var penX float32

	for i := 0; i < len(glyphs); i++ {
		g := glyphs[i]
		if isSpace(g) {
			lastSpace = i
		}
		if penX+g.Advance > opts.MaxWidth && i > lineStart {
			breakAt, resumeAt := i, i
			if lastSpace >= lineStart {
				breakAt = lastSpace
				resumeAt = lastSpace + 1
			}
			out = append(out, glyphs[lineStart:breakAt])
			lineStart = resumeAt
			lastSpace = -1
			penX = 0
			i = resumeAt - 1
			continue
		}
		penX += g.Advance
	}
	if lineStart < len(glyphs) {
		out = append(out, glyphs[lineStart:])
	}
	return out
}

// relayout rebases a line's pen positions at x=0 on its baseline.
func relayout(glyphs []ShapedGlyph, baseline float32) ShapedLine {
	line := ShapedLine{Baseline: baseline}
	var penX float32
	for _, g := range glyphs {
		g.X = penX
		g.Y = baseline
		line.Glyphs = append(line.Glyphs, g)
		penX += g.Advance
	}
	line.Width = penX
	return line
}
