package text

import (
	"testing"
)

// fakeFace gives every glyph a fixed advance of 10 design units on a
// 20-unit em, so a size-20 shape yields 10px per glyph.
type fakeFace struct{}

func (fakeFace) ID() uint64          { return 1 }
func (fakeFace) UnitsPerEm() float32 { return 20 }
func (fakeFace) Ascent() float32     { return 16 }
func (fakeFace) Descent() float32    { return -4 }
func (fakeFace) LineGap() float32    { return 0 }

func (fakeFace) GlyphIndex(r rune) (GlyphID, bool) {
	if r > 0xffff {
		return 0, false
	}
	return GlyphID(r), true
}

func (fakeFace) Advance(gid GlyphID) float32 { return 10 }

func TestSimpleShaper_SingleLine(t *testing.T) {
	lines := SimpleShaper{}.Shape("abc", fakeFace{}, ShapeOptions{Size: 20})
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	line := lines[0]
	if len(line.Glyphs) != 3 {
		t.Fatalf("got %d glyphs, want 3", len(line.Glyphs))
	}
	// scale = 20/20 = 1, so advances are 10px each.
	for i, g := range line.Glyphs {
		if want := float32(i) * 10; g.X != want {
			t.Errorf("glyph %d X = %v, want %v", i, g.X, want)
		}
		if g.Cluster != i {
			t.Errorf("glyph %d cluster = %d, want %d", i, g.Cluster, i)
		}
	}
	if line.Width != 30 {
		t.Errorf("Width = %v, want 30", line.Width)
	}
	if line.Baseline != 16 {
		t.Errorf("Baseline = %v, want 16 (the scaled ascent)", line.Baseline)
	}
}

func TestSimpleShaper_Newlines(t *testing.T) {
	lines := SimpleShaper{}.Shape("ab\ncd\n\ne", fakeFace{}, ShapeOptions{Size: 20})
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	if len(lines[2].Glyphs) != 0 {
		t.Errorf("empty paragraph produced %d glyphs", len(lines[2].Glyphs))
	}
	// Line advance is (16 - (-4) + 0) = 20px.
	for i, line := range lines {
		want := float32(16 + i*20)
		if line.Baseline != want {
			t.Errorf("line %d baseline = %v, want %v", i, line.Baseline, want)
		}
	}
	// Clusters index the whole block including the consumed newlines.
	if got := lines[1].Glyphs[0].Cluster; got != 3 {
		t.Errorf("second line first cluster = %d, want 3", got)
	}
	if got := lines[3].Glyphs[0].Cluster; got != 7 {
		t.Errorf("last line cluster = %d, want 7", got)
	}
}

func TestSimpleShaper_WordWrap(t *testing.T) {
	// 10px per glyph, 45px max: "hello world" breaks at the space.
	lines := SimpleShaper{}.Shape("hello world", fakeFace{}, ShapeOptions{
		Size:     20,
		MaxWidth: 55,
		Wrap:     WrapWord,
	})
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if len(lines[0].Glyphs) != 5 {
		t.Errorf("first line has %d glyphs, want 5 (space consumed)", len(lines[0].Glyphs))
	}
	if len(lines[1].Glyphs) != 5 {
		t.Errorf("second line has %d glyphs, want 5", len(lines[1].Glyphs))
	}
	if lines[1].Glyphs[0].X != 0 {
		t.Errorf("wrapped line starts at X=%v, want 0", lines[1].Glyphs[0].X)
	}
}

func TestSimpleShaper_HardBreak(t *testing.T) {
	// One long word with no break opportunity splits mid-word.
	lines := SimpleShaper{}.Shape("abcdefgh", fakeFace{}, ShapeOptions{
		Size:     20,
		MaxWidth: 30,
		Wrap:     WrapWord,
	})
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, want := range []int{3, 3, 2} {
		if len(lines[i].Glyphs) != want {
			t.Errorf("line %d has %d glyphs, want %d", i, len(lines[i].Glyphs), want)
		}
	}
}

func TestSimpleShaper_NoWrapIgnoresMaxWidth(t *testing.T) {
	lines := SimpleShaper{}.Shape("abcdef", fakeFace{}, ShapeOptions{
		Size:     20,
		MaxWidth: 30,
		Wrap:     WrapNone,
	})
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Width != 60 {
		t.Errorf("Width = %v, want 60", lines[0].Width)
	}
}

func TestSimpleShaper_Empty(t *testing.T) {
	if got := (SimpleShaper{}).Shape("", fakeFace{}, ShapeOptions{Size: 20}); got != nil {
		t.Fatalf("empty text shaped to %d lines", len(got))
	}
	if got := (SimpleShaper{}).Shape("x", fakeFace{}, ShapeOptions{Size: 0}); got != nil {
		t.Fatal("zero size should shape to nothing")
	}
}

func TestBlockHeight(t *testing.T) {
	lines := SimpleShaper{}.Shape("a\nb\nc", fakeFace{}, ShapeOptions{Size: 20})
	if got := BlockHeight(lines, fakeFace{}, 20); got != 60 {
		t.Fatalf("BlockHeight = %v, want 60", got)
	}
}

func TestVisualOrder_RTL(t *testing.T) {
	para := "אבג" // three Hebrew letters
	runes := []shapedRune{
		{r: 'א', gid: 1, advance: 10, cluster: 0, paraIdx: 0},
		{r: 'ב', gid: 2, advance: 10, cluster: 1, paraIdx: 1},
		{r: 'ג', gid: 3, advance: 10, cluster: 2, paraIdx: 2},
	}
	got := visualOrder(para, runes)
	if got[0].cluster != 2 || got[2].cluster != 0 {
		t.Fatalf("RTL text not reversed: clusters %d,%d,%d", got[0].cluster, got[1].cluster, got[2].cluster)
	}
}

func TestVisualOrder_LTRUnchanged(t *testing.T) {
	runes := []shapedRune{
		{r: 'a', cluster: 0, paraIdx: 0},
		{r: 'b', cluster: 1, paraIdx: 1},
	}
	got := visualOrder("ab", runes)
	if got[0].cluster != 0 || got[1].cluster != 1 {
		t.Fatal("LTR text reordered")
	}
}
