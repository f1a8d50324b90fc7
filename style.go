package binui

import (
	"github.com/gogpu/binui/render"
	"github.com/gogpu/binui/text"
)

// Position selects which rectangle a bin's offsets are resolved
// against.
type Position uint8

const (
	// PositionWindow resolves offsets against the window.
	PositionWindow Position = iota

	// PositionParent resolves offsets against the parent's computed
	// rect.
	PositionParent

	// PositionFloat resolves offsets against the parent's content
	// rect, inside its padding.
	PositionFloat
)

// Overflow controls whether descendants may draw outside the bin.
type Overflow uint8

const (
	// OverflowVisible lets children draw past the bin's rect.
	OverflowVisible Overflow = iota

	// OverflowClip clips children against the bin's rect.
	OverflowClip
)

// F32 returns a pointer for optional BinStyle fields.
func F32(v float32) *float32 { return &v }

// I32 returns a pointer for optional integer fields.
func I32(v int32) *int32 { return &v }

// ImageSource is raw RGBA8 pixel data for a background image. The
// bytes are fingerprinted for atlas deduplication, so the same data
// shared across bins uploads once.
type ImageSource struct {
	Data   []byte
	Width  int
	Height int
}

// BinStyle describes a bin's layout and appearance. Every field is
// optional; nil pointers and zero colors fall back to inherited or
// default values. Layout needs at least one of top/bottom plus height
// resolvable on the vertical axis, and the same for left/right plus
// width; otherwise the bin fails with a StyleError and is skipped.
type BinStyle struct {
	Position Position
	ZIndex   *int32

	Top    *float32
	Bottom *float32
	Left   *float32
	Right  *float32
	Width  *float32
	Height *float32

	PadT *float32
	PadB *float32
	PadL *float32
	PadR *float32

	BorderSizeT  *float32
	BorderSizeB  *float32
	BorderSizeL  *float32
	BorderSizeR  *float32
	BorderColorT Color
	BorderColorB Color
	BorderColorL Color
	BorderColorR Color

	BackColor Color
	BackImage *ImageSource

	Text       string
	TextSize   *float32
	TextColor  Color
	TextWrap   text.Wrap
	FontFamily string
	FontWeight *int32

	Overflow  Overflow
	Opacity   *float32
	Focusable bool

	// Custom vertices are appended after the generated geometry, in
	// the bin's coordinate space.
	Custom []render.Vertex
}

// pad returns the four padding values with nil as zero.
func (s *BinStyle) pad() (t, b, l, r float32) {
	return deref(s.PadT), deref(s.PadB), deref(s.PadL), deref(s.PadR)
}

// opacity returns the effective opacity, default 1.
func (s *BinStyle) opacity() float32 {
	if s.Opacity == nil {
		return 1
	}
	o := *s.Opacity
	if o < 0 {
		return 0
	}
	if o > 1 {
		return 1
	}
	return o
}

// horizontalSpec reports whether the horizontal axis can resolve both
// a size and a position.
func (s *BinStyle) horizontalSpec() bool {
	size := s.Width != nil || (s.Left != nil && s.Right != nil)
	pos := s.Left != nil || s.Right != nil
	return size && pos
}

// verticalSpec reports whether the vertical axis can resolve both a
// size and a position.
func (s *BinStyle) verticalSpec() bool {
	size := s.Height != nil || (s.Top != nil && s.Bottom != nil)
	pos := s.Top != nil || s.Bottom != nil
	return size && pos
}

func deref(p *float32) float32 {
	if p == nil {
		return 0
	}
	return *p
}
