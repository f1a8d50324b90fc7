package binui

import (
	"math"
	"sort"
)

// Rect is an axis-aligned rectangle in device pixels.
type Rect struct {
	X, Y, W, H float32
}

// Right returns the exclusive right edge.
func (r Rect) Right() float32 { return r.X + r.W }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() float32 { return r.Y + r.H }

// Empty reports a rect with no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Intersect returns the overlap of two rects, possibly empty.
func (r Rect) Intersect(o Rect) Rect {
	x0 := maxf(r.X, o.X)
	y0 := maxf(r.Y, o.Y)
	x1 := minf(r.Right(), o.Right())
	y1 := minf(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// ComputedRect is a bin's resolved layout for one frame.
type ComputedRect struct {
	Rect
	Z int32
}

// layoutBin is the immutable per-bin view layout works on, decoupled
// from the live arena so the computation stays a pure function.
type layoutBin struct {
	id       BinID
	seq      uint64
	style    *BinStyle
	children []*layoutBin
}

// layoutOutput is everything one layout pass produces.
type layoutOutput struct {
	Rects  map[BinID]ComputedRect
	Clips  map[BinID]Rect
	Errors map[BinID]*StyleError

	// Order lists laid-out bins back to front: ascending z, then
	// creation order.
	Order []BinID
}

// computeLayout resolves rects for every bin reachable from the given
// roots. Identical inputs always produce identical outputs.
func computeLayout(roots []*layoutBin, winW, winH float32, dpiScale float64, ignoreDPI bool) *layoutOutput {
	out := &layoutOutput{
		Rects:  make(map[BinID]ComputedRect),
		Clips:  make(map[BinID]Rect),
		Errors: make(map[BinID]*StyleError),
	}
	if ignoreDPI || dpiScale <= 0 {
		dpiScale = 1
	}

	window := Rect{W: winW, H: winH}
	for _, root := range roots {
		layoutNode(out, root, window, window, window, window, 0)
	}

	// Device-pixel snap after scaling, round half to even.
	if dpiScale != 1 {
		for id, cr := range out.Rects {
			cr.Rect = scaleRect(cr.Rect, dpiScale)
			out.Rects[id] = cr
		}
		for id, clip := range out.Clips {
			out.Clips[id] = scaleRect(clip, dpiScale)
		}
	} else {
		for id, cr := range out.Rects {
			cr.Rect = snapRect(cr.Rect)
			out.Rects[id] = cr
		}
		for id, clip := range out.Clips {
			out.Clips[id] = snapRect(clip)
		}
	}

	order := make([]orderKey, 0, len(out.Rects))
	collectOrder(roots, out, &order)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].z != order[j].z {
			return order[i].z < order[j].z
		}
		return order[i].seq < order[j].seq
	})
	out.Order = make([]BinID, len(order))
	for i, k := range order {
		out.Order[i] = k.id
	}
	return out
}

type orderKey struct {
	id  BinID
	z   int32
	seq uint64
}

func collectOrder(bins []*layoutBin, out *layoutOutput, order *[]orderKey) {
	for _, lb := range bins {
		if cr, ok := out.Rects[lb.id]; ok {
			*order = append(*order, orderKey{id: lb.id, z: cr.Z, seq: lb.seq})
			collectOrder(lb.children, out, order)
		}
	}
}

// layoutNode resolves one bin and recurses into its children. A bin
// whose style cannot resolve either axis is recorded as failed and its
// subtree is skipped; siblings are unaffected. parentContent is the
// parent's rect inset by the parent's padding, for floating children.
func layoutNode(out *layoutOutput, lb *layoutBin, window, parentRect, parentContent, parentClip Rect, parentZ int32) {
	style := lb.style
	if style == nil {
		style = &BinStyle{}
	}

	container := parentRect
	switch style.Position {
	case PositionWindow:
		container = window
	case PositionParent:
		container = parentRect
	case PositionFloat:
		container = parentContent
	}

	if !style.horizontalSpec() {
		out.Errors[lb.id] = &StyleError{Bin: lb.id, Reason: StyleUnderspecified, Axis: "horizontal"}
		return
	}
	if !style.verticalSpec() {
		out.Errors[lb.id] = &StyleError{Bin: lb.id, Reason: StyleUnderspecified, Axis: "vertical"}
		return
	}

	x, w := resolveAxis(style.Left, style.Right, style.Width, container.X, container.W)
	y, h := resolveAxis(style.Top, style.Bottom, style.Height, container.Y, container.H)
	if w < 0 {
		Logger().Warn("layout clamped negative width", "bin", lb.id, "width", w)
		w = 0
	}
	if h < 0 {
		Logger().Warn("layout clamped negative height", "bin", lb.id, "height", h)
		h = 0
	}

	z := parentZ
	if style.ZIndex != nil {
		z = *style.ZIndex
	}

	rect := Rect{X: x, Y: y, W: w, H: h}
	out.Rects[lb.id] = ComputedRect{Rect: rect, Z: z}
	out.Clips[lb.id] = parentClip

	childClip := parentClip
	if style.Overflow == OverflowClip {
		childClip = parentClip.Intersect(rect)
	}
	pt, pb, pl, pr := style.pad()
	content := Rect{
		X: rect.X + pl,
		Y: rect.Y + pt,
		W: rect.W - pl - pr,
		H: rect.H - pt - pb,
	}
	for _, child := range lb.children {
		layoutNode(out, child, window, rect, content, childClip, z+1)
	}
}

// resolveAxis resolves one axis per the offset rules: an explicit size
// wins, else the size spans between the two offsets. Position comes
// from the low offset when present, else from the high offset and the
// size.
func resolveAxis(lo, hi, size *float32, containerLo, containerSize float32) (pos, sz float32) {
	switch {
	case size != nil:
		sz = *size
	default:
		sz = containerSize - *lo - *hi
	}
	if lo != nil {
		pos = containerLo + *lo
	} else {
		pos = containerLo + containerSize - *hi - sz
	}
	return pos, sz
}

func scaleRect(r Rect, scale float64) Rect {
	return Rect{
		X: roundEven(float64(r.X) * scale),
		Y: roundEven(float64(r.Y) * scale),
		W: roundEven(float64(r.W) * scale),
		H: roundEven(float64(r.H) * scale),
	}
}

func snapRect(r Rect) Rect {
	return Rect{
		X: roundEven(float64(r.X)),
		Y: roundEven(float64(r.Y)),
		W: roundEven(float64(r.W)),
		H: roundEven(float64(r.H)),
	}
}

func roundEven(v float64) float32 {
	return float32(math.RoundToEven(v))
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
