package binui

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/binui/atlas"
	"github.com/gogpu/binui/render"
	"github.com/gogpu/binui/text"
)

// glyphPlacement keeps the mask offsets that position an atlas entry
// relative to the pen, by content fingerprint.
type glyphPlacement struct {
	left int
	top  int
}

// tessellator turns styled rects into triangle lists. It owns the CPU
// sides of both atlases and the glyph placement table. Rasterization
// of missing glyphs fans out over a bounded worker group.
type tessellator struct {
	glyphAtlas *atlas.Atlas
	imageAtlas *atlas.Atlas
	shaper     text.Shaper
	workers    int

	placements map[atlas.Fingerprint]glyphPlacement
}

func newTessellator(glyphAtlas, imageAtlas *atlas.Atlas, shaper text.Shaper, workers int) *tessellator {
	if shaper == nil {
		shaper = text.SimpleShaper{}
	}
	if workers < 1 {
		workers = 1
	}
	return &tessellator{
		glyphAtlas: glyphAtlas,
		imageAtlas: imageAtlas,
		shaper:     shaper,
		workers:    workers,
		placements: make(map[atlas.Fingerprint]glyphPlacement),
	}
}

// binVertices emits the triangle list for one bin: background color,
// background image, borders, text, then custom vertices, clipped
// against the bin's clip rect when one applies.
//
// Every atlas entry the vertices sample from comes back retained; the
// caller owns the references and must release them when the bin's
// vertex range is replaced or dropped. Retaining for the lifetime of
// the range keeps eviction from reclaiming glyphs that are still on
// screen.
func (ts *tessellator) binVertices(ctx context.Context, style *BinStyle, rect, clip Rect, layer int32, font *text.Font) ([]render.Vertex, []*atlas.Entry, error) {
	if rect.Empty() {
		return nil, nil, nil
	}
	z := float32(layer)
	opacity := style.opacity()
	verts := make([]render.Vertex, 0, 64)
	var held []*atlas.Entry

	if !style.BackColor.IsTransparent() {
		verts = appendQuad(verts, rect, z, vcolor(style.BackColor, opacity), render.VertexSolid, 0, Rect{})
	}

	if style.BackImage != nil {
		entry, err := ts.ensureImage(style.BackImage)
		if err != nil {
			return nil, nil, err
		}
		entry.Retain()
		held = append(held, entry)
		u0, v0, u1, v1 := entry.UV()
		tint := vcolor(Color{R: 1, G: 1, B: 1, A: 1}, opacity)
		verts = appendQuad(verts, rect, z, tint, render.VertexImage, 0,
			Rect{X: u0, Y: v0, W: u1 - u0, H: v1 - v0})
	}

	verts = ts.appendBorders(verts, style, rect, z, opacity)

	if style.Text != "" && font != nil {
		tv, th, err := ts.textVertices(ctx, style, rect, z, opacity, font)
		if err != nil {
			releaseEntries(held)
			return nil, nil, err
		}
		verts = append(verts, tv...)
		held = append(held, th...)
	}

	for _, cv := range style.Custom {
		cv.Position[0] += rect.X
		cv.Position[1] += rect.Y
		cv.Position[2] = z
		verts = append(verts, cv)
	}

	if !clip.Empty() && needsClip(rect, clip) {
		verts = clipTriangles(verts, clip)
	}
	return verts, held, nil
}

// releaseEntries drops one reference from each held entry.
func releaseEntries(entries []*atlas.Entry) {
	for _, e := range entries {
		e.Release()
	}
}

func (ts *tessellator) appendBorders(verts []render.Vertex, style *BinStyle, rect Rect, z, opacity float32) []render.Vertex {
	bt := deref(style.BorderSizeT)
	bb := deref(style.BorderSizeB)
	bl := deref(style.BorderSizeL)
	br := deref(style.BorderSizeR)

	if bt > 0 && !style.BorderColorT.IsTransparent() {
		verts = appendQuad(verts, Rect{X: rect.X, Y: rect.Y, W: rect.W, H: bt},
			z, vcolor(style.BorderColorT, opacity), render.VertexSolid, 0, Rect{})
	}
	if bb > 0 && !style.BorderColorB.IsTransparent() {
		verts = appendQuad(verts, Rect{X: rect.X, Y: rect.Bottom() - bb, W: rect.W, H: bb},
			z, vcolor(style.BorderColorB, opacity), render.VertexSolid, 0, Rect{})
	}
	if bl > 0 && !style.BorderColorL.IsTransparent() {
		verts = appendQuad(verts, Rect{X: rect.X, Y: rect.Y + bt, W: bl, H: rect.H - bt - bb},
			z, vcolor(style.BorderColorL, opacity), render.VertexSolid, 0, Rect{})
	}
	if br > 0 && !style.BorderColorR.IsTransparent() {
		verts = appendQuad(verts, Rect{X: rect.Right() - br, Y: rect.Y + bt, W: br, H: rect.H - bt - bb},
			z, vcolor(style.BorderColorR, opacity), render.VertexSolid, 0, Rect{})
	}
	return verts
}

// textVertices shapes the bin's text into the content rect and emits
// one glyph quad per visible glyph mask. Each distinct glyph entry is
// retained once and returned for the caller to hold.
func (ts *tessellator) textVertices(ctx context.Context, style *BinStyle, rect Rect, z, opacity float32, font *text.Font) ([]render.Vertex, []*atlas.Entry, error) {
	pt, _, pl, pr := style.pad()
	content := Rect{
		X: rect.X + pl,
		Y: rect.Y + pt,
		W: rect.W - pl - pr,
		H: rect.H - pt,
	}
	size := deref(style.TextSize)
	if size <= 0 {
		size = defaultTextSize
	}
	color := style.TextColor
	if color.IsTransparent() {
		color = Color{A: 1}
	}

	lines := ts.shaper.Shape(style.Text, font, text.ShapeOptions{
		Size:     size,
		MaxWidth: content.W,
		Wrap:     style.TextWrap,
	})

	if err := ts.prepareGlyphs(ctx, font, lines, size); err != nil {
		return nil, nil, err
	}

	vcol := vcolor(color, opacity)
	var verts []render.Vertex
	var held []*atlas.Entry
	retained := make(map[atlas.Fingerprint]bool)
	for _, line := range lines {
		for _, g := range line.Glyphs {
			fp := atlas.GlyphFingerprint(font.ID(), uint16(g.GID), sizeKey(size))
			entry, ok := ts.glyphAtlas.Lookup(fp)
			if !ok {
				// Empty masks, like spaces, have no atlas entry.
				continue
			}
			if !retained[fp] {
				entry.Retain()
				held = append(held, entry)
				retained[fp] = true
			}
			place := ts.placements[fp]
			region := entry.Region()
			quad := Rect{
				X: content.X + g.X + float32(place.left),
				Y: content.Y + line.Baseline - float32(place.top),
				W: float32(region.W),
				H: float32(region.H),
			}
			u0, v0, u1, v1 := entry.UV()
			verts = appendQuad(verts, quad, z, vcol, render.VertexGlyph, 0,
				Rect{X: u0, Y: v0, W: u1 - u0, H: v1 - v0})
		}
	}
	return verts, held, nil
}

// sizeKey converts a pixel size to the 26.6 fixed-point fingerprint key.
func sizeKey(size float32) uint32 {
	return uint32(size * 64)
}

// prepareGlyphs rasterizes every missing glyph of the shaped lines
// into the glyph atlas, spreading the scanline work over the worker
// group. Atlas exhaustion surfaces as ErrAtlasFull after the atlas's
// own eviction attempt.
func (ts *tessellator) prepareGlyphs(ctx context.Context, font *text.Font, lines []text.ShapedLine, size float32) error {
	type job struct {
		fp  atlas.Fingerprint
		gid text.GlyphID
	}
	seen := make(map[atlas.Fingerprint]bool)
	var jobs []job
	for _, line := range lines {
		for _, g := range line.Glyphs {
			fp := atlas.GlyphFingerprint(font.ID(), uint16(g.GID), sizeKey(size))
			if seen[fp] {
				continue
			}
			seen[fp] = true
			if _, ok := ts.glyphAtlas.Lookup(fp); ok {
				continue
			}
			jobs = append(jobs, job{fp: fp, gid: g.GID})
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	masks := make([]*text.Mask, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ts.workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := text.Rasterize(font, j.gid, size)
			if err != nil {
				return fmt.Errorf("rasterize glyph %d: %w", j.gid, err)
			}
			masks[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Atlas inserts stay on one goroutine so packing is deterministic.
	for i, j := range jobs {
		m := masks[i]
		if m.IsEmpty() {
			continue
		}
		if _, err := ts.glyphAtlas.Upsert(j.fp, m.Width, m.Height, m.Pix); err != nil {
			if errors.Is(err, atlas.ErrAtlasFull) {
				return ErrAtlasFull
			}
			return err
		}
		ts.placements[j.fp] = glyphPlacement{left: m.Left, top: m.Top}
	}
	return nil
}

// ensureImage uploads a background image into the image atlas once per
// unique content.
func (ts *tessellator) ensureImage(src *ImageSource) (*atlas.Entry, error) {
	if src.Width <= 0 || src.Height <= 0 || len(src.Data) < src.Width*src.Height*4 {
		return nil, fmt.Errorf("background image %dx%d with %d bytes: %w",
			src.Width, src.Height, len(src.Data), ErrInvalidImage)
	}
	fp := atlas.ImageFingerprint(src.Data)
	if entry, ok := ts.imageAtlas.Lookup(fp); ok {
		return entry, nil
	}
	entry, err := ts.imageAtlas.Upsert(fp, src.Width, src.Height, src.Data)
	if err != nil {
		if errors.Is(err, atlas.ErrAtlasFull) {
			return nil, ErrAtlasFull
		}
		return nil, err
	}
	return entry, nil
}

const defaultTextSize = 16

// needsClip reports whether any of the rect sticks out of the clip.
func needsClip(rect, clip Rect) bool {
	return rect.X < clip.X || rect.Y < clip.Y ||
		rect.Right() > clip.Right() || rect.Bottom() > clip.Bottom()
}

// vcolor premultiplies a linear color and folds in the bin opacity.
func vcolor(c Color, opacity float32) [4]float32 {
	a := float32(c.A) * opacity
	return [4]float32{
		float32(c.R) * a,
		float32(c.G) * a,
		float32(c.B) * a,
		a,
	}
}

// appendQuad emits two triangles covering the rect. UVs interpolate
// over the uv rect for textured types.
func appendQuad(verts []render.Vertex, r Rect, z float32, color [4]float32, typ render.VertexType, tex uint32, uv Rect) []render.Vertex {
	v := func(x, y, u, vv float32) render.Vertex {
		return render.Vertex{
			Position: [3]float32{x, y, z},
			Coords:   [2]float32{u, vv},
			Color:    color,
			Type:     typ,
			TexIndex: tex,
		}
	}
	x0, y0 := r.X, r.Y
	x1, y1 := r.Right(), r.Bottom()
	u0, v0 := uv.X, uv.Y
	u1, v1 := uv.Right(), uv.Bottom()

	return append(verts,
		v(x0, y0, u0, v0), v(x1, y0, u1, v0), v(x0, y1, u0, v1),
		v(x1, y0, u1, v0), v(x1, y1, u1, v1), v(x0, y1, u0, v1),
	)
}
