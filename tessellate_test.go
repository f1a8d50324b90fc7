package binui

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/binui/atlas"
	"github.com/gogpu/binui/render"
)

func newTestTessellator() *tessellator {
	glyphs := atlas.New(atlas.Config{InitialSize: 64, MaxSize: 256, BytesPerPixel: 1})
	images := atlas.New(atlas.Config{InitialSize: 64, MaxSize: 256, BytesPerPixel: 4})
	return newTessellator(glyphs, images, nil, 1)
}

func triangles(verts []render.Vertex) int { return len(verts) / 3 }

func TestBinVertices_BackgroundQuad(t *testing.T) {
	ts := newTestTessellator()
	style := &BinStyle{BackColor: MustSRGBHex("f0f0f0")}
	rect := Rect{X: 0, Y: 0, W: 300, H: 300}

	verts, _, err := ts.binVertices(context.Background(), style, rect, rect, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := triangles(verts); got != 2 {
		t.Fatalf("background emitted %d triangles, want 2", got)
	}
	for _, v := range verts {
		if v.Type != render.VertexSolid {
			t.Fatalf("background vertex type = %v, want solid", v.Type)
		}
		if v.Position[2] != 0 {
			t.Fatalf("background z = %v, want layer 0", v.Position[2])
		}
	}
}

// The two-bin scene from the overview: a full-window background and a
// bordered button. Triangle counts per part are fixed.
func TestBinVertices_ButtonScene(t *testing.T) {
	ts := newTestTessellator()

	bg := &BinStyle{
		Position: PositionWindow,
		Left:     F32(0), Top: F32(0), Width: F32(300), Height: F32(300),
		BackColor: MustSRGBHex("f0f0f0"),
	}
	button := &BinStyle{
		Position: PositionParent,
		Left:     F32(75), Top: F32(75), Width: F32(75), Height: F32(30),
		BackColor:   MustSRGBHex("c0c0ff"),
		BorderSizeT: F32(1), BorderSizeB: F32(1),
		BorderSizeL: F32(1), BorderSizeR: F32(1),
		BorderColorT: MustSRGBHex("000000"), BorderColorB: MustSRGBHex("000000"),
		BorderColorL: MustSRGBHex("000000"), BorderColorR: MustSRGBHex("000000"),
	}

	buttonNode := lb(2, button)
	root := lb(1, bg, buttonNode)
	out := computeLayout([]*layoutBin{root}, 300, 300, 1, true)

	if got := out.Rects[2].Rect; got != (Rect{X: 75, Y: 75, W: 75, H: 30}) {
		t.Fatalf("button rect = %+v", got)
	}

	window := out.Rects[1]
	bgVerts, _, err := ts.binVertices(context.Background(), bg, window.Rect, out.Clips[1], window.Z, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := triangles(bgVerts); got != 2 {
		t.Fatalf("background triangles = %d, want 2", got)
	}

	btn := out.Rects[2]
	btnVerts, _, err := ts.binVertices(context.Background(), button, btn.Rect, out.Clips[2], btn.Z, nil)
	if err != nil {
		t.Fatal(err)
	}
	// 2 fill + 2 per border edge.
	if got := triangles(btnVerts); got != 10 {
		t.Fatalf("button triangles = %d, want 10", got)
	}
	for _, v := range btnVerts {
		if v.Position[2] != 1 {
			t.Fatalf("button z = %v, want layer 1", v.Position[2])
		}
	}
}

func TestBinVertices_BordersInsideRect(t *testing.T) {
	ts := newTestTessellator()
	style := &BinStyle{
		BackColor:   MustSRGBHex("ffffff"),
		BorderSizeT: F32(2), BorderSizeB: F32(3),
		BorderSizeL: F32(4), BorderSizeR: F32(5),
		BorderColorT: MustSRGBHex("ff0000"), BorderColorB: MustSRGBHex("ff0000"),
		BorderColorL: MustSRGBHex("ff0000"), BorderColorR: MustSRGBHex("ff0000"),
	}
	rect := Rect{X: 10, Y: 20, W: 100, H: 50}

	verts, _, err := ts.binVertices(context.Background(), style, rect, rect, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range verts {
		x, y := v.Position[0], v.Position[1]
		if x < rect.X || x > rect.Right() || y < rect.Y || y > rect.Bottom() {
			t.Fatalf("vertex %d at (%v,%v) outside bin rect %+v", i, x, y, rect)
		}
	}
}

func TestBinVertices_ClippedAgainstRect(t *testing.T) {
	ts := newTestTessellator()
	style := &BinStyle{BackColor: MustSRGBHex("336699")}
	rect := Rect{X: 0, Y: 0, W: 100, H: 100}
	clip := Rect{X: 25, Y: 25, W: 50, H: 50}

	verts, _, err := ts.binVertices(context.Background(), style, rect, clip, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(verts) == 0 {
		t.Fatal("clip removed everything despite overlap")
	}
	for i, v := range verts {
		x, y := v.Position[0], v.Position[1]
		if x < clip.X-1e-3 || x > clip.Right()+1e-3 || y < clip.Y-1e-3 || y > clip.Bottom()+1e-3 {
			t.Fatalf("vertex %d at (%v,%v) escapes clip %+v", i, x, y, clip)
		}
	}
}

func TestBinVertices_CustomVerticesTranslated(t *testing.T) {
	ts := newTestTessellator()
	style := &BinStyle{
		Custom: []render.Vertex{
			{Position: [3]float32{1, 2, 0}, Type: render.VertexSolid},
			{Position: [3]float32{3, 2, 0}, Type: render.VertexSolid},
			{Position: [3]float32{1, 4, 0}, Type: render.VertexSolid},
		},
	}
	rect := Rect{X: 10, Y: 20, W: 50, H: 50}

	verts, _, err := ts.binVertices(context.Background(), style, rect, rect, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(verts) != 3 {
		t.Fatalf("got %d custom vertices, want 3", len(verts))
	}
	if verts[0].Position != [3]float32{11, 22, 3} {
		t.Fatalf("custom vertex = %v, want offset by rect origin with layer z", verts[0].Position)
	}
}

func TestBinVertices_OpacityFoldsIntoColor(t *testing.T) {
	ts := newTestTessellator()
	style := &BinStyle{
		BackColor: Color{R: 1, G: 1, B: 1, A: 1},
		Opacity:   F32(0.5),
	}
	rect := Rect{X: 0, Y: 0, W: 10, H: 10}

	verts, _, err := ts.binVertices(context.Background(), style, rect, rect, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := verts[0].Color
	for i, c := range got {
		if c < 0.499 || c > 0.501 {
			t.Fatalf("premultiplied channel %d = %v, want 0.5", i, c)
		}
	}
}

// Vertex colors arrive premultiplied from vcolor and the layer shader
// passes solid vertices through untouched, so alpha is applied exactly
// once along the whole pipeline: 50% red composited over opaque blue
// must come out as (0.5, 0, 0.5), not (0.25, 0, 0.5).
func TestVcolor_AlphaAppliedOnce(t *testing.T) {
	src := vcolor(Color{R: 1, A: 0.5}, 1)
	if src != [4]float32{0.5, 0, 0, 0.5} {
		t.Fatalf("premultiplied source = %v, want (0.5, 0, 0, 0.5)", src)
	}

	// Premultiplied over operator used by the blend pass:
	// out = src + prev * (1 - src_a).
	prev := [3]float32{0, 0, 1}
	var out [3]float32
	for i := range out {
		out[i] = src[i] + prev[i]*(1-src[3])
	}
	want := [3]float32{0.5, 0, 0.5}
	for i := range out {
		if d := out[i] - want[i]; d > 1e-6 || d < -1e-6 {
			t.Fatalf("composited channel %d = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestBinVertices_InvalidImage(t *testing.T) {
	ts := newTestTessellator()
	style := &BinStyle{
		BackImage: &ImageSource{Data: make([]byte, 8), Width: 4, Height: 4},
	}
	rect := Rect{X: 0, Y: 0, W: 10, H: 10}

	_, _, err := ts.binVertices(context.Background(), style, rect, rect, 0, nil)
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("err = %v, want ErrInvalidImage", err)
	}
}

func TestBinVertices_BackImageQuad(t *testing.T) {
	ts := newTestTessellator()
	data := make([]byte, 4*4*4)
	for i := range data {
		data[i] = 0xff
	}
	style := &BinStyle{
		BackColor: MustSRGBHex("000000"),
		BackImage: &ImageSource{Data: data, Width: 4, Height: 4},
	}
	rect := Rect{X: 0, Y: 0, W: 10, H: 10}

	verts, _, err := ts.binVertices(context.Background(), style, rect, rect, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Color first, image on top.
	if got := triangles(verts); got != 4 {
		t.Fatalf("triangles = %d, want 2 color + 2 image", got)
	}
	if verts[0].Type != render.VertexSolid {
		t.Fatal("back color must be drawn first")
	}
	if verts[6].Type != render.VertexImage {
		t.Fatal("back image must follow the color quad")
	}
	// Second identical image reuses the atlas entry.
	if _, _, err := ts.binVertices(context.Background(), style, rect, rect, 0, nil); err != nil {
		t.Fatal(err)
	}
	if got := ts.imageAtlas.Len(); got != 1 {
		t.Fatalf("image atlas holds %d entries, want deduplicated 1", got)
	}
}

func TestBinVertices_EmptyRect(t *testing.T) {
	ts := newTestTessellator()
	style := &BinStyle{BackColor: MustSRGBHex("ffffff")}

	verts, _, err := ts.binVertices(context.Background(), style, Rect{}, Rect{}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if verts != nil {
		t.Fatalf("empty rect emitted %d vertices", len(verts))
	}
}
