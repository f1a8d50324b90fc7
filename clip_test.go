package binui

import (
	"testing"

	"github.com/gogpu/binui/render"
)

func quadVerts(r Rect, z float32) []render.Vertex {
	return appendQuad(nil, r, z, [4]float32{1, 0, 0, 1}, render.VertexSolid, 0,
		Rect{X: 0, Y: 0, W: 1, H: 1})
}

func TestClipTriangles_FullyInsideUntouched(t *testing.T) {
	in := quadVerts(Rect{X: 10, Y: 10, W: 20, H: 20}, 0)
	out := clipTriangles(in, Rect{X: 0, Y: 0, W: 100, H: 100})
	if len(out) != len(in) {
		t.Fatalf("inside quad changed: %d -> %d vertices", len(in), len(out))
	}
}

func TestClipTriangles_FullyOutsideDropped(t *testing.T) {
	in := quadVerts(Rect{X: 200, Y: 200, W: 20, H: 20}, 0)
	out := clipTriangles(in, Rect{X: 0, Y: 0, W: 100, H: 100})
	if len(out) != 0 {
		t.Fatalf("outside quad kept %d vertices", len(out))
	}
}

func TestClipTriangles_StraddlingEdge(t *testing.T) {
	clip := Rect{X: 0, Y: 0, W: 50, H: 50}
	in := quadVerts(Rect{X: 25, Y: 10, W: 50, H: 20}, 0)
	out := clipTriangles(in, clip)

	if len(out) == 0 || len(out)%3 != 0 {
		t.Fatalf("clip produced %d vertices, want a non-empty triangle list", len(out))
	}
	var minX, maxX float32 = 1e9, -1e9
	for _, v := range out {
		x := v.Position[0]
		if x < clip.X-1e-4 || x > clip.Right()+1e-4 {
			t.Fatalf("vertex x=%v escapes clip", x)
		}
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
	}
	// The kept part spans from the quad's left edge to the clip edge.
	if minX > 25.001 || maxX < 49.999 {
		t.Fatalf("kept span [%v,%v], want [25,50]", minX, maxX)
	}
}

func TestClipTriangles_InterpolatesAttributes(t *testing.T) {
	clip := Rect{X: 0, Y: 0, W: 50, H: 100}
	// Quad from x=0..100 with UVs 0..1: clipping at x=50 must leave
	// the max U near 0.5.
	in := quadVerts(Rect{X: 0, Y: 0, W: 100, H: 10}, 2)
	out := clipTriangles(in, clip)

	var maxU float32
	for _, v := range out {
		if v.Position[2] != 2 {
			t.Fatalf("z changed to %v during clipping", v.Position[2])
		}
		if v.Type != render.VertexSolid {
			t.Fatal("vertex type not preserved")
		}
		if u := v.Coords[0]; u > maxU {
			maxU = u
		}
	}
	if maxU < 0.499 || maxU > 0.501 {
		t.Fatalf("max U after clip = %v, want 0.5", maxU)
	}
}

func TestClipTriangles_DegenerateClip(t *testing.T) {
	in := quadVerts(Rect{X: 0, Y: 0, W: 10, H: 10}, 0)
	out := clipTriangles(in, Rect{})
	if len(out) != 0 {
		t.Fatalf("empty clip kept %d vertices", len(out))
	}
}
