package binui

import "github.com/gogpu/binui/render"

// clipTriangles clips a triangle list against an axis-aligned rect
// using Sutherland-Hodgman, interpolating coords and color along cut
// edges. Vertices arrive and leave in groups of three.
func clipTriangles(verts []render.Vertex, clip Rect) []render.Vertex {
	if clip.Empty() {
		return nil
	}
	out := make([]render.Vertex, 0, len(verts))
	for i := 0; i+2 < len(verts); i += 3 {
		poly := clipPolygon(verts[i:i+3], clip)
		// Fan-triangulate the clipped convex polygon.
		for j := 1; j+1 < len(poly); j++ {
			out = append(out, poly[0], poly[j], poly[j+1])
		}
	}
	return out
}

type clipEdge struct {
	value float32
	// inside reports whether a coordinate is on the kept side.
	inside func(v *render.Vertex, value float32) bool
	// axis selects the coordinate being tested: 0 for x, 1 for y.
	axis int
}

func clipPolygon(tri []render.Vertex, clip Rect) []render.Vertex {
	edges := [4]clipEdge{
		{value: clip.X, axis: 0, inside: func(v *render.Vertex, e float32) bool { return v.Position[0] >= e }},
		{value: clip.Right(), axis: 0, inside: func(v *render.Vertex, e float32) bool { return v.Position[0] <= e }},
		{value: clip.Y, axis: 1, inside: func(v *render.Vertex, e float32) bool { return v.Position[1] >= e }},
		{value: clip.Bottom(), axis: 1, inside: func(v *render.Vertex, e float32) bool { return v.Position[1] <= e }},
	}

	poly := make([]render.Vertex, len(tri))
	copy(poly, tri)
	var next []render.Vertex

	for _, edge := range edges {
		if len(poly) == 0 {
			return nil
		}
		next = next[:0]
		for i := range poly {
			cur := poly[i]
			prev := poly[(i+len(poly)-1)%len(poly)]
			curIn := edge.inside(&cur, edge.value)
			prevIn := edge.inside(&prev, edge.value)

			if curIn {
				if !prevIn {
					next = append(next, lerpVertex(prev, cur, edge))
				}
				next = append(next, cur)
			} else if prevIn {
				next = append(next, lerpVertex(prev, cur, edge))
			}
		}
		poly = append(poly[:0], next...)
	}
	return poly
}

// lerpVertex returns the intersection of segment a-b with the clip
// edge, interpolating every varying attribute.
func lerpVertex(a, b render.Vertex, edge clipEdge) render.Vertex {
	da := a.Position[edge.axis]
	db := b.Position[edge.axis]
	t := float32(0)
	if db != da {
		t = (edge.value - da) / (db - da)
	}

	v := a
	for i := 0; i < 3; i++ {
		v.Position[i] = a.Position[i] + t*(b.Position[i]-a.Position[i])
	}
	for i := 0; i < 2; i++ {
		v.Coords[i] = a.Coords[i] + t*(b.Coords[i]-a.Coords[i])
	}
	for i := 0; i < 4; i++ {
		v.Color[i] = a.Color[i] + t*(b.Color[i]-a.Color[i])
	}
	// Type and TexIndex are flat attributes; keep a's.
	return v
}
