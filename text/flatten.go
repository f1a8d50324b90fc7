package text

// chordTolerance is the maximum distance in pixels between a flattened
// line segment and the true curve.
const chordTolerance = 0.25

// maxFlattenDepth bounds the recursion for degenerate control points.
const maxFlattenDepth = 16

// flattenQuad emits line segments approximating a quadratic bezier so
// no segment strays more than tol from the curve. Points are in the
// target pixel space.
func flattenQuad(p0, ctrl, p1 Point, tol float32, emit func(a, b Point)) {
	flattenQuadRec(p0, ctrl, p1, tol, 0, emit)
}

func flattenQuadRec(p0, ctrl, p1 Point, tol float32, depth int, emit func(a, b Point)) {
	// The maximum deviation of the chord from a quadratic is a quarter
	// of the distance from the control point to the chord midpoint.
	dx := p0.X - 2*ctrl.X + p1.X
	dy := p0.Y - 2*ctrl.Y + p1.Y
	dev := (dx*dx + dy*dy) / 16

	if dev <= tol*tol || depth >= maxFlattenDepth {
		emit(p0, p1)
		return
	}

	// de Casteljau split at t=0.5.
	ab := Point{X: (p0.X + ctrl.X) / 2, Y: (p0.Y + ctrl.Y) / 2}
	bc := Point{X: (ctrl.X + p1.X) / 2, Y: (ctrl.Y + p1.Y) / 2}
	mid := Point{X: (ab.X + bc.X) / 2, Y: (ab.Y + bc.Y) / 2}

	flattenQuadRec(p0, ab, mid, tol, depth+1, emit)
	flattenQuadRec(mid, bc, p1, tol, depth+1, emit)
}
