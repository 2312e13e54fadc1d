package bvh

import "github.com/achilleasa/sbvh/types"

// Clip a convex polygon against the axis-aligned plane at position and keep
// the part lying above (keepAbove) or below the plane.
//
// Each vertex is classified by the sign of vertex[axis]-position. Vertices on
// the kept side (or on the plane) are emitted and wherever an edge crosses the
// plane the interpolated crossing point is inserted. For a triangle with a
// single vertex on the discarded side this yields the two kept vertices plus
// the two crossing points.
func clipPolygon(points []types.Vec3, axis types.Axis, position float64, keepAbove bool) []types.Vec3 {
	if len(points) == 0 {
		return nil
	}

	dist := func(p types.Vec3) float64 {
		if keepAbove {
			return p[axis] - position
		}
		return position - p[axis]
	}

	out := make([]types.Vec3, 0, len(points)+1)
	for i, cur := range points {
		next := points[(i+1)%len(points)]
		dCur, dNext := dist(cur), dist(next)

		if dCur >= 0 {
			out = append(out, cur)
		}

		if (dCur >= 0) != (dNext >= 0) {
			crossing := types.Lerp(cur, next, dCur/(dCur-dNext))
			crossing[axis] = position
			out = append(out, crossing)
		}
	}

	return out
}

// Calculate the bound of the part of a triangle that lies inside the slab
// [lo, hi] along axis. The result is empty if the triangle does not reach
// into the slab.
func clipTriangleToSlab(vertices [3]types.Vec3, axis types.Axis, lo, hi float64) types.Bound {
	poly := clipPolygon(vertices[:], axis, lo, true)
	poly = clipPolygon(poly, axis, hi, false)
	if len(poly) == 0 {
		return types.EmptyBound()
	}

	// Interpolation may drift slightly past the slab planes.
	bound := types.BoundOf(poly...)
	if bound.Min[axis] < lo {
		bound.Min[axis] = lo
	}
	if bound.Max[axis] > hi {
		bound.Max[axis] = hi
	}
	return bound
}
