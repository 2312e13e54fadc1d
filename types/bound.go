package types

import "math"

// Bound is an axis-aligned bounding box.
//
// The zero extent bound returned by EmptyBound (min = +inf, max = -inf) is the
// identity element for Combine and is used to seed accumulators. All methods
// use value receivers and return new bounds.
type Bound struct {
	Min Vec3
	Max Vec3
}

// Get an empty bound.
func EmptyBound() Bound {
	inf := math.Inf(1)
	return Bound{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Create a bound from two corner points. Components are swapped where needed
// so that Min[i] <= Max[i] holds for every axis.
func NewBound(a, b Vec3) Bound {
	return Bound{
		Min: MinVec3(a, b),
		Max: MaxVec3(a, b),
	}
}

// Create the bound enclosing a set of points.
func BoundOf(points ...Vec3) Bound {
	b := EmptyBound()
	for _, p := range points {
		b = b.CombinePoint(p)
	}
	return b
}

// Returns true if the bound does not enclose any point.
func (b Bound) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Get the minimal bound containing both b and other.
func (b Bound) Combine(other Bound) Bound {
	return Bound{
		Min: MinVec3(b.Min, other.Min),
		Max: MaxVec3(b.Max, other.Max),
	}
}

// Get the minimal bound containing b and p.
func (b Bound) CombinePoint(p Vec3) Bound {
	return Bound{
		Min: MinVec3(b.Min, p),
		Max: MaxVec3(b.Max, p),
	}
}

// Grow the bound along a single axis so that it includes coordinate v.
func (b Bound) ExtendAxis(axis Axis, v float64) Bound {
	if v < b.Min[axis] {
		b.Min[axis] = v
	}
	if v > b.Max[axis] {
		b.Max[axis] = v
	}
	return b
}

// Get the overlapping region of two bounds. The result is empty if the
// bounds do not overlap.
func (b Bound) Intersect(other Bound) Bound {
	return Bound{
		Min: MaxVec3(b.Min, other.Min),
		Max: MinVec3(b.Max, other.Max),
	}
}

// Returns true if the two bounds share at least one point.
func (b Bound) Overlaps(other Bound) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < other.Min[i] || b.Min[i] > other.Max[i] {
			return false
		}
	}
	return true
}

// Returns true if other lies within b, allowing for a tolerance of eps on
// every side. An empty bound is contained by any bound.
func (b Bound) Contains(other Bound, eps float64) bool {
	if other.IsEmpty() {
		return true
	}
	for i := 0; i < 3; i++ {
		if other.Min[i] < b.Min[i]-eps || other.Max[i] > b.Max[i]+eps {
			return false
		}
	}
	return true
}

// Returns true if p lies within b.
func (b Bound) ContainsPoint(p Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Get the bound side lengths. Empty bounds have a zero extent.
func (b Bound) Extent() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Get the bound center.
func (b Bound) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Get the total area of the six bound faces.
func (b Bound) SurfaceArea() float64 {
	side := b.Extent()
	return 2.0 * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}

// Get the enclosed volume.
func (b Bound) Volume() float64 {
	side := b.Extent()
	return side[0] * side[1] * side[2]
}

// Get the axis with the largest extent. Ties resolve to the lowest axis.
func (b Bound) LargestAxis() Axis {
	side := b.Extent()
	axis := XAxis
	if side[1] > side[axis] {
		axis = YAxis
	}
	if side[2] > side[axis] {
		axis = ZAxis
	}
	return axis
}

// Get the axis with the smallest extent. Ties resolve to the lowest axis.
func (b Bound) SmallestAxis() Axis {
	side := b.Extent()
	axis := XAxis
	if side[1] < side[axis] {
		axis = YAxis
	}
	if side[2] < side[axis] {
		axis = ZAxis
	}
	return axis
}

// Map a world coordinate along axis into [0, 1] relative to the bound extent.
// Coordinates outside the bound are clamped. Degenerate extents map to 0.
func (b Bound) UnitCoordinate(v float64, axis Axis) float64 {
	side := b.Max[axis] - b.Min[axis]
	if !(side > Epsilon) {
		return 0
	}

	u := (v - b.Min[axis]) / side
	if u < 0 {
		return 0
	} else if u > 1 {
		return 1
	}
	return u
}

// Intersect the bound with a ray using the slab test. The method returns the
// parametric entry and exit distances clipped to [tMin, tMax] and whether the
// ray hits the bound within that interval.
func (b Bound) IntersectRay(ray Ray, tMin, tMax float64) (tNear, tFar float64, hit bool) {
	if b.IsEmpty() {
		return 0, 0, false
	}

	tNear, tFar = tMin, tMax
	for i := 0; i < 3; i++ {
		if ray.Dir[i] == 0 {
			if ray.Origin[i] < b.Min[i] || ray.Origin[i] > b.Max[i] {
				return 0, 0, false
			}
			continue
		}

		t0 := (b.Min[i] - ray.Origin[i]) * ray.InvDir[i]
		t1 := (b.Max[i] - ray.Origin[i]) * ray.InvDir[i]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return 0, 0, false
		}
	}

	return tNear, tFar, true
}

// Returns true if the segment p0 -> p1 touches the bound.
func (b Bound) IntersectSegment(p0, p1 Vec3) bool {
	_, _, hit := b.IntersectRay(NewRay(p0, p1.Sub(p0)), 0, 1)
	return hit
}
