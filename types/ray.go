package types

// A ray with a precalculated inverse direction for slab tests.
type Ray struct {
	Origin Vec3
	Dir    Vec3
	InvDir Vec3
}

// Create a new ray. The direction does not need to be normalized; distances
// reported by bound intersections are expressed in multiples of dir.
func NewRay(origin, dir Vec3) Ray {
	ray := Ray{
		Origin: origin,
		Dir:    dir,
	}
	for i := 0; i < 3; i++ {
		if dir[i] != 0 {
			ray.InvDir[i] = 1.0 / dir[i]
		}
	}
	return ray
}

// Get the point at parametric distance t.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}
