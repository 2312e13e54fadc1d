package types

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/math/f32"
)

// Vec3 is the double precision vector used while building acceleration
// structures.
type Vec3 = mgl64.Vec3

// Vec3f is the single precision vector stored in GPU-facing buffers.
type Vec3f f32.Vec3

// Axis selects one of the three vector components.
type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// Extents smaller than this value are treated as degenerate.
const Epsilon = 1e-6

// Define a 3 component vector.
func XYZ(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// Calc min component from two vectors
func MinVec3(v1, v2 Vec3) Vec3 {
	out := v1
	if v2[0] < out[0] {
		out[0] = v2[0]
	}
	if v2[1] < out[1] {
		out[1] = v2[1]
	}
	if v2[2] < out[2] {
		out[2] = v2[2]
	}
	return out
}

// Calc max component from two vectors
func MaxVec3(v1, v2 Vec3) Vec3 {
	out := v1
	if v2[0] > out[0] {
		out[0] = v2[0]
	}
	if v2[1] > out[1] {
		out[1] = v2[1]
	}
	if v2[2] > out[2] {
		out[2] = v2[2]
	}
	return out
}

// Lerp returns the point at fraction t along the segment v1 -> v2.
func Lerp(v1, v2 Vec3, t float64) Vec3 {
	return v1.Add(v2.Sub(v1).Mul(t))
}

// Downcast to a single precision vector rounding every component towards
// -inf so the result is never greater than v.
func ToVec3fFloor(v Vec3) Vec3f {
	var out Vec3f
	for i := 0; i < 3; i++ {
		f := float32(v[i])
		if float64(f) > v[i] {
			f = math.Nextafter32(f, float32(math.Inf(-1)))
		}
		out[i] = f
	}
	return out
}

// Downcast to a single precision vector rounding every component towards
// +inf so the result is never smaller than v.
func ToVec3fCeil(v Vec3) Vec3f {
	var out Vec3f
	for i := 0; i < 3; i++ {
		f := float32(v[i])
		if float64(f) < v[i] {
			f = math.Nextafter32(f, float32(math.Inf(1)))
		}
		out[i] = f
	}
	return out
}

// Expand a single precision vector back to double precision.
func (v Vec3f) Vec3() Vec3 {
	return Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}
