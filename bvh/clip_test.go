package bvh

import (
	"testing"

	"github.com/achilleasa/sbvh/types"
)

func TestClipPolygon(t *testing.T) {
	tri := []types.Vec3{
		types.XYZ(0, 0, 0),
		types.XYZ(2, 0, 0),
		types.XYZ(0, 2, 0),
	}

	// A single vertex on the discarded side yields a quad
	poly := clipPolygon(tri, types.XAxis, 1, false)
	if len(poly) != 4 {
		t.Fatalf("expected 4 vertices; got %d (%v)", len(poly), poly)
	}
	for _, p := range poly {
		if p[0] > 1 {
			t.Fatalf("expected all vertices at x <= 1; got %v", p)
		}
	}

	// Two vertices on the discarded side yield a triangle
	if poly = clipPolygon(tri, types.XAxis, 1, true); len(poly) != 3 {
		t.Fatalf("expected 3 vertices; got %d (%v)", len(poly), poly)
	}

	if poly = clipPolygon(tri, types.XAxis, 5, true); len(poly) != 0 {
		t.Fatalf("expected everything to be clipped; got %v", poly)
	}
	if poly = clipPolygon(tri, types.XAxis, 5, false); len(poly) != 3 {
		t.Fatalf("expected nothing to be clipped; got %v", poly)
	}
}

func TestClipTriangleToSlab(t *testing.T) {
	tri := [3]types.Vec3{
		types.XYZ(0, 0, 0),
		types.XYZ(2, 0, 0),
		types.XYZ(0, 2, 0),
	}

	specs := []struct {
		lo, hi float64
		exp    types.Bound
	}{
		{1, 2, types.NewBound(types.XYZ(1, 0, 0), types.XYZ(2, 1, 0))},
		{0, 1, types.NewBound(types.XYZ(0, 0, 0), types.XYZ(1, 2, 0))},
		{-1, 3, types.NewBound(types.XYZ(0, 0, 0), types.XYZ(2, 2, 0))},
		{3, 4, types.EmptyBound()},
	}

	for index, spec := range specs {
		got := clipTriangleToSlab(tri, types.XAxis, spec.lo, spec.hi)
		if got != spec.exp {
			t.Errorf("[spec %d] expected bound %v; got %v", index, spec.exp, got)
		}
	}
}
