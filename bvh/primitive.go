package bvh

import (
	"fmt"
	"math"

	"github.com/achilleasa/sbvh/asset/mesh"
	"github.com/achilleasa/sbvh/types"
)

// Marks a primitive table slot that does not hold a primitive.
const InvalidReference uint32 = math.MaxUint32

// A triangle reference together with the bound of the part of the triangle
// it covers. Spatial splits shrink the bound of a primitive to the side of
// the split plane it was assigned to.
type Primitive struct {
	Reference uint32
	Bound     types.Bound
}

func invalidPrimitive() Primitive {
	return Primitive{
		Reference: InvalidReference,
		Bound:     types.EmptyBound(),
	}
}

// Returns true if this primitive refers to a triangle.
func (p Primitive) Valid() bool {
	return p.Reference != InvalidReference
}

// Get the primitive bound centroid.
func (p Primitive) Centroid() types.Vec3 {
	return p.Bound.Center()
}

// The primitive table is the working set of the builder. It is partitioned in
// place while the tree is constructed and is never shared outside a build.
type primitiveTable struct {
	prims []Primitive

	// The union of all primitive bounds.
	rootBound types.Bound

	// The number of slots populated from the input triangles. Any slots
	// after this index are reserved for spatial split duplicates.
	populated int
}

// Populate a primitive table with one entry per triangle in the
// [offset, offset+count) range. The table is padded with invalid slots so
// that spatial splits can duplicate references.
func newPrimitiveTable(vertices []mesh.Vertex, triangles []mesh.Triangle, offset, count int, padding float64) (*primitiveTable, error) {
	if len(vertices) == 0 || len(triangles) == 0 {
		return nil, ErrEmptyGeometry
	}
	if offset < 0 || offset >= len(triangles) || count <= 0 || count > len(triangles)-offset {
		return nil, fmt.Errorf("%w: offset %d, count %d, triangles %d", ErrTriangleRange, offset, count, len(triangles))
	}
	if uint64(offset+count) > uint64(InvalidReference) {
		return nil, fmt.Errorf("%w: triangle indices do not fit in 32 bits", ErrTriangleRange)
	}

	reserved := int(math.Ceil(float64(count) * padding))
	table := &primitiveTable{
		prims:     make([]Primitive, count+reserved),
		rootBound: types.EmptyBound(),
		populated: count,
	}

	numVertices := uint32(len(vertices))
	for i := 0; i < count; i++ {
		triIndex := offset + i
		tri := triangles[triIndex]
		if tri.I0 >= numVertices || tri.I1 >= numVertices || tri.I2 >= numVertices {
			return nil, fmt.Errorf("%w: triangle %d references vertices (%d, %d, %d); vertex count %d", ErrVertexIndex, triIndex, tri.I0, tri.I1, tri.I2, numVertices)
		}

		bound := types.BoundOf(
			vertices[tri.I0].Position,
			vertices[tri.I1].Position,
			vertices[tri.I2].Position,
		)
		table.prims[i] = Primitive{
			Reference: uint32(triIndex),
			Bound:     bound,
		}
		table.rootBound = table.rootBound.Combine(bound)
	}

	for i := count; i < len(table.prims); i++ {
		table.prims[i] = invalidPrimitive()
	}

	return table, nil
}

// Get the number of reserved slots.
func (t *primitiveTable) reserved() int {
	return len(t.prims) - t.populated
}

// Copy the valid primitives in [start, end) and calculate their enclosing
// and centroid bounds.
func (t *primitiveTable) gather(start, end int) (entries []Primitive, bound, centroidBound types.Bound) {
	bound = types.EmptyBound()
	centroidBound = types.EmptyBound()
	entries = make([]Primitive, 0, end-start)
	for _, prim := range t.prims[start:end] {
		if !prim.Valid() {
			continue
		}
		entries = append(entries, prim)
		bound = bound.Combine(prim.Bound)
		centroidBound = centroidBound.CombinePoint(prim.Centroid())
	}
	return entries, bound, centroidBound
}

// Write the left entries from start upwards and the right entries from end-1
// downwards; every slot in between is invalidated. Returns the index where
// the range should be split; it lies in the middle of the free gap so that
// both halves inherit some of the reserved slots.
func (t *primitiveTable) partition(start, end int, left, right []Primitive) (mid int) {
	for i := start; i < end; i++ {
		t.prims[i] = invalidPrimitive()
	}

	lCursor := start
	for _, prim := range left {
		t.prims[lCursor] = prim
		lCursor++
	}

	rCursor := end - 1
	for _, prim := range right {
		t.prims[rCursor] = prim
		rCursor--
	}

	return lCursor + (rCursor+1-lCursor)/2
}
