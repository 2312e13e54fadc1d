package bvh

import (
	"fmt"
	"time"

	"github.com/achilleasa/sbvh/asset/mesh"
	"github.com/achilleasa/sbvh/log"
	"github.com/achilleasa/sbvh/types"
)

// The construction context for a single build. It owns the primitive table
// and all counters and is discarded once the BVH has been assembled.
type builder struct {
	logger log.Logger
	opts   Options

	vertices  []mesh.Vertex
	triangles []mesh.Triangle

	// The working set that gets partitioned in place.
	table *primitiveTable

	// Surface area of the bound enclosing all primitives.
	rootArea float64

	// The node arena. Children are always appended before their parents.
	nodes []Node

	// Primitive references packed leaf by leaf.
	refs []uint32

	// Number of spatial splits that may still be applied.
	spatialBudget int

	stats Stats

	// Set if the build could not be completed.
	err error
}

func newBuilder(vertices []mesh.Vertex, triangles []mesh.Triangle, table *primitiveTable, opts Options) *builder {
	b := &builder{
		logger:    log.New("bvh builder"),
		opts:      opts,
		vertices:  vertices,
		triangles: triangles,
		table:     table,
		rootArea:  table.rootBound.SurfaceArea(),
		nodes:     make([]Node, 0, 2*table.populated),
		refs:      make([]uint32, 0, len(table.prims)),
	}

	if opts.SpatialSplits && b.rootArea > types.Epsilon {
		b.spatialBudget = table.reserved()
		if opts.MaxSpatialSplits > 0 && opts.MaxSpatialSplits < b.spatialBudget {
			b.spatialBudget = opts.MaxSpatialSplits
		}
	}

	b.stats = Stats{
		Triangles:          table.populated,
		ReservedSlots:      table.reserved(),
		SpatialSplitBudget: b.spatialBudget,
	}
	return b
}

// Partition the full primitive table and return the root node.
func (b *builder) build() (NodeIndex, error) {
	start := time.Now()
	root, ok := b.buildRange(0, len(b.table.prims), 0)
	b.stats.BuildTime = time.Since(start)

	if b.err != nil {
		return 0, b.err
	}
	if !ok {
		return 0, ErrEmptyGeometry
	}

	b.logger.Debugf(
		"BVH tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, spatial splits: %d\n",
		b.stats.BuildTime.Nanoseconds()/1e6,
		b.stats.MaxLeafDepth, b.stats.Nodes, b.stats.Leafs, b.stats.SpatialSplits,
	)
	return root, nil
}

// Get the vertex positions of a triangle.
func (b *builder) trianglePositions(ref uint32) [3]types.Vec3 {
	tri := b.triangles[ref]
	return [3]types.Vec3{
		b.vertices[tri.I0].Position,
		b.vertices[tri.I1].Position,
		b.vertices[tri.I2].Position,
	}
}

// Partition the primitives in the [start, end) range of the primitive table
// and return the index of the node that encloses them. The second return
// value is false if the range contains no primitives.
func (b *builder) buildRange(start, end, depth int) (NodeIndex, bool) {
	if b.err != nil {
		return 0, false
	}

	entries, bound, centroidBound := b.table.gather(start, end)
	switch len(entries) {
	case 0:
		return 0, false
	case 1:
		return b.createLeaf(entries, bound, depth), true
	}

	// If all centroids coincide no axis can tell the primitives apart
	axis := centroidBound.LargestAxis()
	if centroidBound.Max[axis]-centroidBound.Min[axis] <= types.Epsilon {
		return b.createLeaf(entries, bound, depth), true
	}

	var best splitCandidate
	if len(entries) <= b.opts.SmallNodeThreshold || bound.SurfaceArea() <= types.Epsilon {
		best = b.equalCountSplit(entries, bound, axis)
	} else {
		best = b.objectSplit(entries, bound, centroidBound, axis)
		if b.spatialSplitAllowed(best) {
			if candidate := b.spatialSplit(entries, bound, end-start); candidate.cost < best.cost {
				best = candidate
			}
		}
	}

	// If we can't find a split that is cheaper than intersecting all
	// primitives create a leaf
	leafCost := b.opts.PrimitiveCost * float64(len(entries))
	if best.kind == noSplit || leafCost < best.cost {
		return b.createLeaf(entries, bound, depth), true
	}

	left, right := b.applySplit(best, entries)
	if len(left) == 0 || len(right) == 0 || len(left)+len(right) > end-start {
		return b.createLeaf(entries, bound, depth), true
	}

	mid := b.table.partition(start, end, left, right)
	if mid <= start || mid >= end {
		return b.createLeaf(entries, bound, depth), true
	}

	switch best.kind {
	case objectSplit:
		b.stats.ObjectSplits++
	case equalCountSplit:
		b.stats.EqualCountSplits++
	case spatialSplit:
		b.spatialBudget--
		b.stats.SpatialSplits++
		b.stats.DuplicatedReferences += len(left) + len(right) - len(entries)
	}

	leftNode, hasLeft := b.buildRange(start, mid, depth+1)
	rightNode, hasRight := b.buildRange(mid, end, depth+1)
	switch {
	case hasLeft && hasRight:
	case hasLeft:
		return leftNode, true
	case hasRight:
		return rightNode, true
	default:
		return 0, false
	}

	nodeIndex := NodeIndex(len(b.nodes))
	b.nodes = append(b.nodes, Node{
		Bound:     b.nodes[leftNode].Bound.Combine(b.nodes[rightNode].Bound),
		SplitAxis: best.axis,
		Left:      leftNode,
		Right:     rightNode,
	})
	b.stats.Nodes++
	b.stats.Interior++
	return nodeIndex, true
}

// Split the entries according to a split candidate.
func (b *builder) applySplit(split splitCandidate, entries []Primitive) (left, right []Primitive) {
	switch split.kind {
	case equalCountSplit:
		return split.left, split.right
	case spatialSplit:
		return split.spatialPartition(entries)
	}

	// Object split: assign each entry by the bucket of its centroid
	centroidBound := centroidBoundOf(entries)
	left = make([]Primitive, 0, split.leftCount)
	right = make([]Primitive, 0, split.rightCount)
	for _, prim := range entries {
		if bucketIndex(centroidBound, prim.Centroid()[split.axis], split.axis, b.opts.BucketCount) <= split.boundary {
			left = append(left, prim)
		} else {
			right = append(right, prim)
		}
	}
	return left, right
}

// Append the entry references to the reference list and create a leaf node
// pointing to them. Returns the index of the new node.
func (b *builder) createLeaf(entries []Primitive, bound types.Bound, depth int) NodeIndex {
	if len(entries) > MaxLeafPrimitives {
		b.err = fmt.Errorf("%w: %d primitives", ErrLeafTooLarge, len(entries))
		return 0
	}

	offset := len(b.refs)
	for _, prim := range entries {
		b.refs = append(b.refs, prim.Reference)
	}

	nodeIndex := NodeIndex(len(b.nodes))
	b.nodes = append(b.nodes, Node{
		Bound:           bound,
		PrimitiveOffset: uint64(offset),
		PrimitiveCount:  uint64(len(entries)),
	})
	b.stats.addLeaf(depth, len(entries))
	return nodeIndex
}

// Calculate the bound of the centroids of a list of primitives.
func centroidBoundOf(entries []Primitive) types.Bound {
	centroidBound := types.EmptyBound()
	for _, prim := range entries {
		centroidBound = centroidBound.CombinePoint(prim.Centroid())
	}
	return centroidBound
}
