package bvh

import (
	"github.com/achilleasa/sbvh/types"
)

// Decide whether a spatial split should be evaluated for a node whose best
// object split is objSplit. Spatial splits are only worth their reference
// duplication when the object split children overlap considerably.
func (b *builder) spatialSplitAllowed(objSplit splitCandidate) bool {
	if !b.opts.SpatialSplits || b.spatialBudget <= 0 {
		return false
	}
	if objSplit.kind == noSplit {
		return true
	}

	overlap := objSplit.leftBound.Intersect(objSplit.rightBound)
	if overlap.IsEmpty() {
		return false
	}
	return overlap.SurfaceArea()/b.rootArea > b.opts.SpatialSplitAlpha
}

// Bin the entries along the largest axis of their enclosing bound using the
// clipped extent of each primitive. Primitives straddling bucket planes are
// clipped against every bucket they overlap; each clipped fragment contributes
// to the bound of its bucket while the enter/exit counters track where each
// primitive starts and ends. The candidate is scored with the same SAH cost as
// object splits using the enter counts for the left side and the exit counts
// for the right side.
//
// Candidates that would produce more references than the range can hold are
// rejected.
func (b *builder) spatialSplit(entries []Primitive, bound types.Bound, capacity int) splitCandidate {
	axis := bound.LargestAxis()
	extent := bound.Max[axis] - bound.Min[axis]
	if extent <= types.Epsilon {
		return noSplitCandidate()
	}

	bucketCount := b.opts.BucketCount
	buckets := newBuckets(bucketCount)
	width := extent / float64(bucketCount)
	planeAt := func(i int) float64 {
		if i >= bucketCount {
			return bound.Max[axis]
		}
		return bound.Min[axis] + float64(i)*width
	}

	for index, prim := range entries {
		first := bucketIndex(bound, prim.Bound.Min[axis], axis, bucketCount)
		last := bucketIndex(bound, prim.Bound.Max[axis], axis, bucketCount)

		// Buckets are half-open; a primitive ending on a plane does not enter
		// the bucket above it.
		for last > first && prim.Bound.Max[axis] <= planeAt(last) {
			last--
		}
		for first < last && prim.Bound.Min[axis] >= planeAt(first+1) {
			first++
		}
		primExtent := prim.Bound.Max[axis] - prim.Bound.Min[axis]

		if first != last {
			vertices := b.trianglePositions(prim.Reference)
			entered, exited := -1, -1
			for bi := first; bi <= last; bi++ {
				slab := clipTriangleToSlab(vertices, axis, planeAt(bi), planeAt(bi+1)).Intersect(prim.Bound)
				if slab.IsEmpty() || (primExtent > 0 && slab.Max[axis] <= slab.Min[axis]) {
					continue
				}

				buckets[bi].bound = buckets[bi].bound.Combine(slab)
				buckets[bi].fragments = append(buckets[bi].fragments, fragment{
					originalIndex: index,
					prim:          Primitive{Reference: prim.Reference, Bound: slab},
				})
				if entered == -1 {
					entered = bi
				}
				exited = bi
			}

			if entered != -1 {
				buckets[entered].enter++
				buckets[exited].exit++
				continue
			}

			// Clipping lost the primitive to rounding; keep it whole.
			first = bucketIndex(bound, prim.Centroid()[axis], axis, bucketCount)
		}

		buckets[first].bound = buckets[first].bound.Combine(prim.Bound)
		buckets[first].fragments = append(buckets[first].fragments, fragment{
			originalIndex: index,
			prim:          prim,
		})
		buckets[first].enter++
		buckets[first].exit++
	}

	leftBounds, leftCounts, rightBounds, rightCounts := sweep(buckets,
		func(bk *bucket) int { return bk.enter },
		func(bk *bucket) int { return bk.exit },
	)

	best := noSplitCandidate()
	enclosingArea := bound.SurfaceArea()
	for i := 0; i < bucketCount-1; i++ {
		if leftCounts[i] == 0 || rightCounts[i] == 0 || leftCounts[i]+rightCounts[i] > capacity {
			continue
		}

		// A split that duplicates every primitive to both sides makes no progress.
		if leftCounts[i] == len(entries) && rightCounts[i] == len(entries) {
			continue
		}

		cost := b.sahCost(leftBounds[i], leftCounts[i], rightBounds[i], rightCounts[i], enclosingArea)
		if cost < best.cost {
			best = splitCandidate{
				kind:       spatialSplit,
				axis:       axis,
				boundary:   i,
				cost:       cost,
				leftBound:  leftBounds[i],
				rightBound: rightBounds[i],
				leftCount:  leftCounts[i],
				rightCount: rightCounts[i],
				buckets:    buckets,
			}
		}
	}

	return best
}

// Distribute the fragments of a spatial split candidate to the two sides of
// its boundary. Fragments of the same primitive that end up on the same side
// are merged back into a single reference so every primitive contributes at
// most one reference per side.
func (c splitCandidate) spatialPartition(entries []Primitive) (left, right []Primitive) {
	leftBounds := make([]types.Bound, len(entries))
	rightBounds := make([]types.Bound, len(entries))
	for i := range entries {
		leftBounds[i] = types.EmptyBound()
		rightBounds[i] = types.EmptyBound()
	}

	for bi, bk := range c.buckets {
		target := rightBounds
		if bi <= c.boundary {
			target = leftBounds
		}
		for _, frag := range bk.fragments {
			target[frag.originalIndex] = target[frag.originalIndex].Combine(frag.prim.Bound)
		}
	}

	left = make([]Primitive, 0, c.leftCount)
	right = make([]Primitive, 0, c.rightCount)
	for i, prim := range entries {
		if !leftBounds[i].IsEmpty() {
			left = append(left, Primitive{Reference: prim.Reference, Bound: leftBounds[i]})
		}
		if !rightBounds[i].IsEmpty() {
			right = append(right, Primitive{Reference: prim.Reference, Bound: rightBounds[i]})
		}
	}

	return left, right
}
