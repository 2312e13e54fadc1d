package bvh

import (
	"math"
	"sort"

	"github.com/achilleasa/sbvh/types"
)

type splitKind uint8

const (
	noSplit splitKind = iota
	equalCountSplit
	objectSplit
	spatialSplit
)

// A scored split candidate.
type splitCandidate struct {
	kind splitKind
	axis types.Axis

	// Index of the last bucket that belongs to the left side.
	boundary int

	cost                  float64
	leftBound, rightBound types.Bound
	leftCount, rightCount int

	// Pre-partitioned entries (equal-count splits only).
	left, right []Primitive

	// Bucket contents (spatial splits only).
	buckets []bucket
}

func noSplitCandidate() splitCandidate {
	return splitCandidate{
		kind: noSplit,
		cost: math.Inf(1),
	}
}

// A transient clipped copy of a primitive confined to a single bucket.
type fragment struct {
	// Index of the primitive in the entry list being split.
	originalIndex int
	prim          Primitive
}

// An accumulator for one bin along the split axis.
type bucket struct {
	bound     types.Bound
	count     int
	enter     int
	exit      int
	fragments []fragment
}

func newBuckets(count int) []bucket {
	buckets := make([]bucket, count)
	for i := range buckets {
		buckets[i].bound = types.EmptyBound()
	}
	return buckets
}

// Map a coordinate to a bucket index using the unit coordinate of v inside
// the supplied bound.
func bucketIndex(bound types.Bound, v float64, axis types.Axis, bucketCount int) int {
	index := int(float64(bucketCount) * bound.UnitCoordinate(v, axis))
	if index < 0 {
		return 0
	} else if index >= bucketCount {
		return bucketCount - 1
	}
	return index
}

// Calculate the SAH cost of splitting a node with surface area enclosingArea
// into two children.
func (b *builder) sahCost(leftBound types.Bound, leftCount int, rightBound types.Bound, rightCount int, enclosingArea float64) float64 {
	return b.opts.NodeCost + b.opts.PrimitiveCost*
		(leftBound.SurfaceArea()*float64(leftCount)+rightBound.SurfaceArea()*float64(rightCount))/enclosingArea
}

// Bin the entry centroids along axis and return the cheapest boundary using
// the surface area heuristic:
//
// cost(i) = node cost + primitive cost * (A_L*N_L + A_R*N_R) / A
//
// Boundaries that leave one side empty are never selected.
func (b *builder) objectSplit(entries []Primitive, bound, centroidBound types.Bound, axis types.Axis) splitCandidate {
	bucketCount := b.opts.BucketCount
	buckets := newBuckets(bucketCount)
	for _, prim := range entries {
		index := bucketIndex(centroidBound, prim.Centroid()[axis], axis, bucketCount)
		buckets[index].count++
		buckets[index].bound = buckets[index].bound.Combine(prim.Bound)
	}

	leftBounds, leftCounts, rightBounds, rightCounts := sweep(buckets,
		func(bk *bucket) int { return bk.count },
		func(bk *bucket) int { return bk.count },
	)

	best := noSplitCandidate()
	enclosingArea := bound.SurfaceArea()
	for i := 0; i < bucketCount-1; i++ {
		if leftCounts[i] == 0 || rightCounts[i] == 0 {
			continue
		}

		cost := b.sahCost(leftBounds[i], leftCounts[i], rightBounds[i], rightCounts[i], enclosingArea)
		if cost < best.cost {
			best = splitCandidate{
				kind:       objectSplit,
				axis:       axis,
				boundary:   i,
				cost:       cost,
				leftBound:  leftBounds[i],
				rightBound: rightBounds[i],
				leftCount:  leftCounts[i],
				rightCount: rightCounts[i],
			}
		}
	}

	return best
}

// Build the left-to-right and right-to-left cumulative bounds and counts for
// each of the len(buckets)-1 internal bucket boundaries. Entry i of the left
// arrays covers buckets [0, i] and entry i of the right arrays covers buckets
// [i+1, len(buckets)).
func sweep(buckets []bucket, leftCountFn, rightCountFn func(*bucket) int) (leftBounds []types.Bound, leftCounts []int, rightBounds []types.Bound, rightCounts []int) {
	boundaries := len(buckets) - 1
	leftBounds = make([]types.Bound, boundaries)
	rightBounds = make([]types.Bound, boundaries)
	leftCounts = make([]int, boundaries)
	rightCounts = make([]int, boundaries)

	accBound, accCount := types.EmptyBound(), 0
	for i := 0; i < boundaries; i++ {
		accBound = accBound.Combine(buckets[i].bound)
		accCount += leftCountFn(&buckets[i])
		leftBounds[i], leftCounts[i] = accBound, accCount
	}

	accBound, accCount = types.EmptyBound(), 0
	for i := boundaries; i > 0; i-- {
		accBound = accBound.Combine(buckets[i].bound)
		accCount += rightCountFn(&buckets[i])
		rightBounds[i-1], rightCounts[i-1] = accBound, accCount
	}

	return leftBounds, leftCounts, rightBounds, rightCounts
}

// Split the entries at the median centroid coordinate along axis. Binning is
// not worth it for small nodes; the candidate is still scored with the SAH so
// it can be compared against the leaf cost.
func (b *builder) equalCountSplit(entries []Primitive, bound types.Bound, axis types.Axis) splitCandidate {
	sorted := make([]Primitive, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := sorted[i].Centroid()[axis], sorted[j].Centroid()[axis]
		if ci != cj {
			return ci < cj
		}
		return sorted[i].Reference < sorted[j].Reference
	})

	mid := len(sorted) / 2
	candidate := splitCandidate{
		kind:       equalCountSplit,
		axis:       axis,
		left:       sorted[:mid],
		right:      sorted[mid:],
		leftBound:  types.EmptyBound(),
		rightBound: types.EmptyBound(),
		leftCount:  mid,
		rightCount: len(sorted) - mid,
	}
	for _, prim := range candidate.left {
		candidate.leftBound = candidate.leftBound.Combine(prim.Bound)
	}
	for _, prim := range candidate.right {
		candidate.rightBound = candidate.rightBound.Combine(prim.Bound)
	}

	// Points and lines have no area to normalize against; such nodes are only
	// split on the median, so only the primitive counts matter.
	if enclosingArea := bound.SurfaceArea(); enclosingArea > types.Epsilon {
		candidate.cost = b.sahCost(candidate.leftBound, candidate.leftCount, candidate.rightBound, candidate.rightCount, enclosingArea)
	} else {
		candidate.cost = b.opts.NodeCost + b.opts.PrimitiveCost*0.5*float64(len(sorted))
	}
	return candidate
}
