package bvh

import (
	"fmt"
	"time"
)

// Labels for the leaf size histogram buckets.
var LeafHistogramLabels = [...]string{"1", "2", "3-4", "5-8", "9-16", "17-32", "33+"}

// Construction statistics for a BVH.
type Stats struct {
	// Number of triangles the BVH was built from.
	Triangles int

	// Node counts.
	Nodes    int
	Leafs    int
	Interior int

	// Number of splits by type.
	ObjectSplits     int
	SpatialSplits    int
	EqualCountSplits int

	// Total number of references stored in leafs and the number of those
	// that are duplicates created by spatial splits.
	References           int
	DuplicatedReferences int

	// Number of primitive table slots reserved for spatial split duplicates
	// and the initial spatial split budget.
	ReservedSlots      int
	SpatialSplitBudget int

	// Leaf depth range and the largest leaf.
	MinLeafDepth      int
	MaxLeafDepth      int
	MaxLeafPrimitives int

	// Leaf counts grouped by primitive count; see LeafHistogramLabels.
	LeafHistogram [len(LeafHistogramLabels)]int

	// SAH cost of the finished tree.
	SAHCost float64

	BuildTime time.Duration
}

func leafHistogramBucket(count int) int {
	switch {
	case count <= 1:
		return 0
	case count == 2:
		return 1
	case count <= 4:
		return 2
	case count <= 8:
		return 3
	case count <= 16:
		return 4
	case count <= 32:
		return 5
	}
	return 6
}

// Record a new leaf at the given depth.
func (s *Stats) addLeaf(depth, count int) {
	if s.Leafs == 0 || depth < s.MinLeafDepth {
		s.MinLeafDepth = depth
	}
	if depth > s.MaxLeafDepth {
		s.MaxLeafDepth = depth
	}
	if count > s.MaxLeafPrimitives {
		s.MaxLeafPrimitives = count
	}
	s.Leafs++
	s.Nodes++
	s.References += count
	s.LeafHistogram[leafHistogramBucket(count)]++
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"nodes: %d, leafs: %d, depth: %d-%d, splits (object/spatial/median): %d/%d/%d, refs: %d (+%d), SAH: %.2f, time: %s",
		s.Nodes, s.Leafs, s.MinLeafDepth, s.MaxLeafDepth,
		s.ObjectSplits, s.SpatialSplits, s.EqualCountSplits,
		s.References, s.DuplicatedReferences, s.SAHCost, s.BuildTime,
	)
}
