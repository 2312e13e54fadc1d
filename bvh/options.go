package bvh

import "fmt"

// Options controls the BVH builder.
type Options struct {
	// Number of bins used when evaluating object and spatial split candidates.
	BucketCount int `toml:"bucket_count"`

	// SAH cost of traversing an interior node.
	NodeCost float64 `toml:"node_cost"`

	// SAH cost of intersecting a single primitive.
	PrimitiveCost float64 `toml:"primitive_cost"`

	// Nodes with at most this many primitives are split at the centroid
	// median instead of being binned.
	SmallNodeThreshold int `toml:"small_node_threshold"`

	// Enable spatial (triangle clipping) splits.
	SpatialSplits bool `toml:"spatial_splits"`

	// Fraction of the triangle count that is reserved in the primitive
	// table for references duplicated by spatial splits.
	SpatialSplitPadding float64 `toml:"spatial_split_padding"`

	// Spatial splits are only evaluated when the overlap between the children
	// of the best object split, relative to the root surface area, exceeds
	// this threshold.
	SpatialSplitAlpha float64 `toml:"spatial_split_alpha"`

	// The maximum number of spatial splits for a single build. If zero, the
	// budget equals the number of reserved table slots.
	MaxSpatialSplits int `toml:"max_spatial_splits"`
}

// Get the default builder options.
func DefaultOptions() Options {
	return Options{
		BucketCount:         12,
		NodeCost:            1.0,
		PrimitiveCost:       1.5,
		SmallNodeThreshold:  4,
		SpatialSplits:       true,
		SpatialSplitPadding: 0.2,
		SpatialSplitAlpha:   1e-5,
	}
}

// Validate the builder options.
func (o Options) Validate() error {
	if o.BucketCount < 2 {
		return fmt.Errorf("bvh: bucket count must be at least 2; got %d", o.BucketCount)
	}
	if o.NodeCost < 0 || o.PrimitiveCost <= 0 {
		return fmt.Errorf("bvh: invalid SAH costs (node: %f, primitive: %f)", o.NodeCost, o.PrimitiveCost)
	}
	if o.SmallNodeThreshold < 1 {
		return fmt.Errorf("bvh: small node threshold must be at least 1; got %d", o.SmallNodeThreshold)
	}
	if o.SpatialSplitPadding < 0 {
		return fmt.Errorf("bvh: spatial split padding must not be negative; got %f", o.SpatialSplitPadding)
	}
	if o.SpatialSplitAlpha < 0 {
		return fmt.Errorf("bvh: spatial split alpha must not be negative; got %f", o.SpatialSplitAlpha)
	}
	if o.MaxSpatialSplits < 0 {
		return fmt.Errorf("bvh: max spatial splits must not be negative; got %d", o.MaxSpatialSplits)
	}
	return nil
}
