package bvh

import "testing"

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("expected default options to be valid; got %v", err)
	}

	specs := []func(*Options){
		func(o *Options) { o.BucketCount = 1 },
		func(o *Options) { o.NodeCost = -1 },
		func(o *Options) { o.PrimitiveCost = 0 },
		func(o *Options) { o.SmallNodeThreshold = 0 },
		func(o *Options) { o.SpatialSplitPadding = -0.1 },
		func(o *Options) { o.SpatialSplitAlpha = -1 },
		func(o *Options) { o.MaxSpatialSplits = -1 },
	}
	for index, mutate := range specs {
		opts := DefaultOptions()
		mutate(&opts)
		if err := opts.Validate(); err == nil {
			t.Errorf("[spec %d] expected validation error", index)
		}
	}
}
