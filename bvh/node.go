package bvh

import (
	"github.com/achilleasa/sbvh/types"
)

// Index of a node in the BVH node arena.
type NodeIndex uint32

// A BVH tree node. Nodes are stored in an arena and reference their children
// by index. A node is a leaf iff PrimitiveCount > 0; leafs reference the
// [PrimitiveOffset, PrimitiveOffset+PrimitiveCount) slice of the primitive
// reference list while interior nodes reference their Left and Right child.
type Node struct {
	Bound types.Bound

	// The axis used for splitting an interior node.
	SplitAxis types.Axis

	Left  NodeIndex
	Right NodeIndex

	PrimitiveOffset uint64
	PrimitiveCount  uint64
}

// Returns true if this is a leaf node.
func (n Node) IsLeaf() bool {
	return n.PrimitiveCount > 0
}
