package bvh

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/achilleasa/sbvh/types"
)

// The parent index of the root linear node.
const NoParent uint32 = math.MaxUint32

// Bit layout of GPUNode.Packed:
//
//	bits  0-28: primitive count (leafs only)
//	bits 29-30: split axis
//	bit     31: leaf flag
const (
	primitiveCountBits = 29
	splitAxisShift     = 29
	splitAxisMask      = 0x3
	leafFlagShift      = 31

	// The maximum number of primitives that fit in a leaf.
	MaxLeafPrimitives = 1<<primitiveCountBits - 1

	// Size of an encoded GPUNode in bytes.
	GPUNodeSize = 36
)

// A BVH node in depth-first pre-order layout. The left child of an interior
// node is always the next node in the list; DataOffset holds the index of the
// right child. For leafs, DataOffset holds the index of the first primitive
// reference.
type LinearNode struct {
	BoundMin types.Vec3f
	BoundMax types.Vec3f

	ParentIndex uint32
	DataOffset  uint32

	PrimitiveCount uint32
	SplitAxis      types.Axis
	Leaf           bool
}

// The GPU representation of a LinearNode with the primitive count, split
// axis and leaf flag packed into a single word.
type GPUNode struct {
	BoundMin types.Vec3f
	BoundMax types.Vec3f

	ParentIndex uint32
	DataOffset  uint32
	Packed      uint32
}

// Pack node metadata for the GPU.
func (n LinearNode) Pack() GPUNode {
	packed := (n.PrimitiveCount & MaxLeafPrimitives) | (uint32(n.SplitAxis)&splitAxisMask)<<splitAxisShift
	if n.Leaf {
		packed |= 1 << leafFlagShift
	}

	return GPUNode{
		BoundMin:    n.BoundMin,
		BoundMax:    n.BoundMax,
		ParentIndex: n.ParentIndex,
		DataOffset:  n.DataOffset,
		Packed:      packed,
	}
}

// Unpack node metadata.
func (n GPUNode) Unpack() LinearNode {
	return LinearNode{
		BoundMin:       n.BoundMin,
		BoundMax:       n.BoundMax,
		ParentIndex:    n.ParentIndex,
		DataOffset:     n.DataOffset,
		PrimitiveCount: n.Packed & MaxLeafPrimitives,
		SplitAxis:      types.Axis((n.Packed >> splitAxisShift) & splitAxisMask),
		Leaf:           n.Packed>>leafFlagShift == 1,
	}
}

// Flatten the node arena into a depth-first pre-order list. Bounds are
// rounded outwards when converted to single precision.
func linearize(nodes []Node, root NodeIndex) []LinearNode {
	type pending struct {
		node    NodeIndex
		parent  uint32
		isRight bool
	}

	out := make([]LinearNode, 0, len(nodes))
	stack := []pending{{node: root, parent: NoParent}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		index := uint32(len(out))
		if item.isRight {
			out[item.parent].DataOffset = index
		}

		node := nodes[item.node]
		linear := LinearNode{
			BoundMin:    types.ToVec3fFloor(node.Bound.Min),
			BoundMax:    types.ToVec3fCeil(node.Bound.Max),
			ParentIndex: item.parent,
		}

		if node.IsLeaf() {
			linear.Leaf = true
			linear.DataOffset = uint32(node.PrimitiveOffset)
			linear.PrimitiveCount = uint32(node.PrimitiveCount)
			out = append(out, linear)
			continue
		}

		linear.SplitAxis = node.SplitAxis
		out = append(out, linear)

		// Push right first so the left subtree is emitted right after its parent
		stack = append(stack,
			pending{node: node.Right, parent: index, isRight: true},
			pending{node: node.Left, parent: index},
		)
	}

	return out
}

// Serialize GPU nodes into a little-endian byte buffer that can be uploaded
// as-is. Each node occupies GPUNodeSize bytes:
//
//	min.xyz    : 3 x f32 (offset  0)
//	max.xyz    : 3 x f32 (offset 12)
//	parent     : u32     (offset 24)
//	dataOffset : u32     (offset 28)
//	packed     : u32     (offset 32)
func EncodeGPUNodes(nodes []GPUNode) []byte {
	buf := make([]byte, GPUNodeSize*len(nodes))
	for i, n := range nodes {
		rec := buf[i*GPUNodeSize : (i+1)*GPUNodeSize]
		for c := 0; c < 3; c++ {
			binary.LittleEndian.PutUint32(rec[4*c:], math.Float32bits(n.BoundMin[c]))
			binary.LittleEndian.PutUint32(rec[12+4*c:], math.Float32bits(n.BoundMax[c]))
		}
		binary.LittleEndian.PutUint32(rec[24:], n.ParentIndex)
		binary.LittleEndian.PutUint32(rec[28:], n.DataOffset)
		binary.LittleEndian.PutUint32(rec[32:], n.Packed)
	}
	return buf
}

// Deserialize a byte buffer created by EncodeGPUNodes.
func DecodeGPUNodes(data []byte) ([]GPUNode, error) {
	if len(data)%GPUNodeSize != 0 {
		return nil, fmt.Errorf("bvh: GPU node buffer length %d is not a multiple of %d", len(data), GPUNodeSize)
	}

	nodes := make([]GPUNode, len(data)/GPUNodeSize)
	for i := range nodes {
		rec := data[i*GPUNodeSize : (i+1)*GPUNodeSize]
		for c := 0; c < 3; c++ {
			nodes[i].BoundMin[c] = math.Float32frombits(binary.LittleEndian.Uint32(rec[4*c:]))
			nodes[i].BoundMax[c] = math.Float32frombits(binary.LittleEndian.Uint32(rec[12+4*c:]))
		}
		nodes[i].ParentIndex = binary.LittleEndian.Uint32(rec[24:])
		nodes[i].DataOffset = binary.LittleEndian.Uint32(rec[28:])
		nodes[i].Packed = binary.LittleEndian.Uint32(rec[32:])
	}
	return nodes, nil
}
