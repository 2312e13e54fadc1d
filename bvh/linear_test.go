package bvh

import (
	"reflect"
	"testing"

	"github.com/achilleasa/sbvh/types"
)

func TestPackUnpack(t *testing.T) {
	specs := []LinearNode{
		{PrimitiveCount: 1, Leaf: true, DataOffset: 42, ParentIndex: 7},
		{PrimitiveCount: MaxLeafPrimitives, Leaf: true, SplitAxis: types.ZAxis},
		{SplitAxis: types.YAxis, DataOffset: 3, ParentIndex: NoParent},
		{SplitAxis: types.ZAxis, DataOffset: 12, ParentIndex: 1},
	}

	for index, node := range specs {
		node.BoundMin = types.Vec3f{-1, -2, -3}
		node.BoundMax = types.Vec3f{1, 2, 3}

		if got := node.Pack().Unpack(); got != node {
			t.Errorf("[spec %d] expected pack/unpack to return %+v; got %+v", index, node, got)
		}
	}
}

func TestPackedBitLayout(t *testing.T) {
	packed := LinearNode{PrimitiveCount: 5, SplitAxis: types.ZAxis, Leaf: true}.Pack().Packed
	if exp := uint32(5 | 2<<29 | 1<<31); packed != exp {
		t.Fatalf("expected packed value 0x%08x; got 0x%08x", exp, packed)
	}

	packed = LinearNode{SplitAxis: types.YAxis}.Pack().Packed
	if exp := uint32(1 << 29); packed != exp {
		t.Fatalf("expected packed value 0x%08x; got 0x%08x", exp, packed)
	}
}

func TestLinearLayout(t *testing.T) {
	vertices, triangles := jitteredCubes()
	tree, err := Build(vertices, triangles, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	linear := tree.CreateLinearNodes()
	if len(linear) != tree.NodeCount() {
		t.Fatalf("expected %d linear nodes; got %d", tree.NodeCount(), len(linear))
	}

	var refCount uint32
	for index, node := range linear {
		if node.Leaf {
			refCount += node.PrimitiveCount
			continue
		}

		for _, child := range []uint32{uint32(index + 1), node.DataOffset} {
			c := linear[child]
			if c.ParentIndex != uint32(index) {
				t.Fatalf("expected node %d parent to be %d; got %d", child, index, c.ParentIndex)
			}
			for axis := 0; axis < 3; axis++ {
				if c.BoundMin[axis] < node.BoundMin[axis] || c.BoundMax[axis] > node.BoundMax[axis] {
					t.Fatalf("expected node %d bound to be enclosed by parent %d bound", child, index)
				}
			}
		}
	}

	if int(refCount) != len(tree.PrimitiveReferences()) {
		t.Fatalf("expected leafs to reference %d primitives; got %d", len(tree.PrimitiveReferences()), refCount)
	}

	// The float32 root bound must enclose the float64 one
	root := tree.Bound()
	if !(types.Bound{Min: linear[0].BoundMin.Vec3(), Max: linear[0].BoundMax.Vec3()}).Contains(root, 0) {
		t.Fatalf("expected linear root bound to enclose %v", root)
	}

	// Returned slices are copies
	linear[0].DataOffset = 0xdead
	if tree.CreateLinearNodes()[0].DataOffset == 0xdead {
		t.Fatal("expected CreateLinearNodes to return a copy")
	}
}

func TestLinearPreOrderMatchesTree(t *testing.T) {
	vertices, triangles := jitteredCubes()
	tree, err := Build(vertices, triangles, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	var treeOrder []Node
	tree.Walk(func(_ NodeIndex, node Node, _ int) bool {
		treeOrder = append(treeOrder, node)
		return true
	})

	// Follow the implicit left (index+1) and explicit right (DataOffset) links
	linear := tree.CreateLinearNodes()
	var linearOrder []LinearNode
	stack := []uint32{0}
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := linear[index]
		linearOrder = append(linearOrder, node)
		if !node.Leaf {
			stack = append(stack, node.DataOffset, index+1)
		}
	}

	if len(linearOrder) != len(treeOrder) {
		t.Fatalf("expected linear walk to visit %d nodes; got %d", len(treeOrder), len(linearOrder))
	}
	for i, node := range treeOrder {
		got := linearOrder[i]
		if expMin, expMax := types.ToVec3fFloor(node.Bound.Min), types.ToVec3fCeil(node.Bound.Max); got.BoundMin != expMin || got.BoundMax != expMax {
			t.Fatalf("[node %d] expected bound %v - %v; got %v - %v", i, expMin, expMax, got.BoundMin, got.BoundMax)
		}
		if got.Leaf != node.IsLeaf() {
			t.Fatalf("[node %d] expected leaf flag %t; got %t", i, node.IsLeaf(), got.Leaf)
		}
		if got.Leaf && (uint64(got.DataOffset) != node.PrimitiveOffset || uint64(got.PrimitiveCount) != node.PrimitiveCount) {
			t.Fatalf("[node %d] expected leaf range [%d, +%d); got [%d, +%d)", i, node.PrimitiveOffset, node.PrimitiveCount, got.DataOffset, got.PrimitiveCount)
		}
	}
}

func TestValidateLinear(t *testing.T) {
	leaf := func(parent, offset, count uint32) LinearNode {
		return LinearNode{Leaf: true, ParentIndex: parent, DataOffset: offset, PrimitiveCount: count}
	}
	refs := []uint32{0, 1, 2}

	valid := []LinearNode{
		{ParentIndex: NoParent, DataOffset: 2},
		leaf(0, 0, 2),
		leaf(0, 2, 1),
	}
	if err := ValidateLinear(valid, refs); err != nil {
		t.Fatalf("expected valid node list; got %v", err)
	}
	if err := ValidateLinear(nil, nil); err != nil {
		t.Fatalf("expected empty node list to be valid; got %v", err)
	}

	specs := [][]LinearNode{
		// leaf range past the end of refs
		{leaf(NoParent, 7, 3)},
		// leaf range overflowing uint32
		{leaf(NoParent, 0xffffffff, 2)},
		// root with a parent
		{leaf(0, 0, 1)},
		// right child out of range
		{{ParentIndex: NoParent, DataOffset: 5}, leaf(0, 0, 1)},
		// right child aliasing the left child
		{{ParentIndex: NoParent, DataOffset: 1}, leaf(0, 0, 1)},
		// child not linking back to its parent
		{{ParentIndex: NoParent, DataOffset: 2}, leaf(0, 0, 1), {Leaf: true, ParentIndex: 1}},
	}
	for index, nodes := range specs {
		if err := ValidateLinear(nodes, refs); err == nil {
			t.Errorf("[spec %d] expected an error", index)
		}
	}
}

func TestEncodeDecodeGPUNodes(t *testing.T) {
	vertices, triangles := jitteredCubes()
	tree, err := Build(vertices, triangles, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	nodes := tree.GPUNodes()
	data := EncodeGPUNodes(nodes)
	if len(data) != len(nodes)*GPUNodeSize {
		t.Fatalf("expected encoded size %d; got %d", len(nodes)*GPUNodeSize, len(data))
	}

	decoded, err := DecodeGPUNodes(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, nodes) {
		t.Fatal("expected decoded nodes to match the encoded nodes")
	}

	if _, err = DecodeGPUNodes(data[:GPUNodeSize+1]); err == nil {
		t.Fatal("expected an error for a truncated buffer")
	}
}

func TestEncodeGPUNodeLayout(t *testing.T) {
	node := GPUNode{
		BoundMin:    types.Vec3f{1, 0, 0},
		ParentIndex: 0x01020304,
		DataOffset:  5,
		Packed:      1 << 31,
	}

	data := EncodeGPUNodes([]GPUNode{node})
	// float32(1.0) == 0x3f800000
	if !reflect.DeepEqual(data[0:4], []byte{0x00, 0x00, 0x80, 0x3f}) {
		t.Fatalf("unexpected min.x encoding %v", data[0:4])
	}
	if !reflect.DeepEqual(data[24:28], []byte{0x04, 0x03, 0x02, 0x01}) {
		t.Fatalf("unexpected parent index encoding %v", data[24:28])
	}
	if data[28] != 5 || data[35] != 0x80 {
		t.Fatalf("unexpected data offset / packed encoding %v", data[28:36])
	}
}
