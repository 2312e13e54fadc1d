package bvh

import (
	"errors"
	"fmt"

	"github.com/achilleasa/sbvh/asset/mesh"
	"github.com/achilleasa/sbvh/types"
)

var (
	ErrEmptyGeometry = errors.New("bvh: no vertices or triangles to build from")
	ErrTriangleRange = errors.New("bvh: triangle range out of bounds")
	ErrVertexIndex   = errors.New("bvh: triangle references a vertex out of bounds")
	ErrLeafTooLarge  = errors.New("bvh: leaf primitive count does not fit in the packed node format")
)

// A bounding volume hierarchy over a range of mesh triangles.
type BVH struct {
	nodes []Node
	root  NodeIndex

	// Triangle indices referenced by leafs. A triangle may be referenced by
	// more than one leaf if spatial splits were used.
	refs []uint32

	linear []LinearNode
	stats  Stats

	// The triangle range the BVH was built from.
	offset, count int
}

// Build a BVH over all mesh triangles.
func Build(vertices []mesh.Vertex, triangles []mesh.Triangle, opts Options) (*BVH, error) {
	return BuildRange(vertices, triangles, 0, len(triangles), opts)
}

// Build a BVH over the triangles in the [offset, offset+count) range.
// Primitive references always index the full triangle list.
func BuildRange(vertices []mesh.Vertex, triangles []mesh.Triangle, offset, count int, opts Options) (*BVH, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if len(vertices) == 0 || len(triangles) == 0 {
		return nil, ErrEmptyGeometry
	}

	table, err := newPrimitiveTable(vertices, triangles, offset, count, opts.SpatialSplitPadding)
	if err != nil {
		return nil, err
	}

	b := newBuilder(vertices, triangles, table, opts)
	root, err := b.build()
	if err != nil {
		return nil, err
	}

	tree := &BVH{
		nodes:  b.nodes,
		root:   root,
		refs:   b.refs,
		stats:  b.stats,
		offset: offset,
		count:  count,
	}
	tree.linear = linearize(tree.nodes, tree.root)
	tree.stats.SAHCost = tree.sahCost(opts)

	return tree, nil
}

// Get the root node.
func (t *BVH) Root() Node {
	return t.nodes[t.root]
}

// Get the index of the root node.
func (t *BVH) RootIndex() NodeIndex {
	return t.root
}

// Get a node by its index.
func (t *BVH) Node(index NodeIndex) Node {
	return t.nodes[index]
}

// Get the number of nodes in the tree.
func (t *BVH) NodeCount() int {
	return len(t.nodes)
}

// Get the bound enclosing all primitives.
func (t *BVH) Bound() types.Bound {
	return t.nodes[t.root].Bound
}

// Get the triangle indices referenced by the leafs.
func (t *BVH) PrimitiveReferences() []uint32 {
	return t.refs
}

// Get a copy of the tree in depth-first pre-order layout.
func (t *BVH) CreateLinearNodes() []LinearNode {
	out := make([]LinearNode, len(t.linear))
	copy(out, t.linear)
	return out
}

// Get the tree in packed GPU layout.
func (t *BVH) GPUNodes() []GPUNode {
	out := make([]GPUNode, len(t.linear))
	for i, n := range t.linear {
		out[i] = n.Pack()
	}
	return out
}

// Get construction statistics.
func (t *BVH) Stats() Stats {
	return t.stats
}

// Visit each node in depth-first pre-order. Returning false from fn skips
// the children of the visited node.
func (t *BVH) Walk(fn func(index NodeIndex, node Node, depth int) bool) {
	type item struct {
		index NodeIndex
		depth int
	}

	stack := []item{{index: t.root}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := t.nodes[it.index]
		if !fn(it.index, node, it.depth) || node.IsLeaf() {
			continue
		}
		stack = append(stack,
			item{index: node.Right, depth: it.depth + 1},
			item{index: node.Left, depth: it.depth + 1},
		)
	}
}

// Traverse the tree with a ray and invoke fn with the triangle references of
// every leaf whose bound is hit within [0, tMax]. Traversal stops if fn
// returns false.
func (t *BVH) Traverse(ray types.Ray, tMax float64, fn func(leaf uint32, refs []uint32) bool) {
	TraverseLinear(t.linear, t.refs, ray, tMax, fn)
}

// Traverse a linear node list the way a GPU kernel does: the left child of an
// interior node is the next node in the list and the right child is found at
// DataOffset. Children are visited near-first along the split axis. Node
// lists from untrusted sources must pass ValidateLinear first.
func TraverseLinear(nodes []LinearNode, refs []uint32, ray types.Ray, tMax float64, fn func(leaf uint32, refs []uint32) bool) {
	if len(nodes) == 0 {
		return
	}

	stack := make([]uint32, 0, 64)
	stack = append(stack, 0)
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := nodes[index]
		bound := types.Bound{Min: node.BoundMin.Vec3(), Max: node.BoundMax.Vec3()}
		if _, _, hit := bound.IntersectRay(ray, 0, tMax); !hit {
			continue
		}

		if node.Leaf {
			if !fn(index, refs[node.DataOffset:node.DataOffset+node.PrimitiveCount]) {
				return
			}
			continue
		}

		// Visit the near child first
		if ray.Dir[node.SplitAxis] < 0 {
			stack = append(stack, index+1, node.DataOffset)
		} else {
			stack = append(stack, node.DataOffset, index+1)
		}
	}
}

// Check the structural invariants of the tree: every child bound is enclosed
// by its parent, leaf ranges lie inside the reference list, every reference
// belongs to the triangle range the tree was built from, every triangle is
// referenced and the linear layout links are consistent.
func (t *BVH) Validate() error {
	const eps = 1e-9

	seen := make([]bool, t.count)
	var err error
	t.Walk(func(index NodeIndex, node Node, _ int) bool {
		if err != nil {
			return false
		}

		if node.IsLeaf() {
			end := node.PrimitiveOffset + node.PrimitiveCount
			if end > uint64(len(t.refs)) {
				err = fmt.Errorf("bvh: leaf %d references primitives [%d, %d) beyond reference count %d", index, node.PrimitiveOffset, end, len(t.refs))
				return false
			}
			for _, ref := range t.refs[node.PrimitiveOffset:end] {
				if int(ref) < t.offset || int(ref) >= t.offset+t.count {
					err = fmt.Errorf("bvh: leaf %d references triangle %d outside range [%d, %d)", index, ref, t.offset, t.offset+t.count)
					return false
				}
				seen[int(ref)-t.offset] = true
			}
			return true
		}

		for _, child := range [2]NodeIndex{node.Left, node.Right} {
			if int(child) >= len(t.nodes) {
				err = fmt.Errorf("bvh: node %d references missing child %d", index, child)
				return false
			}
			if !node.Bound.Contains(t.nodes[child].Bound, eps) {
				err = fmt.Errorf("bvh: node %d bound does not contain child %d bound", index, child)
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}

	for i, found := range seen {
		if !found {
			return fmt.Errorf("bvh: triangle %d is not referenced by any leaf", t.offset+i)
		}
	}

	return ValidateLinear(t.linear, t.refs)
}

// Check that a linear node list is safe to traverse against refs: the root
// has no parent, every parent precedes its children, the children of each
// interior node link back to it and every leaf range lies inside refs.
func ValidateLinear(nodes []LinearNode, refs []uint32) error {
	for i, node := range nodes {
		if i == 0 {
			if node.ParentIndex != NoParent {
				return fmt.Errorf("bvh: linear root has parent %d", node.ParentIndex)
			}
		} else if node.ParentIndex >= uint32(i) {
			return fmt.Errorf("bvh: linear node %d has parent %d that does not precede it", i, node.ParentIndex)
		}

		if node.Leaf {
			if end := uint64(node.DataOffset) + uint64(node.PrimitiveCount); end > uint64(len(refs)) {
				return fmt.Errorf("bvh: linear leaf %d references primitives [%d, %d) beyond reference count %d", i, node.DataOffset, end, len(refs))
			}
			continue
		}

		left, right := uint32(i+1), node.DataOffset
		if uint64(right) >= uint64(len(nodes)) || right <= left {
			return fmt.Errorf("bvh: linear node %d has invalid right child %d", i, right)
		}
		if nodes[left].ParentIndex != uint32(i) || nodes[right].ParentIndex != uint32(i) {
			return fmt.Errorf("bvh: linear node %d children do not link back to it", i)
		}
	}

	return nil
}

// Calculate the SAH cost of the finished tree relative to the root bound.
func (t *BVH) sahCost(opts Options) float64 {
	rootArea := t.Bound().SurfaceArea()

	var cost float64
	t.Walk(func(_ NodeIndex, node Node, _ int) bool {
		weight := 1.0
		if rootArea > types.Epsilon {
			weight = node.Bound.SurfaceArea() / rootArea
		}

		if node.IsLeaf() {
			cost += weight * opts.PrimitiveCost * float64(node.PrimitiveCount)
		} else {
			cost += weight * opts.NodeCost
		}
		return true
	})
	return cost
}
