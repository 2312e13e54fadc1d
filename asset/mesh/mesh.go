package mesh

import "github.com/achilleasa/sbvh/types"

// A mesh vertex.
type Vertex struct {
	Position types.Vec3
}

// A triangle defined by three indices into a vertex list.
type Triangle struct {
	I0, I1, I2 uint32
}

// A named slice of the triangle list. Groups allow multiple objects to share
// the same vertex and triangle buffers.
type Group struct {
	Name           string
	TriangleOffset int
	TriangleCount  int
}

// A mesh is a shared vertex/triangle buffer split into one or more groups.
type Mesh struct {
	Vertices  []Vertex
	Triangles []Triangle
	Groups    []Group
}

// Create a new empty mesh.
func New() *Mesh {
	return &Mesh{
		Vertices:  make([]Vertex, 0),
		Triangles: make([]Triangle, 0),
		Groups:    make([]Group, 0),
	}
}

// Get the positions of the three vertices of a triangle.
func (m *Mesh) TrianglePositions(index int) [3]types.Vec3 {
	tri := m.Triangles[index]
	return [3]types.Vec3{
		m.Vertices[tri.I0].Position,
		m.Vertices[tri.I1].Position,
		m.Vertices[tri.I2].Position,
	}
}

// Get the bound of all vertices referenced by the triangles of a group.
func (m *Mesh) GroupBound(g Group) types.Bound {
	bound := types.EmptyBound()
	for index := g.TriangleOffset; index < g.TriangleOffset+g.TriangleCount; index++ {
		pos := m.TrianglePositions(index)
		bound = bound.CombinePoint(pos[0]).CombinePoint(pos[1]).CombinePoint(pos[2])
	}
	return bound
}
