package scene

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/achilleasa/sbvh/asset/mesh"
	"github.com/achilleasa/sbvh/bvh"
	"github.com/achilleasa/sbvh/log"
	"github.com/achilleasa/sbvh/types"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"
)

// The archive entry holding the gob-encoded scene.
const DataFile = "scene.bin"

// Get the archive entry name for the GPU nodes of the mesh at index.
// Mesh names are not guaranteed to be unique so the index is used instead.
func NodesFile(index int) string {
	return fmt.Sprintf("mesh-%04d.nodes", index)
}

// A compiled mesh group: a BVH over a triangle range of the scene geometry.
type Mesh struct {
	Name string

	TriangleOffset int
	TriangleCount  int

	Bound types.Bound

	// GPU nodes are stored separately from the rest of the scene data
	// when the scene is serialized.
	Nodes []bvh.GPUNode

	// Triangle indices referenced by the BVH leafs.
	PrimitiveReferences []uint32

	Stats bvh.Stats
}

// A compiled scene contains the shared geometry buffers and one BVH per mesh
// group.
type Scene struct {
	Vertices  []mesh.Vertex
	Triangles []mesh.Triangle

	Meshes []*Mesh
}

// Build a BVH for each mesh group. Groups are processed concurrently; at most
// workers builds run at the same time (defaults to GOMAXPROCS if workers <= 0).
func Compile(ctx context.Context, m *mesh.Mesh, opts bvh.Options, workers int) (*Scene, error) {
	logger := log.New("scene compiler")
	start := time.Now()

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	groups := m.Groups
	if len(groups) == 0 {
		groups = []mesh.Group{{Name: "default", TriangleOffset: 0, TriangleCount: len(m.Triangles)}}
	}

	sc := &Scene{
		Vertices:  m.Vertices,
		Triangles: m.Triangles,
		Meshes:    make([]*Mesh, len(groups)),
	}

	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)
	for index, group := range groups {
		index, group := index, group
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			tree, err := bvh.BuildRange(m.Vertices, m.Triangles, group.TriangleOffset, group.TriangleCount, opts)
			if err != nil {
				return fmt.Errorf("scene: could not build BVH for %q: %w", group.Name, err)
			}

			logger.Infof("%s: %s", group.Name, tree.Stats())
			sc.Meshes[index] = &Mesh{
				Name:                group.Name,
				TriangleOffset:      group.TriangleOffset,
				TriangleCount:       group.TriangleCount,
				Bound:               tree.Bound(),
				Nodes:               tree.GPUNodes(),
				PrimitiveReferences: tree.PrimitiveReferences(),
				Stats:               tree.Stats(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Noticef("compiled %d meshes in %d ms", len(sc.Meshes), time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}

// Traverse the mesh BVH with a ray and invoke fn with the triangle
// references of every leaf whose bound is hit within [0, tMax].
func (m *Mesh) Traverse(ray types.Ray, tMax float64, fn func(leaf uint32, refs []uint32) bool) {
	bvh.TraverseLinear(m.LinearNodes(), m.PrimitiveReferences, ray, tMax, fn)
}

// Unpack the GPU nodes of the mesh BVH.
func (m *Mesh) LinearNodes() []bvh.LinearNode {
	nodes := make([]bvh.LinearNode, len(m.Nodes))
	for i, n := range m.Nodes {
		nodes[i] = n.Unpack()
	}
	return nodes
}

// Get a summary of the scene contents and BVH statistics.
func (sc *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", "Triangles", "Nodes", "Leafs", "Depth", "Spatial splits", "Refs", "SAH", "Size"})

	var totalTris, totalNodes, totalLeafs, totalRefs int
	var totalBytes uint64
	for _, m := range sc.Meshes {
		size := uint64(len(m.Nodes)*bvh.GPUNodeSize + 4*len(m.PrimitiveReferences))
		table.Append([]string{
			m.Name,
			humanize.Comma(int64(m.TriangleCount)),
			humanize.Comma(int64(m.Stats.Nodes)),
			humanize.Comma(int64(m.Stats.Leafs)),
			fmt.Sprintf("%d-%d", m.Stats.MinLeafDepth, m.Stats.MaxLeafDepth),
			humanize.Comma(int64(m.Stats.SpatialSplits)),
			fmt.Sprintf("%s (+%s)", humanize.Comma(int64(m.Stats.References)), humanize.Comma(int64(m.Stats.DuplicatedReferences))),
			fmt.Sprintf("%.2f", m.Stats.SAHCost),
			humanize.Bytes(size),
		})

		totalTris += m.TriangleCount
		totalNodes += m.Stats.Nodes
		totalLeafs += m.Stats.Leafs
		totalRefs += m.Stats.References
		totalBytes += size
	}

	geometryBytes := uint64(len(sc.Vertices)*24 + len(sc.Triangles)*12)
	table.Append([]string{" ", " ", " ", " ", " ", " ", " ", " ", " "})
	table.Append([]string{"geometry", " ", " ", " ", " ", " ", " ", " ", humanize.Bytes(geometryBytes)})
	table.SetFooter([]string{
		"Total",
		humanize.Comma(int64(totalTris)),
		humanize.Comma(int64(totalNodes)),
		humanize.Comma(int64(totalLeafs)),
		" ", " ",
		humanize.Comma(int64(totalRefs)),
		" ",
		strings.TrimLeft(humanize.Bytes(totalBytes+geometryBytes), " "),
	})

	table.Render()
	return buf.String()
}

// Get a table with the number of leafs per primitive count range for each mesh.
func (sc *Scene) LeafHistogram() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)

	header := []string{"Mesh"}
	for _, label := range bvh.LeafHistogramLabels {
		header = append(header, label)
	}
	table.SetHeader(header)

	for _, m := range sc.Meshes {
		row := []string{m.Name}
		for _, count := range m.Stats.LeafHistogram {
			row = append(row, humanize.Comma(int64(count)))
		}
		table.Append(row)
	}

	table.Render()
	return buf.String()
}
