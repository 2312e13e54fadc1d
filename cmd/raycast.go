package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/achilleasa/sbvh/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Cast a ray through the BVH of every mesh in a scene and list the leafs
// whose bounds it hits.
func Raycast(ctx *cli.Context) error {
	cfg, closer, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	if ctx.NArg() != 1 {
		return errors.New("missing mesh or compiled scene file argument")
	}

	origin, err := parseVec3Flag(ctx.String("origin"))
	if err != nil {
		return fmt.Errorf("invalid ray origin: %s", err)
	}
	dir, err := parseVec3Flag(ctx.String("dir"))
	if err != nil {
		return fmt.Errorf("invalid ray direction: %s", err)
	}
	if dir.Len() == 0 {
		return errors.New("ray direction must not be zero")
	}

	sc, err := loadScene(ctx.Args().First(), builderOptions(ctx, cfg.Builder))
	if err != nil {
		return err
	}

	ray := types.NewRay(origin, dir.Normalize())
	tMax := ctx.Float64("tmax")

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", "Leaf", "Triangles"})

	var leafs, candidates int
	for _, m := range sc.Meshes {
		m.Traverse(ray, tMax, func(leaf uint32, refs []uint32) bool {
			tris := make([]string, len(refs))
			for i, ref := range refs {
				tris[i] = strconv.FormatUint(uint64(ref), 10)
			}
			table.Append([]string{m.Name, strconv.FormatUint(uint64(leaf), 10), strings.Join(tris, ", ")})
			leafs++
			candidates += len(refs)
			return true
		})
	}
	table.SetFooter([]string{"Total", strconv.Itoa(leafs), strconv.Itoa(candidates)})
	table.Render()

	logger.Noticef("ray %v -> %v hits %d leafs (%d candidate triangles):\n%s", origin, dir, leafs, candidates, buf.String())
	return nil
}

// Parse a comma separated "x,y,z" vector.
func parseVec3Flag(value string) (types.Vec3, error) {
	tokens := strings.Split(value, ",")
	if len(tokens) != 3 {
		return types.Vec3{}, fmt.Errorf("expected 3 comma separated values; got %q", value)
	}

	var v types.Vec3
	for i, tok := range tokens {
		f, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil {
			return types.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}
