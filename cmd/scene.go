package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/achilleasa/sbvh/asset/reader"
	"github.com/achilleasa/sbvh/bvh"
	"github.com/achilleasa/sbvh/scene"
	sceneReader "github.com/achilleasa/sbvh/scene/reader"
	"github.com/achilleasa/sbvh/scene/writer"
	"github.com/urfave/cli"
)

// Build BVHs for one or more mesh files and write them to compiled scene files.
func BuildScene(ctx *cli.Context) error {
	cfg, closer, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	if ctx.NArg() == 0 {
		return errors.New("missing mesh file argument")
	}
	if ctx.NArg() > 1 && ctx.String("out") != "" {
		return errors.New("--out can only be used with a single mesh file")
	}

	opts := builderOptions(ctx, cfg.Builder)
	if err = opts.Validate(); err != nil {
		return err
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		meshFile := ctx.Args().Get(idx)

		logger.Noticef("parsing and compiling mesh: %s", meshFile)
		sc, err := compileMesh(meshFile, opts, ctx.Int("workers"))
		if err != nil {
			return err
		}

		// Display compiled scene info
		logger.Noticef("scene information:\n%s", sc.Stats())
		logger.Infof("leaf size histogram:\n%s", sc.LeafHistogram())

		zipFile := ctx.String("out")
		if zipFile == "" {
			zipFile = compiledFilename(meshFile)
		}
		if err = writer.WriteScene(sc, zipFile); err != nil {
			return err
		}
	}

	return nil
}

// Display compiled scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	_, closer, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	if ctx.NArg() != 1 {
		return errors.New("missing compiled scene zip file")
	}

	sceneFile := ctx.Args().First()
	if !strings.HasSuffix(sceneFile, ".zip") {
		return errors.New("only compiled scene files with a .zip extension are supported")
	}

	sc, err := sceneReader.ReadScene(sceneFile)
	if err != nil {
		return err
	}

	// Display compiled scene info
	logger.Noticef("scene information:\n%s", sc.Stats())
	logger.Noticef("leaf size histogram:\n%s", sc.LeafHistogram())

	return nil
}

// Apply command line overrides to the configured builder options.
func builderOptions(ctx *cli.Context, opts bvh.Options) bvh.Options {
	if ctx.Bool("no-spatial") {
		opts.SpatialSplits = false
	}
	if ctx.IsSet("buckets") {
		opts.BucketCount = ctx.Int("buckets")
	}
	if ctx.IsSet("max-spatial-splits") {
		opts.MaxSpatialSplits = ctx.Int("max-spatial-splits")
	}
	return opts
}

// Read a mesh file and build a BVH for each of its groups.
func compileMesh(meshFile string, opts bvh.Options, workers int) (*scene.Scene, error) {
	m, err := reader.ReadMesh(meshFile)
	if err != nil {
		return nil, err
	}

	return scene.Compile(context.Background(), m, opts, workers)
}

// Load a scene from a compiled zip file or compile it from a mesh file.
func loadScene(filename string, opts bvh.Options) (*scene.Scene, error) {
	if strings.HasSuffix(filename, ".zip") {
		return sceneReader.ReadScene(filename)
	}
	return compileMesh(filename, opts, 0)
}

// Get the name of the compiled scene file for a mesh file.
func compiledFilename(meshFile string) string {
	name := meshFile
	for _, ext := range []string{".gz", ".zst", ".obj"} {
		name = strings.TrimSuffix(name, ext)
	}

	// Remote meshes are written to the working directory
	if idx := strings.LastIndex(name, "/"); idx != -1 && strings.Contains(name, "://") {
		name = name[idx+1:]
	}
	return fmt.Sprintf("%s.zip", name)
}
