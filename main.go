package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/sbvh/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	builderFlags := []cli.Flag{
		cli.BoolFlag{
			Name:  "no-spatial",
			Usage: "disable spatial (triangle clipping) splits",
		},
		cli.IntFlag{
			Name:  "buckets",
			Value: 12,
			Usage: "number of SAH bins per split evaluation",
		},
		cli.IntFlag{
			Name:  "max-spatial-splits",
			Usage: "cap the number of spatial splits per BVH (0 uses the reserved reference slots)",
		},
	}

	app := cli.NewApp()
	app.Name = "sbvh"
	app.Usage = "build SAH bounding volume hierarchies with spatial splits"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load builder and logging settings from a TOML file",
		},
		cli.StringFlag{
			Name:  "logfile",
			Usage: "write log messages to a rotating log file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build BVHs for wavefront obj meshes",
			Description: `
Parse one or more meshes from wavefront obj files (optionally .gz or .zst
compressed, local or http/https URLs) and build one BVH per mesh group.

The BVH nodes are packed in a GPU-friendly format and written together with
the mesh geometry to a zip archive which can be supplied as an argument to
the info and raycast commands.`,
			ArgsUsage: "mesh_file1.obj mesh_file2.obj ...",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "compiled scene filename (single input only)",
				},
				cli.IntFlag{
					Name:  "workers",
					Usage: "number of mesh groups to build concurrently (defaults to the number of CPUs)",
				},
			}, builderFlags...),
			Action: cmd.BuildScene,
		},
		{
			Name:  "config",
			Usage: "print the effective configuration as TOML",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "write the configuration to a file instead of stdout",
				},
			}, builderFlags...),
			Action: cmd.DumpConfig,
		},
		{
			Name:      "info",
			Usage:     "print BVH statistics for a compiled scene",
			ArgsUsage: "scene_file.zip",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:  "raycast",
			Usage: "list the BVH leafs hit by a ray",
			Description: `
Cast a ray through the BVH of each mesh in a compiled scene (or a mesh file
that is built on the fly) and list the leafs whose bounds it hits.`,
			ArgsUsage: "scene_file.zip|mesh_file.obj",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "origin",
					Value: "0,0,0",
					Usage: "ray origin as x,y,z",
				},
				cli.StringFlag{
					Name:  "dir",
					Value: "0,0,-1",
					Usage: "ray direction as x,y,z",
				},
				cli.Float64Flag{
					Name:  "tmax",
					Value: 1e30,
					Usage: "maximum distance along the ray",
				},
			}, builderFlags...),
			Action: cmd.Raycast,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
