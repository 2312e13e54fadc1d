package reader

import (
	"fmt"
	"strings"

	"github.com/achilleasa/sbvh/asset"
	"github.com/achilleasa/sbvh/asset/mesh"
)

// The Reader interface is implemented by all mesh readers.
type Reader interface {
	// Read mesh definition from a resource.
	Read(*asset.Resource) (*mesh.Mesh, error)
}

// Read a mesh from a local file or URL. Compressed (.gz, .zst) inputs are
// supported.
func ReadMesh(filename string) (*mesh.Mesh, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return Read(res)
}

// Read a mesh from an open resource. The reader is selected by the resource
// extension.
func Read(res *asset.Resource) (*mesh.Mesh, error) {
	var reader Reader
	if strings.HasSuffix(strings.ToLower(res.UncompressedPath()), ".obj") {
		reader = newWavefrontReader()
	} else {
		return nil, fmt.Errorf("readMesh: unsupported file format for %q", res.Path())
	}
	return reader.Read(res)
}
