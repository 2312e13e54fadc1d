package reader

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"io/ioutil"
	"time"

	"github.com/achilleasa/sbvh/asset"
	"github.com/achilleasa/sbvh/bvh"
	"github.com/achilleasa/sbvh/log"
	"github.com/achilleasa/sbvh/scene"
	"github.com/klauspost/compress/flate"
)

// Read a compiled scene from a local file or URL.
func ReadScene(filename string) (*scene.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return newZipSceneReader().Read(res)
}

type zipSceneReader struct {
	logger log.Logger
}

// Create a new zip scene reader
func newZipSceneReader() *zipSceneReader {
	return &zipSceneReader{
		logger: log.New("zip reader"),
	}
}

// Read scene definition from zip file.
func (p *zipSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	p.logger.Noticef(`parsing compiled scene from "%s"`, sceneRes.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := ioutil.ReadAll(sceneRes)
	if err != nil {
		return nil, err
	}

	sc, err := Decode(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	p.logger.Noticef("loaded scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}

// Decode a scene from a zip archive.
func Decode(r io.ReaderAt, size int64) (*scene.Scene, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	dataFile, exists := files[scene.DataFile]
	if !exists {
		return nil, fmt.Errorf("zipSceneReader: missing %s", scene.DataFile)
	}

	sc := &scene.Scene{}
	if err = decodeFile(dataFile, func(rc io.Reader) error {
		return gob.NewDecoder(rc).Decode(sc)
	}); err != nil {
		return nil, err
	}

	for index, m := range sc.Meshes {
		nodesFile, exists := files[scene.NodesFile(index)]
		if !exists {
			return nil, fmt.Errorf("zipSceneReader: missing GPU nodes for mesh %q", m.Name)
		}

		if err = decodeFile(nodesFile, func(rc io.Reader) error {
			buf, err := ioutil.ReadAll(rc)
			if err != nil {
				return err
			}
			m.Nodes, err = bvh.DecodeGPUNodes(buf)
			return err
		}); err != nil {
			return nil, err
		}

		if err = bvh.ValidateLinear(m.LinearNodes(), m.PrimitiveReferences); err != nil {
			return nil, fmt.Errorf("zipSceneReader: invalid GPU nodes for mesh %q: %s", m.Name, err.Error())
		}
	}

	return sc, nil
}

func decodeFile(f *zip.File, decodeFn func(io.Reader) error) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if err = decodeFn(rc); err != nil {
		return fmt.Errorf("zipSceneReader: failed to load %s: %s", f.Name, err.Error())
	}
	return nil
}
