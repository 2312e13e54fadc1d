package writer

import (
	"archive/zip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/achilleasa/sbvh/bvh"
	"github.com/achilleasa/sbvh/log"
	"github.com/achilleasa/sbvh/scene"
	"github.com/klauspost/compress/flate"
)

const compressLevel = flate.BestCompression

// The Writer interface is implemented by all scene writers.
type Writer interface {
	// Write scene definition
	Write(*scene.Scene) error
}

// Write scene to a compressed zip archive. The archive contains the gob-encoded
// scene (without GPU nodes) and one raw GPU node buffer per mesh, ready to be
// uploaded as-is.
func WriteScene(sc *scene.Scene, filename string) error {
	writer := newZipSceneWriter(filename)
	return writer.Write(sc)
}

type zipSceneWriter struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene writer
func newZipSceneWriter(sceneFile string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:    log.New("zip writer"),
		sceneFile: sceneFile,
	}
}

// Write scene definition to zip file.
func (w *zipSceneWriter) Write(sc *scene.Scene) error {
	w.logger.Noticef("writing compressed scene to %s", w.sceneFile)
	start := time.Now()

	zipFile, err := os.Create(w.sceneFile)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	if err = Encode(zipFile, sc); err != nil {
		return err
	}

	w.logger.Noticef("compressed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Encode a scene as a zip archive into out.
func Encode(out io.Writer, sc *scene.Scene) error {
	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, compressLevel)
	})

	// GPU nodes get their own entries; strip them from the gob payload
	stripped := &scene.Scene{
		Vertices:  sc.Vertices,
		Triangles: sc.Triangles,
		Meshes:    make([]*scene.Mesh, len(sc.Meshes)),
	}
	for index, m := range sc.Meshes {
		mCopy := *m
		mCopy.Nodes = nil
		stripped.Meshes[index] = &mCopy
	}

	cw, err := zw.Create(scene.DataFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(stripped); err != nil {
		return fmt.Errorf("zipSceneWriter: failed to encode scene: %w", err)
	}

	for index, m := range sc.Meshes {
		cw, err = zw.Create(scene.NodesFile(index))
		if err != nil {
			return err
		}
		if _, err = cw.Write(bvh.EncodeGPUNodes(m.Nodes)); err != nil {
			return err
		}
	}

	return zw.Close()
}
