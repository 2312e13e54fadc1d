package asset

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := NewResource(thisFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()
}

func TestHttpResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	thisDir := filepath.Dir(thisFile)

	server := httptest.NewServer(http.FileServer(http.Dir(thisDir)))
	defer server.Close()

	fetchUrl := server.URL + "/" + filepath.Base(thisFile)
	res, err := NewResource(fetchUrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	fetchUrl = server.URL + "/file-not-found.foo"
	expError := fmt.Sprintf("resource: could not fetch '%s': status %d", fetchUrl, 404)
	_, err = NewResource(fetchUrl, nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestRelativeResources(t *testing.T) {
	serverHits := 0
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHits++
		if r.URL.Path == "/foo/file1.go" {
			w.Write([]byte("OK"))
		} else if r.URL.Path == "/foo/file2.go" {
			w.Write([]byte("OK"))
		} else {
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	res1, err := NewResource(server.URL+"/foo/file1.go", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res1.Close()
	res2, err := NewResource("file2.go", res1)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Close()

	if serverHits != 2 {
		t.Fatalf("expected server to receive 2 requests; got %d", serverHits)
	}
}

func TestUnsupportedResourceScheme(t *testing.T) {
	expError := "resource: unsupported scheme 'gopher'"
	_, err := NewResource("gopher://digging.go", nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestResourceConnectionRefusedError(t *testing.T) {
	_, err := NewResource("http://localhost:12345/foo.go", nil)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected to get 'connection refused error'; got %v", err)
	}
}

func TestCompressedResources(t *testing.T) {
	dir, err := ioutil.TempDir("", "sbvh-resource")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	payload := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	gw.Write([]byte(payload))
	gw.Close()

	var zstBuf bytes.Buffer
	zw, err := zstd.NewWriter(&zstBuf)
	if err != nil {
		t.Fatal(err)
	}
	zw.Write([]byte(payload))
	zw.Close()

	specs := []struct {
		file string
		data []byte
	}{
		{"mesh.obj", []byte(payload)},
		{"mesh.obj.gz", gzBuf.Bytes()},
		{"mesh.obj.zst", zstBuf.Bytes()},
	}

	for index, spec := range specs {
		path := filepath.Join(dir, spec.file)
		if err = ioutil.WriteFile(path, spec.data, os.ModePerm); err != nil {
			t.Fatal(err)
		}

		res, err := NewResource(path, nil)
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		data, err := ioutil.ReadAll(res)
		res.Close()
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if string(data) != payload {
			t.Fatalf("[spec %d] expected decompressed payload %q; got %q", index, payload, string(data))
		}
		if exp := filepath.Join(dir, "mesh.obj"); res.UncompressedPath() != exp {
			t.Fatalf("[spec %d] expected uncompressed path %q; got %q", index, exp, res.UncompressedPath())
		}
	}

	// Corrupt gzip streams are rejected
	path := filepath.Join(dir, "broken.obj.gz")
	if err = ioutil.WriteFile(path, []byte(payload), os.ModePerm); err != nil {
		t.Fatal(err)
	}
	if _, err = NewResource(path, nil); err == nil {
		t.Fatal("expected an error for a corrupt gzip stream")
	}
}
