package reader

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/achilleasa/sbvh/asset"
	"github.com/achilleasa/sbvh/asset/mesh"
	"github.com/achilleasa/sbvh/types"
)

func TestVec3Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 3 arguments; got 0`
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	expError := "index out of bounds"
	type spec struct {
		in       string
		listLen  int
		relOff   int
		out      int
		expError string
	}
	specs := []spec{
		{"2", 1, 0, -1, expError},
		{"-2", 1, 0, -1, expError},
		{"1", 10, 0, 0, ""}, // indices are 1-based
		{"-1", 10, 0, 9, ""},
		{"1", 10, 4, 4, ""},
		{"7", 10, 4, -1, expError},
	}

	for idx, s := range specs {
		v, err := selectFaceCoordIndex(s.in, s.listLen, s.relOff)
		if s.expError != "" && (err == nil || err.Error() != s.expError) {
			t.Fatalf("[spec %d] expected error %s; got %v", idx, s.expError, err)
		} else if v != s.out {
			t.Fatalf("[spec %d] expected index to be %d; got %d", idx, s.out, v)
		}
	}
}

func TestReadMeshGroups(t *testing.T) {
	payload := `
# unit quad and a triangle
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vn 0 0 1

f 1/1/1 2/1/1 3/1/1 4/1/1

o empty
o tri
v 5 5 5
f -1 -2 -3
s off
`

	m, err := Read(asset.NewResourceFromStream("test.obj", strings.NewReader(payload)))
	if err != nil {
		t.Fatal(err)
	}

	expTriangles := []mesh.Triangle{
		{I0: 0, I1: 1, I2: 2},
		{I0: 0, I1: 2, I2: 3},
		{I0: 4, I1: 3, I2: 2},
	}
	if !reflect.DeepEqual(m.Triangles, expTriangles) {
		t.Fatalf("expected triangles %v; got %v", expTriangles, m.Triangles)
	}

	expGroups := []mesh.Group{
		{Name: "default", TriangleOffset: 0, TriangleCount: 2},
		{Name: "tri", TriangleOffset: 2, TriangleCount: 1},
	}
	if !reflect.DeepEqual(m.Groups, expGroups) {
		t.Fatalf("expected groups %v; got %v", expGroups, m.Groups)
	}

	if exp := types.NewBound(types.XYZ(0, 0, 0), types.XYZ(1, 1, 0)); m.GroupBound(m.Groups[0]) != exp {
		t.Fatalf("expected group bound %v; got %v", exp, m.GroupBound(m.Groups[0]))
	}
}

func TestReadMeshErrors(t *testing.T) {
	specs := []struct {
		payload  string
		expError string
	}{
		{"v 0 0\n", `[test.obj: 1] error: unsupported syntax for "v"; expected 3 arguments; got 2`},
		{"v 0 0 0\nf 1 1\n", `[test.obj: 2] error: unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got 2. Select the triangulation option in your exporter`},
		{"v 0 0 0\nf 1 1 4\n", `[test.obj: 2] error: could not parse vertex coord for face argument 2: index out of bounds`},
		{"v 0 0 0\nf 1 1/1 1\n", `[test.obj: 2] error: expected each face argument to contain 1 indices; arg 1 contains 2 indices`},
		{"v 0 0 0\nf 1/1 1/1 1/1\n", `[test.obj: 2] error: could not parse tex coord for face argument 0: index out of bounds`},
		{"v 0 0 0\nf 1//1 1//1 1//1\n", `[test.obj: 2] error: could not parse normal coord for face argument 0: index out of bounds`},
		{"g\n", `[test.obj: 1] error: unsupported syntax for "g"; expected 1 argument for object name; got 0`},
		{"v 0 0 0\n", `[test.obj: 0] error: no faces defined`},
	}

	for index, spec := range specs {
		_, err := Read(asset.NewResourceFromStream("test.obj", strings.NewReader(spec.payload)))
		if err == nil || err.Error() != spec.expError {
			t.Errorf("[spec %d] expected error:\n%s\ngot:\n%v", index, spec.expError, err)
		}
	}
}

func TestReadMeshUnsupportedFormat(t *testing.T) {
	_, err := Read(asset.NewResourceFromStream("test.fbx", strings.NewReader("")))
	if err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}

func TestReadMeshWithIncludes(t *testing.T) {
	files := map[string]string{
		"/meshes/main.obj": `
v 0 0 0
v 1 0 0
v 0 1 0
g base
f 1 2 3
call part.obj
`,
		"/meshes/part.obj": `
g part
v 0 0 1
v 1 0 1
v 0 1 1
f 1 2 3
`,
		"/meshes/broken.obj": "call missing.obj\n",
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, exists := files[r.URL.Path]
		if !exists {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(payload))
	}))
	defer server.Close()

	m, err := ReadMesh(server.URL + "/meshes/main.obj")
	if err != nil {
		t.Fatal(err)
	}

	// Indices in included files are relative to the include point
	expTriangles := []mesh.Triangle{{I0: 0, I1: 1, I2: 2}, {I0: 3, I1: 4, I2: 5}}
	if !reflect.DeepEqual(m.Triangles, expTriangles) {
		t.Fatalf("expected triangles %v; got %v", expTriangles, m.Triangles)
	}
	if len(m.Groups) != 2 || m.Groups[1].Name != "part" || m.Groups[1].TriangleOffset != 1 {
		t.Fatalf("unexpected groups %v", m.Groups)
	}

	_, err = ReadMesh(server.URL + "/meshes/broken.obj")
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("expected a 404 error; got %v", err)
	}
}
