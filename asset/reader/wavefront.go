package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/sbvh/asset"
	"github.com/achilleasa/sbvh/asset/mesh"
	"github.com/achilleasa/sbvh/log"
	"github.com/achilleasa/sbvh/types"
)

type wavefrontMeshReader struct {
	logger log.Logger

	// The parsed mesh.
	mesh *mesh.Mesh

	// Number of parsed normals and uv coords. Only their count is tracked
	// so that face indices can be validated.
	normalCount int
	uvCount     int

	// An error stack that provides additional error information when
	// mesh files include other files.
	errStack []string
}

func newWavefrontReader() *wavefrontMeshReader {
	return &wavefrontMeshReader{
		logger:   log.New("wavefront reader"),
		mesh:     mesh.New(),
		errStack: make([]string, 0),
	}
}

func (r *wavefrontMeshReader) Read(res *asset.Resource) (*mesh.Mesh, error) {
	r.logger.Noticef(`parsing mesh from "%s"`, res.Path())
	start := time.Now()

	err := r.parse(res)
	if err != nil {
		return nil, err
	}

	if len(r.mesh.Triangles) == 0 {
		return nil, r.emitError(res.Path(), 0, "no faces defined")
	}

	r.logger.Noticef(
		"parsed %d vertices, %d triangles and %d groups in %d ms",
		len(r.mesh.Vertices), len(r.mesh.Triangles), len(r.mesh.Groups),
		time.Since(start).Nanoseconds()/1e6,
	)
	return r.mesh, nil
}

func (r *wavefrontMeshReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return fmt.Errorf("%s", errMsg)
}

func (r *wavefrontMeshReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

func (r *wavefrontMeshReader) popFrame() {
	r.errStack = r.errStack[1:]
}

func (r *wavefrontMeshReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	// Vertex indices in included files are relative to the include point
	relVertexOffset := len(r.mesh.Vertices)
	relUvOffset := r.uvCount
	relNormalOffset := r.normalCount

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.mesh.Vertices = append(r.mesh.Vertices, mesh.Vertex{Position: v})
		case "vn":
			r.normalCount++
		case "vt":
			r.uvCount++
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.verifyLastParsedGroup()
			r.mesh.Groups = append(r.mesh.Groups, mesh.Group{
				Name:           lineTokens[1],
				TriangleOffset: len(r.mesh.Triangles),
			})
		case "f":
			triangles, err := r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			if len(r.mesh.Groups) == 0 {
				r.mesh.Groups = append(r.mesh.Groups, mesh.Group{Name: "default"})
			}

			groupIndex := len(r.mesh.Groups) - 1
			r.mesh.Triangles = append(r.mesh.Triangles, triangles...)
			r.mesh.Groups[groupIndex].TriangleCount += len(triangles)
		default:
			r.logger.Debugf(`[%s: %d] ignoring unsupported statement "%s"`, res.Path(), lineNum, lineTokens[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}

	r.verifyLastParsedGroup()
	return nil
}

func (r *wavefrontMeshReader) verifyLastParsedGroup() {
	lastGroupIndex := len(r.mesh.Groups) - 1
	if lastGroupIndex >= 0 && r.mesh.Groups[lastGroupIndex].TriangleCount == 0 {
		r.logger.Warningf(`dropping group "%s" as it contains no polygons`, r.mesh.Groups[lastGroupIndex].Name)
		r.mesh.Groups = r.mesh.Groups[:lastGroupIndex]
	}
}

// Parse a triangle or quad face. Quads are split into two triangles.
func (r *wavefrontMeshReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) ([]mesh.Triangle, error) {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var indices [4]uint32
	var vOffset int
	var err error
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err = selectFaceCoordIndex(vTokens[0], len(r.mesh.Vertices), relVertexOffset)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		indices[arg] = uint32(vOffset)

		if expIndices > 1 && vTokens[1] != "" {
			if _, err = selectFaceCoordIndex(vTokens[1], r.uvCount, relUvOffset); err != nil {
				return nil, fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
		}

		if expIndices > 2 && vTokens[2] != "" {
			if _, err = selectFaceCoordIndex(vTokens[2], r.normalCount, relNormalOffset); err != nil {
				return nil, fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
		}
	}

	triangles := []mesh.Triangle{{I0: indices[0], I1: indices[1], I2: indices[2]}}
	if len(lineTokens) == 5 {
		triangles = append(triangles, mesh.Triangle{I0: indices[0], I1: indices[2], I2: indices[3]})
	}
	return triangles, nil
}

// Convert a 1-based (or negative relative) face coordinate index into a
// 0-based index into a list of coordListLen items.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 64)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = coord
	}
	return v, nil
}
