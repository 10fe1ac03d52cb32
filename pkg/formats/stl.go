package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Faultbox/meshkit/pkg/encoding"
	vec "github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

var (
	ErrTruncatedSTLData = errors.New("truncated STL data")
	ErrMalformedSTL     = errors.New("malformed STL data")
)

const (
	stlHeaderSize = 80
	stlFacetSize  = 50 // normal, 3 vertices, attribute byte count
)

// ReadSTL parses ASCII or binary STL into a triangle soup: three
// positions per facet, each corner carrying the facet normal. The solid
// name or header text names the draw call.
func ReadSTL(data []byte, opts Options) (*mesh.IndexedMesh, error) {
	if isBinarySTL(data) {
		return readBinarySTL(data, opts)
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return readASCIISTL(data, opts)
	}
	return readBinarySTL(data, opts)
}

// isBinarySTL trusts the facet count when it matches the file size. ASCII
// files start with "solid" but so do some binary headers.
func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}
	n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	return uint64(len(data)) == stlHeaderSize+4+uint64(n)*stlFacetSize
}

type stlBuilder struct {
	pos     *mesh.ListContainer[vec.Vec3]
	normals *mesh.ListContainer[vec.Vec3]
	m       *mesh.IndexedMesh
}

func newSTLBuilder() *stlBuilder {
	return &stlBuilder{
		pos:     mesh.NewListContainer[vec.Vec3](),
		normals: mesh.NewListContainer[vec.Vec3](),
		m:       mesh.NewIndexedMesh(),
	}
}

func (b *stlBuilder) facet(normal vec.Vec3, v [3]vec.Vec3) {
	for _, p := range v {
		b.m.AddIndices(b.pos.Add(p))
		b.normals.Add(normal)
	}
}

func (b *stlBuilder) finish(name string) *mesh.IndexedMesh {
	b.m.SetAttribute(mesh.KeyPosition, b.pos)
	b.m.SetAttribute(mesh.KeyNormal, b.normals)
	b.m.AddDrawCall(mesh.DrawCall{Topology: mesh.Triangles, Count: len(b.m.SharedIndices()), Name: name})
	return b.m
}

func readBinarySTL(data []byte, opts Options) (*mesh.IndexedMesh, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, ErrTruncatedSTLData
	}
	name := encoding.FixedString(data[:stlHeaderSize], opts.NameEncoding)

	r := bytes.NewReader(data[stlHeaderSize:])
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, ErrTruncatedSTLData
	}
	if uint64(r.Len()) < uint64(count)*stlFacetSize {
		return nil, fmt.Errorf("%w: %d facets declared, %d bytes left", ErrTruncatedSTLData, count, r.Len())
	}

	b := newSTLBuilder()
	var facet struct {
		Normal   [3]float32
		Vertices [3][3]float32
		Attr     uint16
	}
	for i := uint32(0); i < count; i++ {
		if err := binary.Read(r, binary.LittleEndian, &facet); err != nil {
			return nil, fmt.Errorf("%w: facet %d", ErrTruncatedSTLData, i)
		}
		var v [3]vec.Vec3
		for k, p := range facet.Vertices {
			v[k] = vec.Vec3{X: p[0], Y: p[1], Z: p[2]}
		}
		b.facet(vec.Vec3{X: facet.Normal[0], Y: facet.Normal[1], Z: facet.Normal[2]}, v)
	}
	return b.finish(name), nil
}

func readASCIISTL(data []byte, opts Options) (*mesh.IndexedMesh, error) {
	b := newSTLBuilder()
	sc := bufio.NewScanner(bytes.NewReader(data))
	name := ""
	line := 0

	var (
		normal  vec.Vec3
		corners []vec.Vec3
		inFacet bool
	)
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "solid":
			if line == 1 || name == "" {
				rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "solid"))
				name = encoding.DecodeName([]byte(rest), opts.NameEncoding)
			}
		case "facet":
			if inFacet || len(fields) != 5 || fields[1] != "normal" {
				return nil, fmt.Errorf("%w: line %d: bad facet", ErrMalformedSTL, line)
			}
			n, err := parseSTLVec(fields[2:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			normal, corners, inFacet = n, corners[:0], true
		case "vertex":
			if !inFacet || len(fields) != 4 {
				return nil, fmt.Errorf("%w: line %d: bad vertex", ErrMalformedSTL, line)
			}
			v, err := parseSTLVec(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			corners = append(corners, v)
		case "endfacet":
			if !inFacet || len(corners) != 3 {
				return nil, fmt.Errorf("%w: line %d: facet with %d vertices", ErrMalformedSTL, line, len(corners))
			}
			b.facet(normal, [3]vec.Vec3{corners[0], corners[1], corners[2]})
			inFacet = false
		case "outer", "endloop", "endsolid":
		default:
			return nil, fmt.Errorf("%w: line %d: unexpected %q", ErrMalformedSTL, line, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if inFacet {
		return nil, fmt.Errorf("%w: unterminated facet", ErrTruncatedSTLData)
	}
	return b.finish(name), nil
}

func parseSTLVec(fields []string) (vec.Vec3, error) {
	var f [3]float32
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("%w: %q", ErrMalformedSTL, s)
		}
		f[i] = float32(v)
	}
	return vec.Vec3{X: f[0], Y: f[1], Z: f[2]}, nil
}

// WriteSTL writes the faces of m as binary STL with recomputed facet
// normals. name goes into the header.
func WriteSTL(w io.Writer, m mesh.Mesh, name string) error {
	pos := m.Attribute(mesh.KeyPosition)
	if pos == nil {
		return fmt.Errorf("%w: no POSITION attribute", ErrMalformedSTL)
	}
	idx := m.Indices(mesh.KeyPosition)

	var faces []mesh.Face
	for _, dc := range m.DrawCalls() {
		faces = append(faces, dc.Faces()...)
	}
	if uint64(len(faces)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d facets", ErrMalformedSTL, len(faces))
	}

	buf := make([]byte, 0, stlHeaderSize+4+len(faces)*stlFacetSize)
	buf = append(buf, encoding.ToFixedString(name, stlHeaderSize)...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(faces)))
	for _, f := range faces {
		a := pos.Vec4(idx[f[0]]).XYZ()
		b := pos.Vec4(idx[f[1]]).XYZ()
		c := pos.Vec4(idx[f[2]]).XYZ()
		n := b.Sub(a).Cross(c.Sub(a)).Normalize()
		for _, v := range []vec.Vec3{n, a, b, c} {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v.X))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v.Y))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v.Z))
		}
		buf = binary.LittleEndian.AppendUint16(buf, 0)
	}
	_, err := w.Write(buf)
	return err
}
