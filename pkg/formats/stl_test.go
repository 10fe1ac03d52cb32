package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	vec "github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

const triangleSTL = `solid tri
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
endsolid tri
`

// createTestSTL builds a binary STL with one facet per triangle.
func createTestSTL(header string, tris [][3]vec.Vec3) []byte {
	buf := new(bytes.Buffer)
	h := make([]byte, stlHeaderSize)
	copy(h, header)
	buf.Write(h)
	binary.Write(buf, binary.LittleEndian, uint32(len(tris)))
	for _, tri := range tris {
		binary.Write(buf, binary.LittleEndian, [3]float32{0, 0, 1})
		for _, v := range tri {
			binary.Write(buf, binary.LittleEndian, [3]float32{v.X, v.Y, v.Z})
		}
		binary.Write(buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

func TestReadSTL_ASCII(t *testing.T) {
	m, err := ReadSTL([]byte(triangleSTL), Options{})
	if err != nil {
		t.Fatalf("ReadSTL failed: %v", err)
	}
	if m.VertexCount() != 3 {
		t.Errorf("expected 3 vertices, got %d", m.VertexCount())
	}
	dcs := m.DrawCalls()
	if len(dcs) != 1 || dcs[0].Count != 3 || dcs[0].Name != "tri" {
		t.Errorf("draw calls %+v", dcs)
	}
	if n := m.Attribute(mesh.KeyNormal).Vec4(2).XYZ(); n != (vec.Vec3{Z: 1}) {
		t.Errorf("normal = %v", n)
	}
	if p := m.Attribute(mesh.KeyPosition).Vec4(1).XYZ(); p != (vec.Vec3{X: 1}) {
		t.Errorf("position 1 = %v", p)
	}
}

func TestReadSTL_Binary(t *testing.T) {
	// Header starting with "solid" must not fool detection.
	data := createTestSTL("solid binary", [][3]vec.Vec3{
		{{}, {X: 1}, {Y: 1}},
		{{X: 1}, {X: 1, Y: 1}, {Y: 1}},
	})
	m, err := ReadSTL(data, Options{})
	if err != nil {
		t.Fatalf("ReadSTL failed: %v", err)
	}
	if m.VertexCount() != 6 || len(m.SharedIndices()) != 6 {
		t.Errorf("expected a 6 vertex soup, got %d vertices, %d indices", m.VertexCount(), len(m.SharedIndices()))
	}
	if name := m.DrawCalls()[0].Name; name != "solid binary" {
		t.Errorf("name = %q", name)
	}
}

func TestReadSTL_Errors(t *testing.T) {
	full := createTestSTL("", [][3]vec.Vec3{{{}, {X: 1}, {Y: 1}}})
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", make([]byte, 20), ErrTruncatedSTLData},
		{"missing facets", full[:len(full)-10], ErrTruncatedSTLData},
		{"vertex outside facet", []byte("solid x\nvertex 0 0 0\nendsolid\n"), ErrMalformedSTL},
		{"two vertices", []byte("solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\nendfacet\n"), ErrMalformedSTL},
		{"bad number", []byte("solid x\nfacet normal 0 0 z\n"), ErrMalformedSTL},
		{"unterminated", []byte("solid x\nfacet normal 0 0 1\nouter loop\n"), ErrTruncatedSTLData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSTL(tt.data, Options{})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWriteSTL(t *testing.T) {
	m, err := ReadSTL([]byte(triangleSTL), Options{})
	if err != nil {
		t.Fatalf("ReadSTL failed: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteSTL(&buf, m, "out"); err != nil {
		t.Fatalf("WriteSTL failed: %v", err)
	}
	data := buf.Bytes()
	if len(data) != stlHeaderSize+4+stlFacetSize {
		t.Fatalf("size = %d", len(data))
	}
	if n := binary.LittleEndian.Uint32(data[stlHeaderSize:]); n != 1 {
		t.Errorf("facet count = %d", n)
	}
	nz := math.Float32frombits(binary.LittleEndian.Uint32(data[stlHeaderSize+4+8:]))
	if nz != 1 {
		t.Errorf("recomputed normal z = %v", nz)
	}

	back, err := ReadSTL(data, Options{})
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	if back.DrawCalls()[0].Name != "out" || back.VertexCount() != 3 {
		t.Errorf("re-read mesh: %d vertices, draw calls %+v", back.VertexCount(), back.DrawCalls())
	}
}
