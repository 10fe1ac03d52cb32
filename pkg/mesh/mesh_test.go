package mesh

import (
	"errors"
	"slices"
	"testing"

	vec "github.com/Faultbox/meshkit/pkg/math"
)

func TestAttributeKeyString(t *testing.T) {
	tests := []struct {
		key  AttributeKey
		want string
	}{
		{KeyPosition, "POSITION"},
		{KeyNormal, "NORMAL"},
		{KeyTangent, "TANGENT"},
		{KeyTexCoord0, "TEXCOORD_0"},
		{AttributeKey{Semantic: Color, Set: 2}, "COLOR_2"},
		{AttributeKey{Semantic: Generic, Set: 1}, "_SCALAR_1"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		parsed, err := ParseAttributeKey(tt.want)
		if err != nil {
			t.Errorf("ParseAttributeKey(%q): %v", tt.want, err)
			continue
		}
		if parsed != tt.key {
			t.Errorf("ParseAttributeKey(%q) = %+v, want %+v", tt.want, parsed, tt.key)
		}
	}
}

func TestParseAttributeKeyErrors(t *testing.T) {
	for _, name := range []string{"", "POSITION_1", "UV", "TEXCOORD_x_"} {
		if _, err := ParseAttributeKey(name); !errors.Is(err, ErrUnknownAttribute) {
			t.Errorf("ParseAttributeKey(%q) error = %v", name, err)
		}
	}
}

func TestSortKeys(t *testing.T) {
	keys := []AttributeKey{
		{Semantic: TexCoord, Set: 1}, KeyTangent, {Semantic: TexCoord}, KeyPosition,
	}
	SortKeys(keys)
	want := []AttributeKey{KeyPosition, KeyTangent, {Semantic: TexCoord}, {Semantic: TexCoord, Set: 1}}
	if !slices.Equal(keys, want) {
		t.Errorf("SortKeys = %v, want %v", keys, want)
	}
}

func TestFaces(t *testing.T) {
	tests := []struct {
		name string
		dc   DrawCall
		want []Face
	}{
		{"list", DrawCall{Topology: Triangles, Start: 3, Count: 6}, []Face{{3, 4, 5}, {6, 7, 8}}},
		{"list trailing", DrawCall{Topology: Triangles, Count: 4}, []Face{{0, 1, 2}}},
		{"strip", DrawCall{Topology: TriangleStrip, Count: 5}, []Face{{0, 1, 2}, {2, 1, 3}, {2, 3, 4}}},
		{"fan", DrawCall{Topology: TriangleFan, Start: 1, Count: 4}, []Face{{1, 2, 3}, {1, 3, 4}}},
		{"lines", DrawCall{Topology: Lines, Count: 4}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dc.Faces(); !slices.Equal(got, tt.want) {
				t.Errorf("Faces() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTopology(t *testing.T) {
	for tp := Points; tp <= TriangleFan; tp++ {
		got, err := ParseTopology(tp.String())
		if err != nil || got != tp {
			t.Errorf("ParseTopology(%q) = %v, %v", tp.String(), got, err)
		}
	}
	if _, err := ParseTopology("quads"); err == nil {
		t.Error("expected error for unknown topology")
	}
}

func TestStridedIndexContainer(t *testing.T) {
	c := NewStridedIndexContainer(3)
	a := c.Add([]int{1, 2, 3})
	b := c.Add([]int{1, 2, 4})
	if a == b {
		t.Fatal("distinct rows share a vertex")
	}
	if got := c.Add([]int{1, 2, 3}); got != a {
		t.Errorf("equal row: got %d, want %d", got, a)
	}
	if v, ok := c.Find([]int{1, 2, 4}); !ok || v != b {
		t.Errorf("Find = %d, %v", v, ok)
	}
	if _, ok := c.Find([]int{9, 9, 9}); ok {
		t.Error("Find returned a row never added")
	}
	d := c.Append([]int{1, 2, 3})
	if d == a || c.Len() != 3 {
		t.Errorf("Append = %d, Len = %d", d, c.Len())
	}
	if row := c.Row(b); row.At(2) != 4 || len(row) != 3 {
		t.Errorf("Row(%d) = %v", b, row)
	}
}

func TestStridedIndexContainerWidthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewStridedIndexContainer(2).Add([]int{1})
}

// quad builds two triangles sharing an edge, with the shared corners
// duplicated in the value list.
func quad() *IndexedMesh {
	pos := NewListContainer[vec.Vec3]()
	for _, p := range []vec.Vec3{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1},
		{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	} {
		pos.Add(p)
	}
	uv := NewListContainer[vec.Vec2]()
	for _, p := range []vec.Vec2{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1},
		{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	} {
		uv.Add(p)
	}
	m := NewIndexedMesh()
	m.SetAttribute(KeyPosition, pos)
	m.SetAttribute(KeyTexCoord0, uv)
	m.AddIndices(0, 1, 2, 3, 4, 5)
	m.AddDrawCall(DrawCall{Topology: Triangles, Count: 6, Name: "quad"})
	return m
}

func TestToSeparatedWelds(t *testing.T) {
	s, err := ToSeparated(quad(), DefaultContainerOptions())
	if err != nil {
		t.Fatalf("ToSeparated: %v", err)
	}
	if got := s.Attribute(KeyPosition).Count(); got != 4 {
		t.Errorf("positions = %d, want 4", got)
	}
	if got := s.Attribute(KeyTexCoord0).Count(); got != 4 {
		t.Errorf("texcoords = %d, want 4", got)
	}
	want := []int{0, 1, 2, 0, 2, 3}
	if got := s.Indices(KeyPosition); !slices.Equal(got, want) {
		t.Errorf("position indices = %v, want %v", got, want)
	}
	if s.IndexCount() != 6 || len(s.DrawCalls()) != 1 || s.DrawCalls()[0].Name != "quad" {
		t.Errorf("draw calls not carried over: %+v", s.DrawCalls())
	}
	if err := Validate(s); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestToSeparatedKeepsUnreferencedValues(t *testing.T) {
	m := quad()
	m.Attribute(KeyPosition).AddVec4(vec.Vec4{X: 5})
	m.Attribute(KeyTexCoord0).AddVec4(vec.Vec4{X: 5})
	s, err := ToSeparated(m, DefaultContainerOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Attribute(KeyPosition).Count(); got != 5 {
		t.Errorf("positions = %d, want 5", got)
	}
}

func TestToSeparatedRejectsBadIndex(t *testing.T) {
	m := quad()
	m.AddIndices(42)
	m.AddDrawCall(DrawCall{Topology: Points, Start: 6, Count: 1})
	if _, err := ToSeparated(m, DefaultContainerOptions()); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("error = %v, want ErrInvalidMesh", err)
	}
}

func TestValidateDrawCallRange(t *testing.T) {
	m := quad()
	m.AddDrawCall(DrawCall{Topology: Triangles, Start: 3, Count: 6})
	if err := Validate(m); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("error = %v, want ErrInvalidMesh", err)
	}
}

func TestUnify(t *testing.T) {
	s, err := ToSeparated(quad(), DefaultContainerOptions())
	if err != nil {
		t.Fatal(err)
	}
	u := Unify(s)
	if got := u.VertexCount(); got != 4 {
		t.Errorf("VertexCount() = %d, want 4", got)
	}
	if got := u.SharedIndices(); !slices.Equal(got, []int{0, 1, 2, 0, 2, 3}) {
		t.Errorf("indices = %v", got)
	}
	if u.Attribute(KeyTexCoord0).Count() != 4 {
		t.Errorf("texcoords = %d, want 4", u.Attribute(KeyTexCoord0).Count())
	}
	for v := 0; v < 4; v++ {
		p := u.Attribute(KeyPosition).Vec4(v)
		uv := u.Attribute(KeyTexCoord0).Vec4(v)
		if p.X != uv.X || p.Y != uv.Y {
			t.Errorf("vertex %d: position %v does not match texcoord %v", v, p, uv)
		}
	}
}

func TestUnifySplitsSeams(t *testing.T) {
	// Same position with two different texcoords must stay two vertices.
	m := quad()
	uv := m.Attribute(KeyTexCoord0).(*ListContainer[vec.Vec2])
	uv.values[3] = vec.Vec2{X: 0.5, Y: 0.5}
	s, err := ToSeparated(m, DefaultContainerOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got := Unify(s).VertexCount(); got != 5 {
		t.Errorf("VertexCount() = %d, want 5", got)
	}
}

func TestNewStridedFromMesh(t *testing.T) {
	s, err := ToSeparated(quad(), DefaultContainerOptions())
	if err != nil {
		t.Fatal(err)
	}
	c := NewStridedFromMesh(s, DrawCall{Topology: Triangles, Start: 3, Count: 3})
	if c.Len() != 3 || c.Stride() != 2 {
		t.Fatalf("Len = %d, Stride = %d", c.Len(), c.Stride())
	}
	if row := c.Row(1); row.At(0) != 2 || row.At(1) != 2 {
		t.Errorf("Row(1) = %v, want [2 2]", row)
	}
}

func TestAppendVertexAndCloneAttributes(t *testing.T) {
	s, err := ToSeparated(quad(), DefaultContainerOptions())
	if err != nil {
		t.Fatal(err)
	}
	out := s.CloneAttributes()
	if out.IndexCount() != 0 || len(out.DrawCalls()) != 0 {
		t.Fatal("CloneAttributes copied indices or draw calls")
	}
	if p := out.AppendVertex(StridedIndexRange{3, 3}); p != 0 {
		t.Errorf("AppendVertex = %d, want 0", p)
	}
	out.Attribute(KeyPosition).AddVec4(vec.Vec4{X: 9})
	if s.Attribute(KeyPosition).Count() != 4 {
		t.Error("clone shares storage with the source")
	}
}
