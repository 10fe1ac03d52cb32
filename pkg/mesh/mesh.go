package mesh

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidMesh is returned by Validate for inconsistent meshes.
var ErrInvalidMesh = errors.New("invalid mesh")

// Mesh is the read side shared by both mesh representations.
type Mesh interface {
	// Keys returns attribute keys in canonical order.
	Keys() []AttributeKey
	// Attribute returns the attribute for key, or nil.
	Attribute(key AttributeKey) Attribute
	// Indices returns the index list addressing key's values.
	Indices(key AttributeKey) []int
	DrawCalls() []DrawCall
}

type attributeSet struct {
	keys  []AttributeKey
	attrs map[AttributeKey]Attribute
}

func (a *attributeSet) Keys() []AttributeKey {
	return a.keys
}

func (a *attributeSet) Attribute(key AttributeKey) Attribute {
	return a.attrs[key]
}

func (a *attributeSet) put(key AttributeKey, attr Attribute) {
	if a.attrs == nil {
		a.attrs = make(map[AttributeKey]Attribute)
	}
	if _, ok := a.attrs[key]; !ok {
		a.keys = append(a.keys, key)
		SortKeys(a.keys)
	}
	a.attrs[key] = attr
}

// IndexedMesh shares one index list between all attributes.
type IndexedMesh struct {
	attributeSet
	indices   []int
	drawCalls []DrawCall
}

// NewIndexedMesh returns an empty mesh.
func NewIndexedMesh() *IndexedMesh {
	return &IndexedMesh{}
}

// SetAttribute adds or replaces the attribute for key.
func (m *IndexedMesh) SetAttribute(key AttributeKey, attr Attribute) {
	m.put(key, attr)
}

// Indices returns the shared index list whatever the key.
func (m *IndexedMesh) Indices(AttributeKey) []int {
	return m.indices
}

// SharedIndices returns the shared index list.
func (m *IndexedMesh) SharedIndices() []int {
	return m.indices
}

// AddIndices appends to the index list.
func (m *IndexedMesh) AddIndices(idx ...int) {
	m.indices = append(m.indices, idx...)
}

func (m *IndexedMesh) DrawCalls() []DrawCall {
	return m.drawCalls
}

// AddDrawCall appends a draw call.
func (m *IndexedMesh) AddDrawCall(dc DrawCall) {
	m.drawCalls = append(m.drawCalls, dc)
}

// VertexCount returns the number of values of the position attribute, or
// of the first attribute when there is no position.
func (m *IndexedMesh) VertexCount() int {
	if a := m.Attribute(KeyPosition); a != nil {
		return a.Count()
	}
	if len(m.keys) > 0 {
		return m.attrs[m.keys[0]].Count()
	}
	return 0
}

// SeparatedIndexedMesh gives every attribute its own index list. All lists
// have the same length and draw calls address positions in them.
type SeparatedIndexedMesh struct {
	attributeSet
	indices   map[AttributeKey][]int
	drawCalls []DrawCall
}

// NewSeparatedIndexedMesh returns an empty mesh.
func NewSeparatedIndexedMesh() *SeparatedIndexedMesh {
	return &SeparatedIndexedMesh{indices: make(map[AttributeKey][]int)}
}

// SetAttribute adds or replaces the attribute for key with its index list.
func (s *SeparatedIndexedMesh) SetAttribute(key AttributeKey, attr Attribute, indices []int) {
	s.put(key, attr)
	s.indices[key] = indices
}

func (s *SeparatedIndexedMesh) Indices(key AttributeKey) []int {
	return s.indices[key]
}

func (s *SeparatedIndexedMesh) DrawCalls() []DrawCall {
	return s.drawCalls
}

// AddDrawCall appends a draw call.
func (s *SeparatedIndexedMesh) AddDrawCall(dc DrawCall) {
	s.drawCalls = append(s.drawCalls, dc)
}

// IndexCount returns the common length of the index lists.
func (s *SeparatedIndexedMesh) IndexCount() int {
	if len(s.keys) == 0 {
		return 0
	}
	return len(s.indices[s.keys[0]])
}

// AppendVertex appends one vertex given as a strided row in Keys() order and
// returns its index-list position.
func (s *SeparatedIndexedMesh) AppendVertex(row StridedIndexRange) int {
	if len(row) < len(s.keys) {
		panic(fmt.Sprintf("mesh: vertex row of width %d for %d attributes", len(row), len(s.keys)))
	}
	p := s.IndexCount()
	for k, key := range s.keys {
		s.indices[key] = append(s.indices[key], row[k])
	}
	return p
}

// CloneAttributes returns a mesh holding copies of s's attributes with empty
// index lists and no draw calls. Existing value indices stay valid.
func (s *SeparatedIndexedMesh) CloneAttributes() *SeparatedIndexedMesh {
	out := NewSeparatedIndexedMesh()
	for _, key := range s.keys {
		out.SetAttribute(key, s.attrs[key].Clone(), nil)
	}
	return out
}

// Validate checks index list lengths, index ranges and draw call ranges.
func Validate(m Mesh) error {
	n := -1
	for _, key := range m.Keys() {
		attr := m.Attribute(key)
		idx := m.Indices(key)
		if n < 0 {
			n = len(idx)
		} else if len(idx) != n {
			return fmt.Errorf("%w: %s has %d indices, want %d", ErrInvalidMesh, key, len(idx), n)
		}
		for p, i := range idx {
			if i < 0 || i >= attr.Count() {
				return fmt.Errorf("%w: %s index %d at %d out of range [0,%d)", ErrInvalidMesh, key, i, p, attr.Count())
			}
		}
	}
	n = max(n, 0)
	for i, dc := range m.DrawCalls() {
		if dc.Start < 0 || dc.Count < 0 || dc.End() > n {
			return fmt.Errorf("%w: draw call %d [%d,%d) outside %d indices", ErrInvalidMesh, i, dc.Start, dc.End(), n)
		}
	}
	return nil
}

// ToSeparated rebuilds every attribute of m through NewContainer and remaps
// its indices. All source values are carried over in order, referenced or
// not, so welding merges them deterministically.
func ToSeparated(m Mesh, opts ContainerOptions) (*SeparatedIndexedMesh, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	out := NewSeparatedIndexedMesh()
	for _, key := range m.Keys() {
		src := m.Attribute(key)
		dst, err := NewContainer(key, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		remap := make([]int, src.Count())
		for i := range remap {
			remap[i] = dst.AddVec4(src.Vec4(i))
		}
		srcIdx := m.Indices(key)
		idx := make([]int, len(srcIdx))
		for p, i := range srcIdx {
			idx[p] = remap[i]
		}
		out.SetAttribute(key, dst, idx)
	}
	out.drawCalls = slices.Clone(m.DrawCalls())
	return out, nil
}

// Unify turns s into an IndexedMesh whose vertices are the distinct strided
// rows of s. Values not referenced by any draw call are dropped.
func Unify(s *SeparatedIndexedMesh) *IndexedMesh {
	out := NewIndexedMesh()
	if len(s.keys) == 0 {
		out.drawCalls = slices.Clone(s.drawCalls)
		return out
	}

	table := NewStridedIndexContainer(len(s.keys))
	row := make([]int, len(s.keys))
	for _, dc := range s.drawCalls {
		start := len(out.indices)
		for p := dc.Start; p < dc.End(); p++ {
			for k, key := range s.keys {
				row[k] = s.indices[key][p]
			}
			out.indices = append(out.indices, table.Add(row))
		}
		out.AddDrawCall(DrawCall{Topology: dc.Topology, Start: start, Count: dc.Count, Name: dc.Name})
	}

	for k, key := range s.keys {
		src := s.attrs[key]
		dst := NewListAttribute(src.Kind())
		for v := 0; v < table.Len(); v++ {
			dst.AddVec4(src.Vec4(table.Row(v)[k]))
		}
		out.SetAttribute(key, dst)
	}
	return out
}
