package sdfmesh

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vec "github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

const testCells = 24

func checkSoup(t *testing.T, m *mesh.IndexedMesh) {
	t.Helper()
	require.NoError(t, mesh.Validate(m))
	idx := m.SharedIndices()
	require.NotEmpty(t, idx)
	assert.Zero(t, len(idx)%3)
	assert.Equal(t, len(idx), m.VertexCount())
	require.Len(t, m.DrawCalls(), 1)
	assert.Equal(t, mesh.Triangles, m.DrawCalls()[0].Topology)
	assert.Equal(t, m.Attribute(mesh.KeyPosition).Count(), m.Attribute(mesh.KeyNormal).Count())
}

func TestBox(t *testing.T) {
	size := vec.Vec3{X: 2, Y: 1, Z: 1}
	m, err := Box(size, testCells)
	require.NoError(t, err)
	checkSoup(t, m)

	// One cell of slack for the marching cubes grid.
	slack := float32(2.0 / testCells)
	pos := m.Attribute(mesh.KeyPosition)
	for i := 0; i < pos.Count(); i++ {
		p := pos.Vec4(i)
		assert.LessOrEqual(t, abs(p.X), size.X/2+slack)
		assert.LessOrEqual(t, abs(p.Y), size.Y/2+slack)
		assert.LessOrEqual(t, abs(p.Z), size.Z/2+slack)
	}
	assert.Equal(t, "box", m.DrawCalls()[0].Name)
}

func TestCylinder(t *testing.T) {
	m, err := Cylinder(2, 0.5, testCells)
	require.NoError(t, err)
	checkSoup(t, m)

	slack := 2.0 / testCells
	pos := m.Attribute(mesh.KeyPosition)
	for i := 0; i < pos.Count(); i++ {
		p := pos.Vec4(i)
		r := math.Hypot(float64(p.X), float64(p.Y))
		assert.LessOrEqual(t, r, 0.5+slack)
		assert.LessOrEqual(t, math.Abs(float64(p.Z)), 1+slack)
	}
}

func TestBoxWithHole(t *testing.T) {
	const radius = 0.25
	m, err := BoxWithHole(vec.Vec3{X: 1, Y: 1, Z: 1}, radius, 32)
	require.NoError(t, err)
	checkSoup(t, m)

	pos := m.Attribute(mesh.KeyPosition)
	inner := 0
	for i := 0; i < pos.Count(); i++ {
		p := pos.Vec4(i)
		r := math.Hypot(float64(p.X), float64(p.Y))
		assert.Greater(t, r, radius-2.0/32, "vertex inside the hole at %v", p)
		if r < radius+2.0/32 {
			inner++
		}
	}
	assert.Positive(t, inner, "expected vertices on the hole wall")
}

func TestInvalidShapes(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (*mesh.IndexedMesh, error)
	}{
		{"flat box", func() (*mesh.IndexedMesh, error) { return Box(vec.Vec3{X: 1, Y: 0, Z: 1}, 8) }},
		{"zero cells", func() (*mesh.IndexedMesh, error) { return Box(vec.Vec3{X: 1, Y: 1, Z: 1}, 0) }},
		{"negative radius", func() (*mesh.IndexedMesh, error) { return Cylinder(1, -1, 8) }},
		{"hole too wide", func() (*mesh.IndexedMesh, error) { return BoxWithHole(vec.Vec3{X: 1, Y: 1, Z: 1}, 0.5, 8) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			assert.ErrorIs(t, err, ErrInvalidShape)
		})
	}
}

func abs(f float32) float32 {
	return float32(math.Abs(float64(f)))
}
