// Package sdfmesh samples signed-distance primitives into triangle meshes
// with marching cubes. The meshes are unwelded soups, which makes them
// handy inputs for welding and T-vertex repair.
package sdfmesh

import (
	"errors"
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	vec "github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

// ErrInvalidShape is returned for non-positive dimensions or cell counts.
var ErrInvalidShape = errors.New("invalid shape parameters")

// Box samples an axis-aligned box of the given size centred on the origin.
func Box(size vec.Vec3, cells int) (*mesh.IndexedMesh, error) {
	if !(size.X > 0 && size.Y > 0 && size.Z > 0) {
		return nil, fmt.Errorf("%w: box size %v", ErrInvalidShape, size)
	}
	s, err := sdf.Box3D(v3.Vec{X: float64(size.X), Y: float64(size.Y), Z: float64(size.Z)}, 0)
	if err != nil {
		return nil, err
	}
	return sample(s, "box", cells)
}

// Cylinder samples a cylinder along Z centred on the origin.
func Cylinder(height, radius float64, cells int) (*mesh.IndexedMesh, error) {
	if !(height > 0 && radius > 0) {
		return nil, fmt.Errorf("%w: cylinder %gx%g", ErrInvalidShape, height, radius)
	}
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, err
	}
	return sample(s, "cylinder", cells)
}

// BoxWithHole samples a box with a cylindrical hole of the given radius
// drilled through it along Z. The radius must leave material on both sides.
func BoxWithHole(size vec.Vec3, radius float64, cells int) (*mesh.IndexedMesh, error) {
	if !(radius > 0) || 2*radius >= float64(min(size.X, size.Y)) {
		return nil, fmt.Errorf("%w: hole radius %g in %v", ErrInvalidShape, radius, size)
	}
	if !(size.Z > 0) {
		return nil, fmt.Errorf("%w: box size %v", ErrInvalidShape, size)
	}
	box, err := sdf.Box3D(v3.Vec{X: float64(size.X), Y: float64(size.Y), Z: float64(size.Z)}, 0)
	if err != nil {
		return nil, err
	}
	// Longer than the box so the hole breaks through both faces.
	hole, err := sdf.Cylinder3D(2*float64(size.Z), radius, 0)
	if err != nil {
		return nil, err
	}
	return sample(sdf.Difference3D(box, hole), "box_with_hole", cells)
}

// sample runs marching cubes over s. Each triangle gets three fresh
// vertices carrying its face normal.
func sample(s sdf.SDF3, name string, cells int) (*mesh.IndexedMesh, error) {
	if cells < 1 {
		return nil, fmt.Errorf("%w: %d cells", ErrInvalidShape, cells)
	}
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	pos := mesh.NewListContainer[vec.Vec3]()
	normals := mesh.NewListContainer[vec.Vec3]()
	m := mesh.NewIndexedMesh()
	for _, tri := range triangles {
		n := tri.Normal()
		fn := vec.Vec3{X: float32(n.X), Y: float32(n.Y), Z: float32(n.Z)}
		for j := 0; j < 3; j++ {
			v := tri[j]
			m.AddIndices(pos.Add(vec.Vec3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}))
			normals.Add(fn)
		}
	}
	m.SetAttribute(mesh.KeyPosition, pos)
	m.SetAttribute(mesh.KeyNormal, normals)
	m.AddDrawCall(mesh.DrawCall{Topology: mesh.Triangles, Count: len(m.SharedIndices()), Name: name})
	return m, nil
}
