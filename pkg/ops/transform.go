package ops

import (
	"github.com/go-gl/mathgl/mgl32"

	vec "github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

// Transform returns a copy of s with positions transformed by m, normals by
// its inverse transpose and tangent directions by its upper 3x3. A mirroring
// matrix flips tangent handedness and reverses face winding so faces keep
// pointing outwards; strips and fans then become triangle lists.
func Transform(s *mesh.SeparatedIndexedMesh, m mgl32.Mat4) *mesh.SeparatedIndexedMesh {
	mirror := vec.Determinant3(m) < 0
	normalMat := vec.NormalMatrix(m)

	order, drawCalls := identityOrder(s)
	if mirror {
		order, drawCalls = reversedOrder(s)
	}

	out := mesh.NewSeparatedIndexedMesh()
	for _, key := range s.Keys() {
		src := s.Attribute(key)
		dst := mesh.NewListAttribute(src.Kind())
		for i := 0; i < src.Count(); i++ {
			v := src.Vec4(i)
			switch key.Semantic {
			case mesh.Position:
				v = vec.TransformPoint(m, v.XYZ()).Vec4()
			case mesh.Normal:
				v = vec.TransformNormal(normalMat, v.XYZ()).Vec4()
			case mesh.Tangent:
				d := vec.TransformDirection(m, v.XYZ()).Normalize()
				w := v.W
				if mirror {
					w = -w
				}
				v = vec.Vec4{X: d.X, Y: d.Y, Z: d.Z, W: w}
			}
			dst.AddVec4(v)
		}

		srcIdx := s.Indices(key)
		idx := make([]int, len(order))
		for i, p := range order {
			idx[i] = srcIdx[p]
		}
		out.SetAttribute(key, dst, idx)
	}
	for _, dc := range drawCalls {
		out.AddDrawCall(dc)
	}
	return out
}

func identityOrder(s *mesh.SeparatedIndexedMesh) ([]int, []mesh.DrawCall) {
	order := make([]int, s.IndexCount())
	for i := range order {
		order[i] = i
	}
	return order, s.DrawCalls()
}

// reversedOrder lists index-list positions with every face's last two
// corners swapped. Faces of strips and fans are written out as lists.
func reversedOrder(s *mesh.SeparatedIndexedMesh) ([]int, []mesh.DrawCall) {
	var order []int
	var drawCalls []mesh.DrawCall
	for _, dc := range s.DrawCalls() {
		start := len(order)
		topology := dc.Topology
		if topology.HasFaces() {
			for _, f := range dc.Faces() {
				order = append(order, f[0], f[2], f[1])
			}
			topology = mesh.Triangles
		} else {
			for p := dc.Start; p < dc.End(); p++ {
				order = append(order, p)
			}
		}
		drawCalls = append(drawCalls, mesh.DrawCall{
			Topology: topology,
			Start:    start,
			Count:    len(order) - start,
			Name:     dc.Name,
		})
	}
	return order, drawCalls
}
