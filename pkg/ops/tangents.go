package ops

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	vec "github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

// TangentOptions configures GenerateTangents. Zero values select defaults.
type TangentOptions struct {
	WeldRadius float32
	MaxEntries int
	Logger     *zap.Logger
}

// tangentEpsilon is the squared length below which a frame vector is
// treated as zero.
const tangentEpsilon = 1e-12

// GenerateTangents computes a TANGENT attribute from POSITION and
// TEXCOORD_0. Contributions are accumulated per vertex, where a vertex is a
// distinct (position, normal, texcoord) index triple, then made orthogonal
// to the vertex normal. W holds the handedness of the UV mapping.
//
// Faces with a degenerate UV mapping contribute nothing.
func GenerateTangents(m mesh.Mesh, opts TangentOptions) (*mesh.SeparatedIndexedMesh, error) {
	log := logOrNop(opts.Logger)
	if opts.WeldRadius <= 0 {
		opts.WeldRadius = mesh.DefaultContainerOptions().TangentWeld
	}
	if opts.MaxEntries == 0 {
		opts.MaxEntries = mesh.DefaultMaxEntries
	}

	for _, key := range []mesh.AttributeKey{mesh.KeyPosition, mesh.KeyTexCoord0} {
		if m.Attribute(key) == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingAttribute, key)
		}
	}

	weld := mesh.DefaultContainerOptions()
	weld.MaxEntries = opts.MaxEntries
	s, err := mesh.ToSeparated(m, weld)
	if err != nil {
		return nil, err
	}
	tangents, err := mesh.NewTangentContainer(opts.WeldRadius, opts.MaxEntries)
	if err != nil {
		return nil, err
	}

	pos := s.Attribute(mesh.KeyPosition)
	uv := s.Attribute(mesh.KeyTexCoord0)
	nrm := s.Attribute(mesh.KeyNormal)

	identity := []mesh.AttributeKey{mesh.KeyPosition, mesh.KeyTexCoord0}
	if nrm != nil {
		identity = append(identity, mesh.KeyNormal)
	}

	// Map every index-list position to a vertex.
	table := mesh.NewStridedIndexContainer(len(identity))
	vertexOf := make([]int, s.IndexCount())
	row := make([]int, len(identity))
	for p := range vertexOf {
		for k, key := range identity {
			row[k] = s.Indices(key)[p]
		}
		vertexOf[p] = table.Add(row)
	}

	n := table.Len()
	tan := make([]r3.Vec, n)
	bitan := make([]r3.Vec, n)
	faceNormal := make([]r3.Vec, n)
	skipped := 0

	posIdx := s.Indices(mesh.KeyPosition)
	uvIdx := s.Indices(mesh.KeyTexCoord0)
	for _, dc := range s.DrawCalls() {
		for _, f := range dc.Faces() {
			p0 := toR3(position(pos, posIdx[f[0]]))
			p1 := toR3(position(pos, posIdx[f[1]]))
			p2 := toR3(position(pos, posIdx[f[2]]))
			w0 := uv.Vec4(uvIdx[f[0]])
			w1 := uv.Vec4(uvIdx[f[1]])
			w2 := uv.Vec4(uvIdx[f[2]])

			e1, e2 := r3.Sub(p1, p0), r3.Sub(p2, p0)
			du1, dv1 := float64(w1.X-w0.X), float64(w1.Y-w0.Y)
			du2, dv2 := float64(w2.X-w0.X), float64(w2.Y-w0.Y)

			fn := r3.Cross(e1, e2)
			for _, corner := range f {
				v := vertexOf[corner]
				faceNormal[v] = r3.Add(faceNormal[v], fn)
			}

			denom := du1*dv2 - du2*dv1
			if denom == 0 {
				skipped++
				continue
			}
			r := 1 / denom
			t := r3.Scale(r, r3.Sub(r3.Scale(dv2, e1), r3.Scale(dv1, e2)))
			b := r3.Scale(r, r3.Sub(r3.Scale(du1, e2), r3.Scale(du2, e1)))
			for _, corner := range f {
				v := vertexOf[corner]
				tan[v] = r3.Add(tan[v], t)
				bitan[v] = r3.Add(bitan[v], b)
			}
		}
	}

	tangentOf := make([]int, n)
	for v := 0; v < n; v++ {
		var normal r3.Vec
		if nrm != nil {
			normal = toR3(nrm.Vec4(table.Row(v).At(2)).XYZ())
		} else {
			normal = faceNormal[v]
		}
		frame := orthogonalTangent(normal, tan[v], bitan[v])
		tangentOf[v] = tangents.Add(frame)
	}

	indices := make([]int, len(vertexOf))
	for p, v := range vertexOf {
		indices[p] = tangentOf[v]
	}
	s.SetAttribute(mesh.KeyTangent, tangents, indices)

	log.Debug("generated tangents",
		zap.Int("vertices", n),
		zap.Int("tangents", tangents.Count()),
		zap.Int("degenerate_uv_faces", skipped))
	return s, nil
}

// orthogonalTangent makes t orthogonal to n (Gram-Schmidt) and derives
// handedness from b. A zero tangent is replaced by an arbitrary vector
// perpendicular to n.
func orthogonalTangent(n, t, b r3.Vec) vec.Vec4 {
	if r3.Norm2(n) < tangentEpsilon {
		n = r3.Vec{Z: 1}
	} else {
		n = r3.Unit(n)
	}

	t = r3.Sub(t, r3.Scale(r3.Dot(n, t), n))
	if r3.Norm2(t) < tangentEpsilon {
		if math.Abs(n.X) < 0.9 {
			t = r3.Sub(r3.Vec{X: 1}, r3.Scale(n.X, n))
		} else {
			t = r3.Sub(r3.Vec{Y: 1}, r3.Scale(n.Y, n))
		}
	}
	t = r3.Unit(t)

	w := float32(1)
	if r3.Dot(r3.Cross(n, t), b) < 0 {
		w = -1
	}
	dir := fromR3(t)
	return vec.Vec4{X: dir.X, Y: dir.Y, Z: dir.Z, W: w}
}
