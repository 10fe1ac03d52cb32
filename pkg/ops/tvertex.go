package ops

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/meshkit/pkg/mesh"
	"github.com/Faultbox/meshkit/pkg/spatial"
)

// DefaultTVertexEpsilon is the distance below which a vertex counts as
// lying on an edge, and the weld radius positions are normalised with.
const DefaultTVertexEpsilon = 1e-6

// faceRotations is how many times a face is rotated to test its other
// edges before it is emitted unchanged.
const faceRotations = 2

// TVertexOptions configures EliminateTVertices. Zero values select
// defaults.
type TVertexOptions struct {
	Epsilon    float64
	MaxEntries int
	// Weld holds the radii for attributes other than POSITION, which is
	// always welded at Epsilon. The zero value selects
	// mesh.DefaultContainerOptions.
	Weld   mesh.ContainerOptions
	Logger *zap.Logger
}

func (o TVertexOptions) withDefaults() TVertexOptions {
	if !(o.Epsilon > 0) {
		o.Epsilon = DefaultTVertexEpsilon
	}
	if o.MaxEntries == 0 {
		o.MaxEntries = mesh.DefaultMaxEntries
	}
	if o.Weld == (mesh.ContainerOptions{}) {
		o.Weld = mesh.DefaultContainerOptions()
	}
	o.Logger = logOrNop(o.Logger)
	return o
}

// TVertexReport summarises one run.
type TVertexReport struct {
	InputFaces      int
	OutputFaces     int
	Splits          int
	DegenerateEdges int
	InputPositions  int
	OutputPositions int
}

// EliminateTVertices splits triangles whose edges pass through a vertex they
// are not connected to, so adjacent faces share that vertex and the crack
// closes. Every attribute of the new vertex is interpolated along the edge.
//
// Only TRIANGLES draw calls are repaired; other draw calls are copied.
func EliminateTVertices(m mesh.Mesh, opts TVertexOptions) (*mesh.SeparatedIndexedMesh, TVertexReport, error) {
	opts = opts.withDefaults()
	var report TVertexReport

	if m.Attribute(mesh.KeyPosition) == nil {
		return nil, report, ErrNoPositions
	}

	weld := opts.Weld
	weld.PositionWeld = float32(opts.Epsilon)
	weld.MaxEntries = opts.MaxEntries

	src, err := mesh.ToSeparated(m, weld)
	if err != nil {
		return nil, report, err
	}

	out := src.CloneAttributes()
	positions := out.Attribute(mesh.KeyPosition)
	report.InputPositions = positions.Count()

	index, err := spatial.NewRTree(opts.MaxEntries)
	if err != nil {
		return nil, report, err
	}
	for i := 0; i < positions.Count(); i++ {
		index.Insert(spatial.PointBox(position(positions, i)))
	}

	r := &tvertexRun{
		out:       out,
		keys:      out.Keys(),
		positions: positions,
		index:     index,
		eps:       opts.Epsilon,
		posCol:    column(out.Keys(), mesh.KeyPosition),
		report:    &report,
	}

	for _, dc := range src.DrawCalls() {
		rows := mesh.NewStridedFromMesh(src, dc)
		start := out.IndexCount()

		if dc.Topology != mesh.Triangles {
			for v := 0; v < rows.Len(); v++ {
				out.AppendVertex(rows.Row(v))
			}
			out.AddDrawCall(mesh.DrawCall{Topology: dc.Topology, Start: start, Count: dc.Count, Name: dc.Name})
			continue
		}

		for _, f := range dc.Faces() {
			report.InputFaces++
			r.repair(rows, f[0]-dc.Start, f[1]-dc.Start, f[2]-dc.Start)
		}
		count := out.IndexCount() - start
		if count%3 != 0 {
			panic(fmt.Sprintf("ops: t-vertex repair produced %d indices for draw call %q", count, dc.Name))
		}
		report.OutputFaces += count / 3
		out.AddDrawCall(mesh.DrawCall{Topology: mesh.Triangles, Start: start, Count: count, Name: dc.Name})
	}

	report.OutputPositions = positions.Count()
	opts.Logger.Debug("t-vertex elimination",
		zap.Int("input_faces", report.InputFaces),
		zap.Int("output_faces", report.OutputFaces),
		zap.Int("splits", report.Splits),
		zap.Int("degenerate_edges", report.DegenerateEdges),
		zap.Int("positions", report.OutputPositions))

	return out, report, nil
}

type tvertexRun struct {
	out       *mesh.SeparatedIndexedMesh
	keys      []mesh.AttributeKey
	positions mesh.Attribute
	index     *spatial.RTree
	eps       float64
	posCol    int
	report    *TVertexReport
}

// pendingFace is a face awaiting repair: three rows of the draw call's
// strided table and the rotations it has left.
type pendingFace struct {
	a, b, c   int
	rotations int
}

// repair processes one face with an explicit stack. Pushing the second half
// of a split first keeps the emission order of a depth-first recursion.
func (r *tvertexRun) repair(rows *mesh.StridedIndexContainer, a, b, c int) {
	stack := []pendingFace{{a, b, c, faceRotations}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n, ok := r.split(rows, f.a, f.b, f.c); ok {
			r.report.Splits++
			stack = append(stack,
				pendingFace{n, f.b, f.c, faceRotations},
				pendingFace{f.a, n, f.c, faceRotations})
			continue
		}
		if f.rotations > 0 {
			stack = append(stack, pendingFace{f.b, f.c, f.a, f.rotations - 1})
			continue
		}
		r.out.AppendVertex(rows.Row(f.a))
		r.out.AppendVertex(rows.Row(f.b))
		r.out.AppendVertex(rows.Row(f.c))
	}
}

// split looks for a T-vertex on edge a->b. On success it adds the
// interpolated vertex to rows and returns its row.
func (r *tvertexRun) split(rows *mesh.StridedIndexContainer, a, b, c int) (int, bool) {
	ia := rows.Row(a).At(r.posCol)
	ib := rows.Row(b).At(r.posCol)
	ic := rows.Row(c).At(r.posCol)

	pa, pb := position(r.positions, ia), position(r.positions, ib)
	p0, p1 := toR3(pa), toR3(pb)
	ab := r3.Sub(p1, p0)
	len2 := r3.Norm2(ab)
	eps2 := r.eps * r.eps
	if len2 < eps2 {
		r.report.DegenerateEdges++
		return 0, false
	}

	bestT := math.Inf(1)
	best := -1
	query := spatial.NewBox(pa, pb).Expand(float32(r.eps))
	r.index.QueryFunc(query, func(i int) bool {
		if i == ia || i == ib || i == ic {
			return true
		}
		p := toR3(position(r.positions, i))
		t := r3.Dot(r3.Sub(p, p0), ab) / len2
		if t <= r.eps || t >= 1-r.eps {
			return true
		}
		onLine := r3.Add(p0, r3.Scale(t, ab))
		if r3.Norm2(r3.Sub(p, onLine)) > eps2 {
			return true
		}
		if t < bestT || (t == bestT && i < best) {
			bestT, best = t, i
		}
		return true
	})
	if best < 0 {
		return 0, false
	}

	rowA, rowB := rows.Row(a), rows.Row(b)
	row := make([]int, rows.Stride())
	for k, key := range r.keys {
		row[k] = r.out.Attribute(key).Lerp(rowA.At(k), rowB.At(k), float32(bestT))
	}
	return rows.Add(row), true
}
