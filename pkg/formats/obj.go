package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/meshkit/pkg/encoding"
	vec "github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

var (
	ErrMalformedOBJ    = errors.New("malformed OBJ data")
	ErrInvalidOBJIndex = errors.New("invalid OBJ index")
)

// objCorner is one f/l/p reference; -1 marks an absent texcoord or normal.
type objCorner struct {
	v, vt, vn int
}

type objReader struct {
	opts Options

	positions []vec.Vec3
	colors    []vec.Vec4 // parallel to positions when any vertex has a color
	hasColor  bool
	texcoords []vec.Vec2
	normals   []vec.Vec3

	corners   []objCorner
	drawCalls []mesh.DrawCall
	name      string
	line      int
}

// ReadOBJ parses Wavefront OBJ text. Polygons are fan-triangulated, l
// records become LINES and p records POINTS. Every o, g or usemtl starts a
// new draw call named after it. Vertex colors given as "v x y z r g b"
// become COLOR_0.
func ReadOBJ(r io.Reader, opts Options) (*mesh.SeparatedIndexedMesh, error) {
	p := &objReader{opts: opts}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		p.line++
		if err := p.parseLine(sc.Bytes()); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return p.build(), nil
}

func (p *objReader) parseLine(raw []byte) error {
	if i := strings.IndexByte(string(raw), '#'); i >= 0 {
		raw = raw[:i]
	}
	fields := strings.Fields(string(raw))
	if len(fields) == 0 {
		return nil
	}
	args := fields[1:]

	switch fields[0] {
	case "v":
		f, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		p.positions = append(p.positions, vec.Vec3{X: f[0], Y: f[1], Z: f[2]})
		color := vec.Vec4{X: 1, Y: 1, Z: 1, W: 1}
		if len(f) >= 6 {
			color = vec.Vec4{X: f[3], Y: f[4], Z: f[5], W: 1}
			p.hasColor = true
		}
		p.colors = append(p.colors, color)
	case "vt":
		f, err := parseFloats(args, 1)
		if err != nil {
			return err
		}
		uv := vec.Vec2{X: f[0]}
		if len(f) > 1 {
			uv.Y = f[1]
		}
		p.texcoords = append(p.texcoords, uv)
	case "vn":
		f, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		p.normals = append(p.normals, vec.Vec3{X: f[0], Y: f[1], Z: f[2]})
	case "f":
		return p.parseElement(mesh.Triangles, args, 3)
	case "l":
		return p.parseElement(mesh.Lines, args, 2)
	case "p":
		return p.parseElement(mesh.Points, args, 1)
	case "o", "g", "usemtl":
		rest := strings.TrimSpace(string(raw))[len(fields[0]):]
		p.name = encoding.DecodeName([]byte(strings.TrimSpace(rest)), p.opts.NameEncoding)
	}
	// Other statements (mtllib, s, ...) carry nothing the mesh keeps.
	return nil
}

func (p *objReader) parseElement(topology mesh.Topology, args []string, minCorners int) error {
	if len(args) < minCorners {
		return fmt.Errorf("%w: %d vertices in element", ErrMalformedOBJ, len(args))
	}
	refs := make([]objCorner, len(args))
	for i, a := range args {
		c, err := p.parseCorner(a)
		if err != nil {
			return err
		}
		refs[i] = c
	}

	dc := p.current(topology)
	switch topology {
	case mesh.Triangles:
		for i := 2; i < len(refs); i++ {
			p.corners = append(p.corners, refs[0], refs[i-1], refs[i])
		}
	case mesh.Lines:
		for i := 1; i < len(refs); i++ {
			p.corners = append(p.corners, refs[i-1], refs[i])
		}
	default:
		p.corners = append(p.corners, refs...)
	}
	dc.Count = len(p.corners) - dc.Start
	return nil
}

// current returns the draw call new corners go to, opening one if the
// topology or name changed.
func (p *objReader) current(topology mesh.Topology) *mesh.DrawCall {
	if n := len(p.drawCalls); n > 0 {
		last := &p.drawCalls[n-1]
		if last.Topology == topology && last.Name == p.name {
			return last
		}
	}
	p.drawCalls = append(p.drawCalls, mesh.DrawCall{Topology: topology, Start: len(p.corners), Name: p.name})
	return &p.drawCalls[len(p.drawCalls)-1]
}

func (p *objReader) parseCorner(s string) (objCorner, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return objCorner{}, fmt.Errorf("%w: %q", ErrMalformedOBJ, s)
	}
	c := objCorner{vt: -1, vn: -1}
	var err error
	if c.v, err = resolveIndex(parts[0], len(p.positions)); err != nil {
		return c, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.vt, err = resolveIndex(parts[1], len(p.texcoords)); err != nil {
			return c, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.vn, err = resolveIndex(parts[2], len(p.normals)); err != nil {
			return c, err
		}
	}
	return c, nil
}

// resolveIndex converts a 1-based or negative (relative) OBJ index to a
// 0-based one.
func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedOBJ, s)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	}
	return 0, fmt.Errorf("%w: %d with %d values", ErrInvalidOBJIndex, i, count)
}

func parseFloats(args []string, min int) ([]float32, error) {
	if len(args) < min {
		return nil, fmt.Errorf("%w: %d components, want %d", ErrMalformedOBJ, len(args), min)
	}
	out := make([]float32, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedOBJ, a)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func (p *objReader) build() *mesh.SeparatedIndexedMesh {
	s := mesh.NewSeparatedIndexedMesh()
	n := len(p.corners)

	pos := mesh.NewListContainer[vec.Vec3]()
	for _, v := range p.positions {
		pos.Add(v)
	}
	posIdx := make([]int, n)
	for i, c := range p.corners {
		posIdx[i] = c.v
	}
	s.SetAttribute(mesh.KeyPosition, pos, posIdx)

	if p.hasColor {
		col := mesh.NewListContainer[vec.Vec4]()
		for _, v := range p.colors {
			col.Add(v)
		}
		s.SetAttribute(mesh.KeyColor0, col, append([]int(nil), posIdx...))
	}

	if uses(p.corners, func(c objCorner) int { return c.vt }) {
		uv := mesh.NewListContainer[vec.Vec2]()
		for _, v := range p.texcoords {
			uv.Add(v)
		}
		idx := fillMissing(p.corners, func(c objCorner) int { return c.vt }, func() int { return uv.Add(vec.Vec2{}) })
		s.SetAttribute(mesh.KeyTexCoord0, uv, idx)
	}

	if uses(p.corners, func(c objCorner) int { return c.vn }) {
		nrm := mesh.NewListContainer[vec.Vec3]()
		for _, v := range p.normals {
			nrm.Add(v)
		}
		idx := fillMissing(p.corners, func(c objCorner) int { return c.vn }, func() int { return nrm.Add(vec.Vec3{}) })
		s.SetAttribute(mesh.KeyNormal, nrm, idx)
	}

	for _, dc := range p.drawCalls {
		s.AddDrawCall(dc)
	}
	return s
}

func uses(corners []objCorner, field func(objCorner) int) bool {
	for _, c := range corners {
		if field(c) >= 0 {
			return true
		}
	}
	return false
}

// fillMissing returns the index list for field, pointing corners without a
// reference at a single default value added on first need.
func fillMissing(corners []objCorner, field func(objCorner) int, addDefault func() int) []int {
	idx := make([]int, len(corners))
	def := -1
	for i, c := range corners {
		v := field(c)
		if v < 0 {
			if def < 0 {
				def = addDefault()
			}
			v = def
		}
		idx[i] = v
	}
	return idx
}

// WriteOBJ writes m as OBJ text. Values are written once per attribute and
// referenced per corner, so welded meshes stay welded.
func WriteOBJ(w io.Writer, m mesh.Mesh) error {
	pos := m.Attribute(mesh.KeyPosition)
	if pos == nil {
		return fmt.Errorf("%w: no POSITION attribute", ErrMalformedOBJ)
	}
	uv := m.Attribute(mesh.KeyTexCoord0)
	nrm := m.Attribute(mesh.KeyNormal)

	bw := bufio.NewWriter(w)
	for i := 0; i < pos.Count(); i++ {
		v := pos.Vec4(i)
		fmt.Fprintf(bw, "v %s %s %s\n", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
	}
	if uv != nil {
		for i := 0; i < uv.Count(); i++ {
			v := uv.Vec4(i)
			fmt.Fprintf(bw, "vt %s %s\n", formatFloat(v.X), formatFloat(v.Y))
		}
	}
	if nrm != nil {
		for i := 0; i < nrm.Count(); i++ {
			v := nrm.Vec4(i)
			fmt.Fprintf(bw, "vn %s %s %s\n", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
		}
	}

	posIdx := m.Indices(mesh.KeyPosition)
	var uvIdx, nrmIdx []int
	if uv != nil {
		uvIdx = m.Indices(mesh.KeyTexCoord0)
	}
	if nrm != nil {
		nrmIdx = m.Indices(mesh.KeyNormal)
	}
	corner := func(p int) string {
		s := strconv.Itoa(posIdx[p] + 1)
		switch {
		case uvIdx != nil && nrmIdx != nil:
			s += "/" + strconv.Itoa(uvIdx[p]+1) + "/" + strconv.Itoa(nrmIdx[p]+1)
		case uvIdx != nil:
			s += "/" + strconv.Itoa(uvIdx[p]+1)
		case nrmIdx != nil:
			s += "//" + strconv.Itoa(nrmIdx[p]+1)
		}
		return s
	}

	name := ""
	for _, dc := range m.DrawCalls() {
		if dc.Name != name {
			fmt.Fprintf(bw, "g %s\n", dc.Name)
			name = dc.Name
		}
		switch dc.Topology {
		case mesh.Points:
			for p := dc.Start; p < dc.End(); p++ {
				fmt.Fprintf(bw, "p %s\n", corner(p))
			}
		case mesh.Lines:
			for p := dc.Start; p+1 < dc.End(); p += 2 {
				fmt.Fprintf(bw, "l %s %s\n", corner(p), corner(p+1))
			}
		case mesh.LineStrip, mesh.LineLoop:
			if dc.Count < 2 {
				continue
			}
			refs := make([]string, 0, dc.Count+1)
			for p := dc.Start; p < dc.End(); p++ {
				refs = append(refs, corner(p))
			}
			if dc.Topology == mesh.LineLoop {
				refs = append(refs, corner(dc.Start))
			}
			fmt.Fprintf(bw, "l %s\n", strings.Join(refs, " "))
		default:
			for _, f := range dc.Faces() {
				fmt.Fprintf(bw, "f %s %s %s\n", corner(f[0]), corner(f[1]), corner(f[2]))
			}
		}
	}
	return bw.Flush()
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
