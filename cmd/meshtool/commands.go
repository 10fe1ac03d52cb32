package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshkit/internal/config"
	"github.com/Faultbox/meshkit/internal/logger"
	"github.com/Faultbox/meshkit/pkg/formats"
	vec "github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/mesh"
	"github.com/Faultbox/meshkit/pkg/ops"
	"github.com/Faultbox/meshkit/pkg/sdfmesh"
	"github.com/Faultbox/meshkit/pkg/spatial"
)

var errUsage = errors.New("bad usage")

// env carries what every command needs once its flags are parsed.
type env struct {
	name   string
	stdout io.Writer
	stderr io.Writer

	fs     *flag.FlagSet
	flags  *config.Flags
	output *string
	cfg    *config.Config
}

// flagSet returns a flag set with the common flags bound. Commands add
// their own flags before calling parse.
func (e *env) flagSet() *flag.FlagSet {
	e.fs = flag.NewFlagSet(e.name, flag.ContinueOnError)
	e.fs.SetOutput(e.stderr)
	e.flags = config.BindFlags(e.fs)
	e.output = e.fs.String("o", "", "Output file")
	return e.fs
}

// parse parses args, loads the config and starts logging.
func (e *env) parse(args []string, minArgs int, usage string) error {
	if e.fs == nil {
		e.flagSet()
	}
	if err := e.fs.Parse(args); err != nil {
		return err
	}
	if e.fs.NArg() < minArgs {
		return fmt.Errorf("%w: meshtool %s", errUsage, usage)
	}

	cfg, err := config.Load(e.flags)
	if err != nil {
		return err
	}
	e.cfg = cfg
	return logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
}

func (e *env) close() {
	logger.Sync()
	logger.Nop()
}

func (e *env) load(path string) (mesh.Mesh, error) {
	m, err := formats.Load(path, formats.Options{NameEncoding: e.cfg.Formats.ObjNameEncoding})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	logger.Debug("loaded mesh", zap.String("path", path), zap.Int("attributes", len(m.Keys())))
	return m, nil
}

func (e *env) save(m mesh.Mesh) error {
	if *e.output == "" {
		return fmt.Errorf("%w: -o is required", errUsage)
	}
	if err := formats.Save(*e.output, m); err != nil {
		return fmt.Errorf("saving %s: %w", *e.output, err)
	}
	logger.Info("wrote mesh", zap.String("path", *e.output))
	return nil
}

func cmdInfo(e *env, args []string) error {
	if err := e.parse(args, 1, "info <mesh>"); err != nil {
		return err
	}
	m, err := e.load(e.fs.Arg(0))
	if err != nil {
		return err
	}

	w := e.stdout
	fmt.Fprintf(w, "Mesh:       %s\n", e.fs.Arg(0))
	switch mm := m.(type) {
	case *mesh.IndexedMesh:
		fmt.Fprintf(w, "Layout:     indexed (%d vertices)\n", mm.VertexCount())
	case *mesh.SeparatedIndexedMesh:
		fmt.Fprintf(w, "Layout:     separated (%d corners)\n", mm.IndexCount())
	}

	fmt.Fprintln(w, "Attributes:")
	for _, key := range m.Keys() {
		a := m.Attribute(key)
		fmt.Fprintf(w, "  %-12s %-6s %d values\n", key, a.Kind(), a.Count())
	}

	fmt.Fprintln(w, "Draw calls:")
	faces := 0
	for _, dc := range m.DrawCalls() {
		n := len(dc.Faces())
		faces += n
		name := dc.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(w, "  %-16s %-14s [%d,%d) %d faces\n", name, dc.Topology, dc.Start, dc.End(), n)
	}
	fmt.Fprintf(w, "Faces:      %d\n", faces)

	if pos := m.Attribute(mesh.KeyPosition); pos != nil && pos.Count() > 0 {
		bounds := spatial.Empty
		for i := 0; i < pos.Count(); i++ {
			bounds = bounds.Extend(pos.Vec4(i).XYZ())
		}
		fmt.Fprintf(w, "Bounds:     %s\n", bounds)
	}
	return nil
}

func cmdWeld(e *env, args []string) error {
	if err := e.parse(args, 1, "weld -o <out> <mesh>"); err != nil {
		return err
	}
	m, err := e.load(e.fs.Arg(0))
	if err != nil {
		return err
	}

	out, report, err := ops.Weld(m, ops.WeldOptions{
		Containers: e.cfg.ContainerOptions(),
		Logger:     logger.Named("weld"),
	})
	if err != nil {
		return err
	}
	for _, key := range out.Keys() {
		fmt.Fprintf(e.stdout, "%-12s %d -> %d\n", key, report.Before[key], report.After[key])
	}
	return e.save(out)
}

func cmdTVertex(e *env, args []string) error {
	if err := e.parse(args, 1, "tvertex -o <out> <mesh>"); err != nil {
		return err
	}
	m, err := e.load(e.fs.Arg(0))
	if err != nil {
		return err
	}

	out, report, err := ops.EliminateTVertices(m, ops.TVertexOptions{
		Epsilon:    e.cfg.TVertex.Epsilon,
		MaxEntries: e.cfg.Index.MaxEntries,
		Weld:       e.cfg.ContainerOptions(),
		Logger:     logger.Named("tvertex"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Faces:      %d -> %d\n", report.InputFaces, report.OutputFaces)
	fmt.Fprintf(e.stdout, "Positions:  %d -> %d\n", report.InputPositions, report.OutputPositions)
	fmt.Fprintf(e.stdout, "Splits:     %d\n", report.Splits)
	if report.DegenerateEdges > 0 {
		fmt.Fprintf(e.stdout, "Degenerate: %d edges skipped\n", report.DegenerateEdges)
	}
	return e.save(out)
}

func cmdTangents(e *env, args []string) error {
	if err := e.parse(args, 1, "tangents -o <out> <mesh>"); err != nil {
		return err
	}
	m, err := e.load(e.fs.Arg(0))
	if err != nil {
		return err
	}

	out, err := ops.GenerateTangents(m, ops.TangentOptions{
		WeldRadius: e.cfg.Weld.Tangent,
		MaxEntries: e.cfg.Index.MaxEntries,
		Logger:     logger.Named("tangents"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Tangents:   %d\n", out.Attribute(mesh.KeyTangent).Count())
	return e.save(out)
}

func cmdTransform(e *env, args []string) error {
	fs := e.flagSet()
	translate := fs.String("t", "0,0,0", "Translation x,y,z")
	rotate := fs.String("r", "0,0,0", "Euler rotation in degrees x,y,z")
	scale := fs.String("s", "1,1,1", "Scale x,y,z")
	if err := e.parse(args, 1, "transform -o <out> [-t|-r|-s x,y,z] <mesh>"); err != nil {
		return err
	}

	var t, r, s vec.Vec3
	for _, p := range []struct {
		dst  *vec.Vec3
		src  string
		name string
	}{{&t, *translate, "-t"}, {&r, *rotate, "-r"}, {&s, *scale, "-s"}} {
		v, err := parseVec3(p.src)
		if err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		*p.dst = v
	}

	m, err := e.load(e.fs.Arg(0))
	if err != nil {
		return err
	}
	sep, err := mesh.ToSeparated(m, e.cfg.ContainerOptions())
	if err != nil {
		return err
	}
	matrix := vec.Compose(t, r, s)
	logger.Debug("transform", zap.Any("matrix", matrix), zap.Float32("det", vec.Determinant3(matrix)))
	return e.save(ops.Transform(sep, matrix))
}

func cmdConvert(e *env, args []string) error {
	if err := e.parse(args, 2, "convert <in> <out>"); err != nil {
		return err
	}
	m, err := e.load(e.fs.Arg(0))
	if err != nil {
		return err
	}
	*e.output = e.fs.Arg(1)
	return e.save(m)
}

func cmdSample(e *env, args []string) error {
	fs := e.flagSet()
	cells := fs.Int("cells", 32, "Marching cubes cells along the longest axis")
	size := fs.String("size", "1,1,1", "Box size x,y,z")
	radius := fs.Float64("radius", 0.25, "Cylinder or hole radius")
	height := fs.Float64("height", 1, "Cylinder height")
	if err := e.parse(args, 1, "sample -o <out> <box|cylinder|hole>"); err != nil {
		return err
	}

	boxSize, err := parseVec3(*size)
	if err != nil {
		return fmt.Errorf("-size: %w", err)
	}

	var m *mesh.IndexedMesh
	switch shape := e.fs.Arg(0); shape {
	case "box":
		m, err = sdfmesh.Box(boxSize, *cells)
	case "cylinder":
		m, err = sdfmesh.Cylinder(*height, *radius, *cells)
	case "hole":
		m, err = sdfmesh.BoxWithHole(boxSize, *radius, *cells)
	default:
		return fmt.Errorf("%w: unknown shape %q", errUsage, shape)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Triangles:  %d\n", len(m.SharedIndices())/3)
	return e.save(m)
}

func cmdConfig(e *env, args []string) error {
	save := e.flagSet().Bool("save", false, "Write the config to the user config directory")
	if err := e.parse(args, 0, "config [-save] [-o <path>]"); err != nil {
		return err
	}

	switch {
	case *e.output != "":
		if err := e.cfg.SaveTo(*e.output); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Saved %s\n", *e.output)
	case *save:
		path, err := e.cfg.Save()
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Saved %s\n", path)
	default:
		data, err := yaml.Marshal(e.cfg)
		if err != nil {
			return err
		}
		_, err = e.stdout.Write(data)
		return err
	}
	return nil
}

// parseVec3 parses "x,y,z".
func parseVec3(s string) (vec.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vec.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var f [3]float32
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return vec.Vec3{}, err
		}
		f[i] = float32(v)
	}
	return vec.Vec3{X: f[0], Y: f[1], Z: f[2]}, nil
}
