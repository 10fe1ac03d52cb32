package mesh

import (
	"fmt"
	"strings"
)

// Topology is how a draw call's index range forms primitives.
type Topology int

const (
	Points Topology = iota
	Lines
	LineLoop
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
)

var topologyNames = [...]string{
	Points:        "POINTS",
	Lines:         "LINES",
	LineLoop:      "LINE_LOOP",
	LineStrip:     "LINE_STRIP",
	Triangles:     "TRIANGLES",
	TriangleStrip: "TRIANGLE_STRIP",
	TriangleFan:   "TRIANGLE_FAN",
}

func (t Topology) String() string {
	if t >= 0 && int(t) < len(topologyNames) {
		return topologyNames[t]
	}
	return fmt.Sprintf("Topology(%d)", int(t))
}

// ParseTopology is the inverse of Topology.String. It ignores case.
func ParseTopology(s string) (Topology, error) {
	for i, name := range topologyNames {
		if strings.EqualFold(name, s) {
			return Topology(i), nil
		}
	}
	return 0, fmt.Errorf("unknown topology %q", s)
}

// HasFaces reports whether the topology produces triangles.
func (t Topology) HasFaces() bool {
	return t == Triangles || t == TriangleStrip || t == TriangleFan
}

// DrawCall is a run of Count index-list positions starting at Start.
type DrawCall struct {
	Topology Topology
	Start    int
	Count    int
	Name     string
}

// End returns the position one past the last index of the call.
func (dc DrawCall) End() int {
	return dc.Start + dc.Count
}

// Face holds three positions into the index lists of a mesh, not attribute
// value indices.
type Face [3]int

// Faces enumerates the triangles of a list, strip or fan. Strips alternate
// winding so every face keeps the orientation of the first. Other
// topologies have no faces.
func (dc DrawCall) Faces() []Face {
	var faces []Face
	switch dc.Topology {
	case Triangles:
		for i := 0; i+2 < dc.Count; i += 3 {
			p := dc.Start + i
			faces = append(faces, Face{p, p + 1, p + 2})
		}
	case TriangleStrip:
		for i := 0; i+2 < dc.Count; i++ {
			p := dc.Start + i
			if i%2 == 0 {
				faces = append(faces, Face{p, p + 1, p + 2})
			} else {
				faces = append(faces, Face{p + 1, p, p + 2})
			}
		}
	case TriangleFan:
		for i := 1; i+1 < dc.Count; i++ {
			faces = append(faces, Face{dc.Start, dc.Start + i, dc.Start + i + 1})
		}
	}
	return faces
}
