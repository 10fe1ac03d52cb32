// Package ops implements mesh operators: T-vertex elimination, tangent
// generation, welding and affine transforms.
package ops

import (
	"errors"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	vec "github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

var (
	// ErrNoPositions is returned when a mesh has no POSITION attribute.
	ErrNoPositions = errors.New("mesh has no POSITION attribute")
	// ErrMissingAttribute is returned when an operator needs an attribute
	// the mesh lacks.
	ErrMissingAttribute = errors.New("missing attribute")
)

func logOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func toR3(v vec.Vec3) r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

func fromR3(v r3.Vec) vec.Vec3 {
	return vec.Vec3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

func position(a mesh.Attribute, i int) vec.Vec3 {
	return a.Vec4(i).XYZ()
}

// column returns the position of key in keys, or -1.
func column(keys []mesh.AttributeKey, key mesh.AttributeKey) int {
	for k, kk := range keys {
		if kk == key {
			return k
		}
	}
	return -1
}
