package mesh

import (
	vec "github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/spatial"
)

// DefaultMaxEntries is the R-tree fan-out used when none is configured.
const DefaultMaxEntries = 8

// ContainerOptions selects weld radii per semantic. A radius of zero turns
// spatial welding off for that semantic and exact deduplication is used
// instead.
type ContainerOptions struct {
	PositionWeld float32
	NormalWeld   float32
	TexCoordWeld float32
	TangentWeld  float32
	MaxEntries   int
}

// DefaultContainerOptions returns the radii used for normalising meshes.
func DefaultContainerOptions() ContainerOptions {
	return ContainerOptions{
		PositionWeld: 1e-6,
		NormalWeld:   0.001,
		TexCoordWeld: 1e-5,
		TangentWeld:  0.001,
		MaxEntries:   DefaultMaxEntries,
	}
}

// WeldRadius returns the radius configured for key's semantic.
func (o ContainerOptions) WeldRadius(key AttributeKey) float32 {
	switch key.Semantic {
	case Position:
		return o.PositionWeld
	case Normal:
		return o.NormalWeld
	case TexCoord:
		return o.TexCoordWeld
	case Tangent:
		return o.TangentWeld
	}
	return 0
}

func (o ContainerOptions) maxEntries() int {
	if o.MaxEntries < spatial.MinMaxEntries {
		return DefaultMaxEntries
	}
	return o.MaxEntries
}

// NewContainer picks the storage strategy for key once:
//   - TANGENT with a radius: TangentContainer
//   - Vec2 or Vec3 with a radius: WeldingContainer
//   - anything else: HashContainer
func NewContainer(key AttributeKey, opts ContainerOptions) (Attribute, error) {
	radius := opts.WeldRadius(key)
	if radius < 0 {
		return nil, ErrWeldRadius
	}
	welded := radius > 0

	if welded {
		var (
			a   Attribute
			err error
		)
		switch {
		case key.Semantic == Tangent:
			a, err = asAttribute[*TangentContainer](NewTangentContainer(radius, opts.maxEntries()))
		case key.Kind() == KindVec3:
			a, err = asAttribute[*WeldingContainer[vec.Vec3]](NewWeldingContainer[vec.Vec3](radius, opts.maxEntries()))
		case key.Kind() == KindVec2:
			a, err = asAttribute[*WeldingContainer[vec.Vec2]](NewWeldingContainer[vec.Vec2](radius, opts.maxEntries()))
		}
		if a != nil || err != nil {
			return a, err
		}
	}

	switch key.Kind() {
	case KindScalar:
		return NewHashContainer[vec.Scalar](), nil
	case KindVec2:
		return NewHashContainer[vec.Vec2](), nil
	case KindVec3:
		return NewHashContainer[vec.Vec3](), nil
	default:
		return NewHashContainer[vec.Vec4](), nil
	}
}

// asAttribute keeps a failed constructor from yielding a non-nil interface
// holding a nil pointer.
func asAttribute[A Attribute](a A, err error) (Attribute, error) {
	if err != nil {
		return nil, err
	}
	return a, nil
}
