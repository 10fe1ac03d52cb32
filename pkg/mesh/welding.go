package mesh

import (
	"errors"
	"fmt"

	vec "github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/spatial"
)

// ErrWeldRadius is returned when a welding container is given a radius that
// is not positive.
var ErrWeldRadius = errors.New("weld radius must be positive")

// Weldable values have a position in space the welding containers index.
type Weldable[T any] interface {
	Element[T]
	Point() vec.Vec3
}

// WeldingContainer merges values that lie within a radius of a value it
// already holds. A later value always resolves to the earlier index, so the
// result depends on insertion order but is otherwise deterministic.
//
// Each stored value owns a box of half-extent radius/2 in an R-tree; the
// tree index and the value index are the same number.
type WeldingContainer[T Weldable[T]] struct {
	radius float32
	values []T
	index  *spatial.RTree
}

// NewWeldingContainer returns an empty container welding within radius.
func NewWeldingContainer[T Weldable[T]](radius float32, maxEntries int) (*WeldingContainer[T], error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("%w: %g", ErrWeldRadius, radius)
	}
	index, err := spatial.NewRTree(maxEntries)
	if err != nil {
		return nil, err
	}
	return &WeldingContainer[T]{radius: radius, index: index}, nil
}

// Radius returns the weld radius.
func (c *WeldingContainer[T]) Radius() float32 { return c.radius }

// Add returns the index of the lowest-indexed stored value within the weld
// radius of v, or stores v and returns its new index.
func (c *WeldingContainer[T]) Add(v T) int {
	p := v.Point()
	if i := c.find(p); i >= 0 {
		return i
	}
	i := c.index.Insert(spatial.Around(p, c.radius/2))
	if i != len(c.values) {
		panic(fmt.Sprintf("mesh: weld index %d out of step with %d values", i, len(c.values)))
	}
	c.values = append(c.values, v)
	return i
}

// Find returns the index Add would weld v to, or -1.
func (c *WeldingContainer[T]) Find(v T) int {
	return c.find(v.Point())
}

func (c *WeldingContainer[T]) find(p vec.Vec3) int {
	r2 := c.radius * c.radius
	best := -1
	c.index.QueryFunc(spatial.Around(p, c.radius/2), func(i int) bool {
		if c.values[i].Point().Sub(p).LengthSquared() <= r2 && (best < 0 || i < best) {
			best = i
		}
		return true
	})
	return best
}

func (c *WeldingContainer[T]) At(i int) T          { return c.values[i] }
func (c *WeldingContainer[T]) Kind() ElementKind   { return kindOf[T]() }
func (c *WeldingContainer[T]) Count() int          { return len(c.values) }
func (c *WeldingContainer[T]) Vec4(i int) vec.Vec4 { return c.values[i].Vec4() }

func (c *WeldingContainer[T]) AddVec4(v vec.Vec4) int {
	return c.Add(fromVec4[T](v))
}

func (c *WeldingContainer[T]) Lerp(from, to int, t float32) int {
	return c.Add(c.values[from].Lerp(c.values[to], t))
}

func (c *WeldingContainer[T]) Clone() Attribute {
	return &WeldingContainer[T]{
		radius: c.radius,
		values: append([]T(nil), c.values...),
		index:  c.index.Clone(),
	}
}

// tangentSlot is one spatial neighbourhood of tangent directions. It holds
// at most one stored tangent per handedness; -1 marks an empty side.
type tangentSlot struct {
	dir      vec.Vec3
	pos, neg int
}

// TangentContainer welds tangents by direction, keeping positive and
// negative handedness apart. The xyz of the first tangent that lands in a
// neighbourhood defines it.
type TangentContainer struct {
	radius float32
	values []vec.Vec4
	slots  []tangentSlot
	index  *spatial.RTree
}

// NewTangentContainer returns an empty container welding tangent
// directions within radius.
func NewTangentContainer(radius float32, maxEntries int) (*TangentContainer, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("%w: %g", ErrWeldRadius, radius)
	}
	index, err := spatial.NewRTree(maxEntries)
	if err != nil {
		return nil, err
	}
	return &TangentContainer{radius: radius, index: index}, nil
}

// Add returns the index of the stored tangent sharing v's neighbourhood
// and handedness, storing v if there is none.
func (c *TangentContainer) Add(v vec.Vec4) int {
	dir := v.XYZ()
	slot := c.findSlot(dir)
	if slot < 0 {
		slot = c.index.Insert(spatial.Around(dir, c.radius/2))
		if slot != len(c.slots) {
			panic(fmt.Sprintf("mesh: tangent slot %d out of step with %d slots", slot, len(c.slots)))
		}
		c.slots = append(c.slots, tangentSlot{dir: dir, pos: -1, neg: -1})
	}

	ref := &c.slots[slot].pos
	if v.Handedness() < 0 {
		ref = &c.slots[slot].neg
	}
	if *ref < 0 {
		*ref = len(c.values)
		c.values = append(c.values, v)
	}
	return *ref
}

func (c *TangentContainer) findSlot(dir vec.Vec3) int {
	r2 := c.radius * c.radius
	best := -1
	c.index.QueryFunc(spatial.Around(dir, c.radius/2), func(i int) bool {
		if c.slots[i].dir.Sub(dir).LengthSquared() <= r2 && (best < 0 || i < best) {
			best = i
		}
		return true
	})
	return best
}

// Slots returns the number of distinct tangent directions.
func (c *TangentContainer) Slots() int { return len(c.slots) }

func (c *TangentContainer) At(i int) vec.Vec4      { return c.values[i] }
func (c *TangentContainer) Kind() ElementKind      { return KindVec4 }
func (c *TangentContainer) Count() int             { return len(c.values) }
func (c *TangentContainer) Vec4(i int) vec.Vec4    { return c.values[i] }
func (c *TangentContainer) AddVec4(v vec.Vec4) int { return c.Add(v) }

// Lerp interpolates direction and renormalises it. Handedness follows the
// sign of the interpolated w.
func (c *TangentContainer) Lerp(from, to int, t float32) int {
	a, b := c.values[from], c.values[to]
	dir := a.XYZ().Lerp(b.XYZ(), t).Normalize()
	w := float32(1)
	if a.W+(b.W-a.W)*t < 0 {
		w = -1
	}
	return c.Add(vec.Vec4{X: dir.X, Y: dir.Y, Z: dir.Z, W: w})
}

func (c *TangentContainer) Clone() Attribute {
	return &TangentContainer{
		radius: c.radius,
		values: append([]vec.Vec4(nil), c.values...),
		slots:  append([]tangentSlot(nil), c.slots...),
		index:  c.index.Clone(),
	}
}
