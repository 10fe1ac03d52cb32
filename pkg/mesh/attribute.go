package mesh

import (
	"fmt"

	vec "github.com/Faultbox/meshkit/pkg/math"
)

// Attribute is an indexed store of attribute values.
//
// Values are widened to Vec4 at this boundary so operators can work on any
// attribute without knowing its element type. Indices returned by AddVec4
// and Lerp are stable: the store is append-only.
type Attribute interface {
	Kind() ElementKind
	Count() int
	Vec4(i int) vec.Vec4

	// AddVec4 stores v narrowed to the attribute's kind and returns its
	// index, which may be that of an existing equal or nearby value.
	AddVec4(v vec.Vec4) int

	// Lerp stores the value interpolated between the values at from and to
	// and returns its index. It goes through the same path as AddVec4.
	Lerp(from, to int, t float32) int

	Clone() Attribute
}

// Element is the set of value types attributes can hold.
type Element[T any] interface {
	comparable
	Lerp(other T, t float32) T
	Vec4() vec.Vec4
}

func fromVec4[T Element[T]](v vec.Vec4) T {
	var out T
	switch p := any(&out).(type) {
	case *vec.Scalar:
		*p = vec.Scalar(v.X)
	case *vec.Vec2:
		*p = v.XY()
	case *vec.Vec3:
		*p = v.XYZ()
	case *vec.Vec4:
		*p = v
	default:
		panic(fmt.Sprintf("mesh: unsupported element type %T", out))
	}
	return out
}

func kindOf[T Element[T]]() ElementKind {
	var zero T
	switch any(zero).(type) {
	case vec.Scalar:
		return KindScalar
	case vec.Vec2:
		return KindVec2
	case vec.Vec3:
		return KindVec3
	case vec.Vec4:
		return KindVec4
	default:
		panic(fmt.Sprintf("mesh: unsupported element type %T", zero))
	}
}

// ListContainer stores values in insertion order without deduplication.
// Readers use it to keep source data exactly as read.
type ListContainer[T Element[T]] struct {
	values []T
}

// NewListContainer returns an empty list container.
func NewListContainer[T Element[T]]() *ListContainer[T] {
	return &ListContainer[T]{}
}

// NewListAttribute returns an empty list container for kind.
func NewListAttribute(kind ElementKind) Attribute {
	switch kind {
	case KindScalar:
		return NewListContainer[vec.Scalar]()
	case KindVec2:
		return NewListContainer[vec.Vec2]()
	case KindVec3:
		return NewListContainer[vec.Vec3]()
	default:
		return NewListContainer[vec.Vec4]()
	}
}

func (c *ListContainer[T]) Add(v T) int {
	c.values = append(c.values, v)
	return len(c.values) - 1
}

func (c *ListContainer[T]) At(i int) T          { return c.values[i] }
func (c *ListContainer[T]) Values() []T         { return c.values }
func (c *ListContainer[T]) Kind() ElementKind   { return kindOf[T]() }
func (c *ListContainer[T]) Count() int          { return len(c.values) }
func (c *ListContainer[T]) Vec4(i int) vec.Vec4 { return c.values[i].Vec4() }

func (c *ListContainer[T]) AddVec4(v vec.Vec4) int {
	return c.Add(fromVec4[T](v))
}

func (c *ListContainer[T]) Lerp(from, to int, t float32) int {
	return c.Add(c.values[from].Lerp(c.values[to], t))
}

func (c *ListContainer[T]) Clone() Attribute {
	return &ListContainer[T]{values: append([]T(nil), c.values...)}
}

// HashContainer deduplicates exactly equal values.
type HashContainer[T Element[T]] struct {
	values []T
	lookup map[T]int
}

// NewHashContainer returns an empty hash container.
func NewHashContainer[T Element[T]]() *HashContainer[T] {
	return &HashContainer[T]{lookup: make(map[T]int)}
}

// Add returns the index of v, storing it first if it is new.
func (c *HashContainer[T]) Add(v T) int {
	if i, ok := c.lookup[v]; ok {
		return i
	}
	i := len(c.values)
	c.values = append(c.values, v)
	c.lookup[v] = i
	return i
}

func (c *HashContainer[T]) At(i int) T          { return c.values[i] }
func (c *HashContainer[T]) Kind() ElementKind   { return kindOf[T]() }
func (c *HashContainer[T]) Count() int          { return len(c.values) }
func (c *HashContainer[T]) Vec4(i int) vec.Vec4 { return c.values[i].Vec4() }

func (c *HashContainer[T]) AddVec4(v vec.Vec4) int {
	return c.Add(fromVec4[T](v))
}

func (c *HashContainer[T]) Lerp(from, to int, t float32) int {
	return c.Add(c.values[from].Lerp(c.values[to], t))
}

func (c *HashContainer[T]) Clone() Attribute {
	out := &HashContainer[T]{
		values: append([]T(nil), c.values...),
		lookup: make(map[T]int, len(c.lookup)),
	}
	for k, v := range c.lookup {
		out.lookup[k] = v
	}
	return out
}
