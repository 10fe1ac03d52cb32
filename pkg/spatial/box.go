// Package spatial provides axis-aligned bounding boxes and an R-tree index
// over them.
package spatial

import (
	"fmt"
	"math"

	vec "github.com/Faultbox/meshkit/pkg/math"
)

// BoundingBox3 is an axis-aligned box in 3D. A box is empty when any Min
// component exceeds the matching Max component.
type BoundingBox3 struct {
	Min vec.Vec3
	Max vec.Vec3
}

var (
	posInf = float32(math.Inf(1))
	negInf = float32(math.Inf(-1))
)

// Empty is the identity for Union: unioning it with any box yields that box.
var Empty = BoundingBox3{
	Min: vec.Vec3{X: posInf, Y: posInf, Z: posInf},
	Max: vec.Vec3{X: negInf, Y: negInf, Z: negInf},
}

// NewBox returns the box spanning two corner points in any order.
func NewBox(a, b vec.Vec3) BoundingBox3 {
	return BoundingBox3{Min: a.Min(b), Max: a.Max(b)}
}

// PointBox returns the degenerate box containing only p.
func PointBox(p vec.Vec3) BoundingBox3 {
	return BoundingBox3{Min: p, Max: p}
}

// Around returns the box centered on c extending half in every direction.
func Around(c vec.Vec3, half float32) BoundingBox3 {
	d := vec.Vec3{X: half, Y: half, Z: half}
	return BoundingBox3{Min: c.Sub(d), Max: c.Add(d)}
}

// IsEmpty reports whether the box contains no points.
func (b BoundingBox3) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Union returns the smallest box containing both b and other.
func (b BoundingBox3) Union(other BoundingBox3) BoundingBox3 {
	return BoundingBox3{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Extend returns the smallest box containing b and p.
func (b BoundingBox3) Extend(p vec.Vec3) BoundingBox3 {
	return BoundingBox3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Expand grows the box by d on every side.
func (b BoundingBox3) Expand(d float32) BoundingBox3 {
	if b.IsEmpty() {
		return b
	}
	e := vec.Vec3{X: d, Y: d, Z: d}
	return BoundingBox3{Min: b.Min.Sub(e), Max: b.Max.Add(e)}
}

// Intersects reports whether the boxes overlap. Bounds are inclusive, so
// boxes that only touch on a face, edge or corner intersect.
func (b BoundingBox3) Intersects(other BoundingBox3) bool {
	return b.Min.X <= other.Max.X && other.Min.X <= b.Max.X &&
		b.Min.Y <= other.Max.Y && other.Min.Y <= b.Max.Y &&
		b.Min.Z <= other.Max.Z && other.Min.Z <= b.Max.Z
}

// Contains reports whether other lies entirely inside b.
func (b BoundingBox3) Contains(other BoundingBox3) bool {
	return b.Min.X <= other.Min.X && other.Max.X <= b.Max.X &&
		b.Min.Y <= other.Min.Y && other.Max.Y <= b.Max.Y &&
		b.Min.Z <= other.Min.Z && other.Max.Z <= b.Max.Z
}

// ContainsPoint reports whether p lies inside or on the boundary of b.
func (b BoundingBox3) ContainsPoint(p vec.Vec3) bool {
	return b.Contains(PointBox(p))
}

// Size returns the extent along each axis.
func (b BoundingBox3) Size() vec.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b BoundingBox3) Center() vec.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Volume returns the product of the per-axis extents. Negative extents count
// as zero, so empty and flat boxes have zero volume.
func (b BoundingBox3) Volume() float64 {
	dx := math.Max(0, float64(b.Max.X)-float64(b.Min.X))
	dy := math.Max(0, float64(b.Max.Y)-float64(b.Min.Y))
	dz := math.Max(0, float64(b.Max.Z)-float64(b.Min.Z))
	return dx * dy * dz
}

// String returns the box as "[min .. max]".
func (b BoundingBox3) String() string {
	return fmt.Sprintf("[(%g,%g,%g) .. (%g,%g,%g)]",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}
