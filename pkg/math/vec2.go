// Package math provides the small vector types mesh attributes are stored as.
package math

// Vec2 is a 2D vector, mostly texture coordinates.
type Vec2 struct {
	X, Y float32
}

// Lerp interpolates from v towards other by t.
func (v Vec2) Lerp(other Vec2, t float32) Vec2 {
	return Vec2{v.X + (other.X-v.X)*t, v.Y + (other.Y-v.Y)*t}
}

// Point lifts v into the z=0 plane so UVs can be welded in the same
// index as positions.
func (v Vec2) Point() Vec3 {
	return Vec3{v.X, v.Y, 0}
}

// Vec4 widens v to four components with zero z and w.
func (v Vec2) Vec4() Vec4 {
	return Vec4{X: v.X, Y: v.Y}
}
