package math

// Vec4 is a 4-component vector. Colors, skinning data and tangents use it;
// for tangents W carries handedness.
type Vec4 struct {
	X, Y, Z, W float32
}

// Lerp interpolates all four components from v towards other by t.
func (v Vec4) Lerp(other Vec4, t float32) Vec4 {
	return Vec4{
		v.X + (other.X-v.X)*t,
		v.Y + (other.Y-v.Y)*t,
		v.Z + (other.Z-v.Z)*t,
		v.W + (other.W-v.W)*t,
	}
}

// XYZ drops the w component.
func (v Vec4) XYZ() Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// XY drops the z and w components.
func (v Vec4) XY() Vec2 {
	return Vec2{v.X, v.Y}
}

// Vec4 returns v unchanged.
func (v Vec4) Vec4() Vec4 {
	return v
}

// Handedness returns +1 when W is non-negative and -1 otherwise.
func (v Vec4) Handedness() float32 {
	if v.W < 0 {
		return -1
	}
	return 1
}

// Scalar is a single float attribute value.
type Scalar float32

// Lerp interpolates from s towards other by t.
func (s Scalar) Lerp(other Scalar, t float32) Scalar {
	return s + (other-s)*Scalar(t)
}

// Vec4 widens s into the X component.
func (s Scalar) Vec4() Vec4 {
	return Vec4{X: float32(s)}
}
