package math

import "math"

// Vec3 is a 3D vector used for positions, normals and box corners.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale multiplies every component by s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Cross returns v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// XY drops Z, e.g. to project positions onto the XY plane as UVs.
func (v Vec3) XY() Vec2 { return Vec2{v.X, v.Y} }

func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// LengthSquared is what weld radius checks compare against r².
func (v Vec3) LengthSquared() float32 {
	return v.Dot(v)
}

func (v Vec3) Length() float32 { return float32(math.Sqrt(float64(v.LengthSquared()))) }

// Distance is the Euclidean distance between two points.
func (v Vec3) Distance(o Vec3) float32 { return v.Sub(o).Length() }

// Normalize returns v scaled to unit length. The zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	l2 := v.LengthSquared()
	if l2 == 0 {
		return Vec3{}
	}
	return v.Scale(float32(1 / math.Sqrt(float64(l2))))
}

// Lerp interpolates from v towards o by t.
func (v Vec3) Lerp(o Vec3, t float32) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}

// Min and Max are component-wise; boxes are grown with them.
func (v Vec3) Min(o Vec3) Vec3 { return Vec3{min(v.X, o.X), min(v.Y, o.Y), min(v.Z, o.Z)} }
func (v Vec3) Max(o Vec3) Vec3 { return Vec3{max(v.X, o.X), max(v.Y, o.Y), max(v.Z, o.Z)} }

// Point returns v unchanged. It lets Vec2 and Vec3 share spatial welding.
func (v Vec3) Point() Vec3 { return v }

// Vec4 widens v with w = 0.
func (v Vec3) Vec4() Vec4 { return Vec4{X: v.X, Y: v.Y, Z: v.Z} }
