package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Compose builds a column-major affine matrix that scales, then rotates by
// Euler angles in degrees (X, then Y, then Z), then translates.
func Compose(translate, rotateDeg, scale Vec3) mgl32.Mat4 {
	rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(rotateDeg.Z)).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(rotateDeg.Y))).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(rotateDeg.X)))
	return mgl32.Translate3D(translate.X, translate.Y, translate.Z).
		Mul4(rot).
		Mul4(mgl32.Scale3D(scale.X, scale.Y, scale.Z))
}

// TransformPoint transforms a point by m, including translation and the
// perspective divide.
func TransformPoint(m mgl32.Mat4, p Vec3) Vec3 {
	return fromMgl(mgl32.TransformCoordinate(toMgl(p), m))
}

// TransformDirection transforms a direction by the linear part of m.
func TransformDirection(m mgl32.Mat4, d Vec3) Vec3 {
	return fromMgl(mgl32.TransformNormal(toMgl(d), m))
}

// NormalMatrix returns the inverse transpose of the upper 3x3 of m.
// A singular matrix yields its plain 3x3 part.
func NormalMatrix(m mgl32.Mat4) mgl32.Mat3 {
	m3 := m.Mat3()
	if m3.Det() == 0 {
		return m3
	}
	return m3.Inv().Transpose()
}

// TransformNormal transforms a surface normal by the normal matrix n and
// renormalizes it.
func TransformNormal(n mgl32.Mat3, v Vec3) Vec3 {
	return fromMgl(n.Mul3x1(toMgl(v))).Normalize()
}

// Determinant3 returns the determinant of the linear part of m. A negative
// value means the transform mirrors geometry.
func Determinant3(m mgl32.Mat4) float32 {
	return m.Mat3().Det()
}

func toMgl(v Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl32.Vec3) Vec3 {
	return Vec3{v[0], v[1], v[2]}
}
