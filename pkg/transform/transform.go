// Package transform converts assembly-frame rotations into the unit
// quaternions stored on glTF nodes.
package transform

import (
	"github.com/go-gl/mathgl/mgl64"
)

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// Identity is the glTF identity rotation [x, y, z, w].
var Identity = [4]float64{0, 0, 0, 1}

// Quat composes Euler angles in degrees about X, Y and Z, applied
// intrinsically in X then Y then Z order: q = qx * qy * qz.
func Quat(rx, ry, rz float64) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(rx), axisX)
	qy := mgl64.QuatRotate(mgl64.DegToRad(ry), axisY)
	qz := mgl64.QuatRotate(mgl64.DegToRad(rz), axisZ)
	return qx.Mul(qy).Mul(qz)
}

// EulerToQuat returns the rotation for (rx, ry, rz) degrees as a glTF
// quaternion [x, y, z, w]. (0, 0, 0) yields exactly [0, 0, 0, 1].
func EulerToQuat(rx, ry, rz float64) [4]float64 {
	return ToArray(Quat(rx, ry, rz))
}

// ToArray lays out q in glTF component order.
func ToArray(q mgl64.Quat) [4]float64 {
	return [4]float64{q.V[0], q.V[1], q.V[2], q.W}
}

// FromArray is the inverse of ToArray. A zero quaternion, which is how an
// unset rotation reads back from a node built in code, maps to identity.
func FromArray(a [4]float64) mgl64.Quat {
	if a == [4]float64{} {
		return mgl64.QuatIdent()
	}
	return mgl64.Quat{W: a[3], V: mgl64.Vec3{a[0], a[1], a[2]}}
}

// Decompose splits a column-major affine matrix into translation, rotation
// and scale. Shear is not representable and is discarded.
func Decompose(m [16]float64) (t [3]float64, r [4]float64, s [3]float64) {
	mat := mgl64.Mat4(m)
	t = [3]float64{mat[12], mat[13], mat[14]}

	sx := mat.Col(0).Vec3().Len()
	sy := mat.Col(1).Vec3().Len()
	sz := mat.Col(2).Vec3().Len()
	if mat.Det() < 0 {
		sx = -sx
	}
	s = [3]float64{sx, sy, sz}

	rot := mgl64.Ident4()
	for col, scale := range []float64{sx, sy, sz} {
		if scale == 0 {
			continue
		}
		for row := 0; row < 3; row++ {
			rot[col*4+row] = mat[col*4+row] / scale
		}
	}
	r = ToArray(mgl64.Mat4ToQuat(rot).Normalize())
	return t, r, s
}
