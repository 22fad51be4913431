package transform

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) <= eps
}

func TestEulerToQuatZeroIsExactIdentity(t *testing.T) {
	got := EulerToQuat(0, 0, 0)
	if got != Identity {
		t.Fatalf("EulerToQuat(0,0,0) = %v, want exactly %v", got, Identity)
	}
}

func TestEulerToQuatSingleAxis(t *testing.T) {
	h := math.Sqrt2 / 2
	tests := []struct {
		name       string
		rx, ry, rz float64
		want       [4]float64
	}{
		{"x 90", 90, 0, 0, [4]float64{h, 0, 0, h}},
		{"y 90", 0, 90, 0, [4]float64{0, h, 0, h}},
		{"z 90", 0, 0, 90, [4]float64{0, 0, h, h}},
		{"y 180", 0, 180, 0, [4]float64{0, 1, 0, 0}},
		{"z -20", 0, 0, -20, [4]float64{0, 0, math.Sin(-10 * math.Pi / 180), math.Cos(10 * math.Pi / 180)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EulerToQuat(tt.rx, tt.ry, tt.rz)
			for i := range got {
				if !approx(got[i], tt.want[i]) {
					t.Fatalf("EulerToQuat(%v,%v,%v) = %v, want %v", tt.rx, tt.ry, tt.rz, got, tt.want)
				}
			}
		})
	}
}

func TestEulerToQuatUnitMagnitude(t *testing.T) {
	angles := [][3]float64{
		{90, 0, 0},
		{0, 0, 50},
		{12.5, -33, 270},
		{-180, 45, 45},
		{360, 720, -90},
	}
	for _, a := range angles {
		q := EulerToQuat(a[0], a[1], a[2])
		n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
		if math.Abs(n-1) > 1e-6 {
			t.Errorf("|EulerToQuat(%v)| = %v, want 1", a, n)
		}
	}
}

// The rotation must match the matrix product Rx * Ry * Rz (intrinsic XYZ),
// not Rz * Ry * Rx.
func TestEulerToQuatIntrinsicXYZOrder(t *testing.T) {
	rx, ry, rz := 30.0, -45.0, 60.0
	m := mgl64.HomogRotate3DX(mgl64.DegToRad(rx)).
		Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(ry))).
		Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(rz)))

	q := Quat(rx, ry, rz)
	for _, v := range []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.3, -2, 5}} {
		want := m.Mul4x1(v.Vec4(1)).Vec3()
		got := q.Rotate(v)
		if !got.ApproxEqualThreshold(want, 1e-9) {
			t.Errorf("rotate %v: got %v, want %v", v, got, want)
		}
	}

	extrinsic := mgl64.HomogRotate3DZ(mgl64.DegToRad(rz)).
		Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(ry))).
		Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(rx)))
	v := mgl64.Vec3{0.3, -2, 5}
	if q.Rotate(v).ApproxEqualThreshold(extrinsic.Mul4x1(v.Vec4(1)).Vec3(), 1e-6) {
		t.Error("rotation matches ZYX order, want XYZ")
	}
}

func TestFromArrayZeroIsIdentity(t *testing.T) {
	if got := FromArray([4]float64{}); got != mgl64.QuatIdent() {
		t.Errorf("FromArray(zero) = %v, want identity", got)
	}
	q := [4]float64{0.1, 0.2, 0.3, 0.9}
	if got := ToArray(FromArray(q)); got != q {
		t.Errorf("ToArray(FromArray(%v)) = %v", q, got)
	}
}

func TestDecompose(t *testing.T) {
	rot := Quat(0, 0, 90)
	m := mgl64.Translate3D(1, 2, 3).
		Mul4(rot.Mat4()).
		Mul4(mgl64.Scale3D(0.01, 0.01, 0.01))

	tr, r, s := Decompose([16]float64(m))
	if tr != [3]float64{1, 2, 3} {
		t.Errorf("translation = %v, want [1 2 3]", tr)
	}
	for i, want := range [3]float64{0.01, 0.01, 0.01} {
		if !approx(s[i], want) {
			t.Errorf("scale = %v, want 0.01 on every axis", s)
			break
		}
	}
	if !FromArray(r).OrientationEqualThreshold(rot, 1e-9) {
		t.Errorf("rotation = %v, want %v", r, ToArray(rot))
	}
}

func TestDecomposeIdentity(t *testing.T) {
	tr, r, s := Decompose([16]float64(mgl64.Ident4()))
	if tr != [3]float64{} || s != [3]float64{1, 1, 1} || r != Identity {
		t.Errorf("Decompose(identity) = %v %v %v", tr, r, s)
	}
}
