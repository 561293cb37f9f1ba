package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Normalize scales a quaternion to unit length. The zero quaternion is returned as the identity rotation.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/norm, q)
}

// RotatePoint rotates pt by the unit quaternion q, computing q * pt * conj(q).
func RotatePoint(q quat.Number, pt r3.Vector) r3.Vector {
	p := quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// InverseRotatePoint applies the inverse rotation of the unit quaternion q to pt.
func InverseRotatePoint(q quat.Number, pt r3.Vector) r3.Vector {
	return RotatePoint(quat.Conj(q), pt)
}

// QuaternionAlmostEqual returns whether two quaternions are component-wise equal within tol.
// q and -q describe the same rotation and are considered equal.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := func(x, y quat.Number) bool {
		return math.Abs(x.Real-y.Real) < tol &&
			math.Abs(x.Imag-y.Imag) < tol &&
			math.Abs(x.Jmag-y.Jmag) < tol &&
			math.Abs(x.Kmag-y.Kmag) < tol
	}
	return same(a, b) || same(a, quat.Scale(-1, b))
}

// OrientationBetween returns the rotation taking q1 to q2.
func OrientationBetween(q1, q2 quat.Number) quat.Number {
	return quat.Mul(q2, quat.Conj(q1))
}
