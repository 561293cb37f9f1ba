package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// See here for a thorough explanation: https://en.wikipedia.org/wiki/Axis%E2%80%93angle_representation
// An orientation can be expressed by an axis on the unit sphere, (rx, ry, rz), and a rotation theta around
// that axis. These four numbers can be used as-is (R4), or converted to R3, where theta is multiplied into
// each of the unit sphere components to give a vector whose length is theta and whose direction is the axis.
// The R3 form is what bundle adjustment optimizes over since it has exactly three degrees of freedom.

// R4AA represents an R4 axis angle.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA creates an R4AA with no rotation.
func NewR4AA() *R4AA {
	return &R4AA{Theta: 0, RX: 0, RY: 0, RZ: 1}
}

// ToR3 converts an R4 axis angle to R3.
func (r4 *R4AA) ToR3() r3.Vector {
	axis := r4.unitAxis()
	return axis.Mul(r4.Theta)
}

// ToQuat converts an R4 axis angle to a unit quaternion.
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/angleToQuaternion/index.htm
func (r4 *R4AA) ToQuat() quat.Number {
	if r4.Theta == 0 {
		return quat.Number{Real: 1}
	}
	axis := r4.unitAxis()
	sinA := math.Sin(r4.Theta / 2)
	return quat.Number{
		Real: math.Cos(r4.Theta / 2),
		Imag: axis.X * sinA,
		Jmag: axis.Y * sinA,
		Kmag: axis.Z * sinA,
	}
}

// unitAxis returns the axis scaled onto the unit sphere. A zero axis maps to +Z so that a
// zero rotation never divides by zero.
func (r4 *R4AA) unitAxis() r3.Vector {
	axis := r3.Vector{X: r4.RX, Y: r4.RY, Z: r4.RZ}
	norm := axis.Norm()
	if norm == 0 {
		return r3.Vector{Z: 1}
	}
	return axis.Mul(1 / norm)
}

// fixOrientation keeps theta non-negative by flipping the axis.
func (r4 *R4AA) fixOrientation() {
	if r4.Theta < 0.0 {
		r4.Theta *= -1.
		r4.RX *= -1.
		r4.RY *= -1.
		r4.RZ *= -1.
	}
}

// R3ToR4 converts an R3 angle axis to R4.
func R3ToR4(aa r3.Vector) *R4AA {
	theta := aa.Norm()
	if theta == 0 {
		return NewR4AA()
	}
	return &R4AA{theta, aa.X / theta, aa.Y / theta, aa.Z / theta}
}

// QuatToR4AA converts a quaternion to an R4 axis angle. The quaternion is normalized first and
// the returned angle lies in [0, pi].
func QuatToR4AA(q quat.Number) *R4AA {
	q = Normalize(q)
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	sinHalf := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if sinHalf == 0 {
		return NewR4AA()
	}
	r4 := &R4AA{
		Theta: 2 * math.Atan2(sinHalf, q.Real),
		RX:    q.Imag / sinHalf,
		RY:    q.Jmag / sinHalf,
		RZ:    q.Kmag / sinHalf,
	}
	r4.fixOrientation()
	return r4
}

// AxisAngleToQuat converts an R3 axis angle to a unit quaternion.
func AxisAngleToQuat(aa r3.Vector) quat.Number {
	return R3ToR4(aa).ToQuat()
}

// QuatToAxisAngle converts a quaternion to an R3 axis angle with a length in [0, pi].
func QuatToAxisAngle(q quat.Number) r3.Vector {
	return QuatToR4AA(q).ToR3()
}
