package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestRotationMatrix(t *testing.T) {
	_, err := NewRotationMatrix([]float64{1, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)

	rm, err := NewRotationMatrix([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rm.IsOrthonormal(1e-12), test.ShouldBeTrue)
	test.That(t, QuaternionAlmostEqual(rm.Quaternion(), NewR4AA().ToQuat(), 1e-12), test.ShouldBeTrue)

	rm45 := QuatToRotationMatrix(q45x)
	test.That(t, rm45.At(1, 1), test.ShouldAlmostEqual, math.Cos(th))
	test.That(t, rm45.At(1, 2), test.ShouldAlmostEqual, -math.Sin(th))
	test.That(t, rm45.At(2, 1), test.ShouldAlmostEqual, math.Sin(th))
	test.That(t, rm45.IsOrthonormal(1e-12), test.ShouldBeTrue)

	v := r3.Vector{X: 0.3, Y: -1.2, Z: 2.5}
	test.That(t, rm45.Mul(v).Sub(RotatePoint(q45x, v)).Norm(), test.ShouldBeLessThan, 1e-12)
}

func TestRotationMatrixQuaternionRoundTrip(t *testing.T) {
	// cover every branch of the matrix to quaternion conversion
	for _, aa := range []r3.Vector{
		{X: 0.1, Y: 0.2, Z: 0.3},
		{X: 3.0, Y: 0, Z: 0},
		{X: 0, Y: 3.0, Z: 0.1},
		{X: 0.1, Y: 0, Z: 3.0},
	} {
		q := AxisAngleToQuat(aa)
		rm := QuatToRotationMatrix(q)
		test.That(t, QuaternionAlmostEqual(rm.Quaternion(), q, 1e-9), test.ShouldBeTrue)

		again, err := NewRotationMatrix(rm.Data())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, again, test.ShouldResemble, rm)
	}
}
