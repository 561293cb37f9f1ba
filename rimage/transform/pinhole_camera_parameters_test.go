package transform

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/bundleadjust/spatialmath"
)

func newTestPinhole(t *testing.T, center r3.Vector, pose quat.Number, distortion Distorter) *PinholeCamera {
	t.Helper()
	cam, err := NewPinholeCamera(center, pose, PinholeCameraIntrinsics{Fx: 500, Fy: 500, Ppx: 320, Ppy: 240}, distortion, 1)
	test.That(t, err, test.ShouldBeNil)
	return cam
}

func TestPinholeIntrinsicsCheckValid(t *testing.T) {
	var nilIntrinsics *PinholeCameraIntrinsics
	err := nilIntrinsics.CheckValid()
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)

	intrinsics := &PinholeCameraIntrinsics{Fx: 0, Fy: 1}
	test.That(t, intrinsics.CheckValid().Error(), test.ShouldContainSubstring, "Invalid focal length Fx")
	intrinsics = &PinholeCameraIntrinsics{Fx: 1, Fy: math.NaN()}
	test.That(t, intrinsics.CheckValid().Error(), test.ShouldContainSubstring, "Invalid focal length Fy")
	intrinsics = &PinholeCameraIntrinsics{Fx: 1, Fy: 1, Ppx: math.Inf(1)}
	test.That(t, intrinsics.CheckValid().Error(), test.ShouldContainSubstring, "Invalid principal X point")
	intrinsics = &PinholeCameraIntrinsics{Fx: 1, Fy: 1, Ppx: -3, Ppy: 2}
	test.That(t, intrinsics.CheckValid(), test.ShouldBeNil)

	m := intrinsics.GetCameraMatrix()
	test.That(t, m.At(0, 2), test.ShouldEqual, -3)
	test.That(t, m.At(2, 2), test.ShouldEqual, 1)

	_, err = NewPinholeCamera(r3.Vector{}, quat.Number{Real: 1}, *intrinsics, nil, 0)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "pixel pitch")
}

func TestPinholePointToPixel(t *testing.T) {
	cam := newTestPinhole(t, r3.Vector{}, quat.Number{Real: 1}, nil)
	test.That(t, cam.Kind(), test.ShouldEqual, PinholeKind)

	px, err := cam.PointToPixel(r3.Vector{X: 0.2, Y: -0.4, Z: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, px.X, test.ShouldAlmostEqual, 370)
	test.That(t, px.Y, test.ShouldAlmostEqual, 140)

	t.Run("pixel pitch scales the image", func(t *testing.T) {
		scaled, err := NewPinholeCamera(r3.Vector{}, quat.Number{Real: 1},
			PinholeCameraIntrinsics{Fx: 5, Fy: 5, Ppx: 3.2, Ppy: 2.4}, nil, 0.01)
		test.That(t, err, test.ShouldBeNil)
		px2, err := scaled.PointToPixel(r3.Vector{X: 0.2, Y: -0.4, Z: 2})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, px2.X, test.ShouldAlmostEqual, px.X)
		test.That(t, px2.Y, test.ShouldAlmostEqual, px.Y)
	})

	t.Run("behind the camera", func(t *testing.T) {
		_, err := cam.PointToPixel(r3.Vector{X: 0.2, Y: -0.4, Z: -2})
		test.That(t, errors.Is(err, ErrPointBehindCamera), test.ShouldBeTrue)
		_, err = cam.PointToPixel(r3.Vector{X: 1})
		test.That(t, errors.Is(err, ErrPointBehindCamera), test.ShouldBeTrue)
	})

	t.Run("rotated and translated camera", func(t *testing.T) {
		// turn the camera to look down world +X from x = -1
		pose := spatialmath.AxisAngleToQuat(r3.Vector{Y: math.Pi / 2})
		turned := newTestPinhole(t, r3.Vector{X: -1}, pose, nil)
		got, err := turned.PointToPixel(r3.Vector{X: 1})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.X, test.ShouldAlmostEqual, 320)
		test.That(t, got.Y, test.ShouldAlmostEqual, 240)
	})

	t.Run("distortion", func(t *testing.T) {
		bc, err := NewBrownConrady([]float64{0.1})
		test.That(t, err, test.ShouldBeNil)
		distorted := newTestPinhole(t, r3.Vector{}, quat.Number{Real: 1}, bc)
		got, err := distorted.PointToPixel(r3.Vector{X: 1, Z: 2})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.X, test.ShouldAlmostEqual, 0.5*(1+0.1*0.25)*500+320)
		test.That(t, got.Y, test.ShouldAlmostEqual, 240)
	})
}

func TestPinholeCameraFile(t *testing.T) {
	bc, err := NewBrownConrady([]float64{0.1, -0.01, 0.001, 0.0005, -0.0003})
	test.That(t, err, test.ShouldBeNil)
	pose := spatialmath.AxisAngleToQuat(r3.Vector{X: 0.1, Y: -0.3, Z: 0.2})
	cam := newTestPinhole(t, r3.Vector{X: 1, Y: 2, Z: -3}, pose, bc)

	path := filepath.Join(t.TempDir(), "cam.json")
	test.That(t, WritePinholeCamera(path, cam), test.ShouldBeNil)

	read, err := ReadPinholeCamera(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.Center, test.ShouldResemble, cam.Center)
	test.That(t, read.PinholeCameraIntrinsics, test.ShouldResemble, cam.PinholeCameraIntrinsics)
	test.That(t, read.PixelPitch, test.ShouldEqual, cam.PixelPitch)
	test.That(t, read.Distortion.Parameters(), test.ShouldResemble, cam.Distortion.Parameters())
	test.That(t, spatialmath.QuaternionAlmostEqual(read.Orientation, cam.Orientation, 1e-12), test.ShouldBeTrue)

	pt := r3.Vector{X: 1.5, Y: 2.2, Z: 4}
	want, err := cam.PointToPixel(pt)
	test.That(t, err, test.ShouldBeNil)
	got, err := read.PointToPixel(pt)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Sub(want).Norm(), test.ShouldBeLessThan, 1e-9)

	_, err = ReadPinholeCamera(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	err = WritePinholeCamera(filepath.Join(t.TempDir(), "no", "such", "dir.json"), cam)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestAdjustedCamera(t *testing.T) {
	pose := spatialmath.AxisAngleToQuat(r3.Vector{X: 0.05, Y: 0.1, Z: -0.02})
	base := newTestPinhole(t, r3.Vector{X: 0.5, Y: -0.2, Z: -4}, pose, nil)
	pt := r3.Vector{X: 0.3, Y: 0.1, Z: 2}

	t.Run("zero correction", func(t *testing.T) {
		adjusted := NewAdjustedCamera(base, r3.Vector{}, quat.Number{Real: 1})
		test.That(t, adjusted.Kind(), test.ShouldEqual, AdjustedKind)
		want, err := base.PointToPixel(pt)
		test.That(t, err, test.ShouldBeNil)
		got, err := adjusted.PointToPixel(pt)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.Sub(want).Norm(), test.ShouldBeLessThan, 1e-9)
	})

	t.Run("matches a camera built at the corrected pose", func(t *testing.T) {
		translation := r3.Vector{X: 0.1, Y: 0.2, Z: -0.1}
		rotation := spatialmath.AxisAngleToQuat(r3.Vector{X: -0.03, Y: 0.02, Z: 0.04})
		adjusted := NewAdjustedCamera(base, translation, rotation)
		test.That(t, adjusted.Base(), test.ShouldEqual, base)
		test.That(t, adjusted.Translation(), test.ShouldResemble, translation)

		moved := newTestPinhole(t, adjusted.CameraCenter(), adjusted.CameraPose(), nil)
		var want, got r2.Point
		var err error
		want, err = moved.PointToPixel(pt)
		test.That(t, err, test.ShouldBeNil)
		got, err = adjusted.PointToPixel(pt)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.Sub(want).Norm(), test.ShouldBeLessThan, 1e-9)
	})
}

func TestNoIntrinsicsErrorMessage(t *testing.T) {
	err := NewNoIntrinsicsError("fx at 100%")
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldStartWith, "fx at 100%: ")
}
