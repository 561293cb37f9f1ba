package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/bundleadjust/spatialmath"
)

// AdjustedCamera wraps an existing camera with a position correction and a rotation correction
// about the camera center. The wrapped camera is never modified.
type AdjustedCamera struct {
	base        Camera
	translation r3.Vector
	rotation    quat.Number
}

// NewAdjustedCamera returns base moved by translation and rotated by rotation.
func NewAdjustedCamera(base Camera, translation r3.Vector, rotation quat.Number) *AdjustedCamera {
	return &AdjustedCamera{base: base, translation: translation, rotation: spatialmath.Normalize(rotation)}
}

// Kind reports AdjustedKind.
func (ac *AdjustedCamera) Kind() CameraKind {
	return AdjustedKind
}

// Base returns the unadjusted camera.
func (ac *AdjustedCamera) Base() Camera {
	return ac.base
}

// Translation returns the position correction.
func (ac *AdjustedCamera) Translation() r3.Vector {
	return ac.translation
}

// Rotation returns the rotation correction.
func (ac *AdjustedCamera) Rotation() quat.Number {
	return ac.rotation
}

// CameraCenter returns the corrected camera position.
func (ac *AdjustedCamera) CameraCenter() r3.Vector {
	return ac.base.CameraCenter().Add(ac.translation)
}

// CameraPose returns the corrected camera to world rotation.
func (ac *AdjustedCamera) CameraPose() quat.Number {
	return quat.Mul(ac.rotation, ac.base.CameraPose())
}

// PointToPixel moves the point into the frame of the unadjusted camera and projects it there.
func (ac *AdjustedCamera) PointToPixel(pt r3.Vector) (r2.Point, error) {
	center := ac.base.CameraCenter()
	offset := pt.Sub(center).Sub(ac.translation)
	return ac.base.PointToPixel(spatialmath.InverseRotatePoint(ac.rotation, offset).Add(center))
}
