package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// CameraKind tags the concrete camera variant behind a Camera so that callers needing a specific
// variant perform one explicit check instead of probing types.
type CameraKind string

const (
	// GenericKind is any camera that only promises projection and a pose.
	GenericKind = CameraKind("generic")
	// PinholeKind is a *PinholeCamera.
	PinholeKind = CameraKind("pinhole")
	// AdjustedKind is an *AdjustedCamera wrapping another camera.
	AdjustedKind = CameraKind("adjusted")
)

// Projector projects a world point onto an image plane, in pixels.
type Projector interface {
	PointToPixel(pt r3.Vector) (r2.Point, error)
}

// A Camera is a projector with a pose. CameraPose is the rotation from the camera frame to the
// world frame.
type Camera interface {
	Projector
	Kind() CameraKind
	CameraCenter() r3.Vector
	CameraPose() quat.Number
}
