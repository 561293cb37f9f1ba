package bundleadjust

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/bundleadjust/controlnet"
	"go.viam.com/bundleadjust/rimage/transform"
	"go.viam.com/bundleadjust/spatialmath"
)

var identity = quat.Number{Real: 1}

func newPinhole(t *testing.T, center r3.Vector, pose quat.Number, distortion transform.Distorter) *transform.PinholeCamera {
	t.Helper()
	cam, err := transform.NewPinholeCamera(
		center, pose,
		transform.PinholeCameraIntrinsics{Fx: 500, Fy: 500, Ppx: 320, Ppy: 240},
		distortion, 1,
	)
	test.That(t, err, test.ShouldBeNil)
	return cam
}

// orthoCamera is a generic camera that drops the camera-frame depth.
type orthoCamera struct {
	center r3.Vector
	pose   quat.Number
	kind   transform.CameraKind
}

func (oc *orthoCamera) Kind() transform.CameraKind {
	if oc.kind == "" {
		return transform.GenericKind
	}
	return oc.kind
}

func (oc *orthoCamera) CameraCenter() r3.Vector { return oc.center }

func (oc *orthoCamera) CameraPose() quat.Number { return oc.pose }

func (oc *orthoCamera) PointToPixel(pt r3.Vector) (r2.Point, error) {
	p := spatialmath.InverseRotatePoint(oc.pose, pt.Sub(oc.center))
	return r2.Point{X: 100 * p.X, Y: 100 * p.Y}, nil
}

var testPoints = []r3.Vector{
	{X: 0.2, Y: -0.4, Z: 2},
	{X: -0.5, Y: 0.3, Z: 3},
	{X: 0.1, Y: 0.6, Z: 4},
	{X: -0.3, Y: -0.2, Z: 2.5},
	{X: 0.7, Y: 0.1, Z: 5},
	{X: 0, Y: 0, Z: 3.5},
}

// observedNetwork projects every point through every camera and records the pixels as measures.
func observedNetwork(t *testing.T, cams []transform.Camera, points []r3.Vector) *controlnet.ControlNetwork {
	t.Helper()
	cn := controlnet.New("test")
	for _, pt := range points {
		cp := controlnet.ControlPoint{Position: pt}
		for j, cam := range cams {
			px, err := cam.PointToPixel(pt)
			if err != nil {
				continue
			}
			cp.Measures = append(cp.Measures, controlnet.Measure{Camera: j, Pixel: px, Sigma: r2.Point{X: 1, Y: 1}})
		}
		cn.Add(cp)
	}
	return cn
}

func pointParams(pt r3.Vector) []float64 {
	return []float64{pt.X, pt.Y, pt.Z}
}
