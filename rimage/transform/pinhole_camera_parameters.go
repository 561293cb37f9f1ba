package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/bundleadjust/spatialmath"
)

var (
	// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
	ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")
	// ErrPointBehindCamera is returned when a point has a non-positive depth in the camera frame.
	ErrPointBehindCamera = errors.New("point is behind the camera")
)

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D
// scene to the 2D plane. Focal lengths and principal point are in the same physical units as the
// pixel pitch of the camera that owns them.
type PinholeCameraIntrinsics struct {
	Fx  float64 `json:"fx"`
	Fy  float64 `json:"fy"`
	Ppx float64 `json:"ppx"`
	Ppy float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if !(params.Fx > 0) || math.IsInf(params.Fx, 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if !(params.Fy > 0) || math.IsInf(params.Fy, 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if math.IsNaN(params.Ppx) || math.IsInf(params.Ppx, 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if math.IsNaN(params.Ppy) || math.IsInf(params.Ppy, 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// GetCameraMatrix creates a new camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) GetCameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}

// PinholeCamera is a posed pinhole camera with lens distortion. The camera looks down its +Z
// axis; a world point p is seen at Orientation^-1 * (p - Center) in the camera frame.
type PinholeCamera struct {
	PinholeCameraIntrinsics
	Center      r3.Vector
	Orientation quat.Number
	Distortion  Distorter
	PixelPitch  float64
}

// NewPinholeCamera builds a camera and checks its parameters. A nil distortion is an ideal lens.
func NewPinholeCamera(
	center r3.Vector,
	orientation quat.Number,
	intrinsics PinholeCameraIntrinsics,
	distortion Distorter,
	pixelPitch float64,
) (*PinholeCamera, error) {
	if distortion == nil {
		distortion = NoDistortion{}
	}
	cam := &PinholeCamera{
		PinholeCameraIntrinsics: intrinsics,
		Center:                  center,
		Orientation:             spatialmath.Normalize(orientation),
		Distortion:              distortion,
		PixelPitch:              pixelPitch,
	}
	if err := cam.CheckValid(); err != nil {
		return nil, err
	}
	return cam, nil
}

// CheckValid checks the intrinsics, the lens model and the pixel pitch.
func (cam *PinholeCamera) CheckValid() error {
	if cam == nil {
		return NewNoIntrinsicsError("camera does not exist")
	}
	if err := cam.PinholeCameraIntrinsics.CheckValid(); err != nil {
		return err
	}
	if cam.Distortion == nil {
		return InvalidDistortionError("distortion model not provided")
	}
	if err := cam.Distortion.CheckValid(); err != nil {
		return err
	}
	if !(cam.PixelPitch > 0) || math.IsInf(cam.PixelPitch, 0) {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid pixel pitch = %#v", cam.PixelPitch))
	}
	return nil
}

// Kind reports PinholeKind.
func (cam *PinholeCamera) Kind() CameraKind {
	return PinholeKind
}

// CameraCenter returns the camera position in world coordinates.
func (cam *PinholeCamera) CameraCenter() r3.Vector {
	return cam.Center
}

// CameraPose returns the camera to world rotation.
func (cam *PinholeCamera) CameraPose() quat.Number {
	return cam.Orientation
}

// PointToPixel projects a world point into the image. Points with non-positive depth, invalid
// intrinsics and non-finite results are errors.
func (cam *PinholeCamera) PointToPixel(pt r3.Vector) (r2.Point, error) {
	if err := cam.CheckValid(); err != nil {
		return r2.Point{}, err
	}
	p := spatialmath.InverseRotatePoint(cam.Orientation, pt.Sub(cam.Center))
	if !(p.Z > 0) {
		return r2.Point{}, errors.Wrapf(ErrPointBehindCamera, "depth %v", p.Z)
	}
	x, y := cam.Distortion.Transform(p.X/p.Z, p.Y/p.Z)
	px := r2.Point{
		X: (x*cam.Fx + cam.Ppx) / cam.PixelPitch,
		Y: (y*cam.Fy + cam.Ppy) / cam.PixelPitch,
	}
	if math.IsNaN(px.X) || math.IsNaN(px.Y) || math.IsInf(px.X, 0) || math.IsInf(px.Y, 0) {
		return r2.Point{}, errors.Errorf("projection of %v is not finite", pt)
	}
	return px, nil
}

// RotationMatrix returns the camera to world rotation as a matrix.
func (cam *PinholeCamera) RotationMatrix() *spatialmath.RotationMatrix {
	return spatialmath.QuatToRotationMatrix(cam.Orientation)
}

func (cam *PinholeCamera) String() string {
	return fmt.Sprintf("Pinhole camera: center=%v pose=%v fx=%v fy=%v ppx=%v ppy=%v distortion=%s%v pitch=%v",
		cam.Center, cam.Orientation, cam.Fx, cam.Fy, cam.Ppx, cam.Ppy,
		cam.Distortion.ModelType(), cam.Distortion.Parameters(), cam.PixelPitch)
}

type distortionJSON struct {
	Type       DistortionType `json:"type"`
	Parameters []float64      `json:"parameters"`
}

type pinholeCameraJSON struct {
	Center     [3]float64     `json:"center"`
	Rotation   []float64      `json:"rotation"`
	Fx         float64        `json:"fx"`
	Fy         float64        `json:"fy"`
	Ppx        float64        `json:"ppx"`
	Ppy        float64        `json:"ppy"`
	Distortion distortionJSON `json:"distortion"`
	PixelPitch float64        `json:"pixel_pitch"`
}

// MarshalJSON writes the camera with its orientation as a row major rotation matrix.
func (cam *PinholeCamera) MarshalJSON() ([]byte, error) {
	return json.Marshal(pinholeCameraJSON{
		Center:   [3]float64{cam.Center.X, cam.Center.Y, cam.Center.Z},
		Rotation: cam.RotationMatrix().Data(),
		Fx:       cam.Fx,
		Fy:       cam.Fy,
		Ppx:      cam.Ppx,
		Ppy:      cam.Ppy,
		Distortion: distortionJSON{
			Type:       cam.Distortion.ModelType(),
			Parameters: cam.Distortion.Parameters(),
		},
		PixelPitch: cam.PixelPitch,
	})
}

// UnmarshalJSON reads a camera written by MarshalJSON.
func (cam *PinholeCamera) UnmarshalJSON(data []byte) error {
	var raw pinholeCameraJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rm, err := spatialmath.NewRotationMatrix(raw.Rotation)
	if err != nil {
		return errors.Wrap(err, "bad rotation")
	}
	if !rm.IsOrthonormal(1e-6) {
		return errors.New("rotation is not orthonormal")
	}
	distortion, err := NewDistorter(raw.Distortion.Type, raw.Distortion.Parameters)
	if err != nil {
		return err
	}
	parsed, err := NewPinholeCamera(
		r3.Vector{X: raw.Center[0], Y: raw.Center[1], Z: raw.Center[2]},
		rm.Quaternion(),
		PinholeCameraIntrinsics{Fx: raw.Fx, Fy: raw.Fy, Ppx: raw.Ppx, Ppy: raw.Ppy},
		distortion,
		raw.PixelPitch,
	)
	if err != nil {
		return err
	}
	*cam = *parsed
	return nil
}

// ReadPinholeCamera takes in a file path to a JSON and turns it into a PinholeCamera.
func ReadPinholeCamera(jsonPath string) (*PinholeCamera, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	cam := &PinholeCamera{}
	if err := json.Unmarshal(byteValue, cam); err != nil {
		return nil, errors.Wrapf(err, "error parsing camera file %q", jsonPath)
	}
	return cam, nil
}

// WritePinholeCamera writes the camera to jsonPath, replacing any existing file.
func WritePinholeCamera(jsonPath string, cam *PinholeCamera) (err error) {
	b, err := json.MarshalIndent(cam, "", "  ")
	if err != nil {
		return err
	}
	//nolint:gosec
	f, err := os.Create(jsonPath)
	if err != nil {
		return errors.Wrapf(err, "error creating camera file %q", jsonPath)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	_, err = f.Write(append(b, '\n'))
	return err
}
