// Package bundleadjust exposes cameras and control points to a generic nonlinear least-squares
// solver as flat parameter vectors. Two models are provided: AdjustedModel wraps any camera with a
// pose correction and PinholeModel floats the pose and, optionally, the intrinsics of pinhole
// cameras.
package bundleadjust

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/bundleadjust/controlnet"
	"go.viam.com/bundleadjust/logging"
)

var (
	// ErrWrongCameraKind is returned when a model is given a camera it cannot parameterize.
	ErrWrongCameraKind = errors.New("camera is not of the kind the model requires")
	// ErrCameraPathCount is returned when the number of output paths differs from the number of cameras.
	ErrCameraPathCount = errors.New("must have as many camera files as cameras")
	// ErrVectorLength is returned for parameter vectors of the wrong length.
	ErrVectorLength = errors.New("parameter vector has the wrong length")
)

// ModelKind names a model implementation.
type ModelKind string

const (
	// AdjustedModelKind is AdjustedModel.
	AdjustedModelKind = ModelKind("adjusted")
	// PinholeModelKind is PinholeModel.
	PinholeModelKind = ModelKind("pinhole")
)

// Model is what a solver sees of a bundle adjustment problem. Camera j and point i are addressed
// by index; every vector handed out is a copy.
//
// Getters and CamPixel may be called concurrently. A setter must not run concurrently with any
// other access to the same index.
type Model interface {
	Kind() ModelKind

	NumCameras() int
	NumPoints() int
	NumPixelObservations() int
	NumCameraParams() int
	NumPointParams() int
	NumIntrinsicParams() int

	CamParams(j int) []float64
	SetCamParams(j int, v []float64) error
	PointParams(i int) []float64
	SetPointParams(i int, v []float64) error
	CamTarget(j int) []float64
	PointTarget(i int) []float64

	CamInverseCovariance(j int) *mat.DiagDense
	PointInverseCovariance(i int) *mat.DiagDense

	// CamPixel projects point i, at pointParams, into camera j described by camParams.
	CamPixel(i, j int, camParams, pointParams []float64) Projection
	ConcatExtrinsicsIntrinsics(extrinsics, intrinsics []float64) ([]float64, error)

	ControlNetwork() controlnet.Network
	AppendCameraTrace(path string) error
	AppendPointTrace(path string) error
}

// ImageCompare is the pixel distance between a measure and a projection.
func ImageCompare(meas, obj r2.Point) float64 {
	return meas.Sub(obj).Norm()
}

// PositionCompare is the distance between the position parts of two camera vectors.
func PositionCompare(meas, obj []float64) float64 {
	return floats.Distance(meas[:3], obj[:3], 2)
}

// PoseCompare is the distance between the axis-angle parts of two camera vectors.
func PoseCompare(meas, obj []float64) float64 {
	return floats.Distance(meas[3:6], obj[3:6], 2)
}

// GCPCompare is the distance between two point vectors.
func GCPCompare(meas, obj []float64) float64 {
	return floats.Distance(meas, obj, 2)
}

// parameters is the state shared by both models: one vector and one baseline per camera and per
// point, plus the network they were built from.
type parameters struct {
	codec           Codec
	network         controlnet.Network
	camVecs         [][]float64
	camTargets      [][]float64
	pointVecs       [][]float64
	pointTargets    [][]float64
	numObservations int
	weights         RegularizationWeights
	logger          logging.Logger
}

func newParameters(numCameras int, network controlnet.Network, cfg *Config, logger logging.Logger) (parameters, error) {
	if network == nil {
		return parameters{}, errors.New("control network is required")
	}
	if cfg != nil {
		if err := cfg.Validate("config"); err != nil {
			return parameters{}, err
		}
	}
	if err := controlnet.Validate(network, numCameras); err != nil {
		return parameters{}, errors.Wrap(err, "control network does not match cameras")
	}
	p := parameters{
		network:         network,
		camVecs:         make([][]float64, numCameras),
		camTargets:      make([][]float64, numCameras),
		pointVecs:       make([][]float64, network.NumPoints()),
		pointTargets:    make([][]float64, network.NumPoints()),
		numObservations: controlnet.NumMeasures(network),
		weights:         cfg.weights(),
		logger:          logger,
	}
	for i := range p.pointVecs {
		pos := network.Position(i)
		p.pointVecs[i] = []float64{pos.X, pos.Y, pos.Z}
		p.pointTargets[i] = []float64{pos.X, pos.Y, pos.Z}
	}
	return p, nil
}

// setBaseline installs the construction-time vector of camera j.
func (p *parameters) setBaseline(j int, v []float64) {
	p.camVecs[j] = v
	p.camTargets[j] = append([]float64{}, v...)
}

// NumCameras returns the number of cameras.
func (p *parameters) NumCameras() int {
	return len(p.camVecs)
}

// NumPoints returns the number of control points.
func (p *parameters) NumPoints() int {
	return len(p.pointVecs)
}

// NumPixelObservations returns the number of measures in the network at construction.
func (p *parameters) NumPixelObservations() int {
	return p.numObservations
}

// NumCameraParams is the length of the pose part of a camera vector.
func (p *parameters) NumCameraParams() int {
	return NumCameraParams
}

// NumPointParams is the length of a point vector.
func (p *parameters) NumPointParams() int {
	return NumPointParams
}

// NumIntrinsicParams is the number of intrinsics being solved for.
func (p *parameters) NumIntrinsicParams() int {
	return p.codec.NumIntrinsics
}

// CamParams returns a copy of the current vector of camera j.
func (p *parameters) CamParams(j int) []float64 {
	return append([]float64{}, p.camVecs[j]...)
}

// SetCamParams replaces the vector of camera j.
func (p *parameters) SetCamParams(j int, v []float64) error {
	if len(v) != p.codec.Len() {
		return errors.Wrapf(ErrVectorLength, "camera %d: got %d values, want %d", j, len(v), p.codec.Len())
	}
	p.camVecs[j] = append([]float64{}, v...)
	return nil
}

// PointParams returns a copy of the current vector of point i.
func (p *parameters) PointParams(i int) []float64 {
	return append([]float64{}, p.pointVecs[i]...)
}

// SetPointParams replaces the vector of point i.
func (p *parameters) SetPointParams(i int, v []float64) error {
	if len(v) != NumPointParams {
		return errors.Wrapf(ErrVectorLength, "point %d: got %d values, want %d", i, len(v), NumPointParams)
	}
	p.pointVecs[i] = append([]float64{}, v...)
	return nil
}

// CamTarget returns a copy of the baseline of camera j.
func (p *parameters) CamTarget(j int) []float64 {
	return append([]float64{}, p.camTargets[j]...)
}

// PointTarget returns a copy of the baseline of point i.
func (p *parameters) PointTarget(i int) []float64 {
	return append([]float64{}, p.pointTargets[i]...)
}

// PointInverseCovariance returns the regularization weight of point i.
func (p *parameters) PointInverseCovariance(int) *mat.DiagDense {
	w := p.weights.Point
	return mat.NewDiagDense(NumPointParams, []float64{w, w, w})
}

// poseInverseCovariance is the camera weight matrix with room for numIntrinsics trailing entries.
func (p *parameters) poseInverseCovariance(numIntrinsics int) *mat.DiagDense {
	t, r := p.weights.Translation, p.weights.Rotation
	diag := make([]float64, 0, NumCameraParams+numIntrinsics)
	diag = append(diag, t, t, t, r, r, r)
	for k := 0; k < numIntrinsics; k++ {
		diag = append(diag, p.weights.Intrinsics)
	}
	return mat.NewDiagDense(len(diag), diag)
}

// ConcatExtrinsicsIntrinsics joins separately stored pose and intrinsics buffers.
func (p *parameters) ConcatExtrinsicsIntrinsics(extrinsics, intrinsics []float64) ([]float64, error) {
	return p.codec.Concat(extrinsics, intrinsics)
}

// ControlNetwork returns the network the model was built from.
func (p *parameters) ControlNetwork() controlnet.Network {
	return p.network
}

// AppendPointTrace appends the current point positions to path.
func (p *parameters) AppendPointTrace(path string) error {
	return appendPointTrace(path, p.pointVecs)
}

func pointFromParams(v []float64) (r3.Vector, error) {
	if len(v) != NumPointParams {
		return r3.Vector{}, errors.Wrapf(ErrVectorLength, "got point vector of length %d, want %d", len(v), NumPointParams)
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}
