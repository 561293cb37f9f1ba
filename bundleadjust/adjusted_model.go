package bundleadjust

import (
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/bundleadjust/controlnet"
	"go.viam.com/bundleadjust/logging"
	"go.viam.com/bundleadjust/rimage/transform"
	bautils "go.viam.com/bundleadjust/utils"
)

// AdjustedModel parameterizes arbitrary cameras by a position correction and a rotation
// correction. Camera vectors start at zero, meaning no correction.
type AdjustedModel struct {
	parameters
	cameras []transform.Camera
}

// NewAdjustedModel builds a model over cameras, which may be of any kind.
func NewAdjustedModel(
	cameras []transform.Camera,
	network controlnet.Network,
	cfg *Config,
	logger logging.Logger,
) (*AdjustedModel, error) {
	if logger == nil {
		logger = logging.NewBlankLogger("bundleadjust")
	}
	for j, cam := range cameras {
		if cam == nil {
			return nil, errors.Errorf("camera %d is nil", j)
		}
	}
	params, err := newParameters(len(cameras), network, cfg, logger)
	if err != nil {
		return nil, err
	}
	params.codec = Codec{}
	m := &AdjustedModel{parameters: params, cameras: append([]transform.Camera{}, cameras...)}
	for j := range cameras {
		m.setBaseline(j, make([]float64, NumCameraParams))
	}
	logger.Debugw("built adjusted model",
		"cameras", m.NumCameras(), "points", m.NumPoints(), "observations", m.NumPixelObservations())
	return m, nil
}

// Kind reports AdjustedModelKind.
func (m *AdjustedModel) Kind() ModelKind {
	return AdjustedModelKind
}

// CamInverseCovariance returns the pose regularization weights of camera j.
func (m *AdjustedModel) CamInverseCovariance(int) *mat.DiagDense {
	return m.poseInverseCovariance(0)
}

// CamPixel projects the point through camera j corrected by camParams. It never fails; problems
// are reported as a degenerate Projection.
func (m *AdjustedModel) CamPixel(i, j int, camParams, pointParams []float64) Projection {
	proj := projectSafely(func() (r2.Point, error) {
		cam, err := m.adjust(j, camParams)
		if err != nil {
			return r2.Point{}, err
		}
		pt, err := pointFromParams(pointParams)
		if err != nil {
			return r2.Point{}, err
		}
		return cam.PointToPixel(pt)
	})
	if proj.Degenerate {
		proj.Reason = errors.Wrapf(proj.Reason, "point %d in camera %d", i, j)
	}
	return proj
}

func (m *AdjustedModel) adjust(j int, v []float64) (*transform.AdjustedCamera, error) {
	translation, rotation, _, err := m.codec.Unpack(v)
	if err != nil {
		return nil, err
	}
	return transform.NewAdjustedCamera(m.cameras[j], translation, rotation), nil
}

// AdjustedCamera returns camera j with its current correction applied.
func (m *AdjustedModel) AdjustedCamera(j int) *transform.AdjustedCamera {
	//nolint:errcheck
	cam, _ := m.adjust(j, m.camVecs[j])
	return cam
}

// AdjustedCameras returns every camera with its current correction applied.
func (m *AdjustedModel) AdjustedCameras() []transform.Camera {
	cams := make([]transform.Camera, len(m.cameras))
	for j := range cams {
		cams[j] = m.AdjustedCamera(j)
	}
	return cams
}

// AppendCameraTrace appends the current adjusted camera poses to path.
func (m *AdjustedModel) AppendCameraTrace(path string) error {
	return appendCameraTrace(path, m.AdjustedCameras())
}

// WriteAdjustment writes the correction of camera j: position then axis-angle, on one line.
func (m *AdjustedModel) WriteAdjustment(j int, path string) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot write adjustment of camera %d", j)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	_, err = f.WriteString(bautils.JoinFloats(m.camVecs[j], traceDigits, " ") + "\n")
	return err
}

// ReadAdjustment reads a file written by WriteAdjustment.
func ReadAdjustment(path string) (r3.Vector, quat.Number, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return r3.Vector{}, quat.Number{}, errors.Wrap(err, "cannot read adjustment")
	}
	values, err := bautils.ParseFloats(string(data))
	if err != nil {
		return r3.Vector{}, quat.Number{}, errors.Wrapf(err, "cannot parse adjustment %q", path)
	}
	translation, rotation, _, err := Codec{}.Unpack(values)
	if err != nil {
		return r3.Vector{}, quat.Number{}, errors.Wrapf(err, "cannot parse adjustment %q", path)
	}
	return translation, rotation, nil
}
