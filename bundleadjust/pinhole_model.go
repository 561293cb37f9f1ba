package bundleadjust

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/bundleadjust/controlnet"
	"go.viam.com/bundleadjust/logging"
	"go.viam.com/bundleadjust/rimage/transform"
)

// PinholeModel parameterizes pinhole cameras by absolute position and orientation and, when
// intrinsics are solved for, by focal length, principal point and lens distortion coefficients.
//
// All cameras are assumed to share the intrinsics of the first camera. The pixel pitch is a
// property of the sensor and is never optimized.
type PinholeModel struct {
	parameters
	cameras          []*transform.PinholeCamera
	solveIntrinsics  bool
	sharedIntrinsics Intrinsics
	lens             transform.Distorter
	pixelPitch       float64
}

// NewPinholeModel builds a model over cameras, all of which must be pinhole cameras.
func NewPinholeModel(
	cameras []transform.Camera,
	network controlnet.Network,
	cfg *Config,
	logger logging.Logger,
) (*PinholeModel, error) {
	if logger == nil {
		logger = logging.NewBlankLogger("bundleadjust")
	}
	if len(cameras) == 0 {
		return nil, errors.New("pinhole model needs at least one camera")
	}
	pinholes := make([]*transform.PinholeCamera, len(cameras))
	for j, cam := range cameras {
		if cam == nil {
			return nil, errors.Wrapf(ErrWrongCameraKind, "camera %d is nil", j)
		}
		if kind := cam.Kind(); kind != transform.PinholeKind {
			return nil, errors.Wrapf(ErrWrongCameraKind, "camera %d is %s, want %s", j, kind, transform.PinholeKind)
		}
		pinhole, ok := cam.(*transform.PinholeCamera)
		if !ok {
			return nil, errors.Wrapf(ErrWrongCameraKind, "camera %d reports %s but is %T", j, transform.PinholeKind, cam)
		}
		if err := pinhole.CheckValid(); err != nil {
			return nil, errors.Wrapf(err, "camera %d", j)
		}
		pinholes[j] = pinhole
	}

	params, err := newParameters(len(cameras), network, cfg, logger)
	if err != nil {
		return nil, err
	}
	first := pinholes[0]
	m := &PinholeModel{
		parameters:       params,
		cameras:          pinholes,
		solveIntrinsics:  cfg != nil && cfg.SolveIntrinsics,
		sharedIntrinsics: IntrinsicsFromCamera(first),
		lens:             first.Distortion,
		pixelPitch:       first.PixelPitch,
	}
	if first.Fx != first.Fy {
		logger.Warnw("pinhole model uses one focal length for both axes", "fx", first.Fx, "fy", first.Fy)
	}
	if m.solveIntrinsics {
		m.codec = Codec{NumIntrinsics: m.sharedIntrinsics.Len()}
	}

	for j, cam := range pinholes {
		if cam.Distortion.ModelType() != m.lens.ModelType() {
			if m.solveIntrinsics {
				return nil, errors.Errorf("camera %d has %s distortion, camera 0 has %s",
					j, cam.Distortion.ModelType(), m.lens.ModelType())
			}
			logger.Warnw("camera distortion replaced by the shared lens model",
				"camera", j, "distortion", cam.Distortion.ModelType(), "shared", m.lens.ModelType())
		}
		v, err := m.ParamsFromCamera(cam)
		if err != nil {
			return nil, errors.Wrapf(err, "camera %d", j)
		}
		m.setBaseline(j, v)
		logger.Debugw("pinhole input camera", "camera", j, "model", cam.String(), "params", v)
	}
	logger.Debugw("built pinhole model",
		"cameras", m.NumCameras(), "points", m.NumPoints(), "observations", m.NumPixelObservations(),
		"solve_intrinsics", m.solveIntrinsics)
	return m, nil
}

// Kind reports PinholeModelKind.
func (m *PinholeModel) Kind() ModelKind {
	return PinholeModelKind
}

// IntrinsicsConstant reports whether the intrinsics are held at the shared snapshot.
func (m *PinholeModel) IntrinsicsConstant() bool {
	return !m.solveIntrinsics
}

// SharedIntrinsics returns the intrinsics taken from the first camera at construction.
func (m *PinholeModel) SharedIntrinsics() Intrinsics {
	in := m.sharedIntrinsics
	in.Distortion = append([]float64{}, in.Distortion...)
	return in
}

// PixelPitch returns the fixed pixel pitch.
func (m *PinholeModel) PixelPitch() float64 {
	return m.pixelPitch
}

// CamInverseCovariance returns the regularization weights of camera j, including the
// intrinsics block when it is solved for.
func (m *PinholeModel) CamInverseCovariance(int) *mat.DiagDense {
	return m.poseInverseCovariance(m.NumIntrinsicParams())
}

// IntrinsicsFromCamera extracts the pinhole intrinsics block of a camera. Only Fx is kept as the
// focal length.
func IntrinsicsFromCamera(cam *transform.PinholeCamera) Intrinsics {
	return Intrinsics{
		FocalLength: cam.Fx,
		Ppx:         cam.Ppx,
		Ppy:         cam.Ppy,
		Distortion:  cam.Distortion.Parameters(),
	}
}

// ParamsFromCamera packs a pinhole camera into a vector of this model's layout.
func (m *PinholeModel) ParamsFromCamera(cam *transform.PinholeCamera) ([]float64, error) {
	var intrinsics []float64
	if m.solveIntrinsics {
		intrinsics = IntrinsicsFromCamera(cam).Vector()
	}
	return m.codec.Pack(cam.Center, cam.Orientation, intrinsics)
}

// LensDistortion returns the lens model for an intrinsics vector. With constant intrinsics the
// shared template is returned unchanged; otherwise a new model carrying the coefficients that
// follow the pinhole entries.
func (m *PinholeModel) LensDistortion(intrinsics []float64) (transform.Distorter, error) {
	if !m.solveIntrinsics {
		return m.lens, nil
	}
	if len(intrinsics) < NumPinholeIntrinsics {
		return nil, errors.Wrapf(ErrVectorLength, "got %d intrinsics, want at least %d", len(intrinsics), NumPinholeIntrinsics)
	}
	return m.lens.WithParameters(intrinsics[NumPinholeIntrinsics:])
}

// ParamsToModel builds the pinhole camera described by a vector.
func (m *PinholeModel) ParamsToModel(v []float64) (*transform.PinholeCamera, error) {
	position, rotation, packed, err := m.codec.Unpack(v)
	if err != nil {
		return nil, err
	}
	intrinsics := m.sharedIntrinsics
	if m.solveIntrinsics {
		if intrinsics, err = IntrinsicsFromVector(packed); err != nil {
			return nil, err
		}
	}
	lens, err := m.LensDistortion(intrinsics.Vector())
	if err != nil {
		return nil, err
	}
	return transform.NewPinholeCamera(
		position,
		rotation,
		transform.PinholeCameraIntrinsics{
			Fx:  intrinsics.FocalLength,
			Fy:  intrinsics.FocalLength,
			Ppx: intrinsics.Ppx,
			Ppy: intrinsics.Ppy,
		},
		lens,
		m.pixelPitch,
	)
}

// CamPixel projects the point through the camera described by camParams. It never fails;
// problems are reported as a degenerate Projection.
func (m *PinholeModel) CamPixel(i, j int, camParams, pointParams []float64) Projection {
	proj := projectSafely(func() (r2.Point, error) {
		cam, err := m.ParamsToModel(camParams)
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

// CameraModel returns camera j built from its current vector.
func (m *PinholeModel) CameraModel(j int) (*transform.PinholeCamera, error) {
	cam, err := m.ParamsToModel(m.camVecs[j])
	if err != nil {
		return nil, errors.Wrapf(err, "camera %d", j)
	}
	return cam, nil
}

// CameraModels returns every camera built from its current vector.
func (m *PinholeModel) CameraModels() ([]*transform.PinholeCamera, error) {
	cams := make([]*transform.PinholeCamera, m.NumCameras())
	for j := range cams {
		cam, err := m.CameraModel(j)
		if err != nil {
			return nil, err
		}
		cams[j] = cam
	}
	return cams, nil
}

// AppendCameraTrace appends the current camera poses to path.
func (m *PinholeModel) AppendCameraTrace(path string) error {
	cams, err := m.CameraModels()
	if err != nil {
		return err
	}
	traced := make([]transform.Camera, len(cams))
	for j, cam := range cams {
		traced[j] = cam
	}
	return appendCameraTrace(path, traced)
}

// WriteCameraModels writes camera j to paths[j]. Nothing is written unless there is exactly one
// path per camera and every camera can be built.
func (m *PinholeModel) WriteCameraModels(paths []string) error {
	if len(paths) != m.NumCameras() {
		return errors.Wrapf(ErrCameraPathCount, "got %d paths for %d cameras", len(paths), m.NumCameras())
	}
	cams, err := m.CameraModels()
	if err != nil {
		return err
	}
	for j, cam := range cams {
		m.logger.Infow("writing camera model", "camera", j, "path", paths[j])
		if err := transform.WritePinholeCamera(paths[j], cam); err != nil {
			return errors.Wrapf(err, "camera %d", j)
		}
		m.logger.Debugw("wrote camera model", "camera", j, "model", cam.String())
	}
	return nil
}
