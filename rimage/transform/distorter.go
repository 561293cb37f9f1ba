package transform

import "github.com/pkg/errors"

// DistortionType is the name of the distortion model.
type DistortionType string

const (
	// NoDistortionType is an ideal lens with no distortion parameters.
	NoDistortionType = DistortionType("no_distortion")
	// BrownConradyDistortionType is for simple lenses of narrow field easily modeled as a pinhole camera.
	BrownConradyDistortionType = DistortionType("brown_conrady")
	// InverseBrownConradyDistortionType applies the inverse mapping of the Brown-Conrady model.
	InverseBrownConradyDistortionType = DistortionType("inverse_brown_conrady")
)

// Distorter defines a Transform that takes undistorted normalized image coordinates and distorts
// them according to the model. Implementations are immutable: WithParameters returns a new
// Distorter and never changes the receiver, so a single instance can be shared by readers.
type Distorter interface {
	ModelType() DistortionType
	CheckValid() error
	Parameters() []float64
	Transform(x, y float64) (float64, float64)
	WithParameters(parameters []float64) (Distorter, error)
}

// InvalidDistortionError is used when the distortion_parameters are invalid.
func InvalidDistortionError(msg string) error {
	return errors.Wrap(errors.New("invalid distortion_parameters"), msg)
}

// NewDistorter returns a Distorter given a valid DistortionType and its parameters.
func NewDistorter(distortionType DistortionType, parameters []float64) (Distorter, error) {
	switch distortionType {
	case NoDistortionType, "":
		if len(parameters) != 0 {
			return nil, InvalidDistortionError("no_distortion takes no parameters")
		}
		return NoDistortion{}, nil
	case BrownConradyDistortionType:
		bc, err := NewBrownConrady(parameters)
		if err != nil {
			return nil, err
		}
		return bc, nil
	case InverseBrownConradyDistortionType:
		ibc, err := NewInverseBrownConrady(parameters)
		if err != nil {
			return nil, err
		}
		return ibc, nil
	default:
		return nil, errors.Errorf("do not know how to parse %q distortion model", distortionType)
	}
}

// checkParameterCount guards WithParameters against changing the number of coefficients.
func checkParameterCount(d Distorter, parameters []float64) error {
	if want := len(d.Parameters()); len(parameters) != want {
		return errors.Errorf("%s expects %d parameters, got %d", d.ModelType(), want, len(parameters))
	}
	return nil
}

// NoDistortion is an ideal lens.
type NoDistortion struct{}

// ModelType returns the type of distortion model.
func (NoDistortion) ModelType() DistortionType {
	return NoDistortionType
}

// CheckValid always succeeds.
func (NoDistortion) CheckValid() error {
	return nil
}

// Parameters returns an empty list.
func (NoDistortion) Parameters() []float64 {
	return []float64{}
}

// Transform returns its input.
func (NoDistortion) Transform(x, y float64) (float64, float64) {
	return x, y
}

// WithParameters accepts only an empty parameter list.
func (nd NoDistortion) WithParameters(parameters []float64) (Distorter, error) {
	if err := checkParameterCount(nd, parameters); err != nil {
		return nil, err
	}
	return nd, nil
}
