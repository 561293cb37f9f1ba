package bundleadjust

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// RegularizationWeights are the diagonal inverse covariances of the regularization terms that
// anchor parameters to their baselines.
type RegularizationWeights struct {
	Translation float64 `json:"translation"`
	Rotation    float64 `json:"rotation"`
	Point       float64 `json:"point"`
	Intrinsics  float64 `json:"intrinsics"`
}

// DefaultRegularizationWeights penalizes translation far more gently than rotation. Intrinsics are
// left unregularized.
func DefaultRegularizationWeights() *RegularizationWeights {
	return &RegularizationWeights{
		Translation: 1 / 100.0,
		Rotation:    1 / 0.1,
		Point:       1 / 20.0,
		Intrinsics:  0,
	}
}

// Validate checks that every weight is finite and non-negative.
func (w *RegularizationWeights) Validate(path string) error {
	for _, field := range []struct {
		name  string
		value float64
	}{
		{"translation", w.Translation},
		{"rotation", w.Rotation},
		{"point", w.Point},
		{"intrinsics", w.Intrinsics},
	} {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) || field.value < 0 {
			return utils.NewConfigValidationError(path,
				errors.Errorf("weight %q must be finite and non-negative, got %v", field.name, field.value))
		}
	}
	return nil
}

// Config configures a model.
type Config struct {
	// SolveIntrinsics floats the pinhole intrinsics block. Ignored by the adjusted model.
	SolveIntrinsics bool                   `json:"solve_intrinsics,omitempty"`
	Weights         *RegularizationWeights `json:"weights,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Weights != nil {
		return cfg.Weights.Validate(fmt.Sprintf("%s.%s", path, "weights"))
	}
	return nil
}

// weights returns the configured weights or the defaults. A nil config is the default config.
func (cfg *Config) weights() RegularizationWeights {
	if cfg == nil || cfg.Weights == nil {
		return *DefaultRegularizationWeights()
	}
	return *cfg.Weights
}

// ProjectConfig describes one evaluation run: which cameras and network to load, which model to
// build and where outputs go.
type ProjectConfig struct {
	Cameras      []string  `json:"cameras"`
	Network      string    `json:"network"`
	Model        ModelKind `json:"model"`
	OutputPrefix string    `json:"output_prefix"`
	// Adjustments optionally seeds an adjusted model with one correction file per camera.
	Adjustments []string `json:"adjustments,omitempty"`
	Config
}

// Validate ensures all parts of the config are valid.
func (pc *ProjectConfig) Validate(path string) error {
	if len(pc.Cameras) == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "cameras")
	}
	if pc.Network == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "network")
	}
	switch pc.Model {
	case AdjustedModelKind, PinholeModelKind:
	case "":
		return utils.NewConfigValidationFieldRequiredError(path, "model")
	default:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown model %q", pc.Model))
	}
	if pc.OutputPrefix == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "output_prefix")
	}
	if len(pc.Adjustments) != 0 {
		if pc.Model != AdjustedModelKind {
			return utils.NewConfigValidationError(path, errors.New("adjustments only apply to the adjusted model"))
		}
		if len(pc.Adjustments) != len(pc.Cameras) {
			return utils.NewConfigValidationError(path,
				errors.Errorf("got %d adjustments for %d cameras", len(pc.Adjustments), len(pc.Cameras)))
		}
	}
	return pc.Config.Validate(path)
}

// ReadProjectConfig loads and validates a project file. Relative paths inside it are resolved
// against the directory holding the file.
func ReadProjectConfig(path string) (*ProjectConfig, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read project config")
	}
	var pc ProjectConfig
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, errors.Wrapf(err, "cannot parse project config %q", path)
	}
	if err := pc.Validate("project"); err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i, cam := range pc.Cameras {
		pc.Cameras[i] = resolve(cam)
	}
	for i, adj := range pc.Adjustments {
		pc.Adjustments[i] = resolve(adj)
	}
	pc.Network = resolve(pc.Network)
	pc.OutputPrefix = resolve(pc.OutputPrefix)
	return &pc, nil
}
