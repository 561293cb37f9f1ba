// Package main evaluates a bundle adjustment project: it loads cameras and a control network,
// builds a model, reports reprojection statistics and writes the model's outputs.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/bundleadjust/bundleadjust"
	"go.viam.com/bundleadjust/controlnet"
	"go.viam.com/bundleadjust/logging"
	"go.viam.com/bundleadjust/rimage/transform"
	bautils "go.viam.com/bundleadjust/utils"
)

const (
	flagConfig = "config"
	flagDebug  = "debug"
	flagWrite  = "write"
	flagTrace  = "trace"
)

func main() {
	app := newApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		logging.Global().Errorw("evaluate failed", "error", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "evaluate",
		Usage:     "report reprojection error of a bundle adjustment project",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagConfig,
				Aliases:  []string{"c"},
				Usage:    "load project from `FILE`",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  flagWrite,
				Usage: "write adjustment or camera files next to the output prefix",
			},
			&cli.BoolFlag{
				Name:  flagTrace,
				Usage: "append camera and point traces",
			},
		},
		Action: func(c *cli.Context) error {
			logger := logging.NewLogger("evaluate")
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("evaluate")
			}
			logging.ReplaceGlobal(logger)
			pc, err := bundleadjust.ReadProjectConfig(c.String(flagConfig))
			if err != nil {
				return err
			}
			return evaluate(c.Context, pc, options{write: c.Bool(flagWrite), trace: c.Bool(flagTrace)}, c.App.Writer, logger)
		},
	}
}

type options struct {
	write bool
	trace bool
}

func evaluate(ctx context.Context, pc *bundleadjust.ProjectConfig, opts options, out io.Writer, logger logging.Logger) (err error) {
	tmp := bautils.NewTempFiles()
	defer func() {
		err = multierr.Combine(err, tmp.Close())
	}()

	model, err := loadModel(pc, logger)
	if err != nil {
		return err
	}

	report, err := bundleadjust.ComputeResiduals(ctx, model)
	if err != nil {
		return err
	}
	logger.Infow("reprojection", "observations", len(report.Residuals), "degenerate", report.Degenerate, "rms", report.RMS)
	if _, err := fmt.Fprintf(out, "model: %s\ncameras: %d\npoints: %d\nobservations: %d\ndegenerate: %d\nrms: %s\nmedian: %s\nmax: %s\n",
		model.Kind(), model.NumCameras(), model.NumPoints(), model.NumPixelObservations(), report.Degenerate,
		bautils.FormatFloat(report.RMS, 6), bautils.FormatFloat(report.Median, 6), bautils.FormatFloat(report.Max, 6)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, cameraTable(report.ByCamera(model.NumCameras()))); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(pc.OutputPrefix), 0o750); err != nil {
		return errors.Wrap(err, "cannot create output directory")
	}
	if opts.trace {
		if err := model.AppendCameraTrace(pc.OutputPrefix + "-cameras.txt"); err != nil {
			return err
		}
		if err := model.AppendPointTrace(pc.OutputPrefix + "-points.txt"); err != nil {
			return err
		}
	}
	if opts.write {
		return writeOutputs(model, pc.OutputPrefix, tmp, logger)
	}
	return nil
}

// cameraTable prints one row per camera.
func cameraTable(summaries []bundleadjust.CameraSummary) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Camera", "Observations", "Degenerate", "RMS"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Camera, s.Observations, s.Degenerate, bautils.FormatFloat(s.RMS, 6)})
	}
	return t.Render()
}

func loadModel(pc *bundleadjust.ProjectConfig, logger logging.Logger) (bundleadjust.Model, error) {
	network, err := controlnet.Read(pc.Network)
	if err != nil {
		return nil, err
	}
	cameras := make([]transform.Camera, len(pc.Cameras))
	for j, path := range pc.Cameras {
		cam, err := transform.ReadPinholeCamera(path)
		if err != nil {
			return nil, errors.Wrapf(err, "camera %d", j)
		}
		cameras[j] = cam
	}
	logger.Debugw("loaded project", "cameras", len(cameras), "points", network.NumPoints(), "network", network.Name)

	switch pc.Model {
	case bundleadjust.PinholeModelKind:
		return bundleadjust.NewPinholeModel(cameras, network, &pc.Config, logger.Sublogger("pinhole"))
	case bundleadjust.AdjustedModelKind:
		model, err := bundleadjust.NewAdjustedModel(cameras, network, &pc.Config, logger.Sublogger("adjusted"))
		if err != nil {
			return nil, err
		}
		for j, path := range pc.Adjustments {
			translation, rotation, err := bundleadjust.ReadAdjustment(path)
			if err != nil {
				return nil, err
			}
			v, err := bundleadjust.Codec{}.Pack(translation, rotation, nil)
			if err != nil {
				return nil, err
			}
			if err := model.SetCamParams(j, v); err != nil {
				return nil, err
			}
		}
		return model, nil
	default:
		return nil, errors.Errorf("unknown model %q", pc.Model)
	}
}

// writeOutputs writes every file to a temporary path first and only moves the set into place
// once all of them were written.
func writeOutputs(model bundleadjust.Model, prefix string, tmp *bautils.TempFiles, logger logging.Logger) error {
	dir := filepath.Dir(prefix)
	var final []string
	var staged []string
	switch m := model.(type) {
	case *bundleadjust.AdjustedModel:
		for j := 0; j < m.NumCameras(); j++ {
			path, err := tmp.TempPath(dir, "adjust-*")
			if err != nil {
				return err
			}
			if err := m.WriteAdjustment(j, path); err != nil {
				return err
			}
			staged = append(staged, path)
			final = append(final, fmt.Sprintf("%s-%d.adjust", prefix, j))
		}
	case *bundleadjust.PinholeModel:
		for j := 0; j < m.NumCameras(); j++ {
			path, err := tmp.TempPath(dir, "camera-*")
			if err != nil {
				return err
			}
			staged = append(staged, path)
			final = append(final, fmt.Sprintf("%s-%d.json", prefix, j))
		}
		if err := m.WriteCameraModels(staged); err != nil {
			return err
		}
	default:
		return errors.Errorf("cannot write outputs of %s model", model.Kind())
	}
	for k := range staged {
		if err := tmp.Commit(staged[k], final[k]); err != nil {
			return err
		}
		logger.Infow("wrote", "path", final[k])
	}
	return nil
}
