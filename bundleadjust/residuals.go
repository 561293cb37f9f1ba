package bundleadjust

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/bundleadjust/controlnet"
	bautils "go.viam.com/bundleadjust/utils"
)

// A Residual is the reprojection of one observation under the model's current vectors.
type Residual struct {
	controlnet.Observation
	Projection Projection
	// Error is the pixel distance between the measure and Projection.Value().
	Error float64
}

// ResidualReport summarizes the reprojection of every observation.
type ResidualReport struct {
	Residuals []Residual
	// RMS, Median and Max are over non-degenerate observations only; zero if there are none.
	RMS        float64
	Median     float64
	Max        float64
	Degenerate int
}

// CameraSummary is the part of a ResidualReport that concerns one camera.
type CameraSummary struct {
	Camera       int
	Observations int
	Degenerate   int
	RMS          float64
}

// ComputeResiduals reprojects every observation of the model's control network with the current
// camera and point vectors. Observations are evaluated in parallel; the model is only read. A
// panic inside the model fails the whole evaluation.
func ComputeResiduals(ctx context.Context, model Model) (*ResidualReport, error) {
	obs := controlnet.Observations(model.ControlNetwork())
	if len(obs) != model.NumPixelObservations() {
		return nil, errors.Errorf("network has %d observations, model was built with %d",
			len(obs), model.NumPixelObservations())
	}

	camParams := make([][]float64, model.NumCameras())
	for j := range camParams {
		camParams[j] = model.CamParams(j)
	}
	pointParams := make([][]float64, model.NumPoints())
	for i := range pointParams {
		pointParams[i] = model.PointParams(i)
	}

	residuals := make([]Residual, len(obs))
	err := bautils.GroupWorkParallel(ctx, len(obs), nil,
		func(groupNum, groupSize, from, to int) (bautils.MemberWorkFunc, bautils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				o := obs[workNum]
				proj := model.CamPixel(o.Point, o.Camera, camParams[o.Camera], pointParams[o.Point])
				residuals[workNum] = Residual{
					Observation: o,
					Projection:  proj,
					Error:       ImageCompare(o.Pixel, proj.Value()),
				}
			}, nil
		})
	if err != nil {
		return nil, err
	}

	report := &ResidualReport{Residuals: residuals}
	good := make([]float64, 0, len(residuals))
	for _, r := range residuals {
		if r.Projection.Degenerate {
			report.Degenerate++
			continue
		}
		good = append(good, r.Error)
	}
	if len(good) > 0 {
		report.RMS = floats.Norm(good, 2) / math.Sqrt(float64(len(good)))
		if report.Median, err = stats.Median(good); err != nil {
			return nil, err
		}
		if report.Max, err = stats.Max(good); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// ByCamera splits the report per camera.
func (r *ResidualReport) ByCamera(numCameras int) []CameraSummary {
	summaries := make([]CameraSummary, numCameras)
	sumSq := make([]float64, numCameras)
	for j := range summaries {
		summaries[j].Camera = j
	}
	for _, res := range r.Residuals {
		s := &summaries[res.Camera]
		s.Observations++
		if res.Projection.Degenerate {
			s.Degenerate++
			continue
		}
		sumSq[res.Camera] += res.Error * res.Error
	}
	for j := range summaries {
		if n := summaries[j].Observations - summaries[j].Degenerate; n > 0 {
			summaries[j].RMS = math.Sqrt(sumSq[j] / float64(n))
		}
	}
	return summaries
}
