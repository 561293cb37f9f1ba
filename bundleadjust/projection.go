package bundleadjust

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// SentinelPixel is reported in place of a pixel for projections that failed.
var SentinelPixel = r2.Point{X: -999999, Y: -999999}

// A Projection is the result of reprojecting a point: either a pixel or a degenerate outcome with
// the reason it could not be computed.
type Projection struct {
	Pixel      r2.Point
	Degenerate bool
	Reason     error
}

// Projected wraps a successfully computed pixel.
func Projected(pixel r2.Point) Projection {
	return Projection{Pixel: pixel}
}

// DegenerateProjection records a failed projection.
func DegenerateProjection(reason error) Projection {
	return Projection{Pixel: SentinelPixel, Degenerate: true, Reason: reason}
}

// Value returns the pixel, or SentinelPixel when the projection is degenerate.
func (p Projection) Value() r2.Point {
	if p.Degenerate {
		return SentinelPixel
	}
	return p.Pixel
}

// projectSafely runs project and turns errors, panics and non-finite pixels into degenerate
// projections so that no failure escapes to the solver.
func projectSafely(project func() (r2.Point, error)) (proj Projection) {
	defer func() {
		if r := recover(); r != nil {
			proj = DegenerateProjection(errors.Errorf("projection panicked: %v", r))
		}
	}()
	pixel, err := project()
	if err != nil {
		return DegenerateProjection(err)
	}
	if math.IsNaN(pixel.X) || math.IsNaN(pixel.Y) || math.IsInf(pixel.X, 0) || math.IsInf(pixel.Y, 0) {
		return DegenerateProjection(errors.Errorf("projection produced non-finite pixel %v", pixel))
	}
	return Projected(pixel)
}
