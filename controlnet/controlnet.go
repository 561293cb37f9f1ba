// Package controlnet holds the control network of a bundle adjustment: triangulated points and
// the pixels at which each camera observed them.
package controlnet

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// PointType distinguishes points triangulated from matches and surveyed ground control.
type PointType string

const (
	// TiePoint is a point triangulated from image matches.
	TiePoint = PointType("tie")
	// GroundControlPoint is a point with a surveyed position.
	GroundControlPoint = PointType("gcp")
)

// A Measure is one observation of a point by one camera.
type Measure struct {
	Camera int
	Pixel  r2.Point
	Sigma  r2.Point
}

// A ControlPoint is a best-estimate position plus the measures of it.
type ControlPoint struct {
	ID       string
	Type     PointType
	Position r3.Vector
	Sigma    r3.Vector
	Measures []Measure
}

// An Observation is a measure together with the index of the point it belongs to.
type Observation struct {
	Point int
	Measure
}

// Network is the read-only view of a control network used during adjustment.
type Network interface {
	NumPoints() int
	Position(i int) r3.Vector
	Measures(i int) []Measure
}

// ControlNetwork is an in-memory Network.
type ControlNetwork struct {
	Name   string
	points []ControlPoint
}

// New returns an empty network.
func New(name string) *ControlNetwork {
	return &ControlNetwork{Name: name}
}

// Add appends a point and returns its index. The point's measures are copied.
func (cn *ControlNetwork) Add(cp ControlPoint) int {
	if cp.Type == "" {
		cp.Type = TiePoint
	}
	cp.Measures = append([]Measure(nil), cp.Measures...)
	cn.points = append(cn.points, cp)
	return len(cn.points) - 1
}

// NumPoints returns the number of points.
func (cn *ControlNetwork) NumPoints() int {
	return len(cn.points)
}

// Point returns a copy of the i-th point.
func (cn *ControlNetwork) Point(i int) ControlPoint {
	cp := cn.points[i]
	cp.Measures = cn.Measures(i)
	return cp
}

// Position returns the best-estimate position of the i-th point.
func (cn *ControlNetwork) Position(i int) r3.Vector {
	return cn.points[i].Position
}

// Measures returns a copy of the measures of the i-th point.
func (cn *ControlNetwork) Measures(i int) []Measure {
	return append([]Measure(nil), cn.points[i].Measures...)
}

// NumMeasures returns the total number of measures over all points of a network.
func NumMeasures(network Network) int {
	total := 0
	for i := 0; i < network.NumPoints(); i++ {
		total += len(network.Measures(i))
	}
	return total
}

// Observations flattens a network into point order, then measure order.
func Observations(network Network) []Observation {
	obs := make([]Observation, 0, NumMeasures(network))
	for i := 0; i < network.NumPoints(); i++ {
		for _, m := range network.Measures(i) {
			obs = append(obs, Observation{Point: i, Measure: m})
		}
	}
	return obs
}

// Validate checks that every measure refers to a camera in [0, numCameras).
func Validate(network Network, numCameras int) error {
	var errs error
	for i := 0; i < network.NumPoints(); i++ {
		for k, m := range network.Measures(i) {
			if m.Camera < 0 || m.Camera >= numCameras {
				errs = multierr.Append(errs,
					errors.Errorf("point %d measure %d refers to camera %d of %d", i, k, m.Camera, numCameras))
			}
		}
	}
	return errs
}
