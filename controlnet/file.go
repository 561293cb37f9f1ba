package controlnet

import (
	"encoding/json"
	"io"
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

type measureJSON struct {
	Camera int        `json:"camera"`
	Pixel  [2]float64 `json:"pixel"`
	Sigma  [2]float64 `json:"sigma"`
}

type pointJSON struct {
	ID       string        `json:"id,omitempty"`
	Type     PointType     `json:"type,omitempty"`
	Position [3]float64    `json:"position"`
	Sigma    [3]float64    `json:"sigma"`
	Measures []measureJSON `json:"measures"`
}

type networkJSON struct {
	Name   string      `json:"name"`
	Points []pointJSON `json:"points"`
}

// MarshalJSON encodes the network as a list of points.
func (cn *ControlNetwork) MarshalJSON() ([]byte, error) {
	out := networkJSON{Name: cn.Name, Points: make([]pointJSON, 0, len(cn.points))}
	for _, cp := range cn.points {
		pj := pointJSON{
			ID:       cp.ID,
			Type:     cp.Type,
			Position: [3]float64{cp.Position.X, cp.Position.Y, cp.Position.Z},
			Sigma:    [3]float64{cp.Sigma.X, cp.Sigma.Y, cp.Sigma.Z},
			Measures: make([]measureJSON, 0, len(cp.Measures)),
		}
		for _, m := range cp.Measures {
			pj.Measures = append(pj.Measures, measureJSON{
				Camera: m.Camera,
				Pixel:  [2]float64{m.Pixel.X, m.Pixel.Y},
				Sigma:  [2]float64{m.Sigma.X, m.Sigma.Y},
			})
		}
		out.Points = append(out.Points, pj)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a network written by MarshalJSON.
func (cn *ControlNetwork) UnmarshalJSON(data []byte) error {
	var in networkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	parsed := New(in.Name)
	for _, pj := range in.Points {
		cp := ControlPoint{
			ID:       pj.ID,
			Type:     pj.Type,
			Position: r3.Vector{X: pj.Position[0], Y: pj.Position[1], Z: pj.Position[2]},
			Sigma:    r3.Vector{X: pj.Sigma[0], Y: pj.Sigma[1], Z: pj.Sigma[2]},
		}
		for _, mj := range pj.Measures {
			cp.Measures = append(cp.Measures, Measure{
				Camera: mj.Camera,
				Pixel:  r2.Point{X: mj.Pixel[0], Y: mj.Pixel[1]},
				Sigma:  r2.Point{X: mj.Sigma[0], Y: mj.Sigma[1]},
			})
		}
		parsed.Add(cp)
	}
	*cn = *parsed
	return nil
}

// Read loads a network from a JSON file.
func Read(path string) (*ControlNetwork, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening control network")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading control network")
	}
	cn := &ControlNetwork{}
	if err := json.Unmarshal(b, cn); err != nil {
		return nil, errors.Wrapf(err, "error parsing control network %q", path)
	}
	return cn, nil
}

// Write saves the network as JSON, replacing any existing file.
func (cn *ControlNetwork) Write(path string) (err error) {
	b, err := json.MarshalIndent(cn, "", "  ")
	if err != nil {
		return err
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "error creating control network %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	_, err = f.Write(append(b, '\n'))
	return err
}
