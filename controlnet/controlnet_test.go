package controlnet

import (
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func testNetwork() *ControlNetwork {
	cn := New("test")
	cn.Add(ControlPoint{
		ID:       "a",
		Position: r3.Vector{X: 1, Y: 2, Z: 3},
		Measures: []Measure{{Camera: 0, Pixel: r2.Point{X: 10, Y: 20}}, {Camera: 1, Pixel: r2.Point{X: 11, Y: 21}}},
	})
	cn.Add(ControlPoint{
		ID:       "b",
		Type:     GroundControlPoint,
		Position: r3.Vector{X: -1, Y: 0, Z: 5},
		Sigma:    r3.Vector{X: 0.1, Y: 0.1, Z: 0.2},
		Measures: []Measure{{Camera: 1, Pixel: r2.Point{X: 5, Y: 6}, Sigma: r2.Point{X: 1, Y: 1}}},
	})
	cn.Add(ControlPoint{ID: "c", Position: r3.Vector{Z: 1}})
	return cn
}

func TestControlNetwork(t *testing.T) {
	cn := testNetwork()
	test.That(t, cn.NumPoints(), test.ShouldEqual, 3)
	test.That(t, NumMeasures(cn), test.ShouldEqual, 3)
	test.That(t, cn.Position(1), test.ShouldResemble, r3.Vector{X: -1, Y: 0, Z: 5})
	test.That(t, cn.Point(0).Type, test.ShouldEqual, TiePoint)
	test.That(t, cn.Point(1).Type, test.ShouldEqual, GroundControlPoint)

	obs := Observations(cn)
	test.That(t, obs, test.ShouldHaveLength, 3)
	test.That(t, obs[0].Point, test.ShouldEqual, 0)
	test.That(t, obs[2].Point, test.ShouldEqual, 1)
	test.That(t, obs[2].Pixel, test.ShouldResemble, r2.Point{X: 5, Y: 6})

	t.Run("measures are copies", func(t *testing.T) {
		measures := cn.Measures(0)
		measures[0].Pixel = r2.Point{}
		test.That(t, cn.Measures(0)[0].Pixel, test.ShouldResemble, r2.Point{X: 10, Y: 20})
	})

	test.That(t, Validate(cn, 2), test.ShouldBeNil)
	err := Validate(cn, 1)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "refers to camera 1 of 1")
}

func TestControlNetworkFile(t *testing.T) {
	cn := testNetwork()
	path := filepath.Join(t.TempDir(), "cnet.json")
	test.That(t, cn.Write(path), test.ShouldBeNil)

	read, err := Read(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.Name, test.ShouldEqual, "test")
	test.That(t, read.NumPoints(), test.ShouldEqual, cn.NumPoints())
	for i := 0; i < cn.NumPoints(); i++ {
		test.That(t, read.Point(i).ID, test.ShouldEqual, cn.Point(i).ID)
		test.That(t, read.Point(i).Type, test.ShouldEqual, cn.Point(i).Type)
		test.That(t, read.Position(i), test.ShouldResemble, cn.Position(i))
		test.That(t, read.Point(i).Sigma, test.ShouldResemble, cn.Point(i).Sigma)
		test.That(t, read.Measures(i), test.ShouldResemble, cn.Measures(i))
	}

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestControlNetworkJSONSigma(t *testing.T) {
	cn := New("sigma")
	cn.Add(ControlPoint{Position: r3.Vector{Z: 1}, Measures: []Measure{{Camera: 0, Pixel: r2.Point{X: 1, Y: 2}}}})
	data, err := cn.MarshalJSON()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, `"sigma":[0,0,0]`)
	test.That(t, string(data), test.ShouldContainSubstring, `"sigma":[0,0]`)
}
