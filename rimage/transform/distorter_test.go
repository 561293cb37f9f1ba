package transform

import (
	"testing"

	"go.viam.com/test"
)

func TestNewDistorter(t *testing.T) {
	d, err := NewDistorter(NoDistortionType, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d.ModelType(), test.ShouldEqual, NoDistortionType)
	test.That(t, d.Parameters(), test.ShouldHaveLength, 0)

	_, err = NewDistorter(NoDistortionType, []float64{1})
	test.That(t, err, test.ShouldNotBeNil)

	d, err = NewDistorter(BrownConradyDistortionType, []float64{0.1, 0.01})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d.Parameters(), test.ShouldResemble, []float64{0.1, 0.01, 0, 0, 0})

	d, err = NewDistorter(InverseBrownConradyDistortionType, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d.Parameters(), test.ShouldResemble, []float64{0, 0, 0, 0, 0})

	_, err = NewDistorter(BrownConradyDistortionType, []float64{1, 2, 3, 4, 5, 6})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "too long")

	_, err = NewDistorter("fisheye", nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBrownConradyTransform(t *testing.T) {
	bc, err := NewBrownConrady([]float64{0.1, -0.02, 0.003, 0.001, -0.002})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bc.CheckValid(), test.ShouldBeNil)

	x, y := bc.Transform(0, 0)
	test.That(t, x, test.ShouldEqual, 0)
	test.That(t, y, test.ShouldEqual, 0)

	// pure radial distortion along the x axis
	radial, err := NewBrownConrady([]float64{0.1})
	test.That(t, err, test.ShouldBeNil)
	x, y = radial.Transform(0.5, 0)
	test.That(t, x, test.ShouldAlmostEqual, 0.5*(1+0.1*0.25))
	test.That(t, y, test.ShouldAlmostEqual, 0)

	inverse, err := NewInverseBrownConrady(bc.Parameters())
	test.That(t, err, test.ShouldBeNil)
	for _, pt := range [][2]float64{{0.1, 0.2}, {-0.3, 0.05}, {0.25, -0.25}} {
		xd, yd := bc.Transform(pt[0], pt[1])
		xu, yu := inverse.Transform(xd, yd)
		test.That(t, xu, test.ShouldAlmostEqual, pt[0], 1e-8)
		test.That(t, yu, test.ShouldAlmostEqual, pt[1], 1e-8)
	}
}

func TestWithParametersLeavesTemplateUntouched(t *testing.T) {
	template, err := NewBrownConrady([]float64{0.1, 0.2, 0.3, 0.4, 0.5})
	test.That(t, err, test.ShouldBeNil)

	changed, err := template.WithParameters([]float64{1, 2, 3, 4, 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, changed.Parameters(), test.ShouldResemble, []float64{1, 2, 3, 4, 5})
	test.That(t, template.Parameters(), test.ShouldResemble, []float64{0.1, 0.2, 0.3, 0.4, 0.5})

	_, err = template.WithParameters([]float64{1, 2})
	test.That(t, err, test.ShouldNotBeNil)

	ibc := &InverseBrownConrady{}
	changedInverse, err := ibc.WithParameters([]float64{1, 2, 3, 4, 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, changedInverse.ModelType(), test.ShouldEqual, InverseBrownConradyDistortionType)
	test.That(t, ibc.Parameters(), test.ShouldResemble, []float64{0, 0, 0, 0, 0})

	none, err := NoDistortion{}.WithParameters(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, none, test.ShouldResemble, NoDistortion{})
	_, err = NoDistortion{}.WithParameters([]float64{1})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestInvalidDistortionErrorMessage(t *testing.T) {
	err := InvalidDistortionError("k1 off by 5%")
	test.That(t, err.Error(), test.ShouldEqual, "k1 off by 5%: invalid distortion_parameters")
}
