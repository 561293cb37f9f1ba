package bundleadjust

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestProjectSafely(t *testing.T) {
	proj := projectSafely(func() (r2.Point, error) { return r2.Point{X: 1, Y: 2}, nil })
	test.That(t, proj.Degenerate, test.ShouldBeFalse)
	test.That(t, proj.Reason, test.ShouldBeNil)
	test.That(t, proj.Value(), test.ShouldResemble, r2.Point{X: 1, Y: 2})

	// a legitimate pixel that happens to equal the sentinel is still a projection
	proj = projectSafely(func() (r2.Point, error) { return SentinelPixel, nil })
	test.That(t, proj.Degenerate, test.ShouldBeFalse)

	boom := errors.New("boom")
	proj = projectSafely(func() (r2.Point, error) { return r2.Point{X: 1}, boom })
	test.That(t, proj.Degenerate, test.ShouldBeTrue)
	test.That(t, proj.Reason, test.ShouldEqual, boom)
	test.That(t, proj.Value(), test.ShouldResemble, SentinelPixel)

	proj = projectSafely(func() (r2.Point, error) { panic("singular") })
	test.That(t, proj.Degenerate, test.ShouldBeTrue)
	test.That(t, proj.Reason.Error(), test.ShouldContainSubstring, "singular")
	test.That(t, proj.Value(), test.ShouldResemble, r2.Point{X: -999999, Y: -999999})

	proj = projectSafely(func() (r2.Point, error) { return r2.Point{X: math.NaN()}, nil })
	test.That(t, proj.Degenerate, test.ShouldBeTrue)
	proj = projectSafely(func() (r2.Point, error) { return r2.Point{Y: math.Inf(-1)}, nil })
	test.That(t, proj.Degenerate, test.ShouldBeTrue)
}
