package bundleadjust

import (
	"bufio"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/bundleadjust/rimage/transform"
	bautils "go.viam.com/bundleadjust/utils"
)

// traceDigits is the number of significant digits written to traces and adjustment files.
const traceDigits = 18

// appendLines opens path for appending, hands a buffered writer to write, then flushes and closes.
func appendLines(path string, write func(w *bufio.Writer) error) (err error) {
	//nolint:gosec
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "cannot open trace %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	return w.Flush()
}

// appendCameraTrace writes one line per camera: index, center xyz, then the orientation
// quaternion as w x y z, tab separated.
func appendCameraTrace(path string, cams []transform.Camera) error {
	return appendLines(path, func(w *bufio.Writer) error {
		for j, cam := range cams {
			center := cam.CameraCenter()
			pose := cam.CameraPose()
			values := []float64{center.X, center.Y, center.Z, pose.Real, pose.Imag, pose.Jmag, pose.Kmag}
			line := strconv.Itoa(j) + "\t" + bautils.JoinFloats(values, traceDigits, "\t") + "\n"
			if _, err := w.WriteString(line); err != nil {
				return err
			}
		}
		return nil
	})
}

// appendPointTrace writes one line per point: index then xyz, tab separated.
func appendPointTrace(path string, points [][]float64) error {
	return appendLines(path, func(w *bufio.Writer) error {
		for i, p := range points {
			line := strconv.Itoa(i) + "\t" + bautils.JoinFloats(p, traceDigits, "\t") + "\n"
			if _, err := w.WriteString(line); err != nil {
				return err
			}
		}
		return nil
	})
}
