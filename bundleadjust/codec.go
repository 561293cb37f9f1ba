package bundleadjust

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/bundleadjust/spatialmath"
)

const (
	// NumCameraParams is the length of the pose part of a camera vector: position then axis-angle.
	NumCameraParams = 6
	// NumPointParams is the length of a point vector.
	NumPointParams = 3
	// NumPinholeIntrinsics is focal length and principal point x, y.
	NumPinholeIntrinsics = 3
)

// A Codec packs a camera pose and an optional intrinsics block into one flat vector.
//
// Layout: [0,3) position, [3,6) axis-angle rotation, [6,6+NumIntrinsics) intrinsics.
type Codec struct {
	NumIntrinsics int
}

// Len is the length of every vector this codec produces.
func (c Codec) Len() int {
	return NumCameraParams + c.NumIntrinsics
}

// Pack builds a camera vector. intrinsics must hold exactly NumIntrinsics values.
func (c Codec) Pack(position r3.Vector, rotation quat.Number, intrinsics []float64) ([]float64, error) {
	if len(intrinsics) != c.NumIntrinsics {
		return nil, errors.Wrapf(ErrVectorLength, "got %d intrinsics, want %d", len(intrinsics), c.NumIntrinsics)
	}
	aa := spatialmath.QuatToAxisAngle(rotation)
	v := make([]float64, 0, c.Len())
	v = append(v, position.X, position.Y, position.Z, aa.X, aa.Y, aa.Z)
	return append(v, intrinsics...), nil
}

// Unpack splits a camera vector into position, unit rotation and a copy of the intrinsics.
func (c Codec) Unpack(v []float64) (r3.Vector, quat.Number, []float64, error) {
	if len(v) != c.Len() {
		return r3.Vector{}, quat.Number{}, nil,
			errors.Wrapf(ErrVectorLength, "got camera vector of length %d, want %d", len(v), c.Len())
	}
	position := r3.Vector{X: v[0], Y: v[1], Z: v[2]}
	rotation := spatialmath.AxisAngleToQuat(r3.Vector{X: v[3], Y: v[4], Z: v[5]})
	intrinsics := append([]float64{}, v[NumCameraParams:]...)
	return position, rotation, intrinsics, nil
}

// Concat joins separately stored extrinsics and intrinsics buffers into one camera vector.
func (c Codec) Concat(extrinsics, intrinsics []float64) ([]float64, error) {
	if len(extrinsics) != NumCameraParams {
		return nil, errors.Wrapf(ErrVectorLength, "got %d extrinsics, want %d", len(extrinsics), NumCameraParams)
	}
	if len(intrinsics) != c.NumIntrinsics {
		return nil, errors.Wrapf(ErrVectorLength, "got %d intrinsics, want %d", len(intrinsics), c.NumIntrinsics)
	}
	v := make([]float64, 0, c.Len())
	v = append(v, extrinsics...)
	return append(v, intrinsics...), nil
}

// Intrinsics is the pinhole block of a camera vector. Focal length applies to both axes.
type Intrinsics struct {
	FocalLength float64
	Ppx         float64
	Ppy         float64
	Distortion  []float64
}

// Len is the number of values in the flattened block.
func (in Intrinsics) Len() int {
	return NumPinholeIntrinsics + len(in.Distortion)
}

// Vector flattens the block: focal length, ppx, ppy, then distortion coefficients.
func (in Intrinsics) Vector() []float64 {
	v := make([]float64, 0, in.Len())
	v = append(v, in.FocalLength, in.Ppx, in.Ppy)
	return append(v, in.Distortion...)
}

// IntrinsicsFromVector is the inverse of Intrinsics.Vector.
func IntrinsicsFromVector(v []float64) (Intrinsics, error) {
	if len(v) < NumPinholeIntrinsics {
		return Intrinsics{}, errors.Wrapf(ErrVectorLength, "intrinsics need at least %d values, got %d", NumPinholeIntrinsics, len(v))
	}
	return Intrinsics{
		FocalLength: v[0],
		Ppx:         v[1],
		Ppy:         v[2],
		Distortion:  append([]float64{}, v[NumPinholeIntrinsics:]...),
	}, nil
}
