package camerarig

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidIntrinsics is wrapped by all Intrinsics validation errors.
var ErrInvalidIntrinsics = errors.New("invalid camera intrinsics")

// Intrinsics describe a pinhole camera shared by every view.
type Intrinsics struct {
	Width  int
	Height int
	Fx     float64
	Fy     float64
	Cx     float64
	Cy     float64
}

// DefaultIntrinsics uses a focal length of half the image width
// (a 90 degree horizontal field of view) and a centered
// principal point.
func DefaultIntrinsics(width, height int) *Intrinsics {
	return &Intrinsics{
		Width:  width,
		Height: height,
		Fx:     0.5 * float64(width),
		Fy:     0.5 * float64(width),
		Cx:     0.5 * float64(width),
		Cy:     0.5 * float64(height),
	}
}

// Validate returns an error wrapping ErrInvalidIntrinsics if the
// image is empty or the focal lengths cannot be divided by.
func (in *Intrinsics) Validate() error {
	if in == nil {
		return errors.Wrap(ErrInvalidIntrinsics, "missing intrinsics")
	}
	if in.Width <= 0 || in.Height <= 0 {
		return errors.Wrapf(ErrInvalidIntrinsics, "image size %dx%d", in.Width, in.Height)
	}
	if !(in.Fx > 0) || math.IsInf(in.Fx, 0) {
		return errors.Wrapf(ErrInvalidIntrinsics, "focal length fx=%v", in.Fx)
	}
	if !(in.Fy > 0) || math.IsInf(in.Fy, 0) {
		return errors.Wrapf(ErrInvalidIntrinsics, "focal length fy=%v", in.Fy)
	}
	if math.IsNaN(in.Cx) || math.IsInf(in.Cx, 0) || math.IsNaN(in.Cy) || math.IsInf(in.Cy, 0) {
		return errors.Wrapf(ErrInvalidIntrinsics, "principal point (%v, %v)", in.Cx, in.Cy)
	}
	return nil
}

// CameraAngleX is the horizontal field of view in radians.
func (in *Intrinsics) CameraAngleX() float64 {
	return 2 * math.Atan(float64(in.Width)/(2*in.Fx))
}

// Project maps a camera-space point to pixel coordinates before
// rounding. The point must be in front of the camera.
func (in *Intrinsics) Project(x, y, z float64) (float64, float64) {
	return in.Fx*x/z + in.Cx, in.Fy*y/z + in.Cy
}

// Unproject is the inverse of Project for a known depth.
func (in *Intrinsics) Unproject(u, v, z float64) (float64, float64, float64) {
	return (u - in.Cx) / in.Fx * z, (v - in.Cy) / in.Fy * z, z
}
