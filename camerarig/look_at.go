package camerarig

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

const degenerateEpsilon = 1e-9

var (
	// ErrZeroForward is returned when a camera sits on its target.
	ErrZeroForward = errors.New("zero-length forward vector")

	// ErrParallelUp is returned when the up hint is parallel to the
	// viewing direction, leaving the right vector undefined.
	ErrParallelUp = errors.New("up vector parallel to view direction")
)

// YUp is the default up hint for LookAt.
var YUp = model3d.XYZ(0, 1, 0)

// LookAt creates a pose for a camera at pos facing target.
//
// The up hint only needs to be roughly upward; the resulting
// up vector is recomputed to be orthogonal to the view direction.
func LookAt(pos, target, up model3d.Coord3D) (*Pose, error) {
	forward := target.Sub(pos)
	if !(forward.Norm() >= degenerateEpsilon) {
		return nil, ErrZeroForward
	}
	forward = forward.Normalize()

	right := up.Cross(forward)
	if !(right.Norm() >= degenerateEpsilon) {
		return nil, ErrParallelUp
	}
	right = right.Normalize()

	return &Pose{
		Origin:  pos,
		Right:   right,
		Up:      forward.Cross(right),
		Forward: forward,
	}, nil
}
