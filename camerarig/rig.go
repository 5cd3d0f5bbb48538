package camerarig

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// RigConfig configures NewRig.
type RigConfig struct {
	// Views is the number of directions to sample.
	Views int

	// Radii are the camera distances used for every direction.
	Radii []float64

	Center model3d.Coord3D

	// Layout defaults to FibonacciSphere.
	Layout DirectionGen

	// Up defaults to YUp.
	Up *model3d.Coord3D
}

// Validate checks the configuration before any camera is created.
func (r *RigConfig) Validate() error {
	if r.Views < 0 {
		return errors.Errorf("invalid view count %d", r.Views)
	}
	if len(r.Radii) == 0 {
		return errors.New("at least one radius is required")
	}
	for _, radius := range r.Radii {
		if math.IsNaN(radius) || math.IsInf(radius, 0) {
			return errors.Errorf("invalid radius %f", radius)
		}
	}
	for _, x := range r.Center.Array() {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errors.Errorf("invalid center %v", r.Center)
		}
	}
	return nil
}

// A Rig is an ordered, immutable set of camera poses.
type Rig struct {
	Poses []*Pose
	Views int
	Radii []float64
}

// NewRig creates a camera for every sampled direction at every
// radius, all facing the center.
//
// Poses are ordered by direction, then by radius, so the radius
// varies fastest.
//
// If any camera is degenerate, the error names its index and no
// rig is returned.
func NewRig(cfg *RigConfig) (*Rig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	layout := cfg.Layout
	if layout == nil {
		layout = FibonacciSphere{}
	}
	up := YUp
	if cfg.Up != nil {
		up = *cfg.Up
	}

	positions := CameraPositions(layout.Directions(cfg.Views), cfg.Radii, cfg.Center)
	poses := make([]*Pose, len(positions))
	for i, pos := range positions {
		pose, err := LookAt(pos, cfg.Center, up)
		if err != nil {
			return nil, errors.Wrapf(err, "view %d", i)
		}
		poses[i] = pose
	}
	return &Rig{
		Poses: poses,
		Views: cfg.Views,
		Radii: append([]float64{}, cfg.Radii...),
	}, nil
}

// CameraPositions places a camera along each direction at each
// radius, with the radius varying fastest.
func CameraPositions(dirs []model3d.Coord3D, radii []float64, center model3d.Coord3D) []model3d.Coord3D {
	res := make([]model3d.Coord3D, 0, len(dirs)*len(radii))
	for _, d := range dirs {
		for _, radius := range radii {
			res = append(res, d.Scale(radius).Add(center))
		}
	}
	return res
}

// Len returns the number of cameras.
func (r *Rig) Len() int {
	return len(r.Poses)
}
