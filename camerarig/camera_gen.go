package camerarig

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// A DirectionGen produces unit viewing directions, pointing from
// the scene center towards the cameras.
type DirectionGen interface {
	Directions(total int) []model3d.Coord3D
}

// FibonacciSphere spreads directions quasi-uniformly over the unit
// sphere using a Fibonacci lattice. The result depends only on the
// number of directions.
type FibonacciSphere struct{}

func (f FibonacciSphere) Directions(total int) []model3d.Coord3D {
	if total <= 0 {
		return nil
	}
	offset := 2.0 / float64(total)
	increment := math.Pi * (3 - math.Sqrt(5))
	res := make([]model3d.Coord3D, total)
	for i := 0; i < total; i++ {
		y := (float64(i)*offset - 1) + offset/2
		r := math.Sqrt(math.Max(0, 1-y*y))
		phi := float64(i) * increment
		res[i] = model3d.XYZ(math.Cos(phi)*r, y, math.Sin(phi)*r)
	}
	return res
}

// Ring places directions evenly around a circle by rotating Offset
// about Axis.
type Ring struct {
	Axis   model3d.Coord3D
	Offset model3d.Coord3D
}

// NewYRing creates a horizontal ring starting at +Z.
func NewYRing() *Ring {
	return &Ring{
		Axis:   model3d.XYZ(0, 1, 0),
		Offset: model3d.XYZ(0, 0, 1),
	}
}

func (r *Ring) Directions(total int) []model3d.Coord3D {
	if total <= 0 {
		return nil
	}
	offset := r.Offset.Normalize()
	res := make([]model3d.Coord3D, total)
	for i := 0; i < total; i++ {
		theta := math.Pi * 2 * float64(i) / float64(total)
		rotation := model3d.Rotation(r.Axis, theta)
		res[i] = rotation.Apply(offset)
	}
	return res
}
