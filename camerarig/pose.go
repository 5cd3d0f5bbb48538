// Package camerarig generates virtual camera rigs around a scene and
// describes the pinhole cameras that view it.
package camerarig

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

const orthonormalTolerance = 1e-4

// A Pose is a rigid camera-to-world transform, stored as the
// camera's world-space basis and position.
//
// In camera space, +X is Right, +Y is Up, and +Z is Forward.
type Pose struct {
	Origin  model3d.Coord3D
	Right   model3d.Coord3D
	Up      model3d.Coord3D
	Forward model3d.Coord3D
}

// PoseFromMatrix parses a row-major 4x4 camera-to-world matrix.
//
// An error is returned if the rotation block is not orthonormal
// or the bottom row is not (0, 0, 0, 1).
func PoseFromMatrix(m [4][4]float64) (*Pose, error) {
	var cols [4]model3d.Coord3D
	for c := 0; c < 4; c++ {
		cols[c] = model3d.XYZ(m[0][c], m[1][c], m[2][c])
	}
	if m[3] != [4]float64{0, 0, 0, 1} {
		return nil, errors.Errorf("unexpected bottom row %v", m[3])
	}
	for i := 0; i < 3; i++ {
		if math.Abs(cols[i].Norm()-1) > orthonormalTolerance {
			return nil, errors.Errorf("rotation column %d is not unit length", i)
		}
		for j := i + 1; j < 3; j++ {
			if math.Abs(cols[i].Dot(cols[j])) > orthonormalTolerance {
				return nil, errors.Errorf("rotation columns %d and %d are not orthogonal", i, j)
			}
		}
	}
	return &Pose{
		Right:   cols[0],
		Up:      cols[1],
		Forward: cols[2],
		Origin:  cols[3],
	}, nil
}

// Rotation returns the rotation block, whose columns are
// the right, up, and forward vectors.
func (p *Pose) Rotation() *model3d.Matrix3 {
	return model3d.NewMatrix3Columns(p.Right, p.Up, p.Forward)
}

// Matrix returns the row-major 4x4 camera-to-world matrix.
func (p *Pose) Matrix() [4][4]float64 {
	var res [4][4]float64
	for c, col := range []model3d.Coord3D{p.Right, p.Up, p.Forward, p.Origin} {
		arr := col.Array()
		for r := 0; r < 3; r++ {
			res[r][c] = arr[r]
		}
	}
	res[3][3] = 1
	return res
}

// ToCamera maps a world coordinate into camera space.
//
// Since the rotation is orthonormal, the inverse transform
// is the transposed rotation applied after the translation.
func (p *Pose) ToCamera(c model3d.Coord3D) model3d.Coord3D {
	return p.Rotation().Transpose().MulColumn(c.Sub(p.Origin))
}

// ToWorld maps a camera-space coordinate into world space.
func (p *Pose) ToWorld(c model3d.Coord3D) model3d.Coord3D {
	return p.Rotation().MulColumn(c).Add(p.Origin)
}
