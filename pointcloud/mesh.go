package pointcloud

import (
	"github.com/unixpickle/model3d/model3d"
)

// Mesh creates a surface around the points by thickening every
// point into a ball of the given radius.
//
// The delta is the marching cubes grid size.
func (p *PointCloud) Mesh(thickness, delta float64) *model3d.Mesh {
	if p.Len() == 0 {
		return model3d.NewMeshTriangles(nil)
	}
	lo, hi := p.Bounds()
	pad := model3d.XYZ(thickness, thickness, thickness)
	tree := model3d.NewCoordTree(p.Positions)
	solid := model3d.CheckedFuncSolid(
		lo.Sub(pad),
		hi.Add(pad),
		func(c model3d.Coord3D) bool {
			return tree.Dist(c) < thickness
		},
	)
	return model3d.MarchingCubesSearch(solid, delta, 8)
}
