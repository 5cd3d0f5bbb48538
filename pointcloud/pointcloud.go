// Package pointcloud loads, stores, and writes colored point clouds.
package pointcloud

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"go.uber.org/multierr"
)

// A PointCloud is a set of positions with one RGB color each.
// Colors are in the range [0, 1].
type PointCloud struct {
	Positions []model3d.Coord3D
	Colors    [][3]float64
}

// New creates a point cloud, checking that every position has
// exactly one color.
func New(positions []model3d.Coord3D, colors [][3]float64) (*PointCloud, error) {
	if len(positions) != len(colors) {
		return nil, errors.Errorf("mismatched point cloud: %d positions but %d colors",
			len(positions), len(colors))
	}
	return &PointCloud{Positions: positions, Colors: colors}, nil
}

// Load reads a point cloud, choosing the format from the file
// extension (.ply or .pcd).
func Load(path string) (*PointCloud, error) {
	var reader func(f *os.File) (*PointCloud, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ply":
		reader = func(f *os.File) (*PointCloud, error) { return ReadPLY(f) }
	case ".pcd":
		reader = func(f *os.File) (*PointCloud, error) { return ReadPCD(f) }
	default:
		return nil, errors.Errorf("do not know how to read point cloud %q", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open point cloud")
	}
	defer f.Close()
	cloud, err := reader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return cloud, nil
}

// Len returns the number of points.
func (p *PointCloud) Len() int {
	return len(p.Positions)
}

// Bounds returns the bounding box of the points. An empty cloud
// has zero bounds.
func (p *PointCloud) Bounds() (lo, hi model3d.Coord3D) {
	if len(p.Positions) == 0 {
		return
	}
	lo, hi = p.Positions[0], p.Positions[0]
	for _, c := range p.Positions[1:] {
		lo = lo.Min(c)
		hi = hi.Max(c)
	}
	return
}

// ColorBytes converts a [0, 1] color to 8-bit channels, clamping
// out-of-range values.
func ColorBytes(c [3]float64) [3]uint8 {
	var res [3]uint8
	for i, x := range c {
		res[i] = uint8(math.Round(math.Max(0, math.Min(1, x)) * 255))
	}
	return res
}

// Save writes the cloud to a binary PLY file.
func Save(path string, cloud *PointCloud) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create point cloud")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return WritePLY(f, cloud)
}

// Subsample returns at most n randomly chosen points. If the cloud
// is small enough, it is returned as-is.
func (p *PointCloud) Subsample(n int, gen *rand.Rand) *PointCloud {
	if p.Len() <= n {
		return p
	}
	perm := gen.Perm(p.Len())[:n]
	sort.Ints(perm)
	res := &PointCloud{
		Positions: make([]model3d.Coord3D, n),
		Colors:    make([][3]float64, n),
	}
	for i, idx := range perm {
		res.Positions[i] = p.Positions[idx]
		res.Colors[i] = p.Colors[idx]
	}
	return res
}
