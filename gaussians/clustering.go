package gaussians

import (
	"math"
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// Noise is the DBSCAN label of points that belong to no cluster.
const Noise = -1

type gridCell [3]int64

// spatialIndex buckets points into cubes of side eps, so neighbors
// within eps of a point lie in the 27 surrounding cells.
type spatialIndex struct {
	cellSize float64
	grid     map[gridCell][]int
}

func newSpatialIndex(points []model3d.Coord3D, eps float64) *spatialIndex {
	si := &spatialIndex{cellSize: eps, grid: map[gridCell][]int{}}
	for i, p := range points {
		cell := si.cell(p)
		si.grid[cell] = append(si.grid[cell], i)
	}
	return si
}

func (s *spatialIndex) cell(p model3d.Coord3D) gridCell {
	return gridCell{
		int64(math.Floor(p.X / s.cellSize)),
		int64(math.Floor(p.Y / s.cellSize)),
		int64(math.Floor(p.Z / s.cellSize)),
	}
}

func (s *spatialIndex) regionQuery(points []model3d.Coord3D, idx int, eps float64) []int {
	p := points[idx]
	base := s.cell(p)
	eps2 := eps * eps
	var neighbors []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				cell := gridCell{base[0] + dx, base[1] + dy, base[2] + dz}
				for _, candidate := range s.grid[cell] {
					d := points[candidate].Sub(p)
					if d.Dot(d) <= eps2 {
						neighbors = append(neighbors, candidate)
					}
				}
			}
		}
	}
	return neighbors
}

// DBSCAN labels points by density-based clustering. A point is a
// core point if at least minPts points (itself included) lie within
// eps of it.
//
// Labels are consecutive from 0 in order of discovery; points in
// no cluster are labeled Noise.
func DBSCAN(points []model3d.Coord3D, eps float64, minPts int) ([]int, error) {
	if !(eps > 0) {
		return nil, errors.Errorf("invalid DBSCAN radius %v", eps)
	}
	const unvisited = -2
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = unvisited
	}
	index := newSpatialIndex(points, eps)

	clusterID := 0
	for i := range points {
		if labels[i] != unvisited {
			continue
		}
		neighbors := index.regionQuery(points, i, eps)
		if len(neighbors) < minPts {
			labels[i] = Noise
			continue
		}
		labels[i] = clusterID
		for j := 0; j < len(neighbors); j++ {
			idx := neighbors[j]
			if labels[idx] == Noise {
				labels[idx] = clusterID
			}
			if labels[idx] != unvisited {
				continue
			}
			labels[idx] = clusterID
			if next := index.regionQuery(points, idx, eps); len(next) >= minPts {
				neighbors = append(neighbors, next...)
			}
		}
		clusterID++
	}
	return labels, nil
}

type indexedPoint struct {
	index  int
	coords clusters.Coordinates
}

func (i indexedPoint) Coordinates() clusters.Coordinates {
	return i.coords
}

func (i indexedPoint) Distance(point clusters.Coordinates) float64 {
	return i.coords.Distance(point)
}

// KMeans partitions points into k clusters.
//
// The partition itself is randomly initialized, but the labels are
// assigned by sorting cluster centers on X, then Y, then Z.
func KMeans(points []model3d.Coord3D, k int) ([]int, error) {
	if k <= 0 || k > len(points) {
		return nil, errors.Errorf("cannot make %d clusters from %d points", k, len(points))
	}
	var data clusters.Observations
	for i, p := range points {
		data = append(data, indexedPoint{index: i, coords: clusters.Coordinates{p.X, p.Y, p.Z}})
	}
	parts, err := kmeans.New().Partition(data, k)
	if err != nil {
		return nil, errors.Wrap(err, "k-means")
	}
	sort.SliceStable(parts, func(i, j int) bool {
		a, b := parts[i].Center, parts[j].Center
		for d := 0; d < 3; d++ {
			if a[d] != b[d] {
				return a[d] < b[d]
			}
		}
		return false
	})
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = Noise
	}
	for label, c := range parts {
		for _, obs := range c.Observations {
			labels[obs.(indexedPoint).index] = label
		}
	}
	return labels, nil
}
