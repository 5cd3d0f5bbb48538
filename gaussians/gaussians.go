// Package gaussians fits 3D Gaussians to point clouds and converts
// them between the JSON formats used to initialize 3DGS training.
package gaussians

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/splat-prep/pointcloud"
	"go.uber.org/multierr"
)

const (
	// DefaultVariance is the per-axis variance of PerPoint Gaussians.
	DefaultVariance = 0.0025

	// Regularization is added to the diagonal of fitted and
	// converted covariances.
	Regularization = 1e-4
)

// A Gaussian is a colored 3D normal distribution.
type Gaussian struct {
	Mean  [3]float64    `json:"mean"`
	Cov   [3][3]float64 `json:"cov"`
	Color [3]float64    `json:"color"`
}

// A File is the simple JSON representation of a set of Gaussians.
type File struct {
	Gaussians []Gaussian `json:"gaussians"`
}

// PerPoint creates one isotropic Gaussian per point.
func PerPoint(cloud *pointcloud.PointCloud, variance float64) []Gaussian {
	res := make([]Gaussian, cloud.Len())
	for i, p := range cloud.Positions {
		res[i] = Gaussian{
			Mean:  p.Array(),
			Cov:   [3][3]float64{{variance, 0, 0}, {0, variance, 0}, {0, 0, variance}},
			Color: clipColor(cloud.Colors[i]),
		}
	}
	return res
}

// FitClusters fits one Gaussian to every labeled group of points.
//
// Negative labels mark noise and are ignored, as are clusters with
// fewer than minSize points. Gaussians are ordered by label.
func FitClusters(cloud *pointcloud.PointCloud, labels []int, minSize int) ([]Gaussian, error) {
	if len(labels) != cloud.Len() {
		return nil, errors.Errorf("got %d labels for %d points", len(labels), cloud.Len())
	}
	maxLabel := -1
	for _, l := range labels {
		if l > maxLabel {
			maxLabel = l
		}
	}
	groups := make([][]int, maxLabel+1)
	for i, l := range labels {
		if l >= 0 {
			groups[l] = append(groups[l], i)
		}
	}

	var res []Gaussian
	for _, group := range groups {
		if len(group) == 0 || len(group) < minSize {
			continue
		}
		res = append(res, fitGroup(cloud, group))
	}
	return res, nil
}

func fitGroup(cloud *pointcloud.PointCloud, group []int) Gaussian {
	n := float64(len(group))
	var mean model3d.Coord3D
	var color [3]float64
	for _, idx := range group {
		mean = mean.Add(cloud.Positions[idx])
		for j, c := range cloud.Colors[idx] {
			color[j] += c
		}
	}
	mean = mean.Scale(1 / n)
	for j := range color {
		color[j] /= n
	}

	var cov [3][3]float64
	if len(group) > 1 {
		for _, idx := range group {
			d := cloud.Positions[idx].Sub(mean).Array()
			for r := 0; r < 3; r++ {
				for c := 0; c < 3; c++ {
					cov[r][c] += d[r] * d[c]
				}
			}
		}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				cov[r][c] /= n - 1
			}
		}
	}
	for i := 0; i < 3; i++ {
		cov[i][i] += Regularization
	}
	return Gaussian{Mean: mean.Array(), Cov: cov, Color: clipColor(color)}
}

func clipColor(c [3]float64) [3]float64 {
	for i, x := range c {
		c[i] = math.Max(0, math.Min(1, x))
	}
	return c
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(path string, v interface{}) (err error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode JSON")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	_, err = f.Write(data)
	return err
}

// ReadJSON decodes a JSON file into v.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
