package gaussians

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// ZeroSHCoefficients is the number of higher-order spherical
// harmonic coefficients appended after the base color.
const ZeroSHCoefficients = 45

// Intermediate is the 3DGS initialization format with packed
// covariances ordered xx, yy, zz, xy, xz, yz.
type Intermediate struct {
	Positions   [][3]float64 `json:"positions"`
	Covariances [][6]float64 `json:"covariances"`
	Colors      [][3]float64 `json:"colors"`
}

// Len returns the number of Gaussians.
func (i *Intermediate) Len() int {
	return len(i.Positions)
}

// Validate checks that every per-Gaussian list has the same length.
func (i *Intermediate) Validate() error {
	if len(i.Covariances) != len(i.Positions) || len(i.Colors) != len(i.Positions) {
		return errors.Errorf("mismatched lengths: %d positions, %d covariances, %d colors",
			len(i.Positions), len(i.Covariances), len(i.Colors))
	}
	return nil
}

// Full is the 3DGS format with per-axis scales, rotation
// quaternions stored as [x, y, z, w], and spherical harmonics.
type Full struct {
	Positions [][3]float64 `json:"positions"`
	Scales    [][3]float64 `json:"scales"`
	Rotations [][4]float64 `json:"rotations"`
	SHs       [][]float64  `json:"shs"`
}

// ToIntermediate packs Gaussians into the intermediate format.
func ToIntermediate(gs []Gaussian) *Intermediate {
	res := &Intermediate{
		Positions:   make([][3]float64, len(gs)),
		Covariances: make([][6]float64, len(gs)),
		Colors:      make([][3]float64, len(gs)),
	}
	for i, g := range gs {
		c := g.Cov
		res.Positions[i] = g.Mean
		res.Covariances[i] = [6]float64{c[0][0], c[1][1], c[2][2], c[0][1], c[0][2], c[1][2]}
		res.Colors[i] = clipColor(g.Color)
	}
	return res
}

type ConvertOptions struct {
	// MinScale is the lower bound for every axis scale.
	MinScale float64

	// Brightness multiplies colors before they are clipped to 1.
	Brightness float64
}

func DefaultConvertOptions() *ConvertOptions {
	return &ConvertOptions{MinScale: 0.2, Brightness: 1}
}

// ToFull decomposes every packed covariance into axis scales and
// a rotation.
func ToFull(inter *Intermediate, opts *ConvertOptions) (*Full, error) {
	if err := inter.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = DefaultConvertOptions()
	}
	n := inter.Len()
	res := &Full{
		Positions: make([][3]float64, n),
		Scales:    make([][3]float64, n),
		Rotations: make([][4]float64, n),
		SHs:       make([][]float64, n),
	}
	for i, packed := range inter.Covariances {
		scales, rotation, err := Decompose(unpackCovariance(packed))
		if err != nil {
			return nil, errors.Wrapf(err, "gaussian %d", i)
		}
		for j, s := range scales {
			scales[j] = math.Max(s, opts.MinScale)
		}
		res.Positions[i] = inter.Positions[i]
		res.Scales[i] = scales
		res.Rotations[i] = QuaternionXYZW(rotation)

		sh := make([]float64, 3+ZeroSHCoefficients)
		for j, c := range inter.Colors[i] {
			sh[j] = math.Min(1, c*opts.Brightness)
		}
		res.SHs[i] = sh
	}
	return res, nil
}

func unpackCovariance(c [6]float64) [3][3]float64 {
	xx, yy, zz, xy, xz, yz := c[0], c[1], c[2], c[3], c[4], c[5]
	return [3][3]float64{
		{xx, xy, xz},
		{xy, yy, yz},
		{xz, yz, zz},
	}
}

// Decompose regularizes a covariance matrix and factors it as
// R*diag(s^2)*R^T, where R is a proper rotation whose columns are
// the principal axes. Scales are in descending order.
func Decompose(cov [3][3]float64) ([3]float64, *model3d.Matrix3, error) {
	sym := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			v := (cov[i][j] + cov[j][i]) / 2
			if i == j {
				v += Regularization
			}
			sym.SetSym(i, j, v)
		}
	}
	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return [3]float64{}, nil, errors.New("eigen-decomposition failed")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// gonum returns ascending eigenvalues.
	var scales [3]float64
	var cols [3]model3d.Coord3D
	for k := 0; k < 3; k++ {
		src := 2 - k
		scales[k] = math.Sqrt(math.Max(0, values[src]))
		cols[k] = model3d.XYZ(vectors.At(0, src), vectors.At(1, src), vectors.At(2, src))
	}
	rotation := model3d.NewMatrix3Columns(cols[0], cols[1], cols[2])
	if rotation.Det() < 0 {
		cols[2] = cols[2].Scale(-1)
		rotation = model3d.NewMatrix3Columns(cols[0], cols[1], cols[2])
	}
	return scales, rotation, nil
}

// QuaternionXYZW converts a rotation matrix to a unit quaternion
// laid out as [x, y, z, w], with w >= 0.
func QuaternionXYZW(m *model3d.Matrix3) [4]float64 {
	at := func(r, c int) float64 { return m[r*3+c] }
	var q quat.Number
	trace := at(0, 0) + at(1, 1) + at(2, 2)
	switch {
	case trace > 0:
		s := 2 * math.Sqrt(trace+1)
		q = quat.Number{
			Real: s / 4,
			Imag: (at(2, 1) - at(1, 2)) / s,
			Jmag: (at(0, 2) - at(2, 0)) / s,
			Kmag: (at(1, 0) - at(0, 1)) / s,
		}
	case at(0, 0) >= at(1, 1) && at(0, 0) >= at(2, 2):
		s := 2 * math.Sqrt(1+at(0, 0)-at(1, 1)-at(2, 2))
		q = quat.Number{
			Real: (at(2, 1) - at(1, 2)) / s,
			Imag: s / 4,
			Jmag: (at(0, 1) + at(1, 0)) / s,
			Kmag: (at(0, 2) + at(2, 0)) / s,
		}
	case at(1, 1) >= at(2, 2):
		s := 2 * math.Sqrt(1+at(1, 1)-at(0, 0)-at(2, 2))
		q = quat.Number{
			Real: (at(0, 2) - at(2, 0)) / s,
			Imag: (at(0, 1) + at(1, 0)) / s,
			Jmag: s / 4,
			Kmag: (at(1, 2) + at(2, 1)) / s,
		}
	default:
		s := 2 * math.Sqrt(1+at(2, 2)-at(0, 0)-at(1, 1))
		q = quat.Number{
			Real: (at(1, 0) - at(0, 1)) / s,
			Imag: (at(0, 2) + at(2, 0)) / s,
			Jmag: (at(1, 2) + at(2, 1)) / s,
			Kmag: s / 4,
		}
	}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	q = quat.Scale(1/quat.Abs(q), q)
	return [4]float64{q.Imag, q.Jmag, q.Kmag, q.Real}
}
