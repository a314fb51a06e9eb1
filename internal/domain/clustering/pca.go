package clustering

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrDecomposition is returned when the SVD behind PCA fails to converge.
var ErrDecomposition = errors.New("principal component decomposition failed")

// pca holds a fitted projection: centre on Mean, then dot with each axis.
type pca struct {
	mean      []float64
	axes      [][]float64
	explained []float64
}

// fitPCA centres data (not rescaled) and keeps the first n principal axes.
// Each axis is oriented so its largest-magnitude loading is positive.
func fitPCA(data [][]float64, n int) (pca, error) {
	rows, cols := len(data), len(data[0])
	p := pca{mean: make([]float64, cols)}
	for _, row := range data {
		floats.Add(p.mean, row)
	}
	floats.Scale(1/float64(rows), p.mean)

	// A single observation has no variance to decompose.
	if rows < 2 {
		p.axes = basis(cols, n)
		p.explained = make([]float64, n)
		return p, nil
	}

	x := mat.NewDense(rows, cols, nil)
	for i, row := range data {
		x.SetRow(i, row)
	}
	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return pca{}, ErrDecomposition
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	total := floats.Sum(vars)
	p.axes = make([][]float64, n)
	p.explained = make([]float64, n)
	for j := 0; j < n; j++ {
		axis := mat.Col(nil, j, &vecs)
		orient(axis)
		p.axes[j] = axis
		if total > 0 && j < len(vars) {
			p.explained[j] = vars[j] / total
		}
	}
	return p, nil
}

func (p pca) project(v []float64) []float64 {
	centred := make([]float64, len(v))
	floats.SubTo(centred, v, p.mean)
	out := make([]float64, len(p.axes))
	for j, axis := range p.axes {
		out[j] = floats.Dot(centred, axis)
	}
	return out
}

// profile projects v onto the axes without centring. It is linear, so a
// scaled vector yields an equally scaled profile.
func (p pca) profile(v []float64) []float64 {
	out := make([]float64, len(p.axes))
	for j, axis := range p.axes {
		out[j] = floats.Dot(v, axis)
	}
	return out
}

func orient(axis []float64) {
	best := 0
	for i, x := range axis {
		if math.Abs(x) > math.Abs(axis[best]) {
			best = i
		}
	}
	if axis[best] < 0 {
		floats.Scale(-1, axis)
	}
}

func basis(dims, n int) [][]float64 {
	out := make([][]float64, n)
	for j := range out {
		out[j] = make([]float64, dims)
		out[j][j] = 1
	}
	return out
}
