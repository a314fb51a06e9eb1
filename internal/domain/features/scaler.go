package features

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Scaler is a fitted min-max transform. It is an immutable value: callers
// may keep it to rescale new data consistently, or drop it and refit.
//
// Normalisation is population-relative. The same raw vector maps to a
// different point when the cohort used to fit the scaler changes.
type Scaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// FitScaler learns per-feature min and max over vectors. An empty cohort
// yields a zero-range scaler of the requested width.
func FitScaler(vectors [][]float64, dims int) (Scaler, error) {
	if err := CheckShape(vectors, dims); err != nil {
		return Scaler{}, err
	}
	s := Scaler{Min: make([]float64, dims), Max: make([]float64, dims)}
	if len(vectors) == 0 {
		return s, nil
	}

	m := mat.NewDense(len(vectors), dims, nil)
	for i, v := range vectors {
		m.SetRow(i, v)
	}
	col := make([]float64, len(vectors))
	for j := 0; j < dims; j++ {
		mat.Col(col, j, m)
		s.Min[j] = floats.Min(col)
		s.Max[j] = floats.Max(col)
	}
	return s, nil
}

// Dims returns the vector width the scaler was fitted on.
func (s Scaler) Dims() int {
	return len(s.Min)
}

// Transform maps v into [0,1] per feature. Features with a zero observed
// range map to 0. Values outside the fitted range are not clipped.
func (s Scaler) Transform(v []float64) ([]float64, error) {
	if len(v) != s.Dims() {
		return nil, fmt.Errorf("%w: vector has %d features, scaler fitted on %d", ErrShapeMismatch, len(v), s.Dims())
	}
	out := make([]float64, len(v))
	for j, x := range v {
		span := s.Max[j] - s.Min[j]
		if span == 0 {
			continue
		}
		out[j] = (x - s.Min[j]) / span
	}
	return out, nil
}

// TransformAll applies Transform to every vector.
func (s Scaler) TransformAll(vectors [][]float64) ([][]float64, error) {
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		t, err := s.Transform(v)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}
