// Package scale standardizes feature columns to zero mean and unit variance
// so that wide-range columns such as tempo or duration do not dominate
// distance computations.
package scale

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNotFitted is returned when a transform is requested before Fit.
	ErrNotFitted = errors.New("scale: scaler is not fitted")

	// ErrNoRows is returned when Fit is given a matrix without rows.
	ErrNoRows = errors.New("scale: cannot fit on an empty matrix")

	// ErrDimensionMismatch is returned when an input vector or matrix does
	// not match the fitted column count.
	ErrDimensionMismatch = errors.New("scale: dimension mismatch")
)

// Scaler centers each column on its mean and divides by its population
// standard deviation. Constant columns divide by one instead, so they map
// to zero rather than NaN. The zero value is unfitted and must be fitted
// before any transform.
type Scaler struct {
	means []float64
	stds  []float64
}

// Fit computes per-column statistics from m. Refitting replaces the
// previous statistics.
func (s *Scaler) Fit(m mat.Matrix) error {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return ErrNoRows
	}

	means := make([]float64, cols)
	stds := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		// Summing an all-equal column can round its mean off by an ulp,
		// which would leave a tiny nonzero deviation. Take the value
		// directly so constant columns map to exactly zero.
		if constant(col) {
			means[j] = col[0]
			stds[j] = 1
			continue
		}
		means[j] = stat.Mean(col, nil)
		sd := stat.PopStdDev(col, nil)
		if sd == 0 {
			sd = 1
		}
		stds[j] = sd
	}

	s.means = means
	s.stds = stds
	return nil
}

// Transform standardizes a single feature vector.
func (s *Scaler) Transform(vec []float64) ([]float64, error) {
	if s.means == nil {
		return nil, ErrNotFitted
	}
	if len(vec) != len(s.means) {
		return nil, fmt.Errorf("%w: vector has %d values, scaler was fitted on %d columns",
			ErrDimensionMismatch, len(vec), len(s.means))
	}

	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = (v - s.means[i]) / s.stds[i]
	}
	return out, nil
}

// TransformMatrix standardizes every row of m into a new matrix.
func (s *Scaler) TransformMatrix(m mat.Matrix) (*mat.Dense, error) {
	if s.means == nil {
		return nil, ErrNotFitted
	}
	rows, cols := m.Dims()
	if cols != len(s.means) {
		return nil, fmt.Errorf("%w: matrix has %d columns, scaler was fitted on %d",
			ErrDimensionMismatch, cols, len(s.means))
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, (m.At(i, j)-s.means[j])/s.stds[j])
		}
	}
	return out, nil
}

// FitTransform fits on m and returns its standardized copy.
func (s *Scaler) FitTransform(m mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(m); err != nil {
		return nil, err
	}
	return s.TransformMatrix(m)
}

func constant(col []float64) bool {
	for i := 1; i < len(col); i++ {
		if col[i] != col[0] {
			return false
		}
	}
	return true
}

// Dim returns the fitted column count, zero before Fit.
func (s *Scaler) Dim() int {
	return len(s.means)
}

// Means returns a copy of the fitted column means.
func (s *Scaler) Means() []float64 {
	return slices.Clone(s.means)
}

// Stds returns a copy of the fitted column standard deviations, after the
// constant-column substitution.
func (s *Scaler) Stds() []float64 {
	return slices.Clone(s.stds)
}
