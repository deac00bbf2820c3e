package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// validateFit checks the training inputs and returns the design matrix dimensions
func validateFit(x, y mat.Matrix) (int, int, error) {
	if x == nil {
		return 0, 0, ErrNoTrainingMatrix
	}
	if y == nil {
		return 0, 0, ErrNoTargetMatrix
	}
	m, n := x.Dims()
	if m == 0 || n == 0 {
		return 0, 0, ErrEmptyTraining
	}
	ym, _ := y.Dims()
	if ym != m {
		return 0, 0, fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}
	return m, n, nil
}

// validatePredict checks an inference design matrix against the number of trained features
func validatePredict(x mat.Matrix, nFeatures int) (int, error) {
	if x == nil {
		return 0, ErrNoDesignMatrix
	}
	m, n := x.Dims()
	if n != nFeatures {
		return 0, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, nFeatures, ErrFeatureLenMismatch)
	}
	return m, nil
}

// withIntercept prepends a constant 1.0 column to x
func withIntercept(x mat.Matrix) *mat.Dense {
	m, n := x.Dims()
	out := mat.NewDense(m, n+1, nil)
	for i := 0; i < m; i++ {
		out.Set(i, 0, 1.0)
		for j := 0; j < n; j++ {
			out.Set(i, j+1, x.At(i, j))
		}
	}
	return out
}

// linearPredict computes intercept + x * coef for every row of x
func linearPredict(x mat.Matrix, intercept float64, coef []float64) []float64 {
	m, _ := x.Dims()
	coefMx := mat.NewVecDense(len(coef), coef)

	var res mat.VecDense
	res.MulVec(x, coefMx)

	out := make([]float64, m)
	for i := 0; i < m; i++ {
		out[i] = res.AtVec(i) + intercept
	}
	return out
}

// normalizedAbs scales the absolute values of w to sum to 1. All zeros are returned if w sums
// to zero.
func normalizedAbs(w []float64) []float64 {
	out := make([]float64, len(w))
	var total float64
	for i, v := range w {
		out[i] = math.Abs(v)
		total += out[i]
	}
	if total == 0 {
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}
