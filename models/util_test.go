package models

import (
	"testing"

	mat_ "github.com/aouyang1/go-windowcast/mat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type linearModel interface {
	Model
	Score(x, y mat.Matrix) (float64, error)
	Intercept() float64
	Coef() []float64
}

func testModel(t *testing.T, model linearModel, x, y mat.Matrix, intercept float64, coef []float64, tol float64) {
	err := model.Fit(x, y)
	require.Nil(t, err)

	assert.InDelta(t, intercept, model.Intercept(), tol)

	c := model.Coef()
	assert.InDeltaSlice(t, coef, c, tol)

	r2, err := model.Score(x, y)
	require.Nil(t, err)
	assert.InDelta(t, 1.0, r2, tol)
}

func generateBenchData(nObs, nFeat int) (mat.Matrix, mat.Matrix, error) {
	data := make([][]float64, nObs)
	for i := 0; i < nObs; i++ {
		data[i] = make([]float64, nFeat)
		for j := 0; j < nFeat; j++ {
			val := float64(i*nFeat + j)
			if j == 0 {
				val = 1.0
			}
			data[i][j] = val
		}
	}

	data2 := make([]float64, 0, nObs)
	for i := 0; i < cap(data2); i++ {
		data2 = append(data2, float64(i))
	}

	x, err := mat_.NewDenseFromRows(data)
	if err != nil {
		return nil, nil, err
	}

	y := mat.NewDense(nObs, 1, data2)
	return x, y, nil
}

// arithmeticWindows builds sliding windows of width w over 0, 1, 2, ... where the target is
// always the value following the predictors
func arithmeticWindows(t *testing.T, nObs, w int) (mat.Matrix, mat.Matrix) {
	x := make([][]float64, nObs)
	y := make([]float64, nObs)
	for i := 0; i < nObs; i++ {
		x[i] = make([]float64, w-1)
		for j := 0; j < w-1; j++ {
			x[i][j] = float64(i + j)
		}
		y[i] = float64(i + w - 1)
	}
	xMx, err := mat_.NewDenseFromRows(x)
	require.Nil(t, err)
	return xMx, mat.NewDense(nObs, 1, y)
}

func TestValidateFit(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	testData := map[string]struct {
		x   mat.Matrix
		y   mat.Matrix
		err error
	}{
		"no x":            {nil, mat.NewDense(3, 1, nil), ErrNoTrainingMatrix},
		"no y":            {x, nil, ErrNoTargetMatrix},
		"target mismatch": {x, mat.NewDense(2, 1, nil), ErrTargetLenMismatch},
		"valid":           {x, mat.NewDense(3, 1, nil), nil},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, _, err := validateFit(td.x, td.y)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.Nil(t, err)
		})
	}
}

func TestNormalizedAbs(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, normalizedAbs([]float64{-1, 3}), 1e-12)
	assert.Equal(t, []float64{0, 0}, normalizedAbs([]float64{0, 0}))
}
