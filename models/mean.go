package models

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MeanRegression predicts the mean of each feature row. Fitting only records the number of
// features, which makes it a predictable golden model for checking window alignment.
type MeanRegression struct {
	nFeatures int
	trained   bool
}

func NewMeanRegression() *MeanRegression {
	return &MeanRegression{}
}

func (r *MeanRegression) Fit(x, y mat.Matrix) error {
	_, n, err := validateFit(x, y)
	if err != nil {
		return err
	}
	r.nFeatures = n
	r.trained = true
	return nil
}

func (r *MeanRegression) Predict(x mat.Matrix) ([]float64, error) {
	if !r.trained {
		return nil, ErrUntrained
	}
	m, err := validatePredict(x, r.nFeatures)
	if err != nil {
		return nil, err
	}
	res := make([]float64, m)
	row := make([]float64, r.nFeatures)
	for i := 0; i < m; i++ {
		mat.Row(row, i, x)
		res[i] = stat.Mean(row, nil)
	}
	return res, nil
}

// FeatureImportance weights every feature equally
func (r *MeanRegression) FeatureImportance() []float64 {
	w := make([]float64, r.nFeatures)
	for i := range w {
		w[i] = 1.0 / float64(r.nFeatures)
	}
	return w
}
