package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultRankTolerance is the relative singular value cutoff used to decide the numerical rank
// of the design matrix.
const DefaultRankTolerance = 1e-10

type OLSOptions struct {
	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool `json:"fit_intercept"`
}

func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
	}
}

// OLSRegression computes the minimum norm ordinary least squares solution using a thin SVD.
// Sliding windows over a trending series are highly collinear so rank deficient designs are
// expected and solved rather than rejected.
type OLSRegression struct {
	opt       *OLSOptions
	coef      []float64
	intercept float64
	trained   bool
}

func NewOLSRegression(opt *OLSOptions) (*OLSRegression, error) {
	if opt == nil {
		opt = NewDefaultOLSOptions()
	}
	return &OLSRegression{
		opt: opt,
	}, nil
}

func (o *OLSRegression) Fit(x, y mat.Matrix) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	if _, _, err := validateFit(x, y); err != nil {
		return err
	}

	design := x
	if o.opt.FitIntercept {
		design = withIntercept(x)
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return fmt.Errorf("unable to factorize design matrix, %w", ErrModelTraining)
	}
	rank := svd.Rank(DefaultRankTolerance)
	if rank == 0 {
		return fmt.Errorf("design matrix has zero rank, %w", ErrModelTraining)
	}

	var c mat.Dense
	svd.SolveTo(&c, y, rank)
	coef := mat.Col(nil, 0, &c)

	if o.opt.FitIntercept {
		o.intercept = coef[0]
		o.coef = coef[1:]
	} else {
		o.intercept = 0
		o.coef = coef
	}
	o.trained = true
	return nil
}

func (o *OLSRegression) Predict(x mat.Matrix) ([]float64, error) {
	if o.opt == nil {
		return nil, ErrNoOptions
	}
	if !o.trained {
		return nil, ErrUntrained
	}
	if _, err := validatePredict(x, len(o.coef)); err != nil {
		return nil, err
	}
	return linearPredict(x, o.intercept, o.coef), nil
}

// Score computes the coefficient of determination of the prediction
func (o *OLSRegression) Score(x, y mat.Matrix) (float64, error) {
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}
	res, err := o.Predict(x)
	if err != nil {
		return 0.0, err
	}
	ym, _ := y.Dims()
	if ym != len(res) {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", len(res), ym, ErrTargetLenMismatch)
	}
	return stat.RSquaredFrom(res, mat.Col(nil, 0, y), nil), nil
}

func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

func (o *OLSRegression) Coef() []float64 {
	c := make([]float64, len(o.coef))
	copy(c, o.coef)
	return c
}

// FeatureImportance returns the absolute coefficients normalized to sum to 1
func (o *OLSRegression) FeatureImportance() []float64 {
	return normalizedAbs(o.coef)
}
