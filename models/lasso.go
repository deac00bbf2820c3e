package models

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultLambda     = 1.0
	DefaultIterations = 1000
	DefaultTolerance  = 1e-4
)

var (
	ErrNegativeLambda     = errors.New("negative lambda")
	ErrNegativeIterations = errors.New("negative iterations")
	ErrNegativeTolerance  = errors.New("negative tolerance")
)

// LassoOptions represents input options to run the Lasso Regression
type LassoOptions struct {
	// Lambda represents the L1 multiplier, controlling the regularization. Must be non-negative.
	// 0.0 results in converging to Ordinary Least Squares (OLS).
	Lambda float64 `json:"lambda"`

	// Iterations is the maximum number of times the fit loops through training all coefficients.
	Iterations int `json:"iterations"`

	// Tolerance is the smallest coefficient change on each iteration to determine when to stop iterating.
	Tolerance float64 `json:"tolerance"`

	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool `json:"fit_intercept"`
}

// Validate runs basic validation on Lasso options
func (l *LassoOptions) Validate() (*LassoOptions, error) {
	if l == nil {
		return NewDefaultLassoOptions(), nil
	}
	opt := *l
	l = &opt

	if l.Lambda < 0 {
		return nil, ErrNegativeLambda
	}
	if l.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if l.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	return l, nil
}

// NewDefaultLassoOptions returns a default set of Lasso Regression options
func NewDefaultLassoOptions() *LassoOptions {
	return &LassoOptions{
		Lambda:       DefaultLambda,
		Iterations:   DefaultIterations,
		Tolerance:    DefaultTolerance,
		FitIntercept: true,
	}
}

// LassoRegression computes the lasso regression using coordinate descent. lambda = 0 converges to OLS
type LassoRegression struct {
	opt *LassoOptions

	coef      []float64
	intercept float64
	trained   bool
}

// NewLassoRegression initializes a Lasso model ready for fitting
func NewLassoRegression(opt *LassoOptions) (*LassoRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &LassoRegression{
		opt: opt,
	}, nil
}

// Fit the model according to the given training data
func (l *LassoRegression) Fit(x, y mat.Matrix) error {
	if l.opt == nil {
		return ErrNoOptions
	}
	m, _, err := validateFit(x, y)
	if err != nil {
		return err
	}

	design := x
	if l.opt.FitIntercept {
		design = withIntercept(x)
	}
	_, n := design.Dims()

	// feature columns, their self dot products and per feature thresholds
	cols := make([][]float64, n)
	xdot := make([]float64, n)
	gamma := make([]float64, n)
	for j := 0; j < n; j++ {
		cols[j] = mat.Col(nil, j, design)
		xdot[j] = floats.Dot(cols[j], cols[j])
		if xdot[j] > 0 {
			gamma[j] = l.opt.Lambda / xdot[j]
		}
	}
	target := mat.Col(nil, 0, y)

	beta := make([]float64, n)

	// residual tracks y - design * beta and is updated in place on every coordinate step
	residual := make([]float64, m)
	copy(residual, target)

	for i := 0; i < l.opt.Iterations; i++ {
		maxCoef := 0.0
		maxUpdate := 0.0

		for j := 0; j < n; j++ {
			if xdot[j] == 0 {
				continue
			}
			betaCurr := beta[j]
			if i != 0 && betaCurr == 0 {
				continue
			}

			betaNext := floats.Dot(cols[j], residual)/xdot[j] + betaCurr
			// never shrink the intercept
			if !(l.opt.FitIntercept && j == 0) {
				betaNext = SoftThreshold(betaNext, gamma[j])
			}

			if delta := betaNext - betaCurr; delta != 0 {
				floats.AddScaled(residual, -delta, cols[j])
			}
			maxCoef = math.Max(maxCoef, math.Abs(betaNext))
			maxUpdate = math.Max(maxUpdate, math.Abs(betaNext-betaCurr))
			beta[j] = betaNext
		}

		// break early if we've achieved the desired tolerance
		if maxUpdate <= l.opt.Tolerance*maxCoef {
			break
		}
	}

	if l.opt.FitIntercept {
		l.intercept = beta[0]
		l.coef = beta[1:]
	} else {
		l.intercept = 0
		l.coef = beta
	}
	l.trained = true
	return nil
}

// Predict using the Lasso model
func (l *LassoRegression) Predict(x mat.Matrix) ([]float64, error) {
	if l.opt == nil {
		return nil, ErrNoOptions
	}
	if !l.trained {
		return nil, ErrUntrained
	}
	if _, err := validatePredict(x, len(l.coef)); err != nil {
		return nil, err
	}
	return linearPredict(x, l.intercept, l.coef), nil
}

// Score computes the coefficient of determination of the prediction
func (l *LassoRegression) Score(x, y mat.Matrix) (float64, error) {
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}
	res, err := l.Predict(x)
	if err != nil {
		return 0.0, err
	}
	ym, _ := y.Dims()
	if ym != len(res) {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", len(res), ym, ErrTargetLenMismatch)
	}

	score := stat.RSquaredFrom(res, mat.Col(nil, 0, y), nil)
	if math.IsNaN(score) {
		score = 1.0
	}
	return score, nil
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (l *LassoRegression) Intercept() float64 {
	return l.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (l *LassoRegression) Coef() []float64 {
	c := make([]float64, len(l.coef))
	copy(c, l.coef)
	return c
}

// FeatureImportance returns the absolute coefficients normalized to sum to 1
func (l *LassoRegression) FeatureImportance() []float64 {
	return normalizedAbs(l.coef)
}

// SoftThreshold returns 0.0 if the magnitude of x is less than or equal to gamma, otherwise x
// shrunk towards zero by gamma
func SoftThreshold(x, gamma float64) float64 {
	res := math.Max(0, math.Abs(x)-gamma)
	if math.Signbit(x) {
		return -res
	}
	return res
}
