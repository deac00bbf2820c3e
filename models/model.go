// Package models is a collection of regression implementations that can be plugged into the
// windowed forecaster. Each series gets its own fresh model built from a Factory.
package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Model is a trainable single output regressor. x is an n x p design matrix and y an n x 1
// target matrix. Predict returns one value per row of x.
type Model interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) ([]float64, error)
}

// FeatureImporter is implemented by models that can report a relative importance per feature
// column after fitting.
type FeatureImporter interface {
	FeatureImportance() []float64
}

// Factory creates a fresh untrained model instance.
type Factory func() (Model, error)

const (
	KindForest = "forest"
	KindOLS    = "ols"
	KindLasso  = "lasso"
	KindMean   = "mean"
)

// Options selects the regression algorithm and carries its parameters.
type Options struct {
	Kind   string         `json:"kind"`
	Forest *ForestOptions `json:"forest,omitempty"`
	OLS    *OLSOptions    `json:"ols,omitempty"`
	Lasso  *LassoOptions  `json:"lasso,omitempty"`
}

// NewDefaultOptions returns options for the random forest regressor
func NewDefaultOptions() *Options {
	return &Options{
		Kind:   KindForest,
		Forest: NewDefaultForestOptions(),
	}
}

// Validate returns a defaulted copy of the options after checking the options of the selected
// kind. The receiver and the options it points to are left untouched.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	opt := *o
	if opt.Kind == "" {
		opt.Kind = KindForest
	}

	var err error
	switch opt.Kind {
	case KindForest:
		opt.Forest, err = opt.Forest.Validate()
	case KindOLS:
		if opt.OLS == nil {
			opt.OLS = NewDefaultOLSOptions()
		} else {
			olsOpt := *opt.OLS
			opt.OLS = &olsOpt
		}
	case KindLasso:
		opt.Lasso, err = opt.Lasso.Validate()
	case KindMean:
	default:
		return nil, fmt.Errorf("%q, %w", opt.Kind, ErrUnknownModelKind)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s options, %w", opt.Kind, err)
	}
	return &opt, nil
}

// NewFactory validates the options and returns a Factory producing models of the selected kind
func NewFactory(opt *Options) (Factory, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	switch opt.Kind {
	case KindForest:
		forestOpt := opt.Forest
		return func() (Model, error) { return NewForestRegression(forestOpt) }, nil
	case KindOLS:
		olsOpt := opt.OLS
		return func() (Model, error) { return NewOLSRegression(olsOpt) }, nil
	case KindLasso:
		lassoOpt := opt.Lasso
		return func() (Model, error) { return NewLassoRegression(lassoOpt) }, nil
	default:
		return func() (Model, error) { return NewMeanRegression(), nil }, nil
	}
}
