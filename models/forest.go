package models

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultNumTrees        = 100
	DefaultMinLeafSize     = 1
	DefaultMinVarianceProp = 1e-3
	DefaultForestSeed      = 1
)

var (
	ErrNegativeTrees       = errors.New("negative number of trees")
	ErrNegativeMaxFeatures = errors.New("negative max features")
	ErrNegativeMaxDepth    = errors.New("negative max depth")
	ErrNegativeMinLeaf     = errors.New("negative minimum leaf size")
	ErrNegativeMinVariance = errors.New("negative minimum variance proportion")
)

// ForestOptions configures the random forest regressor
type ForestOptions struct {
	// NumTrees is the number of bagged trees. 0 uses DefaultNumTrees.
	NumTrees int `json:"num_trees"`

	// MaxFeatures is the number of randomly chosen features considered at each split. 0 uses
	// floor(log2(features)) + 1.
	MaxFeatures int `json:"max_features"`

	// MaxDepth limits tree depth. 0 grows trees until leaves are pure or too small.
	MaxDepth int `json:"max_depth"`

	// MinLeafSize is the minimum number of training rows in a leaf. 0 uses DefaultMinLeafSize.
	MinLeafSize int `json:"min_leaf_size"`

	// MinVarianceProp stops splitting a node once its variance drops below this proportion of
	// the variance of the full training target.
	MinVarianceProp float64 `json:"min_variance_prop"`

	// Seed drives bootstrap sampling and feature selection.
	Seed uint64 `json:"seed"`
}

// NewDefaultForestOptions returns a default set of random forest options
func NewDefaultForestOptions() *ForestOptions {
	return &ForestOptions{
		NumTrees:        DefaultNumTrees,
		MinLeafSize:     DefaultMinLeafSize,
		MinVarianceProp: DefaultMinVarianceProp,
		Seed:            DefaultForestSeed,
	}
}

// Validate runs basic validation on forest options and returns a copy with zero valued
// defaults filled in
func (f *ForestOptions) Validate() (*ForestOptions, error) {
	if f == nil {
		return NewDefaultForestOptions(), nil
	}
	opt := *f
	f = &opt
	if f.NumTrees < 0 {
		return nil, ErrNegativeTrees
	}
	if f.MaxFeatures < 0 {
		return nil, ErrNegativeMaxFeatures
	}
	if f.MaxDepth < 0 {
		return nil, ErrNegativeMaxDepth
	}
	if f.MinLeafSize < 0 {
		return nil, ErrNegativeMinLeaf
	}
	if f.MinVarianceProp < 0 {
		return nil, ErrNegativeMinVariance
	}
	if f.NumTrees == 0 {
		f.NumTrees = DefaultNumTrees
	}
	if f.MinLeafSize == 0 {
		f.MinLeafSize = DefaultMinLeafSize
	}
	return f, nil
}

// ForestRegression is a bagged ensemble of regression trees. Each tree is trained on a
// bootstrap sample of the rows and considers a random subset of features at every split.
type ForestRegression struct {
	opt *ForestOptions

	trees      []*regressionTree
	nFeatures  int
	importance []float64
}

// NewForestRegression initializes a random forest ready for fitting
func NewForestRegression(opt *ForestOptions) (*ForestRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &ForestRegression{
		opt: opt,
	}, nil
}

// Fit grows NumTrees trees on bootstrap samples of the training rows
func (f *ForestRegression) Fit(x, y mat.Matrix) error {
	if f.opt == nil {
		return ErrNoOptions
	}
	m, n, err := validateFit(x, y)
	if err != nil {
		return err
	}

	rows := make([][]float64, m)
	for i := 0; i < m; i++ {
		rows[i] = mat.Row(nil, i, x)
	}
	target := mat.Col(nil, 0, y)
	for i, v := range target {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite target at row %d, %w", i, ErrModelTraining)
		}
	}

	all := make([]int, m)
	for i := range all {
		all[i] = i
	}
	_, totalSSE := meanSSE(target, all)

	params := treeParams{
		maxFeatures: f.opt.MaxFeatures,
		maxDepth:    f.opt.MaxDepth,
		minLeafSize: f.opt.MinLeafSize,
		minVariance: f.opt.MinVarianceProp * totalSSE / float64(m),
	}
	if params.maxFeatures == 0 {
		params.maxFeatures = int(math.Log2(float64(n))) + 1
	}
	if params.maxFeatures > n {
		params.maxFeatures = n
	}

	importance := make([]float64, n)
	trees := make([]*regressionTree, 0, f.opt.NumTrees)
	for t := 0; t < f.opt.NumTrees; t++ {
		rng := rand.New(rand.NewPCG(f.opt.Seed, uint64(t)))

		sample := make([]int, m)
		for i := range sample {
			sample[i] = rng.IntN(m)
		}
		trees = append(trees, growTree(rows, target, sample, params, rng, importance))
	}

	f.trees = trees
	f.nFeatures = n
	f.importance = normalizedAbs(importance)
	return nil
}

// Predict averages the predictions of every tree for each row of x
func (f *ForestRegression) Predict(x mat.Matrix) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, ErrUntrained
	}
	m, err := validatePredict(x, f.nFeatures)
	if err != nil {
		return nil, err
	}

	res := make([]float64, m)
	row := make([]float64, f.nFeatures)
	for i := 0; i < m; i++ {
		mat.Row(row, i, x)
		var sum float64
		for _, tree := range f.trees {
			sum += tree.predict(row)
		}
		res[i] = sum / float64(len(f.trees))
	}
	return res, nil
}

// FeatureImportance returns the total variance reduction attributed to each feature across all
// trees, normalized to sum to 1
func (f *ForestRegression) FeatureImportance() []float64 {
	w := make([]float64, len(f.importance))
	copy(w, f.importance)
	return w
}

// NumTrees returns the number of fitted trees
func (f *ForestRegression) NumTrees() int {
	return len(f.trees)
}
