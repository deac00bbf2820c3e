// Package crossval estimates the out of sample error of a window dataset's model through
// seeded k-fold cross validation.
package crossval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aouyang1/go-windowcast/models"
	"github.com/aouyang1/go-windowcast/stats"
	"github.com/aouyang1/go-windowcast/window"
)

const MinFolds = 2

var (
	ErrInsufficientData = errors.New("insufficient rows for the requested folds")
	ErrInvalidFolds     = errors.New("invalid number of folds")
	ErrNoFactory        = errors.New("no model factory")
)

// Fold holds the row indices of one held out group and the rows used to train against it
type Fold struct {
	Train []int
	Test  []int
}

// FoldScore is the error of one held out fold
type FoldScore struct {
	Size int     `json:"size"`
	RMSE float64 `json:"rmse"`
}

// Evaluation is the pooled error over every held out prediction
type Evaluation struct {
	RMSE  float64     `json:"rmse"`
	MAE   float64     `json:"mae"`
	R2    float64     `json:"r_squared"`
	Count int         `json:"count"`
	Folds []FoldScore `json:"folds"`
}

// KFold shuffles 0..n-1 with a PCG source seeded by seed and partitions the permutation into
// folds contiguous groups. The first n%folds groups hold one extra row.
func KFold(n, folds int, seed uint64) ([]Fold, error) {
	if folds < MinFolds {
		return nil, fmt.Errorf("got %d folds, need at least %d, %w", folds, MinFolds, ErrInvalidFolds)
	}
	if n < folds {
		return nil, fmt.Errorf("%d rows for %d folds, %w", n, folds, ErrInsufficientData)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)

	base := n / folds
	extra := n % folds

	out := make([]Fold, folds)
	start := 0
	for i := 0; i < folds; i++ {
		size := base
		if i < extra {
			size++
		}
		end := start + size

		test := make([]int, size)
		copy(test, perm[start:end])

		train := make([]int, 0, n-size)
		train = append(train, perm[:start]...)
		train = append(train, perm[end:]...)

		out[i] = Fold{Train: train, Test: test}
		start = end
	}
	return out, nil
}

// Evaluate trains a fresh model per fold on the remaining folds, predicts the held out rows and
// returns the pooled error. The dataset is not modified.
func Evaluate(ctx context.Context, ds *window.Dataset, factory models.Factory, folds int, seed uint64) (*Evaluation, error) {
	if factory == nil {
		return nil, ErrNoFactory
	}
	splits, err := KFold(ds.Len(), folds, seed)
	if err != nil {
		return nil, err
	}

	predicted := make([]float64, 0, ds.Len())
	actual := make([]float64, 0, ds.Len())
	foldScores := make([]FoldScore, 0, len(splits))

	for i, split := range splits {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cross validation stopped before fold %d, %w", i, err)
		}

		res, err := evaluateFold(ds, factory, split)
		if err != nil {
			return nil, fmt.Errorf("fold %d, %w", i, err)
		}
		held := make([]float64, len(split.Test))
		for j, idx := range split.Test {
			held[j] = ds.Y[idx]
		}

		rmse, err := stats.RMSE(res, held)
		if err != nil {
			return nil, fmt.Errorf("unable to score fold %d, %w", i, err)
		}
		foldScores = append(foldScores, FoldScore{Size: len(split.Test), RMSE: rmse})

		predicted = append(predicted, res...)
		actual = append(actual, held...)
	}

	sse, err := stats.SumSquaredError(predicted, actual)
	if err != nil {
		return nil, err
	}
	mae, err := stats.MAE(predicted, actual)
	if err != nil {
		return nil, err
	}
	r2, err := stats.RSquared(predicted, actual)
	if err != nil {
		return nil, err
	}

	return &Evaluation{
		RMSE:  math.Sqrt(sse / float64(len(actual))),
		MAE:   mae,
		R2:    r2,
		Count: len(actual),
		Folds: foldScores,
	}, nil
}

func evaluateFold(ds *window.Dataset, factory models.Factory, split Fold) ([]float64, error) {
	train, err := ds.Subset(split.Train)
	if err != nil {
		return nil, err
	}
	test, err := ds.Subset(split.Test)
	if err != nil {
		return nil, err
	}

	trainX, trainY, err := train.Matrices()
	if err != nil {
		return nil, err
	}
	testX, _, err := test.Matrices()
	if err != nil {
		return nil, err
	}

	model, err := factory()
	if err != nil {
		return nil, fmt.Errorf("unable to create model, %w, %w", models.ErrModelTraining, err)
	}
	if err := model.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("%w, %w", models.ErrModelTraining, err)
	}
	res, err := model.Predict(testX)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", models.ErrModelPrediction, err)
	}
	return res, nil
}
