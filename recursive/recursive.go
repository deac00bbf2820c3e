// Package recursive extends a single step window model to a multi step horizon by feeding its
// own predictions back in as inputs once the real history tail is exhausted.
//
// For forecast step j with window size W, the feature vector has W-1 slots. The first W-j-1
// slots are read from the series tail starting at len(series)-W and the remaining slots hold
// the most recent predictions. From step W-1 onwards every slot is a prior prediction, so
// errors compound with the horizon. This is expected and the horizon is never truncated.
package recursive

import (
	"context"
	"errors"
	"fmt"
	"math"

	mat_ "github.com/aouyang1/go-windowcast/mat"
	"github.com/aouyang1/go-windowcast/models"
	"github.com/aouyang1/go-windowcast/window"
)

var (
	ErrInvalidHorizon = errors.New("horizon must be at least 1")
	ErrNoModel        = errors.New("no model to forecast with")
	ErrPredictionLen  = errors.New("unexpected number of predictions")
	ErrNonFinite      = errors.New("prediction is not a finite number")
)

// SourceKind identifies where a feature vector slot was read from
type SourceKind int

const (
	History SourceKind = iota
	Prediction
)

func (k SourceKind) String() string {
	switch k {
	case History:
		return "history"
	case Prediction:
		return "prediction"
	default:
		return "unknown"
	}
}

// Source records the provenance of one feature vector slot. Index is a position in the series
// for History and a forecast step for Prediction.
type Source struct {
	Kind  SourceKind
	Index int
}

// Step is the input and output of a single forecast step
type Step struct {
	Features []float64
	Sources  []Source
	Value    float64
}

// tailStart is the first series index feeding the real history slots
func tailStart(seriesLen, windowSize int) int {
	return seriesLen - windowSize
}

// numHistory is how many slots of step j still come from real history
func numHistory(windowSize, step int) int {
	n := windowSize - step - 1
	if n < 0 {
		return 0
	}
	return n
}

// FeatureVector assembles the W-1 inputs of forecast step using the series tail and the
// predictions made so far. predictions must hold at least step values.
func FeatureVector(series, predictions []float64, windowSize, step int) ([]float64, []Source, error) {
	if windowSize < window.MinWindowSize {
		return nil, nil, fmt.Errorf("window size %d, %w", windowSize, window.ErrInvalidWindow)
	}
	if len(series) < windowSize+1 {
		return nil, nil, fmt.Errorf("series has %d values for window %d, %w", len(series), windowSize, window.ErrInvalidWindow)
	}
	if step < 0 {
		return nil, nil, fmt.Errorf("negative step %d, %w", step, ErrInvalidHorizon)
	}
	if len(predictions) < step {
		return nil, nil, fmt.Errorf("step %d needs %d prior predictions, got %d, %w", step, step, len(predictions), ErrPredictionLen)
	}

	nSlots := windowSize - 1
	start := tailStart(len(series), windowSize)
	nHist := numHistory(windowSize, step)

	features := make([]float64, nSlots)
	sources := make([]Source, nSlots)

	k := 0
	for ; k < nHist; k++ {
		features[k] = series[start+k]
		sources[k] = Source{Kind: History, Index: start + k}
	}

	surplus := step - windowSize + 1
	for ; k < nSlots; k++ {
		idx := k + surplus
		features[k] = predictions[idx]
		sources[k] = Source{Kind: Prediction, Index: idx}
	}
	return features, sources, nil
}

// Forecast produces horizon predictions in temporal order. Values are returned unrounded.
func Forecast(ctx context.Context, series []float64, model models.Model, windowSize, horizon int) ([]float64, error) {
	steps, err := Trace(ctx, series, model, windowSize, horizon)
	if err != nil {
		return nil, err
	}
	predictions := make([]float64, len(steps))
	for i, s := range steps {
		predictions[i] = s.Value
	}
	return predictions, nil
}

// Trace runs the recursive forecast and returns every step's feature vector, provenance and
// predicted value.
func Trace(ctx context.Context, series []float64, model models.Model, windowSize, horizon int) ([]Step, error) {
	if model == nil {
		return nil, ErrNoModel
	}
	if horizon < 1 {
		return nil, fmt.Errorf("horizon %d, %w", horizon, ErrInvalidHorizon)
	}

	predictions := make([]float64, 0, horizon)
	steps := make([]Step, 0, horizon)
	for j := 0; j < horizon; j++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("forecast stopped at step %d, %w", j, err)
		}

		features, sources, err := FeatureVector(series, predictions, windowSize, j)
		if err != nil {
			return nil, err
		}

		x, err := mat_.NewRow(features)
		if err != nil {
			return nil, err
		}
		res, err := model.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("step %d, %w, %w", j, models.ErrModelPrediction, err)
		}
		if len(res) != 1 {
			return nil, fmt.Errorf("step %d got %d values, %w, %w", j, len(res), models.ErrModelPrediction, ErrPredictionLen)
		}
		if math.IsNaN(res[0]) || math.IsInf(res[0], 0) {
			return nil, fmt.Errorf("step %d predicted %v, %w, %w", j, res[0], models.ErrModelPrediction, ErrNonFinite)
		}

		predictions = append(predictions, res[0])
		steps = append(steps, Step{Features: features, Sources: sources, Value: res[0]})
	}
	return steps, nil
}
