package recursive

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/aouyang1/go-windowcast/models"
	"github.com/aouyang1/go-windowcast/window"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func arange(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(i)
	}
	return s
}

func fitMean(t *testing.T, series []float64, windowSize int) models.Model {
	ds, err := window.Build(series, windowSize, len(series))
	require.Nil(t, err)
	x, y, err := ds.Matrices()
	require.Nil(t, err)

	m := models.NewMeanRegression()
	require.Nil(t, m.Fit(x, y))
	return m
}

type erroringModel struct{}

func (erroringModel) Fit(x, y mat.Matrix) error { return nil }

func (erroringModel) Predict(x mat.Matrix) ([]float64, error) {
	return nil, errors.New("boom")
}

type wideModel struct{}

func (wideModel) Fit(x, y mat.Matrix) error { return nil }

func (wideModel) Predict(x mat.Matrix) ([]float64, error) {
	return []float64{1, 2}, nil
}

type constModel struct {
	value float64
}

func (constModel) Fit(x, y mat.Matrix) error { return nil }

func (m constModel) Predict(x mat.Matrix) ([]float64, error) {
	return []float64{m.value}, nil
}

func TestFeatureVectorProvenance(t *testing.T) {
	series := arange(30)
	windowSize := 6
	predictions := []float64{100, 101, 102, 103, 104, 105, 106, 107}

	for j := 0; j < len(predictions); j++ {
		features, sources, err := FeatureVector(series, predictions[:j], windowSize, j)
		require.Nil(t, err)
		require.Len(t, features, windowSize-1)
		require.Len(t, sources, windowSize-1)

		var nPred int
		for k, src := range sources {
			switch src.Kind {
			case History:
				assert.Equal(t, series[src.Index], features[k])
				assert.Equal(t, len(series)-windowSize+k, src.Index)
			case Prediction:
				nPred++
				assert.Equal(t, predictions[src.Index], features[k])
				assert.Less(t, src.Index, j)
			}
		}
		assert.Equal(t, min(j, windowSize-1), nPred, "step %d", j)

		if j >= windowSize-1 {
			for _, src := range sources {
				assert.Equal(t, Prediction, src.Kind)
			}
		}
	}
}

func TestFeatureVectorErrors(t *testing.T) {
	testData := map[string]struct {
		series      []float64
		predictions []float64
		windowSize  int
		step        int
		err         error
	}{
		"window too small": {
			series:     arange(10),
			windowSize: 1,
			err:        window.ErrInvalidWindow,
		},
		"series too short": {
			series:     arange(5),
			windowSize: 5,
			err:        window.ErrInvalidWindow,
		},
		"negative step": {
			series:     arange(10),
			windowSize: 3,
			step:       -1,
			err:        ErrInvalidHorizon,
		},
		"missing predictions": {
			series:      arange(10),
			predictions: []float64{1},
			windowSize:  3,
			step:        2,
			err:         ErrPredictionLen,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, _, err := FeatureVector(td.series, td.predictions, td.windowSize, td.step)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestTraceMeanModel(t *testing.T) {
	series := arange(20)
	model := fitMean(t, series, 5)

	steps, err := Trace(context.Background(), series, model, 5, 3)
	require.Nil(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, []float64{15, 16, 17, 18}, steps[0].Features)
	for k, src := range steps[0].Sources {
		assert.Equal(t, Source{Kind: History, Index: 15 + k}, src)
	}
	assert.InDelta(t, 16.5, steps[0].Value, 1e-12)

	assert.Equal(t, []float64{15, 16, 17, 16.5}, steps[1].Features)
	assert.InDelta(t, 16.125, steps[1].Value, 1e-12)

	assert.Equal(t, []float64{15, 16, 16.5, 16.125}, steps[2].Features)
	assert.Equal(t, []Source{
		{Kind: History, Index: 15},
		{Kind: History, Index: 16},
		{Kind: Prediction, Index: 0},
		{Kind: Prediction, Index: 1},
	}, steps[2].Sources)
	assert.InDelta(t, 15.90625, steps[2].Value, 1e-12)
}

func TestForecastHorizonBeyondWindow(t *testing.T) {
	series := arange(20)
	model := fitMean(t, series, 3)

	res, err := Forecast(context.Background(), series, model, 3, 10)
	require.Nil(t, err)
	require.Len(t, res, 10)

	// [17, 18] -> 17.5, [17, 17.5] -> 17.25, then purely autoregressive
	expected := []float64{17.5, 17.25}
	for j := 2; j < 10; j++ {
		expected = append(expected, (expected[j-2]+expected[j-1])/2)
	}
	assert.InDeltaSlice(t, expected, res, 1e-12)
}

func TestForecastErrors(t *testing.T) {
	series := arange(20)
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	testData := map[string]struct {
		ctx     context.Context
		model   models.Model
		window  int
		horizon int
		err     error
	}{
		"no model": {
			ctx:     context.Background(),
			window:  5,
			horizon: 3,
			err:     ErrNoModel,
		},
		"zero horizon": {
			ctx:     context.Background(),
			model:   erroringModel{},
			window:  5,
			horizon: 0,
			err:     ErrInvalidHorizon,
		},
		"invalid window": {
			ctx:     context.Background(),
			model:   erroringModel{},
			window:  1,
			horizon: 3,
			err:     window.ErrInvalidWindow,
		},
		"predict failure": {
			ctx:     context.Background(),
			model:   erroringModel{},
			window:  5,
			horizon: 3,
			err:     models.ErrModelPrediction,
		},
		"too many values": {
			ctx:     context.Background(),
			model:   wideModel{},
			window:  5,
			horizon: 3,
			err:     ErrPredictionLen,
		},
		"nan prediction": {
			ctx:     context.Background(),
			model:   constModel{math.NaN()},
			window:  5,
			horizon: 3,
			err:     ErrNonFinite,
		},
		"infinite prediction": {
			ctx:     context.Background(),
			model:   constModel{math.Inf(-1)},
			window:  5,
			horizon: 3,
			err:     models.ErrModelPrediction,
		},
		"canceled": {
			ctx:     canceled,
			model:   wideModel{},
			window:  5,
			horizon: 3,
			err:     context.Canceled,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Forecast(td.ctx, series, td.model, td.window, td.horizon)
			assert.ErrorIs(t, err, td.err)
			assert.Nil(t, res)
		})
	}
}

func TestSourceKindString(t *testing.T) {
	assert.Equal(t, "history", History.String())
	assert.Equal(t, "prediction", Prediction.String())
	assert.Equal(t, "unknown", SourceKind(7).String())
}
