package forecaster

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineSteps(t *testing.T) {
	line := LineSteps("Forecast", []string{"a", "b"}, [][]float64{
		{1, 2, 3},
		{4, math.NaN(), 6},
	})
	require.NotNil(t, line)
	assert.Len(t, line.MultiSeries, 2)
}

func TestBarRMSE(t *testing.T) {
	bar := BarRMSE([]int64{7, 9}, []float64{1.5, 2.5})
	require.NotNil(t, bar)
	assert.Len(t, bar.MultiSeries, 1)
}

func TestResultsPlot(t *testing.T) {
	var buf bytes.Buffer
	require.Nil(t, sampleResults().Plot(&buf))

	out := buf.String()
	assert.Contains(t, out, "Total Forecast")
	assert.Contains(t, out, "Series Forecasts")
	assert.Contains(t, out, "Cross Validated RMSE")
}
