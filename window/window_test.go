package window

import (
	"testing"

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

func TestValidate(t *testing.T) {
	testData := map[string]struct {
		windowSize int
		trainLen   int
		err        error
	}{
		"valid":              {5, 20, nil},
		"smallest window":    {2, 4, nil},
		"window too small":   {1, 20, ErrInvalidWindow},
		"window equals len":  {20, 20, ErrInvalidWindow},
		"window exceeds len": {21, 20, ErrInvalidWindow},
		"zero rows":          {19, 20, ErrInvalidWindow},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			err := Validate(td.windowSize, td.trainLen)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.Nil(t, err)
		})
	}
}

func TestBuild(t *testing.T) {
	testData := map[string]struct {
		seriesLen  int
		windowSize int
		trainLen   int
	}{
		"full series":       {20, 5, 20},
		"partial region":    {30, 5, 20},
		"smallest window":   {10, 2, 10},
		"single row":        {10, 8, 10},
		"original defaults": {120, 14, 118},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			series := arange(td.seriesLen)
			ds, err := Build(series, td.windowSize, td.trainLen)
			require.Nil(t, err)

			expectedRows := td.trainLen - td.windowSize - 1
			require.Equal(t, expectedRows, ds.Len())
			assert.Equal(t, td.windowSize-1, ds.NumFeatures())

			for i := 0; i < ds.Len(); i++ {
				// ascending start offsets beginning after the key slot
				assert.Equal(t, i+1, ds.Offsets[i])

				w, err := ds.Window(i)
				require.Nil(t, err)
				require.Len(t, w, td.windowSize)
				assert.Equal(t, series[i+1:i+1+td.windowSize], w)
			}

			// last window never reaches the end of the training region
			last := ds.Offsets[ds.Len()-1] + td.windowSize - 1
			assert.Less(t, last, td.trainLen-1)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	testData := map[string]struct {
		series     []float64
		windowSize int
		trainLen   int
	}{
		"train region exceeds series": {arange(10), 3, 11},
		"window too large":            {arange(10), 9, 10},
		"window too small":            {arange(10), 1, 10},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := Build(td.series, td.windowSize, td.trainLen)
			assert.ErrorIs(t, err, ErrInvalidWindow)
		})
	}
}

func TestBuildDoesNotAlias(t *testing.T) {
	series := arange(12)
	ds, err := Build(series, 4, 12)
	require.Nil(t, err)

	series[1] = 100
	assert.Equal(t, 1.0, ds.X[0][0])
}

func TestSubset(t *testing.T) {
	ds, err := Build(arange(20), 5, 20)
	require.Nil(t, err)

	sub, err := ds.Subset([]int{3, 0, 7})
	require.Nil(t, err)
	assert.Equal(t, 3, sub.Len())
	assert.Equal(t, []int{4, 1, 8}, sub.Offsets)
	assert.Equal(t, []float64{8, 5, 12}, sub.Y)
	assert.Equal(t, ds.WindowSize(), sub.WindowSize())

	_, err = ds.Subset([]int{ds.Len()})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestMatrices(t *testing.T) {
	ds, err := Build(arange(20), 5, 20)
	require.Nil(t, err)

	x, y, err := ds.Matrices()
	require.Nil(t, err)

	xm, xn := x.Dims()
	assert.Equal(t, ds.Len(), xm)
	assert.Equal(t, 4, xn)

	ym, yn := y.Dims()
	assert.Equal(t, ds.Len(), ym)
	assert.Equal(t, 1, yn)

	assert.Equal(t, []float64{1, 2, 3, 4}, mat.Row(nil, 0, x))
	assert.Equal(t, ds.Y, mat.Col(nil, 0, y))

	empty := &Dataset{windowSize: 5}
	_, _, err = empty.Matrices()
	assert.ErrorIs(t, err, ErrEmptyDataset)
}
