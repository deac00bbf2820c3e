package mat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewDenseFromRows(t *testing.T) {
	testData := map[string]struct {
		err error
		x   [][]float64
		m   int
		n   int
	}{
		"nil input": {
			ErrNoRows,
			nil,
			0, 0,
		},
		"empty rows": {
			ErrNoCols,
			[][]float64{{}},
			0, 0,
		},
		"single element": {
			nil,
			[][]float64{{1}},
			1, 1,
		},
		"one row multiple cols": {
			nil,
			[][]float64{{1, 2, 3}},
			1, 3,
		},
		"multiple rows and cols": {
			nil,
			[][]float64{{1, 2, 3}, {4, 5, 6}},
			2, 3,
		},
		"inconsistent cols": {
			ErrColMismatch,
			[][]float64{{1, 2, 3}, {4, 5}},
			0, 0,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			mx, err := NewDenseFromRows(td.x)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)

			m, n := mx.Dims()
			assert.Equal(t, td.m, m, "m")
			assert.Equal(t, td.n, n, "n")
			assert.Equal(t, td.x, Rows(mx))
		})
	}
}

func TestNewDenseFromRowsCopies(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}}
	mx, err := NewDenseFromRows(x)
	require.Nil(t, err)

	x[0][0] = 100
	assert.Equal(t, 1.0, mx.At(0, 0))
}

func TestNewColumnAndRow(t *testing.T) {
	col, err := NewColumn([]float64{1, 2, 3})
	require.Nil(t, err)
	m, n := col.Dims()
	assert.Equal(t, 3, m)
	assert.Equal(t, 1, n)
	assert.Equal(t, []float64{1, 2, 3}, mat.Col(nil, 0, col))

	row, err := NewRow([]float64{4, 5})
	require.Nil(t, err)
	m, n = row.Dims()
	assert.Equal(t, 1, m)
	assert.Equal(t, 2, n)

	_, err = NewColumn(nil)
	assert.ErrorIs(t, err, ErrNoRows)
	_, err = NewRow(nil)
	assert.ErrorIs(t, err, ErrNoCols)
}
