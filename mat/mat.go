// Package mat holds small constructors for gonum dense matrices used when handing window
// datasets to regression models.
package mat

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoRows      = errors.New("no rows to build matrix")
	ErrNoCols      = errors.New("rows have no columns")
	ErrColMismatch = errors.New("column size mismatch")
)

// NewDenseFromRows copies a row-major slice of rows into a dense matrix. Every row must
// have the same non-zero length.
func NewDenseFromRows(x [][]float64) (*mat.Dense, error) {
	m := len(x)
	if m == 0 {
		return nil, ErrNoRows
	}
	n := len(x[0])
	if n == 0 {
		return nil, ErrNoCols
	}

	data := make([]float64, 0, m*n)
	for i, row := range x {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d columns, expected %d, %w", i, len(row), n, ErrColMismatch)
		}
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// NewColumn copies y into an n x 1 dense matrix.
func NewColumn(y []float64) (*mat.Dense, error) {
	if len(y) == 0 {
		return nil, ErrNoRows
	}
	data := make([]float64, len(y))
	copy(data, y)
	return mat.NewDense(len(y), 1, data), nil
}

// NewRow copies x into a 1 x n dense matrix, the shape of a single feature vector.
func NewRow(x []float64) (*mat.Dense, error) {
	if len(x) == 0 {
		return nil, ErrNoCols
	}
	data := make([]float64, len(x))
	copy(data, x)
	return mat.NewDense(1, len(x), data), nil
}

// Rows returns the rows of x as freshly allocated slices.
func Rows(x mat.Matrix) [][]float64 {
	m, _ := x.Dims()
	rows := make([][]float64, m)
	for i := 0; i < m; i++ {
		rows[i] = mat.Row(nil, i, x)
	}
	return rows
}
