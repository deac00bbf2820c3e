package forecaster

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Accumulate returns total + row element-wise as a new slice without touching either input. A
// nil total is treated as zeros of len(row).
func Accumulate(total, row []float64) ([]float64, error) {
	if total == nil {
		total = make([]float64, len(row))
	}
	if len(total) != len(row) {
		return nil, fmt.Errorf("total has %d steps, row has %d, %w", len(total), len(row), ErrRowLenMismatch)
	}
	out := make([]float64, len(total))
	copy(out, total)
	floats.Add(out, row)
	return out, nil
}
