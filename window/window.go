// Package window turns a single series' history into sliding window training examples. Every
// window holds WindowSize contiguous values where all but the last value are predictors and the
// last value is the regression target.
package window

import (
	"errors"
	"fmt"

	mat_ "github.com/aouyang1/go-windowcast/mat"
	"gonum.org/v1/gonum/mat"
)

// MinWindowSize is the smallest window that still leaves one predictor next to the target.
const MinWindowSize = 2

// StartOffset is the first history index a window may start at. Index 0 holds the series key.
const StartOffset = 1

var (
	ErrInvalidWindow   = errors.New("window size incompatible with training region")
	ErrIndexOutOfRange = errors.New("dataset row index out of range")
	ErrEmptyDataset    = errors.New("empty window dataset")
)

// Dataset is the ordered collection of windows drawn from a series' training region.
type Dataset struct {
	// X holds the predictors of each window, WindowSize-1 values per row.
	X [][]float64
	// Y holds the target of each window.
	Y []float64
	// Offsets holds the history index each window starts at.
	Offsets []int

	windowSize int
}

// NumRows returns how many windows a training region yields for the given window size.
func NumRows(windowSize, trainLen int) int {
	return trainLen - windowSize - StartOffset
}

// Validate checks that a window size is usable against a training region length.
func Validate(windowSize, trainLen int) error {
	if windowSize < MinWindowSize {
		return fmt.Errorf("window size %d below minimum of %d, %w", windowSize, MinWindowSize, ErrInvalidWindow)
	}
	if windowSize >= trainLen {
		return fmt.Errorf("window size %d not smaller than training length %d, %w", windowSize, trainLen, ErrInvalidWindow)
	}
	if rows := NumRows(windowSize, trainLen); rows <= 0 {
		return fmt.Errorf("window size %d with training length %d yields %d rows, %w", windowSize, trainLen, rows, ErrInvalidWindow)
	}
	return nil
}

// Build emits one window per start offset j in [1, trainLen-windowSize-1], in ascending order.
// The input series is not modified and no row aliases it.
func Build(series []float64, windowSize, trainLen int) (*Dataset, error) {
	if err := Validate(windowSize, trainLen); err != nil {
		return nil, err
	}
	if trainLen > len(series) {
		return nil, fmt.Errorf("training length %d exceeds series length %d, %w", trainLen, len(series), ErrInvalidWindow)
	}

	n := NumRows(windowSize, trainLen)
	ds := &Dataset{
		X:          make([][]float64, 0, n),
		Y:          make([]float64, 0, n),
		Offsets:    make([]int, 0, n),
		windowSize: windowSize,
	}
	for j := StartOffset; j < trainLen-windowSize; j++ {
		predictors := make([]float64, windowSize-1)
		copy(predictors, series[j:j+windowSize-1])

		ds.X = append(ds.X, predictors)
		ds.Y = append(ds.Y, series[j+windowSize-1])
		ds.Offsets = append(ds.Offsets, j)
	}
	return ds, nil
}

// Len returns the number of windows.
func (ds *Dataset) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.Y)
}

// WindowSize returns the window length the dataset was built with.
func (ds *Dataset) WindowSize() int {
	return ds.windowSize
}

// NumFeatures returns the number of predictors per window.
func (ds *Dataset) NumFeatures() int {
	return ds.windowSize - 1
}

// Window returns the full window at row i, predictors followed by the target.
func (ds *Dataset) Window(i int) ([]float64, error) {
	if i < 0 || i >= ds.Len() {
		return nil, fmt.Errorf("row %d with %d rows, %w", i, ds.Len(), ErrIndexOutOfRange)
	}
	w := make([]float64, 0, ds.windowSize)
	w = append(w, ds.X[i]...)
	return append(w, ds.Y[i]), nil
}

// Subset returns a new dataset holding the rows at idx in the given order. Rows are shared with
// the receiver and must be treated as read only.
func (ds *Dataset) Subset(idx []int) (*Dataset, error) {
	sub := &Dataset{
		X:          make([][]float64, 0, len(idx)),
		Y:          make([]float64, 0, len(idx)),
		Offsets:    make([]int, 0, len(idx)),
		windowSize: ds.windowSize,
	}
	for _, i := range idx {
		if i < 0 || i >= ds.Len() {
			return nil, fmt.Errorf("row %d with %d rows, %w", i, ds.Len(), ErrIndexOutOfRange)
		}
		sub.X = append(sub.X, ds.X[i])
		sub.Y = append(sub.Y, ds.Y[i])
		sub.Offsets = append(sub.Offsets, ds.Offsets[i])
	}
	return sub, nil
}

// Matrices returns the predictors as an n x (WindowSize-1) design matrix and the targets as an
// n x 1 matrix.
func (ds *Dataset) Matrices() (*mat.Dense, *mat.Dense, error) {
	if ds.Len() == 0 {
		return nil, nil, ErrEmptyDataset
	}
	x, err := mat_.NewDenseFromRows(ds.X)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to build design matrix, %w", err)
	}
	y, err := mat_.NewColumn(ds.Y)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to build target matrix, %w", err)
	}
	return x, y, nil
}
