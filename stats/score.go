// Package stats computes fit scores between predicted and actual values.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrNoValues       = errors.New("no values to score")
)

// Scores tracks the fit scores
type Scores struct {
	RMSE float64 `json:"root_mean_squared_error"`
	MSE  float64 `json:"mean_squared_error"`
	MAE  float64 `json:"mean_absolute_error"`
	MAPE float64 `json:"mean_average_percent_error"`
	R2   float64 `json:"r_squared"`
}

// NewScores calculates the fit scores given the predicted and actual input slice values
func NewScores(predicted, actual []float64) (*Scores, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mae, err := MAE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute error, %w", err)
	}
	mape, err := MAPE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean average percent error, %w", err)
	}
	rs, err := RSquared(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute r-squared, %w", err)
	}

	return &Scores{
		RMSE: math.Sqrt(mse),
		MSE:  mse,
		MAE:  mae,
		MAPE: mape,
		R2:   rs,
	}, nil
}

func validate(predicted, actual []float64) error {
	if len(predicted) != len(actual) {
		return fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	if len(actual) == 0 {
		return ErrNoValues
	}
	return nil
}

// SumSquaredError computes sum((y-yhat)^2)
func SumSquaredError(predicted, actual []float64) (float64, error) {
	if err := validate(predicted, actual); err != nil {
		return 0, err
	}
	sse := 0.0
	for i := 0; i < len(actual); i++ {
		d := actual[i] - predicted[i]
		sse += d * d
	}
	return sse, nil
}

// MSE computes the mean squared error. This is the same as sum((y-yhat)^2)/n.
// A score of 0 means a perfect match with no errors.
func MSE(predicted, actual []float64) (float64, error) {
	sse, err := SumSquaredError(predicted, actual)
	if err != nil {
		return 0, err
	}
	return sse / float64(len(actual)), nil
}

// RMSE computes the root mean squared error
func RMSE(predicted, actual []float64) (float64, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE computes the mean absolute error, sum(abs(y-yhat))/n
func MAE(predicted, actual []float64) (float64, error) {
	if err := validate(predicted, actual); err != nil {
		return 0, err
	}
	mae := 0.0
	for i := 0; i < len(actual); i++ {
		mae += math.Abs(actual[i] - predicted[i])
	}
	return mae / float64(len(actual)), nil
}

// MAPE calculates the mean average percent error. This is the same as sum(abs((y-yhat)/y))/n.
// Points where the actual value is 0 contribute nothing. A score of 0 means a perfect match with
// no errors.
func MAPE(predicted, actual []float64) (float64, error) {
	if err := validate(predicted, actual); err != nil {
		return 0, err
	}

	mape := 0.0
	for i := 0; i < len(actual); i++ {
		if actual[i] == 0 {
			continue
		}
		mape += math.Abs((actual[i] - predicted[i]) / actual[i])
	}
	mape /= float64(len(actual))
	return mape, nil
}

// RSquared computes the r squared value between the predicted and actual where 1.0 means perfect
// fit and 0 represents no relationship
func RSquared(predicted, actual []float64) (float64, error) {
	if err := validate(predicted, actual); err != nil {
		return 0, err
	}
	r2 := stat.RSquaredFrom(predicted, actual, nil)
	if math.IsNaN(r2) {
		return 1.0, nil
	}
	return r2, nil
}
