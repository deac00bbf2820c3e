package models

import (
	"errors"
)

var (
	ErrNoOptions          = errors.New("no initialized model options")
	ErrTargetLenMismatch  = errors.New("target length does not match target rows")
	ErrNoTrainingMatrix   = errors.New("no training matrix")
	ErrNoTargetMatrix     = errors.New("no target matrix")
	ErrNoDesignMatrix     = errors.New("no design matrix for inference")
	ErrFeatureLenMismatch = errors.New("number of features does not match number of model features")
	ErrEmptyTraining      = errors.New("training matrix has no rows")
	ErrUntrained          = errors.New("model has not been trained yet")
	ErrUnknownModelKind   = errors.New("unknown model kind")

	// ErrModelTraining and ErrModelPrediction classify failures of the regression capability
	// itself so callers can isolate them per series.
	ErrModelTraining   = errors.New("model training failed")
	ErrModelPrediction = errors.New("model prediction failed")
)
