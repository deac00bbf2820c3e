package forecaster

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aouyang1/go-windowcast/crossval"
	"github.com/aouyang1/go-windowcast/models"
	"github.com/aouyang1/go-windowcast/table"
	"github.com/aouyang1/go-windowcast/window"

	"github.com/goccy/go-json"
)

const (
	DefaultTrainTimeSteps  = 118
	DefaultHorizon         = 28
	DefaultWindowSize      = 14
	DefaultFolds           = 5
	DefaultSeed            = 1
	DefaultParallelization = 1
)

var (
	ErrNegativeNumSeries       = errors.New("number of series cannot be negative")
	ErrInvalidTrainTimeSteps   = errors.New("training time steps must be positive")
	ErrInvalidHorizon          = errors.New("horizon must be positive")
	ErrNegativeParallelization = errors.New("parallelization cannot be negative")
	ErrNegativeTimeout         = errors.New("series timeout cannot be negative")
)

// Options configures a forecasting run. Zero values are replaced with defaults by Validate.
type Options struct {
	// NumSeries is the exact number of series expected. Zero accepts any count.
	NumSeries int `json:"num_series"`

	// TrainTimeSteps is the length of the leading region of each series windows are drawn from
	TrainTimeSteps int `json:"train_time_steps"`
	Horizon        int `json:"horizon"`
	WindowSize     int `json:"window_size"`

	Folds int    `json:"folds"`
	Seed  uint64 `json:"seed"`

	// Parallelization sets how many series are processed concurrently
	Parallelization int `json:"parallelization"`

	// SeriesTimeout bounds the time spent on a single series. Zero disables the limit.
	SeriesTimeout time.Duration `json:"series_timeout"`

	KeyMode table.KeyMode   `json:"key_mode"`
	Model   *models.Options `json:"model"`

	Logger *slog.Logger `json:"-"`
}

// NewDefaultOptions matches the layout of the product distribution batch job: 118 training
// steps, 28 step horizon, window of 14, 5 fold cross validation seeded with 1 and a random
// forest per series.
func NewDefaultOptions() *Options {
	return &Options{
		TrainTimeSteps:  DefaultTrainTimeSteps,
		Horizon:         DefaultHorizon,
		WindowSize:      DefaultWindowSize,
		Folds:           DefaultFolds,
		Seed:            DefaultSeed,
		Parallelization: DefaultParallelization,
		KeyMode:         table.KeyFirstToken,
		Model:           models.NewDefaultOptions(),
	}
}

// Validate returns a defaulted copy of the options or the first configuration error found
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	opt := *o

	if opt.NumSeries < 0 {
		return nil, fmt.Errorf("num series %d, %w", opt.NumSeries, ErrNegativeNumSeries)
	}
	if opt.TrainTimeSteps == 0 {
		opt.TrainTimeSteps = DefaultTrainTimeSteps
	}
	if opt.TrainTimeSteps < 0 {
		return nil, fmt.Errorf("train time steps %d, %w", opt.TrainTimeSteps, ErrInvalidTrainTimeSteps)
	}
	if opt.Horizon == 0 {
		opt.Horizon = DefaultHorizon
	}
	if opt.Horizon < 0 {
		return nil, fmt.Errorf("horizon %d, %w", opt.Horizon, ErrInvalidHorizon)
	}
	if opt.WindowSize == 0 {
		opt.WindowSize = DefaultWindowSize
	}
	if err := window.Validate(opt.WindowSize, opt.TrainTimeSteps); err != nil {
		return nil, err
	}
	if opt.Folds == 0 {
		opt.Folds = DefaultFolds
	}
	if opt.Folds < crossval.MinFolds {
		return nil, fmt.Errorf("got %d folds, need at least %d, %w", opt.Folds, crossval.MinFolds, crossval.ErrInvalidFolds)
	}
	if opt.Parallelization == 0 {
		opt.Parallelization = DefaultParallelization
	}
	if opt.Parallelization < 0 {
		return nil, fmt.Errorf("parallelization %d, %w", opt.Parallelization, ErrNegativeParallelization)
	}
	if opt.SeriesTimeout < 0 {
		return nil, fmt.Errorf("series timeout %s, %w", opt.SeriesTimeout, ErrNegativeTimeout)
	}
	if opt.KeyMode == "" {
		opt.KeyMode = table.KeyFirstToken
	}
	if err := opt.KeyMode.Validate(); err != nil {
		return nil, err
	}

	var modelOpt *models.Options
	if opt.Model != nil {
		m := *opt.Model
		modelOpt = &m
	}
	var err error
	opt.Model, err = modelOpt.Validate()
	if err != nil {
		return nil, err
	}

	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return &opt, nil
}

// ReadOptions derives the input table constraints for a run
func (o *Options) ReadOptions() *table.ReadOptions {
	return &table.ReadOptions{
		MinLength: o.TrainTimeSteps,
		NumSeries: o.NumSeries,
		KeyMode:   o.KeyMode,
	}
}

// LoadOptions decodes a JSON options file on top of the defaults and validates the result
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	opt := NewDefaultOptions()
	if err := json.Unmarshal(data, opt); err != nil {
		return nil, fmt.Errorf("unable to decode options file %s, %w", path, err)
	}
	return opt.Validate()
}
