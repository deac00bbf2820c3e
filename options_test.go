package forecaster

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aouyang1/go-windowcast/crossval"
	"github.com/aouyang1/go-windowcast/models"
	"github.com/aouyang1/go-windowcast/table"
	"github.com/aouyang1/go-windowcast/window"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt *Options
		err error
	}{
		"nil":                  {opt: nil},
		"empty":                {opt: &Options{}},
		"negative num series":  {opt: &Options{NumSeries: -1}, err: ErrNegativeNumSeries},
		"negative train steps": {opt: &Options{TrainTimeSteps: -5}, err: ErrInvalidTrainTimeSteps},
		"negative horizon":     {opt: &Options{Horizon: -1}, err: ErrInvalidHorizon},
		"window of one":        {opt: &Options{WindowSize: 1}, err: window.ErrInvalidWindow},
		"window too large":     {opt: &Options{TrainTimeSteps: 15, WindowSize: 14}, err: window.ErrInvalidWindow},
		"one fold":             {opt: &Options{Folds: 1}, err: crossval.ErrInvalidFolds},
		"negative parallel":    {opt: &Options{Parallelization: -2}, err: ErrNegativeParallelization},
		"negative timeout":     {opt: &Options{SeriesTimeout: -time.Second}, err: ErrNegativeTimeout},
		"bad key mode":         {opt: &Options{KeyMode: "column"}, err: table.ErrUnknownKeyMode},
		"bad model":            {opt: &Options{Model: &models.Options{Kind: "svm"}}, err: models.ErrUnknownModelKind},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				assert.Nil(t, opt)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, DefaultTrainTimeSteps, opt.TrainTimeSteps)
			assert.Equal(t, DefaultHorizon, opt.Horizon)
			assert.Equal(t, DefaultWindowSize, opt.WindowSize)
			assert.Equal(t, DefaultFolds, opt.Folds)
			assert.Equal(t, DefaultParallelization, opt.Parallelization)
			assert.Equal(t, table.KeyFirstToken, opt.KeyMode)
			assert.Equal(t, models.KindForest, opt.Model.Kind)
			assert.NotNil(t, opt.Logger)
		})
	}
}

func TestOptionsValidateCopies(t *testing.T) {
	in := &Options{Model: &models.Options{Kind: models.KindOLS}}
	opt, err := in.Validate()
	require.Nil(t, err)

	assert.Equal(t, 0, in.Horizon)
	assert.Nil(t, in.Model.OLS)
	assert.NotNil(t, opt.Model.OLS)
}

func TestOptionsReadOptions(t *testing.T) {
	opt, err := (&Options{NumSeries: 100, KeyMode: table.KeyRowIndex}).Validate()
	require.Nil(t, err)

	expected := &table.ReadOptions{
		MinLength: DefaultTrainTimeSteps,
		NumSeries: 100,
		KeyMode:   table.KeyRowIndex,
	}
	assert.Equal(t, expected, opt.ReadOptions())
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "options.json")
	data := `{
  "num_series": 100,
  "horizon": 7,
  "window_size": 10,
  "series_timeout": 5000000000,
  "model": {"kind": "lasso", "lasso": {"lambda": 0.5}}
}`
	require.Nil(t, os.WriteFile(path, []byte(data), 0o644))

	opt, err := LoadOptions(path)
	require.Nil(t, err)
	assert.Equal(t, 100, opt.NumSeries)
	assert.Equal(t, DefaultTrainTimeSteps, opt.TrainTimeSteps)
	assert.Equal(t, 7, opt.Horizon)
	assert.Equal(t, 10, opt.WindowSize)
	assert.Equal(t, 5*time.Second, opt.SeriesTimeout)
	assert.Equal(t, models.KindLasso, opt.Model.Kind)
	assert.Equal(t, 0.5, opt.Model.Lasso.Lambda)

	bad := filepath.Join(dir, "bad.json")
	require.Nil(t, os.WriteFile(bad, []byte(`{"horizon": "soon"}`), 0o644))
	_, err = LoadOptions(bad)
	assert.NotNil(t, err)

	invalid := filepath.Join(dir, "invalid.json")
	require.Nil(t, os.WriteFile(invalid, []byte(`{"folds": 1}`), 0o644))
	_, err = LoadOptions(invalid)
	assert.ErrorIs(t, err, crossval.ErrInvalidFolds)

	_, err = LoadOptions(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
