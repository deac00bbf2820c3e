// Package forecaster trains one sliding window regression model per series, forecasts each
// series recursively over a fixed horizon and sums the per series forecasts into a total.
package forecaster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aouyang1/go-windowcast/crossval"
	"github.com/aouyang1/go-windowcast/metrics"
	"github.com/aouyang1/go-windowcast/models"
	"github.com/aouyang1/go-windowcast/recursive"
	"github.com/aouyang1/go-windowcast/table"
	"github.com/aouyang1/go-windowcast/window"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/aouyang1/go-windowcast"

var (
	ErrNoSeries            = errors.New("no series to forecast")
	ErrSeriesCountMismatch = errors.New("number of series does not match configuration")
	ErrRowLenMismatch      = errors.New("row length mismatch")
	ErrSeriesTimeout       = errors.New("series exceeded its time budget")
)

// Forecaster runs the per series pipeline over a batch of series
type Forecaster struct {
	opt     *Options
	factory models.Factory
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New creates a Forecaster from validated options. If no options are provided a default is used.
func New(opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid forecaster options, %w", err)
	}

	factory, err := models.NewFactory(opt.Model)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize model factory, %w", err)
	}

	f := &Forecaster{
		opt:     opt,
		factory: factory,
		logger:  opt.Logger,
		tracer:  otel.Tracer(tracerName),
	}
	return f, nil
}

// WithFactory replaces the configured model kind with a custom model factory
func (f *Forecaster) WithFactory(factory models.Factory) *Forecaster {
	if factory != nil {
		f.factory = factory
	}
	return f
}

// WithMetrics records run and series metrics into m
func (f *Forecaster) WithMetrics(m *metrics.Metrics) *Forecaster {
	f.metrics = m
	return f
}

// Options returns a copy of the validated options in use
func (f *Forecaster) Options() Options {
	return *f.opt
}

// Run forecasts every series. Configuration and input shape problems abort the run before any
// series is processed. A series that fails to train or predict is reported in the results and
// left out of the total.
func (f *Forecaster) Run(ctx context.Context, series []table.Series) (*Results, error) {
	start := time.Now()

	ctx, span := f.tracer.Start(ctx, "forecaster.Run", trace.WithAttributes(
		attribute.Int("series.count", len(series)),
		attribute.Int("forecast.horizon", f.opt.Horizon),
		attribute.Int("window.size", f.opt.WindowSize),
		attribute.String("model.kind", f.opt.Model.Kind),
	))
	defer span.End()

	if err := f.checkSeries(series); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res := make([]SeriesResult, len(series))

	g := new(errgroup.Group)
	g.SetLimit(f.opt.Parallelization)
	for i, s := range series {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res[i] = f.forecastSeries(ctx, i, s)
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("run stopped, %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	total := make([]float64, f.opt.Horizon)
	for _, r := range res {
		if r.Failed() {
			continue
		}
		var err error
		total, err = Accumulate(total, r.Forecast)
		if err != nil {
			return nil, fmt.Errorf("unable to accumulate series %d, %w", r.Key, err)
		}
	}

	results := &Results{
		Total:  total,
		Series: res,
	}
	results.Summary = newSummary(res, time.Since(start))

	f.metrics.RunDone(results.Summary.Duration)
	span.SetAttributes(
		attribute.Int("series.succeeded", results.Summary.Succeeded),
		attribute.Int("series.failed", results.Summary.Failed),
	)
	f.logger.Info("forecast run complete",
		"series", results.Summary.NumSeries,
		"succeeded", results.Summary.Succeeded,
		"failed", results.Summary.Failed,
		"cv_skipped", results.Summary.CVSkipped,
		"mean_rmse", results.Summary.MeanRMSE,
		"duration", results.Summary.Duration,
	)
	return results, nil
}

// RunFile reads the input table at inPath, runs the forecast and writes the output table to
// outPath. Nothing is written when the input is malformed or the run fails.
func (f *Forecaster) RunFile(ctx context.Context, inPath, outPath string) (*Results, error) {
	series, err := table.ReadFile(inPath, f.opt.ReadOptions())
	if err != nil {
		return nil, fmt.Errorf("unable to read input table %s, %w", inPath, err)
	}

	res, err := f.Run(ctx, series)
	if err != nil {
		return nil, err
	}

	if err := table.WriteFile(outPath, res.Rows()); err != nil {
		return nil, fmt.Errorf("unable to write output table %s, %w", outPath, err)
	}
	return res, nil
}

func (f *Forecaster) checkSeries(series []table.Series) error {
	if len(series) == 0 {
		return ErrNoSeries
	}
	if f.opt.NumSeries > 0 && len(series) != f.opt.NumSeries {
		return fmt.Errorf("got %d series, expected %d, %w", len(series), f.opt.NumSeries, ErrSeriesCountMismatch)
	}

	seriesLen := len(series[0].Values)
	for i, s := range series {
		if len(s.Values) != seriesLen {
			return fmt.Errorf("series %d has %d values, expected %d, %w", i, len(s.Values), seriesLen, table.ErrMalformedInput)
		}
	}
	if seriesLen < f.opt.TrainTimeSteps {
		return fmt.Errorf("series have %d values, need at least %d training steps, %w", seriesLen, f.opt.TrainTimeSteps, table.ErrMalformedInput)
	}
	return window.Validate(f.opt.WindowSize, f.opt.TrainTimeSteps)
}

func (f *Forecaster) forecastSeries(ctx context.Context, idx int, s table.Series) SeriesResult {
	start := time.Now()
	res := SeriesResult{Key: s.Key, Index: idx}

	ctx, span := f.tracer.Start(ctx, "forecaster.series", trace.WithAttributes(
		attribute.Int64("series.key", s.Key),
		attribute.Int("series.index", idx),
	))
	defer span.End()

	seriesCtx := ctx
	if f.opt.SeriesTimeout > 0 {
		var cancel context.CancelFunc
		seriesCtx, cancel = context.WithTimeout(ctx, f.opt.SeriesTimeout)
		defer cancel()
	}

	forecast, err := f.pipeline(seriesCtx, s, &res)
	res.Duration = time.Since(start)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s, %w", ErrSeriesTimeout, f.opt.SeriesTimeout, err)
		}
		res.Err = err
		res.Error = err.Error()

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.metrics.SeriesDone(metrics.StatusFailed)
		f.logger.Error("unable to forecast series", "key", s.Key, "index", idx, "error", err.Error())
		return res
	}

	res.Forecast = forecast
	f.metrics.SeriesDone(metrics.StatusSucceeded)
	return res
}

// pipeline builds the window dataset, cross validates, fits the final model and forecasts.
// Cross validation is diagnostic and never stops the forecast unless the context is done.
func (f *Forecaster) pipeline(ctx context.Context, s table.Series, res *SeriesResult) ([]float64, error) {
	stageStart := time.Now()
	ds, err := window.Build(s.Values, f.opt.WindowSize, f.opt.TrainTimeSteps)
	if err != nil {
		return nil, fmt.Errorf("unable to build window dataset, %w", err)
	}
	f.metrics.Stage(metrics.StageBuild, stageStart)

	stageStart = time.Now()
	eval, err := crossval.Evaluate(ctx, ds, f.factory, f.opt.Folds, f.opt.Seed)
	switch {
	case err == nil:
		res.Evaluation = eval
		f.metrics.CVDone(eval.RMSE)
		f.logger.Info("cross validated series", "key", s.Key, "rmse", eval.RMSE)
	case ctx.Err() != nil:
		return nil, fmt.Errorf("cross validation interrupted, %w", err)
	case errors.Is(err, crossval.ErrInsufficientData):
		res.CVSkipped = true
		f.metrics.CVSkip()
		f.logger.Warn("skipping cross validation", "key", s.Key, "rows", ds.Len(), "folds", f.opt.Folds)
	default:
		res.CVError = err.Error()
		f.logger.Warn("cross validation failed, continuing with forecast", "key", s.Key, "error", err.Error())
	}
	f.metrics.Stage(metrics.StageEvaluate, stageStart)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageStart = time.Now()
	model, err := f.factory()
	if err != nil {
		return nil, fmt.Errorf("unable to create model, %w, %w", models.ErrModelTraining, err)
	}
	x, y, err := ds.Matrices()
	if err != nil {
		return nil, fmt.Errorf("unable to create training matrices, %w", err)
	}
	if err := model.Fit(x, y); err != nil {
		return nil, fmt.Errorf("unable to fit model, %w, %w", models.ErrModelTraining, err)
	}
	if fi, ok := model.(models.FeatureImporter); ok {
		res.FeatureImportance = fi.FeatureImportance()
	}
	f.metrics.Stage(metrics.StageFit, stageStart)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageStart = time.Now()
	forecast, err := recursive.Forecast(ctx, s.Values, model, f.opt.WindowSize, f.opt.Horizon)
	if err != nil {
		return nil, fmt.Errorf("unable to forecast horizon, %w", err)
	}
	f.metrics.Stage(metrics.StageForecast, stageStart)
	return forecast, nil
}
