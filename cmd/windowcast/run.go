package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	forecaster "github.com/aouyang1/go-windowcast"
	"github.com/aouyang1/go-windowcast/metrics"
	"github.com/aouyang1/go-windowcast/store/duckdb"
	"github.com/aouyang1/go-windowcast/table"

	"github.com/spf13/cobra"
)

type runFlags struct {
	input       string
	output      string
	config      string
	window      int
	horizon     int
	trainSteps  int
	folds       int
	seed        uint64
	model       string
	parallel    int
	timeout     time.Duration
	keyMode     string
	duckdbPath  string
	runID       string
	summary     string
	plot        string
	metricsFile string
	logFormat   string
	verbose     bool
}

func runCmd() *cobra.Command {
	var fl runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Forecast every series of an input table",
		Long: `Reads a whitespace separated integer table, one series per line, forecasts each
series and writes the total row keyed 0 followed by one row per series. Series can also be
read from and forecasts saved to a DuckDB database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(cmd, &fl)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&fl.input, "input", "i", "", "Input series table")
	flags.StringVarP(&fl.output, "output", "o", "", "Output forecast table")
	flags.StringVarP(&fl.config, "config", "c", "", "Options file (JSON)")
	flags.IntVar(&fl.window, "window", forecaster.DefaultWindowSize, "Window size, predictors plus target")
	flags.IntVar(&fl.horizon, "horizon", forecaster.DefaultHorizon, "Number of steps to forecast")
	flags.IntVar(&fl.trainSteps, "train-steps", forecaster.DefaultTrainTimeSteps, "Leading steps of each series used for training")
	flags.IntVar(&fl.folds, "folds", forecaster.DefaultFolds, "Cross validation folds")
	flags.Uint64Var(&fl.seed, "seed", forecaster.DefaultSeed, "Cross validation shuffle seed")
	flags.StringVar(&fl.model, "model", "forest", "Regression model: forest, ols, lasso or mean")
	flags.IntVar(&fl.parallel, "parallel", forecaster.DefaultParallelization, "Series processed concurrently")
	flags.DurationVar(&fl.timeout, "timeout", 0, "Time budget per series, 0 for none")
	flags.StringVar(&fl.keyMode, "key-mode", string(table.KeyFirstToken), "Series key source: first-token or row-index")
	flags.StringVar(&fl.duckdbPath, "duckdb", "", "DuckDB database used as series source when no input is given and as forecast sink")
	flags.StringVar(&fl.runID, "run-id", "", "Run identifier for forecasts saved to DuckDB")
	flags.StringVar(&fl.summary, "summary", "", "Write the run results as JSON")
	flags.StringVar(&fl.plot, "plot", "", "Write an html plot of the forecasts")
	flags.StringVar(&fl.metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format")
	flags.StringVar(&fl.logFormat, "log-format", "text", "Log format: text or json")
	flags.BoolVarP(&fl.verbose, "verbose", "v", false, "Verbose logging")

	return cmd
}

// loadOptions starts from the options file, or the defaults, and applies every flag set on
// the command line
func loadOptions(cmd *cobra.Command, fl *runFlags) (*forecaster.Options, error) {
	opt := forecaster.NewDefaultOptions()
	if fl.config != "" {
		var err error
		opt, err = forecaster.LoadOptions(fl.config)
		if err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("window") {
		opt.WindowSize = fl.window
	}
	if flags.Changed("horizon") {
		opt.Horizon = fl.horizon
	}
	if flags.Changed("train-steps") {
		opt.TrainTimeSteps = fl.trainSteps
	}
	if flags.Changed("folds") {
		opt.Folds = fl.folds
	}
	if flags.Changed("seed") {
		opt.Seed = fl.seed
	}
	if flags.Changed("model") {
		opt.Model.Kind = fl.model
	}
	if flags.Changed("parallel") {
		opt.Parallelization = fl.parallel
	}
	if flags.Changed("timeout") {
		opt.SeriesTimeout = fl.timeout
	}
	if flags.Changed("key-mode") {
		opt.KeyMode = table.KeyMode(fl.keyMode)
	}
	return opt, nil
}

func runForecast(cmd *cobra.Command, fl *runFlags) error {
	ctx := cmd.Context()

	if fl.input == "" && fl.duckdbPath == "" {
		return errors.New("one of --input or --duckdb is required")
	}
	if fl.output == "" && fl.duckdbPath == "" {
		return errors.New("one of --output or --duckdb is required")
	}

	logger, err := newLogger(cmd.ErrOrStderr(), fl.logFormat, fl.verbose)
	if err != nil {
		return err
	}

	opt, err := loadOptions(cmd, fl)
	if err != nil {
		return fmt.Errorf("failed to load options: %w", err)
	}
	opt.Logger = logger

	f, err := forecaster.New(opt)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if fl.metricsFile != "" {
		m = metrics.New()
		f.WithMetrics(m)
	}

	var client *duckdb.Client
	if fl.duckdbPath != "" {
		client, err = duckdb.NewClient(fl.duckdbPath)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := duckdb.InitializeSchema(ctx, client); err != nil {
			return err
		}
	}

	var res *forecaster.Results
	switch {
	case fl.input != "" && fl.output != "":
		res, err = f.RunFile(ctx, fl.input, fl.output)
		if err != nil {
			return err
		}
	default:
		var series []table.Series
		if fl.input != "" {
			validated := f.Options()
			series, err = table.ReadFile(fl.input, validated.ReadOptions())
		} else {
			series, err = duckdb.NewSeriesRepo(client).Load(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to load series: %w", err)
		}

		res, err = f.Run(ctx, series)
		if err != nil {
			return err
		}
		if fl.output != "" {
			if err := table.WriteFile(fl.output, res.Rows()); err != nil {
				return err
			}
		}
	}

	if client != nil {
		runID := fl.runID
		if runID == "" {
			runID = "run-" + time.Now().UTC().Format("20060102T150405.000Z")
		}
		if err := duckdb.NewForecastRepo(client).Save(ctx, runID, res.Rows()); err != nil {
			return fmt.Errorf("failed to save forecasts: %w", err)
		}
		logger.Info("saved forecasts", "run_id", runID, "rows", len(res.Rows()))
	}

	if err := res.TablePrint(cmd.ErrOrStderr(), "", "  "); err != nil {
		return err
	}
	if fl.summary != "" {
		if err := writeFile(fl.summary, res.WriteJSON); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	if fl.plot != "" {
		if err := writeFile(fl.plot, res.Plot); err != nil {
			return fmt.Errorf("failed to write plot: %w", err)
		}
	}
	if m != nil {
		if err := m.WriteTextfile(fl.metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
