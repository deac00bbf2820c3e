package forecaster

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/aouyang1/go-windowcast/models"
	"github.com/aouyang1/go-windowcast/simulate"
	"github.com/aouyang1/go-windowcast/table"
)

func recoverForecastPanic() {
	if r := recover(); r != nil {
		fmt.Printf("panic: %v\n", r)
		debug.PrintStack()
	}
}

func runForecastExample(opt *Options, series []table.Series, filename string) error {
	f, err := New(opt)
	if err != nil {
		return err
	}

	res, err := f.Run(context.Background(), series)
	if err != nil {
		return err
	}
	if err := res.TablePrint(os.Stderr, "", "  "); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return res.Plot(file)
}

func Example_forecasterMeanModel() {
	defer recoverForecastPanic()

	series := make([]table.Series, 0, 2)
	for i, key := range []int64{7, 9} {
		values := make([]float64, 20)
		values[0] = float64(key)
		for j := 1; j < len(values); j++ {
			values[j] = float64(j + 10*i)
		}
		series = append(series, table.Series{Key: key, Values: values})
	}

	opt := &Options{
		TrainTimeSteps: 20,
		Horizon:        3,
		WindowSize:     5,
		Folds:          3,
		Model:          &models.Options{Kind: models.KindMean},
		Logger:         quietLogger,
	}
	f, err := New(opt)
	if err != nil {
		panic(err)
	}

	res, err := f.Run(context.Background(), series)
	if err != nil {
		panic(err)
	}
	if err := table.Write(os.Stdout, res.Rows()); err != nil {
		panic(err)
	}
	// Output:
	// 0 43 42 42
	// 7 17 16 16
	// 9 27 26 26
}

func Example_forecasterProducts() {
	defer recoverForecastPanic()

	series := simulate.Products(20, 120, 1)

	opt := NewDefaultOptions()
	opt.Parallelization = 4
	opt.Logger = quietLogger

	file, err := os.CreateTemp("", "windowcast-*.html")
	if err != nil {
		panic(err)
	}
	file.Close()
	defer os.Remove(file.Name())

	if err := runForecastExample(opt, series, file.Name()); err != nil {
		panic(err)
	}
	// Output:
}
