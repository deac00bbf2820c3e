package forecaster

import (
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineSteps generates an echart multi-line chart over forecast steps 1..n. Each entry of y is a
// series that must have n values. NaN values are left as gaps.
func LineSteps(title string, seriesName []string, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	var n int
	for _, s := range y {
		n = max(n, len(s))
	}
	steps := make([]string, 0, n)
	for i := 0; i < n; i++ {
		steps = append(steps, strconv.Itoa(i+1))
	}

	line = line.SetXAxis(steps)
	for i, name := range seriesName {
		lineData := make([]opts.LineData, 0, len(y[i]))
		for _, v := range y[i] {
			if math.IsNaN(v) {
				lineData = append(lineData, opts.LineData{Value: "-"})
				continue
			}
			lineData = append(lineData, opts.LineData{Value: v})
		}
		line = line.AddSeries(name, lineData)
	}
	return line
}

// BarRMSE generates an echart bar chart of the cross validated RMSE of each evaluated series
func BarRMSE(keys []int64, rmse []float64) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Cross Validated RMSE",
			},
		),
	)

	labels := make([]string, 0, len(keys))
	barData := make([]opts.BarData, 0, len(rmse))
	for i := range keys {
		labels = append(labels, strconv.FormatInt(keys[i], 10))
		barData = append(barData, opts.BarData{Value: rmse[i]})
	}

	bar.SetXAxis(labels).
		AddSeries("RMSE", barData)
	return bar
}

// Plot uses the Apache Echarts library to render an html page with the total forecast, every
// succeeded series forecast and the cross validated error per series
func (r *Results) Plot(w io.Writer) error {
	names := make([]string, 0, len(r.Series))
	forecasts := make([][]float64, 0, len(r.Series))
	keys := make([]int64, 0, len(r.Series))
	rmse := make([]float64, 0, len(r.Series))
	for _, s := range r.Series {
		if s.Evaluation != nil {
			keys = append(keys, s.Key)
			rmse = append(rmse, s.Evaluation.RMSE)
		}
		if s.Failed() {
			continue
		}
		names = append(names, strconv.FormatInt(s.Key, 10))
		forecasts = append(forecasts, s.Forecast)
	}

	page := components.NewPage()
	page.AddCharts(
		LineSteps("Total Forecast", []string{"Total"}, [][]float64{r.Total}),
		LineSteps("Series Forecasts", names, forecasts),
		BarRMSE(keys, rmse),
	)
	return page.Render(w)
}
