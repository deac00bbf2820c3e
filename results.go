package forecaster

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aouyang1/go-windowcast/crossval"
	"github.com/aouyang1/go-windowcast/table"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"
)

// SeriesResult is the outcome of one series pipeline
type SeriesResult struct {
	Key   int64 `json:"key"`
	Index int   `json:"index"`

	Forecast          []float64            `json:"forecast,omitempty"`
	Evaluation        *crossval.Evaluation `json:"evaluation,omitempty"`
	CVSkipped         bool                 `json:"cv_skipped"`
	CVError           string               `json:"cv_error,omitempty"`
	FeatureImportance []float64            `json:"feature_importance,omitempty"`
	Duration          time.Duration        `json:"duration"`

	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// Failed reports whether the series was left out of the output
func (r SeriesResult) Failed() bool {
	return r.Err != nil
}

// Failure names a series that produced no forecast
type Failure struct {
	Key    int64  `json:"key"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Summary aggregates the per series outcomes of a run. MeanRMSE averages the cross validated
// RMSE over the Evaluated series only.
type Summary struct {
	NumSeries int           `json:"num_series"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	CVSkipped int           `json:"cv_skipped"`
	Evaluated int           `json:"evaluated"`
	MeanRMSE  float64       `json:"mean_rmse"`
	Failures  []Failure     `json:"failures,omitempty"`
	Duration  time.Duration `json:"duration"`
}

func newSummary(res []SeriesResult, d time.Duration) Summary {
	s := Summary{
		NumSeries: len(res),
		Duration:  d,
	}

	rmse := make([]float64, 0, len(res))
	for _, r := range res {
		if r.Failed() {
			s.Failed++
			s.Failures = append(s.Failures, Failure{Key: r.Key, Index: r.Index, Reason: r.Error})
		} else {
			s.Succeeded++
		}
		if r.CVSkipped {
			s.CVSkipped++
		}
		if r.Evaluation != nil {
			rmse = append(rmse, r.Evaluation.RMSE)
		}
	}
	s.Evaluated = len(rmse)
	if s.Evaluated > 0 {
		s.MeanRMSE = stat.Mean(rmse, nil)
	}
	return s
}

// Results holds the total forecast, every series outcome in input order and the run summary
type Results struct {
	Total   []float64      `json:"total"`
	Series  []SeriesResult `json:"series"`
	Summary Summary        `json:"summary"`
}

// Rows returns the output table: the total row keyed 0 followed by one row per succeeded
// series in input order
func (r *Results) Rows() []table.Row {
	rows := make([]table.Row, 0, r.Summary.Succeeded+1)
	rows = append(rows, table.Row{Key: 0, Values: r.Total})
	for _, s := range r.Series {
		if s.Failed() {
			continue
		}
		rows = append(rows, table.Row{Key: s.Key, Values: s.Forecast})
	}
	return rows
}

// WriteJSON encodes the results as indented JSON
func (r *Results) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// TablePrint writes a human readable summary of the run followed by the cross validated error
// of every series
func (r *Results) TablePrint(w io.Writer, prefix, indent string) error {
	s := r.Summary
	if _, err := fmt.Fprintf(w, "%s%sSummary:\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sSeries: %d    Succeeded: %d    Failed: %d    CV Skipped: %d\n",
		prefix, indentExpand(indent, 1),
		s.NumSeries, s.Succeeded, s.Failed, s.CVSkipped,
	); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sMean RMSE: %.3f (%d evaluated)\n",
		prefix, indentExpand(indent, 1), s.MeanRMSE, s.Evaluated); err != nil {
		return err
	}

	if len(s.Failures) > 0 {
		if _, err := fmt.Fprintf(w, "%s%sFailures:\n", prefix, indentExpand(indent, 1)); err != nil {
			return err
		}
		for _, f := range s.Failures {
			if _, err := fmt.Fprintf(w, "%s%s%d: %s\n", prefix, indentExpand(indent, 2), f.Key, f.Reason); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintf(w, "%s%sSeries:\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s%8s%12s%12s\n", prefix, indentExpand(indent, 1), "Key", "RMSE", "Status"); err != nil {
		return err
	}
	for _, sr := range r.Series {
		rmse := "-"
		if sr.Evaluation != nil {
			rmse = fmt.Sprintf("%.3f", sr.Evaluation.RMSE)
		}
		status := "ok"
		switch {
		case sr.Failed():
			status = "failed"
		case sr.CVSkipped:
			status = "cv skipped"
		}
		if _, err := fmt.Fprintf(w, "%s%s%8d%12s%12s\n", prefix, indentExpand(indent, 1), sr.Key, rmse, status); err != nil {
			return err
		}
	}
	return nil
}

func indentExpand(indent string, growth int) string {
	return strings.Repeat(indent, growth)
}
