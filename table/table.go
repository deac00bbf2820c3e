// Package table reads integer series tables and writes forecast tables in the plain whitespace
// separated text layout used by the batch job.
package table

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrMalformedInput = errors.New("malformed input")
	ErrUnknownKeyMode = errors.New("unknown key mode")
	ErrNegativeLength = errors.New("minimum length cannot be negative")
	ErrNegativeCount  = errors.New("number of series cannot be negative")
)

// KeyMode controls how a series key is derived from an input row
type KeyMode string

const (
	// KeyFirstToken keys a series by its first value, which also remains history slot 0
	KeyFirstToken KeyMode = "first-token"

	// KeyRowIndex keys a series by its 1-based position among non-blank rows
	KeyRowIndex KeyMode = "row-index"
)

const maxLineBytes = 16 * 1024 * 1024

// Series is one ordered integer series. Values[0] is the key slot of the row.
type Series struct {
	Key    int64     `json:"key"`
	Values []float64 `json:"values"`
}

// Row is one output line: a key followed by horizon values
type Row struct {
	Key    int64     `json:"key"`
	Values []float64 `json:"values"`
}

type ReadOptions struct {
	MinLength int     `json:"min_length"`
	NumSeries int     `json:"num_series"`
	KeyMode   KeyMode `json:"key_mode"`
}

func NewDefaultReadOptions() *ReadOptions {
	return &ReadOptions{
		KeyMode: KeyFirstToken,
	}
}

func (r *ReadOptions) Validate() (*ReadOptions, error) {
	if r == nil {
		return NewDefaultReadOptions(), nil
	}
	if r.MinLength < 0 {
		return nil, fmt.Errorf("min length %d, %w", r.MinLength, ErrNegativeLength)
	}
	if r.NumSeries < 0 {
		return nil, fmt.Errorf("num series %d, %w", r.NumSeries, ErrNegativeCount)
	}
	opt := *r
	if opt.KeyMode == "" {
		opt.KeyMode = KeyFirstToken
	}
	if err := opt.KeyMode.Validate(); err != nil {
		return nil, err
	}
	return &opt, nil
}

func (k KeyMode) Validate() error {
	switch k {
	case KeyFirstToken, KeyRowIndex:
		return nil
	default:
		return fmt.Errorf("%q, %w", string(k), ErrUnknownKeyMode)
	}
}

// Read parses one series per non-blank line. Every row must have the same number of values
// and at least MinLength of them. NumSeries, when positive, is the exact number of rows
// expected.
func Read(r io.Reader, opt *ReadOptions) ([]Series, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var series []Series
	rowLen := -1
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}

		var key int64
		values := make([]float64, len(tokens))
		for i, tok := range tokens {
			v, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d token %d %q, %w", lineNum, i+1, tok, ErrMalformedInput)
			}
			if i == 0 {
				key = v
			}
			values[i] = float64(v)
		}

		if len(values) < opt.MinLength {
			return nil, fmt.Errorf("line %d has %d values, expected at least %d, %w", lineNum, len(values), opt.MinLength, ErrMalformedInput)
		}
		if rowLen >= 0 && len(values) != rowLen {
			return nil, fmt.Errorf("line %d has %d values, expected %d, %w", lineNum, len(values), rowLen, ErrMalformedInput)
		}
		rowLen = len(values)

		if opt.KeyMode == KeyRowIndex {
			key = int64(len(series) + 1)
		}
		series = append(series, Series{Key: key, Values: values})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d, %w, %w", lineNum+1, ErrMalformedInput, err)
	}

	if opt.NumSeries > 0 && len(series) != opt.NumSeries {
		return nil, fmt.Errorf("read %d series, expected %d, %w", len(series), opt.NumSeries, ErrMalformedInput)
	}
	return series, nil
}

// ReadFile opens path and reads it with Read
func ReadFile(path string, opt *ReadOptions) ([]Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f, opt)
}

// Round rounds half up, so 2.5 becomes 3 and -2.5 becomes -2
func Round(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

// Write emits each row as its key followed by its rounded values, space separated
func Write(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		bw.WriteString(strconv.FormatInt(row.Key, 10))
		for _, v := range row.Values {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatInt(Round(v), 10))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteFile writes rows to a temporary file next to path and renames it into place, so a
// failed write never leaves a partial table at path.
func WriteFile(path string, rows []Row) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := Write(f, rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
