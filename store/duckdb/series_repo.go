package duckdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aouyang1/go-windowcast/table"
)

var ErrStepGap = errors.New("series steps are not contiguous from 0")

// SeriesRepo reads and writes input series
type SeriesRepo struct {
	client *Client
}

func NewSeriesRepo(client *Client) *SeriesRepo {
	return &SeriesRepo{client: client}
}

// InsertBatch stores every value of every series, step 0 included, in one transaction. The
// series key is used as series_id.
func (r *SeriesRepo) InsertBatch(ctx context.Context, series []table.Series) error {
	tx, err := r.client.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO series_values (series_id, step, value)
		VALUES (?, ?, ?)
		ON CONFLICT (series_id, step) DO UPDATE SET value = EXCLUDED.value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range series {
		for step, v := range s.Values {
			if _, err := stmt.ExecContext(ctx, s.Key, step, table.Round(v)); err != nil {
				return fmt.Errorf("failed to insert series %d step %d: %w", s.Key, step, err)
			}
		}
	}
	return tx.Commit()
}

// Load returns every stored series ordered by series_id, keyed by series_id
func (r *SeriesRepo) Load(ctx context.Context) ([]table.Series, error) {
	rows, err := r.client.Query(ctx, `
		SELECT series_id, step, value
		FROM series_values
		ORDER BY series_id ASC, step ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var series []table.Series
	for rows.Next() {
		var id, value int64
		var step int
		if err := rows.Scan(&id, &step, &value); err != nil {
			return nil, fmt.Errorf("failed to scan series value: %w", err)
		}

		if len(series) == 0 || series[len(series)-1].Key != id {
			series = append(series, table.Series{Key: id})
		}
		cur := &series[len(series)-1]
		if step != len(cur.Values) {
			return nil, fmt.Errorf("series %d expected step %d, got %d, %w, %w", id, len(cur.Values), step, ErrStepGap, table.ErrMalformedInput)
		}
		cur.Values = append(cur.Values, float64(value))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate series: %w", err)
	}
	return series, nil
}

// Count returns the number of distinct series stored
func (r *SeriesRepo) Count(ctx context.Context) (int, error) {
	rows, err := r.client.Query(ctx, "SELECT COUNT(DISTINCT series_id) FROM series_values")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	return count, rows.Err()
}
