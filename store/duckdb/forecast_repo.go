package duckdb

import (
	"context"
	"fmt"

	"github.com/aouyang1/go-windowcast/table"
)

// ForecastRepo persists output tables
type ForecastRepo struct {
	client *Client
}

func NewForecastRepo(client *Client) *ForecastRepo {
	return &ForecastRepo{client: client}
}

// Save writes the rows of one run in a single transaction. Values are rounded the same way
// as the text output table.
func (r *ForecastRepo) Save(ctx context.Context, runID string, rows []table.Row) error {
	tx, err := r.client.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO forecasts (run_id, row_order, series_key, step, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		for step, v := range row.Values {
			if _, err := stmt.ExecContext(ctx, runID, i, row.Key, step, table.Round(v)); err != nil {
				return fmt.Errorf("failed to insert forecast row %d step %d: %w", i, step, err)
			}
		}
	}
	return tx.Commit()
}

// Load returns the rows saved for runID in their original order
func (r *ForecastRepo) Load(ctx context.Context, runID string) ([]table.Row, error) {
	rows, err := r.client.Query(ctx, `
		SELECT row_order, series_key, value
		FROM forecasts
		WHERE run_id = ?
		ORDER BY row_order ASC, step ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	var out []table.Row
	lastOrder := -1
	for rows.Next() {
		var order int
		var key, value int64
		if err := rows.Scan(&order, &key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		if order != lastOrder {
			out = append(out, table.Row{Key: key})
			lastOrder = order
		}
		cur := &out[len(out)-1]
		cur.Values = append(cur.Values, float64(value))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forecasts: %w", err)
	}
	return out, nil
}
