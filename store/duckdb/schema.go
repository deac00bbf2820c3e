package duckdb

import (
	"context"
	"fmt"
)

// CreateSeriesValuesTable holds the input table in long form, one row per series step
const CreateSeriesValuesTable = `
CREATE TABLE IF NOT EXISTS series_values (
    series_id BIGINT NOT NULL,
    step INTEGER NOT NULL,
    value BIGINT NOT NULL,
    PRIMARY KEY (series_id, step)
);
`

// CreateForecastsTable holds every output table written, keyed by run
const CreateForecastsTable = `
CREATE TABLE IF NOT EXISTS forecasts (
    run_id VARCHAR NOT NULL,
    row_order INTEGER NOT NULL,
    series_key BIGINT NOT NULL,
    step INTEGER NOT NULL,
    value BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (run_id, row_order, step)
);

CREATE INDEX IF NOT EXISTS idx_forecasts_series ON forecasts(series_key);
`

// InitializeSchema creates all required tables
func InitializeSchema(ctx context.Context, c *Client) error {
	schemas := []string{
		CreateSeriesValuesTable,
		CreateForecastsTable,
	}

	for _, schema := range schemas {
		if err := c.Exec(ctx, schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// DropAllTables drops all tables
func DropAllTables(ctx context.Context, c *Client) error {
	for _, table := range []string{"forecasts", "series_values"} {
		if err := c.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
