// Package duckdb stores input series and forecast output tables in DuckDB
package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
)

// Client manages DuckDB connections
type Client struct {
	db   *sql.DB
	path string
}

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// NewClient opens the database at path. An empty path or MemoryPath opens an in-memory
// database.
func NewClient(path string) (*Client, error) {
	dsn := path
	if dsn == MemoryPath {
		dsn = ""
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	return &Client{db: db, path: path}, nil
}

// DB returns the underlying sql.DB connection
func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Path() string {
	return c.path
}

// Close closes the database connection
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Exec executes a query without returning results
func (c *Client) Exec(ctx context.Context, query string, args ...any) error {
	_, err := c.db.ExecContext(ctx, query, args...)
	return err
}

// Query executes a query and returns rows
func (c *Client) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// Begin starts a new transaction
func (c *Client) Begin(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}
