package main

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-windowcast/store/duckdb"
	"github.com/aouyang1/go-windowcast/table"

	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var (
		input      string
		duckdbPath string
		keyMode    string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load an input series table into DuckDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" || duckdbPath == "" {
				return errors.New("--input and --duckdb are required")
			}

			series, err := table.ReadFile(input, &table.ReadOptions{KeyMode: table.KeyMode(keyMode)})
			if err != nil {
				return err
			}

			client, err := duckdb.NewClient(duckdbPath)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx := cmd.Context()
			if err := duckdb.InitializeSchema(ctx, client); err != nil {
				return err
			}
			if err := duckdb.NewSeriesRepo(client).InsertBatch(ctx, series); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d series into %s\n", len(series), duckdbPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input series table")
	cmd.Flags().StringVar(&duckdbPath, "duckdb", "", "DuckDB database path")
	cmd.Flags().StringVar(&keyMode, "key-mode", string(table.KeyFirstToken), "Series key source: first-token or row-index")
	return cmd
}
