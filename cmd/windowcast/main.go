package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "windowcast",
		Short: "Sliding window recursive forecasts for batches of integer series",
		Long: `Trains one sliding window regression model per series, recursively forecasts a
fixed horizon for each and writes the per series forecasts with their sum.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the windowcast version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// newLogger builds the process logger from the log format and verbosity flags
func newLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpt := &slog.HandlerOptions{Level: level}

	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpt)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpt)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q, expected text or json", format)
	}
}
