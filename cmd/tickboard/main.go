// Package main is the entry point for the tickboard CLI.
//
// TickBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	tickboard serve -c config.yaml    # Start the dashboard
//	tickboard validate -c config.yaml # Validate configuration
//	tickboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "tickboard",
	Short: "A live time-series dashboard",
	Long: `TickBoard serves a live, continuously updating price chart.

Every browser tab gets its own session: a simulated price that follows a
log-normal random walk, sampled at a fixed interval into a rolling window.
Closing the tab stops its session.

Quick start:
  1. Create a config file (tickboard.yaml)
  2. Run: tickboard serve -c tickboard.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  title: Real Time Stock Price Streaming
  port: 8080
  sample_interval: 1s
  buffer_capacity: 1000
  noise:
    mean: 0.00001
    stddev: 0.001
  seed_range: [30, 500]`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this tickboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tickboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
