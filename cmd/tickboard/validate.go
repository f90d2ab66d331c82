package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/tickboard"
	"github.com/jpalmerr/tickboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a TickBoard configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  tickboard validate -c config.yaml
  tickboard validate --config /etc/tickboard/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// the SDK applies its own checks on top of the file's
	if _, err := tickboard.New(config.BuildOptions(cfg)...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	maxSessions := "unlimited"
	if cfg.MaxSessions > 0 {
		maxSessions = fmt.Sprint(cfg.MaxSessions)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:            %d\n", cfg.Port)
	fmt.Fprintf(out, "  Sample interval: %s\n", cfg.SampleInterval.Duration())
	fmt.Fprintf(out, "  Buffer capacity: %d\n", cfg.BufferCapacity)
	fmt.Fprintf(out, "  Max sessions:    %s\n", maxSessions)
	fmt.Fprintf(out, "  Noise:           %s (mean %g, stddev %g)\n",
		cfg.Noise.Distribution, *cfg.Noise.Mean, *cfg.Noise.StdDev)
	fmt.Fprintf(out, "  Seed range:      [%g, %g)\n", cfg.SeedRange.Min, cfg.SeedRange.Max)

	return nil
}
