package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sitepulse/config"
)

// newValidateCmd validates a config file without checking anything.
func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		Long: `Validate a sitepulse configuration file without sending any requests.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  sitepulse validate -c sitepulse.yaml`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}

	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	urls, err := config.BuildURLs(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	listed := len(cfg.URLs)
	fromGrids := len(urls) - listed

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Concurrency: %d\n", cfg.Concurrency)
	fmt.Fprintf(out, "  Timeout:     %s\n", cfg.Timeout.Duration())
	fmt.Fprintf(out, "  Method:      %s\n", cfg.Method)
	fmt.Fprintf(out, "  URLs:        %d listed + %d from grids = %d total\n", listed, fromGrids, len(urls))
	if cfg.URLFile != "" {
		fmt.Fprintf(out, "  URL file:    %s\n", cfg.URLFile)
	}
	if cfg.Output != "" {
		fmt.Fprintf(out, "  Output:      %s\n", cfg.Output)
	}

	return nil
}
