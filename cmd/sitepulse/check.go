package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/sitepulse"
	"github.com/jpalmerr/sitepulse/config"
	"github.com/jpalmerr/sitepulse/internal/logging"
	"github.com/jpalmerr/sitepulse/internal/report"
)

// newCheckCmd checks a batch of URLs and prints the results table.
func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [urls...]",
		Short: "Check the availability of URLs",
		Long: `Check the availability of URLs.

URLs come from the arguments, a file (-f, one per line, '#' starts a comment),
and the urls, url_file and grids of a config file (-c), in that order. A URL
without a scheme is checked over http.

Every URL gets one row: the status code, reason and response time when the
host answered, or a failure label otherwise. Results can be exported with -w;
the format follows the extension (.csv, .json, .parquet, .db/.sqlite).

Interrupting with Ctrl+C stops starting new checks, waits for the ones in
flight, prints what was gathered and exits with status 130.

Example:
  sitepulse check example.com https://go.dev
  sitepulse check -f urls.txt -n 50 -t 3s -w results.csv
  sitepulse check --stream -H 'User-Agent: sitepulse' example.com`,
		RunE: runCheck,
	}

	flags := cmd.Flags()
	flags.StringP("file", "f", "", "file to read the URLs from")
	flags.StringP("write", "w", "", "file to write the results to")
	flags.IntP("concurrency", "n", config.DefaultConcurrency, "maximum number of requests in flight")
	flags.DurationP("timeout", "t", config.DefaultTimeout, "per-request timeout")
	flags.String("method", config.DefaultMethod, "HTTP method, GET or HEAD")
	flags.StringArrayP("header", "H", nil, "request header as 'Name: value' (repeatable)")
	flags.Bool("stream", false, "print rows in order as results arrive")
	flags.Bool("no-color", false, "disable coloured output")
	flags.StringP("config", "c", "", "path to config file")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: console, json")
	flags.String("log-file", "", "also write logs to this file, rotated by size")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	configFile, _ := flags.GetString("config")
	urlFile, _ := flags.GetString("file")

	if len(args) == 0 && urlFile == "" && configFile == "" {
		return cmd.Help()
	}

	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", sitepulse.ErrInvalidConfig, err)
	}

	logger, closer, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Format:     logging.Format(cfg.Log.Format),
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.Backups(),
		NoColor:    cfg.NoColor,
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	inputs, err := collectInputs(cmd, cfg, args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No URLs provided.")
		return nil
	}

	out := cmd.OutOrStdout()
	renderer := report.NewRenderer(out, cfg.NoColor || color.NoColor)

	opts := append(config.BuildOptions(cfg), sitepulse.WithLogger(logger))
	if cfg.Stream {
		opts = append(opts, sitepulse.WithOrderedCallback(renderer.Row))
	}

	checker, err := sitepulse.New(opts...)
	if err != nil {
		return err
	}
	defer checker.Close()

	if cfg.Stream {
		renderer.Header()
	}
	batch := checker.Run(cmd.Context(), inputs)
	if cfg.Stream {
		renderer.Summary(batch)
	} else {
		renderer.Render(batch)
	}

	if batch.Interrupted {
		fmt.Fprintln(out, "Stopped")
	}

	if cfg.Output != "" {
		if err := report.Export(cfg.Output, batch); err != nil {
			logger.Error().Err(err).Str("path", cfg.Output).Msg("export failed")
			if !batch.Interrupted {
				return err
			}
			// the interrupt decides the exit status
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		} else {
			logger.Info().Str("path", cfg.Output).Str("format", string(report.FormatFor(cfg.Output))).Int("rows", batch.Len()).Msg("export written")
			fmt.Fprintf(out, "Results written to %s\n", cfg.Output)
		}
	}

	if batch.Interrupted {
		return errInterrupted
	}
	return nil
}

// applyFlags copies explicitly set flags over config file values.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("timeout") {
		timeout, _ := flags.GetDuration("timeout")
		cfg.Timeout = config.Duration(timeout)
	}
	if flags.Changed("method") {
		method, _ := flags.GetString("method")
		cfg.Method = strings.ToUpper(method)
	}
	if flags.Changed("header") {
		raw, _ := flags.GetStringArray("header")
		headers, err := parseHeaders(raw)
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			cfg.Headers[k] = v
		}
	}
	if flags.Changed("file") {
		cfg.URLFile, _ = flags.GetString("file")
	}
	if flags.Changed("write") {
		cfg.Output, _ = flags.GetString("write")
	}
	if flags.Changed("stream") {
		cfg.Stream, _ = flags.GetBool("stream")
	}
	if flags.Changed("no-color") {
		cfg.NoColor, _ = flags.GetBool("no-color")
	}
	if flags.Changed("log-level") {
		level, _ := flags.GetString("log-level")
		cfg.Log.Level = strings.ToLower(level)
	}
	if flags.Changed("log-format") {
		format, _ := flags.GetString("log-format")
		cfg.Log.Format = strings.ToLower(format)
	}
	if flags.Changed("log-file") {
		cfg.Log.File, _ = flags.GetString("log-file")
	}

	return nil
}

// parseHeaders parses "Name: value" pairs.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: header %q must have the form 'Name: value'", sitepulse.ErrInvalidConfig, h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// collectInputs gathers raw URLs: arguments first, then the URL file, then
// the config file's urls and grids.
//
// An unreadable URL file is reported and skipped. It is only an error when
// nothing else was given to check.
func collectInputs(cmd *cobra.Command, cfg *config.Config, args []string) ([]string, error) {
	inputs := make([]string, 0, len(args))
	inputs = append(inputs, args...)

	var fileErr error
	if cfg.URLFile != "" {
		fromFile, err := config.ReadURLFile(cfg.URLFile)
		if err != nil {
			fileErr = err
			fmt.Fprintf(cmd.ErrOrStderr(), "Skipping URL file: %v\n", err)
		}
		inputs = append(inputs, fromFile...)
	}

	fromConfig, err := config.BuildURLs(cfg)
	if err != nil {
		return nil, err
	}
	inputs = append(inputs, fromConfig...)

	if len(inputs) == 0 && fileErr != nil {
		return nil, fileErr
	}
	return inputs, nil
}
