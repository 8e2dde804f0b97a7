package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jpalmerr/sitepulse"
	"github.com/jpalmerr/sitepulse/internal/report"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	// start mock server (see mock_server.go)
	go StartMockServer(":9999", logger)
	time.Sleep(100 * time.Millisecond)

	inputs := []string{
		"localhost:9999/ok",
		"http://localhost:9999/missing",
		"http://localhost:9999/broken",
		"http://localhost:9999/slow",
		"http://localhost:9999/status/301",
		"http://localhost:1",
		"not a url!!",
		"https://go.dev",
	}

	renderer := report.NewRenderer(os.Stdout, false)

	checker, err := sitepulse.New(
		sitepulse.WithConcurrency(4),
		sitepulse.WithTimeout(2*time.Second),
		sitepulse.WithHeaders("User-Agent", "sitepulse-example"),
		sitepulse.WithLogger(logger),
		// rows are printed in input order while later probes are still running
		sitepulse.WithOrderedCallback(renderer.Row),
	)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create checker")
		os.Exit(1)
	}
	defer checker.Close()

	fmt.Println()
	fmt.Println("  sitepulse demo: 8 inputs, 4 in flight, 2s timeout")
	fmt.Println("  Press Ctrl+C to stop early")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	renderer.Header()
	batch := checker.Run(ctx, inputs)
	renderer.Summary(batch)

	if err := report.Export("example-results.json", batch); err != nil {
		logger.Error().Err(err).Msg("export failed")
		os.Exit(1)
	}
	fmt.Println("Results written to example-results.json")

	if batch.Interrupted {
		os.Exit(130)
	}
}
