// Package sitepulse checks the reachability of many URLs concurrently.
//
// Sitepulse takes a list of raw URL strings, normalizes them, issues one
// HTTP request per URL with a bounded number of requests in flight, and
// collects an ordered report of outcomes: status code and latency for
// every response, or a classified failure for everything else.
//
// # Quick Start
//
//	checker, _ := sitepulse.New()
//	defer checker.Close()
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	batch := checker.Run(ctx, []string{"example.com", "https://go.dev"})
//	for _, o := range batch.Outcomes {
//	    fmt.Println(o.Index, o.URL, o.Kind, o.StatusCode)
//	}
//
// # Configuration
//
// Sitepulse uses the functional options pattern for configuration:
//
//	checker, err := sitepulse.New(
//	    sitepulse.WithConcurrency(50),
//	    sitepulse.WithTimeout(3 * time.Second),
//	    sitepulse.WithMethod(http.MethodHead),
//	    sitepulse.WithHeaders("User-Agent", "sitepulse/1.0"),
//	)
//
// # Outcomes
//
// Every input yields exactly one [Outcome], tagged with the input's 1-based
// index. Any HTTP response, including 4xx and 5xx, is a [KindSuccess]: the
// host answered. Failures are classified as [KindInvalidURL],
// [KindRequestFailure], [KindTimeout] or [KindUnknownError]. A failing probe
// never aborts the batch.
//
// Outcomes are produced in completion order. [Checker.Run] returns them
// sorted by index in a [BatchResult]; [WithOrderedCallback] delivers them in
// index order while the run is still going, for streaming output.
//
// # Cancellation
//
// Cancelling the context passed to [Checker.Run] stops further dispatch.
// Requests already in flight are allowed to finish or time out, and the
// outcomes gathered so far are returned with [BatchResult.Interrupted] set.
//
// # Architecture
//
// Sitepulse consists of several internal packages (under internal/):
//
//   - prober: HTTP client, failure classification and the bounded scheduler
//   - store: index-keyed result store with in-order release to subscribers
//   - report: terminal rendering and CSV, JSON, Parquet and SQLite export
//   - logging: zerolog setup with optional rotating file output
//
// The config package loads YAML run configuration, and cmd/sitepulse wires
// everything into a command-line tool.
package sitepulse
