package sitepulse

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// checkerConfig holds mutable state during Checker construction.
type checkerConfig struct {
	concurrency      int
	timeout          time.Duration
	method           string
	headers          map[string]string
	logger           *zerolog.Logger
	outcomeCallbacks []func(Outcome)
	orderedCallbacks []func(Outcome)
}

// Option is a function that configures a [Checker] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error wrapping [ErrInvalidConfig] if validation fails.
//
// Built-in options: [WithConcurrency], [WithTimeout], [WithMethod],
// [WithHeaders], [WithLogger], [WithOutcomeCallback], [WithOrderedCallback].
type Option func(*checkerConfig) error

// WithConcurrency sets the maximum number of probes in flight at once.
//
// Use this to avoid overwhelming target hosts or local file-descriptor
// limits. Defaults to 10 if not specified.
//
// Example:
//
//	checker, err := sitepulse.New(
//	    sitepulse.WithConcurrency(25),
//	)
//
// Returns an error if n is outside 1..1000.
func WithConcurrency(n int) Option {
	return func(cfg *checkerConfig) error {
		if n < 1 || n > maxConcurrency {
			return fmt.Errorf("%w: concurrency must be between 1 and %d, got %d", ErrInvalidConfig, maxConcurrency, n)
		}
		cfg.concurrency = n
		return nil
	}
}

// WithTimeout sets the per-request timeout.
//
// Every probe has its own independent deadline; there is no deadline for
// the batch as a whole. A probe that does not receive response headers in
// time yields a [KindTimeout] outcome. Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *checkerConfig) error {
		if d <= 0 {
			return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, d)
		}
		cfg.timeout = d
		return nil
	}
}

// WithMethod sets the HTTP method used for probes.
//
// Supported methods are GET (default) and HEAD. Use HEAD for hosts where
// only reachability matters and downloading the body is wasteful.
//
// Returns an error if the method is not GET or HEAD.
func WithMethod(method string) Option {
	return func(cfg *checkerConfig) error {
		switch method {
		case http.MethodGet, http.MethodHead:
			cfg.method = method
			return nil
		default:
			return fmt.Errorf("%w: method must be GET or HEAD, got %q", ErrInvalidConfig, method)
		}
	}
}

// WithHeaders adds custom HTTP headers to every probe request.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	checker, err := sitepulse.New(
//	    sitepulse.WithHeaders("User-Agent", "sitepulse/1.0"),
//	)
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) Option {
	return func(cfg *checkerConfig) error {
		if len(keyValues)%2 != 0 {
			return fmt.Errorf("%w: WithHeaders requires an even number of arguments (key-value pairs)", ErrInvalidConfig)
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithLogger sets the [zerolog.Logger] used for run and probe events.
//
// If not specified, logging is disabled.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *checkerConfig) error {
		cfg.logger = &logger
		return nil
	}
}

// WithOutcomeCallback registers a function called once per outcome as soon
// as it is produced, in completion order.
//
// Callbacks are invoked synchronously from a single goroutine and must be
// non-blocking. Panics within callbacks are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithOutcomeCallback(cb func(Outcome)) Option {
	return func(cfg *checkerConfig) error {
		if cb == nil {
			return nil
		}
		cfg.outcomeCallbacks = append(cfg.outcomeCallbacks, cb)
		return nil
	}
}

// WithOrderedCallback registers a function called once per outcome in input
// order, as soon as every earlier outcome is available.
//
// This supports streaming output: a fast probe that finishes ahead of a
// slow earlier one is held back until the earlier one completes. Ordered
// callbacks run on their own goroutine, separate from outcome callbacks;
// they have all returned by the time [Checker.Run] returns.
//
// Nil callbacks are silently ignored.
func WithOrderedCallback(cb func(Outcome)) Option {
	return func(cfg *checkerConfig) error {
		if cb == nil {
			return nil
		}
		cfg.orderedCallbacks = append(cfg.orderedCallbacks, cb)
		return nil
	}
}
