package sitepulse

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jpalmerr/sitepulse/internal/prober"
	"github.com/jpalmerr/sitepulse/internal/store"
)

const (
	defaultConcurrency = 10
	defaultTimeout     = 5 * time.Second
	maxConcurrency     = 1000
)

// Checker runs batches of URL probes with bounded concurrency.
//
// Checker normalizes each input, probes the valid ones in parallel (at most
// the configured concurrency at a time, each with its own timeout), and
// returns the outcomes ordered by input position. It is created using [New]
// with functional options.
//
// The typical lifecycle is:
//
//	checker, err := sitepulse.New(sitepulse.WithConcurrency(20))
//	if err != nil {
//	    return err
//	}
//	defer checker.Close()
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	batch := checker.Run(ctx, []string{"example.com", "https://go.dev"})
//
// A Checker may be used for several runs, but not concurrently.
type Checker struct {
	concurrency      int
	timeout          time.Duration
	method           string
	headers          map[string]string
	logger           zerolog.Logger
	outcomeCallbacks []func(Outcome)
	orderedCallbacks []func(Outcome)

	client    *prober.Client
	scheduler *prober.Scheduler
}

// New creates a new [Checker] with the given options.
//
// Options have sensible defaults:
//   - Concurrency: 10
//   - Timeout: 5 seconds
//   - Method: GET
//
// Returns an error wrapping [ErrInvalidConfig] if any option is invalid.
func New(opts ...Option) (*Checker, error) {
	cfg := &checkerConfig{
		concurrency: defaultConcurrency,
		timeout:     defaultTimeout,
		method:      http.MethodGet,
		headers:     make(map[string]string),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := zerolog.Nop()
	if cfg.logger != nil {
		logger = *cfg.logger
	}

	client := prober.NewClient()

	return &Checker{
		concurrency:      cfg.concurrency,
		timeout:          cfg.timeout,
		method:           cfg.method,
		headers:          cfg.headers,
		logger:           logger,
		outcomeCallbacks: cfg.outcomeCallbacks,
		orderedCallbacks: cfg.orderedCallbacks,
		client:           client,
		scheduler:        prober.NewScheduler(client, cfg.concurrency, logger),
	}, nil
}

// Run checks every raw URL and returns the ordered [BatchResult].
//
// Each input gets its 1-based position as index. Inputs that fail
// normalization become [KindInvalidURL] outcomes without a request; the
// rest are probed concurrently. Probe failures never abort the batch: every
// dispatched input yields exactly one outcome.
//
// Cancelling ctx stops dispatch of further probes. Probes already in flight
// finish or time out on their own, and the outcomes gathered so far are
// returned with Interrupted set. If ctx is nil, context.Background() is used.
func (c *Checker) Run(ctx context.Context, raws []string) BatchResult {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	logger := c.logger.With().Str("run_id", uuid.NewString()).Logger()
	logger.Info().
		Int("urls", len(raws)).
		Int("concurrency", c.concurrency).
		Dur("timeout", c.timeout).
		Msg("batch starting")

	results := store.NewMemoryStore[Outcome](1)

	var consumer sync.WaitGroup
	if len(c.orderedCallbacks) > 0 {
		sub := results.Subscribe(len(raws))
		consumer.Add(1)
		go func() {
			defer consumer.Done()
			for o := range sub {
				for _, cb := range c.orderedCallbacks {
					invokeCallbackSafe(cb, o, logger)
				}
			}
		}()
		defer func() {
			results.Unsubscribe(sub)
			consumer.Wait()
		}()
	}

	record := func(o Outcome) {
		if err := results.Put(o.Index, o); err != nil {
			logger.Error().Err(err).Int("index", o.Index).Msg("outcome dropped")
			return
		}
		logger.Debug().
			Int("index", o.Index).
			Str("url", o.URL).
			Str("result", o.Label()).
			Str("detail", o.Detail()).
			Dur("elapsed", o.Elapsed).
			Msg("outcome recorded")
		for _, cb := range c.outcomeCallbacks {
			invokeCallbackSafe(cb, o, logger)
		}
	}

	tasks := make([]prober.Task, 0, len(raws))
	for i, raw := range raws {
		target, err := Normalize(i+1, raw)
		if err != nil {
			logger.Debug().Int("index", i+1).Str("input", raw).Err(err).Msg("invalid url")
			record(invalidOutcome(i+1, raw, err))
			continue
		}
		tasks = append(tasks, c.toTask(target))
	}

	probed, interrupted := c.scheduler.Run(ctx, tasks, func(r prober.Result) {
		record(proberResultToOutcome(r))
	})

	// release outcomes stuck behind indices that were never dispatched
	results.Flush()

	batch := Aggregate(results.Values())
	batch.Interrupted = interrupted
	batch.Elapsed = time.Since(start)

	event := logger.Info()
	if interrupted {
		event = logger.Warn().Int("undispatched", len(tasks)-len(probed))
	}
	counts := batch.Counts()
	for _, k := range Kinds {
		event = event.Int(k.String(), counts[k])
	}
	event.
		Int("outcomes", batch.Len()).
		Dur("elapsed", batch.Elapsed).
		Bool("interrupted", interrupted).
		Msg("batch complete")

	return batch
}

// Close releases idle connections held by the Checker's HTTP client.
// The Checker remains usable afterwards.
func (c *Checker) Close() {
	c.client.Close()
}

// Concurrency returns the configured concurrency cap.
func (c *Checker) Concurrency() int {
	return c.concurrency
}

// Timeout returns the configured per-request timeout.
func (c *Checker) Timeout() time.Duration {
	return c.timeout
}

// Method returns the configured HTTP method.
func (c *Checker) Method() string {
	return c.method
}

// toTask converts a Target to the prober's task format.
func (c *Checker) toTask(t Target) prober.Task {
	return prober.Task{
		Index:   t.index,
		URL:     t.url,
		Method:  c.method,
		Headers: copyMap(c.headers),
		Timeout: c.timeout,
	}
}

// invalidOutcome builds the outcome for an input that failed normalization.
func invalidOutcome(index int, raw string, err error) Outcome {
	return Outcome{
		Index:     index,
		URL:       strings.TrimSpace(raw),
		Kind:      KindInvalidURL,
		CheckedAt: time.Now(),
		Err:       err,
	}
}

// proberResultToOutcome converts an internal prober result to the public type.
func proberResultToOutcome(r prober.Result) Outcome {
	return Outcome{
		Index:      r.Index,
		URL:        r.URL,
		Kind:       Kind(r.Kind),
		StatusCode: r.StatusCode,
		Reason:     r.Reason,
		Elapsed:    r.Elapsed,
		CheckedAt:  r.CheckedAt,
		Err:        r.Err,
	}
}

// invokeCallbackSafe calls an outcome callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Outcome), o Outcome, logger zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Int("index", o.Index).
				Str("url", o.URL).
				Msg("outcome callback panicked")
		}
	}()
	cb(o)
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
