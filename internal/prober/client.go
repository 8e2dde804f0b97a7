package prober

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxDrainSize caps how much of a response body is read before closing it.
// Draining lets the transport reuse the connection for the next probe.
const maxDrainSize = 1 << 20 // 1MB

// connection pooling limits to keep file descriptors bounded on large batches
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Outcome kinds, mirrored as typed constants in the root package.
const (
	KindSuccess        = "success"
	KindRequestFailure = "request_failure"
	KindTimeout        = "timeout"
	KindUnknownError   = "unknown_error"
)

// Task is the unit of work handed to [Scheduler.Run].
//
// This is the prober-internal representation of a normalized target,
// decoupled from the public sitepulse.Target to avoid circular dependencies.
type Task struct {
	// Index is the 1-based position of the URL in the input list.
	Index int

	// URL is the normalized absolute URL to probe.
	URL string

	// Method is the HTTP method (GET or HEAD). Empty defaults to GET.
	Method string

	// Headers contains custom HTTP headers to send with the request.
	Headers map[string]string

	// Timeout is the per-request deadline.
	Timeout time.Duration
}

// Result holds the outcome of probing a single [Task].
type Result struct {
	// Index is copied from the originating task.
	Index int

	// URL is the final URL after redirects on success, otherwise the task URL.
	URL string

	// Kind is one of the Kind* constants.
	Kind string

	// StatusCode is the HTTP status code. Zero unless Kind is KindSuccess.
	StatusCode int

	// Reason is the reason phrase from the status line. Empty unless Kind is KindSuccess.
	Reason string

	// Elapsed is the time from request start to response headers, or to failure.
	Elapsed time.Duration

	// CheckedAt is when the probe finished.
	CheckedAt time.Time

	// Err describes the failure. nil when Kind is KindSuccess.
	Err error
}

// Client is an HTTP client wrapper that performs a single probe per call.
//
// Client uses per-request timeouts via context rather than a global timeout,
// so every task carries its own independent deadline.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new probing [Client].
//
// The transport keeps a bounded idle pool so that batches against the same
// host reuse connections. The number of in-flight connections is governed by
// the scheduler's concurrency cap, not by the transport.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Probe issues exactly one request for task and returns a structured [Result].
//
// Probe never returns an error: every failure path is captured in the
// Result's Kind and Err fields. Elapsed for a success is measured up to the
// arrival of the response headers; the body is drained afterwards and does
// not count towards it.
func (c *Client) Probe(ctx context.Context, task Task) Result {
	ctx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()

	method := task.Method
	if method == "" {
		method = http.MethodGet
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, task.URL, nil)
	if err != nil {
		return Result{
			Index:     task.Index,
			URL:       task.URL,
			Kind:      KindUnknownError,
			Elapsed:   time.Since(start),
			CheckedAt: time.Now(),
			Err:       fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, value := range task.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		kind, failure := classify(err)
		elapsed = clampElapsed(err, elapsed, task.Timeout)
		return Result{
			Index:     task.Index,
			URL:       task.URL,
			Kind:      kind,
			Elapsed:   elapsed,
			CheckedAt: time.Now(),
			Err:       failure,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainSize))

	finalURL := task.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return Result{
		Index:      task.Index,
		URL:        finalURL,
		Kind:       KindSuccess,
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Elapsed:    elapsed,
		CheckedAt:  time.Now(),
	}
}

// clampElapsed raises elapsed to timeout when the task deadline fired, so a
// timeout never reports less than its limit. Other timeouts, such as an OS
// level ETIMEDOUT, keep the measured duration.
func clampElapsed(err error, elapsed, timeout time.Duration) time.Duration {
	if errors.Is(err, context.DeadlineExceeded) && elapsed < timeout {
		return timeout
	}
	return elapsed
}

// Close closes all idle connections in the client's connection pool.
// Safe to call multiple times and on a nil receiver.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// reasonPhrase extracts the reason phrase from the status line ("200 OK" -> "OK").
// Servers may send a custom or empty phrase; an empty one falls back to the
// standard text for the code.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
