package prober

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Scheduler dispatches probe tasks over a bounded pool of slots.
//
// Tasks are dispatched strictly in input order: the dispatcher acquires a
// slot, starts the task, and moves on to the next one as soon as any slot
// frees. Each task carries its own timeout; the batch as a whole has no
// deadline. One task's failure never affects its siblings.
//
// A Scheduler holds no per-run state and may be reused for several runs.
type Scheduler struct {
	client      *Client
	concurrency int
	logger      zerolog.Logger
}

// NewScheduler creates a new [Scheduler].
//
// Parameters:
//   - client: Client used for every probe
//   - concurrency: Maximum number of probes in flight at once (values below 1 are treated as 1)
//   - logger: Logger for probe events and panic recovery
func NewScheduler(client *Client, concurrency int, logger zerolog.Logger) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{
		client:      client,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run probes every task and returns the results in completion order.
//
// onResult, if non-nil, is called for each result on the collecting
// goroutine as results arrive; calls are never concurrent.
//
// When ctx is cancelled, dispatch stops. Tasks already in flight are not
// cancelled: they run to completion or to their own timeout, and their
// results are still returned. interrupted reports whether ctx was cancelled
// before the run finished, whether or not any task was left undispatched.
func (s *Scheduler) Run(ctx context.Context, tasks []Task, onResult func(Result)) (results []Result, interrupted bool) {
	results = make([]Result, 0, len(tasks))
	if len(tasks) == 0 {
		return results, false
	}

	slots := semaphore.NewWeighted(int64(s.concurrency))
	// in-flight probes outlive an interrupt
	probeCtx := context.WithoutCancel(ctx)

	// buffered to len(tasks) so workers never block on send
	resultCh := make(chan Result, len(tasks))
	var stopped bool

	go func() {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(resultCh)
		}()

		for i, task := range tasks {
			if !acquire(ctx, slots) {
				stopped = true
				s.logger.Warn().
					Int("dispatched", i).
					Int("pending", len(tasks)-i).
					Msg("dispatch stopped")
				return
			}

			wg.Add(1)
			go func(task Task) {
				defer wg.Done()
				defer slots.Release(1)
				resultCh <- s.safeProbe(probeCtx, task)
			}(task)
		}
	}()

	for result := range resultCh {
		s.logResult(result)
		results = append(results, result)
		if onResult != nil {
			onResult(result)
		}
	}

	// the dispatcher wrote stopped before close(resultCh)
	return results, stopped || ctx.Err() != nil
}

// acquire takes one slot, reporting false once ctx is done.
// The semaphore may hand out a slot that freed up after cancellation; that
// slot is given back so no task is dispatched past an interrupt.
func acquire(ctx context.Context, slots *semaphore.Weighted) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := slots.Acquire(ctx, 1); err != nil {
		return false
	}
	if ctx.Err() != nil {
		slots.Release(1)
		return false
	}
	return true
}

// safeProbe calls the client with panic recovery.
// A panic is logged with its stack trace under a correlation ID and turned
// into an unknown_error result carrying that ID.
func (s *Scheduler) safeProbe(ctx context.Context, task Task) (result Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()

			s.logger.Error().
				Str("correlation_id", correlationID).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(debug.Stack())).
				Int("index", task.Index).
				Str("url", task.URL).
				Msg("probe panic")

			result = Result{
				Index:     task.Index,
				URL:       task.URL,
				Kind:      KindUnknownError,
				Elapsed:   time.Since(start),
				CheckedAt: time.Now(),
				Err:       fmt.Errorf("probe panic (correlation_id: %s)", correlationID),
			}
		}
	}()
	return s.client.Probe(ctx, task)
}

// logResult logs a probe result at DEBUG level. Failures are outcomes shown
// in the report, so they are not raised to WARN.
func (s *Scheduler) logResult(r Result) {
	if r.Err != nil {
		s.logger.Debug().
			Int("index", r.Index).
			Str("url", r.URL).
			Str("kind", r.Kind).
			Dur("elapsed", r.Elapsed).
			Err(r.Err).
			Msg("probe failed")
		return
	}
	s.logger.Debug().
		Int("index", r.Index).
		Str("url", r.URL).
		Int("status", r.StatusCode).
		Dur("elapsed", r.Elapsed).
		Msg("probe completed")
}
