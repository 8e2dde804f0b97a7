package sitepulse

import (
	"strconv"
	"time"
)

// Kind describes how a probe concluded.
//
// Kind is a string type holding one of five predefined values:
// [KindSuccess], [KindInvalidURL], [KindRequestFailure], [KindTimeout] or
// [KindUnknownError]. Only [KindSuccess] carries a status code and reason.
type Kind string

const (
	// KindSuccess indicates a response was received, whatever its status code.
	KindSuccess Kind = "success"

	// KindInvalidURL indicates the input could not be normalized into a URL.
	// No request was made.
	KindInvalidURL Kind = "invalid_url"

	// KindRequestFailure indicates a DNS, connection or TLS level failure.
	KindRequestFailure Kind = "request_failure"

	// KindTimeout indicates the per-request deadline expired.
	KindTimeout Kind = "timeout"

	// KindUnknownError indicates any other failure caught at the probe boundary.
	KindUnknownError Kind = "unknown_error"
)

// String returns the string representation of the kind.
// This implements the fmt.Stringer interface.
func (k Kind) String() string {
	return string(k)
}

// Kinds lists every outcome kind in reporting order.
var Kinds = []Kind{KindSuccess, KindInvalidURL, KindRequestFailure, KindTimeout, KindUnknownError}

// Outcome holds the result of checking a single input URL.
//
// Outcome is created exactly once per input and is immutable after creation.
// Which fields are meaningful depends on Kind: StatusCode and Reason only for
// [KindSuccess], Err only for the failure kinds.
type Outcome struct {
	// Index is the 1-based position of the URL in the input list.
	Index int

	// URL is the final URL after redirects for a success, the normalized URL
	// for a network failure, or the trimmed raw input for an invalid URL.
	URL string

	// Kind is how the probe concluded.
	Kind Kind

	// StatusCode is the HTTP status code. Zero unless Kind is KindSuccess.
	StatusCode int

	// Reason is the reason phrase from the status line. Empty unless Kind is KindSuccess.
	Reason string

	// Elapsed is the time from request start to response headers for a
	// success, or to the failure. At least the timeout for KindTimeout.
	// Zero for KindInvalidURL.
	Elapsed time.Duration

	// CheckedAt is the timestamp when the outcome was produced.
	CheckedAt time.Time

	// Err is the failure detail. nil when Kind is KindSuccess.
	Err error
}

// OK reports whether a response was received.
func (o Outcome) OK() bool {
	return o.Kind == KindSuccess
}

// Label returns the status code for a success, otherwise the kind.
func (o Outcome) Label() string {
	if o.Kind == KindSuccess {
		return strconv.Itoa(o.StatusCode)
	}
	return o.Kind.String()
}

// Detail returns the reason phrase for a success, otherwise the error text.
func (o Outcome) Detail() string {
	if o.Kind == KindSuccess {
		return o.Reason
	}
	if o.Err != nil {
		return o.Err.Error()
	}
	return ""
}

// BatchResult is the ordered result of one run.
//
// Outcomes are sorted by index ascending with no duplicates. After a normal
// run there is exactly one outcome per input; after an interrupted run the
// outcomes produced before dispatch stopped are kept and Interrupted is set.
type BatchResult struct {
	// Outcomes are the per-URL results in input order.
	Outcomes []Outcome

	// Interrupted reports whether the run was cut short by cancellation.
	Interrupted bool

	// Elapsed is the wall-clock duration of the whole run.
	Elapsed time.Duration
}

// Len returns the number of outcomes.
func (b BatchResult) Len() int {
	return len(b.Outcomes)
}

// Counts returns the number of outcomes per kind.
func (b BatchResult) Counts() map[Kind]int {
	counts := make(map[Kind]int, len(Kinds))
	for _, o := range b.Outcomes {
		counts[o.Kind]++
	}
	return counts
}
