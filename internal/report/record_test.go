package report

import (
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/sitepulse"
)

// wrapped mimics how the prober wraps network errors.
type wrapped struct{ err error }

func (w wrapped) Error() string { return "could not resolve host" }
func (w wrapped) Unwrap() error { return w.err }

func TestNewRecord(t *testing.T) {
	dnsErr := wrapped{err: &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}}

	tests := []struct {
		name    string
		outcome sitepulse.Outcome
		want    Record
	}{
		{
			name: "success",
			outcome: sitepulse.Outcome{
				Index: 1, URL: "https://example.com/", Kind: sitepulse.KindSuccess,
				StatusCode: 200, Reason: "OK", Elapsed: 153209 * time.Microsecond,
			},
			want: Record{Index: 1, URL: "https://example.com/", Kind: "success", Status: "200", Reason: "OK", Elapsed: "0.153209"},
		},
		{
			name: "server error is still a response",
			outcome: sitepulse.Outcome{
				Index: 2, URL: "http://x", Kind: sitepulse.KindSuccess,
				StatusCode: 503, Reason: "Service Unavailable", Elapsed: 2 * time.Second,
			},
			want: Record{Index: 2, URL: "http://x", Kind: "success", Status: "503", Reason: "Service Unavailable", Elapsed: "2"},
		},
		{
			name:    "dns failure",
			outcome: sitepulse.Outcome{Index: 3, URL: "http://nope.invalid", Kind: sitepulse.KindRequestFailure, Err: dnsErr},
			want:    Record{Index: 3, URL: "http://nope.invalid", Kind: "request_failure", Status: "Failed", Reason: "Unable to resolve", Elapsed: "N/A"},
		},
		{
			name:    "refused connection",
			outcome: sitepulse.Outcome{Index: 4, URL: "http://localhost:1", Kind: sitepulse.KindRequestFailure, Err: errors.New("connection refused")},
			want:    Record{Index: 4, URL: "http://localhost:1", Kind: "request_failure", Status: "Failed", Reason: "connection refused", Elapsed: "N/A"},
		},
		{
			name:    "timeout",
			outcome: sitepulse.Outcome{Index: 5, URL: "http://slow", Kind: sitepulse.KindTimeout, Err: errors.New("request timed out"), Elapsed: time.Second},
			want:    Record{Index: 5, URL: "http://slow", Kind: "timeout", Status: "Timeout", Reason: "request timed out", Elapsed: "N/A"},
		},
		{
			name:    "invalid url",
			outcome: sitepulse.Outcome{Index: 6, URL: "not a url!!", Kind: sitepulse.KindInvalidURL, Err: fmt.Errorf("%w: bad host", sitepulse.ErrInvalidURL)},
			want:    Record{Index: 6, URL: "not a url!!", Kind: "invalid_url", Status: "Invalid URL", Reason: "invalid URL: bad host", Elapsed: "N/A"},
		},
		{
			name:    "unknown error without detail",
			outcome: sitepulse.Outcome{Index: 7, URL: "ftp://x", Kind: sitepulse.KindUnknownError},
			want:    Record{Index: 7, URL: "ftp://x", Kind: "unknown_error", Status: "Error", Reason: "unknown error", Elapsed: "N/A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewRecord(tt.outcome))
		})
	}
}

func TestRecord_Fields(t *testing.T) {
	rec := Record{Index: 12, URL: "u", Status: "Failed", Reason: "r", Elapsed: "N/A"}
	assert.Equal(t, []string{"12", "u", "Failed", "r", "N/A"}, rec.Fields())
}

func TestNewRow(t *testing.T) {
	checked := time.UnixMilli(1700000000123)

	success := NewRow(sitepulse.Outcome{
		Index: 1, URL: "http://a", Kind: sitepulse.KindSuccess,
		StatusCode: 201, Reason: "Created", Elapsed: 250 * time.Millisecond, CheckedAt: checked,
	})
	require.NotNil(t, success.StatusCode)
	require.NotNil(t, success.ElapsedSeconds)
	assert.EqualValues(t, 201, *success.StatusCode)
	assert.InDelta(t, 0.25, *success.ElapsedSeconds, 1e-9)
	assert.Equal(t, int64(1700000000123), success.CheckedAt)

	failed := NewRow(sitepulse.Outcome{Index: 2, URL: "http://b", Kind: sitepulse.KindTimeout, Err: errors.New("request timed out")})
	assert.Nil(t, failed.StatusCode)
	assert.Nil(t, failed.ElapsedSeconds)
	assert.Equal(t, "timeout", failed.Kind)
	assert.Equal(t, "request timed out", failed.Reason)
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0", FormatSeconds(0))
	assert.Equal(t, "1.5", FormatSeconds(1500*time.Millisecond))
	assert.Equal(t, "0.000001", FormatSeconds(1400*time.Nanosecond))
}
