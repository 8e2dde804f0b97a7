// Package report renders check results to a terminal and exports them to
// files.
//
// Outcomes flow through two shapes here. [Record] is the display shape:
// every column is text and non-success outcomes carry fixed labels such as
// "Failed" and "N/A". [Row] is the typed shape used by the columnar and
// database exporters, where a missing status or elapsed time is a null.
package report

import (
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/jpalmerr/sitepulse"
)

// Column headings shared by the terminal table and the CSV export.
const (
	ColumnIndex   = "No."
	ColumnURL     = "URL"
	ColumnStatus  = "Status"
	ColumnReason  = "Reason"
	ColumnElapsed = "Time Elapsed (s)"
)

// Status labels shown in place of a status code.
const (
	StatusFailed     = "Failed"
	StatusTimeout    = "Timeout"
	StatusInvalidURL = "Invalid URL"
	StatusError      = "Error"

	// NotApplicable fills the elapsed column when no response was received.
	NotApplicable = "N/A"

	// ReasonUnresolved is the reason for a request failure caused by DNS.
	ReasonUnresolved = "Unable to resolve"
)

// Record is one outcome rendered as text columns.
type Record struct {
	Index   int    `json:"no"`
	URL     string `json:"url"`
	Kind    string `json:"kind"`
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Elapsed string `json:"time_elapsed_s"`
}

// NewRecord converts an outcome to its text columns.
func NewRecord(o sitepulse.Outcome) Record {
	rec := Record{
		Index:   o.Index,
		URL:     o.URL,
		Kind:    o.Kind.String(),
		Elapsed: NotApplicable,
	}

	switch o.Kind {
	case sitepulse.KindSuccess:
		rec.Status = strconv.Itoa(o.StatusCode)
		rec.Reason = o.Reason
		rec.Elapsed = FormatSeconds(o.Elapsed)
	case sitepulse.KindRequestFailure:
		rec.Status = StatusFailed
		rec.Reason = failureReason(o.Err)
	case sitepulse.KindTimeout:
		rec.Status = StatusTimeout
		rec.Reason = errText(o.Err, "request timed out")
	case sitepulse.KindInvalidURL:
		rec.Status = StatusInvalidURL
		rec.Reason = errText(o.Err, "invalid URL")
	default:
		rec.Status = StatusError
		rec.Reason = errText(o.Err, "unknown error")
	}

	return rec
}

// Fields returns the record in CSV column order.
func (r Record) Fields() []string {
	return []string{strconv.Itoa(r.Index), r.URL, r.Status, r.Reason, r.Elapsed}
}

// FormatSeconds renders d as seconds with microsecond precision and no
// trailing zeros, e.g. "0.153209".
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Round(time.Microsecond).Seconds(), 'f', -1, 64)
}

// failureReason reports DNS failures with the fixed unresolved label and
// anything else with its diagnostic.
func failureReason(err error) string {
	var dnsErr *net.DNSError
	if err == nil || errors.As(err, &dnsErr) {
		return ReasonUnresolved
	}
	return err.Error()
}

func errText(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	return err.Error()
}

// Row is one outcome with typed, nullable columns.
type Row struct {
	Index          int64    `parquet:"no"`
	URL            string   `parquet:"url"`
	Kind           string   `parquet:"kind"`
	StatusCode     *int32   `parquet:"status_code,optional"`
	Reason         string   `parquet:"reason"`
	ElapsedSeconds *float64 `parquet:"elapsed_seconds,optional"`
	CheckedAt      int64    `parquet:"checked_at"`
}

// NewRow converts an outcome to its typed columns. CheckedAt is Unix
// milliseconds.
func NewRow(o sitepulse.Outcome) Row {
	rec := NewRecord(o)
	row := Row{
		Index:     int64(o.Index),
		URL:       o.URL,
		Kind:      o.Kind.String(),
		Reason:    rec.Reason,
		CheckedAt: o.CheckedAt.UnixMilli(),
	}

	if o.Kind == sitepulse.KindSuccess {
		code := int32(o.StatusCode)
		secs := o.Elapsed.Round(time.Microsecond).Seconds()
		row.StatusCode = &code
		row.ElapsedSeconds = &secs
	}

	return row
}
