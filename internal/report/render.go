package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/jpalmerr/sitepulse"
)

// separatorWidth is the width of the rule printed under the header.
const separatorWidth = 110

// rowFormat lays out the five table columns.
const rowFormat = "%-4s %-50s %-15s %-25s %-15s"

// Renderer writes a results table to a terminal.
//
// Rows are coloured by status class: informational cyan, 2xx green, 3xx
// blue, 4xx yellow, and 5xx or any failure red. A Renderer is not safe for
// concurrent use.
type Renderer struct {
	out     io.Writer
	noColor bool
}

// NewRenderer creates a [Renderer] writing to out. When noColor is false,
// colour codes are written even if out is not a terminal; callers decide.
func NewRenderer(out io.Writer, noColor bool) *Renderer {
	return &Renderer{out: out, noColor: noColor}
}

// Header writes the column headings and the separator.
func (r *Renderer) Header() {
	fmt.Fprintln(r.out, strings.TrimRight(fmt.Sprintf(rowFormat, "No.", ColumnURL, ColumnStatus, ColumnReason, "Time Elapsed"), " "))
	fmt.Fprintln(r.out, strings.Repeat("=", separatorWidth))
}

// Row writes one outcome.
func (r *Renderer) Row(o sitepulse.Outcome) {
	rec := NewRecord(o)
	line := strings.TrimRight(fmt.Sprintf(rowFormat, fmt.Sprint(rec.Index), rec.URL, rec.Status, rec.Reason, rec.Elapsed), " ")

	c := color.New(ColorFor(o))
	if r.noColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	c.Fprintln(r.out, line)
}

// Summary writes a one-line tally of the batch.
func (r *Renderer) Summary(b sitepulse.BatchResult) {
	fmt.Fprintln(r.out, Summarize(b))
}

// Render writes the header, every row in order, and the summary.
func (r *Renderer) Render(b sitepulse.BatchResult) {
	r.Header()
	for _, o := range b.Outcomes {
		r.Row(o)
	}
	r.Summary(b)
}

// ColorFor returns the foreground colour for an outcome.
func ColorFor(o sitepulse.Outcome) color.Attribute {
	if o.Kind != sitepulse.KindSuccess {
		return color.FgRed
	}
	switch {
	case o.StatusCode < 200:
		return color.FgCyan
	case o.StatusCode < 300:
		return color.FgGreen
	case o.StatusCode < 400:
		return color.FgBlue
	case o.StatusCode < 500:
		return color.FgYellow
	default:
		return color.FgRed
	}
}

// Summarize returns the tally line, e.g.
// "5 checked in 1.2s: 3 ok, 1 failed, 1 timed out, 0 invalid, 0 errors".
func Summarize(b sitepulse.BatchResult) string {
	counts := b.Counts()
	line := fmt.Sprintf("%d checked in %s: %d ok, %d failed, %d timed out, %d invalid, %d errors",
		b.Len(),
		b.Elapsed.Round(time.Millisecond),
		counts[sitepulse.KindSuccess],
		counts[sitepulse.KindRequestFailure],
		counts[sitepulse.KindTimeout],
		counts[sitepulse.KindInvalidURL],
		counts[sitepulse.KindUnknownError],
	)
	if b.Interrupted {
		line += " (interrupted)"
	}
	return line
}
