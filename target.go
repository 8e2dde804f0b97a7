package sitepulse

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Target is a normalized URL ready to be probed.
//
// Target is immutable after creation via [Normalize]. All fields are private
// with getter methods. The index is the 1-based position of the raw input
// it was created from and is never reassigned.
type Target struct {
	index  int
	url    string
	scheme string
}

// Index returns the 1-based position of the target in the input list.
func (t Target) Index() int {
	return t.index
}

// URL returns the absolute URL, with a scheme.
func (t Target) URL() string {
	return t.url
}

// Scheme returns the URL scheme ("http", "https", or any other scheme the
// input carried).
func (t Target) Scheme() string {
	return t.scheme
}

// Normalize turns one line of raw input into a [Target].
//
// Surrounding whitespace is trimmed. If the input has no scheme, "http://"
// is prepended, so "example.com" becomes "http://example.com". An input of
// the form host:port ("localhost:8080") is treated as scheme-less. Inputs
// that already carry a scheme are returned unchanged.
//
// Malformed input is rejected rather than passed on to the network layer:
// the returned error wraps [ErrInvalidURL] when the input is empty, cannot be
// parsed, or is an http(s) URL without a host.
//
// Example:
//
//	target, err := sitepulse.Normalize(1, "example.com")
//	// target.URL() == "http://example.com"
func Normalize(index int, raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, fmt.Errorf("%w: empty input", ErrInvalidURL)
	}

	candidate := trimmed
	if !hasScheme(trimmed) {
		candidate = "http://" + trimmed
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %w", ErrInvalidURL, unwrapURLError(err))
	}

	scheme := strings.ToLower(parsed.Scheme)
	if (scheme == "http" || scheme == "https") && parsed.Host == "" {
		return Target{}, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, trimmed)
	}

	return Target{
		index:  index,
		url:    candidate,
		scheme: scheme,
	}, nil
}

// hasScheme reports whether s starts with a URL scheme (RFC 3986: a letter
// followed by letters, digits, '+', '-' or '.', then ':').
//
// "localhost:8080" matches that grammar but is a host and port; a colon
// followed only by digits (up to the path) is therefore not a scheme.
func hasScheme(s string) bool {
	colon := strings.Index(s, ":")
	if colon <= 0 {
		return false
	}

	for i, r := range s[:colon] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}

	rest := s[colon+1:]
	if strings.HasPrefix(rest, "//") {
		return true
	}

	port := rest
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		port = rest[:end]
	}
	return port == "" || !isDigits(port)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// unwrapURLError drops the `parse "...":` prefix net/url adds, since the
// input is reported alongside the error anyway.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
