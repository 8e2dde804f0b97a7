package prober

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"syscall"
)

// Failure is the error attached to a non-success [Result].
//
// Error returns a short diagnostic suitable for a report column
// ("could not resolve host"); the underlying transport error stays
// reachable through errors.Unwrap.
type Failure struct {
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	return f.Reason
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// classify maps a transport error from http.Client.Do to an outcome kind and
// a [Failure] carrying a short diagnostic.
func classify(err error) (string, error) {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout, &Failure{Reason: "request timed out", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout, &Failure{Reason: "request timed out", Err: err}
	}

	if reason, ok := networkReason(err); ok {
		return KindRequestFailure, &Failure{Reason: reason, Err: err}
	}

	// unsupported scheme, malformed redirect target and the like
	return KindUnknownError, &Failure{Reason: unwrapMessage(err), Err: err}
}

// networkReason reports a diagnostic for connection, DNS and TLS level failures.
func networkReason(err error) (string, bool) {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "could not resolve host", true
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused", true
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset", true
	case errors.Is(err, syscall.EHOSTUNREACH):
		return "host unreachable", true
	case errors.Is(err, syscall.ENETUNREACH):
		return "network unreachable", true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "connection closed by server", true
	case errors.Is(err, context.Canceled):
		return "request canceled", true
	}

	var (
		recordErr    tls.RecordHeaderError
		unknownCA    x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidCert  x509.CertificateInvalidError
		certVerifyEr *tls.CertificateVerificationError
	)
	if errors.As(err, &recordErr) || errors.As(err, &unknownCA) || errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidCert) || errors.As(err, &certVerifyEr) {
		return "tls handshake failed", true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connection failed", true
	}

	return "", false
}

// unwrapMessage strips the url.Error wrapper ("Get \"http://...\": ") so the
// report column carries just the cause.
func unwrapMessage(err error) string {
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	return err.Error()
}
