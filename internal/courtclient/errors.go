package courtclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Failure classes of a lookup. Use errors.Is to test a returned error against them.
var (
	ErrTimeout             = errors.New("court auction lookup timed out")
	ErrNotFound            = errors.New("auction case not found")
	ErrUpstreamUnavailable = errors.New("court auction system unavailable")
	ErrLookupFailed        = errors.New("court auction lookup failed")
)

// Lookup stages
const (
	StageCase  = "case"
	StageImage = "image"
)

// LookupError is returned by Client.Lookup. Kind is one of the Err* sentinels.
type LookupError struct {
	Kind  error
	Stage string
	Err   error
}

func (e *LookupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s stage: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s stage: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *LookupError) Is(target error) bool {
	return target == e.Kind
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// statusError is an unexpected HTTP status from the upstream
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.Code)
}

// classify maps a transport, status or decoding error to a LookupError
func classify(stage string, err error) *LookupError {
	var le *LookupError
	if errors.As(err, &le) {
		return le
	}

	kind := ErrLookupFailed

	var netErr net.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	var stErr *statusError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = ErrTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = ErrTimeout
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		kind = ErrUpstreamUnavailable
	case errors.As(err, &dnsErr):
		kind = ErrUpstreamUnavailable
	case errors.As(err, &opErr) && opErr.Op == "dial":
		kind = ErrUpstreamUnavailable
	case errors.As(err, &stErr) && (stErr.Code >= 500 || stErr.Code == 429):
		kind = ErrUpstreamUnavailable
	}

	return &LookupError{Kind: kind, Stage: stage, Err: err}
}
