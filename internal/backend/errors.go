// Package backend classifies failures of the remote services the coach talks to.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// NetworkError is a transport failure. Re-invoking the operation may succeed.
type NetworkError struct {
	Service string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Service, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is a request that ran past its deadline.
type TimeoutError struct {
	Service string
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: request timed out: %v", e.Service, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// BackendError is a non-2xx answer. The core does not retry these.
type BackendError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: backend error: %s", e.Service, e.Message)
	}
	return fmt.Sprintf("%s: backend error %d: %s", e.Service, e.StatusCode, e.Message)
}

// IsRetryable is true for network and timeout failures.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	var timeoutErr *TimeoutError
	return errors.As(err, &netErr) || errors.As(err, &timeoutErr)
}

// StatusCode returns the HTTP status carried by a BackendError, or 0.
func StatusCode(err error) int {
	var be *BackendError
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return 0
}

// Transport wraps a failure that happened before any response was received.
func Transport(service string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Service: service, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{Service: service, Err: err}
	}
	return &NetworkError{Service: service, Err: err}
}
