// Package apperror defines the error taxonomy shared by the cache, the
// provider clients and the aggregation use case.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamTimeout is returned when a fetch attempt exceeds its deadline.
	ErrUpstreamTimeout = errors.New("upstream: timeout")

	// ErrUpstreamError is returned on a non-success status or a transport failure.
	ErrUpstreamError = errors.New("upstream: error")

	// ErrDataUnavailable is returned when every fallback layer is exhausted.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrNotFound means the identity code is absent from every provider.
	// It is an expected outcome and is never retried.
	ErrNotFound = errors.New("not found")

	// ErrEmptyResult is returned by fetchers that treat an empty payload as a failure.
	ErrEmptyResult = errors.New("empty result")
)

// UpstreamError carries the provider response that caused ErrUpstreamError.
type UpstreamError struct {
	Provider string
	Status   int
	Msg      string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s status=%d msg=%q: %v", ErrUpstreamError, e.Provider, e.Status, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s status=%d msg=%q", ErrUpstreamError, e.Provider, e.Status, e.Msg)
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUpstreamError, e.Err}
	}
	return []error{ErrUpstreamError}
}

// NewUpstreamError creates an UpstreamError for provider.
func NewUpstreamError(provider string, status int, msg string, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Status: status, Msg: msg, Err: err}
}

// DataUnavailableError names the key and how many fetch attempts were made.
type DataUnavailableError struct {
	Key      string
	Attempts int
	Last     error
}

func (e *DataUnavailableError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("no data available for %s after %d attempts: %v", e.Key, e.Attempts, e.Last)
	}
	return fmt.Sprintf("no data available for %s after %d attempts", e.Key, e.Attempts)
}

func (e *DataUnavailableError) Unwrap() error {
	return ErrDataUnavailable
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDataUnavailable reports whether err is or wraps ErrDataUnavailable.
func IsDataUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}

// IsRetryable reports whether a fetch that failed with err may be attempted again.
func IsRetryable(err error) bool {
	return err != nil && !errors.Is(err, ErrNotFound)
}
