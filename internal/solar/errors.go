package solar

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable covers transport errors, timeouts, non-success
	// statuses and open circuit breakers.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrMalformedUpstreamData is returned when a payload cannot be decoded or
	// lacks the expected fields.
	ErrMalformedUpstreamData = errors.New("malformed upstream data")
	// ErrSinkWriteFailure is returned when the tabular store rejects a row.
	ErrSinkWriteFailure = errors.New("sink write failure")
	// ErrInvalidSample is returned by Estimate for non-positive plasma values.
	ErrInvalidSample = errors.New("solar wind sample must be positive")
)

// FetchError describes a failed call to an external collaborator.
// It matches both its Kind and the underlying cause with errors.Is.
type FetchError struct {
	Source string
	Kind   error
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Unavailable wraps err as an ErrUpstreamUnavailable failure of source.
func Unavailable(source string, err error) error {
	return &FetchError{Source: source, Kind: ErrUpstreamUnavailable, Err: err}
}

// Malformed wraps err as an ErrMalformedUpstreamData failure of source.
func Malformed(source string, err error) error {
	return &FetchError{Source: source, Kind: ErrMalformedUpstreamData, Err: err}
}

// WriteFailed wraps err as an ErrSinkWriteFailure of source.
func WriteFailed(source string, err error) error {
	return &FetchError{Source: source, Kind: ErrSinkWriteFailure, Err: err}
}
