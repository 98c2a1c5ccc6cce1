package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure surfaced by ingestion, loading, filtering or
// statistics matches exactly one of these with errors.Is.
var (
	// ErrTransport: remote source unreachable or answered with a non-success status.
	ErrTransport = errors.New("transport failure")
	// ErrDataSourceMissing: the merged flat file does not exist.
	ErrDataSourceMissing = errors.New("data source missing")
	// ErrReadFailure: a flat file exists but cannot be read or decoded.
	ErrReadFailure = errors.New("read failure")
	// ErrInvalidInput: a user supplied filter bound is non-numeric or negative.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyDataset: statistics were requested over zero records.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrHeaderMismatch: grouping files disagree on their column header.
	ErrHeaderMismatch = errors.New("header mismatch")
)

// TransportError describes a failed fetch for one grouping.
type TransportError struct {
	Grouping   Grouping
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Grouping, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Grouping, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports ErrTransport so callers can match the category.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ReadError describes a flat file that could not be decoded.
type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read %s: %v", e.Key, e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }

// Is reports ErrReadFailure so callers can match the category.
func (e *ReadError) Is(target error) bool { return target == ErrReadFailure }

// InvalidInputError identifies the filter field that was rejected.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is reports ErrInvalidInput so callers can match the category.
func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }
