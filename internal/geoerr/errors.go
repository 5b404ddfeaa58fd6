// Package geoerr classifies engine errors so callers can tell bad input
// apart from retryable provider failures and skippable data defects.
package geoerr

import (
	"errors"
	"fmt"
)

// Kind identifies the failure class of an engine error.
type Kind int

const (
	// KindUnknown is the zero value; errors without a class.
	KindUnknown Kind = iota

	// KindInvalidInput marks malformed request parameters. Never retried.
	KindInvalidInput

	// KindProviderUnavailable marks a travel-time oracle timeout or
	// transport failure. Safe to retry with backoff.
	KindProviderUnavailable

	// KindUnreachable marks a request that cannot produce a usable result
	// even after retries (e.g. no estimate for any sample point).
	KindUnreachable

	// KindDataIntegrity marks a defective record (zero population,
	// malformed polygon ring). The record is skipped, never the batch.
	KindDataIntegrity
)

// String returns the canonical name for a Kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindProviderUnavailable:
		return "provider_unavailable"
	case KindUnreachable:
		return "unreachable"
	case KindDataIntegrity:
		return "data_integrity"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a failure class.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error from a message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

// Newf creates a classified error from a format string.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies an existing error, prefixing it with a formatted message.
// Returns nil if err is nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: fmt.Errorf(format+": %w", append(args, err)...)}
}

// KindOf returns the class of err, or KindUnknown if unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsInvalidInput reports whether err is classified as invalid input.
func IsInvalidInput(err error) bool { return KindOf(err) == KindInvalidInput }

// IsProviderUnavailable reports whether err is a retryable provider failure.
func IsProviderUnavailable(err error) bool { return KindOf(err) == KindProviderUnavailable }

// IsUnreachable reports whether err marks an unreachable result.
func IsUnreachable(err error) bool { return KindOf(err) == KindUnreachable }

// IsDataIntegrity reports whether err marks a defective record.
func IsDataIntegrity(err error) bool { return KindOf(err) == KindDataIntegrity }

// InvalidInputf is shorthand for Newf(KindInvalidInput, ...).
func InvalidInputf(format string, args ...any) error {
	return Newf(KindInvalidInput, format, args...)
}
