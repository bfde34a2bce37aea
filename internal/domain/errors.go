package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind categorizes engine errors. Kinds are stable strings so external
// callers can switch on them without importing Go error values.
type ErrorKind string

const (
	// ErrDomain marks mathematically invalid input (negative periods,
	// withdrawal rate outside its domain). Never partially computed.
	ErrDomain ErrorKind = "DOMAIN_ERROR"

	// ErrValidation marks a parameter outside its declared range; Field
	// names the offender.
	ErrValidation ErrorKind = "VALIDATION_ERROR"

	// ErrRateLimited marks a caller over budget; RetryAfter carries the hint.
	ErrRateLimited ErrorKind = "RATE_LIMITED"

	// ErrComplexity marks a request rejected before any computation because
	// its parameter combination would be intractable.
	ErrComplexity ErrorKind = "COMPLEXITY_REJECTED"

	// ErrTimeout marks a computation aborted at its deadline; partial
	// results are discarded.
	ErrTimeout ErrorKind = "TIMEOUT"

	// ErrCacheUnavailable is logged, never returned to callers: computation
	// proceeds without caching.
	ErrCacheUnavailable ErrorKind = "CACHE_UNAVAILABLE"
)

// Error is the engine's error type. Field is set for validation errors,
// RetryAfter for rate-limit rejections.
type Error struct {
	Kind       ErrorKind
	Field      string
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	case e.RetryAfter > 0:
		return fmt.Sprintf("%s: %s (retry after %s)", e.Kind, e.Message, e.RetryAfter)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewDomainError reports mathematically invalid input.
func NewDomainError(format string, args ...any) *Error {
	return &Error{Kind: ErrDomain, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError reports an out-of-range parameter by field name.
func NewValidationError(field, format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewRateLimitedError reports an over-budget caller with a retry hint.
func NewRateLimitedError(retryAfter time.Duration) *Error {
	return &Error{Kind: ErrRateLimited, Message: "calculation budget exceeded", RetryAfter: retryAfter}
}

// NewComplexityError reports a request rejected by the complexity guard.
func NewComplexityError(format string, args ...any) *Error {
	return &Error{Kind: ErrComplexity, Message: fmt.Sprintf(format, args...)}
}

// NewTimeoutError reports a computation aborted at its deadline.
func NewTimeoutError(cause error) *Error {
	return &Error{Kind: ErrTimeout, Message: "computation exceeded deadline", Err: cause}
}

// IsKind reports whether err is an engine Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
