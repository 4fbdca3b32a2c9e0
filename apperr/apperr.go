// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	Internal Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	InvalidInput
	Conflict
	// RateLimited marks requests refused by an abuse guard.
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case InvalidInput:
		return "invalid_input"
	case Conflict:
		return "conflict"
	case RateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Status maps the kind onto an HTTP status code.
func (k Kind) Status() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case InvalidInput:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a client-facing message and a numeric
// code. Code follows the "status*100 + sequence" convention, e.g. 40301.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, code int, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Unauthenticatedf(code int, format string, args ...any) *Error {
	return newErr(Unauthenticated, code, fmt.Sprintf(format, args...))
}

func Forbiddenf(code int, format string, args ...any) *Error {
	return newErr(Forbidden, code, fmt.Sprintf(format, args...))
}

func NotFoundf(code int, format string, args ...any) *Error {
	return newErr(NotFound, code, fmt.Sprintf(format, args...))
}

func Invalidf(code int, format string, args ...any) *Error {
	return newErr(InvalidInput, code, fmt.Sprintf(format, args...))
}

func Conflictf(code int, format string, args ...any) *Error {
	return newErr(Conflict, code, fmt.Sprintf(format, args...))
}

func RateLimitedf(code int, format string, args ...any) *Error {
	return newErr(RateLimited, code, fmt.Sprintf(format, args...))
}

// Wrap classifies an unexpected failure as Internal. The cause is kept for
// logging; only msg reaches the client.
func Wrap(err error, code int, msg string) *Error {
	return &Error{Kind: Internal, Code: code, Message: msg, Err: err}
}

// KindOf returns the kind of err, or Internal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// From returns err as *Error, converting unclassified errors to Internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, 50000, "internal server error")
}
