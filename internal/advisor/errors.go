package advisor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// Code classifies advisor failures.
type Code string

const (
	CodeAPIUnavailable  Code = "API_UNAVAILABLE"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeInvalidResponse Code = "INVALID_RESPONSE"
	CodeTimeout         Code = "TIMEOUT"
	CodeUnknown         Code = "UNKNOWN"
)

// Error is the only error type the advisor returns. Callers use errors.As to
// read the code and keep showing rule-based results.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the advisor code carried by err, or UNKNOWN.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// StatusError is a non-2xx reply from a text-generation service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %.200s", e.StatusCode, e.Body)
}

// classify maps a client failure onto an advisor code.
func classify(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newError(CodeTimeout, "advisor request timed out", err)
	case errors.Is(err, context.Canceled):
		return newError(CodeUnknown, "advisor request cancelled", err)
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusTooManyRequests:
			return newError(CodeRateLimited, "provider rate limit reached", err)
		case se.StatusCode == http.StatusUnauthorized, se.StatusCode == http.StatusForbidden:
			return newError(CodeAPIUnavailable, "provider rejected the credential", err)
		case se.StatusCode >= 500:
			return newError(CodeAPIUnavailable, "provider is unavailable", err)
		default:
			return newError(CodeUnknown, "provider rejected the request", err)
		}
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		if netErr != nil && netErr.Timeout() {
			return newError(CodeTimeout, "advisor request timed out", err)
		}
		return newError(CodeAPIUnavailable, "provider could not be reached", err)
	}

	return newError(CodeUnknown, "advisor request failed", err)
}
