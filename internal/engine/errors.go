// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors; EngineError.Underlying usually joins one of these
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrTimeout         = errors.New("request timeout")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrNetworkError    = errors.New("network error")
	ErrParseError      = errors.New("failed to parse response")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrDisallowed      = errors.New("disallowed by robots.txt")
)

// ErrorCode classifies why a page could not be fetched
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeTimeout      ErrorCode = "TIMEOUT"
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeBrowserCrash ErrorCode = "BROWSER_CRASH"
	ErrCodeNetworkError ErrorCode = "NETWORK_ERROR"
	ErrCodeParseError   ErrorCode = "PARSE_ERROR"
	ErrCodeHTTPStatus   ErrorCode = "HTTP_STATUS"
	ErrCodeUnsupported  ErrorCode = "UNSUPPORTED"
	ErrCodeUnknown      ErrorCode = "UNKNOWN"
)

// EngineError is a failed page fetch
type EngineError struct {
	Code       ErrorCode
	URL        string
	Status     int
	Message    string
	Underlying error
	Retry      bool
}

func (e *EngineError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.URL != "" {
		b.WriteString(" " + e.URL)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, ": %v", e.Underlying)
	}
	return b.String()
}

func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is matches another EngineError by code, or anything the cause matches
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates an EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

// ForURL records the page the error belongs to
func (e *EngineError) ForURL(u string) *EngineError {
	e.URL = u
	return e
}

// WithStatus records the HTTP status the page answered with
func (e *EngineError) WithStatus(status int) *EngineError {
	e.Status = status
	return e
}

// WithRetry marks the error as retryable
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// Retryable reports whether another attempt may succeed
func (e *EngineError) Retryable() bool {
	return e.Retry
}

// CodeOf returns the code of the first EngineError in err's chain
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ErrCodeUnknown
}
