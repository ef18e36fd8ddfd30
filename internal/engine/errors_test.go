package engine

import (
	"errors"
	"fmt"
	"testing"
)

func TestEngineError_Error(t *testing.T) {
	err := NewEngineError(ErrCodeHTTPStatus, "Service Unavailable", nil).
		ForURL("https://example.com/a").
		WithStatus(503)

	want := "HTTP_STATUS (503) https://example.com/a: Service Unavailable"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestEngineError_Is(t *testing.T) {
	err := fmt.Errorf("crawl: %w",
		NewEngineError(ErrCodeTimeout, "", errors.Join(ErrTimeout, errors.New("deadline"))))

	if !errors.Is(err, ErrTimeout) {
		t.Error("Expected sentinel to match through the chain")
	}
	if !errors.Is(err, &EngineError{Code: ErrCodeTimeout}) {
		t.Error("Expected match by code")
	}
	if errors.Is(err, &EngineError{Code: ErrCodeNotFound}) {
		t.Error("Expected no match for a different code")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("page: %w", NewEngineError(ErrCodeNotFound, "", nil))
	if c := CodeOf(wrapped); c != ErrCodeNotFound {
		t.Errorf("Expected NOT_FOUND, got %s", c)
	}
	if c := CodeOf(errors.New("plain")); c != ErrCodeUnknown {
		t.Errorf("Expected UNKNOWN, got %s", c)
	}
}

func TestEngineError_Retryable(t *testing.T) {
	if NewEngineError(ErrCodeParseError, "", nil).Retryable() {
		t.Error("Expected errors to be final by default")
	}
	if !NewEngineError(ErrCodeNetworkError, "", nil).WithRetry().Retryable() {
		t.Error("Expected WithRetry to mark the error retryable")
	}
}
