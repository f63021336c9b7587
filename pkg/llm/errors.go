package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies provider failures for retry decisions.
type ErrorType string

const (
	// ErrorTypeAuth covers missing or rejected credentials. Fatal, no retry.
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeModelNotFound covers a model identifier the provider cannot
	// serve. Retried once with model re-selection.
	ErrorTypeModelNotFound ErrorType = "model_not_found"
	// ErrorTypeRateLimit covers 429-class throttling. Surfaced immediately.
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeEndpoint covers network and server-side failures.
	ErrorTypeEndpoint ErrorType = "endpoint"
	// ErrorTypeUnknown covers everything else.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error represents a structured provider error with classification.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
	Model      string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured provider error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError categorizes an error and returns a structured Error.
// This consolidates classification logic so the generator can decide
// between model re-selection, immediate failure, and retry.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	// Authentication errors (not retryable)
	if strings.Contains(errStr, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "authentication") {
		e := NewError(ErrorTypeAuth, "authentication failed", false, err)
		e.StatusCode = statusCode
		return e
	}

	// Model not found: retryable via model re-selection, not via plain retry
	if strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist") || strings.Contains(lower, "not_found_error")) {
		e := NewError(ErrorTypeModelNotFound, "model not found", false, err)
		e.StatusCode = statusCode
		return e
	}
	if strings.Contains(errStr, "404") {
		e := NewError(ErrorTypeModelNotFound, "model or endpoint not found", false, err)
		e.StatusCode = statusCode
		return e
	}

	// Rate limiting
	if strings.Contains(errStr, "429") || strings.Contains(lower, "rate limit") {
		e := NewError(ErrorTypeRateLimit, "rate limited", true, err)
		e.StatusCode = statusCode
		return e
	}

	// Connection and timeout errors
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") {
		e := NewError(ErrorTypeEndpoint, "connection failed", true, err)
		e.StatusCode = statusCode
		return e
	}

	// 5xx server errors
	if statusCode >= 500 {
		e := NewError(ErrorTypeEndpoint, "server error", true, err)
		e.StatusCode = statusCode
		return e
	}

	e := NewError(ErrorTypeUnknown, "provider error", false, err)
	e.StatusCode = statusCode
	return e
}

// IsModelNotFound reports whether err classifies as a model-unavailable error.
func IsModelNotFound(err error) bool {
	classified := ClassifyError(err)
	return classified != nil && classified.Type == ErrorTypeModelNotFound
}
