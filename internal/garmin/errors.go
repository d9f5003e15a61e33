package garmin

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error that occurred during an upstream call
type ErrorType string

const (
	// ErrorTypeAuth indicates the session token was rejected (HTTP 401/403)
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeNetwork indicates a network-level error (connection refused, DNS, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit indicates the request was rejected due to rate limiting (HTTP 429)
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServer indicates a server error (HTTP 5xx)
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeClient indicates a client error (HTTP 4xx except 401/403/429)
	ErrorTypeClient ErrorType = "client"
	// ErrorTypeValidation indicates the response was received but could not be interpreted
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeTimeout indicates the request ran out of time budget
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeUnknown indicates an error of unknown type
	ErrorTypeUnknown ErrorType = "unknown"
)

// APIError represents a structured error from an upstream Garmin call.
// Auth errors are fatal to a whole orchestration; everything else only
// fails the source that raised it.
type APIError struct {
	Type       ErrorType
	Fatal      bool
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *APIError) Unwrap() error {
	return e.Cause
}

// NewAuthError creates a fatal authentication error
func NewAuthError(statusCode int) *APIError {
	return &APIError{
		Type:       ErrorTypeAuth,
		Fatal:      true,
		StatusCode: statusCode,
		Message:    "session invalid or expired",
	}
}

// NewNetworkError creates a network error
func NewNetworkError(cause error) *APIError {
	return &APIError{
		Type:    ErrorTypeNetwork,
		Message: "network request failed",
		Cause:   cause,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(cause error) *APIError {
	return &APIError{
		Type:    ErrorTypeTimeout,
		Message: "request timed out",
		Cause:   cause,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// ClassifyHTTPError classifies an HTTP status code into an appropriate APIError
func ClassifyHTTPError(statusCode int) *APIError {
	switch {
	case statusCode == 401 || statusCode == 403:
		return NewAuthError(statusCode)
	case statusCode == 429:
		return &APIError{
			Type:       ErrorTypeRateLimit,
			StatusCode: statusCode,
			Message:    "rate limit exceeded",
		}
	case statusCode >= 500:
		return &APIError{
			Type:       ErrorTypeServer,
			StatusCode: statusCode,
			Message:    "server returned an error",
		}
	case statusCode >= 400:
		return &APIError{
			Type:       ErrorTypeClient,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("client error: HTTP %d", statusCode),
		}
	default:
		return &APIError{
			Type:       ErrorTypeUnknown,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		}
	}
}

// IsAuthError reports whether err is (or wraps) a fatal authentication error
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrorTypeAuth
}
