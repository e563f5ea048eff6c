package anthropic

import (
	"errors"
	"fmt"
)

// ErrAPIKeyNotSet is returned when a request is attempted without credentials.
var ErrAPIKeyNotSet = errors.New("anthropic: api key not set (set ANTHROPIC_API_KEY)")

// ValidationError reports a request body that would be rejected upstream.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("anthropic: invalid request: %s: %s", e.Field, e.Reason)
}

// ErrorDetail is the error object carried by API error responses and by
// error events on a stream.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorResponse is the body of a non-2xx API response.
type ErrorResponse struct {
	Type      string      `json:"type"` // "error"
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError is an upstream failure reported by the API itself.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("anthropic: %s (%d): %s [request_id=%s]", e.Type, e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("anthropic: %s (%d): %s", e.Type, e.StatusCode, e.Message)
}

// Wire error types returned by the API.
const (
	ErrTypeInvalidRequest = "invalid_request_error"
	ErrTypeAuthentication = "authentication_error"
	ErrTypePermission     = "permission_error"
	ErrTypeNotFound       = "not_found_error"
	ErrTypeRateLimit      = "rate_limit_error"
	ErrTypeOverloaded     = "overloaded_error"
)

func (e *APIError) IsInvalidRequest() bool { return e.Type == ErrTypeInvalidRequest }
func (e *APIError) IsAuthentication() bool { return e.Type == ErrTypeAuthentication }
func (e *APIError) IsRateLimit() bool      { return e.Type == ErrTypeRateLimit }
func (e *APIError) IsOverloaded() bool     { return e.Type == ErrTypeOverloaded }

// Retryable reports whether the failure class is worth retrying at the
// transport layer. Retrying itself is the caller's business.
func (e *APIError) Retryable() bool {
	return e.Type == ErrTypeRateLimit || e.Type == ErrTypeOverloaded
}

// AsAPIError converts a decoded error response into an *APIError.
func (r *ErrorResponse) AsAPIError(statusCode int) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Type:       r.Error.Type,
		Message:    r.Error.Message,
		RequestID:  r.RequestID,
	}
}
