package notion

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// apiErrorBody is the JSON error envelope Notion returns alongside non-2xx
// statuses. Details is kept loose because its shape varies by error code.
type apiErrorBody struct {
	Object  string         `json:"object"`
	Status  int            `json:"status"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// parseAPIError decodes the error envelope, falling back to wrapping the raw
// body as the message when the response is not JSON.
func parseAPIError(body []byte) apiErrorBody {
	var parsed apiErrorBody
	if len(body) == 0 {
		return parsed
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		parsed.Message = strings.TrimSpace(string(body))
	}
	return parsed
}

// HTTPError represents an HTTP error response from the Notion API that does
// not map to a more specific error type.
type HTTPError struct {
	// StatusCode is the HTTP status code returned by the API.
	StatusCode int

	// Status is the HTTP status text (e.g., "Bad Request").
	Status string

	// Message is the error message from the API response.
	Message string

	// Code is the specific error code from the Notion API (e.g., "invalid_request").
	Code string

	// RequestID is the unique request ID for debugging purposes.
	RequestID string

	// Details contains additional error details from the API response.
	Details map[string]any
}

// Error returns the error message for HTTPError.
func (e *HTTPError) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("HTTP %d %s: %s (%s)", e.StatusCode, e.Status, e.Message, e.Code)
	} else if e.Message != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d %s", e.StatusCode, e.Status)
}

// IsRetryable returns true if this HTTP error should trigger a retry.
func (e *HTTPError) IsRetryable() bool {
	return isRetryableHTTPStatus(e.StatusCode)
}

// IsServerError returns true if this is a 5xx server error.
func (e *HTTPError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// RateLimitError represents a rate limit error (HTTP 429).
// This includes information about when the client can retry the request.
type RateLimitError struct {
	// RetryAfter is the duration to wait before retrying.
	RetryAfter time.Duration

	// Limit is the rate limit threshold.
	Limit int

	// Remaining is the number of requests remaining.
	Remaining int

	// Reset is when the rate limit window resets.
	Reset time.Time

	// Message is the error message from the API.
	Message string

	// RequestID is the unique request ID for debugging.
	RequestID string
}

// Error returns the error message for RateLimitError.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded, retry after %v: %s", e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("rate limit exceeded: %s", e.Message)
}

// IsRetryable returns true since rate limit errors should always be retried.
func (e *RateLimitError) IsRetryable() bool {
	return true
}

// FieldError is one entry of a validation failure's per-field breakdown.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError represents a request that the API, or this client before
// sending, rejected as malformed. Client-side failures (bad object IDs,
// empty update payloads) are raised with this type before any I/O happens.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string

	// Message is the validation error message.
	Message string

	// Code is the specific validation error code.
	Code string

	// FieldErrors is the per-field breakdown from the API's details.errors,
	// when the response carried one.
	FieldErrors []FieldError

	// RequestID is the unique request ID for debugging.
	RequestID string
}

// Error returns the error message for ValidationError.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// IsRetryable returns false since validation errors indicate client bugs.
func (e *ValidationError) IsRetryable() bool {
	return false
}

// NotFoundError represents a 404 for a resource the integration cannot see,
// either because it does not exist or because it was never shared.
type NotFoundError struct {
	// Resource describes what was looked up, when known.
	Resource string

	// Message is the error message from the API.
	Message string

	// Code is the specific error code from the API.
	Code string

	// RequestID is the unique request ID for debugging.
	RequestID string
}

// Error returns the error message for NotFoundError.
func (e *NotFoundError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("not found: %s: %s", e.Resource, e.Message)
	}
	return fmt.Sprintf("not found: %s", e.Message)
}

// IsRetryable returns false since the resource will not appear by retrying.
func (e *NotFoundError) IsRetryable() bool {
	return false
}

// ConflictError represents a 409, raised when a write races a concurrent
// edit to the same object. Notion recommends retrying these at the caller's
// discretion, so the transport does not retry them automatically.
type ConflictError struct {
	// Message is the error message from the API.
	Message string

	// Code is the specific error code from the API.
	Code string

	// RequestID is the unique request ID for debugging.
	RequestID string
}

// Error returns the error message for ConflictError.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Message)
}

// IsRetryable returns false; the caller decides whether to replay the write.
func (e *ConflictError) IsRetryable() bool {
	return false
}

// TimeoutError represents a request timeout error.
type TimeoutError struct {
	// Timeout is the configured timeout duration.
	Timeout time.Duration

	// Operation is a description of the operation that timed out.
	Operation string

	// Elapsed is how long the operation ran before timing out.
	Elapsed time.Duration
}

// Error returns the error message for TimeoutError.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %v during %s (elapsed: %v)", e.Timeout, e.Operation, e.Elapsed)
}

// IsRetryable returns true since timeouts are often transient.
func (e *TimeoutError) IsRetryable() bool {
	return true
}

// NetworkError represents a network-level error.
// This includes connection failures, DNS errors, etc.
type NetworkError struct {
	// Operation is the network operation that failed.
	Operation string

	// Address is the network address involved.
	Address string

	// Underlying is the underlying network error.
	Underlying error
}

// Error returns the error message for NetworkError.
func (e *NetworkError) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("network error during %s to %s: %v", e.Operation, e.Address, e.Underlying)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Underlying)
}

// IsRetryable returns true since network errors are often transient.
func (e *NetworkError) IsRetryable() bool {
	return true
}

// Unwrap returns the underlying error for error unwrapping.
func (e *NetworkError) Unwrap() error {
	return e.Underlying
}

// AuthenticationError represents an authentication failure (HTTP 401 or a
// credential problem detected before sending).
type AuthenticationError struct {
	// Message is the authentication error message.
	Message string

	// Code is the specific authentication error code.
	Code string

	// RequestID is the unique request ID for debugging.
	RequestID string
}

// Error returns the error message for AuthenticationError.
func (e *AuthenticationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("authentication error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("authentication error: %s", e.Message)
}

// IsRetryable returns false since authentication errors require fixing credentials.
func (e *AuthenticationError) IsRetryable() bool {
	return false
}

// AuthorizationError represents an authorization failure (HTTP 403), meaning
// the token is valid but lacks access to the resource.
type AuthorizationError struct {
	// Message is the authorization error message.
	Message string

	// Code is the specific authorization error code.
	Code string

	// Resource is the resource that access was denied to.
	Resource string

	// RequestID is the unique request ID for debugging.
	RequestID string
}

// Error returns the error message for AuthorizationError.
func (e *AuthorizationError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("authorization error for resource '%s': %s", e.Resource, e.Message)
	}
	return fmt.Sprintf("authorization error: %s", e.Message)
}

// IsRetryable returns false since authorization errors require permission changes.
func (e *AuthorizationError) IsRetryable() bool {
	return false
}

// ConcurrencyError represents an error in concurrent operations, such as an
// overloaded worker pool or an unexpectedly closed channel.
type ConcurrencyError struct {
	// Operation is the concurrent operation that failed.
	Operation string

	// Reason is the reason for the failure.
	Reason string

	// WorkerID is the ID of the worker that encountered the error (if applicable).
	WorkerID int
}

// Error returns the error message for ConcurrencyError.
func (e *ConcurrencyError) Error() string {
	if e.WorkerID > 0 {
		return fmt.Sprintf("concurrency error in %s (worker %d): %s", e.Operation, e.WorkerID, e.Reason)
	}
	return fmt.Sprintf("concurrency error in %s: %s", e.Operation, e.Reason)
}

// IsRetryable returns true since concurrency errors might be transient.
func (e *ConcurrencyError) IsRetryable() bool {
	return true
}

// PaginationError represents an error during paginated operations.
type PaginationError struct {
	// Message is the pagination error message.
	Message string

	// Cursor is the pagination cursor that caused the error.
	Cursor string

	// Page is the page number where the error occurred.
	Page int

	// Operation is the pagination operation that failed.
	Operation string
}

// Error returns the error message for PaginationError.
func (e *PaginationError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("pagination error on page %d during %s: %s", e.Page, e.Operation, e.Message)
	}
	return fmt.Sprintf("pagination error during %s: %s", e.Operation, e.Message)
}

// IsRetryable returns true since pagination errors might be transient.
func (e *PaginationError) IsRetryable() bool {
	return true
}

// SerializationError represents an error during JSON encoding or decoding.
type SerializationError struct {
	// Operation indicates whether this was during marshaling or unmarshaling.
	Operation string // "marshal" or "unmarshal"

	// Type is the Go type involved in the serialization.
	Type string

	// Field is the specific field that caused the error (if known).
	Field string

	// Underlying is the underlying serialization error.
	Underlying error
}

// Error returns the error message for SerializationError.
func (e *SerializationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("serialization error during %s of %s.%s: %v", e.Operation, e.Type, e.Field, e.Underlying)
	}
	return fmt.Sprintf("serialization error during %s of %s: %v", e.Operation, e.Type, e.Underlying)
}

// IsRetryable returns false since serialization errors indicate data format issues.
func (e *SerializationError) IsRetryable() bool {
	return false
}

// Unwrap returns the underlying error for error unwrapping.
func (e *SerializationError) Unwrap() error {
	return e.Underlying
}

// ErrorClassifier converts HTTP responses and transport failures into the
// typed error taxonomy. The retry policy consults it to decide whether an
// attempt may be repeated.
type ErrorClassifier struct{}

// NewErrorClassifier creates a new error classifier.
func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{}
}

// IsRetryable determines if an error should trigger a retry attempt.
func (ec *ErrorClassifier) IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if retryable, ok := err.(interface{ IsRetryable() bool }); ok {
		return retryable.IsRetryable()
	}

	return isRetryableError(err)
}

// ClassifyHTTPError maps a non-2xx response onto the error taxonomy.
// The body is parsed as the Notion error envelope when possible; a non-JSON
// body becomes the message verbatim.
func (ec *ErrorClassifier) ClassifyHTTPError(resp *http.Response, body []byte) error {
	if resp == nil {
		return fmt.Errorf("nil HTTP response")
	}

	requestID := resp.Header.Get("X-Request-Id")
	parsed := parseAPIError(body)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &ValidationError{
			Message:     orDefault(parsed.Message, "invalid request"),
			Code:        parsed.Code,
			FieldErrors: extractFieldErrors(parsed.Details),
			RequestID:   requestID,
		}

	case http.StatusUnauthorized:
		return &AuthenticationError{
			Message:   orDefault(parsed.Message, "invalid or missing API token"),
			Code:      orDefault(parsed.Code, "unauthorized"),
			RequestID: requestID,
		}

	case http.StatusForbidden:
		return &AuthorizationError{
			Message:   "Access forbidden: " + orDefault(parsed.Message, "insufficient permissions"),
			Code:      orDefault(parsed.Code, "forbidden"),
			RequestID: requestID,
		}

	case http.StatusNotFound:
		return &NotFoundError{
			Message:   orDefault(parsed.Message, "resource not found"),
			Code:      parsed.Code,
			RequestID: requestID,
		}

	case http.StatusConflict:
		return &ConflictError{
			Message:   orDefault(parsed.Message, "conflicting concurrent edit"),
			Code:      parsed.Code,
			RequestID: requestID,
		}

	case http.StatusTooManyRequests:
		rateLimitErr := &RateLimitError{
			RequestID: requestID,
			Message:   orDefault(parsed.Message, "rate limit exceeded"),
		}
		if info := ExtractRateLimitInfo(resp); info != nil {
			rateLimitErr.RetryAfter = info.RetryAfter
			rateLimitErr.Limit = info.Limit
			rateLimitErr.Remaining = info.Remaining
			rateLimitErr.Reset = info.Reset
		}
		return rateLimitErr
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Message:    orDefault(parsed.Message, "unknown error"),
		Code:       parsed.Code,
		RequestID:  requestID,
		Details:    parsed.Details,
	}
}

// extractFieldErrors pulls the per-field entries out of details.errors.
func extractFieldErrors(details map[string]any) []FieldError {
	if details == nil {
		return nil
	}
	raw, ok := details["errors"]
	if !ok {
		return nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []FieldError
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		fe := FieldError{}
		if p, ok := m["path"].(string); ok {
			fe.Path = p
		}
		if msg, ok := m["message"].(string); ok {
			fe.Message = msg
		}
		out = append(out, fe)
	}
	return out
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// WrapNetworkError wraps a network error with additional context.
func (ec *ErrorClassifier) WrapNetworkError(operation, address string, err error) error {
	return &NetworkError{
		Operation:  operation,
		Address:    address,
		Underlying: err,
	}
}

// WrapTimeoutError creates a timeout error with context.
func (ec *ErrorClassifier) WrapTimeoutError(operation string, timeout, elapsed time.Duration) error {
	return &TimeoutError{
		Timeout:   timeout,
		Operation: operation,
		Elapsed:   elapsed,
	}
}

// WrapSerializationError creates a serialization error with context.
func (ec *ErrorClassifier) WrapSerializationError(operation, typeName, field string, err error) error {
	return &SerializationError{
		Operation:  operation,
		Type:       typeName,
		Field:      field,
		Underlying: err,
	}
}

// IsTemporary checks if an error is temporary and likely to resolve itself.
func (ec *ErrorClassifier) IsTemporary(err error) bool {
	if err == nil {
		return false
	}

	switch e := err.(type) {
	case *TimeoutError, *NetworkError, *RateLimitError:
		return true
	case *HTTPError:
		return e.IsServerError()
	}

	if temp, ok := err.(interface{ Temporary() bool }); ok {
		return temp.Temporary()
	}

	return false
}

// IsPermanent checks if an error is permanent and won't resolve with retries.
func (ec *ErrorClassifier) IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	switch e := err.(type) {
	case *AuthenticationError, *AuthorizationError, *ValidationError,
		*NotFoundError, *ConflictError, *SerializationError:
		return true
	case *HTTPError:
		return e.StatusCode >= 400 && e.StatusCode < 500
	}

	return false
}
