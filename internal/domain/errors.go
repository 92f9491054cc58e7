package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors
var (
	// ErrNotFound indicates a remote object does not exist
	ErrNotFound = errors.New("not found")

	// ErrAuthFailed indicates the API rejected the bearer credential
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRetriesExhausted indicates a remote call kept failing past its retry budget
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrParentNotCreated indicates a page could not be synchronized because
	// its parent never obtained a remote identifier
	ErrParentNotCreated = errors.New("parent document not created")
)

// StructuralError indicates a malformed space tree (dangling parent
// reference, cycle). Fatal for the whole space run, never retried.
type StructuralError struct {
	SpaceKey string
	LocalID  string
	Message  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error in space %s (page %s): %s", e.SpaceKey, e.LocalID, e.Message)
}

// AmbiguousMatchError indicates multiple remote collections share the name
// being resolved. Fatal for the space unless a resolution strategy decides.
type AmbiguousMatchError struct {
	Name          string
	CollectionIDs []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous collection name %q: %d remote collections match", e.Name, len(e.CollectionIDs))
}

// RateLimitError carries the server's backoff hint from a 429 response.
// Recovered locally by the retry executor.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s)", e.RetryAfter)
	}
	return "rate limited"
}

// APIError represents a non-2xx response or an ok=false envelope from the
// remote API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError
func NewAPIError(endpoint string, statusCode int, message string, err error) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// IsRateLimited reports whether err signals server-side rate limiting.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// RetryAfterHint extracts the server-provided backoff duration, if any.
func RetryAfterHint(err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}

// IsTransient reports whether err is a server-side failure worth retrying
// (5xx or a network-level error without a status code).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAuthFailed) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 0 {
			return true // network error, no response
		}
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// IsValidation reports whether err is a structural/validation rejection by
// the remote (4xx other than rate limit). Never retried; the item is marked
// failed and the batch continues.
func IsValidation(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusBadRequest &&
			apiErr.StatusCode < http.StatusInternalServerError &&
			apiErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// IsFatalForSpace reports whether err aborts the whole space run rather than
// a single item.
func IsFatalForSpace(err error) bool {
	var structural *StructuralError
	var ambiguous *AmbiguousMatchError
	return errors.As(err, &structural) ||
		errors.As(err, &ambiguous) ||
		errors.Is(err, ErrAuthFailed)
}
