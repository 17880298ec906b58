package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Sentinel and typed errors for transport-level reporting.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	// ErrTransfer marks a server-side transfer that did not complete or a
	// response that lacked the expected transfer directive.
	ErrTransfer = errors.New("transfer failed")
)

// remoteError is the JSON error body returned by the API.
type remoteError struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RateLimitedError includes optional retry-after seconds.
type RateLimitedError struct {
	RetryAfterSeconds int
	Message           string
}

func (e RateLimitedError) Error() string {
	if e.RetryAfterSeconds > 0 {
		return fmt.Sprintf("rate limited, retry after %ds: %s", e.RetryAfterSeconds, e.Message)
	}
	return fmt.Sprintf("rate limited: %s", e.Message)
}

// RemoteError wraps non-specific remote errors with status code and optional request ID.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e RemoteError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("remote error %d (%s): %s [request_id=%s]", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	if e.Code != "" {
		return fmt.Sprintf("remote error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("remote error %d", e.StatusCode)
}

// handleHTTPError processes common HTTP error status codes and returns appropriate errors.
// It consumes the response body.
func handleHTTPError(resp *http.Response) error {
	var e remoteError
	_ = decodeJSON(resp.Body, &e)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, e.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, e.Message)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrValidation, e.Message)
	case http.StatusTooManyRequests:
		retryAfter := 0
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if v, err := strconv.Atoi(ra); err == nil {
				retryAfter = v
			}
		}
		return RateLimitedError{RetryAfterSeconds: retryAfter, Message: e.Message}
	default:
		return RemoteError{StatusCode: resp.StatusCode, Code: e.Error, Message: e.Message, RequestID: e.RequestID}
	}
}
