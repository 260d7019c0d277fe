package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrRateLimit matches a provider 429.
	ErrRateLimit = errors.New("rate limited")

	// ErrProviderUnavailable matches transport failures and 5xx responses.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInvalidResponse matches output that is not valid JSON or fails the
	// request schema.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrTruncated matches output cut off at the token limit.
	ErrTruncated = errors.New("response truncated at max tokens")
)

// APIError is a failed call to a provider.
type APIError struct {
	Provider   string
	Status     int // 0 when the request never got a response
	RetryAfter time.Duration
	Err        error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is maps the status onto ErrRateLimit or ErrProviderUnavailable.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimit:
		return e.Status == http.StatusTooManyRequests
	case ErrProviderUnavailable:
		return e.Status == 0 || e.Status >= 500
	}
	return false
}

// Permanent reports a client error that retrying will not fix.
func (e *APIError) Permanent() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != http.StatusTooManyRequests
}

func apiError(provider string, status int, err error) *APIError {
	return &APIError{Provider: provider, Status: status, Err: err}
}

// ValidationError carries output that failed validation.
type ValidationError struct {
	Content json.RawMessage
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid response: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidResponse }
