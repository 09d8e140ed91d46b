package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoChoices is returned when a provider response carries no choices.
	ErrNoChoices = errors.New("model returned no choices")

	// ErrAuthentication classifies 401/403 provider faults.
	ErrAuthentication = errors.New("authentication failed")

	// ErrRateLimited classifies 429 provider faults.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// APIError is a provider fault normalized across vendors. Use errors.Is with
// ErrAuthentication / ErrRateLimited to classify it.
type APIError struct {
	Provider   string `json:"provider"`
	StatusCode int    `json:"status_code,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// NewAPIError wraps err as an APIError for the given provider and status code.
func NewAPIError(provider string, status int, err error) *APIError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &APIError{Provider: provider, StatusCode: status, Message: msg, Err: err}
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s api error: %s", e.Provider, e.Message)
}

// Unwrap exposes the underlying vendor error.
func (e *APIError) Unwrap() error { return e.Err }

// Is matches the classification sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuthentication:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}
