package client

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailure is matched by every error the client returns
	ErrFetchFailure = errors.New("fetch failed")

	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs
	ErrInvalidURL = errors.New("invalid URL")

	// ErrInvalidJSON is returned when a response body is not the expected JSON
	ErrInvalidJSON = errors.New("invalid JSON response")

	// ErrResponseTooLarge is returned when a body exceeds Config.MaxBodyBytes
	ErrResponseTooLarge = errors.New("response too large")
)

// FetchError describes a failed outbound request. URL never carries the
// query string, which may hold credentials.
type FetchError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap exposes both ErrFetchFailure and the underlying cause
func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchFailure, e.Err}
}

// upstreamFault reports whether the error says something about the
// upstream's health: no response at all, a 5xx, or throttling.
func (e *FetchError) upstreamFault() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500 || e.StatusCode == 429
}
