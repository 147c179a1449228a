package reddit

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the API reports 404 for a resource.
// Callers treat this as absence, not as a failure: a missing user profile
// or a deleted post simply yields no data.
var ErrNotFound = errors.New("reddit: not found")

// APIError represents a non-success response from the Reddit API that is
// not retryable. It carries the HTTP status code so callers can
// distinguish failure classes programmatically.
type APIError struct {
	// StatusCode is the HTTP status of the failed response.
	StatusCode int

	// URL is the request URL that failed.
	URL string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("reddit: request failed with status %d: %s", e.StatusCode, e.URL)
}
