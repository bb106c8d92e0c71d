package genai

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey means no credential is configured; callers must reject
// the request before any backend call is attempted.
var ErrMissingAPIKey = errors.New("VERTEX_AI_API_KEY or GOOGLE_API_KEY required")

// ErrEmptyResponse means the backend answered but extraction yielded no text.
var ErrEmptyResponse = errors.New("empty response from generative backend")

// BackendError is a non-2xx response from the backend, preserving the
// remote status and raw body for diagnostics.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("generative backend HTTP %d: %s", e.Status, e.Body)
}
