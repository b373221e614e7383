package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrMethodNotAllowed is returned for anything but POST and OPTIONS.
	ErrMethodNotAllowed = errors.New("method not allowed")
	// ErrInvalidInput means the request body had no usable messages array.
	ErrInvalidInput = errors.New("invalid messages format")
	// ErrMissingAPIKey means no Gemini key is configured.
	ErrMissingAPIKey = errors.New("gemini api key not configured")
)

// UpstreamError is a non-success answer from the Gemini API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Gemini API error: %d - %s", e.StatusCode, e.Body)
}

// StreamError is a failure reading the upstream body after streaming has started.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
