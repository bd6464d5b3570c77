package services

import (
	"errors"
	"fmt"
)

var (
	ErrNoFileSelected     = errors.New("no CV file selected")
	ErrFileUnreadable     = errors.New("CV file could not be read")
	ErrFileTooLarge       = errors.New("CV file too large")
	ErrSubmissionInFlight = errors.New("an analysis is already in progress")

	ErrNoActiveSession = errors.New("no active session")
	ErrUnknownAction   = errors.New("unknown session action")
	ErrNoCompletePitch = errors.New("no complete pitch to export")

	ErrMalformedPayload = errors.New("malformed response payload")
	ErrWorkerStopped    = errors.New("worker stopped")
)

// TransportError is a request that never produced an HTTP response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a response with a non-2xx status. Message is the payload's
// message field or the operation's fallback text.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed with HTTP status %d: %s", e.Op, e.StatusCode, e.Message)
}
