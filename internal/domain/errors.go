package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTransport   = errors.New("transport failure")
	ErrApplication = errors.New("application failure")
	ErrTimeout     = errors.New("request timed out")

	ErrUnknownEntity       = errors.New("entity not found in collection")
	ErrRequestPending      = errors.New("a confirmation request is already pending")
	ErrNoPendingRequest    = errors.New("no confirmation request is pending")
	ErrSubDecisionRequired = errors.New("choose cascade or reparent before confirming")
	ErrSubDecisionInvalid  = errors.New("sub-decision is not available for this request")
	ErrNothingSelected     = errors.New("no rows selected")
)

// APIError is an application-level failure reported by the backend envelope
type APIError struct {
	Status  int    // HTTP status the envelope arrived with
	Message string // Server-provided message, safe to show to the user
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return ErrApplication
}

// TransportError wraps network, timeout and circuit breaker failures
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// UserMessage returns the text to show for err in a notification
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, ErrTimeout):
		return "the server took too long to respond"
	case errors.Is(err, ErrTransport):
		return "could not reach the server"
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}
