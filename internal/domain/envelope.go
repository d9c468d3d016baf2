package domain

// Envelope is the JSON wrapper the backend puts around every response.
// HTTP status is not authoritative: Success must be checked even on 200.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// Check returns an *APIError wrapping ErrApplication when the backend reported a failure
func (e *Envelope[T]) Check(status int) error {
	if e.Success {
		return nil
	}
	message := e.Message
	if message == "" {
		message = "request was not successful"
	}
	return &APIError{Status: status, Message: message}
}
