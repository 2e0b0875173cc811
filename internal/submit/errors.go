package submit

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited marks a response the remote service uses to say the
	// caller must wait before trying again. It only reaches callers wrapped
	// in ErrRetriesExhausted.
	ErrRateLimited = errors.New("rate limited by remote service")
	// ErrRetriesExhausted is returned when the retry policy gives up while
	// the remote service is still rate limiting.
	ErrRetriesExhausted = errors.New("rate limit retries exhausted")
)

// RemoteRejectedError is returned when the remote service processed the
// request and declined it.
type RemoteRejectedError struct {
	StatusCode int
	// Message is the raw response body.
	Message string
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("remote service rejected request (status: %d): %s", e.StatusCode, e.Message)
}

// TransportError is returned when the request could not reach the remote
// service or its response could not be read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message returns the diagnostic text for a failed submission: the raw
// response body for remote rejections, the error text otherwise.
func Message(err error) string {
	var rejected *RemoteRejectedError
	if errors.As(err, &rejected) {
		return rejected.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
