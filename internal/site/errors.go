package site

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoToken is returned by token providers that could not find a CSRF
// cookie.
var ErrNoToken = errors.New("no csrf token available")

// TransportError is a failure to complete the exchange: the request could
// not be sent, or the reply could not be read or decoded.
type TransportError struct {
	Op  string // "request", "read" or "decode"
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a reply with a non-success HTTP status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// RejectedError is a decoded reply whose success flag is false.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "registration rejected"
	}
	return "registration rejected: " + e.Message
}

// UserMessage returns the server's message for a rejection, or fallback
// for any other error.
func UserMessage(err error, fallback string) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return rejected.Message
	}
	return fallback
}
