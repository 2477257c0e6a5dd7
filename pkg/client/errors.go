package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkFailure indicates a transport error, a non-2xx status or an undecodable body.
	ErrNetworkFailure = errors.New("network failure")
	// ErrServerRejected indicates a 2xx response whose payload reports failure.
	ErrServerRejected = errors.New("server rejected request")

	errBuildRequest   = errors.New("failed to build request")
	errEncodeBody     = errors.New("failed to encode request body")
	errDecodeResponse = errors.New("failed to decode response")
	errMissingSession = errors.New("response carried no session id")
	errUnconfirmed    = errors.New("server did not confirm success")
	errOpenFile       = errors.New("failed to open upload file")
)

// RejectedError carries the message the server returned alongside success=false.
type RejectedError struct {
	Endpoint string
	Message  string
}

// Error implements error.
func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", ErrServerRejected.Error(), e.Endpoint)
	}

	return fmt.Sprintf("%s: %s", ErrServerRejected.Error(), e.Message)
}

// Unwrap makes RejectedError match ErrServerRejected.
func (e *RejectedError) Unwrap() error {
	return ErrServerRejected
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s returned status %d", ErrNetworkFailure.Error(), e.Endpoint, e.StatusCode)
	}

	return fmt.Sprintf(
		"%s: %s returned status %d: %s",
		ErrNetworkFailure.Error(),
		e.Endpoint,
		e.StatusCode,
		e.Message,
	)
}

// Unwrap makes StatusError match ErrNetworkFailure.
func (e *StatusError) Unwrap() error {
	return ErrNetworkFailure
}

// ServerMessage extracts the server provided text from an error chain, if any.
//
// Parameters:
//   - err: Error returned by an APIClient call.
//
// Returns:
//   - string: Server message, or an empty string.
func ServerMessage(err error) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Message
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.Message
	}

	return ""
}
