package gateway

import "errors"

// Sentinel errors for the gateway package.
var (
	// ErrRequestFailed is returned when the request could not be sent or no
	// response was received.
	ErrRequestFailed = errors.New("gateway: request failed")

	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("gateway: unexpected status")

	// ErrInvalidResponse is returned when the body is not the expected JSON list.
	ErrInvalidResponse = errors.New("gateway: invalid response body")
)
