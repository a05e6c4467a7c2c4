package relay

import "errors"

var (
	// ErrUnknownCommand is returned for command topics the relay does not handle.
	ErrUnknownCommand = errors.New("relay: unknown command")

	// ErrInvalidCommand is returned when a command payload cannot be applied.
	ErrInvalidCommand = errors.New("relay: invalid command payload")
)
