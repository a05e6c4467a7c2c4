package store

import "errors"

// Sentinel errors for the store package.
var (
	// ErrActionPanicked wraps a panic recovered inside a store action.
	ErrActionPanicked = errors.New("store: action panicked")

	// ErrCorruptDevices is returned by Restore when the persisted device list
	// cannot be decoded as a list.
	ErrCorruptDevices = errors.New("store: persisted device list is corrupt")

	// ErrCorruptReadings is returned by Restore when the persisted sensor
	// history cannot be decoded as a list.
	ErrCorruptReadings = errors.New("store: persisted sensor history is corrupt")
)
