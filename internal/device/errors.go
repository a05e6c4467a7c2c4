package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrInvalidType) {
//	    // skip the entry
//	}
var (
	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidID is returned when a device ID is empty or too long.
	ErrInvalidID = errors.New("device: invalid id")

	// ErrDuplicateID is returned when a list contains the same ID twice.
	ErrDuplicateID = errors.New("device: duplicate id")

	// ErrInvalidType is returned when a device type is not recognised.
	ErrInvalidType = errors.New("device: invalid type")

	// ErrInvalidStatus is returned when a status is neither "on" nor "off".
	ErrInvalidStatus = errors.New("device: invalid status")

	// ErrInvalidPower is returned when a power rating is negative or not finite.
	ErrInvalidPower = errors.New("device: invalid power")

	// ErrInvalidReading is returned when a sensor reading fails validation.
	ErrInvalidReading = errors.New("device: invalid sensor reading")
)
