package device

import (
	"fmt"
	"math"
)

// Validation constants.
const (
	maxIDLength = 64

	// Plausibility bounds for sensor readings. Anything outside is treated as
	// a malformed sample rather than weather.
	minTemperature = -100.0
	maxTemperature = 150.0
	minHumidity    = 0.0
	maxHumidity    = 100.0
)

// Pre-computed validation set for O(1) lookups.
var validDeviceTypes map[DeviceType]struct{}

func init() {
	validDeviceTypes = make(map[DeviceType]struct{}, len(AllDeviceTypes()))
	for _, t := range AllDeviceTypes() {
		validDeviceTypes[t] = struct{}{}
	}
}

// ValidateDevice checks a single device.
// Returns an error describing the first validation failure found.
func ValidateDevice(d SmartDevice) error {
	if d.ID == "" || len(d.ID) > maxIDLength {
		return fmt.Errorf("%w: %q", ErrInvalidID, d.ID)
	}
	if !IsValidDeviceType(d.Type) {
		return fmt.Errorf("%w: %q (device %s)", ErrInvalidType, d.Type, d.ID)
	}
	if d.Status != StatusOn && d.Status != StatusOff {
		return fmt.Errorf("%w: %q (device %s)", ErrInvalidStatus, d.Status, d.ID)
	}
	if err := ValidatePower(d.Power); err != nil {
		return fmt.Errorf("%w (device %s)", err, d.ID)
	}
	if d.Temperature != nil && !isFinite(*d.Temperature) {
		return fmt.Errorf("%w: temperature not finite (device %s)", ErrInvalidDevice, d.ID)
	}
	if d.Humidity != nil && !isFinite(*d.Humidity) {
		return fmt.Errorf("%w: humidity not finite (device %s)", ErrInvalidDevice, d.ID)
	}
	return nil
}

// ValidatePower checks that a rated wattage is finite and non-negative.
func ValidatePower(watts float64) error {
	if !isFinite(watts) || watts < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPower, watts)
	}
	return nil
}

// ValidatePowerTable checks every entry of a power table.
func ValidatePowerTable(t PowerTable) error {
	entries := []struct {
		name  string
		watts float64
	}{
		{"lamp", t.Lamp},
		{"fan", t.Fan},
		{"thermostat", t.Thermostat},
		{"sensor", t.Sensor},
	}
	for _, e := range entries {
		if err := ValidatePower(e.watts); err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
	}
	return nil
}

// ValidateReading checks a sensor reading.
func ValidateReading(r SensorReading) error {
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidReading)
	}
	if !isFinite(r.Temperature) || r.Temperature < minTemperature || r.Temperature > maxTemperature {
		return fmt.Errorf("%w: temperature %v out of range", ErrInvalidReading, r.Temperature)
	}
	if !isFinite(r.Humidity) || r.Humidity < minHumidity || r.Humidity > maxHumidity {
		return fmt.Errorf("%w: humidity %v out of range", ErrInvalidReading, r.Humidity)
	}
	return nil
}

// IsValidDeviceType checks if a device type is recognised.
func IsValidDeviceType(t DeviceType) bool {
	_, ok := validDeviceTypes[t]
	return ok
}

// SanitizeDevices returns the valid devices of a list in their original order.
// Invalid entries and later duplicates of an ID are dropped; one error per
// dropped entry is returned so callers can log them.
func SanitizeDevices(devices []SmartDevice) ([]SmartDevice, []error) {
	valid := make([]SmartDevice, 0, len(devices))
	seen := make(map[string]struct{}, len(devices))
	var rejected []error

	for i, d := range devices {
		if err := ValidateDevice(d); err != nil {
			rejected = append(rejected, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		if _, dup := seen[d.ID]; dup {
			rejected = append(rejected, fmt.Errorf("entry %d: %w: %s", i, ErrDuplicateID, d.ID))
			continue
		}
		seen[d.ID] = struct{}{}
		valid = append(valid, d.Clone())
	}

	return valid, rejected
}

// SanitizeReadings returns the valid readings of a batch in their original order.
func SanitizeReadings(readings []SensorReading) ([]SensorReading, []error) {
	valid := make([]SensorReading, 0, len(readings))
	var rejected []error

	for i, r := range readings {
		if err := ValidateReading(r); err != nil {
			rejected = append(rejected, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		valid = append(valid, r)
	}

	return valid, rejected
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
