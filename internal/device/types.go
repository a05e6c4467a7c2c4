package device

import "time"

// Well-known device IDs used by the default device set and the toggle actions.
const (
	LampID       = "lamp1"
	FanID        = "fan1"
	ThermostatID = "thermostat1"
	SensorID     = "sensor1"
)

// DeviceType is the kind of smart device.
type DeviceType string //nolint:revive // device.DeviceType reads better than device.Type at call sites

// DeviceType constants.
const (
	TypeLight      DeviceType = "light"
	TypeThermostat DeviceType = "thermostat"
	TypeSensor     DeviceType = "sensor"
	TypeFan        DeviceType = "fan"
)

// AllDeviceTypes returns all valid device types.
func AllDeviceTypes() []DeviceType {
	return []DeviceType{TypeLight, TypeThermostat, TypeSensor, TypeFan}
}

// Status is the on/off status of a device.
type Status string

// Status constants.
const (
	StatusOn  Status = "on"
	StatusOff Status = "off"
)

// StatusFromBool maps a boolean switch state to a Status.
func StatusFromBool(on bool) Status {
	if on {
		return StatusOn
	}
	return StatusOff
}

// IsOn reports whether the status is "on".
func (s Status) IsOn() bool {
	return s == StatusOn
}

// SmartDevice is a single device shown on the dashboard.
//
// Identity is ID. Temperature and Humidity are only set for devices that
// report them (thermostat, sensor).
type SmartDevice struct {
	ID          string     `json:"id"`
	Type        DeviceType `json:"type"`
	Power       float64    `json:"power"`
	Status      Status     `json:"status"`
	Temperature *float64   `json:"temperature,omitempty"`
	Humidity    *float64   `json:"humidity,omitempty"`
}

// IsOn reports whether the device is switched on.
func (d SmartDevice) IsOn() bool {
	return d.Status.IsOn()
}

// Clone returns an independent copy of the device. The optional pointer
// fields are copied so that mutating the clone never touches the original.
func (d SmartDevice) Clone() SmartDevice {
	cpy := d
	if d.Temperature != nil {
		cpy.Temperature = Float(*d.Temperature)
	}
	if d.Humidity != nil {
		cpy.Humidity = Float(*d.Humidity)
	}
	return cpy
}

// CloneAll deep-copies a device list, preserving order. A nil list stays nil.
func CloneAll(devices []SmartDevice) []SmartDevice {
	if devices == nil {
		return nil
	}
	cpy := make([]SmartDevice, len(devices))
	for i, d := range devices {
		cpy[i] = d.Clone()
	}
	return cpy
}

// Float returns a pointer to v. Handy for the optional measurement fields.
func Float(v float64) *float64 {
	return &v
}

// SensorReading is a timestamped temperature/humidity sample.
type SensorReading struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
}

// PowerTable holds the rated wattage per device kind.
type PowerTable struct {
	Lamp       float64 `json:"lamp" yaml:"lamp"`
	Fan        float64 `json:"fan" yaml:"fan"`
	Thermostat float64 `json:"thermostat" yaml:"thermostat"`
	Sensor     float64 `json:"sensor" yaml:"sensor"`
}

// DefaultPowerTable returns the stock ratings: lamp 60W, fan 50W,
// thermostat 15W, sensor 5W.
func DefaultPowerTable() PowerTable {
	return PowerTable{
		Lamp:       60,
		Fan:        50,
		Thermostat: 15,
		Sensor:     5,
	}
}
