package store

import "github.com/nerrad567/gray-logic-dashboard/internal/device"

// Outcome reports how a store action was resolved.
type Outcome string

// Outcome constants.
const (
	// OutcomeApplied means the change was applied normally.
	OutcomeApplied Outcome = "applied"

	// OutcomeRecovered means corrupt state was reset as part of the action.
	// For UpdateDeviceStatus the requested change is dropped in that case.
	OutcomeRecovered Outcome = "recovered"

	// OutcomeFallback means InitDevices adopted the default device set
	// because the gateway failed or returned nothing usable.
	OutcomeFallback Outcome = "fallback"

	// OutcomeDeviceMissing means the target device is not in the list.
	// Toggle actions still flip their switch.
	OutcomeDeviceMissing Outcome = "device_missing"
)

// Action names reported in events and logs.
const (
	ActionInitDevices        = "init_devices"
	ActionResetDevices       = "reset_devices"
	ActionToggleLamp         = "toggle_lamp"
	ActionToggleFan          = "toggle_fan"
	ActionSetLamp            = "set_lamp"
	ActionSetFan             = "set_fan"
	ActionUpdateDeviceStatus = "update_device_status"
	ActionSetTemperature     = "set_temperature"
	ActionAddSensorData      = "add_sensor_data"
	ActionRestore            = "restore"
)

// Result is an action's outcome together with the state it produced.
type Result struct {
	Outcome Outcome
	State   State
}

// Event is delivered to listeners after every store action.
type Event struct {
	// Seq increases by one per action. Listeners see events in Seq order.
	Seq uint64

	Action  string
	Outcome Outcome
	State   State

	// DeviceID is set for actions that target a single device.
	DeviceID string

	// Reading is set for ActionAddSensorData.
	Reading *device.SensorReading
}

// Listener receives store events. Listeners run synchronously on the
// goroutine that performed the action, after the lock is released, so they
// should return quickly. A listener may read the store but must not run
// store actions: delivery of later events waits for it to return.
type Listener func(Event)
